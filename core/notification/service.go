package notification

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/mail"
	"time"

	"github.com/kat-co/vala"

	"github.com/janisrealty/janis/core"
	"github.com/janisrealty/janis/core/property"
	"github.com/janisrealty/janis/core/user"
)

var (
	// errors
	ErrNotFound = errors.New("notification not found")
)

type (
	Repository interface {
		// GetOrCreateNotification returns the notification matching n on (user, event type, source
		// type, object id), creating n when there is none.
		GetOrCreateNotification(ctx context.Context, n Notification) (Notification, bool, error)
		// ListNotifications sorts by created_at descending.
		ListNotifications(ctx context.Context, userID int64, page core.Page) ([]Notification, error)
		CountNotifications(ctx context.Context, userID int64, unreadOnly bool) (int, error)
		// MarkRead flags the given unread notifications of the user as read and returns how many were.
		MarkRead(ctx context.Context, userID int64, ids ...int64) (int, error)
	}

	PropertySource interface {
		GetByID(ctx context.Context, id int64) (property.Property, error)
	}

	Service struct {
		repo       Repository
		properties PropertySource
		users      user.ServiceInterface
		mailSvc    core.EmailService
		logger     core.Logger
	}
)

func NewService(repo Repository, properties PropertySource, users user.ServiceInterface, mailSvc core.EmailService, logger core.Logger) *Service {
	vala.BeginValidation().Validate(
		vala.IsNotNil(repo, "repo"),
		vala.IsNotNil(properties, "properties"),
		vala.IsNotNil(users, "users"),
		vala.IsNotNil(mailSvc, "mailSvc"),
		vala.IsNotNil(logger, "logger"),
	).CheckAndPanic()
	return &Service{repo: repo, properties: properties, users: users, mailSvc: mailSvc, logger: logger}
}

// List returns a page of the user's notifications. limit is clamped to 1..100 and offset to >= 0.
func (svc *Service) List(ctx context.Context, userID int64, limit, offset int) (Page, error) {
	page := core.Page{Limit: limit, Offset: offset}.Clamp(DefaultLimit, MaxLimit)
	results, err := svc.repo.ListNotifications(ctx, userID, page)
	if err != nil {
		return Page{}, err
	}
	total, err := svc.repo.CountNotifications(ctx, userID, false)
	if err != nil {
		return Page{}, err
	}
	unread, err := svc.repo.CountNotifications(ctx, userID, true)
	if err != nil {
		return Page{}, err
	}
	if results == nil {
		results = []Notification{}
	}
	return Page{Results: results, Total: total, UnreadCount: unread, Limit: page.Limit, Offset: page.Offset}, nil
}

func (svc *Service) UnreadCount(ctx context.Context, userID int64) (int, error) {
	return svc.repo.CountNotifications(ctx, userID, true)
}

// MarkRead flags the given unread notifications of the user as read.
func (svc *Service) MarkRead(ctx context.Context, userID int64, ids ...int64) (MarkResult, error) {
	if len(ids) == 0 {
		return MarkResult{OK: true}, nil
	}
	n, err := svc.repo.MarkRead(ctx, userID, ids...)
	if err != nil {
		return MarkResult{}, err
	}
	return MarkResult{OK: true, Updated: n}, nil
}

// PropertyMatched notifies the creator of the matched listing when the score is high enough.
func (svc *Service) PropertyMatched(ctx context.Context, evt core.MatchStored) (*Notification, error) {
	if evt.Score < propertyMatchedMinScore {
		return nil, nil
	}
	p, err := svc.properties.GetByID(ctx, evt.PropertyID)
	if err != nil {
		return nil, err
	}
	if p.CreatedByID == nil {
		return nil, nil
	}

	n, created, err := svc.repo.GetOrCreateNotification(ctx, Notification{
		UserID:     *p.CreatedByID,
		EventType:  EventPropertyMatched,
		Title:      propertyMatchedTitle,
		Body:       fmt.Sprintf("Hicieron match con tu propiedad en %.2f %%. ¡Se pondrán en contacto contigo!", evt.Score),
		SourceType: SourceRequirementMatch,
		ObjectID:   evt.MatchID,
		Data: map[string]interface{}{
			"score":          evt.Score,
			"property_id":    evt.PropertyID,
			"requirement_id": evt.RequirementID,
		},
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		return nil, err
	}
	if created {
		svc.email(ctx, n, p)
	}
	return &n, nil
}

// email forwards n to its recipient when their profile asks for it.
func (svc *Service) email(ctx context.Context, n Notification, p property.Property) {
	prof, err := svc.users.Profile(ctx, n.UserID)
	if err != nil || !prof.NotifyEmail {
		return
	}
	usr, err := svc.users.GetByID(ctx, n.UserID)
	if err != nil || usr.Email == "" {
		return
	}
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: usr.FullName(), Address: usr.Email}},
		Subject:      n.Title,
		TemplateName: "property_matched",
		TemplateData: map[string]interface{}{
			"Title":        n.Title,
			"Body":         n.Body,
			"PropertyCode": p.Code,
		},
	})
}

// HandleMatchStored creates the notification for a stored match.
func (svc *Service) HandleMatchStored(data []byte) {
	var evt core.MatchStored
	if err := json.Unmarshal(data, &evt); err != nil {
		svc.logger.Error("decoding stored match", "error", err)
		return
	}
	if _, err := svc.PropertyMatched(context.Background(), evt); err != nil {
		svc.logger.Error("notifying property match", "property_id", evt.PropertyID, "error", err)
	}
}

// Listen subscribes the service to stored matches.
func (svc *Service) Listen(bus core.EventBus) error {
	return bus.Subscribe(core.SubjectMatchStored, svc.HandleMatchStored)
}
