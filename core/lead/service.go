package lead

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/kat-co/vala"
	"github.com/pkg/errors"

	"github.com/janisrealty/janis/core"
	"github.com/janisrealty/janis/core/catalog"
	"github.com/janisrealty/janis/core/property"
)

var (
	// errors
	ErrNotFound        = errors.New("lead not found")
	ErrLinkNotFound    = errors.New("whatsapp link not found")
	ErrMessageNotFound = errors.New("message not found")
	ErrNoProperty      = errors.New("no default property to assign lead")
	ErrIdentifierTaken = core.NewFieldError("unique_identifier", "identifier already in use")

	// word runs of any script; hyphens join words but never start or end a token
	tokenRegex = regexp.MustCompile(`[\p{L}\p{N}_]+(?:-+[\p{L}\p{N}_]+)*`)
)

type (
	Repository interface {
		CreateLead(ctx context.Context, l Lead) (Lead, error)
		GetLead(ctx context.Context, id int64) (Lead, error)
		// FindLead returns ErrNotFound when the phone has no lead on the property.
		FindLead(ctx context.Context, phone string, propertyID int64) (Lead, error)
		// LatestLead returns the phone's most recently created lead.
		LatestLead(ctx context.Context, phone string) (Lead, error)
		UpdateLead(ctx context.Context, l Lead) (Lead, error)
		// FilterLeads sorts by last_message_at descending.
		FilterLeads(ctx context.Context, filter QueryFilter) ([]Lead, error)

		CreateLink(ctx context.Context, lk Link) (Link, error)
		GetLink(ctx context.Context, id int64) (Link, error)
		GetLinkByIdentifier(ctx context.Context, identifier string) (Link, error)
		ListLinks(ctx context.Context, propertyID int64) ([]Link, error)
		// FirstLink returns the oldest link of any listing.
		FirstLink(ctx context.Context) (Link, error)
		UpdateLink(ctx context.Context, lk Link) (Link, error)

		CreateMessage(ctx context.Context, m Message) (Message, error)
		GetMessageByExternalID(ctx context.Context, externalID string) (Message, error)
		// ListMessages sorts by created_at.
		ListMessages(ctx context.Context, leadID int64) ([]Message, error)
	}

	// Sender delivers WhatsApp messages. to and from carry the "whatsapp:" prefix.
	Sender interface {
		Send(ctx context.Context, to, body, mediaURL string) (SendResult, error)
	}

	CatalogLookup interface {
		Get(ctx context.Context, kind catalog.Kind, id int64) (catalog.Item, error)
		First(ctx context.Context, kind catalog.Kind) (catalog.Item, error)
	}

	PropertySource interface {
		GetByID(ctx context.Context, id int64) (property.Property, error)
		Filter(ctx context.Context, filter property.QueryFilter, ordering []core.DBOrdering) ([]property.Property, error)
	}

	// Counter counts messages by direction.
	Counter interface {
		Inc(direction string)
	}

	Defaults struct {
		PropertyID      int64
		SocialNetworkID int64
	}

	Service struct {
		repo       Repository
		sender     Sender
		catalogs   CatalogLookup
		properties PropertySource
		defaults   Defaults
		logger     core.Logger
		counter    Counter
	}
)

func NewService(repo Repository, sender Sender, catalogs CatalogLookup, properties PropertySource, defaults Defaults, logger core.Logger, counter Counter) *Service {
	vala.BeginValidation().Validate(
		vala.IsNotNil(repo, "repo"),
		vala.IsNotNil(sender, "sender"),
		vala.IsNotNil(catalogs, "catalogs"),
		vala.IsNotNil(properties, "properties"),
		vala.IsNotNil(logger, "logger"),
	).CheckAndPanic()
	return &Service{
		repo:       repo,
		sender:     sender,
		catalogs:   catalogs,
		properties: properties,
		defaults:   defaults,
		logger:     logger,
		counter:    counter,
	}
}

func (svc *Service) count(direction string) {
	if svc.counter != nil {
		svc.counter.Inc(direction)
	}
}

// findLink returns the first active link whose identifier appears as a word of body.
func (svc *Service) findLink(ctx context.Context, body string) (*Link, error) {
	for _, tok := range tokenRegex.FindAllString(body, -1) {
		lk, err := svc.repo.GetLinkByIdentifier(ctx, tok)
		if err != nil {
			if errors.Is(err, ErrLinkNotFound) {
				continue
			}
			return nil, err
		}
		if lk.IsActive {
			return &lk, nil
		}
	}
	return nil, nil
}

func (svc *Service) firstStatus(ctx context.Context) *int64 {
	st, err := svc.catalogs.First(ctx, catalog.KindLeadStatus)
	if err != nil {
		return nil
	}
	return &st.ID
}

func (svc *Service) defaultProperty(ctx context.Context) (int64, error) {
	if svc.defaults.PropertyID != 0 {
		p, err := svc.properties.GetByID(ctx, svc.defaults.PropertyID)
		if err != nil {
			return 0, errors.Wrapf(err, "configured default property %d", svc.defaults.PropertyID)
		}
		return p.ID, nil
	}
	props, err := svc.properties.Filter(ctx, property.QueryFilter{Limit: 1}, []core.DBOrdering{{Field: "id", Ascending: true}})
	if err != nil {
		return 0, err
	}
	if len(props) == 0 {
		return 0, ErrNoProperty
	}
	return props[0].ID, nil
}

func (svc *Service) defaultSocialNetwork(ctx context.Context) (*int64, error) {
	if svc.defaults.SocialNetworkID != 0 {
		sn, err := svc.catalogs.Get(ctx, catalog.KindSocialNetwork, svc.defaults.SocialNetworkID)
		if err != nil {
			return nil, errors.Wrapf(err, "configured default social network %d", svc.defaults.SocialNetworkID)
		}
		return &sn.ID, nil
	}
	if lk, err := svc.repo.FirstLink(ctx); err == nil && lk.SocialNetworkID != nil {
		return lk.SocialNetworkID, nil
	} else if err != nil && !errors.Is(err, ErrLinkNotFound) {
		return nil, err
	}
	sn, err := svc.catalogs.First(ctx, catalog.KindSocialNetwork)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &sn.ID, nil
}

func (svc *Service) resolveLead(ctx context.Context, phone string, lk *Link) (Lead, error) {
	now := time.Now().UTC()
	if lk != nil {
		l, err := svc.repo.FindLead(ctx, phone, lk.PropertyID)
		if err == nil {
			if l.WhatsAppLinkID == nil || *l.WhatsAppLinkID != lk.ID {
				l.WhatsAppLinkID = &lk.ID
				l.SocialNetworkID = lk.SocialNetworkID
				l.UpdatedAt = now
				return svc.repo.UpdateLead(ctx, l)
			}
			return l, nil
		} else if !errors.Is(err, ErrNotFound) {
			return Lead{}, err
		}
		return svc.repo.CreateLead(ctx, Lead{
			PhoneNumber:     phone,
			PropertyID:      lk.PropertyID,
			WhatsAppLinkID:  &lk.ID,
			SocialNetworkID: lk.SocialNetworkID,
			StatusID:        svc.firstStatus(ctx),
			CreatedAt:       now,
			UpdatedAt:       now,
		})
	}

	l, err := svc.repo.LatestLead(ctx, phone)
	if err == nil {
		return l, nil
	} else if !errors.Is(err, ErrNotFound) {
		return Lead{}, err
	}

	propertyID, err := svc.defaultProperty(ctx)
	if err != nil {
		return Lead{}, err
	}
	socialID, err := svc.defaultSocialNetwork(ctx)
	if err != nil {
		return Lead{}, err
	}
	return svc.repo.CreateLead(ctx, Lead{
		PhoneNumber:     phone,
		PropertyID:      propertyID,
		SocialNetworkID: socialID,
		StatusID:        svc.firstStatus(ctx),
		CreatedAt:       now,
		UpdatedAt:       now,
	})
}

// ProcessIncoming attributes an incoming WhatsApp message to a lead and stores it.
// Redelivered messages only bump the lead's last_message_at.
func (svc *Service) ProcessIncoming(ctx context.Context, in Incoming) (Lead, error) {
	phone := in.phone()
	if phone == "" {
		return Lead{}, core.NewFieldError("From", "missing sender")
	}
	now := time.Now().UTC()

	if extID := in.externalID(); extID != "" {
		existing, err := svc.repo.GetMessageByExternalID(ctx, extID)
		if err == nil {
			l, err := svc.repo.GetLead(ctx, existing.LeadID)
			if err != nil {
				return Lead{}, err
			}
			l.LastMessageAt = &now
			l.UpdatedAt = now
			svc.logger.Info(fmt.Sprintf("lead: message %s already stored", extID))
			return svc.repo.UpdateLead(ctx, l)
		} else if !errors.Is(err, ErrMessageNotFound) {
			return Lead{}, err
		}
	}

	lk, err := svc.findLink(ctx, in.Body)
	if err != nil {
		return Lead{}, err
	}
	l, err := svc.resolveLead(ctx, phone, lk)
	if err != nil {
		return Lead{}, errors.Wrapf(err, "lead.ProcessIncoming(%s)", phone)
	}

	body := in.Body
	if body == "" {
		body = in.MediaType
	}
	if body == "" {
		body = "[MEDIA]"
	}
	sender := core.CleanString(in.ProfileName)
	if sender == "" {
		sender = phone
	}
	msg := Message{
		LeadID:     l.ID,
		PropertyID: l.PropertyID,
		Direction:  DirectionIncoming,
		SenderName: sender,
		Body:       body,
		MediaURL:   in.MediaURL,
		MediaType:  in.MediaType,
		CreatedAt:  now,
	}
	if extID := in.externalID(); extID != "" {
		msg.ExternalID = &extID
	}
	if _, err := svc.repo.CreateMessage(ctx, msg); err != nil {
		return Lead{}, err
	}
	svc.count(DirectionIncoming)

	l.LastMessageAt = &now
	l.UpdatedAt = now
	return svc.repo.UpdateLead(ctx, l)
}

// Send delivers an outgoing message to the lead and stores it.
func (svc *Service) Send(ctx context.Context, l Lead, senderName string, out Outgoing) (SendResult, error) {
	to := normalizePhone(l.PhoneNumber)
	if to == "" {
		return SendResult{}, core.NewFieldError("phone_number", "invalid phone number")
	}
	res, err := svc.sender.Send(ctx, WhatsAppPrefix+to, out.Body, out.MediaURL)
	if err != nil {
		return SendResult{}, errors.Wrapf(err, "lead.Send(%d)", l.ID)
	}
	svc.count(DirectionOutgoing)

	now := time.Now().UTC()
	msg := Message{
		LeadID:     l.ID,
		PropertyID: l.PropertyID,
		Direction:  DirectionOutgoing,
		SenderName: senderName,
		Body:       out.Body,
		MediaURL:   out.MediaURL,
		CreatedAt:  now,
	}
	if res.SID != "" {
		msg.ExternalID = &res.SID
	}
	if _, err := svc.repo.CreateMessage(ctx, msg); err != nil {
		return res, err
	}
	l.LastMessageAt = &now
	l.UpdatedAt = now
	if _, err := svc.repo.UpdateLead(ctx, l); err != nil {
		return res, err
	}
	return res, nil
}

func (svc *Service) Query(ctx context.Context, filter QueryFilter) ([]Lead, error) {
	filter.Phone = core.CleanString(filter.Phone)
	return svc.repo.FilterLeads(ctx, filter)
}

func (svc *Service) Get(ctx context.Context, id int64) (Lead, error) {
	return svc.repo.GetLead(ctx, id)
}

func (svc *Service) Detail(ctx context.Context, id int64) (Detail, error) {
	l, err := svc.repo.GetLead(ctx, id)
	if err != nil {
		return Detail{}, err
	}
	msgs, err := svc.repo.ListMessages(ctx, l.ID)
	if err != nil {
		return Detail{}, err
	}
	if msgs == nil {
		msgs = []Message{}
	}
	return Detail{Lead: l, Messages: msgs}, nil
}

func (svc *Service) SetStatus(ctx context.Context, l Lead, statusID int64) (Lead, error) {
	if _, err := svc.catalogs.Get(ctx, catalog.KindLeadStatus, statusID); err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			return Lead{}, core.NewFieldError("status_id", "unknown lead status")
		}
		return Lead{}, err
	}
	l.StatusID = &statusID
	l.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateLead(ctx, l)
}

func newIdentifier() string {
	return strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}

// CreateLink adds a tracking link to the listing. An empty identifier gets a random one.
func (svc *Service) CreateLink(ctx context.Context, propertyID int64, in LinkInput) (Link, error) {
	ident := in.UniqueIdentifier
	if ident == "" {
		ident = newIdentifier()
	}
	if _, err := svc.repo.GetLinkByIdentifier(ctx, ident); err == nil {
		return Link{}, ErrIdentifierTaken
	} else if !errors.Is(err, ErrLinkNotFound) {
		return Link{}, err
	}
	return svc.repo.CreateLink(ctx, Link{
		UniqueIdentifier: ident,
		PropertyID:       propertyID,
		SocialNetworkID:  in.SocialNetworkID,
		IsActive:         true,
		CreatedAt:        time.Now().UTC(),
	})
}

func (svc *Service) Links(ctx context.Context, propertyID int64) ([]Link, error) {
	return svc.repo.ListLinks(ctx, propertyID)
}

func (svc *Service) DeactivateLink(ctx context.Context, propertyID, id int64) (Link, error) {
	lk, err := svc.repo.GetLink(ctx, id)
	if err != nil {
		return Link{}, err
	}
	if lk.PropertyID != propertyID {
		return Link{}, ErrLinkNotFound
	}
	lk.IsActive = false
	return svc.repo.UpdateLink(ctx, lk)
}
