package agenda

import (
	"context"
	"errors"
	"time"

	"github.com/kat-co/vala"
)

var (
	// errors
	ErrNotFound = errors.New("event not found")
)

type (
	Repository interface {
		CreateEvent(ctx context.Context, e Event) (Event, error)
		GetEvent(ctx context.Context, id int64) (Event, error)
		// FilterEvents sorts by date then start time.
		FilterEvents(ctx context.Context, filter QueryFilter) ([]Event, error)
		UpdateEvent(ctx context.Context, e Event) (Event, error)
		DeleteEvent(ctx context.Context, id int64) error

		// GetAgencyConfig returns a zero AgencyConfig when none was saved.
		GetAgencyConfig(ctx context.Context) (AgencyConfig, error)
		SaveAgencyConfig(ctx context.Context, ac AgencyConfig) (AgencyConfig, error)
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	vala.BeginValidation().Validate(vala.IsNotNil(repo, "repo")).CheckAndPanic()
	return &Service{repo: repo}
}

func (svc *Service) Create(ctx context.Context, in EventInput, createdByID *int64) (Event, error) {
	e := Event{CreatedByID: createdByID, CreatedAt: time.Now().UTC()}
	in.apply(&e)
	return svc.repo.CreateEvent(ctx, e)
}

func (svc *Service) Get(ctx context.Context, id int64) (Event, error) {
	return svc.repo.GetEvent(ctx, id)
}

func (svc *Service) Query(ctx context.Context, filter QueryFilter) ([]Event, error) {
	if err := filter.Clean(); err != nil {
		return nil, err
	}
	return svc.repo.FilterEvents(ctx, filter)
}

func (svc *Service) Update(ctx context.Context, e Event, in EventInput) (Event, error) {
	in.apply(&e)
	return svc.repo.UpdateEvent(ctx, e)
}

func (svc *Service) Delete(ctx context.Context, id int64) error {
	return svc.repo.DeleteEvent(ctx, id)
}

func (svc *Service) AgencyConfig(ctx context.Context) (AgencyConfig, error) {
	return svc.repo.GetAgencyConfig(ctx)
}

func (svc *Service) SaveAgencyConfig(ctx context.Context, ac AgencyConfig) (AgencyConfig, error) {
	ac.UpdatedAt = time.Now().UTC()
	return svc.repo.SaveAgencyConfig(ctx, ac)
}
