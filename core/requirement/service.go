package requirement

import (
	"context"
	"errors"
	"time"

	"github.com/kat-co/vala"

	"github.com/janisrealty/janis/core"
)

var (
	// errors
	ErrNotFound = errors.New("requirement not found")
)

type (
	Repository interface {
		CreateRequirement(ctx context.Context, r Requirement) (Requirement, error)
		GetRequirement(ctx context.Context, id int64) (Requirement, error)
		// FilterRequirements sorts by created_at descending. Search matches the client name.
		FilterRequirements(ctx context.Context, filter QueryFilter) ([]Requirement, error)
		UpdateRequirement(ctx context.Context, r Requirement) (Requirement, error)
		// SetLinks replaces the many-to-many relations of the requirement.
		SetLinks(ctx context.Context, id int64, links Links) error
		DeleteRequirement(ctx context.Context, id int64) error
	}

	Service struct {
		repo   Repository
		bus    core.EventBus
		logger core.Logger
	}
)

func NewService(repo Repository, bus core.EventBus, logger core.Logger) *Service {
	vala.BeginValidation().Validate(
		vala.IsNotNil(repo, "repo"),
		vala.IsNotNil(bus, "bus"),
		vala.IsNotNil(logger, "logger"),
	).CheckAndPanic()
	return &Service{repo: repo, bus: bus, logger: logger}
}

// changed notifies subscribers that r was saved. Publishing failures are logged, not returned.
func (svc *Service) changed(r Requirement, m2m bool) {
	evt := core.RequirementChanged{RequirementID: r.ID, CreatedByID: r.CreatedByID, M2M: m2m}
	if err := svc.bus.Publish(core.SubjectRequirementChanged, evt); err != nil {
		svc.logger.Error("publishing requirement change", "requirement_id", r.ID, "error", err)
	}
}

func (svc *Service) Create(ctx context.Context, in Input, createdByID *int64) (Requirement, error) {
	now := time.Now().UTC()
	r := Requirement{CreatedByID: createdByID, CreatedAt: now, UpdatedAt: now}
	in.apply(&r)
	r, err := svc.repo.CreateRequirement(ctx, r)
	if err != nil {
		return Requirement{}, err
	}
	if in.Links != nil {
		if err := svc.repo.SetLinks(ctx, r.ID, *in.Links); err != nil {
			return Requirement{}, err
		}
	}
	svc.changed(r, false)
	return r, nil
}

func (svc *Service) Get(ctx context.Context, id int64) (Requirement, error) {
	return svc.repo.GetRequirement(ctx, id)
}

func (svc *Service) Query(ctx context.Context, filter QueryFilter) ([]Requirement, error) {
	filter.Search = core.CleanString(filter.Search)
	return svc.repo.FilterRequirements(ctx, filter)
}

// All returns every requirement.
func (svc *Service) All(ctx context.Context) ([]Requirement, error) {
	return svc.repo.FilterRequirements(ctx, QueryFilter{})
}

func (svc *Service) Update(ctx context.Context, r Requirement, in Input) (Requirement, error) {
	in.apply(&r)
	r.UpdatedAt = time.Now().UTC()
	r, err := svc.repo.UpdateRequirement(ctx, r)
	if err != nil {
		return Requirement{}, err
	}
	if in.Links != nil {
		if err := svc.repo.SetLinks(ctx, r.ID, *in.Links); err != nil {
			return Requirement{}, err
		}
	}
	svc.changed(r, false)
	return r, nil
}

// SetLinks replaces the many-to-many relations of r.
func (svc *Service) SetLinks(ctx context.Context, r Requirement, links Links) (Requirement, error) {
	if err := svc.repo.SetLinks(ctx, r.ID, links); err != nil {
		return Requirement{}, err
	}
	links.apply(&r)
	svc.changed(r, true)
	return r, nil
}

func (svc *Service) Delete(ctx context.Context, id int64) error {
	return svc.repo.DeleteRequirement(ctx, id)
}
