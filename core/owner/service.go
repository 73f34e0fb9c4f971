package owner

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/kat-co/vala"

	"github.com/janisrealty/janis/core"
)

var (
	// errors
	ErrNotFound = errors.New("owner not found")
)

type (
	// Repository stores owners with their personal data sealed.
	Repository interface {
		CreateOwner(ctx context.Context, o Owner) (Owner, error)
		GetOwner(ctx context.Context, id int64) (Owner, error)
		ListOwners(ctx context.Context, isActive *bool) ([]Owner, error)
		ListOwnersByID(ctx context.Context, ids ...int64) ([]Owner, error)
		UpdateOwner(ctx context.Context, o Owner) (Owner, error)
		DeleteOwner(ctx context.Context, id int64) error
	}

	Service struct {
		repo   Repository
		sealer *core.Sealer
	}
)

func NewService(repo Repository, sealer *core.Sealer) *Service {
	vala.BeginValidation().Validate(
		vala.IsNotNil(repo, "repo"),
		vala.IsNotNil(sealer, "sealer"),
	).CheckAndPanic()
	return &Service{repo: repo, sealer: sealer}
}

// sealed returns a copy of o with its personal fields sealed.
func (svc *Service) sealed(o Owner) (Owner, error) {
	for _, f := range []*string{&o.FirstName, &o.LastName, &o.MaternalLastName, &o.Phone, &o.SecondaryPhone, &o.Email} {
		v, err := svc.sealer.Seal(*f)
		if err != nil {
			return Owner{}, err
		}
		*f = v
	}
	return o, nil
}

func (svc *Service) unsealed(o Owner) (Owner, error) {
	for _, f := range []*string{&o.FirstName, &o.LastName, &o.MaternalLastName, &o.Phone, &o.SecondaryPhone, &o.Email} {
		v, err := svc.sealer.Unseal(*f)
		if err != nil {
			return Owner{}, err
		}
		*f = v
	}
	return o, nil
}

func (svc *Service) unsealAll(owners []Owner) ([]Owner, error) {
	out := make([]Owner, 0, len(owners))
	for _, o := range owners {
		o, err := svc.unsealed(o)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, nil
}

func (svc *Service) Create(ctx context.Context, in Input, createdByID *int64) (Owner, error) {
	now := time.Now().UTC()
	o := Owner{IsActive: true, CreatedByID: createdByID, CreatedAt: now, UpdatedAt: now}
	in.apply(&o)
	s, err := svc.sealed(o)
	if err != nil {
		return Owner{}, err
	}
	if s, err = svc.repo.CreateOwner(ctx, s); err != nil {
		return Owner{}, err
	}
	return svc.unsealed(s)
}

func (svc *Service) Get(ctx context.Context, id int64) (Owner, error) {
	o, err := svc.repo.GetOwner(ctx, id)
	if err != nil {
		return Owner{}, err
	}
	return svc.unsealed(o)
}

// Query searches on the full name or the document number. Sealed columns cannot be searched in
// the database so matching happens after unsealing.
func (svc *Service) Query(ctx context.Context, filter QueryFilter) ([]Owner, error) {
	owners, err := svc.repo.ListOwners(ctx, filter.IsActive)
	if err != nil {
		return nil, err
	}
	if owners, err = svc.unsealAll(owners); err != nil {
		return nil, err
	}
	search := core.CleanString(filter.Search, true /* lower */)
	if search == "" {
		return owners, nil
	}
	kept := owners[:0]
	for _, o := range owners {
		if strings.Contains(strings.ToLower(o.FullName()), search) ||
			strings.Contains(strings.ToLower(o.DocumentNumber), search) {
			kept = append(kept, o)
		}
	}
	return kept, nil
}

func (svc *Service) Update(ctx context.Context, o Owner, in Input) (Owner, error) {
	in.apply(&o)
	o.UpdatedAt = time.Now().UTC()
	s, err := svc.sealed(o)
	if err != nil {
		return Owner{}, err
	}
	if s, err = svc.repo.UpdateOwner(ctx, s); err != nil {
		return Owner{}, err
	}
	return svc.unsealed(s)
}

func (svc *Service) Delete(ctx context.Context, id int64) error {
	return svc.repo.DeleteOwner(ctx, id)
}

// FullNames maps owner IDs to their full names.
func (svc *Service) FullNames(ctx context.Context, ids ...int64) (map[int64]string, error) {
	names := make(map[int64]string, len(ids))
	if len(ids) == 0 {
		return names, nil
	}
	owners, err := svc.repo.ListOwnersByID(ctx, ids...)
	if err != nil {
		return nil, err
	}
	if owners, err = svc.unsealAll(owners); err != nil {
		return nil, err
	}
	for _, o := range owners {
		names[o.ID] = o.FullName()
	}
	return names, nil
}
