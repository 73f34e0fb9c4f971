package sqlxrepos

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/janisrealty/janis/core/requirement"
)

// requirement_links relations
const (
	relDistrict       = "district"
	relPreferredFloor = "preferred_floor"
	relZoning         = "zoning"
	relTag            = "tag"
)

var requirementColumns = columns(requirement.Requirement{})

type requirementRepository struct {
	base
}

var _ requirement.Repository = (*requirementRepository)(nil)

func NewRequirementRepository(db *sqlx.DB) requirement.Repository {
	return &requirementRepository{base{db: db}}
}

type requirementLinkRow struct {
	RequirementID int64  `db:"requirement_id"`
	Relation      string `db:"relation"`
	ItemID        int64  `db:"item_id"`
}

func (repo *requirementRepository) list(ctx context.Context, q sq.SelectBuilder) ([]requirement.Requirement, error) {
	reqs := []requirement.Requirement{}
	if err := repo.selectAll(ctx, &reqs, q); err != nil {
		return nil, errors.Wrap(err, "listing requirements")
	}
	if len(reqs) == 0 {
		return reqs, nil
	}
	idx := make(map[int64]int, len(reqs))
	ids := make([]int64, len(reqs))
	for i, r := range reqs {
		idx[r.ID], ids[i] = i, r.ID
	}
	var rows []requirementLinkRow
	lq := psql.Select("requirement_id", "relation", "item_id").From("requirement_links").
		Where(sq.Eq{"requirement_id": ids}).OrderBy("item_id")
	if err := repo.selectAll(ctx, &rows, lq); err != nil {
		return nil, errors.Wrap(err, "listing requirement links")
	}
	for _, row := range rows {
		r := &reqs[idx[row.RequirementID]]
		switch row.Relation {
		case relDistrict:
			r.DistrictIDs = append(r.DistrictIDs, row.ItemID)
		case relPreferredFloor:
			r.PreferredFloorIDs = append(r.PreferredFloorIDs, row.ItemID)
		case relZoning:
			r.ZoningIDs = append(r.ZoningIDs, row.ItemID)
		case relTag:
			r.TagIDs = append(r.TagIDs, row.ItemID)
		}
	}
	return reqs, nil
}

func setLinks(ctx context.Context, tx *sqlx.Tx, id int64, links requirement.Links) error {
	for rel, ids := range map[string][]int64{
		relDistrict:       links.DistrictIDs,
		relPreferredFloor: links.PreferredFloorIDs,
		relZoning:         links.ZoningIDs,
		relTag:            links.TagIDs,
	} {
		err := replaceLinks(ctx, tx, "requirement_links", "requirement_id", id, "item_id", ids, sq.Eq{"relation": rel})
		if err != nil {
			return err
		}
	}
	return nil
}

func (repo *requirementRepository) CreateRequirement(ctx context.Context, r requirement.Requirement) (requirement.Requirement, error) {
	err := repo.withTx(ctx, func(tx *sqlx.Tx) error {
		query, args, err := psql.Insert("requirements").SetMap(values(r, "id")).Suffix("RETURNING id").ToSql()
		if err != nil {
			return err
		}
		if err := tx.GetContext(ctx, &r.ID, query, args...); err != nil {
			return err
		}
		return setLinks(ctx, tx, r.ID, r.Links())
	})
	if err != nil {
		return requirement.Requirement{}, errors.Wrap(err, "inserting requirement")
	}
	return r, nil
}

func (repo *requirementRepository) GetRequirement(ctx context.Context, id int64) (requirement.Requirement, error) {
	reqs, err := repo.list(ctx, psql.Select(requirementColumns...).From("requirements").Where(sq.Eq{"id": id}))
	if err != nil {
		return requirement.Requirement{}, err
	}
	if len(reqs) == 0 {
		return requirement.Requirement{}, requirement.ErrNotFound
	}
	return reqs[0], nil
}

func (repo *requirementRepository) FilterRequirements(ctx context.Context, filter requirement.QueryFilter) ([]requirement.Requirement, error) {
	q := psql.Select(requirementColumns...).From("requirements").OrderBy("created_at DESC", "id DESC")
	if filter.Search != "" {
		q = q.Where(ilike(filter.Search, "client_name"))
	}
	if filter.CreatedByID != nil {
		q = q.Where(sq.Eq{"created_by_id": *filter.CreatedByID})
	}
	if filter.AssignedAgentID != nil {
		q = q.Where(sq.Eq{"assigned_agent_id": *filter.AssignedAgentID})
	}
	return repo.list(ctx, q)
}

// UpdateRequirement keeps the stored links.
func (repo *requirementRepository) UpdateRequirement(ctx context.Context, r requirement.Requirement) (requirement.Requirement, error) {
	if err := updateRow(ctx, repo.base, "requirements", r.ID, r, requirement.ErrNotFound); err != nil {
		return requirement.Requirement{}, err
	}
	return repo.GetRequirement(ctx, r.ID)
}

func (repo *requirementRepository) SetLinks(ctx context.Context, id int64, links requirement.Links) error {
	exists, err := repo.exists(ctx, psql.Select("1").From("requirements").Where(sq.Eq{"id": id}))
	if err != nil {
		return err
	}
	if !exists {
		return requirement.ErrNotFound
	}
	return errors.Wrap(repo.withTx(ctx, func(tx *sqlx.Tx) error {
		return setLinks(ctx, tx, id, links)
	}), "saving requirement links")
}

func (repo *requirementRepository) DeleteRequirement(ctx context.Context, id int64) error {
	return deleteRow(ctx, repo.base, "requirements", id, requirement.ErrNotFound)
}
