package inmemdb

import (
	"context"
	"sort"
	"strings"

	"github.com/janisrealty/janis/core/requirement"
)

type requirementRepository struct {
	db *DB
}

var _ requirement.Repository = (*requirementRepository)(nil)

func NewRequirementRepository(db *DB) requirement.Repository {
	return &requirementRepository{db: db}
}

func (repo *requirementRepository) CreateRequirement(_ context.Context, r requirement.Requirement) (requirement.Requirement, error) {
	tbl := repo.db.reqs
	tbl.Lock()
	defer tbl.Unlock()
	r.ID = tbl.nextID()
	tbl.put(r.ID, r)
	return r, nil
}

func (repo *requirementRepository) GetRequirement(_ context.Context, id int64) (requirement.Requirement, error) {
	tbl := repo.db.reqs
	tbl.RLock()
	defer tbl.RUnlock()
	if r, ok := tbl.rows[id]; ok {
		return *r, nil
	}
	return requirement.Requirement{}, requirement.ErrNotFound
}

func (repo *requirementRepository) FilterRequirements(_ context.Context, filter requirement.QueryFilter) ([]requirement.Requirement, error) {
	tbl := repo.db.reqs
	tbl.RLock()
	defer tbl.RUnlock()
	search := strings.ToLower(filter.Search)
	reqs := tbl.list(func(r requirement.Requirement) bool {
		if search != "" && !strings.Contains(strings.ToLower(r.ClientName), search) {
			return false
		}
		if filter.CreatedByID != nil && !eqPtr(r.CreatedByID, *filter.CreatedByID) {
			return false
		}
		return filter.AssignedAgentID == nil || eqPtr(r.AssignedAgentID, *filter.AssignedAgentID)
	})
	sort.SliceStable(reqs, func(i, j int) bool { return reqs[i].CreatedAt.After(reqs[j].CreatedAt) })
	return reqs, nil
}

// UpdateRequirement keeps the stored links.
func (repo *requirementRepository) UpdateRequirement(_ context.Context, r requirement.Requirement) (requirement.Requirement, error) {
	tbl := repo.db.reqs
	tbl.Lock()
	defer tbl.Unlock()
	orig, ok := tbl.rows[r.ID]
	if !ok {
		return requirement.Requirement{}, requirement.ErrNotFound
	}
	r.DistrictIDs = orig.DistrictIDs
	r.PreferredFloorIDs = orig.PreferredFloorIDs
	r.ZoningIDs = orig.ZoningIDs
	r.TagIDs = orig.TagIDs
	tbl.put(r.ID, r)
	return r, nil
}

func (repo *requirementRepository) SetLinks(_ context.Context, id int64, links requirement.Links) error {
	tbl := repo.db.reqs
	tbl.Lock()
	defer tbl.Unlock()
	r, ok := tbl.rows[id]
	if !ok {
		return requirement.ErrNotFound
	}
	r.DistrictIDs = links.DistrictIDs
	r.PreferredFloorIDs = links.PreferredFloorIDs
	r.ZoningIDs = links.ZoningIDs
	r.TagIDs = links.TagIDs
	return nil
}

func (repo *requirementRepository) DeleteRequirement(_ context.Context, id int64) error {
	tbl := repo.db.reqs
	tbl.Lock()
	defer tbl.Unlock()
	if tbl.remove(func(r requirement.Requirement) bool { return r.ID == id }) == 0 {
		return requirement.ErrNotFound
	}
	return nil
}
