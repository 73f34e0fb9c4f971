package inmemdb

import (
	"context"
	"sort"

	"github.com/janisrealty/janis/core/agenda"
)

const agencyConfigID = 1

type agendaRepository struct {
	db *DB
}

var _ agenda.Repository = (*agendaRepository)(nil)

func NewAgendaRepository(db *DB) agenda.Repository {
	return &agendaRepository{db: db}
}

func (repo *agendaRepository) CreateEvent(_ context.Context, e agenda.Event) (agenda.Event, error) {
	tbl := repo.db.events
	tbl.Lock()
	defer tbl.Unlock()
	e.ID = tbl.nextID()
	tbl.put(e.ID, e)
	return e, nil
}

func (repo *agendaRepository) GetEvent(_ context.Context, id int64) (agenda.Event, error) {
	tbl := repo.db.events
	tbl.RLock()
	defer tbl.RUnlock()
	if e, ok := tbl.rows[id]; ok {
		return *e, nil
	}
	return agenda.Event{}, agenda.ErrNotFound
}

func (repo *agendaRepository) FilterEvents(_ context.Context, filter agenda.QueryFilter) ([]agenda.Event, error) {
	tbl := repo.db.events
	tbl.RLock()
	defer tbl.RUnlock()
	events := tbl.list(func(e agenda.Event) bool {
		if filter.FromDate != nil && e.Date.Before(*filter.FromDate) {
			return false
		}
		if filter.ToDate != nil && e.Date.After(*filter.ToDate) {
			return false
		}
		if filter.AssignedAgentID != nil && !eqPtr(e.AssignedAgentID, *filter.AssignedAgentID) {
			return false
		}
		return filter.PropertyID == nil || eqPtr(e.PropertyID, *filter.PropertyID)
	})
	sort.SliceStable(events, func(i, j int) bool {
		if !events[i].Date.Equal(events[j].Date) {
			return events[i].Date.Before(events[j].Date)
		}
		return events[i].StartTime < events[j].StartTime
	})
	return events, nil
}

func (repo *agendaRepository) UpdateEvent(_ context.Context, e agenda.Event) (agenda.Event, error) {
	tbl := repo.db.events
	tbl.Lock()
	defer tbl.Unlock()
	if _, ok := tbl.rows[e.ID]; !ok {
		return agenda.Event{}, agenda.ErrNotFound
	}
	tbl.put(e.ID, e)
	return e, nil
}

func (repo *agendaRepository) DeleteEvent(_ context.Context, id int64) error {
	tbl := repo.db.events
	tbl.Lock()
	defer tbl.Unlock()
	if tbl.remove(func(e agenda.Event) bool { return e.ID == id }) == 0 {
		return agenda.ErrNotFound
	}
	return nil
}

func (repo *agendaRepository) GetAgencyConfig(_ context.Context) (agenda.AgencyConfig, error) {
	tbl := repo.db.agency
	tbl.RLock()
	defer tbl.RUnlock()
	if ac, ok := tbl.rows[agencyConfigID]; ok {
		return *ac, nil
	}
	return agenda.AgencyConfig{}, nil
}

func (repo *agendaRepository) SaveAgencyConfig(_ context.Context, ac agenda.AgencyConfig) (agenda.AgencyConfig, error) {
	tbl := repo.db.agency
	tbl.Lock()
	defer tbl.Unlock()
	tbl.put(agencyConfigID, ac)
	return ac, nil
}
