package inmemdb

import (
	"context"
	"sort"
	"strings"

	"github.com/janisrealty/janis/core/lead"
)

type leadRepository struct {
	db *DB
}

var _ lead.Repository = (*leadRepository)(nil)

func NewLeadRepository(db *DB) lead.Repository {
	return &leadRepository{db: db}
}

func (repo *leadRepository) CreateLead(_ context.Context, l lead.Lead) (lead.Lead, error) {
	tbl := repo.db.leads
	tbl.Lock()
	defer tbl.Unlock()
	l.ID = tbl.nextID()
	tbl.put(l.ID, l)
	return l, nil
}

func (repo *leadRepository) GetLead(_ context.Context, id int64) (lead.Lead, error) {
	tbl := repo.db.leads
	tbl.RLock()
	defer tbl.RUnlock()
	if l, ok := tbl.rows[id]; ok {
		return *l, nil
	}
	return lead.Lead{}, lead.ErrNotFound
}

func (repo *leadRepository) FindLead(_ context.Context, phone string, propertyID int64) (lead.Lead, error) {
	tbl := repo.db.leads
	tbl.RLock()
	defer tbl.RUnlock()
	if l, ok := tbl.first(func(l lead.Lead) bool { return l.PhoneNumber == phone && l.PropertyID == propertyID }); ok {
		return l, nil
	}
	return lead.Lead{}, lead.ErrNotFound
}

func (repo *leadRepository) LatestLead(_ context.Context, phone string) (lead.Lead, error) {
	tbl := repo.db.leads
	tbl.RLock()
	defer tbl.RUnlock()
	leads := tbl.list(func(l lead.Lead) bool { return l.PhoneNumber == phone })
	if len(leads) == 0 {
		return lead.Lead{}, lead.ErrNotFound
	}
	latest := leads[0]
	for _, l := range leads[1:] {
		if !l.CreatedAt.Before(latest.CreatedAt) {
			latest = l
		}
	}
	return latest, nil
}

func (repo *leadRepository) UpdateLead(_ context.Context, l lead.Lead) (lead.Lead, error) {
	tbl := repo.db.leads
	tbl.Lock()
	defer tbl.Unlock()
	if _, ok := tbl.rows[l.ID]; !ok {
		return lead.Lead{}, lead.ErrNotFound
	}
	tbl.put(l.ID, l)
	return l, nil
}

func (repo *leadRepository) FilterLeads(_ context.Context, filter lead.QueryFilter) ([]lead.Lead, error) {
	tbl := repo.db.leads
	tbl.RLock()
	defer tbl.RUnlock()
	leads := tbl.list(func(l lead.Lead) bool {
		if filter.StatusID != nil && !eqPtr(l.StatusID, *filter.StatusID) {
			return false
		}
		if filter.PropertyID != nil && l.PropertyID != *filter.PropertyID {
			return false
		}
		return filter.Phone == "" || strings.Contains(l.PhoneNumber, filter.Phone)
	})
	sort.SliceStable(leads, func(i, j int) bool {
		a, b := leads[i].LastMessageAt, leads[j].LastMessageAt
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		}
		return a.After(*b)
	})
	return leads, nil
}

func (repo *leadRepository) CreateLink(_ context.Context, lk lead.Link) (lead.Link, error) {
	tbl := repo.db.links
	tbl.Lock()
	defer tbl.Unlock()
	lk.ID = tbl.nextID()
	tbl.put(lk.ID, lk)
	return lk, nil
}

func (repo *leadRepository) GetLink(_ context.Context, id int64) (lead.Link, error) {
	tbl := repo.db.links
	tbl.RLock()
	defer tbl.RUnlock()
	if lk, ok := tbl.rows[id]; ok {
		return *lk, nil
	}
	return lead.Link{}, lead.ErrLinkNotFound
}

func (repo *leadRepository) GetLinkByIdentifier(_ context.Context, identifier string) (lead.Link, error) {
	tbl := repo.db.links
	tbl.RLock()
	defer tbl.RUnlock()
	if lk, ok := tbl.first(func(lk lead.Link) bool { return lk.UniqueIdentifier == identifier }); ok {
		return lk, nil
	}
	return lead.Link{}, lead.ErrLinkNotFound
}

func (repo *leadRepository) ListLinks(_ context.Context, propertyID int64) ([]lead.Link, error) {
	tbl := repo.db.links
	tbl.RLock()
	defer tbl.RUnlock()
	return tbl.list(func(lk lead.Link) bool { return lk.PropertyID == propertyID }), nil
}

func (repo *leadRepository) FirstLink(_ context.Context) (lead.Link, error) {
	tbl := repo.db.links
	tbl.RLock()
	defer tbl.RUnlock()
	if lk, ok := tbl.first(nil); ok {
		return lk, nil
	}
	return lead.Link{}, lead.ErrLinkNotFound
}

func (repo *leadRepository) UpdateLink(_ context.Context, lk lead.Link) (lead.Link, error) {
	tbl := repo.db.links
	tbl.Lock()
	defer tbl.Unlock()
	if _, ok := tbl.rows[lk.ID]; !ok {
		return lead.Link{}, lead.ErrLinkNotFound
	}
	tbl.put(lk.ID, lk)
	return lk, nil
}

func (repo *leadRepository) CreateMessage(_ context.Context, m lead.Message) (lead.Message, error) {
	tbl := repo.db.leadMsgs
	tbl.Lock()
	defer tbl.Unlock()
	m.ID = tbl.nextID()
	tbl.put(m.ID, m)
	return m, nil
}

func (repo *leadRepository) GetMessageByExternalID(_ context.Context, externalID string) (lead.Message, error) {
	tbl := repo.db.leadMsgs
	tbl.RLock()
	defer tbl.RUnlock()
	if m, ok := tbl.first(func(m lead.Message) bool { return m.ExternalID != nil && *m.ExternalID == externalID }); ok {
		return m, nil
	}
	return lead.Message{}, lead.ErrMessageNotFound
}

func (repo *leadRepository) ListMessages(_ context.Context, leadID int64) ([]lead.Message, error) {
	tbl := repo.db.leadMsgs
	tbl.RLock()
	defer tbl.RUnlock()
	msgs := tbl.list(func(m lead.Message) bool { return m.LeadID == leadID })
	sort.SliceStable(msgs, func(i, j int) bool { return msgs[i].CreatedAt.Before(msgs[j].CreatedAt) })
	return msgs, nil
}
