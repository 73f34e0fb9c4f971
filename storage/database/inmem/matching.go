package inmemdb

import (
	"context"
	"sort"

	"github.com/janisrealty/janis/core/matching"
)

type matchingRepository struct {
	db *DB
}

var _ matching.Repository = (*matchingRepository)(nil)

func NewMatchingRepository(db *DB) matching.Repository {
	return &matchingRepository{db: db}
}

func (repo *matchingRepository) ListWeights(_ context.Context) ([]matching.Weight, error) {
	tbl := repo.db.weights
	tbl.RLock()
	defer tbl.RUnlock()
	return tbl.list(nil), nil
}

func (repo *matchingRepository) SaveWeight(_ context.Context, w matching.Weight) (matching.Weight, error) {
	tbl := repo.db.weights
	tbl.Lock()
	defer tbl.Unlock()
	upsertWeight(tbl, w)
	return w, nil
}

// upsertWeight must be called with the table locked.
func upsertWeight(tbl *table[matching.Weight], w matching.Weight) {
	for _, row := range tbl.rows {
		if row.Key == w.Key {
			*row = w
			return
		}
	}
	tbl.put(tbl.nextID(), w)
}

func (repo *matchingRepository) RecordEvent(_ context.Context, e matching.Event, weights []matching.Weight) (matching.Event, error) {
	events, wtbl := repo.db.matchEvents, repo.db.weights
	events.Lock()
	defer events.Unlock()
	wtbl.Lock()
	defer wtbl.Unlock()

	e.ID = events.nextID()
	events.put(e.ID, e)
	for _, w := range weights {
		upsertWeight(wtbl, w)
	}
	return e, nil
}

func (repo *matchingRepository) ReplaceMatches(_ context.Context, requirementID int64, matches []matching.Match) ([]matching.Match, error) {
	tbl := repo.db.matches
	tbl.Lock()
	defer tbl.Unlock()

	existing := make(map[int64]int64) // property id -> match id
	for id, m := range tbl.rows {
		if m.RequirementID == requirementID {
			existing[m.PropertyID] = id
		}
	}
	kept := make(map[int64]bool, len(matches))
	stored := make([]matching.Match, 0, len(matches))
	for _, m := range matches {
		m.RequirementID = requirementID
		if id, ok := existing[m.PropertyID]; ok {
			m.ID = id
		} else {
			m.ID = tbl.nextID()
		}
		tbl.put(m.ID, m)
		kept[m.ID] = true
		stored = append(stored, m)
	}
	tbl.remove(func(m matching.Match) bool { return m.RequirementID == requirementID && !kept[m.ID] })
	return stored, nil
}

func (repo *matchingRepository) ListMatches(_ context.Context, requirementID int64) ([]matching.Match, error) {
	tbl := repo.db.matches
	tbl.RLock()
	defer tbl.RUnlock()
	matches := tbl.list(func(m matching.Match) bool { return m.RequirementID == requirementID })
	sort.SliceStable(matches, func(i, j int) bool { return matches[i].Score > matches[j].Score })
	return matches, nil
}
