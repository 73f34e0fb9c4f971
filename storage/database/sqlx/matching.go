package sqlxrepos

import (
	"context"
	"encoding/json"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/janisrealty/janis/core/matching"
)

type matchingRepository struct {
	base
}

var _ matching.Repository = (*matchingRepository)(nil)

func NewMatchingRepository(db *sqlx.DB) matching.Repository {
	return &matchingRepository{base{db: db}}
}

// matchRow is a match with its details still encoded.
type matchRow struct {
	ID            int64     `db:"id"`
	RequirementID int64     `db:"requirement_id"`
	PropertyID    int64     `db:"property_id"`
	Score         float64   `db:"score"`
	Details       []byte    `db:"details"`
	ComputedAt    time.Time `db:"computed_at"`
}

func (r matchRow) match() (matching.Match, error) {
	m := matching.Match{
		ID:            r.ID,
		RequirementID: r.RequirementID,
		PropertyID:    r.PropertyID,
		Score:         r.Score,
		ComputedAt:    r.ComputedAt,
	}
	err := json.Unmarshal(r.Details, &m.Details)
	return m, errors.Wrap(err, "decoding match details")
}

func (repo *matchingRepository) ListWeights(ctx context.Context) ([]matching.Weight, error) {
	weights := []matching.Weight{}
	if err := repo.selectAll(ctx, &weights, psql.Select("key", "weight").From("matching_weights").OrderBy("key")); err != nil {
		return nil, errors.Wrap(err, "listing weights")
	}
	return weights, nil
}

func upsertWeight(w matching.Weight) sq.InsertBuilder {
	return psql.Insert("matching_weights").Columns("key", "weight").Values(w.Key, w.Weight).
		Suffix("ON CONFLICT (key) DO UPDATE SET weight = EXCLUDED.weight")
}

func (repo *matchingRepository) SaveWeight(ctx context.Context, w matching.Weight) (matching.Weight, error) {
	if _, err := repo.exec(ctx, upsertWeight(w)); err != nil {
		return matching.Weight{}, errors.Wrap(err, "saving weight")
	}
	return w, nil
}

func (repo *matchingRepository) RecordEvent(ctx context.Context, e matching.Event, weights []matching.Weight) (matching.Event, error) {
	err := repo.withTx(ctx, func(tx *sqlx.Tx) error {
		query, args, err := psql.Insert("matching_events").SetMap(values(e, "id")).Suffix("RETURNING id").ToSql()
		if err != nil {
			return err
		}
		if err := tx.GetContext(ctx, &e.ID, query, args...); err != nil {
			return err
		}
		for _, w := range weights {
			if err := txExec(ctx, tx, upsertWeight(w)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return matching.Event{}, errors.Wrap(err, "recording matching event")
	}
	return e, nil
}

func (repo *matchingRepository) ReplaceMatches(ctx context.Context, requirementID int64, matches []matching.Match) ([]matching.Match, error) {
	stored := make([]matching.Match, 0, len(matches))
	err := repo.withTx(ctx, func(tx *sqlx.Tx) error {
		keep := make([]int64, 0, len(matches))
		for _, m := range matches {
			m.RequirementID = requirementID
			query, args, err := psql.Insert("requirement_matches").SetMap(values(m, "id")).
				Suffix(`ON CONFLICT (requirement_id, property_id) DO UPDATE SET
					score = EXCLUDED.score, details = EXCLUDED.details, computed_at = EXCLUDED.computed_at
					RETURNING id`).ToSql()
			if err != nil {
				return err
			}
			if err := tx.GetContext(ctx, &m.ID, query, args...); err != nil {
				return err
			}
			keep = append(keep, m.PropertyID)
			stored = append(stored, m)
		}
		del := psql.Delete("requirement_matches").Where(sq.Eq{"requirement_id": requirementID})
		if len(keep) > 0 {
			del = del.Where(sq.NotEq{"property_id": keep})
		}
		return txExec(ctx, tx, del)
	})
	if err != nil {
		return nil, errors.Wrap(err, "replacing matches")
	}
	return stored, nil
}

func (repo *matchingRepository) ListMatches(ctx context.Context, requirementID int64) ([]matching.Match, error) {
	var rows []matchRow
	q := psql.Select(columns(matchRow{})...).From("requirement_matches").
		Where(sq.Eq{"requirement_id": requirementID}).OrderBy("score DESC", "property_id")
	if err := repo.selectAll(ctx, &rows, q); err != nil {
		return nil, errors.Wrap(err, "listing matches")
	}
	matches := make([]matching.Match, 0, len(rows))
	for _, r := range rows {
		m, err := r.match()
		if err != nil {
			return nil, err
		}
		matches = append(matches, m)
	}
	return matches, nil
}
