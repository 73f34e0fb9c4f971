package sqlxrepos

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/janisrealty/janis/core/agenda"
)

type agendaRepository struct {
	base
}

var _ agenda.Repository = (*agendaRepository)(nil)

func NewAgendaRepository(db *sqlx.DB) agenda.Repository {
	return &agendaRepository{base{db: db}}
}

func (repo *agendaRepository) CreateEvent(ctx context.Context, e agenda.Event) (agenda.Event, error) {
	id, err := repo.insert(ctx, "events", e)
	if err != nil {
		return agenda.Event{}, errors.Wrap(err, "inserting event")
	}
	e.ID = id
	return e, nil
}

func (repo *agendaRepository) GetEvent(ctx context.Context, id int64) (agenda.Event, error) {
	return getRow[agenda.Event](ctx, repo.base, "events", id, agenda.ErrNotFound)
}

func (repo *agendaRepository) FilterEvents(ctx context.Context, filter agenda.QueryFilter) ([]agenda.Event, error) {
	where := sq.And{}
	if filter.FromDate != nil {
		where = append(where, sq.GtOrEq{"date": *filter.FromDate})
	}
	if filter.ToDate != nil {
		where = append(where, sq.LtOrEq{"date": *filter.ToDate})
	}
	if filter.AssignedAgentID != nil {
		where = append(where, sq.Eq{"assigned_agent_id": *filter.AssignedAgentID})
	}
	if filter.PropertyID != nil {
		where = append(where, sq.Eq{"property_id": *filter.PropertyID})
	}
	return listRows[agenda.Event](ctx, repo.base, "events", where, "date", "start_time", "id")
}

func (repo *agendaRepository) UpdateEvent(ctx context.Context, e agenda.Event) (agenda.Event, error) {
	if err := updateRow(ctx, repo.base, "events", e.ID, e, agenda.ErrNotFound); err != nil {
		return agenda.Event{}, err
	}
	return e, nil
}

func (repo *agendaRepository) DeleteEvent(ctx context.Context, id int64) error {
	return deleteRow(ctx, repo.base, "events", id, agenda.ErrNotFound)
}

func (repo *agendaRepository) GetAgencyConfig(ctx context.Context) (agenda.AgencyConfig, error) {
	var ac agenda.AgencyConfig
	q := psql.Select(columns(ac)...).From("agency_config").Where(sq.Eq{"id": 1})
	if err := repo.get(ctx, &ac, q); err != nil {
		return agenda.AgencyConfig{}, trapNoRows(err, nil, "finding agency config")
	}
	return ac, nil
}

func (repo *agendaRepository) SaveAgencyConfig(ctx context.Context, ac agenda.AgencyConfig) (agenda.AgencyConfig, error) {
	vals := values(ac)
	set := make([]string, 0, len(vals))
	for col := range vals {
		set = append(set, col+" = EXCLUDED."+col)
	}
	vals["id"] = 1
	q := psql.Insert("agency_config").SetMap(vals).Suffix("ON CONFLICT (id) DO UPDATE SET " + joinComma(set))
	if _, err := repo.exec(ctx, q); err != nil {
		return agenda.AgencyConfig{}, errors.Wrap(err, "saving agency config")
	}
	return ac, nil
}
