package sqlxrepos

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/janisrealty/janis/core/lead"
)

var (
	leadColumns = columns(lead.Lead{})
	linkColumns = columns(lead.Link{})
)

type leadRepository struct {
	base
}

var _ lead.Repository = (*leadRepository)(nil)

func NewLeadRepository(db *sqlx.DB) lead.Repository {
	return &leadRepository{base{db: db}}
}

func (repo *leadRepository) oneLead(ctx context.Context, q sq.SelectBuilder) (lead.Lead, error) {
	var l lead.Lead
	if err := repo.get(ctx, &l, q.Limit(1)); err != nil {
		return lead.Lead{}, trapNoRows(err, lead.ErrNotFound, "finding lead")
	}
	return l, nil
}

func (repo *leadRepository) CreateLead(ctx context.Context, l lead.Lead) (lead.Lead, error) {
	id, err := repo.insert(ctx, "leads", l)
	if err != nil {
		return lead.Lead{}, errors.Wrap(err, "inserting lead")
	}
	l.ID = id
	return l, nil
}

func (repo *leadRepository) GetLead(ctx context.Context, id int64) (lead.Lead, error) {
	return getRow[lead.Lead](ctx, repo.base, "leads", id, lead.ErrNotFound)
}

func (repo *leadRepository) FindLead(ctx context.Context, phone string, propertyID int64) (lead.Lead, error) {
	return repo.oneLead(ctx, psql.Select(leadColumns...).From("leads").
		Where(sq.Eq{"phone_number": phone, "property_id": propertyID}))
}

func (repo *leadRepository) LatestLead(ctx context.Context, phone string) (lead.Lead, error) {
	return repo.oneLead(ctx, psql.Select(leadColumns...).From("leads").
		Where(sq.Eq{"phone_number": phone}).OrderBy("created_at DESC", "id DESC"))
}

func (repo *leadRepository) UpdateLead(ctx context.Context, l lead.Lead) (lead.Lead, error) {
	if err := updateRow(ctx, repo.base, "leads", l.ID, l, lead.ErrNotFound); err != nil {
		return lead.Lead{}, err
	}
	return l, nil
}

func (repo *leadRepository) FilterLeads(ctx context.Context, filter lead.QueryFilter) ([]lead.Lead, error) {
	where := sq.And{}
	if filter.StatusID != nil {
		where = append(where, sq.Eq{"status_id": *filter.StatusID})
	}
	if filter.PropertyID != nil {
		where = append(where, sq.Eq{"property_id": *filter.PropertyID})
	}
	if filter.Phone != "" {
		where = append(where, sq.Like{"phone_number": "%" + filter.Phone + "%"})
	}
	return listRows[lead.Lead](ctx, repo.base, "leads", where, "last_message_at DESC NULLS LAST", "id DESC")
}

func (repo *leadRepository) CreateLink(ctx context.Context, lk lead.Link) (lead.Link, error) {
	id, err := repo.insert(ctx, "whatsapp_links", lk)
	if err != nil {
		return lead.Link{}, errors.Wrap(err, "inserting whatsapp link")
	}
	lk.ID = id
	return lk, nil
}

func (repo *leadRepository) GetLink(ctx context.Context, id int64) (lead.Link, error) {
	return getRow[lead.Link](ctx, repo.base, "whatsapp_links", id, lead.ErrLinkNotFound)
}

func (repo *leadRepository) GetLinkByIdentifier(ctx context.Context, identifier string) (lead.Link, error) {
	var lk lead.Link
	q := psql.Select(linkColumns...).From("whatsapp_links").Where(sq.Eq{"unique_identifier": identifier})
	if err := repo.get(ctx, &lk, q); err != nil {
		return lead.Link{}, trapNoRows(err, lead.ErrLinkNotFound, "finding whatsapp link")
	}
	return lk, nil
}

func (repo *leadRepository) ListLinks(ctx context.Context, propertyID int64) ([]lead.Link, error) {
	return listRows[lead.Link](ctx, repo.base, "whatsapp_links", sq.Eq{"property_id": propertyID}, "id")
}

func (repo *leadRepository) FirstLink(ctx context.Context) (lead.Link, error) {
	var lk lead.Link
	q := psql.Select(linkColumns...).From("whatsapp_links").OrderBy("id").Limit(1)
	if err := repo.get(ctx, &lk, q); err != nil {
		return lead.Link{}, trapNoRows(err, lead.ErrLinkNotFound, "finding whatsapp link")
	}
	return lk, nil
}

func (repo *leadRepository) UpdateLink(ctx context.Context, lk lead.Link) (lead.Link, error) {
	if err := updateRow(ctx, repo.base, "whatsapp_links", lk.ID, lk, lead.ErrLinkNotFound); err != nil {
		return lead.Link{}, err
	}
	return lk, nil
}

func (repo *leadRepository) CreateMessage(ctx context.Context, m lead.Message) (lead.Message, error) {
	id, err := repo.insert(ctx, "lead_messages", m)
	if err != nil {
		return lead.Message{}, errors.Wrap(err, "inserting lead message")
	}
	m.ID = id
	return m, nil
}

func (repo *leadRepository) GetMessageByExternalID(ctx context.Context, externalID string) (lead.Message, error) {
	var m lead.Message
	q := psql.Select(columns(m)...).From("lead_messages").Where(sq.Eq{"external_id": externalID})
	if err := repo.get(ctx, &m, q); err != nil {
		return lead.Message{}, trapNoRows(err, lead.ErrMessageNotFound, "finding lead message")
	}
	return m, nil
}

func (repo *leadRepository) ListMessages(ctx context.Context, leadID int64) ([]lead.Message, error) {
	return listRows[lead.Message](ctx, repo.base, "lead_messages", sq.Eq{"lead_id": leadID}, "created_at", "id")
}
