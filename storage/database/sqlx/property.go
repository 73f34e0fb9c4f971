package sqlxrepos

import (
	"context"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/janisrealty/janis/core"
	"github.com/janisrealty/janis/core/property"
)

var propertyColumns = columns(property.Property{})

type propertyRepository struct {
	base
}

var _ property.Repository = (*propertyRepository)(nil)

func NewPropertyRepository(db *sqlx.DB) property.Repository {
	return &propertyRepository{base{db: db}}
}

type propertyTagRow struct {
	PropertyID int64 `db:"property_id"`
	TagID      int64 `db:"tag_id"`
}

func (repo *propertyRepository) list(ctx context.Context, q sq.SelectBuilder) ([]property.Property, error) {
	props := []property.Property{}
	if err := repo.selectAll(ctx, &props, q); err != nil {
		return nil, errors.Wrap(err, "listing properties")
	}
	if len(props) == 0 {
		return props, nil
	}
	ids := make([]int64, len(props))
	for i, p := range props {
		ids[i] = p.ID
	}
	var rows []propertyTagRow
	tq := psql.Select("property_id", "tag_id").From("property_tags").Where(sq.Eq{"property_id": ids}).OrderBy("tag_id")
	if err := repo.selectAll(ctx, &rows, tq); err != nil {
		return nil, errors.Wrap(err, "listing property tags")
	}
	tags := make(map[int64][]int64)
	for _, r := range rows {
		tags[r.PropertyID] = append(tags[r.PropertyID], r.TagID)
	}
	for i := range props {
		props[i].TagIDs = tags[props[i].ID]
	}
	return props, nil
}

func (repo *propertyRepository) one(ctx context.Context, where sq.Sqlizer) (property.Property, error) {
	props, err := repo.list(ctx, psql.Select(propertyColumns...).From("properties").Where(where).Limit(1))
	if err != nil {
		return property.Property{}, err
	}
	if len(props) == 0 {
		return property.Property{}, property.ErrNotFound
	}
	return props[0], nil
}

func (repo *propertyRepository) save(ctx context.Context, p property.Property) (property.Property, error) {
	err := repo.withTx(ctx, func(tx *sqlx.Tx) error {
		if p.ID == 0 {
			query, args, err := psql.Insert("properties").SetMap(values(p, "id")).Suffix("RETURNING id").ToSql()
			if err != nil {
				return err
			}
			if err := tx.GetContext(ctx, &p.ID, query, args...); err != nil {
				return err
			}
		} else if err := txExec(ctx, tx, psql.Update("properties").SetMap(values(p, "id")).Where(sq.Eq{"id": p.ID})); err != nil {
			return err
		}
		return replaceLinks(ctx, tx, "property_tags", "property_id", p.ID, "tag_id", p.TagIDs, nil)
	})
	if err != nil {
		return property.Property{}, errors.Wrap(err, "saving property")
	}
	return p, nil
}

func (repo *propertyRepository) CreateProperty(ctx context.Context, p property.Property) (property.Property, error) {
	p.ID = 0
	return repo.save(ctx, p)
}

func (repo *propertyRepository) GetProperty(ctx context.Context, id int64) (property.Property, error) {
	return repo.one(ctx, sq.Eq{"id": id})
}

func (repo *propertyRepository) GetPropertyByCode(ctx context.Context, code string) (property.Property, error) {
	return repo.one(ctx, sq.Eq{"code": code})
}

func (repo *propertyRepository) UniqueCodeExists(ctx context.Context, code string) (bool, error) {
	return repo.exists(ctx, psql.Select("1").From("properties").Where(sq.Eq{"unique_code": code}))
}

func (repo *propertyRepository) LastPropertyID(ctx context.Context) (int64, error) {
	var id int64
	if err := repo.get(ctx, &id, psql.Select("COALESCE(MAX(id), 0)").From("properties")); err != nil {
		return 0, errors.Wrap(err, "finding last property id")
	}
	return id, nil
}

func (repo *propertyRepository) UpdateProperty(ctx context.Context, p property.Property) (property.Property, error) {
	exists, err := repo.exists(ctx, psql.Select("1").From("properties").Where(sq.Eq{"id": p.ID}))
	if err != nil {
		return property.Property{}, err
	}
	if !exists {
		return property.Property{}, property.ErrNotFound
	}
	return repo.save(ctx, p)
}

func (repo *propertyRepository) DeleteProperty(ctx context.Context, id int64) error {
	return deleteRow(ctx, repo.base, "properties", id, property.ErrNotFound)
}

// propertyWhere translates the filter into conditions on properties.
func propertyWhere(f property.QueryFilter) sq.And {
	where := sq.And{}
	if f.Search != "" {
		where = append(where, ilike(f.Search, "title", "description", "real_address", "exact_address", "code", "unique_code", "district"))
	}
	if f.Province != "" {
		where = append(where, sq.Expr("LOWER(province) = ?", strings.ToLower(f.Province)))
	}
	if f.District != "" {
		where = append(where, sq.Expr("LOWER(district) = ?", strings.ToLower(f.District)))
	}
	if f.PropertyTypeID != nil {
		where = append(where, sq.Eq{"property_type_id": *f.PropertyTypeID})
	}
	if f.StatusID != nil {
		where = append(where, sq.Eq{"status_id": *f.StatusID})
	}
	if f.CurrencyID != nil {
		where = append(where, sq.Eq{"currency_id": *f.CurrencyID})
	}
	if f.ResponsibleID != nil {
		where = append(where, sq.Eq{"responsible_id": *f.ResponsibleID})
	}
	if f.IsActive != nil {
		where = append(where, sq.Eq{"is_active": *f.IsActive})
	}
	if f.IsDraft != nil {
		where = append(where, sq.Eq{"is_draft": *f.IsDraft})
	}
	if f.Source != "" {
		where = append(where, sq.Eq{"source": f.Source})
	}
	if f.MinPrice != nil {
		where = append(where, sq.GtOrEq{"price": *f.MinPrice})
	}
	if f.MaxPrice != nil {
		where = append(where, sq.LtOrEq{"price": *f.MaxPrice})
	}
	if f.PublicOnly {
		where = append(where, sq.Eq{"is_active": true, "is_draft": false})
	}
	if f.VisibleTo != nil {
		where = append(where, sq.Or{
			sq.Eq{"is_draft": false, "is_active": true},
			sq.Eq{"is_draft": true, "responsible_id": *f.VisibleTo},
		})
	}
	if f.MineOf != nil {
		where = append(where, sq.Eq{"is_draft": false, "responsible_id": *f.MineOf})
	}
	if len(f.CreatedByIDs) > 0 {
		where = append(where, sq.Eq{"created_by_id": f.CreatedByIDs})
	}
	if len(f.Codes) > 0 {
		where = append(where, sq.Eq{"code": f.Codes})
	}
	return where
}

func (repo *propertyRepository) FilterProperties(ctx context.Context, filter property.QueryFilter, ordering []core.DBOrdering) ([]property.Property, error) {
	q := psql.Select(propertyColumns...).From("properties").Where(propertyWhere(filter))
	order := orderBy(ordering, "id", "price", "created_at", "updated_at", "code", "title")
	if len(order) == 0 {
		order = []string{"created_at DESC"}
	}
	q = q.OrderBy(append(order, "id")...)
	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit))
	}
	return repo.list(ctx, q)
}

func (repo *propertyRepository) ListPropertiesByID(ctx context.Context, ids ...int64) ([]property.Property, error) {
	if len(ids) == 0 {
		return []property.Property{}, nil
	}
	return repo.list(ctx, psql.Select(propertyColumns...).From("properties").Where(sq.Eq{"id": ids}).OrderBy("id"))
}

func (repo *propertyRepository) CreateChanges(ctx context.Context, changes ...property.Change) error {
	if len(changes) == 0 {
		return nil
	}
	cols := columns(property.Change{}, "id")
	ins := psql.Insert("property_changes").Columns(cols...)
	for _, c := range changes {
		vals := values(c, "id")
		row := make([]interface{}, len(cols))
		for i, col := range cols {
			row[i] = vals[col]
		}
		ins = ins.Values(row...)
	}
	_, err := repo.exec(ctx, ins)
	return errors.Wrap(err, "inserting property changes")
}

func (repo *propertyRepository) ListChanges(ctx context.Context, propertyID int64) ([]property.Change, error) {
	return listRows[property.Change](ctx, repo.base, "property_changes", sq.Eq{"property_id": propertyID}, "changed_at DESC", "id DESC")
}

func (repo *propertyRepository) CreateImage(ctx context.Context, img property.Image) (property.Image, error) {
	id, err := repo.insert(ctx, "property_images", img)
	if err != nil {
		return property.Image{}, errors.Wrap(err, "inserting property image")
	}
	img.ID = id
	return img, nil
}

func (repo *propertyRepository) GetImage(ctx context.Context, id int64) (property.Image, error) {
	return getRow[property.Image](ctx, repo.base, "property_images", id, property.ErrImageNotFound)
}

func (repo *propertyRepository) ListImages(ctx context.Context, propertyID int64) ([]property.Image, error) {
	return listRows[property.Image](ctx, repo.base, "property_images", sq.Eq{"property_id": propertyID}, "sort_order", "id")
}

func (repo *propertyRepository) UpdateImage(ctx context.Context, img property.Image) (property.Image, error) {
	if err := updateRow(ctx, repo.base, "property_images", img.ID, img, property.ErrImageNotFound); err != nil {
		return property.Image{}, err
	}
	return img, nil
}

func (repo *propertyRepository) DeleteImage(ctx context.Context, id int64) error {
	return deleteRow(ctx, repo.base, "property_images", id, property.ErrImageNotFound)
}

func (repo *propertyRepository) UnsetPrimaryImages(ctx context.Context, propertyID, exceptID int64) error {
	_, err := repo.exec(ctx, psql.Update("property_images").Set("is_primary", false).
		Where(sq.Eq{"property_id": propertyID}).Where(sq.NotEq{"id": exceptID}))
	return errors.Wrap(err, "unsetting primary images")
}

func (repo *propertyRepository) CreateVideo(ctx context.Context, v property.Video) (property.Video, error) {
	id, err := repo.insert(ctx, "property_videos", v)
	if err != nil {
		return property.Video{}, errors.Wrap(err, "inserting property video")
	}
	v.ID = id
	return v, nil
}

func (repo *propertyRepository) GetVideo(ctx context.Context, id int64) (property.Video, error) {
	return getRow[property.Video](ctx, repo.base, "property_videos", id, property.ErrVideoNotFound)
}

func (repo *propertyRepository) ListVideos(ctx context.Context, propertyID int64) ([]property.Video, error) {
	return listRows[property.Video](ctx, repo.base, "property_videos", sq.Eq{"property_id": propertyID}, "id")
}

func (repo *propertyRepository) DeleteVideo(ctx context.Context, id int64) error {
	return deleteRow(ctx, repo.base, "property_videos", id, property.ErrVideoNotFound)
}

func (repo *propertyRepository) CreateDocument(ctx context.Context, doc property.Document) (property.Document, error) {
	id, err := repo.insert(ctx, "property_documents", doc)
	if err != nil {
		return property.Document{}, errors.Wrap(err, "inserting property document")
	}
	doc.ID = id
	return doc, nil
}

func (repo *propertyRepository) GetDocument(ctx context.Context, id int64) (property.Document, error) {
	return getRow[property.Document](ctx, repo.base, "property_documents", id, property.ErrDocumentNotFound)
}

func (repo *propertyRepository) ListDocuments(ctx context.Context, propertyID int64) ([]property.Document, error) {
	return listRows[property.Document](ctx, repo.base, "property_documents", sq.Eq{"property_id": propertyID}, "id")
}

func (repo *propertyRepository) UpdateDocument(ctx context.Context, doc property.Document) (property.Document, error) {
	if err := updateRow(ctx, repo.base, "property_documents", doc.ID, doc, property.ErrDocumentNotFound); err != nil {
		return property.Document{}, err
	}
	return doc, nil
}

func (repo *propertyRepository) DeleteDocument(ctx context.Context, id int64) error {
	return deleteRow(ctx, repo.base, "property_documents", id, property.ErrDocumentNotFound)
}

func (repo *propertyRepository) CreateRoom(ctx context.Context, r property.Room) (property.Room, error) {
	id, err := repo.insert(ctx, "property_rooms", r)
	if err != nil {
		return property.Room{}, errors.Wrap(err, "inserting property room")
	}
	r.ID = id
	return r, nil
}

func (repo *propertyRepository) ListRooms(ctx context.Context, propertyID int64) ([]property.Room, error) {
	return listRows[property.Room](ctx, repo.base, "property_rooms", sq.Eq{"property_id": propertyID}, "sort_order", "id")
}

func (repo *propertyRepository) DeleteRoom(ctx context.Context, propertyID, id int64) error {
	n, err := repo.exec(ctx, psql.Delete("property_rooms").Where(sq.Eq{"id": id, "property_id": propertyID}))
	if err != nil {
		return errors.Wrap(err, "deleting property room")
	}
	if n == 0 {
		return property.ErrRoomNotFound
	}
	return nil
}

func (repo *propertyRepository) GetFinancialInfo(ctx context.Context, propertyID int64) (property.FinancialInfo, error) {
	var fi property.FinancialInfo
	q := psql.Select(columns(fi)...).From("property_financial_info").Where(sq.Eq{"property_id": propertyID})
	if err := repo.get(ctx, &fi, q); err != nil {
		if err = trapNoRows(err, nil, "finding financial info"); err != nil {
			return property.FinancialInfo{}, err
		}
		return property.FinancialInfo{PropertyID: propertyID}, nil
	}
	return fi, nil
}

func (repo *propertyRepository) SaveFinancialInfo(ctx context.Context, fi property.FinancialInfo) (property.FinancialInfo, error) {
	vals := values(fi)
	ins := psql.Insert("property_financial_info").SetMap(vals).
		Suffix(`ON CONFLICT (property_id) DO UPDATE SET
			initial_commission_pct = EXCLUDED.initial_commission_pct,
			final_commission_pct = EXCLUDED.final_commission_pct,
			final_amount = EXCLUDED.final_amount,
			negotiation_status_id = EXCLUDED.negotiation_status_id,
			updated_at = EXCLUDED.updated_at`)
	if _, err := repo.exec(ctx, ins); err != nil {
		return property.FinancialInfo{}, errors.Wrap(err, "saving financial info")
	}
	return fi, nil
}
