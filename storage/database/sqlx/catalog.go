package sqlxrepos

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/janisrealty/janis/core/catalog"
)

var itemColumns = columns(catalog.Item{})

type catalogRepository struct {
	base
}

var _ catalog.Repository = (*catalogRepository)(nil)

func NewCatalogRepository(db *sqlx.DB) catalog.Repository {
	return &catalogRepository{base{db: db}}
}

func (repo *catalogRepository) CreateItem(ctx context.Context, it catalog.Item) (catalog.Item, error) {
	id, err := repo.insert(ctx, "catalog_items", it)
	if err != nil {
		return catalog.Item{}, errors.Wrap(err, "inserting catalog item")
	}
	it.ID = id
	return it, nil
}

func (repo *catalogRepository) GetItem(ctx context.Context, kind catalog.Kind, id int64) (catalog.Item, error) {
	var it catalog.Item
	q := psql.Select(itemColumns...).From("catalog_items").Where(sq.Eq{"kind": kind, "id": id})
	if err := repo.get(ctx, &it, q); err != nil {
		return catalog.Item{}, trapNoRows(err, catalog.ErrNotFound, "finding catalog item")
	}
	return it, nil
}

func (repo *catalogRepository) FindItem(ctx context.Context, kind catalog.Kind, value string, byCode bool, parentID *int64) (catalog.Item, error) {
	col := "name"
	if byCode {
		col = "code"
	}
	q := psql.Select(itemColumns...).From("catalog_items").
		Where(sq.Eq{"kind": kind}).
		Where(sq.Expr("LOWER("+col+") = LOWER(?)", value)).
		OrderBy("id").Limit(1)
	if parentID != nil {
		q = q.Where(sq.Eq{"parent_id": *parentID})
	}
	var it catalog.Item
	if err := repo.get(ctx, &it, q); err != nil {
		return catalog.Item{}, trapNoRows(err, catalog.ErrNotFound, "finding catalog item")
	}
	return it, nil
}

func (repo *catalogRepository) ListItems(ctx context.Context, kind catalog.Kind, filter catalog.QueryFilter) ([]catalog.Item, error) {
	q := psql.Select(itemColumns...).From("catalog_items").Where(sq.Eq{"kind": kind}).OrderBy("sort_order", "name")
	if !filter.All {
		q = q.Where(sq.Eq{"is_active": true})
	}
	if filter.ParentID != nil {
		q = q.Where(sq.Eq{"parent_id": *filter.ParentID})
	}
	if filter.Search != "" {
		q = q.Where(ilike(filter.Search, "name", "code"))
	}
	items := []catalog.Item{}
	if err := repo.selectAll(ctx, &items, q); err != nil {
		return nil, errors.Wrap(err, "listing catalog items")
	}
	return items, nil
}

func (repo *catalogRepository) ListItemsByID(ctx context.Context, ids ...int64) ([]catalog.Item, error) {
	items := []catalog.Item{}
	if len(ids) == 0 {
		return items, nil
	}
	q := psql.Select(itemColumns...).From("catalog_items").Where(sq.Eq{"id": ids})
	if err := repo.selectAll(ctx, &items, q); err != nil {
		return nil, errors.Wrap(err, "listing catalog items")
	}
	return items, nil
}

func (repo *catalogRepository) UpdateItem(ctx context.Context, it catalog.Item) (catalog.Item, error) {
	n, err := repo.update(ctx, "catalog_items", it.ID, it)
	if err != nil {
		return catalog.Item{}, errors.Wrap(err, "updating catalog item")
	}
	if n == 0 {
		return catalog.Item{}, catalog.ErrNotFound
	}
	return it, nil
}

func (repo *catalogRepository) DeleteItem(ctx context.Context, kind catalog.Kind, id int64) error {
	n, err := repo.exec(ctx, psql.Delete("catalog_items").Where(sq.Eq{"kind": kind, "id": id}))
	if err != nil {
		return errors.Wrap(err, "deleting catalog item")
	}
	if n == 0 {
		return catalog.ErrNotFound
	}
	return nil
}
