package inmemdb

import (
	"context"
	"sort"
	"strings"

	"github.com/janisrealty/janis/core/catalog"
)

type catalogRepository struct {
	db *DB
}

var _ catalog.Repository = (*catalogRepository)(nil)

func NewCatalogRepository(db *DB) catalog.Repository {
	return &catalogRepository{db: db}
}

func sortItems(items []catalog.Item) {
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Order != items[j].Order {
			return items[i].Order < items[j].Order
		}
		return items[i].Name < items[j].Name
	})
}

func (repo *catalogRepository) CreateItem(_ context.Context, it catalog.Item) (catalog.Item, error) {
	tbl := repo.db.items
	tbl.Lock()
	defer tbl.Unlock()
	it.ID = tbl.nextID()
	tbl.put(it.ID, it)
	return it, nil
}

func (repo *catalogRepository) GetItem(_ context.Context, kind catalog.Kind, id int64) (catalog.Item, error) {
	tbl := repo.db.items
	tbl.RLock()
	defer tbl.RUnlock()
	if it, ok := tbl.rows[id]; ok && it.Kind == kind {
		return *it, nil
	}
	return catalog.Item{}, catalog.ErrNotFound
}

func (repo *catalogRepository) FindItem(_ context.Context, kind catalog.Kind, value string, byCode bool, parentID *int64) (catalog.Item, error) {
	tbl := repo.db.items
	tbl.RLock()
	defer tbl.RUnlock()
	it, ok := tbl.first(func(it catalog.Item) bool {
		if it.Kind != kind {
			return false
		}
		if parentID != nil && !eqPtr(it.ParentID, *parentID) {
			return false
		}
		if byCode {
			return strings.EqualFold(it.Code, value)
		}
		return strings.EqualFold(it.Name, value)
	})
	if !ok {
		return catalog.Item{}, catalog.ErrNotFound
	}
	return it, nil
}

func (repo *catalogRepository) ListItems(_ context.Context, kind catalog.Kind, filter catalog.QueryFilter) ([]catalog.Item, error) {
	tbl := repo.db.items
	tbl.RLock()
	defer tbl.RUnlock()
	search := strings.ToLower(filter.Search)
	items := tbl.list(func(it catalog.Item) bool {
		if it.Kind != kind || (!filter.All && !it.IsActive) {
			return false
		}
		if filter.ParentID != nil && !eqPtr(it.ParentID, *filter.ParentID) {
			return false
		}
		return search == "" || strings.Contains(strings.ToLower(it.Name), search) ||
			strings.Contains(strings.ToLower(it.Code), search)
	})
	sortItems(items)
	return items, nil
}

func (repo *catalogRepository) ListItemsByID(_ context.Context, ids ...int64) ([]catalog.Item, error) {
	tbl := repo.db.items
	tbl.RLock()
	defer tbl.RUnlock()
	return tbl.list(func(it catalog.Item) bool { return containsID(ids, it.ID) }), nil
}

func (repo *catalogRepository) UpdateItem(_ context.Context, it catalog.Item) (catalog.Item, error) {
	tbl := repo.db.items
	tbl.Lock()
	defer tbl.Unlock()
	if _, ok := tbl.rows[it.ID]; !ok {
		return catalog.Item{}, catalog.ErrNotFound
	}
	tbl.put(it.ID, it)
	return it, nil
}

func (repo *catalogRepository) DeleteItem(_ context.Context, kind catalog.Kind, id int64) error {
	tbl := repo.db.items
	tbl.Lock()
	defer tbl.Unlock()
	if tbl.remove(func(it catalog.Item) bool { return it.ID == id && it.Kind == kind }) == 0 {
		return catalog.ErrNotFound
	}
	return nil
}
