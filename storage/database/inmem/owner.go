package inmemdb

import (
	"context"

	"github.com/janisrealty/janis/core/owner"
)

type ownerRepository struct {
	db *DB
}

var _ owner.Repository = (*ownerRepository)(nil)

func NewOwnerRepository(db *DB) owner.Repository {
	return &ownerRepository{db: db}
}

func (repo *ownerRepository) CreateOwner(_ context.Context, o owner.Owner) (owner.Owner, error) {
	tbl := repo.db.owners
	tbl.Lock()
	defer tbl.Unlock()
	o.ID = tbl.nextID()
	tbl.put(o.ID, o)
	return o, nil
}

func (repo *ownerRepository) GetOwner(_ context.Context, id int64) (owner.Owner, error) {
	tbl := repo.db.owners
	tbl.RLock()
	defer tbl.RUnlock()
	if o, ok := tbl.rows[id]; ok {
		return *o, nil
	}
	return owner.Owner{}, owner.ErrNotFound
}

func (repo *ownerRepository) ListOwners(_ context.Context, isActive *bool) ([]owner.Owner, error) {
	tbl := repo.db.owners
	tbl.RLock()
	defer tbl.RUnlock()
	return tbl.list(func(o owner.Owner) bool { return isActive == nil || o.IsActive == *isActive }), nil
}

func (repo *ownerRepository) ListOwnersByID(_ context.Context, ids ...int64) ([]owner.Owner, error) {
	tbl := repo.db.owners
	tbl.RLock()
	defer tbl.RUnlock()
	return tbl.list(func(o owner.Owner) bool { return containsID(ids, o.ID) }), nil
}

func (repo *ownerRepository) UpdateOwner(_ context.Context, o owner.Owner) (owner.Owner, error) {
	tbl := repo.db.owners
	tbl.Lock()
	defer tbl.Unlock()
	if _, ok := tbl.rows[o.ID]; !ok {
		return owner.Owner{}, owner.ErrNotFound
	}
	tbl.put(o.ID, o)
	return o, nil
}

func (repo *ownerRepository) DeleteOwner(_ context.Context, id int64) error {
	tbl := repo.db.owners
	tbl.Lock()
	defer tbl.Unlock()
	if tbl.remove(func(o owner.Owner) bool { return o.ID == id }) == 0 {
		return owner.ErrNotFound
	}
	return nil
}
