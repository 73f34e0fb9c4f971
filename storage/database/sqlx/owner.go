package sqlxrepos

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/janisrealty/janis/core/owner"
)

var ownerColumns = columns(owner.Owner{})

type ownerRepository struct {
	base
}

var _ owner.Repository = (*ownerRepository)(nil)

func NewOwnerRepository(db *sqlx.DB) owner.Repository {
	return &ownerRepository{base{db: db}}
}

type tagRow struct {
	OwnerID int64 `db:"owner_id"`
	TagID   int64 `db:"tag_id"`
}

func (repo *ownerRepository) withTags(ctx context.Context, owners []owner.Owner) ([]owner.Owner, error) {
	if len(owners) == 0 {
		return owners, nil
	}
	ids := make([]int64, len(owners))
	for i, o := range owners {
		ids[i] = o.ID
	}
	var rows []tagRow
	q := psql.Select("owner_id", "tag_id").From("owner_tags").Where(sq.Eq{"owner_id": ids}).OrderBy("tag_id")
	if err := repo.selectAll(ctx, &rows, q); err != nil {
		return nil, errors.Wrap(err, "listing owner tags")
	}
	tags := make(map[int64][]int64)
	for _, r := range rows {
		tags[r.OwnerID] = append(tags[r.OwnerID], r.TagID)
	}
	for i := range owners {
		owners[i].TagIDs = tags[owners[i].ID]
	}
	return owners, nil
}

func (repo *ownerRepository) list(ctx context.Context, q sq.SelectBuilder) ([]owner.Owner, error) {
	owners := []owner.Owner{}
	if err := repo.selectAll(ctx, &owners, q); err != nil {
		return nil, errors.Wrap(err, "listing owners")
	}
	return repo.withTags(ctx, owners)
}

func (repo *ownerRepository) save(ctx context.Context, o owner.Owner) (owner.Owner, error) {
	err := repo.withTx(ctx, func(tx *sqlx.Tx) error {
		if o.ID == 0 {
			query, args, err := psql.Insert("owners").SetMap(values(o, "id")).Suffix("RETURNING id").ToSql()
			if err != nil {
				return err
			}
			if err := tx.GetContext(ctx, &o.ID, query, args...); err != nil {
				return err
			}
		} else if err := txExec(ctx, tx, psql.Update("owners").SetMap(values(o, "id")).Where(sq.Eq{"id": o.ID})); err != nil {
			return err
		}
		return replaceLinks(ctx, tx, "owner_tags", "owner_id", o.ID, "tag_id", o.TagIDs, nil)
	})
	if err != nil {
		return owner.Owner{}, errors.Wrap(err, "saving owner")
	}
	return o, nil
}

func (repo *ownerRepository) CreateOwner(ctx context.Context, o owner.Owner) (owner.Owner, error) {
	o.ID = 0
	return repo.save(ctx, o)
}

func (repo *ownerRepository) GetOwner(ctx context.Context, id int64) (owner.Owner, error) {
	owners, err := repo.list(ctx, psql.Select(ownerColumns...).From("owners").Where(sq.Eq{"id": id}))
	if err != nil {
		return owner.Owner{}, err
	}
	if len(owners) == 0 {
		return owner.Owner{}, owner.ErrNotFound
	}
	return owners[0], nil
}

func (repo *ownerRepository) ListOwners(ctx context.Context, isActive *bool) ([]owner.Owner, error) {
	q := psql.Select(ownerColumns...).From("owners").OrderBy("id DESC")
	if isActive != nil {
		q = q.Where(sq.Eq{"is_active": *isActive})
	}
	return repo.list(ctx, q)
}

func (repo *ownerRepository) ListOwnersByID(ctx context.Context, ids ...int64) ([]owner.Owner, error) {
	if len(ids) == 0 {
		return []owner.Owner{}, nil
	}
	return repo.list(ctx, psql.Select(ownerColumns...).From("owners").Where(sq.Eq{"id": ids}))
}

func (repo *ownerRepository) UpdateOwner(ctx context.Context, o owner.Owner) (owner.Owner, error) {
	exists, err := repo.exists(ctx, psql.Select("1").From("owners").Where(sq.Eq{"id": o.ID}))
	if err != nil {
		return owner.Owner{}, err
	}
	if !exists {
		return owner.Owner{}, owner.ErrNotFound
	}
	return repo.save(ctx, o)
}

func (repo *ownerRepository) DeleteOwner(ctx context.Context, id int64) error {
	n, err := repo.exec(ctx, psql.Delete("owners").Where(sq.Eq{"id": id}))
	if err != nil {
		return errors.Wrap(err, "deleting owner")
	}
	if n == 0 {
		return owner.ErrNotFound
	}
	return nil
}
