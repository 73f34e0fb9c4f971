package sqlxrepos

import (
	"context"
	"database/sql"
	"encoding/json"
	"reflect"
	"sort"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/janisrealty/janis/core"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

type base struct {
	db *sqlx.DB
}

// columns lists the db tagged fields of the struct v, skipping "-" and the given names.
func columns(v interface{}, skip ...string) []string {
	t := reflect.TypeOf(v)
	cols := make([]string, 0, t.NumField())
outer:
	for i := 0; i < t.NumField(); i++ {
		name := strings.Split(t.Field(i).Tag.Get("db"), ",")[0]
		if name == "" || name == "-" {
			continue
		}
		for _, s := range skip {
			if s == name {
				continue outer
			}
		}
		cols = append(cols, name)
	}
	return cols
}

// values maps the db tagged fields of the struct v to their values. Maps are encoded as JSON.
func values(v interface{}, skip ...string) map[string]interface{} {
	rv := reflect.ValueOf(v)
	t := rv.Type()
	vals := make(map[string]interface{}, t.NumField())
outer:
	for i := 0; i < t.NumField(); i++ {
		name := strings.Split(t.Field(i).Tag.Get("db"), ",")[0]
		if name == "" || name == "-" {
			continue
		}
		for _, s := range skip {
			if s == name {
				continue outer
			}
		}
		fv := rv.Field(i)
		if fv.Kind() == reflect.Map {
			b, err := json.Marshal(fv.Interface())
			if err != nil {
				b = []byte("{}")
			}
			vals[name] = string(b)
			continue
		}
		vals[name] = fv.Interface()
	}
	return vals
}

func joinComma(parts []string) string {
	sort.Strings(parts)
	return strings.Join(parts, ", ")
}

// trapNoRows maps "no rows" to notFound.
func trapNoRows(err error, notFound error, msg string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return notFound
	}
	return errors.Wrap(err, msg)
}

func (b base) get(ctx context.Context, dest interface{}, q sq.Sqlizer) error {
	query, args, err := q.ToSql()
	if err != nil {
		return err
	}
	return b.db.GetContext(ctx, dest, query, args...)
}

func (b base) selectAll(ctx context.Context, dest interface{}, q sq.Sqlizer) error {
	query, args, err := q.ToSql()
	if err != nil {
		return err
	}
	return b.db.SelectContext(ctx, dest, query, args...)
}

func (b base) exists(ctx context.Context, q sq.SelectBuilder) (bool, error) {
	var exists bool
	if err := b.get(ctx, &exists, q.Prefix("SELECT EXISTS (").Suffix(")")); err != nil {
		return false, errors.Wrap(err, "checking existence")
	}
	return exists, nil
}

func (b base) exec(ctx context.Context, q sq.Sqlizer) (int64, error) {
	query, args, err := q.ToSql()
	if err != nil {
		return 0, err
	}
	res, err := b.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// insert stores the row and returns its generated id.
func (b base) insert(ctx context.Context, table string, row interface{}) (int64, error) {
	var id int64
	err := b.get(ctx, &id, psql.Insert(table).SetMap(values(row, "id")).Suffix("RETURNING id"))
	return id, err
}

// update saves every column of the row identified by its id.
func (b base) update(ctx context.Context, table string, id int64, row interface{}) (int64, error) {
	return b.exec(ctx, psql.Update(table).SetMap(values(row, "id")).Where(sq.Eq{"id": id}))
}

// withTx runs fn in a transaction, rolling back on error.
func (b base) withTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := b.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "beginning transaction")
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return errors.Wrap(tx.Commit(), "committing transaction")
}

func txExec(ctx context.Context, tx *sqlx.Tx, q sq.Sqlizer) error {
	query, args, err := q.ToSql()
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, query, args...)
	return err
}

func orderBy(ordering []core.DBOrdering, allowed ...string) []string {
	kept := core.AllowedOrderings(ordering, allowed...)
	out := make([]string, 0, len(kept))
	for _, ord := range kept {
		out = append(out, ord.String())
	}
	return out
}

// ilike matches value anywhere in any of the columns, case-insensitively.
func ilike(value string, cols ...string) sq.Or {
	or := make(sq.Or, 0, len(cols))
	for _, c := range cols {
		or = append(or, sq.ILike{c: "%" + value + "%"})
	}
	return or
}

// replaceLinks replaces the (owner, item) rows of a join table.
func replaceLinks(ctx context.Context, tx *sqlx.Tx, table, ownerCol string, ownerID int64, itemCol string, itemIDs []int64, extra sq.Eq) error {
	where := sq.Eq{ownerCol: ownerID}
	for k, v := range extra {
		where[k] = v
	}
	if err := txExec(ctx, tx, psql.Delete(table).Where(where)); err != nil {
		return err
	}
	if len(itemIDs) == 0 {
		return nil
	}
	cols := []string{ownerCol, itemCol}
	for k := range extra {
		cols = append(cols, k)
	}
	ins := psql.Insert(table).Columns(cols...)
	for _, id := range itemIDs {
		vals := []interface{}{ownerID, id}
		for _, k := range cols[2:] {
			vals = append(vals, extra[k])
		}
		ins = ins.Values(vals...)
	}
	return txExec(ctx, tx, ins.Suffix("ON CONFLICT DO NOTHING"))
}

// getRow loads the row of table identified by id into a T.
func getRow[T any](ctx context.Context, b base, table string, id int64, notFound error) (T, error) {
	var row T
	q := psql.Select(columns(row)...).From(table).Where(sq.Eq{"id": id})
	if err := b.get(ctx, &row, q); err != nil {
		return row, trapNoRows(err, notFound, "finding "+table)
	}
	return row, nil
}

// listRows selects the columns of T from table.
func listRows[T any](ctx context.Context, b base, table string, where sq.Sqlizer, orderBy ...string) ([]T, error) {
	var zero T
	rows := []T{}
	q := psql.Select(columns(zero)...).From(table).Where(where).OrderBy(orderBy...)
	if err := b.selectAll(ctx, &rows, q); err != nil {
		return nil, errors.Wrap(err, "listing "+table)
	}
	return rows, nil
}

// deleteRow removes the row identified by id, returning notFound when none was.
func deleteRow(ctx context.Context, b base, table string, id int64, notFound error) error {
	n, err := b.exec(ctx, psql.Delete(table).Where(sq.Eq{"id": id}))
	if err != nil {
		return errors.Wrap(err, "deleting from "+table)
	}
	if n == 0 {
		return notFound
	}
	return nil
}

// updateRow saves the row, returning notFound when it does not exist.
func updateRow(ctx context.Context, b base, table string, id int64, row interface{}, notFound error) error {
	n, err := b.update(ctx, table, id, row)
	if err != nil {
		return errors.Wrap(err, "updating "+table)
	}
	if n == 0 {
		return notFound
	}
	return nil
}
