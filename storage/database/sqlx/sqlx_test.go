package sqlxrepos

import (
	"context"
	"os"
	"testing"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/janisrealty/janis/core"
	"github.com/janisrealty/janis/core/catalog"
	"github.com/janisrealty/janis/storage/database"
)

type row struct {
	ID     int64             `db:"id"`
	Name   string            `db:"name,omitempty"`
	Meta   map[string]string `db:"meta"`
	Hidden string            `db:"-"`
	Plain  string
}

func TestColumnsAndValues(t *testing.T) {
	assert.Equal(t, []string{"id", "name", "meta"}, columns(row{}))
	assert.Equal(t, []string{"name", "meta"}, columns(row{}, "id"))

	vals := values(row{ID: 4, Name: "Lima", Meta: map[string]string{"a": "b"}}, "id")
	assert.Equal(t, map[string]interface{}{"name": "Lima", "meta": `{"a":"b"}`}, vals)
}

func TestIlike(t *testing.T) {
	query, args, err := psql.Select("id").From("owners").Where(ilike("ana", "first_name", "code")).ToSql()
	require.NoError(t, err)
	assert.Equal(t, "SELECT id FROM owners WHERE (first_name ILIKE $1 OR code ILIKE $2)", query)
	assert.Equal(t, []interface{}{"%ana%", "%ana%"}, args)

	_, _, err = psql.Select("id").From("owners").Where(sq.Eq{"id": []int64{1, 2}}).ToSql()
	assert.NoError(t, err)
}

// openTestDB connects to the database given by the TEST_DATABASE_* variables and migrates it.
func openTestDB(t *testing.T) *sqlx.DB {
	host := os.Getenv("TEST_DATABASE_HOST")
	if host == "" {
		t.Skip("TEST_DATABASE_HOST is not set")
	}
	conf := &core.Config{}
	conf.Database.Engine = "postgres"
	conf.Database.Host = host
	conf.Database.Port = os.Getenv("TEST_DATABASE_PORT")
	conf.Database.User = os.Getenv("TEST_DATABASE_USER")
	conf.Database.Password = os.Getenv("TEST_DATABASE_PASSWORD")
	conf.Database.Name = os.Getenv("TEST_DATABASE_NAME")
	conf.Database.DisableTLS = true

	db, err := database.Open(conf)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, database.Migrate(db.DB))
	return db
}

func TestCatalogRepository(t *testing.T) {
	db := openTestDB(t)
	repo := NewCatalogRepository(db)
	ctx := context.Background()

	lima, err := repo.CreateItem(ctx, catalog.Item{Kind: catalog.KindDepartment, Name: "Lima Test", Code: "LMT", IsActive: true})
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.DeleteItem(ctx, catalog.KindDepartment, lima.ID) })
	assert.NotZero(t, lima.ID)

	got, err := repo.FindItem(ctx, catalog.KindDepartment, "lima TEST", false, nil)
	require.NoError(t, err)
	assert.Equal(t, lima, got)
	_, err = repo.GetItem(ctx, catalog.KindCurrency, lima.ID)
	assert.Equal(t, catalog.ErrNotFound, err)

	lima.IsActive = false
	_, err = repo.UpdateItem(ctx, lima)
	require.NoError(t, err)
	items, err := repo.ListItems(ctx, catalog.KindDepartment, catalog.QueryFilter{Search: "lmt"})
	require.NoError(t, err)
	assert.Empty(t, items)
	items, err = repo.ListItems(ctx, catalog.KindDepartment, catalog.QueryFilter{Search: "lmt", All: true})
	require.NoError(t, err)
	assert.Len(t, items, 1)

	require.NoError(t, repo.DeleteItem(ctx, catalog.KindDepartment, lima.ID))
	assert.Equal(t, catalog.ErrNotFound, repo.DeleteItem(ctx, catalog.KindDepartment, lima.ID))
}
