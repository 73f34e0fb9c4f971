package database

import (
	"context"
	"database/sql"
	"embed"
	"net/url"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/pressly/goose/v3"

	"github.com/janisrealty/janis/core"
)

//go:embed migrations/*.sql
var migrations embed.FS

const (
	pingAttempts = 30
	pingStep     = 100 * time.Millisecond
)

// dsn builds the connection URL of dbName. Admin credentials are used when asked for and configured.
func dsn(conf *core.Config, dbName string, admin bool) string {
	user := url.UserPassword(conf.Database.User, conf.Database.Password)
	if admin && conf.Database.AdminUser != "" {
		user = url.UserPassword(conf.Database.AdminUser, conf.Database.AdminPassword)
	}

	q := make(url.Values)
	q.Set("sslmode", "require")
	if conf.Database.DisableTLS {
		q.Set("sslmode", "disable")
	}
	q.Set("timezone", "utc")

	u := url.URL{
		Scheme:   "postgres",
		User:     user,
		Host:     conf.Database.Address(),
		Path:     dbName,
		RawQuery: q.Encode(),
	}
	return u.String()
}

func driver(conf *core.Config) string {
	if conf.Database.Engine == "" {
		return "postgres"
	}
	return conf.Database.Engine
}

func Open(conf *core.Config) (*sqlx.DB, error) {
	return sqlx.Open(driver(conf), dsn(conf, conf.Database.Name, false))
}

// ping waits for the database to accept connections, backing off a little more after each attempt.
func ping(ctx context.Context, db *sqlx.DB) error {
	var err error
	for attempt := 1; attempt <= pingAttempts; attempt++ {
		if err = db.PingContext(ctx); err == nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(attempt) * pingStep):
		}
	}
	return errors.Wrap(err, "database ping timeout")
}

// ensure runs create when the existence query returns no row.
func ensure(ctx context.Context, db *sqlx.DB, existsQuery, name, create string) error {
	var exists bool
	err := db.GetContext(ctx, &exists, existsQuery, name)
	if err == nil {
		return nil
	} else if err != sql.ErrNoRows {
		return errors.Wrapf(err, "looking up %s", name)
	}
	if _, err := db.ExecContext(ctx, create); err != nil {
		return errors.Wrapf(err, "creating %s", name)
	}
	return nil
}

// CreateIfNotExist creates the application role (as admin) and the application database
// (as the application role). Both are left alone when they already exist.
func CreateIfNotExist(conf *core.Config) error {
	ctx := context.Background()

	admin, err := sqlx.Open(driver(conf), dsn(conf, "postgres", true))
	if err != nil {
		return errors.Wrap(err, "opening database as admin")
	}
	defer func() { _ = admin.Close() }()
	if err := ping(ctx, admin); err != nil {
		return err
	}
	if role := conf.Database.User; role != "" {
		create := "CREATE USER " + pq.QuoteIdentifier(role) + " CREATEDB ENCRYPTED PASSWORD " +
			pq.QuoteLiteral(conf.Database.Password)
		if err := ensure(ctx, admin, "SELECT true FROM pg_roles WHERE rolname = $1", role, create); err != nil {
			return err
		}
	}

	app, err := sqlx.Open(driver(conf), dsn(conf, "postgres", false))
	if err != nil {
		return errors.Wrap(err, "opening database")
	}
	defer func() { _ = app.Close() }()
	name := conf.Database.Name
	return ensure(ctx, app, "SELECT true FROM pg_database WHERE datname = $1", name,
		"CREATE DATABASE "+pq.QuoteIdentifier(name))
}

func init() {
	goose.SetBaseFS(migrations)
	goose.SetLogger(goose.NopLogger())
}

// Run runs a goose command (up, down, status, redo, version...) against the embedded migrations.
func Run(db *sql.DB, command string, args ...string) error {
	if err := goose.SetDialect("postgres"); err != nil {
		return errors.Wrap(err, "setting goose dialect")
	}
	if err := goose.Run(command, db, "migrations", args...); err != nil {
		return errors.Wrapf(err, "goose %s", command)
	}
	return nil
}

func Migrate(db *sql.DB) error {
	return errors.Wrap(Run(db, "up"), "migrating database")
}
