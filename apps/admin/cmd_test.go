package main

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"

	"github.com/janisrealty/janis/core"
	"github.com/janisrealty/janis/core/catalog"
	"github.com/janisrealty/janis/core/property"
	"github.com/janisrealty/janis/core/user"
	blobsvc "github.com/janisrealty/janis/services/blob"
	"github.com/janisrealty/janis/services/remax"
	"github.com/janisrealty/janis/services/transfer"
	"github.com/janisrealty/janis/services/wordpress"
	testutil "github.com/janisrealty/janis/tests"
)

type fakeDownloader struct{}

func (fakeDownloader) Download(_ context.Context, url string) ([]byte, string, error) {
	return []byte("img:" + url), "image/jpeg", nil
}

type fakeSyncer struct {
	onlyActive bool
	limit      int
}

func (s *fakeSyncer) SyncMany(_ context.Context, onlyActive bool, limit int) (wordpress.SyncManyResult, error) {
	s.onlyActive, s.limit = onlyActive, limit
	return wordpress.SyncManyResult{Total: 1, Synced: 1}, nil
}

type fixture struct {
	cli    *commandLine
	env    *testutil.Env
	out    *bytes.Buffer
	target core.BlobStore
}

func setup(t *testing.T) fixture {
	env := testutil.NewEnv(t)
	target := blobsvc.NewLocalStore(t.TempDir(), "https://cdn.test/media/")
	out := new(bytes.Buffer)

	// start CLI
	cli := &commandLine{
		out:         out,
		logger:      env.Logger,
		usrRepo:     env.UserRepo,
		properties:  env.Properties,
		matching:    env.Matching,
		remax:       remax.NewImporter(env.Catalogs, env.Properties, env.Users, fakeDownloader{}, env.Logger),
		transfer:    transfer.NewService(env.Catalogs, env.Properties, env.Users, env.Logger),
		localBlobs:  env.Blobs,
		targetStore: func() (core.BlobStore, error) { return target, nil },
	}
	return fixture{cli: cli, env: env, out: out, target: target}
}

// exec runs the CLI and decodes its JSON report into v when v is not nil.
func (f fixture) exec(t *testing.T, v interface{}, args ...string) error {
	t.Helper()
	f.out.Reset()
	err := f.cli.run(append([]string{"admin"}, args...))
	if err == nil && v != nil {
		require.NoError(t, json.Unmarshal(f.out.Bytes(), v), f.out.String())
	}
	return err
}

type cliTest struct {
	name       string
	args       []string // without program name
	wantErr    error
	wantErrStr string
	extra      interface{}
}

func runCLITests(t *testing.T, cli *commandLine, tests []cliTest) {
	t.Helper()
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		t.Run(tt.name, func(t *testing.T) {
			err := cli.run(args)
			switch {
			case tt.wantErr != nil:
				assert.Equal(t, tt.wantErr, err)
			case tt.wantErrStr != "":
				if assert.Error(t, err) {
					assert.Equal(t, tt.wantErrStr, err.Error())
				}
			default:
				assert.NoError(t, err)
			}
		})
	}
}

func Test_commandLine_help(t *testing.T) {
	f := setup(t)
	runCLITests(t, f.cli, []cliTest{
		{name: "no command", wantErr: errHelp},
		{name: "unknown command", args: []string{"lol"}, wantErr: errHelp},
		{name: "help flag", args: []string{"--help"}},
	})
	assert.Contains(t, f.out.String(), "import-remax")
}

func Test_commandLine_migrate(t *testing.T) {
	f := setup(t)

	var got []string
	origRun := gooseRunFunc
	t.Cleanup(func() { gooseRunFunc = origRun })
	gooseRunFunc = func(db *sql.DB, command string, args ...string) error {
		got = append([]string{command}, args...)
		switch command {
		case "up", "up-by-one", "down", "fix", "redo", "reset", "status", "version": // pass
		case "up-to", "down-to":
			if len(args) == 0 {
				return fmt.Errorf("%s must be of form: goose [OPTIONS] DRIVER DBSTRING %s VERSION", command, command)
			}
			if _, err := strconv.ParseInt(args[0], 10, 64); err != nil {
				return fmt.Errorf("version must be a number (got '%s')", args[0])
			}
		default:
			return fmt.Errorf("%q: no such command", command)
		}
		return nil
	}

	runCLITests(t, f.cli, []cliTest{
		{name: "no subcommand", args: []string{"migrate"}, wantErr: errHelp},
		{name: "unknown subcommand", args: []string{"migrate", "lol"}, wantErrStr: "\"lol\": no such command"},
		{name: "up-to: no args", args: []string{"migrate", "up-to"}, wantErrStr: "up-to must be of form: goose [OPTIONS] DRIVER DBSTRING up-to VERSION"},
		{name: "up-to: non-int arg", args: []string{"migrate", "up-to", "lol"}, wantErrStr: "version must be a number (got 'lol')"},
		{name: "down-to: no args", args: []string{"migrate", "down-to"}, wantErrStr: "down-to must be of form: goose [OPTIONS] DRIVER DBSTRING down-to VERSION"},
		{name: "down-to: non-int arg", args: []string{"migrate", "down-to", "lol"}, wantErrStr: "version must be a number (got 'lol')"},
		{name: "up", args: []string{"migrate", "up"}},
		{name: "up-by-one", args: []string{"migrate", "up-by-one"}},
		{name: "up-to", args: []string{"migrate", "up-to", "2"}},
		{name: "down", args: []string{"migrate", "down"}},
		{name: "down-to", args: []string{"migrate", "down-to", "1"}},
		{name: "redo", args: []string{"migrate", "redo"}},
		{name: "reset", args: []string{"migrate", "reset"}},
		{name: "status", args: []string{"migrate", "status"}},
		{name: "version", args: []string{"migrate", "version"}},
		{name: "fix", args: []string{"migrate", "fix"}},
	})

	// goose flags reach goose untouched
	require.NoError(t, f.cli.run([]string{"admin", "migrate", "status", "-v"}))
	assert.Equal(t, []string{"status", "-v"}, got)
}

func mockPassword(t *testing.T, pwd string) {
	orig := readPasswordFunc
	t.Cleanup(func() { readPasswordFunc = orig })
	readPasswordFunc = func(fd int) ([]byte, error) {
		return []byte(pwd), nil
	}
}

func Test_commandLine_resetPassword(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	usr := testutil.CreateUser(t, f.env.UserRepo, "User", "awe", "awe@test.pe", "mdr", user.RoleAgentInternal, true)

	type extra struct {
		pwd string
	}
	tests := []cliTest{
		{name: "no args", args: []string{"resetpassword"}, wantErr: errHelp},
		{name: "username but no password", args: []string{"resetpassword", "--username", "awe"}, wantErr: errHelp},
		{name: "user not found", args: []string{"resetpassword", "--username", "lol"}, extra: extra{pwd: "lol"}, wantErr: user.ErrNotFound},
		{name: "reset with username", args: []string{"resetpassword", "--username", usr.Username}, extra: extra{pwd: "lol"}},
		{name: "reset with email", args: []string{"resetpassword", "--username", usr.Email}, extra: extra{pwd: "lmao"}},
	}
	for _, tt := range tests {
		pwd := ""
		if e, ok := tt.extra.(extra); ok {
			pwd = e.pwd
		}
		mockPassword(t, pwd)

		t.Run(tt.name, func(t *testing.T) {
			err := f.cli.run(append([]string{"admin"}, tt.args...))
			if tt.wantErr != nil {
				assert.Equal(t, tt.wantErr, err)
				return
			}
			require.NoError(t, err)
			refreshed, err := f.env.UserRepo.GetUser(ctx, user.GetFilter{ID: usr.ID})
			require.NoError(t, err)
			assert.NoError(t, refreshed.CheckPassword(pwd))
		})
	}
}

func Test_commandLine_addUser(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	mockPassword(t, "")
	runCLITests(t, f.cli, []cliTest{
		{name: "no args", args: []string{"adduser"}, wantErr: errHelp},
		{name: "no email", args: []string{"adduser", "--username", "root"}, wantErr: errHelp},
		{name: "no password", args: []string{"adduser", "--username", "root", "--email", "root@janis.pe"}, wantErr: errHelp},
	})

	mockPassword(t, "s3cret")
	require.NoError(t, f.exec(t, nil, "adduser", "--username", " Root ", "--email", "ROOT@janis.pe", "--superuser"))
	root, err := f.env.UserRepo.GetUser(ctx, user.GetFilter{Username: "root"})
	require.NoError(t, err)
	assert.Equal(t, "root@janis.pe", root.Email)
	assert.True(t, root.IsSuperuser)
	assert.True(t, root.IsStaff)
	assert.True(t, root.IsActive)
	assert.NoError(t, root.CheckPassword("s3cret"))

	t.Run("existing users are updated", func(t *testing.T) {
		mockPassword(t, "n3w")
		require.NoError(t, f.exec(t, nil, "adduser", "--username", "other", "--email", "root@janis.pe", "--role", user.RoleManager))
		usr, err := f.env.UserRepo.GetUser(ctx, user.GetFilter{ID: root.ID})
		require.NoError(t, err)
		assert.Equal(t, user.RoleManager, usr.RoleCode)
		assert.NoError(t, usr.CheckPassword("n3w"))
		assert.True(t, usr.IsSuperuser)
	})
}

var remaxHeader = []string{
	"ID de la Propiedad", "URL de la Propiedad", "Tipo de Propiedad", "Subtipo de Propiedad", "Precio (USD)",
	"Departamento", "Provincia", "Distrito", "Área de Terreno (m²)", "Número de Habitaciones", "Antigüedad",
	"Fecha de Publicación", "Servicio de Agua", "Agente Inmobiliario", "Email del Agente", "Imágenes de la Propiedad",
}

func writeRemaxExport(t *testing.T, codes ...string) string {
	t.Helper()
	lines := []string{strings.Join(remaxHeader, ";")}
	for _, code := range codes {
		lines = append(lines, strings.Join([]string{
			code, "https://remax.pe/p/" + code, "Casa", "Casa de playa", "250,000.50",
			"Lima", "Lima", "Miraflores", "120.5", "3", "20 Años",
			"5/3/2024", "Red pública", "Ana María Pérez", "ana@remax.pe", "https://cdn.remax.pe/" + code + ".jpg",
		}, ";"))
	}
	enc, err := charmap.ISO8859_1.NewEncoder().String(strings.Join(lines, "\n") + "\n")
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "remax.csv")
	require.NoError(t, os.WriteFile(path, []byte(enc), 0o600))
	return path
}

func Test_commandLine_remax(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	usd := catalog.NewItem{Name: "Dólar", Code: "usd", Symbol: "$"}
	usd.Clean(catalog.KindCurrency)
	_, err := f.env.Catalogs.Create(ctx, catalog.KindCurrency, usd)
	require.NoError(t, err)
	file := writeRemaxExport(t, "RX-1", "RX-2")

	runCLITests(t, f.cli, []cliTest{
		{name: "no file", args: []string{"import-remax"}, wantErr: errHelp},
		{name: "purge needs confirmation", args: []string{"purge-remax"}, wantErr: errHelp},
	})

	var res remax.Result
	require.NoError(t, f.exec(t, &res, "import-remax", "--file", file, "--dry-run"))
	assert.Equal(t, remax.Result{Skipped: 2}, res)

	require.NoError(t, f.exec(t, &res, "import-remax", "--file", file, "--images", "--limit", "1"))
	assert.Equal(t, remax.Result{Created: 1}, res)
	p, err := f.env.Properties.GetByCode(ctx, "RX-1")
	require.NoError(t, err)
	imgs, err := f.env.Properties.Images(ctx, p.ID)
	require.NoError(t, err)
	assert.Len(t, imgs, 1)

	require.NoError(t, f.exec(t, &res, "import-remax", "--file", file))
	assert.Equal(t, remax.Result{Created: 1, Updated: 1}, res)

	var purged remax.PurgeResult
	require.NoError(t, f.exec(t, &purged, "purge-remax", "--yes"))
	assert.Equal(t, remax.PurgeResult{Properties: 2, Images: 1, Users: 1}, purged)
	_, err = f.env.Properties.GetByCode(ctx, "RX-1")
	assert.Equal(t, property.ErrNotFound, err)
}

func Test_commandLine_properties(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	for _, code := range []string{"JAN-1", "JAN-2"} {
		_, err := f.env.Properties.Import(ctx, property.Property{Code: code, Title: "Casa " + code, District: "Surco", IsActive: true})
		require.NoError(t, err)
	}
	out := filepath.Join(t.TempDir(), "export.json")

	runCLITests(t, f.cli, []cliTest{
		{name: "no output file", args: []string{"export-properties", "--all"}, wantErr: errHelp},
		{name: "no mode", args: []string{"export-properties", "--out", out}, wantErr: errHelp},
		{name: "two modes", args: []string{"export-properties", "--out", out, "--all", "--last", "1"}, wantErr: errHelp},
		{name: "no input file", args: []string{"import-properties"}, wantErr: errHelp},
	})

	var exported map[string]int
	require.NoError(t, f.exec(t, &exported, "export-properties", "--out", out, "--codes", "jan-2"))
	assert.Equal(t, 1, exported["exported"])
	require.NoError(t, f.exec(t, &exported, "export-properties", "--out", out, "--all"))
	assert.Equal(t, 2, exported["exported"])

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	payload, err := transfer.Read(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Len(t, payload.Items, 2)

	t.Run("import into another workspace", func(t *testing.T) {
		other := setup(t)
		var res transfer.ImportResult
		require.NoError(t, other.exec(t, &res, "import-properties", "--in", out, "--dry-run"))
		assert.Equal(t, transfer.ImportResult{Skipped: 2}, res)

		require.NoError(t, other.exec(t, &res, "import-properties", "--in", out, "--mark-source", "backup"))
		assert.Equal(t, transfer.ImportResult{Created: 2}, res)
		p, err := other.env.Properties.GetByCode(ctx, "JAN-2")
		require.NoError(t, err)
		assert.Equal(t, "Casa JAN-2", p.Title)
		assert.Equal(t, "backup", p.Source)

		require.NoError(t, other.exec(t, &res, "import-properties", "--in", out))
		assert.Equal(t, transfer.ImportResult{Updated: 2}, res)
	})
}

func Test_commandLine_jobs(t *testing.T) {
	f := setup(t)

	var recomputed map[string]int
	require.NoError(t, f.exec(t, &recomputed, "recompute-matches"))
	assert.Equal(t, 0, recomputed["requirements"])

	assert.Equal(t, errNoWordPress, f.exec(t, nil, "wp-sync"))

	wp := &fakeSyncer{}
	f.cli.wp = wp
	var synced wordpress.SyncManyResult
	require.NoError(t, f.exec(t, &synced, "wp-sync", "--limit", "5"))
	assert.Equal(t, 1, synced.Synced)
	assert.True(t, wp.onlyActive)
	assert.Equal(t, 5, wp.limit)

	require.NoError(t, f.exec(t, &synced, "wp-sync", "--only-active=false"))
	assert.False(t, wp.onlyActive)
}

func Test_commandLine_migrateImages(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	p, err := f.env.Properties.Import(ctx, property.Property{Code: "JAN-1", Title: "Casa", IsActive: true})
	require.NoError(t, err)
	img, err := f.env.Properties.AddImage(ctx, nil, p.ID, property.ImageInput{IsPrimary: true},
		strings.NewReader("jpg"), "front.jpg", "image/jpeg")
	require.NoError(t, err)
	_, err = f.env.Properties.AttachImage(ctx, property.Image{PropertyID: p.ID, BlobKey: "images/gone.jpg"})
	require.NoError(t, err)

	var res blobsvc.MigrateResult
	require.NoError(t, f.exec(t, &res, "migrate-images", "--dry-run"))
	assert.Equal(t, 2, res.Copied)
	exists, err := f.target.Exists(ctx, img.BlobKey)
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, f.exec(t, &res, "migrate-images"))
	assert.Equal(t, blobsvc.MigrateResult{Copied: 1, Missing: 1}, res)
	exists, err = f.target.Exists(ctx, img.BlobKey)
	require.NoError(t, err)
	assert.True(t, exists)

	require.NoError(t, f.exec(t, &res, "migrate-images"))
	assert.Equal(t, blobsvc.MigrateResult{Skipped: 1, Missing: 1}, res)
}
