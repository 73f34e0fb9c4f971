package remax

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"

	"github.com/janisrealty/janis/core/catalog"
	"github.com/janisrealty/janis/core/property"
	"github.com/janisrealty/janis/core/user"
	testutil "github.com/janisrealty/janis/tests"
)

var header = []string{
	"ID de la Propiedad", "URL de la Propiedad", "Tipo de Propiedad", "Subtipo de Propiedad", "Precio (USD)",
	"Departamento", "Provincia", "Distrito", "Área de Terreno (m²)", "Número de Habitaciones", "Antigüedad",
	"Fecha de Publicación", "Servicio de Agua", "Agente Inmobiliario", "Email del Agente", "Imágenes de la Propiedad",
}

func latin1CSV(t *testing.T, rows ...[]string) io.Reader {
	t.Helper()
	lines := []string{"\u00ef\u00bb\u00bf" + strings.Join(header, ";")}
	for _, r := range rows {
		lines = append(lines, strings.Join(r, ";"))
	}
	enc, err := charmap.ISO8859_1.NewEncoder().String(strings.Join(lines, "\n") + "\n")
	require.NoError(t, err)
	return strings.NewReader(enc)
}

func listingRow(code, email, images string) []string {
	return []string{
		code, "https://remax.pe/p/" + code, "Casa", "Casa de playa", "250,000.50",
		"Lima", "Lima", "Miraflores", "120.5", "3", "20 Años",
		"5/3/2024", "Red pública", "Ana María Pérez", email, images,
	}
}

func TestReader(t *testing.T) {
	r, err := NewReader(latin1CSV(t, listingRow("RX-1", "ana@remax.pe", "")))
	require.NoError(t, err)

	row, err := r.Next()
	require.NoError(t, err)
	assert.Equal(t, "RX-1", row["ID de la Propiedad"])
	assert.Equal(t, "20 Años", row["Antigüedad"])
	assert.Equal(t, "Red pública", row["Servicio de Agua"])

	_, err = r.Next()
	assert.Equal(t, io.EOF, err)
}

func TestMapRow(t *testing.T) {
	price, land := 250000.5, 120.5
	published := time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)
	row := Row{}
	for i, h := range header {
		row[h] = listingRow("RX-1", "ANA@remax.pe",
			"https://cdn.remax.pe/a.jpg?w=800, https://cdn.remax.pe/blank.gif, https://cdn.remax.pe/a.jpg,"+
				" https://cdn.remax.pe/doc.pdf, https://cdn.remax.pe/b.WEBP")[i]
	}

	l, err := MapRow(row)
	require.NoError(t, err)
	assert.Equal(t, Listing{
		Source:          property.SourceRemax,
		SourceURL:       "https://remax.pe/p/RX-1",
		Code:            "RX-1",
		Title:           "Casa",
		Price:           &price,
		CurrencyCode:    "USD",
		Department:      "Lima",
		Province:        "Lima",
		District:        "Miraflores",
		LandArea:        &land,
		Bedrooms:        intPtr(3),
		AntiquityYears:  intPtr(20),
		PublishedAt:     &published,
		WaterService:    "Red pública",
		PropertyType:    "Casa",
		PropertySubtype: "Casa de playa",
		AgentName:       "Ana María Pérez",
		AgentEmail:      "ana@remax.pe",
		ImageURLs:       []string{"https://cdn.remax.pe/a.jpg", "https://cdn.remax.pe/b.WEBP"},
	}, l)

	_, err = MapRow(Row{"Tipo de Propiedad": "Casa"})
	assert.Equal(t, errNoCode, err)
}

func TestParsers(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want interface{}
		got  func(string) interface{}
	}{
		{"decimal with commas", "1,250.75", 1250.75, func(s string) interface{} { return *parseDecimal(s) }},
		{"decimal empty", "", (*float64)(nil), func(s string) interface{} { return parseDecimal(s) }},
		{"decimal garbage", "n/a", (*float64)(nil), func(s string) interface{} { return parseDecimal(s) }},
		{"int from float", "2.0", 2, func(s string) interface{} { return *parseInt(s) }},
		{"antiquity", "Más de 35 años", 35, func(s string) interface{} { return *parseAntiquity(s) }},
		{"antiquity none", "A estrenar", (*int)(nil), func(s string) interface{} { return parseAntiquity(s) }},
		{"short year", "05/03/24", time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC), func(s string) interface{} { return *parseDate(s) }},
		{"service none", "No tiene", "", func(s string) interface{} { return normalizeService(s) }},
		{"service kept", " Gas natural ", "Gas natural", func(s string) interface{} { return normalizeService(s) }},
		{"filename", "https://cdn.remax.pe/x/photo.jpg?w=1", "photo.jpg", func(s string) interface{} { return filenameFromURL(s) }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.got(tc.in))
		})
	}
}

func intPtr(n int) *int { return &n }

type fakeDownloader struct {
	calls []string
	fail  map[string]bool
}

func (d *fakeDownloader) Download(_ context.Context, url string) ([]byte, string, error) {
	d.calls = append(d.calls, url)
	if d.fail[url] {
		return nil, "", errors.New("boom")
	}
	return []byte("img:" + url), "image/jpeg", nil
}

func newImporter(t *testing.T) (*Importer, *testutil.Env, *fakeDownloader) {
	env := testutil.NewEnv(t)
	ctx := context.Background()
	usd := catalog.NewItem{Name: "Dólar", Code: "usd", Symbol: "$"}
	usd.Clean(catalog.KindCurrency)
	_, err := env.Catalogs.Create(ctx, catalog.KindCurrency, usd)
	require.NoError(t, err)
	testutil.CreateItem(t, env.Catalogs, catalog.KindWaterService, "Red pública")

	dl := &fakeDownloader{fail: map[string]bool{}}
	return NewImporter(env.Catalogs, env.Properties, env.Users, dl, env.Logger), env, dl
}

func TestImporter_Import(t *testing.T) {
	imp, env, dl := newImporter(t)
	ctx := context.Background()
	dl.fail["https://cdn.remax.pe/2.jpg"] = true

	csv := func() io.Reader {
		return latin1CSV(t,
			listingRow("rx-1", "ana@remax.pe", "https://cdn.remax.pe/1.jpg,https://cdn.remax.pe/2.jpg,https://cdn.remax.pe/3.png"),
			listingRow("", "ana@remax.pe", ""),
			listingRow("rx-2", "", ""),
		)
	}

	res, err := imp.Import(ctx, csv(), Options{DryRun: true})
	require.NoError(t, err)
	assert.Equal(t, Result{Skipped: 2, Errors: 1}, res)
	_, err = env.Properties.GetByCode(ctx, "RX-1")
	assert.Equal(t, property.ErrNotFound, err)

	res, err = imp.Import(ctx, csv(), Options{Images: true})
	require.NoError(t, err)
	assert.Equal(t, Result{Created: 2, Errors: 1}, res)

	p, err := env.Properties.GetByCode(ctx, "RX-1")
	require.NoError(t, err)
	assert.Equal(t, property.SourceRemax, p.Source)
	assert.Equal(t, 3, p.Bedrooms)
	assert.Equal(t, 1, p.Floors)
	require.NotNil(t, p.Price)
	assert.Equal(t, 250000.5, *p.Price)
	require.NotNil(t, p.CurrencyID)
	require.NotNil(t, p.WaterServiceID)
	require.NotNil(t, p.PropertyTypeID)
	require.NotNil(t, p.PropertySubtypeID)

	subtype, err := env.Catalogs.Get(ctx, catalog.KindPropertySubtype, *p.PropertySubtypeID)
	require.NoError(t, err)
	require.NotNil(t, subtype.ParentID)
	assert.Equal(t, *p.PropertyTypeID, *subtype.ParentID)

	require.NotNil(t, p.ResponsibleID)
	agent, err := env.Users.GetByID(ctx, *p.ResponsibleID)
	require.NoError(t, err)
	assert.Equal(t, "ana@remax.pe", agent.Email)
	assert.Equal(t, user.RoleRemaxAgent, agent.RoleCode)

	imgs, err := env.Properties.Images(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, imgs, 2)
	var primary []string
	for _, img := range imgs {
		if img.IsPrimary {
			primary = append(primary, img.WPSourceURL)
		}
	}
	assert.Equal(t, []string{"https://cdn.remax.pe/1.jpg"}, primary)

	// re-import updates and downloads only the missing image
	dl.calls, dl.fail = nil, map[string]bool{}
	res, err = imp.Import(ctx, csv(), Options{Images: true})
	require.NoError(t, err)
	assert.Equal(t, Result{Updated: 2, Errors: 1}, res)
	assert.Equal(t, []string{"https://cdn.remax.pe/2.jpg"}, dl.calls)

	imgs, err = env.Properties.Images(ctx, p.ID)
	require.NoError(t, err)
	assert.Len(t, imgs, 3)
}

func TestImporter_Limit(t *testing.T) {
	imp, _, _ := newImporter(t)
	res, err := imp.Import(context.Background(), latin1CSV(t,
		listingRow("rx-1", "", ""),
		listingRow("rx-2", "", ""),
		listingRow("rx-3", "", ""),
	), Options{Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, Result{Created: 2}, res)
}

func TestImporter_Purge(t *testing.T) {
	imp, env, _ := newImporter(t)
	ctx := context.Background()

	_, err := imp.Import(ctx, latin1CSV(t,
		listingRow("rx-1", "ana@remax.pe", "https://cdn.remax.pe/1.jpg"),
		listingRow("rx-2", "luis@remax.pe", ""),
	), Options{Images: true})
	require.NoError(t, err)

	staff, err := env.Users.GetByEmail(ctx, "luis@remax.pe")
	require.NoError(t, err)
	staff.IsStaff = true
	_, err = env.UserRepo.UpdateUser(ctx, staff)
	require.NoError(t, err)

	own, err := env.Properties.Import(ctx, property.Property{Code: "OWN-1", Title: "Mine"})
	require.NoError(t, err)

	res, err := imp.Purge(ctx)
	require.NoError(t, err)
	assert.Equal(t, PurgeResult{Properties: 2, Images: 1, Users: 1}, res)

	_, err = env.Properties.GetByID(ctx, own.ID)
	assert.NoError(t, err)
	_, err = env.Users.GetByEmail(ctx, "ana@remax.pe")
	assert.Equal(t, user.ErrNotFound, err)
	_, err = env.Users.GetByEmail(ctx, "luis@remax.pe")
	assert.NoError(t, err)
}

func TestHTTPDownloader(t *testing.T) {
	d := NewHTTPDownloader(time.Second)
	_, _, err := d.Download(context.Background(), "http://127.0.0.1:0/nothing.jpg")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "nothing.jpg")
}
