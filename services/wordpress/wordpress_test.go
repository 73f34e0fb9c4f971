package wordpress

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/janisrealty/janis/core"
	"github.com/janisrealty/janis/core/property"
	"github.com/janisrealty/janis/core/user"
	logsvc "github.com/janisrealty/janis/services/logger"
)

type fakeStore struct {
	mu     sync.Mutex
	props  map[int64]property.Property
	images map[int64]property.Image
	view   func(p property.Property) property.View
}

func (s *fakeStore) GetByID(_ context.Context, id int64) (property.Property, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.props[id]
	if !ok {
		return property.Property{}, property.ErrNotFound
	}
	return p, nil
}

func (s *fakeStore) Save(_ context.Context, p property.Property) (property.Property, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.props[p.ID] = p
	return p, nil
}

func (s *fakeStore) View(_ context.Context, p property.Property) (property.View, error) {
	if s.view != nil {
		return s.view(p), nil
	}
	return property.View{Property: p}, nil
}

func (s *fakeStore) Filter(_ context.Context, f property.QueryFilter, _ []core.DBOrdering) ([]property.Property, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []property.Property
	for _, p := range s.props {
		if f.IsActive != nil && p.IsActive != *f.IsActive {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (s *fakeStore) Images(_ context.Context, propertyID int64) ([]property.Image, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []property.Image
	for _, img := range s.images {
		if img.PropertyID == propertyID {
			out = append(out, img)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *fakeStore) SaveImage(_ context.Context, img property.Image) (property.Image, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.images[img.ID] = img
	return img, nil
}

type fakeNames map[int64]string

func (n fakeNames) Names(_ context.Context, ids ...int64) (map[int64]string, error) {
	out := map[int64]string{}
	for _, id := range ids {
		if name, ok := n[id]; ok {
			out[id] = name
		}
	}
	return out, nil
}

type fakeRemote struct {
	mu           sync.Mutex
	nextID       int64
	posts        map[int64]Payload
	imported     []string
	deletedMedia []int64
	mediaIDs     map[string]int64
	failImport   bool
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{nextID: 100, posts: map[int64]Payload{}}
}

func (r *fakeRemote) Me(context.Context) (Object, error) {
	return Object{"id": float64(1), "name": "admin"}, nil
}

func (r *fakeRemote) GetProperty(_ context.Context, id int64) (Object, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.posts[id]
	if !ok {
		return nil, errors.New("WP 404")
	}
	obj := Object{"id": float64(id), "slug": p["slug"]}
	if fid, ok := p["featured_media"].(int64); ok {
		obj["featured_media"] = float64(fid)
	}
	var images []interface{}
	for _, s := range p.Meta()["fave_property_images"] {
		images = append(images, s)
	}
	obj["property_meta"] = map[string]interface{}{"fave_property_images": images}
	return obj, nil
}

func (r *fakeRemote) CreateProperty(_ context.Context, p Payload) (Object, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	r.posts[r.nextID] = p
	return Object{"id": float64(r.nextID), "slug": p["slug"]}, nil
}

func (r *fakeRemote) UpdateProperty(_ context.Context, id int64, p Payload) (Object, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.posts[id] = p
	return Object{"id": float64(id), "slug": p["slug"]}, nil
}

func (r *fakeRemote) DeleteProperty(_ context.Context, id int64, _ bool) (Object, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.posts, id)
	return Object{"deleted": true}, nil
}

func (r *fakeRemote) FindPropertyBySlug(_ context.Context, slug string) ([]Object, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, p := range r.posts {
		if p["slug"] == slug {
			return []Object{{"id": float64(id), "slug": slug}}, nil
		}
	}
	return nil, nil
}

func (r *fakeRemote) DeleteMedia(_ context.Context, id int64, _ bool) (Object, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deletedMedia = append(r.deletedMedia, id)
	return Object{"deleted": true}, nil
}

func (r *fakeRemote) ImportMediaFromURL(_ context.Context, url string) (Object, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failImport {
		return nil, errors.New("WP 500")
	}
	r.imported = append(r.imported, url)
	return Object{"id": float64(r.mediaIDs[url])}, nil
}

type recorder struct{ ok, failed int }

func (r *recorder) SyncResult(err error) {
	if err != nil {
		r.failed++
	} else {
		r.ok++
	}
}

func newTestService(t *testing.T) (*Service, *fakeStore, *fakeRemote, *recorder) {
	t.Helper()
	tax, err := LoadTaxonomies("")
	require.NoError(t, err)
	logger := logsvc.NewRollbarLogger(zap.NewNop(), &core.Config{Env: "TEST"})
	logger.Enable(false)

	store := &fakeStore{
		props: map[int64]property.Property{
			1: {ID: 1, Code: "P001", Title: "Casa en Cayma", Description: "<p>Linda</p><script>x</script>",
				IsActive: true, Department: "Arequipa", Province: "Arequipa", District: "Cayma", TagIDs: []int64{7, 8}},
			2: {ID: 2, Code: "P002", Title: "Sin descripción", IsActive: true},
			3: {ID: 3, Code: "P003", Title: "Inactiva", Description: "x"},
		},
		images: map[int64]property.Image{
			10: {ID: 10, PropertyID: 1, BlobKey: "a.jpg", URL: "https://cdn/a.jpg", Order: 0},
			11: {ID: 11, PropertyID: 1, BlobKey: "b.jpg", URL: "https://cdn/b.jpg", Order: 1, IsPrimary: true},
		},
		view: func(p property.Property) property.View {
			return property.View{Property: p, TypeName: "Casa", StatusName: "Venta", CurrencyCode: "PEN"}
		},
	}
	remote := newFakeRemote()
	remote.mediaIDs = map[string]int64{"https://cdn/b.jpg": 1001, "https://cdn/a.jpg": 1002}
	rec := &recorder{}
	svc := NewService(remote, store, fakeNames{7: "Ascensor", 8: "Piscina"}, tax, rec, logger)
	return svc, store, remote, rec
}

func TestService_SyncOne(t *testing.T) {
	svc, store, remote, rec := newTestService(t)
	ctx := context.Background()

	res, err := svc.SyncOne(ctx, 1)
	require.NoError(t, err)
	assert.EqualValues(t, 101, res.WP.Int("id"))
	assert.Equal(t, []Warning{{Taxonomy: TaxFeature, Value: "Piscina", Reason: "no term mapped for tag"}}, res.Warnings)

	assert.Equal(t, []int64{5}, res.Payload[TaxType])
	assert.Equal(t, []int64{9}, res.Payload[TaxStatus])
	assert.Equal(t, []int64{15237}, res.Payload[TaxCountry])
	assert.Equal(t, []int64{15606}, res.Payload[TaxState])
	assert.Equal(t, []int64{15708}, res.Payload[TaxCity])
	assert.Equal(t, []int64{16024}, res.Payload[TaxArea])
	assert.Equal(t, []int64{12}, res.Payload[TaxFeature])
	assert.Equal(t, "<p>Linda</p>", res.Payload["content"])

	// the primary image is uploaded first and featured
	assert.EqualValues(t, 1001, res.Payload["featured_media"])
	assert.Equal(t, []string{"1001", "1002"}, res.Payload.Meta()["fave_property_images"])
	assert.ElementsMatch(t, []string{"https://cdn/b.jpg", "https://cdn/a.jpg"}, remote.imported)

	p := store.props[1]
	require.NotNil(t, p.WPPostID)
	assert.EqualValues(t, 101, *p.WPPostID)
	assert.Equal(t, "propify-1", p.WPSlug)
	assert.NotNil(t, p.WPLastSync)
	assert.EqualValues(t, 1001, *store.images[11].WPMediaID)

	// a second sync updates the post and reuses the uploaded media
	res, err = svc.SyncOne(ctx, 1)
	require.NoError(t, err)
	assert.EqualValues(t, 101, res.WP.Int("id"))
	assert.Len(t, remote.imported, 2)
	assert.Len(t, remote.posts, 1)
	assert.Equal(t, 2, rec.ok)
}

func TestService_SyncOneBackfillsBySlug(t *testing.T) {
	svc, store, remote, _ := newTestService(t)
	remote.posts[55] = Payload{"slug": "propify-1"}

	res, err := svc.SyncOne(context.Background(), 1)
	require.NoError(t, err)
	assert.EqualValues(t, 55, res.WP.Int("id"))
	assert.EqualValues(t, 55, *store.props[1].WPPostID)
	assert.Len(t, remote.posts, 1)
}

func TestService_SyncOneMissingFields(t *testing.T) {
	svc, _, _, rec := newTestService(t)

	_, err := svc.SyncOne(context.Background(), 2)
	var mfe *MissingFieldsError
	require.ErrorAs(t, err, &mfe)
	assert.Equal(t, []string{"descripción"}, mfe.Missing)
	assert.Equal(t, "Te falta registrar descripción antes de subir a WP.", err.Error())
	assert.Equal(t, 1, rec.failed)
}

func TestService_SyncOneImportFailure(t *testing.T) {
	svc, store, remote, _ := newTestService(t)
	remote.failImport = true

	_, err := svc.SyncOne(context.Background(), 1)
	assert.Error(t, err)
	assert.Nil(t, store.props[1].WPPostID)
	assert.Empty(t, remote.posts)
}

func TestService_SyncMany(t *testing.T) {
	svc, _, _, _ := newTestService(t)

	res, err := svc.SyncMany(context.Background(), true, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Total)
	assert.Equal(t, 1, res.Synced)
	assert.Equal(t, 1, res.Failed)
	assert.True(t, res.Results[0].OK)
	assert.False(t, res.Results[1].OK)

	res, err = svc.SyncMany(context.Background(), false, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Total)
}

func TestService_GetRemoteAndDelete(t *testing.T) {
	svc, store, remote, _ := newTestService(t)
	ctx := context.Background()

	_, obj, err := svc.GetRemote(ctx, 1)
	require.NoError(t, err)
	assert.Nil(t, obj)

	res, err := svc.DeleteOne(ctx, 1, true, true)
	require.NoError(t, err)
	assert.False(t, res.Deleted)

	_, err = svc.SyncOne(ctx, 1)
	require.NoError(t, err)
	_, obj, err = svc.GetRemote(ctx, 1)
	require.NoError(t, err)
	assert.EqualValues(t, 101, obj.Int("id"))

	res, err = svc.DeleteOne(ctx, 1, true, true)
	require.NoError(t, err)
	assert.True(t, res.Deleted)
	assert.EqualValues(t, 101, res.WPPostID)
	assert.Equal(t, []int64{1001, 1002}, res.MediaDeleted)
	assert.Empty(t, res.MediaErrors)
	assert.Empty(t, remote.posts)

	assert.Nil(t, store.props[1].WPPostID)
	assert.Empty(t, store.props[1].WPSlug)
	for _, img := range store.images {
		assert.Nil(t, img.WPMediaID)
		assert.Empty(t, img.WPSourceURL)
	}
}

func TestBuildPayload(t *testing.T) {
	price, built := 1250000.0, 120.5
	years := 3
	v := property.View{Property: property.Property{
		ID: 9, Code: "P009", Title: "Depa", IsActive: true, IsDraft: true,
		Price: &price, BuiltArea: &built, Bedrooms: 3, Bathrooms: 2,
		RealAddress: "Av. Ejército 101", Coordinates: "-16.39, -71.53", AntiquityYears: &years,
	}}
	p := BuildPayload(v, map[string][]int64{TaxType: {6}, TaxLabel: nil}, 0, nil)
	meta := p.Meta()

	assert.Equal(t, "draft", p["status"])
	assert.Equal(t, "propify-9", p["slug"])
	assert.Equal(t, []int64{6}, p[TaxType])
	assert.NotContains(t, p, TaxLabel)
	assert.NotContains(t, p, "featured_media")
	assert.NotContains(t, meta, "fave_property_images")

	assert.Equal(t, []string{"1,250,000"}, meta["fave_property_price"])
	assert.Equal(t, []string{"USD"}, meta["fave_currency"])
	assert.Equal(t, []string{"120.5"}, meta["fave_property_size"])
	assert.Equal(t, []string{""}, meta["fave_property_land"])
	assert.Equal(t, []string{""}, meta["fave_property_garage"])
	assert.Equal(t, []string{"1"}, meta["property_floors"])
	assert.Equal(t, []string{"3"}, meta["fave_property_rooms"])
	assert.Equal(t, []string{"Av. Ejército 101"}, meta["fave_property_address"])
	assert.Equal(t, []string{"-16.39,-71.53"}, meta["fave_property_location"])
	assert.Equal(t, []string{"1"}, meta["fave_property_map"])
	assert.Equal(t, []string{"P009"}, meta["fave_property_id"])
	assert.Equal(t, []string{"3"}, meta["fave_property_year"])
}

func TestTaxonomies(t *testing.T) {
	tax, err := LoadTaxonomies("")
	require.NoError(t, err)

	tests := []struct {
		taxonomy, name string
		want           int64
		ok             bool
	}{
		{TaxCountry, "Perú", 15237, true},
		{TaxCountry, " peru ", 15237, true},
		{TaxArea, "Cerro Colorado", 16036, true},
		{TaxType, "Oficina", 0, false},
		{TaxType, "", 0, false},
	}
	for _, tc := range tests {
		id, ok := tax.Resolve(tc.taxonomy, tc.name)
		assert.Equal(t, tc.ok, ok, tc.name)
		assert.Equal(t, tc.want, id, tc.name)
	}

	override := filepath.Join(t.TempDir(), "tax.yaml")
	require.NoError(t, os.WriteFile(override, []byte("taxonomies:\n  property_type:\n    Oficina: 42\n"), 0o600))
	tax, err = LoadTaxonomies(override)
	require.NoError(t, err)
	id, ok := tax.Resolve(TaxType, "oficina")
	assert.True(t, ok)
	assert.EqualValues(t, 42, id)
	id, _ = tax.Resolve(TaxType, "Casa")
	assert.EqualValues(t, 5, id)
	assert.EqualValues(t, 15237, tax.CanonicalCountry)
}

func TestClient(t *testing.T) {
	var gotAuth, gotForce string
	var gotBody map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		switch {
		case r.URL.Path == "/wp-json/wp/v2/users/me":
			_, _ = io.WriteString(w, `{"id":1,"name":"admin"}`)
		case r.URL.Path == "/wp-json/wp/v2/properties" && r.Method == http.MethodPost:
			_ = json.NewDecoder(r.Body).Decode(&gotBody)
			_, _ = io.WriteString(w, `{"id":77,"slug":"propify-1"}`)
		case r.URL.Path == "/wp-json/wp/v2/properties/77" && r.Method == http.MethodDelete:
			gotForce = r.URL.Query().Get("force")
			_, _ = io.WriteString(w, `{"deleted":true}`)
		default:
			w.WriteHeader(http.StatusNotFound)
			_, _ = io.WriteString(w, `{"code":"rest_no_route"}`)
		}
	}))
	defer srv.Close()

	c := NewClientWithHTTP(srv.URL+"/", "bot", "app pass", srv.Client())
	ctx := context.Background()

	me, err := c.Me(ctx)
	require.NoError(t, err)
	assert.Equal(t, "admin", me.String("name"))
	assert.Equal(t, "Basic Ym90OmFwcCBwYXNz", gotAuth)

	obj, err := c.CreateProperty(ctx, Payload{"title": "Casa"})
	require.NoError(t, err)
	assert.EqualValues(t, 77, obj.Int("id"))
	assert.Equal(t, "Casa", gotBody["title"])

	_, err = c.DeleteProperty(ctx, 77, true)
	require.NoError(t, err)
	assert.Equal(t, "true", gotForce)

	_, err = c.GetMedia(ctx, 5)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "WP 404 GET "+srv.URL+"/wp-json/wp/v2/media/5")
}

func TestAllowInternal(t *testing.T) {
	staff := &user.User{IsStaff: true}
	tests := []struct {
		name          string
		usr           *user.User
		key, expected string
		want          bool
	}{
		{"staff", staff, "", "secret", true},
		{"superuser", &user.User{IsSuperuser: true}, "", "secret", true},
		{"no key configured", nil, "", "", true},
		{"right key", nil, "secret", "secret", true},
		{"wrong key", &user.User{}, "nope", "secret", false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, AllowInternal(tc.usr, tc.key, tc.expected))
		})
	}
}
