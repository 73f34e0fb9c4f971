package echoapi_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	. "github.com/janisrealty/janis/apps/api/echo"
	"github.com/janisrealty/janis/core/catalog"
	"github.com/janisrealty/janis/core/lead"
	"github.com/janisrealty/janis/core/property"
	"github.com/janisrealty/janis/core/user"
	"github.com/janisrealty/janis/services/wordpress"
	"github.com/janisrealty/janis/tests"
)

func newWebhookRequest(form url.Values, signature string) (*http.Request, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(http.MethodPost, "/v1/webhooks/twilio/whatsapp", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if signature != "" {
		req.Header.Set("X-Twilio-Signature", signature)
	}
	return req, httptest.NewRecorder()
}

func incoming(from, body, sid string) url.Values {
	return url.Values{
		"From":        {"whatsapp:" + from},
		"To":          {"whatsapp:+14155238886"},
		"Body":        {body},
		"MessageSid":  {sid},
		"ProfileName": {"Lucia"},
		"NumMedia":    {"0"},
	}
}

func Test_webhookApi_twilioWhatsApp(t *testing.T) {
	sigs := &fakeSignatures{}
	app, env := setup(t, setupOpts{signatures: sigs})
	ana := testutil.CreateUser(t, env.UserRepo, "Ana", "ana", "ana@test.pe", "", user.RoleAgentInternal, true)
	first := createProperty(t, app, getToken(t, env.Conf, ana), `{"title":"Depa en San Isidro"}`)
	linked := createProperty(t, app, getToken(t, env.Conf, ana), `{"title":"Casa en Chorrillos"}`)
	lk, err := env.Leads.CreateLink(ctxBg, linked.ID, lead.LinkInput{UniqueIdentifier: "CHORR01"})
	require.NoError(t, err)

	t.Run("bad signature", func(t *testing.T) {
		sigs.valid = false
		req, rec := newWebhookRequest(incoming("+51987654321", "hola", "SM1"), "forged")
		app.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Equal(t, "http://example.com/v1/webhooks/twilio/whatsapp", sigs.url)

		leads, err := env.Leads.Query(ctxBg, lead.QueryFilter{})
		require.NoError(t, err)
		assert.Empty(t, leads)
	})

	sigs.valid = true
	tests := []struct {
		name         string
		form         url.Values
		wantProperty int64
		wantMessages int
	}{
		{name: "unknown sender falls back to the first listing", form: incoming("+51987654321", "hola, info por favor", "SM1"), wantProperty: first.ID, wantMessages: 1},
		{name: "redelivery is not stored twice", form: incoming("+51987654321", "hola, info por favor", "SM1"), wantProperty: first.ID, wantMessages: 1},
		{name: "known sender keeps their lead", form: incoming("+51987654321", "¿sigue disponible?", "SM2"), wantProperty: first.ID, wantMessages: 2},
		{name: "link identifier picks the listing", form: incoming("+51911111111", "Hola! CHORR01", "SM3"), wantProperty: linked.ID, wantMessages: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newWebhookRequest(tt.form, "signed")
			app.ServeHTTP(rec, req)
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
			assert.Contains(t, rec.Body.String(), "<Response></Response>")

			leads, err := env.Leads.Query(ctxBg, lead.QueryFilter{Phone: strings.TrimPrefix(tt.form.Get("From"), "whatsapp:")})
			require.NoError(t, err)
			require.Len(t, leads, 1)
			assert.Equal(t, tt.wantProperty, leads[0].PropertyID)

			d, err := env.Leads.Detail(ctxBg, leads[0].ID)
			require.NoError(t, err)
			assert.Len(t, d.Messages, tt.wantMessages)
			assert.Equal(t, "Lucia", d.Messages[0].SenderName)
			if tt.wantProperty == linked.ID {
				require.NotNil(t, leads[0].WhatsAppLinkID)
				assert.Equal(t, lk.ID, *leads[0].WhatsAppLinkID)
			}
		})
	}

	t.Run("missing sender", func(t *testing.T) {
		req, rec := newWebhookRequest(url.Values{"Body": {"hola"}}, "signed")
		app.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func Test_leadApi(t *testing.T) {
	app, env := setup(t)
	mia := testutil.CreateUser(t, env.UserRepo, "Mia", "mia", "mia@test.pe", "", user.RoleManager, true)
	token := getToken(t, env.Conf, mia)
	p := createProperty(t, app, token, `{"title":"Oficina en Miraflores"}`)
	fresh := testutil.CreateItem(t, env.Catalogs, catalog.KindLeadStatus, "Abierto")
	contacted := testutil.CreateItem(t, env.Catalogs, catalog.KindLeadStatus, "Contactado")

	l, err := env.Leads.ProcessIncoming(ctxBg, lead.Incoming{From: "whatsapp:+51 987 654 321", Body: "info", MessageSID: "SM9"})
	require.NoError(t, err)
	assert.Equal(t, p.ID, l.PropertyID)
	require.NotNil(t, l.StatusID)
	assert.Equal(t, fresh.ID, *l.StatusID)

	var leads []lead.Lead
	unmarshal(t, serve(t, app, http.MethodGet, fmt.Sprintf("/v1/leads?property=%d", p.ID), token, "", http.StatusOK), &leads)
	require.Len(t, leads, 1)
	unmarshal(t, serve(t, app, http.MethodGet, fmt.Sprintf("/v1/leads?status=%d", contacted.ID), token, "", http.StatusOK), &leads)
	assert.Empty(t, leads)

	path := fmt.Sprintf("/v1/leads/%d", l.ID)
	runHTTPTests(t, app, []httpTest{
		{name: "auth required", path: path, wantCode: http.StatusUnauthorized},
		{name: "unknown lead", path: "/v1/leads/999", token: token, wantCode: http.StatusNotFound},
		{name: "status required", method: http.MethodPost, path: path + "/status", token: token, body: []byte(`{}`), wantCode: http.StatusBadRequest},
		{
			name: "unknown status", method: http.MethodPost, path: path + "/status", token: token, body: []byte(`{"status_id":999}`),
			wantCode: http.StatusBadRequest, wantData: []byte(`{"status_id":"unknown lead status"}`),
		},
		{
			name: "status moves", method: http.MethodPost, path: path + "/status", token: token,
			body: []byte(fmt.Sprintf(`{"status_id":%d}`, contacted.ID)), wantCode: http.StatusOK,
		},
		{name: "empty reply", method: http.MethodPost, path: path + "/send", token: token, body: []byte(`{"body":" "}`), wantCode: http.StatusBadRequest},
		{
			name: "reply", method: http.MethodPost, path: path + "/send", token: token, body: []byte(`{"body":"¡Hola! Te escribo de Janis"}`),
			wantCode: http.StatusOK, wantData: marchallObj(t, lead.SendResult{SID: "SM1", Status: "queued"}),
		},
	})

	require.Len(t, env.Sender.Sent, 1)
	assert.Equal(t, "whatsapp:+51987654321", env.Sender.Sent[0].To)

	var d lead.Detail
	unmarshal(t, serve(t, app, http.MethodGet, path, token, "", http.StatusOK), &d)
	require.NotNil(t, d.StatusID)
	assert.Equal(t, contacted.ID, *d.StatusID)
	require.Len(t, d.Messages, 2)
	assert.Equal(t, lead.DirectionIncoming, d.Messages[0].Direction)
	assert.Equal(t, lead.DirectionOutgoing, d.Messages[1].Direction)
	assert.Equal(t, "Mia", d.Messages[1].SenderName)
}

type fakeWordPress struct {
	synced []int64
}

func (f *fakeWordPress) TestAuth(context.Context) (wordpress.Object, error) {
	return wordpress.Object{"id": float64(1), "name": "janis-sync"}, nil
}

func (f *fakeWordPress) SyncOne(_ context.Context, id int64) (wordpress.SyncResult, error) {
	if id == 13 {
		return wordpress.SyncResult{}, &wordpress.MissingFieldsError{Missing: []string{"título", "descripción"}}
	}
	f.synced = append(f.synced, id)
	return wordpress.SyncResult{WP: wordpress.Object{"id": float64(id * 10)}}, nil
}

func (f *fakeWordPress) SyncMany(_ context.Context, onlyActive bool, limit int) (wordpress.SyncManyResult, error) {
	total := limit
	if !onlyActive {
		total++
	}
	return wordpress.SyncManyResult{Total: total, Synced: total, Results: []wordpress.SyncManyItem{}}, nil
}

func (f *fakeWordPress) GetRemote(_ context.Context, id int64) (property.Property, wordpress.Object, error) {
	return property.Property{ID: id}, wordpress.Object{"id": float64(id * 10)}, nil
}

func (f *fakeWordPress) DeleteOne(_ context.Context, id int64, force, deleteMedia bool) (wordpress.DeleteResult, error) {
	res := wordpress.DeleteResult{Deleted: force, WPPostID: id * 10, MediaDeleted: []int64{}}
	if deleteMedia {
		res.MediaDeleted = append(res.MediaDeleted, 7)
	}
	return res, nil
}

func Test_wordPressApi(t *testing.T) {
	wp := &fakeWordPress{}
	app, env := setup(t, setupOpts{wordPress: wp})
	env.Conf.InternalSyncKey = "s3cret"
	ana := testutil.CreateUser(t, env.UserRepo, "Ana", "ana", "ana@test.pe", "", user.RoleAgentInternal, true)
	root := createSuperuser(t, env, "root")
	anaToken, rootToken := getToken(t, env.Conf, ana), getToken(t, env.Conf, root)

	forbidden := marchallObj(t, httpErr{Error: "permission denied"})
	runHTTPTests(t, app, []httpTest{
		{name: "anonymous", path: "/v1/internal/wp/auth-test", wantCode: http.StatusForbidden, wantData: forbidden},
		{name: "agents are not staff", path: "/v1/internal/wp/auth-test", token: anaToken, wantCode: http.StatusForbidden, wantData: forbidden},
		{
			name: "superuser", path: "/v1/internal/wp/auth-test", token: rootToken,
			wantCode: http.StatusOK, wantData: []byte(`{"ok":true,"me":{"id":1,"name":"janis-sync"}}`),
		},
		{
			name: "sync many defaults to active listings", method: http.MethodPost, path: "/v1/internal/wp/sync", token: rootToken,
			body: []byte(`{"limit":3}`), wantCode: http.StatusOK, wantData: marchallObj(t, wordpress.SyncManyResult{Total: 3, Synced: 3, Results: []wordpress.SyncManyItem{}}),
		},
		{
			name: "sync many including inactive", method: http.MethodPost, path: "/v1/internal/wp/sync", token: rootToken,
			body: []byte(`{"limit":3,"only_active":false}`), wantCode: http.StatusOK,
			wantData: marchallObj(t, wordpress.SyncManyResult{Total: 4, Synced: 4, Results: []wordpress.SyncManyItem{}}),
		},
		{
			name: "sync one with missing fields", method: http.MethodPost, path: "/v1/internal/wp/sync/13", token: rootToken,
			wantCode: http.StatusBadRequest,
			wantData: []byte(`{"detail":"No se puede publicar en WordPress.",` +
				`"message":"Te falta registrar título, descripción antes de subir a WP.",` +
				`"missing_fields":["título","descripción"]}`),
		},
		{
			name: "remote", path: "/v1/internal/wp/property/5", token: rootToken,
			wantCode: http.StatusOK, wantData: marchallObj(t, RemoteResponse{Property: property.Property{ID: 5}, WP: wordpress.Object{"id": 50}}),
		},
		{
			name: "delete forces by default", method: http.MethodDelete, path: "/v1/internal/wp/property/5", token: rootToken,
			wantCode: http.StatusOK, wantData: marchallObj(t, wordpress.DeleteResult{Deleted: true, WPPostID: 50, MediaDeleted: []int64{}}),
		},
		{
			name: "trash with media", method: http.MethodDelete, path: "/v1/internal/wp/property/5?force=false&delete_media=true", token: rootToken,
			wantCode: http.StatusOK, wantData: marchallObj(t, wordpress.DeleteResult{Deleted: false, WPPostID: 50, MediaDeleted: []int64{7}}),
		},
	})

	t.Run("deactivated staff", func(t *testing.T) {
		gone := createSuperuser(t, env, "gone")
		goneToken := getToken(t, env.Conf, gone)
		gone.IsActive = false
		_, err := env.UserRepo.UpdateUser(ctxBg, gone)
		require.NoError(t, err)

		req, rec := newAuthRequest(http.MethodGet, "/v1/internal/wp/auth-test", goneToken)
		app.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("internal key", func(t *testing.T) {
		for key, want := range map[string]int{"nope": http.StatusForbidden, "s3cret": http.StatusOK} {
			req, rec := newRequest(http.MethodPost, "/v1/internal/wp/sync/9")
			req.Header.Set("X-INTERNAL-KEY", key)
			app.ServeHTTP(rec, req)
			assert.Equal(t, want, rec.Code, key)
		}
		assert.Equal(t, []int64{9}, wp.synced)
	})
}
