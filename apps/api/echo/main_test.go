package echoapi_test

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	. "github.com/janisrealty/janis/apps/api/echo"
	"github.com/janisrealty/janis/core"
	"github.com/janisrealty/janis/core/user"
	"github.com/janisrealty/janis/services/metrics"
	"github.com/janisrealty/janis/tests"
)

var (
	ctxBg           = context.Background()
	errMissingToken = httpErr{Error: "missing or malformed jwt"}
)

type fakeSignatures struct {
	valid bool
	url   string
}

func (f *fakeSignatures) Valid(url string, _ map[string]string, _ string) bool {
	f.url = url
	return f.valid
}

type setupOpts struct {
	wordPress  WordPress
	signatures SignatureChecker
}

func setup(t *testing.T, opt ...setupOpts) (Server, *testutil.Env) {
	env := testutil.NewEnv(t)
	validate, translator := testutil.NewValidator()

	var o setupOpts
	if len(opt) > 0 {
		o = opt[0]
	}
	app := NewServer(&Options{
		DisableReqLogs:  true,
		Conf:            env.Conf,
		Logger:          env.Logger,
		Validate:        validate,
		Translator:      translator,
		Metrics:         metrics.New(),
		UserSvc:         env.Users,
		DeviceSvc:       env.Devices,
		CatalogSvc:      env.Catalogs,
		OwnerSvc:        env.Owners,
		PropertySvc:     env.Properties,
		RequirementSvc:  env.Requirements,
		MatchingSvc:     env.Matching,
		NotificationSvc: env.Notifications,
		AgendaSvc:       env.Agenda,
		TaskSvc:         env.Tasks,
		ChatSvc:         env.Chat,
		LeadSvc:         env.Leads,
		WordPress:       o.wordPress,
		Signatures:      o.signatures,
	})
	return app, env
}

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
	extra    interface{}
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	return newAuthRequest(method, path, "", data...)
}

// newUploadRequest builds a multipart request carrying fields and one file under "file".
func newUploadRequest(
	t *testing.T,
	path, token string,
	fields map[string]string,
	filename, contentType string,
	content []byte,
) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	if filename != "" {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="file"; filename="`+filename+`"`)
		h.Set("Content-Type", contentType)
		part, err := w.CreatePart(h)
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req, httptest.NewRecorder()
}

// serve runs one JSON request and fails the test unless it answers wantCode.
func serve(t *testing.T, app http.Handler, method, path, token string, body string, wantCode int) *httptest.ResponseRecorder {
	t.Helper()
	var data []byte
	if body != "" {
		data = []byte(body)
	}
	req, rec := newAuthRequest(method, path, token, data)
	app.ServeHTTP(rec, req)
	require.Equal(t, wantCode, rec.Code, rec.Body.String())
	return rec
}

func createSuperuser(t *testing.T, env *testutil.Env, uname string) user.User {
	t.Helper()
	usr := testutil.CreateUser(t, env.UserRepo, "Root", uname, uname+"@test.pe", "", "", true)
	usr.IsSuperuser = true
	usr, err := env.UserRepo.UpdateUser(ctxBg, usr)
	require.NoError(t, err)
	return usr
}

func getToken(t *testing.T, conf *core.Config, usr user.User) string {
	token, err := GenerateToken(conf, GetUserClaims(conf, usr))
	if err != nil {
		t.Fatalf("getToken() failed: %v", err)
	}
	return token
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj() failed: %v", err)
	}
	return data
}

func marchallList(t *testing.T, objs ...interface{}) []byte {
	if objs == nil {
		objs = []interface{}{}
	}
	data, err := json.Marshal(objs)
	if err != nil {
		t.Fatalf("marchallList() failed: %v", err)
	}
	return data
}

func unmarshal(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
}

func jsonBytesEqual(t *testing.T, b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	if reflect.DeepEqual(j1, j2) {
		return true, nil
	}
	if j1 == nil || j2 == nil {
		return false, nil
	}
	return assert.ElementsMatch(t, j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
	}
	if tt.wantData == nil {
		return
	}
	ok, err := jsonBytesEqual(t, rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}

func runHTTPTests(t *testing.T, app Server, tests []httpTest) {
	t.Helper()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			method := tt.method
			if method == "" {
				method = http.MethodGet
			}
			req, rec := newAuthRequest(method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}
