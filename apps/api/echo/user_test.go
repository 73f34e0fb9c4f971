package echoapi_test

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/dgrijalva/jwt-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	. "github.com/janisrealty/janis/apps/api/echo"
	"github.com/janisrealty/janis/core/user"
	"github.com/janisrealty/janis/tests"
)

func Test_home(t *testing.T) {
	app, _ := setup(t)
	req, rec := newRequest(http.MethodGet, "/")
	app.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Welcome to Janis API!", rec.Body.String())
}

func Test_userApi_login(t *testing.T) {
	app, env := setup(t)
	pwd := "Pa$$w0rd"
	testutil.CreateUser(t, env.UserRepo, "Ana", "ana", "ana@test.pe", pwd, user.RoleAgentInternal, true)
	testutil.CreateUser(t, env.UserRepo, "Old", "old", "old@test.pe", pwd, user.RoleAgentInternal, false)

	failed := marchallObj(t, httpErr{Error: "authentication failed"})
	tests := []httpTest{
		{name: "missing fields", body: marchallObj(t, LoginRequest{}), wantCode: http.StatusBadRequest},
		{name: "unknown user", body: marchallObj(t, LoginRequest{Username: "bob", Password: pwd}), wantCode: http.StatusBadRequest, wantData: failed},
		{name: "wrong password", body: marchallObj(t, LoginRequest{Username: "ana", Password: "nope"}), wantCode: http.StatusBadRequest, wantData: failed},
		{
			name: "inactive account", body: marchallObj(t, LoginRequest{Username: "old", Password: pwd}),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "account deactivated"}),
		},
		{name: "by username", body: marchallObj(t, LoginRequest{Username: "ana", Password: pwd}), wantCode: http.StatusOK},
		{name: "by email", body: marchallObj(t, LoginRequest{Username: "ANA@test.pe", Password: pwd}), wantCode: http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(http.MethodPost, "/v1/users/login", tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)

			if tt.wantCode == http.StatusOK {
				var resp LoginResponse
				unmarshal(t, rec, &resp)
				claims := new(Claims)
				token, err := jwt.ParseWithClaims(resp.Token, claims, func(*jwt.Token) (interface{}, error) {
					return []byte(env.Conf.SecretKey), nil
				})
				require.NoError(t, err)
				assert.True(t, token.Valid)
				assert.Equal(t, "ana", claims.Username)
				assert.Equal(t, user.RoleAgentInternal, claims.Role)
				assert.False(t, claims.IsPrivileged)
			}
		})
	}
}

func Test_userApi_refreshToken(t *testing.T) {
	app, env := setup(t)
	usr := testutil.CreateUser(t, env.UserRepo, "Ana", "ana", "ana@test.pe", "", user.RoleManager, true)

	expired, err := GenerateToken(env.Conf, GetUserClaims(env.Conf, usr, 1))
	require.NoError(t, err)

	tests := []httpTest{
		{name: "auth required", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{name: "refresh window expired", token: expired, wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "refresh has expired"})},
		{name: "fresh token", token: getToken(t, env.Conf, usr), wantCode: http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodPost, "/v1/users/token-refresh", tt.token)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_userApi_me(t *testing.T) {
	app, env := setup(t)
	agent := testutil.CreateUser(t, env.UserRepo, "Ana", "ana", "ana@test.pe", "", user.RoleAgentInternal, true)
	manager := testutil.CreateUser(t, env.UserRepo, "Mia", "mia", "mia@test.pe", "", user.RoleManager, true)

	runHTTPTests(t, app, []httpTest{
		{name: "auth required", path: "/v1/users/me", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{name: "me", path: "/v1/users/me", token: getToken(t, env.Conf, agent), wantCode: http.StatusOK, wantData: marchallObj(t, agent)},
		{
			name: "agent permissions", path: "/v1/users/me/permissions", token: getToken(t, env.Conf, agent),
			wantCode: http.StatusOK, wantData: marchallObj(t, agent.Permissions()),
		},
		{
			name: "manager permissions", path: "/v1/users/me/permissions", token: getToken(t, env.Conf, manager),
			wantCode: http.StatusOK, wantData: marchallObj(t, manager.Permissions()),
		},
		{name: "roles", path: "/v1/users/roles", token: getToken(t, env.Conf, agent), wantCode: http.StatusOK, wantData: marchallObj(t, user.Roles)},
	})
}

func Test_userApi_permissions(t *testing.T) {
	app, env := setup(t)
	agent := testutil.CreateUser(t, env.UserRepo, "Ana", "ana", "ana@test.pe", "", user.RoleAgentInternal, true)
	other := testutil.CreateUser(t, env.UserRepo, "Bob", "bob", "bob@test.pe", "", user.RoleAgentExternal, true)
	manager := testutil.CreateUser(t, env.UserRepo, "Mia", "mia", "mia@test.pe", "", user.RoleManager, true)
	root := testutil.CreateUser(t, env.UserRepo, "Root", "root", "root@test.pe", "", "", true)
	root.IsSuperuser = true
	_, err := env.UserRepo.UpdateUser(ctxBg, root)
	require.NoError(t, err)

	agentToken := getToken(t, env.Conf, agent)
	managerToken := getToken(t, env.Conf, manager)
	forbidden := marchallObj(t, httpErr{Error: "permission denied"})

	runHTTPTests(t, app, []httpTest{
		{name: "agent cannot list users", path: "/v1/users", token: agentToken, wantCode: http.StatusForbidden, wantData: forbidden},
		{name: "manager lists users", path: "/v1/users?ordering=id", token: managerToken, wantCode: http.StatusOK},
		{name: "agent sees self", path: fmt.Sprintf("/v1/users/%d", agent.ID), token: agentToken, wantCode: http.StatusOK, wantData: marchallObj(t, agent)},
		{name: "agent cannot see others", path: fmt.Sprintf("/v1/users/%d", other.ID), token: agentToken, wantCode: http.StatusForbidden, wantData: forbidden},
		{name: "manager sees others", path: fmt.Sprintf("/v1/users/%d", other.ID), token: managerToken, wantCode: http.StatusOK, wantData: marchallObj(t, other)},
		{
			name: "agent cannot grant themselves a role", method: http.MethodPut, path: fmt.Sprintf("/v1/users/%d", agent.ID),
			body: []byte(`{"role":"manager"}`), token: agentToken, wantCode: http.StatusForbidden, wantData: forbidden,
		},
		{
			name: "agent cannot register users", method: http.MethodPost, path: "/v1/users/register",
			body: []byte(`{"username":"new","email":"new@test.pe"}`), token: agentToken, wantCode: http.StatusForbidden, wantData: forbidden,
		},
		{
			name: "manager cannot delete themselves", method: http.MethodDelete, path: fmt.Sprintf("/v1/users/%d", manager.ID),
			token: managerToken, wantCode: http.StatusForbidden, wantData: forbidden,
		},
		{
			name: "manager cannot delete a superuser", method: http.MethodDelete, path: fmt.Sprintf("/v1/users/%d", root.ID),
			token: managerToken, wantCode: http.StatusForbidden, wantData: forbidden,
		},
		{
			name: "manager deletes an agent", method: http.MethodDelete, path: fmt.Sprintf("/v1/users/%d", other.ID),
			token: managerToken, wantCode: http.StatusNoContent,
		},
		{
			name: "deleted user is gone", path: fmt.Sprintf("/v1/users/%d", other.ID), token: managerToken,
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "not found"}),
		},
	})
}

func Test_userApi_deactivatedToken(t *testing.T) {
	app, env := setup(t)
	agent := testutil.CreateUser(t, env.UserRepo, "Ana", "ana", "ana@test.pe", "", user.RoleAgentInternal, true)
	token := getToken(t, env.Conf, agent)

	agent.IsActive = false
	_, err := env.UserRepo.UpdateUser(ctxBg, agent)
	require.NoError(t, err)

	runHTTPTests(t, app, []httpTest{
		{
			name: "inactive users are locked out", path: "/v1/owners", token: token,
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "account deactivated"}),
		},
	})
}

func Test_userApi_resetPassword(t *testing.T) {
	app, env := setup(t)
	testutil.CreateUser(t, env.UserRepo, "Ana", "ana", "ana@test.pe", "old-pa$$", user.RoleAgentInternal, true)

	success := marchallObj(t, SuccessResponse{Success: "If the email address supplied is associated with an active account on this system, " +
		"an email will arrive in your inbox shortly with instructions to reset your password."})
	tests := []httpTest{
		{name: "invalid email", body: []byte(`{"email":"lol"}`), wantCode: http.StatusBadRequest},
		{name: "unknown email does not leak", body: []byte(`{"email":"who@test.pe"}`), wantCode: http.StatusOK, wantData: success},
		{name: "known email", body: []byte(`{"email":"ana@test.pe"}`), wantCode: http.StatusOK, wantData: success},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(http.MethodPost, "/v1/users/password-reset", tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}
