package user

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenGenerator(t *testing.T) {
	gen := newTokenGenerator("secret", 3*day)

	now := time.Now()
	usr := User{ID: 1, Username: "t", Email: "t@test.test", IsActive: true, LastLogin: &now}
	require.NoError(t, usr.SetPassword("pwd"))

	validToken := gen.make(usr)

	stale := gen
	stale.now = func() time.Time { return now.Add(-4 * day) }
	expiredToken := stale.make(usr)

	later := now.Add(time.Hour)
	loggedAgain := usr
	loggedAgain.LastLogin = &later

	changedPwd := usr
	require.NoError(t, changedPwd.SetPassword("other"))

	tests := []struct {
		name    string
		gen     tokenGenerator
		usr     User
		token   string
		wantErr error
	}{
		{name: "no token", gen: gen, usr: usr, wantErr: errInvalidToken},
		{name: "no separator", gen: gen, usr: usr, token: "lmaooolol", wantErr: errInvalidToken},
		{name: "invalid base32", gen: gen, usr: usr, token: "hahaha-sigsig-sig", wantErr: errInvalidToken},
		{name: "invalid day", gen: gen, usr: usr, token: "NRXWY-sigsig-sig", wantErr: errInvalidToken},
		{name: "bad signature", gen: gen, usr: usr, token: "HE4TS-sigsig-sig", wantErr: errInvalidToken},
		{name: "expired", gen: gen, usr: usr, token: expiredToken, wantErr: errTokenExpired},
		{name: "used after login", gen: gen, usr: loggedAgain, token: validToken, wantErr: errInvalidToken},
		{name: "password changed", gen: gen, usr: changedPwd, token: validToken, wantErr: errInvalidToken},
		{name: "other secret", gen: newTokenGenerator("other", 3*day), usr: usr, token: validToken, wantErr: errInvalidToken},
		{name: "valid", gen: gen, usr: usr, token: validToken},
		{name: "expired token within longer timeout", gen: newTokenGenerator("secret", 5*day), usr: usr, token: expiredToken},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantErr, tt.gen.verify(tt.usr, tt.token))
		})
	}
}

func TestEncodeDecodeUID(t *testing.T) {
	id, err := decodeUID(EncodeUID(User{ID: 4217}))
	require.NoError(t, err)
	assert.Equal(t, int64(4217), id)

	_, err = decodeUID("!!")
	assert.Error(t, err)
}
