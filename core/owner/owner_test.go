package owner_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/janisrealty/janis/core/owner"
	inmemdb "github.com/janisrealty/janis/storage/database/inmem"
	testutil "github.com/janisrealty/janis/tests"
)

func TestInput_Validate(t *testing.T) {
	validate, _ := testutil.NewValidator()

	in := owner.Input{
		FirstName: " maría  josé ", LastName: "QUISPE", Email: " Maria@Mail.PE ", Gender: "f",
		Phone: " +51 999 888 777 ", DocumentNumber: " 40123456 ",
	}
	require.NoError(t, in.Validate(validate))
	assert.Equal(t, "María José", in.FirstName)
	assert.Equal(t, "Quispe", in.LastName)
	assert.Equal(t, "maria@mail.pe", in.Email)
	assert.Equal(t, "F", in.Gender)
	assert.Equal(t, "+51 999 888 777", in.Phone)
	assert.Equal(t, "40123456", in.DocumentNumber)

	tests := []struct {
		name string
		in   owner.Input
	}{
		{name: "no last name", in: owner.Input{FirstName: "Ana"}},
		{name: "bad gender", in: owner.Input{FirstName: "Ana", LastName: "Ruiz", Gender: "x"}},
		{name: "bad phone", in: owner.Input{FirstName: "Ana", LastName: "Ruiz", Phone: "call me"}},
		{name: "bad email", in: owner.Input{FirstName: "Ana", LastName: "Ruiz", Email: "ana@"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, tt.in.Validate(validate))
		})
	}
}

func TestService(t *testing.T) {
	env := testutil.NewEnv(t)
	ctx := context.Background()
	raw := inmemdb.NewOwnerRepository(env.DB)
	creator := int64(3)

	maria, err := env.Owners.Create(ctx, owner.Input{
		FirstName: "María", LastName: "Quispe", MaternalLastName: "Rojas",
		Phone: "+51999888777", Email: "maria@mail.pe", DocumentNumber: "40123456",
	}, &creator)
	require.NoError(t, err)
	assert.True(t, maria.IsActive)
	assert.Equal(t, "María Quispe Rojas", maria.FullName())
	assert.Equal(t, "+51999888777", maria.Phone)

	t.Run("personal data is sealed at rest", func(t *testing.T) {
		stored, err := raw.GetOwner(ctx, maria.ID)
		require.NoError(t, err)
		for _, v := range []string{stored.FirstName, stored.LastName, stored.MaternalLastName, stored.Phone, stored.Email} {
			assert.True(t, strings.HasPrefix(v, "sb1:"), v)
		}
		assert.Empty(t, stored.SecondaryPhone)
		assert.Equal(t, "40123456", stored.DocumentNumber)

		got, err := env.Owners.Get(ctx, maria.ID)
		require.NoError(t, err)
		assert.Equal(t, maria, got)
	})

	inactive := false
	luis, err := env.Owners.Create(ctx, owner.Input{FirstName: "Luis", LastName: "Paredes", DocumentNumber: "10999888", IsActive: &inactive}, nil)
	require.NoError(t, err)

	tests := []struct {
		name    string
		filter  owner.QueryFilter
		wantIDs []int64
	}{
		{name: "all", wantIDs: []int64{maria.ID, luis.ID}},
		{name: "by maternal name", filter: owner.QueryFilter{Search: " ROJAS "}, wantIDs: []int64{maria.ID}},
		{name: "by document", filter: owner.QueryFilter{Search: "10999"}, wantIDs: []int64{luis.ID}},
		{name: "active only", filter: owner.QueryFilter{IsActive: boolPtr(true)}, wantIDs: []int64{maria.ID}},
		{name: "no match", filter: owner.QueryFilter{Search: "zzz"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			owners, err := env.Owners.Query(ctx, tt.filter)
			require.NoError(t, err)
			var ids []int64
			for _, o := range owners {
				ids = append(ids, o.ID)
			}
			assert.ElementsMatch(t, tt.wantIDs, ids)
		})
	}

	t.Run("full names", func(t *testing.T) {
		names, err := env.Owners.FullNames(ctx, maria.ID, luis.ID, 999)
		require.NoError(t, err)
		assert.Equal(t, map[int64]string{maria.ID: "María Quispe Rojas", luis.ID: "Luis Paredes"}, names)

		names, err = env.Owners.FullNames(ctx)
		require.NoError(t, err)
		assert.Empty(t, names)
	})

	t.Run("update and delete", func(t *testing.T) {
		upd, err := env.Owners.Update(ctx, luis, owner.Input{FirstName: "Luis", LastName: "Paredes", Email: "luis@mail.pe"})
		require.NoError(t, err)
		assert.Equal(t, "luis@mail.pe", upd.Email)
		assert.False(t, upd.IsActive)

		stored, err := raw.GetOwner(ctx, luis.ID)
		require.NoError(t, err)
		assert.NotEqual(t, "luis@mail.pe", stored.Email)

		require.NoError(t, env.Owners.Delete(ctx, luis.ID))
		_, err = env.Owners.Get(ctx, luis.ID)
		assert.Equal(t, owner.ErrNotFound, err)
	})
}

func boolPtr(b bool) *bool { return &b }
