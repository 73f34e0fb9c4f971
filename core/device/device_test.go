package device_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/janisrealty/janis/core"
	"github.com/janisrealty/janis/core/device"
	"github.com/janisrealty/janis/core/user"
	testutil "github.com/janisrealty/janis/tests"
)

func mockNow(t *testing.T, now *time.Time) {
	orig := device.NowFunc
	device.NowFunc = func() time.Time { return *now }
	t.Cleanup(func() { device.NowFunc = orig })
}

func TestService(t *testing.T) {
	env := testutil.NewEnv(t)
	ctx := context.Background()
	now := time.Date(2026, 3, 2, 15, 0, 0, 0, time.UTC)
	mockNow(t, &now)

	ana := testutil.CreateUser(t, env.UserRepo, "Ana", "ana", "ana@test.pe", "", user.RoleAgentInternal, true)
	bob := testutil.CreateUser(t, env.UserRepo, "Bob", "bob", "bob@test.pe", "", user.RoleAgentExternal, true)

	_, err := env.Devices.Touch(ctx, ana.ID, device.Meta{DeviceID: "  "})
	assert.IsType(t, &core.ValidationError{}, err)

	laptop, err := env.Devices.Touch(ctx, ana.ID, device.Meta{DeviceID: " dev-1 ", Name: "Laptop", Platform: "Linux", UserAgent: "ua/1", IP: "10.0.0.1"})
	require.NoError(t, err)
	assert.Equal(t, device.StatusPending, laptop.Status)
	assert.False(t, laptop.IsTrusted)
	assert.Equal(t, "dev-1", laptop.DeviceID)
	assert.Equal(t, now, laptop.CreatedAt)

	t.Run("touching a known device refreshes it", func(t *testing.T) {
		now = now.Add(time.Hour)
		again, err := env.Devices.Touch(ctx, ana.ID, device.Meta{DeviceID: "dev-1", UserAgent: "ua/2", IP: "10.0.0.2"})
		require.NoError(t, err)
		assert.Equal(t, laptop.ID, again.ID)
		assert.Equal(t, "Laptop", again.Name)
		assert.Equal(t, "Linux", again.Platform)
		assert.Equal(t, "ua/2", again.UserAgent)
		assert.Equal(t, now, again.LastSeenAt)
		assert.Equal(t, laptop.CreatedAt, again.CreatedAt)
	})

	now = now.Add(time.Hour)
	// the same client id belongs to another user's device
	phone, err := env.Devices.Touch(ctx, bob.ID, device.Meta{DeviceID: "dev-1", Name: "Phone"})
	require.NoError(t, err)
	assert.NotEqual(t, laptop.ID, phone.ID)

	t.Run("status changes", func(t *testing.T) {
		_, err := env.Devices.SetStatus(ctx, phone.ID, "lost")
		assert.IsType(t, &core.ValidationError{}, err)
		_, err = env.Devices.SetStatus(ctx, 999, device.StatusApproved)
		assert.Equal(t, device.ErrNotFound, err)

		d, err := env.Devices.SetStatus(ctx, phone.ID, device.StatusApproved)
		require.NoError(t, err)
		assert.True(t, d.IsTrusted)
		d, err = env.Devices.SetStatus(ctx, phone.ID, device.StatusBlocked)
		require.NoError(t, err)
		assert.False(t, d.IsTrusted)
	})

	tests := []struct {
		name    string
		filter  device.QueryFilter
		wantIDs []int64
	}{
		{name: "last seen first", wantIDs: []int64{phone.ID, laptop.ID}},
		{name: "by status", filter: device.QueryFilter{Status: "BLOCKED"}, wantIDs: []int64{phone.ID}},
		{name: "unknown status is ignored", filter: device.QueryFilter{Status: "lost"}, wantIDs: []int64{phone.ID, laptop.ID}},
		{name: "by username", filter: device.QueryFilter{Search: " ana "}, wantIDs: []int64{laptop.ID}},
		{name: "by device name", filter: device.QueryFilter{Search: "phone"}, wantIDs: []int64{phone.ID}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			devs, err := env.Devices.List(ctx, tt.filter)
			require.NoError(t, err)
			var ids []int64
			for _, d := range devs {
				ids = append(ids, d.ID)
			}
			assert.Equal(t, tt.wantIDs, ids)
		})
	}

	counts, err := env.Devices.Counts(ctx)
	require.NoError(t, err)
	assert.Equal(t, device.Counts{Pending: 1, Blocked: 1}, counts)
}
