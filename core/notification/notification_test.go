package notification_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/janisrealty/janis/core"
	"github.com/janisrealty/janis/core/notification"
	"github.com/janisrealty/janis/core/property"
	"github.com/janisrealty/janis/core/user"
	emailsvc "github.com/janisrealty/janis/services/email"
	testutil "github.com/janisrealty/janis/tests"
)

func TestService_PropertyMatched(t *testing.T) {
	env := testutil.NewEnv(t)
	ctx := context.Background()
	env.Conf.WorkDir = filepath.Join("..", "..")
	core.ParseEmailTemplates(env.Conf, env.Logger)
	emailsvc.ResetSentMessages()

	ana := testutil.CreateUser(t, env.UserRepo, "Ana", "ana", "ana@test.pe", "", user.RoleAgentInternal, true)
	mine, err := env.Properties.Import(ctx, property.Property{Code: "JAN-1", Title: "Casa", CreatedByID: &ana.ID})
	require.NoError(t, err)
	orphan, err := env.Properties.Import(ctx, property.Property{Code: "JAN-2", Title: "Depa"})
	require.NoError(t, err)

	tests := []struct {
		name    string
		evt     core.MatchStored
		wantNil bool
	}{
		{name: "score too low", evt: core.MatchStored{MatchID: 1, PropertyID: mine.ID, Score: 49.99}, wantNil: true},
		{name: "listing without creator", evt: core.MatchStored{MatchID: 2, PropertyID: orphan.ID, Score: 90}, wantNil: true},
		{name: "notified", evt: core.MatchStored{MatchID: 3, RequirementID: 7, PropertyID: mine.ID, Score: 82.5}},
		{name: "same match again", evt: core.MatchStored{MatchID: 3, RequirementID: 7, PropertyID: mine.ID, Score: 82.5}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, err := env.Notifications.PropertyMatched(ctx, tt.evt)
			require.NoError(t, err)
			if tt.wantNil {
				assert.Nil(t, n)
				return
			}
			require.NotNil(t, n)
			assert.Equal(t, ana.ID, n.UserID)
			assert.Equal(t, notification.EventPropertyMatched, n.EventType)
			assert.Equal(t, "Hicieron match con tu propiedad en 82.50 %. ¡Se pondrán en contacto contigo!", n.Body)
		})
	}

	page, err := env.Notifications.List(ctx, ana.ID, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, page.Total)
	assert.Equal(t, 1, page.UnreadCount)
	assert.Equal(t, notification.DefaultLimit, page.Limit)

	// one email per created notification
	require.Len(t, emailsvc.SentMessages, 1)
	assert.Equal(t, "property_matched", emailsvc.SentMessages[0].TemplateName)
	assert.Equal(t, "ana@test.pe", emailsvc.SentMessages[0].To[0].Address)

	t.Run("no email when the profile opts out", func(t *testing.T) {
		emailsvc.ResetSentMessages()
		off := false
		_, err := env.Users.UpdateProfile(ctx, ana.ID, user.UpdateProfile{NotifyEmail: &off})
		require.NoError(t, err)
		n, err := env.Notifications.PropertyMatched(ctx, core.MatchStored{MatchID: 4, PropertyID: mine.ID, Score: 70})
		require.NoError(t, err)
		require.NotNil(t, n)
		assert.Empty(t, emailsvc.SentMessages)
	})
}

func TestService_Listen(t *testing.T) {
	env := testutil.NewEnv(t)
	ctx := context.Background()
	ana := testutil.CreateUser(t, env.UserRepo, "Ana", "ana", "ana@test.pe", "", user.RoleAgentInternal, true)
	p, err := env.Properties.Import(ctx, property.Property{Code: "JAN-1", Title: "Casa", CreatedByID: &ana.ID})
	require.NoError(t, err)

	require.NoError(t, env.Notifications.Listen(env.Bus))
	require.NoError(t, env.Bus.Publish(core.SubjectMatchStored, core.MatchStored{MatchID: 9, PropertyID: p.ID, Score: 64}))

	n, err := env.Notifications.UnreadCount(ctx, ana.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestService_ListAndMarkRead(t *testing.T) {
	env := testutil.NewEnv(t)
	ctx := context.Background()
	ana := testutil.CreateUser(t, env.UserRepo, "Ana", "ana", "ana@test.pe", "", user.RoleAgentInternal, true)
	bob := testutil.CreateUser(t, env.UserRepo, "Bob", "bob", "bob@test.pe", "", user.RoleAgentInternal, true)
	p, err := env.Properties.Import(ctx, property.Property{Code: "JAN-1", Title: "Casa", CreatedByID: &ana.ID})
	require.NoError(t, err)

	var ids []int64
	for i := int64(1); i <= 3; i++ {
		n, err := env.Notifications.PropertyMatched(ctx, core.MatchStored{MatchID: i, PropertyID: p.ID, Score: 75})
		require.NoError(t, err)
		ids = append(ids, n.ID)
	}

	tests := []struct {
		name             string
		limit, offset    int
		wantLen, wantLim int
		wantOffset       int
	}{
		{name: "default page", wantLen: 3, wantLim: notification.DefaultLimit},
		{name: "window", limit: 2, offset: 1, wantLen: 2, wantLim: 2, wantOffset: 1},
		{name: "clamped limit", limit: 500, wantLen: 3, wantLim: notification.MaxLimit},
		{name: "negative values", limit: -4, offset: -1, wantLen: 1, wantLim: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, err := env.Notifications.List(ctx, ana.ID, tt.limit, tt.offset)
			require.NoError(t, err)
			assert.Len(t, page.Results, tt.wantLen)
			assert.Equal(t, tt.wantLim, page.Limit)
			assert.Equal(t, tt.wantOffset, page.Offset)
			assert.Equal(t, 3, page.Total)
		})
	}

	res, err := env.Notifications.MarkRead(ctx, bob.ID, ids...)
	require.NoError(t, err)
	assert.Equal(t, notification.MarkResult{OK: true}, res)

	res, err = env.Notifications.MarkRead(ctx, ana.ID, ids[0], ids[1])
	require.NoError(t, err)
	assert.Equal(t, notification.MarkResult{OK: true, Updated: 2}, res)
	res, err = env.Notifications.MarkRead(ctx, ana.ID, ids...)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Updated)

	unread, err := env.Notifications.UnreadCount(ctx, ana.ID)
	require.NoError(t, err)
	assert.Zero(t, unread)

	res, err = env.Notifications.MarkRead(ctx, ana.ID)
	require.NoError(t, err)
	assert.Equal(t, notification.MarkResult{OK: true}, res)
}
