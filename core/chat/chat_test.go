package chat_test

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/janisrealty/janis/core/chat"
	"github.com/janisrealty/janis/core/user"
	testutil "github.com/janisrealty/janis/tests"
)

func TestService(t *testing.T) {
	env := testutil.NewEnv(t)
	ctx := context.Background()
	ana := testutil.CreateUser(t, env.UserRepo, "Ana", "ana", "ana@test.pe", "", user.RoleAgentInternal, true)
	bob := testutil.CreateUser(t, env.UserRepo, "Bob", "bob", "bob@test.pe", "", user.RoleManager, true)
	eve := testutil.CreateUser(t, env.UserRepo, "Eve", "eve", "eve@test.pe", "", user.RoleAgentInternal, true)

	c, err := env.Chat.Create(ctx, ana, chat.NewConversation{Title: " Casa Surco ", ParticipantIDs: []int64{bob.ID, ana.ID, bob.ID}})
	require.NoError(t, err)
	assert.Equal(t, "Casa Surco", c.Title)
	assert.ElementsMatch(t, []int64{ana.ID, bob.ID}, c.ParticipantIDs)

	t.Run("outsiders do not see the conversation", func(t *testing.T) {
		_, err := env.Chat.Get(ctx, eve, c.ID)
		assert.Equal(t, chat.ErrNotFound, err)
		_, err = env.Chat.Send(ctx, eve, c.ID, chat.NewMessage{Body: "hola"})
		assert.Equal(t, chat.ErrNotFound, err)
		convs, err := env.Chat.List(ctx, eve)
		require.NoError(t, err)
		assert.Empty(t, convs)
	})

	_, err = env.Chat.Send(ctx, ana, c.ID, chat.NewMessage{Body: "   "})
	assert.Equal(t, chat.ErrEmptyBody, err)

	first, err := env.Chat.Send(ctx, ana, c.ID, chat.NewMessage{Body: " ¿Visitamos el sábado? "})
	require.NoError(t, err)
	assert.Equal(t, "¿Visitamos el sábado?", first.Body)
	assert.Equal(t, chat.TypeText, first.Type)
	assert.Equal(t, "Ana", first.SenderName)
	assert.Equal(t, user.RoleAgentInternal, first.SenderRole)

	time.Sleep(2 * time.Millisecond)
	att, err := env.Chat.Attach(ctx, bob, c.ID, strings.NewReader("%PDF"), "docs/Plano.PDF", "application/pdf", 4)
	require.NoError(t, err)
	assert.Equal(t, chat.TypeFile, att.Type)
	assert.Equal(t, "Plano.PDF", att.Body)
	require.Len(t, att.Attachments, 1)
	assert.True(t, strings.HasSuffix(att.Attachments[0].BlobKey, ".pdf"))
	assert.NotEmpty(t, att.Attachments[0].URL)

	r, err := env.Blobs.Get(ctx, att.Attachments[0].BlobKey)
	require.NoError(t, err)
	content, err := io.ReadAll(r)
	_ = r.Close()
	require.NoError(t, err)
	assert.Equal(t, "%PDF", string(content))

	img, err := env.Chat.Attach(ctx, ana, c.ID, strings.NewReader("png"), "foto.png", "image/png", 3)
	require.NoError(t, err)
	assert.Equal(t, chat.TypeImage, img.Type)

	msgs, err := env.Chat.Messages(ctx, bob, c.ID, time.Time{})
	require.NoError(t, err)
	require.Len(t, msgs, 3)
	assert.Empty(t, msgs[0].Attachments)
	assert.Len(t, msgs[1].Attachments, 1)

	msgs, err = env.Chat.Messages(ctx, bob, c.ID, first.CreatedAt)
	require.NoError(t, err)
	assert.Len(t, msgs, 2)

	convs, err := env.Chat.List(ctx, bob)
	require.NoError(t, err)
	require.Len(t, convs, 1)
	assert.True(t, convs[0].UpdatedAt.After(c.UpdatedAt))
}
