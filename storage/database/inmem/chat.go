package inmemdb

import (
	"context"
	"sort"
	"time"

	"github.com/janisrealty/janis/core/chat"
)

type chatRepository struct {
	db *DB
}

var _ chat.Repository = (*chatRepository)(nil)

func NewChatRepository(db *DB) chat.Repository {
	return &chatRepository{db: db}
}

func (repo *chatRepository) CreateConversation(_ context.Context, c chat.Conversation) (chat.Conversation, error) {
	tbl := repo.db.convs
	tbl.Lock()
	defer tbl.Unlock()
	c.ID = tbl.nextID()
	tbl.put(c.ID, c)
	return c, nil
}

func (repo *chatRepository) GetConversation(_ context.Context, id int64) (chat.Conversation, error) {
	tbl := repo.db.convs
	tbl.RLock()
	defer tbl.RUnlock()
	if c, ok := tbl.rows[id]; ok {
		return *c, nil
	}
	return chat.Conversation{}, chat.ErrNotFound
}

func (repo *chatRepository) ListConversations(_ context.Context, userID int64) ([]chat.Conversation, error) {
	tbl := repo.db.convs
	tbl.RLock()
	defer tbl.RUnlock()
	convs := tbl.list(func(c chat.Conversation) bool { return c.HasParticipant(userID) })
	sort.SliceStable(convs, func(i, j int) bool { return convs[i].UpdatedAt.After(convs[j].UpdatedAt) })
	return convs, nil
}

func (repo *chatRepository) TouchConversation(_ context.Context, id int64, at time.Time) error {
	tbl := repo.db.convs
	tbl.Lock()
	defer tbl.Unlock()
	c, ok := tbl.rows[id]
	if !ok {
		return chat.ErrNotFound
	}
	c.UpdatedAt = at
	return nil
}

func (repo *chatRepository) CreateMessage(_ context.Context, m chat.Message) (chat.Message, error) {
	tbl := repo.db.messages
	tbl.Lock()
	defer tbl.Unlock()
	m.ID = tbl.nextID()
	tbl.put(m.ID, m)
	return m, nil
}

func (repo *chatRepository) ListMessages(_ context.Context, conversationID int64, since time.Time) ([]chat.Message, error) {
	tbl := repo.db.messages
	tbl.RLock()
	defer tbl.RUnlock()
	msgs := tbl.list(func(m chat.Message) bool {
		return m.ConversationID == conversationID && (since.IsZero() || m.CreatedAt.After(since))
	})
	sort.SliceStable(msgs, func(i, j int) bool { return msgs[i].CreatedAt.Before(msgs[j].CreatedAt) })
	return msgs, nil
}

func (repo *chatRepository) CreateAttachment(_ context.Context, a chat.Attachment) (chat.Attachment, error) {
	tbl := repo.db.attachments
	tbl.Lock()
	defer tbl.Unlock()
	a.ID = tbl.nextID()
	tbl.put(a.ID, a)
	return a, nil
}

func (repo *chatRepository) ListAttachments(_ context.Context, messageIDs ...int64) ([]chat.Attachment, error) {
	tbl := repo.db.attachments
	tbl.RLock()
	defer tbl.RUnlock()
	return tbl.list(func(a chat.Attachment) bool { return containsID(messageIDs, a.MessageID) }), nil
}
