package sqlxrepos

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/janisrealty/janis/core/chat"
)

type chatRepository struct {
	base
}

var _ chat.Repository = (*chatRepository)(nil)

func NewChatRepository(db *sqlx.DB) chat.Repository {
	return &chatRepository{base{db: db}}
}

type participantRow struct {
	ConversationID int64 `db:"conversation_id"`
	UserID         int64 `db:"user_id"`
}

func (repo *chatRepository) withParticipants(ctx context.Context, convs []chat.Conversation) ([]chat.Conversation, error) {
	if len(convs) == 0 {
		return convs, nil
	}
	ids := make([]int64, len(convs))
	for i, c := range convs {
		ids[i] = c.ID
	}
	var rows []participantRow
	q := psql.Select("conversation_id", "user_id").From("chat_participants").
		Where(sq.Eq{"conversation_id": ids}).OrderBy("user_id")
	if err := repo.selectAll(ctx, &rows, q); err != nil {
		return nil, errors.Wrap(err, "listing chat participants")
	}
	byConv := make(map[int64][]int64)
	for _, r := range rows {
		byConv[r.ConversationID] = append(byConv[r.ConversationID], r.UserID)
	}
	for i := range convs {
		convs[i].ParticipantIDs = byConv[convs[i].ID]
	}
	return convs, nil
}

func (repo *chatRepository) CreateConversation(ctx context.Context, c chat.Conversation) (chat.Conversation, error) {
	err := repo.withTx(ctx, func(tx *sqlx.Tx) error {
		query, args, err := psql.Insert("chat_conversations").SetMap(values(c, "id")).Suffix("RETURNING id").ToSql()
		if err != nil {
			return err
		}
		if err := tx.GetContext(ctx, &c.ID, query, args...); err != nil {
			return err
		}
		return replaceLinks(ctx, tx, "chat_participants", "conversation_id", c.ID, "user_id", c.ParticipantIDs, nil)
	})
	if err != nil {
		return chat.Conversation{}, errors.Wrap(err, "inserting conversation")
	}
	return c, nil
}

func (repo *chatRepository) GetConversation(ctx context.Context, id int64) (chat.Conversation, error) {
	c, err := getRow[chat.Conversation](ctx, repo.base, "chat_conversations", id, chat.ErrNotFound)
	if err != nil {
		return chat.Conversation{}, err
	}
	convs, err := repo.withParticipants(ctx, []chat.Conversation{c})
	if err != nil {
		return chat.Conversation{}, err
	}
	return convs[0], nil
}

func (repo *chatRepository) ListConversations(ctx context.Context, userID int64) ([]chat.Conversation, error) {
	member := sq.Expr("id IN (SELECT conversation_id FROM chat_participants WHERE user_id = ?)", userID)
	convs, err := listRows[chat.Conversation](ctx, repo.base, "chat_conversations", member, "updated_at DESC", "id DESC")
	if err != nil {
		return nil, err
	}
	return repo.withParticipants(ctx, convs)
}

func (repo *chatRepository) TouchConversation(ctx context.Context, id int64, at time.Time) error {
	n, err := repo.exec(ctx, psql.Update("chat_conversations").Set("updated_at", at).Where(sq.Eq{"id": id}))
	if err != nil {
		return errors.Wrap(err, "touching conversation")
	}
	if n == 0 {
		return chat.ErrNotFound
	}
	return nil
}

func (repo *chatRepository) CreateMessage(ctx context.Context, m chat.Message) (chat.Message, error) {
	id, err := repo.insert(ctx, "chat_messages", m)
	if err != nil {
		return chat.Message{}, errors.Wrap(err, "inserting chat message")
	}
	m.ID = id
	return m, nil
}

func (repo *chatRepository) ListMessages(ctx context.Context, conversationID int64, since time.Time) ([]chat.Message, error) {
	where := sq.And{sq.Eq{"conversation_id": conversationID}}
	if !since.IsZero() {
		where = append(where, sq.Gt{"created_at": since})
	}
	return listRows[chat.Message](ctx, repo.base, "chat_messages", where, "created_at", "id")
}

func (repo *chatRepository) CreateAttachment(ctx context.Context, a chat.Attachment) (chat.Attachment, error) {
	id, err := repo.insert(ctx, "chat_attachments", a)
	if err != nil {
		return chat.Attachment{}, errors.Wrap(err, "inserting chat attachment")
	}
	a.ID = id
	return a, nil
}

func (repo *chatRepository) ListAttachments(ctx context.Context, messageIDs ...int64) ([]chat.Attachment, error) {
	if len(messageIDs) == 0 {
		return []chat.Attachment{}, nil
	}
	return listRows[chat.Attachment](ctx, repo.base, "chat_attachments", sq.Eq{"message_id": messageIDs}, "id")
}
