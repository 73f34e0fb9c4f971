package chat

import (
	"context"
	"errors"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/kat-co/vala"

	"github.com/janisrealty/janis/core"
	"github.com/janisrealty/janis/core/user"
)

const attachmentsPrefix = "chat/attachments/"

var (
	// errors
	ErrNotFound  = errors.New("conversation not found")
	ErrEmptyBody = core.NewFieldError("body", "empty message")
)

type (
	Repository interface {
		// CreateConversation stores the conversation along with its participants.
		CreateConversation(ctx context.Context, c Conversation) (Conversation, error)
		GetConversation(ctx context.Context, id int64) (Conversation, error)
		// ListConversations returns the user's conversations sorted by updated_at descending.
		ListConversations(ctx context.Context, userID int64) ([]Conversation, error)
		TouchConversation(ctx context.Context, id int64, at time.Time) error

		CreateMessage(ctx context.Context, m Message) (Message, error)
		// ListMessages sorts by created_at. A zero since lists every message.
		ListMessages(ctx context.Context, conversationID int64, since time.Time) ([]Message, error)
		CreateAttachment(ctx context.Context, a Attachment) (Attachment, error)
		ListAttachments(ctx context.Context, messageIDs ...int64) ([]Attachment, error)
	}

	Service struct {
		repo  Repository
		blobs core.BlobStore
	}
)

func NewService(repo Repository, blobs core.BlobStore) *Service {
	vala.BeginValidation().Validate(
		vala.IsNotNil(repo, "repo"),
		vala.IsNotNil(blobs, "blobs"),
	).CheckAndPanic()
	return &Service{repo: repo, blobs: blobs}
}

func (svc *Service) List(ctx context.Context, usr user.User) ([]Conversation, error) {
	return svc.repo.ListConversations(ctx, usr.ID)
}

// Create opens a conversation. The creator always takes part in it.
func (svc *Service) Create(ctx context.Context, usr user.User, nc NewConversation) (Conversation, error) {
	ids := []int64{usr.ID}
	seen := map[int64]bool{usr.ID: true}
	for _, id := range nc.ParticipantIDs {
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	now := time.Now().UTC()
	return svc.repo.CreateConversation(ctx, Conversation{
		Title:          core.CleanString(nc.Title),
		ParticipantIDs: ids,
		CreatedAt:      now,
		UpdatedAt:      now,
	})
}

// Get hides conversations usr does not take part in.
func (svc *Service) Get(ctx context.Context, usr user.User, id int64) (Conversation, error) {
	c, err := svc.repo.GetConversation(ctx, id)
	if err != nil {
		return Conversation{}, err
	}
	if !c.HasParticipant(usr.ID) {
		return Conversation{}, ErrNotFound
	}
	return c, nil
}

func (svc *Service) Send(ctx context.Context, usr user.User, conversationID int64, nm NewMessage) (Message, error) {
	body := core.CleanString(nm.Body)
	if body == "" {
		return Message{}, ErrEmptyBody
	}
	return svc.send(ctx, usr, conversationID, body, TypeText)
}

func (svc *Service) send(ctx context.Context, usr user.User, conversationID int64, body, typ string) (Message, error) {
	c, err := svc.Get(ctx, usr, conversationID)
	if err != nil {
		return Message{}, err
	}
	now := time.Now().UTC()
	senderID := usr.ID
	msg, err := svc.repo.CreateMessage(ctx, Message{
		ConversationID: c.ID,
		SenderID:       &senderID,
		SenderName:     usr.FullName(),
		SenderRole:     usr.RoleCode,
		Body:           body,
		Type:           typ,
		CreatedAt:      now,
	})
	if err != nil {
		return Message{}, err
	}
	if err := svc.repo.TouchConversation(ctx, c.ID, now); err != nil {
		return Message{}, err
	}
	return msg, nil
}

// Messages lists the conversation's messages created after since.
func (svc *Service) Messages(ctx context.Context, usr user.User, conversationID int64, since time.Time) ([]Message, error) {
	c, err := svc.Get(ctx, usr, conversationID)
	if err != nil {
		return nil, err
	}
	msgs, err := svc.repo.ListMessages(ctx, c.ID, since)
	if err != nil {
		return nil, err
	}
	if len(msgs) == 0 {
		return []Message{}, nil
	}

	ids := make([]int64, len(msgs))
	idx := make(map[int64]int, len(msgs))
	for i, m := range msgs {
		ids[i] = m.ID
		idx[m.ID] = i
	}
	atts, err := svc.repo.ListAttachments(ctx, ids...)
	if err != nil {
		return nil, err
	}
	for _, a := range atts {
		a.URL = svc.blobs.URL(a.BlobKey)
		i := idx[a.MessageID]
		msgs[i].Attachments = append(msgs[i].Attachments, a)
	}
	return msgs, nil
}

// Attach uploads a file and posts it as an image or file message.
func (svc *Service) Attach(ctx context.Context, usr user.User, conversationID int64, r io.Reader, filename, contentType string, size int64) (Message, error) {
	if _, err := svc.Get(ctx, usr, conversationID); err != nil {
		return Message{}, err
	}
	key := attachmentsPrefix + time.Now().UTC().Format("2006/01/02/") + uuid.NewString() + strings.ToLower(path.Ext(filename))
	if err := svc.blobs.Put(ctx, key, r, contentType); err != nil {
		return Message{}, err
	}

	typ := TypeFile
	if strings.HasPrefix(contentType, "image/") {
		typ = TypeImage
	}
	msg, err := svc.send(ctx, usr, conversationID, path.Base(filename), typ)
	if err != nil {
		return Message{}, err
	}
	att, err := svc.repo.CreateAttachment(ctx, Attachment{
		MessageID:   msg.ID,
		BlobKey:     key,
		ContentType: contentType,
		Size:        size,
		UploadedAt:  msg.CreatedAt,
	})
	if err != nil {
		return Message{}, err
	}
	att.URL = svc.blobs.URL(key)
	msg.Attachments = []Attachment{att}
	return msg, nil
}
