package chat

import (
	"time"
)

// Message types
const (
	TypeText   = "text"
	TypeImage  = "image"
	TypeFile   = "file"
	TypeSystem = "system"
)

type Conversation struct {
	ID             int64     `json:"id" db:"id"`
	Title          string    `json:"title" db:"title"`
	ParticipantIDs []int64   `json:"participant_ids" db:"-"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time `json:"updated_at" db:"updated_at"`
}

func (c Conversation) HasParticipant(userID int64) bool {
	for _, id := range c.ParticipantIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// Message keeps a snapshot of the sender's name and role.
type Message struct {
	ID             int64     `json:"id" db:"id"`
	ConversationID int64     `json:"conversation_id" db:"conversation_id"`
	SenderID       *int64    `json:"sender_id" db:"sender_id"`
	SenderName     string    `json:"sender_name" db:"sender_name"`
	SenderRole     string    `json:"sender_role" db:"sender_role"`
	Body           string    `json:"body" db:"body"`
	Type           string    `json:"message_type" db:"message_type"`
	IsRead         bool      `json:"is_read" db:"is_read"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`

	Attachments []Attachment `json:"attachments,omitempty" db:"-"`
}

type Attachment struct {
	ID          int64     `json:"id" db:"id"`
	MessageID   int64     `json:"message_id" db:"message_id"`
	BlobKey     string    `json:"-" db:"blob_key"`
	ContentType string    `json:"content_type" db:"content_type"`
	Size        int64     `json:"size" db:"size"`
	UploadedAt  time.Time `json:"uploaded_at" db:"uploaded_at"`
	URL         string    `json:"url" db:"-"`
}

type NewConversation struct {
	Title          string  `json:"title" validate:"max=255"`
	ParticipantIDs []int64 `json:"participant_ids"`
}

type NewMessage struct {
	Body string `json:"body" validate:"required"`
}
