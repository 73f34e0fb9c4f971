package notification

import "time"

// Event types
const (
	EventPropertyMatched = "PROPERTY_MATCHED"
)

// Source types
const (
	SourceRequirementMatch = "requirement_match"
)

const (
	DefaultLimit = 20
	MaxLimit     = 100

	propertyMatchedMinScore = 50.0
	propertyMatchedTitle    = "MATCH CON TU PROPIEDAD"
)

type Notification struct {
	ID         int64                  `json:"id" db:"id"`
	UserID     int64                  `json:"user_id" db:"user_id"`
	EventType  string                 `json:"event_type" db:"event_type"`
	Title      string                 `json:"title" db:"title"`
	Body       string                 `json:"message" db:"body"`
	SourceType string                 `json:"source_type" db:"source_type"`
	ObjectID   int64                  `json:"object_id" db:"object_id"`
	Data       map[string]interface{} `json:"data" db:"data"`
	IsRead     bool                   `json:"is_read" db:"is_read"`
	CreatedAt  time.Time              `json:"created_at" db:"created_at"`
}

// Page is a window of a user's notifications.
type Page struct {
	Results     []Notification `json:"results"`
	Total       int            `json:"total"`
	UnreadCount int            `json:"unread_count"`
	Limit       int            `json:"limit"`
	Offset      int            `json:"offset"`
}

type MarkResult struct {
	OK      bool `json:"ok"`
	Updated int  `json:"updated"`
}
