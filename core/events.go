package core

// Event bus subjects
const (
	SubjectRequirementChanged = "requirement.changed"
	SubjectMatchStored        = "match.stored"
)

type (
	// EventHandler handles a JSON encoded event payload.
	EventHandler func(data []byte)

	EventBus interface {
		Publish(subject string, payload interface{}) error
		Subscribe(subject string, handler EventHandler) error
		Close() error
	}

	RequirementChanged struct {
		RequirementID int64  `json:"requirement_id"`
		CreatedByID   *int64 `json:"created_by_id,omitempty"`
		M2M           bool   `json:"m2m"`
	}

	MatchStored struct {
		MatchID       int64   `json:"match_id"`
		RequirementID int64   `json:"requirement_id"`
		PropertyID    int64   `json:"property_id"`
		Score         float64 `json:"score"`
	}
)
