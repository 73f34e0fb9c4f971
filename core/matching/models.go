package matching

import (
	"time"

	"github.com/janisrealty/janis/core/property"
)

// Weight is a stored override of a criterion weight.
type Weight struct {
	Key    string  `json:"key" db:"key"`
	Weight float64 `json:"weight" db:"weight" validate:"min=0"`
}

// Result is a scored candidate listing.
type Result struct {
	Property property.Property `json:"property"`
	Score    float64           `json:"score"`
	Details  Details           `json:"details"`
}

// Match is a persisted Result.
type Match struct {
	ID            int64     `json:"id" db:"id"`
	RequirementID int64     `json:"requirement_id" db:"requirement_id"`
	PropertyID    int64     `json:"property_id" db:"property_id"`
	Score         float64   `json:"score" db:"score"`
	Details       Details   `json:"details" db:"details"`
	ComputedAt    time.Time `json:"computed_at" db:"computed_at"`
}

// Event records a positive outcome between a requirement and a listing.
type Event struct {
	ID            int64                  `json:"id" db:"id"`
	RequirementID int64                  `json:"requirement_id" db:"requirement_id"`
	PropertyID    int64                  `json:"property_id" db:"property_id"`
	Score         float64                `json:"score" db:"score"`
	Details       Details                `json:"details" db:"details"`
	Metadata      map[string]interface{} `json:"metadata" db:"metadata"`
	CreatedAt     time.Time              `json:"created_at" db:"created_at"`
}

// Alert tells a user a requirement they created got new matches.
type Alert struct {
	RequirementID int64   `json:"requirement_id"`
	PropertyID    int64   `json:"property_id"`
	Score         float64 `json:"score"`
}
