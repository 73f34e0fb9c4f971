package device

import (
	"time"

	"github.com/janisrealty/janis/core"
)

type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusBlocked  Status = "blocked"
)

var Statuses = []Status{StatusPending, StatusApproved, StatusBlocked}

func (s Status) Valid() bool {
	for _, st := range Statuses {
		if s == st {
			return true
		}
	}
	return false
}

type Device struct {
	ID         int64     `json:"id" db:"id"`
	UserID     int64     `json:"user_id" db:"user_id"`
	DeviceID   string    `json:"device_id" db:"device_id"`
	Name       string    `json:"name" db:"name"`
	Platform   string    `json:"platform" db:"platform"`
	UserAgent  string    `json:"user_agent" db:"user_agent"`
	IP         string    `json:"ip" db:"ip"`
	Status     Status    `json:"status" db:"status"`
	IsTrusted  bool      `json:"is_trusted" db:"is_trusted"`
	LastSeenAt time.Time `json:"last_seen_at" db:"last_seen_at"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`

	// Username and Email are filled on listing.
	Username string `json:"username,omitempty" db:"-"`
	Email    string `json:"email,omitempty" db:"-"`
}

// Meta is what a client reports about itself when touching a device.
type Meta struct {
	DeviceID  string `json:"device_id" validate:"required,max=128"`
	Name      string `json:"name" validate:"max=120"`
	Platform  string `json:"platform" validate:"max=60"`
	UserAgent string `json:"-"`
	IP        string `json:"-"`
}

func (m *Meta) Clean() {
	m.DeviceID = core.CleanString(m.DeviceID)
	m.Name = core.CleanString(m.Name)
	m.Platform = core.CleanString(m.Platform)
}

type QueryFilter struct {
	Search string `query:"q"`
	Status Status `query:"status"`
}

type Counts struct {
	Pending  int `json:"pending"`
	Approved int `json:"approved"`
	Blocked  int `json:"blocked"`
}
