package task

import (
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/janisrealty/janis/core"
)

// Statuses
const (
	StatusPending    = "pending"
	StatusInProgress = "in_progress"
	StatusDone       = "done"
)

const DefaultColor = "#047D7D"

var Statuses = []string{StatusPending, StatusInProgress, StatusDone}

func validStatus(s string) bool {
	for _, st := range Statuses {
		if s == st {
			return true
		}
	}
	return false
}

type Task struct {
	ID           int64     `json:"id" db:"id"`
	Title        string    `json:"title" db:"title"`
	Description  string    `json:"description" db:"description"`
	AssignedToID *int64    `json:"assigned_to_id" db:"assigned_to_id"`
	Status       string    `json:"status" db:"status"`
	Color        string    `json:"color" db:"color"`
	CreatedByID  int64     `json:"created_by_id" db:"created_by_id"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`

	Comments []Comment `json:"comments,omitempty" db:"-"`
}

type Comment struct {
	ID        int64     `json:"id" db:"id"`
	TaskID    int64     `json:"task_id" db:"task_id"`
	UserID    int64     `json:"user_id" db:"user_id"`
	Content   string    `json:"content" db:"content"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

type Input struct {
	Title        string `json:"title" validate:"required,max=200"`
	Description  string `json:"description"`
	AssignedToID *int64 `json:"assigned_to_id"`
	Color        string `json:"color" validate:"omitempty,hexcolor_"`
}

func (in *Input) Validate(validate *validator.Validate) error {
	in.Title = core.CleanString(in.Title)
	in.Color = core.CleanString(in.Color)
	if in.Color == "" {
		in.Color = DefaultColor
	}
	return validate.Struct(in)
}

type StatusUpdate struct {
	Status string `json:"status" validate:"required,task_status"`
}

func (su *StatusUpdate) Validate(validate *validator.Validate) error {
	su.Status = strings.ToLower(core.CleanString(su.Status))
	return validate.Struct(su)
}

type NewComment struct {
	Content string `json:"content" validate:"required"`
}

// Board groups tasks by status.
type Board struct {
	Pending    []Task `json:"pending"`
	InProgress []Task `json:"in_progress"`
	Done       []Task `json:"done"`
}
