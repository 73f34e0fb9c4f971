package agenda

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/janisrealty/janis/core"
)

const dateLayout = "2006-01-02"

type Event struct {
	ID              int64     `json:"id" db:"id"`
	EventTypeID     *int64    `json:"event_type_id" db:"event_type_id"`
	Title           string    `json:"title" db:"title"`
	Date            time.Time `json:"date" db:"date"`
	StartTime       string    `json:"start_time" db:"start_time"`
	EndTime         string    `json:"end_time" db:"end_time"`
	Detail          string    `json:"detail" db:"detail"`
	PropertyID      *int64    `json:"property_id" db:"property_id"`
	AssignedAgentID *int64    `json:"assigned_agent_id" db:"assigned_agent_id"`
	CreatedByID     *int64    `json:"created_by_id" db:"created_by_id"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
}

type EventInput struct {
	EventTypeID     *int64 `json:"event_type_id"`
	Title           string `json:"title" validate:"required,max=200"`
	Date            string `json:"date" validate:"required,datetime=2006-01-02"`
	StartTime       string `json:"start_time" validate:"required,clock_"`
	EndTime         string `json:"end_time" validate:"required,clock_"`
	Detail          string `json:"detail"`
	PropertyID      *int64 `json:"property_id"`
	AssignedAgentID *int64 `json:"assigned_agent_id"`
}

// Validate checks the fields of in. HH:MM times compare lexically.
func (in *EventInput) Validate(validate *validator.Validate) error {
	in.Title = core.CleanString(in.Title)
	in.StartTime = core.CleanString(in.StartTime)
	in.EndTime = core.CleanString(in.EndTime)
	if err := validate.Struct(in); err != nil {
		return err
	}
	if in.EndTime <= in.StartTime {
		return core.NewFieldError("end_time", "end time must be after start time")
	}
	return nil
}

func (in EventInput) apply(e *Event) {
	e.EventTypeID = in.EventTypeID
	e.Title = in.Title
	e.Date, _ = time.Parse(dateLayout, in.Date)
	e.StartTime = in.StartTime
	e.EndTime = in.EndTime
	e.Detail = in.Detail
	e.PropertyID = in.PropertyID
	e.AssignedAgentID = in.AssignedAgentID
}

type QueryFilter struct {
	From            string `query:"from"`
	To              string `query:"to"`
	AssignedAgentID *int64 `query:"agent"`
	PropertyID      *int64 `query:"property"`

	FromDate *time.Time `query:"-"`
	ToDate   *time.Time `query:"-"`
}

func (qf *QueryFilter) Clean() error {
	for _, d := range []struct {
		field string
		raw   string
		dst   **time.Time
	}{{"from", qf.From, &qf.FromDate}, {"to", qf.To, &qf.ToDate}} {
		if d.raw == "" {
			continue
		}
		t, err := time.Parse(dateLayout, d.raw)
		if err != nil {
			return core.NewFieldError(d.field, "invalid date, expected YYYY-MM-DD")
		}
		*d.dst = &t
	}
	return nil
}

// AgencyConfig is the singleton holding the agency's identity.
type AgencyConfig struct {
	TradeName    string    `json:"trade_name" db:"trade_name" validate:"max=200"`
	LegalName    string    `json:"legal_name" db:"legal_name" validate:"max=200"`
	RUC          string    `json:"ruc" db:"ruc" validate:"omitempty,len=11,numeric"`
	Address      string    `json:"address" db:"address" validate:"max=255"`
	Department   string    `json:"department" db:"department" validate:"max=100"`
	Province     string    `json:"province" db:"province" validate:"max=100"`
	District     string    `json:"district" db:"district" validate:"max=100"`
	Urbanization string    `json:"urbanization" db:"urbanization" validate:"max=100"`
	Phone        string    `json:"phone" db:"phone" validate:"omitempty,phone_"`
	Email        string    `json:"email" db:"email" validate:"omitempty,email"`
	LogoBlobKey  string    `json:"logo_blob_key" db:"logo_blob_key"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

func (ac *AgencyConfig) Validate(validate *validator.Validate) error {
	ac.TradeName = core.CleanString(ac.TradeName)
	ac.LegalName = core.CleanString(ac.LegalName)
	ac.RUC = core.CleanString(ac.RUC)
	ac.Phone = core.CleanString(ac.Phone)
	ac.Email = core.CleanString(ac.Email, true /* lower */)
	ac.Department = core.TitleCase(ac.Department)
	ac.Province = core.TitleCase(ac.Province)
	ac.District = core.TitleCase(ac.District)
	ac.Urbanization = core.TitleCase(ac.Urbanization)
	return validate.Struct(ac)
}
