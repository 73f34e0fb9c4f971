package property

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/janisrealty/janis/core"
)

type Image struct {
	ID           int64      `json:"id" db:"id"`
	PropertyID   int64      `json:"property_id" db:"property_id"`
	ImageTypeID  *int64     `json:"image_type_id" db:"image_type_id"`
	RoomTypeID   *int64     `json:"room_type_id" db:"room_type_id"`
	BlobKey      string     `json:"blob_key" db:"blob_key"`
	ContentType  string     `json:"content_type" db:"content_type"`
	Caption      string     `json:"caption" db:"caption"`
	Order        int        `json:"order" db:"sort_order"`
	IsPrimary    bool       `json:"is_primary" db:"is_primary"`
	UploadedByID *int64     `json:"uploaded_by_id" db:"uploaded_by_id"`
	UploadedAt   time.Time  `json:"uploaded_at" db:"uploaded_at"`
	WPMediaID    *int64     `json:"wp_media_id" db:"wp_media_id"`
	WPSourceURL  string     `json:"wp_source_url" db:"wp_source_url"`
	WPLastSync   *time.Time `json:"wp_last_sync" db:"wp_last_sync"`

	URL string `json:"url" db:"-"`
}

type ImageInput struct {
	ImageTypeID *int64 `json:"image_type_id" form:"image_type_id"`
	RoomTypeID  *int64 `json:"room_type_id" form:"room_type_id"`
	Caption     string `json:"caption" form:"caption" validate:"max=255"`
	Order       int    `json:"order" form:"order" validate:"min=0"`
	IsPrimary   bool   `json:"is_primary" form:"is_primary"`
}

func (in *ImageInput) Validate(validate *validator.Validate) error {
	in.Caption = core.TitleCase(in.Caption)
	return validate.Struct(in)
}

type Video struct {
	ID           int64     `json:"id" db:"id"`
	PropertyID   int64     `json:"property_id" db:"property_id"`
	VideoTypeID  *int64    `json:"video_type_id" db:"video_type_id"`
	BlobKey      string    `json:"blob_key" db:"blob_key"`
	Caption      string    `json:"caption" db:"caption"`
	UploadedByID *int64    `json:"uploaded_by_id" db:"uploaded_by_id"`
	UploadedAt   time.Time `json:"uploaded_at" db:"uploaded_at"`

	URL string `json:"url" db:"-"`
}

type VideoInput struct {
	VideoTypeID *int64 `json:"video_type_id" form:"video_type_id"`
	Caption     string `json:"caption" form:"caption" validate:"max=255"`
}

type Document struct {
	ID             int64      `json:"id" db:"id"`
	PropertyID     int64      `json:"property_id" db:"property_id"`
	DocumentTypeID *int64     `json:"document_type_id" db:"document_type_id"`
	BlobKey        string     `json:"blob_key" db:"blob_key"`
	Title          string     `json:"title" db:"title"`
	IsApproved     bool       `json:"is_approved" db:"is_approved"`
	ValidFrom      *time.Time `json:"valid_from" db:"valid_from"`
	ValidTo        *time.Time `json:"valid_to" db:"valid_to"`
	Notes          string     `json:"notes" db:"notes"`
	UploadedByID   *int64     `json:"uploaded_by_id" db:"uploaded_by_id"`
	UploadedAt     time.Time  `json:"uploaded_at" db:"uploaded_at"`

	URL string `json:"url" db:"-"`
}

type DocumentInput struct {
	DocumentTypeID *int64     `json:"document_type_id" form:"document_type_id"`
	Title          string     `json:"title" form:"title" validate:"max=255"`
	ValidFrom      *time.Time `json:"valid_from" form:"valid_from"`
	ValidTo        *time.Time `json:"valid_to" form:"valid_to" validate:"omitempty,gtefield=ValidFrom"`
	Notes          string     `json:"notes" form:"notes"`
}

type FinancialInfo struct {
	PropertyID           int64     `json:"property_id" db:"property_id"`
	InitialCommissionPct *float64  `json:"initial_commission_percentage" db:"initial_commission_pct" validate:"omitempty,min=0,max=100"`
	FinalCommissionPct   *float64  `json:"final_commission_percentage" db:"final_commission_pct" validate:"omitempty,min=0,max=100"`
	FinalAmount          *float64  `json:"final_amount" db:"final_amount" validate:"omitempty,min=0"`
	NegotiationStatusID  *int64    `json:"negotiation_status_id" db:"negotiation_status_id"`
	UpdatedAt            time.Time `json:"updated_at" db:"updated_at"`
}

type Room struct {
	ID          int64    `json:"id" db:"id"`
	PropertyID  int64    `json:"property_id" db:"property_id"`
	LevelID     *int64   `json:"level_id" db:"level_id"`
	RoomTypeID  *int64   `json:"room_type_id" db:"room_type_id"`
	Name        string   `json:"name" db:"name" validate:"max=100"`
	Width       *float64 `json:"width" db:"width" validate:"omitempty,min=0"`
	Length      *float64 `json:"length" db:"length" validate:"omitempty,min=0"`
	Area        *float64 `json:"area" db:"area" validate:"omitempty,min=0"`
	FloorTypeID *int64   `json:"floor_type_id" db:"floor_type_id"`
	Description string   `json:"description" db:"description"`
	Order       int      `json:"order" db:"sort_order" validate:"min=0"`
}

// clean title-cases the name and derives the area from width and length when unset.
func (r *Room) clean() {
	r.Name = core.TitleCase(r.Name)
	if r.Area == nil && r.Width != nil && r.Length != nil && *r.Width > 0 && *r.Length > 0 {
		a := *r.Width * *r.Length
		r.Area = &a
	}
}
