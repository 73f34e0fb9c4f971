package owner

import (
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/janisrealty/janis/core"
)

type Owner struct {
	ID                 int64      `json:"id" db:"id"`
	FirstName          string     `json:"first_name" db:"first_name"`
	LastName           string     `json:"last_name" db:"last_name"`
	MaternalLastName   string     `json:"maternal_last_name" db:"maternal_last_name"`
	Phone              string     `json:"phone" db:"phone"`
	SecondaryPhone     string     `json:"secondary_phone" db:"secondary_phone"`
	Email              string     `json:"email" db:"email"`
	DocumentTypeID     *int64     `json:"document_type_id" db:"document_type_id"`
	DocumentNumber     string     `json:"document_number" db:"document_number"`
	BirthDate          *time.Time `json:"birth_date" db:"birth_date"`
	Gender             string     `json:"gender" db:"gender"`
	ProfessionID       *int64     `json:"profession_id" db:"profession_id"`
	Company            string     `json:"company" db:"company"`
	Observations       string     `json:"observations" db:"observations"`
	DepartmentID       *int64     `json:"department_id" db:"department_id"`
	ProvinceID         *int64     `json:"province_id" db:"province_id"`
	DistrictID         *int64     `json:"district_id" db:"district_id"`
	UrbanizationID     *int64     `json:"urbanization_id" db:"urbanization_id"`
	AddressExact       string     `json:"address_exact" db:"address_exact"`
	AddressCoordinates string     `json:"address_coordinates" db:"address_coordinates"`
	TagIDs             []int64    `json:"tag_ids" db:"-"`
	CreatedByID        *int64     `json:"created_by_id" db:"created_by_id"`
	IsActive           bool       `json:"is_active" db:"is_active"`
	CreatedAt          time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at" db:"updated_at"`
}

func (o Owner) FullName() string {
	parts := []string{o.FirstName, o.LastName}
	if o.MaternalLastName != "" {
		parts = append(parts, o.MaternalLastName)
	}
	return strings.TrimSpace(strings.Join(parts, " "))
}

// Input carries the writable fields of an Owner.
type Input struct {
	FirstName          string     `json:"first_name" validate:"required,max=100"`
	LastName           string     `json:"last_name" validate:"required,max=100"`
	MaternalLastName   string     `json:"maternal_last_name" validate:"max=100"`
	Phone              string     `json:"phone" validate:"omitempty,phone_"`
	SecondaryPhone     string     `json:"secondary_phone" validate:"omitempty,phone_"`
	Email              string     `json:"email" validate:"omitempty,email"`
	DocumentTypeID     *int64     `json:"document_type_id"`
	DocumentNumber     string     `json:"document_number" validate:"max=20"`
	BirthDate          *time.Time `json:"birth_date"`
	Gender             string     `json:"gender" validate:"omitempty,oneof=M F O"`
	ProfessionID       *int64     `json:"profession_id"`
	Company            string     `json:"company" validate:"max=150"`
	Observations       string     `json:"observations"`
	DepartmentID       *int64     `json:"department_id"`
	ProvinceID         *int64     `json:"province_id"`
	DistrictID         *int64     `json:"district_id"`
	UrbanizationID     *int64     `json:"urbanization_id"`
	AddressExact       string     `json:"address_exact" validate:"max=255"`
	AddressCoordinates string     `json:"address_coordinates" validate:"max=100"`
	TagIDs             []int64    `json:"tag_ids"`
	IsActive           *bool      `json:"is_active"`
}

func (in *Input) Validate(validate *validator.Validate) error {
	in.FirstName = core.TitleCase(in.FirstName)
	in.LastName = core.TitleCase(in.LastName)
	in.MaternalLastName = core.TitleCase(in.MaternalLastName)
	in.Company = core.TitleCase(in.Company)
	in.Phone = core.CleanString(in.Phone)
	in.SecondaryPhone = core.CleanString(in.SecondaryPhone)
	in.Email = core.CleanString(in.Email, true /* lower */)
	in.DocumentNumber = core.CleanString(in.DocumentNumber)
	in.Gender = strings.ToUpper(core.CleanString(in.Gender))
	return validate.Struct(in)
}

func (in Input) apply(o *Owner) {
	o.FirstName = in.FirstName
	o.LastName = in.LastName
	o.MaternalLastName = in.MaternalLastName
	o.Phone = in.Phone
	o.SecondaryPhone = in.SecondaryPhone
	o.Email = in.Email
	o.DocumentTypeID = in.DocumentTypeID
	o.DocumentNumber = in.DocumentNumber
	o.BirthDate = in.BirthDate
	o.Gender = in.Gender
	o.ProfessionID = in.ProfessionID
	o.Company = in.Company
	o.Observations = in.Observations
	o.DepartmentID = in.DepartmentID
	o.ProvinceID = in.ProvinceID
	o.DistrictID = in.DistrictID
	o.UrbanizationID = in.UrbanizationID
	o.AddressExact = core.CleanString(in.AddressExact)
	o.AddressCoordinates = core.CleanString(in.AddressCoordinates)
	o.TagIDs = in.TagIDs
	if in.IsActive != nil {
		o.IsActive = *in.IsActive
	}
}

type QueryFilter struct {
	Search   string `query:"search"`
	IsActive *bool  `query:"is_active"`
}
