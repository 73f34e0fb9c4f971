package requirement

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/janisrealty/janis/core"
)

// Budget and area types
const (
	TypeApprox = "approx"
	TypeRange  = "range"
)

// Requirement describes what a buyer is looking for.
type Requirement struct {
	ID         int64  `json:"id" db:"id"`
	ClientName string `json:"client_name" db:"client_name"`
	Phone      string `json:"phone" db:"phone"`

	PropertyTypeID    *int64   `json:"property_type_id" db:"property_type_id"`
	PropertySubtypeID *int64   `json:"property_subtype_id" db:"property_subtype_id"`
	BudgetType        string   `json:"budget_type" db:"budget_type"`
	BudgetApprox      *float64 `json:"budget_approx" db:"budget_approx"`
	BudgetMin         *float64 `json:"budget_min" db:"budget_min"`
	BudgetMax         *float64 `json:"budget_max" db:"budget_max"`
	CurrencyID        *int64   `json:"currency_id" db:"currency_id"`
	PaymentMethodID   *int64   `json:"payment_method_id" db:"payment_method_id"`
	StatusID          *int64   `json:"status_id" db:"status_id"`

	DepartmentID   *int64  `json:"department_id" db:"department_id"`
	ProvinceID     *int64  `json:"province_id" db:"province_id"`
	DistrictID     *int64  `json:"district_id" db:"district_id"`
	DistrictIDs    []int64 `json:"district_ids" db:"-"`
	UrbanizationID *int64  `json:"urbanization_id" db:"urbanization_id"`

	Bedrooms          *int     `json:"bedrooms" db:"bedrooms"`
	Bathrooms         *int     `json:"bathrooms" db:"bathrooms"`
	HalfBathrooms     *int     `json:"half_bathrooms" db:"half_bathrooms"`
	Floors            *int     `json:"floors" db:"floors"`
	GarageSpaces      *int     `json:"garage_spaces" db:"garage_spaces"`
	GarageTypeID      *int64   `json:"garage_type_id" db:"garage_type_id"`
	PreferredFloorIDs []int64  `json:"preferred_floor_ids" db:"-"`
	ZoningIDs         []int64  `json:"zoning_ids" db:"-"`
	FrontType         string   `json:"front_type" db:"front_type"`
	FrontApprox       *float64 `json:"front_approx" db:"front_approx"`
	FrontMin          *float64 `json:"front_min" db:"front_min"`
	FrontMax          *float64 `json:"front_max" db:"front_max"`
	NumberOfFloors    *int     `json:"number_of_floors" db:"number_of_floors"`
	Elevator          string   `json:"ascensor" db:"elevator"`

	AreaType       string   `json:"area_type" db:"area_type"`
	LandAreaApprox *float64 `json:"land_area_approx" db:"land_area_approx"`
	LandAreaMin    *float64 `json:"land_area_min" db:"land_area_min"`
	LandAreaMax    *float64 `json:"land_area_max" db:"land_area_max"`

	ParkingCost         *float64 `json:"parking_cost" db:"parking_cost"`
	ParkingCostIncluded *bool    `json:"parking_cost_included" db:"parking_cost_included"`

	Amenities         string  `json:"amenities" db:"amenities"`
	TagIDs            []int64 `json:"tag_ids" db:"-"`
	WaterServiceID    *int64  `json:"water_service_id" db:"water_service_id"`
	EnergyServiceID   *int64  `json:"energy_service_id" db:"energy_service_id"`
	DrainageServiceID *int64  `json:"drainage_service_id" db:"drainage_service_id"`
	GasServiceID      *int64  `json:"gas_service_id" db:"gas_service_id"`

	IsProject    *bool   `json:"is_project" db:"is_project"`
	UnitLocation *string `json:"unit_location" db:"unit_location"`

	Notes           string    `json:"notes" db:"notes"`
	AssignedAgentID *int64    `json:"assigned_agent_id" db:"assigned_agent_id"`
	CreatedByID     *int64    `json:"created_by_id" db:"created_by_id"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time `json:"updated_at" db:"updated_at"`
}

// Links are the many-to-many relations of a Requirement.
type Links struct {
	DistrictIDs       []int64 `json:"district_ids"`
	PreferredFloorIDs []int64 `json:"preferred_floor_ids"`
	ZoningIDs         []int64 `json:"zoning_ids"`
	TagIDs            []int64 `json:"tag_ids"`
}

func (r Requirement) Links() Links {
	return Links{
		DistrictIDs:       r.DistrictIDs,
		PreferredFloorIDs: r.PreferredFloorIDs,
		ZoningIDs:         r.ZoningIDs,
		TagIDs:            r.TagIDs,
	}
}

// Input holds the writable scalar fields of a Requirement.
type Input struct {
	ClientName string `json:"client_name" validate:"required,max=150"`
	Phone      string `json:"phone" validate:"omitempty,phone_"`

	PropertyTypeID    *int64   `json:"property_type_id"`
	PropertySubtypeID *int64   `json:"property_subtype_id"`
	BudgetType        string   `json:"budget_type" validate:"omitempty,oneof=approx range"`
	BudgetApprox      *float64 `json:"budget_approx" validate:"omitempty,min=0"`
	BudgetMin         *float64 `json:"budget_min" validate:"omitempty,min=0"`
	BudgetMax         *float64 `json:"budget_max" validate:"omitempty,min=0"`
	CurrencyID        *int64   `json:"currency_id"`
	PaymentMethodID   *int64   `json:"payment_method_id"`
	StatusID          *int64   `json:"status_id"`

	DepartmentID   *int64 `json:"department_id"`
	ProvinceID     *int64 `json:"province_id"`
	DistrictID     *int64 `json:"district_id"`
	UrbanizationID *int64 `json:"urbanization_id"`

	Bedrooms       *int     `json:"bedrooms" validate:"omitempty,min=0"`
	Bathrooms      *int     `json:"bathrooms" validate:"omitempty,min=0"`
	HalfBathrooms  *int     `json:"half_bathrooms" validate:"omitempty,min=0"`
	Floors         *int     `json:"floors" validate:"omitempty,min=0"`
	GarageSpaces   *int     `json:"garage_spaces" validate:"omitempty,min=0"`
	GarageTypeID   *int64   `json:"garage_type_id"`
	FrontType      string   `json:"front_type" validate:"omitempty,oneof=approx range"`
	FrontApprox    *float64 `json:"front_approx" validate:"omitempty,min=0"`
	FrontMin       *float64 `json:"front_min" validate:"omitempty,min=0"`
	FrontMax       *float64 `json:"front_max" validate:"omitempty,min=0"`
	NumberOfFloors *int     `json:"number_of_floors" validate:"omitempty,min=1,max=5"`
	Elevator       string   `json:"ascensor" validate:"omitempty,oneof=yes no"`

	AreaType       string   `json:"area_type" validate:"omitempty,oneof=approx range"`
	LandAreaApprox *float64 `json:"land_area_approx" validate:"omitempty,min=0"`
	LandAreaMin    *float64 `json:"land_area_min" validate:"omitempty,min=0"`
	LandAreaMax    *float64 `json:"land_area_max" validate:"omitempty,min=0"`

	ParkingCost         *float64 `json:"parking_cost" validate:"omitempty,min=0"`
	ParkingCostIncluded *bool    `json:"parking_cost_included"`

	Amenities         string `json:"amenities"`
	WaterServiceID    *int64 `json:"water_service_id"`
	EnergyServiceID   *int64 `json:"energy_service_id"`
	DrainageServiceID *int64 `json:"drainage_service_id"`
	GasServiceID      *int64 `json:"gas_service_id"`

	IsProject    *bool   `json:"is_project"`
	UnitLocation *string `json:"unit_location" validate:"omitempty,max=100"`

	Notes           string `json:"notes"`
	AssignedAgentID *int64 `json:"assigned_agent_id"`

	Links *Links `json:"links"`
}

func (in *Input) Validate(validate *validator.Validate) error {
	in.ClientName = core.TitleCase(in.ClientName)
	in.Phone = core.CleanString(in.Phone)
	in.BudgetType = core.CleanString(in.BudgetType, true /* lower */)
	in.AreaType = core.CleanString(in.AreaType, true /* lower */)
	in.FrontType = core.CleanString(in.FrontType, true /* lower */)
	in.Elevator = core.CleanString(in.Elevator, true /* lower */)
	if err := validate.Struct(in); err != nil {
		return err
	}
	if in.BudgetType == TypeRange && in.BudgetMin != nil && in.BudgetMax != nil && *in.BudgetMin > *in.BudgetMax {
		return core.NewFieldError("budget_max", "must be greater than or equal to budget_min")
	}
	if in.AreaType == TypeRange && in.LandAreaMin != nil && in.LandAreaMax != nil && *in.LandAreaMin > *in.LandAreaMax {
		return core.NewFieldError("land_area_max", "must be greater than or equal to land_area_min")
	}
	return nil
}

func (in Input) apply(r *Requirement) {
	r.ClientName = in.ClientName
	r.Phone = in.Phone
	r.PropertyTypeID = in.PropertyTypeID
	r.PropertySubtypeID = in.PropertySubtypeID
	r.BudgetType = in.BudgetType
	if r.BudgetType == "" {
		r.BudgetType = TypeApprox
	}
	r.BudgetApprox = in.BudgetApprox
	r.BudgetMin = in.BudgetMin
	r.BudgetMax = in.BudgetMax
	r.CurrencyID = in.CurrencyID
	r.PaymentMethodID = in.PaymentMethodID
	r.StatusID = in.StatusID
	r.DepartmentID = in.DepartmentID
	r.ProvinceID = in.ProvinceID
	r.DistrictID = in.DistrictID
	r.UrbanizationID = in.UrbanizationID
	r.Bedrooms = in.Bedrooms
	r.Bathrooms = in.Bathrooms
	r.HalfBathrooms = in.HalfBathrooms
	r.Floors = in.Floors
	r.GarageSpaces = in.GarageSpaces
	r.GarageTypeID = in.GarageTypeID
	r.FrontType = in.FrontType
	r.FrontApprox = in.FrontApprox
	r.FrontMin = in.FrontMin
	r.FrontMax = in.FrontMax
	r.NumberOfFloors = in.NumberOfFloors
	r.Elevator = in.Elevator
	r.AreaType = in.AreaType
	if r.AreaType == "" {
		r.AreaType = TypeApprox
	}
	r.LandAreaApprox = in.LandAreaApprox
	r.LandAreaMin = in.LandAreaMin
	r.LandAreaMax = in.LandAreaMax
	r.ParkingCost = in.ParkingCost
	r.ParkingCostIncluded = in.ParkingCostIncluded
	r.Amenities = core.CleanString(in.Amenities)
	r.WaterServiceID = in.WaterServiceID
	r.EnergyServiceID = in.EnergyServiceID
	r.DrainageServiceID = in.DrainageServiceID
	r.GasServiceID = in.GasServiceID
	r.IsProject = in.IsProject
	r.UnitLocation = in.UnitLocation
	r.Notes = in.Notes
	r.AssignedAgentID = in.AssignedAgentID
	if in.Links != nil {
		in.Links.apply(r)
	}
}

func (l Links) apply(r *Requirement) {
	r.DistrictIDs = l.DistrictIDs
	r.PreferredFloorIDs = l.PreferredFloorIDs
	r.ZoningIDs = l.ZoningIDs
	r.TagIDs = l.TagIDs
}

type QueryFilter struct {
	Search          string `query:"search"`
	CreatedByID     *int64 `query:"created_by"`
	AssignedAgentID *int64 `query:"assigned_agent"`
}
