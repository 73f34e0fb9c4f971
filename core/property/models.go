package property

import (
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/janisrealty/janis/core"
)

type Availability string

const (
	AvailabilityAvailable   Availability = "available"
	AvailabilityReserved    Availability = "reserved"
	AvailabilitySold        Availability = "sold"
	AvailabilityUnavailable Availability = "unavailable"
	AvailabilityPaused      Availability = "paused"
)

const SourceRemax = "remax"

// Property is a listing.
type Property struct {
	ID         int64  `json:"id" db:"id"`
	Code       string `json:"code" db:"code"`
	UniqueCode string `json:"codigo_unico_propiedad" db:"unique_code"`

	Title             string     `json:"title" db:"title"`
	Description       string     `json:"description" db:"description"`
	OwnerID           *int64     `json:"owner_id" db:"owner_id"`
	PropertyTypeID    *int64     `json:"property_type_id" db:"property_type_id"`
	PropertySubtypeID *int64     `json:"property_subtype_id" db:"property_subtype_id"`
	StatusID          *int64     `json:"status_id" db:"status_id"`
	ResponsibleID     *int64     `json:"responsible_id" db:"responsible_id"`
	AntiquityYears    *int       `json:"antiquity_years" db:"antiquity_years"`
	DeliveryDate      *time.Time `json:"delivery_date" db:"delivery_date"`

	Price          *float64 `json:"price" db:"price"`
	CurrencyID     *int64   `json:"currency_id" db:"currency_id"`
	MaintenanceFee *float64 `json:"maintenance_fee" db:"maintenance_fee"`
	HasMaintenance bool     `json:"has_maintenance" db:"has_maintenance"`

	Floors         int      `json:"floors" db:"floors"`
	Bedrooms       int      `json:"bedrooms" db:"bedrooms"`
	Bathrooms      int      `json:"bathrooms" db:"bathrooms"`
	HalfBathrooms  int      `json:"half_bathrooms" db:"half_bathrooms"`
	GarageSpaces   int      `json:"garage_spaces" db:"garage_spaces"`
	GarageTypeID   *int64   `json:"garage_type_id" db:"garage_type_id"`
	LandArea       *float64 `json:"land_area" db:"land_area"`
	LandAreaUnitID *int64   `json:"land_area_unit_id" db:"land_area_unit_id"`
	BuiltArea      *float64 `json:"built_area" db:"built_area"`
	BuiltAreaUnit  *int64   `json:"built_area_unit_id" db:"built_area_unit_id"`
	FrontMeasure   *float64 `json:"front_measure" db:"front_measure"`
	DepthMeasure   *float64 `json:"depth_measure" db:"depth_measure"`

	RealAddress  string `json:"real_address" db:"real_address"`
	ExactAddress string `json:"exact_address" db:"exact_address"`
	Coordinates  string `json:"coordinates" db:"coordinates"`
	Department   string `json:"department" db:"department"`
	Province     string `json:"province" db:"province"`
	District     string `json:"district" db:"district"`
	Urbanization string `json:"urbanization" db:"urbanization"`

	WaterServiceID    *int64  `json:"water_service_id" db:"water_service_id"`
	EnergyServiceID   *int64  `json:"energy_service_id" db:"energy_service_id"`
	DrainageServiceID *int64  `json:"drainage_service_id" db:"drainage_service_id"`
	GasServiceID      *int64  `json:"gas_service_id" db:"gas_service_id"`
	Amenities         string  `json:"amenities" db:"amenities"`
	Zoning            string  `json:"zoning" db:"zoning"`
	TagIDs            []int64 `json:"tag_ids" db:"-"`

	CreatedByID        *int64       `json:"created_by_id" db:"created_by_id"`
	AssignedAgentID    *int64       `json:"assigned_agent_id" db:"assigned_agent_id"`
	IsActive           bool         `json:"is_active" db:"is_active"`
	IsReadyForSale     bool         `json:"is_ready_for_sale" db:"is_ready_for_sale"`
	IsDraft            bool         `json:"is_draft" db:"is_draft"`
	AvailabilityStatus Availability `json:"availability_status" db:"availability_status"`

	IsProject           bool     `json:"is_project" db:"is_project"`
	ProjectName         string   `json:"project_name" db:"project_name"`
	UnitLocation        string   `json:"unit_location" db:"unit_location"`
	ParkingCost         *float64 `json:"parking_cost" db:"parking_cost"`
	ParkingCostIncluded *bool    `json:"parking_cost_included" db:"parking_cost_included"`
	PaymentMethodID     *int64   `json:"forma_de_pago_id" db:"payment_method_id"`

	Source            string     `json:"source" db:"source"`
	SourceURL         string     `json:"source_url" db:"source_url"`
	SourcePublishedAt *time.Time `json:"source_published_at" db:"source_published_at"`

	WPPostID   *int64     `json:"wp_post_id" db:"wp_post_id"`
	WPSlug     string     `json:"wp_slug" db:"wp_slug"`
	WPLastSync *time.Time `json:"wp_last_sync" db:"wp_last_sync"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// LatLng parses Coordinates ("lat,lng").
func (p Property) LatLng() (lat, lng *float64) {
	latS, lngS, ok := strings.Cut(p.Coordinates, ",")
	if !ok {
		return nil, nil
	}
	la, err1 := strconv.ParseFloat(strings.TrimSpace(latS), 64)
	ln, err2 := strconv.ParseFloat(strings.TrimSpace(lngS), 64)
	if err1 != nil || err2 != nil {
		return nil, nil
	}
	return &la, &ln
}

// IsPublic reports whether p may be shown to anonymous visitors.
func (p Property) IsPublic() bool {
	return p.IsActive && !p.IsDraft
}

// syncActive derives IsActive from the availability status.
func (p *Property) syncActive(explicit *bool) {
	switch p.AvailabilityStatus {
	case AvailabilityUnavailable, AvailabilityPaused:
		p.IsActive = false
	default:
		p.IsActive = explicit == nil || *explicit
	}
}

func (p *Property) applyTitleCase() {
	p.Title = core.TitleCase(p.Title)
	p.Department = core.TitleCase(p.Department)
	p.Province = core.TitleCase(p.Province)
	p.District = core.TitleCase(p.District)
	p.Urbanization = core.TitleCase(p.Urbanization)
}

// View is a Property with the names of its relations resolved.
type View struct {
	Property
	Latitude        *float64 `json:"latitude"`
	Longitude       *float64 `json:"longitude"`
	CurrencySymbol  string   `json:"currency_symbol"`
	CurrencyCode    string   `json:"currency_code"`
	TypeName        string   `json:"property_type_name"`
	SubtypeName     string   `json:"property_subtype_name"`
	StatusName      string   `json:"status_name"`
	OwnerName       string   `json:"owner_name"`
	ResponsibleName string   `json:"responsible_name"`

	Images    []Image    `json:"images,omitempty"`
	Videos    []Video    `json:"videos,omitempty"`
	Documents []Document `json:"documents,omitempty"`
}

// Input holds the writable fields of a Property.
type Input struct {
	Code              string     `json:"code" validate:"max=20"`
	Title             string     `json:"title" validate:"required,max=200"`
	Description       string     `json:"description"`
	OwnerID           *int64     `json:"owner_id"`
	PropertyTypeID    *int64     `json:"property_type_id"`
	PropertySubtypeID *int64     `json:"property_subtype_id"`
	StatusID          *int64     `json:"status_id"`
	ResponsibleID     *int64     `json:"responsible_id"`
	AntiquityYears    *int       `json:"antiquity_years" validate:"omitempty,min=0"`
	DeliveryDate      *time.Time `json:"delivery_date"`

	Price          *float64 `json:"price" validate:"omitempty,min=0"`
	CurrencyID     *int64   `json:"currency_id"`
	MaintenanceFee *float64 `json:"maintenance_fee" validate:"omitempty,min=0"`
	HasMaintenance bool     `json:"has_maintenance"`

	Floors         int      `json:"floors" validate:"min=0"`
	Bedrooms       int      `json:"bedrooms" validate:"min=0"`
	Bathrooms      int      `json:"bathrooms" validate:"min=0"`
	HalfBathrooms  int      `json:"half_bathrooms" validate:"min=0"`
	GarageSpaces   int      `json:"garage_spaces" validate:"min=0"`
	GarageTypeID   *int64   `json:"garage_type_id"`
	LandArea       *float64 `json:"land_area" validate:"omitempty,min=0"`
	LandAreaUnitID *int64   `json:"land_area_unit_id"`
	BuiltArea      *float64 `json:"built_area" validate:"omitempty,min=0"`
	BuiltAreaUnit  *int64   `json:"built_area_unit_id"`
	FrontMeasure   *float64 `json:"front_measure" validate:"omitempty,min=0"`
	DepthMeasure   *float64 `json:"depth_measure" validate:"omitempty,min=0"`

	RealAddress  string `json:"real_address" validate:"max=255"`
	ExactAddress string `json:"exact_address" validate:"max=255"`
	Coordinates  string `json:"coordinates" validate:"max=100"`
	Department   string `json:"department" validate:"max=100"`
	Province     string `json:"province" validate:"max=100"`
	District     string `json:"district" validate:"max=100"`
	Urbanization string `json:"urbanization" validate:"max=100"`

	WaterServiceID    *int64  `json:"water_service_id"`
	EnergyServiceID   *int64  `json:"energy_service_id"`
	DrainageServiceID *int64  `json:"drainage_service_id"`
	GasServiceID      *int64  `json:"gas_service_id"`
	Amenities         string  `json:"amenities"`
	Zoning            string  `json:"zoning" validate:"max=100"`
	TagIDs            []int64 `json:"tag_ids"`

	AssignedAgentID    *int64       `json:"assigned_agent_id"`
	IsActive           *bool        `json:"is_active"`
	IsReadyForSale     bool         `json:"is_ready_for_sale"`
	IsDraft            bool         `json:"is_draft"`
	AvailabilityStatus Availability `json:"availability_status" validate:"omitempty,oneof=available reserved sold unavailable paused"`

	IsProject           bool     `json:"is_project"`
	ProjectName         string   `json:"project_name" validate:"max=200"`
	UnitLocation        string   `json:"unit_location" validate:"max=100"`
	ParkingCost         *float64 `json:"parking_cost" validate:"omitempty,min=0"`
	ParkingCostIncluded *bool    `json:"parking_cost_included"`
	PaymentMethodID     *int64   `json:"forma_de_pago_id"`

	Source            string     `json:"source" validate:"max=50"`
	SourceURL         string     `json:"source_url" validate:"omitempty,url"`
	SourcePublishedAt *time.Time `json:"source_published_at"`
}

func (in *Input) Validate(validate *validator.Validate) error {
	in.Code = strings.ToUpper(core.CleanString(in.Code))
	in.Title = core.CleanString(in.Title)
	in.Coordinates = strings.ReplaceAll(core.CleanString(in.Coordinates), " ", "")
	in.AvailabilityStatus = Availability(core.CleanString(string(in.AvailabilityStatus), true /* lower */))
	in.Source = core.CleanString(in.Source, true /* lower */)
	return validate.Struct(in)
}

func (in Input) apply(p *Property) {
	if in.Code != "" {
		p.Code = in.Code
	}
	p.Title = in.Title
	p.Description = in.Description
	p.OwnerID = in.OwnerID
	p.PropertyTypeID = in.PropertyTypeID
	p.PropertySubtypeID = in.PropertySubtypeID
	p.StatusID = in.StatusID
	if in.ResponsibleID != nil {
		p.ResponsibleID = in.ResponsibleID
	}
	p.AntiquityYears = in.AntiquityYears
	p.DeliveryDate = in.DeliveryDate
	p.Price = in.Price
	p.CurrencyID = in.CurrencyID
	p.MaintenanceFee = in.MaintenanceFee
	p.HasMaintenance = in.HasMaintenance
	p.Floors = in.Floors
	if p.Floors == 0 {
		p.Floors = 1
	}
	p.Bedrooms = in.Bedrooms
	p.Bathrooms = in.Bathrooms
	p.HalfBathrooms = in.HalfBathrooms
	p.GarageSpaces = in.GarageSpaces
	p.GarageTypeID = in.GarageTypeID
	p.LandArea = in.LandArea
	p.LandAreaUnitID = in.LandAreaUnitID
	p.BuiltArea = in.BuiltArea
	p.BuiltAreaUnit = in.BuiltAreaUnit
	p.FrontMeasure = in.FrontMeasure
	p.DepthMeasure = in.DepthMeasure
	p.RealAddress = core.CleanString(in.RealAddress)
	p.ExactAddress = core.CleanString(in.ExactAddress)
	p.Coordinates = in.Coordinates
	p.Department = in.Department
	p.Province = in.Province
	p.District = in.District
	p.Urbanization = in.Urbanization
	p.WaterServiceID = in.WaterServiceID
	p.EnergyServiceID = in.EnergyServiceID
	p.DrainageServiceID = in.DrainageServiceID
	p.GasServiceID = in.GasServiceID
	p.Amenities = core.CleanString(in.Amenities)
	p.Zoning = core.CleanString(in.Zoning)
	p.TagIDs = in.TagIDs
	p.AssignedAgentID = in.AssignedAgentID
	p.IsReadyForSale = in.IsReadyForSale
	p.IsDraft = in.IsDraft
	if in.AvailabilityStatus != "" {
		p.AvailabilityStatus = in.AvailabilityStatus
	} else if p.AvailabilityStatus == "" {
		p.AvailabilityStatus = AvailabilityAvailable
	}
	p.IsProject = in.IsProject
	p.ProjectName = core.CleanString(in.ProjectName)
	p.UnitLocation = core.CleanString(in.UnitLocation)
	p.ParkingCost = in.ParkingCost
	p.ParkingCostIncluded = in.ParkingCostIncluded
	p.PaymentMethodID = in.PaymentMethodID
	if in.Source != "" {
		p.Source = in.Source
	}
	if in.SourceURL != "" {
		p.SourceURL = in.SourceURL
	}
	if in.SourcePublishedAt != nil {
		p.SourcePublishedAt = in.SourcePublishedAt
	}
	p.syncActive(in.IsActive)
	p.applyTitleCase()
}

// QueryFilter filters listings. The visibility fields are set by the service from the acting user.
type QueryFilter struct {
	Search         string   `query:"search"`
	Province       string   `query:"province"`
	District       string   `query:"district"`
	PropertyTypeID *int64   `query:"property_type"`
	StatusID       *int64   `query:"status"`
	CurrencyID     *int64   `query:"currency"`
	ResponsibleID  *int64   `query:"responsible"`
	IsActive       *bool    `query:"is_active"`
	IsDraft        *bool    `query:"is_draft"`
	Source         string   `query:"source"`
	MinPrice       *float64 `query:"min_price"`
	MaxPrice       *float64 `query:"max_price"`

	// PublicOnly keeps active non-draft listings.
	PublicOnly bool `query:"-"`
	// VisibleTo keeps active non-drafts plus the drafts the user is responsible for.
	VisibleTo *int64 `query:"-"`
	// MineOf keeps the non-drafts the user is responsible for.
	MineOf       *int64   `query:"-"`
	CreatedByIDs []int64  `query:"-"`
	Codes        []string `query:"-"`
	Limit        int      `query:"-"`
}

// Change is one audited field modification.
type Change struct {
	ID          int64     `json:"id" db:"id"`
	PropertyID  int64     `json:"property_id" db:"property_id"`
	Field       string    `json:"field" db:"field"`
	OldValue    string    `json:"old_value" db:"old_value"`
	NewValue    string    `json:"new_value" db:"new_value"`
	ChangedByID *int64    `json:"changed_by_id" db:"changed_by_id"`
	ChangedAt   time.Time `json:"changed_at" db:"changed_at"`
}

// KeywordMatch is a public listing scored against keywords.
type KeywordMatch struct {
	View
	MatchScore int `json:"match_score"`
}
