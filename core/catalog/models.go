package catalog

import (
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/janisrealty/janis/core"
)

// Kind names a catalog.
type Kind string

const (
	KindWaterService      Kind = "water_service"
	KindEnergyService     Kind = "energy_service"
	KindDrainageService   Kind = "drainage_service"
	KindGasService        Kind = "gas_service"
	KindDepartment        Kind = "department"
	KindProvince          Kind = "province"
	KindDistrict          Kind = "district"
	KindUrbanization      Kind = "urbanization"
	KindDocumentType      Kind = "document_type"
	KindPropertyType      Kind = "property_type"
	KindPropertySubtype   Kind = "property_subtype"
	KindPropertyStatus    Kind = "property_status"
	KindCurrency          Kind = "currency"
	KindMeasurementUnit   Kind = "measurement_unit"
	KindGarageType        Kind = "garage_type"
	KindFloorType         Kind = "floor_type"
	KindRoomType          Kind = "room_type"
	KindLevelType         Kind = "level_type"
	KindProfession        Kind = "profession"
	KindTag               Kind = "tag"
	KindImageType         Kind = "image_type"
	KindVideoType         Kind = "video_type"
	KindNegotiationStatus Kind = "negotiation_status"
	KindPaymentMethod     Kind = "payment_method"
	KindFloorOption       Kind = "floor_option"
	KindZoningOption      Kind = "zoning_option"
	KindEventType         Kind = "event_type"
	KindLeadStatus        Kind = "lead_status"
	KindSocialNetwork     Kind = "social_network"
)

const DefaultTagColor = "#007bff"

// parentKinds maps hierarchical kinds to the kind of their parent.
var parentKinds = map[Kind]Kind{
	KindProvince:        KindDepartment,
	KindDistrict:        KindProvince,
	KindUrbanization:    KindDistrict,
	KindPropertySubtype: KindPropertyType,
}

var Kinds = []Kind{
	KindWaterService, KindEnergyService, KindDrainageService, KindGasService,
	KindDepartment, KindProvince, KindDistrict, KindUrbanization,
	KindDocumentType, KindPropertyType, KindPropertySubtype, KindPropertyStatus,
	KindCurrency, KindMeasurementUnit, KindGarageType, KindFloorType, KindRoomType, KindLevelType,
	KindProfession, KindTag, KindImageType, KindVideoType, KindNegotiationStatus, KindPaymentMethod,
	KindFloorOption, KindZoningOption, KindEventType, KindLeadStatus, KindSocialNetwork,
}

func (k Kind) Valid() bool {
	for _, kind := range Kinds {
		if k == kind {
			return true
		}
	}
	return false
}

// Parent returns the parent kind of hierarchical kinds.
func (k Kind) Parent() (Kind, bool) {
	p, ok := parentKinds[k]
	return p, ok
}

type Item struct {
	ID       int64  `json:"id" db:"id"`
	Kind     Kind   `json:"kind" db:"kind"`
	Name     string `json:"name" db:"name"`
	Code     string `json:"code,omitempty" db:"code"`
	Symbol   string `json:"symbol,omitempty" db:"symbol"`
	Color    string `json:"color,omitempty" db:"color"`
	Order    int    `json:"order" db:"sort_order"`
	ParentID *int64 `json:"parent_id,omitempty" db:"parent_id"`
	IsActive bool   `json:"is_active" db:"is_active"`
}

// NewItem contains information needed to create a catalog Item.
type NewItem struct {
	Name     string `json:"name" validate:"required,max=150"`
	Code     string `json:"code" validate:"max=20"`
	Symbol   string `json:"symbol" validate:"max=10"`
	Color    string `json:"color" validate:"omitempty,hexcolor_"`
	Order    int    `json:"order" validate:"min=0"`
	ParentID *int64 `json:"parent_id"`
}

func (ni *NewItem) Clean(kind Kind) {
	ni.Name = core.CleanString(ni.Name)
	ni.Code = strings.ToUpper(core.CleanString(ni.Code))
	ni.Symbol = core.CleanString(ni.Symbol)
	ni.Color = core.CleanString(ni.Color)
	if kind == KindTag && ni.Color == "" {
		ni.Color = DefaultTagColor
	}
}

func (ni *NewItem) Validate(validate *validator.Validate, kind Kind) error {
	ni.Clean(kind)
	return validate.Struct(ni)
}

// UpdateItem defines what may be modified on an existing Item.
type UpdateItem struct {
	Name     string  `json:"name" validate:"omitempty,max=150"`
	Code     *string `json:"code" validate:"omitempty,max=20"`
	Symbol   *string `json:"symbol" validate:"omitempty,max=10"`
	Color    *string `json:"color" validate:"omitempty,hexcolor_"`
	Order    *int    `json:"order" validate:"omitempty,min=0"`
	ParentID *int64  `json:"parent_id"`
	IsActive *bool   `json:"is_active"`
}

func (ui *UpdateItem) Validate(validate *validator.Validate) error {
	ui.Name = core.CleanString(ui.Name)
	return validate.Struct(ui)
}

type QueryFilter struct {
	ParentID *int64 `query:"parent"`
	All      bool   `query:"all"`
	Search   string `query:"search"`
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
}
