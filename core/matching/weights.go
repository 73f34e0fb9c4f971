package matching

// Criterion keys
const (
	KeyPropertyType        = "property_type"
	KeyPropertySubtype     = "property_subtype"
	KeyDistrict            = "district"
	KeyCurrency            = "currency"
	KeyPrice               = "price"
	KeyPaymentMethod       = "payment_method"
	KeyPropertyStatus      = "property_status"
	KeyArea                = "area"
	KeyLandArea            = "land_area"
	KeyBuiltArea           = "built_area"
	KeyFrontMeasure        = "front_measure"
	KeyDepthMeasure        = "depth_measure"
	KeyBedrooms            = "bedrooms"
	KeyBathrooms           = "bathrooms"
	KeyHalfBathrooms       = "half_bathrooms"
	KeyGarageSpaces        = "garage_spaces"
	KeyGarageType          = "garage_type"
	KeyParkingCostIncluded = "parking_cost_included"
	KeyParkingCost         = "parking_cost"
	KeyAmenities           = "amenities"
	KeyTags                = "tags"
	KeyWaterService        = "water_service"
	KeyEnergyService       = "energy_service"
	KeyDrainageService     = "drainage_service"
	KeyGasService          = "gas_service"
	KeyIsProject           = "is_project"
	KeyProjectName         = "project_name"
	KeyUnitLocation        = "unit_location"
	KeyElevator            = "ascensor"
	KeyFloors              = "floors"
)

// Weights maps criterion keys to their weight.
type Weights map[string]float64

// DefaultWeights returns the weights used for keys without a stored override.
func DefaultWeights() Weights {
	return Weights{
		KeyPropertyType:        5,
		KeyPropertySubtype:     3,
		KeyDistrict:            5,
		KeyCurrency:            2,
		KeyPrice:               3,
		KeyPaymentMethod:       2,
		KeyPropertyStatus:      2,
		KeyArea:                2,
		KeyLandArea:            2,
		KeyBuiltArea:           2,
		KeyFrontMeasure:        1,
		KeyDepthMeasure:        1,
		KeyBedrooms:            1,
		KeyBathrooms:           1,
		KeyHalfBathrooms:       0.5,
		KeyGarageSpaces:        0.8,
		KeyGarageType:          0.5,
		KeyParkingCostIncluded: 0.5,
		KeyParkingCost:         0.5,
		KeyAmenities:           1,
		KeyTags:                1,
		KeyWaterService:        0.5,
		KeyEnergyService:       0.5,
		KeyDrainageService:     0.5,
		KeyGasService:          0.5,
		KeyIsProject:           0.5,
		KeyProjectName:         0.5,
		KeyUnitLocation:        0.5,
		KeyElevator:            0.5,
		KeyFloors:              0.5,
	}
}

// merge returns the defaults overridden by stored.
func merge(stored []Weight) Weights {
	w := DefaultWeights()
	for _, s := range stored {
		w[s.Key] = s.Weight
	}
	return w
}

// minWeight is the floor applied by feedback adjustments.
const minWeight = 0.1
