package matching

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/janisrealty/janis/core"
	"github.com/janisrealty/janis/core/property"
	"github.com/janisrealty/janis/core/requirement"
)

func TestProximity(t *testing.T) {
	f := core.Float64Ptr
	tests := []struct {
		name     string
		v        float64
		min, max *float64
		want     float64
	}{
		{"no bounds", 5, nil, nil, 1},
		{"under max", 90, nil, f(100), 1},
		{"over max", 150, nil, f(100), 1 - 50.0/101},
		{"under min", 50, f(100), nil, 1 - 50.0/101},
		{"over min", 500, f(100), nil, 1},
		{"in range", 150, f(100), f(200), 1},
		{"above range", 250, f(100), f(200), 1 - 50.0/201},
		{"below range", 60, f(100), f(200), 1 - 40.0/101},
		{"approx zero value", 0, f(100), f(100), 1 - 100.0/101},
		{"far above", 1000, nil, f(10), 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, proximity(tt.v, tt.min, tt.max), 1e-9)
		})
	}
}

func perfectPair() (Subject, property.Property) {
	i64, f, i := core.Int64Ptr, core.Float64Ptr, core.IntPtr
	r := requirement.Requirement{
		ID:                  1,
		PropertyTypeID:      i64(1),
		PropertySubtypeID:   i64(2),
		DistrictID:          i64(10),
		CurrencyID:          i64(3),
		PaymentMethodID:     i64(4),
		StatusID:            i64(5),
		BudgetType:          requirement.TypeApprox,
		BudgetApprox:        f(100000),
		AreaType:            requirement.TypeApprox,
		LandAreaApprox:      f(120),
		Bedrooms:            i(3),
		Bathrooms:           i(2),
		HalfBathrooms:       i(1),
		GarageSpaces:        i(1),
		GarageTypeID:        i64(6),
		ParkingCostIncluded: core.BoolPtr(true),
		ParkingCost:         f(5000),
		Amenities:           "Piscina; gimnasio",
		TagIDs:              []int64{7},
		WaterServiceID:      i64(8),
		EnergyServiceID:     i64(9),
		DrainageServiceID:   i64(10),
		GasServiceID:        i64(11),
		IsProject:           core.BoolPtr(true),
		UnitLocation:        core.StringPtr("Vista exterior"),
		NumberOfFloors:      i(2),
	}
	p := property.Property{
		ID:                  7,
		PropertyTypeID:      i64(1),
		PropertySubtypeID:   i64(2),
		District:            "miraflores ",
		CurrencyID:          i64(3),
		PaymentMethodID:     i64(4),
		StatusID:            i64(5),
		Price:               f(100000),
		LandArea:            f(120),
		BuiltArea:           f(120),
		Bedrooms:            3,
		Bathrooms:           2,
		HalfBathrooms:       1,
		GarageSpaces:        1,
		GarageTypeID:        i64(6),
		ParkingCostIncluded: core.BoolPtr(true),
		ParkingCost:         f(5000),
		Amenities:           "gimnasio, piscina, terraza",
		TagIDs:              []int64{7, 12},
		WaterServiceID:      i64(8),
		EnergyServiceID:     i64(9),
		DrainageServiceID:   i64(10),
		GasServiceID:        i64(11),
		IsProject:           true,
		UnitLocation:        "Vista exterior",
		Floors:              2,
	}
	return Subject{Requirement: r, DistrictName: "Miraflores"}, p
}

func TestScorePerfectMatch(t *testing.T) {
	s, p := perfectPair()
	score, details := Score(s, p, DefaultWeights())
	assert.Equal(t, 100.0, score)

	for key, d := range details {
		assert.True(t, d.Matched, "criterion %s should match", key)
	}
	assert.Equal(t, "name_match", details[KeyDistrict].Info)
	assert.Equal(t, "id_match", details[KeyPropertyType].Info)
	assert.Equal(t, "match", details[KeyPaymentMethod].Info)
	assert.Equal(t, "diff:0", details[KeyBedrooms].Info)
	assert.Equal(t, "proximity:1.000", details[KeyPrice].Info)
	assert.Equal(t, "inter:1.000", details[KeyAmenities].Info)
	assert.Equal(t, "prox:1.000", details[KeyFloors].Info)
	assert.NotContains(t, details, KeyFrontMeasure)
	assert.NotContains(t, details, KeyElevator)
}

func TestScoreNoPreferences(t *testing.T) {
	score, details := Score(Subject{}, property.Property{}, DefaultWeights())

	// price, area and land_area score fully, the neutral criteria score half
	assert.InDelta(t, 11.4/38.3*100, score, 0.01)
	for _, key := range []string{KeyPropertyType, KeyDistrict, KeyPrice, KeyBedrooms, KeyGarageSpaces, KeyAmenities, KeyTags, KeyUnitLocation, KeyFloors, KeyBuiltArea} {
		assert.Equal(t, "no_pref", details[key].Info, key)
		assert.False(t, details[key].Matched, key)
	}
	assert.Equal(t, "no_match", details[KeyIsProject].Info)
	assert.Equal(t, 0.5, details[KeyBedrooms].Contrib)
	assert.Equal(t, 0.4, details[KeyGarageSpaces].Contrib)
}

func TestScoreDistrict(t *testing.T) {
	tests := []struct {
		name     string
		subject  Subject
		district string
		matched  bool
		info     string
	}{
		{"id as text", Subject{Requirement: requirement.Requirement{DistrictID: core.Int64Ptr(10)}, DistrictName: "Miraflores"}, "10", true, "id_match"},
		{"other id", Subject{Requirement: requirement.Requirement{DistrictID: core.Int64Ptr(10)}, DistrictName: "Miraflores"}, "11", false, "no_match"},
		{"list by name", Subject{Requirement: requirement.Requirement{DistrictIDs: []int64{3, 4}}, DistrictNames: []string{"Surco", "La Molina"}}, "la molina", true, "name_match"},
		{"list by id", Subject{Requirement: requirement.Requirement{DistrictIDs: []int64{3, 4}}}, "4", true, "id_match"},
		{"not listed", Subject{Requirement: requirement.Requirement{DistrictIDs: []int64{3}}, DistrictNames: []string{"Surco"}}, "Barranco", false, "no_match"},
		{"no preference", Subject{}, "Barranco", false, "no_pref"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, details := Score(tt.subject, property.Property{District: tt.district}, DefaultWeights())
			d := details[KeyDistrict]
			assert.Equal(t, tt.matched, d.Matched)
			assert.Equal(t, tt.info, d.Info)
			if tt.matched {
				assert.Equal(t, 5.0, d.Contrib)
			}
		})
	}
}

func TestScorePriceRange(t *testing.T) {
	f := core.Float64Ptr
	s := Subject{Requirement: requirement.Requirement{BudgetType: requirement.TypeRange, BudgetMin: f(100), BudgetMax: f(200)}}

	_, details := Score(s, property.Property{Price: f(150)}, DefaultWeights())
	assert.True(t, details[KeyPrice].Matched)
	assert.Equal(t, 3.0, details[KeyPrice].Contrib)

	_, details = Score(s, property.Property{Price: f(250)}, DefaultWeights())
	assert.False(t, details[KeyPrice].Matched)
	assert.InDelta(t, 3*(1-50.0/201), details[KeyPrice].Contrib, 1e-9)
	assert.Equal(t, "proximity:0.751", details[KeyPrice].Info)

	// a single bound falls back to the approx value
	s.BudgetMax = nil
	_, details = Score(s, property.Property{Price: f(150)}, DefaultWeights())
	assert.False(t, details[KeyPrice].Matched)
	assert.Equal(t, "proximity:0.000", details[KeyPrice].Info)
}

func TestScoreCounts(t *testing.T) {
	s := Subject{Requirement: requirement.Requirement{Bedrooms: core.IntPtr(3), GarageSpaces: core.IntPtr(0)}}
	_, details := Score(s, property.Property{Bedrooms: 1, GarageSpaces: 1}, DefaultWeights())

	assert.Equal(t, "diff:2", details[KeyBedrooms].Info)
	assert.InDelta(t, 0.5, details[KeyBedrooms].Contrib, 1e-9)
	assert.False(t, details[KeyBedrooms].Matched)

	assert.Equal(t, "no_pref", details[KeyGarageSpaces].Info)
	assert.InDelta(t, 0.8*0.5, details[KeyGarageSpaces].Contrib, 1e-9)
}

func TestScoreUsesStoredWeights(t *testing.T) {
	s, p := perfectPair()
	p.PropertyTypeID = core.Int64Ptr(99)

	w := merge([]Weight{{Key: KeyPropertyType, Weight: 0}})
	score, _ := Score(s, p, w)
	assert.Equal(t, 100.0, score)

	score, _ = Score(s, p, DefaultWeights())
	assert.Less(t, score, 100.0)
}

func TestAdjustments(t *testing.T) {
	s, p := perfectPair()
	adj := adjustments(s, p)
	assert.Equal(t, 0.05, adj[KeyPropertyType])
	assert.Equal(t, 0.05, adj[KeyDistrict])
	assert.InDelta(t, 0.05, adj[KeyPrice], 1e-9)
	assert.InDelta(t, 0.03, adj[KeyArea], 1e-9)
	assert.Equal(t, 0.04, adj[KeyBedrooms])
	assert.Equal(t, 0.04, adj[KeyBathrooms])
	assert.Equal(t, 0.03, adj[KeyHalfBathrooms])

	p.PropertyTypeID = nil
	p.District = "Surco"
	p.Bedrooms = 10
	p.HalfBathrooms = 3
	adj = adjustments(s, p)
	assert.Equal(t, -0.01, adj[KeyPropertyType])
	assert.Equal(t, -0.01, adj[KeyDistrict])
	assert.InDelta(t, -0.05, adj[KeyBedrooms], 1e-9)
	assert.InDelta(t, -0.01, adj[KeyHalfBathrooms], 1e-9)

	adj = adjustments(Subject{}, p)
	assert.Equal(t, 0.0, adj[KeyBedrooms])
	assert.Equal(t, 0.0, adj[KeyBathrooms])
	require.Contains(t, adj, KeyHalfBathrooms)
}
