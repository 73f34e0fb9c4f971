package matching

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/janisrealty/janis/core/property"
	"github.com/janisrealty/janis/core/requirement"
)

// Detail is the contribution of one criterion to a score.
type Detail struct {
	Contrib float64 `json:"contrib"`
	Matched bool    `json:"matched"`
	Info    string  `json:"info"`
}

type Details map[string]Detail

// Subject is a requirement with the names of its districts resolved.
type Subject struct {
	requirement.Requirement
	// DistrictName is the name of Requirement.DistrictID.
	DistrictName string
	// DistrictNames are the names of Requirement.DistrictIDs.
	DistrictNames []string
}

// proximity scores how close v is to [min, max] in 0..1. Nil bounds are open.
func proximity(v float64, min, max *float64) float64 {
	below := func() float64 { return math.Max(0, 1-(*min-v)/(math.Abs(*min)+1)) }
	above := func() float64 { return math.Max(0, 1-(v-*max)/(math.Abs(*max)+1)) }
	switch {
	case min == nil && max == nil:
		return 1
	case min == nil:
		if v <= *max {
			return 1
		}
		return above()
	case max == nil:
		if v >= *min {
			return 1
		}
		return below()
	case v < *min:
		return below()
	case v > *max:
		return above()
	default:
		return 1
	}
}

func deref(f *float64) float64 {
	if f == nil {
		return 0
	}
	return *f
}

func nonZero(f *float64) bool { return f != nil && *f != 0 }

func intNonZero(i *int) bool { return i != nil && *i != 0 }

func sameID(a, b *int64) bool { return a != nil && b != nil && *a == *b }

func proxInfo(prox float64) string { return fmt.Sprintf("proximity:%.3f", prox) }

// tokens lowercases s and splits it on "," and ";" dropping blanks.
func tokens(s string) map[string]bool {
	set := map[string]bool{}
	for _, t := range strings.FieldsFunc(strings.ToLower(s), func(r rune) bool { return r == ',' || r == ';' }) {
		if t = strings.TrimSpace(t); t != "" {
			set[t] = true
		}
	}
	return set
}

func idSet(ids []int64) map[int64]bool {
	set := make(map[int64]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}

// districtMatch compares the text district of p with the requirement's district preference.
// A digit-only district is compared as an id.
func districtMatch(s Subject, p property.Property) (matched, byID bool) {
	pd := strings.TrimSpace(p.District)
	if pd == "" {
		return false, false
	}
	id, err := strconv.ParseInt(pd, 10, 64)
	isID := err == nil && strings.Trim(pd, "0123456789") == ""

	if s.DistrictID != nil {
		if isID {
			return id == *s.DistrictID, true
		}
		return strings.EqualFold(pd, strings.TrimSpace(s.DistrictName)), false
	}
	if len(s.DistrictIDs) > 0 {
		if isID {
			return idSet(s.DistrictIDs)[id], true
		}
		for _, n := range s.DistrictNames {
			if strings.EqualFold(pd, strings.TrimSpace(n)) {
				return true, false
			}
		}
	}
	return false, false
}

func (s Subject) hasDistrictPref() bool {
	return s.DistrictID != nil || len(s.DistrictIDs) > 0
}

// scorer accumulates weighted criteria.
type scorer struct {
	weights Weights
	total   float64
	acc     float64
	details Details
}

func (sc *scorer) add(key string, contrib float64, matched bool, info string) {
	sc.acc += contrib
	sc.details[key] = Detail{Contrib: contrib, Matched: matched, Info: info}
}

// weight registers the weight of key in the total and returns it.
func (sc *scorer) weight(key string) float64 {
	w := sc.weights[key]
	sc.total += w
	return w
}

func (sc *scorer) idCriterion(key string, req, prop *int64, okInfo string) {
	w := sc.weight(key)
	matched := req != nil && prop != nil && *req == *prop
	info := "no_match"
	switch {
	case matched:
		info = okInfo
	case req == nil:
		info = "no_pref"
	}
	contrib := 0.0
	if matched {
		contrib = w
	}
	sc.add(key, contrib, matched, info)
}

func (sc *scorer) countCriterion(key string, req *int, prop int) {
	w := sc.weight(key)
	if !intNonZero(req) {
		sc.add(key, w*0.5, false, "no_pref")
		return
	}
	diff := absInt(prop - *req)
	prox := math.Max(0, 1-float64(diff)/float64(*req+1))
	sc.add(key, w*prox, diff == 0, fmt.Sprintf("diff:%d", diff))
}

func (sc *scorer) setCriterion(key string, req, prop map[string]bool) {
	w := sc.weight(key)
	score := 0.5
	if len(req) > 0 {
		inter := 0
		for t := range req {
			if prop[t] {
				inter++
			}
		}
		score = float64(inter) / float64(len(req))
	}
	contrib := w * score
	if len(req) == 0 {
		sc.add(key, contrib, false, "no_pref")
		return
	}
	sc.add(key, contrib, contrib > 0, fmt.Sprintf("inter:%.3f", contrib))
}

func absInt(i int) int {
	if i < 0 {
		return -i
	}
	return i
}

func idTokens(ids []int64) map[string]bool {
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		set[strconv.FormatInt(id, 10)] = true
	}
	return set
}

// Score rates p against s in 0..100 with the given weights.
func Score(s Subject, p property.Property, weights Weights) (float64, Details) {
	sc := &scorer{weights: weights, details: Details{}}

	sc.idCriterion(KeyPropertyType, s.PropertyTypeID, p.PropertyTypeID, "id_match")
	sc.idCriterion(KeyPropertySubtype, s.PropertySubtypeID, p.PropertySubtypeID, "id_match")

	w := sc.weight(KeyDistrict)
	matched, byID := districtMatch(s, p)
	info := "no_match"
	switch {
	case !s.hasDistrictPref():
		info = "no_pref"
	case matched && byID:
		info = "id_match"
	case matched:
		info = "name_match"
	}
	contrib := 0.0
	if matched {
		contrib = w
	}
	sc.add(KeyDistrict, contrib, matched, info)

	sc.idCriterion(KeyCurrency, s.CurrencyID, p.CurrencyID, "id_match")
	sc.idCriterion(KeyPaymentMethod, s.PaymentMethodID, p.PaymentMethodID, "match")
	sc.idCriterion(KeyPropertyStatus, s.StatusID, p.StatusID, "match")

	// price
	w = sc.weight(KeyPrice)
	price := deref(p.Price)
	isRange := s.BudgetType == requirement.TypeRange
	var prox float64
	if isRange && s.BudgetMin != nil && s.BudgetMax != nil {
		prox = proximity(price, s.BudgetMin, s.BudgetMax)
	} else {
		t := deref(s.BudgetApprox)
		prox = proximity(price, &t, &t)
	}
	if isRange {
		matched = s.BudgetMin != nil && s.BudgetMax != nil && prox >= 0.99
	} else {
		matched = nonZero(s.BudgetApprox) && prox >= 0.99
	}
	info = "no_pref"
	if (isRange && (s.BudgetMin != nil || s.BudgetMax != nil)) || s.BudgetApprox != nil {
		info = proxInfo(prox)
	}
	sc.add(KeyPrice, w*prox, matched, info)

	// area, on the land area
	w = sc.weight(KeyArea)
	land := deref(p.LandArea)
	isRange = s.AreaType == requirement.TypeRange
	landRange := nonZero(s.LandAreaMin) && nonZero(s.LandAreaMax)
	if isRange && landRange {
		prox = proximity(land, s.LandAreaMin, s.LandAreaMax)
	} else {
		t := deref(s.LandAreaApprox)
		prox = proximity(land, &t, &t)
	}
	if isRange {
		matched = s.LandAreaMin != nil && s.LandAreaMax != nil && prox >= 0.99
	} else {
		matched = nonZero(s.LandAreaApprox) && prox >= 0.99
	}
	info = "no_pref"
	if (isRange && (s.LandAreaMin != nil || s.LandAreaMax != nil)) || s.LandAreaApprox != nil {
		info = proxInfo(prox)
	}
	sc.add(KeyArea, w*prox, matched, info)

	// land_area
	w = sc.weight(KeyLandArea)
	switch {
	case landRange:
		prox = proximity(land, s.LandAreaMin, s.LandAreaMax)
		matched = prox >= 0.99
	case nonZero(s.LandAreaApprox):
		prox = proximity(land, s.LandAreaApprox, s.LandAreaApprox)
		matched = prox >= 0.99
	default:
		prox, matched = 1, false
	}
	info = "no_pref"
	if nonZero(s.LandAreaMin) || nonZero(s.LandAreaApprox) {
		info = proxInfo(prox)
	}
	sc.add(KeyLandArea, w*prox, matched, info)

	// built_area, against the land area preference
	w = sc.weight(KeyBuiltArea)
	built := deref(p.BuiltArea)
	switch {
	case landRange:
		prox = proximity(built, s.LandAreaMin, s.LandAreaMax)
		sc.add(KeyBuiltArea, w*prox, prox >= 0.99, proxInfo(prox))
	case s.LandAreaApprox != nil:
		prox = proximity(built, s.LandAreaApprox, s.LandAreaApprox)
		sc.add(KeyBuiltArea, w*prox, prox >= 0.99, proxInfo(prox))
	default:
		sc.add(KeyBuiltArea, w*0.5, false, "no_pref")
	}

	sc.countCriterion(KeyBedrooms, s.Bedrooms, p.Bedrooms)
	sc.countCriterion(KeyBathrooms, s.Bathrooms, p.Bathrooms)
	sc.countCriterion(KeyHalfBathrooms, s.HalfBathrooms, p.HalfBathrooms)

	// garage_spaces
	w = sc.weight(KeyGarageSpaces)
	if s.GarageSpaces == nil {
		sc.add(KeyGarageSpaces, w*0.5, false, "no_pref")
	} else {
		req := *s.GarageSpaces
		diff := absInt(p.GarageSpaces - req)
		den := req
		if den == 0 {
			den = 1
		}
		gprox := math.Max(0, 1-float64(diff)/float64(den+1))
		info = "no_pref"
		if req != 0 {
			info = fmt.Sprintf("diff:%d", diff)
		}
		sc.add(KeyGarageSpaces, w*gprox, diff == 0, info)
	}

	sc.idCriterion(KeyGarageType, s.GarageTypeID, p.GarageTypeID, "match")

	// parking_cost_included
	w = sc.weight(KeyParkingCostIncluded)
	req, pf := s.ParkingCostIncluded, p.ParkingCostIncluded
	matched = req != nil && pf != nil && *req == *pf
	info = "no_match"
	switch {
	case matched:
		info = "match"
	case req == nil:
		info = "no_pref"
	}
	contrib = 0
	if matched {
		contrib = w
	}
	sc.add(KeyParkingCostIncluded, contrib, matched, info)

	// parking_cost
	w = sc.weight(KeyParkingCost)
	if s.ParkingCost != nil {
		prox = proximity(deref(p.ParkingCost), s.ParkingCost, s.ParkingCost)
		sc.add(KeyParkingCost, w*prox, prox >= 0.99, proxInfo(prox))
	} else {
		sc.add(KeyParkingCost, w*0.5, false, "no_pref")
	}

	sc.setCriterion(KeyAmenities, tokens(s.Amenities), tokens(p.Amenities))
	sc.setCriterion(KeyTags, idTokens(s.TagIDs), idTokens(p.TagIDs))

	sc.idCriterion(KeyWaterService, s.WaterServiceID, p.WaterServiceID, "match")
	sc.idCriterion(KeyEnergyService, s.EnergyServiceID, p.EnergyServiceID, "match")
	sc.idCriterion(KeyDrainageService, s.DrainageServiceID, p.DrainageServiceID, "match")
	sc.idCriterion(KeyGasService, s.GasServiceID, p.GasServiceID, "match")

	// is_project
	w = sc.weight(KeyIsProject)
	if s.IsProject != nil && *s.IsProject == p.IsProject {
		sc.add(KeyIsProject, w, true, "match")
	} else {
		sc.add(KeyIsProject, 0, false, "no_match")
	}

	// unit_location
	w = sc.weight(KeyUnitLocation)
	switch {
	case s.UnitLocation == nil:
		sc.add(KeyUnitLocation, w*0.5, false, "no_pref")
	case *s.UnitLocation == p.UnitLocation:
		sc.add(KeyUnitLocation, w, true, "match")
	default:
		sc.add(KeyUnitLocation, 0, false, "no_match")
	}

	// floors
	w = sc.weight(KeyFloors)
	if intNonZero(s.NumberOfFloors) {
		nf := *s.NumberOfFloors
		diff := absInt(p.Floors - nf)
		fprox := math.Max(0, 1-float64(diff)/float64(nf+1))
		sc.add(KeyFloors, w*fprox, diff == 0, fmt.Sprintf("prox:%.3f", fprox))
	} else {
		sc.add(KeyFloors, w*0.5, false, "no_pref")
	}

	total := sc.total
	if total <= 0 {
		total = 1
	}
	return math.Round(sc.acc/total*100*100) / 100, sc.details
}

// adjustments returns the weight deltas learned from a positive match between s and p.
func adjustments(s Subject, p property.Property) map[string]float64 {
	adj := map[string]float64{}

	if sameID(s.PropertyTypeID, p.PropertyTypeID) {
		adj[KeyPropertyType] = 0.05
	} else {
		adj[KeyPropertyType] = -0.01
	}

	if matched, _ := districtMatch(s, p); matched {
		adj[KeyDistrict] = 0.05
	} else {
		adj[KeyDistrict] = -0.01
	}

	var prox float64
	price := deref(p.Price)
	if s.BudgetType == requirement.TypeRange && nonZero(s.BudgetMin) && nonZero(s.BudgetMax) {
		prox = proximity(price, s.BudgetMin, s.BudgetMax)
	} else {
		t := deref(s.BudgetApprox)
		prox = proximity(price, &t, &t)
	}
	adj[KeyPrice] = 0.05*prox - 0.01*(1-prox)

	land := deref(p.LandArea)
	if s.AreaType == requirement.TypeRange && nonZero(s.LandAreaMin) && nonZero(s.LandAreaMax) {
		prox = proximity(land, s.LandAreaMin, s.LandAreaMax)
	} else {
		t := deref(s.LandAreaApprox)
		prox = proximity(land, &t, &t)
	}
	adj[KeyArea] = 0.03*prox - 0.005*(1-prox)

	step := func(req *int, prop int, hit, miss float64) float64 {
		diff := absInt(prop - *req)
		if diff == 0 {
			return hit
		}
		if diff > 5 {
			diff = 5
		}
		return -miss * float64(diff)
	}
	adj[KeyBedrooms] = 0
	if intNonZero(s.Bedrooms) {
		adj[KeyBedrooms] = step(s.Bedrooms, p.Bedrooms, 0.04, 0.01)
	}
	adj[KeyBathrooms] = 0
	if s.Bathrooms != nil {
		adj[KeyBathrooms] = step(s.Bathrooms, p.Bathrooms, 0.04, 0.01)
	}
	adj[KeyHalfBathrooms] = 0
	if s.HalfBathrooms != nil {
		adj[KeyHalfBathrooms] = step(s.HalfBathrooms, p.HalfBathrooms, 0.03, 0.005)
	}
	return adj
}
