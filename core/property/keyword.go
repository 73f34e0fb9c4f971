package property

import (
	"encoding/json"
	"sort"
	"strconv"
	"strings"
)

// keyword weights per field
const (
	kwCode        = 10
	kwTitle       = 5
	kwAddress     = 3
	kwAmenities   = 2
	kwDescription = 1
)

type scoredProperty struct {
	prop  Property
	score int
}

func cleanKeywords(keywords []string) []string {
	kept := make([]string, 0, len(keywords))
	for _, k := range keywords {
		if k = strings.TrimSpace(k); k != "" {
			kept = append(kept, strings.ToLower(k))
		}
	}
	return kept
}

func keywordScore(p Property, keywords []string) int {
	code, title := strings.ToLower(p.Code), strings.ToLower(p.Title)
	addr, amen := strings.ToLower(p.ExactAddress), strings.ToLower(p.Amenities)
	desc := strings.ToLower(p.Description)

	score := 0
	for _, k := range keywords {
		if strings.Contains(code, k) {
			score += kwCode
		}
		if strings.Contains(title, k) {
			score += kwTitle
		}
		if strings.Contains(addr, k) {
			score += kwAddress
		}
		if strings.Contains(amen, k) {
			score += kwAmenities
		}
		if strings.Contains(desc, k) {
			score += kwDescription
		}
	}
	return score
}

// rankByKeywords keeps the props with a positive score, best first, at most limit of them.
func rankByKeywords(props []Property, keywords []string, limit int) []scoredProperty {
	var scored []scoredProperty
	for _, p := range props {
		if s := keywordScore(p, keywords); s > 0 {
			scored = append(scored, scoredProperty{prop: p, score: s})
		}
	}
	sort.SliceStable(scored, func(i, j int) bool { return scored[i].score > scored[j].score })
	if len(scored) > limit {
		scored = scored[:limit]
	}
	return scored
}

// KeywordQuery is the body of a public keyword match. It accepts {"keywords": [...], "user_ids": [...]},
// a bare list of keywords, and comma separated strings in place of either list.
type KeywordQuery struct {
	Keywords []string
	UserIDs  []int64
}

func (kq *KeywordQuery) UnmarshalJSON(data []byte) error {
	var list []interface{}
	if err := json.Unmarshal(data, &list); err == nil {
		kq.Keywords = toStrings(list)
		return nil
	}
	var obj struct {
		Keywords interface{} `json:"keywords"`
		UserIDs  interface{} `json:"user_ids"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	kq.Keywords = toStrings(obj.Keywords)
	for _, s := range toStrings(obj.UserIDs) {
		if id, err := strconv.ParseInt(s, 10, 64); err == nil {
			kq.UserIDs = append(kq.UserIDs, id)
		}
	}
	return nil
}

func toStrings(v interface{}) []string {
	var out []string
	switch x := v.(type) {
	case string:
		for _, s := range strings.Split(x, ",") {
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
		}
	case []interface{}:
		for _, e := range x {
			switch y := e.(type) {
			case string:
				out = append(out, y)
			case float64:
				out = append(out, strconv.FormatFloat(y, 'f', -1, 64))
			}
		}
	}
	return out
}
