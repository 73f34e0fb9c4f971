package core

import "strings"

// DBOrdering sorts on one column. Field names are checked against an allow list before reaching SQL.
type DBOrdering struct {
	Field     string
	Ascending bool
}

func (ord DBOrdering) String() string {
	if ord.Ascending {
		return ord.Field + " ASC"
	}
	return ord.Field + " DESC"
}

// ParseOrderings reads a comma separated list like "-price,created_at". A leading "-" sorts descending.
func ParseOrderings(raw string) []DBOrdering {
	var out []DBOrdering
	for _, f := range strings.Split(raw, ",") {
		f = strings.TrimSpace(f)
		desc := strings.HasPrefix(f, "-")
		f = strings.TrimPrefix(f, "-")
		if f == "" {
			continue
		}
		out = append(out, DBOrdering{Field: f, Ascending: !desc})
	}
	return out
}

// AllowedOrderings drops orderings on fields that are not in `allowed`.
func AllowedOrderings(orderings []DBOrdering, allowed ...string) []DBOrdering {
	kept := make([]DBOrdering, 0, len(orderings))
	for _, ord := range orderings {
		for _, a := range allowed {
			if strings.EqualFold(ord.Field, a) {
				kept = append(kept, DBOrdering{Field: a, Ascending: ord.Ascending})
				break
			}
		}
	}
	return kept
}

// Page is an offset pagination window.
type Page struct {
	Limit  int
	Offset int
}

// Clamp applies def to a zero limit, bounds the limit to 1..max and the offset to >= 0.
func (p Page) Clamp(def, max int) Page {
	switch {
	case p.Limit == 0:
		p.Limit = def
	case p.Limit < 1:
		p.Limit = 1
	case p.Limit > max:
		p.Limit = max
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	return p
}
