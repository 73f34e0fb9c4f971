package property

import (
	"fmt"
	"reflect"
	"strconv"
	"time"
)

// untracked fields are never audited.
var untracked = map[string]bool{
	"id": true, "created_at": true, "updated_at": true,
	"wp_post_id": true, "wp_slug": true, "wp_last_sync": true,
}

// auditValue renders a scalar field value for the audit log. Nil pointers render as "".
func auditValue(v reflect.Value) string {
	if v.Kind() == reflect.Ptr {
		if v.IsNil() {
			return ""
		}
		v = v.Elem()
	}
	switch x := v.Interface().(type) {
	case time.Time:
		return x.UTC().Format(time.RFC3339)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	default:
		return fmt.Sprint(x)
	}
}

// diff returns one Change per scalar field that differs between old and new.
func diff(old, new Property, changedByID *int64, at time.Time) []Change {
	var changes []Change
	ov, nv := reflect.ValueOf(old), reflect.ValueOf(new)
	t := ov.Type()
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i).Tag.Get("db")
		if field == "" || field == "-" || untracked[field] {
			continue
		}
		if k := t.Field(i).Type.Kind(); k == reflect.Slice || k == reflect.Map {
			continue
		}
		before, after := auditValue(ov.Field(i)), auditValue(nv.Field(i))
		if before == after {
			continue
		}
		changes = append(changes, Change{
			PropertyID:  new.ID,
			Field:       field,
			OldValue:    before,
			NewValue:    after,
			ChangedByID: changedByID,
			ChangedAt:   at,
		})
	}
	return changes
}
