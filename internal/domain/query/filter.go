// Package query builds equality-match filters from request parameters.
package query

import (
	"fmt"
	"net/url"

	"github.com/fieldops/trackapi/internal/domain"
)

// DefaultFields is the allow-list shared by personnel and vehicle records.
var DefaultFields = []string{"id", "name", "location", "status", "lastUpdate"}

// Condition requires a field to equal a value exactly.
type Condition struct {
	field string
	value string
}

// NewCondition validates and creates an equality Condition.
func NewCondition(field, value string) (Condition, error) {
	if field == "" {
		return Condition{}, fmt.Errorf("filter field is required")
	}
	if value == "" {
		return Condition{}, fmt.Errorf("match value is required for field %q", field)
	}
	return Condition{field: field, value: value}, nil
}

// Field returns the field name.
func (c Condition) Field() string { return c.field }

// Value returns the exact match value.
func (c Condition) Value() string { return c.value }

// Filter is a conjunction of equality conditions. The zero value matches everything.
type Filter struct {
	conditions []Condition
}

// NewFilter combines conditions with logical AND.
func NewFilter(conditions ...Condition) Filter {
	return Filter{conditions: conditions}
}

// Build keeps the allow-listed parameters that are present and non-empty.
// Repeated parameters contribute their first value. Anything else is ignored.
func Build(params url.Values, fields []string) Filter {
	var conds []Condition
	seen := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		if _, dup := seen[f]; dup {
			continue
		}
		seen[f] = struct{}{}

		cond, err := NewCondition(f, params.Get(f))
		if err != nil {
			continue
		}
		conds = append(conds, cond)
	}
	return Filter{conditions: conds}
}

// Conditions returns the conditions in allow-list order.
func (f Filter) Conditions() []Condition { return f.conditions }

// IsEmpty reports whether the filter has no conditions.
func (f Filter) IsEmpty() bool { return len(f.conditions) == 0 }

// Map returns the filter as field -> value.
func (f Filter) Map() map[string]string {
	m := make(map[string]string, len(f.conditions))
	for _, c := range f.conditions {
		m[c.field] = c.value
	}
	return m
}

// Matches reports whether rec satisfies every condition.
// Only string fields can match; no coercion is applied.
func (f Filter) Matches(rec domain.Record) bool {
	for _, c := range f.conditions {
		v, ok := rec.Get(c.field)
		if !ok || v != c.value {
			return false
		}
	}
	return true
}
