package domain

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// FilterSpec describes the subset of a dataset an aggregation should run
// over. A nil/empty selection set places no restriction on that dimension;
// a non-empty set keeps only rows whose value is a member, which drops
// rows with a missing value for that dimension. Zero StartDate/EndDate
// leave the corresponding bound open.
type FilterSpec struct {
	StartDate time.Time `json:"start_date,omitempty"`
	EndDate   time.Time `json:"end_date,omitempty"`
	Regions   []string  `json:"regions,omitempty"`
	Sites     []string  `json:"sites,omitempty"`
	Locations []string  `json:"locations,omitempty"`
	Operators []string  `json:"operators,omitempty"`
}

// Validate reports whether the spec is internally consistent. A start
// date after the end date is the one rejected configuration.
func (f FilterSpec) Validate() error {
	if !f.StartDate.IsZero() && !f.EndDate.IsZero() && f.StartDate.After(f.EndDate) {
		return fmt.Errorf("start date %s is after end date %s",
			f.StartDate.Format("2006-01-02"), f.EndDate.Format("2006-01-02"))
	}
	return nil
}

// IsZero reports whether the spec restricts nothing.
func (f FilterSpec) IsZero() bool {
	return f.StartDate.IsZero() && f.EndDate.IsZero() &&
		len(f.Regions) == 0 && len(f.Sites) == 0 &&
		len(f.Locations) == 0 && len(f.Operators) == 0
}

// Key returns a canonical encoding of the spec, stable across selection
// order, suitable for use in cache keys.
func (f FilterSpec) Key() string {
	var b strings.Builder
	if !f.StartDate.IsZero() {
		b.WriteString(f.StartDate.Format("2006-01-02"))
	}
	b.WriteByte('|')
	if !f.EndDate.IsZero() {
		b.WriteString(f.EndDate.Format("2006-01-02"))
	}
	for _, set := range [][]string{f.Regions, f.Sites, f.Locations, f.Operators} {
		b.WriteByte('|')
		sorted := append([]string(nil), set...)
		sort.Strings(sorted)
		b.WriteString(strings.Join(sorted, ","))
	}
	return b.String()
}
