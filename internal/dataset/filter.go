package dataset

import (
	apperrors "wastelens/internal/errors"
	"wastelens/pkg/contracts/domain"
)

// Apply evaluates a FilterSpec against a dataset and returns a new view.
// The source dataset is never mutated. Predicates are independent and
// commutative: the date range keeps rows inside [start,end] inclusive,
// and each non-empty selection set keeps rows whose value is a member,
// which drops rows missing a value for that dimension. An empty set
// places no restriction.
func Apply(ds domain.Dataset, spec domain.FilterSpec) (domain.Dataset, error) {
	if err := spec.Validate(); err != nil {
		return domain.Dataset{}, apperrors.NewValidationError(err.Error())
	}
	if spec.IsZero() {
		return ds, nil
	}

	regions := toSet(spec.Regions)
	sites := toSet(spec.Sites)
	locations := toSet(spec.Locations)
	operators := toSet(spec.Operators)

	out := make([]domain.WasteRecord, 0, len(ds.Records))
	for _, rec := range ds.Records {
		if !spec.StartDate.IsZero() && rec.Date.Before(spec.StartDate) {
			continue
		}
		if !spec.EndDate.IsZero() && rec.Date.After(spec.EndDate) {
			continue
		}
		if !member(regions, rec.Region) {
			continue
		}
		if !member(sites, rec.Site) {
			continue
		}
		if !member(locations, rec.Location) {
			continue
		}
		if !member(operators, rec.Operator) {
			continue
		}
		out = append(out, rec)
	}

	return ds.WithRecords(out), nil
}

// Dimensions returns the distinct non-missing values per filterable
// dimension of a view, in first-seen record order. Callers building
// filter controls typically pass an already date-filtered dataset.
func Dimensions(ds domain.Dataset) domain.DimensionCatalog {
	return domain.DimensionCatalog{
		Regions:   distinct(ds.Records, func(r domain.WasteRecord) string { return r.Region }),
		Sites:     distinct(ds.Records, func(r domain.WasteRecord) string { return r.Site }),
		Locations: distinct(ds.Records, func(r domain.WasteRecord) string { return r.Location }),
		Operators: distinct(ds.Records, func(r domain.WasteRecord) string { return r.Operator }),
	}
}

func toSet(values []string) map[string]struct{} {
	if len(values) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}

// member reports whether value passes a selection set. A nil set means
// the dimension is unrestricted; a missing value never passes a
// non-empty set.
func member(set map[string]struct{}, value string) bool {
	if set == nil {
		return true
	}
	if value == "" {
		return false
	}
	_, ok := set[value]
	return ok
}

func distinct(records []domain.WasteRecord, key func(domain.WasteRecord) string) []string {
	seen := make(map[string]struct{})
	out := make([]string, 0)
	for _, rec := range records {
		v := key(rec)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
