package analytics

import (
	"fmt"
	"sort"
	"time"

	apperrors "wastelens/internal/errors"
	"wastelens/pkg/contracts/domain"
)

// All reductions in this file are deterministic and stable with respect
// to input order. Categorical keys are grouped as-is (case-sensitive, no
// normalization); rows with a missing key for the grouped dimension are
// dropped.

// metricValue resolves the accessor for a metric selection.
func metricValue(metric domain.Metric) (func(domain.WasteRecord) float64, error) {
	switch metric {
	case domain.MetricCost:
		return func(r domain.WasteRecord) float64 { return r.Cost }, nil
	case domain.MetricWeight:
		return func(r domain.WasteRecord) float64 { return r.Weight }, nil
	}
	return nil, apperrors.NewValidationError(fmt.Sprintf("unknown metric %q", metric))
}

// CostByDate sums cost per calendar date, ascending by date.
func CostByDate(ds domain.Dataset) []domain.DateValue {
	return sumByDate(ds.Records, func(r domain.WasteRecord) float64 { return r.Cost })
}

// WeightByDate sums weight per calendar date, ascending by date.
func WeightByDate(ds domain.Dataset) []domain.DateValue {
	return sumByDate(ds.Records, func(r domain.WasteRecord) float64 { return r.Weight })
}

// CO2ByDate sums estimated CO2 per calendar date, ascending by date.
func CO2ByDate(ds domain.Dataset) []domain.DateValue {
	return sumByDate(ds.Records, domain.WasteRecord.EstimatedCO2)
}

// MetricByDate sums the selected metric per calendar date. This is the
// series the forecast engine fits on.
func MetricByDate(ds domain.Dataset, metric domain.Metric) ([]domain.DateValue, error) {
	value, err := metricValue(metric)
	if err != nil {
		return nil, err
	}
	return sumByDate(ds.Records, value), nil
}

// LossReasonCounts counts rows per non-missing lossReason, descending by
// count, ties in first-seen order.
func LossReasonCounts(ds domain.Dataset) []domain.KeyCount {
	return countsBy(ds.Records, func(r domain.WasteRecord) string { return r.LossReason })
}

// DispositionCounts counts rows per non-missing disposition.
func DispositionCounts(ds domain.Dataset) []domain.KeyCount {
	return countsBy(ds.Records, func(r domain.WasteRecord) string { return r.Disposition })
}

// StageCounts counts rows per non-missing stage of processing.
func StageCounts(ds domain.Dataset) []domain.KeyCount {
	return countsBy(ds.Records, func(r domain.WasteRecord) string { return r.StageOfProcessing })
}

// CategoryTotals sums the selected metric per food item category,
// descending by value.
func CategoryTotals(ds domain.Dataset, metric domain.Metric) ([]domain.KeyValue, error) {
	value, err := metricValue(metric)
	if err != nil {
		return nil, err
	}
	return sumByKeyDesc(ds.Records, func(r domain.WasteRecord) string { return r.FoodItemCategory }, value), nil
}

// ItemTotals drills into one category and sums the selected metric per
// food item, descending by value.
func ItemTotals(ds domain.Dataset, category string, metric domain.Metric) ([]domain.KeyValue, error) {
	value, err := metricValue(metric)
	if err != nil {
		return nil, err
	}
	inCategory := make([]domain.WasteRecord, 0)
	for _, rec := range ds.Records {
		if rec.FoodItemCategory == category {
			inCategory = append(inCategory, rec)
		}
	}
	return sumByKeyDesc(inCategory, func(r domain.WasteRecord) string { return r.FoodItem }, value), nil
}

// CostByOperator sums cost per non-missing operator, descending by cost.
func CostByOperator(ds domain.Dataset) []domain.KeyValue {
	return sumByKeyDesc(ds.Records,
		func(r domain.WasteRecord) string { return r.Operator },
		func(r domain.WasteRecord) float64 { return r.Cost })
}

// CO2ByDisposition sums estimated CO2 per non-missing disposition,
// ascending by key.
func CO2ByDisposition(ds domain.Dataset) []domain.KeyValue {
	return sumByKeyAsc(ds.Records,
		func(r domain.WasteRecord) string { return r.Disposition },
		domain.WasteRecord.EstimatedCO2)
}

// Monthly sums cost and weight per month bucket, ordered by the bucket's
// chronological date rather than the display label, so Dec 2023 sorts
// before Jan 2024.
func Monthly(ds domain.Dataset) []domain.MonthlyTotals {
	type agg struct {
		cost, weight float64
		label        string
	}
	buckets := make(map[time.Time]*agg)
	order := make([]time.Time, 0)

	for _, rec := range ds.Records {
		a, ok := buckets[rec.MonthBucket]
		if !ok {
			a = &agg{label: rec.MonthLabel}
			buckets[rec.MonthBucket] = a
			order = append(order, rec.MonthBucket)
		}
		a.cost += rec.Cost
		a.weight += rec.Weight
	}

	sort.Slice(order, func(i, j int) bool { return order[i].Before(order[j]) })

	out := make([]domain.MonthlyTotals, 0, len(order))
	for _, bucket := range order {
		a := buckets[bucket]
		out = append(out, domain.MonthlyTotals{
			Bucket: bucket,
			Label:  a.label,
			Cost:   a.cost,
			Weight: a.weight,
		})
	}
	return out
}

// CostPerKgBySite computes Σcost/Σweight per non-missing site, or 0 for
// a site whose weight sum is 0. Ascending by site key.
func CostPerKgBySite(ds domain.Dataset) []domain.KeyValue {
	type agg struct{ cost, weight float64 }
	sites := make(map[string]*agg)

	for _, rec := range ds.Records {
		if rec.Site == "" {
			continue
		}
		a, ok := sites[rec.Site]
		if !ok {
			a = &agg{}
			sites[rec.Site] = a
		}
		a.cost += rec.Cost
		a.weight += rec.Weight
	}

	keys := make([]string, 0, len(sites))
	for k := range sites {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]domain.KeyValue, 0, len(keys))
	for _, k := range keys {
		a := sites[k]
		ratio := 0.0
		if a.weight > 0 {
			ratio = a.cost / a.weight
		}
		out = append(out, domain.KeyValue{Key: k, Value: ratio})
	}
	return out
}

// ScatterPoints extracts the cost-versus-weight points, one per record.
func ScatterPoints(ds domain.Dataset) []domain.CostWeightPoint {
	out := make([]domain.CostWeightPoint, 0, len(ds.Records))
	for _, rec := range ds.Records {
		out = append(out, domain.CostWeightPoint{
			Weight:     rec.Weight,
			Cost:       rec.Cost,
			LossReason: rec.LossReason,
		})
	}
	return out
}

// BuildReport assembles the KPI snapshot and every breakdown for one
// filtered view. The category drill-down defaults to the cost metric;
// item-level drill-down stays a separate call since it needs a selected
// category.
func BuildReport(ds domain.Dataset, spec domain.FilterSpec) domain.Report {
	categoryTotals, _ := CategoryTotals(ds, domain.MetricCost)
	return domain.Report{
		Filter:            spec,
		KPIs:              KPIs(ds),
		CostByDate:        CostByDate(ds),
		WeightByDate:      WeightByDate(ds),
		LossReasonCounts:  LossReasonCounts(ds),
		CategoryTotals:    categoryTotals,
		DispositionCounts: DispositionCounts(ds),
		StageCounts:       StageCounts(ds),
		Monthly:           Monthly(ds),
		CostPerKgBySite:   CostPerKgBySite(ds),
		CO2ByDate:         CO2ByDate(ds),
		CO2ByDisposition:  CO2ByDisposition(ds),
		CostByOperator:    CostByOperator(ds),
		ScatterPoints:     ScatterPoints(ds),
	}
}

func sumByDate(records []domain.WasteRecord, value func(domain.WasteRecord) float64) []domain.DateValue {
	sums := make(map[time.Time]float64)
	order := make([]time.Time, 0)

	for _, rec := range records {
		if _, seen := sums[rec.Date]; !seen {
			order = append(order, rec.Date)
		}
		sums[rec.Date] += value(rec)
	}

	sort.Slice(order, func(i, j int) bool { return order[i].Before(order[j]) })

	out := make([]domain.DateValue, 0, len(order))
	for _, d := range order {
		out = append(out, domain.DateValue{Date: d, Value: sums[d]})
	}
	return out
}

func countsBy(records []domain.WasteRecord, key func(domain.WasteRecord) string) []domain.KeyCount {
	counts := make(map[string]int)
	order := make([]string, 0)

	for _, rec := range records {
		k := key(rec)
		if k == "" {
			continue
		}
		if _, seen := counts[k]; !seen {
			order = append(order, k)
		}
		counts[k]++
	}

	out := make([]domain.KeyCount, 0, len(order))
	for _, k := range order {
		out = append(out, domain.KeyCount{Key: k, Count: counts[k]})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	return out
}

func sumByKeyDesc(records []domain.WasteRecord, key func(domain.WasteRecord) string, value func(domain.WasteRecord) float64) []domain.KeyValue {
	out := sumByKey(records, key, value)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Value > out[j].Value })
	return out
}

func sumByKeyAsc(records []domain.WasteRecord, key func(domain.WasteRecord) string, value func(domain.WasteRecord) float64) []domain.KeyValue {
	out := sumByKey(records, key, value)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

func sumByKey(records []domain.WasteRecord, key func(domain.WasteRecord) string, value func(domain.WasteRecord) float64) []domain.KeyValue {
	sums := make(map[string]float64)
	order := make([]string, 0)

	for _, rec := range records {
		k := key(rec)
		if k == "" {
			continue
		}
		if _, seen := sums[k]; !seen {
			order = append(order, k)
		}
		sums[k] += value(rec)
	}

	out := make([]domain.KeyValue, 0, len(order))
	for _, k := range order {
		out = append(out, domain.KeyValue{Key: k, Value: sums[k]})
	}
	return out
}
