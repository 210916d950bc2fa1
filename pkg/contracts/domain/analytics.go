package domain

import (
	"time"
)

// KPISnapshot holds the scalar summary metrics for a filtered view.
// All fields are zero-safe: an empty view yields zeros and the "N/A"
// loss-reason sentinel, never NaN or a division error.
type KPISnapshot struct {
	TotalCost      float64 `json:"total_cost"`
	TotalWeight    float64 `json:"total_weight"`
	AvgCostPerKg   float64 `json:"avg_cost_per_kg"`
	TopLossReason  string  `json:"top_loss_reason"`
	PreConsumerPct float64 `json:"pre_consumer_pct"`
	RecordCount    int     `json:"record_count"`
	Currency       string  `json:"currency"`
}

// TopLossReasonNA is returned when every lossReason value is missing.
const TopLossReasonNA = "N/A"

// DateValue is one point of a per-date aggregate (sum of a metric on a
// calendar date).
type DateValue struct {
	Date  time.Time `json:"date"`
	Value float64   `json:"value"`
}

// KeyValue is one row of a categorical value table (sum of a metric per
// category key).
type KeyValue struct {
	Key   string  `json:"key"`
	Value float64 `json:"value"`
}

// KeyCount is one row of a categorical count table.
type KeyCount struct {
	Key   string `json:"key"`
	Count int    `json:"count"`
}

// MonthlyTotals is one row of the monthly comparison table, ordered by
// the chronological bucket date rather than the display label.
type MonthlyTotals struct {
	Bucket time.Time `json:"bucket"`
	Label  string    `json:"label"`
	Cost   float64   `json:"cost"`
	Weight float64   `json:"weight"`
}

// CostWeightPoint is one row of the cost-versus-weight scatter extract.
type CostWeightPoint struct {
	Weight     float64 `json:"weight"`
	Cost       float64 `json:"cost"`
	LossReason string  `json:"loss_reason,omitempty"`
}

// Metric selects which measure a value table or forecast is computed over.
type Metric string

const (
	MetricCost   Metric = "cost"
	MetricWeight Metric = "weight"
)

// Valid reports whether the metric is one of the recognized measures.
func (m Metric) Valid() bool {
	return m == MetricCost || m == MetricWeight
}

// DimensionCatalog lists the distinct non-missing values available per
// filterable dimension of a view, in first-seen record order.
type DimensionCatalog struct {
	Regions   []string `json:"regions"`
	Sites     []string `json:"sites"`
	Locations []string `json:"locations"`
	Operators []string `json:"operators"`
}

// Report bundles the KPI snapshot with every breakdown table computed
// from one filtered view, so a dashboard renders from a single payload.
type Report struct {
	Filter            FilterSpec        `json:"filter"`
	KPIs              KPISnapshot       `json:"kpis"`
	CostByDate        []DateValue       `json:"cost_by_date"`
	WeightByDate      []DateValue       `json:"weight_by_date"`
	LossReasonCounts  []KeyCount        `json:"loss_reason_counts"`
	CategoryTotals    []KeyValue        `json:"category_totals"`
	DispositionCounts []KeyCount        `json:"disposition_counts"`
	StageCounts       []KeyCount        `json:"stage_counts"`
	Monthly           []MonthlyTotals   `json:"monthly"`
	CostPerKgBySite   []KeyValue        `json:"cost_per_kg_by_site"`
	CO2ByDate         []DateValue       `json:"co2_by_date"`
	CO2ByDisposition  []KeyValue        `json:"co2_by_disposition"`
	CostByOperator    []KeyValue        `json:"cost_by_operator"`
	ScatterPoints     []CostWeightPoint `json:"scatter_points"`
}
