package domain

import (
	"time"
)

// CO2PerKg is the estimated CO2 impact (kg) per kilogram of wasted food.
const CO2PerKg = 2.5

// WasteRecord represents a single food-wastage entry. Categorical fields
// use the empty string for a missing value. MonthBucket and MonthLabel are
// derived from Date at load time and are read-only thereafter.
type WasteRecord struct {
	Date               time.Time `json:"date"`
	Cost               float64   `json:"cost" validate:"min=0"`
	Weight             float64   `json:"weight" validate:"min=0"`
	Region             string    `json:"region,omitempty"`
	Site               string    `json:"site,omitempty"`
	Location           string    `json:"location,omitempty"`
	Operator           string    `json:"operator,omitempty"`
	LossReason         string    `json:"loss_reason,omitempty"`
	FoodItemCategory   string    `json:"food_item_category,omitempty"`
	FoodItem           string    `json:"food_item,omitempty"`
	Disposition        string    `json:"disposition,omitempty"`
	StageOfProcessing  string    `json:"stage_of_processing,omitempty"`
	Currency           string    `json:"currency,omitempty"`
	MonthBucket        time.Time `json:"month_bucket"`
	MonthLabel         string    `json:"month_label"`
}

// EstimatedCO2 returns the estimated CO2 impact in kg for this record.
func (r WasteRecord) EstimatedCO2() float64 {
	return r.Weight * CO2PerKg
}

// Dataset is an ordered, immutable collection of waste records plus the
// metadata resolved once at load time. Filtering produces a new Dataset
// that shares the underlying records; callers must never mutate Records.
type Dataset struct {
	ID          string        `json:"id"`
	Fingerprint string        `json:"fingerprint"`
	Currency    string        `json:"currency"`
	LoadedAt    time.Time     `json:"loaded_at"`
	Records     []WasteRecord `json:"records"`
}

// Len returns the number of records in the dataset.
func (d Dataset) Len() int {
	return len(d.Records)
}

// DateRange returns the minimum and maximum record dates. ok is false for
// an empty dataset.
func (d Dataset) DateRange() (start, end time.Time, ok bool) {
	if len(d.Records) == 0 {
		return time.Time{}, time.Time{}, false
	}
	start, end = d.Records[0].Date, d.Records[0].Date
	for _, r := range d.Records[1:] {
		if r.Date.Before(start) {
			start = r.Date
		}
		if r.Date.After(end) {
			end = r.Date
		}
	}
	return start, end, true
}

// WithRecords returns a copy of the dataset metadata over a different
// record slice. Used by the filter engine to build views.
func (d Dataset) WithRecords(records []WasteRecord) Dataset {
	view := d
	view.Records = records
	return view
}

// MonthBucketOf truncates a date to the first of its month in UTC.
func MonthBucketOf(date time.Time) time.Time {
	return time.Date(date.Year(), date.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// MonthLabelOf formats a date as its human month label, e.g. "Jan 2024".
func MonthLabelOf(date time.Time) string {
	return date.Format("Jan 2006")
}
