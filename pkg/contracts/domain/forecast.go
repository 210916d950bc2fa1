package domain

import (
	"time"
)

// Horizon is the number of future days a projection extends past the
// last historical date. Only the enumerated horizons are accepted.
type Horizon int

const (
	Horizon30 Horizon = 30
	Horizon60 Horizon = 60
	Horizon90 Horizon = 90
)

// Valid reports whether the horizon is one of the supported values.
func (h Horizon) Valid() bool {
	switch h {
	case Horizon30, Horizon60, Horizon90:
		return true
	}
	return false
}

// Days returns the horizon length in days.
func (h Horizon) Days() int {
	return int(h)
}

// PointKind distinguishes historical points from projected ones.
type PointKind string

const (
	PointActual   PointKind = "actual"
	PointForecast PointKind = "forecast"
)

// ForecastPoint is one point of a merged actual+forecast series. Lower
// and Upper are populated only for forecast points.
type ForecastPoint struct {
	Date  time.Time `json:"date"`
	Value float64   `json:"value"`
	Kind  PointKind `json:"kind"`
	Lower *float64  `json:"lower,omitempty"`
	Upper *float64  `json:"upper,omitempty"`
}

// ForecastSeries is the chronological display series for one metric:
// every historical date as an Actual point followed by Horizon daily
// Forecast points, with no gaps against the daily calendar.
type ForecastSeries struct {
	Metric  Metric          `json:"metric"`
	Horizon Horizon         `json:"horizon"`
	Model   string          `json:"model"`
	Points  []ForecastPoint `json:"points"`
}

// Actuals returns the historical portion of the series.
func (s ForecastSeries) Actuals() []ForecastPoint {
	return s.split(PointActual)
}

// Projected returns the forecast portion of the series.
func (s ForecastSeries) Projected() []ForecastPoint {
	return s.split(PointForecast)
}

func (s ForecastSeries) split(kind PointKind) []ForecastPoint {
	out := make([]ForecastPoint, 0, len(s.Points))
	for _, p := range s.Points {
		if p.Kind == kind {
			out = append(out, p)
		}
	}
	return out
}
