package forecast

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"wastelens/internal/config"
	apperrors "wastelens/internal/errors"
	"wastelens/pkg/contracts/domain"
)

// Forecaster fits trend projections on daily metric series. It is
// stateless and safe for concurrent use.
type Forecaster struct {
	logger *slog.Logger
	season int
	smooth smoothing
}

// NewForecaster creates a forecaster with the configured season length
// and smoothing coefficients.
func NewForecaster(cfg config.ForecastConfig, logger *slog.Logger) *Forecaster {
	if logger == nil {
		logger = slog.Default()
	}
	return &Forecaster{
		logger: logger.With(slog.String("component", "forecaster")),
		season: cfg.SeasonLength,
		smooth: smoothing{alpha: cfg.Alpha, beta: cfg.Beta, gamma: cfg.Gamma},
	}
}

// Fit projects a daily-summed metric series over the requested horizon
// and returns the merged actual+forecast display series. The input is
// resampled onto a contiguous daily calendar with zero-filled gaps
// before fitting, so the output has no date gaps. Fails with a forecast
// error when fewer than two distinct dates are available.
func (f *Forecaster) Fit(ctx context.Context, metric domain.Metric, series []domain.DateValue, horizon domain.Horizon) (domain.ForecastSeries, error) {
	if err := ctx.Err(); err != nil {
		return domain.ForecastSeries{}, err
	}
	if !metric.Valid() {
		return domain.ForecastSeries{}, apperrors.NewValidationError("unknown forecast metric")
	}
	if !horizon.Valid() {
		return domain.ForecastSeries{}, apperrors.NewValidationError("unsupported forecast horizon")
	}

	dates, values := resampleDaily(series)
	if len(dates) < 2 {
		return domain.ForecastSeries{}, apperrors.NewForecastError(
			"at least two distinct dates are required to fit a projection", nil)
	}

	var fit fitResult
	if f.season >= 2 && len(values) >= 2*f.season {
		fit = holtWintersAdd(values, horizon.Days(), f.season, f.smooth)
	} else {
		fit = holt(values, horizon.Days(), f.smooth)
	}

	width := zScore95 * residualStd(values, fit.fitted)

	points := make([]domain.ForecastPoint, 0, len(dates)+horizon.Days())
	for i, d := range dates {
		points = append(points, domain.ForecastPoint{
			Date:  d,
			Value: values[i],
			Kind:  domain.PointActual,
		})
	}
	last := dates[len(dates)-1]
	for i, v := range fit.forecast {
		lower := v - width
		if lower < 0 {
			lower = 0
		}
		upper := v + width
		points = append(points, domain.ForecastPoint{
			Date:  last.AddDate(0, 0, i+1),
			Value: v,
			Kind:  domain.PointForecast,
			Lower: &lower,
			Upper: &upper,
		})
	}

	f.logger.DebugContext(ctx, "fitted forecast",
		slog.String("metric", string(metric)),
		slog.String("model", fit.model),
		slog.Int("horizon", horizon.Days()),
		slog.Int("history_days", len(dates)),
	)

	return domain.ForecastSeries{
		Metric:  metric,
		Horizon: horizon,
		Model:   fit.model,
		Points:  points,
	}, nil
}

// resampleDaily sorts the series, then expands it onto a contiguous
// daily grid between the first and last date. Days with no record sum
// to zero wastage rather than being interpolated.
func resampleDaily(series []domain.DateValue) ([]time.Time, []float64) {
	if len(series) == 0 {
		return nil, nil
	}

	sums := make(map[time.Time]float64, len(series))
	for _, p := range series {
		sums[p.Date.UTC().Truncate(24*time.Hour)] += p.Value
	}

	distinct := make([]time.Time, 0, len(sums))
	for d := range sums {
		distinct = append(distinct, d)
	}
	sort.Slice(distinct, func(i, j int) bool { return distinct[i].Before(distinct[j]) })

	first, last := distinct[0], distinct[len(distinct)-1]
	dates := make([]time.Time, 0, len(distinct))
	values := make([]float64, 0, len(distinct))
	for d := first; !d.After(last); d = d.AddDate(0, 0, 1) {
		dates = append(dates, d)
		values = append(values, sums[d])
	}
	return dates, values
}
