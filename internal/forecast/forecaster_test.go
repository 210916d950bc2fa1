package forecast

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wastelens/internal/config"
	apperrors "wastelens/internal/errors"
	"wastelens/pkg/contracts/domain"
)

func testConfig() config.ForecastConfig {
	return config.ForecastConfig{SeasonLength: 7, Alpha: 0.3, Beta: 0.1, Gamma: 0.1}
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func linearSeries(start time.Time, n int) []domain.DateValue {
	out := make([]domain.DateValue, n)
	for i := 0; i < n; i++ {
		out[i] = domain.DateValue{Date: start.AddDate(0, 0, i), Value: float64(10 + i)}
	}
	return out
}

func TestFit_MergedSeriesShape(t *testing.T) {
	f := NewForecaster(testConfig(), nil)
	series := linearSeries(day(2024, 1, 1), 5)

	got, err := f.Fit(context.Background(), domain.MetricCost, series, domain.Horizon30)
	require.NoError(t, err)

	assert.Equal(t, domain.MetricCost, got.Metric)
	assert.Equal(t, domain.Horizon30, got.Horizon)
	require.Len(t, got.Points, 5+30)
	assert.Len(t, got.Actuals(), 5)
	assert.Len(t, got.Projected(), 30)

	// Chronological with no gaps against the daily calendar.
	for i := 1; i < len(got.Points); i++ {
		gap := got.Points[i].Date.Sub(got.Points[i-1].Date)
		assert.Equal(t, 24*time.Hour, gap, "gap before point %d", i)
	}

	// First projected day follows the last historical day.
	projected := got.Projected()
	assert.Equal(t, day(2024, 1, 6), projected[0].Date)
}

func TestFit_LinearTrendContinues(t *testing.T) {
	f := NewForecaster(testConfig(), nil)
	// Short series keeps the trend model; a perfectly linear input has
	// zero residuals, so the projection continues the line exactly.
	series := linearSeries(day(2024, 1, 1), 6)

	got, err := f.Fit(context.Background(), domain.MetricWeight, series, domain.Horizon30)
	require.NoError(t, err)
	assert.Equal(t, ModelHolt, got.Model)

	projected := got.Projected()
	for i, p := range projected {
		assert.InDelta(t, float64(10+6+i), p.Value, 1e-9)
		require.NotNil(t, p.Lower)
		require.NotNil(t, p.Upper)
		assert.InDelta(t, p.Value, *p.Lower, 1e-9)
		assert.InDelta(t, p.Value, *p.Upper, 1e-9)
	}
}

func TestFit_SeasonalModelWithEnoughHistory(t *testing.T) {
	f := NewForecaster(testConfig(), nil)
	// Two full weekly seasons selects the seasonal model.
	series := linearSeries(day(2024, 1, 1), 14)

	got, err := f.Fit(context.Background(), domain.MetricCost, series, domain.Horizon60)
	require.NoError(t, err)

	assert.Equal(t, ModelHoltWinters, got.Model)
	assert.Len(t, got.Projected(), 60)
}

func TestFit_GapDaysResampleToZero(t *testing.T) {
	f := NewForecaster(testConfig(), nil)
	series := []domain.DateValue{
		{Date: day(2024, 1, 1), Value: 100},
		{Date: day(2024, 1, 4), Value: 40},
	}

	got, err := f.Fit(context.Background(), domain.MetricCost, series, domain.Horizon30)
	require.NoError(t, err)

	actuals := got.Actuals()
	require.Len(t, actuals, 4)
	assert.Equal(t, 100.0, actuals[0].Value)
	assert.Equal(t, 0.0, actuals[1].Value)
	assert.Equal(t, 0.0, actuals[2].Value)
	assert.Equal(t, 40.0, actuals[3].Value)
}

func TestFit_BoundsOrderedAndNonNegative(t *testing.T) {
	f := NewForecaster(testConfig(), nil)
	series := []domain.DateValue{
		{Date: day(2024, 1, 1), Value: 5},
		{Date: day(2024, 1, 2), Value: 1},
		{Date: day(2024, 1, 3), Value: 4},
		{Date: day(2024, 1, 4), Value: 0},
		{Date: day(2024, 1, 5), Value: 3},
	}

	got, err := f.Fit(context.Background(), domain.MetricCost, series, domain.Horizon90)
	require.NoError(t, err)

	for _, p := range got.Projected() {
		require.NotNil(t, p.Lower)
		require.NotNil(t, p.Upper)
		assert.GreaterOrEqual(t, *p.Lower, 0.0)
		assert.LessOrEqual(t, *p.Lower, *p.Upper)
	}
}

func TestFit_InsufficientHistory(t *testing.T) {
	f := NewForecaster(testConfig(), nil)

	tests := []struct {
		name   string
		series []domain.DateValue
	}{
		{name: "empty", series: nil},
		{name: "single date", series: []domain.DateValue{{Date: day(2024, 1, 1), Value: 10}}},
		{
			name: "duplicate date only",
			series: []domain.DateValue{
				{Date: day(2024, 1, 1), Value: 10},
				{Date: day(2024, 1, 1), Value: 20},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.Fit(context.Background(), domain.MetricCost, tt.series, domain.Horizon30)
			require.Error(t, err)
			assert.True(t, apperrors.IsType(err, apperrors.ErrTypeForecast))
		})
	}
}

func TestFit_RejectsUnsupportedInputs(t *testing.T) {
	f := NewForecaster(testConfig(), nil)
	series := linearSeries(day(2024, 1, 1), 5)

	_, err := f.Fit(context.Background(), domain.Metric("volume"), series, domain.Horizon30)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeValidation))

	_, err = f.Fit(context.Background(), domain.MetricCost, series, domain.Horizon(45))
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeValidation))
}
