package forecast

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "wastelens/internal/errors"
	"wastelens/pkg/contracts/domain"
)

func testCache() *Cache {
	return NewCache(NewForecaster(testConfig(), nil), nil)
}

func TestCache_FitsOnceForSameInputs(t *testing.T) {
	cache := testCache()
	calls := 0
	series := func() ([]domain.DateValue, error) {
		calls++
		return linearSeries(day(2024, 1, 1), 5), nil
	}

	first, err := cache.Get(context.Background(), "fp-1", "key-1", domain.MetricCost, domain.Horizon30, series)
	require.NoError(t, err)
	second, err := cache.Get(context.Background(), "fp-1", "key-1", domain.MetricCost, domain.Horizon30, series)
	require.NoError(t, err)

	assert.Equal(t, 1, calls)
	assert.Equal(t, first, second)
}

func TestCache_KeyDiscriminatesInputs(t *testing.T) {
	cache := testCache()
	calls := 0
	series := func() ([]domain.DateValue, error) {
		calls++
		return linearSeries(day(2024, 1, 1), 5), nil
	}

	ctx := context.Background()
	_, err := cache.Get(ctx, "fp-1", "key-1", domain.MetricCost, domain.Horizon30, series)
	require.NoError(t, err)
	_, err = cache.Get(ctx, "fp-1", "key-1", domain.MetricWeight, domain.Horizon30, series)
	require.NoError(t, err)
	_, err = cache.Get(ctx, "fp-1", "key-1", domain.MetricCost, domain.Horizon60, series)
	require.NoError(t, err)
	_, err = cache.Get(ctx, "fp-1", "key-2", domain.MetricCost, domain.Horizon30, series)
	require.NoError(t, err)
	_, err = cache.Get(ctx, "fp-2", "key-1", domain.MetricCost, domain.Horizon30, series)
	require.NoError(t, err)

	assert.Equal(t, 5, calls)
}

func TestCache_ErrorsAreNotCached(t *testing.T) {
	cache := testCache()
	calls := 0
	series := func() ([]domain.DateValue, error) {
		calls++
		if calls == 1 {
			return nil, apperrors.NewForecastError("series unavailable", nil)
		}
		return linearSeries(day(2024, 1, 1), 5), nil
	}

	ctx := context.Background()
	_, err := cache.Get(ctx, "fp-1", "key-1", domain.MetricCost, domain.Horizon30, series)
	require.Error(t, err)

	got, err := cache.Get(ctx, "fp-1", "key-1", domain.MetricCost, domain.Horizon30, series)
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	assert.Len(t, got.Points, 5+30)
}

func TestCache_InvalidateDropsOnlyOneFingerprint(t *testing.T) {
	cache := testCache()
	calls := 0
	series := func() ([]domain.DateValue, error) {
		calls++
		return linearSeries(day(2024, 1, 1), 5), nil
	}

	ctx := context.Background()
	_, err := cache.Get(ctx, "fp-1", "key-1", domain.MetricCost, domain.Horizon30, series)
	require.NoError(t, err)
	_, err = cache.Get(ctx, "fp-2", "key-1", domain.MetricCost, domain.Horizon30, series)
	require.NoError(t, err)
	require.Equal(t, 2, calls)

	cache.Invalidate("fp-1")

	_, err = cache.Get(ctx, "fp-1", "key-1", domain.MetricCost, domain.Horizon30, series)
	require.NoError(t, err)
	assert.Equal(t, 3, calls)

	_, err = cache.Get(ctx, "fp-2", "key-1", domain.MetricCost, domain.Horizon30, series)
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}
