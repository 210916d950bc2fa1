package forecast

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"golang.org/x/sync/singleflight"

	"wastelens/pkg/contracts/domain"
)

var (
	fitDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "wastelens",
		Subsystem: "forecast",
		Name:      "fit_duration_seconds",
		Help:      "Time spent fitting a forecast model.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"metric", "model"})

	cacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "wastelens",
		Subsystem: "forecast",
		Name:      "cache_hits_total",
		Help:      "Forecast results served from the memoization cache.",
	})

	cacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "wastelens",
		Subsystem: "forecast",
		Name:      "cache_misses_total",
		Help:      "Forecast results that required a model fit.",
	})
)

// SeriesFunc supplies the daily metric series a projection fits on. The
// cache calls it only on a miss.
type SeriesFunc func() ([]domain.DateValue, error)

// Cache memoizes fitted forecast series. A cache key identifies the
// exact inputs of a fit: dataset content fingerprint, canonical filter
// key, metric, and horizon. A re-upload of identical bytes or a
// reordered but equivalent filter reuses earlier fits. Concurrent
// requests for the same key collapse into a single fit.
type Cache struct {
	forecaster *Forecaster
	logger     *slog.Logger

	mu      sync.RWMutex
	entries map[string]domain.ForecastSeries
	group   singleflight.Group
}

// NewCache wraps a forecaster with memoization.
func NewCache(f *Forecaster, logger *slog.Logger) *Cache {
	if logger == nil {
		logger = slog.Default()
	}
	return &Cache{
		forecaster: f,
		logger:     logger.With(slog.String("component", "forecast_cache")),
		entries:    make(map[string]domain.ForecastSeries),
	}
}

// Get returns the memoized series for the key inputs, fitting it on
// first use.
func (c *Cache) Get(ctx context.Context, fingerprint, filterKey string, metric domain.Metric, horizon domain.Horizon, series SeriesFunc) (domain.ForecastSeries, error) {
	key := cacheKey(fingerprint, filterKey, metric, horizon)

	c.mu.RLock()
	cached, ok := c.entries[key]
	c.mu.RUnlock()
	if ok {
		cacheHits.Inc()
		return cached, nil
	}

	v, err, _ := c.group.Do(key, func() (interface{}, error) {
		c.mu.RLock()
		cached, ok := c.entries[key]
		c.mu.RUnlock()
		if ok {
			return cached, nil
		}
		cacheMisses.Inc()

		points, err := series()
		if err != nil {
			return nil, err
		}

		start := time.Now()
		fitted, err := c.forecaster.Fit(ctx, metric, points, horizon)
		if err != nil {
			return nil, err
		}
		fitDuration.WithLabelValues(string(metric), fitted.Model).Observe(time.Since(start).Seconds())

		c.mu.Lock()
		c.entries[key] = fitted
		c.mu.Unlock()

		c.logger.DebugContext(ctx, "cached forecast",
			slog.String("metric", string(metric)),
			slog.Int("horizon", horizon.Days()),
			slog.String("model", fitted.Model),
		)
		return fitted, nil
	})
	if err != nil {
		return domain.ForecastSeries{}, err
	}
	return v.(domain.ForecastSeries), nil
}

// Invalidate drops every memoized series for one dataset fingerprint.
// Called when a dataset is evicted from the session store.
func (c *Cache) Invalidate(fingerprint string) {
	prefix := fingerprint + "|"
	c.mu.Lock()
	defer c.mu.Unlock()
	for key := range c.entries {
		if len(key) >= len(prefix) && key[:len(prefix)] == prefix {
			delete(c.entries, key)
		}
	}
}

func cacheKey(fingerprint, filterKey string, metric domain.Metric, horizon domain.Horizon) string {
	return fmt.Sprintf("%s|%s|%s|%d", fingerprint, filterKey, metric, horizon.Days())
}
