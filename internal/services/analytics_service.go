package services

import (
	"context"
	"log/slog"
	"time"

	"wastelens/internal/analytics"
	"wastelens/internal/dataset"
	apperrors "wastelens/internal/errors"
	"wastelens/internal/forecast"
	"wastelens/pkg/contracts/domain"
)

// Importer pulls a dataset from an external source, e.g. Google Sheets.
type Importer interface {
	Import(ctx context.Context) (domain.Dataset, error)
}

// DatasetSummary is the API-facing view of a stored dataset.
type DatasetSummary struct {
	ID          string    `json:"id"`
	Fingerprint string    `json:"fingerprint"`
	Currency    string    `json:"currency"`
	Records     int       `json:"records"`
	StartDate   time.Time `json:"start_date,omitempty"`
	EndDate     time.Time `json:"end_date,omitempty"`
	LoadedAt    time.Time `json:"loaded_at"`
}

// ForecastBundle carries the projections for both metrics of one view.
// A fit failure on one metric is reported alongside the other metric's
// result instead of failing the whole request.
type ForecastBundle struct {
	Horizon domain.Horizon         `json:"horizon"`
	Cost    *domain.ForecastSeries `json:"cost,omitempty"`
	Weight  *domain.ForecastSeries `json:"weight,omitempty"`
	Errors  map[string]string      `json:"errors,omitempty"`
}

// AnalyticsService orchestrates the wastage pipeline: loading datasets,
// filtering them into views, and computing reports and forecasts over
// those views.
type AnalyticsService struct {
	loader   *dataset.Loader
	store    *DatasetStore
	importer Importer
	cache    *forecast.Cache
	logger   *slog.Logger
}

// NewAnalyticsService wires the pipeline together. importer may be nil
// when no external import source is configured.
func NewAnalyticsService(loader *dataset.Loader, store *DatasetStore, cache *forecast.Cache, importer Importer, logger *slog.Logger) *AnalyticsService {
	if logger == nil {
		logger = slog.Default()
	}
	return &AnalyticsService{
		loader:   loader,
		store:    store,
		importer: importer,
		cache:    cache,
		logger:   logger.With(slog.String("component", "analytics_service")),
	}
}

// UploadDataset loads an Excel workbook from raw bytes and stores the
// resulting dataset. Uploading identical bytes again returns the
// already-stored dataset.
func (s *AnalyticsService) UploadDataset(ctx context.Context, data []byte) (DatasetSummary, error) {
	ds, err := s.loader.LoadExcel(ctx, data)
	if err != nil {
		return DatasetSummary{}, err
	}

	stored, created := s.store.Put(ds)
	s.logger.InfoContext(ctx, "dataset upload processed",
		slog.String("dataset_id", stored.ID),
		slog.Int("records", stored.Len()),
		slog.Bool("deduplicated", !created))
	return summarize(stored), nil
}

// ImportDataset pulls a dataset from the configured external source.
func (s *AnalyticsService) ImportDataset(ctx context.Context) (DatasetSummary, error) {
	if s.importer == nil {
		return DatasetSummary{}, apperrImportDisabled()
	}
	ds, err := s.importer.Import(ctx)
	if err != nil {
		return DatasetSummary{}, err
	}
	stored, _ := s.store.Put(ds)
	return summarize(stored), nil
}

// ListDatasets returns summaries of every stored dataset, newest first.
func (s *AnalyticsService) ListDatasets(ctx context.Context) []DatasetSummary {
	held := s.store.List()
	out := make([]DatasetSummary, 0, len(held))
	for _, ds := range held {
		out = append(out, summarize(ds))
	}
	return out
}

// GetDataset returns the summary of one stored dataset.
func (s *AnalyticsService) GetDataset(ctx context.Context, id string) (DatasetSummary, error) {
	ds, err := s.store.Get(id)
	if err != nil {
		return DatasetSummary{}, err
	}
	return summarize(ds), nil
}

// DeleteDataset removes a stored dataset and its memoized forecasts.
func (s *AnalyticsService) DeleteDataset(ctx context.Context, id string) error {
	return s.store.Delete(id)
}

// Dimensions returns the filterable values available inside the spec's
// date range, so a client can build its filter controls from the rows it
// is actually looking at. Dimension selections in the spec are ignored;
// only the date bounds narrow the catalog.
func (s *AnalyticsService) Dimensions(ctx context.Context, id string, spec domain.FilterSpec) (domain.DimensionCatalog, error) {
	ds, err := s.store.Get(id)
	if err != nil {
		return domain.DimensionCatalog{}, err
	}
	view, err := dataset.Apply(ds, domain.FilterSpec{
		StartDate: spec.StartDate,
		EndDate:   spec.EndDate,
	})
	if err != nil {
		return domain.DimensionCatalog{}, err
	}
	return dataset.Dimensions(view), nil
}

// Report computes the full KPI-and-breakdown report for one filtered
// view. An invalid filter fails the request without touching any stored
// state, so the caller's previous view remains intact.
func (s *AnalyticsService) Report(ctx context.Context, id string, spec domain.FilterSpec) (domain.Report, error) {
	view, err := s.view(id, spec)
	if err != nil {
		return domain.Report{}, err
	}
	return analytics.BuildReport(view, spec), nil
}

// ItemBreakdown drills into one food item category for a filtered view.
func (s *AnalyticsService) ItemBreakdown(ctx context.Context, id string, spec domain.FilterSpec, category string, metric domain.Metric) ([]domain.KeyValue, error) {
	view, err := s.view(id, spec)
	if err != nil {
		return nil, err
	}
	return analytics.ItemTotals(view, category, metric)
}

// Forecast fits (or recalls) the projection for one metric of one
// filtered view.
func (s *AnalyticsService) Forecast(ctx context.Context, id string, spec domain.FilterSpec, metric domain.Metric, horizon domain.Horizon) (domain.ForecastSeries, error) {
	ds, err := s.store.Get(id)
	if err != nil {
		return domain.ForecastSeries{}, err
	}
	if err := spec.Validate(); err != nil {
		return domain.ForecastSeries{}, apperrors.NewValidationError(err.Error())
	}

	return s.cache.Get(ctx, ds.Fingerprint, spec.Key(), metric, horizon, func() ([]domain.DateValue, error) {
		view, err := dataset.Apply(ds, spec)
		if err != nil {
			return nil, err
		}
		return analytics.MetricByDate(view, metric)
	})
}

// ForecastBoth fits both metrics over the same view. Each metric fails
// independently: a short cost history does not suppress the weight
// projection.
func (s *AnalyticsService) ForecastBoth(ctx context.Context, id string, spec domain.FilterSpec, horizon domain.Horizon) (ForecastBundle, error) {
	bundle := ForecastBundle{Horizon: horizon, Errors: map[string]string{}}

	for _, metric := range []domain.Metric{domain.MetricCost, domain.MetricWeight} {
		series, err := s.Forecast(ctx, id, spec, metric, horizon)
		if err != nil {
			// Dataset-level failures abort; model-fit failures are
			// reported per metric.
			if isFatalForBundle(err) {
				return ForecastBundle{}, err
			}
			s.logger.WarnContext(ctx, "metric forecast failed",
				slog.String("dataset_id", id),
				slog.String("metric", string(metric)),
				slog.String("error", err.Error()))
			bundle.Errors[string(metric)] = err.Error()
			continue
		}
		switch metric {
		case domain.MetricCost:
			bundle.Cost = &series
		case domain.MetricWeight:
			bundle.Weight = &series
		}
	}

	if len(bundle.Errors) == 0 {
		bundle.Errors = nil
	}
	return bundle, nil
}

func (s *AnalyticsService) view(id string, spec domain.FilterSpec) (domain.Dataset, error) {
	ds, err := s.store.Get(id)
	if err != nil {
		return domain.Dataset{}, err
	}
	return dataset.Apply(ds, spec)
}

func summarize(ds domain.Dataset) DatasetSummary {
	out := DatasetSummary{
		ID:          ds.ID,
		Fingerprint: ds.Fingerprint,
		Currency:    ds.Currency,
		Records:     ds.Len(),
		LoadedAt:    ds.LoadedAt,
	}
	if start, end, ok := ds.DateRange(); ok {
		out.StartDate = start
		out.EndDate = end
	}
	return out
}
