package http

import (
	"context"

	"wastelens/internal/services"
	"wastelens/pkg/contracts/domain"
)

// AnalyticsServiceInterface defines the operations handlers depend on.
// Decoupling the handlers from the concrete service keeps them testable
// with a mock.
type AnalyticsServiceInterface interface {
	UploadDataset(ctx context.Context, data []byte) (services.DatasetSummary, error)
	ImportDataset(ctx context.Context) (services.DatasetSummary, error)
	ListDatasets(ctx context.Context) []services.DatasetSummary
	GetDataset(ctx context.Context, id string) (services.DatasetSummary, error)
	DeleteDataset(ctx context.Context, id string) error
	Dimensions(ctx context.Context, id string, spec domain.FilterSpec) (domain.DimensionCatalog, error)
	Report(ctx context.Context, id string, spec domain.FilterSpec) (domain.Report, error)
	ItemBreakdown(ctx context.Context, id string, spec domain.FilterSpec, category string, metric domain.Metric) ([]domain.KeyValue, error)
	Forecast(ctx context.Context, id string, spec domain.FilterSpec, metric domain.Metric, horizon domain.Horizon) (domain.ForecastSeries, error)
	ForecastBoth(ctx context.Context, id string, spec domain.FilterSpec, horizon domain.Horizon) (services.ForecastBundle, error)
}
