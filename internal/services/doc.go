// Package services implements the business logic layer between the HTTP
// handlers and the analytics engine. Services hold the in-memory dataset
// registry, coordinate loading, filtering, reporting and forecasting, and
// translate failures into the application error taxonomy.
//
// # Available Services
//
//	- AnalyticsService: dataset lifecycle, reports, breakdowns, forecasts
//	- DatasetStore: bounded in-memory dataset registry with eviction
//	- HealthService: system health checks
//
// Services receive their dependencies through constructors and log with
// an injected *slog.Logger, so they test with plain fakes and a discard
// handler.
package services
