package http

import (
	"log/slog"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"wastelens/internal/config"
	apierrors "wastelens/internal/errors"
	custommiddleware "wastelens/internal/middleware"
	"wastelens/internal/services"
)

// NewRouter assembles the HTTP API. Middleware ordering follows
// RequestID, RealIP, logger, recoverer, then route-level concerns.
func NewRouter(cfg *config.Config, service AnalyticsServiceInterface, health *services.HealthService, logger *slog.Logger) *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(custommiddleware.StructuredLogger(logger))
	r.Use(custommiddleware.Metrics)
	r.Use(custommiddleware.Recoverer(logger))
	r.Use(custommiddleware.SecurityHeaders)

	errorHandler := apierrors.NewErrorHandler(logger)
	datasetHandler := NewDatasetHandler(service, cfg.Server.MaxUploadBytes, logger, errorHandler)
	reportHandler := NewReportHandler(service, logger, errorHandler)
	healthHandler := NewHealthHandler(health, logger)

	uploadLimiter := custommiddleware.NewRateLimiter(cfg.Server.UploadRPS, cfg.Server.UploadBurst, logger)

	r.Route("/api", func(r chi.Router) {
		r.Use(chimiddleware.Timeout(cfg.Server.ReadTimeout))
		r.Use(render.SetContentType(render.ContentTypeJSON))

		r.Route("/datasets", func(r chi.Router) {
			// Uploads and imports are throttled; reads are not.
			r.With(uploadLimiter.Handler).Post("/", datasetHandler.Upload)
			r.With(uploadLimiter.Handler).Post("/import", datasetHandler.Import)
			r.Get("/", datasetHandler.List)

			r.Route("/{datasetID}", func(r chi.Router) {
				r.Use(datasetHandler.DatasetCtx)
				r.Get("/", datasetHandler.Get)
				r.Delete("/", datasetHandler.Delete)
				r.Get("/dimensions", datasetHandler.Dimensions)
				reportHandler.RegisterRoutes(r)
			})
		})
	})

	r.Get("/healthz", healthHandler.HealthCheck)
	r.Handle("/metrics", promhttp.Handler())

	return r
}
