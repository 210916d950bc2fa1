package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"

	"wastelens/internal/config"
	"wastelens/internal/dataset"
	"wastelens/internal/forecast"
	"wastelens/internal/infrastructure"
	"wastelens/internal/services"
	transport "wastelens/internal/transport/http"
	"wastelens/pkg/contracts"
)

const (
	AppName = "WasteLens"
	Version = contracts.Version
)

// Application is the assembled server: configuration, services, router
// and the HTTP listener.
type Application struct {
	Config    *config.Config
	Router    *chi.Mux
	Server    *http.Server
	Store     *services.DatasetStore
	Analytics *services.AnalyticsService
	Health    *services.HealthService
	Logger    *slog.Logger
}

// NewApplication wires the full pipeline together from configuration.
func NewApplication() (*Application, error) {
	// A local .env is a developer convenience; absence is not an error.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger := infrastructure.InitializeLogger(cfg.Logging)
	logger.Info("application starting",
		slog.String("name", AppName),
		slog.String("version", Version))

	app := &Application{
		Config: cfg,
		Logger: logger,
	}
	if err := app.initializeServices(); err != nil {
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	app.Router = transport.NewRouter(cfg, app.Analytics, app.Health, logger)
	app.Server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      app.Router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}
	return app, nil
}

// initializeServices builds the service graph in dependency order.
func (a *Application) initializeServices() error {
	loader := dataset.NewLoader(a.Logger, a.Config.Analytics.DefaultCurrency)

	forecaster := forecast.NewForecaster(a.Config.Forecast, a.Logger)
	cache := forecast.NewCache(forecaster, a.Logger)

	a.Store = services.NewDatasetStore(a.Config.Analytics.MaxDatasets, a.Logger, cache.Invalidate)

	var importer services.Importer
	if a.Config.Sheets.Enabled {
		sheetsImporter, err := dataset.NewSheetsImporter(context.Background(), a.Config.Sheets, loader, a.Logger)
		if err != nil {
			return fmt.Errorf("failed to initialize sheets importer: %w", err)
		}
		importer = sheetsImporter
	}

	a.Analytics = services.NewAnalyticsService(loader, a.Store, cache, importer, a.Logger)
	a.Health = services.NewHealthService(Version, a.Store, a.Logger)
	return nil
}

// Run starts the server and blocks until an interrupt, then shuts down
// gracefully.
func (a *Application) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	errChan := make(chan error, 1)
	go func() {
		a.Logger.InfoContext(ctx, "server listening",
			slog.String("addr", a.Server.Addr))
		if err := a.Server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	select {
	case err := <-errChan:
		return fmt.Errorf("server error: %w", err)
	case sig := <-sigChan:
		a.Logger.InfoContext(ctx, "received shutdown signal",
			slog.String("signal", sig.String()))
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(ctx, a.Config.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}
	a.Logger.InfoContext(ctx, "application shutdown complete")
	return nil
}
