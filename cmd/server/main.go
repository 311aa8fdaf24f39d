// Rentalscope - Bike Rental Data Exploration Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rentalscope

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tomtom215/rentalscope/internal/api"
	"github.com/tomtom215/rentalscope/internal/cache"
	"github.com/tomtom215/rentalscope/internal/config"
	"github.com/tomtom215/rentalscope/internal/dashboard"
	"github.com/tomtom215/rentalscope/internal/database"
	"github.com/tomtom215/rentalscope/internal/dataset"
	"github.com/tomtom215/rentalscope/internal/events"
	"github.com/tomtom215/rentalscope/internal/logging"
	"github.com/tomtom215/rentalscope/internal/middleware"
	"github.com/tomtom215/rentalscope/internal/supervisor"
	"github.com/tomtom215/rentalscope/internal/supervisor/services"
	ws "github.com/tomtom215/rentalscope/internal/websocket"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().
		Str("version", api.Version).
		Str("dataset", cfg.Dataset.Path).
		Bool("warehouse", cfg.Warehouse.Enabled).
		Str("cache", cfg.Cache.Type).
		Bool("cache_enabled", cfg.Cache.Enabled).
		Msg("Starting Rentalscope")

	if cfg.Security.RateLimitDisabled {
		logging.Warn().Msg("Rate limiting is disabled (DISABLE_RATE_LIMIT=true)")
	}
	if cfg.ShouldWarnAboutCORS() {
		logging.Warn().Msg("CORS allows any origin in production; set CORS_ORIGINS to specific origins")
	}
	if path := config.ConfigFile(); path != "" {
		// Settings are read once; a changed file only takes effect on restart.
		if err := config.WatchConfigFile(path, func() {
			logging.Warn().Str("path", path).Msg("Configuration file changed, restart to apply")
		}); err != nil {
			logging.Warn().Err(err).Str("path", path).Msg("Cannot watch configuration file")
		}
	}

	loader := dataset.NewLoader(dataset.WithRevalidation(cfg.Dataset.Revalidate))
	pipeline := dashboard.NewPipeline(loader, cfg.Dataset.Path, dashboard.Options{
		ScatterLimit: cfg.Dataset.ScatterSampleSize,
		PreviewLimit: cfg.Dataset.PreviewLimit,
	})

	// A missing or malformed dataset is reported per request, not fatal.
	if _, err := pipeline.Table(context.Background()); err != nil {
		logging.Warn().Err(err).Msg("Dataset not loaded at startup")
	}

	var warehouse api.Warehouse
	if cfg.Warehouse.Enabled {
		db, err := database.New(&cfg.Warehouse)
		if err != nil {
			logging.Fatal().Err(err).Msg("Failed to initialize warehouse")
		}
		defer func() {
			if err := db.Close(); err != nil {
				logging.Error().Err(err).Msg("Error closing warehouse")
			}
		}()
		warehouse = db
		logging.Info().Str("path", cfg.Warehouse.Path).Msg("Warehouse initialized")
	}

	responseCache := cache.NewCacher(cfg.Cache)
	if responseCache != nil {
		defer responseCache.Close()
	}

	wsHub := ws.NewHub()
	perfMon := middleware.NewPerformanceMonitor(1000, middleware.DefaultSlowThreshold)

	bus := events.NewBus(wsHub, events.BusConfig{CloseTimeout: shutdownTimeout / 2})
	defer func() {
		if err := bus.Close(); err != nil {
			logging.Warn().Err(err).Msg("Error closing event bus")
		}
	}()

	handler := api.NewHandler(pipeline, warehouse, responseCache, wsHub, cfg, perfMon)
	handler.SetNotifier(bus)
	router := api.NewRouter(handler, api.NewChiMiddleware(api.ChiMiddlewareConfigFrom(cfg.Security)))

	server := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           router.SetupChi(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.Server.Timeout,
		WriteTimeout:      cfg.Server.Timeout,
		IdleTimeout:       60 * time.Second,
	}

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.TreeConfig{
		FailureThreshold: 5,
		FailureBackoff:   15 * time.Second,
		ShutdownTimeout:  shutdownTimeout,
	})
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create supervisor tree")
	}

	// The sync service polls the dataset file even without a warehouse so
	// that clients hear about changes.
	tree.AddDataService(services.NewWarehouseSyncService(handler, cfg.Warehouse.SyncInterval))
	tree.AddMessagingService(services.NewWebSocketHubService(wsHub))
	tree.AddMessagingService(bus)
	tree.AddAPIService(services.NewHTTPServerService(server, server.Addr, shutdownTimeout))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logging.Info().Str("addr", server.Addr).Msg("Starting supervisor tree")
	errCh := tree.ServeBackground(ctx)

	// The channel yields the tree's single result and is never closed.
	var serveErr error
	select {
	case <-ctx.Done():
		logging.Info().Msg("Shutdown signal received, waiting for services")
		serveErr = <-errCh
	case serveErr = <-errCh:
	}
	if serveErr != nil && !errors.Is(serveErr, context.Canceled) {
		logging.Error().Err(serveErr).Msg("Supervisor tree error")
	}

	if unstopped, _ := tree.UnstoppedServiceReport(); len(unstopped) > 0 {
		for _, svc := range unstopped {
			logging.Warn().Str("service", svc.Name).Msg("Service failed to stop")
		}
	}

	logging.Info().Msg("Rentalscope stopped")
}
