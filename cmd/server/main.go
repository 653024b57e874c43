// Package main is the entry point for the qdo Max-Cut service.
// It serves the classical baseline and the QAOA solver over HTTP, keeps a store of
// named graphs and a history of comparison runs, and exposes Prometheus metrics.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aristath/qdo/internal/config"
	"github.com/aristath/qdo/internal/di"
	"github.com/aristath/qdo/internal/server"
	"github.com/aristath/qdo/pkg/logger"
)

// main orchestrates startup:
// 1. Loads configuration from the environment, .env and an optional solver profile
// 2. Initializes logging
// 3. Wires all dependencies via the DI container (database, repositories, services, jobs)
// 4. Starts the default graph watcher and the job scheduler
// 5. Starts the HTTP server
// 6. Waits for a shutdown signal and shuts down gracefully
func main() {
	cfg, err := config.Load()
	if err != nil {
		// Fallback logger so the configuration error is still reported
		fallbackLog := logger.New(logger.Config{
			Level:  "info",
			Pretty: true,
		})
		fallbackLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.DevMode,
	})
	logger.SetGlobalLogger(log)

	log.Info().Msg("Starting qdo")

	container, jobs, err := di.Wire(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to wire dependencies")
	}
	defer container.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Hot reload of a file-backed default graph
	if container.GraphWatcher != nil {
		if err := container.GraphWatcher.Start(ctx); err != nil {
			log.Warn().Err(err).Str("path", container.GraphWatcher.Path()).Msg("Default graph will not be reloaded on change")
		} else {
			log.Info().Str("path", container.GraphWatcher.Path()).Msg("Watching default graph")
		}
	}

	container.Scheduler.Start()
	log.Info().Int("jobs", container.Scheduler.Len()).Msg("Scheduler started")

	srv := server.New(server.Config{
		Log:         log,
		Container:   container,
		Jobs:        jobs,
		GraphSource: cfg.GraphSource,
		Port:        cfg.Port,
		DevMode:     cfg.DevMode,
	})

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	log.Info().Int("port", cfg.Port).Msg("Server started successfully")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")
	cancel()

	// Running jobs finish before the database closes
	container.Scheduler.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server stopped")
}
