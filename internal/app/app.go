// Package app wires the GDD service together: configuration, database,
// the recalculation service, and the REST server.
package app

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/turftrack/turftrack/internal/controllers/restserver"
	"github.com/turftrack/turftrack/internal/database"
	"github.com/turftrack/turftrack/internal/gdd"
	"github.com/turftrack/turftrack/internal/log"
	"github.com/turftrack/turftrack/pkg/config"
)

// App represents the main application
type App struct {
	cfg    *config.ConfigData
	logger *zap.SugaredLogger
}

// New creates a new application instance
func New(cfg *config.ConfigData, logger *zap.SugaredLogger) *App {
	return &App{
		cfg:    cfg,
		logger: logger,
	}
}

// Run starts the application and blocks until shutdown
func (a *App) Run(ctx context.Context) error {
	var wg sync.WaitGroup

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	dbClient := database.NewClient(a.logger)
	if err := dbClient.Connect(a.cfg.Database.ConnectionString); err != nil {
		return err
	}
	if a.cfg.Database.AutoMigrate {
		if err := dbClient.Migrate(); err != nil {
			return err
		}
	}

	store := database.NewStore(dbClient.DB)
	weather := database.NewWeatherSource(store,
		time.Duration(a.cfg.Weather.QueryTimeoutSeconds)*time.Second)
	service := gdd.NewService(store, weather, a.logger)

	restController, err := restserver.NewController(ctx, &wg, a.cfg.HTTP, service, a.logger)
	if err != nil {
		return err
	}
	if err := restController.StartController(); err != nil {
		return err
	}

	log.Info("Application started successfully")

	// Set up signal handling
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	// Wait for shutdown signal
	select {
	case <-sigs:
		log.Info("shutdown signal received, initiating graceful shutdown...")
	case <-ctx.Done():
		log.Info("context cancelled, shutting down...")
	}

	// Cancel context to signal all goroutines to stop
	cancel()

	log.Info("waiting for all workers to terminate...")
	wg.Wait()
	log.Info("shutdown complete")

	return nil
}
