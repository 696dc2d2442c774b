// Package scheduler собирает процесс ежедневного пересчёта статусов пакетов.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/magabrotheeeer/package-tracker/internal/config"
	"github.com/magabrotheeeer/package-tracker/internal/lib/metrics"
	"github.com/magabrotheeeer/package-tracker/internal/lib/sl"
	lifecycle "github.com/magabrotheeeer/package-tracker/internal/services/lifecycle"
	schedulerservice "github.com/magabrotheeeer/package-tracker/internal/services/scheduler"
	"github.com/magabrotheeeer/package-tracker/internal/storage/repository"
)

// App представляет приложение планировщика.
type App struct {
	schedulerService *schedulerservice.SchedulerService
	db               *repository.Storage
	logger           *slog.Logger
}

func waitForDB(ctx context.Context, db *repository.Storage) error {
	for range 10 {
		err := repository.CheckDatabaseReady(db)
		if err == nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(3 * time.Second):
		}
	}
	return fmt.Errorf("database not ready after retries")
}

// New создает новый экземпляр приложения планировщика.
// Миграции применяет процесс API, поэтому здесь только ожидается их готовность.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	db, err := repository.New(cfg.StorageConnectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to connect storage: %w", err)
	}

	if err := waitForDB(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}

	m := metrics.New(prometheus.DefaultRegisterer)
	reconciler := lifecycle.NewReconciler(db, logger, lifecycle.WithMetrics(m))
	schedulerService := schedulerservice.NewSchedulerService(db, reconciler, m,
		cfg.Sweep.Schedule, cfg.Sweep.Concurrency, logger)

	return &App{
		schedulerService: schedulerService,
		db:               db,
		logger:           logger,
	}, nil
}

// Run выполняет обход при старте и затем по расписанию до отмены ctx.
func (a *App) Run(ctx context.Context) error {
	if _, err := a.schedulerService.RunSweep(ctx); err != nil {
		a.logger.Error("startup sweep failed", sl.Err(err))
	}
	if err := a.schedulerService.Start(ctx); err != nil {
		_ = a.db.Close()
		return err
	}

	<-ctx.Done()

	a.logger.Info("shutting down scheduler service")
	<-a.schedulerService.Stop().Done()

	if err := a.db.Close(); err != nil {
		a.logger.Error("failed to close storage", sl.Err(err))
	}
	return nil
}
