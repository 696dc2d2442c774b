// Package services содержит планировщик ежедневного пересчёта статусов пакетов.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/magabrotheeeer/package-tracker/internal/lib/sl"
	"github.com/magabrotheeeer/package-tracker/internal/models"
	lifecycle "github.com/magabrotheeeer/package-tracker/internal/services/lifecycle"
)

// ClientRepository загружает всех клиентов для обхода.
type ClientRepository interface {
	ListAllClients(ctx context.Context) ([]*models.Client, error)
}

// Reconciler пересчитывает статусы набора клиентов.
type Reconciler interface {
	ReconcileAll(ctx context.Context, clients []*models.Client, limit int) ([]*models.Client, lifecycle.SweepResult)
}

// Metrics фиксирует итоги обхода.
type Metrics interface {
	ObserveSweep(start time.Time, changed, unchanged, failed int)
}

// SchedulerService запускает обход всех клиентов по расписанию cron.
type SchedulerService struct {
	repo        ClientRepository
	reconciler  Reconciler
	metrics     Metrics
	cron        *cron.Cron
	schedule    string
	concurrency int
	log         *slog.Logger
}

// NewSchedulerService создает новый экземпляр SchedulerService.
// schedule задаётся в формате cron из пяти полей и интерпретируется в UTC.
func NewSchedulerService(repo ClientRepository, reconciler Reconciler, metrics Metrics,
	schedule string, concurrency int, log *slog.Logger) *SchedulerService {
	cronLogger := cron.PrintfLogger(slog.NewLogLogger(log.Handler(), slog.LevelInfo))
	return &SchedulerService{
		repo:       repo,
		reconciler: reconciler,
		metrics:    metrics,
		cron: cron.New(
			cron.WithLocation(time.UTC),
			cron.WithChain(cron.SkipIfStillRunning(cronLogger), cron.Recover(cronLogger)),
		),
		schedule:    schedule,
		concurrency: concurrency,
		log:         log,
	}
}

// Start регистрирует задачу обхода и запускает cron. Обход выполняется
// в контексте ctx и не зависит от входящих запросов.
func (s *SchedulerService) Start(ctx context.Context) error {
	const op = "services.scheduler.Start"

	_, err := s.cron.AddFunc(s.schedule, func() {
		if _, err := s.RunSweep(ctx); err != nil {
			s.log.Error("sweep failed", slog.String("op", op), sl.Err(err))
		}
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("scheduled package status sweep", slog.String("schedule", s.schedule))
	s.cron.Start()
	return nil
}

// Stop останавливает cron; возвращённый контекст завершается после окончания текущего обхода.
func (s *SchedulerService) Stop() context.Context {
	return s.cron.Stop()
}

// RunSweep загружает всех клиентов и пересчитывает их статусы.
// Ошибки отдельных записей не прерывают обход и не повторяются до следующего запуска.
func (s *SchedulerService) RunSweep(ctx context.Context) (lifecycle.SweepResult, error) {
	const op = "services.scheduler.RunSweep"
	log := s.log.With(slog.String("op", op))
	start := time.Now()

	log.Info("starting package status sweep")
	clients, err := s.repo.ListAllClients(ctx)
	if err != nil {
		return lifecycle.SweepResult{}, fmt.Errorf("%s: %w", op, err)
	}

	_, res := s.reconciler.ReconcileAll(ctx, clients, s.concurrency)
	if s.metrics != nil {
		s.metrics.ObserveSweep(start, res.Changed, res.Unchanged(), res.Failed)
	}

	log.Info("package status sweep finished",
		slog.Int("total", res.Total),
		slog.Int("changed", res.Changed),
		slog.Int("failed", res.Failed),
		slog.Duration("elapsed", time.Since(start)),
	)
	return res, nil
}
