// Package services содержит пересчёт статуса пакета клиента: сравнение
// сохранённого статуса со свежерассчитанным и запись только при расхождении.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/magabrotheeeer/package-tracker/internal/lib/packagestatus"
	"github.com/magabrotheeeer/package-tracker/internal/lib/sl"
	"github.com/magabrotheeeer/package-tracker/internal/models"
)

// StatusStore обновляет только поля статуса пакета.
type StatusStore interface {
	ApplyStatus(ctx context.Context, id string, status models.PackageStatus) (*models.Client, error)
}

// Metrics счётчики, которые обновляет Reconciler.
type Metrics interface {
	IncStatusWrite()
}

// Reconciler единственная точка, определяющая актуальность статуса клиента.
type Reconciler struct {
	store   StatusStore
	metrics Metrics
	now     func() time.Time
	log     *slog.Logger
}

// Option настраивает Reconciler.
type Option func(*Reconciler)

// WithClock подменяет источник текущего времени.
func WithClock(now func() time.Time) Option {
	return func(r *Reconciler) {
		r.now = now
	}
}

// WithMetrics подключает метрики.
func WithMetrics(m Metrics) Option {
	return func(r *Reconciler) {
		r.metrics = m
	}
}

// NewReconciler создает новый экземпляр Reconciler.
func NewReconciler(store StatusStore, log *slog.Logger, opts ...Option) *Reconciler {
	r := &Reconciler{
		store: store,
		now:   time.Now,
		log:   log,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Now возвращает текущее время по часам Reconciler.
func (r *Reconciler) Now() time.Time {
	return r.now()
}

// Compute рассчитывает статус клиента на текущий момент без записи.
func (r *Reconciler) Compute(c *models.Client) models.PackageStatus {
	return packagestatus.Compute(c.PackageStart, c.PackageDuration, r.now())
}

// Reconcile сверяет статус клиента и при расхождении сохраняет новый.
// Возвращает актуальный снимок и признак того, что была запись.
func (r *Reconciler) Reconcile(ctx context.Context, c *models.Client) (*models.Client, bool, error) {
	const op = "services.lifecycle.Reconcile"

	fresh := r.Compute(c)
	if c.PackageStatus != nil && c.PackageStatus.Equal(fresh) {
		return c, false, nil
	}

	updated, err := r.store.ApplyStatus(ctx, c.ID, fresh)
	if err != nil {
		return c, false, fmt.Errorf("%s: %w", op, err)
	}
	if r.metrics != nil {
		r.metrics.IncStatusWrite()
	}
	r.log.Debug("package status refreshed",
		slog.String("op", op),
		slog.String("client_id", c.ID),
		slog.Bool("is_active", fresh.IsActive),
		slog.Int("days_remaining", fresh.DaysRemaining),
	)
	return updated, true, nil
}

// SweepResult итог пакетного пересчёта.
type SweepResult struct {
	Total   int
	Changed int
	Failed  int
	Errors  []error
}

// Unchanged число записей, не потребовавших записи.
func (s SweepResult) Unchanged() int {
	return s.Total - s.Changed - s.Failed
}

// ReconcileAll пересчитывает клиентов с ограничением параллельности limit.
// Ошибка одного клиента не прерывает обработку остальных.
// Возвращённый срез содержит актуальные снимки в исходном порядке.
func (r *Reconciler) ReconcileAll(ctx context.Context, clients []*models.Client, limit int) ([]*models.Client, SweepResult) {
	const op = "services.lifecycle.ReconcileAll"
	if limit <= 0 {
		limit = 1
	}

	out := make([]*models.Client, len(clients))
	res := SweepResult{Total: len(clients)}
	var mu sync.Mutex

	var g errgroup.Group
	g.SetLimit(limit)
	for i, c := range clients {
		g.Go(func() error {
			updated, changed, err := r.Reconcile(ctx, c)
			out[i] = updated

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err != nil:
				res.Failed++
				res.Errors = append(res.Errors, err)
				r.log.Warn("failed to reconcile client", slog.String("op", op),
					slog.String("client_id", c.ID), sl.Err(err))
			case changed:
				res.Changed++
			}
			// ошибки собираются в res, группа не отменяется
			return nil
		})
	}
	_ = g.Wait()

	return out, res
}

// Err объединяет ошибки отдельных записей.
func (s SweepResult) Err() error {
	return errors.Join(s.Errors...)
}
