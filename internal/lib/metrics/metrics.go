// Package metrics содержит Prometheus-метрики жизненного цикла пакетов:
// результаты пересчёта статусов и исходы побочных действий (документ, письмо).
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics набор метрик сервиса. Нулевой указатель допустим: методы ничего не делают.
type Metrics struct {
	StatusWrites    prometheus.Counter
	SweepRecords    *prometheus.CounterVec
	SweepDuration   prometheus.Histogram
	SideEffectSteps *prometheus.CounterVec
	ClientsCreated  prometheus.Counter
}

// New регистрирует метрики в reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		StatusWrites: factory.NewCounter(prometheus.CounterOpts{
			Name: "package_tracker_status_writes_total",
			Help: "Total number of package status writes caused by drift",
		}),
		SweepRecords: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "package_tracker_sweep_records_total",
			Help: "Records processed by the daily sweep by outcome",
		}, []string{"outcome"}),
		SweepDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "package_tracker_sweep_duration_seconds",
			Help:    "Duration of a full sweep",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 12),
		}),
		SideEffectSteps: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "package_tracker_side_effect_steps_total",
			Help: "Document and notification step outcomes",
		}, []string{"step", "outcome"}),
		ClientsCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "package_tracker_clients_created_total",
			Help: "Total number of clients created",
		}),
	}
}

// IncStatusWrite фиксирует запись статуса после расхождения.
func (m *Metrics) IncStatusWrite() {
	if m == nil {
		return
	}
	m.StatusWrites.Inc()
}

// ObserveSweep фиксирует итог обхода.
func (m *Metrics) ObserveSweep(start time.Time, changed, unchanged, failed int) {
	if m == nil {
		return
	}
	m.SweepDuration.Observe(time.Since(start).Seconds())
	m.SweepRecords.WithLabelValues("changed").Add(float64(changed))
	m.SweepRecords.WithLabelValues("unchanged").Add(float64(unchanged))
	m.SweepRecords.WithLabelValues("failed").Add(float64(failed))
}

// IncSideEffect фиксирует исход шага step ("document" или "notification").
func (m *Metrics) IncSideEffect(step string, ok bool) {
	if m == nil {
		return
	}
	outcome := "success"
	if !ok {
		outcome = "failure"
	}
	m.SideEffectSteps.WithLabelValues(step, outcome).Inc()
}

// IncClientCreated фиксирует создание клиента.
func (m *Metrics) IncClientCreated() {
	if m == nil {
		return
	}
	m.ClientsCreated.Inc()
}
