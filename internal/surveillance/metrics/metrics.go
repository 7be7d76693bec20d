package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the surveillance module: check volume
// and latency, detected change severity mix, and alert delivery outcomes.
type Metrics struct {
	ChecksRun       *prometheus.CounterVec
	ChangesDetected *prometheus.CounterVec
	AlertsSent      *prometheus.CounterVec
	SweepErrors     prometheus.Counter
	CheckDuration   prometheus.Histogram
}

// New creates a Metrics instance with all surveillance metrics registered.
func New() *Metrics {
	return &Metrics{
		ChecksRun: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "vigie_checks_run_total",
			Help: "Total surveillance checks executed, by trigger",
		}, []string{"trigger"}),
		ChangesDetected: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "vigie_changes_detected_total",
			Help: "Total changes detected, by importance",
		}, []string{"importance"}),
		AlertsSent: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "vigie_alerts_sent_total",
			Help: "Total alert deliveries attempted, by channel and outcome",
		}, []string{"channel", "outcome"}),
		SweepErrors: promauto.NewCounter(prometheus.CounterOpts{
			Name: "vigie_sweep_errors_total",
			Help: "Total per-surveillance failures inside sweeps",
		}),
		CheckDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "vigie_check_duration_seconds",
			Help:    "Duration of single surveillance checks",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
	}
}

// IncrementCheck records one executed check. trigger is "sweep" or "manual".
func (m *Metrics) IncrementCheck(trigger string) {
	m.ChecksRun.WithLabelValues(trigger).Inc()
}

// IncrementChanges records detected changes by importance.
func (m *Metrics) IncrementChanges(importance string, count int) {
	m.ChangesDetected.WithLabelValues(importance).Add(float64(count))
}

// IncrementAlert records one alert delivery attempt.
func (m *Metrics) IncrementAlert(channel, outcome string) {
	m.AlertsSent.WithLabelValues(channel, outcome).Inc()
}

// IncrementSweepError records one isolated failure inside a sweep.
func (m *Metrics) IncrementSweepError() {
	m.SweepErrors.Inc()
}

// ObserveCheck records the duration of one check. Call with time.Now() at the
// start of the operation.
func (m *Metrics) ObserveCheck(start time.Time) {
	m.CheckDuration.Observe(time.Since(start).Seconds())
}
