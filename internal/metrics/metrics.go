// Package metrics exposes chronotime counters to prometheus.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	globalMetrics *Metrics
	metricsOnce   sync.Once
)

// Metrics holds the process-wide collectors. A nil *Metrics records nothing.
type Metrics struct {
	SessionsFinished *prometheus.CounterVec
	SessionsDeleted  *prometheus.CounterVec
	TrackedSeconds   *prometheus.CounterVec
	TabSamples       *prometheus.CounterVec
	TabUpdates       prometheus.Counter
	Running          prometheus.Gauge
}

// New registers the collectors once and returns them.
//
// Metrics:
//   - chronotime_sessions_finished_total{category}
//   - chronotime_sessions_deleted_total{category}
//   - chronotime_tracked_seconds_total{category}
//   - chronotime_tab_samples_total{outcome} - "hit", "unknown" or "skipped"
//   - chronotime_tab_updates_total - tabs pushed by the browser extension
//   - chronotime_stopwatch_running - 1 while the stopwatch runs
func New() *Metrics {
	metricsOnce.Do(func() {
		globalMetrics = &Metrics{
			SessionsFinished: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "chronotime_sessions_finished_total",
					Help: "Total number of finished sessions",
				},
				[]string{"category"},
			),
			SessionsDeleted: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "chronotime_sessions_deleted_total",
					Help: "Total number of deleted sessions",
				},
				[]string{"category"},
			),
			TrackedSeconds: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "chronotime_tracked_seconds_total",
					Help: "Seconds recorded in finished sessions",
				},
				[]string{"category"},
			),
			TabSamples: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "chronotime_tab_samples_total",
					Help: "Tab samples taken on tick, by outcome",
				},
				[]string{"outcome"},
			),
			TabUpdates: promauto.NewCounter(
				prometheus.CounterOpts{
					Name: "chronotime_tab_updates_total",
					Help: "Tabs pushed by the browser extension",
				},
			),
			Running: promauto.NewGauge(
				prometheus.GaugeOpts{
					Name: "chronotime_stopwatch_running",
					Help: "1 while the stopwatch is running",
				},
			),
		}
	})
	return globalMetrics
}

func (m *Metrics) RecordFinish(category string, seconds float64) {
	if m == nil {
		return
	}
	m.SessionsFinished.WithLabelValues(category).Inc()
	m.TrackedSeconds.WithLabelValues(category).Add(seconds)
}

func (m *Metrics) RecordDelete(category string) {
	if m == nil {
		return
	}
	m.SessionsDeleted.WithLabelValues(category).Inc()
}

func (m *Metrics) RecordTabSample(outcome string) {
	if m == nil {
		return
	}
	m.TabSamples.WithLabelValues(outcome).Inc()
}

func (m *Metrics) RecordTabUpdate() {
	if m == nil {
		return
	}
	m.TabUpdates.Inc()
}

func (m *Metrics) SetRunning(running bool) {
	if m == nil {
		return
	}
	if running {
		m.Running.Set(1)
	} else {
		m.Running.Set(0)
	}
}
