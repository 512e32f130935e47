// Package metrics provides Prometheus instrumentation for the dashboard
// process: request accounting, snapshot refreshes, and gauges mirroring
// the headline portfolio figures so they can be scraped and alerted on.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus collectors for the dashboard.
type Metrics struct {
	RequestsTotal   *prometheus.CounterVec // HTTP requests by route
	RequestDuration prometheus.Histogram   // Request handling duration

	SnapshotRefreshes prometheus.Counter // Snapshot recomputations (HTTP + collector)
	RecordsSkipped    prometheus.Gauge   // Malformed records skipped by the loader
	WSClients         prometheus.Gauge   // Connected WebSocket clients

	// Headline portfolio figures from the latest snapshot
	Equity          prometheus.Gauge
	CurrentDrawdown prometheus.Gauge
	Exposure        prometheus.Gauge
}

// New creates and registers all metrics using the default registry.
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry creates metrics with a custom registry (useful for
// testing without touching the global one).
func NewWithRegistry(registerer prometheus.Registerer) *Metrics {
	factory := promauto.With(registerer)
	return &Metrics{
		RequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "dashboard_requests_total",
			Help: "Total number of dashboard HTTP requests by route",
		}, []string{"route"}),
		RequestDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "dashboard_request_duration_seconds",
			Help:    "Dashboard request handling duration in seconds",
			Buckets: prometheus.DefBuckets,
		}),
		SnapshotRefreshes: factory.NewCounter(prometheus.CounterOpts{
			Name: "dashboard_snapshot_refreshes_total",
			Help: "Total number of metric snapshot recomputations",
		}),
		RecordsSkipped: factory.NewGauge(prometheus.GaugeOpts{
			Name: "dashboard_records_skipped",
			Help: "Cumulative count of malformed records skipped by the loader",
		}),
		WSClients: factory.NewGauge(prometheus.GaugeOpts{
			Name: "dashboard_ws_clients",
			Help: "Number of connected WebSocket clients",
		}),
		Equity: factory.NewGauge(prometheus.GaugeOpts{
			Name: "portfolio_equity",
			Help: "Total portfolio equity from the latest snapshot",
		}),
		CurrentDrawdown: factory.NewGauge(prometheus.GaugeOpts{
			Name: "portfolio_current_drawdown",
			Help: "Current drawdown magnitude from the latest snapshot",
		}),
		Exposure: factory.NewGauge(prometheus.GaugeOpts{
			Name: "portfolio_exposure",
			Help: "Portfolio exposure (invested over total equity) from the latest snapshot",
		}),
	}
}

// ObserveSnapshot updates the portfolio gauges from a freshly computed
// snapshot.
func (m *Metrics) ObserveSnapshot(equity, drawdown, exposure float64, skipped uint64) {
	m.SnapshotRefreshes.Inc()
	m.Equity.Set(equity)
	m.CurrentDrawdown.Set(drawdown)
	m.Exposure.Set(exposure)
	m.RecordsSkipped.Set(float64(skipped))
}
