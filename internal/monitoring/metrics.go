// Package monitoring exposes remconsd's Prometheus metrics.
package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the daemon.
type Metrics struct {
	// Session lifecycle
	SessionsActive prometheus.Gauge
	SessionsTotal  prometheus.Counter

	// Data path
	BytesIn  prometheus.Counter
	BytesOut prometheus.Counter

	// Local clients
	ClientAttaches prometheus.Counter
	AttachRejects  prometheus.Counter

	// System
	Uptime    prometheus.Gauge
	startTime time.Time
}

// New creates and registers the metrics with the given registerer. Use
// prometheus.NewRegistry in tests to avoid default-registry collisions.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	m := &Metrics{
		startTime: time.Now(),

		SessionsActive: factory.NewGauge(prometheus.GaugeOpts{
			Name: "remconsd_sessions_active",
			Help: "Number of live telnet sessions",
		}),
		SessionsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "remconsd_sessions_total",
			Help: "Total number of telnet sessions accepted",
		}),

		BytesIn: factory.NewCounter(prometheus.CounterOpts{
			Name: "remconsd_bytes_in_total",
			Help: "Decoded bytes received from peers",
		}),
		BytesOut: factory.NewCounter(prometheus.CounterOpts{
			Name: "remconsd_bytes_out_total",
			Help: "Bytes submitted to the send path",
		}),

		ClientAttaches: factory.NewCounter(prometheus.CounterOpts{
			Name: "remconsd_client_attaches_total",
			Help: "Local client attaches to sessions",
		}),
		AttachRejects: factory.NewCounter(prometheus.CounterOpts{
			Name: "remconsd_attach_rejects_total",
			Help: "Attach attempts refused (unknown or zombie session)",
		}),

		Uptime: factory.NewGauge(prometheus.GaugeOpts{
			Name: "remconsd_uptime_seconds",
			Help: "Daemon uptime in seconds",
		}),
	}

	return m
}

// UpdateUptime refreshes the uptime gauge.
func (m *Metrics) UpdateUptime() {
	m.Uptime.Set(time.Since(m.startTime).Seconds())
}
