// Package metrics records request and session metrics for the server.
//
// A nil *Collector is valid and records nothing, so callers never need to
// check whether metrics are enabled.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome labels for handled requests.
const (
	OutcomeOK          = "ok"
	OutcomeError       = "error"
	OutcomeParseError  = "parse_error"
	OutcomeRateLimited = "rate_limited"
)

// MethodUnknown is the method label recorded for requests naming a method
// the server does not route.
const MethodUnknown = "unknown"

// Collector holds the server collectors.
type Collector struct {
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	sessionsActive  prometheus.Gauge
	sessionsTotal   prometheus.Counter
}

// NewCollector creates collectors registered with reg under namespace.
// A nil reg registers with the default Prometheus registry.
func NewCollector(namespace string, reg prometheus.Registerer) *Collector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	factory := promauto.With(reg)

	return &Collector{
		requestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "requests_total",
				Help:      "Total number of inbound requests by method and outcome",
			},
			[]string{"method", "outcome"},
		),
		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "request_duration_seconds",
				Help:      "Time spent handling a request in seconds",
				Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
			},
			[]string{"method"},
		),
		sessionsActive: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "sessions_active",
				Help:      "Number of open client sessions",
			},
		),
		sessionsTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "sessions_total",
				Help:      "Total number of accepted client sessions",
			},
		),
	}
}

// RecordRequest records one handled request.
func (c *Collector) RecordRequest(method, outcome string, duration time.Duration) {
	if c == nil {
		return
	}

	if method == "" {
		method = "unknown"
	}

	c.requestsTotal.WithLabelValues(method, outcome).Inc()
	c.requestDuration.WithLabelValues(method).Observe(duration.Seconds())
}

// SessionOpened records a new session.
func (c *Collector) SessionOpened() {
	if c == nil {
		return
	}

	c.sessionsActive.Inc()
	c.sessionsTotal.Inc()
}

// SessionClosed records a finished session.
func (c *Collector) SessionClosed() {
	if c == nil {
		return
	}

	c.sessionsActive.Dec()
}
