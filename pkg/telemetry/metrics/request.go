package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Call statuses used as the status label.
const (
	StatusSuccess  = "success"
	StatusDegraded = "degraded"
	StatusFailed   = "failed"
	StatusRejected = "rejected"
)

// CallMetrics tracks executed calls.
//
// Metrics:
//   - relay_calls_total: calls by serving model and status
//   - relay_call_duration_seconds: call duration including retries and fallbacks
type CallMetrics struct {
	callsTotal   *prometheus.CounterVec
	callDuration *prometheus.HistogramVec
}

// NewCallMetrics creates and registers call metrics with the provided registry.
func NewCallMetrics(cfg Config, registry *prometheus.Registry) *CallMetrics {
	cm := &CallMetrics{
		callsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "calls_total",
				Help:      "Total number of calls by serving model and status",
			},
			[]string{"model", "status"},
		),

		callDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "call_duration_seconds",
				Help:      "Duration of calls in seconds, including retries and fallbacks",
				Buckets:   cfg.CallDurationBuckets,
			},
			[]string{"model"},
		),
	}

	registry.MustRegister(
		cm.callsTotal,
		cm.callDuration,
	)

	return cm
}

// Record records one call.
func (cm *CallMetrics) Record(model, status string, duration time.Duration) {
	cm.callsTotal.WithLabelValues(model, status).Inc()
	cm.callDuration.WithLabelValues(model).Observe(duration.Seconds())
}
