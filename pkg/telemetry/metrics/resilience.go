package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"mercator-hq/relay/pkg/resilience/events"
)

// ResilienceMetrics counts resilience events.
//
// Metrics:
//   - relay_retries_total: retries by candidate
//   - relay_fallbacks_total: fallback transitions by from/to candidate
//   - relay_budget_events_total: budget warnings and violations by limit type
//   - relay_rate_limit_wait_seconds: time spent waiting for rate limit capacity
type ResilienceMetrics struct {
	retries       *prometheus.CounterVec
	fallbacks     *prometheus.CounterVec
	budgetEvents  *prometheus.CounterVec
	rateLimitWait prometheus.Histogram
}

// NewResilienceMetrics creates and registers resilience metrics.
func NewResilienceMetrics(cfg Config, registry *prometheus.Registry) *ResilienceMetrics {
	rm := &ResilienceMetrics{
		retries: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "retries_total",
				Help:      "Total number of retries by candidate",
			},
			[]string{"name"},
		),

		fallbacks: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "fallbacks_total",
				Help:      "Total number of fallback transitions",
			},
			[]string{"from", "to"},
		),

		budgetEvents: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "budget_events_total",
				Help:      "Total number of budget warnings and violations",
			},
			[]string{"kind", "limit_type"},
		),

		rateLimitWait: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "rate_limit_wait_seconds",
				Help:      "Time spent waiting for rate limit capacity",
				Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12), // 10ms to ~20s
			},
		),
	}

	registry.MustRegister(
		rm.retries,
		rm.fallbacks,
		rm.budgetEvents,
		rm.rateLimitWait,
	)

	return rm
}

// Observe records e.
func (rm *ResilienceMetrics) Observe(e events.Event) {
	switch e.Kind {
	case events.KindRetry:
		rm.retries.WithLabelValues(e.Name).Inc()
	case events.KindFallback:
		rm.fallbacks.WithLabelValues(e.From, e.To).Inc()
	case events.KindBudgetWarning, events.KindBudgetViolation:
		rm.budgetEvents.WithLabelValues(string(e.Kind), e.LimitType).Inc()
	case events.KindRateLimitWait:
		rm.rateLimitWait.Observe(e.Wait.Seconds())
	}
}
