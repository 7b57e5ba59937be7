package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"mercator-hq/relay/pkg/limits/budget"
	"mercator-hq/relay/pkg/resilience/events"
)

// Config configures metric naming.
type Config struct {
	// Enabled turns recording on. A disabled collector still registers its
	// metrics so the endpoint shape does not change.
	Enabled bool

	// Namespace is the metric name prefix. Default: "relay"
	Namespace string

	// Subsystem is the optional metric subsystem.
	Subsystem string

	// CallDurationBuckets are histogram buckets for call latency (seconds).
	CallDurationBuckets []float64
}

// Collector owns the Prometheus registry for relay. It is an
// events.Observer, so it can be attached to backoff policies, fallback
// chains, budget enforcers and executors directly.
//
// All methods are safe for concurrent use.
type Collector struct {
	enabled  bool
	registry *prometheus.Registry

	resilience *ResilienceMetrics
	calls      *CallMetrics
	costs      *CostMetrics
}

// NewCollector creates a collector and registers its metrics. A nil
// registry creates a fresh one.
//
// Example:
//
//	collector := metrics.NewCollector(metrics.Config{Enabled: true}, nil)
//	chain, _ := fallback.New(candidates, fallback.WithObserver(collector))
//	http.Handle("/metrics", collector.Handler())
func NewCollector(cfg Config, registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}
	if cfg.Namespace == "" {
		cfg.Namespace = "relay"
	}
	if len(cfg.CallDurationBuckets) == 0 {
		// model calls: 100ms to 60s
		cfg.CallDurationBuckets = []float64{0.1, 0.25, 0.5, 1.0, 2.0, 5.0, 10.0, 30.0, 60.0}
	}

	return &Collector{
		enabled:    cfg.Enabled,
		registry:   registry,
		resilience: NewResilienceMetrics(cfg, registry),
		calls:      NewCallMetrics(cfg, registry),
		costs:      NewCostMetrics(cfg, registry),
	}
}

// Observe implements events.Observer.
func (c *Collector) Observe(e events.Event) {
	if !c.enabled {
		return
	}
	c.resilience.Observe(e)
}

// RecordCall records the outcome of one executed call.
//
// Parameters:
//   - model: the model that served the call, or "none"
//   - status: "success", "degraded", "failed" or "rejected"
//   - duration: wall time of the whole call including retries
//   - cost: recorded spend in USD (0 when nothing was spent)
func (c *Collector) RecordCall(model, status string, duration time.Duration, cost float64) {
	if !c.enabled {
		return
	}
	c.calls.Record(model, status, duration)
	if cost > 0 {
		c.costs.RecordSpend(model, cost)
	}
}

// UpdateBudget publishes a budget status snapshot. Its signature matches
// the budget.Reporter sink.
func (c *Collector) UpdateBudget(status budget.Status) {
	if !c.enabled {
		return
	}
	c.costs.UpdateBudget(status)
}

// Registry returns the underlying registry.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Enabled reports whether the collector records anything.
func (c *Collector) Enabled() bool {
	return c.enabled
}
