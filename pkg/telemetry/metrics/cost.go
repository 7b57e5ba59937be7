package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"mercator-hq/relay/pkg/limits/budget"
)

// CostMetrics tracks spend and budget state.
//
// Metrics:
//   - relay_spend_usd_total: recorded spend in USD by model
//   - relay_cost_per_call_usd: cost distribution per call (histogram)
//   - relay_budget_spend_usd: current spend by period (daily, monthly)
//   - relay_budget_limit_usd: configured limit by period (0 = unlimited)
//   - relay_budget_utilization_ratio: spend/limit by period
type CostMetrics struct {
	spendTotal  *prometheus.CounterVec
	costPerCall *prometheus.HistogramVec

	budgetSpend       *prometheus.GaugeVec
	budgetLimit       *prometheus.GaugeVec
	budgetUtilization *prometheus.GaugeVec
}

// NewCostMetrics creates and registers cost metrics with the provided registry.
func NewCostMetrics(cfg Config, registry *prometheus.Registry) *CostMetrics {
	cm := &CostMetrics{
		spendTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "spend_usd_total",
				Help:      "Total recorded spend in USD by model",
			},
			[]string{"model"},
		),

		costPerCall: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "cost_per_call_usd",
				Help:      "Cost distribution per call in USD",
				// $0.001 to $10
				Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0, 5.0, 10.0},
			},
			[]string{"model"},
		),

		budgetSpend: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "budget_spend_usd",
				Help:      "Current spend in USD for the budget period",
			},
			[]string{"period"},
		),

		budgetLimit: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "budget_limit_usd",
				Help:      "Configured budget limit in USD (0 means unlimited)",
			},
			[]string{"period"},
		),

		budgetUtilization: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "budget_utilization_ratio",
				Help:      "Spend divided by limit for the budget period",
			},
			[]string{"period"},
		),
	}

	registry.MustRegister(
		cm.spendTotal,
		cm.costPerCall,
		cm.budgetSpend,
		cm.budgetLimit,
		cm.budgetUtilization,
	)

	return cm
}

// RecordSpend records the spend of one call.
func (cm *CostMetrics) RecordSpend(model string, cost float64) {
	cm.spendTotal.WithLabelValues(model).Add(cost)
	cm.costPerCall.WithLabelValues(model).Observe(cost)
}

// UpdateBudget sets the budget gauges from a status snapshot.
func (cm *CostMetrics) UpdateBudget(status budget.Status) {
	cm.setPeriod(budget.LimitDaily, status.DailySpend, status.DailyLimit, status.DailyPercentage)
	cm.setPeriod(budget.LimitMonthly, status.MonthlySpend, status.MonthlyLimit, status.MonthlyPercentage)
}

func (cm *CostMetrics) setPeriod(period string, spend, limit, ratio float64) {
	cm.budgetSpend.WithLabelValues(period).Set(spend)
	cm.budgetLimit.WithLabelValues(period).Set(limit)
	cm.budgetUtilization.WithLabelValues(period).Set(ratio)
}
