// Package metrics provides Prometheus metrics for relay.
//
// # Overview
//
// A Collector owns a prometheus.Registry and is fed from three places:
//
//   - resilience events, as an events.Observer (retries, fallbacks, budget
//     warnings and violations, rate limit waits)
//   - call outcomes recorded by the caller after each Execute
//   - budget status snapshots from budget.Reporter
//
// # Metrics
//
//   - relay_retries_total{name}
//   - relay_fallbacks_total{from,to}
//   - relay_budget_events_total{kind,limit_type}
//   - relay_rate_limit_wait_seconds
//   - relay_calls_total{model,status}
//   - relay_call_duration_seconds{model}
//   - relay_spend_usd_total{model}
//   - relay_cost_per_call_usd{model}
//   - relay_budget_spend_usd{period}, relay_budget_limit_usd{period},
//     relay_budget_utilization_ratio{period}
//
// # Usage
//
//	collector := metrics.NewCollector(metrics.Config{Enabled: true}, nil)
//
//	observer := events.Multi{collector, events.NewLogObserver(logger)}
//	reporter, _ := budget.NewReporter(enforcer, "", collector.UpdateBudget)
//
//	srv := collector.Server(":9090", metrics.DefaultPath)
//	go srv.ListenAndServe()
package metrics
