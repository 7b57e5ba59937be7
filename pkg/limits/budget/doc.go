// Package budget enforces spending limits on model calls.
//
// # Overview
//
// An Enforcer tracks spend in two calendar windows and checks each call
// against three optional limits:
//
//   - Per request: the cost of one call
//   - Daily: spend since 00:00 UTC today
//   - Monthly: spend since 00:00 UTC on the first of the month
//
// Windows reset lazily on every public call. The daily counter resets when
// the UTC date changes and the monthly counter when the UTC month changes;
// the two never reset together unless both boundaries were crossed.
//
// # Usage
//
//	enforcer := budget.NewEnforcer(budget.Config{
//	    DailyLimit:       50.00,  // $50/day
//	    MonthlyLimit:     1000.00, // $1000/month
//	    PerRequestLimit:  1.00,   // $1/call
//	    WarningThreshold: 0.8,    // Warn at 80%
//	}, calculator)
//
//	cost := enforcer.EstimateCost("gpt-4o", 1200, 400)
//	if err := enforcer.CheckBudget(cost); err != nil {
//	    // errors.Is(err, budget.ErrBudgetExceeded)
//	}
//
//	// ... make the call, then book what it actually cost
//	enforcer.RecordSpend(actual, "gpt-4o", map[string]string{"request_id": id})
//
// CheckBudget and RecordSpend are deliberately separate: recording never
// re-checks limits, so a call that was admitted is always booked.
//
// # Reporting
//
// Reporter snapshots Status on a cron schedule, logging it and feeding an
// optional sink such as a metrics gauge.
//
// # Thread Safety
//
// All Enforcer operations are serialized by a mutex; concurrent RecordSpend
// calls never lose an update.
package budget
