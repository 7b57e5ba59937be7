// Package limits groups the spend and rate controls of the call layer.
//
// # Sub-packages
//
//   - ratelimit: token buckets for requests and tokens per minute and day
//   - budget: per-request, daily and monthly spend limits with a cron reporter
//
// Both are in-process and safe for concurrent use. Limits are checked before
// a call is attempted: the budget first (a rejected call never waits), then
// the rate limiter.
//
//	enforcer := budget.NewEnforcer(budget.Config{DailyLimit: 50}, calculator)
//	limiter := ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: 60})
//
//	if err := enforcer.CheckBudget(estimate); err != nil {
//	    return err
//	}
//	if _, err := limiter.Acquire(ctx, float64(tokens)); err != nil {
//	    return err
//	}
package limits
