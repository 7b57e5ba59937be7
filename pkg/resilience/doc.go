// Package resilience wires the resilience components into one call path.
//
// An Executor checks the budget, waits for rate limit capacity, runs a
// fallback chain (whose candidates retry under a backoff policy) and books
// the spend of the call that succeeded:
//
//	exec, err := resilience.NewExecutor(chain, limiter, enforcer,
//	    resilience.WithObserver(observer),
//	)
//	if err != nil {
//	    return err
//	}
//
//	outcome, err := exec.Execute(ctx, resilience.Request{
//	    Prompt:          prompt,
//	    Model:           "claude-3-5-sonnet",
//	    MaxOutputTokens: 1024,
//	})
//	switch {
//	case errors.Is(err, budget.ErrBudgetExceeded):
//	    // rejected before any call was made
//	case errors.Is(err, resilience.ErrAllFailed):
//	    // every candidate failed; outcome.Result lists the attempts
//	}
//
// The components live in their own packages: backoff (retry delays and
// classification), ratelimit (token buckets), fallback (ordered candidates),
// budget (spend limits) and events (the observer contract).
package resilience
