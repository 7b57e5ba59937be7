// Package fallback implements ordered model fallback.
//
// A Chain holds named candidates and tries them strictly in order. Each
// candidate gets the chain's backoff policy (one attempt by default); when a
// candidate is exhausted the chain records the failure and moves on. The
// first success is returned along with every attempt so far.
//
// # Degradation
//
// Result.Degraded is true whenever more than one candidate was tried, even
// if the call eventually succeeded. A degraded call was served by a model
// other than the preferred one, which callers usually want to surface.
//
// # Usage
//
//	chain, err := fallback.New([]fallback.Candidate[*providers.Completion]{
//	    {Name: "claude-3-5-sonnet", Invoker: primary},
//	    {Name: "gpt-4o-mini", Invoker: secondary},
//	},
//	    fallback.WithPolicy(policy),
//	    fallback.WithOnFallback(func(from, to string, err error) {
//	        log.Printf("falling back from %s to %s: %v", from, to, err)
//	    }),
//	)
//
//	res, err := chain.Invoke(ctx, prompt)
//	if err != nil {
//	    return err // ctx was cancelled
//	}
//	if !res.Success {
//	    return res.Err()
//	}
//
// # Errors
//
// Ordinary invoker failures never escape Invoke; they are recorded in
// Result.Attempts. Cancellation of the caller's context does escape, with
// the partial Result.
package fallback
