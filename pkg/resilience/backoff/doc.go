// Package backoff implements bounded retry with exponential backoff.
//
// # Delay
//
// The wait before retry n (0-indexed) is
//
//	min(Base * Factor^n, Max)
//
// optionally multiplied by a uniform jitter factor in [0.75, 1.25). Jitter is
// applied after the cap, so a jittered delay can exceed Max by up to 25%.
//
// # Classification
//
// An error is retried only while attempts remain and only if it is a
// RetryableError, matches one of Config.Retryable via errors.Is, or satisfies
// Config.RetryIf. Context cancellation is never retried. A retry-after hint
// carried anywhere in the error chain (RetryAfterHint() time.Duration)
// overrides the computed delay for that wait.
//
// # Usage
//
//	policy := backoff.New(backoff.Config{
//	    MaxRetries: 3,
//	    Base:       500 * time.Millisecond,
//	    Factor:     2,
//	    Max:        10 * time.Second,
//	    Jitter:     true,
//	    Retryable:  providers.RetryableKinds(),
//	})
//
//	text, err := backoff.Retry(ctx, policy, "gpt-4o", func(ctx context.Context) (string, error) {
//	    return client.Complete(ctx, prompt)
//	})
//
// The last error is returned unchanged; swallowing failures is the job of
// the fallback chain, not of this package.
package backoff
