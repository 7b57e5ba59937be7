// Package providers contains the model-call boundary of the resilience layer.
//
// # Overview
//
// A Provider performs exactly one model call per Invoke. It does not retry
// and keeps no health state: retries are the backoff policy's job and
// fallback is the chain's. A Provider is a fallback.Invoker[*Completion], so
// providers can be placed directly into a fallback chain.
//
// HTTPProvider talks to any OpenAI-compatible chat completions endpoint
// using a pooled net/http client.
//
// # Error Classification
//
// Failures are returned as typed errors that match the kind sentinels via
// errors.Is:
//
//   - RateLimitError (429) matches ErrRateLimited and carries Retry-After
//   - TimeoutError matches ErrTimeout
//   - ServerError (5xx) matches ErrServerError
//   - ConnectionError matches ErrUnavailable
//   - AuthError (401/403) matches ErrAuth
//   - InvalidRequestError (other 4xx) matches ErrInvalidRequest
//
// RetryableKinds lists the first four, and is the usual value for
// backoff.Config.Retryable:
//
//	policy := backoff.New(backoff.Config{
//	    MaxRetries: 3,
//	    Base:       time.Second,
//	    Factor:     2,
//	    Max:        30 * time.Second,
//	    Jitter:     true,
//	    Retryable:  providers.RetryableKinds(),
//	})
//
// A RateLimitError's RetryAfter replaces the policy's computed delay for the
// next wait.
//
// # Basic Usage
//
//	p, err := providers.NewHTTPProvider(providers.Config{
//	    Name:    "gpt-4o-mini",
//	    BaseURL: "https://api.openai.com/v1",
//	    APIKey:  os.Getenv("OPENAI_API_KEY"),
//	    Timeout: 60 * time.Second,
//	})
//	if err != nil {
//	    return err
//	}
//
//	completion, err := p.Invoke(ctx, "Summarize this document...")
package providers
