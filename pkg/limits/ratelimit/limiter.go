package ratelimit

import (
	"context"
	"fmt"
	"time"
)

// Limiter coordinates up to four token buckets:
//
//   - requests per minute (rpm)
//   - tokens per minute (tpm)
//   - requests per day (rpd)
//   - tokens per day (tpd)
//
// Acquire must satisfy every configured window before it returns. Buckets
// are waited on one after another rather than computing a single combined
// wait; this never under-throttles, at the cost of sometimes waiting a little
// longer than strictly needed when several windows are nearly empty.
type Limiter struct {
	// Request-based limits
	reqPerMinute *TokenBucket
	reqPerDay    *TokenBucket

	// Token-based limits
	tokensPerMinute *TokenBucket
	tokensPerDay    *TokenBucket

	// Configuration
	config Config
}

// NewLimiter creates a new rate limiter with the given configuration.
//
// Only positive limits in the config are enforced. Each bucket allows a
// burst of its full limit and refills evenly over its window.
//
// Example:
//
//	limiter := NewLimiter(Config{
//	    RequestsPerMinute: 500,
//	    TokensPerMinute:   100000,
//	    TokensPerDay:      5000000,
//	})
func NewLimiter(config Config) *Limiter {
	limiter := &Limiter{
		config: config,
	}

	limiter.reqPerMinute = newWindowBucket(config.RequestsPerMinute, WindowRequestsPerMinute)
	limiter.tokensPerMinute = newWindowBucket(config.TokensPerMinute, WindowTokensPerMinute)
	limiter.reqPerDay = newWindowBucket(config.RequestsPerDay, WindowRequestsPerDay)
	limiter.tokensPerDay = newWindowBucket(config.TokensPerDay, WindowTokensPerDay)

	return limiter
}

// newWindowBucket returns nil for unconfigured windows.
func newWindowBucket(limit float64, w Window) *TokenBucket {
	if limit <= 0 {
		return nil
	}
	return NewTokenBucket(limit, limit/w.Duration().Seconds())
}

// Acquire takes one request and the given number of tokens from every
// configured window, waiting as needed. It returns the longest individual
// wait.
//
// If ctx ends while waiting, Acquire returns ctx.Err(). Capacity already
// taken from earlier windows is not returned.
func (l *Limiter) Acquire(ctx context.Context, tokens float64) (time.Duration, error) {
	steps := []struct {
		window Window
		bucket *TokenBucket
		n      float64
	}{
		{WindowRequestsPerMinute, l.reqPerMinute, 1},
		{WindowRequestsPerDay, l.reqPerDay, 1},
		{WindowTokensPerMinute, l.tokensPerMinute, tokens},
		{WindowTokensPerDay, l.tokensPerDay, tokens},
	}

	var maxWait time.Duration
	for _, step := range steps {
		if step.bucket == nil {
			continue
		}

		waited, err := step.bucket.Acquire(ctx, step.n)
		if waited > maxWait {
			maxWait = waited
		}
		if err != nil {
			return maxWait, fmt.Errorf("%s window: %w", step.window, err)
		}
	}

	return maxWait, nil
}

// Config returns the limiter configuration.
func (l *Limiter) Config() Config {
	return l.config
}

// Status returns a snapshot of every configured window.
func (l *Limiter) Status() map[Window]WindowStatus {
	status := make(map[Window]WindowStatus, 4)
	for w, b := range l.buckets() {
		status[w] = WindowStatus{
			Capacity:   b.Capacity(),
			Available:  b.Available(),
			RefillRate: b.RefillRate(),
		}
	}
	return status
}

// Reset refills all windows. This is primarily for testing.
func (l *Limiter) Reset() {
	for _, b := range l.buckets() {
		b.Reset()
	}
}

// buckets returns the configured buckets keyed by window.
func (l *Limiter) buckets() map[Window]*TokenBucket {
	all := map[Window]*TokenBucket{
		WindowRequestsPerMinute: l.reqPerMinute,
		WindowTokensPerMinute:   l.tokensPerMinute,
		WindowRequestsPerDay:    l.reqPerDay,
		WindowTokensPerDay:      l.tokensPerDay,
	}
	for w, b := range all {
		if b == nil {
			delete(all, w)
		}
	}
	return all
}
