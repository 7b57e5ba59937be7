// Package ratelimit provides blocking token bucket rate limiting for request
// and token based limits.
//
// # Overview
//
// The package has two layers:
//
//   - TokenBucket: a single float-valued bucket with lazy, monotonic refill
//   - Limiter: up to four buckets (rpm, tpm, rpd, tpd) acquired together
//
// # Token Bucket Algorithm
//
// The token bucket allows bursts up to the bucket capacity while
// maintaining an average rate over time. Acquire suspends the caller until
// enough tokens have refilled:
//
//	bucket := ratelimit.NewTokenBucket(10, 1) // 10 capacity, 1 refill/sec
//	waited, err := bucket.Acquire(ctx, 3)
//	if err != nil {
//	    // ctx was cancelled while waiting
//	}
//
// # Limiter
//
// The limiter takes one request plus the estimated token count from each
// configured window, one window at a time:
//
//	limiter := ratelimit.NewLimiter(ratelimit.Config{
//	    RequestsPerMinute: 60,
//	    TokensPerMinute:   90000,
//	})
//	waited, err := limiter.Acquire(ctx, 1200)
//
// # Thread Safety
//
// All types are safe for concurrent use. Waiting never holds a lock.
package ratelimit
