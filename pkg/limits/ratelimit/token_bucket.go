package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// TokenBucket implements the token bucket rate limiting algorithm.
//
// The token bucket allows bursts up to the capacity while maintaining
// an average rate over time. Tokens are added continuously at the refill
// rate and kept as a float so that slow windows (tokens per day) refill
// smoothly instead of in whole-token steps.
//
// Elapsed time is measured with the monotonic clock reading carried by
// time.Time, so wall-clock adjustments never add or remove tokens.
//
// # Algorithm
//
//  1. Refill: tokens += elapsed_seconds * refillRate, clamped to capacity
//  2. If tokens >= n: subtract n and return
//  3. Otherwise wait (n - tokens) / refillRate, then go back to 1
//
// Step 3 re-checks after every sleep because concurrent acquirers may have
// consumed the refilled tokens in the meantime.
//
// # Thread Safety
//
// TokenBucket is thread-safe. A sync.Mutex guards every check-and-subtract;
// waiting happens outside the lock.
type TokenBucket struct {
	capacity   float64   // Maximum tokens in bucket
	tokens     float64   // Current available tokens, always in [0, capacity]
	refillRate float64   // Tokens added per second
	lastRefill time.Time // Last time tokens were refilled
	mu         sync.Mutex

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// NewTokenBucket creates a new token bucket that starts full.
//
// Parameters:
//   - capacity: Maximum number of tokens in the bucket (burst size)
//   - refillRate: Number of tokens added per second (average rate)
//
// Example:
//
//	// 60 requests/minute, burst up to 60
//	bucket := NewTokenBucket(60, 1)
//
//	// 100k tokens/day
//	bucket := NewTokenBucket(100000, 100000.0/86400)
func NewTokenBucket(capacity, refillRate float64) *TokenBucket {
	if capacity < 0 {
		capacity = 0
	}
	if refillRate < 0 {
		refillRate = 0
	}
	return &TokenBucket{
		capacity:   capacity,
		tokens:     capacity, // Start with full bucket
		refillRate: refillRate,
		lastRefill: time.Now(),
		now:        time.Now,
		sleep:      sleepContext,
	}
}

// Acquire blocks until n tokens are available, then consumes them.
// It returns the total time spent waiting.
//
// Only the calling goroutine is suspended. If ctx ends while waiting, the
// tokens are not consumed and ctx.Err() is returned along with the time
// already waited. Requests larger than the bucket capacity can never be
// satisfied and fail with ErrExceedsCapacity.
func (tb *TokenBucket) Acquire(ctx context.Context, n float64) (time.Duration, error) {
	if n <= 0 {
		return 0, nil
	}
	if n > tb.capacity {
		return 0, fmt.Errorf("%w: requested %.0f, capacity %.0f", ErrExceedsCapacity, n, tb.capacity)
	}

	var waited time.Duration
	for {
		if err := ctx.Err(); err != nil {
			return waited, err
		}

		wait, ok := tb.tryTake(n)
		if ok {
			return waited, nil
		}

		start := tb.now()
		if err := tb.sleep(ctx, wait); err != nil {
			return waited + tb.now().Sub(start), err
		}
		waited += tb.now().Sub(start)
	}
}

// TryAcquire consumes n tokens if they are available right now.
// Returns true if tokens were available and consumed, false otherwise.
func (tb *TokenBucket) TryAcquire(n float64) bool {
	_, ok := tb.tryTake(n)
	return ok
}

// tryTake refills, then either consumes n tokens or reports how long the
// caller should wait before trying again.
func (tb *TokenBucket) tryTake(n float64) (time.Duration, bool) {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	tb.refillLocked()

	if tb.tokens >= n {
		tb.tokens -= n
		return 0, true
	}

	return tb.waitLocked(n), false
}

// Available returns the number of tokens currently available.
func (tb *TokenBucket) Available() float64 {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	tb.refillLocked()
	return tb.tokens
}

// Capacity returns the maximum bucket capacity.
func (tb *TokenBucket) Capacity() float64 {
	return tb.capacity
}

// RefillRate returns the refill rate in tokens per second.
func (tb *TokenBucket) RefillRate() float64 {
	return tb.refillRate
}

// Reset resets the bucket to full capacity.
// This is useful for testing or manual limit resets.
func (tb *TokenBucket) Reset() {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	tb.tokens = tb.capacity
	tb.lastRefill = tb.now()
}

// TimeUntilAvailable returns how long until n tokens will be available,
// assuming no other consumer takes them first.
// Returns 0 if tokens are immediately available.
func (tb *TokenBucket) TimeUntilAvailable(n float64) time.Duration {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	tb.refillLocked()

	if tb.tokens >= n {
		return 0
	}
	return tb.waitLocked(n)
}

// waitLocked computes the refill time for the missing tokens.
// Caller must hold lock.
func (tb *TokenBucket) waitLocked(n float64) time.Duration {
	if tb.refillRate <= 0 {
		// Never refills; callers still poll so that Reset can unblock them.
		return time.Second
	}

	secondsNeeded := (n - tb.tokens) / tb.refillRate
	wait := time.Duration(secondsNeeded * float64(time.Second))
	if wait < time.Millisecond {
		wait = time.Millisecond
	}
	return wait
}

// refillLocked adds tokens based on elapsed time since last refill.
// Caller must hold lock.
func (tb *TokenBucket) refillLocked() {
	now := tb.now()
	elapsed := now.Sub(tb.lastRefill)
	if elapsed <= 0 {
		return
	}

	tb.tokens += elapsed.Seconds() * tb.refillRate
	if tb.tokens > tb.capacity {
		tb.tokens = tb.capacity
	}
	tb.lastRefill = now
}

// sleepContext blocks for d or until ctx is done.
func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
