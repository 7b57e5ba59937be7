package ratelimit

import (
	"errors"
	"time"
)

// Config contains the rate limits enforced by a Limiter.
// Zero values mean the dimension is unconstrained.
type Config struct {
	// RequestsPerMinute limits requests per minute.
	RequestsPerMinute float64

	// TokensPerMinute limits tokens (prompt+completion) per minute.
	TokensPerMinute float64

	// RequestsPerDay limits requests per day.
	RequestsPerDay float64

	// TokensPerDay limits tokens per day.
	TokensPerDay float64
}

// IsZero reports whether no window is configured.
func (c Config) IsZero() bool {
	return c.RequestsPerMinute <= 0 && c.TokensPerMinute <= 0 &&
		c.RequestsPerDay <= 0 && c.TokensPerDay <= 0
}

// Window names a rate limiting dimension.
type Window string

const (
	WindowRequestsPerMinute Window = "rpm"
	WindowTokensPerMinute   Window = "tpm"
	WindowRequestsPerDay    Window = "rpd"
	WindowTokensPerDay      Window = "tpd"
)

// Duration returns the period the window's limit is expressed over.
func (w Window) Duration() time.Duration {
	switch w {
	case WindowRequestsPerDay, WindowTokensPerDay:
		return 24 * time.Hour
	default:
		return time.Minute
	}
}

// WindowStatus is a snapshot of one configured window.
type WindowStatus struct {
	// Capacity is the configured limit for the window.
	Capacity float64

	// Available is how many requests/tokens can be taken right now.
	Available float64

	// RefillRate is the refill rate in units per second.
	RefillRate float64
}

// ErrExceedsCapacity is returned when a single acquisition asks for more
// than a bucket can ever hold.
var ErrExceedsCapacity = errors.New("request exceeds rate limit capacity")
