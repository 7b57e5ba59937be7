package backoff

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// RetryableError marks an error as transient and safe to retry.
//
// RetryAfter carries the server-advised wait, if the failed call returned
// one. When non-zero it replaces the computed backoff delay for the next wait.
type RetryableError struct {
	Err        error
	RetryAfter time.Duration
}

// Retryable wraps err as a RetryableError. A zero after means no hint.
func Retryable(err error, after time.Duration) error {
	if err == nil {
		return nil
	}
	return &RetryableError{Err: err, RetryAfter: after}
}

// Error implements the error interface.
func (e *RetryableError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("retryable (after %s): %v", e.RetryAfter, e.Err)
	}
	return fmt.Sprintf("retryable: %v", e.Err)
}

// Unwrap returns the wrapped error.
func (e *RetryableError) Unwrap() error {
	return e.Err
}

// RetryAfterHint returns the server-advised wait.
func (e *RetryableError) RetryAfterHint() time.Duration {
	return e.RetryAfter
}

// retryAfterHinter is implemented by errors that carry a server-advised wait,
// such as providers.RateLimitError.
type retryAfterHinter interface {
	RetryAfterHint() time.Duration
}

// RetryAfter returns the first positive retry-after hint found in err's chain.
func RetryAfter(err error) (time.Duration, bool) {
	for err != nil {
		if h, ok := err.(retryAfterHinter); ok {
			if d := h.RetryAfterHint(); d > 0 {
				return d, true
			}
		}
		err = errors.Unwrap(err)
	}
	return 0, false
}

// IsContextError reports whether err is (or wraps) a context cancellation or
// deadline error. Such errors are never retried.
func IsContextError(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
