package providers

import (
	"errors"
	"fmt"
	"time"
)

// Error kinds that can be checked with errors.Is(). The first four are
// transient and returned by RetryableKinds.
var (
	// ErrRateLimited matches RateLimitError (HTTP 429).
	ErrRateLimited = errors.New("provider rate limited")

	// ErrTimeout matches TimeoutError.
	ErrTimeout = errors.New("provider timeout")

	// ErrServerError matches ServerError (HTTP 5xx).
	ErrServerError = errors.New("provider server error")

	// ErrUnavailable matches ConnectionError (the provider could not be reached).
	ErrUnavailable = errors.New("provider unavailable")

	// ErrAuth matches AuthError (HTTP 401/403).
	ErrAuth = errors.New("provider authentication failed")

	// ErrInvalidRequest matches InvalidRequestError (other HTTP 4xx).
	ErrInvalidRequest = errors.New("provider rejected request")
)

// RetryableKinds returns the error kinds worth retrying: rate limits,
// timeouts, server errors and connection failures. Use it as
// backoff.Config.Retryable.
func RetryableKinds() []error {
	return []error{ErrRateLimited, ErrTimeout, ErrServerError, ErrUnavailable}
}

// AuthError represents an authentication failure.
// This occurs when the provider rejects the API key (HTTP 401 or 403).
type AuthError struct {
	// Provider is the name of the provider that rejected authentication
	Provider string

	// Message is the error message from the provider
	Message string
}

// Error implements the error interface.
func (e *AuthError) Error() string {
	return fmt.Sprintf("provider %q authentication failed: %s", e.Provider, e.Message)
}

// Is implements error matching for errors.Is().
func (e *AuthError) Is(target error) bool {
	return target == ErrAuth
}

// RateLimitError represents a rate limit exceeded error (HTTP 429).
// It includes the retry-after duration if provided by the provider.
type RateLimitError struct {
	// Provider is the name of the provider that rate limited the request
	Provider string

	// RetryAfter is the duration to wait before retrying (if provided)
	RetryAfter time.Duration

	// Message is the error message from the provider
	Message string
}

// Error implements the error interface.
func (e *RateLimitError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("provider %q rate limit exceeded (retry after %s): %s",
			e.Provider, e.RetryAfter, e.Message)
	}
	return fmt.Sprintf("provider %q rate limit exceeded: %s", e.Provider, e.Message)
}

// Is implements error matching for errors.Is().
func (e *RateLimitError) Is(target error) bool {
	return target == ErrRateLimited
}

// RetryAfterHint returns the server-advised wait. Backoff policies use it in
// place of the computed delay when it is positive.
func (e *RateLimitError) RetryAfterHint() time.Duration {
	return e.RetryAfter
}

// TimeoutError represents a request timeout.
// This occurs when a request exceeds the configured timeout duration.
type TimeoutError struct {
	// Provider is the name of the provider where the timeout occurred
	Provider string

	// Timeout is the configured timeout duration
	Timeout time.Duration
}

// Error implements the error interface.
func (e *TimeoutError) Error() string {
	return fmt.Sprintf("provider %q request timeout after %s", e.Provider, e.Timeout)
}

// Is implements error matching for errors.Is().
func (e *TimeoutError) Is(target error) bool {
	return target == ErrTimeout
}

// ServerError represents a provider-side failure (HTTP 5xx).
type ServerError struct {
	// Provider is the name of the provider
	Provider string

	// StatusCode is the HTTP status code
	StatusCode int

	// Message is the error body returned by the provider
	Message string
}

// Error implements the error interface.
func (e *ServerError) Error() string {
	return fmt.Sprintf("provider %q server error (status %d): %s", e.Provider, e.StatusCode, e.Message)
}

// Is implements error matching for errors.Is().
func (e *ServerError) Is(target error) bool {
	return target == ErrServerError
}

// InvalidRequestError represents a request the provider refused (HTTP 4xx
// other than 401, 403 and 429). Retrying it will not help.
type InvalidRequestError struct {
	// Provider is the name of the provider
	Provider string

	// StatusCode is the HTTP status code
	StatusCode int

	// Message is the error body returned by the provider
	Message string
}

// Error implements the error interface.
func (e *InvalidRequestError) Error() string {
	return fmt.Sprintf("provider %q rejected request (status %d): %s", e.Provider, e.StatusCode, e.Message)
}

// Is implements error matching for errors.Is().
func (e *InvalidRequestError) Is(target error) bool {
	return target == ErrInvalidRequest
}

// ConnectionError represents a transport failure before any response.
type ConnectionError struct {
	// Provider is the name of the provider
	Provider string

	// Cause is the underlying transport error
	Cause error
}

// Error implements the error interface.
func (e *ConnectionError) Error() string {
	return fmt.Sprintf("provider %q unreachable: %v", e.Provider, e.Cause)
}

// Is implements error matching for errors.Is().
func (e *ConnectionError) Is(target error) bool {
	return target == ErrUnavailable
}

// Unwrap returns the underlying error for error chain support.
func (e *ConnectionError) Unwrap() error {
	return e.Cause
}

// ParseError represents a response parsing failure.
// This occurs when the provider returns a malformed response.
type ParseError struct {
	// Provider is the name of the provider that returned the malformed response
	Provider string

	// RawResponse is the raw response body that failed to parse
	RawResponse string

	// Cause is the underlying parse error
	Cause error
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	return fmt.Sprintf("provider %q response parse error: %v", e.Provider, e.Cause)
}

// Unwrap returns the underlying error for error chain support.
func (e *ParseError) Unwrap() error {
	return e.Cause
}

// ClassifyStatus maps a non-2xx HTTP status to a typed error.
func ClassifyStatus(provider string, status int, body string, retryAfter time.Duration) error {
	switch {
	case status == 401 || status == 403:
		return &AuthError{Provider: provider, Message: body}
	case status == 429:
		return &RateLimitError{Provider: provider, RetryAfter: retryAfter, Message: body}
	case status == 408:
		return &TimeoutError{Provider: provider}
	case status >= 500:
		return &ServerError{Provider: provider, StatusCode: status, Message: body}
	default:
		return &InvalidRequestError{Provider: provider, StatusCode: status, Message: body}
	}
}
