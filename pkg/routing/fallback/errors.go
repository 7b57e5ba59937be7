package fallback

import (
	"errors"
	"fmt"
	"strings"
)

// Common fallback errors that can be checked with errors.Is().
var (
	// ErrNoCandidates is returned when a chain is built without candidates.
	ErrNoCandidates = errors.New("no fallback candidates configured")

	// ErrInvalidCandidate is returned for a candidate with an empty name,
	// a nil invoker, or a duplicate name.
	ErrInvalidCandidate = errors.New("invalid fallback candidate")

	// ErrAllCandidatesFailed is matched by AllCandidatesFailedError.
	ErrAllCandidatesFailed = errors.New("all fallback candidates failed")
)

// AllCandidatesFailedError is returned by Result.Err when every candidate
// in the chain failed.
type AllCandidatesFailedError struct {
	// Attempted contains the names of candidates that were tried, in order.
	Attempted []string

	// LastError is the error from the last attempted candidate.
	LastError error
}

// Error implements the error interface.
func (e *AllCandidatesFailedError) Error() string {
	return fmt.Sprintf("all fallback candidates failed (attempted: %s, last error: %v)",
		strings.Join(e.Attempted, ", "), e.LastError)
}

// Is implements error matching for errors.Is().
func (e *AllCandidatesFailedError) Is(target error) bool {
	return target == ErrAllCandidatesFailed
}

// Unwrap returns the last candidate's error for error chain traversal.
func (e *AllCandidatesFailedError) Unwrap() error {
	return e.LastError
}
