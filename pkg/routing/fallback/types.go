package fallback

import (
	"context"
	"time"
)

// ModelNone is Result.ModelUsed when every candidate failed.
const ModelNone = "none"

// Invoker performs one model call. Errors are classified by the chain's
// backoff policy; anything not retryable ends the candidate immediately.
type Invoker[T any] interface {
	Invoke(ctx context.Context, prompt string) (T, error)
}

// InvokerFunc adapts a function to the Invoker interface.
type InvokerFunc[T any] func(ctx context.Context, prompt string) (T, error)

// Invoke calls f(ctx, prompt).
func (f InvokerFunc[T]) Invoke(ctx context.Context, prompt string) (T, error) {
	return f(ctx, prompt)
}

// Candidate is a named invoker in a chain.
type Candidate[T any] struct {
	// Name identifies the candidate (usually the model name).
	Name string

	// Invoker performs the call.
	Invoker Invoker[T]
}

// Attempt records the outcome of one candidate within an invocation.
type Attempt struct {
	// Name is the candidate name.
	Name string

	// Success is true if the candidate produced a value.
	Success bool

	// Err is the candidate's final error after retries, nil on success.
	Err error

	// Calls is how many times the invoker was called (1 + retries).
	Calls int

	// Duration is the time spent on this candidate including retry waits.
	Duration time.Duration
}

// Result is the outcome of one Chain.Invoke call. It is not modified after
// Invoke returns.
type Result[T any] struct {
	// Success is true if any candidate succeeded.
	Success bool

	// Value is the successful candidate's value (zero value on failure).
	Value T

	// ModelUsed is the succeeding candidate's name, or ModelNone.
	ModelUsed string

	// Attempts lists every candidate tried, in order.
	Attempts []Attempt

	// Warning is set when a fallback candidate served the call, or to the
	// last error's message when all candidates failed.
	Warning string

	// InvocationID uniquely identifies this invocation in logs and traces.
	InvocationID string
}

// Degraded reports whether more than one candidate was attempted,
// regardless of the final outcome.
func (r *Result[T]) Degraded() bool {
	return len(r.Attempts) > 1
}

// Err returns an *AllCandidatesFailedError when no candidate succeeded,
// and nil otherwise.
func (r *Result[T]) Err() error {
	if r.Success {
		return nil
	}
	failed := &AllCandidatesFailedError{}
	for _, a := range r.Attempts {
		failed.Attempted = append(failed.Attempted, a.Name)
		failed.LastError = a.Err
	}
	return failed
}
