package fallback

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"mercator-hq/relay/pkg/resilience/backoff"
	"mercator-hq/relay/pkg/resilience/events"
	"mercator-hq/relay/pkg/telemetry/tracing"
)

// Chain tries candidates in a fixed order until one succeeds.
//
// Each candidate runs under the chain's backoff policy. A candidate that
// still fails after its retries is recorded and the chain moves on; the
// failure is not returned. Cancellation of the caller's context is the one
// exception and always propagates.
//
// A Chain is immutable after construction and safe for concurrent use.
type Chain[T any] struct {
	candidates []Candidate[T]
	opts       options
	stats      *atomicStats
}

type options struct {
	policy     *backoff.Policy
	onFallback func(from, to string, err error)
	observer   events.Observer
	tracer     trace.Tracer
	logger     *slog.Logger
}

// Option configures a Chain.
type Option func(*options)

// WithPolicy sets the backoff policy applied to every candidate. The
// default is backoff.NoRetry(): one call per candidate.
func WithPolicy(p *backoff.Policy) Option {
	return func(o *options) {
		if p != nil {
			o.policy = p
		}
	}
}

// WithOnFallback registers f to be called once per transition between
// candidates with the failing candidate, the next one and the error.
func WithOnFallback(f func(from, to string, err error)) Option {
	return func(o *options) {
		o.onFallback = f
	}
}

// WithObserver reports fallback transitions to obs.
func WithObserver(obs events.Observer) Option {
	return func(o *options) {
		o.observer = obs
	}
}

// WithTracer records a span per invocation and per candidate.
func WithTracer(t trace.Tracer) Option {
	return func(o *options) {
		if t != nil {
			o.tracer = t
		}
	}
}

// WithLogger sets the chain's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// New creates a chain over candidates, tried in the given order. It returns
// ErrNoCandidates for an empty list and ErrInvalidCandidate for an empty
// name, a nil invoker or a duplicate name.
func New[T any](candidates []Candidate[T], opts ...Option) (*Chain[T], error) {
	if len(candidates) == 0 {
		return nil, ErrNoCandidates
	}

	seen := make(map[string]bool, len(candidates))
	for i, c := range candidates {
		switch {
		case c.Name == "":
			return nil, fmt.Errorf("%w: candidate %d has no name", ErrInvalidCandidate, i)
		case c.Invoker == nil:
			return nil, fmt.Errorf("%w: candidate %q has no invoker", ErrInvalidCandidate, c.Name)
		case seen[c.Name]:
			return nil, fmt.Errorf("%w: duplicate candidate %q", ErrInvalidCandidate, c.Name)
		}
		seen[c.Name] = true
	}

	o := options{
		tracer: noop.NewTracerProvider().Tracer(""),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.policy == nil {
		o.policy = backoff.NoRetry(backoff.WithLogger(o.logger))
	}
	o.logger = o.logger.With("component", "fallback")

	return &Chain[T]{
		candidates: append([]Candidate[T](nil), candidates...),
		opts:       o,
		stats:      newAtomicStats(),
	}, nil
}

// Names returns the candidate names in order.
func (c *Chain[T]) Names() []string {
	names := make([]string, len(c.candidates))
	for i, cand := range c.candidates {
		names[i] = cand.Name
	}
	return names
}

// Policy returns the backoff policy applied to each candidate.
func (c *Chain[T]) Policy() *backoff.Policy {
	return c.opts.policy
}

// Stats returns a snapshot of the chain's counters.
func (c *Chain[T]) Stats() Stats {
	return c.stats.snapshot()
}

// ResetStats zeroes the chain's counters.
func (c *Chain[T]) ResetStats() {
	c.stats.reset()
}

// Invoke calls candidates in order until one succeeds.
//
// On success the Result names the candidate that served the call and lists
// every attempt so far; Warning is set when that candidate was not the
// first. When all candidates fail Invoke still returns a nil error: the
// Result has Success=false, ModelUsed=ModelNone and the last error's message
// as Warning (Result.Err builds an error from it).
//
// If ctx is cancelled, Invoke stops and returns the partial Result together
// with ctx.Err().
func (c *Chain[T]) Invoke(ctx context.Context, prompt string) (*Result[T], error) {
	res := &Result[T]{
		ModelUsed:    ModelNone,
		InvocationID: uuid.NewString(),
	}

	ctx, span := c.opts.tracer.Start(ctx, "fallback.invoke",
		trace.WithAttributes(
			attribute.String(tracing.AttrInvocationID, res.InvocationID),
			attribute.StringSlice(tracing.AttrCandidates, c.Names()),
		),
	)
	defer span.End()

	var lastErr error
	for i, cand := range c.candidates {
		if err := ctx.Err(); err != nil {
			tracing.SetError(span, err)
			tracing.SetStatus(span, err)
			return res, err
		}

		attempt := c.invokeCandidate(ctx, cand, prompt, res)
		res.Attempts = append(res.Attempts, attempt.Attempt)

		if attempt.Success {
			res.Success = true
			res.Value = attempt.value
			res.ModelUsed = cand.Name
			if i > 0 {
				res.Warning = fmt.Sprintf("served by fallback candidate %q after %d failed candidate(s)", cand.Name, i)
				c.opts.logger.Warn("call served by fallback candidate",
					"invocation_id", res.InvocationID,
					"candidate", cand.Name,
					"failed", i,
				)
			}
			c.stats.record(res.Attempts, true)
			tracing.SetFallbackResult(span, res.ModelUsed, len(res.Attempts), res.Degraded())
			tracing.SetStatus(span, nil)
			return res, nil
		}

		lastErr = attempt.Err
		if ctxErr := ctx.Err(); ctxErr != nil {
			tracing.SetError(span, ctxErr)
			tracing.SetStatus(span, ctxErr)
			return res, ctxErr
		}

		if i+1 < len(c.candidates) {
			c.transition(res.InvocationID, cand.Name, c.candidates[i+1].Name, attempt.Err)
		}
	}

	res.Warning = lastErr.Error()
	c.stats.record(res.Attempts, false)

	c.opts.logger.Error("all fallback candidates failed",
		"invocation_id", res.InvocationID,
		"attempted", len(res.Attempts),
		"error", lastErr,
	)
	tracing.SetFallbackResult(span, res.ModelUsed, len(res.Attempts), res.Degraded())
	tracing.SetError(span, lastErr)
	tracing.SetStatus(span, lastErr)
	return res, nil
}

// candidateAttempt carries the value alongside the recorded Attempt.
type candidateAttempt[T any] struct {
	Attempt
	value T
}

// invokeCandidate runs one candidate under the backoff policy.
func (c *Chain[T]) invokeCandidate(ctx context.Context, cand Candidate[T], prompt string, res *Result[T]) candidateAttempt[T] {
	ctx, span := c.opts.tracer.Start(ctx, "fallback.candidate",
		trace.WithAttributes(
			attribute.String(tracing.AttrCandidate, cand.Name),
			attribute.String(tracing.AttrInvocationID, res.InvocationID),
		),
	)
	defer span.End()

	calls := 0
	start := time.Now()
	value, err := backoff.Retry(ctx, c.opts.policy, cand.Name, func(ctx context.Context) (T, error) {
		calls++
		return cand.Invoker.Invoke(ctx, prompt)
	})

	attempt := candidateAttempt[T]{
		Attempt: Attempt{
			Name:     cand.Name,
			Success:  err == nil,
			Err:      err,
			Calls:    calls,
			Duration: time.Since(start),
		},
		value: value,
	}

	if calls > 1 {
		tracing.SetRetryAttribute(span, calls-1)
	}
	tracing.SetError(span, err)
	tracing.SetStatus(span, err)

	return attempt
}

// transition reports a move from one candidate to the next.
func (c *Chain[T]) transition(invocationID, from, to string, err error) {
	c.opts.logger.Info("falling back to next candidate",
		"invocation_id", invocationID,
		"from", from,
		"to", to,
		"error", err,
	)

	if c.opts.onFallback != nil {
		c.opts.onFallback(from, to, err)
	}

	events.Emit(c.opts.observer, events.Event{
		Kind: events.KindFallback,
		Name: from,
		From: from,
		To:   to,
		Err:  err,
	})
}
