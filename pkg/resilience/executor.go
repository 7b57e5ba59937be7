package resilience

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"mercator-hq/relay/pkg/limits/budget"
	"mercator-hq/relay/pkg/limits/ratelimit"
	"mercator-hq/relay/pkg/processing/tokens"
	"mercator-hq/relay/pkg/resilience/events"
	"mercator-hq/relay/pkg/routing/fallback"
	"mercator-hq/relay/pkg/telemetry/tracing"
)

// ErrAllFailed is wrapped by Execute when every fallback candidate failed.
var ErrAllFailed = errors.New("all candidates failed")

// Request describes one logical model call.
type Request struct {
	// Prompt is passed to each candidate.
	Prompt string

	// Model is the pricing key for the pre-call estimate. Empty means the
	// first candidate's name.
	Model string

	// InputTokens is the prompt size. When zero it is estimated from Prompt.
	InputTokens int

	// MaxOutputTokens bounds the completion for estimation.
	MaxOutputTokens int

	// Metadata is copied into the spend record.
	Metadata map[string]string
}

// Outcome is everything Execute learned about a call.
type Outcome[T any] struct {
	// Result is the fallback result; nil when the call was rejected before
	// any candidate ran.
	Result *fallback.Result[T]

	// InputTokens and OutputTokens are the pre-call estimates.
	InputTokens  int
	OutputTokens int

	// EstimatedCost is the cost checked against the budget.
	EstimatedCost float64

	// RateLimitWait is how long the call waited for rate limit capacity.
	RateLimitWait time.Duration

	// Spend is the recorded spend, nil when nothing was recorded.
	Spend *budget.SpendRecord
}

// usageReporter is implemented by call results that know their actual
// token usage, such as *providers.Completion.
type usageReporter interface {
	Usage() (inputTokens, outputTokens int)
}

// modelReporter is implemented by call results that know which model
// served them, such as *providers.Completion.
type modelReporter interface {
	ServedModel() string
}

// Executor runs calls through budget check, rate limiting and the fallback
// chain, then books the spend. The limiter and enforcer are optional.
type Executor[T any] struct {
	chain     *fallback.Chain[T]
	limiter   *ratelimit.Limiter
	enforcer  *budget.Enforcer
	estimator tokens.Estimator
	observer  events.Observer
	tracer    trace.Tracer
	logger    *slog.Logger
}

type executorOptions struct {
	estimator tokens.Estimator
	observer  events.Observer
	tracer    trace.Tracer
	logger    *slog.Logger
}

// Option configures an Executor.
type Option func(*executorOptions)

// WithEstimator sets the token estimator used when a request has no
// InputTokens.
func WithEstimator(e tokens.Estimator) Option {
	return func(o *executorOptions) {
		if e != nil {
			o.estimator = e
		}
	}
}

// WithObserver reports rate limit waits to obs.
func WithObserver(obs events.Observer) Option {
	return func(o *executorOptions) {
		o.observer = obs
	}
}

// WithTracer records a span per Execute call.
func WithTracer(t trace.Tracer) Option {
	return func(o *executorOptions) {
		if t != nil {
			o.tracer = t
		}
	}
}

// WithLogger sets the executor's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *executorOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// NewExecutor creates an executor. chain is required; a nil limiter or
// enforcer disables that step.
func NewExecutor[T any](chain *fallback.Chain[T], limiter *ratelimit.Limiter, enforcer *budget.Enforcer, opts ...Option) (*Executor[T], error) {
	if chain == nil {
		return nil, errors.New("fallback chain is required")
	}

	o := executorOptions{
		estimator: tokens.NewSimpleEstimator(nil),
		tracer:    noop.NewTracerProvider().Tracer(""),
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(&o)
	}

	return &Executor[T]{
		chain:     chain,
		limiter:   limiter,
		enforcer:  enforcer,
		estimator: o.estimator,
		observer:  o.observer,
		tracer:    o.tracer,
		logger:    o.logger.With("component", "executor"),
	}, nil
}

// Execute performs one call:
//
//  1. estimate the cost and check it against the budget;
//  2. acquire rate limit capacity for the estimated tokens;
//  3. invoke the fallback chain;
//  4. on success, record the spend priced against the model that served
//     the call, using the value's reported usage when available.
//
// A budget rejection returns a budget.BudgetExceededError without calling
// any candidate. When all candidates fail the error wraps ErrAllFailed and
// the candidates' last error. The Outcome is returned in every case.
func (e *Executor[T]) Execute(ctx context.Context, req Request) (*Outcome[T], error) {
	model := req.Model
	if model == "" {
		model = e.chain.Names()[0]
	}

	outcome := &Outcome[T]{
		InputTokens:  req.InputTokens,
		OutputTokens: req.MaxOutputTokens,
	}
	if outcome.InputTokens <= 0 {
		est := e.estimator.EstimatePrompt(req.Prompt, model, req.MaxOutputTokens)
		outcome.InputTokens = est.PromptTokens
		outcome.OutputTokens = est.EstimatedCompletionTokens
	}

	ctx, span := e.tracer.Start(ctx, "resilience.execute",
		trace.WithAttributes(attribute.String(tracing.AttrModel, model)),
	)
	defer span.End()

	if e.enforcer != nil {
		outcome.EstimatedCost = e.enforcer.EstimateCost(model, outcome.InputTokens, outcome.OutputTokens)
		if err := e.enforcer.CheckBudget(outcome.EstimatedCost); err != nil {
			var exceeded *budget.BudgetExceededError
			if errors.As(err, &exceeded) {
				span.SetAttributes(attribute.String(tracing.AttrBudgetLimitType, exceeded.LimitType))
			}
			return outcome, e.fail(span, err)
		}
	}

	if e.limiter != nil {
		wait, err := e.limiter.Acquire(ctx, float64(outcome.InputTokens+outcome.OutputTokens))
		outcome.RateLimitWait = wait
		if wait > 0 {
			span.SetAttributes(attribute.Int64(tracing.AttrRateLimitWait, wait.Milliseconds()))
			events.Emit(e.observer, events.Event{
				Kind: events.KindRateLimitWait,
				Name: model,
				Wait: wait,
				Err:  err,
			})
		}
		if err != nil {
			return outcome, e.fail(span, err)
		}
	}

	res, err := e.chain.Invoke(ctx, req.Prompt)
	outcome.Result = res
	if err != nil {
		return outcome, e.fail(span, err)
	}
	if !res.Success {
		return outcome, e.fail(span, fmt.Errorf("%w: %w", ErrAllFailed, res.Err()))
	}

	if e.enforcer != nil {
		in, out := outcome.InputTokens, outcome.OutputTokens
		if u, ok := any(res.Value).(usageReporter); ok {
			if actualIn, actualOut := u.Usage(); actualIn+actualOut > 0 {
				in, out = actualIn, actualOut
			}
		}

		// Price by the model that answered when the value reports one; the
		// candidate name is only a fallback pricing key.
		model := res.ModelUsed
		if m, ok := any(res.Value).(modelReporter); ok {
			if served := m.ServedModel(); served != "" {
				model = served
			}
		}

		cost := e.enforcer.EstimateCost(model, in, out)
		metadata := maps.Clone(req.Metadata)
		if metadata == nil {
			metadata = make(map[string]string, 3)
		}
		metadata["invocation_id"] = res.InvocationID
		metadata["candidate"] = res.ModelUsed
		metadata["degraded"] = strconv.FormatBool(res.Degraded())

		record := e.enforcer.RecordSpend(cost, model, metadata)
		outcome.Spend = &record
		tracing.SetCostWithTokens(span, model, in, out, cost)
	}

	tracing.SetStatus(span, nil)
	return outcome, nil
}

func (e *Executor[T]) fail(span trace.Span, err error) error {
	e.logger.Debug("call not completed", "error", err)
	tracing.SetError(span, err)
	tracing.SetStatus(span, err)
	return err
}
