package backoff

import (
	"errors"
	"iter"
	"log/slog"
	"math"
	"math/rand/v2"
	"time"

	"mercator-hq/relay/pkg/resilience/events"
)

// maxDuration bounds computed delays so that jitter cannot overflow int64.
const maxDuration = time.Duration(1 << 61)

// Config describes a bounded exponential backoff policy.
type Config struct {
	// MaxRetries is the number of retries after the first attempt.
	// 0 means a single attempt with no retry.
	MaxRetries int

	// Base is the delay before the first retry.
	Base time.Duration

	// Factor multiplies the delay on every further retry (>= 1).
	Factor float64

	// Max caps the computed delay. Jitter is applied after the cap.
	Max time.Duration

	// Jitter multiplies each delay by a uniform factor in [0.75, 1.25).
	Jitter bool

	// Retryable lists the error kinds that may be retried. An error is
	// retryable when errors.Is matches any entry.
	Retryable []error

	// RetryIf is an optional extra classifier.
	RetryIf func(error) bool
}

// DefaultConfig returns three retries starting at one second, doubling up to
// one minute, with jitter.
func DefaultConfig() Config {
	return Config{
		MaxRetries: 3,
		Base:       time.Second,
		Factor:     2.0,
		Max:        time.Minute,
		Jitter:     true,
	}
}

// Policy decides whether and when to retry. It is immutable and safe for
// concurrent use; every operation gets its own attempt sequence.
type Policy struct {
	cfg      Config
	observer events.Observer
	logger   *slog.Logger
	onRetry  func(Attempt)
	sleep    sleepFunc
	random   func() float64
}

// Option configures a Policy.
type Option func(*Policy)

// WithObserver reports every retry to o.
func WithObserver(o events.Observer) Option {
	return func(p *Policy) {
		p.observer = o
	}
}

// WithOnRetry calls f with the upcoming attempt, including the error that
// triggered it, before every retry wait.
func WithOnRetry(f func(Attempt)) Option {
	return func(p *Policy) {
		p.onRetry = f
	}
}

// WithLogger sets the logger used for retry diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Policy) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithRandom replaces the jitter source. f must return values in [0, 1).
func WithRandom(f func() float64) Option {
	return func(p *Policy) {
		if f != nil {
			p.random = f
		}
	}
}

// New creates a Policy from cfg. Negative values are clamped: MaxRetries to
// 0, Factor to 1, durations to 0.
func New(cfg Config, opts ...Option) *Policy {
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.Factor < 1 {
		cfg.Factor = 1
	}
	if cfg.Base < 0 {
		cfg.Base = 0
	}
	if cfg.Max < 0 {
		cfg.Max = 0
	}
	cfg.Retryable = append([]error(nil), cfg.Retryable...)

	p := &Policy{
		cfg:    cfg,
		logger: slog.Default(),
		sleep:  sleepContext,
		random: rand.Float64,
	}
	for _, opt := range opts {
		opt(p)
	}
	p.logger = p.logger.With("component", "backoff")
	return p
}

// NoRetry returns a single-attempt policy.
func NoRetry(opts ...Option) *Policy {
	return New(Config{MaxRetries: 0, Factor: 1}, opts...)
}

// Config returns a copy of the policy configuration.
func (p *Policy) Config() Config {
	cfg := p.cfg
	cfg.Retryable = append([]error(nil), p.cfg.Retryable...)
	return cfg
}

// MaxRetries returns the configured retry count.
func (p *Policy) MaxRetries() int {
	return p.cfg.MaxRetries
}

// Delay returns min(Base*Factor^attempt, Max), with jitter applied to the
// capped value when enabled.
func (p *Policy) Delay(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}

	d := float64(p.cfg.Base) * math.Pow(p.cfg.Factor, float64(attempt))
	if p.cfg.Max > 0 && d > float64(p.cfg.Max) {
		d = float64(p.cfg.Max)
	}
	// Factor^attempt can overflow for large attempts without a cap.
	if math.IsInf(d, 0) || d > float64(maxDuration) {
		d = float64(maxDuration)
	}

	if p.cfg.Jitter {
		d *= 0.75 + 0.5*p.random()
	}

	if d < 0 {
		return 0
	}
	return time.Duration(d)
}

// ShouldRetry reports whether err at the given attempt may be retried.
func (p *Policy) ShouldRetry(err error, attempt int) bool {
	if err == nil || attempt >= p.cfg.MaxRetries {
		return false
	}
	return p.IsRetryable(err)
}

// IsRetryable classifies err regardless of the attempt count.
// Context cancellation is never retryable.
func (p *Policy) IsRetryable(err error) bool {
	if err == nil || IsContextError(err) {
		return false
	}

	var re *RetryableError
	if errors.As(err, &re) {
		return true
	}
	for _, kind := range p.cfg.Retryable {
		if errors.Is(err, kind) {
			return true
		}
	}
	if p.cfg.RetryIf != nil && p.cfg.RetryIf(err) {
		return true
	}
	return false
}

// WaitFor returns how long to wait before the retry following attempt.
// A retry-after hint carried by err overrides the computed delay.
func (p *Policy) WaitFor(err error, attempt int) time.Duration {
	if hint, ok := RetryAfter(err); ok {
		return hint
	}
	return p.Delay(attempt)
}

// Attempt is one iteration of a retry loop.
type Attempt struct {
	// Number is the 0-indexed attempt number.
	Number int

	// Last is true on the final allowed attempt.
	Last bool

	// Err is the error of the previous attempt (nil for the first).
	Err error
}

// Attempts returns a fresh sequence of MaxRetries+1 attempts. A range loop
// cannot feed outcomes back, so the yielded values carry no error; use Loop
// when the retry decision and Attempt.Err should follow each failure. Each
// call returns an independent sequence.
func (p *Policy) Attempts() iter.Seq[Attempt] {
	total := p.cfg.MaxRetries + 1
	return func(yield func(Attempt) bool) {
		for i := 0; i < total; i++ {
			if !yield(Attempt{Number: i, Last: i == total-1}) {
				return
			}
		}
	}
}

// Loop steps through the attempts of a single operation. Unlike Attempts it
// is fed the outcome of every attempt, so each Attempt after the first
// carries the error that triggered it and the loop stops as soon as the
// policy declines to retry.
//
//	loop := policy.Loop()
//	var err error
//	for a, ok := loop.Next(nil); ok; a, ok = loop.Next(err) {
//	    err = call()
//	}
//
// A Loop is not safe for concurrent use.
type Loop struct {
	policy *Policy
	next   int
	done   bool
}

// Loop returns a new attempt loop for one operation.
func (p *Policy) Loop() *Loop {
	return &Loop{policy: p}
}

// Next returns the next attempt. err is the outcome of the previous attempt
// and is ignored on the first call. Next reports false once the previous
// attempt succeeded, its error is not retryable, or the retries are used up;
// after that it keeps returning false.
func (l *Loop) Next(err error) (Attempt, bool) {
	if l.done {
		return Attempt{}, false
	}
	if l.next > 0 && (err == nil || !l.policy.ShouldRetry(err, l.next-1)) {
		l.done = true
		return Attempt{}, false
	}
	if l.next > l.policy.cfg.MaxRetries {
		l.done = true
		return Attempt{}, false
	}

	a := Attempt{Number: l.next, Last: l.next == l.policy.cfg.MaxRetries}
	if l.next > 0 {
		a.Err = err
	}
	l.next++
	return a, true
}
