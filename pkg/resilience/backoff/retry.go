package backoff

import (
	"context"
	"time"

	"mercator-hq/relay/pkg/resilience/events"
)

// sleepFunc waits for d or until ctx is done.
type sleepFunc func(ctx context.Context, d time.Duration) error

// sleepContext blocks the calling goroutine for d. It returns ctx.Err() if the
// context ends first.
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Do calls fn until it succeeds, returns a non-retryable error, or the policy
// runs out of retries. The last error is returned unchanged. name identifies
// the operation in events and logs.
//
// If ctx ends while waiting between attempts, Do returns ctx.Err().
func (p *Policy) Do(ctx context.Context, name string, fn func(ctx context.Context) error) error {
	_, err := Retry(ctx, p, name, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}

// Retry is the value-returning form of Policy.Do.
func Retry[T any](ctx context.Context, p *Policy, name string, fn func(ctx context.Context) (T, error)) (T, error) {
	var (
		zero T
		err  error
	)

	loop := p.Loop()
	for attempt, ok := loop.Next(nil); ok; attempt, ok = loop.Next(err) {
		if attempt.Err != nil {
			prev := attempt.Number - 1
			wait := p.WaitFor(attempt.Err, prev)
			p.logger.Debug("call failed, retrying",
				"name", name,
				"attempt", prev,
				"wait", wait,
				"error", attempt.Err,
			)
			if p.onRetry != nil {
				p.onRetry(attempt)
			}
			events.Emit(p.observer, events.Event{
				Kind:    events.KindRetry,
				Name:    name,
				Attempt: prev,
				Wait:    wait,
				Err:     attempt.Err,
			})

			if serr := p.sleep(ctx, wait); serr != nil {
				return zero, serr
			}
		}

		if cerr := ctx.Err(); cerr != nil {
			return zero, cerr
		}

		var v T
		v, err = fn(ctx)
		if err == nil {
			return v, nil
		}
	}

	return zero, err
}
