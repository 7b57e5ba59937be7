package backoff

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"mercator-hq/relay/pkg/resilience/events"
)

var errTransient = errors.New("transient")

// ============================================================================
// Delay Tests
// ============================================================================

func TestPolicy_Delay(t *testing.T) {
	p := New(Config{
		MaxRetries: 5,
		Base:       time.Second,
		Factor:     2.0,
		Max:        60 * time.Second,
	})

	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{0, 1 * time.Second},
		{1, 2 * time.Second},
		{2, 4 * time.Second},
		{3, 8 * time.Second},
		{5, 32 * time.Second},
		{6, 60 * time.Second},
		{20, 60 * time.Second},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("attempt_%d", tt.attempt), func(t *testing.T) {
			if got := p.Delay(tt.attempt); got != tt.want {
				t.Errorf("Expected Delay(%d)=%v, got %v", tt.attempt, tt.want, got)
			}
		})
	}
}

func TestPolicy_DelayMonotonicBeforeCap(t *testing.T) {
	p := New(Config{Base: 100 * time.Millisecond, Factor: 1.5, Max: time.Hour})

	prev := time.Duration(0)
	for i := 0; i < 15; i++ {
		d := p.Delay(i)
		if d < prev {
			t.Fatalf("Expected non-decreasing delays, Delay(%d)=%v < %v", i, d, prev)
		}
		prev = d
	}
}

func TestPolicy_DelayJitterAppliedAfterCap(t *testing.T) {
	tests := []struct {
		name   string
		random float64
		want   time.Duration
	}{
		{"lowest factor", 0.0, 45 * time.Second},
		{"middle factor", 0.5, 60 * time.Second},
		{"near highest factor", 0.999, time.Duration(float64(60*time.Second) * (0.75 + 0.5*0.999))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := New(Config{
				Base:   time.Second,
				Factor: 2,
				Max:    60 * time.Second,
				Jitter: true,
			}, WithRandom(func() float64 { return tt.random }))

			if got := p.Delay(10); got != tt.want {
				t.Errorf("Expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestPolicy_DelayJitterBounds(t *testing.T) {
	p := New(Config{Base: time.Second, Factor: 2, Max: 8 * time.Second, Jitter: true})

	for i := 0; i < 1000; i++ {
		d := p.Delay(2) // 4s before jitter
		if d < 3*time.Second || d >= 5*time.Second {
			t.Fatalf("Expected jittered delay in [3s, 5s), got %v", d)
		}
	}
}

func TestPolicy_DelayNeverNegative(t *testing.T) {
	p := New(Config{Base: -time.Second, Factor: 0.5, Max: -1})

	for i := -2; i < 5; i++ {
		if d := p.Delay(i); d < 0 {
			t.Errorf("Expected non-negative delay for attempt %d, got %v", i, d)
		}
	}
}

func TestPolicy_DelayHugeAttemptWithoutCap(t *testing.T) {
	p := New(Config{Base: time.Second, Factor: 10})

	if d := p.Delay(500); d <= 0 {
		t.Errorf("Expected a positive bounded delay, got %v", d)
	}
}

// ============================================================================
// ShouldRetry Tests
// ============================================================================

func TestPolicy_ShouldRetry(t *testing.T) {
	errFatal := errors.New("fatal")
	p := New(Config{
		MaxRetries: 2,
		Base:       time.Millisecond,
		Factor:     2,
		Retryable:  []error{errTransient},
	})

	tests := []struct {
		name    string
		err     error
		attempt int
		want    bool
	}{
		{"nil error", nil, 0, false},
		{"configured kind", errTransient, 0, true},
		{"wrapped configured kind", fmt.Errorf("call: %w", errTransient), 1, true},
		{"explicitly retryable", Retryable(errFatal, 0), 0, true},
		{"unknown kind", errFatal, 0, false},
		{"attempts exhausted", errTransient, 2, false},
		{"past limit", errTransient, 7, false},
		{"context canceled", context.Canceled, 0, false},
		{"retryable wrapping deadline", Retryable(context.DeadlineExceeded, 0), 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := p.ShouldRetry(tt.err, tt.attempt); got != tt.want {
				t.Errorf("Expected ShouldRetry=%v, got %v", tt.want, got)
			}
		})
	}
}

func TestPolicy_RetryIf(t *testing.T) {
	p := New(Config{
		MaxRetries: 1,
		RetryIf: func(err error) bool {
			return err.Error() == "flaky"
		},
	})

	if !p.ShouldRetry(errors.New("flaky"), 0) {
		t.Error("Expected RetryIf to mark error as retryable")
	}
	if p.ShouldRetry(errors.New("solid"), 0) {
		t.Error("Expected other errors to stay non-retryable")
	}
}

func TestPolicy_WaitForPrefersRetryAfter(t *testing.T) {
	p := New(Config{MaxRetries: 3, Base: time.Second, Factor: 2, Max: time.Minute})

	if got := p.WaitFor(Retryable(errTransient, 7*time.Second), 0); got != 7*time.Second {
		t.Errorf("Expected retry-after hint of 7s, got %v", got)
	}
	wrapped := fmt.Errorf("outer: %w", Retryable(errTransient, 3*time.Second))
	if got := p.WaitFor(wrapped, 2); got != 3*time.Second {
		t.Errorf("Expected wrapped hint of 3s, got %v", got)
	}
	if got := p.WaitFor(Retryable(errTransient, 0), 2); got != 4*time.Second {
		t.Errorf("Expected computed delay of 4s without hint, got %v", got)
	}
}

// ============================================================================
// Attempt Sequence Tests
// ============================================================================

func TestPolicy_Attempts(t *testing.T) {
	p := New(Config{MaxRetries: 3})

	var got []Attempt
	for a := range p.Attempts() {
		got = append(got, a)
	}

	if len(got) != 4 {
		t.Fatalf("Expected 4 attempts, got %d", len(got))
	}
	for i, a := range got {
		if a.Number != i {
			t.Errorf("Expected attempt number %d, got %d", i, a.Number)
		}
		if a.Last != (i == 3) {
			t.Errorf("Expected Last=%v at %d", i == 3, i)
		}
	}

	// A second iteration starts over.
	count := 0
	for range p.Attempts() {
		count++
	}
	if count != 4 {
		t.Errorf("Expected restartable sequence of 4, got %d", count)
	}
}

func TestPolicy_LoopCarriesTriggeringError(t *testing.T) {
	p := New(Config{MaxRetries: 2, Retryable: []error{errTransient}})
	errFirst := fmt.Errorf("first: %w", errTransient)
	errSecond := fmt.Errorf("second: %w", errTransient)
	outcomes := []error{errFirst, errSecond, errTransient}

	var got []Attempt
	loop := p.Loop()
	var err error
	for a, ok := loop.Next(nil); ok; a, ok = loop.Next(err) {
		got = append(got, a)
		err = outcomes[a.Number]
	}

	if len(got) != 3 {
		t.Fatalf("Expected 3 attempts, got %d", len(got))
	}
	if got[0].Err != nil {
		t.Errorf("Expected no error on the first attempt, got %v", got[0].Err)
	}
	if got[1].Err != errFirst {
		t.Errorf("Expected attempt 1 to carry %v, got %v", errFirst, got[1].Err)
	}
	if got[2].Err != errSecond || !got[2].Last {
		t.Errorf("Expected last attempt to carry %v, got %+v", errSecond, got[2])
	}

	if _, ok := loop.Next(nil); ok {
		t.Error("Expected a finished loop to stay finished")
	}
}

func TestPolicy_LoopStops(t *testing.T) {
	tests := []struct {
		name     string
		outcome  error
		expected int
	}{
		{"success", nil, 1},
		{"non-retryable error", errors.New("bad request"), 1},
		{"cancelled", context.Canceled, 1},
		{"retryable until exhausted", errTransient, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := New(Config{MaxRetries: 2, Retryable: []error{errTransient}})

			count := 0
			loop := p.Loop()
			var err error
			for _, ok := loop.Next(nil); ok; _, ok = loop.Next(err) {
				count++
				err = tt.outcome
			}

			if count != tt.expected {
				t.Errorf("Expected %d attempts, got %d", tt.expected, count)
			}
		})
	}
}

func TestNoRetry(t *testing.T) {
	p := NoRetry()

	count := 0
	for a := range p.Attempts() {
		count++
		if !a.Last {
			t.Error("Expected the only attempt to be the last")
		}
	}
	if count != 1 {
		t.Errorf("Expected 1 attempt, got %d", count)
	}
	if p.ShouldRetry(Retryable(errTransient, 0), 0) {
		t.Error("Expected single-attempt policy to never retry")
	}
}

// ============================================================================
// Retry Loop Tests
// ============================================================================

// recordSleeps replaces the policy's sleep with one that records waits.
func recordSleeps(p *Policy) *[]time.Duration {
	var waits []time.Duration
	p.sleep = func(ctx context.Context, d time.Duration) error {
		waits = append(waits, d)
		return ctx.Err()
	}
	return &waits
}

func TestRetry_SucceedsAfterTransientFailures(t *testing.T) {
	var rec events.Recorder
	p := New(Config{
		MaxRetries: 3,
		Base:       time.Second,
		Factor:     2,
		Max:        time.Minute,
		Retryable:  []error{errTransient},
	}, WithObserver(&rec))
	waits := recordSleeps(p)

	calls := 0
	got, err := Retry(context.Background(), p, "primary", func(ctx context.Context) (string, error) {
		calls++
		if calls < 3 {
			return "", errTransient
		}
		return "ok", nil
	})

	if err != nil {
		t.Fatalf("Expected success, got %v", err)
	}
	if got != "ok" {
		t.Errorf("Expected result ok, got %q", got)
	}
	if calls != 3 {
		t.Errorf("Expected 3 calls, got %d", calls)
	}
	if len(*waits) != 2 || (*waits)[0] != time.Second || (*waits)[1] != 2*time.Second {
		t.Errorf("Expected waits [1s 2s], got %v", *waits)
	}
	if n := rec.Count(events.KindRetry); n != 2 {
		t.Errorf("Expected 2 retry events, got %d", n)
	}
	if evs := rec.Events(); evs[0].Name != "primary" || evs[0].Attempt != 0 {
		t.Errorf("Expected first retry event for primary/0, got %+v", evs[0])
	}
}

func TestRetry_ReturnsLastErrorUnchanged(t *testing.T) {
	p := New(Config{MaxRetries: 2, Retryable: []error{errTransient}})
	recordSleeps(p)

	var last error
	calls := 0
	err := p.Do(context.Background(), "primary", func(ctx context.Context) error {
		calls++
		last = fmt.Errorf("attempt %d: %w", calls, errTransient)
		return last
	})

	if err != last {
		t.Errorf("Expected the exact last error, got %v", err)
	}
	if calls != 3 {
		t.Errorf("Expected max_retries+1 = 3 calls, got %d", calls)
	}
}

func TestRetry_NonRetryableStopsImmediately(t *testing.T) {
	p := New(Config{MaxRetries: 5, Retryable: []error{errTransient}})
	waits := recordSleeps(p)
	errFatal := errors.New("bad request")

	calls := 0
	err := p.Do(context.Background(), "primary", func(ctx context.Context) error {
		calls++
		return errFatal
	})

	if !errors.Is(err, errFatal) {
		t.Errorf("Expected fatal error, got %v", err)
	}
	if calls != 1 {
		t.Errorf("Expected 1 call, got %d", calls)
	}
	if len(*waits) != 0 {
		t.Errorf("Expected no waits, got %v", *waits)
	}
}

func TestRetry_UsesRetryAfterHint(t *testing.T) {
	p := New(Config{MaxRetries: 1, Base: time.Second, Factor: 2})
	waits := recordSleeps(p)

	calls := 0
	_ = p.Do(context.Background(), "primary", func(ctx context.Context) error {
		calls++
		if calls == 1 {
			return Retryable(errTransient, 250*time.Millisecond)
		}
		return nil
	})

	if len(*waits) != 1 || (*waits)[0] != 250*time.Millisecond {
		t.Errorf("Expected a single 250ms wait, got %v", *waits)
	}
}

func TestRetry_OnRetryReceivesTriggeringError(t *testing.T) {
	var seen []Attempt
	p := New(Config{MaxRetries: 2, Retryable: []error{errTransient}},
		WithOnRetry(func(a Attempt) { seen = append(seen, a) }))
	recordSleeps(p)

	_ = p.Do(context.Background(), "primary", func(ctx context.Context) error {
		return errTransient
	})

	if len(seen) != 2 {
		t.Fatalf("Expected 2 upcoming attempts, got %d", len(seen))
	}
	if seen[0].Number != 1 || seen[1].Number != 2 || !seen[1].Last {
		t.Errorf("Unexpected attempts: %+v", seen)
	}
	if !errors.Is(seen[0].Err, errTransient) {
		t.Errorf("Expected triggering error, got %v", seen[0].Err)
	}
}

func TestRetry_CancelledDuringWait(t *testing.T) {
	p := New(Config{
		MaxRetries: 3,
		Base:       time.Hour,
		Factor:     1,
		Retryable:  []error{errTransient},
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- p.Do(ctx, "primary", func(ctx context.Context) error {
			return errTransient
		})
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Expected context.Canceled, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Expected cancellation to interrupt the backoff wait")
	}
}

func TestRetry_CancelledBeforeStart(t *testing.T) {
	p := New(Config{MaxRetries: 3})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	err := p.Do(ctx, "primary", func(ctx context.Context) error {
		calls++
		return nil
	})

	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
	if calls != 0 {
		t.Errorf("Expected no calls, got %d", calls)
	}
}

func TestRetry_RealSleepIsShort(t *testing.T) {
	p := New(Config{
		MaxRetries: 2,
		Base:       5 * time.Millisecond,
		Factor:     2,
		Retryable:  []error{errTransient},
	})

	start := time.Now()
	_ = p.Do(context.Background(), "primary", func(ctx context.Context) error {
		return errTransient
	})
	elapsed := time.Since(start)

	// 5ms + 10ms of backoff
	if elapsed < 15*time.Millisecond {
		t.Errorf("Expected at least 15ms of backoff, got %v", elapsed)
	}
}
