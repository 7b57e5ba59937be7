package events

import (
	"sync"
	"time"
)

// Kind identifies what happened inside the resilience layer.
type Kind string

const (
	// KindRetry is emitted before every retry wait of a backoff loop.
	KindRetry Kind = "retry"

	// KindFallback is emitted when a fallback chain moves to the next candidate.
	KindFallback Kind = "fallback"

	// KindBudgetWarning is emitted when a spend would cross the warning threshold.
	KindBudgetWarning Kind = "budget_warning"

	// KindBudgetViolation is emitted when a spend is rejected by a budget limit.
	KindBudgetViolation Kind = "budget_violation"

	// KindRateLimitWait is emitted when an acquisition had to wait for capacity.
	KindRateLimitWait Kind = "rate_limit_wait"
)

// Event is a structured record of a retry, fallback transition, budget
// warning/violation or rate limit wait.
type Event struct {
	// Kind is the event type.
	Kind Kind

	// Name is the model or candidate the event refers to.
	Name string

	// Attempt is the attempt number for retries (0-indexed).
	Attempt int

	// Amount is the currency amount for budget events.
	Amount float64

	// Limit and LimitType describe the budget limit involved, if any.
	Limit     float64
	LimitType string

	// From and To are set for fallback transitions.
	From string
	To   string

	// Wait is the delay about to be slept (retry) or already waited (rate limit).
	Wait time.Duration

	// Err is the triggering error, if any.
	Err error

	// Time is when the event was produced.
	Time time.Time
}

// Observer receives resilience events. Implementations must be safe for
// concurrent use and must not block.
type Observer interface {
	Observe(Event)
}

// Func adapts a plain function to the Observer interface.
type Func func(Event)

// Observe calls f(e).
func (f Func) Observe(e Event) {
	f(e)
}

// Nop discards every event.
var Nop Observer = Func(func(Event) {})

// Multi fans events out to several observers in order.
type Multi []Observer

// Observe forwards e to every non-nil observer.
func (m Multi) Observe(e Event) {
	for _, o := range m {
		if o != nil {
			o.Observe(e)
		}
	}
}

// Emit stamps e with the current time when unset and delivers it to o.
// A nil observer is allowed.
func Emit(o Observer, e Event) {
	if o == nil {
		return
	}
	if e.Time.IsZero() {
		e.Time = time.Now()
	}
	o.Observe(e)
}

// Recorder keeps every observed event in memory. It is mainly useful in tests
// and for CLI summaries.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

// Observe appends e.
func (r *Recorder) Observe(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

// Events returns a copy of the recorded events.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// Count returns the number of recorded events of kind k.
func (r *Recorder) Count(k Kind) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.events {
		if e.Kind == k {
			n++
		}
	}
	return n
}
