package budget

import "time"

// period selects the calendar boundary a window resets on.
type period int

const (
	periodDaily period = iota
	periodMonthly
)

func (p period) String() string {
	if p == periodMonthly {
		return LimitMonthly
	}
	return LimitDaily
}

// calendarWindow tracks spending since the start of the current UTC day or
// month.
//
// Resets are lazy: the owner calls resetIfNeeded with the current time on
// every access, and the counter is zeroed only when the boundary for this
// window's period was crossed since the last reset. Daily and monthly
// windows are independent.
//
// calendarWindow is not safe for concurrent use; Enforcer serializes access.
type calendarWindow struct {
	period    period
	spent     float64
	lastReset time.Time
}

func newCalendarWindow(p period, now time.Time) *calendarWindow {
	return &calendarWindow{
		period:    p,
		lastReset: now.UTC(),
	}
}

// resetIfNeeded zeroes the window when now falls in a different UTC day
// (or month) than the last reset. It reports whether a reset happened.
func (w *calendarWindow) resetIfNeeded(now time.Time) bool {
	now = now.UTC()
	if w.samePeriod(w.lastReset, now) {
		return false
	}
	w.spent = 0
	w.lastReset = now
	return true
}

func (w *calendarWindow) samePeriod(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	if w.period == periodMonthly {
		return ay == by && am == bm
	}
	return ay == by && am == bm && ad == bd
}

// add records spending in the current period.
func (w *calendarWindow) add(amount float64) {
	w.spent += amount
}

// nextReset returns the next UTC boundary after now.
func (w *calendarWindow) nextReset(now time.Time) time.Time {
	y, m, d := now.UTC().Date()
	if w.period == periodMonthly {
		return time.Date(y, m+1, 1, 0, 0, 0, 0, time.UTC)
	}
	return time.Date(y, m, d+1, 0, 0, 0, 0, time.UTC)
}
