package budget

import (
	"log/slog"
	"maps"
	"sync"
	"time"

	"github.com/google/uuid"

	"mercator-hq/relay/pkg/processing/costs"
	"mercator-hq/relay/pkg/resilience/events"
)

// Enforcer enforces daily, monthly and per-request spending limits.
//
// Daily and monthly counters reset lazily on every public call when the UTC
// date (or year and month) has moved on since their last reset. Checks and
// records are separate steps: CheckBudget rejects a spend that would breach
// a limit, RecordSpend books the actual cost without re-checking.
//
// Enforcer is safe for concurrent use.
type Enforcer struct {
	cfg  Config
	calc *costs.Calculator

	daily   *calendarWindow
	monthly *calendarWindow

	// records is the append-only spend log
	records []SpendRecord
	byModel map[string]float64

	now      func() time.Time
	observer events.Observer
	logger   *slog.Logger

	mu sync.Mutex
}

// Option configures an Enforcer.
type Option func(*Enforcer)

// WithClock replaces time.Now. The returned times are converted to UTC.
func WithClock(now func() time.Time) Option {
	return func(e *Enforcer) {
		if now != nil {
			e.now = now
		}
	}
}

// WithObserver reports budget warnings and violations to o.
func WithObserver(o events.Observer) Option {
	return func(e *Enforcer) {
		e.observer = o
	}
}

// WithLogger sets the enforcer's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Enforcer) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// NewEnforcer creates an enforcer with cfg's limits. calc prices calls for
// EstimateCost; a nil calc uses an empty table, so every model is priced at
// costs.DefaultPricing.
func NewEnforcer(cfg Config, calc *costs.Calculator, opts ...Option) *Enforcer {
	e := &Enforcer{
		cfg:     cfg.withDefaults(),
		byModel: make(map[string]float64),
		now:     time.Now,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = e.logger.With("component", "budget")
	if calc == nil {
		calc = costs.NewCalculator(costs.Table{}, e.logger)
	}
	e.calc = calc

	now := e.clock()
	e.daily = newCalendarWindow(periodDaily, now)
	e.monthly = newCalendarWindow(periodMonthly, now)
	return e
}

// EstimateCost prices a call with the enforcer's pricing table.
func (e *Enforcer) EstimateCost(model string, inputTokens, outputTokens int) float64 {
	return e.calc.Estimate(model, inputTokens, outputTokens).TotalCost
}

// Calculator returns the pricing calculator.
func (e *Enforcer) Calculator() *costs.Calculator {
	return e.calc
}

// CanSpend reports whether amount fits every configured limit. It emits no
// events and does not log. Negative, NaN and infinite amounts never fit.
func (e *Enforcer) CanSpend(amount float64) bool {
	if !validAmount(amount) {
		return false
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.resetIfNeededLocked()
	return e.violationLocked(amount) == nil
}

// CheckBudget returns a *BudgetExceededError for the first limit (per
// request, then daily, then monthly) that amount would breach. When the
// spend is allowed but would bring the daily or monthly total to the
// warning threshold, a warning is logged and reported; the call is not
// blocked. Negative, NaN and infinite amounts return an
// *InvalidAmountError.
func (e *Enforcer) CheckBudget(amount float64) error {
	if !validAmount(amount) {
		return &InvalidAmountError{Amount: amount}
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.resetIfNeededLocked()

	if err := e.violationLocked(amount); err != nil {
		e.logger.Warn("budget limit would be exceeded",
			"limit_type", err.LimitType,
			"limit", err.Limit,
			"current", err.Current,
			"amount", amount,
		)
		events.Emit(e.observer, events.Event{
			Kind:      events.KindBudgetViolation,
			Amount:    amount,
			Limit:     err.Limit,
			LimitType: err.LimitType,
			Err:       err,
		})
		return err
	}

	e.warnLocked(LimitDaily, e.daily.spent+amount, e.cfg.DailyLimit, amount)
	e.warnLocked(LimitMonthly, e.monthly.spent+amount, e.cfg.MonthlyLimit, amount)
	return nil
}

// RecordSpend appends a spend record and adds amount to the daily and
// monthly counters. It does not check limits; call CheckBudget first.
// Negative, NaN and infinite amounts are logged and skipped, leaving the
// counters untouched, and the zero SpendRecord is returned.
func (e *Enforcer) RecordSpend(amount float64, model string, metadata map[string]string) SpendRecord {
	if !validAmount(amount) {
		e.logger.Warn("ignoring invalid spend amount", "model", model, "amount", amount)
		return SpendRecord{}
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.resetIfNeededLocked()

	record := SpendRecord{
		ID:        uuid.New().String(),
		Amount:    amount,
		Model:     model,
		Timestamp: now,
		Metadata:  maps.Clone(metadata),
	}
	e.records = append(e.records, record)
	e.byModel[model] += amount
	e.daily.add(amount)
	e.monthly.add(amount)

	e.logger.Debug("spend recorded",
		"id", record.ID,
		"model", model,
		"amount", amount,
		"daily_spend", e.daily.spent,
		"monthly_spend", e.monthly.spent,
	)

	return record
}

// Status returns a snapshot of the counters and limits.
func (e *Enforcer) Status() Status {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.resetIfNeededLocked()

	s := Status{
		DailySpend:       e.daily.spent,
		MonthlySpend:     e.monthly.spent,
		DailyLimit:       e.cfg.DailyLimit,
		MonthlyLimit:     e.cfg.MonthlyLimit,
		PerRequestLimit:  e.cfg.PerRequestLimit,
		WarningThreshold: e.cfg.WarningThreshold,
		NextDailyReset:   e.daily.nextReset(now),
		NextMonthlyReset: e.monthly.nextReset(now),
		Records:          len(e.records),
	}
	s.DailyRemaining, s.DailyPercentage = usage(s.DailySpend, s.DailyLimit)
	s.MonthlyRemaining, s.MonthlyPercentage = usage(s.MonthlySpend, s.MonthlyLimit)
	return s
}

// SpendByModel returns total recorded spend per model across the whole log.
func (e *Enforcer) SpendByModel() map[string]float64 {
	e.mu.Lock()
	defer e.mu.Unlock()

	return maps.Clone(e.byModel)
}

// Records returns a copy of the spend log.
func (e *Enforcer) Records() []SpendRecord {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]SpendRecord, len(e.records))
	copy(out, e.records)
	return out
}

// Config returns the active limits.
func (e *Enforcer) Config() Config {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cfg
}

// UpdateConfig replaces the limits (hot-reload support). Counters and the
// spend log are kept.
func (e *Enforcer) UpdateConfig(cfg Config) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.cfg = cfg.withDefaults()
	e.logger.Info("budget limits updated",
		"daily_limit", e.cfg.DailyLimit,
		"monthly_limit", e.cfg.MonthlyLimit,
		"per_request_limit", e.cfg.PerRequestLimit,
		"warning_threshold", e.cfg.WarningThreshold,
	)
}

func (e *Enforcer) clock() time.Time {
	return e.now().UTC()
}

// resetIfNeededLocked applies lazy window resets and returns the current
// time. Caller must hold e.mu.
func (e *Enforcer) resetIfNeededLocked() time.Time {
	now := e.clock()
	for _, w := range []*calendarWindow{e.daily, e.monthly} {
		if w.resetIfNeeded(now) {
			e.logger.Info("budget window reset", "window", w.period.String(), "date", now.Format(time.DateOnly))
		}
	}
	return now
}

// violationLocked returns the first limit amount would breach, or nil.
// Caller must hold e.mu.
func (e *Enforcer) violationLocked(amount float64) *BudgetExceededError {
	if e.cfg.PerRequestLimit > 0 && amount > e.cfg.PerRequestLimit {
		return &BudgetExceededError{LimitType: LimitPerRequest, Limit: e.cfg.PerRequestLimit, Current: amount}
	}
	if post := e.daily.spent + amount; e.cfg.DailyLimit > 0 && post > e.cfg.DailyLimit {
		return &BudgetExceededError{LimitType: LimitDaily, Limit: e.cfg.DailyLimit, Current: post}
	}
	if post := e.monthly.spent + amount; e.cfg.MonthlyLimit > 0 && post > e.cfg.MonthlyLimit {
		return &BudgetExceededError{LimitType: LimitMonthly, Limit: e.cfg.MonthlyLimit, Current: post}
	}
	return nil
}

// warnLocked reports a post-spend total at or above the warning threshold.
// Caller must hold e.mu.
func (e *Enforcer) warnLocked(limitType string, post, limit, amount float64) {
	if limit <= 0 || post < e.cfg.WarningThreshold*limit {
		return
	}
	e.logger.Warn("budget warning threshold reached",
		"limit_type", limitType,
		"projected", post,
		"limit", limit,
		"threshold", e.cfg.WarningThreshold,
	)
	events.Emit(e.observer, events.Event{
		Kind:      events.KindBudgetWarning,
		Amount:    post,
		Limit:     limit,
		LimitType: limitType,
	})
}

func usage(spent, limit float64) (remaining, percentage float64) {
	if limit <= 0 {
		return 0, 0
	}
	remaining = limit - spent
	if remaining < 0 {
		remaining = 0
	}
	return remaining, spent / limit
}
