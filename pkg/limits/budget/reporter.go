package budget

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// DefaultReportSchedule takes a status snapshot every five minutes.
const DefaultReportSchedule = "*/5 * * * *"

// Reporter takes periodic budget status snapshots on a cron schedule.
//
// Each snapshot goes through Enforcer.Status, so the lazy daily and monthly
// resets also happen on idle processes. Snapshots are logged and passed to
// the optional sink (typically a metrics gauge updater).
type Reporter struct {
	enforcer *Enforcer
	schedule string
	sink     func(Status)
	cron     *cron.Cron
	logger   *slog.Logger
	mu       sync.Mutex
	running  bool
}

// NewReporter creates a reporter for enforcer. An empty schedule uses
// DefaultReportSchedule. sink may be nil.
//
// Common cron expressions:
//   - "*/5 * * * *"  - Every 5 minutes
//   - "0 * * * *"    - Hourly
//   - "5 0 * * *"    - Daily just after the UTC day boundary
func NewReporter(enforcer *Enforcer, schedule string, sink func(Status)) (*Reporter, error) {
	if schedule == "" {
		schedule = DefaultReportSchedule
	}
	if err := ValidateSchedule(schedule); err != nil {
		return nil, err
	}

	return &Reporter{
		enforcer: enforcer,
		schedule: schedule,
		sink:     sink,
		cron:     cron.New(cron.WithLocation(time.UTC)),
		logger:   slog.Default().With("component", "budget.reporter"),
	}, nil
}

// ValidateSchedule reports whether schedule is a valid five-field cron
// expression.
func ValidateSchedule(schedule string) error {
	if _, err := cron.ParseStandard(schedule); err != nil {
		return fmt.Errorf("invalid cron schedule %q: %w", schedule, err)
	}
	return nil
}

// Start schedules snapshots and stops the reporter when ctx is done.
func (r *Reporter) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.running {
		return nil
	}

	if _, err := r.cron.AddFunc(r.schedule, func() { r.Report() }); err != nil {
		return fmt.Errorf("failed to schedule budget report: %w", err)
	}

	r.cron.Start()
	r.running = true

	r.logger.Info("budget reporter started", "schedule", r.schedule)

	go func() {
		<-ctx.Done()
		r.Stop()
	}()

	return nil
}

// Report takes one snapshot immediately.
func (r *Reporter) Report() Status {
	status := r.enforcer.Status()

	r.logger.Info("budget status",
		"daily_spend", status.DailySpend,
		"daily_limit", status.DailyLimit,
		"monthly_spend", status.MonthlySpend,
		"monthly_limit", status.MonthlyLimit,
		"records", status.Records,
	)

	if r.sink != nil {
		r.sink(status)
	}
	return status
}

// Stop stops the scheduler and waits for a running snapshot to finish.
func (r *Reporter) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.running {
		return
	}
	<-r.cron.Stop().Done()
	r.running = false
	r.logger.Info("budget reporter stopped")
}

// IsRunning returns true if the reporter is scheduled.
func (r *Reporter) IsRunning() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running
}

// NextRun returns the next scheduled snapshot time, or nil when not running.
func (r *Reporter) NextRun() *time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()

	entries := r.cron.Entries()
	if len(entries) == 0 {
		return nil
	}
	next := entries[0].Next
	return &next
}
