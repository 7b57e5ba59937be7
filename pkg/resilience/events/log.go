package events

import (
	"context"
	"log/slog"
)

// LogObserver writes events as structured log records.
type LogObserver struct {
	logger *slog.Logger
}

// NewLogObserver creates a LogObserver. A nil logger uses slog.Default().
func NewLogObserver(logger *slog.Logger) *LogObserver {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogObserver{logger: logger.With("component", "resilience.events")}
}

// Observe logs e at a level that matches its severity.
func (l *LogObserver) Observe(e Event) {
	attrs := []any{"event", string(e.Kind)}
	if e.Name != "" {
		attrs = append(attrs, "name", e.Name)
	}
	if e.Err != nil {
		attrs = append(attrs, "error", e.Err)
	}

	switch e.Kind {
	case KindRetry:
		attrs = append(attrs, "attempt", e.Attempt, "wait", e.Wait)
		l.logger.Log(context.Background(), slog.LevelDebug, "retrying call", attrs...)
	case KindFallback:
		attrs = append(attrs, "from", e.From, "to", e.To)
		l.logger.Log(context.Background(), slog.LevelInfo, "falling back to next candidate", attrs...)
	case KindBudgetWarning:
		attrs = append(attrs, "limit_type", e.LimitType, "amount", e.Amount, "limit", e.Limit)
		l.logger.Log(context.Background(), slog.LevelWarn, "budget warning threshold crossed", attrs...)
	case KindBudgetViolation:
		attrs = append(attrs, "limit_type", e.LimitType, "amount", e.Amount, "limit", e.Limit)
		l.logger.Log(context.Background(), slog.LevelWarn, "budget limit exceeded", attrs...)
	case KindRateLimitWait:
		attrs = append(attrs, "wait", e.Wait)
		l.logger.Log(context.Background(), slog.LevelDebug, "waited for rate limit capacity", attrs...)
	default:
		l.logger.Log(context.Background(), slog.LevelInfo, "resilience event", attrs...)
	}
}
