package budget

import "time"

// DefaultWarningThreshold is used when Config.WarningThreshold is unset.
const DefaultWarningThreshold = 0.8

// Limit types reported in BudgetExceededError and budget events.
const (
	LimitPerRequest = "per_request"
	LimitDaily      = "daily"
	LimitMonthly    = "monthly"
)

// Config contains budget limits. A zero limit means no limit.
type Config struct {
	// DailyLimit caps spending per UTC calendar day (USD).
	DailyLimit float64

	// MonthlyLimit caps spending per UTC calendar month (USD).
	MonthlyLimit float64

	// PerRequestLimit caps the cost of a single call (USD).
	PerRequestLimit float64

	// WarningThreshold is the fraction (0.0-1.0) of the daily or monthly
	// limit at which a warning is emitted. For example, 0.8 means warn when
	// a spend would bring the window to 80% of its limit.
	WarningThreshold float64
}

// withDefaults returns c with WarningThreshold filled in.
func (c Config) withDefaults() Config {
	if c.WarningThreshold <= 0 || c.WarningThreshold > 1 {
		c.WarningThreshold = DefaultWarningThreshold
	}
	return c
}

// SpendRecord is one entry of the append-only spend log.
type SpendRecord struct {
	// ID uniquely identifies the record.
	ID string

	// Amount is the recorded cost in USD.
	Amount float64

	// Model is the model the spend is attributed to.
	Model string

	// Timestamp is when the spend was recorded (UTC).
	Timestamp time.Time

	// Metadata carries caller-supplied context (request id, tenant, ...).
	Metadata map[string]string
}

// Status is a read-only snapshot of the enforcer's counters.
type Status struct {
	DailySpend   float64
	MonthlySpend float64

	DailyLimit      float64
	MonthlyLimit    float64
	PerRequestLimit float64

	// Remaining is limit minus spend, floored at zero. It is zero when the
	// corresponding limit is unset.
	DailyRemaining   float64
	MonthlyRemaining float64

	// Percentage is spend / limit (0 when the limit is unset).
	DailyPercentage   float64
	MonthlyPercentage float64

	WarningThreshold float64

	// NextDailyReset and NextMonthlyReset are the next UTC window boundaries.
	NextDailyReset   time.Time
	NextMonthlyReset time.Time

	// Records is the number of spend records logged.
	Records int
}
