package budget

import (
	"errors"
	"fmt"
	"math"
)

// ErrBudgetExceeded is matched by every BudgetExceededError via errors.Is.
var ErrBudgetExceeded = errors.New("budget exceeded")

// BudgetExceededError reports the first limit a spend would breach.
type BudgetExceededError struct {
	// LimitType is one of LimitPerRequest, LimitDaily or LimitMonthly.
	LimitType string

	// Limit is the configured limit (USD).
	Limit float64

	// Current is the amount for per-request limits, or the post-spend
	// window total for daily and monthly limits.
	Current float64
}

func (e *BudgetExceededError) Error() string {
	return fmt.Sprintf("%s budget exceeded: $%.4f would exceed limit $%.4f", e.LimitType, e.Current, e.Limit)
}

func (e *BudgetExceededError) Unwrap() error {
	return ErrBudgetExceeded
}

// ErrInvalidAmount is matched by every InvalidAmountError via errors.Is.
var ErrInvalidAmount = errors.New("invalid spend amount")

// InvalidAmountError reports a negative, NaN or infinite spend amount.
type InvalidAmountError struct {
	Amount float64
}

func (e *InvalidAmountError) Error() string {
	return fmt.Sprintf("invalid spend amount %v: must be a finite, non-negative number", e.Amount)
}

func (e *InvalidAmountError) Unwrap() error {
	return ErrInvalidAmount
}

// validAmount reports whether amount can be added to a spend counter.
func validAmount(amount float64) bool {
	return amount >= 0 && !math.IsInf(amount, 0)
}
