package costs

// ModelPricing contains pricing for a single model in USD per one million
// tokens.
type ModelPricing struct {
	// InputPerMillion is the cost per 1M input (prompt) tokens.
	InputPerMillion float64

	// OutputPerMillion is the cost per 1M output (completion) tokens.
	OutputPerMillion float64
}

// Table is a pricing table keyed by model name. Keys also match as prefixes,
// so "gpt-4o" prices "gpt-4o-2024-08-06".
type Table struct {
	// Models maps a model name or prefix to its pricing.
	Models map[string]ModelPricing

	// Default prices models that match nothing in Models. It should be
	// conservative (expensive) so that budgets are never under-counted.
	Default ModelPricing
}

// DefaultPricing is the conservative fallback used when a table does not
// set one.
var DefaultPricing = ModelPricing{
	InputPerMillion:  15.00,
	OutputPerMillion: 75.00,
}

// CostEstimate contains cost calculations in USD.
type CostEstimate struct {
	// InputCost is the cost for input tokens in USD.
	InputCost float64

	// OutputCost is the cost for output tokens in USD.
	OutputCost float64

	// TotalCost is the total cost in USD.
	TotalCost float64

	// Model is the model used for pricing.
	Model string

	// MatchedModel is the table key that priced the model ("" for default).
	MatchedModel string

	// UsedDefault is true when the model was not in the pricing table.
	UsedDefault bool

	// Currency is the currency code (always "USD").
	Currency string
}
