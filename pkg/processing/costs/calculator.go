package costs

import (
	"log/slog"
	"sort"
	"strings"
	"sync"
)

// Calculator prices model calls from token counts.
// It is thread-safe and supports hot-reload of pricing.
type Calculator struct {
	table Table

	// prefixes holds table keys longest first so prefix matching is
	// deterministic.
	prefixes []string

	logger *slog.Logger

	// mu protects the calculator for concurrent access
	mu sync.RWMutex
}

// NewCalculator creates a new cost calculator with the given pricing table.
// A nil logger uses slog.Default().
func NewCalculator(table Table, logger *slog.Logger) *Calculator {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Calculator{
		logger: logger.With("component", "costs"),
	}
	c.setTableLocked(table)
	return c
}

// Estimate prices a call with the given input and output token counts:
//
//	input/1e6 * InputPerMillion + output/1e6 * OutputPerMillion
//
// Unknown models are priced with the table's default rate and a warning is
// logged; Estimate never fails.
func (c *Calculator) Estimate(model string, inputTokens, outputTokens int) CostEstimate {
	pricing, matched, ok := c.GetModelPricing(model)
	if !ok {
		c.logger.Warn("no pricing for model, using conservative default",
			"model", model,
			"input_per_million", pricing.InputPerMillion,
			"output_per_million", pricing.OutputPerMillion,
		)
	}

	est := CostEstimate{
		Model:        model,
		MatchedModel: matched,
		UsedDefault:  !ok,
		Currency:     "USD",
	}
	est.InputCost = calculateTokenCost(inputTokens, pricing.InputPerMillion)
	est.OutputCost = calculateTokenCost(outputTokens, pricing.OutputPerMillion)
	est.TotalCost = est.InputCost + est.OutputCost

	return est
}

// GetModelPricing returns the pricing for model. It first tries an exact
// match, then the longest key that is a prefix of model. When nothing
// matches it returns the default pricing and ok=false.
func (c *Calculator) GetModelPricing(model string) (pricing ModelPricing, matched string, ok bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	// Try exact match
	if p, found := c.table.Models[model]; found {
		return p, model, true
	}

	// Try model prefix match (e.g., "claude-3-5-sonnet" matches "claude-3-5-sonnet-20241022")
	for _, prefix := range c.prefixes {
		if strings.HasPrefix(model, prefix) {
			return c.table.Models[prefix], prefix, true
		}
	}

	return c.table.Default, "", false
}

// Models returns the priced model names in sorted order.
func (c *Calculator) Models() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	names := make([]string, 0, len(c.table.Models))
	for name := range c.table.Models {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// UpdatePricing replaces the pricing table (hot-reload support).
// This is thread-safe and can be called while the calculator is in use.
func (c *Calculator) UpdatePricing(table Table) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.setTableLocked(table)
	c.logger.Info("pricing table updated", "models", len(table.Models))
}

// setTableLocked copies table and rebuilds the prefix index.
// Caller must hold write lock (or own c exclusively).
func (c *Calculator) setTableLocked(table Table) {
	models := make(map[string]ModelPricing, len(table.Models))
	prefixes := make([]string, 0, len(table.Models))
	for name, p := range table.Models {
		if name == "" {
			continue
		}
		models[name] = p
		prefixes = append(prefixes, name)
	}
	sort.Slice(prefixes, func(i, j int) bool {
		if len(prefixes[i]) != len(prefixes[j]) {
			return len(prefixes[i]) > len(prefixes[j])
		}
		return prefixes[i] < prefixes[j]
	})

	def := table.Default
	if def.InputPerMillion <= 0 && def.OutputPerMillion <= 0 {
		def = DefaultPricing
	}

	c.table = Table{Models: models, Default: def}
	c.prefixes = prefixes
}

// calculateTokenCost calculates the cost for a given number of tokens.
// costPerMillion is the cost per 1,000,000 tokens in USD.
func calculateTokenCost(tokens int, costPerMillion float64) float64 {
	if tokens <= 0 {
		return 0.0
	}

	return (float64(tokens) / 1_000_000.0) * costPerMillion
}
