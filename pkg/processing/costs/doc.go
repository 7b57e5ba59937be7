// Package costs provides cost calculation for model calls.
//
// # Pricing Model
//
// Costs are calculated from per-model pricing expressed per one million
// tokens:
//
//   - Input (prompt) tokens: typically the lower rate
//   - Output (completion) tokens: typically 3-5x the input rate
//
// Models are looked up by exact name, then by the longest matching prefix.
// Anything else is priced at the table default, which should be
// deliberately expensive: a budget that over-estimates an unknown model is
// safe, one that under-estimates it is not.
//
// # Usage
//
//	calc := costs.NewCalculator(costs.Table{
//	    Models: map[string]costs.ModelPricing{
//	        "gpt-4o":      {InputPerMillion: 2.50, OutputPerMillion: 10.00},
//	        "gpt-4o-mini": {InputPerMillion: 0.15, OutputPerMillion: 0.60},
//	    },
//	}, logger)
//
//	est := calc.Estimate("gpt-4o-mini", 1200, 400)
//	fmt.Printf("Estimated cost: $%.6f\n", est.TotalCost)
//
// # Pricing Updates
//
// UpdatePricing swaps the table atomically; the calculator uses a
// read-write lock so estimates can run concurrently with reloads.
package costs
