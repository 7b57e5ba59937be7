// Package tokens provides token estimation for prompts.
//
// Token estimates feed the pre-call steps of the resilience layer: the cost
// estimate checked against budgets and the token count taken from the
// tokens-per-minute and tokens-per-day rate limit windows.
//
// # Token Estimation Accuracy
//
// The estimator is character based with model-specific ratios:
//
//   - GPT-4 family: ~4 characters per token
//   - Claude 3 family: ~3.5 characters per token
//
// # Usage
//
//	estimator := tokens.NewSimpleEstimator(map[string]float64{
//		"claude":  3.5,
//		"default": 4.0,
//	})
//
//	estimate := estimator.EstimatePrompt(prompt, "claude-3-5-sonnet", 512)
//	fmt.Printf("Estimated tokens: %d\n", estimate.TotalTokens)
package tokens
