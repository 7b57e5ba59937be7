package tracing

import (
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Attribute keys for resilience spans. Custom keys use the "relay.*"
// namespace.
const (
	// Fallback attributes
	AttrInvocationID = "relay.invocation_id"
	AttrCandidate    = "relay.candidate"
	AttrCandidates   = "relay.candidates"
	AttrModelUsed    = "relay.model_used"
	AttrAttempts     = "relay.attempts"
	AttrDegraded     = "relay.degraded"
	AttrRetryCount   = "relay.retry_count"

	// Token and cost attributes
	AttrModel            = "relay.model"
	AttrTokensPrompt     = "relay.tokens.prompt"
	AttrTokensCompletion = "relay.tokens.completion"
	AttrCost             = "relay.cost.total"

	// Limit attributes
	AttrRateLimitWait   = "relay.rate_limit.wait_ms"
	AttrBudgetLimitType = "relay.budget.limit_type"

	AttrErrorMessage = "error.message"
)

// SetFallbackResult records the outcome of a fallback invocation.
func SetFallbackResult(span trace.Span, modelUsed string, attempts int, degraded bool) {
	span.SetAttributes(
		attribute.String(AttrModelUsed, modelUsed),
		attribute.Int(AttrAttempts, attempts),
		attribute.Bool(AttrDegraded, degraded),
	)
}

// SetRetryAttribute sets the retry count attribute on a span.
func SetRetryAttribute(span trace.Span, retryCount int) {
	span.SetAttributes(attribute.Int(AttrRetryCount, retryCount))
}

// SetCostWithTokens records the priced model, token counts and cost.
//
// Example:
//
//	SetCostWithTokens(span, "gpt-4o", 1500, 500, 0.0088)
func SetCostWithTokens(span trace.Span, model string, promptTokens, completionTokens int, cost float64) {
	span.SetAttributes(
		attribute.String(AttrModel, model),
		attribute.Int(AttrTokensPrompt, promptTokens),
		attribute.Int(AttrTokensCompletion, completionTokens),
		attribute.Float64(AttrCost, cost),
	)
}
