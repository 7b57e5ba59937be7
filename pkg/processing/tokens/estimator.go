package tokens

// Estimator estimates token counts for prompts before they are sent.
// Implementations may use different algorithms (character-based, BPE, etc.).
type Estimator interface {
	// EstimateText estimates tokens for a single text string.
	EstimateText(text string, model string) int

	// EstimatePrompt estimates prompt and completion tokens for a call.
	// maxOutputTokens, when positive, is used as the completion estimate.
	EstimatePrompt(prompt string, model string, maxOutputTokens int) Estimate
}

// Estimate contains token estimation results for a single call.
type Estimate struct {
	// PromptTokens is the estimated number of tokens in the prompt.
	PromptTokens int

	// EstimatedCompletionTokens is the estimated number of completion tokens.
	// This is maxOutputTokens when given, or a default derived from the prompt.
	EstimatedCompletionTokens int

	// TotalTokens is the total estimated tokens (prompt + completion).
	TotalTokens int

	// Model is the model used for estimation.
	Model string
}
