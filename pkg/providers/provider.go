package providers

import (
	"context"
	"time"
)

// Provider performs a single model call for a prompt. It never retries;
// retries and fallback belong to the caller's backoff policy and fallback
// chain. A Provider satisfies fallback.Invoker[*Completion].
//
// Implementations must respect context cancellation and return immediately
// when the context is cancelled.
type Provider interface {
	// Name returns the provider's configured name.
	Name() string

	// Invoke sends prompt to the provider's model and returns the completion.
	Invoke(ctx context.Context, prompt string) (*Completion, error)
}

// Completion is a provider-agnostic completion.
type Completion struct {
	// ID is the unique response identifier
	ID string `json:"id"`

	// Model is the model that generated the response
	Model string `json:"model"`

	// Content is the generated text content
	Content string `json:"content"`

	// FinishReason indicates why generation stopped (stop, length, ...)
	FinishReason string `json:"finish_reason"`

	// PromptTokens and CompletionTokens are the provider-reported usage.
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
}

// Usage returns the provider-reported token usage. The executor uses it
// to book actual spend.
func (c *Completion) Usage() (inputTokens, outputTokens int) {
	if c == nil {
		return 0, 0
	}
	return c.PromptTokens, c.CompletionTokens
}

// ServedModel returns the model that generated the response. The executor
// prices actual spend by it, so candidates can be named after their
// endpoints.
func (c *Completion) ServedModel() string {
	if c == nil {
		return ""
	}
	return c.Model
}

// Config contains configuration for a single provider instance.
type Config struct {
	// Name is the provider identifier, also used as the fallback candidate name.
	Name string

	// Model is the model requested from the provider.
	Model string

	// BaseURL is the API endpoint base URL
	BaseURL string

	// APIKey is the authentication key
	APIKey string

	// MaxTokens caps the completion length (0 leaves it to the provider).
	MaxTokens int

	// Timeout is the request timeout duration
	Timeout time.Duration

	// MaxIdleConns is the maximum number of idle connections in the pool
	MaxIdleConns int

	// MaxIdleConnsPerHost is the maximum idle connections per host
	MaxIdleConnsPerHost int

	// IdleConnTimeout is how long an idle connection remains in the pool
	IdleConnTimeout time.Duration
}

// Finish reason constants
const (
	FinishReasonStop   = "stop"
	FinishReasonLength = "length"
)
