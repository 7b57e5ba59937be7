package tokens

import (
	"sort"
	"strings"
	"sync"
)

// DefaultCharsPerToken is used for models without a configured ratio.
const DefaultCharsPerToken = 4.0

// Completion estimate bounds when no output limit is given.
const (
	minCompletionEstimate = 100
	maxCompletionEstimate = 1000
)

// promptOverheadTokens accounts for special tokens and message framing.
const promptOverheadTokens = 5

// SimpleEstimator implements character-based token estimation.
// It uses model-specific characters-per-token ratios to estimate token counts.
type SimpleEstimator struct {
	// ratios maps a model name or prefix to its characters-per-token ratio
	ratios map[string]float64

	// prefixes holds ratio keys longest first
	prefixes []string

	// mu protects the estimator for concurrent access
	mu sync.RWMutex
}

// NewSimpleEstimator creates a new character-based token estimator.
// ratios maps model names (or prefixes) to characters per token; the key
// "default" overrides DefaultCharsPerToken.
func NewSimpleEstimator(ratios map[string]float64) *SimpleEstimator {
	e := &SimpleEstimator{}
	e.setRatiosLocked(ratios)
	return e
}

// EstimateText estimates tokens for a single text string.
// It uses the model-specific characters-per-token ratio.
func (e *SimpleEstimator) EstimateText(text string, model string) int {
	if text == "" {
		return 0
	}

	charsPerToken := e.getCharsPerToken(model)
	tokens := float64(len(text)) / charsPerToken
	if tokens < 1.0 {
		tokens = 1.0 // Minimum 1 token for non-empty text
	}

	return int(tokens + 0.5) // Round to nearest integer
}

// EstimatePrompt estimates the tokens for one call.
func (e *SimpleEstimator) EstimatePrompt(prompt string, model string, maxOutputTokens int) Estimate {
	estimate := Estimate{Model: model}

	estimate.PromptTokens = e.EstimateText(prompt, model) + promptOverheadTokens

	if maxOutputTokens > 0 {
		estimate.EstimatedCompletionTokens = maxOutputTokens
	} else {
		// Completions are typically a fraction of the prompt length
		completion := estimate.PromptTokens / 3
		if completion < minCompletionEstimate {
			completion = minCompletionEstimate
		}
		if completion > maxCompletionEstimate {
			completion = maxCompletionEstimate
		}
		estimate.EstimatedCompletionTokens = completion
	}

	estimate.TotalTokens = estimate.PromptTokens + estimate.EstimatedCompletionTokens
	return estimate
}

// UpdateRatios replaces the characters-per-token table.
func (e *SimpleEstimator) UpdateRatios(ratios map[string]float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.setRatiosLocked(ratios)
}

// getCharsPerToken returns the characters-per-token ratio for a model:
// exact match, then longest prefix, then "default", then DefaultCharsPerToken.
func (e *SimpleEstimator) getCharsPerToken(model string) float64 {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if ratio, ok := e.ratios[model]; ok {
		return ratio
	}

	for _, prefix := range e.prefixes {
		if strings.HasPrefix(model, prefix) {
			return e.ratios[prefix]
		}
	}

	if ratio, ok := e.ratios["default"]; ok {
		return ratio
	}

	return DefaultCharsPerToken
}

// setRatiosLocked copies ratios, dropping non-positive entries.
// Caller must hold write lock (or own e exclusively).
func (e *SimpleEstimator) setRatiosLocked(ratios map[string]float64) {
	e.ratios = make(map[string]float64, len(ratios))
	e.prefixes = e.prefixes[:0]
	for model, ratio := range ratios {
		if ratio <= 0 || model == "" {
			continue
		}
		e.ratios[model] = ratio
		if model != "default" {
			e.prefixes = append(e.prefixes, model)
		}
	}
	sort.Slice(e.prefixes, func(i, j int) bool {
		if len(e.prefixes[i]) != len(e.prefixes[j]) {
			return len(e.prefixes[i]) > len(e.prefixes[j])
		}
		return e.prefixes[i] < e.prefixes[j]
	})
}
