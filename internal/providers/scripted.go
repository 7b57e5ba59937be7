// Package providers contains in-process providers and a mock HTTP server
// used by the simulate command and by tests.
package providers

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"mercator-hq/relay/pkg/providers"
)

// Outcome is one scripted response: an error, or a completion with the
// given usage when Err is nil.
type Outcome struct {
	Err              error
	Content          string
	PromptTokens     int
	CompletionTokens int
	Latency          time.Duration

	// Model overrides the reported model, which defaults to the provider name.
	Model string
}

// ScriptedProvider replays outcomes in order. Once the script is exhausted
// the last outcome repeats; an empty script always succeeds.
type ScriptedProvider struct {
	name   string
	script []Outcome

	mu    sync.Mutex
	calls int
}

// NewScriptedProvider creates a provider that replays script.
func NewScriptedProvider(name string, script ...Outcome) *ScriptedProvider {
	return &ScriptedProvider{name: name, script: script}
}

// Name returns the provider name.
func (p *ScriptedProvider) Name() string {
	return p.name
}

// Calls returns how many times Invoke was called.
func (p *ScriptedProvider) Calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

// Invoke returns the next scripted outcome.
func (p *ScriptedProvider) Invoke(ctx context.Context, prompt string) (*providers.Completion, error) {
	p.mu.Lock()
	n := p.calls
	p.calls++
	p.mu.Unlock()

	outcome := Outcome{Content: "ok", PromptTokens: len(prompt) / 4, CompletionTokens: 16}
	if len(p.script) > 0 {
		outcome = p.script[min(n, len(p.script)-1)]
	}
	return complete(ctx, p.name, outcome)
}

// FlakyProvider fails a fixed fraction of calls with a transient error.
type FlakyProvider struct {
	name        string
	failureRate float64
	failure     func(name string) error
	latency     time.Duration

	mu    sync.Mutex
	rng   *rand.Rand
	calls int
}

// NewFlakyProvider creates a provider failing roughly failureRate of its
// calls with failure(name). seed makes runs reproducible.
func NewFlakyProvider(name string, failureRate float64, latency time.Duration, seed int64, failure func(name string) error) *FlakyProvider {
	if failure == nil {
		failure = func(name string) error {
			return &providers.ServerError{Provider: name, StatusCode: 503, Message: "simulated outage"}
		}
	}
	return &FlakyProvider{
		name:        name,
		failureRate: failureRate,
		failure:     failure,
		latency:     latency,
		rng:         rand.New(rand.NewSource(seed)),
	}
}

// Name returns the provider name.
func (p *FlakyProvider) Name() string {
	return p.name
}

// Calls returns how many times Invoke was called.
func (p *FlakyProvider) Calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

// Invoke fails with probability failureRate.
func (p *FlakyProvider) Invoke(ctx context.Context, prompt string) (*providers.Completion, error) {
	p.mu.Lock()
	p.calls++
	fail := p.rng.Float64() < p.failureRate
	p.mu.Unlock()

	outcome := Outcome{
		Content:          fmt.Sprintf("%s says hello", p.name),
		PromptTokens:     max(1, len(prompt)/4),
		CompletionTokens: 64,
		Latency:          p.latency,
	}
	if fail {
		outcome.Err = p.failure(p.name)
	}
	return complete(ctx, p.name, outcome)
}

func complete(ctx context.Context, name string, o Outcome) (*providers.Completion, error) {
	if o.Latency > 0 {
		timer := time.NewTimer(o.Latency)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timer.C:
		}
	} else if err := ctx.Err(); err != nil {
		return nil, err
	}

	if o.Err != nil {
		return nil, o.Err
	}
	model := name
	if o.Model != "" {
		model = o.Model
	}
	return &providers.Completion{
		ID:               "scripted",
		Model:            model,
		Content:          o.Content,
		FinishReason:     providers.FinishReasonStop,
		PromptTokens:     o.PromptTokens,
		CompletionTokens: o.CompletionTokens,
	}, nil
}
