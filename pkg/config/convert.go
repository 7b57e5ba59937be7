package config

import (
	"io"
	"slices"
	"sort"

	"mercator-hq/relay/pkg/limits/budget"
	"mercator-hq/relay/pkg/limits/ratelimit"
	"mercator-hq/relay/pkg/processing/costs"
	"mercator-hq/relay/pkg/processing/tokens"
	"mercator-hq/relay/pkg/providers"
	"mercator-hq/relay/pkg/resilience/backoff"
	"mercator-hq/relay/pkg/telemetry/logging"
	"mercator-hq/relay/pkg/telemetry/metrics"
	"mercator-hq/relay/pkg/telemetry/tracing"
)

// retryKinds maps retry.retry_on names to provider error sentinels.
var retryKinds = map[string]error{
	RetryOnRateLimited: providers.ErrRateLimited,
	RetryOnTimeout:     providers.ErrTimeout,
	RetryOnServerError: providers.ErrServerError,
	RetryOnUnavailable: providers.ErrUnavailable,
}

// Backoff returns the backoff configuration. Unknown retry kinds are
// skipped; Validate reports them.
func (c RetryConfig) Backoff() backoff.Config {
	retryable := make([]error, 0, len(c.RetryOn))
	for _, kind := range c.RetryOn {
		if err, ok := retryKinds[kind]; ok {
			retryable = append(retryable, err)
		}
	}

	return backoff.Config{
		MaxRetries: c.Retries(),
		Base:       c.BaseDelay,
		Factor:     c.Factor,
		Max:        c.MaxDelay,
		Jitter:     c.JitterEnabled(),
		Retryable:  retryable,
	}
}

// Policy builds a backoff policy from the configuration.
func (c RetryConfig) Policy(opts ...backoff.Option) *backoff.Policy {
	return backoff.New(c.Backoff(), opts...)
}

// Limits returns the rate limiter configuration.
func (c RateLimitConfig) Limits() ratelimit.Config {
	return ratelimit.Config{
		RequestsPerMinute: c.RequestsPerMinute,
		TokensPerMinute:   c.TokensPerMinute,
		RequestsPerDay:    c.RequestsPerDay,
		TokensPerDay:      c.TokensPerDay,
	}
}

// Limiter builds a rate limiter, or returns nil when no window is set.
func (c RateLimitConfig) Limiter() *ratelimit.Limiter {
	limits := c.Limits()
	if limits.IsZero() {
		return nil
	}
	return ratelimit.NewLimiter(limits)
}

// Budget returns the budget enforcer configuration.
func (c BudgetConfig) Budget() budget.Config {
	return budget.Config{
		DailyLimit:       c.DailyLimit,
		MonthlyLimit:     c.MonthlyLimit,
		PerRequestLimit:  c.PerRequestLimit,
		WarningThreshold: c.WarningThreshold,
	}
}

// Table returns the pricing table.
func (c PricingConfig) Table() costs.Table {
	models := make(map[string]costs.ModelPricing, len(c.Models))
	for name, p := range c.Models {
		models[name] = costs.ModelPricing{InputPerMillion: p.Input, OutputPerMillion: p.Output}
	}
	return costs.Table{
		Models:  models,
		Default: costs.ModelPricing{InputPerMillion: c.Default.Input, OutputPerMillion: c.Default.Output},
	}
}

// Estimator builds the token estimator.
func (c TokensConfig) Estimator() *tokens.SimpleEstimator {
	return tokens.NewSimpleEstimator(c.Models)
}

// Provider returns the HTTP provider configuration.
func (c ProviderConfig) Provider() providers.Config {
	return providers.Config{
		Name:      c.Name,
		Model:     c.Model,
		BaseURL:   c.BaseURL,
		APIKey:    c.APIKey,
		MaxTokens: c.MaxTokens,
		Timeout:   c.Timeout,
	}
}

// OrderedProviders returns the providers in fallback order: fallback.order
// when set, the providers list otherwise.
func (c *Config) OrderedProviders() []ProviderConfig {
	if len(c.Fallback.Order) == 0 {
		return slices.Clone(c.Providers)
	}

	byName := make(map[string]ProviderConfig, len(c.Providers))
	for _, p := range c.Providers {
		byName[p.Name] = p
	}
	ordered := make([]ProviderConfig, 0, len(c.Fallback.Order))
	for _, name := range c.Fallback.Order {
		if p, ok := byName[name]; ok {
			ordered = append(ordered, p)
		}
	}
	return ordered
}

// Logger returns the logger configuration writing to w.
func (c LoggingConfig) Logger(w io.Writer) logging.Config {
	redact := DefaultRedactSecrets
	if c.RedactSecrets != nil {
		redact = *c.RedactSecrets
	}
	return logging.Config{
		Level:         c.Level,
		Format:        c.Format,
		AddSource:     c.AddSource,
		RedactSecrets: redact,
		Writer:        w,
	}
}

// Collector returns the metrics collector configuration.
func (c MetricsConfig) Collector() metrics.Config {
	enabled := DefaultMetricsEnabled
	if c.Enabled != nil {
		enabled = *c.Enabled
	}
	return metrics.Config{
		Enabled:   enabled,
		Namespace: c.Namespace,
	}
}

// Tracer returns the tracing configuration.
func (c TracingConfig) Tracer(version string) tracing.Config {
	return tracing.Config{
		Enabled:        c.Enabled,
		Sampler:        c.Sampler,
		SampleRatio:    c.SampleRatio,
		Endpoint:       c.Endpoint,
		ServiceName:    c.ServiceName,
		ServiceVersion: version,
		Insecure:       c.Insecure,
		Timeout:        c.Timeout,
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
