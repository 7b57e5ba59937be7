package config

import "time"

// Config is the root configuration structure for relay.
// It contains the retry, rate limit, budget and fallback settings of the
// resilient call layer, the providers it calls, and telemetry.
type Config struct {
	// Retry configures the backoff policy applied to every candidate.
	Retry RetryConfig `yaml:"retry"`

	// RateLimits configures the client-side token buckets.
	RateLimits RateLimitConfig `yaml:"rate_limits"`

	// Budget configures spend limits.
	Budget BudgetConfig `yaml:"budget"`

	// Pricing is the per-model pricing table used for cost estimates.
	Pricing PricingConfig `yaml:"pricing"`

	// Tokens configures prompt token estimation.
	Tokens TokensConfig `yaml:"tokens"`

	// Fallback configures the candidate order.
	Fallback FallbackConfig `yaml:"fallback"`

	// Providers lists the HTTP model endpoints that can serve calls.
	Providers []ProviderConfig `yaml:"providers"`

	// Telemetry contains logging, metrics and tracing configuration.
	Telemetry TelemetryConfig `yaml:"telemetry"`

	// Watch controls hot reload of this file.
	Watch WatchConfig `yaml:"watch"`
}

// RetryConfig describes the bounded exponential backoff policy.
type RetryConfig struct {
	// MaxRetries is the number of retries after the first attempt.
	// 0 disables retries.
	// Default: 3
	MaxRetries *int `yaml:"max_retries"`

	// BaseDelay is the delay before the first retry.
	// Default: 1s
	BaseDelay time.Duration `yaml:"base_delay"`

	// Factor multiplies the delay on each further retry.
	// Default: 2.0
	Factor float64 `yaml:"factor"`

	// MaxDelay caps the computed delay.
	// Default: 60s
	MaxDelay time.Duration `yaml:"max_delay"`

	// Jitter randomizes each delay by +/-25%.
	// Default: true
	Jitter *bool `yaml:"jitter"`

	// RetryOn lists the error kinds that are retried.
	// Options: "rate_limited", "timeout", "server_error", "unavailable"
	// Default: all of them
	RetryOn []string `yaml:"retry_on"`
}

// Retries returns MaxRetries, or the default when unset.
func (c RetryConfig) Retries() int {
	if c.MaxRetries == nil {
		return DefaultMaxRetries
	}
	return *c.MaxRetries
}

// JitterEnabled returns Jitter, or the default when unset.
func (c RetryConfig) JitterEnabled() bool {
	if c.Jitter == nil {
		return DefaultJitter
	}
	return *c.Jitter
}

// RateLimitConfig contains client-side rate limits.
// Zero disables a window.
type RateLimitConfig struct {
	RequestsPerMinute float64 `yaml:"requests_per_minute"`
	TokensPerMinute   float64 `yaml:"tokens_per_minute"`
	RequestsPerDay    float64 `yaml:"requests_per_day"`
	TokensPerDay      float64 `yaml:"tokens_per_day"`
}

// BudgetConfig contains spend limits in USD. Zero disables a limit.
type BudgetConfig struct {
	// DailyLimit is the maximum spend per UTC calendar day.
	DailyLimit float64 `yaml:"daily_limit"`

	// MonthlyLimit is the maximum spend per UTC calendar month.
	MonthlyLimit float64 `yaml:"monthly_limit"`

	// PerRequestLimit is the maximum estimated cost of a single call.
	PerRequestLimit float64 `yaml:"per_request_limit"`

	// WarningThreshold is the fraction of a limit at which warnings fire.
	// Default: 0.8
	WarningThreshold float64 `yaml:"warning_threshold"`

	// ReportSchedule is a cron expression for budget status snapshots.
	// Empty disables the reporter.
	ReportSchedule string `yaml:"report_schedule"`
}

// PricingConfig is the model pricing table.
type PricingConfig struct {
	// Models maps a model name or prefix to its pricing.
	Models map[string]ModelPricingConfig `yaml:"models"`

	// Default prices models that match nothing in Models.
	// Default: 15.00 input / 75.00 output
	Default ModelPricingConfig `yaml:"default"`
}

// ModelPricingConfig is the price of one model in USD per million tokens.
type ModelPricingConfig struct {
	Input  float64 `yaml:"input"`
	Output float64 `yaml:"output"`
}

// TokensConfig configures the character based token estimator.
type TokensConfig struct {
	// Models maps a model name or prefix to its characters-per-token ratio.
	// The key "default" overrides the 4.0 default.
	Models map[string]float64 `yaml:"models"`
}

// FallbackConfig configures the fallback chain.
type FallbackConfig struct {
	// Order lists provider names in the order they are tried.
	// Empty means the order of the providers list.
	Order []string `yaml:"order"`
}

// ProviderConfig describes an OpenAI-compatible HTTP endpoint.
type ProviderConfig struct {
	// Name identifies the provider as a fallback candidate.
	Name string `yaml:"name"`

	// Model is sent in the request body and is the pricing key. Spend is
	// booked against the model the response reports, falling back to this
	// one. Default: Name
	Model string `yaml:"model"`

	// BaseURL is the API base, e.g. "https://api.openai.com/v1".
	BaseURL string `yaml:"base_url"`

	// APIKey is sent as a bearer token.
	APIKey string `yaml:"api_key"`

	// MaxTokens bounds the completion. 0 leaves it to the provider.
	MaxTokens int `yaml:"max_tokens"`

	// Timeout is the per-request timeout.
	// Default: 60s
	Timeout time.Duration `yaml:"timeout"`
}

// TelemetryConfig contains observability configuration.
type TelemetryConfig struct {
	// Logging contains logging configuration.
	Logging LoggingConfig `yaml:"logging"`

	// Metrics contains Prometheus configuration.
	Metrics MetricsConfig `yaml:"metrics"`

	// Tracing contains distributed tracing configuration.
	Tracing TracingConfig `yaml:"tracing"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	// Level is the minimum log level to emit.
	// Options: "debug", "info", "warn", "error"
	// Default: "info"
	Level string `yaml:"level"`

	// Format controls the log output format.
	// Options: "json", "text", "console"
	// Default: "json"
	Format string `yaml:"format"`

	// AddSource includes file and line number in log entries.
	AddSource bool `yaml:"add_source"`

	// RedactSecrets masks API keys and bearer tokens in log output.
	// Default: true
	RedactSecrets *bool `yaml:"redact_secrets"`
}

// MetricsConfig contains Prometheus configuration.
type MetricsConfig struct {
	// Enabled controls whether resilience metrics are collected.
	// Default: true
	Enabled *bool `yaml:"enabled"`

	// Address is where the metrics endpoint listens. Empty disables the
	// endpoint; metrics are still collected.
	Address string `yaml:"address"`

	// Path is the HTTP path for the metrics endpoint.
	// Default: "/metrics"
	Path string `yaml:"path"`

	// Namespace is the metric name prefix.
	// Default: "relay"
	Namespace string `yaml:"namespace"`
}

// TracingConfig contains distributed tracing configuration.
type TracingConfig struct {
	// Enabled controls whether spans are exported.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// Sampler determines the sampling strategy.
	// Options: "always", "never", "ratio"
	// Default: "always"
	Sampler string `yaml:"sampler"`

	// SampleRatio is the fraction of traces sampled with the "ratio" sampler.
	// Default: 1.0
	SampleRatio float64 `yaml:"sample_ratio"`

	// Endpoint is the OTLP gRPC collector address (host:port).
	Endpoint string `yaml:"endpoint"`

	// Insecure disables TLS to the collector.
	Insecure bool `yaml:"insecure"`

	// ServiceName is reported as service.name.
	// Default: "relay"
	ServiceName string `yaml:"service_name"`

	// Timeout bounds exporter calls.
	// Default: 10s
	Timeout time.Duration `yaml:"timeout"`
}

// WatchConfig controls configuration hot reload.
type WatchConfig struct {
	// Enabled reloads pricing and budget limits when the file changes.
	Enabled bool `yaml:"enabled"`

	// Debounce is how long to wait after the last change before reloading.
	// Default: 100ms
	Debounce time.Duration `yaml:"debounce"`
}
