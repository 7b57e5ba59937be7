package config

import "time"

// Default values for configuration fields.
const (
	// Retry defaults
	DefaultMaxRetries = 3
	DefaultBaseDelay  = time.Second
	DefaultFactor     = 2.0
	DefaultMaxDelay   = 60 * time.Second
	DefaultJitter     = true

	// Budget defaults
	DefaultWarningThreshold = 0.8

	// Pricing defaults (USD per million tokens)
	DefaultInputPerMillion  = 15.00
	DefaultOutputPerMillion = 75.00

	// Provider defaults
	DefaultProviderTimeout = 60 * time.Second

	// Telemetry defaults
	DefaultLoggingLevel       = "info"
	DefaultLoggingFormat      = "json"
	DefaultRedactSecrets      = true
	DefaultMetricsEnabled     = true
	DefaultMetricsPath        = "/metrics"
	DefaultMetricsNamespace   = "relay"
	DefaultTracingSampler     = "always"
	DefaultTracingSampleRatio = 1.0
	DefaultTracingServiceName = "relay"
	DefaultTracingTimeout     = 10 * time.Second

	// Watch defaults
	DefaultWatchDebounce = 100 * time.Millisecond
)

// RetryKind names accepted in retry.retry_on.
const (
	RetryOnRateLimited = "rate_limited"
	RetryOnTimeout     = "timeout"
	RetryOnServerError = "server_error"
	RetryOnUnavailable = "unavailable"
)

// DefaultRetryOn is the default list of retried error kinds.
var DefaultRetryOn = []string{
	RetryOnRateLimited,
	RetryOnTimeout,
	RetryOnServerError,
	RetryOnUnavailable,
}

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}

// ApplyDefaults applies default values to a Config struct.
// It sets defaults for any fields that have zero values.
// This function is idempotent and safe to call multiple times.
func ApplyDefaults(cfg *Config) {
	// Retry defaults
	if cfg.Retry.MaxRetries == nil {
		n := DefaultMaxRetries
		cfg.Retry.MaxRetries = &n
	}
	if cfg.Retry.BaseDelay == 0 {
		cfg.Retry.BaseDelay = DefaultBaseDelay
	}
	if cfg.Retry.Factor == 0 {
		cfg.Retry.Factor = DefaultFactor
	}
	if cfg.Retry.MaxDelay == 0 {
		cfg.Retry.MaxDelay = DefaultMaxDelay
	}
	if cfg.Retry.Jitter == nil {
		b := DefaultJitter
		cfg.Retry.Jitter = &b
	}
	if len(cfg.Retry.RetryOn) == 0 {
		cfg.Retry.RetryOn = append([]string(nil), DefaultRetryOn...)
	}

	// Budget defaults
	if cfg.Budget.WarningThreshold == 0 {
		cfg.Budget.WarningThreshold = DefaultWarningThreshold
	}

	// Pricing defaults
	if cfg.Pricing.Default.Input == 0 && cfg.Pricing.Default.Output == 0 {
		cfg.Pricing.Default = ModelPricingConfig{
			Input:  DefaultInputPerMillion,
			Output: DefaultOutputPerMillion,
		}
	}

	// Provider defaults
	for i := range cfg.Providers {
		p := &cfg.Providers[i]
		if p.Model == "" {
			p.Model = p.Name
		}
		if p.Timeout == 0 {
			p.Timeout = DefaultProviderTimeout
		}
	}

	applyTelemetryDefaults(&cfg.Telemetry)

	// Watch defaults
	if cfg.Watch.Debounce == 0 {
		cfg.Watch.Debounce = DefaultWatchDebounce
	}
}

func applyTelemetryDefaults(cfg *TelemetryConfig) {
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = DefaultLoggingLevel
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = DefaultLoggingFormat
	}
	if cfg.Logging.RedactSecrets == nil {
		b := DefaultRedactSecrets
		cfg.Logging.RedactSecrets = &b
	}

	if cfg.Metrics.Enabled == nil {
		b := DefaultMetricsEnabled
		cfg.Metrics.Enabled = &b
	}
	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = DefaultMetricsPath
	}
	if cfg.Metrics.Namespace == "" {
		cfg.Metrics.Namespace = DefaultMetricsNamespace
	}

	if cfg.Tracing.Sampler == "" {
		cfg.Tracing.Sampler = DefaultTracingSampler
	}
	if cfg.Tracing.SampleRatio == 0 {
		cfg.Tracing.SampleRatio = DefaultTracingSampleRatio
	}
	if cfg.Tracing.ServiceName == "" {
		cfg.Tracing.ServiceName = DefaultTracingServiceName
	}
	if cfg.Tracing.Timeout == 0 {
		cfg.Tracing.Timeout = DefaultTracingTimeout
	}
}
