package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment variable override.
const EnvPrefix = "RELAY_"

// LoadConfig loads configuration from a YAML file at the specified path.
// It applies default values, validates the configuration, and returns any errors.
// The configuration is not modified by environment variables; use LoadConfigWithEnvOverrides
// for that functionality.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration file %q: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes YAML, applies defaults and validates the result.
// Unknown fields are rejected.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	// An empty document decodes to io.EOF and means all defaults.
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// LoadConfigWithEnvOverrides loads configuration from a YAML file and applies
// environment variable overrides. Environment variables follow the naming
// convention RELAY_SECTION_FIELD (e.g., RELAY_BUDGET_DAILY_LIMIT).
// Environment variables always take precedence over file-based configuration.
//
// The loading sequence is:
// 1. Load YAML from file (or defaults when path is empty)
// 2. Apply default values
// 3. Apply environment variable overrides
// 4. Validate final configuration
func LoadConfigWithEnvOverrides(path string) (*Config, error) {
	var (
		cfg *Config
		err error
	)
	if path == "" {
		cfg = Default()
	} else if cfg, err = LoadConfig(path); err != nil {
		return nil, err
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed after environment overrides: %w", err)
	}

	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// A variable that is set but cannot be parsed is an error.
func applyEnvOverrides(cfg *Config) error {
	var errs []FieldError

	parseFloat := func(name string, dst *float64) {
		if val := os.Getenv(EnvPrefix + name); val != "" {
			f, err := strconv.ParseFloat(val, 64)
			if err != nil {
				errs = append(errs, FieldError{Field: EnvPrefix + name, Message: "must be a number"})
				return
			}
			*dst = f
		}
	}
	parseDuration := func(name string, dst *time.Duration) {
		if val := os.Getenv(EnvPrefix + name); val != "" {
			d, err := time.ParseDuration(val)
			if err != nil {
				errs = append(errs, FieldError{Field: EnvPrefix + name, Message: "must be a duration"})
				return
			}
			*dst = d
		}
	}
	parseBool := func(name string, dst *bool) {
		if val := os.Getenv(EnvPrefix + name); val != "" {
			b, err := strconv.ParseBool(val)
			if err != nil {
				errs = append(errs, FieldError{Field: EnvPrefix + name, Message: "must be a boolean"})
				return
			}
			*dst = b
		}
	}
	parseString := func(name string, dst *string) {
		if val := os.Getenv(EnvPrefix + name); val != "" {
			*dst = val
		}
	}

	// Retry overrides
	if val := os.Getenv(EnvPrefix + "RETRY_MAX_RETRIES"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			cfg.Retry.MaxRetries = &i
		} else {
			errs = append(errs, FieldError{Field: EnvPrefix + "RETRY_MAX_RETRIES", Message: "must be an integer"})
		}
	}
	parseDuration("RETRY_BASE_DELAY", &cfg.Retry.BaseDelay)
	parseDuration("RETRY_MAX_DELAY", &cfg.Retry.MaxDelay)

	// Rate limit overrides
	parseFloat("RATE_LIMITS_REQUESTS_PER_MINUTE", &cfg.RateLimits.RequestsPerMinute)
	parseFloat("RATE_LIMITS_TOKENS_PER_MINUTE", &cfg.RateLimits.TokensPerMinute)
	parseFloat("RATE_LIMITS_REQUESTS_PER_DAY", &cfg.RateLimits.RequestsPerDay)
	parseFloat("RATE_LIMITS_TOKENS_PER_DAY", &cfg.RateLimits.TokensPerDay)

	// Budget overrides
	parseFloat("BUDGET_DAILY_LIMIT", &cfg.Budget.DailyLimit)
	parseFloat("BUDGET_MONTHLY_LIMIT", &cfg.Budget.MonthlyLimit)
	parseFloat("BUDGET_PER_REQUEST_LIMIT", &cfg.Budget.PerRequestLimit)
	parseFloat("BUDGET_WARNING_THRESHOLD", &cfg.Budget.WarningThreshold)

	// Telemetry overrides
	parseString("TELEMETRY_LOGGING_LEVEL", &cfg.Telemetry.Logging.Level)
	parseString("TELEMETRY_LOGGING_FORMAT", &cfg.Telemetry.Logging.Format)
	parseString("TELEMETRY_METRICS_ADDRESS", &cfg.Telemetry.Metrics.Address)
	parseBool("TELEMETRY_TRACING_ENABLED", &cfg.Telemetry.Tracing.Enabled)
	parseString("TELEMETRY_TRACING_ENDPOINT", &cfg.Telemetry.Tracing.Endpoint)
	parseString("TELEMETRY_TRACING_SAMPLER", &cfg.Telemetry.Tracing.Sampler)
	parseFloat("TELEMETRY_TRACING_SAMPLE_RATIO", &cfg.Telemetry.Tracing.SampleRatio)

	// Provider overrides, keyed by provider name
	for i := range cfg.Providers {
		applyProviderEnvOverrides(&cfg.Providers[i], parseDuration)
	}

	if len(errs) > 0 {
		return ValidationError{Errors: errs}
	}
	return nil
}

// applyProviderEnvOverrides applies provider-specific environment variable overrides.
// Provider environment variables follow the format RELAY_PROVIDERS_<NAME>_<FIELD>
// where NAME is the uppercase provider name with dashes and dots as underscores.
func applyProviderEnvOverrides(provider *ProviderConfig, parseDuration func(string, *time.Duration)) {
	name := strings.NewReplacer("-", "_", ".", "_").Replace(strings.ToUpper(provider.Name))
	prefix := "PROVIDERS_" + name + "_"

	if val := os.Getenv(EnvPrefix + prefix + "BASE_URL"); val != "" {
		provider.BaseURL = val
	}
	if val := os.Getenv(EnvPrefix + prefix + "API_KEY"); val != "" {
		provider.APIKey = val
	}
	parseDuration(prefix+"TIMEOUT", &provider.Timeout)
}
