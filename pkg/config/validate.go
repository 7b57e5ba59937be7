package config

import (
	"fmt"
	"net/url"
	"strings"

	"mercator-hq/relay/pkg/limits/budget"
	"mercator-hq/relay/pkg/telemetry/tracing"
)

// FieldError represents a validation error for a specific configuration field.
type FieldError struct {
	// Field is the dotted path to the configuration field (e.g., "budget.daily_limit").
	Field string

	// Message is a human-readable error message.
	Message string
}

// Error returns the error message for this field error.
func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError represents one or more validation errors in a configuration.
// It implements the error interface and provides access to all field errors.
type ValidationError struct {
	// Errors contains all validation errors found in the configuration.
	Errors []FieldError
}

// Error returns a formatted string containing all validation errors.
func (e ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "configuration validation failed"
	}
	if len(e.Errors) == 1 {
		return fmt.Sprintf("configuration validation failed: %s", e.Errors[0].Error())
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("configuration validation failed with %d errors:\n", len(e.Errors)))
	for _, err := range e.Errors {
		sb.WriteString(fmt.Sprintf("  - %s\n", err.Error()))
	}
	return sb.String()
}

// Validate validates the entire configuration and returns a ValidationError
// if any validation rules fail. It returns nil if the configuration is valid.
// All validation errors are collected and returned together.
func Validate(cfg *Config) error {
	var errs []FieldError

	errs = append(errs, validateRetry(&cfg.Retry)...)
	errs = append(errs, validateRateLimits(&cfg.RateLimits)...)
	errs = append(errs, validateBudget(&cfg.Budget)...)
	errs = append(errs, validatePricing(&cfg.Pricing)...)
	errs = append(errs, validateTokens(&cfg.Tokens)...)
	errs = append(errs, validateProviders(cfg.Providers)...)
	errs = append(errs, validateFallback(&cfg.Fallback, cfg.Providers)...)
	errs = append(errs, validateTelemetry(&cfg.Telemetry)...)

	if cfg.Watch.Debounce < 0 {
		errs = append(errs, FieldError{
			Field:   "watch.debounce",
			Message: "debounce must be non-negative",
		})
	}

	if len(errs) > 0 {
		return ValidationError{Errors: errs}
	}

	return nil
}

// validateRetry validates the backoff policy.
func validateRetry(cfg *RetryConfig) []FieldError {
	var errs []FieldError

	if cfg.Retries() < 0 {
		errs = append(errs, FieldError{
			Field:   "retry.max_retries",
			Message: fmt.Sprintf("max retries must be non-negative, got %d", cfg.Retries()),
		})
	}
	if cfg.BaseDelay < 0 {
		errs = append(errs, FieldError{
			Field:   "retry.base_delay",
			Message: "base delay must be non-negative",
		})
	}
	if cfg.Factor < 1 {
		errs = append(errs, FieldError{
			Field:   "retry.factor",
			Message: fmt.Sprintf("factor must be at least 1, got %g", cfg.Factor),
		})
	}
	if cfg.MaxDelay < 0 {
		errs = append(errs, FieldError{
			Field:   "retry.max_delay",
			Message: "max delay must be non-negative",
		})
	} else if cfg.MaxDelay < cfg.BaseDelay {
		errs = append(errs, FieldError{
			Field:   "retry.max_delay",
			Message: fmt.Sprintf("max delay (%s) must not be less than base delay (%s)", cfg.MaxDelay, cfg.BaseDelay),
		})
	}

	for i, kind := range cfg.RetryOn {
		if _, ok := retryKinds[kind]; !ok {
			errs = append(errs, FieldError{
				Field:   fmt.Sprintf("retry.retry_on[%d]", i),
				Message: fmt.Sprintf("unknown error kind %q (valid: %s)", kind, strings.Join(DefaultRetryOn, ", ")),
			})
		}
	}

	return errs
}

// validateRateLimits validates that no limit is negative.
func validateRateLimits(cfg *RateLimitConfig) []FieldError {
	var errs []FieldError

	limits := []struct {
		field string
		value float64
	}{
		{"rate_limits.requests_per_minute", cfg.RequestsPerMinute},
		{"rate_limits.tokens_per_minute", cfg.TokensPerMinute},
		{"rate_limits.requests_per_day", cfg.RequestsPerDay},
		{"rate_limits.tokens_per_day", cfg.TokensPerDay},
	}
	for _, l := range limits {
		if l.value < 0 {
			errs = append(errs, FieldError{
				Field:   l.field,
				Message: fmt.Sprintf("limit must be non-negative, got %g", l.value),
			})
		}
	}

	return errs
}

// validateBudget validates spend limits and the report schedule.
func validateBudget(cfg *BudgetConfig) []FieldError {
	var errs []FieldError

	limits := []struct {
		field string
		value float64
	}{
		{"budget.daily_limit", cfg.DailyLimit},
		{"budget.monthly_limit", cfg.MonthlyLimit},
		{"budget.per_request_limit", cfg.PerRequestLimit},
	}
	for _, l := range limits {
		if l.value < 0 {
			errs = append(errs, FieldError{
				Field:   l.field,
				Message: fmt.Sprintf("limit must be non-negative, got %g", l.value),
			})
		}
	}

	if cfg.DailyLimit > 0 && cfg.MonthlyLimit > 0 && cfg.DailyLimit > cfg.MonthlyLimit {
		errs = append(errs, FieldError{
			Field:   "budget.daily_limit",
			Message: fmt.Sprintf("daily limit (%g) exceeds monthly limit (%g)", cfg.DailyLimit, cfg.MonthlyLimit),
		})
	}

	if cfg.WarningThreshold <= 0 || cfg.WarningThreshold > 1 {
		errs = append(errs, FieldError{
			Field:   "budget.warning_threshold",
			Message: fmt.Sprintf("warning threshold must be in (0, 1], got %g", cfg.WarningThreshold),
		})
	}

	if cfg.ReportSchedule != "" {
		if err := budget.ValidateSchedule(cfg.ReportSchedule); err != nil {
			errs = append(errs, FieldError{
				Field:   "budget.report_schedule",
				Message: err.Error(),
			})
		}
	}

	return errs
}

// validatePricing validates that prices are non-negative.
func validatePricing(cfg *PricingConfig) []FieldError {
	var errs []FieldError

	check := func(field string, p ModelPricingConfig) {
		if p.Input < 0 {
			errs = append(errs, FieldError{Field: field + ".input", Message: "price must be non-negative"})
		}
		if p.Output < 0 {
			errs = append(errs, FieldError{Field: field + ".output", Message: "price must be non-negative"})
		}
	}

	for _, name := range sortedKeys(cfg.Models) {
		if name == "" {
			errs = append(errs, FieldError{Field: "pricing.models", Message: "model name cannot be empty"})
			continue
		}
		check("pricing.models."+name, cfg.Models[name])
	}
	check("pricing.default", cfg.Default)

	return errs
}

// validateTokens validates chars-per-token ratios.
func validateTokens(cfg *TokensConfig) []FieldError {
	var errs []FieldError

	for _, name := range sortedKeys(cfg.Models) {
		if ratio := cfg.Models[name]; ratio <= 0 {
			errs = append(errs, FieldError{
				Field:   "tokens.models." + name,
				Message: fmt.Sprintf("chars per token must be positive, got %g", ratio),
			})
		}
	}

	return errs
}

// validateProviders validates provider configurations.
func validateProviders(providers []ProviderConfig) []FieldError {
	var errs []FieldError

	seen := make(map[string]bool, len(providers))
	for i, p := range providers {
		prefix := fmt.Sprintf("providers[%d]", i)

		if p.Name == "" {
			errs = append(errs, FieldError{Field: prefix + ".name", Message: "provider name is required"})
		} else if seen[p.Name] {
			errs = append(errs, FieldError{Field: prefix + ".name", Message: fmt.Sprintf("duplicate provider name %q", p.Name)})
		}
		seen[p.Name] = true

		if p.BaseURL == "" {
			errs = append(errs, FieldError{Field: prefix + ".base_url", Message: "base URL is required"})
		} else if u, err := url.Parse(p.BaseURL); err != nil {
			errs = append(errs, FieldError{Field: prefix + ".base_url", Message: fmt.Sprintf("invalid URL: %v", err)})
		} else if u.Scheme != "http" && u.Scheme != "https" {
			errs = append(errs, FieldError{Field: prefix + ".base_url", Message: "URL scheme must be http or https"})
		} else if u.Host == "" {
			errs = append(errs, FieldError{Field: prefix + ".base_url", Message: "URL must have a host"})
		}

		if p.Timeout < 0 {
			errs = append(errs, FieldError{Field: prefix + ".timeout", Message: "timeout must be non-negative"})
		}
		if p.MaxTokens < 0 {
			errs = append(errs, FieldError{Field: prefix + ".max_tokens", Message: "max tokens must be non-negative"})
		}
	}

	return errs
}

// validateFallback checks that the order names configured providers once.
func validateFallback(cfg *FallbackConfig, providers []ProviderConfig) []FieldError {
	var errs []FieldError

	known := make(map[string]bool, len(providers))
	for _, p := range providers {
		known[p.Name] = true
	}

	seen := make(map[string]bool, len(cfg.Order))
	for i, name := range cfg.Order {
		field := fmt.Sprintf("fallback.order[%d]", i)
		switch {
		case !known[name]:
			errs = append(errs, FieldError{Field: field, Message: fmt.Sprintf("unknown provider %q", name)})
		case seen[name]:
			errs = append(errs, FieldError{Field: field, Message: fmt.Sprintf("provider %q listed twice", name)})
		}
		seen[name] = true
	}

	return errs
}

// validateTelemetry validates logging, metrics and tracing.
func validateTelemetry(cfg *TelemetryConfig) []FieldError {
	var errs []FieldError

	switch strings.ToLower(cfg.Logging.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.level",
			Message: fmt.Sprintf("invalid log level %q (valid: debug, info, warn, error)", cfg.Logging.Level),
		})
	}

	switch strings.ToLower(cfg.Logging.Format) {
	case "json", "text", "console":
	default:
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.format",
			Message: fmt.Sprintf("invalid log format %q (valid: json, text, console)", cfg.Logging.Format),
		})
	}

	if !strings.HasPrefix(cfg.Metrics.Path, "/") {
		errs = append(errs, FieldError{
			Field:   "telemetry.metrics.path",
			Message: "metrics path must start with /",
		})
	}

	if err := tracing.ValidateSampling(cfg.Tracing.Sampler, cfg.Tracing.SampleRatio); err != nil {
		errs = append(errs, FieldError{
			Field:   "telemetry.tracing.sampler",
			Message: err.Error(),
		})
	}
	if cfg.Tracing.Enabled && cfg.Tracing.Endpoint == "" {
		errs = append(errs, FieldError{
			Field:   "telemetry.tracing.endpoint",
			Message: "endpoint is required when tracing is enabled",
		})
	}

	return errs
}
