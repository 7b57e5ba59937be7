// Package config provides configuration management for relay.
//
// This package handles loading, validating, and reloading configuration
// from YAML files with environment variable overrides, and converts each
// section into the configuration of the package that uses it.
//
// # Configuration Loading
//
// Configuration can be loaded in two ways:
//
//  1. From a YAML file only:
//     cfg, err := config.LoadConfig("relay.yaml")
//
//  2. From a YAML file with environment variable overrides:
//     cfg, err := config.LoadConfigWithEnvOverrides("relay.yaml")
//
// An empty path to LoadConfigWithEnvOverrides starts from Default().
//
// # Environment Variable Overrides
//
// Environment variables follow the naming convention RELAY_SECTION_FIELD.
// For example:
//
//   - RELAY_BUDGET_DAILY_LIMIT overrides budget.daily_limit
//   - RELAY_RATE_LIMITS_REQUESTS_PER_MINUTE overrides rate_limits.requests_per_minute
//   - RELAY_PROVIDERS_OPENAI_API_KEY overrides the api_key of the provider named "openai"
//   - RELAY_TELEMETRY_LOGGING_LEVEL overrides telemetry.logging.level
//
// # Configuration Precedence
//
// Configuration values are applied in the following order (later overrides earlier):
//
//  1. Values from YAML file
//  2. Default values for anything left unset (defined in defaults.go)
//  3. Environment variable overrides
//  4. Validation (fails fast if invalid)
//
// # Converters
//
// Sections convert to the types of the packages they configure:
//
//	policy := cfg.Retry.Policy()               // *backoff.Policy
//	limiter := cfg.RateLimits.Limiter()        // *ratelimit.Limiter, nil when unset
//	enforcer := budget.NewEnforcer(cfg.Budget.Budget(),
//	    costs.NewCalculator(cfg.Pricing.Table(), logger))
//
// # Hot Reload
//
// Watcher watches the file and hands every valid new configuration to a
// callback, which typically swaps pricing and budget limits in place:
//
//	w, err := config.NewWatcher(path, cfg.Watch.Debounce, func(next *config.Config) {
//	    calc.UpdatePricing(next.Pricing.Table())
//	    enforcer.UpdateConfig(next.Budget.Budget())
//	}, logger)
//	go w.Watch(ctx)
//
// There is no package-level configuration: callers own the *Config.
package config
