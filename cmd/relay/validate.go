package main

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"mercator-hq/relay/pkg/cli"
	"mercator-hq/relay/pkg/config"
	"mercator-hq/relay/pkg/telemetry/logging"
)

var validateFlags struct {
	format string
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configuration",
	Long: `Load the configuration file, apply RELAY_* environment overrides and report
every validation problem at once.

On success a summary of the effective settings is printed. API keys are
shown redacted.

Examples:
  # Validate a file
  relay validate --config relay.yaml

  # Machine-readable report
  relay validate --config relay.yaml --format json`,
	RunE: validateConfig,
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().StringVar(&validateFlags.format, "format", "text", "output format: text, json")
}

type fieldIssue struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type providerSummary struct {
	Name    string `json:"name"`
	Model   string `json:"model"`
	BaseURL string `json:"base_url"`
	APIKey  string `json:"api_key,omitempty"`
	Timeout string `json:"timeout"`
}

type validationReport struct {
	Source string       `json:"source"`
	Valid  bool         `json:"valid"`
	Errors []fieldIssue `json:"errors,omitempty"`

	Retry         string             `json:"retry,omitempty"`
	RateLimits    map[string]float64 `json:"rate_limits,omitempty"`
	Budget        map[string]float64 `json:"budget,omitempty"`
	PricedModels  []string           `json:"priced_models,omitempty"`
	Providers     []providerSummary  `json:"providers,omitempty"`
	FallbackOrder []string           `json:"fallback_order,omitempty"`
}

// Text renders the report for terminals.
func (r *validationReport) Text() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Configuration: %s\n", r.Source)

	if !r.Valid {
		fmt.Fprintf(&sb, "✗ %d validation error(s):\n", len(r.Errors))
		for _, e := range r.Errors {
			fmt.Fprintf(&sb, "  - %s: %s\n", e.Field, e.Message)
		}
		return sb.String()
	}

	sb.WriteString("✓ Configuration valid\n\n")
	fmt.Fprintf(&sb, "Retry:       %s\n", r.Retry)
	fmt.Fprintf(&sb, "Rate limits: %s\n", formatLimits(r.RateLimits, "unlimited"))
	fmt.Fprintf(&sb, "Budget:      %s\n", formatLimits(r.Budget, "no limits"))
	fmt.Fprintf(&sb, "Pricing:     %d model(s)\n", len(r.PricedModels))

	if len(r.Providers) == 0 {
		sb.WriteString("Providers:   none\n")
	} else {
		sb.WriteString("Providers:\n")
		for _, p := range r.Providers {
			fmt.Fprintf(&sb, "  - %s (%s) %s timeout=%s", p.Name, p.Model, p.BaseURL, p.Timeout)
			if p.APIKey != "" {
				fmt.Fprintf(&sb, " key=%s", p.APIKey)
			}
			sb.WriteString("\n")
		}
		fmt.Fprintf(&sb, "Fallback:    %s\n", strings.Join(r.FallbackOrder, " -> "))
	}
	return sb.String()
}

func formatLimits(limits map[string]float64, empty string) string {
	if len(limits) == 0 {
		return empty
	}
	keys := make([]string, 0, len(limits))
	for k := range limits {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%g", k, limits[k]))
	}
	return strings.Join(parts, " ")
}

func validateConfig(cmd *cobra.Command, args []string) error {
	format, err := cli.ParseFormat(validateFlags.format)
	if err != nil {
		return err
	}

	source := cfgFile
	if source == "" {
		source = "(defaults)"
	}

	cfg, err := config.LoadConfigWithEnvOverrides(cfgFile)
	if err != nil {
		var verr config.ValidationError
		if !errors.As(err, &verr) {
			return cli.NewConfigError("", fmt.Sprintf("failed to load config: %v", err))
		}

		report := &validationReport{Source: source}
		for _, fe := range verr.Errors {
			report.Errors = append(report.Errors, fieldIssue{Field: fe.Field, Message: fe.Message})
		}
		if ferr := cli.NewFormatter(format).FormatTo(cmd.OutOrStdout(), report); ferr != nil {
			return ferr
		}
		return verr
	}

	return cli.NewFormatter(format).FormatTo(cmd.OutOrStdout(), summarize(source, cfg))
}

// summarize describes the effective configuration.
func summarize(source string, cfg *config.Config) *validationReport {
	r := &validationReport{
		Source: source,
		Valid:  true,
		Retry: fmt.Sprintf("max_retries=%d base=%s factor=%g max=%s jitter=%t retry_on=%s",
			cfg.Retry.Retries(), cfg.Retry.BaseDelay, cfg.Retry.Factor, cfg.Retry.MaxDelay,
			cfg.Retry.JitterEnabled(), strings.Join(cfg.Retry.RetryOn, ",")),
		RateLimits: nonZero(map[string]float64{
			"rpm": cfg.RateLimits.RequestsPerMinute,
			"tpm": cfg.RateLimits.TokensPerMinute,
			"rpd": cfg.RateLimits.RequestsPerDay,
			"tpd": cfg.RateLimits.TokensPerDay,
		}),
		Budget: nonZero(map[string]float64{
			"daily":       cfg.Budget.DailyLimit,
			"monthly":     cfg.Budget.MonthlyLimit,
			"per_request": cfg.Budget.PerRequestLimit,
		}),
	}

	for name := range cfg.Pricing.Models {
		r.PricedModels = append(r.PricedModels, name)
	}
	sort.Strings(r.PricedModels)

	for _, p := range cfg.OrderedProviders() {
		summary := providerSummary{
			Name:    p.Name,
			Model:   p.Model,
			BaseURL: p.BaseURL,
			Timeout: p.Timeout.String(),
		}
		if p.APIKey != "" {
			summary.APIKey = logging.RedactAPIKey(p.APIKey)
		}
		r.Providers = append(r.Providers, summary)
		r.FallbackOrder = append(r.FallbackOrder, p.Name)
	}
	return r
}

func nonZero(m map[string]float64) map[string]float64 {
	for k, v := range m {
		if v == 0 {
			delete(m, k)
		}
	}
	return m
}
