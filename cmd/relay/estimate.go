package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"mercator-hq/relay/pkg/cli"
	"mercator-hq/relay/pkg/config"
	"mercator-hq/relay/pkg/limits/budget"
	"mercator-hq/relay/pkg/processing/costs"
)

var estimateFlags struct {
	model  string
	input  int
	output int
	prompt string
	format string
}

var estimateCmd = &cobra.Command{
	Use:   "estimate",
	Short: "Estimate the cost of a call",
	Long: `Price a call from token counts using the configured pricing table, and check
the result against the per-request budget limit.

Token counts can be given directly or estimated from a prompt.

Examples:
  # Price 1200 input and 400 output tokens
  relay estimate --model gpt-4o --input 1200 --output 400

  # Estimate tokens from a prompt
  relay estimate --model gpt-4o-mini --prompt "Translate this paragraph" --output 200`,
	RunE: estimateCost,
}

func init() {
	rootCmd.AddCommand(estimateCmd)

	estimateCmd.Flags().StringVarP(&estimateFlags.model, "model", "m", "", "model to price (required)")
	estimateCmd.Flags().IntVar(&estimateFlags.input, "input", 0, "input (prompt) tokens")
	estimateCmd.Flags().IntVar(&estimateFlags.output, "output", 0, "output (completion) tokens")
	estimateCmd.Flags().StringVar(&estimateFlags.prompt, "prompt", "", "prompt text to estimate input tokens from")
	estimateCmd.Flags().StringVar(&estimateFlags.format, "format", "text", "output format: text, json")
	_ = estimateCmd.MarkFlagRequired("model")
}

type estimateReport struct {
	Model        string  `json:"model"`
	PricedAs     string  `json:"priced_as,omitempty"`
	UsedDefault  bool    `json:"used_default_pricing"`
	Estimated    bool    `json:"tokens_estimated"`
	InputTokens  int     `json:"input_tokens"`
	OutputTokens int     `json:"output_tokens"`
	InputCost    float64 `json:"input_cost_usd"`
	OutputCost   float64 `json:"output_cost_usd"`
	TotalCost    float64 `json:"total_cost_usd"`

	PerRequestLimit float64 `json:"per_request_limit_usd,omitempty"`
	WithinBudget    bool    `json:"within_budget"`
	BudgetMessage   string  `json:"budget_message,omitempty"`
}

// Text renders the estimate for terminals.
func (r *estimateReport) Text() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Model:   %s", r.Model)
	switch {
	case r.UsedDefault:
		sb.WriteString(" (no pricing entry, default rate)")
	case r.PricedAs != r.Model:
		fmt.Fprintf(&sb, " (priced as %s)", r.PricedAs)
	}
	sb.WriteString("\n")

	suffix := ""
	if r.Estimated {
		suffix = " (estimated)"
	}
	fmt.Fprintf(&sb, "Input:   %d tokens%s  $%.6f\n", r.InputTokens, suffix, r.InputCost)
	fmt.Fprintf(&sb, "Output:  %d tokens  $%.6f\n", r.OutputTokens, r.OutputCost)
	fmt.Fprintf(&sb, "Total:   $%.6f\n", r.TotalCost)

	if r.WithinBudget {
		sb.WriteString("Budget:  ✓ within limits\n")
	} else {
		fmt.Fprintf(&sb, "Budget:  ✗ %s\n", r.BudgetMessage)
	}
	return sb.String()
}

func estimateCost(cmd *cobra.Command, args []string) error {
	format, err := cli.ParseFormat(estimateFlags.format)
	if err != nil {
		return err
	}
	if estimateFlags.input < 0 || estimateFlags.output < 0 {
		return errors.New("token counts must be non-negative")
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg, cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	calc := costs.NewCalculator(cfg.Pricing.Table(), logger)
	report := buildEstimate(cfg, calc, estimateFlags.model, estimateFlags.input, estimateFlags.output, estimateFlags.prompt)
	return writeReport(cmd.OutOrStdout(), format, report)
}

// buildEstimate prices one call. When prompt is set and input is zero the
// input tokens (and output tokens, when also zero) are estimated.
func buildEstimate(cfg *config.Config, calc *costs.Calculator, model string, input, output int, prompt string) *estimateReport {
	report := &estimateReport{Model: model}

	if prompt != "" && input == 0 {
		est := cfg.Tokens.Estimator().EstimatePrompt(prompt, model, output)
		input, output = est.PromptTokens, est.EstimatedCompletionTokens
		report.Estimated = true
	}
	report.InputTokens, report.OutputTokens = input, output

	cost := calc.Estimate(model, input, output)
	report.PricedAs = cost.MatchedModel
	report.UsedDefault = cost.UsedDefault
	report.InputCost = cost.InputCost
	report.OutputCost = cost.OutputCost
	report.TotalCost = cost.TotalCost

	// A fresh enforcer has no spend, so only the per-request limit and a
	// call larger than a whole daily or monthly limit can reject.
	enforcer := budget.NewEnforcer(cfg.Budget.Budget(), calc)
	report.PerRequestLimit = cfg.Budget.PerRequestLimit
	if err := enforcer.CheckBudget(cost.TotalCost); err != nil {
		report.BudgetMessage = err.Error()
	} else {
		report.WithinBudget = true
	}
	return report
}

func writeReport(w io.Writer, format cli.OutputFormat, report any) error {
	return cli.NewFormatter(format).FormatTo(w, report)
}
