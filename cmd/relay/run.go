package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"mercator-hq/relay/pkg/cli"
	"mercator-hq/relay/pkg/providers"
	"mercator-hq/relay/pkg/resilience"
	"mercator-hq/relay/pkg/routing/fallback"
)

var runFlags struct {
	prompt    string
	model     string
	maxTokens int
	format    string
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Send one prompt through the configured providers",
	Long: `Send a prompt to the configured providers in fallback order, with retries,
rate limiting and budget enforcement applied.

Examples:
  # Use the providers from relay.yaml
  relay run --config relay.yaml --prompt "Draft a status update"

  # Price the call against a specific model and cap the completion
  relay run --prompt "List three risks" --model gpt-4o --max-tokens 200 --format json`,
	RunE: runPrompt,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runFlags.prompt, "prompt", "p", "", "prompt to send (required)")
	runCmd.Flags().StringVarP(&runFlags.model, "model", "m", "", "model used for the pre-call cost estimate (default: first candidate)")
	runCmd.Flags().IntVar(&runFlags.maxTokens, "max-tokens", 0, "expected completion tokens for the cost estimate")
	runCmd.Flags().StringVar(&runFlags.format, "format", "text", "output format: text, json")
	_ = runCmd.MarkFlagRequired("prompt")
}

type attemptSummary struct {
	Name     string `json:"name"`
	Success  bool   `json:"success"`
	Calls    int    `json:"calls"`
	Duration string `json:"duration"`
	Error    string `json:"error,omitempty"`
}

type runReport struct {
	InvocationID  string           `json:"invocation_id"`
	ModelUsed     string           `json:"model_used"`
	ServedModel   string           `json:"served_model,omitempty"`
	Degraded      bool             `json:"degraded"`
	Content       string           `json:"content"`
	InputTokens   int              `json:"input_tokens"`
	OutputTokens  int              `json:"output_tokens"`
	EstimatedCost float64          `json:"estimated_cost_usd"`
	Cost          float64          `json:"cost_usd"`
	RateLimitWait string           `json:"rate_limit_wait,omitempty"`
	Attempts      []attemptSummary `json:"attempts"`
}

// Text renders the completion followed by a short call summary.
func (r *runReport) Text() string {
	var sb strings.Builder
	sb.WriteString(r.Content)
	if !strings.HasSuffix(r.Content, "\n") {
		sb.WriteString("\n")
	}
	sb.WriteString("\n")
	fmt.Fprintf(&sb, "Model:    %s", r.ModelUsed)
	if r.Degraded {
		sb.WriteString(" (fallback)")
	}
	sb.WriteString("\n")
	fmt.Fprintf(&sb, "Tokens:   %d in / %d out\n", r.InputTokens, r.OutputTokens)
	fmt.Fprintf(&sb, "Cost:     $%.6f (estimated $%.6f)\n", r.Cost, r.EstimatedCost)
	for _, a := range r.Attempts {
		mark := "✓"
		if !a.Success {
			mark = "✗"
		}
		fmt.Fprintf(&sb, "  %s %s calls=%d %s", mark, a.Name, a.Calls, a.Duration)
		if a.Error != "" {
			fmt.Fprintf(&sb, " (%s)", a.Error)
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

func runPrompt(cmd *cobra.Command, args []string) error {
	format, err := cli.ParseFormat(runFlags.format)
	if err != nil {
		return err
	}
	if strings.TrimSpace(runFlags.prompt) == "" {
		return errors.New("--prompt must not be empty")
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if len(cfg.Providers) == 0 {
		return cli.NewConfigError("providers", "at least one provider is required to run a prompt")
	}
	logger, err := newLogger(cfg, cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	s, err := newStack(cfg, logger)
	if err != nil {
		return cli.NewCommandError("run", err)
	}
	defer s.close()

	ctx, stop := cli.SetupSignalHandler(cmd.Context())
	defer stop()

	report, err := sendPrompt(ctx, s, resilience.Request{
		Prompt:          runFlags.prompt,
		Model:           runFlags.model,
		MaxOutputTokens: runFlags.maxTokens,
		Metadata:        map[string]string{"source": "run"},
	})
	if report != nil {
		if ferr := writeReport(cmd.OutOrStdout(), format, report); ferr != nil {
			return ferr
		}
	}
	if err != nil {
		return cli.NewCommandError("run", err)
	}
	return nil
}

// sendPrompt executes req over HTTP providers built from the stack's
// configuration. The report is returned whenever a candidate was tried.
func sendPrompt(ctx context.Context, s *stack, req resilience.Request) (*runReport, error) {
	ordered := s.cfg.OrderedProviders()
	candidates := make([]fallback.Candidate[*providers.Completion], 0, len(ordered))
	for _, pc := range ordered {
		p, err := providers.NewHTTPProvider(pc.Provider())
		if err != nil {
			return nil, err
		}
		defer p.Close()
		candidates = append(candidates, fallback.Candidate[*providers.Completion]{Name: p.Name(), Invoker: p})
		// Estimate with the model the first endpoint serves, not its name.
		if req.Model == "" {
			req.Model = p.Config().Model
		}
	}

	executor, err := s.executor(candidates)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	outcome, err := executor.Execute(ctx, req)

	var cost float64
	if outcome != nil && outcome.Spend != nil {
		cost = outcome.Spend.Amount
	}
	model := fallback.ModelNone
	if outcome != nil && outcome.Result != nil {
		model = outcome.Result.ModelUsed
	}
	s.collector.RecordCall(model, callStatus(outcome, err), time.Since(start), cost)

	if outcome == nil || outcome.Result == nil {
		return nil, err
	}

	res := outcome.Result
	report := &runReport{
		InvocationID:  res.InvocationID,
		ModelUsed:     res.ModelUsed,
		Degraded:      res.Degraded(),
		InputTokens:   outcome.InputTokens,
		OutputTokens:  outcome.OutputTokens,
		EstimatedCost: outcome.EstimatedCost,
		Cost:          cost,
	}
	if outcome.RateLimitWait > 0 {
		report.RateLimitWait = outcome.RateLimitWait.String()
	}
	if res.Value != nil {
		report.Content = res.Value.Content
		report.ServedModel = res.Value.ServedModel()
		if in, out := res.Value.Usage(); in+out > 0 {
			report.InputTokens, report.OutputTokens = in, out
		}
	}
	for _, a := range res.Attempts {
		summary := attemptSummary{
			Name:     a.Name,
			Success:  a.Success,
			Calls:    a.Calls,
			Duration: a.Duration.Round(time.Millisecond).String(),
		}
		if a.Err != nil {
			summary.Error = a.Err.Error()
		}
		report.Attempts = append(report.Attempts, summary)
	}
	return report, err
}
