package main

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	mockproviders "mercator-hq/relay/internal/providers"
	"mercator-hq/relay/pkg/cli"
	"mercator-hq/relay/pkg/limits/budget"
	"mercator-hq/relay/pkg/providers"
	"mercator-hq/relay/pkg/resilience"
	"mercator-hq/relay/pkg/routing/fallback"
)

// defaultSimulatedCandidates are used when the configuration lists no
// providers.
var defaultSimulatedCandidates = []string{"primary", "secondary", "backup"}

var simulateFlags struct {
	calls        int
	concurrency  int
	failureRates []float64
	latency      time.Duration
	seed         int64
	prompt       string
	metricsAddr  string
	hold         bool
	quiet        bool
	format       string
}

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Drive the call layer against simulated flaky providers",
	Long: `Send a batch of calls through the full resilience stack (budget check, rate
limiter, fallback chain with retries) using in-process providers that fail a
configurable fraction of the time.

Candidates are the configured providers in fallback order, or primary,
secondary and backup when none are configured. Failure rates apply to the
candidates in order; missing entries never fail.

Examples:
  # 200 calls, primary fails 30% of the time
  relay simulate --calls 200 --failure-rates 0.3

  # Watch the metrics while a long run is going
  relay simulate --calls 5000 --metrics-addr :9090 --hold`,
	RunE: simulate,
}

func init() {
	rootCmd.AddCommand(simulateCmd)

	simulateCmd.Flags().IntVarP(&simulateFlags.calls, "calls", "n", 100, "number of calls")
	simulateCmd.Flags().IntVar(&simulateFlags.concurrency, "concurrency", 4, "concurrent callers")
	simulateCmd.Flags().Float64SliceVar(&simulateFlags.failureRates, "failure-rates", []float64{0.3, 0.1}, "failure rate per candidate, in fallback order")
	simulateCmd.Flags().DurationVar(&simulateFlags.latency, "latency", 5*time.Millisecond, "simulated provider latency")
	simulateCmd.Flags().Int64Var(&simulateFlags.seed, "seed", 1, "random seed for failures")
	simulateCmd.Flags().StringVar(&simulateFlags.prompt, "prompt", "Summarize the quarterly incident report in three sentences.", "prompt sent with every call")
	simulateCmd.Flags().StringVar(&simulateFlags.metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address")
	simulateCmd.Flags().BoolVar(&simulateFlags.hold, "hold", false, "keep running after the batch until interrupted")
	simulateCmd.Flags().BoolVarP(&simulateFlags.quiet, "quiet", "q", false, "hide the progress bar")
	simulateCmd.Flags().StringVar(&simulateFlags.format, "format", "text", "output format: text, json")
}

// simulation describes one simulated batch.
type simulation struct {
	Calls        int
	Concurrency  int
	Candidates   []string
	FailureRates []float64
	Latency      time.Duration
	Seed         int64
	Prompt       string
}

type simulationReport struct {
	Calls         int              `json:"calls"`
	Succeeded     int              `json:"succeeded"`
	Degraded      int              `json:"degraded"`
	Failed        int              `json:"failed"`
	Rejected      int              `json:"rejected"`
	ServedBy      map[string]int64 `json:"served_by"`
	ProviderCalls map[string]int   `json:"provider_calls"`
	Spend         float64          `json:"spend_usd"`
	RateLimitWait string           `json:"rate_limit_wait"`
	Elapsed       string           `json:"elapsed"`
	DailySpend    float64          `json:"daily_spend_usd"`
	DailyLimit    float64          `json:"daily_limit_usd,omitempty"`
	MonthlySpend  float64          `json:"monthly_spend_usd"`
	MonthlyLimit  float64          `json:"monthly_limit_usd,omitempty"`
}

// Text renders the report for terminals.
func (r *simulationReport) Text() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Calls:      %d in %s\n", r.Calls, r.Elapsed)
	fmt.Fprintf(&sb, "Succeeded:  %d (%d degraded)\n", r.Succeeded, r.Degraded)
	fmt.Fprintf(&sb, "Failed:     %d\n", r.Failed)
	fmt.Fprintf(&sb, "Rejected:   %d (budget)\n", r.Rejected)
	fmt.Fprintf(&sb, "Spend:      $%.6f\n", r.Spend)
	fmt.Fprintf(&sb, "Rate wait:  %s\n", r.RateLimitWait)

	names := make([]string, 0, len(r.ProviderCalls))
	for name := range r.ProviderCalls {
		names = append(names, name)
	}
	sort.Strings(names)
	sb.WriteString("Candidates:\n")
	for _, name := range names {
		fmt.Fprintf(&sb, "  %-12s calls=%d served=%d\n", name, r.ProviderCalls[name], r.ServedBy[name])
	}

	fmt.Fprintf(&sb, "Budget:     daily $%.6f", r.DailySpend)
	if r.DailyLimit > 0 {
		fmt.Fprintf(&sb, " / $%.2f", r.DailyLimit)
	}
	fmt.Fprintf(&sb, ", monthly $%.6f", r.MonthlySpend)
	if r.MonthlyLimit > 0 {
		fmt.Fprintf(&sb, " / $%.2f", r.MonthlyLimit)
	}
	sb.WriteString("\n")
	return sb.String()
}

func simulate(cmd *cobra.Command, args []string) error {
	format, err := cli.ParseFormat(simulateFlags.format)
	if err != nil {
		return err
	}
	if simulateFlags.calls <= 0 {
		return errors.New("--calls must be positive")
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg, cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	s, err := newStack(cfg, logger)
	if err != nil {
		return cli.NewCommandError("simulate", err)
	}
	defer s.close()

	ctx, stop := cli.SetupSignalHandler(cmd.Context())
	defer stop()

	stopBackground, err := s.startBackground(ctx, simulateFlags.metricsAddr)
	if err != nil {
		return cli.NewCommandError("simulate", err)
	}
	defer stopBackground()

	candidates := defaultSimulatedCandidates
	if ordered := cfg.OrderedProviders(); len(ordered) > 0 {
		candidates = candidates[:0:0]
		for _, p := range ordered {
			candidates = append(candidates, p.Name)
		}
	}

	var progress cli.ProgressReporter
	if !simulateFlags.quiet {
		progress = cli.NewProgressReporter(cmd.ErrOrStderr(), "Simulating")
	}

	report, err := runSimulation(ctx, s, simulation{
		Calls:        simulateFlags.calls,
		Concurrency:  simulateFlags.concurrency,
		Candidates:   candidates,
		FailureRates: simulateFlags.failureRates,
		Latency:      simulateFlags.latency,
		Seed:         simulateFlags.seed,
		Prompt:       simulateFlags.prompt,
	}, progress)
	if err != nil {
		return cli.NewCommandError("simulate", err)
	}

	if err := writeReport(cmd.OutOrStdout(), format, report); err != nil {
		return err
	}

	if simulateFlags.hold {
		fmt.Fprintln(cmd.ErrOrStderr(), "Holding; press Ctrl+C to stop")
		<-ctx.Done()
	}
	return nil
}

// runSimulation sends sim.Calls calls through an executor built from s over
// flaky in-process providers. Individual call failures are counted, not
// returned; the error is non-nil only when the run could not be set up or
// ctx was cancelled.
func runSimulation(ctx context.Context, s *stack, sim simulation, progress cli.ProgressReporter) (*simulationReport, error) {
	if len(sim.Candidates) == 0 {
		return nil, errors.New("no candidates to simulate")
	}

	flaky := make([]*mockproviders.FlakyProvider, 0, len(sim.Candidates))
	candidates := make([]fallback.Candidate[*providers.Completion], 0, len(sim.Candidates))
	for i, name := range sim.Candidates {
		rate := 0.0
		if i < len(sim.FailureRates) {
			rate = sim.FailureRates[i]
		}
		p := mockproviders.NewFlakyProvider(name, rate, sim.Latency, sim.Seed+int64(i), nil)
		flaky = append(flaky, p)
		candidates = append(candidates, fallback.Candidate[*providers.Completion]{Name: name, Invoker: p})
	}

	executor, err := s.executor(candidates)
	if err != nil {
		return nil, err
	}

	if progress != nil {
		progress.Start(int64(sim.Calls))
	}

	var (
		mu        sync.Mutex
		totalWait time.Duration
		done      atomic.Int64
		report    = &simulationReport{
			Calls:         sim.Calls,
			ServedBy:      make(map[string]int64, len(sim.Candidates)),
			ProviderCalls: make(map[string]int, len(sim.Candidates)),
		}
	)
	started := time.Now()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, sim.Concurrency))
	for i := 0; i < sim.Calls; i++ {
		g.Go(func() error {
			callStart := time.Now()
			outcome, err := executor.Execute(gctx, resilience.Request{
				Prompt:   sim.Prompt,
				Metadata: map[string]string{"source": "simulate"},
			})
			if ctxErr := gctx.Err(); ctxErr != nil {
				return ctxErr
			}

			status := callStatus(outcome, err)
			model := fallback.ModelNone
			cost := 0.0
			if outcome != nil {
				if outcome.Result != nil {
					model = outcome.Result.ModelUsed
				}
				if outcome.Spend != nil {
					cost = outcome.Spend.Amount
				}
			}
			s.collector.RecordCall(model, status, time.Since(callStart), cost)

			mu.Lock()
			switch {
			case errors.Is(err, budget.ErrBudgetExceeded):
				report.Rejected++
			case err != nil:
				report.Failed++
			default:
				report.Succeeded++
				report.ServedBy[model]++
				if outcome.Result.Degraded() {
					report.Degraded++
				}
			}
			report.Spend += cost
			if outcome != nil {
				totalWait += outcome.RateLimitWait
			}
			mu.Unlock()

			if progress != nil {
				progress.Update(done.Add(1))
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		if progress != nil {
			progress.Error(err)
		}
		return nil, err
	}
	if progress != nil {
		progress.Finish()
	}

	for _, p := range flaky {
		report.ProviderCalls[p.Name()] = p.Calls()
	}
	report.RateLimitWait = totalWait.Round(time.Millisecond).String()
	report.Elapsed = time.Since(started).Round(time.Millisecond).String()

	status := s.enforcer.Status()
	s.collector.UpdateBudget(status)
	report.DailySpend = status.DailySpend
	report.DailyLimit = status.DailyLimit
	report.MonthlySpend = status.MonthlySpend
	report.MonthlyLimit = status.MonthlyLimit

	return report, nil
}
