package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"mercator-hq/relay/pkg/cli"
	"mercator-hq/relay/pkg/config"
	"mercator-hq/relay/pkg/limits/budget"
	"mercator-hq/relay/pkg/limits/ratelimit"
	"mercator-hq/relay/pkg/processing/costs"
	"mercator-hq/relay/pkg/processing/tokens"
	"mercator-hq/relay/pkg/providers"
	"mercator-hq/relay/pkg/resilience"
	"mercator-hq/relay/pkg/resilience/backoff"
	"mercator-hq/relay/pkg/resilience/events"
	"mercator-hq/relay/pkg/routing/fallback"
	"mercator-hq/relay/pkg/telemetry/logging"
	"mercator-hq/relay/pkg/telemetry/metrics"
	"mercator-hq/relay/pkg/telemetry/tracing"
)

// loadConfig loads --config with environment overrides. An empty path uses
// the built-in defaults.
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfigWithEnvOverrides(cfgFile)
	if err != nil {
		var verr config.ValidationError
		if errors.As(err, &verr) {
			return nil, err
		}
		return nil, cli.NewConfigError("", fmt.Sprintf("failed to load config: %v", err))
	}
	return cfg, nil
}

// newLogger builds the process logger from the logging section. --verbose
// forces debug level.
func newLogger(cfg *config.Config, w io.Writer) (*slog.Logger, error) {
	lc := cfg.Telemetry.Logging.Logger(w)
	if verbose {
		lc.Level = "debug"
	}
	logger, err := logging.New(lc)
	if err != nil {
		return nil, cli.NewConfigError("telemetry.logging", err.Error())
	}
	return logger, nil
}

// stack holds the resilience components built from one configuration.
// Components that support it are updated in place on hot reload.
type stack struct {
	cfg       *config.Config
	logger    *slog.Logger
	observer  events.Observer
	collector *metrics.Collector
	tracer    *tracing.Tracer

	calculator *costs.Calculator
	estimator  *tokens.SimpleEstimator
	enforcer   *budget.Enforcer
	limiter    *ratelimit.Limiter
	policy     *backoff.Policy
}

// newStack wires the components described by cfg. The caller must call
// close when done.
func newStack(cfg *config.Config, logger *slog.Logger) (*stack, error) {
	collector := metrics.NewCollector(cfg.Telemetry.Metrics.Collector(), nil)
	observer := events.Multi{events.NewLogObserver(logger), collector}

	tracer, err := tracing.New(cfg.Telemetry.Tracing.Tracer(Version))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize tracing: %w", err)
	}

	calculator := costs.NewCalculator(cfg.Pricing.Table(), logger)

	return &stack{
		cfg:        cfg,
		logger:     logger,
		observer:   observer,
		collector:  collector,
		tracer:     tracer,
		calculator: calculator,
		estimator:  cfg.Tokens.Estimator(),
		enforcer: budget.NewEnforcer(cfg.Budget.Budget(), calculator,
			budget.WithObserver(observer),
			budget.WithLogger(logger),
		),
		limiter: cfg.RateLimits.Limiter(),
		policy: cfg.Retry.Policy(
			backoff.WithObserver(observer),
			backoff.WithLogger(logger),
		),
	}, nil
}

// executor builds a fallback chain over candidates and wraps it with the
// stack's limiter and budget enforcer.
func (s *stack) executor(candidates []fallback.Candidate[*providers.Completion]) (*resilience.Executor[*providers.Completion], error) {
	chain, err := fallback.New(candidates,
		fallback.WithPolicy(s.policy),
		fallback.WithObserver(s.observer),
		fallback.WithTracer(s.tracer.Tracer()),
		fallback.WithLogger(s.logger),
	)
	if err != nil {
		return nil, err
	}

	return resilience.NewExecutor(chain, s.limiter, s.enforcer,
		resilience.WithEstimator(s.estimator),
		resilience.WithObserver(s.observer),
		resilience.WithTracer(s.tracer.Tracer()),
		resilience.WithLogger(s.logger),
	)
}

// apply hot-swaps the reloadable parts of cfg: pricing, token ratios and
// budget limits. Retry, rate limit and provider changes need a restart.
func (s *stack) apply(cfg *config.Config) {
	s.calculator.UpdatePricing(cfg.Pricing.Table())
	s.estimator.UpdateRatios(cfg.Tokens.Models)
	s.enforcer.UpdateConfig(cfg.Budget.Budget())
	s.collector.UpdateBudget(s.enforcer.Status())
	s.logger.Info("applied reloaded configuration",
		"models_priced", len(cfg.Pricing.Models),
		"daily_limit", cfg.Budget.DailyLimit,
		"monthly_limit", cfg.Budget.MonthlyLimit,
	)
}

// startBackground starts the optional long-running helpers: the budget
// reporter, the config watcher and the metrics endpoint. The returned
// function stops all of them.
func (s *stack) startBackground(ctx context.Context, metricsAddr string) (func(), error) {
	var stops []func()
	stopAll := func() {
		for i := len(stops) - 1; i >= 0; i-- {
			stops[i]()
		}
	}

	if schedule := s.cfg.Budget.ReportSchedule; schedule != "" {
		reporter, err := budget.NewReporter(s.enforcer, schedule, s.collector.UpdateBudget)
		if err != nil {
			return nil, err
		}
		if err := reporter.Start(ctx); err != nil {
			return nil, err
		}
		stops = append(stops, reporter.Stop)
	}

	if s.cfg.Watch.Enabled && cfgFile != "" {
		watcher, err := config.NewWatcher(cfgFile, s.cfg.Watch.Debounce, s.apply, s.logger)
		if err != nil {
			stopAll()
			return nil, err
		}
		go func() {
			if err := watcher.Watch(ctx); err != nil {
				s.logger.Error("config watcher stopped", "error", err)
			}
		}()
		stops = append(stops, func() { _ = watcher.Stop() })
	}

	if metricsAddr == "" {
		metricsAddr = s.cfg.Telemetry.Metrics.Address
	}
	if metricsAddr != "" && s.collector.Enabled() {
		srv := s.collector.Server(metricsAddr, s.cfg.Telemetry.Metrics.Path)
		go func() {
			s.logger.Info("serving metrics", "address", metricsAddr, "path", s.cfg.Telemetry.Metrics.Path)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				s.logger.Error("metrics server failed", "error", err)
			}
		}()
		stops = append(stops, func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		})
	}

	return stopAll, nil
}

// close flushes pending spans.
func (s *stack) close() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.tracer.Shutdown(ctx); err != nil {
		s.logger.Warn("tracer shutdown failed", "error", err)
	}
}

// callStatus classifies an executed call for the calls_total metric.
func callStatus(outcome *resilience.Outcome[*providers.Completion], err error) string {
	switch {
	case errors.Is(err, budget.ErrBudgetExceeded):
		return metrics.StatusRejected
	case err != nil:
		return metrics.StatusFailed
	case outcome.Result != nil && outcome.Result.Degraded():
		return metrics.StatusDegraded
	default:
		return metrics.StatusSuccess
	}
}
