package main

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	mockproviders "mercator-hq/relay/internal/providers"
	"mercator-hq/relay/pkg/cli"
	"mercator-hq/relay/pkg/config"
	"mercator-hq/relay/pkg/resilience"
	"mercator-hq/relay/pkg/routing/fallback"
)

func providerConfig(name, baseURL string) config.ProviderConfig {
	return config.ProviderConfig{Name: name, Model: name, BaseURL: baseURL, Timeout: 5 * time.Second}
}

func TestSendPromptFallsBack(t *testing.T) {
	primary := mockproviders.NewMockServer(mockproviders.MockServerError())
	defer primary.Close()
	backup := mockproviders.NewMockServer(mockproviders.MockCompletion("hello from b", "b", 100, 50))
	defer backup.Close()

	cfg := testConfig()
	cfg.Providers = []config.ProviderConfig{
		providerConfig("a", primary.URL()),
		providerConfig("b", backup.URL()),
	}
	s := testStack(t, cfg)

	report, err := sendPrompt(context.Background(), s, resilience.Request{Prompt: "hi"})
	if err != nil {
		t.Fatalf("sendPrompt() error = %v", err)
	}

	if report.ModelUsed != "b" || !report.Degraded {
		t.Errorf("Expected degraded call served by b, got %+v", report)
	}
	if report.Content != "hello from b" {
		t.Errorf("Expected backup content, got %q", report.Content)
	}
	if report.InputTokens != 100 || report.OutputTokens != 50 {
		t.Errorf("Expected reported usage 100/50, got %d/%d", report.InputTokens, report.OutputTokens)
	}
	// b is priced at 1 / 2 per million tokens
	if want := 0.0002; math.Abs(report.Cost-want) > 1e-12 {
		t.Errorf("Expected cost %v, got %v", want, report.Cost)
	}
	if primary.RequestCount() != 2 {
		t.Errorf("Expected primary tried twice, got %d", primary.RequestCount())
	}
	if len(report.Attempts) != 2 || report.Attempts[0].Success || report.Attempts[0].Calls != 2 {
		t.Errorf("Unexpected attempts %+v", report.Attempts)
	}
}

func TestSendPromptPricesEndpointByModel(t *testing.T) {
	srv := mockproviders.NewMockServer(mockproviders.MockCompletion("priced", "b", 100, 50))
	defer srv.Close()

	cfg := testConfig()
	cfg.Providers = []config.ProviderConfig{
		{Name: "openai-primary", Model: "b", BaseURL: srv.URL(), Timeout: 5 * time.Second},
	}
	s := testStack(t, cfg)

	report, err := sendPrompt(context.Background(), s, resilience.Request{
		Prompt:          "hi",
		InputTokens:     1000,
		MaxOutputTokens: 1000,
	})
	if err != nil {
		t.Fatalf("sendPrompt() error = %v", err)
	}

	if report.ModelUsed != "openai-primary" || report.ServedModel != "b" {
		t.Errorf("Expected openai-primary serving b, got %q serving %q", report.ModelUsed, report.ServedModel)
	}
	// b is priced at 1 / 2 per million tokens, both before and after the call
	if want := 0.003; math.Abs(report.EstimatedCost-want) > 1e-12 {
		t.Errorf("Expected estimate %v, got %v", want, report.EstimatedCost)
	}
	if want := 0.0002; math.Abs(report.Cost-want) > 1e-12 {
		t.Errorf("Expected cost %v, got %v", want, report.Cost)
	}
	if got := s.enforcer.SpendByModel()["b"]; math.Abs(got-0.0002) > 1e-12 {
		t.Errorf("Expected spend booked under b, got %v", s.enforcer.SpendByModel())
	}
}

func TestSendPromptAllFail(t *testing.T) {
	srv := mockproviders.NewMockServer(mockproviders.MockServerError())
	defer srv.Close()

	cfg := testConfig()
	cfg.Providers = []config.ProviderConfig{providerConfig("a", srv.URL())}
	s := testStack(t, cfg)

	report, err := sendPrompt(context.Background(), s, resilience.Request{Prompt: "hi"})
	if !errors.Is(err, resilience.ErrAllFailed) {
		t.Fatalf("Expected ErrAllFailed, got %v", err)
	}
	if cli.ExitCode(err) != cli.ExitAllFailed {
		t.Errorf("Expected exit code %d, got %d", cli.ExitAllFailed, cli.ExitCode(err))
	}
	if report == nil || report.ModelUsed != fallback.ModelNone {
		t.Fatalf("Expected report with model %q, got %+v", fallback.ModelNone, report)
	}
	if report.Attempts[0].Error == "" {
		t.Error("Expected attempt error in report")
	}
}

func TestSendPromptAuthErrorIsNotRetried(t *testing.T) {
	srv := mockproviders.NewMockServer(mockproviders.MockAuthError())
	defer srv.Close()

	cfg := testConfig()
	cfg.Providers = []config.ProviderConfig{providerConfig("a", srv.URL())}
	s := testStack(t, cfg)

	if _, err := sendPrompt(context.Background(), s, resilience.Request{Prompt: "hi"}); err == nil {
		t.Fatal("Expected error")
	}
	if srv.RequestCount() != 1 {
		t.Errorf("Expected a single request for an auth error, got %d", srv.RequestCount())
	}
}

func TestRunPromptRequiresProviders(t *testing.T) {
	useConfigFile(t, "")
	runFlags.prompt = "hi"
	runFlags.format = "text"

	err := runPrompt(runCmd, nil)
	if err == nil {
		t.Fatal("Expected error without providers")
	}
	if cli.ExitCode(err) != cli.ExitConfig {
		t.Errorf("Expected exit code %d, got %d", cli.ExitConfig, cli.ExitCode(err))
	}
	if !strings.Contains(err.Error(), "providers") {
		t.Errorf("Expected providers in error, got %v", err)
	}
}

func TestRunReportText(t *testing.T) {
	report := &runReport{
		ModelUsed: "b",
		Degraded:  true,
		Content:   "answer",
		Cost:      0.5,
		Attempts: []attemptSummary{
			{Name: "a", Calls: 2, Duration: "3ms", Error: "server error"},
			{Name: "b", Success: true, Calls: 1, Duration: "1ms"},
		},
	}

	out := report.Text()
	for _, want := range []string{"answer\n", "Model:    b (fallback)", "✗ a calls=2", "✓ b calls=1"} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected %q in output, got:\n%s", want, out)
		}
	}
}
