package main

import (
	"bytes"
	"math"
	"strings"
	"testing"

	"mercator-hq/relay/pkg/cli"
	"mercator-hq/relay/pkg/config"
	"mercator-hq/relay/pkg/processing/costs"
)

func TestBuildEstimate(t *testing.T) {
	cfg := testConfig()
	cfg.Pricing.Models["gpt-4o"] = config.ModelPricingConfig{Input: 2.5, Output: 10}
	cfg.Budget.PerRequestLimit = 0.01
	calc := costs.NewCalculator(cfg.Pricing.Table(), discardLogger())

	tests := []struct {
		name        string
		model       string
		input       int
		output      int
		wantCost    float64
		wantPriced  string
		wantDefault bool
		wantWithin  bool
	}{
		{"exact model", "gpt-4o", 1000, 500, 0.0025 + 0.005, "gpt-4o", false, true},
		{"dated model uses prefix", "gpt-4o-2024-08-06", 1000, 0, 0.0025, "gpt-4o", false, true},
		{"over per-request limit", "gpt-4o", 1_000_000, 0, 2.5, "gpt-4o", false, false},
		{"unknown model uses default", "mystery", 1000, 1000, 0.015 + 0.075, "", true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report := buildEstimate(cfg, calc, tt.model, tt.input, tt.output, "")

			if math.Abs(report.TotalCost-tt.wantCost) > 1e-12 {
				t.Errorf("Expected cost %.6f, got %.6f", tt.wantCost, report.TotalCost)
			}
			if report.PricedAs != tt.wantPriced {
				t.Errorf("Expected priced as %q, got %q", tt.wantPriced, report.PricedAs)
			}
			if report.UsedDefault != tt.wantDefault {
				t.Errorf("Expected UsedDefault=%v, got %v", tt.wantDefault, report.UsedDefault)
			}
			if report.WithinBudget != tt.wantWithin {
				t.Errorf("Expected WithinBudget=%v, got %v (%s)", tt.wantWithin, report.WithinBudget, report.BudgetMessage)
			}
			if !report.WithinBudget && !strings.Contains(report.BudgetMessage, "per_request") {
				t.Errorf("Expected per_request message, got %q", report.BudgetMessage)
			}
		})
	}
}

func TestBuildEstimateFromPrompt(t *testing.T) {
	cfg := testConfig()
	calc := costs.NewCalculator(cfg.Pricing.Table(), discardLogger())

	report := buildEstimate(cfg, calc, "a", 0, 250, strings.Repeat("a", 400))

	if !report.Estimated {
		t.Error("Expected tokens to be estimated")
	}
	// 400 chars at 4 chars/token plus 5 tokens of prompt overhead
	if report.InputTokens != 105 {
		t.Errorf("Expected 105 input tokens, got %d", report.InputTokens)
	}
	if report.OutputTokens != 250 {
		t.Errorf("Expected 250 output tokens, got %d", report.OutputTokens)
	}
}

func TestEstimateReportText(t *testing.T) {
	report := &estimateReport{
		Model:        "gpt-4o-mini",
		PricedAs:     "gpt-4o",
		InputTokens:  10,
		OutputTokens: 5,
		TotalCost:    0.25,
		WithinBudget: true,
	}

	var buf bytes.Buffer
	if err := writeReport(&buf, cli.FormatText, report); err != nil {
		t.Fatalf("writeReport() error = %v", err)
	}
	out := buf.String()
	for _, want := range []string{"(priced as gpt-4o)", "Total:   $0.250000", "✓ within limits"} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected %q in output, got:\n%s", want, out)
		}
	}
}
