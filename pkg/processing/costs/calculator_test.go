package costs

import (
	"bytes"
	"log/slog"
	"math"
	"strings"
	"sync"
	"testing"
)

func testTable() Table {
	return Table{
		Models: map[string]ModelPricing{
			"gpt-4o":            {InputPerMillion: 2.50, OutputPerMillion: 10.00},
			"gpt-4o-mini":       {InputPerMillion: 0.15, OutputPerMillion: 0.60},
			"claude-3-5-sonnet": {InputPerMillion: 3.00, OutputPerMillion: 15.00},
		},
		Default: ModelPricing{InputPerMillion: 30.00, OutputPerMillion: 60.00},
	}
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-12
}

func TestCalculator_Estimate(t *testing.T) {
	calculator := NewCalculator(testTable(), nil)

	tests := []struct {
		name        string
		model       string
		input       int
		output      int
		expected    float64
		expectedKey string
		usedDefault bool
	}{
		{
			name:        "exact match",
			model:       "gpt-4o",
			input:       1_000_000,
			output:      1_000_000,
			expected:    12.50,
			expectedKey: "gpt-4o",
		},
		{
			name:        "small request",
			model:       "gpt-4o-mini",
			input:       1000,
			output:      500,
			expected:    0.00015 + 0.0003, // 1000/1e6*0.15 + 500/1e6*0.60
			expectedKey: "gpt-4o-mini",
		},
		{
			name:        "dated version matches longest prefix",
			model:       "gpt-4o-mini-2024-07-18",
			input:       2_000_000,
			output:      0,
			expected:    0.30,
			expectedKey: "gpt-4o-mini",
		},
		{
			name:        "prefix match",
			model:       "claude-3-5-sonnet-20241022",
			input:       1000,
			output:      1000,
			expected:    0.003 + 0.015,
			expectedKey: "claude-3-5-sonnet",
		},
		{
			name:        "unknown model uses default",
			model:       "unknown-model",
			input:       1000,
			output:      1000,
			expected:    0.03 + 0.06,
			usedDefault: true,
		},
		{
			name:        "zero tokens",
			model:       "gpt-4o",
			input:       0,
			output:      0,
			expected:    0,
			expectedKey: "gpt-4o",
		},
		{
			name:        "negative tokens are ignored",
			model:       "gpt-4o",
			input:       -50,
			output:      -50,
			expected:    0,
			expectedKey: "gpt-4o",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			est := calculator.Estimate(tt.model, tt.input, tt.output)

			if !almostEqual(est.TotalCost, tt.expected) {
				t.Errorf("Expected total cost %.8f, got %.8f", tt.expected, est.TotalCost)
			}
			if !almostEqual(est.TotalCost, est.InputCost+est.OutputCost) {
				t.Errorf("Total cost %.8f != input %.8f + output %.8f",
					est.TotalCost, est.InputCost, est.OutputCost)
			}
			if est.MatchedModel != tt.expectedKey {
				t.Errorf("Expected matched model %q, got %q", tt.expectedKey, est.MatchedModel)
			}
			if est.UsedDefault != tt.usedDefault {
				t.Errorf("Expected UsedDefault=%v, got %v", tt.usedDefault, est.UsedDefault)
			}
			if est.Currency != "USD" {
				t.Errorf("Expected USD currency, got %q", est.Currency)
			}
		})
	}
}

func TestCalculator_UnknownModelLogsWarning(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	calculator := NewCalculator(testTable(), logger)

	est := calculator.Estimate("unknown-model", 1000, 1000)

	if !est.UsedDefault {
		t.Error("Expected default pricing for unknown model")
	}
	out := buf.String()
	if !strings.Contains(out, "level=WARN") {
		t.Errorf("Expected a warning log, got %q", out)
	}
	if !strings.Contains(out, "model=unknown-model") {
		t.Errorf("Expected model in log, got %q", out)
	}

	buf.Reset()
	calculator.Estimate("gpt-4o", 10, 10)
	if strings.Contains(buf.String(), "level=WARN") {
		t.Errorf("Expected no warning for a priced model, got %q", buf.String())
	}
}

func TestCalculator_DefaultPricingWhenUnset(t *testing.T) {
	calculator := NewCalculator(Table{}, nil)

	pricing, matched, ok := calculator.GetModelPricing("anything")
	if ok {
		t.Error("Expected ok=false for empty table")
	}
	if matched != "" {
		t.Errorf("Expected no matched key, got %q", matched)
	}
	if pricing != DefaultPricing {
		t.Errorf("Expected package default pricing %+v, got %+v", DefaultPricing, pricing)
	}
}

func TestCalculator_Models(t *testing.T) {
	calculator := NewCalculator(testTable(), nil)

	got := calculator.Models()
	want := []string{"claude-3-5-sonnet", "gpt-4o", "gpt-4o-mini"}
	if len(got) != len(want) {
		t.Fatalf("Expected %d models, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Expected models[%d]=%q, got %q", i, want[i], got[i])
		}
	}
}

func TestCalculator_UpdatePricing(t *testing.T) {
	calculator := NewCalculator(testTable(), nil)

	before := calculator.Estimate("gpt-4o", 1_000_000, 0)
	if !almostEqual(before.TotalCost, 2.50) {
		t.Fatalf("Expected 2.50 before update, got %v", before.TotalCost)
	}

	calculator.UpdatePricing(Table{
		Models: map[string]ModelPricing{
			"gpt-4o": {InputPerMillion: 5.00, OutputPerMillion: 15.00},
		},
	})

	after := calculator.Estimate("gpt-4o", 1_000_000, 0)
	if !almostEqual(after.TotalCost, 5.00) {
		t.Errorf("Expected 5.00 after update, got %v", after.TotalCost)
	}

	// gpt-4o-mini no longer has its own entry; the gpt-4o prefix now prices it.
	mini := calculator.Estimate("gpt-4o-mini", 1_000_000, 0)
	if mini.MatchedModel != "gpt-4o" {
		t.Errorf("Expected gpt-4o prefix match after update, got %q", mini.MatchedModel)
	}
}

func TestCalculator_ConcurrentUpdates(t *testing.T) {
	calculator := NewCalculator(testTable(), nil)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			calculator.UpdatePricing(testTable())
		}()
		go func() {
			defer wg.Done()
			est := calculator.Estimate("gpt-4o", 1000, 1000)
			if est.UsedDefault {
				t.Error("Expected gpt-4o to stay priced during reloads")
			}
		}()
	}
	wg.Wait()
}

func TestCalculateTokenCost(t *testing.T) {
	tests := []struct {
		tokens   int
		rate     float64
		expected float64
	}{
		{0, 10, 0},
		{-1, 10, 0},
		{1_000_000, 10, 10},
		{500_000, 3, 1.5},
		{1, 1_000_000, 1},
	}

	for _, tt := range tests {
		if got := calculateTokenCost(tt.tokens, tt.rate); !almostEqual(got, tt.expected) {
			t.Errorf("calculateTokenCost(%d, %v) = %v, want %v", tt.tokens, tt.rate, got, tt.expected)
		}
	}
}
