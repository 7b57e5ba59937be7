package tracing

import (
	"fmt"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// Sampling strategies.
const (
	// SamplerAlways records every trace.
	SamplerAlways = "always"

	// SamplerNever records no traces.
	SamplerNever = "never"

	// SamplerRatio records a fraction of traces chosen by trace ID.
	SamplerRatio = "ratio"
)

// createSampler builds a parent-based sampler: child spans follow their
// parent's decision, root spans use strategy.
//
//	telemetry:
//	  tracing:
//	    sampler: ratio
//	    sample_ratio: 0.1
func createSampler(strategy string, ratio float64) (sdktrace.Sampler, error) {
	if err := ValidateSampling(strategy, ratio); err != nil {
		return nil, err
	}

	var root sdktrace.Sampler
	switch strategy {
	case SamplerAlways:
		root = sdktrace.AlwaysSample()
	case SamplerNever:
		root = sdktrace.NeverSample()
	default:
		root = sdktrace.TraceIDRatioBased(ratio)
	}
	return sdktrace.ParentBased(root), nil
}

// ValidateSampling checks a sampling strategy and its ratio.
func ValidateSampling(strategy string, ratio float64) error {
	switch strategy {
	case SamplerAlways, SamplerNever:
		return nil
	case SamplerRatio:
		if ratio < 0.0 || ratio > 1.0 {
			return fmt.Errorf("sample ratio must be between 0.0 and 1.0, got %f", ratio)
		}
		return nil
	default:
		return fmt.Errorf("invalid sampling strategy: %q (valid: always, never, ratio)", strategy)
	}
}
