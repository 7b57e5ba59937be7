// Package tracing provides OpenTelemetry tracing for the resilience layer.
//
// # Overview
//
// A Tracer owns the SDK tracer provider and an OTLP gRPC exporter. The
// fallback chain and the executor accept a plain trace.Tracer, taken from
// Tracer.Tracer(), and record one span per invocation with a child span per
// candidate. When tracing is disabled a noop tracer is handed out instead.
//
// # Sampling Strategies
//
// Three sampling strategies are supported:
//   - always: Sample all traces (development/debugging)
//   - never: Sample no traces
//   - ratio: Sample a fraction of traces by trace ID (production)
//
// # Usage
//
//	tracer, err := tracing.New(tracing.Config{
//	    Enabled:     true,
//	    Sampler:     "ratio",
//	    SampleRatio: 0.1,
//	    Endpoint:    "localhost:4317",
//	    Insecure:    true,
//	    ServiceName: "relay",
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer tracer.Shutdown(context.Background())
//
//	chain, err := fallback.New(candidates, fallback.WithTracer(tracer.Tracer()))
package tracing
