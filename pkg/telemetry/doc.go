// Package telemetry groups the observability packages used by relay.
//
// # Components
//
//   - logging: slog construction (json, text, console) with secret redaction
//   - metrics: Prometheus collector fed by resilience events and call outcomes
//   - tracing: OpenTelemetry tracer setup and span attribute helpers
//
// # Usage
//
//	logger, err := logging.New(logging.Config{Level: "info", Format: "json", RedactSecrets: true})
//	if err != nil {
//	    return err
//	}
//
//	collector := metrics.NewCollector(metrics.Config{Enabled: true})
//	observer := events.Multi(events.NewLogObserver(logger), collector)
//
//	tracer, err := cfg.Telemetry.Tracing.Tracer(version)
//	if err != nil {
//	    return err
//	}
//	defer tracer.Shutdown(context.Background())
//
// The collector implements events.Observer, so the same retry, fallback,
// budget and rate-limit events that reach the log also drive the counters.
//
// # Secret Protection
//
// With RedactSecrets enabled, bearer tokens, sk- style API keys and
// password assignments are masked in log messages and attribute values.
// Attributes named api_key, authorization, secret or password are always
// replaced.
package telemetry
