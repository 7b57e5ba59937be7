// Package events defines the observer contract of the resilience layer.
//
// Every retry, fallback transition, budget warning, budget violation and
// rate limit wait is reported as an Event to an Observer supplied by the
// caller. Sinks such as the slog-backed LogObserver or the Prometheus sink in
// pkg/telemetry/metrics implement Observer; Multi combines them:
//
//	obs := events.Multi{events.NewLogObserver(logger), metricsSink}
//	policy := backoff.New(cfg, backoff.WithObserver(obs))
package events
