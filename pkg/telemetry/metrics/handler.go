package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// DefaultPath is where Server mounts the scrape endpoint when no path is
// given.
const DefaultPath = "/metrics"

// Handler returns the scrape handler for the collector's registry.
//
// Encoding errors for a single metric do not fail the scrape. The handler
// instruments itself on the same registry, so scrapes show up as
// promhttp_metric_handler_requests_total next to the relay metrics.
func (c *Collector) Handler() http.Handler {
	return promhttp.InstrumentMetricHandler(c.registry, promhttp.HandlerFor(
		c.registry,
		promhttp.HandlerOpts{
			EnableOpenMetrics:   true,
			ErrorHandling:       promhttp.ContinueOnError,
			Registry:            c.registry,
			MaxRequestsInFlight: 4,
			Timeout:             10 * time.Second,
		},
	))
}

// Server returns an HTTP server exposing Handler at path on addr. Other
// paths answer 404. The caller starts and shuts it down.
func (c *Collector) Server(addr, path string) *http.Server {
	if path == "" {
		path = DefaultPath
	}
	mux := http.NewServeMux()
	mux.Handle(path, c.Handler())
	return &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
}
