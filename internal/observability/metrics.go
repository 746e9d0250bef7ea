// Package observability wires keepclipd's Prometheus registry and
// exposes it over HTTP.
package observability

import (
	"log"
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/keepclip/keepclip/internal/observability/metrics"
)

// Metrics holds the process-wide Prometheus registry and the collectors
// registered against it.
type Metrics struct {
	registry *prometheus.Registry
	Ring     *metrics.RingMetrics
}

// NewMetrics builds a fresh registry and registers the Ring collector.
func NewMetrics() (*Metrics, error) {
	registry := prometheus.NewRegistry()

	ringMetrics, err := metrics.NewRingMetrics(registry)
	if err != nil {
		return nil, err
	}

	return &Metrics{registry: registry, Ring: ringMetrics}, nil
}

// RegisterHandlers registers the /metrics endpoint with mux.
func (m *Metrics) RegisterHandlers(mux *http.ServeMux) {
	mux.HandleFunc("/metrics", m.metricsHandler)
}

func (m *Metrics) metricsHandler(w http.ResponseWriter, r *http.Request) {
	h := promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		ErrorLog:      log.New(os.Stderr, "metrics handler: ", log.LstdFlags),
		ErrorHandling: promhttp.HTTPErrorOnError,
	})
	h.ServeHTTP(w, r)
}
