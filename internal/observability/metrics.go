// Package observability provides Prometheus metrics for the prediction engine.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus collectors shared across services.
type Metrics struct {
	registry *prometheus.Registry

	// EBirdRequests counts eBird API calls by endpoint and outcome.
	EBirdRequests *prometheus.CounterVec
	// ResolutionPaths counts prediction resolutions by the path that produced
	// the result (rule cascade level, external fallback, degraded-empty).
	ResolutionPaths *prometheus.CounterVec
	// EnrichmentLookups counts bird info lookups by outcome.
	EnrichmentLookups *prometheus.CounterVec
	// EnrichmentDuration observes Wikipedia lookup latency in seconds.
	EnrichmentDuration prometheus.Histogram
}

// NewMetrics creates a Metrics instance with its own registry.
func NewMetrics() (*Metrics, error) {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		EBirdRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "birdtarifa_ebird_requests_total",
			Help: "Number of eBird API requests by endpoint and outcome",
		}, []string{"endpoint", "outcome"}),
		ResolutionPaths: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "birdtarifa_prediction_resolutions_total",
			Help: "Number of prediction resolutions by resolution path",
		}, []string{"path"}),
		EnrichmentLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "birdtarifa_birdinfo_lookups_total",
			Help: "Number of bird info lookups by outcome",
		}, []string{"outcome"}),
		EnrichmentDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "birdtarifa_birdinfo_lookup_duration_seconds",
			Help:    "Duration of bird info lookups in seconds",
			Buckets: prometheus.DefBuckets,
		}),
	}

	for _, c := range []prometheus.Collector{
		m.EBirdRequests,
		m.ResolutionPaths,
		m.EnrichmentLookups,
		m.EnrichmentDuration,
	} {
		if err := registry.Register(c); err != nil {
			return nil, err
		}
	}

	return m, nil
}

// Handler returns an HTTP handler exposing the registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// CountEBirdRequest records an eBird API call. Safe on a nil receiver so
// callers don't have to guard every increment.
func (m *Metrics) CountEBirdRequest(endpoint, outcome string) {
	if m == nil {
		return
	}
	m.EBirdRequests.WithLabelValues(endpoint, outcome).Inc()
}

// CountResolutionPath records which path produced a prediction result.
func (m *Metrics) CountResolutionPath(path string) {
	if m == nil {
		return
	}
	m.ResolutionPaths.WithLabelValues(path).Inc()
}

// CountEnrichmentLookup records a bird info lookup outcome.
func (m *Metrics) CountEnrichmentLookup(outcome string) {
	if m == nil {
		return
	}
	m.EnrichmentLookups.WithLabelValues(outcome).Inc()
}

// ObserveEnrichmentDuration records a lookup duration in seconds.
func (m *Metrics) ObserveEnrichmentDuration(seconds float64) {
	if m == nil {
		return
	}
	m.EnrichmentDuration.Observe(seconds)
}
