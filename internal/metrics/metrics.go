// Package metrics holds the Prometheus collectors of the viewer.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "hazardview"

// Metrics holds the counters, histograms, and gauges for fetches and rendering.
type Metrics struct {
	FetchRequests *prometheus.CounterVec   // labels: endpoint={hazard,countries}, outcome={success,network_error,decode_error}
	FetchDuration *prometheus.HistogramVec // labels: endpoint
	StaleDiscards prometheus.Counter
	LayerMarkers  prometheus.Gauge
	LayerSkipped  prometheus.Gauge
}

// New creates and registers all metrics with the given registerer.
func New(reg prometheus.Registerer) *Metrics {
	m := NewUnregistered()
	reg.MustRegister(
		m.FetchRequests,
		m.FetchDuration,
		m.StaleDiscards,
		m.LayerMarkers,
		m.LayerSkipped,
	)
	return m
}

// NewUnregistered creates metrics without registering them, so tests can
// build as many instances as they need.
func NewUnregistered() *Metrics {
	return &Metrics{
		FetchRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetch_requests_total",
			Help:      "Upstream API requests by endpoint and outcome.",
		}, []string{"endpoint", "outcome"}),
		FetchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "fetch_duration_seconds",
			Help:      "Upstream API request duration in seconds.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"endpoint"}),
		StaleDiscards: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stale_responses_total",
			Help:      "Responses dropped because a newer request was issued.",
		}),
		LayerMarkers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "layer_markers",
			Help:      "Markers in the currently displayed layer.",
		}),
		LayerSkipped: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "layer_skipped_records",
			Help:      "Records of the current payload that had no usable position.",
		}),
	}
}
