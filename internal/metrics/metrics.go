// Package metrics exposes Prometheus instrumentation for dataset loads and
// queries. Collectors are registered on a caller-supplied registry so tests and
// embedders can keep them isolated.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the pedlens collectors.
type Metrics struct {
	DatasetLoads     *prometheus.CounterVec
	DatasetFallbacks prometheus.Counter
	LoadDuration     *prometheus.HistogramVec
	Queries          *prometheus.CounterVec
}

// New registers the collectors on reg. A nil reg uses a fresh registry.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	f := promauto.With(reg)
	return &Metrics{
		DatasetLoads: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pedlens_dataset_loads_total",
				Help: "Total number of dataset resource loads",
			},
			[]string{"source", "outcome"}, // "csv", "geojson" / "success", "failure"
		),
		DatasetFallbacks: f.NewCounter(
			prometheus.CounterOpts{
				Name: "pedlens_dataset_fallbacks_total",
				Help: "Total number of tabular loads served from the geometry resource",
			},
		),
		LoadDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "pedlens_dataset_load_duration_seconds",
				Help:    "Duration of dataset resource loads in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"source"},
		),
		Queries: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pedlens_queries_total",
				Help: "Total number of query operations served",
			},
			[]string{"operation"},
		),
	}
}

// ObserveLoad records one resource load.
func (m *Metrics) ObserveLoad(source, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.DatasetLoads.WithLabelValues(source, outcome).Inc()
	m.LoadDuration.WithLabelValues(source).Observe(elapsed.Seconds())
}

// ObserveFallback records a tabular load answered by the geometry resource.
func (m *Metrics) ObserveFallback() {
	if m == nil {
		return
	}
	m.DatasetFallbacks.Inc()
}

// ObserveQuery counts one query operation.
func (m *Metrics) ObserveQuery(operation string) {
	if m == nil {
		return
	}
	m.Queries.WithLabelValues(operation).Inc()
}
