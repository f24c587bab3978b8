// Package metrics holds the Prometheus instruments for ontology loading, LLM
// calls and triplet extraction.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Registry holds all metrics for the application
type Registry struct {
	// Ontology Metrics
	OntologyLoadsTotal   *prometheus.CounterVec
	OntologyLoadDuration *prometheus.HistogramVec
	OntologyTriples      *prometheus.GaugeVec
	OntologyClasses      *prometheus.GaugeVec
	OntologyProperties   *prometheus.GaugeVec

	// LLM Metrics
	LLMRequestsTotal   *prometheus.CounterVec
	LLMRequestDuration *prometheus.HistogramVec
	LLMRetriesTotal    *prometheus.CounterVec
	LLMFallbacksTotal  *prometheus.CounterVec
	LLMTokensTotal     *prometheus.CounterVec

	// Extraction Metrics
	ExtractionChunksTotal    *prometheus.CounterVec
	ExtractionDuration       prometheus.Histogram
	ExtractedEntitiesTotal   prometheus.Counter
	ExtractedPredicatesTotal prometheus.Counter
	SkippedEntriesTotal      prometheus.Counter

	registry *prometheus.Registry
}

var (
	defaultRegistry *Registry
	once            sync.Once
)

// DefaultRegistry returns the global metrics registry
func DefaultRegistry() *Registry {
	once.Do(func() {
		defaultRegistry = NewRegistry()
	})
	return defaultRegistry
}

// NewRegistry creates a new metrics registry with all metrics initialized,
// plus the Go runtime and process collectors.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	r := &Registry{
		registry: reg,
	}

	r.initOntologyMetrics()
	r.initLLMMetrics()
	r.initExtractionMetrics()

	return r
}

// GetPrometheusRegistry returns the underlying Prometheus registry
func (r *Registry) GetPrometheusRegistry() *prometheus.Registry {
	return r.registry
}
