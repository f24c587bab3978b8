package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initOntologyMetrics() {
	r.OntologyLoadsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "ontokg_ontology_loads_total",
			Help: "Total number of ontology loads",
		},
		[]string{"format", "status"}, // status: success, error
	)

	r.OntologyLoadDuration = promauto.With(r.registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ontokg_ontology_load_duration_seconds",
			Help:    "Time to load and inspect an ontology in seconds",
			Buckets: []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1.0, 5.0, 30.0},
		},
		[]string{"format"},
	)

	r.OntologyTriples = promauto.With(r.registry).NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "ontokg_ontology_triples",
			Help: "Number of triples in the last load of an ontology",
		},
		[]string{"ontology"},
	)

	r.OntologyClasses = promauto.With(r.registry).NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "ontokg_ontology_classes",
			Help: "Number of classes in the last load of an ontology",
		},
		[]string{"ontology"},
	)

	r.OntologyProperties = promauto.With(r.registry).NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "ontokg_ontology_object_properties",
			Help: "Number of usable object properties in the last load of an ontology",
		},
		[]string{"ontology"},
	)
}
