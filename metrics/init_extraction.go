package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initExtractionMetrics() {
	r.ExtractionChunksTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "ontokg_extraction_chunks_total",
			Help: "Total number of text chunks sent for extraction",
		},
		[]string{"status"}, // status: success, malformed, error
	)

	r.ExtractionDuration = promauto.With(r.registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "ontokg_extraction_duration_seconds",
			Help:    "Duration of a whole document extraction in seconds",
			Buckets: []float64{0.5, 1.0, 5.0, 10.0, 30.0, 60.0, 300.0, 900.0},
		},
	)

	r.ExtractedEntitiesTotal = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "ontokg_extracted_entities_total",
			Help: "Total number of entities parsed from model output",
		},
	)

	r.ExtractedPredicatesTotal = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "ontokg_extracted_predicates_total",
			Help: "Total number of predicate triplets parsed from model output",
		},
	)

	r.SkippedEntriesTotal = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "ontokg_extraction_skipped_entries_total",
			Help: "Total number of model output entries matching neither notation",
		},
	)
}
