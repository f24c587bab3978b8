package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initLLMMetrics() {
	r.LLMRequestsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "ontokg_llm_requests_total",
			Help: "Total number of LLM endpoint requests",
		},
		[]string{"provider", "model", "status"}, // status: success, transient, fatal
	)

	r.LLMRequestDuration = promauto.With(r.registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ontokg_llm_request_duration_seconds",
			Help:    "Duration of single LLM endpoint requests in seconds",
			Buckets: []float64{0.1, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0, 60.0, 180.0},
		},
		[]string{"provider", "model"},
	)

	r.LLMRetriesTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "ontokg_llm_retries_total",
			Help: "Total number of LLM request retries",
		},
		[]string{"model"},
	)

	r.LLMFallbacksTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "ontokg_llm_fallbacks_total",
			Help: "Total number of times an endpoint was abandoned for the next in its chain",
		},
		[]string{"model"},
	)

	r.LLMTokensTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "ontokg_llm_tokens_total",
			Help: "Total tokens reported by LLM providers",
		},
		[]string{"model", "kind"}, // kind: prompt, completion
	)
}
