package metrics

import (
	"time"
)

// Record methods accept a nil *Registry so callers can keep metrics optional.

// RecordOntologyLoad records one ontology load attempt and, on success, the
// size of what was loaded.
func (r *Registry) RecordOntologyLoad(ontology, format string, err error, duration time.Duration, triples, classes, properties int) {
	if r == nil {
		return
	}

	status := "success"
	if err != nil {
		status = "error"
	}
	r.OntologyLoadsTotal.WithLabelValues(format, status).Inc()
	r.OntologyLoadDuration.WithLabelValues(format).Observe(duration.Seconds())

	if err != nil {
		return
	}
	r.OntologyTriples.WithLabelValues(ontology).Set(float64(triples))
	r.OntologyClasses.WithLabelValues(ontology).Set(float64(classes))
	r.OntologyProperties.WithLabelValues(ontology).Set(float64(properties))
}

// RecordLLMRequest records a single request to an LLM endpoint
func (r *Registry) RecordLLMRequest(provider, model, status string, duration time.Duration) {
	if r == nil {
		return
	}
	r.LLMRequestsTotal.WithLabelValues(provider, model, status).Inc()
	r.LLMRequestDuration.WithLabelValues(provider, model).Observe(duration.Seconds())
}

// RecordLLMRetry records a retry against the same endpoint
func (r *Registry) RecordLLMRetry(model string) {
	if r == nil {
		return
	}
	r.LLMRetriesTotal.WithLabelValues(model).Inc()
}

// RecordLLMFallback records that an endpoint was given up on
func (r *Registry) RecordLLMFallback(model string) {
	if r == nil {
		return
	}
	r.LLMFallbacksTotal.WithLabelValues(model).Inc()
}

// RecordLLMTokens records provider-reported token usage
func (r *Registry) RecordLLMTokens(model string, prompt, completion int) {
	if r == nil {
		return
	}
	if prompt > 0 {
		r.LLMTokensTotal.WithLabelValues(model, "prompt").Add(float64(prompt))
	}
	if completion > 0 {
		r.LLMTokensTotal.WithLabelValues(model, "completion").Add(float64(completion))
	}
}

// RecordExtractionChunk records the outcome of extracting one chunk
func (r *Registry) RecordExtractionChunk(status string, entities, predicates, skipped int) {
	if r == nil {
		return
	}
	r.ExtractionChunksTotal.WithLabelValues(status).Inc()
	r.ExtractedEntitiesTotal.Add(float64(entities))
	r.ExtractedPredicatesTotal.Add(float64(predicates))
	r.SkippedEntriesTotal.Add(float64(skipped))
}

// RecordExtraction records the duration of a whole document extraction
func (r *Registry) RecordExtraction(duration time.Duration) {
	if r == nil {
		return
	}
	r.ExtractionDuration.Observe(duration.Seconds())
}
