// Package extraction turns text into knowledge-graph triplets by prompting a
// language model with an ontology-derived vocabulary and parsing its answer.
package extraction

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/c360studio/ontokg/metrics"
	"github.com/c360studio/ontokg/ontology"
)

// Vocabulary is the set of entity types and predicate names offered to the
// model. Both lists keep first-seen order and hold no duplicates.
type Vocabulary struct {
	Entities   []string `json:"entities"`
	Predicates []string `json:"predicates"`

	// IRIs maps a local name to the first ontology term that produced it.
	IRIs map[string]string `json:"-"`
}

// NewVocabulary builds a vocabulary from raw lists, dropping empty names and
// duplicates.
func NewVocabulary(entities, predicates []string) Vocabulary {
	var v Vocabulary
	v.Entities = appendUnique(nil, entities)
	v.Predicates = appendUnique(nil, predicates)
	return v
}

// VocabularyOf projects an inspected ontology into a vocabulary.
func VocabularyOf(insp *ontology.Inspector) Vocabulary {
	v := NewVocabulary(insp.EntitiesAndPredicates())
	v.IRIs = make(map[string]string)

	record := func(n ontology.Node) {
		if name := n.LocalName(); n.IsIRI() && v.IRIs[name] == "" {
			v.IRIs[name] = n.Value
		}
	}
	for _, c := range insp.Classes() {
		record(c)
	}
	for _, p := range insp.ObjectProperties() {
		record(p.Predicate)
	}
	return v
}

// Merge returns v followed by the names of other not already present.
// Earlier IRIs win for names both sides define.
func (v Vocabulary) Merge(other Vocabulary) Vocabulary {
	merged := Vocabulary{
		Entities:   appendUnique(appendUnique(nil, v.Entities), other.Entities),
		Predicates: appendUnique(appendUnique(nil, v.Predicates), other.Predicates),
	}
	if len(v.IRIs)+len(other.IRIs) > 0 {
		merged.IRIs = make(map[string]string, len(v.IRIs)+len(other.IRIs))
		for name, iri := range other.IRIs {
			merged.IRIs[name] = iri
		}
		for name, iri := range v.IRIs {
			merged.IRIs[name] = iri
		}
	}
	return merged
}

// IRI returns the ontology term behind a local name.
func (v Vocabulary) IRI(name string) (string, bool) {
	iri, ok := v.IRIs[name]
	return iri, ok
}

// IsEmpty reports whether the vocabulary offers nothing to extract.
func (v Vocabulary) IsEmpty() bool {
	return len(v.Entities) == 0 && len(v.Predicates) == 0
}

func appendUnique(dst, src []string) []string {
	seen := make(map[string]bool, len(dst)+len(src))
	for _, s := range dst {
		seen[s] = true
	}
	for _, s := range src {
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		dst = append(dst, s)
	}
	if dst == nil {
		dst = []string{}
	}
	return dst
}

// LoadConfig configures LoadVocabulary.
type LoadConfig struct {
	// Options are passed to ontology.Open for every locator.
	Options []ontology.Option

	// Metrics, when set, receives one load observation per ontology.
	Metrics *metrics.Registry

	// Logger defaults to slog.Default.
	Logger *slog.Logger
}

// LoadVocabulary opens each ontology in order and merges their vocabularies.
// Each ontology is inspected independently; the first failure aborts the
// load.
func LoadVocabulary(ctx context.Context, locators []string, cfg LoadConfig) (Vocabulary, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	vocab := NewVocabulary(nil, nil)
	for _, locator := range locators {
		if err := ctx.Err(); err != nil {
			return Vocabulary{}, err
		}

		start := time.Now()
		insp, err := ontology.Open(ctx, locator, cfg.Options...)
		if err != nil {
			cfg.Metrics.RecordOntologyLoad(locator, "unknown", err, time.Since(start), 0, 0, 0)
			return Vocabulary{}, fmt.Errorf("load ontology %s: %w", locator, err)
		}

		stats := insp.Stats()
		cfg.Metrics.RecordOntologyLoad(insp.OntologyURI(), string(insp.Format()), nil,
			time.Since(start), stats.Triples, stats.Classes, stats.Properties)

		v := VocabularyOf(insp)
		logger.Info("Loaded ontology",
			"locator", locator,
			"ontology", insp.OntologyURI(),
			"format", insp.Format(),
			"entities", len(v.Entities),
			"predicates", len(v.Predicates))

		vocab = vocab.Merge(v)
	}

	return vocab, nil
}
