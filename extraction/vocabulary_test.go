package extraction_test

import (
	"context"
	"strings"
	"testing"

	"github.com/c360studio/ontokg/extraction"
	"github.com/c360studio/ontokg/metrics"
	"github.com/c360studio/ontokg/ontology"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	animalsOntology = "../ontology/testdata/animals.ttl"
	riskOntology    = "../ontology/testdata/risk.ttl"
)

func TestVocabulary_Merge(t *testing.T) {
	a := extraction.NewVocabulary([]string{"Person", "Dog", "", "Person"}, []string{"hasPet"})
	b := extraction.NewVocabulary([]string{"Cat", "Dog"}, []string{"hasPet", "owns"})

	assert.Equal(t, []string{"Person", "Dog"}, a.Entities)

	merged := a.Merge(b)
	assert.Equal(t, []string{"Person", "Dog", "Cat"}, merged.Entities)
	assert.Equal(t, []string{"hasPet", "owns"}, merged.Predicates)
	assert.Equal(t, []string{"Person", "Dog"}, a.Entities, "merge leaves receiver untouched")
}

func TestVocabulary_IsEmpty(t *testing.T) {
	assert.True(t, extraction.NewVocabulary(nil, nil).IsEmpty())
	assert.False(t, extraction.NewVocabulary(nil, []string{"knows"}).IsEmpty())
}

func TestLoadVocabulary(t *testing.T) {
	reg := metrics.NewRegistry()

	vocab, err := extraction.LoadVocabulary(context.Background(),
		[]string{animalsOntology, riskOntology, animalsOntology},
		extraction.LoadConfig{Metrics: reg})
	require.NoError(t, err)

	assert.Equal(t, []string{
		"Animal", "Cat", "Dog", "Person",
		"AISystem", "Anon", "HighRiskAISystem", "Loop1", "Loop2", "Mitigation", "ResidualRisk", "Risk",
	}, vocab.Entities)
	assert.Equal(t, []string{"hasPet", "hasRisk", "mitigatedBy"}, vocab.Predicates)

	iri, ok := vocab.IRI("hasPet")
	assert.True(t, ok)
	assert.Equal(t, "http://example.org/animals#hasPet", iri)
	iri, _ = vocab.IRI("Risk")
	assert.Equal(t, "http://example.org/risk#Risk", iri)
	_, ok = vocab.IRI("Unicorn")
	assert.False(t, ok)

	assert.Equal(t, 3.0, testutil.ToFloat64(reg.OntologyLoadsTotal.WithLabelValues("turtle", "success")))
	assert.Equal(t, 4.0, testutil.ToFloat64(reg.OntologyClasses.WithLabelValues("http://example.org/animals")))
}

func TestLoadVocabulary_OntologyOptions(t *testing.T) {
	vocab, err := extraction.LoadVocabulary(context.Background(),
		[]string{riskOntology},
		extraction.LoadConfig{Options: []ontology.Option{ontology.WithClassPredicate("owl")}})
	require.NoError(t, err)
	assert.Equal(t, []string{"AISystem", "Mitigation"}, vocab.Entities)
}

func TestLoadVocabulary_Failure(t *testing.T) {
	reg := metrics.NewRegistry()

	_, err := extraction.LoadVocabulary(context.Background(),
		[]string{animalsOntology, "../ontology/testdata/garbage.txt"},
		extraction.LoadConfig{Metrics: reg})
	require.Error(t, err)
	assert.True(t, ontology.IsLoadError(err))
	assert.True(t, strings.Contains(err.Error(), "garbage.txt"))
	assert.Equal(t, 1.0, testutil.ToFloat64(reg.OntologyLoadsTotal.WithLabelValues("unknown", "error")))
}

func TestLoadVocabulary_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := extraction.LoadVocabulary(ctx, []string{animalsOntology}, extraction.LoadConfig{})
	assert.ErrorIs(t, err, context.Canceled)
}
