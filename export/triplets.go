package export

import (
	"strings"
	"unicode"

	"github.com/c360studio/ontokg/extraction"
	"github.com/c360studio/ontokg/vocabulary/kg"
	"github.com/google/uuid"
)

// Options controls how extraction results map to RDF.
type Options struct {
	// Profile selects the amount of provenance. Empty means ProfileProvenance.
	Profile Profile

	// EntityNamespace is the base IRI of minted entity IRIs. Empty means
	// kg.EntityNamespace.
	EntityNamespace string

	// RunID identifies the extraction run. Empty generates a random UUID.
	RunID string

	// Model names the model that produced the results.
	Model string

	// Source names the document the results came from.
	Source string
}

// Builder converts extraction results to an RDF graph.
type Builder struct {
	graph   *Graph
	vocab   extraction.Vocabulary
	profile ProfileConfig
	ns      string
	runIRI  string
}

// NewBuilder creates a builder. Entity types and predicates are resolved to
// ontology IRIs through vocab; names it does not know are minted under
// kg.Namespace.
func NewBuilder(vocab extraction.Vocabulary, opts Options) *Builder {
	if opts.Profile == "" {
		opts.Profile = ProfileProvenance
	}
	ns := opts.EntityNamespace
	if ns == "" {
		ns = kg.EntityNamespace
	}
	if !strings.HasSuffix(ns, "/") && !strings.HasSuffix(ns, "#") {
		ns += "/"
	}
	runID := opts.RunID
	if runID == "" {
		runID = uuid.NewString()
	}

	b := &Builder{
		graph:   NewGraph(),
		vocab:   vocab,
		profile: GetProfile(opts.Profile),
		ns:      ns,
		runIRI:  ns + "run/" + slug(runID),
	}
	b.graph.SetPrefix("entity", ns)

	if b.profile.IncludeRun {
		b.graph.AddType(b.runIRI, kg.ProvNamespace+"Activity")
		b.graph.AddType(b.runIRI, kg.ClassExtractionRun)
		if opts.Model != "" {
			b.graph.Add(b.runIRI, kg.PredicateUsedModel, Literal(opts.Model))
		}
		if opts.Source != "" {
			b.graph.Add(b.runIRI, kg.PredicateSource, Literal(opts.Source))
		}
	}
	return b
}

// RunIRI returns the IRI of the extraction run activity.
func (b *Builder) RunIRI() string {
	return b.runIRI
}

// Add records every entity of res and every predicate whose ends resolve.
// Entities with the same type and value share one IRI across chunks and
// results.
func (b *Builder) Add(res *extraction.Result) {
	for _, e := range res.Entities {
		b.addEntity(e)
	}
	for _, t := range res.Triplets() {
		b.graph.Add(b.entityIRI(t.Subject), b.termIRI(t.Predicate), IRI(b.entityIRI(t.Object)))
	}
}

// Graph returns the graph built so far.
func (b *Builder) Graph() *Graph {
	return b.graph
}

func (b *Builder) addEntity(e extraction.Entity) {
	iri := b.entityIRI(e)

	b.graph.AddType(iri, kg.ClassExtractedEntity)
	if classIRI, ok := b.vocab.IRI(e.Type); ok {
		b.graph.AddType(iri, classIRI)
	} else {
		b.graph.Add(iri, kg.PredicateEntityType, Literal(e.Type))
	}
	b.graph.Add(iri, kg.PredicateValue, Literal(e.Value))

	if b.profile.IncludeRun {
		b.graph.Add(iri, kg.PredicateWasGeneratedBy, IRI(b.runIRI))
	}
	if b.profile.IncludeChunks {
		b.graph.Add(iri, kg.PredicateChunk, Integer(e.Chunk))
	}
}

func (b *Builder) entityIRI(e extraction.Entity) string {
	return b.ns + slug(e.Type) + "/" + slug(e.Value)
}

func (b *Builder) termIRI(name string) string {
	if iri, ok := b.vocab.IRI(name); ok {
		return iri
	}
	return kg.Namespace + slug(name)
}

// slug lowercases s and joins its letter and digit runs with '-'. Strings
// without any letters or digits map to "_".
func slug(s string) string {
	var sb strings.Builder
	pendingDash := false
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if pendingDash && sb.Len() > 0 {
				sb.WriteByte('-')
			}
			pendingDash = false
			sb.WriteRune(r)
			continue
		}
		pendingDash = true
	}
	if sb.Len() == 0 {
		return "_"
	}
	return sb.String()
}

// Export builds a graph from results and serializes it.
func Export(results []*extraction.Result, vocab extraction.Vocabulary, format Format, opts Options) (string, error) {
	b := NewBuilder(vocab, opts)
	for _, res := range results {
		b.Add(res)
	}
	return b.Graph().Export(format)
}
