package ontology

import (
	"context"
	"io"
	"log/slog"
	"slices"
)

// Inspector answers taxonomy and property questions about one ontology.
// Classes, top classes, the tree and property descriptors are computed once
// by the constructor.
type Inspector struct {
	graph   *Graph
	logger  *slog.Logger
	locator string
	format  Format

	byLocalName   bool
	includeBlanks bool

	ontologyURI string
	classes     []Node
	topLayer    []Node
	tree        Tree
	properties  []PredicateDescriptor
}

// Stats summarizes an inspected ontology.
type Stats struct {
	Triples    int    `json:"triples"`
	Classes    int    `json:"classes"`
	TopClasses int    `json:"top_classes"`
	TreeDepth  int    `json:"tree_depth"`
	Properties int    `json:"properties"`
	Format     Format `json:"format,omitempty"`
}

// New inspects an already loaded graph.
func New(g *Graph, opts ...Option) (*Inspector, error) {
	return newInspector(g, "", "", applyOptions(opts))
}

// Open loads the ontology at locator and inspects it. It fails with a
// *LoadError when the document matches none of the configured formats.
func Open(ctx context.Context, locator string, opts ...Option) (*Inspector, error) {
	o := applyOptions(opts)

	g, format, err := loadLocator(ctx, locator, o)
	if err != nil {
		return nil, err
	}
	return newInspector(g, locator, format, o)
}

// Read parses an ontology from r and inspects it.
func Read(r io.Reader, opts ...Option) (*Inspector, error) {
	o := applyOptions(opts)

	g, format, err := load(r, "", o)
	if err != nil {
		return nil, err
	}
	return newInspector(g, "", format, o)
}

func newInspector(g *Graph, locator string, format Format, o options) (*Inspector, error) {
	if g == nil {
		g = NewGraph()
	}

	i := &Inspector{
		graph:         g,
		logger:        o.logger,
		locator:       locator,
		format:        format,
		byLocalName:   o.byLocalName,
		includeBlanks: o.includeBlanks,
	}

	classes, err := AllClasses(g, ClassOptions{
		Predicate:         o.classPredicate,
		IncludeBlankNodes: o.includeBlanks,
		ByLocalName:       o.byLocalName,
	})
	if err != nil {
		return nil, err
	}

	i.ontologyURI = i.detectOntologyURI()
	i.classes = classes
	i.topLayer = i.topClasses(classes)
	i.tree = i.buildTree(i.topLayer, classes)
	i.properties = i.objectProperties()

	i.logger.Debug("Inspected ontology",
		"ontology", i.ontologyURI,
		"triples", g.Len(),
		"classes", len(i.classes),
		"top_classes", len(i.topLayer),
		"properties", len(i.properties))

	return i, nil
}

// detectOntologyURI returns the first owl:Ontology subject, or the locator
// when the document declares none.
func (i *Inspector) detectOntologyURI() string {
	for _, s := range i.graph.Subjects(rdfType, owlOntology) {
		if s.IsIRI() {
			return s.Value
		}
	}
	return i.locator
}

// Graph returns the underlying triple store.
func (i *Inspector) Graph() *Graph {
	return i.graph
}

// Locator returns the locator the ontology was opened from, if any.
func (i *Inspector) Locator() string {
	return i.locator
}

// Format returns the serialization that parsed the document.
func (i *Inspector) Format() Format {
	return i.format
}

// OntologyURI returns the ontology IRI declared with owl:Ontology, falling
// back to the locator.
func (i *Inspector) OntologyURI() string {
	return i.ontologyURI
}

// Classes returns every class of the ontology, sorted.
func (i *Inspector) Classes() []Node {
	return slices.Clone(i.classes)
}

// TopClasses returns the classes with no direct super, sorted.
func (i *Inspector) TopClasses() []Node {
	return slices.Clone(i.topLayer)
}

// Tree returns a copy of the taxonomic tree.
func (i *Inspector) Tree() Tree {
	return i.tree.Clone()
}

// EntitiesAndPredicates projects the ontology into extraction vocabulary:
// the local names of all classes and of every valid object property.
func (i *Inspector) EntitiesAndPredicates() (entities, predicates []string) {
	entities = make([]string, 0, len(i.classes))
	for _, c := range i.classes {
		entities = append(entities, c.LocalName())
	}

	predicates = make([]string, 0, len(i.properties))
	for _, p := range i.properties {
		predicates = append(predicates, p.Predicate.LocalName())
	}
	return entities, predicates
}

// Stats returns summary counts.
func (i *Inspector) Stats() Stats {
	return Stats{
		Triples:    i.graph.Len(),
		Classes:    len(i.classes),
		TopClasses: len(i.topLayer),
		TreeDepth:  i.tree.Depth(),
		Properties: len(i.properties),
		Format:     i.format,
	}
}
