package ontology

import (
	"fmt"

	"github.com/c360studio/ontokg/vocabulary/owl"
)

var (
	rdfType        = IRI(owl.Type)
	rdfsClass      = IRI(owl.Class)
	rdfsSubClassOf = IRI(owl.SubClassOf)
	rdfsDomain     = IRI(owl.Domain)
	rdfsRange      = IRI(owl.Range)
	owlClass       = IRI(owl.OWLClass)
	owlObjectProp  = IRI(owl.ObjectProperty)
	owlOntology    = IRI(owl.Ontology)
)

// ClassOptions controls AllClasses.
type ClassOptions struct {
	// Predicate restricts extraction to explicit declarations ("rdf"/"rdfs"
	// for rdfs:Class, "owl" for owl:Class). Empty selects every source.
	Predicate string

	// IncludeBlankNodes keeps anonymous classes.
	IncludeBlankNodes bool

	// ByLocalName orders the result by local name.
	ByLocalName bool
}

// AllClasses derives the class set of a graph. With the default options it is
// the union of
//
//   - subjects of rdf:type owl:Class
//   - subjects of rdf:type rdfs:Class
//   - subjects and objects of rdfs:subClassOf
//   - objects of rdfs:domain and rdfs:range
//
// so classes used without a declaration are not lost. Literals never count
// as classes.
func AllClasses(g *Graph, opts ClassOptions) ([]Node, error) {
	set := newNodeSet()

	switch opts.Predicate {
	case "":
		addAll(set, g.Subjects(rdfType, owlClass))
		addAll(set, g.Subjects(rdfType, rdfsClass))
		for _, t := range g.Triples(Any, rdfsSubClassOf, Any) {
			set.add(t.Subject)
			set.add(t.Object)
		}
		addAll(set, g.Objects(Any, rdfsDomain))
		addAll(set, g.Objects(Any, rdfsRange))
	case "rdf", "rdfs":
		addAll(set, g.Subjects(rdfType, rdfsClass))
	case "owl":
		addAll(set, g.Subjects(rdfType, owlClass))
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidClassPredicate, opts.Predicate)
	}

	classes := filterNodes(set.nodes(), opts.IncludeBlankNodes)
	return SortNodes(classes, opts.ByLocalName), nil
}

func addAll(set *nodeSet, nodes []Node) {
	for _, n := range nodes {
		set.add(n)
	}
}

// filterNodes drops literals and, unless includeBlanks is set, blank nodes.
func filterNodes(nodes []Node, includeBlanks bool) []Node {
	out := make([]Node, 0, len(nodes))
	for _, n := range nodes {
		switch {
		case n.IsIRI():
			out = append(out, n)
		case n.IsBlank() && includeBlanks:
			out = append(out, n)
		}
	}
	return out
}
