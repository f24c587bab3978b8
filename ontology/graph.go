// Package ontology inspects RDFS/OWL ontologies: it loads a serialized schema
// into an in-memory triple store, derives the class set (including classes
// that are only used, never declared), navigates the subclass hierarchy,
// rebuilds the taxonomic tree and extracts object-property definitions.
//
// An Inspector is built once per ontology document. All derived state is
// computed at construction and never changes afterwards, so a loaded
// Inspector can be shared between goroutines for reading.
package ontology

import (
	"encoding/json"
	"strconv"
)

// NodeKind discriminates the three kinds of RDF terms.
type NodeKind uint8

const (
	// KindNone is the kind of the zero Node. It never appears in a loaded graph.
	KindNone NodeKind = iota
	// KindIRI is a named resource.
	KindIRI
	// KindBlank is an anonymous node.
	KindBlank
	// KindLiteral is a literal value.
	KindLiteral
)

func (k NodeKind) String() string {
	switch k {
	case KindIRI:
		return "iri"
	case KindBlank:
		return "blank"
	case KindLiteral:
		return "literal"
	default:
		return "none"
	}
}

// Node is an RDF term. Nodes are comparable and used directly as map keys.
type Node struct {
	Kind  NodeKind
	Value string

	// Datatype and Lang are only set on literals.
	Datatype string
	Lang     string
}

// Any is the wildcard used in triple patterns.
var Any = Node{}

// IRI returns a named resource node.
func IRI(iri string) Node {
	return Node{Kind: KindIRI, Value: iri}
}

// Blank returns a blank node with the given label.
func Blank(id string) Node {
	return Node{Kind: KindBlank, Value: id}
}

// Literal returns a plain literal node.
func Literal(value string) Node {
	return Node{Kind: KindLiteral, Value: value}
}

// IsZero reports whether n is the zero Node (wildcard / synthetic root key).
func (n Node) IsZero() bool { return n.Kind == KindNone }

// IsIRI reports whether n is a named resource.
func (n Node) IsIRI() bool { return n.Kind == KindIRI }

// IsBlank reports whether n is a blank node.
func (n Node) IsBlank() bool { return n.Kind == KindBlank }

// IsLiteral reports whether n is a literal.
func (n Node) IsLiteral() bool { return n.Kind == KindLiteral }

// LocalName returns the fragment of the node value after its last namespace
// separator.
func (n Node) LocalName() string {
	return LocalName(n.Value)
}

// String renders IRIs as their IRI string, blank nodes as "_:label" and
// literals as quoted strings.
func (n Node) String() string {
	switch n.Kind {
	case KindIRI:
		return n.Value
	case KindBlank:
		return "_:" + n.Value
	case KindLiteral:
		s := strconv.Quote(n.Value)
		if n.Lang != "" {
			return s + "@" + n.Lang
		}
		return s
	default:
		return ""
	}
}

// MarshalJSON encodes the node as its String form.
func (n Node) MarshalJSON() ([]byte, error) {
	return json.Marshal(n.String())
}

// Triple is a single (subject, predicate, object) statement.
type Triple struct {
	Subject   Node
	Predicate Node
	Object    Node
}

// Graph is an immutable, indexed set of triples.
//
// Query results are returned in insertion order, so two identical patterns
// against the same graph always yield the same sequence.
type Graph struct {
	triples     []Triple
	bySubject   map[Node][]int
	byPredicate map[Node][]int
	byObject    map[Node][]int
}

// NewGraph builds a graph from triples. Duplicate triples are dropped, the
// first occurrence keeps its position.
func NewGraph(triples ...Triple) *Graph {
	g := &Graph{
		triples:     make([]Triple, 0, len(triples)),
		bySubject:   make(map[Node][]int),
		byPredicate: make(map[Node][]int),
		byObject:    make(map[Node][]int),
	}

	seen := make(map[Triple]struct{}, len(triples))
	for _, t := range triples {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}

		idx := len(g.triples)
		g.triples = append(g.triples, t)
		g.bySubject[t.Subject] = append(g.bySubject[t.Subject], idx)
		g.byPredicate[t.Predicate] = append(g.byPredicate[t.Predicate], idx)
		g.byObject[t.Object] = append(g.byObject[t.Object], idx)
	}

	return g
}

// Len returns the number of triples in the graph.
func (g *Graph) Len() int {
	return len(g.triples)
}

// Triples returns every triple matching the pattern. Any (the zero Node) in a
// position matches everything.
func (g *Graph) Triples(subject, predicate, object Node) []Triple {
	candidates, indexed := g.candidates(subject, predicate, object)
	if !indexed {
		out := make([]Triple, len(g.triples))
		copy(out, g.triples)
		return out
	}

	out := make([]Triple, 0, len(candidates))
	for _, idx := range candidates {
		t := g.triples[idx]
		if !subject.IsZero() && t.Subject != subject {
			continue
		}
		if !predicate.IsZero() && t.Predicate != predicate {
			continue
		}
		if !object.IsZero() && t.Object != object {
			continue
		}
		out = append(out, t)
	}
	return out
}

// Objects returns the objects of all (subject, predicate, ?) triples.
func (g *Graph) Objects(subject, predicate Node) []Node {
	matches := g.Triples(subject, predicate, Any)
	out := make([]Node, len(matches))
	for i, t := range matches {
		out[i] = t.Object
	}
	return out
}

// Subjects returns the subjects of all (?, predicate, object) triples.
func (g *Graph) Subjects(predicate, object Node) []Node {
	matches := g.Triples(Any, predicate, object)
	out := make([]Node, len(matches))
	for i, t := range matches {
		out[i] = t.Subject
	}
	return out
}

// candidates picks the shortest index list among the bound positions. The
// second result is false when the pattern is fully unbound.
func (g *Graph) candidates(subject, predicate, object Node) ([]int, bool) {
	var best []int
	indexed := false

	consider := func(n Node, index map[Node][]int) {
		if n.IsZero() {
			return
		}
		list := index[n]
		if !indexed || len(list) < len(best) {
			best = list
		}
		indexed = true
	}

	consider(subject, g.bySubject)
	consider(predicate, g.byPredicate)
	consider(object, g.byObject)

	return best, indexed
}
