// Package export serializes extracted knowledge-graph triplets as RDF.
package export

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/c360studio/ontokg/vocabulary/kg"
	"github.com/c360studio/ontokg/vocabulary/owl"
)

// Term is the object of a statement: an IRI or a literal.
type Term struct {
	Value    string
	IsIRI    bool
	Datatype string
}

// IRI returns an IRI term.
func IRI(v string) Term { return Term{Value: v, IsIRI: true} }

// Literal returns a plain string literal.
func Literal(v string) Term { return Term{Value: v} }

// Integer returns an xsd:integer literal.
func Integer(v int) Term {
	return Term{Value: fmt.Sprintf("%d", v), Datatype: owl.XSDNamespace + "integer"}
}

// Property is one predicate-object pair of a resource.
type Property struct {
	Predicate string
	Object    Term
}

// Resource is a subject with its types and properties, in insertion order.
type Resource struct {
	IRI        string
	Types      []string
	Properties []Property
}

// Graph accumulates resources for serialization. Adding to an existing
// subject extends it; identical statements are kept once.
type Graph struct {
	prefixes  map[string]string
	order     []string
	resources map[string]*Resource
}

// NewGraph creates an empty graph with the default prefixes.
func NewGraph() *Graph {
	return &Graph{
		prefixes:  defaultPrefixes(),
		resources: make(map[string]*Resource),
	}
}

func defaultPrefixes() map[string]string {
	return map[string]string{
		"rdf":  owl.RDFNamespace,
		"rdfs": owl.RDFSNamespace,
		"xsd":  owl.XSDNamespace,
		"prov": kg.ProvNamespace,
		"kg":   kg.Namespace,
	}
}

// SetPrefix declares a namespace prefix for Turtle and JSON-LD output.
func (g *Graph) SetPrefix(prefix, iri string) {
	g.prefixes[prefix] = iri
}

func (g *Graph) resource(iri string) *Resource {
	r, ok := g.resources[iri]
	if !ok {
		r = &Resource{IRI: iri}
		g.resources[iri] = r
		g.order = append(g.order, iri)
	}
	return r
}

// AddType asserts rdf:type typeIRI for subject.
func (g *Graph) AddType(subject, typeIRI string) {
	r := g.resource(subject)
	if !slices.Contains(r.Types, typeIRI) {
		r.Types = append(r.Types, typeIRI)
	}
}

// Add asserts a statement about subject.
func (g *Graph) Add(subject, predicate string, object Term) {
	r := g.resource(subject)
	p := Property{Predicate: predicate, Object: object}
	if !slices.Contains(r.Properties, p) {
		r.Properties = append(r.Properties, p)
	}
}

// Resources returns the resources in insertion order.
func (g *Graph) Resources() []Resource {
	out := make([]Resource, 0, len(g.order))
	for _, iri := range g.order {
		out = append(out, *g.resources[iri])
	}
	return out
}

// Len returns the number of statements, counting type assertions.
func (g *Graph) Len() int {
	n := 0
	for _, r := range g.resources {
		n += len(r.Types) + len(r.Properties)
	}
	return n
}

// Export serializes the graph to the specified format.
func (g *Graph) Export(format Format) (string, error) {
	var buf bytes.Buffer
	if err := g.Write(&buf, format); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// Write serializes the graph to w.
func (g *Graph) Write(w io.Writer, format Format) error {
	switch format {
	case FormatTurtle:
		return g.writeTurtle(w)
	case FormatNTriples:
		return g.writeNTriples(w)
	case FormatJSONLD:
		return g.writeJSONLD(w)
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
}

func (g *Graph) sortedPrefixes() []string {
	keys := make([]string, 0, len(g.prefixes))
	for k := range g.prefixes {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

func (g *Graph) writeTurtle(w io.Writer) error {
	var sb strings.Builder
	for _, prefix := range g.sortedPrefixes() {
		fmt.Fprintf(&sb, "@prefix %s: <%s> .\n", prefix, g.prefixes[prefix])
	}

	for _, r := range g.Resources() {
		n := len(r.Types) + len(r.Properties)
		if n == 0 {
			continue
		}

		fmt.Fprintf(&sb, "\n<%s>\n", r.IRI)
		i := 0
		terminate := func() {
			i++
			if i < n {
				sb.WriteString(" ;\n")
			} else {
				sb.WriteString(" .\n")
			}
		}
		for _, t := range r.Types {
			fmt.Fprintf(&sb, "    a <%s>", t)
			terminate()
		}
		for _, p := range r.Properties {
			fmt.Fprintf(&sb, "    <%s> %s", p.Predicate, formatTerm(p.Object))
			terminate()
		}
	}

	_, err := io.WriteString(w, sb.String())
	return err
}

func (g *Graph) writeNTriples(w io.Writer) error {
	var sb strings.Builder
	for _, r := range g.Resources() {
		for _, t := range r.Types {
			fmt.Fprintf(&sb, "<%s> <%s> <%s> .\n", r.IRI, owl.Type, t)
		}
		for _, p := range r.Properties {
			fmt.Fprintf(&sb, "<%s> <%s> %s .\n", r.IRI, p.Predicate, formatTerm(p.Object))
		}
	}
	_, err := io.WriteString(w, sb.String())
	return err
}

// jsonLDDocument is the expanded-IRI JSON-LD rendering of a graph.
type jsonLDDocument struct {
	Context map[string]string `json:"@context"`
	Graph   []map[string]any  `json:"@graph"`
}

func (g *Graph) writeJSONLD(w io.Writer) error {
	doc := jsonLDDocument{
		Context: make(map[string]string, len(g.prefixes)),
		Graph:   make([]map[string]any, 0, len(g.order)),
	}
	for k, v := range g.prefixes {
		doc.Context[k] = v
	}

	for _, r := range g.Resources() {
		node := map[string]any{"@id": r.IRI}
		if len(r.Types) > 0 {
			node["@type"] = r.Types
		}
		for _, p := range r.Properties {
			values, _ := node[p.Predicate].([]any)
			node[p.Predicate] = append(values, jsonLDValue(p.Object))
		}
		doc.Graph = append(doc.Graph, node)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}

func jsonLDValue(t Term) map[string]string {
	switch {
	case t.IsIRI:
		return map[string]string{"@id": t.Value}
	case t.Datatype != "":
		return map[string]string{"@value": t.Value, "@type": t.Datatype}
	default:
		return map[string]string{"@value": t.Value}
	}
}

// formatTerm renders a term in the shared Turtle/N-Triples syntax.
func formatTerm(t Term) string {
	switch {
	case t.IsIRI:
		return "<" + t.Value + ">"
	case t.Datatype != "":
		return fmt.Sprintf("\"%s\"^^<%s>", escapeString(t.Value), t.Datatype)
	default:
		return fmt.Sprintf("\"%s\"", escapeString(t.Value))
	}
}

// escapeString escapes special characters in strings for RDF serialization.
func escapeString(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, "\"", "\\\"")
	s = strings.ReplaceAll(s, "\n", "\\n")
	s = strings.ReplaceAll(s, "\r", "\\r")
	s = strings.ReplaceAll(s, "\t", "\\t")
	return s
}
