package ontology

import (
	"cmp"
	"slices"
	"strings"
)

// LocalName returns the part of an identifier after its last '#'. Without a
// '#', the part after the last '/' is used. Identifiers that have neither, or
// that end in their separator, are returned unchanged.
func LocalName(id string) string {
	name, _ := localName(id)
	return name
}

// localName reports false when it had to fall back to the full identifier
// although a separator was present.
func localName(id string) (string, bool) {
	if i := strings.LastIndex(id, "#"); i >= 0 {
		if i < len(id)-1 {
			return id[i+1:], true
		}
		return id, false
	}
	if i := strings.LastIndex(id, "/"); i >= 0 {
		if i < len(id)-1 {
			return id[i+1:], true
		}
		return id, false
	}
	return id, true
}

// Compare orders two nodes. By default the full identifier decides, with the
// node kind as tie breaker so the order is total. With byLocalName only the
// local names are compared and equal keys compare as 0.
func Compare(a, b Node, byLocalName bool) int {
	if byLocalName {
		return strings.Compare(LocalName(a.Value), LocalName(b.Value))
	}
	if c := strings.Compare(a.Value, b.Value); c != 0 {
		return c
	}
	return cmp.Compare(a.Kind, b.Kind)
}

// SortNodes returns a sorted copy of nodes. The sort is stable: nodes with
// equal keys keep their input order.
func SortNodes(nodes []Node, byLocalName bool) []Node {
	out := slices.Clone(nodes)
	slices.SortStableFunc(out, func(a, b Node) int {
		return Compare(a, b, byLocalName)
	})
	return out
}

// sortNodes is SortNodes with the inspector's ordering mode and a debug log
// for identifiers whose local name could not be extracted.
func (i *Inspector) sortNodes(nodes []Node) []Node {
	if i.byLocalName {
		for _, n := range nodes {
			if _, ok := localName(n.Value); !ok {
				i.logger.Debug("Malformed identifier, ordering by full value", "node", n.Value)
			}
		}
	}
	return SortNodes(nodes, i.byLocalName)
}

// nodeSet collects unique nodes in first-seen order.
type nodeSet struct {
	order []Node
	seen  map[Node]struct{}
}

func newNodeSet() *nodeSet {
	return &nodeSet{seen: make(map[Node]struct{})}
}

// add inserts n and reports whether it was new.
func (s *nodeSet) add(n Node) bool {
	if _, ok := s.seen[n]; ok {
		return false
	}
	s.seen[n] = struct{}{}
	s.order = append(s.order, n)
	return true
}

func (s *nodeSet) has(n Node) bool {
	_, ok := s.seen[n]
	return ok
}

func (s *nodeSet) nodes() []Node {
	return s.order
}
