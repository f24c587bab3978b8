package ontology_test

import (
	"fmt"
	"slices"
	"testing"

	"github.com/c360studio/ontokg/ontology"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

const propertyClasses = 8

// subclassGraph decodes each edge value into a (sub, super) pair over a small
// class alphabet so cycles and shared parents are common.
func subclassGraph(edges []int) (*ontology.Graph, [][2]ontology.Node) {
	var triples []ontology.Triple
	pairs := make([][2]ontology.Node, 0, len(edges))
	for _, e := range edges {
		sub := fmt.Sprintf("ex:C%d", e/propertyClasses)
		super := fmt.Sprintf("ex:C%d", e%propertyClasses)
		triples = append(triples, subClass(sub, super))
		pairs = append(pairs, [2]ontology.Node{ontology.IRI(sub), ontology.IRI(super)})
	}
	return ontology.NewGraph(triples...), pairs
}

func isSorted(nodes []ontology.Node) bool {
	return slices.IsSortedFunc(nodes, func(a, b ontology.Node) int {
		return ontology.Compare(a, b, false)
	})
}

func TestHierarchyInvariants(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping property-based test in short mode")
	}

	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200

	properties := gopter.NewProperties(parameters)
	edgeGen := gen.SliceOf(gen.IntRange(0, propertyClasses*propertyClasses-1))

	properties.Property("every edge is in the closures", prop.ForAll(
		func(edges []int) bool {
			g, pairs := subclassGraph(edges)
			insp, err := ontology.New(g)
			if err != nil {
				return false
			}
			for _, p := range pairs {
				if !slices.Contains(insp.AllSupers(p[0]), p[1]) {
					return false
				}
				if !slices.Contains(insp.AllSubs(p[1]), p[0]) {
					return false
				}
			}
			return true
		},
		edgeGen,
	))

	properties.Property("a class is its own ancestor only through a cycle", prop.ForAll(
		func(edges []int) bool {
			g, _ := subclassGraph(edges)
			insp, err := ontology.New(g)
			if err != nil {
				return false
			}
			for _, c := range insp.Classes() {
				inCycle := false
				for _, s := range insp.DirectSupers(c) {
					if s == c || slices.Contains(insp.AllSupers(s), c) {
						inCycle = true
					}
				}
				if slices.Contains(insp.AllSupers(c), c) != inCycle {
					return false
				}
			}
			return true
		},
		edgeGen,
	))

	properties.Property("siblings share a parent and exclude the class", prop.ForAll(
		func(edges []int) bool {
			g, _ := subclassGraph(edges)
			insp, err := ontology.New(g)
			if err != nil {
				return false
			}
			for _, c := range insp.Classes() {
				supers := insp.DirectSupers(c)
				for _, sib := range insp.Siblings(c) {
					if sib == c {
						return false
					}
					shared := false
					for _, s := range insp.DirectSupers(sib) {
						if slices.Contains(supers, s) {
							shared = true
						}
					}
					if !shared {
						return false
					}
				}
			}
			return true
		},
		edgeGen,
	))

	properties.Property("tree is rooted at top classes and covers their descendants", prop.ForAll(
		func(edges []int) bool {
			g, _ := subclassGraph(edges)
			insp, err := ontology.New(g)
			if err != nil {
				return false
			}
			top := insp.TopClasses()
			tree := insp.Tree()
			if !slices.Equal(tree.Roots(), top) || !isSorted(top) {
				return false
			}

			reached := map[ontology.Node]bool{}
			for _, r := range top {
				if len(insp.DirectSupers(r)) != 0 {
					return false
				}
				reached[r] = true
				for _, d := range insp.AllSubs(r) {
					reached[d] = true
				}
			}
			if tree.Len() != len(reached) {
				return false
			}

			for n := range reached {
				if !slices.Equal(tree.Children(n), insp.DirectSubs(n)) {
					return false
				}
			}
			return true
		},
		edgeGen,
	))

	properties.TestingRun(t)
}
