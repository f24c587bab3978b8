package ontology

import (
	"maps"
	"slices"
)

// RootKey is the synthetic tree key whose children are the top classes.
var RootKey = Node{}

// Tree maps each class reachable from a top class to its direct subclasses.
// RootKey maps to the top classes themselves. A class without subclasses
// maps to an empty slice.
type Tree map[Node][]Node

// Roots returns the top classes.
func (t Tree) Roots() []Node {
	return t[RootKey]
}

// Children returns the direct subclasses recorded for n.
func (t Tree) Children(n Node) []Node {
	return t[n]
}

// Contains reports whether n is a class keyed in the tree.
func (t Tree) Contains(n Node) bool {
	if n == RootKey {
		return false
	}
	_, ok := t[n]
	return ok
}

// Len returns the number of classes in the tree, not counting RootKey.
func (t Tree) Len() int {
	if _, ok := t[RootKey]; ok {
		return len(t) - 1
	}
	return len(t)
}

// Walk visits the tree depth first in child order, starting at the roots
// with depth 0. A class reachable through several parents is visited once, on
// its first path. Returning false from fn skips the node's subtree.
func (t Tree) Walk(fn func(n Node, depth int) bool) {
	type frame struct {
		node  Node
		depth int
	}

	visited := newNodeSet()
	roots := t.Roots()
	stack := make([]frame, 0, len(roots))
	for idx := len(roots) - 1; idx >= 0; idx-- {
		stack = append(stack, frame{roots[idx], 0})
	}

	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if !visited.add(f.node) {
			continue
		}
		if !fn(f.node, f.depth) {
			continue
		}

		children := t[f.node]
		for idx := len(children) - 1; idx >= 0; idx-- {
			if !visited.has(children[idx]) {
				stack = append(stack, frame{children[idx], f.depth + 1})
			}
		}
	}
}

// Depth returns the number of levels below RootKey on the first-visit walk.
func (t Tree) Depth() int {
	depth := 0
	t.Walk(func(_ Node, d int) bool {
		if d+1 > depth {
			depth = d + 1
		}
		return true
	})
	return depth
}

// Clone returns a deep copy of the tree.
func (t Tree) Clone() Tree {
	out := maps.Clone(t)
	for k, v := range out {
		out[k] = slices.Clone(v)
	}
	return out
}

// topClasses returns the classes without direct supers.
func (i *Inspector) topClasses(classes []Node) []Node {
	known := newNodeSet()
	addAll(known, classes)

	var top []Node
	for _, c := range classes {
		if len(keepKnown(i.DirectSupers(c), known)) == 0 {
			top = append(top, c)
		}
	}
	return i.sortNodes(top)
}

// keepKnown drops nodes that are not in known. Under a class predicate
// filter subClassOf can point at undeclared classes.
func keepKnown(nodes []Node, known *nodeSet) []Node {
	out := []Node{}
	for _, n := range nodes {
		if known.has(n) {
			out = append(out, n)
		}
	}
	return out
}

// buildTree expands the roots breadth first. The first time a class is
// reached its direct subs are recorded; reaching it again through another
// path reuses that entry, which also stops cycles. Only members of classes
// are recorded as children.
func (i *Inspector) buildTree(roots, classes []Node) Tree {
	known := newNodeSet()
	addAll(known, classes)

	tree := Tree{RootKey: slices.Clone(roots)}
	queue := slices.Clone(roots)

	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]

		if _, done := tree[n]; done {
			continue
		}

		children := keepKnown(i.DirectSubs(n), known)
		tree[n] = children

		for _, child := range children {
			if _, done := tree[child]; !done {
				queue = append(queue, child)
			}
		}
	}

	return tree
}
