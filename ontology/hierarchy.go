package ontology

// DirectSupers returns the objects of (c, rdfs:subClassOf, ?), sorted.
// Unknown classes have no supers.
func (i *Inspector) DirectSupers(c Node) []Node {
	if c.IsZero() {
		return nil
	}
	return i.neighbours(i.graph.Objects(c, rdfsSubClassOf))
}

// DirectSubs returns the subjects of (?, rdfs:subClassOf, c), sorted.
func (i *Inspector) DirectSubs(c Node) []Node {
	if c.IsZero() {
		return nil
	}
	return i.neighbours(i.graph.Subjects(rdfsSubClassOf, c))
}

// AllSupers returns every ancestor of c. Each node is expanded at most once,
// so cycles terminate; c itself is only included when a cycle leads back to it.
func (i *Inspector) AllSupers(c Node) []Node {
	return i.closure(c, i.DirectSupers)
}

// AllSubs returns every descendant of c, with the same cycle handling as
// AllSupers.
func (i *Inspector) AllSubs(c Node) []Node {
	return i.closure(c, i.DirectSubs)
}

// Siblings returns the classes sharing at least one direct super with c,
// excluding c.
func (i *Inspector) Siblings(c Node) []Node {
	set := newNodeSet()
	for _, parent := range i.DirectSupers(c) {
		for _, child := range i.DirectSubs(parent) {
			if child != c {
				set.add(child)
			}
		}
	}
	return i.sortNodes(set.nodes())
}

// neighbours deduplicates, filters and sorts a raw query result.
func (i *Inspector) neighbours(raw []Node) []Node {
	set := newNodeSet()
	addAll(set, raw)
	return i.sortNodes(filterNodes(set.nodes(), i.includeBlanks))
}

// closure walks step breadth first from start using an explicit queue.
func (i *Inspector) closure(start Node, step func(Node) []Node) []Node {
	visited := newNodeSet()
	queue := step(start)

	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]

		if !visited.add(n) {
			continue
		}
		for _, next := range step(n) {
			if !visited.has(next) {
				queue = append(queue, next)
			}
		}
	}

	return i.sortNodes(visited.nodes())
}
