package ontology

import "slices"

// PredicateDescriptor describes an object property usable as a relation type.
type PredicateDescriptor struct {
	// Predicate is the property node.
	Predicate Node `json:"predicate"`

	// SubjectClass is the domain of the property. When several domain
	// triples exist the last one in document order wins.
	SubjectClass Node `json:"subject_class"`

	// Domains lists every domain value in document order.
	Domains []Node `json:"domains"`

	// RangeClasses lists every range value in document order.
	RangeClasses []Node `json:"range_classes"`
}

// ObjectProperties returns a descriptor for every owl:ObjectProperty that
// has at least one rdfs:domain and one rdfs:range. Properties missing either
// are skipped.
func (i *Inspector) ObjectProperties() []PredicateDescriptor {
	out := make([]PredicateDescriptor, len(i.properties))
	for idx, p := range i.properties {
		p.Domains = slices.Clone(p.Domains)
		p.RangeClasses = slices.Clone(p.RangeClasses)
		out[idx] = p
	}
	return out
}

func (i *Inspector) objectProperties() []PredicateDescriptor {
	set := newNodeSet()
	addAll(set, i.graph.Subjects(rdfType, owlObjectProp))
	props := i.sortNodes(filterNodes(set.nodes(), i.includeBlanks))

	var out []PredicateDescriptor
	for _, p := range props {
		domains := i.graph.Objects(p, rdfsDomain)
		ranges := i.graph.Objects(p, rdfsRange)
		if len(domains) == 0 || len(ranges) == 0 {
			i.logger.Debug("Skipping object property without domain or range",
				"property", p.Value,
				"domains", len(domains),
				"ranges", len(ranges))
			continue
		}

		out = append(out, PredicateDescriptor{
			Predicate:    p,
			SubjectClass: domains[len(domains)-1],
			Domains:      domains,
			RangeClasses: ranges,
		})
	}
	return out
}
