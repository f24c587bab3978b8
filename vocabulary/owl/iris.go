package owl

// Namespace IRIs for the W3C vocabularies read by the inspector.
const (
	RDFNamespace  = "http://www.w3.org/1999/02/22-rdf-syntax-ns#"
	RDFSNamespace = "http://www.w3.org/2000/01/rdf-schema#"
	OWLNamespace  = "http://www.w3.org/2002/07/owl#"
	XSDNamespace  = "http://www.w3.org/2001/XMLSchema#"
)

// RDF terms.
const (
	// Type is rdf:type, the "is-a" declaration predicate.
	Type = RDFNamespace + "type"
)

// RDFS terms.
const (
	// Class is rdfs:Class.
	Class = RDFSNamespace + "Class"

	// SubClassOf is rdfs:subClassOf; the subject is a subclass of the object.
	SubClassOf = RDFSNamespace + "subClassOf"

	// Domain is rdfs:domain; the object constrains the subject type of a property.
	Domain = RDFSNamespace + "domain"

	// Range is rdfs:range; the object constrains the value type of a property.
	Range = RDFSNamespace + "range"

	// Label is rdfs:label.
	Label = RDFSNamespace + "label"

	// Comment is rdfs:comment.
	Comment = RDFSNamespace + "comment"
)

// OWL terms.
const (
	// OWLClass is owl:Class.
	OWLClass = OWLNamespace + "Class"

	// ObjectProperty is owl:ObjectProperty, a property whose values are resources.
	ObjectProperty = OWLNamespace + "ObjectProperty"

	// DatatypeProperty is owl:DatatypeProperty, a property whose values are literals.
	DatatypeProperty = OWLNamespace + "DatatypeProperty"

	// Ontology is owl:Ontology; its subject is the ontology IRI.
	Ontology = OWLNamespace + "Ontology"

	// Thing is owl:Thing.
	Thing = OWLNamespace + "Thing"
)

// Prefixes maps the conventional prefix for each namespace.
var Prefixes = map[string]string{
	"rdf":  RDFNamespace,
	"rdfs": RDFSNamespace,
	"owl":  OWLNamespace,
	"xsd":  XSDNamespace,
}
