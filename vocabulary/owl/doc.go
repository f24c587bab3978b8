// Package owl holds the RDF, RDFS and OWL term IRIs the ontology inspector
// queries for: class declarations, the subclass relation, property
// declarations and their domain/range constraints.
package owl
