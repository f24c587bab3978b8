// Package kg defines the IRIs used when extracted triplets are exported as RDF.
package kg

// Namespace is the base IRI prefix for ontokg vocabulary terms.
const Namespace = "https://ontokg.dev/ontology/"

// EntityNamespace is the default base IRI for extracted entity instances.
const EntityNamespace = "https://ontokg.dev/entity/"

// ProvNamespace is the W3C PROV-O namespace.
const ProvNamespace = "http://www.w3.org/ns/prov#"

// Class IRIs.
const (
	// ClassExtractedEntity types every exported entity in addition to its
	// ontology class.
	ClassExtractedEntity = Namespace + "ExtractedEntity"

	// ClassExtractionRun types the activity that produced a batch of triplets.
	ClassExtractionRun = Namespace + "ExtractionRun"
)

// Predicate IRIs.
const (
	// PredicateValue carries the surface text the model extracted.
	PredicateValue = Namespace + "value"

	// PredicateEntityType carries the raw entity type label when it did not
	// resolve to an ontology class.
	PredicateEntityType = Namespace + "entityType"

	// PredicateChunk records the source chunk index.
	PredicateChunk = Namespace + "chunk"

	// PredicateWasGeneratedBy links an entity to its extraction run.
	PredicateWasGeneratedBy = ProvNamespace + "wasGeneratedBy"

	// PredicateUsedModel records the model used by an extraction run.
	PredicateUsedModel = Namespace + "model"

	// PredicateSource records the source document of an extraction run.
	PredicateSource = ProvNamespace + "used"
)
