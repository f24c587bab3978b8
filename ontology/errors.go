package ontology

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnparseable is wrapped by LoadError when no supported serialization
	// could parse a document.
	ErrUnparseable = errors.New("not a valid RDF/OWL ontology")

	// ErrInvalidClassPredicate is returned for class predicate filters other
	// than "", "rdf", "rdfs" and "owl".
	ErrInvalidClassPredicate = errors.New("class predicate must be one of rdf, rdfs or owl")

	// ErrUnknownFormat is returned by ParseFormat.
	ErrUnknownFormat = errors.New("unknown ontology format")

	// ErrDocumentTooLarge is returned for documents over the size limit
	// instead of parsing a truncated prefix.
	ErrDocumentTooLarge = errors.New("ontology document too large")
)

// FormatError records one failed parse attempt.
type FormatError struct {
	Format Format
	Err    error
}

func (e FormatError) Error() string {
	return fmt.Sprintf("%s: %v", e.Format, e.Err)
}

// LoadError is returned when a document matches none of the attempted
// serializations. It is fatal for the inspector being constructed.
type LoadError struct {
	// Locator identifies the document (file path or URI), may be empty for
	// documents read from a stream.
	Locator string

	// Attempts holds one entry per format tried, in order.
	Attempts []FormatError
}

func (e *LoadError) Error() string {
	parts := make([]string, len(e.Attempts))
	for i, a := range e.Attempts {
		parts[i] = a.Error()
	}

	target := e.Locator
	if target == "" {
		target = "document"
	}
	return fmt.Sprintf("could not parse %s: %v (tried %s)", target, ErrUnparseable, strings.Join(parts, "; "))
}

func (e *LoadError) Unwrap() error {
	return ErrUnparseable
}

// IsLoadError reports whether err is or wraps a LoadError.
func IsLoadError(err error) bool {
	var le *LoadError
	return errors.As(err, &le)
}
