package ontology

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/geoknoesis/rdf-go/rdf"
)

// maxDocumentSize bounds ontology documents fetched or read from disk.
const maxDocumentSize = 64 * 1024 * 1024 // 64MB

// Format is an ontology serialization.
type Format string

const (
	// FormatRDFXML is RDF/XML, the usual serialization of .owl and .rdf files.
	FormatRDFXML Format = "rdfxml"

	// FormatTurtle is Turtle, also used for the N3 subset found in practice.
	FormatTurtle Format = "turtle"

	// FormatNTriples is N-Triples.
	FormatNTriples Format = "ntriples"
)

// DefaultFormats returns the detection order: RDF/XML first, Turtle as the
// textual fallback, N-Triples last.
func DefaultFormats() []Format {
	return []Format{FormatRDFXML, FormatTurtle, FormatNTriples}
}

// ParseFormat maps a format name or file extension to a Format.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), ".")) {
	case "rdfxml", "rdf/xml", "xml", "rdf", "owl":
		return FormatRDFXML, nil
	case "turtle", "ttl", "n3":
		return FormatTurtle, nil
	case "ntriples", "n-triples", "nt":
		return FormatNTriples, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
	}
}

func (f Format) decoderFormat() (rdf.Format, error) {
	switch f {
	case FormatRDFXML:
		return rdf.FormatRDFXML, nil
	case FormatTurtle:
		return rdf.FormatTurtle, nil
	case FormatNTriples:
		return rdf.FormatNTriples, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, string(f))
	}
}

var errNoTriples = errors.New("no triples decoded")

// Load parses a serialized ontology, trying each configured format in turn
// until one succeeds. It returns the graph and the format that parsed it.
func Load(r io.Reader, opts ...Option) (*Graph, Format, error) {
	o := applyOptions(opts)
	return load(r, "", o)
}

func load(r io.Reader, locator string, o options) (*Graph, Format, error) {
	data, err := io.ReadAll(io.LimitReader(r, maxDocumentSize+1))
	if err != nil {
		return nil, "", fmt.Errorf("read ontology: %w", err)
	}
	if len(data) > maxDocumentSize {
		return nil, "", fmt.Errorf("%w: over %d bytes", ErrDocumentTooLarge, maxDocumentSize)
	}

	blank := len(bytes.TrimSpace(data)) == 0
	loadErr := &LoadError{Locator: locator}

	var (
		emptyFormat Format
		emptyFound  bool
	)

	for _, f := range o.formats {
		triples, err := decode(data, f, o.baseIRI)
		if err == nil && len(triples) == 0 && !blank {
			// A parser that accepts non-empty input without producing a
			// triple has most likely misread it; try the next format. Only
			// the strict textual grammars may vouch for an empty document.
			if !emptyFound && f != FormatRDFXML {
				emptyFound, emptyFormat = true, f
			}
			err = errNoTriples
		}
		if err != nil {
			o.logger.Debug("Ontology format attempt failed",
				"locator", locator,
				"format", f,
				"error", err)
			loadErr.Attempts = append(loadErr.Attempts, FormatError{Format: f, Err: err})
			continue
		}

		o.logger.Debug("Parsed ontology", "locator", locator, "format", f, "triples", len(triples))
		return NewGraph(triples...), f, nil
	}

	if emptyFound {
		return NewGraph(), emptyFormat, nil
	}

	return nil, "", loadErr
}

// decode runs a single format over the document. Relative IRIs left by the
// decoder are resolved against baseIRI when one is set.
func decode(data []byte, f Format, baseIRI string) ([]Triple, error) {
	df, err := f.decoderFormat()
	if err != nil {
		return nil, err
	}

	dec, err := rdf.NewReader(bytes.NewReader(data), df)
	if err != nil {
		return nil, err
	}
	defer dec.Close()

	var base *url.URL
	if baseIRI != "" {
		if u, err := url.Parse(baseIRI); err == nil && u.IsAbs() {
			base = u
		}
	}

	var triples []Triple
	for {
		stmt, err := dec.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		triples = append(triples, Triple{
			Subject:   nodeFromTerm(stmt.S, base),
			Predicate: IRI(resolveIRI(stmt.P.Value, base)),
			Object:    nodeFromTerm(stmt.O, base),
		})
	}
	return triples, nil
}

// nodeFromTerm converts a decoded term into a Node. Quoted triples have no
// place in a class taxonomy and become plain literals.
func nodeFromTerm(t rdf.Term, base *url.URL) Node {
	switch v := t.(type) {
	case rdf.IRI:
		return IRI(resolveIRI(v.Value, base))
	case rdf.BlankNode:
		return Blank(v.ID)
	case rdf.Literal:
		n := Literal(v.Lexical)
		n.Lang = v.Lang
		if n.Lang == "" {
			n.Datatype = v.Datatype.Value
		}
		return n
	default:
		return Literal(t.String())
	}
}

// resolveIRI resolves a relative reference against base. Absolute IRIs and
// references without a base are returned unchanged.
func resolveIRI(iri string, base *url.URL) string {
	if base == nil || iri == "" {
		return iri
	}
	ref, err := url.Parse(iri)
	if err != nil || ref.IsAbs() {
		return iri
	}
	return base.ResolveReference(ref).String()
}

// LoadLocator reads and parses the ontology identified by locator: a file
// path, a file:// URI or an http(s):// URI.
func LoadLocator(ctx context.Context, locator string, opts ...Option) (*Graph, Format, error) {
	o := applyOptions(opts)
	return loadLocator(ctx, locator, o)
}

func loadLocator(ctx context.Context, locator string, o options) (*Graph, Format, error) {
	rc, base, err := openLocator(ctx, locator, o.httpClient)
	if err != nil {
		return nil, "", err
	}
	defer rc.Close()

	if o.baseIRI == "" {
		o.baseIRI = base
	}
	return load(rc, locator, o)
}

// openLocator opens a document and derives the base IRI for relative
// references in it.
func openLocator(ctx context.Context, locator string, client *http.Client) (io.ReadCloser, string, error) {
	if u, err := url.Parse(locator); err == nil {
		switch u.Scheme {
		case "http", "https":
			return fetch(ctx, locator, client)
		case "file":
			return openFile(u.Path)
		}
	}
	return openFile(locator)
}

func openFile(path string) (io.ReadCloser, string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, "", fmt.Errorf("open ontology: %w", err)
	}

	base := ""
	if abs, err := filepath.Abs(path); err == nil {
		base = (&url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}).String()
	}
	return f, base, nil
}

func fetch(ctx context.Context, locator string, client *http.Client) (io.ReadCloser, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, locator, nil)
	if err != nil {
		return nil, "", fmt.Errorf("create ontology request: %w", err)
	}
	req.Header.Set("Accept", "application/rdf+xml, text/turtle;q=0.9, application/n-triples;q=0.8, */*;q=0.1")

	resp, err := client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("fetch ontology: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, "", fmt.Errorf("fetch ontology %s: unexpected status %d", locator, resp.StatusCode)
	}
	return resp.Body, locator, nil
}
