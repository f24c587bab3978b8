package ontology

import (
	"log/slog"
	"net/http"
	"time"
)

// options is shared by Load, Open and New. Loader settings are ignored by New.
type options struct {
	logger         *slog.Logger
	formats        []Format
	baseIRI        string
	httpClient     *http.Client
	byLocalName    bool
	includeBlanks  bool
	classPredicate string
}

// Option configures loading and inspection.
type Option func(*options)

func defaultOptions() options {
	return options{
		logger:  slog.Default(),
		formats: DefaultFormats(),
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

func applyOptions(opts []Option) options {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithFormat disables detection and parses with the given format only.
func WithFormat(f Format) Option {
	return func(o *options) {
		o.formats = []Format{f}
	}
}

// WithFormats sets the detection order.
func WithFormats(formats ...Format) Option {
	return func(o *options) {
		if len(formats) > 0 {
			o.formats = formats
		}
	}
}

// WithBaseIRI sets the IRI relative references are resolved against. Open
// defaults it from the locator.
func WithBaseIRI(iri string) Option {
	return func(o *options) {
		o.baseIRI = iri
	}
}

// WithHTTPClient sets the client used for http(s) locators.
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) {
		if c != nil {
			o.httpClient = c
		}
	}
}

// WithByLocalName orders classes and properties by local name instead of
// the full identifier.
func WithByLocalName(on bool) Option {
	return func(o *options) {
		o.byLocalName = on
	}
}

// WithBlankNodes keeps blank nodes in class sets and hierarchy results.
func WithBlankNodes(include bool) Option {
	return func(o *options) {
		o.includeBlanks = include
	}
}

// WithClassPredicate restricts class extraction to explicit declarations:
// "rdf" or "rdfs" for rdfs:Class, "owl" for owl:Class. The empty string
// selects the full union.
func WithClassPredicate(p string) Option {
	return func(o *options) {
		o.classPredicate = p
	}
}
