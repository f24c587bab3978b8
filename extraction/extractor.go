package extraction

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
	"unicode/utf8"

	"github.com/c360studio/ontokg/llm"
	"github.com/c360studio/ontokg/metrics"
	"github.com/c360studio/ontokg/model"
	"github.com/c360studio/ontokg/source"
	"github.com/c360studio/ontokg/source/chunker"
)

// Chunk outcome labels.
const (
	statusSuccess   = "success"
	statusMalformed = "malformed"
	statusError     = "error"
)

// Extractor sends text to a language model one chunk at a time and collects
// the entities and predicates it reports.
type Extractor struct {
	client     llm.Completer
	chunker    *chunker.Chunker
	logger     *slog.Logger
	metrics    *metrics.Registry
	capability string
	maxTokens  int

	// skipMalformed keeps going past chunks whose response cannot be parsed.
	skipMalformed bool
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithLogger sets the extractor logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Extractor) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithMetrics records chunk outcomes in m.
func WithMetrics(m *metrics.Registry) Option {
	return func(e *Extractor) {
		e.metrics = m
	}
}

// WithCapability selects the model capability requested for each chunk.
func WithCapability(capability string) Option {
	return func(e *Extractor) {
		if capability != "" {
			e.capability = capability
		}
	}
}

// WithMaxTokens limits the response length of each model call.
func WithMaxTokens(n int) Option {
	return func(e *Extractor) {
		e.maxTokens = n
	}
}

// WithChunker replaces the default chunker.
func WithChunker(c *chunker.Chunker) Option {
	return func(e *Extractor) {
		if c != nil {
			e.chunker = c
		}
	}
}

// WithSkipMalformed makes unparseable chunk responses count as failed chunks
// instead of aborting the extraction.
func WithSkipMalformed(skip bool) Option {
	return func(e *Extractor) {
		e.skipMalformed = skip
	}
}

// NewExtractor creates an extractor over client.
func NewExtractor(client llm.Completer, opts ...Option) *Extractor {
	e := &Extractor{
		client:     client,
		chunker:    chunker.NewDefault(),
		logger:     slog.Default(),
		capability: model.CapabilityExtraction.String(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Result holds everything extracted from one document.
type Result struct {
	DocumentID string      `json:"document_id,omitempty"`
	Entities   []Entity    `json:"entities"`
	Predicates []Predicate `json:"predicates"`

	// Chunks is the number of chunks sent to the model.
	Chunks int `json:"chunks"`

	// FailedChunks counts chunks whose response was malformed and skipped.
	FailedChunks int `json:"failed_chunks,omitempty"`

	// Skipped counts response entries matching neither notation.
	Skipped int `json:"skipped"`
}

// Triplet is a predicate with both ends resolved to entities.
type Triplet struct {
	Subject   Entity `json:"subject"`
	Predicate string `json:"predicate"`
	Object    Entity `json:"object"`
}

// Triplets resolves each predicate against the entities of its own chunk.
// Predicates naming an unknown entity ID are left out.
func (r *Result) Triplets() []Triplet {
	type key struct {
		chunk int
		id    string
	}
	byID := make(map[key]Entity, len(r.Entities))
	for _, e := range r.Entities {
		byID[key{e.Chunk, e.ID}] = e
	}

	out := make([]Triplet, 0, len(r.Predicates))
	for _, p := range r.Predicates {
		s, okS := byID[key{p.Chunk, p.Start}]
		o, okO := byID[key{p.Chunk, p.End}]
		if !okS || !okO {
			continue
		}
		out = append(out, Triplet{Subject: s, Predicate: p.Type, Object: o})
	}
	return out
}

// ExtractDocument extracts triplets from a loaded document.
func (e *Extractor) ExtractDocument(ctx context.Context, vocab Vocabulary, doc *source.Document) (*Result, error) {
	res, err := e.extract(ctx, vocab, doc.ID, doc.Content)
	if err != nil {
		return nil, err
	}
	res.DocumentID = doc.ID
	return res, nil
}

// Extract extracts triplets from text. Chunks are processed in order and ctx
// is checked before each model call.
func (e *Extractor) Extract(ctx context.Context, vocab Vocabulary, text string) (*Result, error) {
	return e.extract(ctx, vocab, "", text)
}

func (e *Extractor) extract(ctx context.Context, vocab Vocabulary, docID, text string) (*Result, error) {
	if vocab.IsEmpty() {
		return nil, errors.New("extraction vocabulary is empty")
	}

	start := time.Now()
	chunks := e.chunker.Chunk(docID, text)
	res := &Result{
		Entities:   []Entity{},
		Predicates: []Predicate{},
	}

	for _, chunk := range chunks {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		parsed, err := e.extractChunk(ctx, vocab, chunk)
		if err != nil {
			if errors.Is(err, ErrMalformedResponse) && e.skipMalformed {
				e.metrics.RecordExtractionChunk(statusMalformed, 0, 0, 0)
				e.logger.Warn("Skipping chunk with malformed response",
					"document", docID,
					"chunk", chunk.Index,
					"error", err)
				res.Chunks++
				res.FailedChunks++
				continue
			}

			status := statusError
			if errors.Is(err, ErrMalformedResponse) {
				status = statusMalformed
			}
			e.metrics.RecordExtractionChunk(status, 0, 0, 0)
			return nil, fmt.Errorf("extract chunk %d: %w", chunk.Index, err)
		}

		for _, ent := range parsed.Entities {
			ent.Chunk = chunk.Index
			res.Entities = append(res.Entities, ent)
		}
		for _, p := range parsed.Predicates {
			p.Chunk = chunk.Index
			res.Predicates = append(res.Predicates, p)
		}
		res.Skipped += parsed.Skipped
		res.Chunks++

		e.metrics.RecordExtractionChunk(statusSuccess, len(parsed.Entities), len(parsed.Predicates), parsed.Skipped)
		e.logger.Debug("Extracted chunk",
			"document", docID,
			"chunk", chunk.Index,
			"tokens", chunk.TokenCount,
			"entities", len(parsed.Entities),
			"predicates", len(parsed.Predicates),
			"skipped", parsed.Skipped)
	}

	e.metrics.RecordExtraction(time.Since(start))
	e.logger.Info("Extraction complete",
		"document", docID,
		"chunks", res.Chunks,
		"entities", len(res.Entities),
		"predicates", len(res.Predicates),
		"skipped", res.Skipped,
		"duration", time.Since(start))

	return res, nil
}

func (e *Extractor) extractChunk(ctx context.Context, vocab Vocabulary, chunk source.Chunk) (*Parsed, error) {
	resp, err := e.client.Complete(ctx, llm.Request{
		Capability: e.capability,
		Messages: []llm.Message{
			{Role: "user", Content: BuildPrompt(vocab, chunk.Content)},
		},
		Temperature: llm.Float64(0),
		MaxTokens:   e.maxTokens,
		JSON:        true,
	})
	if err != nil {
		return nil, err
	}

	parsed, err := ParseResponse(resp.Content)
	if err != nil {
		e.logger.Debug("Unparseable model output",
			"chunk", chunk.Index,
			"model", resp.Model,
			"content", truncate(resp.Content, 200))
		return nil, err
	}
	return parsed, nil
}

// truncate shortens s to at most n bytes without splitting a rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "..."
}
