// Package source loads the text documents that triplets are extracted from
// and resolves document and ontology locators.
package source

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Format identifies how a document's raw bytes were interpreted.
type Format string

const (
	// FormatText is plain text, passed through unchanged.
	FormatText Format = "text"

	// FormatMarkdown is markdown, passed through unchanged.
	FormatMarkdown Format = "markdown"

	// FormatHTML is HTML, converted to markdown before extraction.
	FormatHTML Format = "html"
)

// FormatFromPath returns the document format implied by a file extension.
// Unknown extensions are read as plain text.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".md", ".markdown":
		return FormatMarkdown
	case ".html", ".htm", ".xhtml":
		return FormatHTML
	default:
		return FormatText
	}
}

// ParseFormat parses a user supplied format name.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "text", "txt", "plain":
		return FormatText, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	case "html", "htm":
		return FormatHTML, nil
	default:
		return "", fmt.Errorf("unknown document format: %q", s)
	}
}

// Document is a loaded text document ready for chunking.
type Document struct {
	// ID is a content-derived identifier, stable across loads of the same bytes.
	ID string `json:"id"`

	// Path is the locator the document was read from.
	Path string `json:"path,omitempty"`

	// Format is the interpretation applied to the raw bytes.
	Format Format `json:"format"`

	// Title is the HTML title or first markdown heading, if any.
	Title string `json:"title,omitempty"`

	// Content is the extraction text. HTML documents hold their markdown
	// rendering here.
	Content string `json:"content"`
}

// Chunk is a contiguous slice of a document sized for one model call.
type Chunk struct {
	// ParentID is the ID of the document the chunk belongs to.
	ParentID string `json:"parent_id"`

	// Index is the zero-based position of the chunk within the document.
	Index int `json:"index"`

	// Section is the nearest markdown heading preceding the chunk.
	Section string `json:"section,omitempty"`

	// Content is the chunk text.
	Content string `json:"content"`

	// TokenCount is the estimated number of model tokens in Content.
	TokenCount int `json:"token_count"`
}
