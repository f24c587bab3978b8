package source

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

// maxDocumentBytes bounds the size of a single input document.
const maxDocumentBytes = 32 << 20

// Loader reads documents from disk or readers.
type Loader struct {
	html *HTMLConverter
}

// NewLoader returns a loader with the default HTML converter.
func NewLoader() *Loader {
	return &Loader{html: NewHTMLConverter()}
}

// Load reads the document at path, choosing the format from its extension.
func Load(path string) (*Document, error) {
	return NewLoader().Load(path)
}

// Load reads the document at path, choosing the format from its extension.
func (l *Loader) Load(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open document: %w", err)
	}
	defer f.Close()

	return l.Read(f, path, FormatFromPath(path))
}

// Read reads a document of the given format from r. The name is recorded as
// the document path and seeds its ID.
func (l *Loader) Read(r io.Reader, name string, format Format) (*Document, error) {
	raw, err := io.ReadAll(io.LimitReader(r, maxDocumentBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read document: %w", err)
	}
	if len(raw) > maxDocumentBytes {
		return nil, fmt.Errorf("document %s exceeds %d bytes", name, maxDocumentBytes)
	}
	if !utf8.Valid(raw) {
		return nil, fmt.Errorf("document %s is not valid UTF-8", name)
	}

	doc := &Document{
		ID:     documentID(name, raw),
		Path:   name,
		Format: format,
	}

	switch format {
	case FormatHTML:
		title, markdown, err := l.html.Convert(raw)
		if err != nil {
			return nil, fmt.Errorf("convert html: %w", err)
		}
		doc.Title = title
		doc.Content = markdown
	case FormatMarkdown:
		doc.Content = normalizeNewlines(string(raw))
		doc.Title = markdownTitle(doc.Content)
	case FormatText, "":
		doc.Format = FormatText
		doc.Content = normalizeNewlines(string(raw))
	default:
		return nil, fmt.Errorf("unknown document format: %q", format)
	}

	return doc, nil
}

// documentID derives "doc.<name>.<hash>" from the base name and content.
func documentID(name string, content []byte) string {
	base := strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
	base = sanitizeID(base)
	if base == "" || base == "." {
		base = "input"
	}

	sum := sha256.Sum256(content)
	return fmt.Sprintf("doc.%s.%s", base, hex.EncodeToString(sum[:])[:12])
}

func sanitizeID(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		case r >= 'A' && r <= 'Z':
			return r + ('a' - 'A')
		default:
			return '-'
		}
	}, s)
}

func normalizeNewlines(s string) string {
	return strings.ReplaceAll(s, "\r\n", "\n")
}
