// Package chunker splits documents into pieces small enough for a single
// extraction call.
package chunker

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/c360studio/ontokg/source"
)

// charsPerToken is the approximate average characters per token.
const charsPerToken = 4

// Config holds chunking configuration.
type Config struct {
	// TargetTokens is the size chunks are packed up to.
	TargetTokens int `json:"target_tokens" yaml:"target_tokens"`

	// MaxTokens is the hard upper bound for any chunk.
	MaxTokens int `json:"max_tokens" yaml:"max_tokens"`

	// MinTokens is the size below which a trailing chunk is folded into its
	// predecessor.
	MinTokens int `json:"min_tokens" yaml:"min_tokens"`
}

// DefaultConfig returns chunk sizes suited to small extraction models.
func DefaultConfig() Config {
	return Config{
		TargetTokens: 800,
		MaxTokens:    1200,
		MinTokens:    100,
	}
}

// Validate checks the size relationships MinTokens < TargetTokens <= MaxTokens.
func (c Config) Validate() error {
	switch {
	case c.MinTokens <= 0:
		return fmt.Errorf("min_tokens must be positive, got %d", c.MinTokens)
	case c.TargetTokens <= 0:
		return fmt.Errorf("target_tokens must be positive, got %d", c.TargetTokens)
	case c.MaxTokens <= 0:
		return fmt.Errorf("max_tokens must be positive, got %d", c.MaxTokens)
	case c.MinTokens >= c.TargetTokens:
		return fmt.Errorf("min_tokens (%d) must be less than target_tokens (%d)", c.MinTokens, c.TargetTokens)
	case c.TargetTokens > c.MaxTokens:
		return fmt.Errorf("target_tokens (%d) must not exceed max_tokens (%d)", c.TargetTokens, c.MaxTokens)
	}
	return nil
}

// Chunker splits document content into chunks.
type Chunker struct {
	config Config
}

// New creates a Chunker. A zero Config selects DefaultConfig.
func New(cfg Config) (*Chunker, error) {
	if cfg == (Config{}) {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Chunker{config: cfg}, nil
}

// NewDefault creates a Chunker with DefaultConfig.
func NewDefault() *Chunker {
	return &Chunker{config: DefaultConfig()}
}

// Config returns the chunker's configuration.
func (c *Chunker) Config() Config {
	return c.config
}

// EstimateTokens approximates the model token count of s.
func EstimateTokens(s string) int {
	return (len(s) + charsPerToken - 1) / charsPerToken
}

// piece is an indivisible unit of packing. sep joins it to the content
// already in a chunk.
type piece struct {
	section string
	heading bool
	sep     string
	text    string
}

// Chunk splits content into chunks of at most MaxTokens. Paragraph
// boundaries are preferred, then sentence boundaries, then whitespace. A
// markdown heading starts a new chunk once the current one has reached
// MinTokens. Whitespace-only content yields no chunks.
func (c *Chunker) Chunk(parentID, content string) []source.Chunk {
	var pieces []piece
	for _, b := range splitBlocks(content) {
		pieces = append(pieces, c.fit(b)...)
	}

	var chunks []source.Chunk
	var current *source.Chunk

	flush := func() {
		if current != nil {
			current.TokenCount = EstimateTokens(current.Content)
			chunks = append(chunks, *current)
			current = nil
		}
	}

	for _, p := range pieces {
		if current != nil {
			size := EstimateTokens(current.Content + p.sep + p.text)
			newSection := p.heading && EstimateTokens(current.Content) >= c.config.MinTokens
			if size > c.config.TargetTokens || newSection {
				flush()
			}
		}

		if current == nil {
			current = &source.Chunk{
				ParentID: parentID,
				Index:    len(chunks),
				Section:  p.section,
				Content:  p.text,
			}
			continue
		}
		current.Content += p.sep + p.text
	}
	flush()

	return c.mergeTail(chunks)
}

// mergeTail folds an undersized last chunk into the previous one when the
// result stays within MaxTokens.
func (c *Chunker) mergeTail(chunks []source.Chunk) []source.Chunk {
	n := len(chunks)
	if n < 2 || chunks[n-1].TokenCount >= c.config.MinTokens {
		return chunks
	}

	merged := chunks[n-2].Content + "\n\n" + chunks[n-1].Content
	if EstimateTokens(merged) > c.config.MaxTokens {
		return chunks
	}

	chunks[n-2].Content = merged
	chunks[n-2].TokenCount = EstimateTokens(merged)
	return chunks[:n-1]
}

// fit breaks a block into pieces of at most MaxTokens each.
func (c *Chunker) fit(b block) []piece {
	if EstimateTokens(b.text) <= c.config.MaxTokens {
		return []piece{{section: b.section, heading: b.heading, sep: "\n\n", text: b.text}}
	}

	var out []piece
	sep := "\n\n"
	for _, sentence := range splitSentences(b.text) {
		if EstimateTokens(sentence) <= c.config.MaxTokens {
			out = append(out, piece{section: b.section, sep: sep, text: sentence})
			sep = " "
			continue
		}
		for _, part := range hardSplit(sentence, c.config.MaxTokens*charsPerToken) {
			out = append(out, piece{section: b.section, sep: sep, text: part})
			sep = " "
		}
	}
	if len(out) > 0 {
		out[0].heading = b.heading
	}
	return out
}

// block is a paragraph or fenced code block with the heading it falls under.
type block struct {
	section string
	heading bool
	text    string
}

// splitBlocks splits content at blank lines, keeping fenced code blocks
// whole.
func splitBlocks(content string) []block {
	var blocks []block
	var lines []string
	section := ""
	inFence := false

	emit := func() {
		text := strings.TrimSpace(strings.Join(lines, "\n"))
		lines = lines[:0]
		if text == "" {
			return
		}

		b := block{section: section, text: text}
		if heading, ok := parseHeading(firstLine(text)); ok {
			section = heading
			b.section = heading
			b.heading = true
		}
		blocks = append(blocks, b)
	}

	for _, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "```") || strings.HasPrefix(trimmed, "~~~") {
			inFence = !inFence
		}
		if !inFence && trimmed == "" {
			emit()
			continue
		}
		if !inFence && len(lines) > 0 {
			// A heading line always opens a new block.
			if _, ok := parseHeading(trimmed); ok {
				emit()
			}
		}
		lines = append(lines, line)
	}
	emit()

	return blocks
}

// parseHeading returns the text of an ATX heading line.
func parseHeading(line string) (string, bool) {
	level := 0
	for level < len(line) && line[level] == '#' {
		level++
	}
	if level == 0 || level > 6 || level >= len(line) || line[level] != ' ' {
		return "", false
	}
	text := strings.TrimSpace(strings.TrimRight(line[level:], "# "))
	return text, text != ""
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

// splitSentences splits after '.', '!' or '?' followed by whitespace.
func splitSentences(text string) []string {
	var out []string
	start := 0
	for i := 0; i < len(text)-1; i++ {
		switch text[i] {
		case '.', '!', '?':
			if next, _ := utf8.DecodeRuneInString(text[i+1:]); unicode.IsSpace(next) {
				if s := strings.TrimSpace(text[start : i+1]); s != "" {
					out = append(out, s)
				}
				start = i + 1
			}
		}
	}
	if s := strings.TrimSpace(text[start:]); s != "" {
		out = append(out, s)
	}
	return out
}

// hardSplit cuts text into parts of at most maxBytes, preferring the last
// whitespace in the second half of each window and never splitting a rune.
func hardSplit(text string, maxBytes int) []string {
	var out []string
	for len(text) > maxBytes {
		cut := maxBytes
		for cut > 0 && !utf8.RuneStart(text[cut]) {
			cut--
		}
		if ws := strings.LastIndexFunc(text[:cut], unicode.IsSpace); ws > maxBytes/2 {
			cut = ws
		}
		if cut == 0 {
			cut = maxBytes
		}

		out = append(out, strings.TrimSpace(text[:cut]))
		text = strings.TrimSpace(text[cut:])
	}
	if text != "" {
		out = append(out, text)
	}
	return out
}
