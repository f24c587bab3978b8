package extraction

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/c360studio/ontokg/llm"
)

// ErrMalformedResponse is returned when model output holds no usable
// entities_and_triples list.
var ErrMalformedResponse = errors.New("malformed extraction response")

// responseKey is the field the model lists its findings under.
const responseKey = "entities_and_triples"

var (
	// entityPattern matches "[1], PERSON:Alice Smith".
	entityPattern = regexp.MustCompile(`^\[(\d+)\],\s*([\w.-]+)\s*:\s*(.+)$`)

	// predicatePattern matches "[1] WORKS_AT [2]".
	predicatePattern = regexp.MustCompile(`^\[(\d+)\]\s+([\w.-]+)\s+\[(\d+)\]$`)
)

// Entity is a named entity recognised in a chunk.
type Entity struct {
	// ID is the model-assigned number, unique within its chunk.
	ID string `json:"id"`

	// Type is the entity type as written by the model.
	Type string `json:"type"`

	// Value is the entity surface text.
	Value string `json:"value"`

	// Chunk is the index of the chunk the entity was found in.
	Chunk int `json:"chunk"`
}

// Predicate is a relation between two entities of the same chunk, referenced
// by ID.
type Predicate struct {
	Start string `json:"start"`
	Type  string `json:"type"`
	End   string `json:"end"`
	Chunk int    `json:"chunk"`
}

// Parsed is the decoded content of one model response.
type Parsed struct {
	Entities   []Entity
	Predicates []Predicate

	// Skipped counts entries matching neither notation.
	Skipped int
}

// ParseResponse decodes a model response. Code fences and prose around the
// JSON are tolerated, and a bare JSON array is accepted in place of the
// wrapping object. Entries bracketed on both ends are read as predicates,
// everything else as entities.
func ParseResponse(content string) (*Parsed, error) {
	entries, err := decodeEntries(content)
	if err != nil {
		return nil, err
	}

	parsed := &Parsed{
		Entities:   []Entity{},
		Predicates: []Predicate{},
	}
	for _, raw := range entries {
		var entry string
		if err := json.Unmarshal(raw, &entry); err != nil {
			parsed.Skipped++
			continue
		}
		entry = strings.TrimSpace(entry)

		if strings.HasPrefix(entry, "[") && strings.HasSuffix(entry, "]") {
			m := predicatePattern.FindStringSubmatch(entry)
			if m == nil {
				parsed.Skipped++
				continue
			}
			parsed.Predicates = append(parsed.Predicates, Predicate{Start: m[1], Type: m[2], End: m[3]})
			continue
		}

		m := entityPattern.FindStringSubmatch(entry)
		if m == nil {
			parsed.Skipped++
			continue
		}
		parsed.Entities = append(parsed.Entities, Entity{ID: m[1], Type: m[2], Value: strings.TrimSpace(m[3])})
	}

	return parsed, nil
}

func decodeEntries(content string) ([]json.RawMessage, error) {
	if obj := llm.ExtractJSON(content); obj != "" && startsBefore(content, '{', '[') {
		var wrapper map[string]json.RawMessage
		if err := json.Unmarshal([]byte(obj), &wrapper); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
		}
		raw, ok := wrapper[responseKey]
		if !ok {
			return nil, fmt.Errorf("%w: missing %q", ErrMalformedResponse, responseKey)
		}
		var entries []json.RawMessage
		if err := json.Unmarshal(raw, &entries); err != nil {
			return nil, fmt.Errorf("%w: %q is not a list", ErrMalformedResponse, responseKey)
		}
		return entries, nil
	}

	if arr := llm.ExtractJSONArray(content); arr != "" {
		var entries []json.RawMessage
		if err := json.Unmarshal([]byte(arr), &entries); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
		}
		return entries, nil
	}

	return nil, fmt.Errorf("%w: no JSON found", ErrMalformedResponse)
}

// startsBefore reports whether a appears in s and precedes any b.
func startsBefore(s string, a, b byte) bool {
	i := strings.IndexByte(s, a)
	if i < 0 {
		return false
	}
	j := strings.IndexByte(s, b)
	return j < 0 || i < j
}
