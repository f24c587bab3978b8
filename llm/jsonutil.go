package llm

import (
	"regexp"
	"strings"
)

var (
	// fencePattern matches a markdown code fence opener or closer, with an
	// optional language tag.
	fencePattern = regexp.MustCompile("```[a-zA-Z]*")

	// trailingCommaPattern matches trailing commas before ] or }.
	trailingCommaPattern = regexp.MustCompile(`,\s*([}\]])`)
)

// StripCodeFences removes markdown code fences such as ```json and ```,
// leaving the fenced content in place.
func StripCodeFences(content string) string {
	return strings.TrimSpace(fencePattern.ReplaceAllString(content, ""))
}

// ExtractJSON returns the first balanced JSON object in an LLM response,
// after removing code fences, // comments and trailing commas. It returns ""
// when the response contains no complete object.
func ExtractJSON(content string) string {
	raw := balanced(StripCodeFences(content), '{', '}')
	if raw == "" {
		return ""
	}
	return cleanJSON(raw)
}

// ExtractJSONArray is ExtractJSON for a top-level array.
func ExtractJSONArray(content string) string {
	raw := balanced(StripCodeFences(content), '[', ']')
	if raw == "" {
		return ""
	}
	return cleanJSON(raw)
}

// balanced returns the substring from the first opener to its matching closer,
// ignoring delimiters inside JSON strings.
func balanced(s string, opener, closer byte) string {
	start := strings.IndexByte(s, opener)
	if start < 0 {
		return ""
	}

	depth := 0
	inString, escaped := false, false
	for i := start; i < len(s); i++ {
		ch := s[i]
		switch {
		case escaped:
			escaped = false
		case inString && ch == '\\':
			escaped = true
		case ch == '"':
			inString = !inString
		case inString:
		case ch == opener:
			depth++
		case ch == closer:
			depth--
			if depth == 0 {
				return s[start : i+1]
			}
		}
	}
	return ""
}

// cleanJSON removes // comments outside strings and trailing commas.
func cleanJSON(raw string) string {
	lines := strings.Split(raw, "\n")
	for i, line := range lines {
		lines[i] = stripLineComment(line)
	}
	return trailingCommaPattern.ReplaceAllString(strings.Join(lines, "\n"), "$1")
}

// stripLineComment cuts a line at the first // that is not inside a string.
func stripLineComment(line string) string {
	if !strings.Contains(line, "//") {
		return line
	}

	inString, escaped := false, false
	for i := 0; i < len(line)-1; i++ {
		ch := line[i]
		switch {
		case escaped:
			escaped = false
		case inString && ch == '\\':
			escaped = true
		case ch == '"':
			inString = !inString
		case !inString && ch == '/' && line[i+1] == '/':
			return strings.TrimRight(line[:i], " \t")
		}
	}
	return line
}
