package extraction

import (
	"encoding/json"
	"strings"
)

// promptInstruction is the task statement the Triplex model family is
// trained on.
const promptInstruction = "Perform Named Entity Recognition (NER) and extract knowledge graph triplets from the text. " +
	"NER identifies named entities of given entity types, and triple extraction identifies relationships " +
	"between entities using specified predicates."

// BuildPrompt renders the user message for one chunk of text. Entity types
// and predicates are rendered as JSON arrays.
func BuildPrompt(vocab Vocabulary, text string) string {
	var sb strings.Builder
	sb.WriteString(promptInstruction)
	sb.WriteString("\n\n**Entity Types:**\n")
	sb.WriteString(jsonList(vocab.Entities))
	sb.WriteString("\n\n**Predicates:**\n")
	sb.WriteString(jsonList(vocab.Predicates))
	sb.WriteString("\n\n**Text:**\n")
	sb.WriteString(strings.TrimSpace(text))
	sb.WriteString("\n")
	return sb.String()
}

func jsonList(items []string) string {
	if len(items) == 0 {
		return "[]"
	}
	// Marshalling a []string cannot fail.
	b, _ := json.Marshal(items)
	return string(b)
}
