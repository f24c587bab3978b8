package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/c360studio/ontokg/extraction"
	"github.com/c360studio/ontokg/ontology"
	"github.com/c360studio/ontokg/source"
	"github.com/spf13/cobra"
)

func vocabCmd(a *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "vocab [locator...]",
		Short: "Print the merged extraction vocabulary of one or more ontologies",
		Long: `Print the entity types and predicates that extraction would use.

Locators may be files, doublestar globs (onto/**/*.ttl) or URLs. Without
arguments the ontologies from the configuration are used.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			vocab, err := a.loadVocabulary(cmd.Context(), args)
			if err != nil {
				return err
			}
			return writeVocabulary(cmd.OutOrStdout(), vocab, asJSON)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON")
	return cmd
}

// loadVocabulary expands locators (the configured ontologies when empty)
// and merges their vocabularies.
func (a *app) loadVocabulary(ctx context.Context, locators []string) (extraction.Vocabulary, error) {
	if len(locators) == 0 {
		locators = a.cfg.Ontologies
	}
	if len(locators) == 0 {
		return extraction.Vocabulary{}, fmt.Errorf("no ontology given and none configured")
	}

	expanded, err := source.ExpandLocators(locators)
	if err != nil {
		return extraction.Vocabulary{}, err
	}

	return extraction.LoadVocabulary(ctx, expanded, extraction.LoadConfig{
		Options: append(a.cfg.InspectorOptions(), ontology.WithLogger(a.logger)),
		Metrics: a.metrics,
		Logger:  a.logger,
	})
}

func writeVocabulary(w io.Writer, vocab extraction.Vocabulary, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(vocab)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Entity types (%d):\n", len(vocab.Entities))
	for _, e := range vocab.Entities {
		fmt.Fprintf(&sb, "  %s\n", e)
	}
	fmt.Fprintf(&sb, "\nPredicates (%d):\n", len(vocab.Predicates))
	for _, p := range vocab.Predicates {
		fmt.Fprintf(&sb, "  %s\n", p)
	}
	_, err := io.WriteString(w, sb.String())
	return err
}
