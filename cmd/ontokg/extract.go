package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/c360studio/ontokg/export"
	"github.com/c360studio/ontokg/extraction"
	"github.com/c360studio/ontokg/llm"
	"github.com/c360studio/ontokg/model"
	"github.com/c360studio/ontokg/source"
	"github.com/c360studio/ontokg/source/chunker"
	"github.com/spf13/cobra"
)

type extractFlags struct {
	ontologies    []string
	exportFormat  string
	profile       string
	namespace     string
	runID         string
	output        string
	json          bool
	skipMalformed bool
	capability    string
}

func extractCmd(a *app) *cobra.Command {
	f := &extractFlags{}

	cmd := &cobra.Command{
		Use:   "extract [--ontology locator]... <text-file>...",
		Short: "Extract knowledge-graph triplets from text",
		Long: `Extract entities and relations from text documents (.txt, .md, .html)
with the configured extraction model, using the ontology classes as entity
types and its object properties as predicates.

Without --export the resolved triplets are printed; with it, or with
--output, they are serialized as RDF (turtle, ntriples or jsonld).`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			if flags.Changed("skip-malformed") {
				a.cfg.Extraction.SkipMalformed = f.skipMalformed
			}
			if f.capability != "" {
				a.cfg.Extraction.Capability = f.capability
			}
			if f.profile != "" {
				a.cfg.Export.Profile = f.profile
			}
			if f.namespace != "" {
				a.cfg.Export.Namespace = f.namespace
			}
			if f.exportFormat != "" {
				a.cfg.Export.Format = f.exportFormat
			}
			if err := a.cfg.Validate(); err != nil {
				return err
			}
			return a.runExtract(cmd.Context(), cmd.OutOrStdout(), args, f)
		},
	}

	cmd.Flags().StringArrayVarP(&f.ontologies, "ontology", "o", nil, "Ontology locator or glob (repeatable; default: configured ontologies)")
	cmd.Flags().StringVar(&f.exportFormat, "export", "", "Serialize triplets as RDF: turtle, ntriples or jsonld")
	cmd.Flags().StringVar(&f.profile, "profile", "", "RDF export profile: minimal or prov")
	cmd.Flags().StringVar(&f.namespace, "namespace", "", "Base IRI for extracted entities")
	cmd.Flags().StringVar(&f.runID, "run-id", "", "Identifier of the extraction run (default: random UUID)")
	cmd.Flags().StringVar(&f.output, "output", "", "Write output to this file instead of stdout")
	cmd.Flags().BoolVar(&f.json, "json", false, "Print triplets as JSON (ignored with --export)")
	cmd.Flags().BoolVar(&f.skipMalformed, "skip-malformed", false, "Continue past chunks whose model response cannot be parsed")
	cmd.Flags().StringVar(&f.capability, "capability", "", "Model capability to use (default: extraction)")

	return cmd
}

func (a *app) runExtract(ctx context.Context, stdout io.Writer, args []string, f *extractFlags) error {
	stopMetrics, err := a.serveMetrics(ctx)
	if err != nil {
		return err
	}
	defer stopMetrics()

	vocab, err := a.loadVocabulary(ctx, f.ontologies)
	if err != nil {
		return err
	}

	paths, err := source.ExpandLocators(args)
	if err != nil {
		return err
	}

	extractor, modelName, err := a.newExtractor()
	if err != nil {
		return err
	}

	loader := source.NewLoader()
	results := make([]*extraction.Result, 0, len(paths))
	for _, path := range paths {
		local, ok := source.LocalPath(path)
		if !ok {
			return fmt.Errorf("text document %s: only local files are supported", path)
		}
		doc, err := loader.Load(local)
		if err != nil {
			return err
		}
		res, err := extractor.ExtractDocument(ctx, vocab, doc)
		if err != nil {
			return fmt.Errorf("extract %s: %w", path, err)
		}
		results = append(results, res)
	}

	out := stdout
	if f.output != "" {
		file, err := os.Create(f.output)
		if err != nil {
			return fmt.Errorf("create output: %w", err)
		}
		defer file.Close()
		out = file
	}

	// An output file without --json receives RDF in the configured format.
	if f.exportFormat != "" || (f.output != "" && !f.json) {
		format, err := export.ParseFormat(a.cfg.Export.Format)
		if err != nil {
			return err
		}
		profile, err := export.ParseProfile(a.cfg.Export.Profile)
		if err != nil {
			return err
		}

		b := export.NewBuilder(vocab, export.Options{
			Profile:         profile,
			EntityNamespace: a.cfg.Export.Namespace,
			RunID:           f.runID,
			Model:           modelName,
			Source:          strings.Join(paths, ", "),
		})
		for _, res := range results {
			b.Add(res)
		}
		if err := b.Graph().Write(out, format); err != nil {
			return fmt.Errorf("export: %w", err)
		}
		a.logger.Info("Exported triplets",
			slog.String("format", string(format)),
			slog.String("run", b.RunIRI()),
			slog.Int("statements", b.Graph().Len()))
		return nil
	}

	if f.json {
		return writeTripletsJSON(out, results)
	}
	return writeTripletsText(out, paths, results)
}

// newExtractor wires the model registry, LLM client and chunker from the
// configuration. It also returns the model that answers the capability
// first, for provenance.
func (a *app) newExtractor() (*extraction.Extractor, string, error) {
	registry, err := a.cfg.Registry()
	if err != nil {
		return nil, "", err
	}

	retry := llm.DefaultRetryConfig()
	if a.cfg.Model.MaxAttempts > 0 {
		retry.MaxAttempts = a.cfg.Model.MaxAttempts
	}
	client := llm.NewClient(registry,
		llm.WithLogger(a.logger),
		llm.WithMetrics(a.metrics),
		llm.WithTimeout(a.cfg.Model.Timeout),
		llm.WithRetryConfig(retry))

	ch, err := chunker.New(a.cfg.Extraction.Chunk)
	if err != nil {
		return nil, "", err
	}

	extractor := extraction.NewExtractor(client,
		extraction.WithLogger(a.logger),
		extraction.WithMetrics(a.metrics),
		extraction.WithCapability(a.cfg.Extraction.Capability),
		extraction.WithMaxTokens(a.cfg.Extraction.MaxTokens),
		extraction.WithChunker(ch),
		extraction.WithSkipMalformed(a.cfg.Extraction.SkipMalformed))

	modelName := registry.Resolve(model.Capability(a.cfg.Extraction.Capability))
	if ep := registry.GetEndpoint(modelName); ep != nil {
		modelName = ep.Model
	}
	return extractor, modelName, nil
}

// documentTriplets is the JSON form of one document's triplets.
type documentTriplets struct {
	DocumentID   string               `json:"document_id"`
	Chunks       int                  `json:"chunks"`
	FailedChunks int                  `json:"failed_chunks,omitempty"`
	Skipped      int                  `json:"skipped"`
	Entities     []extraction.Entity  `json:"entities"`
	Triplets     []extraction.Triplet `json:"triplets"`
}

func writeTripletsJSON(w io.Writer, results []*extraction.Result) error {
	docs := make([]documentTriplets, 0, len(results))
	for _, res := range results {
		triplets := res.Triplets()
		if triplets == nil {
			triplets = []extraction.Triplet{}
		}
		docs = append(docs, documentTriplets{
			DocumentID:   res.DocumentID,
			Chunks:       res.Chunks,
			FailedChunks: res.FailedChunks,
			Skipped:      res.Skipped,
			Entities:     res.Entities,
			Triplets:     triplets,
		})
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(docs)
}

func writeTripletsText(w io.Writer, paths []string, results []*extraction.Result) error {
	var sb strings.Builder
	for i, res := range results {
		if i > 0 {
			sb.WriteString("\n")
		}
		triplets := res.Triplets()
		fmt.Fprintf(&sb, "%s: %d entities, %d triplets, %d chunks\n",
			paths[i], len(res.Entities), len(triplets), res.Chunks)
		for _, t := range triplets {
			fmt.Fprintf(&sb, "  %s (%s) -[%s]-> %s (%s)\n",
				t.Subject.Value, t.Subject.Type, t.Predicate, t.Object.Value, t.Object.Type)
		}
	}
	_, err := io.WriteString(w, sb.String())
	return err
}
