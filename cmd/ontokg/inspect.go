package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/c360studio/ontokg/ontology"
	"github.com/c360studio/ontokg/source"
	"github.com/spf13/cobra"
)

type inspectFlags struct {
	byLocalName    bool
	includeBlanks  bool
	classPredicate string
	format         string
	json           bool
	watch          bool
}

func inspectCmd(a *app) *cobra.Command {
	f := &inspectFlags{}

	cmd := &cobra.Command{
		Use:   "inspect <locator>",
		Short: "Show the class taxonomy and object properties of an ontology",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			if flags.Changed("by-local-name") {
				a.cfg.Inspector.ByLocalName = f.byLocalName
			}
			if flags.Changed("include-bnodes") {
				a.cfg.Inspector.IncludeBlankNodes = f.includeBlanks
			}
			if flags.Changed("class-predicate") {
				a.cfg.Inspector.ClassPredicate = f.classPredicate
			}
			if err := a.cfg.Validate(); err != nil {
				return err
			}

			opts := append(a.cfg.InspectorOptions(), ontology.WithLogger(a.logger))
			if f.format != "" {
				format, err := ontology.ParseFormat(f.format)
				if err != nil {
					return err
				}
				opts = append(opts, ontology.WithFormat(format))
			}

			return a.runInspect(cmd.Context(), cmd.OutOrStdout(), args[0], f, opts)
		},
	}

	cmd.Flags().BoolVar(&f.byLocalName, "by-local-name", false, "Order and label classes by local name")
	cmd.Flags().BoolVar(&f.includeBlanks, "include-bnodes", false, "Include blank-node classes")
	cmd.Flags().StringVar(&f.classPredicate, "class-predicate", "", "Only classes declared via rdf, rdfs or owl")
	cmd.Flags().StringVar(&f.format, "format", "", "Ontology serialization (rdfxml, turtle, ntriples); detected when empty")
	cmd.Flags().BoolVar(&f.json, "json", false, "Print a JSON report")
	cmd.Flags().BoolVar(&f.watch, "watch", false, "Re-inspect whenever the ontology file changes")

	return cmd
}

func (a *app) runInspect(ctx context.Context, w io.Writer, locator string, f *inspectFlags, opts []ontology.Option) error {
	stopMetrics, err := a.serveMetrics(ctx)
	if err != nil {
		return err
	}
	defer stopMetrics()

	if err := a.inspectOnce(ctx, w, locator, f, opts); err != nil {
		return err
	}
	if !f.watch {
		return nil
	}

	watcher, err := source.NewFileWatcher([]string{locator}, source.WithWatchLogger(a.logger))
	if err != nil {
		return fmt.Errorf("watch %s: %w", locator, err)
	}
	defer watcher.Stop()

	if err := watcher.Start(ctx); err != nil {
		return fmt.Errorf("watch %s: %w", locator, err)
	}

	for event := range watcher.Events() {
		if event.Operation == source.WatchOpDelete {
			a.logger.Warn("Ontology removed, waiting for it to reappear", slog.String("path", event.Path))
			continue
		}
		fmt.Fprintln(w)
		// A broken edit is reported and the watch continues.
		if err := a.inspectOnce(ctx, w, locator, f, opts); err != nil {
			a.logger.Error("Inspection failed", slog.String("path", event.Path), slog.String("error", err.Error()))
		}
	}
	return nil
}

func (a *app) inspectOnce(ctx context.Context, w io.Writer, locator string, f *inspectFlags, opts []ontology.Option) error {
	start := time.Now()
	insp, err := ontology.Open(ctx, locator, opts...)
	if err != nil {
		a.metrics.RecordOntologyLoad(locator, "unknown", err, time.Since(start), 0, 0, 0)
		return err
	}
	stats := insp.Stats()
	a.metrics.RecordOntologyLoad(insp.OntologyURI(), string(stats.Format), nil, time.Since(start),
		stats.Triples, stats.Classes, stats.Properties)

	report := newInspectReport(insp, a.cfg.Inspector.ByLocalName)
	if f.json {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}
	return report.writeText(w)
}

// inspectReport is the printable result of one inspection.
type inspectReport struct {
	OntologyURI string                         `json:"ontology_uri"`
	Stats       ontology.Stats                 `json:"stats"`
	Classes     []ontology.Node                `json:"classes"`
	TopClasses  []ontology.Node                `json:"top_classes"`
	Tree        []treeEntry                    `json:"tree"`
	Properties  []ontology.PredicateDescriptor `json:"properties"`

	byLocalName bool
}

// treeEntry is one class of the tree in depth-first order.
type treeEntry struct {
	Class      ontology.Node   `json:"class"`
	Depth      int             `json:"depth"`
	Subclasses []ontology.Node `json:"subclasses"`
}

func newInspectReport(insp *ontology.Inspector, byLocalName bool) *inspectReport {
	r := &inspectReport{
		OntologyURI: insp.OntologyURI(),
		Stats:       insp.Stats(),
		Classes:     insp.Classes(),
		TopClasses:  insp.TopClasses(),
		Tree:        []treeEntry{},
		Properties:  insp.ObjectProperties(),
		byLocalName: byLocalName,
	}

	tree := insp.Tree()
	tree.Walk(func(n ontology.Node, depth int) bool {
		subs := tree.Children(n)
		if subs == nil {
			subs = []ontology.Node{}
		}
		r.Tree = append(r.Tree, treeEntry{Class: n, Depth: depth, Subclasses: subs})
		return true
	})
	return r
}

func (r *inspectReport) label(n ontology.Node) string {
	if r.byLocalName && n.IsIRI() {
		return n.LocalName()
	}
	return n.String()
}

func (r *inspectReport) labels(nodes []ontology.Node) string {
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = r.label(n)
	}
	return strings.Join(out, ", ")
}

func (r *inspectReport) writeText(w io.Writer) error {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Ontology: %s\n", r.OntologyURI)
	fmt.Fprintf(&sb, "Format: %s, %d triples, %d classes, %d top classes, depth %d\n",
		r.Stats.Format, r.Stats.Triples, r.Stats.Classes, r.Stats.TopClasses, r.Stats.TreeDepth)

	fmt.Fprintf(&sb, "\nClasses (%d):\n", len(r.Classes))
	for _, c := range r.Classes {
		fmt.Fprintf(&sb, "  %s\n", r.label(c))
	}

	sb.WriteString("\nTree:\n")
	for _, e := range r.Tree {
		fmt.Fprintf(&sb, "%s%s\n", strings.Repeat("  ", e.Depth+1), r.label(e.Class))
	}

	fmt.Fprintf(&sb, "\nObject properties (%d):\n", len(r.Properties))
	for _, p := range r.Properties {
		fmt.Fprintf(&sb, "  %s: %s -> %s\n", r.label(p.Predicate), r.labels(p.Domains), r.labels(p.RangeClasses))
	}

	_, err := io.WriteString(w, sb.String())
	return err
}
