// Package main provides the ontokg binary entry point.
// Ontokg inspects RDF/OWL ontologies and uses their classes and object
// properties as the vocabulary for LLM-driven knowledge-graph extraction.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"

	// Register LLM providers via init()
	_ "github.com/c360studio/ontokg/llm/providers"

	"github.com/c360studio/ontokg/config"
	"github.com/c360studio/ontokg/metrics"
	"github.com/spf13/cobra"
)

const (
	Version   = "0.1.0"
	BuildTime = "dev"
	appName   = "ontokg"
)

func main() {
	// Add panic recovery
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(2)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := rootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// app carries what every subcommand needs once flags are parsed.
type app struct {
	configPath  string
	logLevel    string
	metricsAddr string

	cfg     *config.Config
	logger  *slog.Logger
	metrics *metrics.Registry
}

func rootCmd() *cobra.Command {
	a := &app{}

	cmd := &cobra.Command{
		Use:   appName,
		Short: "Ontology-guided knowledge-graph extraction",
		Long: `Ontokg loads RDF/OWL ontologies and extracts knowledge-graph triplets
from text with a language model.

It provides:
- Taxonomy inspection (classes, root classes, tree, object properties)
- Extraction vocabulary from one or more ontologies
- Triplet extraction with RDF export (Turtle, N-Triples, JSON-LD)`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
	}

	cmd.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "Config file path (YAML)")
	cmd.PersistentFlags().StringVar(&a.logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	cmd.PersistentFlags().StringVar(&a.metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address while running")

	cmd.AddCommand(
		inspectCmd(a),
		vocabCmd(a),
		extractCmd(a),
		&cobra.Command{
			Use:   "version",
			Short: "Print version information",
			// Skip config loading.
			PersistentPreRun: func(*cobra.Command, []string) {},
			Run: func(cmd *cobra.Command, _ []string) {
				fmt.Fprintf(cmd.OutOrStdout(), "%s version %s (build: %s)\n", appName, Version, BuildTime)
			},
		},
	)

	return cmd
}

// setup configures logging and loads the layered configuration.
func (a *app) setup(cmd *cobra.Command) error {
	a.logger = newLogger(a.logLevel, cmd.ErrOrStderr())
	slog.SetDefault(a.logger)

	cfg, err := config.NewLoader(a.logger).Load(a.configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if a.metricsAddr != "" {
		cfg.Metrics.Addr = a.metricsAddr
	}
	a.cfg = cfg
	a.metrics = metrics.NewRegistry()
	return nil
}

func newLogger(logLevel string, w io.Writer) *slog.Logger {
	level := slog.LevelInfo
	switch strings.ToLower(logLevel) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// serveMetrics starts the metrics endpoint when an address is configured and
// returns a function that stops it.
func (a *app) serveMetrics(ctx context.Context) (func(), error) {
	if a.cfg.Metrics.Addr == "" {
		return func() {}, nil
	}

	srv, err := a.metrics.Listen(a.cfg.Metrics.Addr, a.logger)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := srv.Serve(ctx); err != nil {
			a.logger.Error("Metrics server failed", "error", err)
		}
	}()
	return func() {
		cancel()
		<-done
	}, nil
}
