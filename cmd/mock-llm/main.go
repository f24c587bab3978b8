// Package main implements a mock LLM server for extraction tests.
// It serves OpenAI-compatible /v1/chat/completions responses from JSON fixture
// files, routing by the "model" field in the request, so extraction runs can
// be exercised offline and deterministically.
//
// Usage:
//
//	mock-llm --fixtures /path/to/fixtures --addr :11434
//
// Fixture files are JSON named by model (e.g., "triplex.json" maps to model
// "triplex"). The file content is returned as the assistant message. Model
// names that are not valid file names ("hf.co/bartowski/Triplex-GGUF:F32")
// match the fixture named after the name with every other character replaced
// by '_'. A "default.json" fixture answers any model without its own.
//
// Sequential fixtures: if numbered files exist (e.g., "triplex.1.json",
// "triplex.2.json"), the Nth call to that model returns the Nth fixture.
// After exhausting numbered fixtures, the base "triplex.json" is used as a
// repeating fallback, which lets one fixture set answer each chunk of a
// document in turn.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		fixtureDir string
		addr       string
		failFirst  int
		logLevel   string
	)

	cmd := &cobra.Command{
		Use:           "mock-llm",
		Short:         "OpenAI-compatible LLM server backed by fixture files",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger := newLogger(logLevel)

			// Allow env var override
			if envDir := os.Getenv("MOCK_LLM_FIXTURES"); envDir != "" && fixtureDir == "" {
				fixtureDir = envDir
			}
			if fixtureDir == "" {
				fixtureDir = "/fixtures"
			}

			fixtures, err := loadFixtures(fixtureDir)
			if err != nil {
				return fmt.Errorf("load fixtures from %s: %w", fixtureDir, err)
			}
			logger.Info("Loaded fixtures", slog.Int("models", len(fixtures)), slog.String("dir", fixtureDir))
			for model, seq := range fixtures {
				logger.Debug("Fixture model", slog.String("model", model), slog.Int("fixtures", len(seq)))
			}

			s := newServer(fixtures, logger)
			s.failFirst.Store(int64(failFirst))

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, addr, s.routes(), logger)
		},
	}

	cmd.Flags().StringVar(&fixtureDir, "fixtures", "", "directory containing fixture response files (env: MOCK_LLM_FIXTURES)")
	cmd.Flags().StringVar(&addr, "addr", ":11434", "address to listen on")
	cmd.Flags().IntVar(&failFirst, "fail-first", 0, "answer the first N completions with 503 to exercise client retries")
	cmd.Flags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")

	return cmd
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}

// serve runs the HTTP server until ctx is cancelled, then shuts it down.
func serve(ctx context.Context, addr string, h http.Handler, logger *slog.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Mock LLM server listening", slog.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	logger.Info("Mock LLM server stopped")
	return nil
}
