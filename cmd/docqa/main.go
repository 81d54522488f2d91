// Package main provides the docqa CLI: ingest documents, chat over them,
// serve the HTTP API, and inspect or reset the index.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/mike-a-ellis/docqa/internal/chunker"
	"github.com/mike-a-ellis/docqa/internal/config"
	"github.com/mike-a-ellis/docqa/internal/document"
	"github.com/mike-a-ellis/docqa/internal/embedding"
	"github.com/mike-a-ellis/docqa/internal/llm"
	"github.com/mike-a-ellis/docqa/internal/server"
	"github.com/mike-a-ellis/docqa/internal/session"
	"github.com/mike-a-ellis/docqa/internal/vectorstore"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "docqa",
	Short: "Ask questions about your documents",
	Long: `docqa ingests PDF, TXT and Markdown files into a vector index and
answers natural-language questions about them using a local language model.

Environment variables:
  OLLAMA_HOST     Ollama base URL (default: http://localhost:11434)
  QDRANT_HOST     Qdrant hostname (default: localhost)
  QDRANT_PORT     Qdrant gRPC port (default: 6334)
  OPENAI_API_KEY  enables the OpenAI embedding fallback (optional)`,
}

var ingestCmd = &cobra.Command{
	Use:   "ingest <path>...",
	Short: "Chunk, embed and index documents",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runIngest,
}

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Interactive question answering over the indexed documents",
	RunE:  runChat,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the HTTP JSON API",
	RunE:  runServe,
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show index and pipeline status",
	RunE:  runStatus,
}

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete all indexed records, saved uploads and conversation state",
	RunE:  runClear,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "docqa.yaml", "config file path")
	rootCmd.AddCommand(ingestCmd, chatCmd, serveCmd, statusCmd, clearCmd)
}

func main() {
	// Load .env if present (local development), ignore if missing.
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// newSession wires the full stack from configuration. Construction fails
// hard when no embedding provider initializes or the language model is
// unreachable.
func newSession(ctx context.Context, logger *slog.Logger) (*session.Session, *config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}

	provider, err := embedding.Select(ctx, []embedding.Constructor{
		{
			Name: "ollama",
			New: func(ctx context.Context) (embedding.Provider, error) {
				return embedding.NewOllama(ctx, cfg.Ollama.BaseURL, cfg.Ollama.EmbedModel, cfg.EmbedTimeout())
			},
		},
		{
			Name: "openai",
			New: func(ctx context.Context) (embedding.Provider, error) {
				return embedding.NewOpenAI(cfg.OpenAI.Model, cfg.OpenAI.BatchSize)
			},
		},
	}, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("select embedding provider: %w", err)
	}

	var index vectorstore.Index
	switch cfg.Store.Type {
	case "memory":
		index = vectorstore.NewMemory(provider.Dimension())
	default:
		index, err = vectorstore.NewQdrant(
			cfg.Store.Qdrant.Host, cfg.Store.Qdrant.Port,
			cfg.Store.Qdrant.Collection, provider.Dimension())
		if err != nil {
			return nil, nil, fmt.Errorf("connect to qdrant: %w", err)
		}
	}
	store := vectorstore.NewManager(provider, index, logger)

	generator, err := llm.NewOllama(ctx, cfg.Ollama.BaseURL, cfg.Ollama.GenerateModel, cfg.GenerateTimeout())
	if err != nil {
		store.Close()
		return nil, nil, fmt.Errorf("initialize language model: %w", err)
	}

	splitter := chunker.New(cfg.ChunkSize, cfg.ChunkOverlap)
	processor := document.NewProcessor(splitter, logger)

	return session.New(ctx, cfg, processor, store, generator, logger), cfg, nil
}

func runIngest(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	logger := slog.Default()

	sess, _, err := newSession(ctx, logger)
	if err != nil {
		return err
	}
	defer sess.Close()

	result, err := sess.UploadFiles(ctx, args)
	if err != nil {
		return err
	}

	fmt.Printf("Indexed %d chunks from %d files\n", result.Chunks, result.Files)
	for _, failed := range result.FailedFiles {
		fmt.Printf("  skipped %s: %s\n", failed.Path, failed.Reason)
	}
	return nil
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	logger := slog.Default()

	sess, cfg, err := newSession(ctx, logger)
	if err != nil {
		return err
	}
	defer sess.Close()

	srv := server.New(sess, logger)
	return srv.ListenAndServe("0.0.0.0:" + cfg.Port)
}

func runStatus(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	sess, _, err := newSession(ctx, slog.Default())
	if err != nil {
		return err
	}
	defer sess.Close()

	status := sess.Status(ctx)
	fmt.Printf("Store:    %s (%d chunks)\n", status.Store.Status, status.Store.Count)
	fmt.Printf("Model:    %s\n", status.System.Model)
	fmt.Printf("Ready:    %v\n", status.System.Ready)
	return nil
}

func runClear(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	sess, _, err := newSession(ctx, slog.Default())
	if err != nil {
		return err
	}
	defer sess.Close()

	if err := sess.ClearAll(ctx); err != nil {
		return err
	}
	fmt.Println("All data cleared")
	return nil
}
