// Package session holds the per-session state of the application: the
// document processor, the vector store manager and the current pipeline.
// It replaces ambient globals with an explicit object that has a clear
// construction and teardown lifecycle, and is the only surface the
// presentation layer calls into.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/mike-a-ellis/docqa/internal/config"
	"github.com/mike-a-ellis/docqa/internal/document"
	"github.com/mike-a-ellis/docqa/internal/pipeline"
	"github.com/mike-a-ellis/docqa/internal/vectorstore"
)

// FailedFile records one file that could not be ingested.
type FailedFile struct {
	Path   string `json:"path"`
	Reason string `json:"reason"`
}

// UploadResult summarizes one upload batch.
type UploadResult struct {
	Files       int          `json:"files"`
	Chunks      int          `json:"chunks"`
	FailedFiles []FailedFile `json:"failed_files,omitempty"`
}

// Status is the session state snapshot exposed to the presentation layer.
type Status struct {
	Store  vectorstore.Info    `json:"store"`
	System pipeline.SystemInfo `json:"system"`
}

// Session owns the full ingestion-to-answer flow for one interactive
// session. All operations are serialized per session; the embedded store
// manager additionally guards its own index.
type Session struct {
	cfg       *config.Config
	processor *document.Processor
	store     *vectorstore.Manager
	generator pipeline.Generator
	logger    *slog.Logger

	mu   sync.Mutex
	pipe *pipeline.Pipeline
}

// New creates a Session and constructs the initial pipeline. When the store
// already holds records from a previous run the pipeline starts Ready.
func New(ctx context.Context, cfg *config.Config, processor *document.Processor,
	store *vectorstore.Manager, generator pipeline.Generator, logger *slog.Logger) *Session {

	if logger == nil {
		logger = slog.Default()
	}
	s := &Session{
		cfg:       cfg,
		processor: processor,
		store:     store,
		generator: generator,
		logger:    logger,
	}
	s.pipe = s.buildPipeline(ctx)
	return s
}

// buildPipeline constructs a fresh pipeline from current store state.
func (s *Session) buildPipeline(ctx context.Context) *pipeline.Pipeline {
	return pipeline.New(ctx, s.store, s.generator, pipeline.Config{
		TopK:        s.cfg.TopK,
		Temperature: s.cfg.Temperature,
	}, s.logger)
}

// UploadFiles ingests the given files or directories. A file that fails to
// read or parse is logged, recorded in the result and skipped; it does not
// abort the batch. Newly produced chunks are indexed in one call and the
// pipeline is rebuilt so the Uninitialized to Ready transition is observed.
func (s *Session) UploadFiles(ctx context.Context, paths []string) (*UploadResult, error) {
	result := &UploadResult{}
	var all []document.Chunk

	for _, path := range paths {
		chunks, err := s.processPath(path)
		if err != nil {
			s.logger.Warn("Failed to process upload", "path", path, "error", err)
			result.FailedFiles = append(result.FailedFiles, FailedFile{
				Path:   path,
				Reason: err.Error(),
			})
			continue
		}
		result.Files++
		all = append(all, chunks...)
	}
	result.Chunks = len(all)

	if len(all) > 0 {
		if err := s.store.Index(ctx, all); err != nil {
			return result, fmt.Errorf("index chunks: %w", err)
		}
	}

	s.mu.Lock()
	s.pipe = s.buildPipeline(ctx)
	s.mu.Unlock()

	s.logger.Info("Upload complete",
		"files", result.Files, "chunks", result.Chunks, "failed", len(result.FailedFiles))
	return result, nil
}

// processPath dispatches a single upload path to the processor.
func (s *Session) processPath(path string) ([]document.Chunk, error) {
	stat, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if stat.IsDir() {
		return s.processor.ProcessDirectory(path)
	}
	return s.processor.ProcessFile(path)
}

// Ask answers one question through the current pipeline. Before any
// successful upload this returns the pipeline's canned not-ready result.
func (s *Session) Ask(ctx context.Context, question string) pipeline.QueryResult {
	return s.currentPipeline().Ask(ctx, question)
}

// History returns the conversation so far.
func (s *Session) History() []pipeline.Turn {
	return s.currentPipeline().History()
}

// ClearMemory empties the conversation history without touching the index.
func (s *Session) ClearMemory() {
	s.currentPipeline().ClearMemory()
}

// ClearAll resets the session completely: indexed records, conversation
// history and saved uploads. The history and the index are independently
// lifecycled, so both are cleared explicitly here. Idempotent.
func (s *Session) ClearAll(ctx context.Context) error {
	if err := s.store.Clear(ctx); err != nil {
		return fmt.Errorf("clear store: %w", err)
	}

	s.mu.Lock()
	s.pipe = s.buildPipeline(ctx)
	s.mu.Unlock()

	if s.cfg.UploadDir != "" {
		if err := os.RemoveAll(s.cfg.UploadDir); err != nil {
			return fmt.Errorf("remove upload dir: %w", err)
		}
	}

	s.logger.Info("Session cleared")
	return nil
}

// Status reports current store and pipeline state. Never fails.
func (s *Session) Status(ctx context.Context) Status {
	return Status{
		Store:  s.store.Info(ctx),
		System: s.currentPipeline().SystemInfo(ctx),
	}
}

// UploadDir is where the presentation layer saves incoming files.
func (s *Session) UploadDir() string { return s.cfg.UploadDir }

// Close releases the store connection.
func (s *Session) Close() error {
	return s.store.Close()
}

func (s *Session) currentPipeline() *pipeline.Pipeline {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pipe
}
