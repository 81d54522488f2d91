// Package pipeline implements the conversational retrieval loop: retrieve
// relevant chunks for a question, compose a prompt with context and history,
// and generate an answer.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/mike-a-ellis/docqa/internal/document"
	"github.com/mike-a-ellis/docqa/internal/vectorstore"
)

const (
	// DefaultTopK is how many chunks are retrieved per question.
	DefaultTopK = 4

	// DefaultTemperature is the sampling temperature for generation.
	DefaultTemperature = 0.7

	// sourcePreviewLen bounds the chunk content returned as a source.
	sourcePreviewLen = 200

	// notReadyAnswer is returned for questions asked before any document has
	// been indexed. This is an expected condition, not a failure of the
	// pipeline itself.
	notReadyAnswer = "System not ready. Please upload documents first."
)

// promptTemplate is the fixed instruction wrapped around retrieved context,
// conversation history and the question.
const promptTemplate = `You are a helpful AI assistant that answers questions based on provided context.
Use the following pieces of context to answer the question at the end. If you don't know the answer, just say that you don't know, don't try to make up an answer.

Context:
%s

Chat History:
%s

Question: %s

Helpful Answer:`

// Role identifies who produced a conversation turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one entry of the append-only conversation history.
type Turn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Source is a retrieved chunk cited in an answer, with content truncated for
// display.
type Source struct {
	Content  string            `json:"content"`
	Metadata document.Metadata `json:"metadata"`
}

// Metrics carries per-question timing information.
type Metrics struct {
	Retrieval  time.Duration `json:"retrieval"`
	Generation time.Duration `json:"generation"`
	Total      time.Duration `json:"total"`
}

// QueryResult is the outcome of one question. It is constructed per question
// and never persisted.
type QueryResult struct {
	Answer    string   `json:"answer"`
	Sources   []Source `json:"sources"`
	Succeeded bool     `json:"succeeded"`
	Metrics   Metrics  `json:"metrics"`
}

// Retriever finds chunks relevant to a query. Implemented by
// *vectorstore.Manager.
type Retriever interface {
	Search(ctx context.Context, query string, k int) ([]vectorstore.Match, error)
	Info(ctx context.Context) vectorstore.Info
}

// Generator produces text from a prompt. Implemented by *llm.Ollama.
type Generator interface {
	Generate(ctx context.Context, prompt string, temperature float64) (string, error)
	Model() string
}

// Config tunes retrieval and generation.
type Config struct {
	TopK        int
	Temperature float64
}

// SystemInfo is a snapshot of pipeline state for display.
type SystemInfo struct {
	Model         string             `json:"model"`
	StoreStatus   vectorstore.Status `json:"store_status"`
	DocumentCount uint64             `json:"document_count"`
	HistoryLength int                `json:"history_length"`
	Ready         bool               `json:"ready"`
}

// Pipeline answers questions over an indexed document set, carrying
// conversation memory across turns.
//
// A pipeline is either Uninitialized or Ready. The state is decided once at
// construction from the store's indexed count and never re-checked: a freshly
// uploaded batch requires constructing a new pipeline.
type Pipeline struct {
	retriever   Retriever
	generator   Generator
	topK        int
	temperature float64
	logger      *slog.Logger

	mu      sync.Mutex
	history []Turn
	ready   bool
}

// New creates a Pipeline. It is Ready if the retriever reports a non-zero
// indexed count at this moment; otherwise every Ask returns a not-ready
// result for the pipeline's lifetime.
func New(ctx context.Context, retriever Retriever, generator Generator, cfg Config, logger *slog.Logger) *Pipeline {
	if cfg.TopK <= 0 {
		cfg.TopK = DefaultTopK
	}
	if cfg.Temperature <= 0 {
		cfg.Temperature = DefaultTemperature
	}
	if logger == nil {
		logger = slog.Default()
	}

	info := retriever.Info(ctx)
	return &Pipeline{
		retriever:   retriever,
		generator:   generator,
		topK:        cfg.TopK,
		temperature: cfg.Temperature,
		logger:      logger,
		ready:       info.Status == vectorstore.StatusActive && info.Count > 0,
	}
}

// Ready reports whether the pipeline can answer questions.
func (p *Pipeline) Ready() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.ready
}

// Ask answers a question using retrieved context and the accumulated
// conversation history. Failures during retrieval or generation are converted
// into a failed QueryResult; Ask never panics or propagates an error, so one
// bad question cannot terminate the session.
func (p *Pipeline) Ask(ctx context.Context, question string) QueryResult {
	start := time.Now()

	if !p.Ready() {
		return QueryResult{
			Answer:    notReadyAnswer,
			Sources:   []Source{},
			Succeeded: false,
			Metrics:   Metrics{Total: time.Since(start)},
		}
	}

	retrievalStart := time.Now()
	matches, err := p.retriever.Search(ctx, question, p.topK)
	if err != nil {
		p.logger.Warn("Retrieval failed", "error", err)
		return p.failure(fmt.Sprintf("Error processing question: %v", err), start)
	}
	retrieval := time.Since(retrievalStart)

	prompt := p.composePrompt(matches, question)

	generationStart := time.Now()
	answer, err := p.generator.Generate(ctx, prompt, p.temperature)
	if err != nil {
		p.logger.Warn("Generation failed", "error", err)
		return p.failure(fmt.Sprintf("Error processing question: %v", err), start)
	}
	generation := time.Since(generationStart)

	answer = strings.TrimSpace(answer)

	p.mu.Lock()
	p.history = append(p.history,
		Turn{Role: RoleUser, Content: question},
		Turn{Role: RoleAssistant, Content: answer},
	)
	p.mu.Unlock()

	sources := make([]Source, 0, len(matches))
	for _, match := range matches {
		sources = append(sources, Source{
			Content:  truncate(match.Chunk.Content, sourcePreviewLen),
			Metadata: match.Chunk.Metadata,
		})
	}

	return QueryResult{
		Answer:    answer,
		Sources:   sources,
		Succeeded: true,
		Metrics: Metrics{
			Retrieval:  retrieval,
			Generation: generation,
			Total:      time.Since(start),
		},
	}
}

// ClearMemory empties the conversation history. The vector index is not
// affected; the two are independently lifecycled.
func (p *Pipeline) ClearMemory() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.history = nil
}

// History returns a copy of the conversation so far. Never fails.
func (p *Pipeline) History() []Turn {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Turn, len(p.history))
	copy(out, p.history)
	return out
}

// SystemInfo returns a snapshot of pipeline and store state. Never fails; a
// broken store shows up as its error status.
func (p *Pipeline) SystemInfo(ctx context.Context) SystemInfo {
	info := p.retriever.Info(ctx)

	p.mu.Lock()
	defer p.mu.Unlock()
	return SystemInfo{
		Model:         p.generator.Model(),
		StoreStatus:   info.Status,
		DocumentCount: info.Count,
		HistoryLength: len(p.history),
		Ready:         p.ready,
	}
}

// composePrompt renders the fixed template with retrieved chunks and the
// full conversation history.
func (p *Pipeline) composePrompt(matches []vectorstore.Match, question string) string {
	var contextText strings.Builder
	for i, match := range matches {
		if i > 0 {
			contextText.WriteString("\n\n")
		}
		contextText.WriteString(match.Chunk.Content)
	}

	var historyText strings.Builder
	for _, turn := range p.History() {
		switch turn.Role {
		case RoleUser:
			historyText.WriteString("User: ")
		case RoleAssistant:
			historyText.WriteString("Assistant: ")
		}
		historyText.WriteString(turn.Content)
		historyText.WriteString("\n")
	}

	return fmt.Sprintf(promptTemplate, contextText.String(), historyText.String(), question)
}

func (p *Pipeline) failure(message string, start time.Time) QueryResult {
	return QueryResult{
		Answer:    message,
		Sources:   []Source{},
		Succeeded: false,
		Metrics:   Metrics{Total: time.Since(start)},
	}
}

// truncate bounds s to n characters for display, marking the cut.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
