package vectorstore

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/mike-a-ellis/docqa/internal/document"
	"github.com/mike-a-ellis/docqa/internal/embedding"
)

// Manager ties an embedding provider to an index. The provider is fixed for
// the manager's lifetime; re-embedding with a different provider requires
// rebuilding the index from scratch.
//
// A RWMutex gates Search against concurrent Index and Clear on the same
// manager, so a search never reads the index mid-rebuild.
type Manager struct {
	mu       sync.RWMutex
	provider embedding.Provider
	index    Index
	logger   *slog.Logger
}

// NewManager creates a Manager over the given provider and index.
func NewManager(provider embedding.Provider, index Index, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		provider: provider,
		index:    index,
		logger:   logger,
	}
}

// Provider returns the embedding provider selected at construction.
func (m *Manager) Provider() embedding.Provider { return m.provider }

// Index embeds each chunk's content and inserts the records. The first batch
// creates the underlying index; later batches append. Embedding failures
// propagate for the whole batch; per-record isolation is delegated to the
// underlying index.
func (m *Manager) Index(ctx context.Context, chunks []document.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	texts := make([]string, len(chunks))
	for i, chunk := range chunks {
		texts[i] = chunk.Content
	}

	vectors, err := m.provider.Embed(ctx, texts)
	if err != nil {
		return fmt.Errorf("embed chunks: %w", err)
	}

	records := make([]Record, len(chunks))
	for i, chunk := range chunks {
		records[i] = Record{
			ID:        uuid.New().String(),
			Chunk:     chunk,
			Embedding: vectors[i],
		}
	}

	if err := m.index.Upsert(ctx, records); err != nil {
		return fmt.Errorf("store records: %w", err)
	}

	m.logger.Info("Indexed chunks", "count", len(records), "provider", m.provider.Name())
	return nil
}

// Search embeds the query and returns up to k chunks ranked by decreasing
// similarity. An empty store yields an empty result, a normal condition
// rather than an error.
func (m *Manager) Search(ctx context.Context, query string, k int) ([]Match, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	count, err := m.index.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("count records: %w", err)
	}
	if count == 0 {
		return nil, nil
	}

	vectors, err := m.provider.Embed(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	matches, err := m.index.Search(ctx, vectors[0], k)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	return matches, nil
}

// Info reflects current index cardinality. It never returns an error; a
// failing backend is reported as StatusError.
func (m *Manager) Info(ctx context.Context) Info {
	m.mu.RLock()
	defer m.mu.RUnlock()

	count, err := m.index.Count(ctx)
	if err != nil {
		m.logger.Warn("Store info unavailable", "error", err)
		return Info{Status: StatusError}
	}
	if count == 0 {
		return Info{Status: StatusUninitialized}
	}
	return Info{Status: StatusActive, Count: count}
}

// Clear deletes all indexed records and any persisted index data.
// Idempotent: clearing an already-empty store is a no-op.
func (m *Manager) Clear(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.index.Clear(ctx)
}

// Close releases the backing index connection.
func (m *Manager) Close() error {
	return m.index.Close()
}
