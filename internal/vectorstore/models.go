package vectorstore

import (
	"context"

	"github.com/mike-a-ellis/docqa/internal/document"
)

// Record is a chunk with its embedding vector and a store-assigned
// identifier. Records are owned by the index and destroyed on clear.
type Record struct {
	ID        string
	Chunk     document.Chunk
	Embedding []float32
}

// Match is a search hit: a stored chunk with its similarity score.
type Match struct {
	Chunk document.Chunk
	Score float32
}

// Status describes the lifecycle state of a vector store.
type Status string

const (
	StatusUninitialized Status = "uninitialized"
	StatusActive        Status = "active"
	StatusError         Status = "error"
)

// Info summarizes the current state of a store.
type Info struct {
	Status Status `json:"status"`
	Count  uint64 `json:"count"`
}

// Index is a nearest-neighbor store for embedded chunks. Implementations
// must make Clear idempotent: clearing an empty or absent index is a no-op.
type Index interface {
	// Upsert inserts records, creating the underlying collection on first use.
	Upsert(ctx context.Context, records []Record) error

	// Search returns up to limit records ranked by decreasing similarity to
	// the query vector.
	Search(ctx context.Context, vector []float32, limit int) ([]Match, error)

	// Count reports the number of stored records.
	Count(ctx context.Context) (uint64, error)

	// Clear deletes all records and any persisted index data.
	Clear(ctx context.Context) error

	// Close releases the backing connection.
	Close() error
}
