package vectorstore

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
)

// Memory is a brute-force cosine similarity Index held in process memory.
// It backs tests and the dependency-free store mode; nothing is persisted.
type Memory struct {
	mu        sync.RWMutex
	dimension int
	records   []Record
}

// NewMemory creates an empty in-memory index for vectors of the given
// dimension.
func NewMemory(dimension int) *Memory {
	return &Memory{dimension: dimension}
}

func (m *Memory) Upsert(ctx context.Context, records []Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, record := range records {
		if len(record.Embedding) != m.dimension {
			return fmt.Errorf("%w: record %d has %d dimensions, expected %d",
				ErrDimensionMismatch, i, len(record.Embedding), m.dimension)
		}
	}
	m.records = append(m.records, records...)
	return nil
}

func (m *Memory) Search(ctx context.Context, vector []float32, limit int) ([]Match, error) {
	if len(vector) != m.dimension {
		return nil, fmt.Errorf("%w: query has %d dimensions, expected %d",
			ErrDimensionMismatch, len(vector), m.dimension)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	matches := make([]Match, 0, len(m.records))
	for _, record := range m.records {
		matches = append(matches, Match{
			Chunk: record.Chunk,
			Score: cosine(record.Embedding, vector),
		})
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})
	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, nil
}

func (m *Memory) Count(ctx context.Context) (uint64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return uint64(len(m.records)), nil
}

func (m *Memory) Clear(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = nil
	return nil
}

func (m *Memory) Close() error { return nil }

// cosine computes cosine similarity without assuming normalized vectors.
func cosine(a, b []float32) float32 {
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(normA) * math.Sqrt(normB)))
}
