//go:build integration
// +build integration

package vectorstore

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mike-a-ellis/docqa/internal/document"
)

const testDimension = 4

// setupTestQdrant creates a Qdrant index against a throwaway collection.
// Skips the test if Qdrant is not running on localhost:6334.
func setupTestQdrant(t *testing.T) *Qdrant {
	t.Helper()

	collection := "docqa_test_" + uuid.New().String()[:8]
	q, err := NewQdrant("localhost", 6334, collection, testDimension)
	if err != nil {
		t.Skipf("Qdrant not available: %v", err)
	}

	t.Cleanup(func() {
		_ = q.Clear(context.Background())
		q.Close()
	})
	return q
}

func testRecord(content string, vector []float32) Record {
	return Record{
		ID: uuid.New().String(),
		Chunk: document.Chunk{
			Content: content,
			Metadata: document.Metadata{
				Source: "docs/guide.md",
				Type:   document.TypeMarkdown,
				Index:  0,
				Total:  1,
				Title:  "Guide",
			},
		},
		Embedding: vector,
	}
}

func TestQdrantRoundTrip(t *testing.T) {
	q := setupTestQdrant(t)
	ctx := context.Background()

	records := []Record{
		testRecord("First chunk about deployments.", []float32{1, 0, 0, 0}),
		testRecord("Second chunk about rollbacks.", []float32{0, 1, 0, 0}),
	}
	require.NoError(t, q.Upsert(ctx, records), "Failed to upsert records")

	count, err := q.Count(ctx)
	require.NoError(t, err, "Failed to count points")
	assert.EqualValues(t, 2, count)

	matches, err := q.Search(ctx, []float32{1, 0, 0, 0}, 2)
	require.NoError(t, err, "Failed to search")
	require.Len(t, matches, 2)

	top := matches[0]
	assert.Equal(t, "First chunk about deployments.", top.Chunk.Content)
	assert.Equal(t, "docs/guide.md", top.Chunk.Metadata.Source)
	assert.Equal(t, document.TypeMarkdown, top.Chunk.Metadata.Type)
	assert.Equal(t, "Guide", top.Chunk.Metadata.Title)
	assert.Greater(t, top.Score, matches[1].Score, "Exact vector should rank first")
}

func TestQdrantEmptyCollection(t *testing.T) {
	q := setupTestQdrant(t)
	ctx := context.Background()

	// Before any upsert the collection does not exist.
	count, err := q.Count(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 0, count)

	matches, err := q.Search(ctx, []float32{1, 0, 0, 0}, 4)
	require.NoError(t, err, "Search on absent collection must not error")
	assert.Empty(t, matches)
}

func TestQdrantDimensionMismatch(t *testing.T) {
	q := setupTestQdrant(t)
	ctx := context.Background()

	err := q.Upsert(ctx, []Record{testRecord("wrong size", []float32{1, 0})})
	require.ErrorIs(t, err, ErrDimensionMismatch)

	_, err = q.Search(ctx, []float32{1, 0}, 4)
	require.ErrorIs(t, err, ErrDimensionMismatch)
}

func TestQdrantClearIdempotent(t *testing.T) {
	q := setupTestQdrant(t)
	ctx := context.Background()

	require.NoError(t, q.Upsert(ctx, []Record{
		testRecord("to be cleared", []float32{1, 0, 0, 0}),
	}))

	require.NoError(t, q.Clear(ctx), "First clear failed")
	require.NoError(t, q.Clear(ctx), "Clear must be idempotent")

	count, err := q.Count(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 0, count)
}

func TestQdrantBatchedUpsert(t *testing.T) {
	q := setupTestQdrant(t)
	ctx := context.Background()

	// More records than one upsert batch holds.
	records := make([]Record, upsertBatchSize+25)
	for i := range records {
		records[i] = testRecord(
			fmt.Sprintf("chunk %d", i),
			[]float32{float32(i), 1, 0, 0},
		)
	}
	require.NoError(t, q.Upsert(ctx, records), "Failed to upsert batched records")

	count, err := q.Count(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, len(records), count)
}
