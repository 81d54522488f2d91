package vectorstore

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/qdrant/go-client/qdrant"

	"github.com/mike-a-ellis/docqa/internal/document"
)

// upsertBatchSize bounds how many points go into one upsert request.
const upsertBatchSize = 100

// Qdrant is an Index backed by a Qdrant collection over gRPC. The collection
// is created lazily on first upsert with the dimension fixed at construction;
// points embedded with a different dimension are rejected, which prevents
// mixing embeddings from two providers in one collection.
type Qdrant struct {
	client     *qdrant.Client
	collection string
	dimension  uint64
}

// NewQdrant creates a Qdrant index with health validation. It performs a
// health check with retry on startup and fails fast if the server is
// unreachable.
func NewQdrant(host string, port int, collection string, dimension int) (*Qdrant, error) {
	client, err := qdrant.NewClient(&qdrant.Config{
		Host: host,
		Port: port,
	})
	if err != nil {
		return nil, fmt.Errorf("create qdrant client: %w", err)
	}

	q := &Qdrant{
		client:     client,
		collection: collection,
		dimension:  uint64(dimension),
	}

	if err := q.healthCheckWithRetry(context.Background()); err != nil {
		client.Close()
		return nil, fmt.Errorf("%w: %v", ErrStoreUnreachable, err)
	}
	return q, nil
}

// healthCheckWithRetry performs a health check with exponential backoff.
// Initial interval 500ms, max interval 10s, max elapsed 30s.
func (q *Qdrant) healthCheckWithRetry(ctx context.Context) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.MaxInterval = 10 * time.Second
	b.MaxElapsedTime = 30 * time.Second

	return backoff.Retry(func() error {
		result, err := q.client.HealthCheck(ctx)
		if err != nil {
			return fmt.Errorf("health check failed: %w", err)
		}
		if result == nil || result.Title == "" {
			return fmt.Errorf("health check returned invalid response")
		}
		return nil
	}, backoff.WithContext(b, ctx))
}

// exists reports whether the collection has been created.
func (q *Qdrant) exists(ctx context.Context) (bool, error) {
	collections, err := q.client.ListCollections(ctx)
	if err != nil {
		return false, fmt.Errorf("list collections: %w", err)
	}
	for _, name := range collections {
		if name == q.collection {
			return true, nil
		}
	}
	return false, nil
}

// ensureCollection creates the collection with cosine distance if it does not
// exist yet. Idempotent.
func (q *Qdrant) ensureCollection(ctx context.Context) error {
	ok, err := q.exists(ctx)
	if err != nil {
		return err
	}
	if ok {
		return nil
	}

	err = q.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: q.collection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     q.dimension,
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return fmt.Errorf("create collection: %w", err)
	}
	return nil
}

// Upsert stores records in batches with retry. The first batch creates the
// collection.
func (q *Qdrant) Upsert(ctx context.Context, records []Record) error {
	if len(records) == 0 {
		return nil
	}

	for i, record := range records {
		if uint64(len(record.Embedding)) != q.dimension {
			return fmt.Errorf("%w: record %d has %d dimensions, expected %d",
				ErrDimensionMismatch, i, len(record.Embedding), q.dimension)
		}
	}

	if err := q.ensureCollection(ctx); err != nil {
		return err
	}

	for i := 0; i < len(records); i += upsertBatchSize {
		end := min(i+upsertBatchSize, len(records))
		batch := records[i:end]

		points := make([]*qdrant.PointStruct, len(batch))
		for j, record := range batch {
			points[j] = &qdrant.PointStruct{
				Id:      qdrant.NewIDUUID(record.ID),
				Vectors: qdrant.NewVectors(record.Embedding...),
				Payload: qdrant.NewValueMap(map[string]any{
					"content":     record.Chunk.Content,
					"source":      record.Chunk.Metadata.Source,
					"type":        string(record.Chunk.Metadata.Type),
					"chunk_index": int64(record.Chunk.Metadata.Index),
					"chunk_total": int64(record.Chunk.Metadata.Total),
					"pages":       int64(record.Chunk.Metadata.Pages),
					"title":       record.Chunk.Metadata.Title,
				}),
			}
		}

		if err := q.upsertWithRetry(ctx, points); err != nil {
			return fmt.Errorf("upsert batch %d-%d: %w", i, end, err)
		}
	}
	return nil
}

// upsertWithRetry performs an upsert with exponential backoff.
func (q *Qdrant) upsertWithRetry(ctx context.Context, points []*qdrant.PointStruct) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.MaxInterval = 10 * time.Second
	b.MaxElapsedTime = 30 * time.Second

	return backoff.Retry(func() error {
		_, err := q.client.Upsert(ctx, &qdrant.UpsertPoints{
			CollectionName: q.collection,
			Points:         points,
		})
		return err
	}, backoff.WithContext(b, ctx))
}

// Search performs vector similarity search. A store whose collection has not
// been created yet returns no matches, not an error.
func (q *Qdrant) Search(ctx context.Context, vector []float32, limit int) ([]Match, error) {
	if uint64(len(vector)) != q.dimension {
		return nil, fmt.Errorf("%w: query has %d dimensions, expected %d",
			ErrDimensionMismatch, len(vector), q.dimension)
	}

	ok, err := q.exists(ctx)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}

	results, err := q.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: q.collection,
		Query:          qdrant.NewQuery(vector...),
		Limit:          qdrant.PtrOf(uint64(limit)),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}

	matches := make([]Match, 0, len(results))
	for _, result := range results {
		payload := result.Payload
		matches = append(matches, Match{
			Score: result.Score,
			Chunk: document.Chunk{
				Content: payload["content"].GetStringValue(),
				Metadata: document.Metadata{
					Source: payload["source"].GetStringValue(),
					Type:   document.FileType(payload["type"].GetStringValue()),
					Index:  int(payload["chunk_index"].GetIntegerValue()),
					Total:  int(payload["chunk_total"].GetIntegerValue()),
					Pages:  int(payload["pages"].GetIntegerValue()),
					Title:  payload["title"].GetStringValue(),
				},
			},
		})
	}
	return matches, nil
}

// Count reports the number of stored points. An absent collection counts as
// zero.
func (q *Qdrant) Count(ctx context.Context) (uint64, error) {
	ok, err := q.exists(ctx)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, nil
	}

	collection, err := q.client.GetCollectionInfo(ctx, q.collection)
	if err != nil {
		return 0, fmt.Errorf("get collection: %w", err)
	}
	return collection.GetPointsCount(), nil
}

// Clear deletes the collection and its persisted data. Clearing an absent
// collection is a no-op.
func (q *Qdrant) Clear(ctx context.Context) error {
	ok, err := q.exists(ctx)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}
	if err := q.client.DeleteCollection(ctx, q.collection); err != nil {
		return fmt.Errorf("delete collection: %w", err)
	}
	return nil
}

// Close closes the client connection.
func (q *Qdrant) Close() error {
	if q.client != nil {
		return q.client.Close()
	}
	return nil
}
