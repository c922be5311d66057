package qdrantDB

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/akolanti/driveqa/internal/config"
	"github.com/akolanti/driveqa/internal/domain/docModel"
	"github.com/akolanti/driveqa/internal/rag/vectorDB"
	"github.com/akolanti/driveqa/pkg/logger_i"
	"github.com/qdrant/go-client/qdrant"
)

var dimension = uint64(config.EmbeddingOutputDimensionality)

// Store talks to a Qdrant instance over gRPC. It is the backend to pick when
// the corpus outgrows the embedded store or multiple replicas need to share
// one index.
type Store struct {
	client *qdrant.Client
	logger *logger_i.Logger
}

// NewStore dials Qdrant and prepares the semantic cache collection. The
// returned store owns the connection until Close is called.
func NewStore(ctx context.Context) (*Store, error) {
	logger := logger_i.NewLogger("Qdrant")

	host := os.Getenv("QDRANT_HOST")
	port, er := strconv.Atoi(os.Getenv("QDRANT_PORT"))
	if host == "" || er != nil {
		host = config.QdrantHost
		port = config.QdrantGrpcPort
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:     host,
		Port:     port,
		UseTLS:   config.QdrantUseTLS,
		PoolSize: uint(config.QdrantPoolSize),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: dialing qdrant at %s:%d: %v", vectorDB.ErrStoreUnavailable, host, port, err)
	}

	s := &Store{client: client, logger: logger}
	if err := s.EnsureCollection(ctx, config.CacheCollectionName); err != nil {
		s.logger.Error("Semantic cache collection creation failed", "error", err)
	}
	return s, nil
}

func (s *Store) Close() error {
	s.logger.Info("Shutting down Qdrant")
	return s.client.Close()
}

func (s *Store) EnsureCollection(ctx context.Context, name string) error {
	if name == "" {
		return errors.New("empty collection name")
	}

	exists, err := s.client.CollectionExists(ctx, name)
	if err != nil {
		return fmt.Errorf("%w: checking collection %s: %v", vectorDB.ErrStoreUnavailable, name, err)
	}
	if exists {
		return nil
	}

	err = s.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: name,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     dimension,
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return fmt.Errorf("%w: creating collection %s: %v", vectorDB.ErrStoreUnavailable, name, err)
	}
	return nil
}

func (s *Store) RecreateCollection(ctx context.Context, name string) error {
	if err := s.DeleteCollection(ctx, name); err != nil {
		return err
	}
	s.logger.Debug("Recreating collection", "name", name)
	return s.EnsureCollection(ctx, name)
}

func (s *Store) DeleteCollection(ctx context.Context, name string) error {
	exists, err := s.client.CollectionExists(ctx, name)
	if err != nil {
		return fmt.Errorf("%w: checking collection %s: %v", vectorDB.ErrStoreUnavailable, name, err)
	}
	if !exists {
		return nil
	}
	if err := s.client.DeleteCollection(ctx, name); err != nil {
		return fmt.Errorf("%w: deleting collection %s: %v", vectorDB.ErrStoreUnavailable, name, err)
	}
	return nil
}

func (s *Store) UpsertBatch(ctx context.Context, name string, chunks []docModel.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	for start := 0; start < len(chunks); start += config.UpsertBatchSize {
		end := min(start+config.UpsertBatchSize, len(chunks))

		points := make([]*qdrant.PointStruct, 0, end-start)
		for _, chunk := range chunks[start:end] {
			points = append(points, &qdrant.PointStruct{
				Id:      qdrant.NewID(chunk.Id),
				Vectors: qdrant.NewVectors(chunk.Embedding...),
				Payload: qdrant.NewValueMap(map[string]any{
					"content":                chunk.Text,
					docModel.MetaSourceID:    chunk.SourceId,
					docModel.MetaChunkIndex:  chunk.ChunkIndex,
					docModel.MetaTotalChunks: chunk.TotalChunks,
					docModel.MetaIsTabular:   chunk.Tabular,
					docModel.MetaDocName:     chunk.DocName,
					docModel.MetaMimeType:    chunk.MimeType,
					docModel.MetaIngestedAt:  chunk.IngestedAt,
				}),
			})
		}

		_, err := s.client.Upsert(ctx, &qdrant.UpsertPoints{
			CollectionName: name,
			Points:         points,
			Wait:           qdrant.PtrOf(true),
		})
		if err != nil {
			return fmt.Errorf("%w: upserting %d points to %s: %v", vectorDB.ErrStoreUnavailable, len(points), name, err)
		}
	}
	s.logger.Debug("Upserted chunks", "collection", name, "count", len(chunks))
	return nil
}

func (s *Store) Search(ctx context.Context, name string, vector []float32, k int) ([]docModel.Hit, error) {
	loggr := s.logger.With("traceId", ctx.Value(config.TRACE_ID_KEY))

	result, err := s.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: name,
		Query:          qdrant.NewQuery(vector...),
		Limit:          qdrant.PtrOf(uint64(k)),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		loggr.Error("Error querying Qdrant: ", "error:", err)
		return nil, fmt.Errorf("%w: querying %s: %v", vectorDB.ErrStoreUnavailable, name, err)
	}

	hits := make([]docModel.Hit, 0, len(result))
	for _, point := range result {
		hits = append(hits, docModel.Hit{
			Chunk: chunkOf(point.Id, point.Payload),
			Score: point.Score,
		})
	}
	loggr.Debug("Found matches", "collection", name, "count", len(hits))
	return hits, nil
}

// FetchSource scrolls every point whose source_id payload matches. Qdrant
// pages by point id: offsetting with the last id seen is inclusive, so the
// seen set both dedupes the overlap and detects the final page.
func (s *Store) FetchSource(ctx context.Context, name string, sourceID string) ([]docModel.Chunk, error) {
	var chunks []docModel.Chunk
	seen := make(map[string]bool)
	var offset *qdrant.PointId

	for {
		points, err := s.client.Scroll(ctx, &qdrant.ScrollPoints{
			CollectionName: name,
			Filter: &qdrant.Filter{
				Must: []*qdrant.Condition{
					qdrant.NewMatch(docModel.MetaSourceID, sourceID),
				},
			},
			Limit:       qdrant.PtrOf(uint32(config.ScrollBatchSize)),
			WithPayload: qdrant.NewWithPayload(true),
			Offset:      offset,
		})
		if err != nil {
			return nil, fmt.Errorf("%w: scrolling %s for source %s: %v", vectorDB.ErrStoreUnavailable, name, sourceID, err)
		}

		newPoints := 0
		for _, point := range points {
			id := point.Id.GetUuid()
			if seen[id] {
				continue
			}
			seen[id] = true
			newPoints++
			chunks = append(chunks, chunkOf(point.Id, point.Payload))
			offset = point.Id
		}
		if newPoints == 0 || len(points) < config.ScrollBatchSize {
			break
		}
	}
	return chunks, nil
}

func chunkOf(id *qdrant.PointId, payload map[string]*qdrant.Value) docModel.Chunk {
	return docModel.Chunk{
		Id:          id.GetUuid(),
		Text:        payload["content"].GetStringValue(),
		SourceId:    payload[docModel.MetaSourceID].GetStringValue(),
		ChunkIndex:  int(payload[docModel.MetaChunkIndex].GetIntegerValue()),
		TotalChunks: int(payload[docModel.MetaTotalChunks].GetIntegerValue()),
		Tabular:     payload[docModel.MetaIsTabular].GetBoolValue(),
		DocName:     payload[docModel.MetaDocName].GetStringValue(),
		MimeType:    payload[docModel.MetaMimeType].GetStringValue(),
		IngestedAt:  payload[docModel.MetaIngestedAt].GetIntegerValue(),
	}
}
