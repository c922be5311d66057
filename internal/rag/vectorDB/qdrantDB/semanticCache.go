package qdrantDB

import (
	"context"
	"fmt"
	"time"

	"github.com/akolanti/driveqa/internal/config"
	"github.com/akolanti/driveqa/internal/rag/vectorDB"
	"github.com/qdrant/go-client/qdrant"
)

func (s *Store) GetCachedAnswer(ctx context.Context, queryVector []float32) (string, bool, error) {
	loggr := s.logger.With("traceId", ctx.Value(config.TRACE_ID_KEY))

	searchResult, err := s.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: config.CacheCollectionName,
		Query:          qdrant.NewQuery(queryVector...),
		Limit:          qdrant.PtrOf(uint64(1)),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		loggr.Error("Cache Query failed", "error", err)
		return "", false, fmt.Errorf("%w: cache query: %v", vectorDB.ErrStoreUnavailable, err)
	}
	if len(searchResult) == 0 || searchResult[0].Score < config.CacheSimilarityCutoff {
		return "", false, nil
	}

	loggr.Debug("Cache hit", "similarity", searchResult[0].Score)
	answer := searchResult[0].Payload["answer"].GetStringValue()
	return answer, true, nil
}

func (s *Store) SaveToCache(ctx context.Context, id string, vector []float32, answer string) error {
	loggr := s.logger.With("traceId", ctx.Value(config.TRACE_ID_KEY))

	loggr.Debug("Saving answer to cache")
	_, err := s.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: config.CacheCollectionName,
		Points: []*qdrant.PointStruct{
			{
				Id:      qdrant.NewID(id),
				Vectors: qdrant.NewVectors(vector...),
				Payload: qdrant.NewValueMap(map[string]any{
					"answer":    answer,
					"timestamp": time.Now().Unix(),
				}),
			},
		},
	})
	if err != nil {
		loggr.Error("Saving answer to cache failed", "error", err)
		return fmt.Errorf("%w: cache save: %v", vectorDB.ErrStoreUnavailable, err)
	}
	return nil
}
