package vectorDB

import (
	"context"
	"errors"

	"github.com/akolanti/driveqa/internal/domain/docModel"
)

// ErrStoreUnavailable wraps transport-level failures from either backend.
// Callers must never treat a store error as "no data".
var ErrStoreUnavailable = errors.New("vector store unavailable")

// DataProcessor is the persistence boundary for chunks. One collection per
// indexed drive folder. Implementations: chromemDB (local embedded, the
// default) and qdrantDB.
type DataProcessor interface {
	//collection lifecycle - re-indexing recreates, it never migrates in place
	EnsureCollection(ctx context.Context, name string) error
	RecreateCollection(ctx context.Context, name string) error
	DeleteCollection(ctx context.Context, name string) error

	// UpsertBatch stores chunk text + embedding + metadata. Batched
	// internally; idempotent per chunk id, a re-insert overwrites.
	UpsertBatch(ctx context.Context, name string, chunks []docModel.Chunk) error

	// Search returns up to k hits ranked by distance. An empty collection
	// yields an empty result, not an error.
	Search(ctx context.Context, name string, vector []float32, k int) ([]docModel.Hit, error)

	// FetchSource is the exact-match lookup: every chunk whose source_id
	// matches, with no result-count cap. Correctness critical - the
	// auto-fetch merge is built from this.
	FetchSource(ctx context.Context, name string, sourceID string) ([]docModel.Chunk, error)

	//semantic answer cache
	GetCachedAnswer(ctx context.Context, queryVector []float32) (string, bool, error)
	SaveToCache(ctx context.Context, id string, vector []float32, answer string) error
}
