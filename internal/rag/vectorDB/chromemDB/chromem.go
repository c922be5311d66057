package chromemDB

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/akolanti/driveqa/internal/config"
	"github.com/akolanti/driveqa/internal/domain/docModel"
	"github.com/akolanti/driveqa/internal/rag/vectorDB"
	"github.com/akolanti/driveqa/pkg/logger_i"
	chromem "github.com/philippgille/chromem-go"
)

// Store is the local embedded vector store. chromem-go persists each
// collection to gob files under the configured path, so no external database
// service is needed - this is the default backend.
type Store struct {
	db     *chromem.DB
	logger *logger_i.Logger
}

func NewStore(path string, compress bool) (*Store, error) {
	db, err := chromem.NewPersistentDB(path, compress)
	if err != nil {
		return nil, fmt.Errorf("%w: opening chromem at %s: %v", vectorDB.ErrStoreUnavailable, path, err)
	}
	s := &Store{
		db:     db,
		logger: logger_i.NewLogger("ChromemDB"),
	}
	if err := s.EnsureCollection(context.Background(), config.CacheCollectionName); err != nil {
		s.logger.Error("Semantic cache collection creation failed", "error", err)
	}
	return s, nil
}

// embeddings are computed upstream and attached to chunks before upsert, so
// the embedding func chromem wants for text queries must never be reached.
func noEmbeddingFunc(_ context.Context, _ string) ([]float32, error) {
	return nil, errors.New("embeddings are precomputed, text-query embedding is not wired")
}

func (s *Store) EnsureCollection(ctx context.Context, name string) error {
	if name == "" {
		return errors.New("empty collection name")
	}
	_, err := s.db.GetOrCreateCollection(name, nil, noEmbeddingFunc)
	if err != nil {
		return fmt.Errorf("%w: get/create collection %s: %v", vectorDB.ErrStoreUnavailable, name, err)
	}
	return nil
}

func (s *Store) RecreateCollection(ctx context.Context, name string) error {
	if name == "" {
		return errors.New("empty collection name")
	}
	if err := s.db.DeleteCollection(name); err != nil {
		return fmt.Errorf("%w: delete collection %s: %v", vectorDB.ErrStoreUnavailable, name, err)
	}
	s.logger.Debug("Recreating collection", "name", name)
	return s.EnsureCollection(ctx, name)
}

func (s *Store) DeleteCollection(ctx context.Context, name string) error {
	if err := s.db.DeleteCollection(name); err != nil {
		return fmt.Errorf("%w: delete collection %s: %v", vectorDB.ErrStoreUnavailable, name, err)
	}
	return nil
}

func (s *Store) UpsertBatch(ctx context.Context, name string, chunks []docModel.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}
	collection, err := s.db.GetOrCreateCollection(name, nil, noEmbeddingFunc)
	if err != nil {
		return fmt.Errorf("%w: get/create collection %s: %v", vectorDB.ErrStoreUnavailable, name, err)
	}

	for start := 0; start < len(chunks); start += config.UpsertBatchSize {
		end := min(start+config.UpsertBatchSize, len(chunks))

		batch := make([]chromem.Document, 0, end-start)
		for _, chunk := range chunks[start:end] {
			batch = append(batch, chromem.Document{
				ID:        chunk.Id,
				Content:   chunk.Text,
				Embedding: chunk.Embedding,
				Metadata:  metadataOf(chunk),
			})
		}
		if err := collection.AddDocuments(ctx, batch, 1); err != nil {
			return fmt.Errorf("%w: adding %d documents to %s: %v", vectorDB.ErrStoreUnavailable, len(batch), name, err)
		}
	}
	s.logger.Debug("Upserted chunks", "collection", name, "count", len(chunks))
	return nil
}

func (s *Store) Search(ctx context.Context, name string, vector []float32, k int) ([]docModel.Hit, error) {
	collection := s.db.GetCollection(name, noEmbeddingFunc)
	if collection == nil {
		// a collection that was never written to holds no data
		return []docModel.Hit{}, nil
	}

	count := collection.Count()
	if count == 0 {
		return []docModel.Hit{}, nil
	}
	if k > count {
		k = count //chromem requires nResults <= doc count
	}

	results, err := collection.QueryEmbedding(ctx, vector, k, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: querying %s: %v", vectorDB.ErrStoreUnavailable, name, err)
	}

	hits := make([]docModel.Hit, 0, len(results))
	for _, r := range results {
		hits = append(hits, docModel.Hit{
			Chunk: chunkOf(r.ID, r.Content, r.Metadata),
			Score: r.Similarity,
		})
	}
	return hits, nil
}

// FetchSource walks the deterministic chunk id space instead of scanning:
// chunk 0's metadata names the total, then every sibling id is derivable.
// Missing ids are skipped, the retriever flags the count mismatch.
func (s *Store) FetchSource(ctx context.Context, name string, sourceID string) ([]docModel.Chunk, error) {
	collection := s.db.GetCollection(name, noEmbeddingFunc)
	if collection == nil {
		return nil, nil
	}

	first, err := collection.GetByID(ctx, docModel.ChunkID(sourceID, 0))
	if err != nil {
		// no chunk 0 means the source isn't here (or its ingest never
		// completed - all-or-nothing tagging makes that an integrity bug
		// the retriever will surface)
		return nil, nil
	}

	total, convErr := strconv.Atoi(first.Metadata[docModel.MetaTotalChunks])
	if convErr != nil || total < 1 {
		return nil, fmt.Errorf("source %s chunk 0 has unusable total_chunks %q", sourceID, first.Metadata[docModel.MetaTotalChunks])
	}

	chunks := make([]docModel.Chunk, 0, total)
	chunks = append(chunks, chunkOf(first.ID, first.Content, first.Metadata))
	for i := 1; i < total; i++ {
		doc, err := collection.GetByID(ctx, docModel.ChunkID(sourceID, i))
		if err != nil {
			continue
		}
		chunks = append(chunks, chunkOf(doc.ID, doc.Content, doc.Metadata))
	}
	return chunks, nil
}

func (s *Store) GetCachedAnswer(ctx context.Context, queryVector []float32) (string, bool, error) {
	collection := s.db.GetCollection(config.CacheCollectionName, noEmbeddingFunc)
	if collection == nil || collection.Count() == 0 {
		return "", false, nil
	}

	results, err := collection.QueryEmbedding(ctx, queryVector, 1, nil, nil)
	if err != nil {
		return "", false, fmt.Errorf("%w: cache query: %v", vectorDB.ErrStoreUnavailable, err)
	}
	if len(results) == 0 || results[0].Similarity < config.CacheSimilarityCutoff {
		return "", false, nil
	}

	s.logger.Debug("Cache hit", "similarity", results[0].Similarity)
	return results[0].Content, true, nil
}

func (s *Store) SaveToCache(ctx context.Context, id string, vector []float32, answer string) error {
	collection, err := s.db.GetOrCreateCollection(config.CacheCollectionName, nil, noEmbeddingFunc)
	if err != nil {
		return fmt.Errorf("%w: cache collection: %v", vectorDB.ErrStoreUnavailable, err)
	}
	err = collection.AddDocuments(ctx, []chromem.Document{{
		ID:        id,
		Content:   answer,
		Embedding: vector,
	}}, 1)
	if err != nil {
		return fmt.Errorf("%w: cache save: %v", vectorDB.ErrStoreUnavailable, err)
	}
	return nil
}

// chromem metadata is string-valued, so the typed chunk fields round-trip
// through strconv. Key names must match the qdrant payload exactly.
func metadataOf(chunk docModel.Chunk) map[string]string {
	return map[string]string{
		docModel.MetaSourceID:    chunk.SourceId,
		docModel.MetaChunkIndex:  strconv.Itoa(chunk.ChunkIndex),
		docModel.MetaTotalChunks: strconv.Itoa(chunk.TotalChunks),
		docModel.MetaIsTabular:   strconv.FormatBool(chunk.Tabular),
		docModel.MetaDocName:     chunk.DocName,
		docModel.MetaMimeType:    chunk.MimeType,
		docModel.MetaIngestedAt:  strconv.FormatInt(chunk.IngestedAt, 10),
	}
}

func chunkOf(id string, content string, meta map[string]string) docModel.Chunk {
	chunkIndex, _ := strconv.Atoi(meta[docModel.MetaChunkIndex])
	totalChunks, _ := strconv.Atoi(meta[docModel.MetaTotalChunks])
	tabular, _ := strconv.ParseBool(meta[docModel.MetaIsTabular])
	ingestedAt, _ := strconv.ParseInt(meta[docModel.MetaIngestedAt], 10, 64)
	return docModel.Chunk{
		Id:          id,
		Text:        content,
		SourceId:    meta[docModel.MetaSourceID],
		ChunkIndex:  chunkIndex,
		TotalChunks: totalChunks,
		Tabular:     tabular,
		DocName:     meta[docModel.MetaDocName],
		MimeType:    meta[docModel.MetaMimeType],
		IngestedAt:  ingestedAt,
	}
}
