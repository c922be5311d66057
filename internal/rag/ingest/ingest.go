package ingest

import (
	"context"
	"fmt"

	"github.com/akolanti/driveqa/internal/config"
	"github.com/akolanti/driveqa/internal/domain/docModel"
	"github.com/akolanti/driveqa/internal/rag/chunker"
	"github.com/akolanti/driveqa/internal/rag/embedding"
	"github.com/akolanti/driveqa/internal/rag/tagger"
	"github.com/akolanti/driveqa/internal/rag/vectorDB"
	"github.com/akolanti/driveqa/pkg/logger_i"
)

var logger = logger_i.NewLogger("Ingestion")

// PrepareChunks turns one document's content into fully tagged chunks.
// Tabular sources go through whole-row splitting so every chunk stays
// reconstructible; everything else gets the overlapping text splitter.
func PrepareChunks(content string, src docModel.Source) ([]docModel.Chunk, error) {
	var texts []string

	if src.Tabular {
		table, err := chunker.ParseCSV(content)
		if err != nil {
			return nil, fmt.Errorf("parsing %s: %w", src.Name, err)
		}
		texts = chunker.SplitTable(table, src.Name, config.TabularChunkLimit)
	} else {
		texts = chunker.SplitText(content, config.ChunkSizeLimit, config.ChunkOverlap)
	}

	return tagger.Tag(texts, src)
}

// BatchIngest embeds chunks batch by batch and upserts them into the
// collection. Chunk ids are deterministic, so re-running an ingest overwrites
// rather than duplicates.
func BatchIngest(ctx context.Context, collection string, chunks []docModel.Chunk, store vectorDB.DataProcessor, embedder embedding.Embedder) error {
	log := logger.With("traceId", ctx.Value(config.TRACE_ID_KEY))

	isHugeDataSet := len(chunks) > config.HugeDataSetFloor
	if isHugeDataSet {
		log.Debug("Is a huge dataset")
	}

	for i := 0; i < len(chunks); i += config.UpsertBatchSize {
		end := min(i+config.UpsertBatchSize, len(chunks))
		currentBatch := chunks[i:end]

		texts := make([]string, 0, len(currentBatch))
		for _, c := range currentBatch {
			texts = append(texts, c.Text)
		}

		log.Debug("Starting embedding call", "batch length", len(currentBatch))
		vectors, err := embedder.BatchEmbedding(ctx, texts, isHugeDataSet)
		if err != nil {
			return fmt.Errorf("embedding batch failed: %w", err)
		}
		if len(vectors) != len(currentBatch) {
			return fmt.Errorf("embedder returned %d vectors for %d chunks", len(vectors), len(currentBatch))
		}

		for j := range currentBatch {
			currentBatch[j].Embedding = vectors[j]
		}

		if err := store.UpsertBatch(ctx, collection, currentBatch); err != nil {
			return fmt.Errorf("upserting batch failed: %w", err)
		}
	}
	return nil
}
