package retriever

import (
	"context"
	"sort"
	"strings"

	"github.com/akolanti/driveqa/internal/config"
	"github.com/akolanti/driveqa/internal/domain/docModel"
	"github.com/akolanti/driveqa/internal/metrics"
	"github.com/akolanti/driveqa/internal/rag/vectorDB"
	"github.com/akolanti/driveqa/pkg/logger_i"
)

// Retriever turns raw similarity hits into the context handed to answer
// synthesis. Plain-text hits pass through one chunk at a time. A hit on a
// tabular chunk triggers auto-fetch: the full document is pulled back chunk
// by chunk and merged, because a table sliced for embedding is useless for
// aggregate questions until it is whole again.
type Retriever struct {
	store  vectorDB.DataProcessor
	logger *logger_i.Logger
}

func New(store vectorDB.DataProcessor) *Retriever {
	return &Retriever{
		store:  store,
		logger: logger_i.NewLogger("Retriever"),
	}
}

// Retrieve searches the collection and expands tabular hits in rank order.
// Reconstruction problems degrade the affected result, never the query: a
// failed or empty fetch falls back to the single hit chunk, and a merge that
// recovers fewer chunks than the source recorded is returned flagged
// Incomplete.
func (r *Retriever) Retrieve(ctx context.Context, collection string, queryVector []float32, k int) ([]docModel.RetrievalResult, error) {
	loggr := r.logger.With("traceId", ctx.Value(config.TRACE_ID_KEY))

	hits, err := r.store.Search(ctx, collection, queryVector, k)
	if err != nil {
		return nil, err
	}

	results := make([]docModel.RetrievalResult, 0, len(hits))
	mergedSources := make(map[string]bool)

	for _, hit := range hits {
		if !hit.Chunk.Tabular {
			results = append(results, singleChunkResult(hit.Chunk))
			continue
		}

		// several hits can land in the same table; one merge covers them all
		if mergedSources[hit.Chunk.SourceId] {
			continue
		}
		mergedSources[hit.Chunk.SourceId] = true

		results = append(results, r.reconstruct(ctx, loggr, collection, hit.Chunk))
	}
	return results, nil
}

func (r *Retriever) reconstruct(ctx context.Context, loggr *logger_i.Logger, collection string, hit docModel.Chunk) docModel.RetrievalResult {
	chunks, err := r.store.FetchSource(ctx, collection, hit.SourceId)
	if err != nil {
		loggr.Warn("Auto-fetch failed, answering from the single hit chunk",
			"sourceId", hit.SourceId, "error", err)
		return singleChunkResult(hit)
	}
	if len(chunks) == 0 {
		loggr.Warn("Auto-fetch found no chunks for hit source, answering from the single hit chunk",
			"sourceId", hit.SourceId)
		return singleChunkResult(hit)
	}

	sort.Slice(chunks, func(i, j int) bool {
		return chunks[i].ChunkIndex < chunks[j].ChunkIndex
	})

	incomplete := len(chunks) != chunks[0].TotalChunks
	if incomplete {
		loggr.Warn("Reconstruction incomplete",
			"sourceId", hit.SourceId,
			"recovered", len(chunks),
			"recorded", chunks[0].TotalChunks)
		metrics.CountIncompleteReconstruction()
	}

	texts := make([]string, 0, len(chunks))
	for _, chunk := range chunks {
		texts = append(texts, chunk.Text)
	}

	metrics.CountAutoFetchMerge()
	loggr.Debug("Merged tabular source", "sourceId", hit.SourceId, "chunks", len(chunks))
	return docModel.RetrievalResult{
		Text:       strings.Join(texts, "\n\n"),
		SourceId:   hit.SourceId,
		DocName:    hit.DocName,
		Merged:     true,
		ChunkCount: len(chunks),
		Incomplete: incomplete,
	}
}

func singleChunkResult(chunk docModel.Chunk) docModel.RetrievalResult {
	return docModel.RetrievalResult{
		Text:       chunk.Text,
		SourceId:   chunk.SourceId,
		DocName:    chunk.DocName,
		Merged:     false,
		ChunkCount: 1,
	}
}
