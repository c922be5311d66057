package tagger

import (
	"errors"
	"fmt"
	"time"

	"github.com/akolanti/driveqa/internal/domain/docModel"
)

var (
	ErrEmptyChunk = errors.New("chunk text is empty")
	ErrNoSourceId = errors.New("source id is required")
)

// Tag attaches the identifying metadata to one document's chunk texts, in
// order. chunk_index and total_chunks are only assigned here, after the full
// sequence is known, so no chunk carries a provisional total.
//
// Tagging is all-or-nothing per document: any failure returns an error and
// no chunks, so a caller can never commit a partial chunk set under a shared
// source id.
func Tag(texts []string, src docModel.Source) ([]docModel.Chunk, error) {
	if src.Id == "" {
		return nil, ErrNoSourceId
	}
	if len(texts) == 0 {
		return nil, nil
	}

	ingestedAt := src.IngestedAt
	if ingestedAt.IsZero() {
		ingestedAt = time.Now()
	}

	total := len(texts)
	chunks := make([]docModel.Chunk, 0, total)
	for i, text := range texts {
		if text == "" {
			return nil, fmt.Errorf("chunk %d of %s: %w", i, src.Id, ErrEmptyChunk)
		}
		chunks = append(chunks, docModel.Chunk{
			Id:          docModel.ChunkID(src.Id, i),
			Text:        text,
			SourceId:    src.Id,
			ChunkIndex:  i,
			TotalChunks: total,
			Tabular:     src.Tabular,
			DocName:     src.Name,
			MimeType:    src.MimeType,
			IngestedAt:  ingestedAt.Unix(),
		})
	}
	return chunks, nil
}
