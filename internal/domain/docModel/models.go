package docModel

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Metadata keys stored alongside every chunk. The exact names and types are
// load bearing: the auto-fetch exact-match filter depends on them, so they
// must stay stable across both store backends.
const (
	MetaSourceID    = "source_id"    //string
	MetaChunkIndex  = "chunk_index"  //integer
	MetaTotalChunks = "total_chunks" //integer
	MetaIsTabular   = "is_tabular"   //boolean
	MetaDocName     = "doc_name"
	MetaMimeType    = "mime_type"
	MetaIngestedAt  = "ingested_at"
)

// Source identifies one originating document. Id is stable across every
// chunk the document produces (for drive files it is the drive file id).
type Source struct {
	Id         string    `json:"source_id"`
	Name       string    `json:"doc_name"`
	MimeType   string    `json:"mime_type"`
	Tabular    bool      `json:"is_tabular"`
	IngestedAt time.Time `json:"ingested_at"`
}

// Chunk is the smallest stored, embeddable, retrievable unit of text.
type Chunk struct {
	Id          string    `json:"chunk_id"`
	Text        string    `json:"content"`
	SourceId    string    `json:"source_id"`
	ChunkIndex  int       `json:"chunk_index"`
	TotalChunks int       `json:"total_chunks"`
	Tabular     bool      `json:"is_tabular"`
	DocName     string    `json:"doc_name"`
	MimeType    string    `json:"mime_type"`
	IngestedAt  int64     `json:"ingested_at"`
	Embedding   []float32 `json:"-"`
}

// Hit is one similarity-search result.
type Hit struct {
	Chunk Chunk
	Score float32
}

// RetrievalResult is what the retriever hands to answer synthesis: either a
// single chunk's text or the full merged reconstruction of a tabular source.
// Ephemeral, recomputed every query.
type RetrievalResult struct {
	Text       string
	SourceId   string
	DocName    string
	Merged     bool
	ChunkCount int
	Incomplete bool //merged but fewer chunks than total_chunks recorded
}

// Table is a fully materialized tabular document: header row + data rows.
type Table struct {
	Header []string
	Rows   [][]string
}

// ChunkID derives the stable id for a chunk from its source identity and
// position. UUIDv5 so the same (source, index) always maps to the same id in
// both qdrant (which requires UUID point ids) and chromem - re-inserting a
// chunk overwrites instead of duplicating.
func ChunkID(sourceID string, chunkIndex int) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, fmt.Appendf(nil, "%s:%d", sourceID, chunkIndex)).String()
}
