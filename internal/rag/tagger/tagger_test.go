package tagger

import (
	"errors"
	"testing"

	"github.com/akolanti/driveqa/internal/domain/docModel"
)

func TestTag_SequentialIndexing(t *testing.T) {
	texts := []string{"chunk a", "chunk b", "chunk c", "chunk d"}
	src := docModel.Source{Id: "file-1", Name: "report.pdf", MimeType: "application/pdf"}

	chunks, err := Tag(texts, src)
	if err != nil {
		t.Fatalf("Tag failed: %v", err)
	}
	if len(chunks) != 4 {
		t.Fatalf("Expected 4 chunks, got %d", len(chunks))
	}

	seen := make(map[int]bool)
	for i, c := range chunks {
		if c.ChunkIndex != i {
			t.Errorf("chunk %d has index %d", i, c.ChunkIndex)
		}
		if c.TotalChunks != 4 {
			t.Errorf("chunk %d has total_chunks %d, want 4", i, c.TotalChunks)
		}
		if c.SourceId != "file-1" {
			t.Errorf("chunk %d has source_id %q", i, c.SourceId)
		}
		if seen[c.ChunkIndex] {
			t.Errorf("duplicate chunk_index %d", c.ChunkIndex)
		}
		seen[c.ChunkIndex] = true
	}
	// the index set must be exactly {0..total-1}
	for i := 0; i < 4; i++ {
		if !seen[i] {
			t.Errorf("missing chunk_index %d", i)
		}
	}
}

func TestTag_StableIds(t *testing.T) {
	src := docModel.Source{Id: "file-1", Name: "report.pdf"}
	first, err := Tag([]string{"a", "b"}, src)
	if err != nil {
		t.Fatal(err)
	}
	second, err := Tag([]string{"a changed", "b changed"}, src)
	if err != nil {
		t.Fatal(err)
	}
	for i := range first {
		if first[i].Id != second[i].Id {
			t.Errorf("chunk id for (source, index) is not stable: %s vs %s", first[i].Id, second[i].Id)
		}
	}
	if first[0].Id == first[1].Id {
		t.Error("different chunk indexes produced the same id")
	}
}

func TestTag_AllOrNothing(t *testing.T) {
	src := docModel.Source{Id: "file-1", Name: "report.pdf"}
	chunks, err := Tag([]string{"ok", "", "ok"}, src)
	if !errors.Is(err, ErrEmptyChunk) {
		t.Fatalf("Expected ErrEmptyChunk, got %v", err)
	}
	if chunks != nil {
		t.Errorf("A failed tag must commit nothing, got %d chunks", len(chunks))
	}
}

func TestTag_EmptyDocument(t *testing.T) {
	chunks, err := Tag(nil, docModel.Source{Id: "file-1"})
	if err != nil {
		t.Fatalf("Empty document should not error: %v", err)
	}
	if chunks != nil {
		t.Errorf("Empty document should produce zero chunks, got %d", len(chunks))
	}
}

func TestTag_MissingSourceId(t *testing.T) {
	if _, err := Tag([]string{"a"}, docModel.Source{}); !errors.Is(err, ErrNoSourceId) {
		t.Errorf("Expected ErrNoSourceId, got %v", err)
	}
}

func TestTag_TabularFlagPassthrough(t *testing.T) {
	src := docModel.Source{Id: "sheet-9", Name: "spend.csv", MimeType: "text/csv", Tabular: true}
	chunks, err := Tag([]string{"rows"}, src)
	if err != nil {
		t.Fatal(err)
	}
	if !chunks[0].Tabular {
		t.Error("is_tabular flag was dropped")
	}
	if chunks[0].MimeType != "text/csv" || chunks[0].DocName != "spend.csv" {
		t.Errorf("pass-through fields lost: %+v", chunks[0])
	}
}
