package ingest

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/akolanti/driveqa/internal/domain/docModel"
)

// --- Mocks for BatchIngest ---

type mockEmbedder struct {
	batchFunc func(ctx context.Context, chunks []string, isHuge bool) ([][]float32, error)
}

func (m *mockEmbedder) GetEmbedding(ctx context.Context, query string) ([]float32, error) {
	return nil, nil
}
func (m *mockEmbedder) BatchEmbedding(ctx context.Context, chunks []string, isHuge bool) ([][]float32, error) {
	return m.batchFunc(ctx, chunks, isHuge)
}

type mockVectorDB struct {
	upsertFunc func(ctx context.Context, coll string, chunks []docModel.Chunk) error
}

func (m *mockVectorDB) EnsureCollection(ctx context.Context, name string) error   { return nil }
func (m *mockVectorDB) RecreateCollection(ctx context.Context, name string) error { return nil }
func (m *mockVectorDB) DeleteCollection(ctx context.Context, name string) error   { return nil }
func (m *mockVectorDB) UpsertBatch(ctx context.Context, coll string, chunks []docModel.Chunk) error {
	return m.upsertFunc(ctx, coll, chunks)
}
func (m *mockVectorDB) Search(ctx context.Context, name string, v []float32, k int) ([]docModel.Hit, error) {
	return nil, nil
}
func (m *mockVectorDB) FetchSource(ctx context.Context, name string, sourceID string) ([]docModel.Chunk, error) {
	return nil, nil
}
func (m *mockVectorDB) GetCachedAnswer(ctx context.Context, v []float32) (string, bool, error) {
	return "", false, nil
}
func (m *mockVectorDB) SaveToCache(ctx context.Context, id string, v []float32, a string) error {
	return nil
}

// --- Unit Tests ---

func TestGetDocType(t *testing.T) {
	tests := []struct {
		path     string
		expected docType
	}{
		{"sales.csv", typeCSV},
		{"test.pdf", typePDF},
		{"DOC.DOCX", typeDoc},
		{"notes.txt", typeDoc},
		{"image.png", typeErr},
	}

	for _, tt := range tests {
		if got := getDocType(tt.path); got != tt.expected {
			t.Errorf("getDocType(%s) = %v; want %v", tt.path, got, tt.expected)
		}
	}
}

func TestPrepareChunksProse(t *testing.T) {
	src := docModel.Source{Id: "memo-1", Name: "memo.txt", IngestedAt: time.Now()}

	chunks, err := PrepareChunks("Short memo body.", src)
	if err != nil {
		t.Fatalf("PrepareChunks failed: %v", err)
	}
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	if chunks[0].Tabular {
		t.Error("prose chunk flagged tabular")
	}
	if chunks[0].TotalChunks != 1 || chunks[0].ChunkIndex != 0 {
		t.Errorf("bad indexing: %+v", chunks[0])
	}
}

func TestPrepareChunksTabular(t *testing.T) {
	var sb strings.Builder
	sb.WriteString("month,revenue\n")
	for i := 0; i < 500; i++ {
		fmt.Fprintf(&sb, "month-%03d,%d\n", i, i*100)
	}
	src := docModel.Source{Id: "sheet-1", Name: "sales.csv", Tabular: true, IngestedAt: time.Now()}

	chunks, err := PrepareChunks(sb.String(), src)
	if err != nil {
		t.Fatalf("PrepareChunks failed: %v", err)
	}
	if len(chunks) < 2 {
		t.Fatalf("expected the 500 rows to need multiple chunks, got %d", len(chunks))
	}
	for i, chunk := range chunks {
		if !chunk.Tabular {
			t.Errorf("chunk %d lost the tabular flag", i)
		}
		if chunk.TotalChunks != len(chunks) {
			t.Errorf("chunk %d total = %d, want %d", i, chunk.TotalChunks, len(chunks))
		}
		if !strings.Contains(chunk.Text, "Columns: month,revenue") {
			t.Errorf("chunk %d missing header block", i)
		}
	}
}

func TestPrepareChunksMalformedCSV(t *testing.T) {
	src := docModel.Source{Id: "bad-1", Name: "bad.csv", Tabular: true}
	if _, err := PrepareChunks("a,b\n1,2,3\n", src); err == nil {
		t.Fatal("expected malformed csv to fail ingestion")
	}
}

func TestBatchIngest(t *testing.T) {
	ctx := context.Background()
	chunks := make([]docModel.Chunk, 150) // should trigger 2 batches (100 + 50)
	for i := range chunks {
		chunks[i] = docModel.Chunk{Text: "test content", SourceId: "src", ChunkIndex: i, TotalChunks: 150}
	}

	callCount := 0
	vDB := &mockVectorDB{
		upsertFunc: func(ctx context.Context, coll string, batch []docModel.Chunk) error {
			callCount++
			for _, c := range batch {
				if c.Embedding == nil {
					t.Error("chunk upserted without an embedding")
				}
			}
			return nil
		},
	}
	emb := &mockEmbedder{
		batchFunc: func(ctx context.Context, ch []string, huge bool) ([][]float32, error) {
			vectors := make([][]float32, len(ch))
			for i := range vectors {
				vectors[i] = []float32{1}
			}
			return vectors, nil
		},
	}

	if err := BatchIngest(ctx, "drive_f1", chunks, vDB, emb); err != nil {
		t.Fatalf("BatchIngest failed: %v", err)
	}
	if callCount != 2 {
		t.Errorf("Expected 2 batches to be upserted, got %d", callCount)
	}
}

func TestBatchIngest_Error(t *testing.T) {
	vDB := &mockVectorDB{
		upsertFunc: func(ctx context.Context, coll string, batch []docModel.Chunk) error {
			return errors.New("upsert failed")
		},
	}
	emb := &mockEmbedder{
		batchFunc: func(ctx context.Context, ch []string, huge bool) ([][]float32, error) {
			return make([][]float32, len(ch)), nil
		},
	}

	err := BatchIngest(context.Background(), "drive_f1", []docModel.Chunk{{Text: "hi"}}, vDB, emb)
	if err == nil {
		t.Error("Expected error from BatchIngest, got nil")
	}
}

func TestReindexLocks(t *testing.T) {
	locks := NewReindexLocks()

	release, err := locks.TryLock("folder-1")
	if err != nil {
		t.Fatalf("first TryLock failed: %v", err)
	}

	if _, err := locks.TryLock("folder-1"); !errors.Is(err, ErrReindexInProgress) {
		t.Errorf("expected ErrReindexInProgress, got %v", err)
	}

	// a different folder is independent
	release2, err := locks.TryLock("folder-2")
	if err != nil {
		t.Fatalf("TryLock on other folder failed: %v", err)
	}
	release2()

	release()
	release3, err := locks.TryLock("folder-1")
	if err != nil {
		t.Fatalf("TryLock after release failed: %v", err)
	}
	release3()
}
