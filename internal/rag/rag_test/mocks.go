package rag_test

import (
	"context"

	"github.com/akolanti/driveqa/internal/domain/docModel"
	"github.com/akolanti/driveqa/internal/drive"
)

// MockVectorDB implements vectorDB.DataProcessor
type MockVectorDB struct {
	// Control fields to simulate different behaviors
	OnSearch             func(ctx context.Context, name string, vector []float32, k int) ([]docModel.Hit, error)
	OnFetchSource        func(ctx context.Context, name string, sourceID string) ([]docModel.Chunk, error)
	OnGetCachedAnswer    func(ctx context.Context, queryVector []float32) (string, bool, error)
	OnSaveToCache        func(ctx context.Context, id string, vector []float32, answer string) error
	OnEnsureCollection   func(ctx context.Context, name string) error
	OnRecreateCollection func(ctx context.Context, name string) error
	OnUpsertBatch        func(ctx context.Context, name string, chunks []docModel.Chunk) error
}

func (m *MockVectorDB) Search(ctx context.Context, name string, v []float32, k int) ([]docModel.Hit, error) {
	if m.OnSearch != nil {
		return m.OnSearch(ctx, name, v, k)
	}
	return []docModel.Hit{{Chunk: docModel.Chunk{Text: "default context", SourceId: "doc-1", TotalChunks: 1}, Score: 0.9}}, nil
}

func (m *MockVectorDB) FetchSource(ctx context.Context, name string, sourceID string) ([]docModel.Chunk, error) {
	if m.OnFetchSource != nil {
		return m.OnFetchSource(ctx, name, sourceID)
	}
	return nil, nil
}

func (m *MockVectorDB) GetCachedAnswer(ctx context.Context, v []float32) (string, bool, error) {
	if m.OnGetCachedAnswer != nil {
		return m.OnGetCachedAnswer(ctx, v)
	}
	return "", false, nil
}

func (m *MockVectorDB) SaveToCache(ctx context.Context, id string, v []float32, a string) error {
	if m.OnSaveToCache != nil {
		return m.OnSaveToCache(ctx, id, v, a)
	}
	return nil
}

func (m *MockVectorDB) EnsureCollection(ctx context.Context, name string) error {
	if m.OnEnsureCollection != nil {
		return m.OnEnsureCollection(ctx, name)
	}
	return nil
}

func (m *MockVectorDB) RecreateCollection(ctx context.Context, name string) error {
	if m.OnRecreateCollection != nil {
		return m.OnRecreateCollection(ctx, name)
	}
	return nil
}

func (m *MockVectorDB) DeleteCollection(ctx context.Context, name string) error {
	return nil
}

func (m *MockVectorDB) UpsertBatch(ctx context.Context, name string, chunks []docModel.Chunk) error {
	if m.OnUpsertBatch != nil {
		return m.OnUpsertBatch(ctx, name, chunks)
	}
	return nil
}

type MockEmbedder struct {
	OnGetEmbedding   func(ctx context.Context, text string) ([]float32, error)
	OnBatchEmbedding func(ctx context.Context, chunks []string, isHuge bool) ([][]float32, error)
}

func (m *MockEmbedder) GetEmbedding(ctx context.Context, query string) ([]float32, error) {
	if m.OnGetEmbedding != nil {
		return m.OnGetEmbedding(ctx, query)
	}
	return []float32{0.1}, nil
}

func (m *MockEmbedder) BatchEmbedding(ctx context.Context, chunks []string, isHuge bool) ([][]float32, error) {
	if m.OnBatchEmbedding != nil {
		return m.OnBatchEmbedding(ctx, chunks, isHuge)
	}
	// Return dummy vectors matching chunk size
	vectors := make([][]float32, len(chunks))
	for i := range vectors {
		vectors[i] = []float32{0.1}
	}
	return vectors, nil
}

// MockLLM implements llm.Provider
type MockLLM struct {
	OnGenerate func(ctx context.Context, query string, matches []string, history []string) (string, error)
}

func (m *MockLLM) Generate(ctx context.Context, q string, mth []string, hist []string) (string, error) {
	if m.OnGenerate != nil {
		return m.OnGenerate(ctx, q, mth, hist)
	}
	return "mocked llm response", nil
}

// MockDrive implements drive.Connector
type MockDrive struct {
	OnListFolder func(ctx context.Context, folderId string) ([]drive.File, error)
	OnFetch      func(ctx context.Context, file drive.File) (drive.Content, error)
	OnFolderName func(ctx context.Context, folderId string) (string, error)
}

func (m *MockDrive) ListFolder(ctx context.Context, folderId string) ([]drive.File, error) {
	if m.OnListFolder != nil {
		return m.OnListFolder(ctx, folderId)
	}
	return nil, nil
}

func (m *MockDrive) Fetch(ctx context.Context, file drive.File) (drive.Content, error) {
	if m.OnFetch != nil {
		return m.OnFetch(ctx, file)
	}
	return drive.Content{}, nil
}

func (m *MockDrive) FolderName(ctx context.Context, folderId string) (string, error) {
	if m.OnFolderName != nil {
		return m.OnFolderName(ctx, folderId)
	}
	return "Mock Folder", nil
}
