package rag_test

import (
	"context"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/akolanti/driveqa/internal/config"
	"github.com/akolanti/driveqa/internal/domain/docModel"
	"github.com/akolanti/driveqa/internal/domain/jobModel"
	"github.com/akolanti/driveqa/internal/drive"
	"github.com/akolanti/driveqa/internal/rag"
	"github.com/akolanti/driveqa/internal/registry"
)

func newTestService(t *testing.T, vec *MockVectorDB, llm *MockLLM, emb *MockEmbedder, driveConn drive.Connector) rag.Service {
	t.Helper()
	reg, err := registry.Load(filepath.Join(t.TempDir(), "registry.json"))
	if err != nil {
		t.Fatalf("loading registry: %v", err)
	}
	return rag.NewService(vec, llm, emb, driveConn, reg)
}

func TestProcessRequest_Scenarios(t *testing.T) {
	tests := []struct {
		name           string
		setupMocks     func(e *MockEmbedder, v *MockVectorDB, l *MockLLM)
		expectedStatus jobModel.JobStatus
		expectedAnswer string
		expectedErr    string
	}{
		{
			name: "Success_Full_Flow",
			setupMocks: func(e *MockEmbedder, v *MockVectorDB, l *MockLLM) {
				l.OnGenerate = func(ctx context.Context, q string, m []string, h []string) (string, error) {
					return "final answer", nil
				}
			},
			expectedStatus: jobModel.JobStatusQueued,
			expectedAnswer: "final answer",
		},
		{
			name: "Success_Cache_Hit",
			setupMocks: func(e *MockEmbedder, v *MockVectorDB, l *MockLLM) {
				v.OnGetCachedAnswer = func(ctx context.Context, emb []float32) (string, bool, error) {
					return "cached answer", true, nil
				}
				v.OnSearch = func(ctx context.Context, name string, emb []float32, k int) ([]docModel.Hit, error) {
					t.Fatal("cache hit must short-circuit the search")
					return nil, nil
				}
			},
			expectedStatus: jobModel.JobStatusQueued,
			expectedAnswer: "cached answer",
		},
		{
			name: "Failure_Embedding",
			setupMocks: func(e *MockEmbedder, v *MockVectorDB, l *MockLLM) {
				e.OnGetEmbedding = func(ctx context.Context, text string) ([]float32, error) {
					return nil, errors.New("api limit")
				}
			},
			expectedStatus: jobModel.JobStatusError,
			expectedErr:    "EMBEDDING_FAILURE",
		},
		{
			name: "Failure_Vector_Search",
			setupMocks: func(e *MockEmbedder, v *MockVectorDB, l *MockLLM) {
				v.OnSearch = func(ctx context.Context, name string, emb []float32, k int) ([]docModel.Hit, error) {
					return nil, errors.New("db timeout")
				}
			},
			expectedStatus: jobModel.JobStatusError,
			expectedErr:    "VECTOR_DB_FAILURE",
		},
		{
			name: "Failure_LLM_Generation",
			setupMocks: func(e *MockEmbedder, v *MockVectorDB, l *MockLLM) {
				l.OnGenerate = func(ctx context.Context, q string, m []string, h []string) (string, error) {
					return "", errors.New("provider down")
				}
			},
			expectedStatus: jobModel.JobStatusError,
			expectedErr:    "LLM_GENERATION_FAILURE",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mEmbed := &MockEmbedder{}
			mVec := &MockVectorDB{}
			mLLM := &MockLLM{}

			tt.setupMocks(mEmbed, mVec, mLLM)

			s := newTestService(t, mVec, mLLM, mEmbed, &MockDrive{})

			ctx := context.WithValue(context.Background(), config.TRACE_ID_KEY, "test-trace")
			job := jobModel.Job{
				Id:     "test-job",
				Status: jobModel.JobStatusQueued,
				JobPayload: jobModel.JobPayload{
					Question: "test question",
					FolderId: "folder-1",
				},
			}

			result := s.ProcessRequest(ctx, job, []string{})

			if result.Status != tt.expectedStatus {
				t.Errorf("Status got %v, want %v", result.Status, tt.expectedStatus)
			}
			if tt.expectedAnswer != "" && result.JobPayload.Answer != tt.expectedAnswer {
				t.Errorf("Answer got %s, want %s", result.JobPayload.Answer, tt.expectedAnswer)
			}
			if tt.expectedErr != "" && result.Error.Code != http.StatusInternalServerError {
				t.Errorf("Error Code got %d, want %s", result.Error.Code, tt.expectedErr)
			}
		})
	}
}

func TestProcessRequest_TabularHitReachesLLMMerged(t *testing.T) {
	mVec := &MockVectorDB{
		OnSearch: func(ctx context.Context, name string, emb []float32, k int) ([]docModel.Hit, error) {
			return []docModel.Hit{{
				Chunk: docModel.Chunk{
					Text: "Rows 47-93", SourceId: "sheet-1", ChunkIndex: 1,
					TotalChunks: 3, Tabular: true, DocName: "sales.csv",
				},
				Score: 0.9,
			}}, nil
		},
		OnFetchSource: func(ctx context.Context, name string, sourceID string) ([]docModel.Chunk, error) {
			return []docModel.Chunk{
				{Text: "Rows 0-46", SourceId: sourceID, ChunkIndex: 0, TotalChunks: 3, Tabular: true},
				{Text: "Rows 47-93", SourceId: sourceID, ChunkIndex: 1, TotalChunks: 3, Tabular: true},
				{Text: "Rows 94-99", SourceId: sourceID, ChunkIndex: 2, TotalChunks: 3, Tabular: true},
			}, nil
		},
	}

	var llmContext []string
	mLLM := &MockLLM{
		OnGenerate: func(ctx context.Context, q string, matches []string, h []string) (string, error) {
			llmContext = matches
			return "the total is 42", nil
		},
	}

	s := newTestService(t, mVec, mLLM, &MockEmbedder{}, &MockDrive{})
	ctx := context.WithValue(context.Background(), config.TRACE_ID_KEY, "test-trace")
	job := jobModel.Job{Id: "j1", JobPayload: jobModel.JobPayload{Question: "what is the total?", FolderId: "f1"}}

	result := s.ProcessRequest(ctx, job, nil)

	if result.Status == jobModel.JobStatusError {
		t.Fatalf("ProcessRequest failed: %+v", result.Error)
	}
	if len(llmContext) != 1 {
		t.Fatalf("expected 1 merged context block, got %d", len(llmContext))
	}
	if !strings.Contains(llmContext[0], "Rows 0-46") || !strings.Contains(llmContext[0], "Rows 94-99") {
		t.Errorf("LLM context is missing merged rows: %q", llmContext[0])
	}
	if len(result.JobPayload.Sources) != 1 || !strings.Contains(result.JobPayload.Sources[0], "merged:true") {
		t.Errorf("sources should record the merge: %v", result.JobPayload.Sources)
	}
}

func TestIngestDocument_Scenarios(t *testing.T) {
	dir := t.TempDir()
	textFile := filepath.Join(dir, "test_ingest.txt")
	csvFile := filepath.Join(dir, "sales.csv")
	os.WriteFile(textFile, []byte("test content for ingestion"), 0644)
	os.WriteFile(csvFile, []byte("month,revenue\njan,100\nfeb,200\n"), 0644)

	tests := []struct {
		name           string
		file           string
		setupMocks     func(e *MockEmbedder, v *MockVectorDB)
		expectedStatus jobModel.JobStatus
	}{
		{
			name:           "Ingestion_Success",
			file:           textFile,
			setupMocks:     func(e *MockEmbedder, v *MockVectorDB) {},
			expectedStatus: jobModel.JobStatusComplete,
		},
		{
			name: "Ingestion_CSV_Tagged_Tabular",
			file: csvFile,
			setupMocks: func(e *MockEmbedder, v *MockVectorDB) {
				v.OnUpsertBatch = func(ctx context.Context, name string, chunks []docModel.Chunk) error {
					for _, c := range chunks {
						if !c.Tabular {
							t.Error("csv chunk not flagged tabular")
						}
					}
					return nil
				}
			},
			expectedStatus: jobModel.JobStatusComplete,
		},
		{
			name: "Failure_Collection_Creation",
			file: textFile,
			setupMocks: func(e *MockEmbedder, v *MockVectorDB) {
				v.OnEnsureCollection = func(ctx context.Context, name string) error {
					return errors.New("connection refused")
				}
			},
			expectedStatus: jobModel.JobStatusError,
		},
		{
			name: "Failure_Batch_Upsert",
			file: textFile,
			setupMocks: func(e *MockEmbedder, v *MockVectorDB) {
				v.OnUpsertBatch = func(ctx context.Context, name string, chunks []docModel.Chunk) error {
					return errors.New("disk full")
				}
			},
			expectedStatus: jobModel.JobStatusError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mEmbed := &MockEmbedder{}
			mVec := &MockVectorDB{}
			tt.setupMocks(mEmbed, mVec)

			s := newTestService(t, mVec, &MockLLM{}, mEmbed, &MockDrive{})

			ctx := context.WithValue(context.Background(), config.TRACE_ID_KEY, "ingest-trace")
			job := jobModel.Job{
				Id: "ingest-job-1",
				JobPayload: jobModel.JobPayload{
					IngestFileName: filepath.Base(tt.file),
					IngestURL:      tt.file,
					FolderId:       "folder-1",
				},
			}

			result := s.IngestDocument(ctx, job)
			if result.Status != tt.expectedStatus {
				t.Errorf("Status got %v, want %v", result.Status, tt.expectedStatus)
			}
		})
	}
}

func TestReindexFolder_Success(t *testing.T) {
	files := []drive.File{
		{Id: "f-sheet", Name: "sales", MimeType: drive.MimeTypeGoogleSheet},
		{Id: "f-doc", Name: "notes", MimeType: drive.MimeTypeGoogleDoc},
	}
	mDrive := &MockDrive{
		OnListFolder: func(ctx context.Context, folderId string) ([]drive.File, error) {
			return files, nil
		},
		OnFetch: func(ctx context.Context, file drive.File) (drive.Content, error) {
			if file.MimeType == drive.MimeTypeGoogleSheet {
				return drive.Content{Text: "a,b\n1,2\n", MimeType: drive.ExportMimeCSV, Tabular: true}, nil
			}
			return drive.Content{Text: "meeting notes", MimeType: drive.ExportMimeText}, nil
		},
		OnFolderName: func(ctx context.Context, folderId string) (string, error) {
			return "Reports", nil
		},
	}

	recreated := false
	upserted := map[string]int{}
	mVec := &MockVectorDB{
		OnRecreateCollection: func(ctx context.Context, name string) error {
			recreated = true
			return nil
		},
		OnUpsertBatch: func(ctx context.Context, name string, chunks []docModel.Chunk) error {
			for _, c := range chunks {
				upserted[c.SourceId]++
			}
			return nil
		},
	}

	reg, _ := registry.Load(filepath.Join(t.TempDir(), "registry.json"))
	s := rag.NewService(mVec, &MockLLM{}, &MockEmbedder{}, mDrive, reg)

	ctx := context.WithValue(context.Background(), config.TRACE_ID_KEY, "reindex-trace")
	job := jobModel.Job{Id: "reindex-1", JobType: jobModel.JobTypeReindex, JobPayload: jobModel.JobPayload{FolderId: "folder-1"}}

	result := s.ReindexFolder(ctx, job)
	if result.Status != jobModel.JobStatusComplete {
		t.Fatalf("reindex failed: %+v", result.Error)
	}
	if !recreated {
		t.Error("reindex must rebuild the collection from scratch")
	}
	if upserted["f-sheet"] == 0 || upserted["f-doc"] == 0 {
		t.Errorf("not all documents ingested: %v", upserted)
	}

	entry, ok := reg.Get("folder-1")
	if !ok {
		t.Fatal("registry entry not written")
	}
	if entry.Name != "Reports" || len(entry.Files) != 2 {
		t.Errorf("registry entry wrong: %+v", entry)
	}
	for _, f := range entry.Files {
		if f.SourceId == "f-sheet" && !f.Tabular {
			t.Error("sheet export not recorded tabular")
		}
	}
}

func TestReindexFolder_SkipsBadDocuments(t *testing.T) {
	mDrive := &MockDrive{
		OnListFolder: func(ctx context.Context, folderId string) ([]drive.File, error) {
			return []drive.File{
				{Id: "good", Name: "good.txt", MimeType: "text/plain"},
				{Id: "bad", Name: "bad.csv", MimeType: "text/csv"},
			}, nil
		},
		OnFetch: func(ctx context.Context, file drive.File) (drive.Content, error) {
			if file.Id == "bad" {
				return drive.Content{}, errors.New("export failed")
			}
			return drive.Content{Text: "fine content", MimeType: "text/plain"}, nil
		},
	}

	reg, _ := registry.Load(filepath.Join(t.TempDir(), "registry.json"))
	s := rag.NewService(&MockVectorDB{}, &MockLLM{}, &MockEmbedder{}, mDrive, reg)

	ctx := context.WithValue(context.Background(), config.TRACE_ID_KEY, "reindex-trace")
	job := jobModel.Job{Id: "reindex-2", JobPayload: jobModel.JobPayload{FolderId: "folder-1"}}

	result := s.ReindexFolder(ctx, job)
	if result.Status != jobModel.JobStatusComplete {
		t.Fatalf("one bad document must not abort the reindex: %+v", result.Error)
	}

	entry, _ := reg.Get("folder-1")
	if len(entry.Files) != 1 || entry.Files[0].SourceId != "good" {
		t.Errorf("registry should hold only the good document: %+v", entry.Files)
	}
}

func TestReindexFolder_RequiresFolderId(t *testing.T) {
	s := newTestService(t, &MockVectorDB{}, &MockLLM{}, &MockEmbedder{}, &MockDrive{})
	ctx := context.WithValue(context.Background(), config.TRACE_ID_KEY, "reindex-trace")

	result := s.ReindexFolder(ctx, jobModel.Job{Id: "reindex-3"})
	if result.Status != jobModel.JobStatusError {
		t.Fatal("expected reindex without folder id to fail")
	}
}

func TestSearch_ReturnsRetrievalResults(t *testing.T) {
	mVec := &MockVectorDB{
		OnSearch: func(ctx context.Context, name string, emb []float32, k int) ([]docModel.Hit, error) {
			if name != config.CollectionName("folder-9") {
				t.Errorf("searched wrong collection %q", name)
			}
			return []docModel.Hit{{Chunk: docModel.Chunk{Text: "hit", SourceId: "d1", TotalChunks: 1}, Score: 0.8}}, nil
		},
	}
	s := newTestService(t, mVec, &MockLLM{}, &MockEmbedder{}, &MockDrive{})

	results, err := s.Search(context.Background(), "question", "folder-9", 0)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(results) != 1 || results[0].Text != "hit" {
		t.Errorf("unexpected results: %+v", results)
	}
}
