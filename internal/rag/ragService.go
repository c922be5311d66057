package rag

import (
	"context"
	"errors"
	"time"

	"github.com/akolanti/driveqa/internal/config"
	"github.com/akolanti/driveqa/internal/domain/docModel"
	"github.com/akolanti/driveqa/internal/domain/jobModel"
	"github.com/akolanti/driveqa/internal/drive"
	"github.com/akolanti/driveqa/internal/metrics"
	"github.com/akolanti/driveqa/internal/rag/embedding"
	"github.com/akolanti/driveqa/internal/rag/ingest"
	"github.com/akolanti/driveqa/internal/rag/llm"
	"github.com/akolanti/driveqa/internal/rag/retriever"
	"github.com/akolanti/driveqa/internal/rag/vectorDB"
	"github.com/akolanti/driveqa/internal/registry"
	"github.com/akolanti/driveqa/pkg/logger_i"
	"github.com/google/uuid"
)

/*
ARCHITECTURE NOTE: OPAQUE INTERFACE PATTERN
---------------------------------------------------------

1. Service (Interface):
  - This is the PUBLIC contract.
  - It defines the "behavior" (what the worker and MCP server can do).
  - We expose this to keep the callers decoupled from our specific logic.

2. service (Private Struct):
  - This is the PRIVATE implementation.
  - It holds the "state" (store, drive, LLM and embedding clients).
  - It is lowercase to prevent external packages from accessing our
    internal dependencies directly.

3. Dependency Injection (NewService):
  - The constructor links the private struct to the public interface,
    so tests can swap real stores and providers for mocks without
    changing the worker's code.
*/

// Service is all a worker or tool server needs from the RAG pipeline.
type Service interface {
	ProcessRequest(ctx context.Context, job jobModel.Job, messageHistory []string) jobModel.Job
	IngestDocument(ctx context.Context, job jobModel.Job) jobModel.Job
	ReindexFolder(ctx context.Context, job jobModel.Job) jobModel.Job
	Search(ctx context.Context, question string, folderId string, k int) ([]docModel.RetrievalResult, error)
	Answer(ctx context.Context, question string, folderId string) (string, []string, error)
}

type service struct {
	vectorDB     vectorDB.DataProcessor
	llmProvider  llm.Provider
	embedder     embedding.Embedder
	retriever    *retriever.Retriever
	drive        drive.Connector
	registry     *registry.Registry
	reindexLocks *ingest.ReindexLocks
	logger       *logger_i.Logger
}

// NewService constructor. The drive connector may be nil when the deployment
// only uses manual uploads; reindex jobs then fail with a clear error instead
// of at startup.
func NewService(vector vectorDB.DataProcessor, llm llm.Provider, em embedding.Embedder, driveConn drive.Connector, reg *registry.Registry) Service {
	return &service{
		vectorDB:     vector,
		llmProvider:  llm,
		embedder:     em,
		retriever:    retriever.New(vector),
		drive:        driveConn,
		registry:     reg,
		reindexLocks: ingest.NewReindexLocks(),
		logger:       logger_i.NewLogger("RAG Service :"),
	}
}

func (s *service) ProcessRequest(ctx context.Context, jobt jobModel.Job, messageHistory []string) jobModel.Job {
	inMethodLogger := s.logger.With("traceId", ctx.Value(config.TRACE_ID_KEY), "JobId", jobt.Id)

	processContext, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	jobt.CurrentStep = jobModel.RAGCall

	// Embedding
	queryVector, err := s.executeEmbeddingStep(processContext, inMethodLogger, &jobt)
	if err != nil {
		return s.jobError(jobt, err, "EMBEDDING_FAILURE", true)
	}

	// Cache Check
	cachedAnswer, found := s.executeCacheCheckStep(processContext, inMethodLogger, &jobt, queryVector)
	if found {
		return returnOutput(jobt, cachedAnswer)
	}

	// Retrieval (similarity search + tabular auto-fetch)
	matches, err := s.executeRetrievalStep(processContext, inMethodLogger, &jobt, queryVector)
	if err != nil {
		return s.jobError(jobt, err, "VECTOR_DB_FAILURE", true)
	}

	// LLM Generation
	answer, err := s.executeLLMStep(processContext, inMethodLogger, &jobt, matches, messageHistory)
	if err != nil {
		return s.jobError(jobt, err, "LLM_GENERATION_FAILURE", true)
	}

	//Background Cache Save
	go func() {
		if err := s.vectorDB.SaveToCache(context.WithoutCancel(ctx), uuid.NewString(), queryVector, answer); err != nil {
			s.logger.Error("Failed to save to cache", "error", err)
		}
	}()

	return returnOutput(jobt, answer)
}

func (s *service) IngestDocument(ctx context.Context, job jobModel.Job) jobModel.Job {
	start := time.Now()
	defer func() { metrics.CaptureExecutionMetrics("Document_ingestion", time.Since(start)) }()
	j := ingest.ProcessDocumentIngestion(ctx, job, s.embedder, s.vectorDB)
	if j.Status != jobModel.JobStatusComplete {
		return s.jobError(j, errors.New("ingest Document Failed"), "INGESTION_FAILURE", true)
	}
	return j
}

// Search embeds the question and runs retrieval without LLM generation. The
// MCP search tool and debugging callers use it directly.
func (s *service) Search(ctx context.Context, question string, folderId string, k int) ([]docModel.RetrievalResult, error) {
	queryVector, err := s.embedder.GetEmbedding(ctx, question)
	if err != nil {
		return nil, err
	}
	if k <= 0 {
		k = config.SearchTopK
	}
	return s.retriever.Retrieve(ctx, s.collectionFor(folderId), queryVector, k)
}

// Answer is the synchronous question path for callers that have no job queue,
// like the MCP server.
func (s *service) Answer(ctx context.Context, question string, folderId string) (string, []string, error) {
	job := jobModel.Job{
		Id:          uuid.NewString(),
		JobType:     jobModel.JobTypeQuery,
		JobPayload:  jobModel.JobPayload{Question: question, FolderId: folderId},
		CreatedTime: time.Now(),
		Status:      jobModel.JobStatusRunning,
	}
	done := s.ProcessRequest(ctx, job, nil)
	if done.Status == jobModel.JobStatusError {
		return "", nil, errors.New(done.Error.Message)
	}
	return done.JobPayload.Answer, done.JobPayload.Sources, nil
}
