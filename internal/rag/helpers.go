package rag

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/akolanti/driveqa/internal/config"
	"github.com/akolanti/driveqa/internal/domain/jobModel"
	"github.com/akolanti/driveqa/internal/metrics"
	"github.com/akolanti/driveqa/pkg/logger_i"
)

func returnOutput(job jobModel.Job, ans string) jobModel.Job {
	job.JobPayload.Answer = ans
	job.CurrentStep = jobModel.Complete
	return job
}

func logOutput(job jobModel.Job, status jobModel.InternalStatus, log *logger_i.Logger) jobModel.Job {
	job.CurrentStep = status
	log.Debug("ProcessRequest", "Current Status", job.CurrentStep)
	return job
}

func (s *service) jobError(job jobModel.Job, err error, message string, canRetry bool) jobModel.Job {
	s.logger.Error(message, "error", err)

	job.Error = jobModel.JobError{
		Code:    http.StatusInternalServerError,
		Message: "Internal Server Error",
		Retry:   canRetry,
	}
	job.Status = jobModel.JobStatusError
	return job
}

func (s *service) collectionFor(folderId string) string {
	if folderId == "" {
		folderId = config.DefaultFolderID()
	}
	return config.CollectionName(folderId)
}

func (s *service) executeEmbeddingStep(ctx context.Context, log *logger_i.Logger, job *jobModel.Job) ([]float32, error) {
	*job = logOutput(*job, jobModel.EmbeddingAPICall, log)

	start := time.Now()
	defer func() { metrics.CaptureExecutionMetrics("embedding", time.Since(start)) }()

	return s.embedder.GetEmbedding(ctx, job.JobPayload.Question)
}

func (s *service) executeCacheCheckStep(ctx context.Context, log *logger_i.Logger, job *jobModel.Job, emb []float32) (string, bool) {
	*job = logOutput(*job, jobModel.CacheCall, log)

	start := time.Now()
	defer func() { metrics.CaptureExecutionMetrics("cache_lookup", time.Since(start)) }()

	ans, found, _ := s.vectorDB.GetCachedAnswer(ctx, emb)
	metrics.CountCacheLookup(found)
	return ans, found
}

// executeRetrievalStep runs similarity search plus tabular auto-fetch and
// records the sources on the job payload.
func (s *service) executeRetrievalStep(ctx context.Context, log *logger_i.Logger, job *jobModel.Job, emb []float32) ([]string, error) {
	*job = logOutput(*job, jobModel.AutoFetchCall, log)

	start := time.Now()
	defer func() { metrics.CaptureExecutionMetrics("retrieval", time.Since(start)) }()

	results, err := s.retriever.Retrieve(ctx, s.collectionFor(job.JobPayload.FolderId), emb, config.SearchTopK)
	if err != nil {
		return nil, err
	}

	matches := make([]string, 0, len(results))
	sources := make([]string, 0, len(results))
	for _, res := range results {
		matches = append(matches, res.Text)
		sources = append(sources, fmt.Sprintf("source_id:%s doc_name:%s merged:%t chunks:%d", res.SourceId, res.DocName, res.Merged, res.ChunkCount))
	}
	job.JobPayload.Sources = sources
	return matches, nil
}

func (s *service) executeLLMStep(ctx context.Context, log *logger_i.Logger, job *jobModel.Job, matches []string, history []string) (string, error) {
	*job = logOutput(*job, jobModel.LLMCall, log)

	start := time.Now()
	defer func() { metrics.CaptureExecutionMetrics("llm_generation", time.Since(start)) }()

	return s.llmProvider.Generate(ctx, job.JobPayload.Question, matches, history)
}
