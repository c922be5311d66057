package rag

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/akolanti/driveqa/internal/config"
	"github.com/akolanti/driveqa/internal/domain/docModel"
	"github.com/akolanti/driveqa/internal/domain/jobModel"
	"github.com/akolanti/driveqa/internal/drive"
	"github.com/akolanti/driveqa/internal/metrics"
	"github.com/akolanti/driveqa/internal/rag/ingest"
	"github.com/akolanti/driveqa/internal/registry"
)

// ReindexFolder rebuilds a drive folder's collection from scratch. The chunk
// metadata schema is fixed at write time, so rather than reconciling versions
// in place the whole collection is dropped and refilled, then the registry
// entry is replaced. One bad document never aborts the run; it is logged and
// skipped.
func (s *service) ReindexFolder(ctx context.Context, job jobModel.Job) jobModel.Job {
	start := time.Now()
	defer func() { metrics.CaptureExecutionMetrics("Folder_reindex", time.Since(start)) }()
	log := s.logger.With("traceId", ctx.Value(config.TRACE_ID_KEY), "JobId", job.Id)

	folderId := job.JobPayload.FolderId
	if folderId == "" {
		return s.jobError(job, errors.New("reindex requires a folder id"), "REINDEX_BAD_REQUEST", false)
	}
	if s.drive == nil {
		return s.jobError(job, errors.New("drive connector not configured"), "REINDEX_UNAVAILABLE", false)
	}

	release, err := s.reindexLocks.TryLock(folderId)
	if err != nil {
		return s.jobError(job, err, "REINDEX_ALREADY_RUNNING", false)
	}
	defer release()

	job.CurrentStep = jobModel.ReindexInit
	log.Info("Reindex starting", "folderId", folderId)

	job.CurrentStep = jobModel.DriveCall
	folderName, err := s.drive.FolderName(ctx, folderId)
	if err != nil {
		log.Warn("Could not resolve folder name, using id", "error", err)
		folderName = folderId
	}
	files, err := s.drive.ListFolder(ctx, folderId)
	if err != nil {
		return s.jobError(job, err, "DRIVE_LIST_FAILURE", true)
	}

	collection := config.CollectionName(folderId)
	if err := s.vectorDB.RecreateCollection(ctx, collection); err != nil {
		return s.jobError(job, err, "VECTOR_DB_FAILURE", true)
	}

	job.CurrentStep = jobModel.IngestProcessing
	indexedAt := time.Now()
	var records []registry.FileRecord
	failed := 0
	for _, file := range files {
		record, err := s.reindexOne(ctx, collection, file, indexedAt)
		if err != nil {
			log.Error("Skipping document", "fileId", file.Id, "name", file.Name, "error", err)
			failed++
			continue
		}
		records = append(records, record)
	}

	entry := registry.Entry{
		FolderId:  folderId,
		Name:      folderName,
		IndexedAt: indexedAt,
		Files:     records,
	}
	if err := s.registry.Put(entry); err != nil {
		return s.jobError(job, err, "REGISTRY_WRITE_FAILURE", true)
	}

	log.Info("Reindex finished", "folderId", folderId, "indexed", len(records), "skipped", failed)
	job.JobPayload.Answer = fmt.Sprintf("indexed %d of %d documents from %q", len(records), len(files), folderName)
	job.Status = jobModel.JobStatusComplete
	job.CurrentStep = jobModel.Complete
	job.EndTime = time.Now()
	return job
}

func (s *service) reindexOne(ctx context.Context, collection string, file drive.File, indexedAt time.Time) (registry.FileRecord, error) {
	content, err := s.drive.Fetch(ctx, file)
	if err != nil {
		return registry.FileRecord{}, fmt.Errorf("fetching: %w", err)
	}

	src := docModel.Source{
		Id:         file.Id,
		Name:       file.Name,
		MimeType:   content.MimeType,
		Tabular:    content.Tabular,
		IngestedAt: indexedAt,
	}
	chunks, err := ingest.PrepareChunks(content.Text, src)
	if err != nil {
		return registry.FileRecord{}, fmt.Errorf("chunking: %w", err)
	}
	if err := ingest.BatchIngest(ctx, collection, chunks, s.vectorDB, s.embedder); err != nil {
		return registry.FileRecord{}, fmt.Errorf("ingesting: %w", err)
	}

	return registry.FileRecord{
		SourceId: file.Id,
		Name:     file.Name,
		MimeType: content.MimeType,
		Tabular:  content.Tabular,
		Chunks:   len(chunks),
	}, nil
}
