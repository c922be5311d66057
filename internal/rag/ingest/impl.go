package ingest

import (
	"context"
	"time"

	"github.com/akolanti/driveqa/internal/config"
	"github.com/akolanti/driveqa/internal/domain/docModel"
	"github.com/akolanti/driveqa/internal/domain/jobModel"
	"github.com/akolanti/driveqa/internal/rag/embedding"
	"github.com/akolanti/driveqa/internal/rag/vectorDB"
)

// ProcessDocumentIngestion handles the manual upload path: a file already on
// local disk is extracted, chunked, tagged, embedded and upserted into the
// folder's collection.
func ProcessDocumentIngestion(ctx context.Context, job jobModel.Job, e embedding.Embedder, store vectorDB.DataProcessor) jobModel.Job {
	log := logger.With("traceId", ctx.Value(config.TRACE_ID_KEY))

	docName := job.JobPayload.IngestFileName
	docPath := job.JobPayload.IngestURL
	log.Debug("Processing document", "filename", docName, "path", docPath)

	folderId := job.JobPayload.FolderId
	if folderId == "" {
		folderId = "uploads"
	}
	collection := config.CollectionName(folderId)

	job.CurrentStep = jobModel.IngestProcessing
	if err := store.EnsureCollection(ctx, collection); err != nil {
		log.Error("Error creating collection", "error", err)
		return failJob(job, "Error preparing collection")
	}

	contentType := getDocType(docPath)
	if contentType == typeErr {
		log.Error("Unsupported document type", "path", docPath)
		return failJob(job, "Unsupported document type")
	}

	text, err := extractText(docPath, contentType)
	if err != nil {
		log.Error("Error extracting document content", "error", err)
		return failJob(job, "Error extracting document content")
	}

	sourceId := job.JobPayload.SourceId
	if sourceId == "" {
		sourceId = job.Id
	}
	src := docModel.Source{
		Id:         sourceId,
		Name:       docName,
		MimeType:   mimeOf(contentType),
		Tabular:    contentType == typeCSV,
		IngestedAt: time.Now(),
	}

	chunks, err := PrepareChunks(text, src)
	if err != nil {
		log.Error("Error chunking document", "error", err)
		return failJob(job, "Error chunking document")
	}
	log.Debug("Processing document", "Number of chunks: ", len(chunks))

	if err := BatchIngest(ctx, collection, chunks, store, e); err != nil {
		log.Error("Error ingesting document", "error", err)
		return failJob(job, "Error ingesting document")
	}

	job.Status = jobModel.JobStatusComplete
	job.CurrentStep = jobModel.Complete
	job.EndTime = time.Now()
	return job
}

func failJob(job jobModel.Job, message string) jobModel.Job {
	job.Status = jobModel.JobStatusError
	job.CurrentStep = jobModel.Error
	job.Error.Message = message
	job.EndTime = time.Now()
	return job
}

func mimeOf(contentType docType) string {
	switch contentType {
	case typeCSV:
		return "text/csv"
	case typePDF:
		return "application/pdf"
	case typeDoc:
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	default:
		return "application/octet-stream"
	}
}
