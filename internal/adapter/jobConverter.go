package adapter

import (
	"fmt"
	"time"

	"github.com/akolanti/driveqa/internal/api"
	"github.com/akolanti/driveqa/internal/domain/jobModel"
	"github.com/akolanti/driveqa/internal/registry"
)

func ToInitJobResponse(id string) api.InitJobResponse {
	return api.InitJobResponse{
		Id:        id,
		StatusURL: fmt.Sprintf("status/%s", id), //pass "status/job.Id"
	}
}

func ToAPIResponse(job jobModel.Job) api.JobResponse {

	var errorPtr *api.JobOutgoingError
	if job.Error.Message != "" || job.Error.Code != 0 {
		errorPtr = &api.JobOutgoingError{
			Code:    job.Error.Code,
			Message: job.Error.Message,
			Retry:   job.Error.Retry,
		}
	}

	result := api.Result{
		Status:              string(job.Status),
		RAGExternalResponse: ToRAGExternalStatus(job.JobPayload),
	}

	return api.JobResponse{
		Id:        job.Id,
		ChatId:    job.ChatId,
		StartTime: job.CreatedTime,
		EndTime:   job.EndTime,
		Error:     errorPtr,
		Result:    result,
	}
}

func ToRAGExternalStatus(ragData jobModel.JobPayload) *api.RAGResponse {
	if ragData.Answer == "" && len(ragData.Sources) == 0 {
		return nil
	}

	return &api.RAGResponse{
		Question: ragData.Question,
		Answer:   ragData.Answer,
		Sources:  ragData.Sources,
	}
}

func ToIndexListResponse(entries []registry.Entry) api.IndexListResponse {
	indexes := make([]api.IndexEntry, 0, len(entries))
	for _, entry := range entries {
		files := make([]api.IndexedFile, 0, len(entry.Files))
		for _, file := range entry.Files {
			files = append(files, api.IndexedFile{
				SourceId: file.SourceId,
				Name:     file.Name,
				MimeType: file.MimeType,
				Tabular:  file.Tabular,
				Chunks:   file.Chunks,
			})
		}
		indexes = append(indexes, api.IndexEntry{
			FolderId:  entry.FolderId,
			Name:      entry.Name,
			IndexedAt: entry.IndexedAt,
			Files:     files,
		})
	}
	return api.IndexListResponse{Indexes: indexes}
}

func BadRequest(id string, error string, code int) api.JobResponse {
	return api.JobResponse{
		Id:        id,
		ChatId:    "",
		StartTime: time.Time{},
		EndTime:   time.Time{},
		Result: api.Result{
			Status:              string(api.JobStatusError),
			RAGExternalResponse: ToRAGExternalStatus(jobModel.JobPayload{}),
		},
		Error: &api.JobOutgoingError{
			Code:    code,
			Message: error,
			Retry:   false,
		},
	}
}
