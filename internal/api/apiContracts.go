package api

import "time"

type JobExternalStatus string

const (
	JobStatusError JobExternalStatus = "Error"
)

type JobResponse struct {
	Id        string            `json:"id" example:"job_cz109"`
	ChatId    string            `json:"chat_id" example:"chat_550"`
	Result    Result            `json:"result"`
	Error     *JobOutgoingError `json:"error,omitempty"`
	StartTime time.Time         `json:"start_time"`
	EndTime   time.Time         `json:"end_time,omitempty"`
}

type JobOutgoingError struct {
	Code    int    `json:"code" example:"400"`
	Message string `json:"message" example:"Job not found"`
	Retry   bool   `json:"can_retry" example:"false"`
}

type RAGResponse struct {
	Question string   `json:"question"`
	Answer   string   `json:"answer"`
	Sources  []string `json:"sources"`
}

type Result struct {
	Status              string       `json:"status"`
	RAGExternalResponse *RAGResponse `json:"rag_response,omitempty"`
}

type InitJobResponse struct {
	Id        string `json:"id"`
	StatusURL string `json:"status_url"`
}

type IndexedFile struct {
	SourceId string `json:"source_id"`
	Name     string `json:"name"`
	MimeType string `json:"mime_type"`
	Tabular  bool   `json:"tabular"`
	Chunks   int    `json:"chunks"`
}

type IndexEntry struct {
	FolderId  string        `json:"folder_id"`
	Name      string        `json:"name"`
	IndexedAt time.Time     `json:"indexed_at"`
	Files     []IndexedFile `json:"files"`
}

type IndexListResponse struct {
	Indexes []IndexEntry `json:"indexes"`
}

// requests---------------------

type ChatRequest struct {
	Message  string `json:"message" validate:"required" `
	ChatID   string `json:"chatID,omitempty" `
	FolderID string `json:"folder_id,omitempty"`
}
type JobStatusRequest struct {
	JobId string `json:"job_id" validate:"required"`
}

type IngestDocumentRequest struct {
	DocumentName string `json:"document_name" validate:"required"`
	FolderID     string `json:"folder_id,omitempty"`
}

type ReindexRequest struct {
	FolderID string `json:"folder_id" validate:"required"`
}
