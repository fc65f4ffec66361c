package chi

import (
	"time"

	"github.com/innovorex/campuskb/internal/domain"
	"github.com/innovorex/campuskb/internal/usecase/stats"
)

// ErrorCode identifies a failure class in error responses.
type ErrorCode string

const (
	CodeBadRequest        ErrorCode = "bad_request"
	CodeValidationFailed  ErrorCode = "validation_failed"
	CodeDocumentNotFound  ErrorCode = "document_not_found"
	CodeUnsupportedFormat ErrorCode = "unsupported_format"
	CodeFileTooLarge      ErrorCode = "file_too_large"
	CodeProviderError     ErrorCode = "embedding_provider_error"
	CodeUnauthorized      ErrorCode = "unauthorized"
	CodeInternalError     ErrorCode = "internal_error"
)

// ErrorResponse is the JSON error envelope.
type ErrorResponse struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// DocumentResponse is the JSON shape of a document record.
type DocumentResponse struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	FileName      string    `json:"file_name"`
	FileType      string    `json:"file_type"`
	Size          int64     `json:"size"`
	ProgramID     string    `json:"program_id,omitempty"`
	CourseID      string    `json:"course_id,omitempty"`
	UploadedBy    string    `json:"uploaded_by,omitempty"`
	UploadedAt    time.Time `json:"uploaded_at"`
	Status        string    `json:"status"`
	ChunkCount    int       `json:"chunk_count"`
	FailureReason string    `json:"failure_reason,omitempty"`
}

func documentToResponse(d *domain.Document) DocumentResponse {
	return DocumentResponse{
		ID:            d.ID,
		Title:         d.Title,
		FileName:      d.FileName,
		FileType:      d.FileType,
		Size:          d.Size,
		ProgramID:     d.ProgramID,
		CourseID:      d.CourseID,
		UploadedBy:    d.UploadedBy,
		UploadedAt:    d.UploadedAt,
		Status:        string(d.Status),
		ChunkCount:    d.ChunkCount,
		FailureReason: d.FailureReason,
	}
}

// DocumentListResponse wraps a document listing.
type DocumentListResponse struct {
	Items []DocumentResponse `json:"items"`
	Total int                `json:"total"`
}

// ChatRequest is the JSON body of POST /chat.
type ChatRequest struct {
	SessionID string `json:"session_id"`
	ProgramID string `json:"program_id,omitempty"`
	CourseID  string `json:"course_id,omitempty"`
	Message   string `json:"message"`
}

// SourceResponse cites one document behind an answer.
type SourceResponse struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// ChatResponse is the JSON shape of a chat answer.
type ChatResponse struct {
	Answer  string           `json:"answer"`
	Sources []SourceResponse `json:"sources"`
	Model   string           `json:"model,omitempty"`
}

// StatsResponse is the JSON shape of the knowledge base summary.
type StatsResponse struct {
	Documents      int64            `json:"documents"`
	Chunks         int64            `json:"chunks"`
	ByStatus       map[string]int64 `json:"by_status"`
	ByProgram      map[string]int64 `json:"by_program"`
	ByCourse       map[string]int64 `json:"by_course"`
	ActiveSessions int              `json:"active_sessions"`
}

func statsToResponse(s stats.Summary) StatsResponse {
	byStatus := make(map[string]int64, len(s.ByStatus))
	for k, v := range s.ByStatus {
		byStatus[string(k)] = v
	}
	return StatsResponse{
		Documents:      s.Documents,
		Chunks:         s.Chunks,
		ByStatus:       byStatus,
		ByProgram:      s.ByProgram,
		ByCourse:       s.ByCourse,
		ActiveSessions: s.ActiveSessions,
	}
}

// HealthResponse is the JSON shape of GET /health.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}
