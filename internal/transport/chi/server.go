// Package chi exposes the knowledge base over HTTP: document management,
// chat, stats, health and metrics.
package chi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/innovorex/campuskb/internal/domain"
	chatuc "github.com/innovorex/campuskb/internal/usecase/chat"
	documentuc "github.com/innovorex/campuskb/internal/usecase/document"
	healthuc "github.com/innovorex/campuskb/internal/usecase/health"
	statsuc "github.com/innovorex/campuskb/internal/usecase/stats"
)

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server wires the use case services into HTTP handlers.
type Server struct {
	documents     *documentuc.Service
	chat          *chatuc.Service
	stats         *statsuc.Service
	health        *healthuc.Service
	maxUploadSize int64
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server. maxUploadSize bounds multipart
// request parsing.
func NewServer(
	documents *documentuc.Service,
	chat *chatuc.Service,
	stats *statsuc.Service,
	health *healthuc.Service,
	maxUploadSize int64,
	logger *zap.Logger,
) *Server {
	s := &Server{
		documents:     documents,
		chat:          chat,
		stats:         stats,
		health:        health,
		maxUploadSize: maxUploadSize,
		logger:        logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrDocumentNotFound, http.StatusNotFound, CodeDocumentNotFound),
		sentinelHandler(domain.ErrUnsupportedFormat, http.StatusUnsupportedMediaType, CodeUnsupportedFormat),
		sentinelHandler(domain.ErrFileTooLarge, http.StatusRequestEntityTooLarge, CodeFileTooLarge),
		sentinelHandler(domain.ErrInvalidRequest, http.StatusBadRequest, CodeValidationFailed),
		sentinelHandler(domain.ErrEmbeddingProviderError, http.StatusBadGateway, CodeProviderError),
	}
	return s
}

// Routes mounts all handlers on the given router.
func (s *Server) Routes(r chi.Router) {
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/documents", s.UploadDocument)
		r.Get("/documents", s.ListDocuments)
		r.Get("/documents/{id}", s.GetDocument)
		r.Get("/documents/{id}/download", s.DownloadDocument)
		r.Delete("/documents/{id}", s.DeleteDocument)
		r.Post("/chat", s.Chat)
		r.Get("/stats", s.Stats)
	})
}

// UploadDocument handles POST /api/v1/documents (multipart form).
func (s *Server) UploadDocument(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadSize)
	if err := r.ParseMultipartForm(s.maxUploadSize); err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, CodeFileTooLarge, "upload exceeds the size limit")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, "multipart field \"file\" is required")
		return
	}
	defer file.Close()

	doc, err := s.documents.Upload(r.Context(), documentuc.UploadInput{
		FileName:   header.Filename,
		Size:       header.Size,
		Content:    file,
		Title:      r.FormValue("title"),
		ProgramID:  r.FormValue("program_id"),
		CourseID:   r.FormValue("course_id"),
		UploadedBy: r.FormValue("uploaded_by"),
	})
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	// 202: the document is accepted, indexing happens in the background.
	writeJSON(w, http.StatusAccepted, documentToResponse(&doc))
}

// ListDocuments handles GET /api/v1/documents.
func (s *Server) ListDocuments(w http.ResponseWriter, r *http.Request) {
	filter := domain.DocumentFilter{
		ProgramID: r.URL.Query().Get("program_id"),
		CourseID:  r.URL.Query().Get("course_id"),
		Status:    domain.Status(r.URL.Query().Get("status")),
		Search:    r.URL.Query().Get("search"),
	}

	docs, err := s.documents.List(r.Context(), filter)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	items := make([]DocumentResponse, len(docs))
	for i := range docs {
		items[i] = documentToResponse(&docs[i])
	}
	writeJSON(w, http.StatusOK, DocumentListResponse{Items: items, Total: len(items)})
}

// GetDocument handles GET /api/v1/documents/{id}.
func (s *Server) GetDocument(w http.ResponseWriter, r *http.Request) {
	doc, err := s.documents.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, documentToResponse(&doc))
}

// DownloadDocument handles GET /api/v1/documents/{id}/download, serving
// the stored file under its original name.
func (s *Server) DownloadDocument(w http.ResponseWriter, r *http.Request) {
	doc, err := s.documents.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", doc.FileName))
	http.ServeFile(w, r, doc.StoragePath)
}

// DeleteDocument handles DELETE /api/v1/documents/{id}.
func (s *Server) DeleteDocument(w http.ResponseWriter, r *http.Request) {
	if err := s.documents.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.handleDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Chat handles POST /api/v1/chat.
func (s *Server) Chat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if req.SessionID == "" {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, "session_id is required")
		return
	}

	answer, err := s.chat.Chat(r.Context(), req.SessionID, req.ProgramID, req.CourseID, req.Message)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	sources := make([]SourceResponse, len(answer.Sources))
	for i, src := range answer.Sources {
		sources[i] = SourceResponse{ID: src.ID, Title: src.Title}
	}
	writeJSON(w, http.StatusOK, ChatResponse{
		Answer:  answer.Text,
		Sources: sources,
		Model:   answer.Model,
	})
}

// Stats handles GET /api/v1/stats.
func (s *Server) Stats(w http.ResponseWriter, r *http.Request) {
	summary, err := s.stats.Summarize(r.Context())
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, statsToResponse(summary))
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	httpStatus := http.StatusOK
	if report.Status == healthuc.Unhealthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, HealthResponse{
		Status: string(report.Status),
		Checks: report.Checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorCode, message string) {
	writeJSON(w, status, ErrorResponse{Code: code, Message: message})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrDocumentNotFound,
		domain.ErrUnsupportedFormat,
		domain.ErrFileTooLarge,
		domain.ErrInvalidRequest,
		domain.ErrEmbeddingProviderError,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code ErrorCode) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, CodeInternalError, "internal error")
}
