package domain

import (
	"strings"
	"time"
)

// KeyPrefix namespaces all keys this service writes to the database.
const KeyPrefix = "campuskb:"

// Status is the ingestion lifecycle state of a document.
type Status string

const (
	// StatusPending marks a document that is uploaded but not yet ingested.
	StatusPending Status = "pending"
	// StatusProcessing marks a document whose ingestion is in flight.
	StatusProcessing Status = "processing"
	// StatusProcessed marks a fully ingested document (terminal).
	StatusProcessed Status = "processed"
	// StatusFailed marks a document whose ingestion failed (terminal).
	StatusFailed Status = "failed"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusProcessed, StatusFailed:
		return true
	}
	return false
}

// Terminal reports whether the status admits no further transitions.
func (s Status) Terminal() bool {
	return s == StatusProcessed || s == StatusFailed
}

// CanTransition reports whether the lifecycle permits moving to next.
// Allowed: pending -> processing -> {processed, failed}.
func (s Status) CanTransition(next Status) bool {
	switch s {
	case StatusPending:
		return next == StatusProcessing
	case StatusProcessing:
		return next == StatusProcessed || next == StatusFailed
	}
	return false
}

// Document is an uploaded course material tracked through ingestion.
type Document struct {
	ID            string
	Title         string
	FileName      string
	FileType      string // lowercase extension without the dot
	Size          int64
	StoragePath   string
	ProgramID     string
	CourseID      string
	UploadedBy    string
	UploadedAt    time.Time
	Status        Status
	ChunkCount    int
	FailureReason string // set only when Status == failed
}

// Chunk is a bounded span of a document's extracted text, the unit of
// retrieval. Scope fields are denormalized from the owning document so the
// retriever can filter without extra lookups.
type Chunk struct {
	ID            string
	DocumentID    string
	Index         int
	Content       string
	ProgramID     string
	CourseID      string
	DocumentTitle string
	Embedding     []float32 // nil when the provider was unavailable at ingest time
}

// HasEmbedding reports whether the chunk is semantically searchable.
func (c *Chunk) HasEmbedding() bool {
	return len(c.Embedding) > 0
}

// DocumentFilter narrows a document listing. Empty fields match everything.
type DocumentFilter struct {
	ProgramID string
	CourseID  string
	Status    Status
	Search    string // case-insensitive substring against title, file name and scope IDs
}

// Matches reports whether doc satisfies every set filter field.
func (f *DocumentFilter) Matches(doc *Document) bool {
	if f.ProgramID != "" && doc.ProgramID != f.ProgramID {
		return false
	}
	if f.CourseID != "" && doc.CourseID != f.CourseID {
		return false
	}
	if f.Status != "" && doc.Status != f.Status {
		return false
	}
	if f.Search != "" {
		q := strings.ToLower(f.Search)
		if !strings.Contains(strings.ToLower(doc.Title), q) &&
			!strings.Contains(strings.ToLower(doc.FileName), q) &&
			!strings.Contains(strings.ToLower(doc.CourseID), q) &&
			!strings.Contains(strings.ToLower(doc.ProgramID), q) {
			return false
		}
	}
	return true
}

// Source identifies a document cited in a chat answer.
type Source struct {
	ID    string
	Title string
}
