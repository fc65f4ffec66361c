package domain

import "errors"

var (
	// ErrDocumentNotFound signals a missing document.
	ErrDocumentNotFound = errors.New("document not found")
	// ErrUnsupportedFormat signals a file format the pipeline cannot extract.
	ErrUnsupportedFormat = errors.New("unsupported file format")
	// ErrFileTooLarge signals an upload exceeding the size cap.
	ErrFileTooLarge = errors.New("file too large")
	// ErrInvalidRequest signals malformed or incomplete request data.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrInvalidTransition signals an illegal document status transition.
	ErrInvalidTransition = errors.New("invalid status transition")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
	// ErrCompletionExhausted signals that every completion model failed.
	ErrCompletionExhausted = errors.New("all completion models failed")
	// ErrDimensionMismatch signals persisted vectors with a different
	// dimensionality than the configured embedding model produces.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
)
