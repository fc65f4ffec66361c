package ingest

import (
	"context"

	"github.com/innovorex/campuskb/internal/domain"
)

// Repository defines the storage contract for ingestion.
type Repository interface {
	Get(ctx context.Context, id string) (domain.Document, error)
	UpdateStatus(ctx context.Context, id string, status domain.Status, chunkCount int, failureReason string) error
	SaveChunks(ctx context.Context, chunks []domain.Chunk) error
}

// Extractor converts a stored file into plain text by format.
type Extractor interface {
	Extract(ctx context.Context, ext, path string) (string, error)
}

// Chunker splits plain text into bounded overlapping spans.
type Chunker interface {
	Split(text string) []string
}

// BatchEmbedder vectorizes chunk texts, preserving input order.
type BatchEmbedder interface {
	BatchEmbed(ctx context.Context, texts []string) ([][]float32, error)
}
