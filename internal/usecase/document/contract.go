package document

import (
	"context"

	"github.com/innovorex/campuskb/internal/domain"
)

// Repository defines the storage contract for documents.
type Repository interface {
	Create(ctx context.Context, doc *domain.Document) error
	Get(ctx context.Context, id string) (domain.Document, error)
	List(ctx context.Context, filter domain.DocumentFilter) ([]domain.Document, error)
	Delete(ctx context.Context, id string) error
}

// Ingester starts background processing of an uploaded document.
type Ingester interface {
	IngestAsync(docID string)
}
