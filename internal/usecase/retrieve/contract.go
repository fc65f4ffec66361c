package retrieve

import (
	"context"

	"github.com/innovorex/campuskb/internal/domain"
)

// ChunkReader fetches the retrieval candidates for a course scope.
// An empty courseID means the whole corpus.
type ChunkReader interface {
	ChunksByScope(ctx context.Context, courseID string) ([]domain.Chunk, error)
}

// Embedder vectorizes the query text.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}
