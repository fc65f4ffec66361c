// Package retrieve ranks stored chunks against a question. Semantic cosine
// ranking when embeddings are available, keyword overlap otherwise, so
// retrieval degrades instead of failing when the provider is down or a
// document predates embedding support.
package retrieve

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/innovorex/campuskb/internal/domain"
	"github.com/innovorex/campuskb/internal/domain/vector"
)

// DefaultTopK bounds the context block when the caller passes no k.
const DefaultTopK = 3

// Service ranks chunks for a query within a course scope.
type Service struct {
	chunks   ChunkReader
	embedder Embedder
	logger   *zap.Logger
}

// New creates a retrieval service.
func New(chunks ChunkReader, embedder Embedder, logger *zap.Logger) *Service {
	return &Service{chunks: chunks, embedder: embedder, logger: logger}
}

// Retrieve returns the top-k chunks for the query, scoped to courseID.
// An empty scope yields an empty result, never an error.
func (s *Service) Retrieve(ctx context.Context, query, courseID string, k int) ([]domain.Chunk, error) {
	if k <= 0 {
		k = DefaultTopK
	}

	candidates, err := s.chunks.ChunksByScope(ctx, courseID)
	if err != nil {
		return nil, fmt.Errorf("load chunks: %w", err)
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	embedded := false
	for i := range candidates {
		if candidates[i].HasEmbedding() {
			embedded = true
			break
		}
	}

	if embedded {
		result, err := s.embedder.Embed(ctx, query)
		if err == nil && len(result.Embedding) > 0 {
			return rankSemantic(result.Embedding, candidates, k), nil
		}
		s.logger.Warn("Query embedding unavailable, falling back to keyword ranking",
			zap.String("course_id", courseID),
			zap.Error(err),
		)
	}

	return rankKeyword(query, candidates, k), nil
}

// rankSemantic ranks by cosine similarity, restricted to chunks that carry
// an embedding.
func rankSemantic(query []float32, candidates []domain.Chunk, k int) []domain.Chunk {
	idx := make([]int, 0, len(candidates))
	vectors := make([][]float32, 0, len(candidates))
	for i := range candidates {
		if candidates[i].HasEmbedding() {
			idx = append(idx, i)
			vectors = append(vectors, candidates[i].Embedding)
		}
	}

	ranked := vector.TopK(query, vectors, k)
	out := make([]domain.Chunk, 0, len(ranked))
	for _, r := range ranked {
		out = append(out, candidates[idx[r.Index]])
	}
	return out
}

// rankKeyword scores each chunk by how many query words appear as
// substrings of its lowercased text. Stable sort keeps input order on ties.
func rankKeyword(query string, candidates []domain.Chunk, k int) []domain.Chunk {
	words := strings.Fields(strings.ToLower(query))
	if len(words) == 0 {
		return nil
	}

	type scored struct {
		chunk domain.Chunk
		score int
	}
	items := make([]scored, len(candidates))
	for i := range candidates {
		content := strings.ToLower(candidates[i].Content)
		score := 0
		for _, w := range words {
			if strings.Contains(content, w) {
				score++
			}
		}
		items[i] = scored{chunk: candidates[i], score: score}
	}

	sort.SliceStable(items, func(a, b int) bool {
		return items[a].score > items[b].score
	})

	if k > len(items) {
		k = len(items)
	}
	out := make([]domain.Chunk, 0, k)
	for _, it := range items[:k] {
		if it.score == 0 {
			continue
		}
		out = append(out, it.chunk)
	}
	return out
}
