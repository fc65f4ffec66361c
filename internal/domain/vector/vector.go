// Package vector provides the similarity math used by the retriever.
package vector

import (
	"math"
	"sort"
)

// Similarity pairs a candidate index with its score in [-1, 1].
type Similarity struct {
	Index int
	Score float64
}

// Cosine computes cosine similarity between two vectors. Returns 0 when
// either vector is empty, the dimensions mismatch, or either norm is zero.
func Cosine(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// TopK scores every candidate against the query and returns at most k
// index/score pairs ordered by descending score. Candidates without an
// embedding score 0. Ties keep input order (stable sort).
func TopK(query []float32, candidates [][]float32, k int) []Similarity {
	if k <= 0 || len(candidates) == 0 {
		return nil
	}

	scored := make([]Similarity, len(candidates))
	for i, c := range candidates {
		scored[i] = Similarity{Index: i, Score: Cosine(query, c)}
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	if k > len(scored) {
		k = len(scored)
	}
	return scored[:k]
}
