// Package stats summarizes the knowledge base for the admin dashboard.
package stats

import (
	"context"
	"fmt"

	"github.com/innovorex/campuskb/internal/domain"
)

// Repository provides the document inventory.
type Repository interface {
	List(ctx context.Context, filter domain.DocumentFilter) ([]domain.Document, error)
	CountChunks(ctx context.Context) (int64, error)
}

// SessionCounter reports live chat sessions.
type SessionCounter interface {
	ActiveCount() int
}

// Summary is the knowledge base snapshot.
type Summary struct {
	Documents      int64
	Chunks         int64
	ByStatus       map[domain.Status]int64
	ByProgram      map[string]int64
	ByCourse       map[string]int64
	ActiveSessions int
}

// Service computes knowledge base statistics.
type Service struct {
	repo     Repository
	sessions SessionCounter
}

// New creates a stats service.
func New(repo Repository, sessions SessionCounter) *Service {
	return &Service{repo: repo, sessions: sessions}
}

// Summarize builds the current snapshot. Grouping runs over the full
// document list, which is small for a single school.
func (s *Service) Summarize(ctx context.Context) (Summary, error) {
	docs, err := s.repo.List(ctx, domain.DocumentFilter{})
	if err != nil {
		return Summary{}, fmt.Errorf("list documents: %w", err)
	}

	chunks, err := s.repo.CountChunks(ctx)
	if err != nil {
		return Summary{}, fmt.Errorf("count chunks: %w", err)
	}

	summary := Summary{
		Documents:      int64(len(docs)),
		Chunks:         chunks,
		ByStatus:       make(map[domain.Status]int64),
		ByProgram:      make(map[string]int64),
		ByCourse:       make(map[string]int64),
		ActiveSessions: s.sessions.ActiveCount(),
	}
	for _, d := range docs {
		summary.ByStatus[d.Status]++
		if d.ProgramID != "" {
			summary.ByProgram[d.ProgramID]++
		}
		if d.CourseID != "" {
			summary.ByCourse[d.CourseID]++
		}
	}
	return summary, nil
}
