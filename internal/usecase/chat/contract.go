package chat

import (
	"context"

	"github.com/innovorex/campuskb/internal/domain"
)

// Retriever ranks stored chunks against a question within a course scope.
type Retriever interface {
	Retrieve(ctx context.Context, query, courseID string, k int) ([]domain.Chunk, error)
}

// Completer calls one completion model.
type Completer interface {
	Complete(ctx context.Context, model string, messages []domain.PromptMessage) (string, error)
}

// SessionStore keeps per-session conversation history. History returns a
// snapshot of the bounded trailing window, safe to read without further
// synchronization.
type SessionStore interface {
	History(id string, n int) []domain.ChatMessage
	Append(id string, msgs ...domain.ChatMessage)
}
