package domain

import "time"

// Role identifies the author of a chat message.
type Role string

const (
	// RoleUser marks a message written by the student.
	RoleUser Role = "user"
	// RoleAssistant marks a message produced by the model.
	RoleAssistant Role = "assistant"
)

// ChatMessage is a single utterance within a session.
type ChatMessage struct {
	Role      Role
	Content   string
	CreatedAt time.Time
}

// ChatSession is an in-memory conversation keyed by a client-supplied ID.
// Sessions are not durable; restarting the service discards them.
type ChatSession struct {
	ID         string
	Messages   []ChatMessage
	LastActive time.Time
}

// LastTurns returns at most n trailing messages, preserving order.
func (s *ChatSession) LastTurns(n int) []ChatMessage {
	if n <= 0 || len(s.Messages) <= n {
		return s.Messages
	}
	return s.Messages[len(s.Messages)-n:]
}
