package domain

import "context"

// RoleSystem marks an instruction message sent to the model, never stored
// in a session.
const RoleSystem Role = "system"

// PromptMessage is a single message of a model prompt.
type PromptMessage struct {
	Role    Role
	Content string
}

// Completer produces a chat completion from one named model. The chat
// orchestrator walks an ordered model list, treating any error as a signal
// to try the next model.
type Completer interface {
	Complete(ctx context.Context, model string, messages []PromptMessage) (string, error)
}
