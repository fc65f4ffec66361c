// Package chat orchestrates a grounded conversation turn: classify the
// message, retrieve course material, build the prompt and walk an ordered
// model fallback list until one answers.
package chat

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/innovorex/campuskb/internal/domain"
	"github.com/innovorex/campuskb/internal/metrics"
)

// FallbackAnswer is returned when every configured model fails. Chat never
// surfaces an error status to the student.
const FallbackAnswer = "I'm sorry, I'm having trouble answering right now. Please try again in a moment."

// maxSources caps how many distinct documents a single answer cites.
const maxSources = 3

// Config tunes one chat service instance.
type Config struct {
	Models           []string
	AttemptTimeout   time.Duration
	MinResponseChars int
	HistoryMessages  int
	TopK             int
}

// Service handles one conversation turn end to end.
type Service struct {
	retriever Retriever
	completer Completer
	sessions  SessionStore
	cfg       Config
	logger    *zap.Logger
}

// New creates a chat service.
func New(retriever Retriever, completer Completer, sessions SessionStore, cfg Config, logger *zap.Logger) *Service {
	if cfg.AttemptTimeout <= 0 {
		cfg.AttemptTimeout = 30 * time.Second
	}
	if cfg.MinResponseChars <= 0 {
		cfg.MinResponseChars = 2
	}
	return &Service{
		retriever: retriever,
		completer: completer,
		sessions:  sessions,
		cfg:       cfg,
		logger:    logger,
	}
}

// Answer is the outcome of one chat turn.
type Answer struct {
	Text    string
	Sources []domain.Source
	Model   string // empty when the fallback answer was used
	Casual  bool
}

// Chat runs one turn: retrieval (unless casual), prompt construction,
// sequential model fallback, sanitization, session bookkeeping.
func (s *Service) Chat(ctx context.Context, sessionID, programID, courseID, message string) (Answer, error) {
	if strings.TrimSpace(message) == "" {
		return Answer{}, domain.ErrInvalidRequest
	}

	history := s.sessions.History(sessionID, s.cfg.HistoryMessages)

	casual := isCasual(message)

	var chunks []domain.Chunk
	if !casual {
		retrieved, err := s.retriever.Retrieve(ctx, message, courseID, s.cfg.TopK)
		if err != nil {
			// Retrieval failures degrade to the no-materials prompt
			// rather than failing the turn.
			s.logger.Warn("Retrieval failed",
				zap.String("program_id", programID),
				zap.String("course_id", courseID),
				zap.Error(err),
			)
		} else {
			chunks = retrieved
		}
	}

	prompt := buildPrompt(message, chunks, history, casual)
	text, model := s.completeWithFallback(ctx, prompt)

	answer := Answer{
		Text:   text,
		Model:  model,
		Casual: casual,
	}
	if !casual && model != "" {
		answer.Sources = collectSources(chunks)
	}

	now := time.Now().UTC()
	s.sessions.Append(sessionID,
		domain.ChatMessage{Role: domain.RoleUser, Content: message, CreatedAt: now},
		domain.ChatMessage{Role: domain.RoleAssistant, Content: answer.Text, CreatedAt: now},
	)

	return answer, nil
}

// completeWithFallback tries each configured model in order with its own
// timeout. Returns the first usable sanitized response and the model that
// produced it, or the fixed apology with an empty model name.
func (s *Service) completeWithFallback(ctx context.Context, prompt []domain.PromptMessage) (string, string) {
	for _, model := range s.cfg.Models {
		attemptCtx, cancel := context.WithTimeout(ctx, s.cfg.AttemptTimeout)
		raw, err := s.completer.Complete(attemptCtx, model, prompt)
		cancel()

		if err != nil {
			s.logger.Warn("Model attempt failed",
				zap.String("model", model),
				zap.Error(err),
			)
			continue
		}

		clean := sanitize(raw)
		if len(clean) < s.cfg.MinResponseChars {
			metrics.CompletionAttemptsTotal.WithLabelValues(model, "unusable").Inc()
			s.logger.Warn("Model returned unusable response",
				zap.String("model", model),
				zap.Int("length", len(clean)),
			)
			continue
		}

		return clean, model
	}

	metrics.CompletionExhaustedTotal.Inc()
	s.logger.Error("All models exhausted", zap.Int("models", len(s.cfg.Models)))
	return FallbackAnswer, ""
}

// collectSources returns the distinct documents behind the chunks, in
// ranked order, capped at maxSources.
func collectSources(chunks []domain.Chunk) []domain.Source {
	seen := make(map[string]bool, len(chunks))
	var sources []domain.Source
	for _, c := range chunks {
		if seen[c.DocumentID] {
			continue
		}
		seen[c.DocumentID] = true
		sources = append(sources, domain.Source{ID: c.DocumentID, Title: c.DocumentTitle})
		if len(sources) == maxSources {
			break
		}
	}
	return sources
}
