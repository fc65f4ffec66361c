package openai

import (
	"context"
	"errors"
	"fmt"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/innovorex/campuskb/internal/domain"
	"github.com/innovorex/campuskb/internal/metrics"
)

// ChatClient is a chat completion provider using an OpenAI-compatible API.
// Model selection per request is left to the caller, which drives the
// fallback chain.
type ChatClient struct {
	client *openai.Client
	logger *zap.Logger
}

// ChatConfig holds the completion provider settings.
type ChatConfig struct {
	APIKey  string
	BaseURL string
	Logger  *zap.Logger
}

// NewChatClient creates an OpenAI-compatible chat completion provider.
func NewChatClient(cfg *ChatConfig) *ChatClient {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	return &ChatClient{
		client: openai.NewClientWithConfig(clientCfg),
		logger: cfg.Logger,
	}
}

// Complete implements domain.Completer.
func (c *ChatClient) Complete(ctx context.Context, model string, messages []domain.PromptMessage) (string, error) {
	req := openai.ChatCompletionRequest{
		Model:    model,
		Messages: toChatMessages(messages),
	}

	start := time.Now()
	resp, err := c.client.CreateChatCompletion(ctx, req)
	duration := time.Since(start)

	if err != nil {
		metrics.CompletionAttemptsTotal.WithLabelValues(model, "error").Inc()
		return "", parseCompletionError(err)
	}
	if len(resp.Choices) == 0 {
		metrics.CompletionAttemptsTotal.WithLabelValues(model, "error").Inc()
		return "", errors.New("completion response has no choices")
	}

	metrics.CompletionAttemptsTotal.WithLabelValues(model, "success").Inc()
	c.logger.Debug("completion succeeded",
		zap.String("model", model),
		zap.Duration("duration", duration),
		zap.Int("total_tokens", resp.Usage.TotalTokens),
	)

	return resp.Choices[0].Message.Content, nil
}

func toChatMessages(messages []domain.PromptMessage) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, len(messages))
	for i, m := range messages {
		out[i] = openai.ChatCompletionMessage{
			Role:    string(m.Role),
			Content: m.Content,
		}
	}
	return out
}

func parseCompletionError(err error) error {
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return fmt.Errorf("completion API error %d: %s",
			reqErr.HTTPStatusCode, string(reqErr.Body))
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("completion API error %d: %s",
			apiErr.HTTPStatusCode, apiErr.Message)
	}

	return fmt.Errorf("completion request failed: %w", err)
}
