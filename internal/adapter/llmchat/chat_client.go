package llmchat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"rag-harness/internal/domain"
)

// ChatClient wraps an OpenAI-compatible chat completion endpoint behind
// the domain.ChatCompleter interface.
type ChatClient struct {
	client *openai.Client
	model  string
	logger *slog.Logger
}

func NewChatClient(apiKey, baseURL, model string, httpClient *http.Client, logger *slog.Logger) *ChatClient {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = strings.TrimRight(baseURL, "/")
	}
	if httpClient != nil {
		cfg.HTTPClient = httpClient
	}

	return &ChatClient{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
		logger: logger,
	}
}

var _ domain.ChatCompleter = (*ChatClient)(nil)

func (c *ChatClient) Complete(ctx context.Context, system, user string, temperature float32) (string, error) {
	start := time.Now()

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Temperature: temperature,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
	})
	if err != nil {
		return "", fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("chat completion returned no choices")
	}

	c.logger.Debug("chat_completion_finished",
		slog.String("model", c.model),
		slog.Duration("elapsed", time.Since(start)))

	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
