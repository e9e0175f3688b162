package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"

	"docqa/internal/config"
)

// Retry classification for model failures. The orchestrator retries
// ErrRateLimited and ErrTransient with backoff; anything else is fatal for
// the affected question.
var (
	ErrRateLimited = errors.New("model rate limited")
	ErrTransient   = errors.New("transient model failure")
)

// Client turns a prompt into a completion. Implementations are long-lived
// and shared across requests; the core never reconfigures them.
type Client interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Retryable reports whether the orchestrator may retry after err.
func Retryable(err error) bool {
	return errors.Is(err, ErrRateLimited) || errors.Is(err, ErrTransient)
}

// LangchainClient is a Client over a langchaingo chat model.
type LangchainClient struct {
	model llms.Model
}

// NewClient builds the generation client from config. The provider selects
// the backend; "openai" also covers OpenAI-compatible gateways.
func NewClient(cfg *config.LLMConfig) (*LangchainClient, error) {
	var (
		model llms.Model
		err   error
	)
	switch cfg.Provider {
	case "ollama":
		model, err = ollama.New(
			ollama.WithServerURL(cfg.BaseURL),
			ollama.WithModel(cfg.Model),
		)
	default:
		model, err = openai.New(
			openai.WithBaseURL(cfg.BaseURL),
			openai.WithToken(strings.TrimPrefix(cfg.Key, "Bearer ")),
			openai.WithModel(cfg.Model),
		)
	}
	if err != nil {
		return nil, fmt.Errorf("initializing llm client: %w", err)
	}
	return &LangchainClient{model: model}, nil
}

func (c *LangchainClient) Complete(ctx context.Context, prompt string) (string, error) {
	messages := []llms.MessageContent{
		{
			Role:  llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{llms.TextContent{Text: prompt}},
		},
	}
	resp, err := c.model.GenerateContent(ctx, messages)
	if err != nil {
		return "", classify(err)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Content == "" {
		return "", fmt.Errorf("%w: empty completion", ErrTransient)
	}
	return resp.Choices[0].Content, nil
}

// classify maps backend errors onto the retry taxonomy. langchaingo
// surfaces HTTP failures as flat error strings, so this matches on status
// codes and well-known phrases.
func classify(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "429"), strings.Contains(msg, "rate limit"), strings.Contains(msg, "quota"):
		return fmt.Errorf("%w: %v", ErrRateLimited, err)
	case strings.Contains(msg, "timeout"),
		strings.Contains(msg, "connection"),
		strings.Contains(msg, "temporarily unavailable"),
		strings.Contains(msg, "500"),
		strings.Contains(msg, "502"),
		strings.Contains(msg, "503"):
		return fmt.Errorf("%w: %v", ErrTransient, err)
	}
	return err
}
