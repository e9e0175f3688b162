package embedding

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"

	"docqa/internal/config"
)

// ErrUnavailable means the embedding backend could not be reached. This is
// fatal for the whole request: retrieval cannot rank anything without
// embeddings, and a zero-vector fallback would silently corrupt ranking.
var ErrUnavailable = errors.New("embedding backend unavailable")

// Provider maps text to fixed-dimension dense vectors. Implementations must
// be deterministic for identical input so retrieval stays reproducible.
type Provider interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	// EmbedBatch is order-preserving and returns one vector per input text.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// LangchainProvider adapts a langchaingo embedder to the Provider contract.
type LangchainProvider struct {
	embedder *embeddings.EmbedderImpl
}

// NewOpenAIProvider builds a provider backed by an OpenAI-compatible
// embeddings endpoint (OpenRouter and friends included).
func NewOpenAIProvider(cfg *config.LLMConfig) (*LangchainProvider, error) {
	llm, err := openai.New(
		openai.WithBaseURL(cfg.BaseURL),
		openai.WithToken(strings.TrimPrefix(cfg.Key, "Bearer ")),
		openai.WithModel(cfg.Model),
	)
	if err != nil {
		return nil, fmt.Errorf("initializing embedding llm: %w", err)
	}
	embedder, err := embeddings.NewEmbedder(llm)
	if err != nil {
		return nil, fmt.Errorf("creating embedder: %w", err)
	}
	return &LangchainProvider{embedder: embedder}, nil
}

// NewOllamaProvider builds a provider backed by a local ollama server.
func NewOllamaProvider(cfg *config.LLMConfig) (*LangchainProvider, error) {
	llm, err := ollama.New(
		ollama.WithServerURL(cfg.BaseURL),
		ollama.WithModel(cfg.Model),
	)
	if err != nil {
		return nil, fmt.Errorf("initializing embedding llm: %w", err)
	}
	embedder, err := embeddings.NewEmbedder(llm)
	if err != nil {
		return nil, fmt.Errorf("creating embedder: %w", err)
	}
	return &LangchainProvider{embedder: embedder}, nil
}

func (p *LangchainProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	vec, err := p.embedder.EmbedQuery(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return vec, nil
}

func (p *LangchainProvider) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	vecs, err := p.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if len(vecs) != len(texts) {
		return nil, fmt.Errorf("%w: got %d vectors for %d texts", ErrUnavailable, len(vecs), len(texts))
	}
	return vecs, nil
}
