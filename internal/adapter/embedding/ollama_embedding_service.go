package embedding

import (
	"fmt"
	"net/http"
	"time"

	"queryly/internal/config"
	"queryly/internal/domain"

	"github.com/tmc/langchaingo/embeddings"
	ollamaLLM "github.com/tmc/langchaingo/llms/ollama"
)

// NewOllamaEmbeddingService builds an embedding service backed by a local Ollama server.
func NewOllamaEmbeddingService(cfg config.OllamaEmbeddingConfig, timeout time.Duration, cache domain.Cache, cacheTTL time.Duration) (*LangchainEmbeddingService, error) {
	if cfg.ServerURL == "" {
		return nil, fmt.Errorf("ollama server URL cannot be empty")
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("ollama model name cannot be empty")
	}

	llm, err := ollamaLLM.New(
		ollamaLLM.WithModel(cfg.Model),
		ollamaLLM.WithServerURL(cfg.ServerURL),
		ollamaLLM.WithHTTPClient(&http.Client{Timeout: timeout}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create LangchainGo Ollama LLM client for embedder: %w", err)
	}

	embedder, err := embeddings.NewEmbedder(llm)
	if err != nil {
		return nil, fmt.Errorf("failed to create generic embedder from Ollama LLM: %w", err)
	}

	return NewLangchainEmbeddingService(embedder, "ollama", cfg.Model, cache, cacheTTL)
}

// NewEmbeddingService selects the embedding backend named by cfg.Source.
func NewEmbeddingService(cfg config.EmbeddingConfig, timeout time.Duration, cache domain.Cache, cacheTTL time.Duration) (domain.EmbeddingService, error) {
	var (
		svc *LangchainEmbeddingService
		err error
	)
	switch cfg.Source {
	case "openai":
		svc, err = NewOpenAIEmbeddingService(cfg.OpenAI, timeout, cache, cacheTTL)
	case "ollama":
		svc, err = NewOllamaEmbeddingService(cfg.Ollama, timeout, cache, cacheTTL)
	default:
		return nil, fmt.Errorf("unsupported embedding source: %q", cfg.Source)
	}
	if err != nil {
		return nil, err
	}
	return svc, nil
}
