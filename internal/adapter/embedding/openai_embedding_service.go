package embedding

import (
	"fmt"
	"net/http"
	"time"

	"queryly/internal/config"
	"queryly/internal/domain"

	"github.com/tmc/langchaingo/embeddings"
	openaiLLM "github.com/tmc/langchaingo/llms/openai"
)

// NewOpenAIEmbeddingService builds an embedding service backed by the OpenAI
// embeddings endpoint (or any compatible server when BaseURL is set).
func NewOpenAIEmbeddingService(cfg config.OpenAIEmbeddingConfig, timeout time.Duration, cache domain.Cache, cacheTTL time.Duration) (*LangchainEmbeddingService, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai API key cannot be empty")
	}
	modelName := cfg.Model
	if modelName == "" {
		modelName = "text-embedding-ada-002"
	}

	opts := []openaiLLM.Option{
		openaiLLM.WithToken(cfg.APIKey),
		openaiLLM.WithEmbeddingModel(modelName),
		openaiLLM.WithHTTPClient(&http.Client{Timeout: timeout}),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, openaiLLM.WithBaseURL(cfg.BaseURL))
	}
	llm, err := openaiLLM.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create LangchainGo OpenAI LLM client for embedder: %w", err)
	}

	embedder, err := embeddings.NewEmbedder(llm)
	if err != nil {
		return nil, fmt.Errorf("failed to create generic embedder from OpenAI LLM: %w", err)
	}

	return NewLangchainEmbeddingService(embedder, "openai", modelName, cache, cacheTTL)
}
