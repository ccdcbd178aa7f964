package llm

import (
	"fmt"
	"net/http"

	"queryly/internal/config"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"
)

// Models holds one chat model per capability. The same client may back
// several capabilities when their model names match.
type Models struct {
	Router llms.Model
	Quiz   llms.Model
	SQL    llms.Model
	RAG    llms.Model
}

// NewModels builds the per-capability chat models described by cfg.
func NewModels(cfg config.LLMConfig) (*Models, error) {
	built := make(map[string]llms.Model)
	get := func(modelName string) (llms.Model, error) {
		if m, ok := built[modelName]; ok {
			return m, nil
		}
		m, err := NewModel(cfg, modelName)
		if err != nil {
			return nil, err
		}
		built[modelName] = m
		return m, nil
	}

	router, err := get(cfg.RouterModel)
	if err != nil {
		return nil, err
	}
	quiz, err := get(cfg.QuizModel)
	if err != nil {
		return nil, err
	}
	sql, err := get(cfg.SQLModel)
	if err != nil {
		return nil, err
	}
	rag, err := get(cfg.RAGModel)
	if err != nil {
		return nil, err
	}
	return &Models{Router: router, Quiz: quiz, SQL: sql, RAG: rag}, nil
}

// NewModel creates a chat model client for modelName on the configured provider.
func NewModel(cfg config.LLMConfig, modelName string) (llms.Model, error) {
	if modelName == "" {
		return nil, fmt.Errorf("model name cannot be empty")
	}
	httpClient := &http.Client{Timeout: cfg.Timeout}

	switch cfg.Provider {
	case "openai":
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("openai API key cannot be empty")
		}
		opts := []openai.Option{
			openai.WithToken(cfg.APIKey),
			openai.WithModel(modelName),
			openai.WithHTTPClient(httpClient),
		}
		if cfg.BaseURL != "" {
			opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
		}
		client, err := openai.New(opts...)
		if err != nil {
			return nil, fmt.Errorf("failed to create OpenAI client for %s: %w", modelName, err)
		}
		return client, nil
	case "ollama":
		if cfg.BaseURL == "" {
			return nil, fmt.Errorf("ollama server URL cannot be empty")
		}
		client, err := ollama.New(
			ollama.WithServerURL(cfg.BaseURL),
			ollama.WithModel(modelName),
			ollama.WithHTTPClient(httpClient),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create Ollama client for %s: %w", modelName, err)
		}
		return client, nil
	default:
		return nil, fmt.Errorf("unsupported llm provider: %q", cfg.Provider)
	}
}
