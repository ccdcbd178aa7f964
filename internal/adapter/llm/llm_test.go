package llm

import (
	"testing"

	"queryly/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"
)

func TestExtractJSONObject(t *testing.T) {
	tests := []struct {
		name   string
		raw    string
		want   string
		wantOK bool
	}{
		{"bare object", `{"a":1}`, `{"a":1}`, true},
		{"fenced", "```json\n{\"a\":1}\n```", `{"a":1}`, true},
		{"thinking block", "<think>maybe {x}</think>\n{\"a\":1}", `{"a":1}`, true},
		{"nested", `prefix {"a":{"b":2}} suffix`, `{"a":{"b":2}}`, true},
		{"no object", "SELECT * FROM t", "", false},
		{"reversed braces", "} {", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ExtractJSONObject(tt.raw)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestStripThinking(t *testing.T) {
	assert.Equal(t, "answer", StripThinking("<think>reasoning</think> answer"))
	assert.Equal(t, "<think>unterminated", StripThinking("<think>unterminated"))
	assert.Equal(t, "plain", StripThinking("  plain  "))
}

func TestFirstChoice(t *testing.T) {
	_, err := FirstChoice(nil)
	assert.ErrorIs(t, err, ErrEmptyResponse)

	_, err = FirstChoice(&llms.ContentResponse{})
	assert.ErrorIs(t, err, ErrEmptyResponse)

	choice, err := FirstChoice(&llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: "hi"}}})
	require.NoError(t, err)
	assert.Equal(t, "hi", choice.Content)
}

func TestNewModel(t *testing.T) {
	t.Run("empty model name", func(t *testing.T) {
		_, err := NewModel(config.LLMConfig{Provider: "openai", APIKey: "k"}, "")
		assert.Error(t, err)
	})

	t.Run("openai without key", func(t *testing.T) {
		_, err := NewModel(config.LLMConfig{Provider: "openai"}, "gpt-4")
		assert.ErrorContains(t, err, "API key")
	})

	t.Run("unknown provider", func(t *testing.T) {
		_, err := NewModel(config.LLMConfig{Provider: "gemini"}, "m")
		assert.ErrorContains(t, err, "unsupported")
	})

	t.Run("openai", func(t *testing.T) {
		m, err := NewModel(config.LLMConfig{Provider: "openai", APIKey: "k", BaseURL: "http://localhost:1/v1"}, "gpt-4")
		require.NoError(t, err)
		assert.NotNil(t, m)
	})
}

func TestNewModels_SharesClientsByName(t *testing.T) {
	cfg := config.LLMConfig{
		Provider:    "openai",
		APIKey:      "k",
		RouterModel: "gpt-4",
		QuizModel:   "gpt-4o",
		SQLModel:    "gpt-4o",
		RAGModel:    "gpt-4",
	}
	models, err := NewModels(cfg)
	require.NoError(t, err)
	assert.Same(t, models.Router, models.RAG)
	assert.Same(t, models.Quiz, models.SQL)
	assert.NotSame(t, models.Router, models.Quiz)
}
