package sqlgen

import (
	"context"
	"strings"

	"queryly/internal/adapter/llm"
	"queryly/internal/domain"
	"queryly/internal/logger"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/prompts"
	"go.uber.org/zap"
)

const instruction = `You are an expert SQL generator. The user may provide table information; if they don't, return a general query assuming a suitable table.
Only return the SQL query. Do not explain.`

const translateTemplate = "{{.schema}}\n\nQuestion: {{.question}}\nSQL:"

// Translator turns natural-language requests into SQL. The returned SQL is
// the model's text as-is and is never parsed or executed here.
type Translator struct {
	model  llms.Model
	prompt prompts.PromptTemplate
}

func NewTranslator(model llms.Model) *Translator {
	return &Translator{
		model:  model,
		prompt: prompts.NewPromptTemplate(translateTemplate, []string{"schema", "question"}),
	}
}

func (t *Translator) Translate(ctx context.Context, userRequest string) (string, error) {
	if strings.TrimSpace(userRequest) == "" {
		return "", domain.NewInvalidInputError("request text is empty")
	}

	prompt, err := t.prompt.Format(map[string]any{
		"schema":   instruction,
		"question": userRequest,
	})
	if err != nil {
		return "", domain.NewInternalError("failed to build SQL prompt", err)
	}

	resp, err := t.model.GenerateContent(ctx, []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeHuman, prompt),
	})
	if err != nil {
		logger.Get().Error("SQL translation model call failed", zap.Error(err))
		return "", domain.NewModelCallError("failed to translate request to SQL", err)
	}
	choice, err := llm.FirstChoice(resp)
	if err != nil {
		return "", domain.NewModelCallError("failed to translate request to SQL", err)
	}
	return strings.TrimSpace(choice.Content), nil
}
