package agent

import (
	"context"

	"queryly/internal/adapter/llm"
	"queryly/internal/domain"

	"github.com/tmc/langchaingo/llms"
)

// ToolRequest is the model's request to run one tool.
type ToolRequest struct {
	ID        string
	Name      string
	Arguments string
}

// Decision is the outcome of one selection step: either a reply text or a
// tool request.
type Decision struct {
	Text string
	Tool *ToolRequest
}

// Selector picks how a turn is handled.
type Selector interface {
	Decide(ctx context.Context, messages []llms.MessageContent, tools []llms.Tool) (*Decision, error)
}

// Phraser turns a conversation that ends in a tool result into the final reply.
type Phraser interface {
	Phrase(ctx context.Context, messages []llms.MessageContent) (string, error)
}

// LLMSelector delegates selection and phrasing to a tool-calling chat model.
type LLMSelector struct {
	model llms.Model
}

func NewLLMSelector(model llms.Model) *LLMSelector {
	return &LLMSelector{model: model}
}

func (s *LLMSelector) Decide(ctx context.Context, messages []llms.MessageContent, tools []llms.Tool) (*Decision, error) {
	resp, err := s.model.GenerateContent(ctx, messages, llms.WithTools(tools))
	if err != nil {
		return nil, domain.NewModelCallError("failed to route request", err)
	}
	choice, err := llm.FirstChoice(resp)
	if err != nil {
		return nil, domain.NewModelCallError("failed to route request", err)
	}
	if len(choice.ToolCalls) > 0 {
		call := choice.ToolCalls[0]
		if call.FunctionCall == nil {
			return nil, domain.NewModelCallError("model requested a tool without a function call", nil)
		}
		return &Decision{Tool: &ToolRequest{
			ID:        call.ID,
			Name:      call.FunctionCall.Name,
			Arguments: call.FunctionCall.Arguments,
		}}, nil
	}
	return &Decision{Text: choice.Content}, nil
}

func (s *LLMSelector) Phrase(ctx context.Context, messages []llms.MessageContent) (string, error) {
	resp, err := s.model.GenerateContent(ctx, messages)
	if err != nil {
		return "", domain.NewModelCallError("failed to phrase tool result", err)
	}
	choice, err := llm.FirstChoice(resp)
	if err != nil {
		return "", domain.NewModelCallError("failed to phrase tool result", err)
	}
	return choice.Content, nil
}
