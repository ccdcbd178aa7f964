package agent

import (
	"context"
	"fmt"
	"strings"

	"queryly/internal/domain"
	"queryly/internal/logger"
	"queryly/internal/util"

	"github.com/tmc/langchaingo/llms"
	"go.uber.org/zap"
)

// Router answers one user turn. It asks the selector for a single decision:
// a direct reply, a refusal, or one tool call. A requested tool runs exactly
// once and its result is phrased by one more model call. Nothing is kept
// between calls.
type Router struct {
	selector Selector
	phraser  Phraser
	tools    *Toolset
}

// NewRouter wires the router. A nil phraser returns tool output verbatim.
func NewRouter(selector Selector, phraser Phraser, tools *Toolset) *Router {
	return &Router{selector: selector, phraser: phraser, tools: tools}
}

// ComposeTurn folds an attached document into the user's text.
func ComposeTurn(userText, documentText string) string {
	if documentText == "" {
		return userText
	}
	return userText + documentContextPrefix + documentText
}

func (r *Router) Route(ctx context.Context, history []domain.Message, userText, documentText string) (*domain.RouteResult, error) {
	if strings.TrimSpace(userText) == "" {
		return nil, domain.NewInvalidInputError("message is empty")
	}
	l := logger.Get()

	messages := make([]llms.MessageContent, 0, len(history)+2)
	messages = append(messages, llms.TextParts(llms.ChatMessageTypeSystem, systemPrompt))
	for _, m := range history {
		role := llms.ChatMessageTypeHuman
		if m.Role == domain.RoleAssistant {
			role = llms.ChatMessageTypeAI
		}
		messages = append(messages, llms.TextParts(role, m.Content))
	}
	messages = append(messages, llms.TextParts(llms.ChatMessageTypeHuman, ComposeTurn(userText, documentText)))

	decision, err := r.selector.Decide(ctx, messages, r.tools.Definitions())
	if err != nil {
		return nil, err
	}

	if decision.Tool == nil {
		if strings.TrimSpace(decision.Text) == "" {
			return nil, domain.NewModelCallError("model returned an empty reply", nil)
		}
		l.Info("Answered without a tool", zap.Int("historyMessages", len(history)))
		return &domain.RouteResult{Text: decision.Text, Tool: domain.ToolNone}, nil
	}

	req := decision.Tool
	tool, ok := r.tools.Lookup(req.Name)
	if !ok {
		return nil, domain.NewModelCallError(fmt.Sprintf("model requested unknown tool %q", req.Name), nil)
	}
	l.Info("Invoking tool", zap.String("tool", string(tool.Kind)))

	out, err := tool.Invoke(ctx, req.Arguments, documentText)
	if err != nil {
		l.Warn("Tool failed", zap.String("tool", string(tool.Kind)), zap.Error(err))
		return nil, err
	}

	result := &domain.RouteResult{Tool: tool.Kind, Quiz: out.Quiz, Text: out.Display}
	if result.Text == "" {
		result.Text = out.Text
	}
	if r.phraser == nil {
		return nonEmpty(result)
	}

	callID := req.ID
	if callID == "" {
		callID = "call_" + util.NewULID()
	}
	messages = append(messages,
		llms.MessageContent{
			Role: llms.ChatMessageTypeAI,
			Parts: []llms.ContentPart{llms.ToolCall{
				ID:   callID,
				Type: "function",
				FunctionCall: &llms.FunctionCall{
					Name:      req.Name,
					Arguments: req.Arguments,
				},
			}},
		},
		llms.MessageContent{
			Role: llms.ChatMessageTypeTool,
			Parts: []llms.ContentPart{llms.ToolCallResponse{
				ToolCallID: callID,
				Name:       req.Name,
				Content:    out.Text,
			}},
		},
	)

	phrased, err := r.phraser.Phrase(ctx, messages)
	if err != nil {
		l.Warn("Phrasing tool result failed, returning tool output", zap.String("tool", string(tool.Kind)), zap.Error(err))
		return nonEmpty(result)
	}
	if strings.TrimSpace(phrased) != "" {
		result.Text = phrased
	}
	return nonEmpty(result)
}

// nonEmpty rejects a routed reply with no text; an exchange is never recorded
// with a blank assistant half.
func nonEmpty(result *domain.RouteResult) (*domain.RouteResult, error) {
	if strings.TrimSpace(result.Text) == "" {
		return nil, domain.NewModelCallError("model returned an empty reply", nil)
	}
	return result, nil
}
