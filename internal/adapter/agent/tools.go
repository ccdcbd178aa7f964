package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"queryly/internal/adapter/quizgen"
	"queryly/internal/domain"

	"github.com/tmc/langchaingo/llms"
)

// ToolOutput is what a tool hands back to the router. Text goes to the model;
// Display, when set, is shown to the user if the model does not rephrase it.
type ToolOutput struct {
	Text    string
	Display string
	Quiz    *domain.Quiz
}

type parameterProperty struct {
	Type        string
	Description string
}

// Tool is one member of the router's closed tool set.
type Tool struct {
	Kind        domain.ToolKind
	Description string
	Parameters  map[string]any
	invoke      func(ctx context.Context, args map[string]string, documentText string) (*ToolOutput, error)
	required    []string
}

func newTool(kind domain.ToolKind, description string, properties map[string]parameterProperty, required []string,
	invoke func(ctx context.Context, args map[string]string, documentText string) (*ToolOutput, error)) Tool {
	props := make(map[string]any, len(properties))
	for name, p := range properties {
		props[name] = map[string]any{
			"type":        p.Type,
			"description": p.Description,
		}
	}
	return Tool{
		Kind:        kind,
		Description: description,
		Parameters: map[string]any{
			"type":       "object",
			"properties": props,
			"required":   required,
		},
		invoke:   invoke,
		required: required,
	}
}

// Definition returns the tool in the shape the model API expects.
func (t Tool) Definition() llms.Tool {
	return llms.Tool{
		Type: "function",
		Function: &llms.FunctionDefinition{
			Name:        string(t.Kind),
			Description: t.Description,
			Parameters:  t.Parameters,
		},
	}
}

// Invoke decodes the model-supplied JSON arguments and runs the tool once.
// Undecodable arguments or missing required ones are MODEL_CALL_FAILURE;
// errors from the capability itself are returned unchanged.
func (t Tool) Invoke(ctx context.Context, arguments string, documentText string) (*ToolOutput, error) {
	args, err := decodeArguments(arguments)
	if err != nil {
		return nil, domain.NewModelCallError(fmt.Sprintf("model sent malformed arguments for %s", t.Kind), err)
	}
	for _, name := range t.required {
		if strings.TrimSpace(args[name]) == "" {
			return nil, domain.NewModelCallError(fmt.Sprintf("model omitted required argument %q for %s", name, t.Kind), nil)
		}
	}
	return t.invoke(ctx, args, documentText)
}

func decodeArguments(arguments string) (map[string]string, error) {
	if strings.TrimSpace(arguments) == "" {
		return map[string]string{}, nil
	}
	var raw map[string]any
	if err := json.Unmarshal([]byte(arguments), &raw); err != nil {
		return nil, err
	}
	args := make(map[string]string, len(raw))
	for k, v := range raw {
		switch val := v.(type) {
		case string:
			args[k] = val
		case nil:
		default:
			return nil, fmt.Errorf("argument %q must be a string, got %T", k, v)
		}
	}
	return args, nil
}

// Toolset is the fixed set of tools offered to the model.
type Toolset struct {
	tools []Tool
}

func NewToolset(quiz domain.QuizSynthesizer, sql domain.SQLTranslator, rag domain.RetrievalAnswerer) *Toolset {
	return &Toolset{tools: []Tool{
		newTool(domain.ToolQuizGenerator,
			"Takes an SQL topic from the user and generates a multiple-choice quiz to help them practise it.",
			map[string]parameterProperty{
				"topic": {Type: "string", Description: "The SQL topic the quiz should cover"},
			},
			[]string{"topic"},
			func(ctx context.Context, args map[string]string, _ string) (*ToolOutput, error) {
				q, err := quiz.Synthesize(ctx, args["topic"])
				if err != nil {
					return nil, err
				}
				text, err := quizgen.MarshalQuiz(q)
				if err != nil {
					return nil, domain.NewInternalError("failed to encode quiz", err)
				}
				return &ToolOutput{Text: text, Display: RenderQuiz(q), Quiz: q}, nil
			}),
		newTool(domain.ToolNLPToSQL,
			"Takes the user's natural-language request and converts it into an SQL query.",
			map[string]parameterProperty{
				"user_query": {Type: "string", Description: "The request in plain language, including any table information the user gave"},
			},
			[]string{"user_query"},
			func(ctx context.Context, args map[string]string, _ string) (*ToolOutput, error) {
				out, err := sql.Translate(ctx, args["user_query"])
				if err != nil {
					return nil, err
				}
				return &ToolOutput{Text: out}, nil
			}),
		newTool(domain.ToolRAGFAQ,
			"Takes a document and a query and answers the query using only that document. Use it whenever the user's message carries document context.",
			map[string]parameterProperty{
				"document": {Type: "string", Description: "The document text. May be omitted when the user attached a document to this message"},
				"query":    {Type: "string", Description: "The question to answer from the document"},
			},
			[]string{"query"},
			func(ctx context.Context, args map[string]string, documentText string) (*ToolOutput, error) {
				doc := args["document"]
				if strings.TrimSpace(doc) == "" {
					doc = documentText
				}
				out, err := rag.Answer(ctx, doc, args["query"])
				if err != nil {
					return nil, err
				}
				return &ToolOutput{Text: out}, nil
			}),
	}}
}

// Lookup finds a tool by the name the model used.
func (s *Toolset) Lookup(name string) (Tool, bool) {
	for _, t := range s.tools {
		if string(t.Kind) == name {
			return t, true
		}
	}
	return Tool{}, false
}

func (s *Toolset) Definitions() []llms.Tool {
	defs := make([]llms.Tool, 0, len(s.tools))
	for _, t := range s.tools {
		defs = append(defs, t.Definition())
	}
	return defs
}
