// Package llmtest provides a scripted llms.Model for tests.
package llmtest

import (
	"context"
	"errors"
	"sync"

	"github.com/tmc/langchaingo/llms"
)

// Call is one recorded GenerateContent invocation.
type Call struct {
	Messages []llms.MessageContent
	Options  llms.CallOptions
}

// Step is the scripted outcome of one call.
type Step struct {
	Response *llms.ContentResponse
	Err      error
}

// ScriptedModel answers GenerateContent calls from a fixed script, in order,
// and records what it was asked.
type ScriptedModel struct {
	mu    sync.Mutex
	steps []Step
	calls []Call
}

func NewScriptedModel(steps ...Step) *ScriptedModel {
	return &ScriptedModel{steps: steps}
}

func (m *ScriptedModel) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	opts := llms.CallOptions{}
	for _, o := range options {
		o(&opts)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, Call{Messages: messages, Options: opts})
	if len(m.steps) == 0 {
		return nil, errors.New("llmtest: no scripted response left")
	}
	step := m.steps[0]
	m.steps = m.steps[1:]
	return step.Response, step.Err
}

func (m *ScriptedModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, m, prompt, options...)
}

// Push appends steps to the script.
func (m *ScriptedModel) Push(steps ...Step) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.steps = append(m.steps, steps...)
}

// Calls returns the recorded calls.
func (m *ScriptedModel) Calls() []Call {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Call, len(m.calls))
	copy(out, m.calls)
	return out
}

// Text scripts a plain text reply.
func Text(content string) Step {
	return Step{Response: &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: content}}}}
}

// ToolCall scripts a reply requesting one tool with raw JSON arguments.
func ToolCall(name, arguments string) Step {
	return Step{Response: &llms.ContentResponse{Choices: []*llms.ContentChoice{{
		ToolCalls: []llms.ToolCall{{
			ID:   "call_" + name,
			Type: "function",
			FunctionCall: &llms.FunctionCall{
				Name:      name,
				Arguments: arguments,
			},
		}},
	}}}}
}

// Fail scripts a failed call.
func Fail(err error) Step {
	return Step{Err: err}
}

// PromptText concatenates the text parts of all messages of a call.
func PromptText(call Call) string {
	var out string
	for _, msg := range call.Messages {
		for _, part := range msg.Parts {
			if tc, ok := part.(llms.TextContent); ok {
				out += tc.Text + "\n"
			}
		}
	}
	return out
}
