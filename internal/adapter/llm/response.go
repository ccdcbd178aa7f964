package llm

import (
	"errors"
	"strings"

	"github.com/tmc/langchaingo/llms"
)

// ErrEmptyResponse is returned when the model answers with no choices.
var ErrEmptyResponse = errors.New("model returned no choices")

// FirstChoice returns the first choice of a model response.
func FirstChoice(resp *llms.ContentResponse) (*llms.ContentChoice, error) {
	if resp == nil || len(resp.Choices) == 0 || resp.Choices[0] == nil {
		return nil, ErrEmptyResponse
	}
	return resp.Choices[0], nil
}

// StripThinking removes a <think>...</think> block some reasoning models emit
// ahead of their answer.
func StripThinking(s string) string {
	s = strings.TrimSpace(s)
	thinkStart := strings.Index(s, "<think>")
	if thinkStart == -1 {
		return s
	}
	thinkEnd := strings.Index(s, "</think>")
	if thinkEnd == -1 || thinkEnd < thinkStart {
		return s
	}
	return strings.TrimSpace(s[:thinkStart] + s[thinkEnd+len("</think>"):])
}

// ExtractJSONObject returns the text between the first '{' and the last '}'
// after dropping thinking blocks, which also discards surrounding code fences.
// ok is false when no object delimiters are present.
func ExtractJSONObject(raw string) (string, bool) {
	cleaned := StripThinking(raw)
	jsonStart := strings.Index(cleaned, "{")
	jsonEnd := strings.LastIndex(cleaned, "}")
	if jsonStart == -1 || jsonEnd == -1 || jsonEnd < jsonStart {
		return "", false
	}
	return cleaned[jsonStart : jsonEnd+1], true
}
