package quizgen

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"queryly/internal/adapter/llm"
	"queryly/internal/domain"
	"queryly/internal/logger"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/prompts"
	"go.uber.org/zap"
)

const quizTemplate = `You are an intelligent SQL quiz generator.

Generate a multiple-choice quiz on the topic: "{{.topic}}". The quiz must meet the following conditions:

- Generate exactly 10 unique questions.
- Each question must have:
    - A clear "description" (the question text).
    - A "topic" naming the SQL concept it covers.
    - A list of exactly 4 "options", each with an integer "id" from 1 to 4, a "text" and an "is_correct" flag.
    - Exactly one option with "is_correct": true.
    - A "correct_option_id" equal to the id of that option.
    - A "meta_data" field:
        - If the question is based on a SQL table, put the table schema or sample data in "meta_data", for example:
          Table: Employees(id INT, name VARCHAR, salary INT)
        - Otherwise, "meta_data" is an empty string.
- All questions must be relevant to "{{.topic}}".
- Set "questions_count" to 10 and "min_passing_marks" to 8.

Respond with a single JSON object that validates against this JSON Schema and nothing else:
{{.schema}}`

// Synthesizer generates SQL quizzes with a model running in JSON mode.
// Output that does not match the quiz schema exactly is rejected.
type Synthesizer struct {
	model       llms.Model
	temperature float64
	prompt      prompts.PromptTemplate
	schema      string
}

func NewSynthesizer(model llms.Model, temperature float64) (*Synthesizer, error) {
	schema, err := json.MarshalIndent(QuizSchema, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode quiz schema: %w", err)
	}
	return &Synthesizer{
		model:       model,
		temperature: temperature,
		prompt:      prompts.NewPromptTemplate(quizTemplate, []string{"topic", "schema"}),
		schema:      string(schema),
	}, nil
}

func (s *Synthesizer) Synthesize(ctx context.Context, topic string) (*domain.Quiz, error) {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return nil, domain.NewInvalidInputError("quiz topic is empty")
	}
	l := logger.Get()

	prompt, err := s.prompt.Format(map[string]any{"topic": topic, "schema": s.schema})
	if err != nil {
		return nil, domain.NewInternalError("failed to build quiz prompt", err)
	}

	resp, err := s.model.GenerateContent(ctx,
		[]llms.MessageContent{llms.TextParts(llms.ChatMessageTypeHuman, prompt)},
		llms.WithJSONMode(),
		llms.WithTemperature(s.temperature),
	)
	if err != nil {
		l.Error("Quiz model call failed", zap.String("topic", topic), zap.Error(err))
		return nil, domain.NewModelCallError("failed to generate quiz", err)
	}
	choice, err := llm.FirstChoice(resp)
	if err != nil {
		return nil, domain.NewModelCallError("failed to generate quiz", err)
	}

	quiz, err := ParseQuiz(choice.Content)
	if err != nil {
		l.Warn("Model returned an invalid quiz", zap.String("topic", topic), zap.Error(err))
		return nil, err
	}
	for i := range quiz.Questions {
		if strings.TrimSpace(quiz.Questions[i].Topic) == "" {
			quiz.Questions[i].Topic = topic
		}
	}
	l.Info("Quiz generated", zap.String("topic", topic), zap.Int("questions", len(quiz.Questions)))
	return quiz, nil
}

type quizPayload struct {
	QuestionsCount  *int              `json:"questions_count"`
	Questions       []domain.Question `json:"questions"`
	MinPassingMarks *int              `json:"min_passing_marks"`
	MetaData        *string           `json:"meta_data"`
}

// ParseQuiz decodes and validates raw model output. Unknown fields, trailing
// data and structural deviations are SCHEMA_VIOLATION errors. Missing
// questions_count and min_passing_marks take their schema defaults.
func ParseQuiz(raw string) (*domain.Quiz, error) {
	obj, ok := llm.ExtractJSONObject(raw)
	if !ok {
		return nil, domain.NewSchemaViolationError("model output contains no JSON object", nil)
	}

	dec := json.NewDecoder(strings.NewReader(obj))
	dec.DisallowUnknownFields()
	var payload quizPayload
	if err := dec.Decode(&payload); err != nil {
		return nil, domain.NewSchemaViolationError("model output does not match the quiz schema", err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, domain.NewSchemaViolationError("unexpected data after the quiz object", err)
	}
	if payload.Questions == nil {
		return nil, domain.NewSchemaViolationError("questions field is missing", nil)
	}

	quiz := &domain.Quiz{
		QuestionsCount:  domain.QuizQuestionCount,
		Questions:       payload.Questions,
		MinPassingMarks: domain.QuizMinPassingMarks,
	}
	if payload.QuestionsCount != nil {
		quiz.QuestionsCount = *payload.QuestionsCount
	}
	if payload.MinPassingMarks != nil {
		quiz.MinPassingMarks = *payload.MinPassingMarks
	}
	if payload.MetaData != nil {
		quiz.MetaData = *payload.MetaData
	}

	if err := quiz.Validate(); err != nil {
		return nil, err
	}
	return quiz, nil
}

// MarshalQuiz renders a quiz as the JSON object handed back to the router.
func MarshalQuiz(q *domain.Quiz) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(q); err != nil {
		return "", err
	}
	return strings.TrimSpace(buf.String()), nil
}
