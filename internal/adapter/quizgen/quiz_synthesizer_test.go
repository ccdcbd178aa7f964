package quizgen

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"queryly/internal/adapter/llm/llmtest"
	"queryly/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quizJSON(t *testing.T, mutate func(m map[string]any)) string {
	t.Helper()
	questions := make([]any, 0, 10)
	for i := 0; i < 10; i++ {
		correct := i%4 + 1
		options := make([]any, 0, 4)
		for id := 1; id <= 4; id++ {
			options = append(options, map[string]any{
				"id":         id,
				"text":       fmt.Sprintf("Option %d", id),
				"is_correct": id == correct,
			})
		}
		questions = append(questions, map[string]any{
			"topic":             "GROUP BY",
			"description":       fmt.Sprintf("Question %d about GROUP BY?", i+1),
			"options":           options,
			"correct_option_id": correct,
			"meta_data":         "",
		})
	}
	m := map[string]any{
		"questions_count":   10,
		"questions":         questions,
		"min_passing_marks": 8,
		"meta_data":         nil,
	}
	if mutate != nil {
		mutate(m)
	}
	b, err := json.Marshal(m)
	require.NoError(t, err)
	return string(b)
}

func question(m map[string]any, i int) map[string]any {
	return m["questions"].([]any)[i].(map[string]any)
}

func TestParseQuiz(t *testing.T) {
	tests := []struct {
		name    string
		raw     func(t *testing.T) string
		wantErr bool
	}{
		{"valid", func(t *testing.T) string { return quizJSON(t, nil) }, false},
		{"fenced", func(t *testing.T) string { return "```json\n" + quizJSON(t, nil) + "\n```" }, false},
		{"thinking block", func(t *testing.T) string { return "<think>plan {}</think>" + quizJSON(t, nil) }, false},
		{"missing counts take defaults", func(t *testing.T) string {
			return quizJSON(t, func(m map[string]any) {
				delete(m, "questions_count")
				delete(m, "min_passing_marks")
			})
		}, false},
		{"unknown top-level field", func(t *testing.T) string {
			return quizJSON(t, func(m map[string]any) { m["difficulty"] = "hard" })
		}, true},
		{"unknown option field", func(t *testing.T) string {
			return quizJSON(t, func(m map[string]any) {
				question(m, 0)["options"].([]any)[0].(map[string]any)["correct"] = true
			})
		}, true},
		{"nine questions", func(t *testing.T) string {
			return quizJSON(t, func(m map[string]any) { m["questions"] = m["questions"].([]any)[:9] })
		}, true},
		{"wrong questions_count", func(t *testing.T) string {
			return quizJSON(t, func(m map[string]any) { m["questions_count"] = 12 })
		}, true},
		{"correct id out of range", func(t *testing.T) string {
			return quizJSON(t, func(m map[string]any) { question(m, 3)["correct_option_id"] = 0 })
		}, true},
		{"string where integer expected", func(t *testing.T) string {
			return quizJSON(t, func(m map[string]any) { question(m, 3)["correct_option_id"] = "2" })
		}, true},
		{"missing questions", func(t *testing.T) string {
			return quizJSON(t, func(m map[string]any) { delete(m, "questions") })
		}, true},
		{"two objects", func(t *testing.T) string { return quizJSON(t, nil) + " " + quizJSON(t, nil) }, true},
		{"not json", func(t *testing.T) string { return "Here is your quiz: 1. What is SQL?" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			quiz, err := ParseQuiz(tt.raw(t))
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, domain.IsCode(err, domain.ErrSchemaViolation), "got %v", err)
				assert.Nil(t, quiz)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, 10, quiz.QuestionsCount)
			assert.Equal(t, 8, quiz.MinPassingMarks)
			require.Len(t, quiz.Questions, 10)
			for _, q := range quiz.Questions {
				assert.Len(t, q.Options, 4)
				require.NotNil(t, q.CorrectOption())
				assert.Equal(t, q.CorrectOptionID, q.CorrectOption().ID)
			}
		})
	}
}

func TestSynthesizer_Synthesize(t *testing.T) {
	ctx := context.Background()

	t.Run("valid quiz", func(t *testing.T) {
		model := llmtest.NewScriptedModel(llmtest.Text(quizJSON(t, func(m map[string]any) {
			question(m, 2)["topic"] = ""
		})))
		s, err := NewSynthesizer(model, 1.3)
		require.NoError(t, err)

		quiz, err := s.Synthesize(ctx, "GROUP BY")
		require.NoError(t, err)
		require.Len(t, quiz.Questions, 10)
		assert.Equal(t, "GROUP BY", quiz.Questions[2].Topic, "blank topics default to the requested topic")

		calls := model.Calls()
		require.Len(t, calls, 1)
		assert.True(t, calls[0].Options.JSONMode)
		assert.InDelta(t, 1.3, calls[0].Options.Temperature, 1e-9)
		prompt := llmtest.PromptText(calls[0])
		assert.Contains(t, prompt, `Generate a multiple-choice quiz on the topic: "GROUP BY"`)
		assert.Contains(t, prompt, `"correct_option_id"`)
	})

	t.Run("invalid output", func(t *testing.T) {
		model := llmtest.NewScriptedModel(llmtest.Text(quizJSON(t, func(m map[string]any) {
			question(m, 0)["options"] = question(m, 0)["options"].([]any)[:3]
		})))
		s, err := NewSynthesizer(model, 1.3)
		require.NoError(t, err)

		quiz, err := s.Synthesize(ctx, "JOIN")
		assert.Nil(t, quiz)
		assert.True(t, domain.IsCode(err, domain.ErrSchemaViolation))
	})

	t.Run("model failure", func(t *testing.T) {
		model := llmtest.NewScriptedModel(llmtest.Fail(errors.New("quota exceeded")))
		s, err := NewSynthesizer(model, 1.3)
		require.NoError(t, err)

		_, err = s.Synthesize(ctx, "JOIN")
		assert.True(t, domain.IsCode(err, domain.ErrModelCall))
	})

	t.Run("empty topic", func(t *testing.T) {
		model := llmtest.NewScriptedModel()
		s, err := NewSynthesizer(model, 1.3)
		require.NoError(t, err)

		_, err = s.Synthesize(ctx, " ")
		assert.True(t, domain.IsCode(err, domain.ErrInvalidInput))
		assert.Empty(t, model.Calls())
	})
}

func TestMarshalQuiz(t *testing.T) {
	quiz, err := ParseQuiz(quizJSON(t, nil))
	require.NoError(t, err)

	out, err := MarshalQuiz(quiz)
	require.NoError(t, err)
	assert.Contains(t, out, `"questions_count":10`)
	assert.Contains(t, out, `"min_passing_marks":8`)
}
