package domain

import (
	"fmt"
	"strings"
)

const (
	QuizQuestionCount   = 10
	QuizOptionCount     = 4
	QuizMinPassingMarks = 8
	quizMinOptionID     = 1
	quizMaxOptionID     = QuizOptionCount
)

// Quiz is a generated multiple-choice quiz on one SQL topic.
type Quiz struct {
	QuestionsCount  int        `json:"questions_count"`
	Questions       []Question `json:"questions"`
	MinPassingMarks int        `json:"min_passing_marks"`
	MetaData        string     `json:"meta_data"`
}

// Question is one quiz item. MetaData carries a table schema or sample data
// when the question needs one.
type Question struct {
	Topic           string   `json:"topic"`
	Description     string   `json:"description"`
	Options         []Option `json:"options"`
	CorrectOptionID int      `json:"correct_option_id"`
	MetaData        string   `json:"meta_data"`
}

type Option struct {
	ID        int    `json:"id"`
	Text      string `json:"text"`
	IsCorrect bool   `json:"is_correct"`
}

// Validate checks the structural rules of a quiz and returns a
// SCHEMA_VIOLATION error describing the first problem found.
func (q *Quiz) Validate() error {
	if q.QuestionsCount != QuizQuestionCount {
		return NewSchemaViolationError(fmt.Sprintf("questions_count must be %d, got %d", QuizQuestionCount, q.QuestionsCount), nil)
	}
	if q.MinPassingMarks != QuizMinPassingMarks {
		return NewSchemaViolationError(fmt.Sprintf("min_passing_marks must be %d, got %d", QuizMinPassingMarks, q.MinPassingMarks), nil)
	}
	if len(q.Questions) != QuizQuestionCount {
		return NewSchemaViolationError(fmt.Sprintf("quiz must contain %d questions, got %d", QuizQuestionCount, len(q.Questions)), nil)
	}
	for i := range q.Questions {
		if err := q.Questions[i].Validate(); err != nil {
			return NewSchemaViolationError(fmt.Sprintf("question %d is invalid", i+1), err)
		}
	}
	return nil
}

func (q *Question) Validate() error {
	if strings.TrimSpace(q.Description) == "" {
		return NewSchemaViolationError("description is required", nil)
	}
	if len(q.Options) != QuizOptionCount {
		return NewSchemaViolationError(fmt.Sprintf("expected %d options, got %d", QuizOptionCount, len(q.Options)), nil)
	}
	if q.CorrectOptionID < quizMinOptionID || q.CorrectOptionID > quizMaxOptionID {
		return NewSchemaViolationError(fmt.Sprintf("correct_option_id %d out of range", q.CorrectOptionID), nil)
	}

	seen := make(map[int]bool, len(q.Options))
	correct := 0
	for _, opt := range q.Options {
		if opt.ID < quizMinOptionID || opt.ID > quizMaxOptionID {
			return NewSchemaViolationError(fmt.Sprintf("option id %d out of range", opt.ID), nil)
		}
		if seen[opt.ID] {
			return NewSchemaViolationError(fmt.Sprintf("duplicate option id %d", opt.ID), nil)
		}
		seen[opt.ID] = true
		if strings.TrimSpace(opt.Text) == "" {
			return NewSchemaViolationError(fmt.Sprintf("option %d has no text", opt.ID), nil)
		}
		if opt.IsCorrect {
			correct++
			if opt.ID != q.CorrectOptionID {
				return NewSchemaViolationError(fmt.Sprintf("option %d is marked correct but correct_option_id is %d", opt.ID, q.CorrectOptionID), nil)
			}
		}
	}
	if correct != 1 {
		return NewSchemaViolationError(fmt.Sprintf("exactly one option must be correct, got %d", correct), nil)
	}
	return nil
}

// CorrectOption returns the option flagged as correct, or nil.
func (q *Question) CorrectOption() *Option {
	for i := range q.Options {
		if q.Options[i].IsCorrect {
			return &q.Options[i]
		}
	}
	return nil
}
