package agent

import (
	"fmt"
	"strings"

	"queryly/internal/domain"
)

// RenderQuiz formats a quiz as markdown for the chat view.
func RenderQuiz(q *domain.Quiz) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "**Quiz** (%d questions, pass mark %d)\n", q.QuestionsCount, q.MinPassingMarks)
	if q.MetaData != "" {
		fmt.Fprintf(&sb, "\n%s\n", q.MetaData)
	}
	for i, question := range q.Questions {
		fmt.Fprintf(&sb, "\n**%d. %s**\n", i+1, question.Description)
		if question.MetaData != "" {
			fmt.Fprintf(&sb, "\n```\n%s\n```\n", question.MetaData)
		}
		for _, opt := range question.Options {
			fmt.Fprintf(&sb, "%d) %s\n", opt.ID, opt.Text)
		}
	}
	sb.WriteString("\n**Answers:** ")
	answers := make([]string, 0, len(q.Questions))
	for i := range q.Questions {
		answer := "?"
		if opt := q.Questions[i].CorrectOption(); opt != nil {
			answer = fmt.Sprint(opt.ID)
		}
		answers = append(answers, fmt.Sprintf("%d-%s", i+1, answer))
	}
	sb.WriteString(strings.Join(answers, ", "))
	return sb.String()
}
