package domain

import "time"

// Role identifies the author of a message.
type Role string

const (
	RoleHuman     Role = "human"
	RoleAssistant Role = "assistant"
)

type Message struct {
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// ConversationRecord is one completed exchange. Records are written once and
// never updated.
type ConversationRecord struct {
	ID        string
	Timestamp time.Time
	Human     Message
	Assistant Message
}

// NewConversationRecord builds a record stamped with now for both halves.
func NewConversationRecord(id, humanText, assistantText string, now time.Time) *ConversationRecord {
	return &ConversationRecord{
		ID:        id,
		Timestamp: now,
		Human:     Message{Role: RoleHuman, Content: humanText, Timestamp: now},
		Assistant: Message{Role: RoleAssistant, Content: assistantText, Timestamp: now},
	}
}

// Messages returns the record as a human/assistant pair.
func (r *ConversationRecord) Messages() []Message {
	return []Message{r.Human, r.Assistant}
}

// ReplayResult is the ordered message sequence of all stored exchanges plus a
// diagnostic per record that could not be read.
type ReplayResult struct {
	Messages []Message
	Skipped  []string
}

// ToolKind names one of the capabilities the router may invoke.
type ToolKind string

const (
	ToolNone          ToolKind = ""
	ToolQuizGenerator ToolKind = "quiz-generator"
	ToolNLPToSQL      ToolKind = "nlp-to-sql"
	ToolRAGFAQ        ToolKind = "rag-faq"
)

// RouteResult is the outcome of one routed turn.
type RouteResult struct {
	Text string
	Tool ToolKind
	Quiz *Quiz
}
