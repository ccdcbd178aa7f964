package repository

import (
	"fmt"
	"sort"
	"time"

	"queryly/internal/domain"
)

// Stored entry types. These match the layout of the original chat_history
// collection so records written before this service existed still replay.
const (
	entryHuman = "human"
	entryAI    = "ai"
)

// chatEntry is one half of a stored exchange. Content is a pointer so an
// entry without a content field decodes as nil, not "".
type chatEntry struct {
	Type    string  `bson:"type" json:"type"`
	Content *string `bson:"content" json:"content"`
}

func newEntry(typ, content string) chatEntry {
	return chatEntry{Type: typ, Content: &content}
}

func toEntries(rec *domain.ConversationRecord) []chatEntry {
	msgs := rec.Messages()
	out := make([]chatEntry, 0, len(msgs))
	for _, m := range msgs {
		typ := entryHuman
		if m.Role == domain.RoleAssistant {
			typ = entryAI
		}
		out = append(out, newEntry(typ, m.Content))
	}
	return out
}

// toMessages validates one stored record and converts it to messages.
func toMessages(ts time.Time, chat []chatEntry) ([]domain.Message, error) {
	if ts.IsZero() {
		return nil, fmt.Errorf("missing timestamp")
	}
	if len(chat) == 0 {
		return nil, fmt.Errorf("empty chat")
	}
	var sawHuman, sawAI bool
	msgs := make([]domain.Message, 0, len(chat))
	for _, e := range chat {
		var role domain.Role
		switch e.Type {
		case entryHuman:
			role, sawHuman = domain.RoleHuman, true
		case entryAI:
			role, sawAI = domain.RoleAssistant, true
		default:
			return nil, fmt.Errorf("unknown entry type %q", e.Type)
		}
		if e.Content == nil {
			return nil, fmt.Errorf("missing content in %s entry", e.Type)
		}
		msgs = append(msgs, domain.Message{Role: role, Content: *e.Content, Timestamp: ts})
	}
	if !sawHuman || !sawAI {
		return nil, fmt.Errorf("incomplete exchange")
	}
	return msgs, nil
}

type replayItem struct {
	ts   time.Time
	msgs []domain.Message
}

// flatten orders records by timestamp, keeping insertion order for ties.
func flatten(items []replayItem, skipped []string) *domain.ReplayResult {
	sort.SliceStable(items, func(i, j int) bool { return items[i].ts.Before(items[j].ts) })
	out := &domain.ReplayResult{Messages: []domain.Message{}, Skipped: skipped}
	for _, it := range items {
		out.Messages = append(out.Messages, it.msgs...)
	}
	return out
}

func skipNote(id string, err error) string {
	return fmt.Sprintf("record %s skipped: %v", id, err)
}
