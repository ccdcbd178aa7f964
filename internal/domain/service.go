package domain

import (
	"context"
	"io"
)

// DocumentIngestor extracts plain text from an uploaded document.
type DocumentIngestor interface {
	// Ingest returns UNSUPPORTED_FORMAT for suffixes other than .pdf, .docx and
	// .txt, and INVALID_INPUT when the document holds no text.
	Ingest(ctx context.Context, r io.Reader, fileName string) (string, error)
}

// RetrievalAnswerer answers a query from the content of one document.
type RetrievalAnswerer interface {
	Answer(ctx context.Context, documentText, query string) (string, error)
}

// SQLTranslator turns a natural-language request into an SQL statement.
type SQLTranslator interface {
	Translate(ctx context.Context, userRequest string) (string, error)
}

// QuizSynthesizer generates a validated quiz on a topic.
type QuizSynthesizer interface {
	Synthesize(ctx context.Context, topic string) (*Quiz, error)
}

// ToolRouter decides how a user turn is answered and produces the reply.
type ToolRouter interface {
	Route(ctx context.Context, history []Message, userText, documentText string) (*RouteResult, error)
}

// ConversationRepository persists completed exchanges.
type ConversationRepository interface {
	Append(ctx context.Context, humanText, assistantText string) error
	Replay(ctx context.Context) (*ReplayResult, error)
	Close(ctx context.Context) error
}
