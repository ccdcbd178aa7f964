package service

import (
	"context"
	"fmt"
	"io"
	"strings"

	"queryly/internal/domain"
	"queryly/internal/logger"

	"go.uber.org/zap"
)

const (
	WarningHistoryUnavailable = "Conversation history could not be loaded; this answer was produced without earlier context."
	WarningNotSaved           = "This exchange could not be saved to the conversation history."
	WarningHistoryLoadFailed  = "Failed to load chat history."
)

// ChatRequest is one user turn. File is optional; FileName is required with it
// and selects the parser by suffix.
type ChatRequest struct {
	Message  string
	FileName string
	File     io.Reader
}

type ChatResult struct {
	Answer   string
	Tool     domain.ToolKind
	Quiz     *domain.Quiz
	Warnings []string
}

type HistoryResult struct {
	Messages []domain.Message
	Warnings []string
}

// ChatService runs the per-turn workflow: ingest, route, record.
type ChatService interface {
	Ask(ctx context.Context, req ChatRequest) (*ChatResult, error)
	History(ctx context.Context) *HistoryResult
}

type chatService struct {
	ingestor        domain.DocumentIngestor
	router          domain.ToolRouter
	repo            domain.ConversationRepository
	contextMessages int
}

// NewChatService creates the chat workflow. contextMessages bounds how many
// stored messages are sent to the router; 0 sends none.
func NewChatService(
	ingestor domain.DocumentIngestor,
	router domain.ToolRouter,
	repo domain.ConversationRepository,
	contextMessages int,
) ChatService {
	return &chatService{
		ingestor:        ingestor,
		router:          router,
		repo:            repo,
		contextMessages: contextMessages,
	}
}

func (s *chatService) Ask(ctx context.Context, req ChatRequest) (*ChatResult, error) {
	if strings.TrimSpace(req.Message) == "" {
		return nil, domain.NewInvalidInputError("message is required")
	}
	l := logger.Get()

	var documentText string
	if req.File != nil {
		if req.FileName == "" {
			return nil, domain.NewInvalidInputError("file name is required with an uploaded file")
		}
		text, err := s.ingestor.Ingest(ctx, req.File, req.FileName)
		if err != nil {
			return nil, err
		}
		if strings.TrimSpace(text) == "" {
			return nil, domain.NewInvalidInputError("document contains no text")
		}
		documentText = text
		l.Info("Ingested document", zap.String("fileName", req.FileName), zap.Int("chars", len(documentText)))
	}

	result := &ChatResult{}
	history := s.recentMessages(ctx, result)

	routed, err := s.router.Route(ctx, history, req.Message, documentText)
	if err != nil {
		l.Error("Failed to answer message", zap.Error(err))
		return nil, err
	}
	result.Answer = routed.Text
	result.Tool = routed.Tool
	result.Quiz = routed.Quiz

	// Only the typed message is recorded, not the attached document.
	if err := s.repo.Append(ctx, req.Message, routed.Text); err != nil {
		l.Error("Failed to record exchange", zap.Error(err))
		result.Warnings = append(result.Warnings, WarningNotSaved)
	}
	return result, nil
}

func (s *chatService) recentMessages(ctx context.Context, result *ChatResult) []domain.Message {
	if s.contextMessages <= 0 {
		return nil
	}
	replay, err := s.repo.Replay(ctx)
	if err != nil {
		logger.Get().Warn("History unavailable for routing context", zap.Error(err))
		result.Warnings = append(result.Warnings, WarningHistoryUnavailable)
		return nil
	}
	msgs := replay.Messages
	if len(msgs) > s.contextMessages {
		msgs = msgs[len(msgs)-s.contextMessages:]
	}
	return msgs
}

func (s *chatService) History(ctx context.Context) *HistoryResult {
	replay, err := s.repo.Replay(ctx)
	if err != nil {
		logger.Get().Error("Failed to load chat history", zap.Error(err))
		return &HistoryResult{Messages: []domain.Message{}, Warnings: []string{WarningHistoryLoadFailed}}
	}
	out := &HistoryResult{Messages: replay.Messages}
	if out.Messages == nil {
		out.Messages = []domain.Message{}
	}
	if n := len(replay.Skipped); n > 0 {
		out.Warnings = append(out.Warnings, fmt.Sprintf("%d history record(s) could not be read and were skipped.", n))
	}
	return out
}
