package service

import (
	"context"
	"io"

	"queryly/internal/domain"

	"github.com/stretchr/testify/mock"
)

// --- MockDocumentIngestor ---
type MockDocumentIngestor struct {
	mock.Mock
}

func (m *MockDocumentIngestor) Ingest(ctx context.Context, r io.Reader, fileName string) (string, error) {
	args := m.Called(ctx, r, fileName)
	return args.String(0), args.Error(1)
}

// --- MockToolRouter ---
type MockToolRouter struct {
	mock.Mock
}

func (m *MockToolRouter) Route(ctx context.Context, history []domain.Message, userText, documentText string) (*domain.RouteResult, error) {
	args := m.Called(ctx, history, userText, documentText)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RouteResult), args.Error(1)
}

// --- MockConversationRepository ---
type MockConversationRepository struct {
	mock.Mock
}

func (m *MockConversationRepository) Append(ctx context.Context, humanText, assistantText string) error {
	args := m.Called(ctx, humanText, assistantText)
	return args.Error(0)
}

func (m *MockConversationRepository) Replay(ctx context.Context) (*domain.ReplayResult, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ReplayResult), args.Error(1)
}

func (m *MockConversationRepository) Close(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}
