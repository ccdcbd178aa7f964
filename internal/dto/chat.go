package dto

import (
	"time"

	"queryly/internal/domain"
)

// ChatRequest is the JSON form of a chat turn. Multipart requests carry the
// same message field plus an optional file part.
// @Description Request body for sending a chat message
type ChatRequest struct {
	Message string `json:"message" form:"message"`
}

// ChatResponse is the assistant's reply to one turn.
// @Description Assistant reply
type ChatResponse struct {
	Answer   string       `json:"answer"`
	Tool     string       `json:"tool,omitempty"`
	Quiz     *domain.Quiz `json:"quiz,omitempty"`
	Warnings []string     `json:"warnings,omitempty"`
}

// MessageResponse is one stored message.
type MessageResponse struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// HistoryResponse lists the stored conversation, oldest first.
// @Description Conversation history
type HistoryResponse struct {
	Messages []MessageResponse `json:"messages"`
	Warnings []string          `json:"warnings,omitempty"`
}

// HealthResponse reports service liveness.
type HealthResponse struct {
	Status string `json:"status"`
}
