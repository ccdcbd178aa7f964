package handler

import (
	"mime/multipart"
	"strings"

	"queryly/internal/dto"
	"queryly/internal/logger"
	"queryly/internal/service"
	"queryly/internal/validation"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// ChatHandler handles chat HTTP requests
type ChatHandler struct {
	service   service.ChatService
	validator *validation.Validator
}

// NewChatHandler creates a new ChatHandler instance
func NewChatHandler(service service.ChatService, validator *validation.Validator) *ChatHandler {
	return &ChatHandler{
		service:   service,
		validator: validator,
	}
}

// RegisterRoutes mounts the chat API under router.
func (h *ChatHandler) RegisterRoutes(router fiber.Router) {
	router.Get("/history", h.GetHistory)
	router.Post("/chat", h.PostChat)
}

// GetHistory godoc
// @Summary Get conversation history
// @Description Returns every stored message, oldest first. Never fails; problems are reported as warnings.
// @Tags chat
// @Produce json
// @Success 200 {object} dto.HistoryResponse
// @Router /api/history [get]
func (h *ChatHandler) GetHistory(c *fiber.Ctx) error {
	res := h.service.History(c.UserContext())

	out := dto.HistoryResponse{
		Messages: make([]dto.MessageResponse, 0, len(res.Messages)),
		Warnings: res.Warnings,
	}
	for _, m := range res.Messages {
		out.Messages = append(out.Messages, dto.MessageResponse{
			Role:      string(m.Role),
			Content:   m.Content,
			Timestamp: m.Timestamp,
		})
	}
	return c.JSON(out)
}

// PostChat godoc
// @Summary Send a chat message
// @Description Answers one message, optionally about an attached .pdf, .docx or .txt document.
// @Tags chat
// @Accept json,mpfd
// @Produce json
// @Param request body dto.ChatRequest false "Chat message (JSON form)"
// @Param message formData string false "Chat message (multipart form)"
// @Param file formData file false "Document to ask about"
// @Success 200 {object} dto.ChatResponse
// @Failure 400 {object} middleware.ErrorResponse
// @Failure 502 {object} middleware.ErrorResponse
// @Failure 503 {object} middleware.ErrorResponse
// @Router /api/chat [post]
func (h *ChatHandler) PostChat(c *fiber.Ctx) error {
	var req dto.ChatRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	fh, err := uploadedFile(c)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid multipart form")
	}

	var fileName string
	var fileSize int64
	if fh != nil {
		fileName, fileSize = fh.Filename, fh.Size
	}
	if errs := h.validator.ValidateChatRequest(req.Message, fileName, fileSize); len(errs) > 0 {
		return errs
	}

	chatReq := service.ChatRequest{Message: req.Message}
	if fh != nil {
		f, err := fh.Open()
		if err != nil {
			logger.Get().Error("Failed to open uploaded file", zap.String("fileName", fh.Filename), zap.Error(err))
			return fiber.NewError(fiber.StatusBadRequest, "could not read uploaded file")
		}
		defer f.Close()
		chatReq.FileName = fh.Filename
		chatReq.File = f
	}

	res, err := h.service.Ask(c.UserContext(), chatReq)
	if err != nil {
		return err
	}

	return c.JSON(dto.ChatResponse{
		Answer:   res.Answer,
		Tool:     string(res.Tool),
		Quiz:     res.Quiz,
		Warnings: res.Warnings,
	})
}

// uploadedFile returns the "file" part of a multipart request, or nil.
func uploadedFile(c *fiber.Ctx) (*multipart.FileHeader, error) {
	if !strings.HasPrefix(c.Get(fiber.HeaderContentType), fiber.MIMEMultipartForm) {
		return nil, nil
	}
	form, err := c.MultipartForm()
	if err != nil {
		return nil, err
	}
	if files := form.File["file"]; len(files) > 0 {
		return files[0], nil
	}
	return nil, nil
}

// Health godoc
// @Summary Health check
// @Tags system
// @Produce json
// @Success 200 {object} dto.HealthResponse
// @Router /health [get]
func Health(c *fiber.Ctx) error {
	return c.JSON(dto.HealthResponse{Status: "ok"})
}
