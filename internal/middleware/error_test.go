package middleware

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"queryly/internal/domain"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusForCode(t *testing.T) {
	cases := map[domain.ErrorCode]int{
		domain.ErrUnsupportedFormat: http.StatusBadRequest,
		domain.ErrInvalidInput:      http.StatusBadRequest,
		domain.ErrValidation:        http.StatusBadRequest,
		domain.ErrSchemaViolation:   http.StatusBadGateway,
		domain.ErrModelCall:         http.StatusServiceUnavailable,
		domain.ErrPersistence:       http.StatusServiceUnavailable,
		domain.ErrInternal:          http.StatusInternalServerError,
	}
	for code, want := range cases {
		assert.Equal(t, want, StatusForCode(code), string(code))
	}
}

func TestErrorHandler(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"domain error", domain.NewUnsupportedFormatError("notes.md"), http.StatusBadRequest, "UNSUPPORTED_FORMAT"},
		{"validation errors", domain.ValidationErrors{domain.NewMissingFieldError("message")}, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"fiber error", fiber.NewError(http.StatusRequestEntityTooLarge, "too big"), http.StatusRequestEntityTooLarge, "HTTP_ERROR"},
		{"unknown error", errors.New("boom"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler()})
			app.Get("/", func(c *fiber.Ctx) error { return tt.err })

			resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)

			body, _ := io.ReadAll(resp.Body)
			var got map[string]any
			require.NoError(t, json.Unmarshal(body, &got))
			assert.Equal(t, tt.wantCode, got["code"])
		})
	}
}
