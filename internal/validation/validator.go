package validation

import (
	"path/filepath"
	"strings"
	"unicode/utf8"

	"queryly/internal/domain"
)

const (
	MaxMessageLength  = 8000
	maxFileNameLength = 255
)

// Validator provides request validation functionality
type Validator struct {
	maxUploadBytes int64
}

// NewValidator creates a validator. maxUploadBytes <= 0 disables the size check.
func NewValidator(maxUploadBytes int64) *Validator {
	return &Validator{maxUploadBytes: maxUploadBytes}
}

// ValidateChatRequest checks the message and, when present, the upload's
// name and size. The file suffix itself is checked by the ingestor.
func (v *Validator) ValidateChatRequest(message, fileName string, fileSize int64) domain.ValidationErrors {
	var errors domain.ValidationErrors

	n := utf8.RuneCountInString(message)
	if strings.TrimSpace(message) == "" {
		errors = append(errors, domain.NewMissingFieldError("message"))
	} else if n > MaxMessageLength {
		errors = append(errors, domain.NewOutOfRangeError("message", n, 1, MaxMessageLength))
	}

	if fileName != "" {
		if !isValidFileName(fileName) {
			errors = append(errors, domain.NewInvalidFormatError("file", fileName))
		}
		if v.maxUploadBytes > 0 && fileSize > v.maxUploadBytes {
			errors = append(errors, domain.ValidationError{
				Field:   "file",
				Message: "file is too large",
				Value:   fileSize,
			})
		}
	}

	return errors
}

// isValidFileName rejects empty, overlong and path-carrying names.
func isValidFileName(name string) bool {
	if len(name) == 0 || len(name) > maxFileNameLength {
		return false
	}
	return filepath.Base(name) == name && name != "." && name != ".."
}
