package domain

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrorCode represents a specific type of error in the domain
type ErrorCode string

const (
	ErrInternal          ErrorCode = "INTERNAL_ERROR"
	ErrInvalidInput      ErrorCode = "INVALID_INPUT"
	ErrUnsupportedFormat ErrorCode = "UNSUPPORTED_FORMAT"
	ErrModelCall         ErrorCode = "MODEL_CALL_FAILURE"
	ErrSchemaViolation   ErrorCode = "SCHEMA_VIOLATION"
	ErrPersistence       ErrorCode = "PERSISTENCE_FAILURE"
)

// DomainError represents a domain-specific error
type DomainError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Err     error     `json:"-"`
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// MarshalJSON implements the json.Marshaler interface
func (e *DomainError) MarshalJSON() ([]byte, error) {
	return json.Marshal(&struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}{
		Code:    string(e.Code),
		Message: e.Message,
	})
}

// NewError creates a new DomainError
func NewError(code ErrorCode, message string, err error) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

func NewInvalidInputError(message string) *DomainError {
	return NewError(ErrInvalidInput, message, nil)
}

func NewInternalError(message string, err error) *DomainError {
	return NewError(ErrInternal, message, err)
}

func NewUnsupportedFormatError(fileName string) *DomainError {
	return NewError(ErrUnsupportedFormat, fmt.Sprintf("Unsupported file format: %s", fileName), nil)
}

func NewModelCallError(message string, err error) *DomainError {
	return NewError(ErrModelCall, message, err)
}

func NewSchemaViolationError(message string, err error) *DomainError {
	return NewError(ErrSchemaViolation, message, err)
}

func NewPersistenceError(message string, err error) *DomainError {
	return NewError(ErrPersistence, message, err)
}

// IsCode reports whether any DomainError in err's chain carries code.
func IsCode(err error, code ErrorCode) bool {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Code == code
	}
	return false
}
