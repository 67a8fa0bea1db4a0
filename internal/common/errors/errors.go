// Package errors provides standardized error handling for the AI flow subsystem.
package errors

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	// Flow invocation errors. Validation failures surface to the caller and
	// are never repaired; generation failures mean the model produced no
	// usable output (or one missing a non-repairable required field).
	ErrCodeValidationFailed ErrorCode = "VALIDATION_FAILED"
	ErrCodeGenerationFailed ErrorCode = "GENERATION_FAILED"
	ErrCodeFlowNotFound     ErrorCode = "FLOW_NOT_FOUND"

	// Soft errors. These are absorbed at their origin: a tool failure is
	// reported as a structured value to the model, a notification failure
	// is logged and swallowed.
	ErrCodeToolLookupFailed       ErrorCode = "TOOL_LOOKUP_FAILED"
	ErrCodeNotificationSendFailed ErrorCode = "NOTIFICATION_SEND_FAILED"

	// Storage errors.
	ErrCodeDatabaseConnectionFailed ErrorCode = "DATABASE_CONNECTION_FAILED"
	ErrCodeSignalPersistFailed      ErrorCode = "SIGNAL_PERSIST_FAILED"
	ErrCodeSignalQueryFailed        ErrorCode = "SIGNAL_QUERY_FAILED"
	ErrCodeSignalIndexFailed        ErrorCode = "SIGNAL_INDEX_FAILED"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Field     string                 `json:"field,omitempty"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	cause     error
}

func (e *StandardError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("StandardError[%s]: %s (field: %s)", e.Code, e.Message, e.Field)
	}
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

func (e *StandardError) Unwrap() error {
	return e.cause
}

// NewValidationError creates an error for caller-supplied input that fails
// the declared input shape. Field names the offending field.
func NewValidationError(field, details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeValidationFailed,
		Message:   "Input validation failed",
		Details:   details,
		Field:     field,
		Timestamp: time.Now().UTC(),
	}
}

// NewGenerationError creates an error for a model call that produced no
// usable output.
func NewGenerationError(details string, cause error) *StandardError {
	return &StandardError{
		Code:      ErrCodeGenerationFailed,
		Message:   "Model produced no usable output",
		Details:   details,
		Timestamp: time.Now().UTC(),
		cause:     cause,
	}
}

// NewFlowNotFoundError creates an error for an unknown flow name.
func NewFlowNotFoundError(name string) *StandardError {
	return &StandardError{
		Code:      ErrCodeFlowNotFound,
		Message:   "Flow not registered",
		Details:   fmt.Sprintf("flow: %s", name),
		Timestamp: time.Now().UTC(),
	}
}

// NewNotificationSendFailedError creates a soft error for push fan-out
// failure. It is logged by the caller, never escalated.
func NewNotificationSendFailedError(channel string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeNotificationSendFailed,
		Message:   "Notification delivery failed",
		Details:   fmt.Sprintf("channel: %s, error: %s", channel, err.Error()),
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// NewSignalPersistFailedError creates an error for a failed signal write.
func NewSignalPersistFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeSignalPersistFailed,
		Message:   "Signal persistence failed",
		Details:   err.Error(),
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// NewSignalQueryFailedError creates an error for a failed signal read.
func NewSignalQueryFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeSignalQueryFailed,
		Message:   "Signal query failed",
		Details:   err.Error(),
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// IsCode reports whether err is (or wraps) a StandardError with the given code.
func IsCode(err error, code ErrorCode) bool {
	var se *StandardError
	if errors.As(err, &se) {
		return se.Code == code
	}
	return false
}

// IsValidation reports whether err is an input validation failure.
func IsValidation(err error) bool {
	return IsCode(err, ErrCodeValidationFailed)
}

// IsGeneration reports whether err is a generation failure.
func IsGeneration(err error) bool {
	return IsCode(err, ErrCodeGenerationFailed)
}

// HTTPStatus maps an error to the status code the API layer should return.
func HTTPStatus(err error) int {
	var se *StandardError
	if !errors.As(err, &se) {
		return http.StatusInternalServerError
	}
	switch se.Code {
	case ErrCodeValidationFailed:
		return http.StatusBadRequest
	case ErrCodeFlowNotFound:
		return http.StatusNotFound
	case ErrCodeGenerationFailed:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "VALIDATION"):
		return "VALIDATION"
	case strings.Contains(codeStr, "GENERATION") || strings.Contains(codeStr, "FLOW"):
		return "AI"
	case strings.Contains(codeStr, "TOOL"):
		return "TOOL"
	case strings.Contains(codeStr, "NOTIFICATION"):
		return "NOTIFICATION"
	case strings.Contains(codeStr, "DATABASE") || strings.Contains(codeStr, "SIGNAL"):
		return "STORAGE"
	default:
		return "OTHER"
	}
}
