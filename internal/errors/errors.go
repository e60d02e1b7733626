package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCode represents a sheetpilot error code.
type ErrorCode string

const (
	ErrInvalidRequest  ErrorCode = "INVALID_REQUEST"   // 400
	ErrSessionNotFound ErrorCode = "SESSION_NOT_FOUND" // 404
	ErrNotFound        ErrorCode = "NOT_FOUND"         // 404
	ErrNoData          ErrorCode = "NO_DATA"           // 422
	ErrNoEmbeddings    ErrorCode = "NO_EMBEDDINGS"     // 503
	ErrProvider        ErrorCode = "PROVIDER_ERROR"    // 502
	ErrInternal        ErrorCode = "INTERNAL"          // 500
)

// PilotError represents a structured error with code, status, and details.
type PilotError struct {
	Code    ErrorCode
	Status  int
	Message string
	Details map[string]any
}

// Error implements the error interface.
func (e *PilotError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewInvalidRequest creates a 400 error for invalid request parameters.
func NewInvalidRequest(msg string) *PilotError {
	return &PilotError{
		Code:    ErrInvalidRequest,
		Status:  400,
		Message: msg,
	}
}

// NewSessionNotFound creates a 404 error for an unknown session ID.
func NewSessionNotFound(id string) *PilotError {
	return &PilotError{
		Code:    ErrSessionNotFound,
		Status:  404,
		Message: fmt.Sprintf("session not found: %s", id),
		Details: map[string]any{"session_id": id},
	}
}

// NewNotFound creates a 404 error for a missing resource.
func NewNotFound(what string) *PilotError {
	return &PilotError{
		Code:    ErrNotFound,
		Status:  404,
		Message: fmt.Sprintf("not found: %s", what),
	}
}

// NewNoData creates a 422 error for operations that require cell data.
func NewNoData(sheet string) *PilotError {
	return &PilotError{
		Code:    ErrNoData,
		Status:  422,
		Message: fmt.Sprintf("no cell data available for sheet %q", sheet),
		Details: map[string]any{"sheet": sheet},
	}
}

// NewNoEmbeddings creates a 503 error when no embedding provider is configured.
func NewNoEmbeddings() *PilotError {
	return &PilotError{
		Code:    ErrNoEmbeddings,
		Status:  503,
		Message: "no embedding provider available; set OPENAI_API_KEY or EMBEDDINGS_URL",
	}
}

// NewProvider creates a 502 error for an upstream provider failure.
func NewProvider(provider string, err error) *PilotError {
	msg := "provider error"
	if err != nil {
		msg = err.Error()
	}
	return &PilotError{
		Code:    ErrProvider,
		Status:  502,
		Message: msg,
		Details: map[string]any{"provider": provider},
	}
}

// NewInternal creates a 500 error for unexpected internal errors.
// The message is generic; the original error is kept in Details for logging.
func NewInternal(err error) *PilotError {
	details := map[string]any{}
	if err != nil {
		details["internal_error"] = err.Error()
	}
	return &PilotError{
		Code:    ErrInternal,
		Status:  500,
		Message: "an internal error occurred",
		Details: details,
	}
}

// Is checks if an error is (or wraps) a PilotError with the given code.
func Is(err error, code ErrorCode) bool {
	var pErr *PilotError
	if stderrors.As(err, &pErr) {
		return pErr.Code == code
	}
	return false
}
