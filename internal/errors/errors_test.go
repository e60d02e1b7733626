package errors

import (
	"fmt"
	"testing"
)

func TestPilotError_Error(t *testing.T) {
	err := &PilotError{
		Code:    ErrSessionNotFound,
		Status:  404,
		Message: "session not found: 01ABC",
	}

	expected := "SESSION_NOT_FOUND: session not found: 01ABC"
	if err.Error() != expected {
		t.Errorf("Error() = %q, want %q", err.Error(), expected)
	}
}

func TestNewInvalidRequest(t *testing.T) {
	err := NewInvalidRequest("cells is required")

	if err.Code != ErrInvalidRequest {
		t.Errorf("Code = %q, want %q", err.Code, ErrInvalidRequest)
	}
	if err.Status != 400 {
		t.Errorf("Status = %d, want 400", err.Status)
	}
	if err.Message != "cells is required" {
		t.Errorf("Message = %q, want %q", err.Message, "cells is required")
	}
}

func TestNewSessionNotFound(t *testing.T) {
	err := NewSessionNotFound("01J0ABC")

	if err.Code != ErrSessionNotFound {
		t.Errorf("Code = %q, want %q", err.Code, ErrSessionNotFound)
	}
	if err.Status != 404 {
		t.Errorf("Status = %d, want 404", err.Status)
	}
	if err.Details["session_id"] != "01J0ABC" {
		t.Errorf("Details[session_id] = %v, want %q", err.Details["session_id"], "01J0ABC")
	}
}

func TestNewNoEmbeddings(t *testing.T) {
	err := NewNoEmbeddings()

	if err.Code != ErrNoEmbeddings {
		t.Errorf("Code = %q, want %q", err.Code, ErrNoEmbeddings)
	}
	if err.Status != 503 {
		t.Errorf("Status = %d, want 503", err.Status)
	}
}

func TestNewProvider(t *testing.T) {
	err := NewProvider("openai", fmt.Errorf("rate limited"))

	if err.Code != ErrProvider {
		t.Errorf("Code = %q, want %q", err.Code, ErrProvider)
	}
	if err.Status != 502 {
		t.Errorf("Status = %d, want 502", err.Status)
	}
	if err.Details["provider"] != "openai" {
		t.Errorf("Details[provider] = %v, want %q", err.Details["provider"], "openai")
	}
}

func TestNewInternal(t *testing.T) {
	t.Run("with error", func(t *testing.T) {
		originalErr := fmt.Errorf("database connection failed")
		err := NewInternal(originalErr)

		if err.Code != ErrInternal {
			t.Errorf("Code = %q, want %q", err.Code, ErrInternal)
		}
		if err.Status != 500 {
			t.Errorf("Status = %d, want 500", err.Status)
		}
		// Message should be generic (not leak internal details)
		if err.Message != "an internal error occurred" {
			t.Errorf("Message = %q, want %q", err.Message, "an internal error occurred")
		}
		// Original error should be stored in Details for logging
		if err.Details["internal_error"] != "database connection failed" {
			t.Errorf("Details[internal_error] = %q, want %q", err.Details["internal_error"], "database connection failed")
		}
	})

	t.Run("with nil", func(t *testing.T) {
		err := NewInternal(nil)

		if err.Message != "an internal error occurred" {
			t.Errorf("Message = %q, want %q", err.Message, "an internal error occurred")
		}
		// Details should be empty but not nil
		if err.Details == nil {
			t.Error("Details should not be nil")
		}
	})
}

func TestIs(t *testing.T) {
	t.Run("matching code", func(t *testing.T) {
		err := NewSessionNotFound("x")
		if !Is(err, ErrSessionNotFound) {
			t.Error("Is() = false, want true")
		}
	})

	t.Run("non-matching code", func(t *testing.T) {
		err := NewSessionNotFound("x")
		if Is(err, ErrInvalidRequest) {
			t.Error("Is() = true, want false")
		}
	})

	t.Run("non-PilotError", func(t *testing.T) {
		err := fmt.Errorf("plain error")
		if Is(err, ErrInternal) {
			t.Error("Is() = true, want false for non-PilotError")
		}
	})

	t.Run("wrapped PilotError", func(t *testing.T) {
		inner := NewNoEmbeddings()
		wrapped := fmt.Errorf("index sheet: %w", inner)
		if !Is(wrapped, ErrNoEmbeddings) {
			t.Error("Is() = false, want true for wrapped PilotError")
		}
		if Is(wrapped, ErrInvalidRequest) {
			t.Error("Is() = true, want false for wrong code on wrapped PilotError")
		}
	})
}
