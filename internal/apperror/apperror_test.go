package apperror

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorsIs(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		target    error
		wantMatch bool
	}{
		{
			name:      "NotFound wraps ErrNotFound",
			err:       NotFound("creature", "abc123"),
			target:    ErrNotFound,
			wantMatch: true,
		},
		{
			name:      "ValidationFailed wraps ErrValidation",
			err:       ValidationFailed("prompt", "prompt is required"),
			target:    ErrValidation,
			wantMatch: true,
		},
		{
			name:      "Conflict wraps ErrConflict",
			err:       Conflict("user", "ash@demo.test"),
			target:    ErrConflict,
			wantMatch: true,
		},
		{
			name:      "Unauthenticated wraps ErrUnauthenticated",
			err:       Unauthenticated("valid authentication required"),
			target:    ErrUnauthenticated,
			wantMatch: true,
		},
		{
			name:      "Upstream wraps ErrUpstream",
			err:       Upstream("identity provider exchange", errors.New("connection refused")),
			target:    ErrUpstream,
			wantMatch: true,
		},
		{
			name:      "NotFound does NOT match ErrValidation",
			err:       NotFound("creature", "abc123"),
			target:    ErrValidation,
			wantMatch: false,
		},
		{
			name:      "Unauthenticated does NOT match ErrNotFound",
			err:       Unauthenticated("nope"),
			target:    ErrNotFound,
			wantMatch: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := errors.Is(tt.err, tt.target)
			if got != tt.wantMatch {
				t.Errorf("errors.Is(%v, %v) = %v, want %v", tt.err, tt.target, got, tt.wantMatch)
			}
		})
	}
}

func TestErrorsIsThroughWrapping(t *testing.T) {
	// Services annotate with fmt.Errorf("...: %w", err); the HTTP mapping
	// must still see the sentinel through the extra layer.
	wrapped := fmt.Errorf("deleting creature: %w", NotFound("creature", "abc123"))
	if !errors.Is(wrapped, ErrNotFound) {
		t.Error("errors.Is should find ErrNotFound through fmt.Errorf wrapping")
	}

	var appErr *AppError
	if !errors.As(wrapped, &appErr) {
		t.Fatal("errors.As should extract *AppError through fmt.Errorf wrapping")
	}
	if appErr.Message != "creature not found with id abc123" {
		t.Errorf("Message = %q, want %q", appErr.Message, "creature not found with id abc123")
	}
}

func TestErrorMessages(t *testing.T) {
	tests := []struct {
		name        string
		err         *AppError
		wantMessage string
	}{
		{
			name:        "NotFound message includes resource and id",
			err:         NotFound("share", "xyz789"),
			wantMessage: "share not found with id xyz789",
		},
		{
			name:        "ValidationFailed uses custom message",
			err:         ValidationFailed("username", "username must be at least 2 characters"),
			wantMessage: "username must be at least 2 characters",
		},
		{
			name:        "Upstream message hides the underlying error",
			err:         Upstream("identity provider exchange", errors.New("tcp dial: connection refused")),
			wantMessage: "identity provider exchange failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.wantMessage {
				t.Errorf("Error() = %q, want %q", got, tt.wantMessage)
			}
		})
	}
}

func TestValidationFailedField(t *testing.T) {
	err := ValidationFailed("email", "invalid email format")

	if err.Field != "email" {
		t.Errorf("Field = %q, want %q", err.Field, "email")
	}
}
