package errors

import (
	stdErrors "errors"
	"fmt"
	"testing"
	"time"
)

func TestRateLimitError(t *testing.T) {
	err := NewRateLimitError("slow down")

	if err.Error() != "slow down" {
		t.Fatalf("Error message = %q, want %q", err.Error(), "slow down")
	}

	if !IsRateLimitError(err) {
		t.Fatalf("IsRateLimitError returned false for RateLimitError")
	}

	wrapped := stdErrors.Join(err)
	if !IsRateLimitError(wrapped) {
		t.Fatalf("IsRateLimitError returned false for wrapped RateLimitError")
	}
}

func TestRateLimitErrorWithRetry(t *testing.T) {
	tests := []struct {
		name            string
		duration        time.Duration
		expectedMessage string
	}{
		{
			name:            "zero duration",
			duration:        0,
			expectedMessage: "rate limited",
		},
		{
			name:            "30 seconds",
			duration:        30 * time.Second,
			expectedMessage: "rate limited (retry after 30s)",
		},
		{
			name:            "1 hour",
			duration:        1 * time.Hour,
			expectedMessage: "rate limited (retry after 1h0m0s)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewRateLimitErrorWithRetry("rate limited", tt.duration)
			if err.Error() != tt.expectedMessage {
				t.Fatalf("Error message = %q, want %q", err.Error(), tt.expectedMessage)
			}
		})
	}
}

func TestStopProcessingError(t *testing.T) {
	tests := []struct {
		query string
		want  string
	}{
		{"", "user stopped"},
		{"데미안", `user stopped while picking results for "데미안"`},
	}
	for _, tt := range tests {
		err := NewStopProcessingError(tt.query, "user stopped")
		if err.Error() != tt.want {
			t.Fatalf("Error message = %q, want %q", err.Error(), tt.want)
		}

		wrapped := fmt.Errorf("picker: %w", err)
		if !IsStopProcessingError(wrapped) {
			t.Fatalf("IsStopProcessingError returned false for wrapped StopProcessingError")
		}
	}
}

func TestInvalidArgument(t *testing.T) {
	err := InvalidArgument("maxConcurrency must be positive, got %d", 0)

	if !IsInvalidArgument(err) {
		t.Fatalf("IsInvalidArgument returned false")
	}
	if !stdErrors.Is(err, ErrInvalidArgument) {
		t.Fatalf("errors.Is did not match ErrInvalidArgument")
	}
	want := "invalid argument: maxConcurrency must be positive, got 0"
	if err.Error() != want {
		t.Fatalf("Error message = %q, want %q", err.Error(), want)
	}
}

func TestValidationError(t *testing.T) {
	err := NewValidationError("isbn", "must be 10 or 13 digits")

	if err.Error() != "isbn: must be 10 or 13 digits" {
		t.Fatalf("Error message = %q", err.Error())
	}
	if !IsValidationError(fmt.Errorf("search: %w", err)) {
		t.Fatalf("IsValidationError returned false for wrapped ValidationError")
	}
	if IsValidationError(stdErrors.New("other")) {
		t.Fatalf("IsValidationError returned true for plain error")
	}

	noField := NewValidationError("", "query is empty")
	if noField.Error() != "query is empty" {
		t.Fatalf("Error message = %q", noField.Error())
	}
}

func TestUpstreamStatus(t *testing.T) {
	err := fmt.Errorf("fetch: %w", NewUpstreamError("/api/libSrch", 503))

	if got := UpstreamStatus(err); got != 503 {
		t.Fatalf("UpstreamStatus = %d, want 503", got)
	}
	if got := UpstreamStatus(stdErrors.New("boom")); got != 0 {
		t.Fatalf("UpstreamStatus = %d, want 0", got)
	}
	if err.Error() != "fetch: /api/libSrch returned status 503" {
		t.Fatalf("Error message = %q", err.Error())
	}
}
