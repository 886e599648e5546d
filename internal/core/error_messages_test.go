package core

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"

	"github.com/JonMunkholm/datamorpher/internal/dataset"
	"github.com/JonMunkholm/datamorpher/internal/inference"
)

func loadFailure(err error) error {
	return &inference.InferenceError{
		Path: "/uploads/a.csv",
		Err:  &dataset.LoadError{Path: "/uploads/a.csv", Line: 3, Err: err},
	}
}

func TestMapError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode string
	}{
		{"nil error returns empty", nil, ""},
		{"malformed row", loadFailure(fmt.Errorf("%w: expected 2 fields, saw 3", dataset.ErrMalformed)), "FILE002"},
		{"bad encoding", loadFailure(fmt.Errorf("%w at byte 17", dataset.ErrInvalidEncoding)), "FILE003"},
		{"empty file", loadFailure(dataset.ErrEmptyFile), "FILE005"},
		{"missing source", loadFailure(&os.PathError{Op: "open", Path: "/uploads/a.csv", Err: errors.New("no such file or directory")}), "FILE007"},
		{"classifier panic", &inference.InferenceError{Column: "x", Err: errors.New("classifier panic: boom")}, "INF001"},
		{"job timeout beats deadline", fmt.Errorf("job timed out after 1s: %w", loadFailure(context.DeadlineExceeded)), "JOB004"},
		{"unknown job", ErrNotFound, "JOB001"},
		{"queue full", ErrQueueFull, "JOB002"},
		{"shutting down", ErrShuttingDown, "JOB003"},
		{"uploads busy", ErrTooManyUploads, "UPL002"},
		{"cancelled", context.Canceled, "UPL004"},
		{"rate limit", errors.New("rate limit exceeded"), "RATE001"},
		{"file too large", errors.New("file too large: 200MB exceeds limit"), "FILE001"},
		{"case insensitive", errors.New("UNSUPPORTED FILE TYPE .exe"), "FILE006"},
		{"unknown error returns default", errors.New("some random internal error"), "ERR000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MapError(tt.err)
			if got.Code != tt.wantCode {
				t.Errorf("MapError() code = %q, want %q", got.Code, tt.wantCode)
			}
		})
	}
}

func TestFormatUserError(t *testing.T) {
	result := FormatUserError(loadFailure(dataset.ErrEmptyFile))

	expected := "The uploaded file is empty (Code: FILE005). Please upload a file with a header row"
	if result != expected {
		t.Errorf("FormatUserError() = %q, want %q", result, expected)
	}

	if got := FormatUserError(nil); got != "" {
		t.Errorf("FormatUserError(nil) = %q, want empty", got)
	}
}

func TestIsUserFacing(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil error is not user facing", nil, false},
		{"known error is user facing", ErrQueueFull, true},
		{"unknown error is not user facing", errors.New("random internal error xyz"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsUserFacing(tt.err); got != tt.want {
				t.Errorf("IsUserFacing() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNewUserError(t *testing.T) {
	t.Run("nil error returns nil", func(t *testing.T) {
		if got := NewUserError(nil); got != nil {
			t.Errorf("NewUserError(nil) = %v, want nil", got)
		}
	})

	t.Run("wraps technical error with user message", func(t *testing.T) {
		techErr := loadFailure(dataset.ErrEmptyFile)
		userErr := NewUserError(techErr)

		if userErr.Error() != "The uploaded file is empty" {
			t.Errorf("Error() = %q, want user message", userErr.Error())
		}
		if !errors.Is(userErr, dataset.ErrEmptyFile) {
			t.Error("Unwrap() should reach the loader sentinel")
		}
	})
}
