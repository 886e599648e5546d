package core

// error_messages.go maps technical errors to messages a client can act on.
//
// A failed job's error string is built here, so a polling client sees
// "File is not a valid CSV (Code: FILE002). Ensure ..." rather than a parser
// offset. The technical error is logged by the worker.
//
// # File Errors (FILE001-FILE099)
//
//	FILE001 - File too large           Patterns: "file too large"
//	FILE002 - Invalid CSV              Patterns: "invalid csv"
//	FILE003 - Encoding error           Patterns: "encoding error"
//	FILE004 - No file                  Patterns: "no file provided"
//	FILE005 - Empty file               Patterns: "empty file"
//	FILE006 - Unsupported type         Patterns: "unsupported file type"
//	FILE007 - Source file missing      Patterns: "no such file or directory"
//
// # Job Errors (JOB001-JOB099)
//
//	JOB001 - Unknown job               Patterns: "job not found"
//	JOB002 - Queue full                Patterns: "inference queue is full"
//	JOB003 - Shutting down             Patterns: "shutting down"
//	JOB004 - Job timed out             Patterns: "job timed out"
//
// # Inference Errors (INF001-INF099)
//
//	INF001 - Inference failed          Patterns: "inference failed"
//
// # Upload Errors (UPL001-UPL099)
//
//	UPL002 - System busy               Patterns: "too many concurrent uploads"
//	UPL004 - Request cancelled         Patterns: "context canceled"
//	UPL005 - Request timeout           Patterns: "context deadline exceeded"
//
// # Rate Limiting (RATE001-RATE099)
//
//	RATE001 - Rate limited             Patterns: "rate limit"
//
// ERR000 is the fallback when nothing matches; check the logs for the
// original error.
//
// Patterns are matched case-insensitively with strings.Contains and the
// first match wins. An inference error wraps the loader error, so the file
// patterns must come before "inference failed".

import (
	"fmt"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

type errorPattern struct {
	pattern string
	msg     UserMessage
}

var errorPatterns = []errorPattern{
	// Job timeouts wrap context.DeadlineExceeded, so they precede UPL005.
	{
		pattern: "job timed out",
		msg: UserMessage{
			Message: "Type inference took too long",
			Action:  "Try a smaller file",
			Code:    "JOB004",
		},
	},

	// File errors
	{
		pattern: "file too large",
		msg: UserMessage{
			Message: "File exceeds maximum size limit",
			Action:  "Split the file into smaller chunks",
			Code:    "FILE001",
		},
	},
	{
		pattern: "invalid csv",
		msg: UserMessage{
			Message: "File is not a valid CSV",
			Action:  "Ensure file is comma-separated with consistent columns",
			Code:    "FILE002",
		},
	},
	{
		pattern: "encoding error",
		msg: UserMessage{
			Message: "File contains invalid characters",
			Action:  "Save file as UTF-8 encoding",
			Code:    "FILE003",
		},
	},
	{
		pattern: "no file provided",
		msg: UserMessage{
			Message: "No file was selected",
			Action:  "Please select a file to upload",
			Code:    "FILE004",
		},
	},
	{
		pattern: "empty file",
		msg: UserMessage{
			Message: "The uploaded file is empty",
			Action:  "Please upload a file with a header row",
			Code:    "FILE005",
		},
	},
	{
		pattern: "unsupported file type",
		msg: UserMessage{
			Message: "File type is not supported",
			Action:  "Upload a .csv, .xls or .xlsx file",
			Code:    "FILE006",
		},
	},
	{
		pattern: "no such file or directory",
		msg: UserMessage{
			Message: "The uploaded file is no longer available",
			Action:  "Please upload the file again",
			Code:    "FILE007",
		},
	},

	// Job errors
	{
		pattern: "job not found",
		msg: UserMessage{
			Message: "Task not found",
			Action:  "Check the task id or submit the file again",
			Code:    "JOB001",
		},
	},
	{
		pattern: "inference queue is full",
		msg: UserMessage{
			Message: "Too many files are waiting for analysis",
			Action:  "Please wait a moment and try again",
			Code:    "JOB002",
		},
	},
	{
		pattern: "shutting down",
		msg: UserMessage{
			Message: "The service is restarting",
			Action:  "Please submit the file again shortly",
			Code:    "JOB003",
		},
	},

	// Inference errors not explained by the file itself
	{
		pattern: "inference failed",
		msg: UserMessage{
			Message: "Column types could not be inferred",
			Action:  "Check the file contents or contact support",
			Code:    "INF001",
		},
	},

	// Upload errors
	{
		pattern: "too many concurrent uploads",
		msg: UserMessage{
			Message: "System is busy processing other uploads",
			Action:  "Please wait a moment and try again",
			Code:    "UPL002",
		},
	},
	{
		pattern: "context canceled",
		msg: UserMessage{
			Message: "Request was cancelled",
			Action:  "Please try again",
			Code:    "UPL004",
		},
	},
	{
		pattern: "context deadline exceeded",
		msg: UserMessage{
			Message: "Request timed out",
			Action:  "Try uploading a smaller file or check your connection",
			Code:    "UPL005",
		},
	},

	{
		pattern: "rate limit",
		msg: UserMessage{
			Message: "Too many requests",
			Action:  "Please wait a moment before trying again",
			Code:    "RATE001",
		},
	},
}

// defaultMessage is returned when no pattern matches (ERR000).
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
// The first case-insensitive pattern match wins; ERR000 otherwise.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	errStr := strings.ToLower(err.Error())

	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	return defaultMessage
}

// FormatUserError creates a formatted error string for display.
// The format is: "Message (Code: XXX). Action"
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err matches a specific pattern rather than
// the ERR000 fallback.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}

// UserError pairs a technical error with its user-facing message.
type UserError struct {
	Technical error       // Original technical error for logging
	User      UserMessage // User-friendly message for display
}

func (e *UserError) Error() string {
	return e.User.Message
}

func (e *UserError) Unwrap() error {
	return e.Technical
}

// NewUserError maps err to a UserError. Returns nil if err is nil.
func NewUserError(err error) *UserError {
	if err == nil {
		return nil
	}
	return &UserError{
		Technical: err,
		User:      MapError(err),
	}
}
