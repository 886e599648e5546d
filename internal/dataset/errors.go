package dataset

import (
	"errors"
	"fmt"
)

var (
	// ErrLoad matches every error returned by Load and LoadReader.
	ErrLoad = errors.New("load dataset")

	// ErrEmptyFile is returned when the input has no header row.
	ErrEmptyFile = errors.New("empty file: no columns to parse")

	// ErrInvalidEncoding is returned when the input is not valid UTF-8.
	ErrInvalidEncoding = errors.New("encoding error: invalid UTF-8")

	// ErrMalformed is returned when a record cannot be parsed as delimited data.
	ErrMalformed = errors.New("invalid csv")
)

// LoadError describes why a file could not be loaded.
type LoadError struct {
	Path string // empty when loading from a reader
	Line int    // 1-based input line, 0 if not tied to a record
	Err  error
}

func (e *LoadError) Error() string {
	msg := "load dataset"
	if e.Path != "" {
		msg += " " + e.Path
	}
	if e.Line > 0 {
		msg += fmt.Sprintf(": line %d", e.Line)
	}
	return msg + ": " + e.Err.Error()
}

func (e *LoadError) Unwrap() error { return e.Err }

// Is reports ErrLoad as matching any LoadError.
func (e *LoadError) Is(target error) bool { return target == ErrLoad }
