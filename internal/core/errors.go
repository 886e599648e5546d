package core

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned for an unknown job id.
	ErrNotFound = errors.New("job not found")

	// ErrQueueFull is returned by Submit when every queue slot is taken.
	ErrQueueFull = errors.New("inference queue is full")

	// ErrShuttingDown is returned by Submit once Shutdown has begun.
	ErrShuttingDown = errors.New("service is shutting down")

	// ErrInvalidPath is returned by Submit for a relative source path.
	ErrInvalidPath = errors.New("source path must be absolute")

	// ErrInvalidTransition is returned when a job is not in the expected
	// state or the requested edge is not allowed.
	ErrInvalidTransition = errors.New("invalid job state transition")

	// ErrDuplicateJob is returned by Store.Create for an id already present.
	ErrDuplicateJob = errors.New("job already exists")
)

// TransitionError records a rejected state change.
type TransitionError struct {
	ID     string
	From   JobState
	To     JobState
	Actual JobState // empty when unknown
}

func (e *TransitionError) Error() string {
	if e.Actual != "" {
		return fmt.Sprintf("job %s: %s -> %s rejected, job is %s", e.ID, e.From, e.To, e.Actual)
	}
	return fmt.Sprintf("job %s: %s -> %s rejected", e.ID, e.From, e.To)
}

func (e *TransitionError) Unwrap() error {
	return ErrInvalidTransition
}
