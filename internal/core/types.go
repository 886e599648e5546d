package core

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DBTX is the interface for database operations.
// Satisfied by both *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

// JobState is the lifecycle state of an inference job.
type JobState string

const (
	StatePending    JobState = "PENDING"
	StateProcessing JobState = "PROCESSING"
	StateSuccess    JobState = "SUCCESS"
	StateFailure    JobState = "FAILURE"
)

// IsTerminal reports whether the state is final.
func (s JobState) IsTerminal() bool {
	return s == StateSuccess || s == StateFailure
}

// CanTransition reports whether from -> to is a legal edge:
// PENDING -> PROCESSING -> SUCCESS | FAILURE.
func CanTransition(from, to JobState) bool {
	switch from {
	case StatePending:
		return to == StateProcessing
	case StateProcessing:
		return to == StateSuccess || to == StateFailure
	default:
		return false
	}
}

// Job is the stored record of one inference run.
type Job struct {
	ID         string
	SourcePath string
	State      JobState
	Result     map[string]string // column name -> type label, SUCCESS only
	Error      string            // FAILURE only
	CreatedAt  time.Time
	StartedAt  time.Time // zero until PROCESSING
	FinishedAt time.Time // zero until terminal
}

// clone returns a deep copy so callers never share the stored map.
func (j *Job) clone() *Job {
	c := *j
	if j.Result != nil {
		c.Result = make(map[string]string, len(j.Result))
		for k, v := range j.Result {
			c.Result[k] = v
		}
	}
	return &c
}

// Transition is a compare-and-set state change applied by a Store.
type Transition struct {
	From   JobState
	To     JobState
	Result map[string]string
	Error  string
	At     time.Time
}

// JobStatus is the polling view of a job.
type JobStatus struct {
	ID            string            `json:"-"`
	Status        JobState          `json:"status"`
	InferredTypes map[string]string `json:"inferred_types,omitempty"`
	Error         string            `json:"error,omitempty"`
}

// StatusOf builds the polling view of j.
// Result and error are only exposed in their terminal states.
func StatusOf(j *Job) JobStatus {
	st := JobStatus{ID: j.ID, Status: j.State}
	switch j.State {
	case StateSuccess:
		st.InferredTypes = j.Result
		if st.InferredTypes == nil {
			st.InferredTypes = map[string]string{}
		}
	case StateFailure:
		st.Error = j.Error
	}
	return st
}
