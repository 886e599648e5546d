package core

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

// jobsSchema creates the job table. Safe to run on every start.
const jobsSchema = `
CREATE TABLE IF NOT EXISTS inference_jobs (
	id          TEXT PRIMARY KEY,
	source_path TEXT NOT NULL,
	state       TEXT NOT NULL,
	result      JSONB,
	error       TEXT,
	created_at  TIMESTAMPTZ NOT NULL,
	started_at  TIMESTAMPTZ,
	finished_at TIMESTAMPTZ
);
CREATE INDEX IF NOT EXISTS inference_jobs_state_finished_idx
	ON inference_jobs (state, finished_at);
`

const selectJob = `
SELECT id, source_path, state, result, error, created_at, started_at, finished_at
FROM inference_jobs`

// PostgresStore is a Store backed by PostgreSQL.
// Any number of processes may share one table; transitions are
// conditional updates keyed on the prior state.
type PostgresStore struct {
	db DBTX
}

// NewPostgresStore wraps a pool or transaction.
func NewPostgresStore(db DBTX) *PostgresStore {
	return &PostgresStore{db: db}
}

// Migrate creates the job table if it does not exist.
func (p *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := p.db.Exec(ctx, jobsSchema); err != nil {
		return fmt.Errorf("migrate inference_jobs: %w", err)
	}
	return nil
}

func (p *PostgresStore) Create(ctx context.Context, job *Job) error {
	tag, err := p.db.Exec(ctx,
		`INSERT INTO inference_jobs (id, source_path, state, created_at)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (id) DO NOTHING`,
		job.ID, job.SourcePath, string(job.State), job.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("create job %s: %w", job.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrDuplicateJob
	}
	return nil
}

func (p *PostgresStore) Get(ctx context.Context, id string) (*Job, error) {
	job, err := scanJob(p.db.QueryRow(ctx, selectJob+` WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get job %s: %w", id, err)
	}
	return job, nil
}

func (p *PostgresStore) Transition(ctx context.Context, id string, t Transition) error {
	if !CanTransition(t.From, t.To) {
		return &TransitionError{ID: id, From: t.From, To: t.To}
	}

	var (
		query string
		args  []any
	)
	switch t.To {
	case StateProcessing:
		query = `UPDATE inference_jobs SET state = $3, started_at = $4
		         WHERE id = $1 AND state = $2`
		args = []any{id, string(t.From), string(t.To), t.At}
	case StateSuccess:
		result := t.Result
		if result == nil {
			result = map[string]string{}
		}
		raw, err := json.Marshal(result)
		if err != nil {
			return fmt.Errorf("encode result for job %s: %w", id, err)
		}
		query = `UPDATE inference_jobs SET state = $3, finished_at = $4, result = $5, error = NULL
		         WHERE id = $1 AND state = $2`
		args = []any{id, string(t.From), string(t.To), t.At, raw}
	case StateFailure:
		query = `UPDATE inference_jobs SET state = $3, finished_at = $4, result = NULL, error = $5
		         WHERE id = $1 AND state = $2`
		args = []any{id, string(t.From), string(t.To), t.At, t.Error}
	}

	tag, err := p.db.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("transition job %s: %w", id, err)
	}
	if tag.RowsAffected() == 1 {
		return nil
	}

	// Nothing matched: either the job is gone or it moved on.
	current, err := p.Get(ctx, id)
	if err != nil {
		return err
	}
	return &TransitionError{ID: id, From: t.From, To: t.To, Actual: current.State}
}

func (p *PostgresStore) DeleteTerminalBefore(ctx context.Context, cutoff time.Time) (int, error) {
	tag, err := p.db.Exec(ctx,
		`DELETE FROM inference_jobs
		 WHERE state IN ($1, $2) AND finished_at < $3`,
		string(StateSuccess), string(StateFailure), cutoff,
	)
	if err != nil {
		return 0, fmt.Errorf("delete expired jobs: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

// scanJob reads one row in selectJob column order.
func scanJob(row pgx.Row) (*Job, error) {
	var (
		id         string
		sourcePath string
		state      string
		result     []byte
		errText    pgtype.Text
		createdAt  pgtype.Timestamptz
		startedAt  pgtype.Timestamptz
		finishedAt pgtype.Timestamptz
	)
	if err := row.Scan(&id, &sourcePath, &state, &result, &errText, &createdAt, &startedAt, &finishedAt); err != nil {
		return nil, err
	}

	job := &Job{
		ID:         id,
		SourcePath: sourcePath,
		State:      JobState(state),
		CreatedAt:  createdAt.Time,
	}
	if startedAt.Valid {
		job.StartedAt = startedAt.Time
	}
	if finishedAt.Valid {
		job.FinishedAt = finishedAt.Time
	}
	if errText.Valid {
		job.Error = errText.String
	}
	if len(result) > 0 {
		if err := json.Unmarshal(result, &job.Result); err != nil {
			return nil, fmt.Errorf("decode result: %w", err)
		}
	}
	return job, nil
}
