package core

import (
	"context"
	"sync"
	"time"
)

// Store persists job records.
//
// Transition is a compare-and-set: it applies only when the stored state
// equals t.From, so a reader can never observe states out of order.
type Store interface {
	Create(ctx context.Context, job *Job) error
	Get(ctx context.Context, id string) (*Job, error)
	Transition(ctx context.Context, id string, t Transition) error
	DeleteTerminalBefore(ctx context.Context, cutoff time.Time) (int, error)
}

// MemoryStore is an in-process Store.
type MemoryStore struct {
	mu   sync.RWMutex
	jobs map[string]*Job
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{jobs: make(map[string]*Job)}
}

func (m *MemoryStore) Create(_ context.Context, job *Job) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.jobs[job.ID]; ok {
		return ErrDuplicateJob
	}
	m.jobs[job.ID] = job.clone()
	return nil
}

func (m *MemoryStore) Get(_ context.Context, id string) (*Job, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	j, ok := m.jobs[id]
	if !ok {
		return nil, ErrNotFound
	}
	return j.clone(), nil
}

func (m *MemoryStore) Transition(_ context.Context, id string, t Transition) error {
	if !CanTransition(t.From, t.To) {
		return &TransitionError{ID: id, From: t.From, To: t.To}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	j, ok := m.jobs[id]
	if !ok {
		return ErrNotFound
	}
	if j.State != t.From {
		return &TransitionError{ID: id, From: t.From, To: t.To, Actual: j.State}
	}

	next := j.clone()
	applyTransition(next, t)
	m.jobs[id] = next
	return nil
}

func (m *MemoryStore) DeleteTerminalBefore(_ context.Context, cutoff time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	for id, j := range m.jobs {
		if j.State.IsTerminal() && j.FinishedAt.Before(cutoff) {
			delete(m.jobs, id)
			n++
		}
	}
	return n, nil
}

// applyTransition mutates j to reflect t. Callers check legality first.
func applyTransition(j *Job, t Transition) {
	j.State = t.To
	switch t.To {
	case StateProcessing:
		j.StartedAt = t.At
	case StateSuccess:
		j.FinishedAt = t.At
		j.Result = make(map[string]string, len(t.Result))
		for k, v := range t.Result {
			j.Result[k] = v
		}
		j.Error = ""
	case StateFailure:
		j.FinishedAt = t.At
		j.Result = nil
		j.Error = t.Error
	}
}
