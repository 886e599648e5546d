package core

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to JobState
		want     bool
	}{
		{StatePending, StateProcessing, true},
		{StateProcessing, StateSuccess, true},
		{StateProcessing, StateFailure, true},
		{StatePending, StateSuccess, false},
		{StatePending, StateFailure, false},
		{StateProcessing, StatePending, false},
		{StateSuccess, StateFailure, false},
		{StateFailure, StateProcessing, false},
	}

	for _, tt := range tests {
		if got := CanTransition(tt.from, tt.to); got != tt.want {
			t.Errorf("CanTransition(%s, %s) = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}

func TestMemoryStore_Lifecycle(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, store.Create(ctx, &Job{ID: "j1", SourcePath: "/tmp/a.csv", State: StatePending, CreatedAt: now}))
	assert.ErrorIs(t, store.Create(ctx, &Job{ID: "j1"}), ErrDuplicateJob)

	require.NoError(t, store.Transition(ctx, "j1", Transition{From: StatePending, To: StateProcessing, At: now.Add(time.Second)}))

	result := map[string]string{"a": "Int"}
	require.NoError(t, store.Transition(ctx, "j1", Transition{From: StateProcessing, To: StateSuccess, Result: result, At: now.Add(2 * time.Second)}))

	// The stored result is a copy of what was passed in.
	result["a"] = "Text"

	job, err := store.Get(ctx, "j1")
	require.NoError(t, err)
	assert.Equal(t, StateSuccess, job.State)
	assert.Equal(t, map[string]string{"a": "Int"}, job.Result)
	assert.Equal(t, now.Add(time.Second), job.StartedAt)
	assert.Equal(t, now.Add(2*time.Second), job.FinishedAt)

	// Mutating a returned job does not reach the store.
	job.Result["a"] = "Float"
	again, err := store.Get(ctx, "j1")
	require.NoError(t, err)
	assert.Equal(t, "Int", again.Result["a"])
}

func TestMemoryStore_TransitionRejected(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	require.NoError(t, store.Create(ctx, &Job{ID: "j1", State: StatePending}))

	err := store.Transition(ctx, "j1", Transition{From: StateProcessing, To: StateSuccess})
	assert.ErrorIs(t, err, ErrInvalidTransition)

	var te *TransitionError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, StatePending, te.Actual)

	err = store.Transition(ctx, "j1", Transition{From: StatePending, To: StateSuccess})
	assert.ErrorIs(t, err, ErrInvalidTransition)

	err = store.Transition(ctx, "missing", Transition{From: StatePending, To: StateProcessing})
	assert.ErrorIs(t, err, ErrNotFound)

	job, err := store.Get(ctx, "j1")
	require.NoError(t, err)
	assert.Equal(t, StatePending, job.State, "rejected transitions leave the job untouched")
}

func TestMemoryStore_Failure(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	require.NoError(t, store.Create(ctx, &Job{ID: "j1", State: StatePending}))
	require.NoError(t, store.Transition(ctx, "j1", Transition{From: StatePending, To: StateProcessing}))
	require.NoError(t, store.Transition(ctx, "j1", Transition{From: StateProcessing, To: StateFailure, Error: "bad file"}))

	job, err := store.Get(ctx, "j1")
	require.NoError(t, err)

	st := StatusOf(job)
	assert.Equal(t, StateFailure, st.Status)
	assert.Equal(t, "bad file", st.Error)
	assert.Nil(t, st.InferredTypes)
}

func TestMemoryStore_DeleteTerminalBefore(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	finish := func(id string, at time.Time, to JobState) {
		require.NoError(t, store.Create(ctx, &Job{ID: id, State: StatePending}))
		require.NoError(t, store.Transition(ctx, id, Transition{From: StatePending, To: StateProcessing, At: at}))
		require.NoError(t, store.Transition(ctx, id, Transition{From: StateProcessing, To: to, At: at}))
	}
	finish("old-ok", base, StateSuccess)
	finish("old-fail", base.Add(time.Minute), StateFailure)
	finish("new", base.Add(2*time.Hour), StateSuccess)
	require.NoError(t, store.Create(ctx, &Job{ID: "pending", State: StatePending}))

	n, err := store.DeleteTerminalBefore(ctx, base.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	for _, id := range []string{"old-ok", "old-fail"} {
		_, err := store.Get(ctx, id)
		assert.ErrorIs(t, err, ErrNotFound, id)
	}
	for _, id := range []string{"new", "pending"} {
		_, err := store.Get(ctx, id)
		assert.NoError(t, err, id)
	}
}

func TestStatusOf(t *testing.T) {
	st := StatusOf(&Job{ID: "j", State: StateSuccess})
	assert.NotNil(t, st.InferredTypes, "SUCCESS always carries a mapping")

	st = StatusOf(&Job{ID: "j", State: StateProcessing, Error: "stale", Result: map[string]string{"a": "Int"}})
	assert.Empty(t, st.Error)
	assert.Nil(t, st.InferredTypes)
}
