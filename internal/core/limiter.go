package core

// limiter.go bounds how much work the process admits at once.
//
// The same semaphore guards two things: HTTP uploads being written to disk
// (Acquire, which waits up to maxWait) and inference jobs sitting in the
// queue or running (TryAcquire, which never blocks the submitter).

import (
	"context"
	"errors"
	"sync/atomic"
	"time"
)

// ErrTooManyUploads is returned when all slots are occupied and the wait
// timeout expires. Clients should retry after a short delay.
var ErrTooManyUploads = errors.New("too many concurrent uploads, please try again later")

const (
	// DefaultMaxConcurrent is the slot count used when none is configured.
	DefaultMaxConcurrent = 5

	// DefaultMaxWaitTime is how long Acquire waits for a slot before rejecting.
	DefaultMaxWaitTime = 30 * time.Second
)

// Limiter is a counting semaphore with a bounded wait.
type Limiter struct {
	slots   chan struct{}
	maxWait time.Duration
	active  atomic.Int64
	drained chan struct{} // signalled on every release
}

// NewLimiter creates a limiter with max slots.
// Acquire gives up with ErrTooManyUploads after maxWait.
func NewLimiter(max int, maxWait time.Duration) *Limiter {
	if max <= 0 {
		max = DefaultMaxConcurrent
	}
	if maxWait <= 0 {
		maxWait = DefaultMaxWaitTime
	}
	return &Limiter{
		slots:   make(chan struct{}, max),
		maxWait: maxWait,
		drained: make(chan struct{}, 1),
	}
}

// Acquire waits for a slot.
// The caller must call Release once the guarded work completes.
func (l *Limiter) Acquire(ctx context.Context) error {
	timer := time.NewTimer(l.maxWait)
	defer timer.Stop()

	select {
	case l.slots <- struct{}{}:
		l.active.Add(1)
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return ErrTooManyUploads
	}
}

// TryAcquire takes a slot if one is free and reports whether it did.
func (l *Limiter) TryAcquire() bool {
	select {
	case l.slots <- struct{}{}:
		l.active.Add(1)
		return true
	default:
		return false
	}
}

// Release frees a slot taken by Acquire or TryAcquire.
func (l *Limiter) Release() {
	l.active.Add(-1)
	<-l.slots

	select {
	case l.drained <- struct{}{}:
	default:
	}
}

// Active returns the number of held slots.
func (l *Limiter) Active() int {
	return int(l.active.Load())
}

// Available returns the number of free slots.
func (l *Limiter) Available() int {
	return cap(l.slots) - len(l.slots)
}

// Max returns the slot count.
func (l *Limiter) Max() int {
	return cap(l.slots)
}

// WaitForDrain blocks until no slot is held or ctx is done.
func (l *Limiter) WaitForDrain(ctx context.Context) error {
	for l.Active() > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.drained:
		case <-time.After(100 * time.Millisecond):
		}
	}
	return nil
}

// LimiterStatus is a snapshot of a Limiter.
type LimiterStatus struct {
	Active    int `json:"active"`
	Available int `json:"available"`
	Max       int `json:"max"`
}

// Status returns the current limiter state for monitoring.
func (l *Limiter) Status() LimiterStatus {
	return LimiterStatus{
		Active:    l.Active(),
		Available: l.Available(),
		Max:       l.Max(),
	}
}
