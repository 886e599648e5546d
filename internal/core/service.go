package core

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/JonMunkholm/datamorpher/internal/inference"
	"github.com/JonMunkholm/datamorpher/internal/logging"
	"github.com/google/uuid"
)

// Inferrer produces a column type report for a file on disk.
// *inference.Engine satisfies it.
type Inferrer interface {
	Infer(ctx context.Context, path string) (*inference.Report, error)
}

// Options configures a Service.
type Options struct {
	// Workers is the number of jobs executed at once (default 4).
	Workers int

	// QueueSize bounds jobs that are pending or running (default 100).
	QueueSize int

	// JobTimeout aborts a job that runs longer. Zero disables it.
	JobTimeout time.Duration
}

const (
	DefaultWorkers   = 4
	DefaultQueueSize = 100
)

const (
	storeAttempts   = 3
	storeRetryDelay = 100 * time.Millisecond
)

// ServiceStats is a snapshot of queue usage. Queued and InFlight are
// disjoint: a job is counted in one or the other until it finishes.
type ServiceStats struct {
	Workers  int `json:"workers"`
	Queued   int `json:"queued"`
	InFlight int `json:"in_flight"`
	Capacity int `json:"capacity"`
}

type queuedJob struct {
	id   string
	path string
	log  *slog.Logger
}

// Service accepts inference jobs and executes them on a worker pool.
//
// Submit never waits for a job to run. Each job moves
// PENDING -> PROCESSING -> SUCCESS | FAILURE exactly once, and its source
// file is removed exactly once before the terminal state is published.
type Service struct {
	store   Store
	engine  Inferrer
	opts    Options
	limiter *Limiter

	queue chan queuedJob

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu       sync.RWMutex
	closing  bool
	started  bool
	shutdown chan struct{}

	now    func() time.Time
	remove func(string) error
}

// NewService creates a Service. Call Start to begin executing jobs.
func NewService(store Store, engine Inferrer, opts Options) *Service {
	if opts.Workers <= 0 {
		opts.Workers = DefaultWorkers
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = DefaultQueueSize
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Service{
		store:    store,
		engine:   engine,
		opts:     opts,
		limiter:  NewLimiter(opts.QueueSize, 0),
		queue:    make(chan queuedJob, opts.QueueSize),
		ctx:      ctx,
		cancel:   cancel,
		shutdown: make(chan struct{}),
		now:      time.Now,
		remove:   os.Remove,
	}
}

// Start launches the worker pool. Calling it more than once has no effect.
func (s *Service) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.startLocked()
}

func (s *Service) startLocked() {
	if s.started {
		return
	}
	s.started = true

	for i := 0; i < s.opts.Workers; i++ {
		s.wg.Add(1)
		go s.worker()
	}
	slog.Info("inference workers started",
		"workers", s.opts.Workers,
		"queue_size", s.opts.QueueSize,
		"job_timeout", s.opts.JobTimeout,
	)
}

// Submit records a PENDING job for the file at path and queues it.
// The file must already exist; it is removed once the job finishes.
func (s *Service) Submit(ctx context.Context, path string) (string, error) {
	if !filepath.IsAbs(path) {
		return "", fmt.Errorf("%w: %q", ErrInvalidPath, path)
	}

	// Held for reading until the send so Shutdown cannot close the queue
	// underneath us.
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closing {
		return "", ErrShuttingDown
	}
	if !s.limiter.TryAcquire() {
		return "", ErrQueueFull
	}

	job := &Job{
		ID:         uuid.NewString(),
		SourcePath: path,
		State:      StatePending,
		CreatedAt:  s.now(),
	}
	if err := s.store.Create(ctx, job); err != nil {
		s.limiter.Release()
		return "", fmt.Errorf("record job: %w", err)
	}

	jobLog := logging.ForJob(ctx, job.ID)
	jobLog.Info("job submitted", "path", path)

	// The limiter admits at most QueueSize jobs, so this never blocks.
	s.queue <- queuedJob{id: job.ID, path: path, log: jobLog}
	return job.ID, nil
}

// Status returns the polling view of a job. Unknown ids yield ErrNotFound.
func (s *Service) Status(ctx context.Context, id string) (JobStatus, error) {
	job, err := s.store.Get(ctx, id)
	if err != nil {
		return JobStatus{}, err
	}
	return StatusOf(job), nil
}

// Get returns the full job record.
func (s *Service) Get(ctx context.Context, id string) (*Job, error) {
	return s.store.Get(ctx, id)
}

// Stats reports queue usage.
func (s *Service) Stats() ServiceStats {
	admitted := s.limiter.Active()
	queued := len(s.queue)
	return ServiceStats{
		Workers:  s.opts.Workers,
		Queued:   queued,
		InFlight: max(admitted-queued, 0),
		Capacity: s.limiter.Max(),
	}
}

// Shutdown stops accepting jobs and waits for running ones to finish.
// Jobs still queued are failed rather than started. If ctx expires first,
// running jobs are cancelled and ctx.Err() is returned.
func (s *Service) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	if s.closing {
		s.mu.Unlock()
		return s.waitWorkers(ctx)
	}
	s.closing = true
	close(s.shutdown)
	close(s.queue)
	// Workers are needed to fail whatever is still queued.
	s.startLocked()
	s.mu.Unlock()

	slog.Info("inference service shutting down", "queued", len(s.queue))
	return s.waitWorkers(ctx)
}

func (s *Service) waitWorkers(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.cancel()
		return nil
	case <-ctx.Done():
		s.cancel()
		return ctx.Err()
	}
}

func (s *Service) worker() {
	defer s.wg.Done()
	for q := range s.queue {
		s.run(q)
	}
}

func (s *Service) isClosing() bool {
	select {
	case <-s.shutdown:
		return true
	default:
		return false
	}
}

// run drives one job to a terminal state.
func (s *Service) run(q queuedJob) {
	defer s.limiter.Release()

	// Store writes must land even after the worker context is cancelled.
	storeCtx := context.WithoutCancel(s.ctx)

	start := s.now()
	if err := s.transition(storeCtx, q.id, Transition{From: StatePending, To: StateProcessing, At: start}); err != nil {
		// A record only leaves PENDING through PROCESSING, so it stays PENDING
		// when the store keeps rejecting this write.
		q.log.Error("job could not be started, record left pending", "error", err)
		s.removeSource(q)
		return
	}

	var (
		report *inference.Report
		err    error
	)
	if s.isClosing() {
		err = ErrShuttingDown
	} else {
		q.log.Info("job started")
		report, err = s.execute(q.path)
	}

	s.removeSource(q)

	t := Transition{From: StateProcessing, At: s.now()}
	if err != nil {
		t.To = StateFailure
		t.Error = FormatUserError(err)
		q.log.Warn("job failed", "error", err, "duration_ms", time.Since(start).Milliseconds())
	} else {
		t.To = StateSuccess
		t.Result = report.Types()
		q.log.Info("job succeeded",
			"columns", len(report.Columns),
			"rows", report.Rows,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	}

	if err := s.transition(storeCtx, q.id, t); err != nil {
		q.log.Error("job outcome not recorded", "state", t.To, "error", err)
	}
}

// transition applies t, retrying store errors. A lost compare-and-set or a
// missing record is returned at once. When a retry finds the record already
// in t.To, an earlier attempt landed and the call succeeds.
func (s *Service) transition(ctx context.Context, id string, t Transition) error {
	var err error
	for attempt := 1; attempt <= storeAttempts; attempt++ {
		err = s.store.Transition(ctx, id, t)
		if err == nil {
			return nil
		}

		var te *TransitionError
		if errors.As(err, &te) {
			if attempt > 1 && te.Actual == t.To {
				return nil
			}
			return err
		}
		if errors.Is(err, ErrNotFound) {
			return err
		}

		if attempt < storeAttempts {
			time.Sleep(time.Duration(attempt) * storeRetryDelay)
		}
	}
	return err
}

// execute runs the engine, converting a panic into an error.
func (s *Service) execute(path string) (report *inference.Report, err error) {
	defer func() {
		if r := recover(); r != nil {
			report = nil
			err = fmt.Errorf("inference failed: worker panic: %v", r)
		}
	}()

	ctx := s.ctx
	if s.opts.JobTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.JobTimeout)
		defer cancel()
	}

	report, err = s.engine.Infer(ctx, path)
	if err != nil {
		switch {
		case errors.Is(ctx.Err(), context.DeadlineExceeded):
			err = fmt.Errorf("job timed out after %s: %w", s.opts.JobTimeout, err)
		case s.ctx.Err() != nil:
			err = fmt.Errorf("%w: %w", ErrShuttingDown, err)
		}
	}
	return report, err
}

// removeSource deletes the job's input file. A missing file is not an error.
func (s *Service) removeSource(q queuedJob) {
	err := s.remove(q.path)
	switch {
	case err == nil:
		q.log.Debug("source file removed", "path", q.path)
	case errors.Is(err, fs.ErrNotExist):
		q.log.Debug("source file already gone", "path", q.path)
	default:
		q.log.Error("source file not removed", "path", q.path, "error", err)
	}
}
