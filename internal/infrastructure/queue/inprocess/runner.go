// Package inprocess runs background jobs on a bounded pool of goroutines
// inside the API process. Jobs are lost if the process exits.
package inprocess

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/kirillkom/medintake/internal/core/domain"
	"github.com/kirillkom/medintake/internal/core/ports"
)

var ErrClosed = errors.New("task runner is shutting down")

type Runner struct {
	logger  *slog.Logger
	workers int
	timeout time.Duration

	ch     chan domain.Job
	wg     sync.WaitGroup
	once   sync.Once
	mu     sync.RWMutex
	closed bool
}

type Option func(*Runner)

func WithWorkers(n int) Option {
	return func(r *Runner) {
		if n > 0 {
			r.workers = n
		}
	}
}

func WithQueueSize(n int) Option {
	return func(r *Runner) {
		if n > 0 {
			r.ch = make(chan domain.Job, n)
		}
	}
}

func WithJobTimeout(d time.Duration) Option {
	return func(r *Runner) {
		if d > 0 {
			r.timeout = d
		}
	}
}

func New(logger *slog.Logger, opts ...Option) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Runner{
		logger:  logger,
		workers: 4,
		timeout: 5 * time.Minute,
		ch:      make(chan domain.Job, 256),
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Start launches the workers. Jobs submitted earlier wait in the buffer.
func (r *Runner) Start(handler ports.JobHandler) {
	r.once.Do(func() {
		for i := 0; i < r.workers; i++ {
			r.wg.Add(1)
			go r.work(i+1, handler)
		}
	})
}

func (r *Runner) work(workerID int, handler ports.JobHandler) {
	defer r.wg.Done()
	for job := range r.ch {
		r.run(workerID, handler, job)
	}
}

func (r *Runner) run(workerID int, handler ports.JobHandler, job domain.Job) {
	// Detached from the submitting request: the job outlives it.
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("job.panic", "worker_id", workerID, "kind", job.Kind, "document_id", job.DocumentID, "panic", rec)
		}
	}()

	if err := handler.Handle(ctx, job); err != nil {
		r.logger.Error("job.failed", "worker_id", workerID, "kind", job.Kind, "document_id", job.DocumentID, "error", err)
	}
}

// Submit enqueues job, blocking while the buffer is full.
func (r *Runner) Submit(ctx context.Context, job domain.Job) error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		return domain.WrapError(domain.ErrTemporary, "submit job", ErrClosed)
	}
	if job.SubmittedAt.IsZero() {
		job.SubmittedAt = time.Now().UTC()
	}
	select {
	case r.ch <- job:
		return nil
	default:
	}
	r.logger.Warn("job.queue_full", "kind", job.Kind, "document_id", job.DocumentID)
	select {
	case r.ch <- job:
		return nil
	case <-ctx.Done():
		return domain.WrapError(domain.ErrTemporary, "submit job", ctx.Err())
	}
}

// Shutdown stops accepting jobs and waits for queued ones until ctx expires.
func (r *Runner) Shutdown(ctx context.Context) {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	close(r.ch)
	r.mu.Unlock()

	done := make(chan struct{})
	go func() {
		defer close(done)
		r.wg.Wait()
	}()

	select {
	case <-ctx.Done():
		r.logger.Warn("runner.shutdown_interrupted")
	case <-done:
		r.logger.Info("runner.drained")
	}
}
