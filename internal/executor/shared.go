package executor

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"time"
)

const sharedNamePrefix = "shared"

// SharedConfig sizes a Shared executor. Zero values select the defaults.
type SharedConfig struct {
	// Workers defaults to 4 x GOMAXPROCS
	Workers int

	// QueueSize defaults to 32 x GOMAXPROCS
	QueueSize int
}

// DefaultSharedConfig returns the default shared executor sizing
func DefaultSharedConfig() SharedConfig {
	cpu := runtime.GOMAXPROCS(0)
	return SharedConfig{
		Workers:   4 * cpu,
		QueueSize: 32 * cpu,
	}
}

// Shared is a long-lived pool for cheap asynchronous work that needs neither
// custom sizing nor a deadline. Create one at startup, pass it to whatever
// needs it and Close it during shutdown.
type Shared struct {
	pool   *WorkerPool
	logger *slog.Logger
}

// NewShared creates and starts a shared executor
func NewShared(cfg SharedConfig, logger *slog.Logger) *Shared {
	if logger == nil {
		logger = slog.Default()
	}

	defaults := DefaultSharedConfig()
	if cfg.Workers <= 0 {
		cfg.Workers = defaults.Workers
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = defaults.QueueSize
	}

	logger.Info("starting shared executor",
		"workers", cfg.Workers,
		"queue_size", cfg.QueueSize)

	return &Shared{
		pool: NewWorkerPool(PoolConfig{
			Workers:    cfg.Workers,
			QueueSize:  cfg.QueueSize,
			NamePrefix: sharedNamePrefix,
		}, logger),
		logger: logger,
	}
}

// Submit queues task on the shared executor and returns its future. When the
// queue is full the task runs on the calling goroutine. After Close the
// future completes immediately with ErrPoolShutdown.
func Submit[T any](s *Shared, task Task[T]) *Future[T] {
	f := newFuture(task)
	if task == nil {
		f.completeWith(fmt.Errorf("%w: nil task", ErrTaskFailed))
		return f
	}

	if err := s.pool.Submit(f.run); err != nil {
		f.completeWith(err)
	}
	return f
}

// Execute queues fn for fire-and-forget execution with the same caller-runs
// backpressure as Submit. Work submitted after Close is dropped and logged.
func (s *Shared) Execute(fn func(ctx context.Context)) {
	if fn == nil {
		return
	}

	err := s.pool.Submit(func(ctx context.Context) {
		if ctx.Err() != nil {
			return
		}
		fn(ctx)
	})
	if err != nil {
		s.logger.Warn("dropping work submitted to closed shared executor", "error", err)
	}
}

// Close stops intake, waits for queued work and force-stops whatever is left
// when ctx expires. The deadline of ctx is split between the two phases.
func (s *Shared) Close(ctx context.Context) error {
	s.logger.Info("shutting down shared executor")

	timeout := DefaultTimeout
	if deadline, ok := ctx.Deadline(); ok {
		timeout = time.Until(deadline) / 2
	}

	if err := s.pool.Close(timeout); err != nil {
		s.logger.Error("shared executor shutdown incomplete", "error", err)
		return err
	}

	s.logger.Info("shared executor shut down successfully")
	return nil
}

// WorkerCount returns the number of shared workers
func (s *Shared) WorkerCount() int {
	return s.pool.WorkerCount()
}

// QueueCapacity returns the shared queue capacity
func (s *Shared) QueueCapacity() int {
	return s.pool.QueueCapacity()
}

// CallerRuns returns how many submissions ran on their submitter
func (s *Shared) CallerRuns() int64 {
	return s.pool.CallerRuns()
}

// IsTerminated reports whether every shared worker has exited
func (s *Shared) IsTerminated() bool {
	return s.pool.IsTerminated()
}
