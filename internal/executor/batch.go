package executor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"runtime"
	"strings"
	"sync/atomic"
	"time"

	"github.com/oklog/ulid/v2"
)

const (
	// DefaultTimeout bounds a batch when no positive timeout is given
	DefaultTimeout = 3000 * time.Millisecond

	// DefaultNamePrefix names dedicated batch workers when no prefix is given
	DefaultNamePrefix = "batch"
)

// DefaultPoolSize returns the dedicated pool size used when none is given:
// 2 x GOMAXPROCS
func DefaultPoolSize() int {
	return 2 * runtime.GOMAXPROCS(0)
}

// Option configures a single Invoke or InvokeCollect call
type Option func(*options)

type options struct {
	poolSize   int
	timeout    time.Duration
	namePrefix string
	logger     *slog.Logger
	progressFn func(completed, total int)
}

// WithPoolSize sets the number of dedicated workers
func WithPoolSize(n int) Option {
	return func(o *options) {
		o.poolSize = n
	}
}

// WithTimeout sets the wall-clock deadline for the whole batch
func WithTimeout(d time.Duration) Option {
	return func(o *options) {
		o.timeout = d
	}
}

// WithNamePrefix sets the worker name prefix
func WithNamePrefix(prefix string) Option {
	return func(o *options) {
		o.namePrefix = prefix
	}
}

// WithLogger sets the logger used for the batch
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithProgress registers a callback invoked after each task finishes running.
// Tasks cancelled before they started are not counted, so completed may stay
// below total. It is called from worker goroutines and must be safe for
// concurrent use.
func WithProgress(fn func(completed, total int)) Option {
	return func(o *options) {
		o.progressFn = fn
	}
}

func newOptions(opts []Option) options {
	var o options
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}

	if o.poolSize <= 0 {
		o.poolSize = DefaultPoolSize()
	}
	if o.timeout <= 0 {
		o.timeout = DefaultTimeout
	}
	o.namePrefix = strings.TrimSpace(o.namePrefix)
	if o.namePrefix == "" {
		o.namePrefix = DefaultNamePrefix
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	return o
}

// BatchResult is the fail-soft outcome of a batch: the non-nil values in
// submission order and every error encountered, in the order encountered
type BatchResult[T any] struct {
	Values []T
	Errors []error
}

// Invoke runs tasks on a dedicated pool and returns their non-nil results in
// submission order. Nil tasks are ignored. The first task failure, result
// fetch timeout or cancellation of ctx aborts the call and is returned;
// values collected so far are discarded. Tasks still running when the
// timeout elapses are cancelled and contribute nothing.
//
// The dedicated pool is shut down before Invoke returns.
func Invoke[T any](ctx context.Context, tasks []Task[T], opts ...Option) ([]T, error) {
	values, _, err := invoke(ctx, tasks, true, newOptions(opts))
	if err != nil {
		return nil, err
	}
	return values, nil
}

// InvokeCollect is the fail-soft form of Invoke: failures are accumulated in
// the result's Errors and successful values are still returned.
func InvokeCollect[T any](ctx context.Context, tasks []Task[T], opts ...Option) *BatchResult[T] {
	values, errs, _ := invoke(ctx, tasks, false, newOptions(opts))
	return &BatchResult[T]{
		Values: values,
		Errors: errs,
	}
}

// indexedTask keeps a task's position in the caller's slice
type indexedTask[T any] struct {
	index int
	task  Task[T]
}

func validTasks[T any](tasks []Task[T]) []indexedTask[T] {
	valid := make([]indexedTask[T], 0, len(tasks))
	for i, task := range tasks {
		if task != nil {
			valid = append(valid, indexedTask[T]{index: i, task: task})
		}
	}
	return valid
}

func invoke[T any](ctx context.Context, tasks []Task[T], failFast bool, o options) ([]T, []error, error) {
	valid := validTasks(tasks)
	if len(valid) == 0 {
		return []T{}, nil, nil
	}

	mode := "collect"
	if failFast {
		mode = "strict"
	}

	logger := o.logger.With("batch_id", ulid.Make().String())
	o.logger = logger
	startTime := time.Now()
	defer func() {
		batchesTotal.WithLabelValues(mode).Inc()
		batchDuration.WithLabelValues(mode).Observe(time.Since(startTime).Seconds())
	}()

	logger.Info("starting batch",
		"mode", mode,
		"tasks", len(valid),
		"workers", min(o.poolSize, len(valid)),
		"timeout", o.timeout)

	// Queue capacity equals the batch size, so no accepted task is rejected
	pool := NewWorkerPool(PoolConfig{
		Workers:    min(o.poolSize, len(valid)),
		QueueSize:  len(valid),
		NamePrefix: o.namePrefix,
	}, logger)

	var errs []error

	futures, err := submitAndWait(ctx, pool, valid, o)
	if err != nil {
		logger.Error("batch interrupted", "error", err)
		if failFast {
			pool.ShutdownNow()
			if !pool.AwaitTermination(o.timeout) {
				logger.Error("shutdown executor failed", "error", ErrShutdownIncomplete)
			}
			return nil, nil, err
		}
		errs = append(errs, err)
	}

	shutdownPool(pool, o.timeout, logger)

	values, errs, err := collect(futures, valid, errs, failFast, o.timeout, logger)
	if err != nil {
		return nil, nil, err
	}

	logger.Info("batch completed",
		"tasks", len(valid),
		"values", len(values),
		"errors", len(errs),
		"duration", time.Since(startTime))

	return values, errs, nil
}

// submitAndWait submits every task and waits until all are done, the batch
// timeout elapses or ctx ends. Unfinished futures are cancelled in the last
// two cases. A non-nil error means ctx ended first.
func submitAndWait[T any](
	ctx context.Context,
	pool *WorkerPool,
	tasks []indexedTask[T],
	o options,
) ([]*Future[T], error) {
	timer := time.NewTimer(o.timeout)
	defer timer.Stop()

	total := len(tasks)
	var completed atomic.Int32

	futures := make([]*Future[T], total)
	for i, t := range tasks {
		f := newFuture(t.task)
		futures[i] = f

		job := f.run
		if o.progressFn != nil {
			job = func(ctx context.Context) {
				if f.execute(ctx) {
					o.progressFn(int(completed.Add(1)), total)
				}
			}
		}
		if err := pool.Submit(job); err != nil {
			f.completeWith(err)
		}
	}

	for _, f := range futures {
		select {
		case <-f.Done():
		case <-timer.C:
			n := cancelUnfinished(futures)
			o.logger.Warn("batch deadline exceeded, cancelled unfinished tasks",
				"timeout", o.timeout,
				"cancelled", n)
			return futures, nil
		case <-ctx.Done():
			cancelUnfinished(futures)
			return futures, fmt.Errorf("%w: %w", ErrSubmissionInterrupted, context.Cause(ctx))
		}
	}
	return futures, nil
}

func cancelUnfinished[T any](futures []*Future[T]) int {
	n := 0
	for _, f := range futures {
		if f.Cancel() {
			n++
		}
	}
	return n
}

// shutdownPool tears the pool down; failure is logged, never returned
func shutdownPool(pool *WorkerPool, timeout time.Duration, logger *slog.Logger) {
	if err := pool.Close(timeout); err != nil {
		logger.Error("shutdown executor failed", "error", err)
	}
}

// collect drains futures in submission order
func collect[T any](
	futures []*Future[T],
	tasks []indexedTask[T],
	errs []error,
	failFast bool,
	timeout time.Duration,
	logger *slog.Logger,
) ([]T, []error, error) {
	values := make([]T, 0, len(futures))

	for i, f := range futures {
		index := tasks[i].index

		if f.IsCancelled() {
			tasksTotal.WithLabelValues("cancelled").Inc()
			logger.Warn("task cancelled", "index", index)
			continue
		}

		value, err := f.Get(timeout)
		if errors.Is(err, ErrTaskCancelled) {
			tasksTotal.WithLabelValues("cancelled").Inc()
			logger.Warn("task cancelled", "index", index)
			continue
		}
		if err != nil {
			var taskErr *TaskError
			// submitAndWait settles or cancels every future, so a fetch
			// timeout only happens if a future is left pending
			if errors.Is(err, ErrTaskTimedOut) {
				tasksTotal.WithLabelValues("timed_out").Inc()
				taskErr = newTaskError(index, ErrTaskTimedOut, fmt.Errorf("no result after %s", timeout))
			} else {
				tasksTotal.WithLabelValues("failed").Inc()
				taskErr = newTaskError(index, ErrTaskFailed, err)
			}

			logger.Error("task failed", "index", index, "error", err)
			if failFast {
				return nil, nil, taskErr
			}
			errs = append(errs, taskErr)
			continue
		}

		if isNil(value) {
			tasksTotal.WithLabelValues("dropped").Inc()
			logger.Debug("dropping nil result", "index", index)
			continue
		}

		tasksTotal.WithLabelValues("succeeded").Inc()
		values = append(values, value)
	}

	return values, errs, nil
}

// isNil reports whether v is nil or a nil pointer, map, slice, channel,
// function or interface
func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Chan, reflect.Func, reflect.Interface:
		return rv.IsNil()
	}
	return false
}
