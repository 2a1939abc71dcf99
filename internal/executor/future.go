package executor

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Task is a unit of work producing a value of type T. The context is the
// task's cancellation token and must be checked at safe points; a task that
// ignores it runs to completion.
type Task[T any] func(ctx context.Context) (T, error)

type futureState int

const (
	statePending futureState = iota
	stateRunning
	stateCompleted
	stateCancelled
)

// Future is the handle to a submitted task
type Future[T any] struct {
	task Task[T]

	mu        sync.Mutex
	state     futureState
	cancelRun context.CancelFunc
	value     T
	err       error

	done chan struct{}

	started  time.Time
	duration time.Duration
}

func newFuture[T any](task Task[T]) *Future[T] {
	return &Future[T]{
		task: task,
		done: make(chan struct{}),
	}
}

// run executes the task on the calling goroutine unless the future was
// cancelled first or ctx is already done
func (f *Future[T]) run(ctx context.Context) {
	f.execute(ctx)
}

// execute is run reporting whether the task was actually invoked
func (f *Future[T]) execute(ctx context.Context) bool {
	f.mu.Lock()
	if f.state != statePending {
		f.mu.Unlock()
		return false
	}
	if err := ctx.Err(); err != nil {
		f.state = stateCancelled
		close(f.done)
		f.mu.Unlock()
		return false
	}

	taskCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	f.state = stateRunning
	f.cancelRun = cancel
	f.started = time.Now()
	f.mu.Unlock()

	value, err := callTask(taskCtx, f.task)
	f.complete(value, err)
	return true
}

// callTask runs task, converting a panic into an error
func callTask[T any](ctx context.Context, task Task[T]) (value T, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = panicError(r)
		}
	}()
	return task(ctx)
}

func (f *Future[T]) complete(value T, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	// A result arriving after Cancel is discarded
	if f.state != stateRunning && f.state != statePending {
		return
	}
	f.value = value
	f.err = err
	f.duration = time.Since(f.started)
	f.state = stateCompleted
	close(f.done)
}

// Cancel marks the future cancelled and cancels the running task's context.
// Returns false if the future had already completed or been cancelled.
func (f *Future[T]) Cancel() bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch f.state {
	case stateCompleted, stateCancelled:
		return false
	case stateRunning:
		f.cancelRun()
	}
	f.state = stateCancelled
	close(f.done)
	return true
}

// Done returns a channel closed once the future completes or is cancelled
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

// IsDone reports whether the future completed or was cancelled
func (f *Future[T]) IsDone() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}

// IsCancelled reports whether the future was cancelled
func (f *Future[T]) IsCancelled() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state == stateCancelled
}

// Duration returns how long the task ran; zero until it completes
func (f *Future[T]) Duration() time.Duration {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.duration
}

// Get waits up to timeout for the result. It returns ErrTaskCancelled for a
// cancelled future and ErrTaskTimedOut if the future is not done in time.
// The task's own error is returned unchanged. A future that is already done
// returns its result for any timeout, including zero.
func (f *Future[T]) Get(timeout time.Duration) (T, error) {
	if !f.IsDone() {
		timer := time.NewTimer(timeout)
		defer timer.Stop()

		select {
		case <-f.done:
		case <-timer.C:
			var zero T
			return zero, fmt.Errorf("%w after %s", ErrTaskTimedOut, timeout)
		}
	}
	return f.result()
}

// Wait blocks until the future is done or ctx ends. A future that is
// already done returns its result even if ctx has ended.
func (f *Future[T]) Wait(ctx context.Context) (T, error) {
	if !f.IsDone() {
		select {
		case <-f.done:
		case <-ctx.Done():
			var zero T
			return zero, ctx.Err()
		}
	}
	return f.result()
}

// result reads a settled future
func (f *Future[T]) result() (T, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.state == stateCancelled {
		var zero T
		return zero, ErrTaskCancelled
	}
	return f.value, f.err
}

// completeWith settles a future that never reached a worker
func (f *Future[T]) completeWith(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.state != statePending {
		return
	}
	f.err = err
	f.state = stateCompleted
	close(f.done)
}
