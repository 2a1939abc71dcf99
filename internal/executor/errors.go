package executor

import (
	"errors"
	"fmt"
)

const namespace = "executor"

// Error kinds reported by the batch invoker and the worker pools
var (
	// ErrSubmissionInterrupted indicates the caller's context ended while
	// waiting for a batch to complete
	ErrSubmissionInterrupted = errors.New(namespace + ": batch submission interrupted")

	// ErrTaskFailed indicates an individual task returned an error or panicked
	ErrTaskFailed = errors.New(namespace + ": task failed")

	// ErrTaskTimedOut indicates a task's result could not be fetched in time
	ErrTaskTimedOut = errors.New(namespace + ": task result not available before deadline")

	// ErrShutdownIncomplete indicates a pool still had live workers after
	// force-stop. It is logged, never returned from Invoke.
	ErrShutdownIncomplete = errors.New(namespace + ": worker pool did not shut down cleanly")

	// ErrTaskCancelled is returned by Future.Get for cancelled futures
	ErrTaskCancelled = errors.New(namespace + ": task cancelled")

	// ErrTaskPanicked wraps a recovered panic value
	ErrTaskPanicked = errors.New(namespace + ": task panicked")

	// ErrPoolShutdown indicates the pool no longer accepts queued work
	ErrPoolShutdown = errors.New(namespace + ": worker pool is shut down")
)

// TaskError tags a per-task failure with the task's position in the batch
type TaskError struct {
	// Index is the task's position in the slice passed to Invoke
	Index int

	// Kind is one of ErrTaskFailed or ErrTaskTimedOut
	Kind error

	// Err is the underlying cause
	Err error
}

func newTaskError(index int, kind, err error) *TaskError {
	return &TaskError{Index: index, Kind: kind, Err: err}
}

// Error implements the error interface
func (e *TaskError) Error() string {
	return fmt.Sprintf("task %d: %v: %v", e.Index, e.Kind, e.Err)
}

// Unwrap exposes both the kind and the cause so errors.Is matches either
func (e *TaskError) Unwrap() []error {
	return []error{e.Kind, e.Err}
}

// TaskIndex returns the batch index carried by err, if any
func TaskIndex(err error) (int, bool) {
	var te *TaskError
	if errors.As(err, &te) {
		return te.Index, true
	}
	return 0, false
}

// panicError converts a recovered panic value into an error
func panicError(v any) error {
	if err, ok := v.(error); ok {
		return fmt.Errorf("%w: %w", ErrTaskPanicked, err)
	}
	return fmt.Errorf("%w: %v", ErrTaskPanicked, v)
}
