// Package executor runs independent tasks on bounded worker pools.
//
// It offers two entry points that share one pool primitive (WorkerPool):
// a long-lived Shared executor for cheap asynchronous work, and the batch
// invoker (Invoke, InvokeCollect) which builds a dedicated pool per call,
// enforces a deadline for the whole batch and tears the pool down before
// returning.
//
// # Key Features
//
//   - Fixed-size worker pools with a bounded queue
//   - Caller-runs backpressure when the queue is full
//   - Per-batch wall-clock deadline with cooperative cancellation
//   - Results collected in submission order, not completion order
//   - Fail-fast (Invoke) or fail-soft (InvokeCollect) error handling
//   - Two-phase shutdown: drain, then force-stop
//
// # Batch Usage
//
//	tasks := []executor.Task[string]{
//	    func(ctx context.Context) (string, error) { return fetch(ctx, "a") },
//	    func(ctx context.Context) (string, error) { return fetch(ctx, "b") },
//	}
//
//	values, err := executor.Invoke(ctx, tasks,
//	    executor.WithPoolSize(4),
//	    executor.WithTimeout(2*time.Second),
//	)
//
// Invoke returns the first failure and discards everything collected so far.
// Use InvokeCollect to keep the successful values and inspect the failures:
//
//	res := executor.InvokeCollect(ctx, tasks)
//	for _, err := range res.Errors {
//	    if i, ok := executor.TaskIndex(err); ok {
//	        log.Printf("task %d: %v", i, err)
//	    }
//	}
//
// Nil tasks are ignored and nil results (nil pointers, maps, slices,
// interfaces and so on) are dropped silently. A task still running when the
// deadline elapses is cancelled: its context is cancelled and its result, if
// it ever produces one, is discarded. Tasks must watch ctx to stop early.
//
// # Shared Executor
//
//	shared := executor.NewShared(executor.SharedConfig{}, logger)
//	defer shared.Close(shutdownCtx)
//
//	f := executor.Submit(shared, func(ctx context.Context) (int, error) {
//	    return compute(ctx)
//	})
//	v, err := f.Get(time.Second)
//
//	shared.Execute(func(ctx context.Context) { audit(ctx) })
//
// # Concurrency Guarantees
//
//   - A dedicated batch pool never outlives its Invoke call
//   - Queue capacity equals batch size, so batch tasks are never rejected
//   - Every blocking step of Invoke is bounded by the batch timeout
//   - BatchResult.Errors is written only by the invoking goroutine
package executor
