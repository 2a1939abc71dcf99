package executor

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/pprof"
	"sync"
	"sync/atomic"
	"time"
)

// PoolConfig sizes a WorkerPool
type PoolConfig struct {
	// Workers is the fixed number of worker goroutines (<= 0 means 1)
	Workers int

	// QueueSize is the capacity of the work queue (< 0 means 0)
	QueueSize int

	// NamePrefix names workers "<NamePrefix>-<index>"
	NamePrefix string
}

// WorkerPool runs submitted functions on a fixed set of goroutines fed by a
// bounded queue. When the queue is full the submitting goroutine runs the
// function itself.
type WorkerPool struct {
	// name is the worker name prefix
	name string

	// workers is the number of worker goroutines started
	workers int

	// queue carries work to the workers; closed by Shutdown
	queue chan func(ctx context.Context)

	// mu orders Submit against closing the queue
	mu sync.RWMutex

	// ctx is cancelled by ShutdownNow and is the parent of every job context
	ctx    context.Context
	cancel context.CancelFunc

	logger *slog.Logger

	shutdown   atomic.Bool
	callerRuns atomic.Int64

	wg         sync.WaitGroup
	terminated chan struct{}
}

// NewWorkerPool creates a pool and starts its workers
func NewWorkerPool(cfg PoolConfig, logger *slog.Logger) *WorkerPool {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.QueueSize < 0 {
		cfg.QueueSize = 0
	}
	if cfg.NamePrefix == "" {
		cfg.NamePrefix = DefaultNamePrefix
	}
	if logger == nil {
		logger = slog.Default()
	}

	ctx, cancel := context.WithCancel(context.Background())
	p := &WorkerPool{
		name:       cfg.NamePrefix,
		workers:    cfg.Workers,
		queue:      make(chan func(ctx context.Context), cfg.QueueSize),
		ctx:        ctx,
		cancel:     cancel,
		logger:     logger,
		terminated: make(chan struct{}),
	}

	p.wg.Add(cfg.Workers)
	for i := 0; i < cfg.Workers; i++ {
		liveWorkers.Add(1)
		workersLive.Inc()
		go p.worker(i)
	}

	go func() {
		p.wg.Wait()
		close(p.terminated)
	}()

	p.logger.Debug("worker pool started",
		"pool", p.name,
		"workers", cfg.Workers,
		"queue_size", cfg.QueueSize)

	return p
}

// Submit queues fn for execution. If the queue is full, fn runs on the
// calling goroutine before Submit returns. Returns ErrPoolShutdown once
// Shutdown has been called; fn is not run in that case.
func (p *WorkerPool) Submit(fn func(ctx context.Context)) error {
	p.mu.RLock()
	if p.shutdown.Load() {
		p.mu.RUnlock()
		return ErrPoolShutdown
	}

	select {
	case p.queue <- fn:
		p.mu.RUnlock()
		return nil
	default:
	}
	p.mu.RUnlock()

	p.callerRuns.Add(1)
	callerRunsTotal.WithLabelValues(p.name).Inc()
	p.logger.Debug("queue full, running on caller", "pool", p.name)

	p.runJob(withWorkerName(p.ctx, p.name+"-caller"), fn)
	return nil
}

// worker drains the queue until it is closed
func (p *WorkerPool) worker(id int) {
	defer p.wg.Done()
	defer func() {
		liveWorkers.Add(-1)
		workersLive.Dec()
	}()

	name := fmt.Sprintf("%s-%d", p.name, id)
	ctx := withWorkerName(p.ctx, name)

	p.logger.Debug("worker started", "worker", name)

	pprof.Do(ctx, pprof.Labels("worker", name), func(ctx context.Context) {
		for fn := range p.queue {
			p.runJob(ctx, fn)
		}
	})

	p.logger.Debug("worker finished", "worker", name)
}

// runJob runs fn, keeping a panicking fn from taking down its worker
func (p *WorkerPool) runJob(ctx context.Context, fn func(ctx context.Context)) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("job panicked",
				"worker", WorkerName(ctx),
				"panic", r)
		}
	}()
	fn(ctx)
}

// Shutdown stops intake. Queued work still runs.
func (p *WorkerPool) Shutdown() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.shutdown.CompareAndSwap(false, true) {
		close(p.queue)
		p.logger.Debug("worker pool shutting down", "pool", p.name)
	}
}

// ShutdownNow stops intake and cancels the context of every running and
// queued job. Jobs still dequeued afterwards see a cancelled context.
func (p *WorkerPool) ShutdownNow() {
	p.Shutdown()
	p.cancel()
}

// AwaitTermination blocks until all workers have exited or timeout elapses.
// Returns true if the pool terminated.
func (p *WorkerPool) AwaitTermination(timeout time.Duration) bool {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-p.terminated:
		return true
	case <-timer.C:
		return false
	}
}

// Close shuts the pool down in two phases bounded by timeout each: drain,
// then force-stop. Returns ErrShutdownIncomplete if workers survive both.
func (p *WorkerPool) Close(timeout time.Duration) error {
	p.Shutdown()
	if p.AwaitTermination(timeout) {
		return nil
	}

	p.logger.Warn("worker pool did not drain in time, cancelling running work",
		"pool", p.name,
		"timeout", timeout)
	p.ShutdownNow()

	if p.AwaitTermination(timeout) {
		return nil
	}
	return fmt.Errorf("pool %q: %w", p.name, ErrShutdownIncomplete)
}

// IsShutdown reports whether Shutdown has been called
func (p *WorkerPool) IsShutdown() bool {
	return p.shutdown.Load()
}

// IsTerminated reports whether every worker has exited
func (p *WorkerPool) IsTerminated() bool {
	select {
	case <-p.terminated:
		return true
	default:
		return false
	}
}

// WorkerCount returns the number of workers in the pool
func (p *WorkerPool) WorkerCount() int {
	return p.workers
}

// QueueCapacity returns the capacity of the work queue
func (p *WorkerPool) QueueCapacity() int {
	return cap(p.queue)
}

// CallerRuns returns how many submissions ran on the submitting goroutine
func (p *WorkerPool) CallerRuns() int64 {
	return p.callerRuns.Load()
}

// Name returns the worker name prefix
func (p *WorkerPool) Name() string {
	return p.name
}

type workerNameKey struct{}

func withWorkerName(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, workerNameKey{}, name)
}

// WorkerName returns the name of the worker running the task that owns ctx,
// or "" outside a pool
func WorkerName(ctx context.Context) string {
	name, _ := ctx.Value(workerNameKey{}).(string)
	return name
}

// liveWorkers counts worker goroutines across every pool in the process
var liveWorkers atomic.Int64

// LiveWorkers returns the number of worker goroutines currently alive
// across all pools
func LiveWorkers() int {
	return int(liveWorkers.Load())
}
