package config

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/aryankumar/batchexec/internal/executor"
)

// TestConfigDrivesExecutor loads a config file and runs a batch and the shared
// executor with the resulting settings
func TestConfigDrivesExecutor(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	config, err := NewManager(writeConfig(t, `
shared:
  workers: 2
  queueSize: 4
batch:
  poolSize: 2
  timeout: 2s
  namePrefix: cfgtest
`)).Load()
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	tasks := make([]executor.Task[string], 4)
	for i := range tasks {
		tasks[i] = func(ctx context.Context) (string, error) {
			return executor.WorkerName(ctx), nil
		}
	}

	names, err := executor.Invoke(context.Background(), tasks, config.BatchOptions()...)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(names) != len(tasks) {
		t.Fatalf("expected %d results, got %d", len(tasks), len(names))
	}
	for _, name := range names {
		if len(name) < len("cfgtest-") || name[:len("cfgtest-")] != "cfgtest-" {
			t.Errorf("expected worker from configured prefix, got %q", name)
		}
	}

	shared := executor.NewShared(config.SharedExecutorConfig(), nil)
	if shared.WorkerCount() != 2 || shared.QueueCapacity() != 4 {
		t.Errorf("shared executor not sized from config: %d workers, queue %d",
			shared.WorkerCount(), shared.QueueCapacity())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := shared.Close(ctx); err != nil {
		t.Errorf("failed to close shared executor: %v", err)
	}
}

// TestManagerConcurrentLoad loads the same file from many managers at once
func TestManagerConcurrentLoad(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	configPath := writeConfig(t, "batch:\n  poolSize: 5\n")

	const numGoroutines = 10
	var wg sync.WaitGroup
	errs := make(chan error, numGoroutines)

	for i := 0; i < numGoroutines; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()

			config, err := NewManager(configPath).Load()
			if err != nil {
				errs <- fmt.Errorf("goroutine %d: %w", id, err)
				return
			}
			if config.Batch.PoolSize != 5 {
				errs <- fmt.Errorf("goroutine %d: got pool size %d", id, config.Batch.PoolSize)
			}
		}(i)
	}

	wg.Wait()
	close(errs)

	for err := range errs {
		t.Error(err)
	}
}
