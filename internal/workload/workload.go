// Package workload builds synthetic sub-request batches used by the CLI and
// the HTTP shell to drive the executor.
package workload

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/aryankumar/batchexec/internal/executor"
)

// ErrInjected is returned by sub-requests listed in Spec.Fail.
var ErrInjected = errors.New("injected failure")

// MaxTasks caps the size of a synthetic batch.
const MaxTasks = 10000

// Spec describes a synthetic batch.
type Spec struct {
	// Tasks is the number of sub-requests
	Tasks int

	// Sleep is how long each sub-request takes
	Sleep time.Duration

	// Fail lists sub-requests that return ErrInjected
	Fail []int

	// Slow lists sub-requests that take SlowSleep instead of Sleep
	Slow []int

	// SlowSleep defaults to ten times Sleep, at least one second
	SlowSleep time.Duration

	// Empty lists sub-requests that return a nil result
	Empty []int
}

// Result is what a successful sub-request returns.
type Result struct {
	Index    int           `json:"index" yaml:"index"`
	Worker   string        `json:"worker" yaml:"worker"`
	Duration time.Duration `json:"duration" yaml:"duration"`
}

// Validate reports whether the spec can be built.
func (s Spec) Validate() error {
	if s.Tasks < 0 || s.Tasks > MaxTasks {
		return fmt.Errorf("tasks must be between 0 and %d, got %d", MaxTasks, s.Tasks)
	}
	if s.Sleep < 0 {
		return fmt.Errorf("sleep must not be negative, got %s", s.Sleep)
	}
	for _, set := range [][]int{s.Fail, s.Slow, s.Empty} {
		for _, i := range set {
			if i < 0 || i >= s.Tasks {
				return fmt.Errorf("index %d out of range [0,%d)", i, s.Tasks)
			}
		}
	}
	return nil
}

// Build returns one task per sub-request, in index order.
func Build(s Spec) []executor.Task[*Result] {
	fail := toSet(s.Fail)
	slow := toSet(s.Slow)
	empty := toSet(s.Empty)

	slowSleep := s.SlowSleep
	if slowSleep <= 0 {
		slowSleep = max(10*s.Sleep, time.Second)
	}

	tasks := make([]executor.Task[*Result], s.Tasks)
	for i := range tasks {
		d := s.Sleep
		if slow[i] {
			d = slowSleep
		}
		tasks[i] = subRequest(i, d, fail[i], empty[i])
	}
	return tasks
}

func subRequest(index int, d time.Duration, fail, empty bool) executor.Task[*Result] {
	return func(ctx context.Context) (*Result, error) {
		start := time.Now()
		if d > 0 {
			timer := time.NewTimer(d)
			defer timer.Stop()
			select {
			case <-timer.C:
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
		if fail {
			return nil, fmt.Errorf("sub-request %d: %w", index, ErrInjected)
		}
		if empty {
			return nil, nil
		}
		return &Result{
			Index:    index,
			Worker:   executor.WorkerName(ctx),
			Duration: time.Since(start),
		}, nil
	}
}

// ParseIndexes parses a comma-separated index list such as "1,4,7".
// An empty string yields no indexes.
func ParseIndexes(s string) ([]int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}

	parts := strings.Split(s, ",")
	out := make([]int, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		i, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("invalid index %q: %w", p, err)
		}
		out = append(out, i)
	}
	sort.Ints(out)
	return out, nil
}

func toSet(indexes []int) map[int]bool {
	set := make(map[int]bool, len(indexes))
	for _, i := range indexes {
		set[i] = true
	}
	return set
}
