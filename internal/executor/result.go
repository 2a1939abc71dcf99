package executor

import (
	"errors"
	"fmt"
	"strings"

	"github.com/aryankumar/batchexec/internal/util"
)

// Err joins the batch errors, or returns nil if there were none
func (r *BatchResult[T]) Err() error {
	if r == nil {
		return nil
	}
	return util.CombineErrors(r.Errors...)
}

// HasErrors returns true if any error was collected
func (r *BatchResult[T]) HasErrors() bool {
	return r != nil && len(r.Errors) > 0
}

// ErrorsOfKind returns the errors matching kind (for example ErrTaskFailed)
func ErrorsOfKind(errs []error, kind error) []error {
	filtered := make([]error, 0)
	for _, err := range errs {
		if errors.Is(err, kind) {
			filtered = append(filtered, err)
		}
	}
	return filtered
}

// FailedIndexes returns the batch indexes carried by errs, in order
func FailedIndexes(errs []error) []int {
	indexes := make([]int, 0, len(errs))
	for _, err := range errs {
		if i, ok := TaskIndex(err); ok {
			indexes = append(indexes, i)
		}
	}
	return indexes
}

// Summary provides a summary of a batch outcome
type Summary struct {
	Total       int  `json:"total" yaml:"total"`
	Succeeded   int  `json:"succeeded" yaml:"succeeded"`
	Failed      int  `json:"failed" yaml:"failed"`
	TimedOut    int  `json:"timedOut" yaml:"timedOut"`
	Interrupted bool `json:"interrupted" yaml:"interrupted"`

	// Dropped counts tasks that produced no value and no error: nil tasks,
	// nil results and cancelled tasks
	Dropped int `json:"dropped" yaml:"dropped"`
}

// Summarize creates a summary of a batch of total submitted tasks
func Summarize[T any](total int, r *BatchResult[T]) Summary {
	s := Summary{Total: total}
	if r == nil {
		s.Dropped = total
		return s
	}

	s.Succeeded = len(r.Values)
	s.Failed = len(ErrorsOfKind(r.Errors, ErrTaskFailed))
	s.TimedOut = len(ErrorsOfKind(r.Errors, ErrTaskTimedOut))
	s.Interrupted = len(ErrorsOfKind(r.Errors, ErrSubmissionInterrupted)) > 0
	s.Dropped = total - s.Succeeded - s.Failed - s.TimedOut
	if s.Dropped < 0 {
		s.Dropped = 0
	}
	return s
}

// SuccessRate returns the success rate as a percentage (0.0 to 100.0)
func (s Summary) SuccessRate() float64 {
	if s.Total == 0 {
		return 0.0
	}
	return float64(s.Succeeded) / float64(s.Total) * 100.0
}

// String returns a human-readable string representation of the summary
func (s Summary) String() string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Total: %d, ", s.Total))
	sb.WriteString(fmt.Sprintf("Succeeded: %d, ", s.Succeeded))
	sb.WriteString(fmt.Sprintf("Failed: %d, ", s.Failed))
	sb.WriteString(fmt.Sprintf("Timed out: %d, ", s.TimedOut))
	sb.WriteString(fmt.Sprintf("Dropped: %d", s.Dropped))

	if s.Interrupted {
		sb.WriteString(" (interrupted)")
	}

	return sb.String()
}
