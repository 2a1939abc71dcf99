package executor

import (
	"errors"
	"reflect"
	"strings"
	"testing"
)

func TestBatchResult_Err(t *testing.T) {
	tests := []struct {
		name      string
		result    *BatchResult[int]
		wantErr   bool
		hasErrors bool
	}{
		{
			name:    "nil result",
			result:  nil,
			wantErr: false,
		},
		{
			name:    "no errors",
			result:  &BatchResult[int]{Values: []int{1}},
			wantErr: false,
		},
		{
			name: "with errors",
			result: &BatchResult[int]{
				Errors: []error{newTaskError(0, ErrTaskFailed, errors.New("x"))},
			},
			wantErr:   true,
			hasErrors: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.result.Err()
			if (err != nil) != tt.wantErr {
				t.Errorf("Err() = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.result.HasErrors() != tt.hasErrors {
				t.Errorf("HasErrors() = %v, want %v", tt.result.HasErrors(), tt.hasErrors)
			}
		})
	}
}

func TestBatchResult_ErrMatchesKinds(t *testing.T) {
	cause := errors.New("cause")
	res := &BatchResult[int]{
		Errors: []error{
			newTaskError(2, ErrTaskFailed, cause),
			newTaskError(4, ErrTaskTimedOut, errors.New("slow")),
		},
	}

	err := res.Err()
	for _, target := range []error{ErrTaskFailed, ErrTaskTimedOut, cause} {
		if !errors.Is(err, target) {
			t.Errorf("expected joined error to match %v", target)
		}
	}
}

func TestErrorsOfKind(t *testing.T) {
	errs := []error{
		newTaskError(0, ErrTaskFailed, errors.New("a")),
		newTaskError(1, ErrTaskTimedOut, errors.New("b")),
		newTaskError(2, ErrTaskFailed, errors.New("c")),
		errors.Join(ErrSubmissionInterrupted, errors.New("cancelled")),
	}

	tests := []struct {
		name     string
		kind     error
		expected int
	}{
		{name: "failed", kind: ErrTaskFailed, expected: 2},
		{name: "timed out", kind: ErrTaskTimedOut, expected: 1},
		{name: "interrupted", kind: ErrSubmissionInterrupted, expected: 1},
		{name: "cancelled", kind: ErrTaskCancelled, expected: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := len(ErrorsOfKind(errs, tt.kind)); got != tt.expected {
				t.Errorf("expected %d errors, got %d", tt.expected, got)
			}
		})
	}
}

func TestFailedIndexes(t *testing.T) {
	errs := []error{
		newTaskError(3, ErrTaskFailed, errors.New("a")),
		errors.New("untagged"),
		newTaskError(7, ErrTaskTimedOut, errors.New("b")),
	}

	if got := FailedIndexes(errs); !reflect.DeepEqual(got, []int{3, 7}) {
		t.Errorf("expected [3 7], got %v", got)
	}
}

func TestTaskError_Format(t *testing.T) {
	err := newTaskError(5, ErrTaskFailed, errors.New("disk full"))

	msg := err.Error()
	for _, want := range []string{"task 5", "task failed", "disk full"} {
		if !strings.Contains(msg, want) {
			t.Errorf("expected %q in %q", want, msg)
		}
	}
}

func TestSummarize(t *testing.T) {
	tests := []struct {
		name     string
		total    int
		result   *BatchResult[string]
		expected Summary
	}{
		{
			name:     "nil result",
			total:    3,
			result:   nil,
			expected: Summary{Total: 3, Dropped: 3},
		},
		{
			name:     "all succeeded",
			total:    2,
			result:   &BatchResult[string]{Values: []string{"a", "b"}},
			expected: Summary{Total: 2, Succeeded: 2},
		},
		{
			name:  "mixed with drops",
			total: 6,
			result: &BatchResult[string]{
				Values: []string{"a", "b"},
				Errors: []error{
					newTaskError(2, ErrTaskFailed, errors.New("x")),
					newTaskError(3, ErrTaskTimedOut, errors.New("y")),
					errors.Join(ErrSubmissionInterrupted, errors.New("z")),
				},
			},
			expected: Summary{Total: 6, Succeeded: 2, Failed: 1, TimedOut: 1, Interrupted: true, Dropped: 2},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Summarize(tt.total, tt.result)
			if got != tt.expected {
				t.Errorf("expected %+v, got %+v", tt.expected, got)
			}
		})
	}
}

func TestSummary_String(t *testing.T) {
	s := Summary{Total: 4, Succeeded: 2, Failed: 1, Dropped: 1, Interrupted: true}
	str := s.String()

	for _, want := range []string{"Total: 4", "Succeeded: 2", "Failed: 1", "Dropped: 1", "interrupted"} {
		if !strings.Contains(str, want) {
			t.Errorf("expected %q in %q", want, str)
		}
	}
}

func TestSummary_SuccessRate(t *testing.T) {
	tests := []struct {
		name     string
		summary  Summary
		expected float64
	}{
		{name: "empty", summary: Summary{}, expected: 0},
		{name: "half", summary: Summary{Total: 4, Succeeded: 2}, expected: 50},
		{name: "all", summary: Summary{Total: 3, Succeeded: 3}, expected: 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.summary.SuccessRate(); got != tt.expected {
				t.Errorf("expected %.1f, got %.1f", tt.expected, got)
			}
		})
	}
}
