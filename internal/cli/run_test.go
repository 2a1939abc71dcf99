package cli

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/aryankumar/batchexec/internal/executor"
	"github.com/aryankumar/batchexec/internal/workload"
)

func TestRunCommand_Table(t *testing.T) {
	out, err := executeCmd(t, "run", "--tasks", "3", "--sleep", "1ms", "--no-color", "--name-prefix", "cli")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, want := range []string{"INDEX", "Succeeded", "cli-", "Summary: 3 succeeded"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in output:\n%s", want, out)
		}
	}
}

func TestRunCommand_StrictFailure(t *testing.T) {
	_, err := executeCmd(t, "run", "--tasks", "4", "--sleep", "1ms", "--fail", "2")

	if !errors.Is(err, executor.ErrTaskFailed) {
		t.Fatalf("expected ErrTaskFailed, got %v", err)
	}
	if !errors.Is(err, workload.ErrInjected) {
		t.Errorf("expected the injected cause to be preserved, got %v", err)
	}
	if i, ok := executor.TaskIndex(err); !ok || i != 2 {
		t.Errorf("expected failure at index 2, got %d (%v)", i, ok)
	}
}

func TestRunCommand_CollectJSON(t *testing.T) {
	out, err := executeCmd(t, "run", "--tasks", "5", "--sleep", "1ms", "--fail", "1,3", "--empty", "4", "--collect", "-o", "json")
	if err != nil {
		t.Fatalf("collect mode should not fail, got %v", err)
	}

	var got struct {
		Tasks []struct {
			Index  int    `json:"index"`
			Status string `json:"status"`
		} `json:"tasks"`
		Summary executor.Summary `json:"summary"`
	}
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("expected JSON output, got %q: %v", out, err)
	}

	wantStatus := []string{"Succeeded", "Failed", "Succeeded", "Failed"}
	if len(got.Tasks) != len(wantStatus) {
		t.Fatalf("expected %d rows, got %d", len(wantStatus), len(got.Tasks))
	}
	for i, want := range wantStatus {
		if got.Tasks[i].Index != i || got.Tasks[i].Status != want {
			t.Errorf("row %d: expected index %d %s, got %+v", i, i, want, got.Tasks[i])
		}
	}

	if got.Summary.Succeeded != 2 || got.Summary.Failed != 2 || got.Summary.Dropped != 1 {
		t.Errorf("unexpected summary %+v", got.Summary)
	}
}

func TestRunCommand_InvalidFlags(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{name: "bad index", args: []string{"run", "--fail", "x"}},
		{name: "index out of range", args: []string{"run", "--tasks", "2", "--slow", "5"}},
		{name: "negative tasks", args: []string{"run", "--tasks", "-1"}},
		{name: "bad output format", args: []string{"run", "-o", "xml"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := executeCmd(t, tt.args...); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}
