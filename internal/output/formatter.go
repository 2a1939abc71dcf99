package output

import (
	"errors"
	"io"
	"sort"
	"time"

	"github.com/aryankumar/batchexec/internal/executor"
)

// Format represents the output format type
type Format string

const (
	// FormatTable outputs data in a borderless table
	FormatTable Format = "table"
	// FormatJSON outputs data in JSON format
	FormatJSON Format = "json"
	// FormatYAML outputs data in YAML format
	FormatYAML Format = "yaml"
)

// Formatter defines the interface for output formatting
type Formatter interface {
	// Format outputs a single data item to the writer
	Format(w io.Writer, data interface{}) error

	// FormatReport outputs the per-task rows and summary of one batch
	FormatReport(w io.Writer, report Report) error
}

// Status is the outcome shown for one task row
type Status string

const (
	StatusSucceeded Status = "Succeeded"
	StatusFailed    Status = "Failed"
	StatusTimedOut  Status = "TimedOut"
)

// Row describes one task of a batch
type Row struct {
	// Index is the task's position in the submitted slice, -1 if unknown
	Index    int
	Status   Status
	Worker   string
	Duration time.Duration
	// Detail is the value or error text
	Detail string
}

// Failed reports whether the row is a failure of any kind
func (r Row) Failed() bool {
	return r.Status != StatusSucceeded
}

// Report is the printable outcome of one batch
type Report struct {
	Rows    []Row
	Summary executor.Summary
}

// NewReport sorts rows by index; rows without an index go last
func NewReport(rows []Row, summary executor.Summary) Report {
	sorted := make([]Row, len(rows))
	copy(sorted, rows)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i].Index, sorted[j].Index
		if a < 0 || b < 0 {
			return b < 0 && a >= 0
		}
		return a < b
	})
	return Report{Rows: sorted, Summary: summary}
}

// ErrorRow converts a batch error into a row, using the task index carried by
// executor.TaskError when present
func ErrorRow(err error) Row {
	row := Row{Index: -1, Status: StatusFailed, Detail: err.Error()}
	if i, ok := executor.TaskIndex(err); ok {
		row.Index = i
	}
	if errors.Is(err, executor.ErrTaskTimedOut) {
		row.Status = StatusTimedOut
	}
	return row
}

// ErrorRows converts every error of a batch into rows
func ErrorRows(errs []error) []Row {
	rows := make([]Row, 0, len(errs))
	for _, err := range errs {
		if err != nil {
			rows = append(rows, ErrorRow(err))
		}
	}
	return rows
}

// Option is a functional option for configuring formatters
type Option func(*Options)

// Options holds configuration for formatters
type Options struct {
	// NoColor disables color output
	NoColor bool

	// NoHeaders disables table headers
	NoHeaders bool

	// Wide enables wide output with additional columns
	Wide bool
}

// WithNoColor disables color output
func WithNoColor(noColor bool) Option {
	return func(o *Options) {
		o.NoColor = noColor
	}
}

// WithNoHeaders disables table headers
func WithNoHeaders(noHeaders bool) Option {
	return func(o *Options) {
		o.NoHeaders = noHeaders
	}
}

// WithWide enables wide output
func WithWide(wide bool) Option {
	return func(o *Options) {
		o.Wide = wide
	}
}

// NewFormatter creates a new formatter based on the specified format
func NewFormatter(format Format, opts ...Option) Formatter {
	options := &Options{}
	for _, opt := range opts {
		opt(options)
	}

	switch format {
	case FormatJSON:
		return NewJSONFormatter(options)
	case FormatYAML:
		return NewYAMLFormatter(options)
	case FormatTable:
		fallthrough
	default:
		return NewTableFormatter(options)
	}
}

// ParseFormat validates a user-supplied format name
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatTable, FormatJSON, FormatYAML:
		return Format(s), nil
	case "":
		return FormatTable, nil
	default:
		return "", errors.New("invalid output format " + s + ": must be one of table, json, yaml")
	}
}

// reportRecord is the structured form of a Report shared by JSON and YAML
type reportRecord struct {
	Tasks   []map[string]interface{} `json:"tasks" yaml:"tasks"`
	Summary map[string]interface{}   `json:"summary" yaml:"summary"`
}

func toRecord(report Report) reportRecord {
	tasks := make([]map[string]interface{}, len(report.Rows))
	for i, row := range report.Rows {
		item := map[string]interface{}{
			"index":  row.Index,
			"status": string(row.Status),
		}
		if row.Worker != "" {
			item["worker"] = row.Worker
		}
		if row.Duration > 0 {
			item["duration"] = row.Duration.String()
		}
		if row.Failed() {
			item["error"] = row.Detail
		} else if row.Detail != "" {
			item["value"] = row.Detail
		}
		tasks[i] = item
	}

	s := report.Summary
	return reportRecord{
		Tasks: tasks,
		Summary: map[string]interface{}{
			"total":       s.Total,
			"succeeded":   s.Succeeded,
			"failed":      s.Failed,
			"timedOut":    s.TimedOut,
			"dropped":     s.Dropped,
			"interrupted": s.Interrupted,
		},
	}
}
