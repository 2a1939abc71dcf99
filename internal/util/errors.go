package util

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Errors shared by the command line and the HTTP shell
var (
	// ErrInvalidConfig indicates a configuration error
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrBusy indicates the concurrent batch limit was reached
	ErrBusy = errors.New("too many concurrent batches")

	// ErrShutdown indicates the shared executor no longer accepts work
	ErrShutdown = errors.New("executor shutting down")
)

// maxListed caps how many errors MultiError spells out
const maxListed = 10

// MultiError aggregates independent failures, such as every invalid config
// field or every failed task of a batch
type MultiError struct {
	Errors []error
}

func (m *MultiError) Error() string {
	switch len(m.Errors) {
	case 0:
		return "no errors"
	case 1:
		return m.Errors[0].Error()
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%d errors occurred:", len(m.Errors))
	for i, err := range m.Errors {
		if i == maxListed {
			fmt.Fprintf(&sb, "\n  ... and %d more errors", len(m.Errors)-maxListed)
			break
		}
		fmt.Fprintf(&sb, "\n  %d. %v", i+1, err)
	}
	return sb.String()
}

// Unwrap lets errors.Is and errors.As see every collected error
func (m *MultiError) Unwrap() []error {
	return m.Errors
}

// Add collects err if it is non-nil
func (m *MultiError) Add(err error) {
	if err != nil {
		m.Errors = append(m.Errors, err)
	}
}

// Len returns the number of collected errors
func (m *MultiError) Len() int {
	return len(m.Errors)
}

// ErrorOrNil returns nil when nothing was collected
func (m *MultiError) ErrorOrNil() error {
	if len(m.Errors) == 0 {
		return nil
	}
	return m
}

// CombineErrors folds errs into a MultiError, skipping nils.
// Returns nil if every error is nil.
func CombineErrors(errs ...error) error {
	m := &MultiError{}
	for _, err := range errs {
		m.Add(err)
	}
	return m.ErrorOrNil()
}

// ValidationError reports a single rejected configuration value
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

func (v *ValidationError) Error() string {
	if v.Value != nil {
		return fmt.Sprintf("validation failed for field %q (value: %v): %s", v.Field, v.Value, v.Message)
	}
	return fmt.Sprintf("validation failed for field %q: %s", v.Field, v.Message)
}

// Unwrap lets errors.Is(err, ErrInvalidConfig) match validation failures
func (v *ValidationError) Unwrap() error {
	return ErrInvalidConfig
}

// NewValidationError creates a new validation error
func NewValidationError(field string, value interface{}, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Value:   value,
		Message: message,
	}
}

// FriendlyError converts errors into messages meant for people rather than logs
func FriendlyError(err error) string {
	if err == nil {
		return ""
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "Operation timed out. Increase the batch timeout with --timeout."
	case errors.Is(err, context.Canceled):
		return "Operation was cancelled."
	case errors.Is(err, ErrBusy):
		return "Too many batches are running. Please retry shortly."
	case errors.Is(err, ErrInvalidConfig):
		return "Invalid configuration. Please check your config file and command-line flags."
	case errors.Is(err, ErrShutdown):
		return "The executor is shutting down."
	default:
		return err.Error()
	}
}
