package config

import (
	"errors"
	"fmt"
)

// ErrInvalidPreset marks errors that come from resolving a preset field.
var ErrInvalidPreset = errors.New("invalid preset")

// Error represents a single configuration failure.
type Error struct {
	Key    string // Path of the offending node, e.g. fields[0].values[1]
	Reason string // Human-readable reason for failure
	Value  any    // The value that failed validation
	Err    error  // Underlying cause, if any
}

func (e *Error) Error() string {
	if e.Value == nil {
		return fmt.Sprintf("config %q: %s", e.Key, e.Reason)
	}
	return fmt.Sprintf("config %q: %s (got %v)", e.Key, e.Reason, e.Value)
}

func (e *Error) Unwrap() error { return e.Err }

// AggregateError represents multiple configuration failures.
type AggregateError struct {
	Errors []error
}

func (e *AggregateError) Error() string {
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	msg := fmt.Sprintf("%d configuration errors:\n", len(e.Errors))
	for i, err := range e.Errors {
		msg += fmt.Sprintf("  %d. %s\n", i+1, err.Error())
	}
	return msg
}

// Unwrap lets errors.Is and errors.As see every collected error.
func (e *AggregateError) Unwrap() []error { return e.Errors }

// Errors returns all failures if err is an AggregateError, err itself if it
// is a single *Error, and nil otherwise.
func Errors(err error) []error {
	var aggr *AggregateError
	if errors.As(err, &aggr) {
		return aggr.Errors
	}
	var single *Error
	if errors.As(err, &single) {
		return []error{single}
	}
	return nil
}
