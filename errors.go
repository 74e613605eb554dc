package serialline

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrAlreadyOpen is returned by Open when the engine or transport is
	// already open.
	ErrAlreadyOpen = errors.New("serialline: already open")
	// ErrNotOpen is returned when an operation requires an open transport.
	ErrNotOpen = errors.New("serialline: not open")
	// ErrDestroyed is returned after Destroy; pending commands fail with it.
	ErrDestroyed = errors.New("serialline: engine destroyed")
)

// ConfigError reports invalid arguments to an engine call.
type ConfigError string

func (e ConfigError) Error() string { return "serialline: " + string(e) }

// WriteError reports a transport write failure for a single queued command.
// It fails only the affected command; the queue moves on to the next.
type WriteError struct {
	Command string
	Err     error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("serialline: write %q: %v", e.Command, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

// TimeoutError reports that no line matching a command's response pattern
// arrived within its timeout.
type TimeoutError struct {
	Command string
	Timeout time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("serialline: command %q timed out after %s", e.Command, e.Timeout)
}
