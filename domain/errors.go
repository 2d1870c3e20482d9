package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyMessage is returned when a turn is requested with no user input.
	ErrEmptyMessage = errors.New("message is required")

	// ErrEmptyTranscript is returned when analysis is requested for a
	// conversation with no messages.
	ErrEmptyTranscript = errors.New("transcript is empty")

	// ErrConflict is returned when a session was modified concurrently.
	// Callers may retry the operation.
	ErrConflict = errors.New("session modified concurrently")
)

// UpstreamError wraps a failure of the completion provider.
type UpstreamError struct {
	Err     error
	Timeout bool
}

func (e *UpstreamError) Error() string {
	if e.Timeout {
		return fmt.Sprintf("completion provider timed out: %v", e.Err)
	}
	return fmt.Sprintf("completion provider failed: %v", e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// MalformedOutputError is returned when the analyzer cannot locate or parse
// a structured block in the provider's reply. Raw carries the full reply
// text for diagnosis.
type MalformedOutputError struct {
	Raw    string
	Reason string
}

func (e *MalformedOutputError) Error() string {
	return fmt.Sprintf("malformed analysis output: %s", e.Reason)
}
