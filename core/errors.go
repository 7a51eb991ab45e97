package core

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation marks malformed input rejected before any session exists.
	ErrValidation = errors.New("validation error")
	// ErrAgentTimeout marks an agent that exceeded its execution budget.
	ErrAgentTimeout = errors.New("agent timeout")
	// ErrAgentExecution marks an upstream failure or malformed model output.
	ErrAgentExecution = errors.New("agent execution error")
	// ErrMemoryDegraded marks a session bound to the in-process fallback store.
	ErrMemoryDegraded = errors.New("memory store degraded")
	// ErrSessionFailure marks a session in which no selected agent completed.
	ErrSessionFailure = errors.New("session failure")

	// ErrSessionNotFound is returned by status lookups for unknown or expired sessions.
	ErrSessionNotFound = errors.New("session not found")
	// ErrResultRecorded is returned when an agent slot is written twice.
	ErrResultRecorded = errors.New("agent result already recorded")
	// ErrSessionClosed is returned when a result arrives after the session ended.
	ErrSessionClosed = errors.New("session closed")
	// ErrIllegalTransition is returned for transitions outside the phase state machine.
	ErrIllegalTransition = errors.New("illegal phase transition")
	// ErrNoUpstreamContext is returned by agents that depend on results that are absent.
	ErrNoUpstreamContext = errors.New("no upstream context")
)

// ValidationError describes a rejected caller input.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error for field '%s': %s", e.Field, e.Message)
}

// Is makes errors.Is(err, ErrValidation) hold for every ValidationError.
func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// SessionFailureError is returned alongside a failed SessionResult.
type SessionFailureError struct {
	SessionID string
	Reason    string
	Cause     error
}

// Error implements the error interface.
func (e *SessionFailureError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("session %s failed: %s: %v", e.SessionID, e.Reason, e.Cause)
	}
	return fmt.Sprintf("session %s failed: %s", e.SessionID, e.Reason)
}

// Is makes errors.Is(err, ErrSessionFailure) hold.
func (e *SessionFailureError) Is(target error) bool { return target == ErrSessionFailure }

// Unwrap exposes the underlying cause (for example context.Canceled).
func (e *SessionFailureError) Unwrap() error { return e.Cause }

// ErrorKind classifies a failed or skipped AgentResult.
type ErrorKind string

const (
	ErrorKindTimeout   ErrorKind = "timeout"
	ErrorKindExecution ErrorKind = "execution"
	ErrorKindSkipped   ErrorKind = "skipped"
)

// KindOf maps an agent error onto its ErrorKind.
func KindOf(err error) ErrorKind {
	if errors.Is(err, ErrAgentTimeout) {
		return ErrorKindTimeout
	}
	return ErrorKindExecution
}
