package orchestrator

import (
	"errors"
	"fmt"
	"time"
)

// FailureKind classifies why a generation task failed or stalled. It is
// attached to the task as error detail so the presentation layer can
// distinguish "broken" from "stuck, try again".
type FailureKind string

const (
	// FailureTransport covers network and timeout errors talking to the
	// generation service or the artifact store.
	FailureTransport FailureKind = "transport_error"

	// FailureGeneration means the service explicitly reported it could
	// not produce the artifact.
	FailureGeneration FailureKind = "generation_failure"

	// FailureStallTimeout means the status poller saw no progress for
	// longer than the configured window. Attached to Stalled tasks,
	// which remain retryable.
	FailureStallTimeout FailureKind = "stall_timeout"

	// FailurePollCeiling means the status poller exhausted its maximum
	// attempt count without observing a terminal status.
	FailurePollCeiling FailureKind = "poll_ceiling_exceeded"
)

// TaskError carries the failure classification alongside the underlying
// cause. None of these trigger automatic retries: a fresh explicit
// trigger is always required.
type TaskError struct {
	Kind FailureKind
	Err  error
}

func (e *TaskError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return string(e.Kind)
}

func (e *TaskError) Unwrap() error {
	return e.Err
}

// NewTransportError wraps a network or timeout error.
func NewTransportError(err error) *TaskError {
	return &TaskError{Kind: FailureTransport, Err: err}
}

// NewGenerationFailure wraps an explicit refusal from the generation service.
func NewGenerationFailure(err error) *TaskError {
	return &TaskError{Kind: FailureGeneration, Err: err}
}

// NewStallTimeout records that no progress was observed within the window.
func NewStallTimeout(window time.Duration) *TaskError {
	return &TaskError{
		Kind: FailureStallTimeout,
		Err:  fmt.Errorf("no progress observed for %s", window),
	}
}

// NewPollCeilingExceeded records that the poll attempt ceiling was reached.
func NewPollCeilingExceeded(maxPolls int) *TaskError {
	return &TaskError{
		Kind: FailurePollCeiling,
		Err:  fmt.Errorf("no terminal status after %d polls", maxPolls),
	}
}

// Registry and session errors
var (
	// ErrTaskAlreadyActive is returned when a caller tries to queue a
	// task that is already queued, in flight or polling. This is the
	// single-flight guard: the racing caller simply observes the first
	// caller's eventual outcome.
	ErrTaskAlreadyActive = errors.New("task already active")

	// ErrTaskTerminal is returned when a caller tries to re-trigger a
	// task that already reached Done or Failed. Terminal states are never
	// reopened within a session.
	ErrTaskTerminal = errors.New("task already reached a terminal state")

	// ErrUnknownTask is returned for operations on a task the registry
	// has never seen.
	ErrUnknownTask = errors.New("unknown task")

	// ErrIllegalTransition is returned when a requested state change
	// violates the task lifecycle.
	ErrIllegalTransition = errors.New("illegal task state transition")

	// ErrUnknownUnit is returned when a session is asked about a unit
	// outside its content list.
	ErrUnknownUnit = errors.New("unit not part of this session")
)
