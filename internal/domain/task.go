package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// TaskState represents the lifecycle state of a generation task.
type TaskState string

// Possible task state values
const (
	TaskStateNotStarted TaskState = "not_started"
	TaskStateQueued     TaskState = "queued"
	TaskStateInFlight   TaskState = "in_flight"
	TaskStatePolling    TaskState = "polling"
	TaskStateDone       TaskState = "done"
	TaskStateFailed     TaskState = "failed"
	TaskStateStalled    TaskState = "stalled"
)

// IsTerminal reports whether the state can never be left again within a
// session. A fresh session re-checks the artifact store, not the old task.
func (s TaskState) IsTerminal() bool {
	return s == TaskStateDone || s == TaskStateFailed
}

// IsActive reports whether the task currently owns an in-progress
// generation attempt. At most one task per (unit, kind) may be active at
// any time; this is the set the single-flight guard checks against.
func (s TaskState) IsActive() bool {
	return s == TaskStateQueued || s == TaskStateInFlight || s == TaskStatePolling
}

// CanTransitionTo reports whether moving from s to next is a legal
// lifecycle transition. Terminal states admit no transitions; a task may
// only be queued from NotStarted or from Stalled (an explicit retry).
func (s TaskState) CanTransitionTo(next TaskState) bool {
	switch s {
	case TaskStateNotStarted:
		// Done directly from NotStarted is the cache-hit short-circuit.
		return next == TaskStateQueued || next == TaskStateDone
	case TaskStateQueued:
		return next == TaskStateInFlight || next == TaskStateFailed
	case TaskStateInFlight:
		return next == TaskStateDone || next == TaskStateFailed || next == TaskStatePolling
	case TaskStatePolling:
		return next == TaskStateDone || next == TaskStateFailed || next == TaskStateStalled
	case TaskStateStalled:
		return next == TaskStateQueued
	default:
		return false
	}
}

// TaskID is the composite key of a generation task: one task exists per
// (content unit, artifact kind) pair.
type TaskID struct {
	UnitID uuid.UUID
	Kind   ArtifactKind
}

func (id TaskID) String() string {
	return fmt.Sprintf("%s/%s", id.UnitID, id.Kind)
}

// GenerationTask tracks one on-demand generation of an artifact for a
// content unit. Its lifecycle is driven exclusively by the orchestrator's
// registry; everything else only ever reads snapshots.
type GenerationTask struct {
	ID    TaskID
	State TaskState

	// Attempts counts dispatch attempts. Observability only; the
	// orchestrator never retries automatically.
	Attempts int

	// Artifact holds the result once the task is Done.
	Artifact *Artifact

	// Err holds the failure detail once the task is Failed, or the stall
	// detail while it is Stalled.
	Err error

	// Completed and Expected track sub-item progress while polling.
	// Expected is advisory (see EstimateExpectedItems) and may be wrong;
	// completion is detected by the job's terminal status, never by
	// reaching Expected.
	Completed int
	Expected  int

	StartedAt      time.Time
	LastProgressAt time.Time
}

// NewGenerationTask creates a task in the NotStarted state for the given
// unit and kind.
func NewGenerationTask(unitID uuid.UUID, kind ArtifactKind) *GenerationTask {
	return &GenerationTask{
		ID:    TaskID{UnitID: unitID, Kind: kind},
		State: TaskStateNotStarted,
	}
}
