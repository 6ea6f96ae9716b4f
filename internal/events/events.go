package events

import (
	"context"
	"time"

	"github.com/caselight/caselight-api/internal/domain"
	"github.com/google/uuid"
)

// TaskUpdateEvent is published on every generation task state change.
// It carries enough for a presentation layer to render progress and
// results incrementally, without access to the registry itself.
type TaskUpdateEvent struct {
	// UnitID and Kind identify the task.
	UnitID uuid.UUID           `json:"unit_id"`
	Kind   domain.ArtifactKind `json:"kind"`

	// State is the task state after the transition.
	State domain.TaskState `json:"state"`

	// Error is the failure or stall detail, empty otherwise.
	Error string `json:"error,omitempty"`

	// Completed and Expected carry sub-item progress while polling.
	Completed int `json:"completed"`
	Expected  int `json:"expected"`

	// At is the timestamp when the event was created.
	At time.Time `json:"at"`
}

// NewTaskUpdateEvent creates an event for the given task's current state.
func NewTaskUpdateEvent(task *domain.GenerationTask) *TaskUpdateEvent {
	ev := &TaskUpdateEvent{
		UnitID:    task.ID.UnitID,
		Kind:      task.ID.Kind,
		State:     task.State,
		Completed: task.Completed,
		Expected:  task.Expected,
		At:        time.Now().UTC(),
	}
	if task.Err != nil {
		ev.Error = task.Err.Error()
	}
	return ev
}

// Handler defines an interface for components that receive task update
// events. Handlers must not block: events are emitted from inside the
// orchestration hot path.
type Handler interface {
	// HandleTaskUpdate processes the given event within the provided context.
	HandleTaskUpdate(ctx context.Context, event *TaskUpdateEvent)
}

// Emitter defines an interface for components that publish task update
// events, allowing the registry to notify subscribers without direct
// knowledge of them.
type Emitter interface {
	// Emit publishes the given event to all registered handlers.
	Emit(ctx context.Context, event *TaskUpdateEvent)
}
