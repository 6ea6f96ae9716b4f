package orchestrator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/caselight/caselight-api/internal/domain"
	"github.com/caselight/caselight-api/internal/events"
	"github.com/caselight/caselight-api/internal/generation"
	"github.com/caselight/caselight-api/internal/store"
	"github.com/google/uuid"
)

// TaskView is the read-only projection of a generation task handed to
// the presentation layer. It never exposes the task itself.
type TaskView struct {
	State     domain.TaskState `json:"state"`
	Artifact  *domain.Artifact `json:"artifact,omitempty"`
	Error     string           `json:"error,omitempty"`
	Attempts  int              `json:"attempts"`
	Completed int              `json:"completed"`
	Expected  int              `json:"expected"`
}

// Registry owns the lifecycle of every generation task within one
// session. All state changes go through it, which is what makes the
// single-flight guarantee enforceable: a transition into an active state
// is rejected while another caller holds one. Safe for concurrent use.
//
// The registry also performs the one side effect the design demands of
// it: a successful completion writes the artifact to the artifact store
// before the task is marked Done, so a concurrent cache read observes
// exactly what a cold start would next session.
type Registry struct {
	mu    sync.Mutex
	tasks map[domain.TaskID]*domain.GenerationTask

	artifacts store.ArtifactStore
	emitter   events.Emitter
	logger    *slog.Logger
}

// NewRegistry creates an empty task registry. The emitter may be nil if
// nothing subscribes to task updates.
func NewRegistry(artifacts store.ArtifactStore, emitter events.Emitter, logger *slog.Logger) (*Registry, error) {
	if artifacts == nil {
		return nil, errors.New("artifact store cannot be nil")
	}
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}

	return &Registry{
		tasks:     make(map[domain.TaskID]*domain.GenerationTask),
		artifacts: artifacts,
		emitter:   emitter,
		logger:    logger.With("component", "task_registry"),
	}, nil
}

// GetOrCreate returns a snapshot of the task for (unit, kind), creating
// it in the NotStarted state if the registry has not seen it before.
// Idempotent: repeated calls return the same task.
func (r *Registry) GetOrCreate(unitID uuid.UUID, kind domain.ArtifactKind) domain.GenerationTask {
	r.mu.Lock()
	defer r.mu.Unlock()
	return *r.getOrCreateLocked(domain.TaskID{UnitID: unitID, Kind: kind})
}

// State returns the task's current state, or NotStarted for tasks the
// registry has not seen.
func (r *Registry) State(id domain.TaskID) domain.TaskState {
	r.mu.Lock()
	defer r.mu.Unlock()

	task, ok := r.tasks[id]
	if !ok {
		return domain.TaskStateNotStarted
	}
	return task.State
}

// Begin moves the task into Queued and claims the single flight for it.
// Legal from NotStarted and from Stalled (an explicit retry). Returns
// ErrTaskAlreadyActive if another caller already holds the flight, or
// ErrTaskTerminal if the task already finished.
func (r *Registry) Begin(id domain.TaskID) error {
	r.mu.Lock()

	task := r.getOrCreateLocked(id)
	if task.State.IsActive() {
		state := task.State
		r.mu.Unlock()
		return fmt.Errorf("%w: %s is %s", ErrTaskAlreadyActive, id, state)
	}
	if task.State.IsTerminal() {
		state := task.State
		r.mu.Unlock()
		return fmt.Errorf("%w: %s is %s", ErrTaskTerminal, id, state)
	}

	if err := r.applyLocked(task, domain.TaskStateQueued); err != nil {
		r.mu.Unlock()
		return err
	}
	now := time.Now().UTC()
	task.Attempts++
	task.Err = nil
	task.StartedAt = now
	task.LastProgressAt = now

	event := events.NewTaskUpdateEvent(task)
	r.mu.Unlock()

	r.emit(event)
	return nil
}

// MarkInFlight moves a queued task into InFlight, right before the
// generation call is issued.
func (r *Registry) MarkInFlight(id domain.TaskID) error {
	return r.transition(id, domain.TaskStateInFlight, nil)
}

// MarkPolling hands the task to the status poller after the generation
// call returned "accepted". Expected is the advisory sub-item total.
func (r *Registry) MarkPolling(id domain.TaskID, expected int) error {
	return r.transition(id, domain.TaskStatePolling, func(task *domain.GenerationTask) {
		task.Expected = expected
		task.Completed = 0
		task.LastProgressAt = time.Now().UTC()
	})
}

// RecordProgress updates the observed sub-item count for a polling task.
// Counts that do not increase are ignored; an increase resets the stall
// clock.
func (r *Registry) RecordProgress(id domain.TaskID, completed int) {
	r.mu.Lock()

	task, ok := r.tasks[id]
	if !ok || task.State != domain.TaskStatePolling || completed <= task.Completed {
		r.mu.Unlock()
		return
	}

	task.Completed = completed
	task.LastProgressAt = time.Now().UTC()
	event := events.NewTaskUpdateEvent(task)
	r.mu.Unlock()

	r.emit(event)
}

// Complete persists the artifact payload and then marks the task Done.
// The store write happens first: if it fails, the task is failed with a
// transport error and the payload is dropped rather than surfaced as a
// phantom success.
func (r *Registry) Complete(ctx context.Context, id domain.TaskID, payload json.RawMessage) error {
	artifact, err := domain.NewArtifact(id.UnitID, id.Kind, payload)
	if err != nil {
		terr := NewGenerationFailure(err)
		r.Fail(id, terr)
		return terr
	}

	if err := r.artifacts.Put(ctx, artifact); err != nil {
		terr := NewTransportError(fmt.Errorf("persist artifact: %w", err))
		r.Fail(id, terr)
		return terr
	}

	return r.transition(id, domain.TaskStateDone, func(task *domain.GenerationTask) {
		task.Artifact = artifact
		task.Err = nil
	})
}

// FinishFromStore marks a polling task Done with the artifact the
// out-of-band worker already persisted. If the store has no artifact
// despite the job reporting success, the task fails: the job record and
// the store disagree and the safe reading is "not produced".
func (r *Registry) FinishFromStore(ctx context.Context, id domain.TaskID) error {
	artifact, err := r.artifacts.Get(ctx, id.UnitID, id.Kind)
	if err != nil {
		if store.IsNotFoundError(err) {
			terr := NewGenerationFailure(fmt.Errorf("job finished but artifact missing for %s", id))
			r.Fail(id, terr)
			return terr
		}
		terr := NewTransportError(fmt.Errorf("read artifact: %w", err))
		r.Fail(id, terr)
		return terr
	}

	// Question sets come from a worker outside this process; check the
	// payload shape before handing it to the presentation layer.
	if id.Kind == domain.KindQuestions {
		if err := generation.ValidateQuestionSet(artifact.Payload); err != nil {
			terr := NewGenerationFailure(fmt.Errorf("question set for %s: %w", id, err))
			r.Fail(id, terr)
			return terr
		}
	}

	return r.transition(id, domain.TaskStateDone, func(task *domain.GenerationTask) {
		task.Artifact = artifact
		task.Err = nil
	})
}

// SeedDone marks a task Done with an artifact that was already in the
// store at seed time (the cache-hit short-circuit). No store write
// happens; the artifact came from the store.
func (r *Registry) SeedDone(id domain.TaskID, artifact *domain.Artifact) error {
	r.mu.Lock()

	task := r.getOrCreateLocked(id)
	if err := r.applyLocked(task, domain.TaskStateDone); err != nil {
		r.mu.Unlock()
		return err
	}
	task.Artifact = artifact
	task.Err = nil

	event := events.NewTaskUpdateEvent(task)
	r.mu.Unlock()

	r.emit(event)
	return nil
}

// Fail marks the task Failed with the given classification. Failed is
// terminal within the session; only a fresh session that still finds a
// cache miss produces a new attempt.
func (r *Registry) Fail(id domain.TaskID, terr *TaskError) {
	if err := r.transition(id, domain.TaskStateFailed, func(task *domain.GenerationTask) {
		task.Err = terr
	}); err != nil {
		r.logger.Warn("failed to record task failure",
			"task", id.String(),
			"failure_kind", string(terr.Kind),
			"error", err)
	}
}

// Stall surfaces a polling task as stalled. Not terminal: the task can
// be re-queued by an explicit trigger, and the server-side job is
// presumed to still be running.
func (r *Registry) Stall(id domain.TaskID, window time.Duration) error {
	return r.transition(id, domain.TaskStateStalled, func(task *domain.GenerationTask) {
		task.Err = NewStallTimeout(window)
	})
}

// Snapshot returns a read-only view of the tasks for the given units.
// Units the registry has not seen appear as NotStarted: to a reader,
// "never asked about" and "not yet started" are the same thing.
func (r *Registry) Snapshot(unitIDs []uuid.UUID, kind domain.ArtifactKind) map[uuid.UUID]TaskView {
	r.mu.Lock()
	defer r.mu.Unlock()

	views := make(map[uuid.UUID]TaskView, len(unitIDs))
	for _, unitID := range unitIDs {
		task, ok := r.tasks[domain.TaskID{UnitID: unitID, Kind: kind}]
		if !ok {
			views[unitID] = TaskView{State: domain.TaskStateNotStarted}
			continue
		}

		view := TaskView{
			State:     task.State,
			Artifact:  task.Artifact,
			Attempts:  task.Attempts,
			Completed: task.Completed,
			Expected:  task.Expected,
		}
		if task.Err != nil {
			view.Error = task.Err.Error()
		}
		views[unitID] = view
	}
	return views
}

// transition applies a guarded state change plus an optional mutation,
// then emits a task update.
func (r *Registry) transition(id domain.TaskID, next domain.TaskState, mutate func(*domain.GenerationTask)) error {
	r.mu.Lock()

	task, ok := r.tasks[id]
	if !ok {
		r.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrUnknownTask, id)
	}

	if err := r.applyLocked(task, next); err != nil {
		r.mu.Unlock()
		return err
	}
	if mutate != nil {
		mutate(task)
	}

	event := events.NewTaskUpdateEvent(task)
	r.mu.Unlock()

	r.emit(event)
	return nil
}

func (r *Registry) getOrCreateLocked(id domain.TaskID) *domain.GenerationTask {
	if task, ok := r.tasks[id]; ok {
		return task
	}
	task := domain.NewGenerationTask(id.UnitID, id.Kind)
	r.tasks[id] = task
	return task
}

func (r *Registry) applyLocked(task *domain.GenerationTask, next domain.TaskState) error {
	if !task.State.CanTransitionTo(next) {
		return fmt.Errorf("%w: %s -> %s for %s", ErrIllegalTransition, task.State, next, task.ID)
	}
	task.State = next
	return nil
}

func (r *Registry) emit(event *events.TaskUpdateEvent) {
	if r.emitter == nil {
		return
	}
	r.emitter.Emit(context.Background(), event)
}
