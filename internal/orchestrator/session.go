package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/caselight/caselight-api/internal/domain"
	"github.com/caselight/caselight-api/internal/store"
	"github.com/google/uuid"
)

// Session is one study session over the units of a collection. It owns a
// task registry scoped to its own lifetime plus the background work
// dispatched for it, and it is the only entry point for generation
// within that scope.
//
// The read path is cache-first throughout: seeding marks every task with
// a stored artifact Done before any generation is considered, and an
// explicit generation request re-checks the store before dispatching.
type Session struct {
	ID         uuid.UUID
	Collection string
	CreatedAt  time.Time

	units     []*domain.ContentUnit
	unitIndex map[uuid.UUID]*domain.ContentUnit

	registry  *Registry
	scheduler *Scheduler
	artifacts store.ArtifactStore
	logger    *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	closeOnce sync.Once
}

// NewSession creates a session over the given units. The units slice is
// kept in the order given; position ordering is the caller's concern.
func NewSession(collection string, units []*domain.ContentUnit, registry *Registry, scheduler *Scheduler, artifacts store.ArtifactStore, logger *slog.Logger) (*Session, error) {
	if registry == nil {
		return nil, errors.New("registry cannot be nil")
	}
	if scheduler == nil {
		return nil, errors.New("scheduler cannot be nil")
	}
	if artifacts == nil {
		return nil, errors.New("artifact store cannot be nil")
	}
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}

	index := make(map[uuid.UUID]*domain.ContentUnit, len(units))
	for _, unit := range units {
		index[unit.ID] = unit
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Session{
		ID:         uuid.New(),
		Collection: collection,
		CreatedAt:  time.Now().UTC(),
		units:      units,
		unitIndex:  index,
		registry:   registry,
		scheduler:  scheduler,
		artifacts:  artifacts,
		logger:     logger.With("component", "study_session"),
		ctx:        ctx,
		cancel:     cancel,
	}, nil
}

// Units returns the session's units in collection order.
func (s *Session) Units() []*domain.ContentUnit {
	return s.units
}

// Seed walks every (unit, kind) pair and marks the ones whose artifact
// is already in the store Done without any generation call. Idempotent:
// pairs already past NotStarted are left alone, so re-seeding a session
// issues zero transitions and zero calls for anything seeded before.
func (s *Session) Seed(ctx context.Context, kinds ...domain.ArtifactKind) {
	for _, unit := range s.units {
		for _, kind := range kinds {
			id := domain.TaskID{UnitID: unit.ID, Kind: kind}
			if s.registry.State(id) != domain.TaskStateNotStarted {
				continue
			}

			artifact, err := s.artifacts.Get(ctx, unit.ID, kind)
			if err != nil {
				if !store.IsNotFoundError(err) {
					// A broken cache read degrades to a miss; generation
					// will repopulate the store.
					s.logger.Warn("artifact read failed during seed",
						"task", id.String(), "error", err)
				}
				continue
			}

			if err := s.registry.SeedDone(id, artifact); err != nil {
				s.logger.Warn("failed to seed task from store",
					"task", id.String(), "error", err)
			}
		}
	}
}

// StartSweep kicks off one background sweep per kind over the session's
// units. Returns immediately; Close waits for the sweeps to drain.
func (s *Session) StartSweep(kinds ...domain.ArtifactKind) {
	for _, kind := range kinds {
		s.wg.Add(1)
		go func(kind domain.ArtifactKind) {
			defer s.wg.Done()
			s.scheduler.Run(s.ctx, s.units, kind)
		}(kind)
	}
}

// Generate requests generation for one (unit, kind) explicitly, as from
// a user tapping a refresh control. The store is re-checked first: a
// cache hit resolves the task Done with no call made. An already active
// task returns ErrTaskAlreadyActive, an already finished one
// ErrTaskTerminal; a stalled task is re-queued. Dispatch happens in the
// background; progress is observed via Snapshot.
func (s *Session) Generate(ctx context.Context, unitID uuid.UUID, kind domain.ArtifactKind) error {
	unit, ok := s.unitIndex[unitID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownUnit, unitID)
	}
	if !kind.IsValid() {
		return domain.ErrInvalidArtifactKind
	}

	id := domain.TaskID{UnitID: unitID, Kind: kind}
	switch state := s.registry.State(id); {
	case state == domain.TaskStateDone:
		return nil
	case state.IsActive():
		return fmt.Errorf("%w: %s is %s", ErrTaskAlreadyActive, id, state)
	case state == domain.TaskStateFailed:
		return fmt.Errorf("%w: %s already failed", ErrTaskTerminal, id)
	}

	if state := s.registry.State(id); state == domain.TaskStateNotStarted {
		if artifact, err := s.artifacts.Get(ctx, unitID, kind); err == nil {
			if err := s.registry.SeedDone(id, artifact); err == nil {
				return nil
			}
		} else if !store.IsNotFoundError(err) {
			s.logger.Warn("artifact recheck failed", "task", id.String(), "error", err)
		}
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.scheduler.Trigger(s.ctx, unit, kind); err != nil {
			// Lost a race with a sweep or another explicit request.
			s.logger.Debug("trigger skipped", "task", id.String(), "error", err)
		}
	}()
	return nil
}

// Snapshot returns the current view of every unit's task for the given
// kind, keyed by unit ID. Units never touched appear as NotStarted.
func (s *Session) Snapshot(kind domain.ArtifactKind) map[uuid.UUID]TaskView {
	ids := make([]uuid.UUID, len(s.units))
	for i, unit := range s.units {
		ids[i] = unit.ID
	}
	return s.registry.Snapshot(ids, kind)
}

// Close cancels all in-flight work for the session and blocks until the
// background goroutines have drained. Cancelled tasks keep whatever
// state they were in; cancellation is not failure.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.cancel()
		s.wg.Wait()
		s.logger.Debug("session closed", "session_id", s.ID.String())
	})
}
