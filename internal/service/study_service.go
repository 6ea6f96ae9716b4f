package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/caselight/caselight-api/internal/domain"
	"github.com/caselight/caselight-api/internal/events"
	"github.com/caselight/caselight-api/internal/generation"
	"github.com/caselight/caselight-api/internal/orchestrator"
	"github.com/caselight/caselight-api/internal/store"
	"github.com/google/uuid"
)

// Common sentinel errors for StudyService
var (
	// ErrSessionNotFound indicates that the study session does not exist
	// or has already been closed.
	ErrSessionNotFound = errors.New("study session not found")

	// ErrCollectionNotFound indicates that the collection has no content
	// units to study.
	ErrCollectionNotFound = errors.New("collection not found")
)

// StudyServiceError wraps errors from the study service with context.
type StudyServiceError struct {
	// Operation is the operation that failed (e.g., "create_session")
	Operation string
	// Message is a human-readable description of the error
	Message string
	// Err is the underlying error that caused the failure
	Err error
}

// Error implements the error interface for StudyServiceError.
func (e *StudyServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("study service %s failed: %s: %v", e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("study service %s failed: %s", e.Operation, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *StudyServiceError) Unwrap() error {
	return e.Err
}

// NewStudyServiceError creates a new StudyServiceError.
// It returns known sentinel errors directly without wrapping.
func NewStudyServiceError(operation, message string, err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, ErrSessionNotFound) || errors.Is(err, ErrCollectionNotFound) {
		return err
	}

	return &StudyServiceError{
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}

// StudyService manages the lifecycle of study sessions: creating one
// over a collection's units, routing generation requests into it, and
// tearing it down.
type StudyService interface {
	// CreateSession opens a session over the given collection, seeds it
	// from the artifact store and starts the background generation sweep.
	CreateSession(ctx context.Context, collection string) (*orchestrator.Session, error)

	// GetSession returns an open session by ID.
	GetSession(sessionID uuid.UUID) (*orchestrator.Session, error)

	// Generate requests generation for one unit and kind within a session.
	Generate(ctx context.Context, sessionID, unitID uuid.UUID, kind domain.ArtifactKind) error

	// CloseSession cancels a session's in-flight work and removes it.
	CloseSession(sessionID uuid.UUID) error

	// CloseAll tears down every open session, for server shutdown.
	CloseAll()
}

// StudyConfig carries the orchestration parameters a session is built with.
type StudyConfig struct {
	Scheduler orchestrator.SchedulerConfig
	Poller    orchestrator.PollerConfig

	// SweepKinds are the artifact kinds the background sweep covers when
	// a session opens. Other kinds generate only on explicit request.
	SweepKinds []domain.ArtifactKind
}

// studyServiceImpl implements the StudyService interface.
type studyServiceImpl struct {
	units     store.UnitStore
	artifacts store.ArtifactStore
	jobs      store.GenerationJobStore
	generator generation.Service
	emitter   events.Emitter
	config    StudyConfig
	logger    *slog.Logger

	mu       sync.RWMutex
	sessions map[uuid.UUID]*orchestrator.Session
}

// NewStudyService creates a new StudyService. The emitter may be nil.
func NewStudyService(
	units store.UnitStore,
	artifacts store.ArtifactStore,
	jobs store.GenerationJobStore,
	generator generation.Service,
	emitter events.Emitter,
	config StudyConfig,
	logger *slog.Logger,
) (StudyService, error) {
	if units == nil {
		return nil, errors.New("unit store cannot be nil")
	}
	if artifacts == nil {
		return nil, errors.New("artifact store cannot be nil")
	}
	if jobs == nil {
		return nil, errors.New("job store cannot be nil")
	}
	if generator == nil {
		return nil, errors.New("generation service cannot be nil")
	}
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	if len(config.SweepKinds) == 0 {
		config.SweepKinds = []domain.ArtifactKind{domain.KindSummary}
	}

	return &studyServiceImpl{
		units:     units,
		artifacts: artifacts,
		jobs:      jobs,
		generator: generator,
		emitter:   emitter,
		config:    config,
		logger:    logger.With("component", "study_service"),
		sessions:  make(map[uuid.UUID]*orchestrator.Session),
	}, nil
}

// CreateSession loads the collection's units in position order, builds a
// fresh orchestration stack scoped to the session, seeds every task that
// already has a stored artifact and kicks off the background sweep.
func (s *studyServiceImpl) CreateSession(ctx context.Context, collection string) (*orchestrator.Session, error) {
	units, err := s.units.FindByCollection(ctx, collection)
	if err != nil {
		if store.IsNotFoundError(err) {
			return nil, ErrCollectionNotFound
		}
		return nil, NewStudyServiceError("create_session", "failed to load collection units", err)
	}
	if len(units) == 0 {
		return nil, ErrCollectionNotFound
	}

	session, err := s.buildSession(collection, units)
	if err != nil {
		return nil, NewStudyServiceError("create_session", "failed to assemble session", err)
	}

	session.Seed(ctx, s.config.SweepKinds...)
	session.StartSweep(s.config.SweepKinds...)

	s.mu.Lock()
	s.sessions[session.ID] = session
	s.mu.Unlock()

	s.logger.Info("study session created",
		"session_id", session.ID.String(),
		"collection", collection,
		"units", len(units))
	return session, nil
}

func (s *studyServiceImpl) buildSession(collection string, units []*domain.ContentUnit) (*orchestrator.Session, error) {
	registry, err := orchestrator.NewRegistry(s.artifacts, s.emitter, s.logger)
	if err != nil {
		return nil, err
	}
	poller, err := orchestrator.NewPoller(registry, s.jobs, s.config.Poller, s.logger)
	if err != nil {
		return nil, err
	}
	scheduler, err := orchestrator.NewScheduler(registry, s.generator, poller, s.config.Scheduler, s.logger)
	if err != nil {
		return nil, err
	}
	return orchestrator.NewSession(collection, units, registry, scheduler, s.artifacts, s.logger)
}

// GetSession returns an open session by ID.
func (s *studyServiceImpl) GetSession(sessionID uuid.UUID) (*orchestrator.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, ok := s.sessions[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return session, nil
}

// Generate routes a single-unit generation request into its session.
func (s *studyServiceImpl) Generate(ctx context.Context, sessionID, unitID uuid.UUID, kind domain.ArtifactKind) error {
	session, err := s.GetSession(sessionID)
	if err != nil {
		return err
	}
	return session.Generate(ctx, unitID, kind)
}

// CloseSession cancels a session's work and removes it from the service.
// Closing an unknown session returns ErrSessionNotFound.
func (s *studyServiceImpl) CloseSession(sessionID uuid.UUID) error {
	s.mu.Lock()
	session, ok := s.sessions[sessionID]
	if ok {
		delete(s.sessions, sessionID)
	}
	s.mu.Unlock()

	if !ok {
		return ErrSessionNotFound
	}

	session.Close()
	s.logger.Info("study session closed", "session_id", sessionID.String())
	return nil
}

// CloseAll tears down every open session and blocks until their
// background work has drained.
func (s *studyServiceImpl) CloseAll() {
	s.mu.Lock()
	sessions := make([]*orchestrator.Session, 0, len(s.sessions))
	for id, session := range s.sessions {
		sessions = append(sessions, session)
		delete(s.sessions, id)
	}
	s.mu.Unlock()

	for _, session := range sessions {
		session.Close()
	}
}
