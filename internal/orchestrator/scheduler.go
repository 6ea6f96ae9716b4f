package orchestrator

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/caselight/caselight-api/internal/domain"
	"github.com/caselight/caselight-api/internal/generation"
)

// DefaultConcurrency is the dispatch ceiling applied when the scheduler
// config leaves it unset.
const DefaultConcurrency = 5

// SchedulerConfig holds the batch dispatch parameters.
type SchedulerConfig struct {
	// Concurrency caps how many generation calls are in flight at once.
	Concurrency int
}

// Scheduler dispatches generation work in waves. A wave holds at most
// Concurrency tasks; the next wave starts only after every task in the
// current one has either completed its call or been handed to the
// poller's accept path. One task's failure never aborts its wave.
type Scheduler struct {
	registry  *Registry
	generator generation.Service
	poller    *Poller
	config    SchedulerConfig
	logger    *slog.Logger
}

// NewScheduler creates a scheduler over the given registry and
// generation service. The poller may be nil only if the generation
// service never returns an accepted response.
func NewScheduler(registry *Registry, generator generation.Service, poller *Poller, config SchedulerConfig, logger *slog.Logger) (*Scheduler, error) {
	if registry == nil {
		return nil, errors.New("registry cannot be nil")
	}
	if generator == nil {
		return nil, errors.New("generation service cannot be nil")
	}
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	if config.Concurrency <= 0 {
		config.Concurrency = DefaultConcurrency
	}

	return &Scheduler{
		registry:  registry,
		generator: generator,
		poller:    poller,
		config:    config,
		logger:    logger.With("component", "batch_scheduler"),
	}, nil
}

// Run sweeps the given units for the given kind, dispatching every task
// still in NotStarted. Tasks in any other state are skipped: already
// active, already finished, or stalled awaiting an explicit retry.
// Returns when all waves have drained or the context is cancelled
// between waves.
func (s *Scheduler) Run(ctx context.Context, units []*domain.ContentUnit, kind domain.ArtifactKind) {
	pending := make([]*domain.ContentUnit, 0, len(units))
	for _, unit := range units {
		id := domain.TaskID{UnitID: unit.ID, Kind: kind}
		if s.registry.State(id) == domain.TaskStateNotStarted {
			pending = append(pending, unit)
		}
	}

	if len(pending) == 0 {
		return
	}

	s.logger.Debug("starting generation sweep",
		"kind", string(kind),
		"pending", len(pending),
		"concurrency", s.config.Concurrency)

	for start := 0; start < len(pending); start += s.config.Concurrency {
		if ctx.Err() != nil {
			s.logger.Debug("sweep cancelled between waves", "kind", string(kind))
			return
		}

		end := start + s.config.Concurrency
		if end > len(pending) {
			end = len(pending)
		}

		var wg sync.WaitGroup
		for _, unit := range pending[start:end] {
			id := domain.TaskID{UnitID: unit.ID, Kind: kind}
			if err := s.registry.Begin(id); err != nil {
				// Someone else claimed the task since the filter pass.
				s.logger.Debug("skipping task in sweep", "task", id.String(), "error", err)
				continue
			}

			wg.Add(1)
			go func(unit *domain.ContentUnit) {
				defer wg.Done()
				s.dispatch(ctx, unit, kind)
			}(unit)
		}
		wg.Wait()
	}
}

// Trigger dispatches a single task immediately, claiming the flight for
// it. Returns ErrTaskAlreadyActive or ErrTaskTerminal without side
// effects when the task cannot be started.
func (s *Scheduler) Trigger(ctx context.Context, unit *domain.ContentUnit, kind domain.ArtifactKind) error {
	id := domain.TaskID{UnitID: unit.ID, Kind: kind}
	if err := s.registry.Begin(id); err != nil {
		return err
	}
	s.dispatch(ctx, unit, kind)
	return nil
}

// dispatch runs one generation attempt end to end: the call itself, then
// either completion with the returned artifact or a handoff to the
// status poller. Cancellation mid-call leaves the task where it is; the
// session is being torn down and its registry with it.
func (s *Scheduler) dispatch(ctx context.Context, unit *domain.ContentUnit, kind domain.ArtifactKind) {
	id := domain.TaskID{UnitID: unit.ID, Kind: kind}
	if err := s.registry.MarkInFlight(id); err != nil {
		s.logger.Warn("task vanished before dispatch", "task", id.String(), "error", err)
		return
	}

	resp, err := s.generator.Generate(ctx, generation.Request{
		UnitID:     unit.ID,
		Kind:       kind,
		SourceText: unit.SourceText,
		Locale:     unit.Locale,
	})

	if ctx.Err() != nil {
		s.logger.Debug("dispatch abandoned by cancellation", "task", id.String())
		return
	}

	if err != nil {
		terr := classifyError(err)
		s.logger.Warn("generation attempt failed",
			"task", id.String(),
			"failure_kind", string(terr.Kind),
			"error", err)
		s.registry.Fail(id, terr)
		return
	}

	switch resp.Status {
	case generation.StatusDone:
		if err := s.registry.Complete(ctx, id, resp.Artifact); err != nil {
			s.logger.Warn("failed to complete task", "task", id.String(), "error", err)
		}
	case generation.StatusAccepted:
		if err := s.registry.MarkPolling(id, resp.Expected); err != nil {
			s.logger.Warn("failed to hand task to poller", "task", id.String(), "error", err)
			return
		}
		s.poller.Poll(ctx, id, resp.JobRef)
	default:
		s.registry.Fail(id, NewGenerationFailure(generation.ErrInvalidResponse))
	}
}

// classifyError sorts a generation error into the failure taxonomy.
// Transient and transport-shaped failures are TransportError; everything
// else is a GenerationFailure.
func classifyError(err error) *TaskError {
	if errors.Is(err, generation.ErrTransientFailure) ||
		errors.Is(err, context.DeadlineExceeded) {
		return NewTransportError(err)
	}
	return NewGenerationFailure(err)
}
