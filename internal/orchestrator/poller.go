package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/caselight/caselight-api/internal/domain"
	"github.com/caselight/caselight-api/internal/store"
	"github.com/google/uuid"
)

// Default poller parameters, applied when the config leaves them unset.
const (
	DefaultPollInterval = 2 * time.Second
	DefaultStallWindow  = 10 * time.Second
	DefaultMaxPolls     = 60
)

// PollerConfig holds the status poll loop parameters.
type PollerConfig struct {
	// Interval is the delay between consecutive status reads.
	Interval time.Duration

	// StallWindow is how long the completed count may sit unchanged
	// before the task is surfaced as stalled.
	StallWindow time.Duration

	// MaxPolls caps the number of status reads per task.
	MaxPolls int
}

// Poller watches queued generation jobs until their status record turns
// terminal. Terminality is decided only by the job outcome, never by
// the completed count reaching the advisory estimate: the estimate is a
// guess and the count routinely lands away from it.
type Poller struct {
	registry *Registry
	jobs     store.GenerationJobStore
	config   PollerConfig
	logger   *slog.Logger
}

// NewPoller creates a poller reading job status from the given store.
func NewPoller(registry *Registry, jobs store.GenerationJobStore, config PollerConfig, logger *slog.Logger) (*Poller, error) {
	if registry == nil {
		return nil, errors.New("registry cannot be nil")
	}
	if jobs == nil {
		return nil, errors.New("job store cannot be nil")
	}
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	if config.Interval <= 0 {
		config.Interval = DefaultPollInterval
	}
	if config.StallWindow <= 0 {
		config.StallWindow = DefaultStallWindow
	}
	if config.MaxPolls <= 0 {
		config.MaxPolls = DefaultMaxPolls
	}

	return &Poller{
		registry: registry,
		jobs:     jobs,
		config:   config,
		logger:   logger.With("component", "status_poller"),
	}, nil
}

// Poll blocks, reading the job's status on every tick until the job
// turns terminal, the stall window elapses without the count moving, or
// the poll ceiling is hit. Cancellation stops the loop without touching
// the task's state.
func (p *Poller) Poll(ctx context.Context, id domain.TaskID, ref uuid.UUID) {
	ticker := time.NewTicker(p.config.Interval)
	defer ticker.Stop()

	lastCount := 0
	lastProgress := time.Now()

	for polls := 0; polls < p.config.MaxPolls; {
		select {
		case <-ctx.Done():
			p.logger.Debug("poll loop abandoned by cancellation", "task", id.String())
			return
		case <-ticker.C:
		}
		polls++

		status, err := p.jobs.ReadStatus(ctx, ref)
		if ctx.Err() != nil {
			return
		}
		if err != nil {
			if store.IsNotFoundError(err) {
				p.registry.Fail(id, NewTransportError(fmt.Errorf("job %s vanished: %w", ref, err)))
				return
			}
			// A flaky read is not progress and not failure; the stall
			// window catches a status endpoint that stays down.
			p.logger.Warn("status read failed", "task", id.String(), "job", ref.String(), "error", err)
		} else {
			switch status.Outcome {
			case domain.JobOutcomeDone:
				if err := p.registry.FinishFromStore(ctx, id); err != nil {
					p.logger.Warn("failed to finish task from store", "task", id.String(), "error", err)
				}
				return
			case domain.JobOutcomeFailed:
				p.registry.Fail(id, NewGenerationFailure(fmt.Errorf("job %s reported failure", ref)))
				return
			}

			if status.CompletedCount > lastCount {
				lastCount = status.CompletedCount
				lastProgress = time.Now()
				p.registry.RecordProgress(id, status.CompletedCount)
			}
		}

		if time.Since(lastProgress) >= p.config.StallWindow {
			p.logger.Warn("task stalled",
				"task", id.String(),
				"job", ref.String(),
				"completed", lastCount,
				"stall_window", p.config.StallWindow.String())
			if err := p.registry.Stall(id, p.config.StallWindow); err != nil {
				p.logger.Warn("failed to mark task stalled", "task", id.String(), "error", err)
			}
			return
		}
	}

	p.registry.Fail(id, NewPollCeilingExceeded(p.config.MaxPolls))
}
