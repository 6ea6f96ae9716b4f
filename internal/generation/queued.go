package generation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/caselight/caselight-api/internal/domain"
	"github.com/caselight/caselight-api/internal/store"
)

// Common errors for QueuedService construction
var (
	ErrNilJobStore = errors.New("job store cannot be nil")
	ErrNilLogger   = errors.New("logger cannot be nil")
)

// QueuedService is the asynchronous generation path: Generate enqueues a
// job record that an external worker picks up, and returns "accepted"
// with a job reference. The worker produces the artifact out-of-band,
// bumping the job's completed count as it goes; the orchestrator's status
// poller discovers completion by re-reading that record. Used for
// question-set generation, where producing each question is a separate
// sub-item.
type QueuedService struct {
	jobs   store.GenerationJobStore
	logger *slog.Logger
}

// NewQueuedService creates a QueuedService backed by the given job store.
func NewQueuedService(jobs store.GenerationJobStore, logger *slog.Logger) (*QueuedService, error) {
	if jobs == nil {
		return nil, ErrNilJobStore
	}
	if logger == nil {
		return nil, ErrNilLogger
	}

	return &QueuedService{
		jobs:   jobs,
		logger: logger.With("component", "queued_generation"),
	}, nil
}

// Generate implements Service. The advisory expected total is derived
// from the source size once, at job start; actual completion is always
// detected by the job's terminal status.
func (s *QueuedService) Generate(ctx context.Context, req Request) (*Response, error) {
	expected := domain.EstimateExpectedItems(len(req.SourceText))

	job, err := domain.NewGenerationJob(req.UnitID, req.Kind, req.SourceText, req.Locale, expected)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}

	if err := s.jobs.Create(ctx, job); err != nil {
		return nil, fmt.Errorf("%w: enqueue job: %v", ErrTransientFailure, err)
	}

	s.logger.Info("generation job enqueued",
		"job_ref", job.Ref,
		"unit_id", req.UnitID,
		"kind", req.Kind,
		"total_expected", expected)

	return &Response{
		Status:   StatusAccepted,
		JobRef:   job.Ref,
		Expected: expected,
	}, nil
}

var _ Service = (*QueuedService)(nil)
