package store

import (
	"context"

	"github.com/caselight/caselight-api/internal/domain"
	"github.com/google/uuid"
)

// GenerationJobStore defines the interface for asynchronous generation
// job records. The orchestrator only ever creates a job and re-reads its
// status field; the worker that produces the artifact owns every other
// column.
// Version: 1.0
type GenerationJobStore interface {
	// Create enqueues a new job record for an external worker to pick up.
	Create(ctx context.Context, job *domain.GenerationJob) error

	// ReadStatus performs the narrow status read the poller repeats on a
	// timer. Returns ErrJobNotFound if the job does not exist.
	ReadStatus(ctx context.Context, ref uuid.UUID) (*domain.JobStatus, error)
}
