package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// JobOutcome is the terminal value of an asynchronous generation job's
// status field. Empty means the job has not reached a terminal state yet.
type JobOutcome string

const (
	JobOutcomeNone   JobOutcome = ""
	JobOutcomeDone   JobOutcome = "done"
	JobOutcomeFailed JobOutcome = "failed"
)

// Common validation errors for GenerationJob
var (
	ErrEmptyJobRef    = errors.New("job ref cannot be empty")
	ErrEmptyJobUnitID = errors.New("job unit ID cannot be empty")
)

// GenerationJob is the tracking record for generation work that happens
// out-of-band: the triggering call returns "accepted" and an external
// worker produces the artifact, bumping CompletedCount as it goes. The
// client discovers completion only by re-reading this record.
type GenerationJob struct {
	Ref            uuid.UUID    `json:"ref"`
	UnitID         uuid.UUID    `json:"unit_id"`
	Kind           ArtifactKind `json:"kind"`
	SourceText     string       `json:"source_text"`
	Locale         string       `json:"locale"`
	CompletedCount int          `json:"completed_count"`
	TotalExpected  int          `json:"total_expected"`
	Outcome        JobOutcome   `json:"outcome"`
	CreatedAt      time.Time    `json:"created_at"`
	UpdatedAt      time.Time    `json:"updated_at"`
}

// NewGenerationJob creates a queued job record for the given unit. The
// expected total is the advisory progress estimate set once at job start.
func NewGenerationJob(unitID uuid.UUID, kind ArtifactKind, sourceText, locale string, totalExpected int) (*GenerationJob, error) {
	now := time.Now().UTC()
	job := &GenerationJob{
		Ref:           uuid.New(),
		UnitID:        unitID,
		Kind:          kind,
		SourceText:    sourceText,
		Locale:        locale,
		TotalExpected: totalExpected,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := job.Validate(); err != nil {
		return nil, err
	}

	return job, nil
}

// Validate checks if the GenerationJob has valid data.
func (j *GenerationJob) Validate() error {
	if j.Ref == uuid.Nil {
		return ErrEmptyJobRef
	}

	if j.UnitID == uuid.Nil {
		return ErrEmptyJobUnitID
	}

	if !j.Kind.IsValid() {
		return ErrInvalidArtifactKind
	}

	return nil
}

// JobStatus is the narrow view of a job the status poller re-reads on a
// timer: a completed sub-item count, the advisory total, and the terminal
// value once the worker reports one.
type JobStatus struct {
	CompletedCount int        `json:"completed_count"`
	TotalExpected  int        `json:"total_expected"`
	Outcome        JobOutcome `json:"outcome"`
}
