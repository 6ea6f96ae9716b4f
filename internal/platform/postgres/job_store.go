package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/caselight/caselight-api/internal/domain"
	"github.com/caselight/caselight-api/internal/platform/logger"
	"github.com/caselight/caselight-api/internal/store"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

// PostgresJobStore implements the store.GenerationJobStore interface
// using a PostgreSQL database as the storage backend. The orchestrator
// creates rows and re-reads the status columns; the external worker
// fleet owns every other write.
type PostgresJobStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresJobStore creates a new PostgreSQL implementation of the
// GenerationJobStore interface. If logger is nil, a default logger will
// be used.
func NewPostgresJobStore(db store.DBTX, logger *slog.Logger) *PostgresJobStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresJobStore{
		db:     db,
		logger: logger.With(slog.String("component", "job_store")),
	}
}

// Ensure PostgresJobStore implements store.GenerationJobStore interface
var _ store.GenerationJobStore = (*PostgresJobStore)(nil)

// Create implements store.GenerationJobStore.Create
// It enqueues a new job record for a worker to pick up.
func (s *PostgresJobStore) Create(ctx context.Context, job *domain.GenerationJob) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := job.Validate(); err != nil {
		log.Warn("generation job validation failed during create",
			slog.String("error", err.Error()),
			slog.String("job_ref", job.Ref.String()))
		return err
	}

	query := `
		INSERT INTO generation_jobs
			(ref, unit_id, kind, source_text, locale, completed_count, total_expected, outcome, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := s.db.ExecContext(
		ctx,
		query,
		job.Ref,
		job.UnitID,
		string(job.Kind),
		job.SourceText,
		job.Locale,
		job.CompletedCount,
		job.TotalExpected,
		string(job.Outcome),
		job.CreatedAt,
		job.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
			return fmt.Errorf("%w: generation job %s", store.ErrDuplicate, job.Ref)
		}

		log.Error("failed to create generation job",
			slog.String("error", err.Error()),
			slog.String("job_ref", job.Ref.String()))
		return err
	}

	log.Debug("generation job enqueued",
		slog.String("job_ref", job.Ref.String()),
		slog.String("unit_id", job.UnitID.String()),
		slog.String("kind", string(job.Kind)))
	return nil
}

// ReadStatus implements store.GenerationJobStore.ReadStatus
// Returns store.ErrJobNotFound if the job does not exist.
func (s *PostgresJobStore) ReadStatus(ctx context.Context, ref uuid.UUID) (*domain.JobStatus, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT completed_count, total_expected, outcome
		FROM generation_jobs
		WHERE ref = $1
	`
	var status domain.JobStatus
	var outcome string
	err := s.db.QueryRowContext(ctx, query, ref).Scan(
		&status.CompletedCount,
		&status.TotalExpected,
		&outcome,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrJobNotFound
		}
		log.Error("failed to read job status",
			slog.String("error", err.Error()),
			slog.String("job_ref", ref.String()))
		return nil, err
	}
	status.Outcome = domain.JobOutcome(outcome)

	return &status, nil
}
