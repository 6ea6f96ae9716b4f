package postgres

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/caselight/caselight-api/internal/domain"
	"github.com/caselight/caselight-api/internal/platform/logger"
	"github.com/caselight/caselight-api/internal/store"
	"github.com/google/uuid"
)

// PostgresArtifactStore implements the store.ArtifactStore interface
// using a PostgreSQL database as the storage backend. Artifacts are
// keyed by (unit_id, kind); writing an existing key replaces the payload.
type PostgresArtifactStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresArtifactStore creates a new PostgreSQL implementation of
// the ArtifactStore interface. If logger is nil, a default logger will
// be used.
func NewPostgresArtifactStore(db store.DBTX, logger *slog.Logger) *PostgresArtifactStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresArtifactStore{
		db:     db,
		logger: logger.With(slog.String("component", "artifact_store")),
	}
}

// Ensure PostgresArtifactStore implements store.ArtifactStore interface
var _ store.ArtifactStore = (*PostgresArtifactStore)(nil)

// Get implements store.ArtifactStore.Get
// Returns store.ErrArtifactNotFound on a cache miss.
func (s *PostgresArtifactStore) Get(ctx context.Context, unitID uuid.UUID, kind domain.ArtifactKind) (*domain.Artifact, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT unit_id, kind, payload, created_at, updated_at
		FROM artifacts
		WHERE unit_id = $1 AND kind = $2
	`
	var artifact domain.Artifact
	err := s.db.QueryRowContext(ctx, query, unitID, string(kind)).Scan(
		&artifact.UnitID,
		&artifact.Kind,
		&artifact.Payload,
		&artifact.CreatedAt,
		&artifact.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrArtifactNotFound
		}
		log.Error("failed to get artifact",
			slog.String("error", err.Error()),
			slog.String("unit_id", unitID.String()),
			slog.String("kind", string(kind)))
		return nil, err
	}

	return &artifact, nil
}

// Put implements store.ArtifactStore.Put
// It upserts the artifact, replacing any previous payload for the same
// (unit, kind) pair.
func (s *PostgresArtifactStore) Put(ctx context.Context, artifact *domain.Artifact) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := artifact.Validate(); err != nil {
		log.Warn("artifact validation failed during put",
			slog.String("error", err.Error()),
			slog.String("unit_id", artifact.UnitID.String()),
			slog.String("kind", string(artifact.Kind)))
		return err
	}

	query := `
		INSERT INTO artifacts (unit_id, kind, payload, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (unit_id, kind)
		DO UPDATE SET payload = EXCLUDED.payload, updated_at = EXCLUDED.updated_at
	`
	_, err := s.db.ExecContext(
		ctx,
		query,
		artifact.UnitID,
		string(artifact.Kind),
		[]byte(artifact.Payload),
		artifact.CreatedAt,
		artifact.UpdatedAt,
	)
	if err != nil {
		log.Error("failed to put artifact",
			slog.String("error", err.Error()),
			slog.String("unit_id", artifact.UnitID.String()),
			slog.String("kind", string(artifact.Kind)))
		return err
	}

	log.Debug("artifact stored",
		slog.String("unit_id", artifact.UnitID.String()),
		slog.String("kind", string(artifact.Kind)))
	return nil
}
