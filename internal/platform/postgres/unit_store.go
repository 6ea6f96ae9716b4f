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

// PostgresUnitStore implements the store.UnitStore interface
// using a PostgreSQL database as the storage backend.
type PostgresUnitStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresUnitStore creates a new PostgreSQL implementation of the
// UnitStore interface. It accepts a database connection or transaction
// that should be initialized and managed by the caller. If logger is
// nil, a default logger will be used.
func NewPostgresUnitStore(db store.DBTX, logger *slog.Logger) *PostgresUnitStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresUnitStore{
		db:     db,
		logger: logger.With(slog.String("component", "unit_store")),
	}
}

// Ensure PostgresUnitStore implements store.UnitStore interface
var _ store.UnitStore = (*PostgresUnitStore)(nil)

// Create implements store.UnitStore.Create
// It saves a new content unit to the database, handling domain validation.
// Returns store.ErrDuplicate if a unit with the same ID already exists.
func (s *PostgresUnitStore) Create(ctx context.Context, unit *domain.ContentUnit) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := unit.Validate(); err != nil {
		log.Warn("content unit validation failed during create",
			slog.String("error", err.Error()),
			slog.String("unit_id", unit.ID.String()))
		return err
	}

	query := `
		INSERT INTO content_units (id, collection, title, source_text, locale, position, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := s.db.ExecContext(
		ctx,
		query,
		unit.ID,
		unit.Collection,
		unit.Title,
		unit.SourceText,
		unit.Locale,
		unit.Position,
		unit.CreatedAt,
	)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
			log.Warn("duplicate content unit",
				slog.String("error", err.Error()),
				slog.String("unit_id", unit.ID.String()))
			return fmt.Errorf("%w: content unit %s", store.ErrDuplicate, unit.ID)
		}

		log.Error("failed to create content unit",
			slog.String("error", err.Error()),
			slog.String("unit_id", unit.ID.String()))
		return err
	}

	log.Debug("content unit created",
		slog.String("unit_id", unit.ID.String()),
		slog.String("collection", unit.Collection))
	return nil
}

// GetByID implements store.UnitStore.GetByID
// Returns store.ErrUnitNotFound if the unit does not exist.
func (s *PostgresUnitStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.ContentUnit, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT id, collection, title, source_text, locale, position, created_at
		FROM content_units
		WHERE id = $1
	`
	var unit domain.ContentUnit
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&unit.ID,
		&unit.Collection,
		&unit.Title,
		&unit.SourceText,
		&unit.Locale,
		&unit.Position,
		&unit.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrUnitNotFound
		}
		log.Error("failed to get content unit",
			slog.String("error", err.Error()),
			slog.String("unit_id", id.String()))
		return nil, err
	}

	return &unit, nil
}

// FindByCollection implements store.UnitStore.FindByCollection
// Units are returned in position order. An unknown collection yields an
// empty slice, not an error.
func (s *PostgresUnitStore) FindByCollection(ctx context.Context, collection string) ([]*domain.ContentUnit, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT id, collection, title, source_text, locale, position, created_at
		FROM content_units
		WHERE collection = $1
		ORDER BY position ASC
	`
	rows, err := s.db.QueryContext(ctx, query, collection)
	if err != nil {
		log.Error("failed to query content units",
			slog.String("error", err.Error()),
			slog.String("collection", collection))
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var units []*domain.ContentUnit
	for rows.Next() {
		var unit domain.ContentUnit
		if err := rows.Scan(
			&unit.ID,
			&unit.Collection,
			&unit.Title,
			&unit.SourceText,
			&unit.Locale,
			&unit.Position,
			&unit.CreatedAt,
		); err != nil {
			log.Error("failed to scan content unit row",
				slog.String("error", err.Error()),
				slog.String("collection", collection))
			return nil, err
		}
		units = append(units, &unit)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return units, nil
}

// WithTx implements store.UnitStore.WithTx
// It returns a new UnitStore that uses the provided transaction.
func (s *PostgresUnitStore) WithTx(tx *sql.Tx) store.UnitStore {
	return &PostgresUnitStore{
		db:     tx,
		logger: s.logger,
	}
}
