package store

import (
	"context"
	"database/sql"

	"github.com/caselight/caselight-api/internal/domain"
	"github.com/google/uuid"
)

// UnitStore defines the interface for content unit persistence.
// Version: 1.0
type UnitStore interface {
	// Create saves a new content unit to the store.
	// Returns validation errors from the domain ContentUnit if data is invalid.
	Create(ctx context.Context, unit *domain.ContentUnit) error

	// GetByID retrieves a content unit by its unique ID.
	// Returns ErrUnitNotFound if the unit does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.ContentUnit, error)

	// FindByCollection retrieves all content units in the given collection,
	// ordered by position. Returns an empty slice if the collection has no
	// units.
	FindByCollection(ctx context.Context, collection string) ([]*domain.ContentUnit, error)

	// WithTx returns a new UnitStore instance that uses the provided
	// transaction. The transaction is created and managed by the caller
	// (typically a service).
	WithTx(tx *sql.Tx) UnitStore
}
