package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/caselight/caselight-api/internal/domain"
	"github.com/caselight/caselight-api/internal/store"
)

// Common sentinel errors for ContentService
var (
	// ErrEmptyImport indicates an import request with no units.
	ErrEmptyImport = errors.New("import contains no units")
)

// UnitImport is one unit of an import request, before IDs and positions
// are assigned.
type UnitImport struct {
	Title      string
	SourceText string
	Locale     string
}

// ContentService manages the content unit catalog.
type ContentService interface {
	// ImportUnits creates the given units under one collection in a
	// single transaction. Positions are assigned in input order. Either
	// every unit lands or none do.
	ImportUnits(ctx context.Context, collection string, imports []UnitImport) ([]*domain.ContentUnit, error)

	// ListUnits returns a collection's units in position order.
	ListUnits(ctx context.Context, collection string) ([]*domain.ContentUnit, error)
}

// contentServiceImpl implements the ContentService interface.
type contentServiceImpl struct {
	db     *sql.DB
	units  store.UnitStore
	logger *slog.Logger
}

// NewContentService creates a new ContentService backed by the given
// unit store. The db handle is used to open import transactions.
func NewContentService(db *sql.DB, units store.UnitStore, logger *slog.Logger) (ContentService, error) {
	if db == nil {
		return nil, errors.New("db cannot be nil")
	}
	if units == nil {
		return nil, errors.New("unit store cannot be nil")
	}
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}

	return &contentServiceImpl{
		db:     db,
		units:  units,
		logger: logger.With("component", "content_service"),
	}, nil
}

// ImportUnits validates and persists a batch of units atomically.
func (s *contentServiceImpl) ImportUnits(ctx context.Context, collection string, imports []UnitImport) ([]*domain.ContentUnit, error) {
	if len(imports) == 0 {
		return nil, ErrEmptyImport
	}

	units := make([]*domain.ContentUnit, 0, len(imports))
	for i, imp := range imports {
		unit, err := domain.NewContentUnit(collection, imp.Title, imp.SourceText, imp.Locale, i)
		if err != nil {
			return nil, fmt.Errorf("unit %d invalid: %w", i, err)
		}
		units = append(units, unit)
	}

	err := store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		txStore := s.units.WithTx(tx)
		for _, unit := range units {
			if err := txStore.Create(ctx, unit); err != nil {
				return fmt.Errorf("create unit %q: %w", unit.Title, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("imported content units",
		"collection", collection,
		"count", len(units))
	return units, nil
}

// ListUnits returns a collection's units in position order.
func (s *contentServiceImpl) ListUnits(ctx context.Context, collection string) ([]*domain.ContentUnit, error) {
	return s.units.FindByCollection(ctx, collection)
}
