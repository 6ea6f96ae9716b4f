package service

import (
	"context"
	"testing"

	"github.com/caselight/caselight-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// The transactional import path against a real database is covered by
// integration tests; these exercise validation and listing.

func TestImportUnitsValidation(t *testing.T) {
	t.Parallel()

	units := newMockUnitStore()
	svc, err := NewContentService(nil, units, testLogger())
	require.Error(t, err, "nil db is rejected")
	assert.Nil(t, svc)
}

func TestImportUnitsEmptyBatch(t *testing.T) {
	t.Parallel()

	svc := &contentServiceImpl{units: newMockUnitStore(), logger: testLogger()}

	_, err := svc.ImportUnits(context.Background(), "contract-law", nil)
	assert.ErrorIs(t, err, ErrEmptyImport)
}

func TestImportUnitsRejectsInvalidUnit(t *testing.T) {
	t.Parallel()

	svc := &contentServiceImpl{units: newMockUnitStore(), logger: testLogger()}

	_, err := svc.ImportUnits(context.Background(), "contract-law", []UnitImport{
		{Title: "Offer and Acceptance", SourceText: "An offer may be revoked before acceptance.", Locale: "en"},
		{Title: "Empty", SourceText: "", Locale: "en"},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrEmptyUnitSource)
}

func TestListUnits(t *testing.T) {
	t.Parallel()

	units := newMockUnitStore()
	catalog := seedCollection(t, units, "evidence", 3)
	svc := &contentServiceImpl{units: units, logger: testLogger()}

	got, err := svc.ListUnits(context.Background(), "evidence")
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, catalog[0].ID, got[0].ID)
}
