package store

import (
	"context"

	"github.com/caselight/caselight-api/internal/domain"
	"github.com/google/uuid"
)

// ArtifactStore defines the interface for artifact persistence. It is
// treated as a cache by the orchestration core: a read returns a hit or
// ErrArtifactNotFound, a write is an idempotent upsert (last write wins,
// artifacts are derived deterministically enough from immutable inputs).
// Version: 1.0
type ArtifactStore interface {
	// Get retrieves the artifact for the given unit and kind.
	// Returns ErrArtifactNotFound on a cache miss.
	Get(ctx context.Context, unitID uuid.UUID, kind domain.ArtifactKind) (*domain.Artifact, error)

	// Put saves the artifact, overwriting any existing payload for the
	// same (unit, kind) key.
	Put(ctx context.Context, artifact *domain.Artifact) error
}
