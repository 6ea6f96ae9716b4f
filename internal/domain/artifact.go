package domain

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Common validation errors for Artifact
var (
	ErrEmptyArtifactUnitID  = errors.New("artifact unit ID cannot be empty")
	ErrEmptyArtifactPayload = errors.New("artifact payload cannot be empty")
)

// Artifact is a generated content payload keyed by (unit, kind): summary
// text, a question set, a narration audio URL or a cover image URL. The
// payload is opaque to the orchestration core; it is produced once and
// persisted so it is never generated twice.
type Artifact struct {
	UnitID    uuid.UUID       `json:"unit_id"`
	Kind      ArtifactKind    `json:"kind"`
	Payload   json.RawMessage `json:"payload"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// NewArtifact creates a new Artifact for the given unit and kind.
// Returns an error if validation fails.
func NewArtifact(unitID uuid.UUID, kind ArtifactKind, payload json.RawMessage) (*Artifact, error) {
	now := time.Now().UTC()
	artifact := &Artifact{
		UnitID:    unitID,
		Kind:      kind,
		Payload:   payload,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := artifact.Validate(); err != nil {
		return nil, err
	}

	return artifact, nil
}

// Validate checks if the Artifact has valid data.
func (a *Artifact) Validate() error {
	if a.UnitID == uuid.Nil {
		return ErrEmptyArtifactUnitID
	}

	if !a.Kind.IsValid() {
		return ErrInvalidArtifactKind
	}

	if len(a.Payload) == 0 {
		return ErrEmptyArtifactPayload
	}

	return nil
}
