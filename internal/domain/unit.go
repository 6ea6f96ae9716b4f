package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// ArtifactKind identifies the sort of generated payload a content unit can carry.
type ArtifactKind string

// Artifact kinds the platform can generate.
const (
	KindSummary   ArtifactKind = "summary"
	KindChapter   ArtifactKind = "chapter"
	KindNarration ArtifactKind = "narration"
	KindCover     ArtifactKind = "cover"
	KindQuestions ArtifactKind = "questions"
)

// Common validation errors for ContentUnit
var (
	ErrEmptyUnitID         = errors.New("content unit ID cannot be empty")
	ErrEmptyUnitCollection = errors.New("content unit collection cannot be empty")
	ErrEmptyUnitSource     = errors.New("content unit source text cannot be empty")
	ErrInvalidArtifactKind = errors.New("invalid artifact kind")
)

// IsValid reports whether the kind is one the platform knows how to generate.
func (k ArtifactKind) IsValid() bool {
	switch k {
	case KindSummary, KindChapter, KindNarration, KindCover, KindQuestions:
		return true
	default:
		return false
	}
}

// ContentUnit is the smallest addressable item that needs generation:
// a chapter, a subtopic, an article. It carries the parameters needed to
// produce its artifacts and is immutable for the lifetime of a session.
type ContentUnit struct {
	ID         uuid.UUID `json:"id"`
	Collection string    `json:"collection"`
	Title      string    `json:"title"`
	SourceText string    `json:"source_text"`
	Locale     string    `json:"locale"`
	Position   int       `json:"position"`
	CreatedAt  time.Time `json:"created_at"`
}

// NewContentUnit creates a new ContentUnit with a generated ID and
// creation timestamp. Returns an error if validation fails.
func NewContentUnit(collection, title, sourceText, locale string, position int) (*ContentUnit, error) {
	unit := &ContentUnit{
		ID:         uuid.New(),
		Collection: collection,
		Title:      title,
		SourceText: sourceText,
		Locale:     locale,
		Position:   position,
		CreatedAt:  time.Now().UTC(),
	}

	if err := unit.Validate(); err != nil {
		return nil, err
	}

	return unit, nil
}

// Validate checks if the ContentUnit has valid data.
func (u *ContentUnit) Validate() error {
	if u.ID == uuid.Nil {
		return ErrEmptyUnitID
	}

	if u.Collection == "" {
		return ErrEmptyUnitCollection
	}

	if u.SourceText == "" {
		return ErrEmptyUnitSource
	}

	return nil
}
