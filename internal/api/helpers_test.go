package api

import (
	"context"
	"io"
	"log/slog"
	"sync"

	"github.com/caselight/caselight-api/internal/domain"
	"github.com/caselight/caselight-api/internal/generation"
	"github.com/caselight/caselight-api/internal/store"
	"github.com/google/uuid"
)

func testDiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// stubArtifactStore is an empty in-memory artifact store.
type stubArtifactStore struct {
	mu        sync.Mutex
	artifacts map[string]*domain.Artifact
}

func (s *stubArtifactStore) Get(_ context.Context, unitID uuid.UUID, kind domain.ArtifactKind) (*domain.Artifact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	artifact, ok := s.artifacts[unitID.String()+"/"+string(kind)]
	if !ok {
		return nil, store.ErrArtifactNotFound
	}
	return artifact, nil
}

func (s *stubArtifactStore) Put(_ context.Context, artifact *domain.Artifact) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.artifacts == nil {
		s.artifacts = make(map[string]*domain.Artifact)
	}
	s.artifacts[artifact.UnitID.String()+"/"+string(artifact.Kind)] = artifact
	return nil
}

// stubGenerator returns a fixed payload inline.
type stubGenerator struct{}

func (stubGenerator) Generate(_ context.Context, _ generation.Request) (*generation.Response, error) {
	return &generation.Response{Status: generation.StatusDone, Artifact: []byte(`{"text":"s"}`)}, nil
}
