package orchestrator

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/caselight/caselight-api/internal/domain"
	"github.com/caselight/caselight-api/internal/generation"
	"github.com/caselight/caselight-api/internal/store"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testUnit(t *testing.T, position int) *domain.ContentUnit {
	t.Helper()
	unit, err := domain.NewContentUnit("contract-law", fmt.Sprintf("Chapter %d", position), "The offeror is master of the offer.", "en", position)
	require.NoError(t, err)
	return unit
}

func testUnits(t *testing.T, n int) []*domain.ContentUnit {
	t.Helper()
	units := make([]*domain.ContentUnit, n)
	for i := range units {
		units[i] = testUnit(t, i)
	}
	return units
}

// fakeArtifactStore is an in-memory ArtifactStore with injectable
// failures and call counters.
type fakeArtifactStore struct {
	mu        sync.Mutex
	artifacts map[string]*domain.Artifact
	getErr    error
	putErr    error
	getCalls  int
	putCalls  int
}

func newFakeArtifactStore() *fakeArtifactStore {
	return &fakeArtifactStore{artifacts: make(map[string]*domain.Artifact)}
}

func artifactKey(unitID uuid.UUID, kind domain.ArtifactKind) string {
	return unitID.String() + "/" + string(kind)
}

func (s *fakeArtifactStore) Get(_ context.Context, unitID uuid.UUID, kind domain.ArtifactKind) (*domain.Artifact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.getCalls++
	if s.getErr != nil {
		return nil, s.getErr
	}
	artifact, ok := s.artifacts[artifactKey(unitID, kind)]
	if !ok {
		return nil, store.ErrArtifactNotFound
	}
	return artifact, nil
}

func (s *fakeArtifactStore) Put(_ context.Context, artifact *domain.Artifact) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.putCalls++
	if s.putErr != nil {
		return s.putErr
	}
	s.artifacts[artifactKey(artifact.UnitID, artifact.Kind)] = artifact
	return nil
}

func (s *fakeArtifactStore) seed(t *testing.T, unitID uuid.UUID, kind domain.ArtifactKind) *domain.Artifact {
	t.Helper()
	payload := []byte(`{"text":"stored"}`)
	if kind == domain.KindQuestions {
		payload = []byte(`{"questions":[{"prompt":"Who is master of the offer?","choices":["the offeror","the offeree"],"answer_index":0}]}`)
	}
	artifact, err := domain.NewArtifact(unitID, kind, payload)
	require.NoError(t, err)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.artifacts[artifactKey(unitID, kind)] = artifact
	return artifact
}

func (s *fakeArtifactStore) counts() (gets, puts int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getCalls, s.putCalls
}

// fakeGenerationService records call concurrency and lets tests script
// per-unit outcomes.
type fakeGenerationService struct {
	mu            sync.Mutex
	calls         int
	inFlight      int
	maxInFlight   int
	errsByUnit    map[uuid.UUID]error
	acceptAll     bool
	jobRef        uuid.UUID
	expected      int
	blockUntil    chan struct{}
	calledUnitIDs []uuid.UUID
}

func newFakeGenerationService() *fakeGenerationService {
	return &fakeGenerationService{errsByUnit: make(map[uuid.UUID]error)}
}

func (f *fakeGenerationService) Generate(ctx context.Context, req generation.Request) (*generation.Response, error) {
	f.mu.Lock()
	f.calls++
	f.inFlight++
	if f.inFlight > f.maxInFlight {
		f.maxInFlight = f.inFlight
	}
	f.calledUnitIDs = append(f.calledUnitIDs, req.UnitID)
	block := f.blockUntil
	err := f.errsByUnit[req.UnitID]
	f.mu.Unlock()

	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
		}
	}

	f.mu.Lock()
	f.inFlight--
	f.mu.Unlock()

	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	if err != nil {
		return nil, err
	}
	if f.acceptAll {
		return &generation.Response{Status: generation.StatusAccepted, JobRef: f.jobRef, Expected: f.expected}, nil
	}
	return &generation.Response{Status: generation.StatusDone, Artifact: []byte(`{"text":"generated"}`)}, nil
}

func (f *fakeGenerationService) stats() (calls, maxInFlight int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls, f.maxInFlight
}

// fakeJobStore replays a scripted sequence of status reads. The last
// entry repeats once the script is exhausted.
type fakeJobStore struct {
	mu       sync.Mutex
	statuses []domain.JobStatus
	errs     []error
	reads    int
	readErr  error
}

func (f *fakeJobStore) Create(_ context.Context, _ *domain.GenerationJob) error {
	return nil
}

func (f *fakeJobStore) ReadStatus(_ context.Context, _ uuid.UUID) (*domain.JobStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	idx := f.reads
	f.reads++
	if f.readErr != nil {
		return nil, f.readErr
	}
	if idx < len(f.errs) && f.errs[idx] != nil {
		return nil, f.errs[idx]
	}
	if len(f.statuses) == 0 {
		return &domain.JobStatus{}, nil
	}
	if idx >= len(f.statuses) {
		idx = len(f.statuses) - 1
	}
	status := f.statuses[idx]
	return &status, nil
}

func newTestRegistry(t *testing.T, artifacts store.ArtifactStore) *Registry {
	t.Helper()
	registry, err := NewRegistry(artifacts, nil, testLogger())
	require.NoError(t, err)
	return registry
}
