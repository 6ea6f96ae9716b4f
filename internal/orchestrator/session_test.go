package orchestrator

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/caselight/caselight-api/internal/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSession(t *testing.T, units []*domain.ContentUnit, artifacts *fakeArtifactStore, generator *fakeGenerationService) *Session {
	t.Helper()

	registry := newTestRegistry(t, artifacts)
	scheduler := newTestScheduler(t, registry, generator, nil, 5)
	session, err := NewSession("contract-law", units, registry, scheduler, artifacts, testLogger())
	require.NoError(t, err)
	t.Cleanup(session.Close)
	return session
}

func TestSessionSeedIsCacheFirst(t *testing.T) {
	t.Parallel()

	units := testUnits(t, 3)
	artifacts := newFakeArtifactStore()
	artifacts.seed(t, units[0].ID, domain.KindSummary)
	artifacts.seed(t, units[2].ID, domain.KindSummary)
	generator := newFakeGenerationService()
	session := newTestSession(t, units, artifacts, generator)

	session.Seed(context.Background(), domain.KindSummary)

	views := session.Snapshot(domain.KindSummary)
	assert.Equal(t, domain.TaskStateDone, views[units[0].ID].State)
	assert.Equal(t, domain.TaskStateNotStarted, views[units[1].ID].State)
	assert.Equal(t, domain.TaskStateDone, views[units[2].ID].State)

	require.NotNil(t, views[units[0].ID].Artifact)
	calls, _ := generator.stats()
	assert.Zero(t, calls, "seeding never generates")
}

func TestSessionReseedIssuesNoNewReadsForSeededTasks(t *testing.T) {
	t.Parallel()

	units := testUnits(t, 2)
	artifacts := newFakeArtifactStore()
	artifacts.seed(t, units[0].ID, domain.KindSummary)
	artifacts.seed(t, units[1].ID, domain.KindSummary)
	session := newTestSession(t, units, artifacts, newFakeGenerationService())

	session.Seed(context.Background(), domain.KindSummary)
	gets, _ := artifacts.counts()
	assert.Equal(t, 2, gets)

	session.Seed(context.Background(), domain.KindSummary)
	gets, _ = artifacts.counts()
	assert.Equal(t, 2, gets, "tasks past NotStarted are not re-read")
}

func TestSessionSeedTreatsBrokenReadsAsMisses(t *testing.T) {
	t.Parallel()

	units := testUnits(t, 1)
	artifacts := newFakeArtifactStore()
	artifacts.getErr = errors.New("disk gone")
	session := newTestSession(t, units, artifacts, newFakeGenerationService())

	session.Seed(context.Background(), domain.KindSummary)

	views := session.Snapshot(domain.KindSummary)
	assert.Equal(t, domain.TaskStateNotStarted, views[units[0].ID].State)
}

func TestSessionStartSweepGeneratesMissesOnly(t *testing.T) {
	t.Parallel()

	units := testUnits(t, 4)
	artifacts := newFakeArtifactStore()
	artifacts.seed(t, units[1].ID, domain.KindSummary)
	generator := newFakeGenerationService()
	session := newTestSession(t, units, artifacts, generator)

	session.Seed(context.Background(), domain.KindSummary)
	session.StartSweep(domain.KindSummary)
	session.Close()

	calls, _ := generator.stats()
	assert.Equal(t, 3, calls, "the cache hit is not regenerated")
	for _, unit := range units {
		views := session.Snapshot(domain.KindSummary)
		assert.Equal(t, domain.TaskStateDone, views[unit.ID].State)
	}
}

func TestSessionGenerate(t *testing.T) {
	t.Parallel()

	t.Run("unknown unit", func(t *testing.T) {
		t.Parallel()

		session := newTestSession(t, testUnits(t, 1), newFakeArtifactStore(), newFakeGenerationService())
		err := session.Generate(context.Background(), uuid.New(), domain.KindSummary)
		assert.ErrorIs(t, err, ErrUnknownUnit)
	})

	t.Run("invalid kind", func(t *testing.T) {
		t.Parallel()

		units := testUnits(t, 1)
		session := newTestSession(t, units, newFakeArtifactStore(), newFakeGenerationService())
		err := session.Generate(context.Background(), units[0].ID, domain.ArtifactKind("interpretive-dance"))
		assert.ErrorIs(t, err, domain.ErrInvalidArtifactKind)
	})

	t.Run("done task is a no-op", func(t *testing.T) {
		t.Parallel()

		units := testUnits(t, 1)
		artifacts := newFakeArtifactStore()
		artifacts.seed(t, units[0].ID, domain.KindSummary)
		generator := newFakeGenerationService()
		session := newTestSession(t, units, artifacts, generator)
		session.Seed(context.Background(), domain.KindSummary)

		require.NoError(t, session.Generate(context.Background(), units[0].ID, domain.KindSummary))

		calls, _ := generator.stats()
		assert.Zero(t, calls)
	})

	t.Run("cache recheck resolves without a call", func(t *testing.T) {
		t.Parallel()

		units := testUnits(t, 1)
		artifacts := newFakeArtifactStore()
		generator := newFakeGenerationService()
		session := newTestSession(t, units, artifacts, generator)

		// The artifact lands in the store after the session was seeded,
		// e.g. written by another session sharing the cache.
		artifacts.seed(t, units[0].ID, domain.KindSummary)

		require.NoError(t, session.Generate(context.Background(), units[0].ID, domain.KindSummary))

		views := session.Snapshot(domain.KindSummary)
		assert.Equal(t, domain.TaskStateDone, views[units[0].ID].State)
		calls, _ := generator.stats()
		assert.Zero(t, calls)
	})

	t.Run("active task is rejected", func(t *testing.T) {
		t.Parallel()

		units := testUnits(t, 1)
		artifacts := newFakeArtifactStore()
		generator := newFakeGenerationService()
		generator.blockUntil = make(chan struct{})
		defer close(generator.blockUntil)
		session := newTestSession(t, units, artifacts, generator)

		require.NoError(t, session.Generate(context.Background(), units[0].ID, domain.KindSummary))
		require.Eventually(t, func() bool {
			return session.Snapshot(domain.KindSummary)[units[0].ID].State == domain.TaskStateInFlight
		}, time.Second, 5*time.Millisecond)

		err := session.Generate(context.Background(), units[0].ID, domain.KindSummary)
		assert.ErrorIs(t, err, ErrTaskAlreadyActive)
	})

	t.Run("failed task is rejected", func(t *testing.T) {
		t.Parallel()

		units := testUnits(t, 1)
		artifacts := newFakeArtifactStore()
		generator := newFakeGenerationService()
		generator.errsByUnit[units[0].ID] = errors.New("model refused")
		session := newTestSession(t, units, artifacts, generator)

		require.NoError(t, session.Generate(context.Background(), units[0].ID, domain.KindSummary))
		require.Eventually(t, func() bool {
			return session.Snapshot(domain.KindSummary)[units[0].ID].State == domain.TaskStateFailed
		}, time.Second, 5*time.Millisecond)

		err := session.Generate(context.Background(), units[0].ID, domain.KindSummary)
		assert.ErrorIs(t, err, ErrTaskTerminal)
	})

	t.Run("stalled task is re-queued", func(t *testing.T) {
		t.Parallel()

		units := testUnits(t, 1)
		artifacts := newFakeArtifactStore()
		generator := newFakeGenerationService()
		session := newTestSession(t, units, artifacts, generator)

		// Drive the task into Stalled through its registry.
		id := domain.TaskID{UnitID: units[0].ID, Kind: domain.KindQuestions}
		registry := session.registry
		require.NoError(t, registry.Begin(id))
		require.NoError(t, registry.MarkInFlight(id))
		require.NoError(t, registry.MarkPolling(id, 15))
		require.NoError(t, registry.Stall(id, DefaultStallWindow))

		require.NoError(t, session.Generate(context.Background(), units[0].ID, domain.KindQuestions))
		require.Eventually(t, func() bool {
			return session.Snapshot(domain.KindQuestions)[units[0].ID].State == domain.TaskStateDone
		}, time.Second, 5*time.Millisecond)

		views := session.Snapshot(domain.KindQuestions)
		assert.Equal(t, 2, views[units[0].ID].Attempts)
	})
}

func TestSessionCloseDrainsBackgroundWork(t *testing.T) {
	t.Parallel()

	units := testUnits(t, 1)
	artifacts := newFakeArtifactStore()
	generator := newFakeGenerationService()
	generator.blockUntil = make(chan struct{})
	session := newTestSession(t, units, artifacts, generator)

	require.NoError(t, session.Generate(context.Background(), units[0].ID, domain.KindSummary))
	require.Eventually(t, func() bool {
		return session.Snapshot(domain.KindSummary)[units[0].ID].State == domain.TaskStateInFlight
	}, time.Second, 5*time.Millisecond)

	done := make(chan struct{})
	go func() {
		defer close(done)
		session.Close()
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("close did not return after cancelling in-flight work")
	}

	// The cancelled call never transitions; the task holds its last state.
	views := session.Snapshot(domain.KindSummary)
	assert.Equal(t, domain.TaskStateInFlight, views[units[0].ID].State)
}
