package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/caselight/caselight-api/internal/domain"
	"github.com/caselight/caselight-api/internal/orchestrator"
	"github.com/caselight/caselight-api/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockStudyService lets handler tests script service behavior without a
// live orchestration stack.
type mockStudyService struct {
	mu             sync.Mutex
	sessions       map[uuid.UUID]*orchestrator.Session
	createErr      error
	generateErr    error
	generateCalls  int
	closedSessions []uuid.UUID
}

func newMockStudyService() *mockStudyService {
	return &mockStudyService{sessions: make(map[uuid.UUID]*orchestrator.Session)}
}

func (m *mockStudyService) CreateSession(_ context.Context, collection string) (*orchestrator.Session, error) {
	if m.createErr != nil {
		return nil, m.createErr
	}
	for _, session := range m.sessions {
		if session.Collection == collection {
			return session, nil
		}
	}
	return nil, service.ErrCollectionNotFound
}

func (m *mockStudyService) GetSession(sessionID uuid.UUID) (*orchestrator.Session, error) {
	session, ok := m.sessions[sessionID]
	if !ok {
		return nil, service.ErrSessionNotFound
	}
	return session, nil
}

func (m *mockStudyService) Generate(_ context.Context, sessionID, _ uuid.UUID, _ domain.ArtifactKind) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[sessionID]; !ok {
		return service.ErrSessionNotFound
	}
	m.generateCalls++
	return m.generateErr
}

func (m *mockStudyService) CloseSession(sessionID uuid.UUID) error {
	if _, ok := m.sessions[sessionID]; !ok {
		return service.ErrSessionNotFound
	}
	delete(m.sessions, sessionID)
	m.closedSessions = append(m.closedSessions, sessionID)
	return nil
}

func (m *mockStudyService) CloseAll() {}

func newHandlerTestRouter(t *testing.T, svc service.StudyService) *chi.Mux {
	t.Helper()

	handler := NewStudyHandler(svc, []domain.ArtifactKind{domain.KindSummary})
	r := chi.NewRouter()
	r.Post("/api/study/sessions", handler.CreateSession)
	r.Get("/api/study/sessions/{sessionID}", handler.GetSession)
	r.Post("/api/study/sessions/{sessionID}/units/{unitID}/generate", handler.Generate)
	r.Delete("/api/study/sessions/{sessionID}", handler.CloseSession)
	return r
}

// newLiveSession assembles a real session over in-test fakes so handler
// responses carry genuine snapshots.
func newLiveSession(t *testing.T, collection string, unitCount int) (*orchestrator.Session, []*domain.ContentUnit) {
	t.Helper()

	units := make([]*domain.ContentUnit, unitCount)
	for i := range units {
		unit, err := domain.NewContentUnit(collection, "Chapter", "Hearsay is an out-of-court statement offered for its truth.", "en", i)
		require.NoError(t, err)
		units[i] = unit
	}

	artifacts := &stubArtifactStore{}
	registry, err := orchestrator.NewRegistry(artifacts, nil, testDiscardLogger())
	require.NoError(t, err)
	scheduler, err := orchestrator.NewScheduler(registry, stubGenerator{}, nil, orchestrator.SchedulerConfig{}, testDiscardLogger())
	require.NoError(t, err)
	session, err := orchestrator.NewSession(collection, units, registry, scheduler, artifacts, testDiscardLogger())
	require.NoError(t, err)
	t.Cleanup(session.Close)
	return session, units
}

func TestCreateSessionEndpoint(t *testing.T) {
	t.Parallel()

	t.Run("creates a session", func(t *testing.T) {
		t.Parallel()

		svc := newMockStudyService()
		session, _ := newLiveSession(t, "evidence", 2)
		svc.sessions[session.ID] = session
		router := newHandlerTestRouter(t, svc)

		body := bytes.NewBufferString(`{"collection":"evidence"}`)
		req := httptest.NewRequest(http.MethodPost, "/api/study/sessions", body)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		require.Equal(t, http.StatusCreated, rec.Code)

		var resp SessionResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, session.ID.String(), resp.ID)
		assert.Equal(t, "evidence", resp.Collection)
		require.Len(t, resp.Units, 2)
		assert.Equal(t, string(domain.TaskStateNotStarted), resp.Units[0].Tasks["summary"].State)
	})

	t.Run("unknown collection returns 404", func(t *testing.T) {
		t.Parallel()

		router := newHandlerTestRouter(t, newMockStudyService())

		body := bytes.NewBufferString(`{"collection":"nonexistent"}`)
		req := httptest.NewRequest(http.MethodPost, "/api/study/sessions", body)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("missing collection returns 400", func(t *testing.T) {
		t.Parallel()

		router := newHandlerTestRouter(t, newMockStudyService())

		body := bytes.NewBufferString(`{}`)
		req := httptest.NewRequest(http.MethodPost, "/api/study/sessions", body)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestGetSessionEndpoint(t *testing.T) {
	t.Parallel()

	t.Run("returns the session snapshot", func(t *testing.T) {
		t.Parallel()

		svc := newMockStudyService()
		session, _ := newLiveSession(t, "torts", 1)
		svc.sessions[session.ID] = session
		router := newHandlerTestRouter(t, svc)

		req := httptest.NewRequest(http.MethodGet, "/api/study/sessions/"+session.ID.String(), nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)

		var resp SessionResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "torts", resp.Collection)
	})

	t.Run("unknown session returns 404", func(t *testing.T) {
		t.Parallel()

		router := newHandlerTestRouter(t, newMockStudyService())

		req := httptest.NewRequest(http.MethodGet, "/api/study/sessions/"+uuid.NewString(), nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("malformed session ID returns 400", func(t *testing.T) {
		t.Parallel()

		router := newHandlerTestRouter(t, newMockStudyService())

		req := httptest.NewRequest(http.MethodGet, "/api/study/sessions/not-a-uuid", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestGenerateEndpoint(t *testing.T) {
	t.Parallel()

	t.Run("accepted", func(t *testing.T) {
		t.Parallel()

		svc := newMockStudyService()
		session, units := newLiveSession(t, "property", 1)
		svc.sessions[session.ID] = session
		router := newHandlerTestRouter(t, svc)

		body := bytes.NewBufferString(`{"kind":"summary"}`)
		url := "/api/study/sessions/" + session.ID.String() + "/units/" + units[0].ID.String() + "/generate"
		req := httptest.NewRequest(http.MethodPost, url, body)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		require.Equal(t, http.StatusAccepted, rec.Code)

		var resp GenerateResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, units[0].ID.String(), resp.UnitID)
		assert.Equal(t, "summary", resp.Kind)
		assert.Equal(t, 1, svc.generateCalls)
	})

	t.Run("active task returns 409", func(t *testing.T) {
		t.Parallel()

		svc := newMockStudyService()
		session, units := newLiveSession(t, "property", 1)
		svc.sessions[session.ID] = session
		svc.generateErr = orchestrator.ErrTaskAlreadyActive
		router := newHandlerTestRouter(t, svc)

		body := bytes.NewBufferString(`{"kind":"summary"}`)
		url := "/api/study/sessions/" + session.ID.String() + "/units/" + units[0].ID.String() + "/generate"
		req := httptest.NewRequest(http.MethodPost, url, body)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("missing kind returns 400", func(t *testing.T) {
		t.Parallel()

		svc := newMockStudyService()
		session, units := newLiveSession(t, "property", 1)
		svc.sessions[session.ID] = session
		router := newHandlerTestRouter(t, svc)

		body := bytes.NewBufferString(`{}`)
		url := "/api/study/sessions/" + session.ID.String() + "/units/" + units[0].ID.String() + "/generate"
		req := httptest.NewRequest(http.MethodPost, url, body)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestCloseSessionEndpoint(t *testing.T) {
	t.Parallel()

	svc := newMockStudyService()
	session, _ := newLiveSession(t, "contracts", 1)
	svc.sessions[session.ID] = session
	router := newHandlerTestRouter(t, svc)

	req := httptest.NewRequest(http.MethodDelete, "/api/study/sessions/"+session.ID.String(), nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Contains(t, svc.closedSessions, session.ID)

	// Closing again is a 404.
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/study/sessions/"+session.ID.String(), nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
