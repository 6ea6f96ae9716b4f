package api

import (
	"net/http"

	"github.com/caselight/caselight-api/internal/api/shared"
	"github.com/caselight/caselight-api/internal/domain"
	"github.com/caselight/caselight-api/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// CreateSessionRequest represents the request body for opening a study
// session over a collection.
type CreateSessionRequest struct {
	Collection string `json:"collection" validate:"required,min=1"`
}

// GenerateRequest represents the request body for an explicit generation
// request on one unit.
type GenerateRequest struct {
	Kind string `json:"kind" validate:"required,min=1"`
}

// GenerateResponse acknowledges an accepted generation request.
type GenerateResponse struct {
	UnitID string `json:"unit_id"`
	Kind   string `json:"kind"`
	State  string `json:"state"`
}

// StudyHandler handles study session HTTP requests.
type StudyHandler struct {
	studyService service.StudyService
	kinds        []domain.ArtifactKind
	validator    *validator.Validate
}

// NewStudyHandler creates a new StudyHandler. The kinds slice controls
// which artifact kinds session responses report on.
func NewStudyHandler(studyService service.StudyService, kinds []domain.ArtifactKind) *StudyHandler {
	if len(kinds) == 0 {
		kinds = []domain.ArtifactKind{
			domain.KindSummary,
			domain.KindChapter,
			domain.KindNarration,
			domain.KindCover,
			domain.KindQuestions,
		}
	}
	return &StudyHandler{
		studyService: studyService,
		kinds:        kinds,
		validator:    validator.New(),
	}
}

// CreateSession handles POST /api/study/sessions requests.
func (h *StudyHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	var req CreateSessionRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	session, err := h.studyService.CreateSession(r.Context(), req.Collection)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusCreated, sessionToResponse(session, h.kinds))
}

// GetSession handles GET /api/study/sessions/{sessionID} requests.
func (h *StudyHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := h.parseID(w, r, "sessionID")
	if !ok {
		return
	}

	session, err := h.studyService.GetSession(sessionID)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, sessionToResponse(session, h.kinds))
}

// Generate handles POST /api/study/sessions/{sessionID}/units/{unitID}/generate
// requests. A successful request is acknowledged with 202 Accepted; the
// work itself runs in the background and is observed via GetSession.
func (h *StudyHandler) Generate(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := h.parseID(w, r, "sessionID")
	if !ok {
		return
	}
	unitID, ok := h.parseID(w, r, "unitID")
	if !ok {
		return
	}

	var req GenerateRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	kind := domain.ArtifactKind(req.Kind)
	err := h.studyService.Generate(r.Context(), sessionID, unitID, kind)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	session, err := h.studyService.GetSession(sessionID)
	state := string(domain.TaskStateQueued)
	if err == nil {
		if view, found := session.Snapshot(kind)[unitID]; found {
			state = string(view.State)
		}
	}

	shared.RespondWithJSON(w, r, http.StatusAccepted, GenerateResponse{
		UnitID: unitID.String(),
		Kind:   req.Kind,
		State:  state,
	})
}

// CloseSession handles DELETE /api/study/sessions/{sessionID} requests.
func (h *StudyHandler) CloseSession(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := h.parseID(w, r, "sessionID")
	if !ok {
		return
	}

	if err := h.studyService.CloseSession(sessionID); err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *StudyHandler) parseID(w http.ResponseWriter, r *http.Request, param string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, param))
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid "+param)
		return uuid.Nil, false
	}
	return id, true
}
