package api

import (
	"encoding/json"
	"time"

	"github.com/caselight/caselight-api/internal/domain"
	"github.com/caselight/caselight-api/internal/orchestrator"
)

// UnitResponse represents one content unit in API responses.
type UnitResponse struct {
	ID         string `json:"id"`
	Collection string `json:"collection"`
	Title      string `json:"title"`
	Locale     string `json:"locale"`
	Position   int    `json:"position"`
}

// TaskResponse represents the generation state of one (unit, kind) pair.
type TaskResponse struct {
	State     string          `json:"state"`
	Artifact  json.RawMessage `json:"artifact,omitempty"`
	Error     string          `json:"error,omitempty"`
	Attempts  int             `json:"attempts"`
	Completed int             `json:"completed,omitempty"`
	Expected  int             `json:"expected,omitempty"`
}

// SessionUnitResponse pairs a unit with its per-kind task states.
type SessionUnitResponse struct {
	Unit  UnitResponse            `json:"unit"`
	Tasks map[string]TaskResponse `json:"tasks"`
}

// SessionResponse represents a study session and the state of every
// task within it.
type SessionResponse struct {
	ID         string                `json:"id"`
	Collection string                `json:"collection"`
	CreatedAt  time.Time             `json:"created_at"`
	Units      []SessionUnitResponse `json:"units"`
}

func unitToResponse(unit *domain.ContentUnit) UnitResponse {
	return UnitResponse{
		ID:         unit.ID.String(),
		Collection: unit.Collection,
		Title:      unit.Title,
		Locale:     unit.Locale,
		Position:   unit.Position,
	}
}

func taskToResponse(view orchestrator.TaskView) TaskResponse {
	resp := TaskResponse{
		State:     string(view.State),
		Error:     view.Error,
		Attempts:  view.Attempts,
		Completed: view.Completed,
		Expected:  view.Expected,
	}
	if view.Artifact != nil {
		resp.Artifact = view.Artifact.Payload
	}
	return resp
}

func sessionToResponse(session *orchestrator.Session, kinds []domain.ArtifactKind) SessionResponse {
	byUnit := make([]SessionUnitResponse, 0, len(session.Units()))

	perKind := make(map[domain.ArtifactKind]map[string]TaskResponse, len(kinds))
	for _, kind := range kinds {
		snapshot := session.Snapshot(kind)
		kindViews := make(map[string]TaskResponse, len(snapshot))
		for unitID, view := range snapshot {
			kindViews[unitID.String()] = taskToResponse(view)
		}
		perKind[kind] = kindViews
	}

	for _, unit := range session.Units() {
		tasks := make(map[string]TaskResponse, len(kinds))
		for _, kind := range kinds {
			tasks[string(kind)] = perKind[kind][unit.ID.String()]
		}
		byUnit = append(byUnit, SessionUnitResponse{
			Unit:  unitToResponse(unit),
			Tasks: tasks,
		})
	}

	return SessionResponse{
		ID:         session.ID.String(),
		Collection: session.Collection,
		CreatedAt:  session.CreatedAt,
		Units:      byUnit,
	}
}
