package api

import (
	"net/http"

	"github.com/caselight/caselight-api/internal/api/shared"
	"github.com/caselight/caselight-api/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

// ImportUnitsRequest represents the request body for importing a batch
// of content units into a collection.
type ImportUnitsRequest struct {
	Units []ImportUnitRequest `json:"units" validate:"required,min=1,dive"`
}

// ImportUnitRequest represents one unit of an import batch.
type ImportUnitRequest struct {
	Title      string `json:"title" validate:"required,min=1"`
	SourceText string `json:"source_text" validate:"required,min=1"`
	Locale     string `json:"locale" validate:"required,min=2"`
}

// ContentHandler handles content catalog HTTP requests.
type ContentHandler struct {
	contentService service.ContentService
	validator      *validator.Validate
}

// NewContentHandler creates a new ContentHandler.
func NewContentHandler(contentService service.ContentService) *ContentHandler {
	return &ContentHandler{
		contentService: contentService,
		validator:      validator.New(),
	}
}

// ListUnits handles GET /api/collections/{collection}/units requests.
func (h *ContentHandler) ListUnits(w http.ResponseWriter, r *http.Request) {
	collection := chi.URLParam(r, "collection")
	if collection == "" {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Collection is required")
		return
	}

	units, err := h.contentService.ListUnits(r.Context(), collection)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	responses := make([]UnitResponse, len(units))
	for i, unit := range units {
		responses[i] = unitToResponse(unit)
	}
	shared.RespondWithJSON(w, r, http.StatusOK, responses)
}

// ImportUnits handles POST /api/collections/{collection}/units requests.
func (h *ContentHandler) ImportUnits(w http.ResponseWriter, r *http.Request) {
	collection := chi.URLParam(r, "collection")
	if collection == "" {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Collection is required")
		return
	}

	var req ImportUnitsRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	imports := make([]service.UnitImport, len(req.Units))
	for i, unit := range req.Units {
		imports[i] = service.UnitImport{
			Title:      unit.Title,
			SourceText: unit.SourceText,
			Locale:     unit.Locale,
		}
	}

	units, err := h.contentService.ImportUnits(r.Context(), collection, imports)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	responses := make([]UnitResponse, len(units))
	for i, unit := range units {
		responses[i] = unitToResponse(unit)
	}
	shared.RespondWithJSON(w, r, http.StatusCreated, responses)
}
