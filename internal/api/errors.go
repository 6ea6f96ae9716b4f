package api

import (
	"errors"
	"net/http"

	"github.com/caselight/caselight-api/internal/domain"
	"github.com/caselight/caselight-api/internal/orchestrator"
	"github.com/caselight/caselight-api/internal/service"
	"github.com/caselight/caselight-api/internal/store"
)

// MapErrorToStatusCode maps internal errors to HTTP status codes without
// leaking internal error types or messages to clients.
func MapErrorToStatusCode(err error) int {
	switch {
	// Not found errors
	case errors.Is(err, service.ErrSessionNotFound),
		errors.Is(err, service.ErrCollectionNotFound),
		errors.Is(err, orchestrator.ErrUnknownUnit),
		store.IsNotFoundError(err):
		return http.StatusNotFound

	// Conflict errors: the task is already doing or has already done
	// what the caller asked for
	case errors.Is(err, orchestrator.ErrTaskAlreadyActive),
		errors.Is(err, orchestrator.ErrTaskTerminal):
		return http.StatusConflict

	// Bad request errors
	case errors.Is(err, domain.ErrInvalidArtifactKind),
		errors.Is(err, service.ErrEmptyImport),
		errors.Is(err, store.ErrInvalidEntity):
		return http.StatusBadRequest

	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a sanitized, user-facing message for the
// error. Internal details stay in the logs.
func GetSafeErrorMessage(err error) string {
	switch {
	case errors.Is(err, service.ErrSessionNotFound):
		return "Study session not found"
	case errors.Is(err, service.ErrCollectionNotFound):
		return "Collection not found"
	case errors.Is(err, orchestrator.ErrUnknownUnit):
		return "Unit is not part of this session"
	case errors.Is(err, orchestrator.ErrTaskAlreadyActive):
		return "Generation is already in progress for this unit"
	case errors.Is(err, orchestrator.ErrTaskTerminal):
		return "Generation has already finished for this unit"
	case errors.Is(err, domain.ErrInvalidArtifactKind):
		return "Unknown artifact kind"
	case errors.Is(err, service.ErrEmptyImport):
		return "Import contains no units"
	case store.IsNotFoundError(err):
		return "Resource not found"
	case errors.Is(err, store.ErrInvalidEntity):
		return "Invalid request data"
	default:
		return "An internal error occurred"
	}
}
