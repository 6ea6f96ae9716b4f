package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/caselight/caselight-api/internal/api"
	apiMiddleware "github.com/caselight/caselight-api/internal/api/middleware"
)

// setupRouter creates and configures the application router with all
// routes and middleware.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(apiMiddleware.TraceMiddleware)

	contentHandler := api.NewContentHandler(app.contentService)
	studyHandler := api.NewStudyHandler(app.studyService, nil)

	r.Route("/api", func(r chi.Router) {
		// Content management endpoints
		r.Route("/collections/{collection}/units", func(r chi.Router) {
			r.Get("/", contentHandler.ListUnits)
			r.Post("/", contentHandler.ImportUnits)
		})

		// Study session endpoints
		r.Route("/study/sessions", func(r chi.Router) {
			r.Post("/", studyHandler.CreateSession)
			r.Route("/{sessionID}", func(r chi.Router) {
				r.Get("/", studyHandler.GetSession)
				r.Delete("/", studyHandler.CloseSession)
				r.Post("/units/{unitID}/generate", studyHandler.Generate)
			})
		})
	})

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			app.logger.Error("Failed to write health check response", "error", err)
		}
	})

	return r
}
