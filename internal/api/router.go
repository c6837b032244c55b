package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/calder-dev/iterviz/internal/mediastore"
	"github.com/calder-dev/iterviz/internal/projectservice"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced on the editor
// surface; the embed endpoint stays public (it serves third-party sites).
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
// notifier may be nil.
func NewRouter(svc *projectservice.Service, media *mediastore.FS, notifier Notifier, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(svc, media, notifier)

	r := chi.NewRouter()

	// Public embeddable surface.
	r.Get("/embed/{slugOrId}", h.Embed)

	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(authEnabled, token))

		// Projects CRUD.
		r.Get("/projects", h.ListProjects)
		r.Post("/projects", h.CreateProject)
		r.Get("/projects/{projectID}", h.GetProject)
		r.Delete("/projects/{projectID}", h.DeleteProject)

		// Intent-dispatched node/edge mutations.
		r.Post("/projects/{projectID}/actions", h.Actions)

		// Server-computed renderer geometry.
		r.Get("/projects/{projectID}/layout", h.Layout2D)
		r.Get("/projects/{projectID}/layout3d", h.Layout3D)

		// Media uploads.
		r.Post("/upload", h.Upload)
		r.Get("/uploads/orphans", h.UploadOrphans)

		// SSE endpoint (protected by same auth middleware).
		if sseHandler != nil {
			r.Get("/events", sseHandler.ServeHTTP)
		}
	})

	return r
}
