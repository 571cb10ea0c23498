package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/vfxhub/internal/studio"
)

// UploadHandlers serves stored files. *uploads.Store implements it.
type UploadHandlers interface {
	HandleUpload(w http.ResponseWriter, r *http.Request)
	HandleList(w http.ResponseWriter, r *http.Request)
}

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
// files, if non-nil, is mounted at /uploads.
func NewRouter(svc *studio.Service, authEnabled bool, token string, sseHandler http.Handler, files UploadHandlers) chi.Router {
	h := NewHandler(svc)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	r.Route("/projects", func(r chi.Router) {
		r.Get("/", h.ListProjects)
		r.Post("/", h.CreateProject)
		r.Get("/{id}", h.GetProject)
		r.Patch("/{id}", h.UpdateProject)
		r.Put("/{id}", h.UpdateProject)
		r.Delete("/{id}", h.DeleteProject)
		r.Get("/{id}/assets", h.ProjectAssets)
		r.Get("/{id}/milestones", h.ProjectMilestones)
	})

	r.Route("/assets", func(r chi.Router) {
		r.Get("/", h.ListAssets)
		r.Post("/", h.CreateAsset)
		r.Get("/{id}", h.GetAsset)
		r.Patch("/{id}", h.UpdateAsset)
		r.Put("/{id}", h.UpdateAsset)
		r.Delete("/{id}", h.DeleteAsset)
	})

	r.Route("/milestones", func(r chi.Router) {
		r.Get("/", h.ListMilestones)
		r.Post("/", h.CreateMilestone)
		r.Get("/counts", h.MilestoneCounts)
		r.Get("/{id}", h.GetMilestone)
		r.Patch("/{id}", h.UpdateMilestone)
		r.Put("/{id}", h.UpdateMilestone)
		r.Delete("/{id}", h.DeleteMilestone)
	})

	if files != nil {
		r.Get("/uploads", files.HandleList)
		r.Post("/uploads", files.HandleUpload)
	}

	// SSE endpoint (protected by same auth middleware).
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
