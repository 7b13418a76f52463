package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/devflow/internal/insights"
	"github.com/starford/devflow/internal/recordservice"
	"github.com/starford/devflow/internal/storage"
)

// Deps are the services the API serves.
type Deps struct {
	Records  *recordservice.Service
	Insights *insights.Service
	// Files and Sync enable the bundle routes when Files is non-nil.
	Files storage.Provider
	Sync  SyncFunc
	// Events, if non-nil, is mounted at GET /events inside the auth group.
	Events http.Handler
	Auth   AuthConfig
}

// NewRouter creates a chi router with all API routes mounted.
func NewRouter(d Deps) chi.Router {
	rh := NewRecordHandler(d.Records)
	ih := NewInsightsHandler(d.Insights)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(d.Auth))

	r.Route("/projects", func(r chi.Router) {
		r.Get("/", rh.ListProjects)
		r.Post("/", rh.CreateProject)
		r.Put("/{id}", rh.UpdateProject)
		r.Delete("/{id}", rh.DeleteProject)
	})
	r.Route("/notes", func(r chi.Router) {
		r.Get("/", rh.ListNotes)
		r.Post("/", rh.CreateNote)
		r.Put("/{id}", rh.UpdateNote)
		r.Delete("/{id}", rh.DeleteNote)
	})
	r.Route("/snippets", func(r chi.Router) {
		r.Get("/", rh.ListSnippets)
		r.Post("/", rh.CreateSnippet)
		r.Put("/{id}", rh.UpdateSnippet)
		r.Delete("/{id}", rh.DeleteSnippet)
	})

	r.Route("/analytics", func(r chi.Router) {
		r.Get("/overview", ih.Overview)
		r.Get("/streaks", ih.Streaks)
		r.Get("/timeline", ih.Timeline)
		r.Get("/tech", ih.TechStack)
	})

	r.Get("/digest", ih.Digest)
	r.Post("/digest", ih.GenerateDigest)
	r.Get("/digest/payload", ih.DigestPayload)

	if d.Files != nil {
		bh := NewBundleHandler(d.Files, d.Sync)
		r.Get("/bundles", bh.List)
		r.Post("/bundles", bh.Upload)
	}

	if d.Events != nil {
		r.Get("/events", d.Events.ServeHTTP)
	}

	return r
}
