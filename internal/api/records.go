package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/devflow/internal/recordservice"
)

// RecordHandler serves project, note and snippet CRUD.
type RecordHandler struct {
	svc *recordservice.Service
}

// NewRecordHandler creates a RecordHandler.
func NewRecordHandler(svc *recordservice.Service) *RecordHandler {
	return &RecordHandler{svc: svc}
}

// ListProjects handles GET /api/projects.
//
//	@Summary	List projects
//	@Tags		projects
//	@Produce	json
//	@Success	200	{object}	ProjectListResponse
//	@Security	BearerAuth
//	@Router		/projects [get]
func (h *RecordHandler) ListProjects(w http.ResponseWriter, r *http.Request) {
	items, err := h.svc.ListProjects(r.Context())
	if err != nil {
		writeError(w, "list projects", err)
		return
	}
	writeJSON(w, http.StatusOK, ProjectListResponse{Projects: items, Total: len(items)})
}

// CreateProject handles POST /api/projects.
//
//	@Summary	Create a project
//	@Tags		projects
//	@Accept		json
//	@Produce	json
//	@Param		body	body		recordservice.ProjectInput	true	"Project"
//	@Success	201		{object}	models.Project
//	@Failure	400		{object}	errResponse
//	@Security	BearerAuth
//	@Router		/projects [post]
func (h *RecordHandler) CreateProject(w http.ResponseWriter, r *http.Request) {
	var in recordservice.ProjectInput
	if !decodeJSON(w, r, &in) {
		return
	}
	p, err := h.svc.CreateProject(r.Context(), in)
	if err != nil {
		writeError(w, "create project", err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

// UpdateProject handles PUT /api/projects/{id}.
func (h *RecordHandler) UpdateProject(w http.ResponseWriter, r *http.Request) {
	var in recordservice.ProjectInput
	if !decodeJSON(w, r, &in) {
		return
	}
	p, err := h.svc.UpdateProject(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		writeError(w, "update project", err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// DeleteProject handles DELETE /api/projects/{id}.
func (h *RecordHandler) DeleteProject(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteProject(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, "delete project", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListNotes handles GET /api/notes.
//
//	@Summary	List notes with optional filtering
//	@Tags		notes
//	@Produce	json
//	@Param		q		query		string	false	"Match title or content"
//	@Param		tag		query		string	false	"Filter by tag"
//	@Param		project	query		string	false	"Filter by project ID"
//	@Success	200		{object}	NoteListResponse
//	@Security	BearerAuth
//	@Router		/notes [get]
func (h *RecordHandler) ListNotes(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	items, err := h.svc.ListNotes(r.Context(), recordservice.NoteFilter{
		Query:     q.Get("q"),
		Tag:       q.Get("tag"),
		ProjectID: q.Get("project"),
	})
	if err != nil {
		writeError(w, "list notes", err)
		return
	}
	writeJSON(w, http.StatusOK, NoteListResponse{Notes: items, Total: len(items)})
}

// CreateNote handles POST /api/notes.
func (h *RecordHandler) CreateNote(w http.ResponseWriter, r *http.Request) {
	var in recordservice.NoteInput
	if !decodeJSON(w, r, &in) {
		return
	}
	n, err := h.svc.CreateNote(r.Context(), in)
	if err != nil {
		writeError(w, "create note", err)
		return
	}
	writeJSON(w, http.StatusCreated, n)
}

// UpdateNote handles PUT /api/notes/{id}.
func (h *RecordHandler) UpdateNote(w http.ResponseWriter, r *http.Request) {
	var in recordservice.NoteInput
	if !decodeJSON(w, r, &in) {
		return
	}
	n, err := h.svc.UpdateNote(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		writeError(w, "update note", err)
		return
	}
	writeJSON(w, http.StatusOK, n)
}

// DeleteNote handles DELETE /api/notes/{id}.
func (h *RecordHandler) DeleteNote(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteNote(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, "delete note", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListSnippets handles GET /api/snippets.
//
//	@Summary	List snippets with optional filtering
//	@Tags		snippets
//	@Produce	json
//	@Param		q			query		string	false	"Match title, code or tags"
//	@Param		tag			query		string	false	"Filter by tag"
//	@Param		favorite	query		bool	false	"Only favorites"
//	@Success	200			{object}	SnippetListResponse
//	@Security	BearerAuth
//	@Router		/snippets [get]
func (h *RecordHandler) ListSnippets(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	items, err := h.svc.ListSnippets(r.Context(), recordservice.SnippetFilter{
		Query:         q.Get("q"),
		Tag:           q.Get("tag"),
		FavoritesOnly: q.Get("favorite") == "true",
	})
	if err != nil {
		writeError(w, "list snippets", err)
		return
	}
	writeJSON(w, http.StatusOK, SnippetListResponse{Snippets: items, Total: len(items)})
}

// CreateSnippet handles POST /api/snippets.
func (h *RecordHandler) CreateSnippet(w http.ResponseWriter, r *http.Request) {
	var in recordservice.SnippetInput
	if !decodeJSON(w, r, &in) {
		return
	}
	s, err := h.svc.CreateSnippet(r.Context(), in)
	if err != nil {
		writeError(w, "create snippet", err)
		return
	}
	writeJSON(w, http.StatusCreated, s)
}

// UpdateSnippet handles PUT /api/snippets/{id}.
func (h *RecordHandler) UpdateSnippet(w http.ResponseWriter, r *http.Request) {
	var in recordservice.SnippetInput
	if !decodeJSON(w, r, &in) {
		return
	}
	s, err := h.svc.UpdateSnippet(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		writeError(w, "update snippet", err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}

// DeleteSnippet handles DELETE /api/snippets/{id}.
func (h *RecordHandler) DeleteSnippet(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteSnippet(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, "delete snippet", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
