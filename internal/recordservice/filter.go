package recordservice

import (
	"slices"
	"strings"

	"github.com/starford/devflow/internal/models"
)

// NoteFilter narrows ListNotes. Zero fields match everything.
type NoteFilter struct {
	// Query matches title or content, case-insensitively.
	Query     string
	Tag       string
	ProjectID string
}

// SnippetFilter narrows ListSnippets. Zero fields match everything.
type SnippetFilter struct {
	// Query matches title, code or any tag, case-insensitively.
	Query         string
	Tag           string
	FavoritesOnly bool
}

func containsFold(s, q string) bool {
	return strings.Contains(strings.ToLower(s), q)
}

func (f NoteFilter) match(n models.Note) bool {
	if q := strings.ToLower(strings.TrimSpace(f.Query)); q != "" &&
		!containsFold(n.Title, q) && !containsFold(n.Content, q) {
		return false
	}
	if f.Tag != "" && !slices.Contains(n.Tags, f.Tag) {
		return false
	}
	return f.ProjectID == "" || n.ProjectID == f.ProjectID
}

func (f SnippetFilter) match(s models.Snippet) bool {
	if f.FavoritesOnly && !s.Favorite {
		return false
	}
	if f.Tag != "" && !slices.Contains(s.Tags, f.Tag) {
		return false
	}
	q := strings.ToLower(strings.TrimSpace(f.Query))
	if q == "" || containsFold(s.Title, q) || containsFold(s.Code, q) {
		return true
	}
	return slices.ContainsFunc(s.Tags, func(t string) bool { return containsFold(t, q) })
}
