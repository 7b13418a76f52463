// Package models defines the domain types for DevFlow.
package models

import (
	"time"

	"github.com/starford/devflow/internal/activity"
)

// Project statuses.
const (
	StatusPlanning   = "planning"
	StatusInProgress = "in-progress"
	StatusCompleted  = "completed"
	StatusOnHold     = "on-hold"
)

// ProjectStatuses lists every accepted project status.
var ProjectStatuses = []string{StatusPlanning, StatusInProgress, StatusCompleted, StatusOnHold}

// SnippetLanguages lists the languages offered by the snippet editor.
// Other labels are accepted as free text.
var SnippetLanguages = []string{
	"javascript", "typescript", "python", "html", "css", "json", "markdown",
	"bash", "sql", "java", "c", "cpp", "csharp", "go", "rust", "ruby", "php",
	"yaml", "plaintext",
}

// Record kinds.
const (
	KindProject = "project"
	KindNote    = "note"
	KindSnippet = "snippet"
)

// ProjectLink is an external link attached to a project.
type ProjectLink struct {
	Label string `json:"label" yaml:"label"`
	URL   string `json:"url" yaml:"url"`
}

// Project is a tracked piece of work.
type Project struct {
	ID          string        `json:"id"`
	Title       string        `json:"title"`
	Description string        `json:"description"`
	TechStack   []string      `json:"tech_stack"`
	Status      string        `json:"status"`
	StartDate   string        `json:"start_date"`
	Links       []ProjectLink `json:"links"`
	Progress    int           `json:"progress"`
	Source      string        `json:"source,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

// Projection returns the fields the analytics engine reads.
func (p Project) Projection() activity.Project {
	return activity.Project{
		Title:     p.Title,
		Status:    p.Status,
		Progress:  p.Progress,
		TechStack: p.TechStack,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}

// Note is a free-form Markdown note.
type Note struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Tags      []string  `json:"tags"`
	ProjectID string    `json:"project_id,omitempty"`
	Source    string    `json:"source,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Projection returns the fields the analytics engine reads.
func (n Note) Projection() activity.Note {
	return activity.Note{Title: n.Title, CreatedAt: n.CreatedAt, UpdatedAt: n.UpdatedAt}
}

// Snippet is a saved piece of code.
type Snippet struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Language  string    `json:"language"`
	Code      string    `json:"code"`
	Tags      []string  `json:"tags"`
	Favorite  bool      `json:"favorite"`
	Source    string    `json:"source,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Projection returns the fields the analytics engine reads.
func (s Snippet) Projection() activity.Snippet {
	return activity.Snippet{Title: s.Title, Language: s.Language, CreatedAt: s.CreatedAt, UpdatedAt: s.UpdatedAt}
}

// Digest is the persisted weekly narrative summary. There is one per user.
type Digest struct {
	UserID      string    `json:"-"`
	WeekLabel   string    `json:"week_label"`
	Summary     string    `json:"summary"`
	GeneratedAt time.Time `json:"generated_at"`
}

// Snapshot projects full record lists into an engine snapshot.
func Snapshot(projects []Project, notes []Note, snippets []Snippet) activity.Snapshot {
	snap := activity.Snapshot{
		Projects: make([]activity.Project, len(projects)),
		Notes:    make([]activity.Note, len(notes)),
		Snippets: make([]activity.Snippet, len(snippets)),
	}
	for i, p := range projects {
		snap.Projects[i] = p.Projection()
	}
	for i, n := range notes {
		snap.Notes[i] = n.Projection()
	}
	for i, s := range snippets {
		snap.Snippets[i] = s.Projection()
	}
	return snap
}
