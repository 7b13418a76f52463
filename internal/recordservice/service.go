// Package recordservice implements create, update, delete and list for
// projects, notes and snippets, and builds the analytics snapshot.
//
// Inputs are normalized and validated here, once, so the analytics engine
// always receives well-formed records.
package recordservice

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/starford/devflow/internal/activity"
	"github.com/starford/devflow/internal/models"
	"github.com/starford/devflow/internal/store"
)

// Record change actions.
const (
	ActionCreated = "created"
	ActionUpdated = "updated"
	ActionDeleted = "deleted"
)

// ChangeFunc is called after every successful mutation.
type ChangeFunc func(kind, action, id string)

// Service coordinates record validation and persistence.
type Service struct {
	db       store.RecordStore
	now      func() time.Time
	onChange ChangeFunc
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the time source used for CreatedAt/UpdatedAt.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithChangeFunc registers the mutation callback.
func WithChangeFunc(fn ChangeFunc) Option {
	return func(s *Service) { s.onChange = fn }
}

// NewService creates a new record service.
func NewService(db store.RecordStore, opts ...Option) *Service {
	s := &Service{db: db, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) changed(kind, action, id string) {
	if s.onChange != nil {
		s.onChange(kind, action, id)
	}
}

// Snapshot loads every record and projects it for the analytics engine.
func (s *Service) Snapshot(ctx context.Context) (activity.Snapshot, error) {
	projects, err := s.db.ListProjects(ctx)
	if err != nil {
		return activity.Snapshot{}, err
	}
	notes, err := s.db.ListNotes(ctx)
	if err != nil {
		return activity.Snapshot{}, err
	}
	snippets, err := s.db.ListSnippets(ctx)
	if err != nil {
		return activity.Snapshot{}, err
	}
	return models.Snapshot(projects, notes, snippets), nil
}

// --- projects ---

// ListProjects returns every project.
func (s *Service) ListProjects(ctx context.Context) ([]models.Project, error) {
	return s.db.ListProjects(ctx)
}

// CreateProject validates in and stores a new project.
func (s *Service) CreateProject(ctx context.Context, in ProjectInput) (*models.Project, error) {
	if err := prepare(&in); err != nil {
		return nil, err
	}
	now := s.now()
	p := models.Project{ID: uuid.NewString(), CreatedAt: now, UpdatedAt: now}
	applyProject(&p, in)
	if err := s.db.UpsertProject(ctx, p); err != nil {
		return nil, err
	}
	s.changed(models.KindProject, ActionCreated, p.ID)
	return &p, nil
}

// UpdateProject replaces the writable fields of an existing project.
func (s *Service) UpdateProject(ctx context.Context, id string, in ProjectInput) (*models.Project, error) {
	if err := prepare(&in); err != nil {
		return nil, err
	}
	p, err := s.db.GetProject(ctx, id)
	if err != nil {
		return nil, err
	}
	applyProject(p, in)
	p.UpdatedAt = s.now()
	if err := s.db.UpsertProject(ctx, *p); err != nil {
		return nil, err
	}
	s.changed(models.KindProject, ActionUpdated, p.ID)
	return p, nil
}

// DeleteProject removes a project.
func (s *Service) DeleteProject(ctx context.Context, id string) error {
	if err := s.db.DeleteProject(ctx, id); err != nil {
		return err
	}
	s.changed(models.KindProject, ActionDeleted, id)
	return nil
}

func applyProject(p *models.Project, in ProjectInput) {
	p.Title = in.Title
	p.Description = in.Description
	p.TechStack = in.TechStack
	p.Status = in.Status
	p.StartDate = in.StartDate
	p.Links = in.Links
	p.Progress = in.Progress
}

// --- notes ---

// ListNotes returns the notes matching f.
func (s *Service) ListNotes(ctx context.Context, f NoteFilter) ([]models.Note, error) {
	notes, err := s.db.ListNotes(ctx)
	if err != nil {
		return nil, err
	}
	out := notes[:0]
	for _, n := range notes {
		if f.match(n) {
			out = append(out, n)
		}
	}
	return out, nil
}

// CreateNote validates in and stores a new note.
func (s *Service) CreateNote(ctx context.Context, in NoteInput) (*models.Note, error) {
	if err := prepare(&in); err != nil {
		return nil, err
	}
	now := s.now()
	n := models.Note{
		ID:        uuid.NewString(),
		Title:     in.Title,
		Content:   in.Content,
		Tags:      in.Tags,
		ProjectID: in.ProjectID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.db.UpsertNote(ctx, n); err != nil {
		return nil, err
	}
	s.changed(models.KindNote, ActionCreated, n.ID)
	return &n, nil
}

// UpdateNote replaces the writable fields of an existing note.
func (s *Service) UpdateNote(ctx context.Context, id string, in NoteInput) (*models.Note, error) {
	if err := prepare(&in); err != nil {
		return nil, err
	}
	n, err := s.db.GetNote(ctx, id)
	if err != nil {
		return nil, err
	}
	n.Title = in.Title
	n.Content = in.Content
	n.Tags = in.Tags
	n.ProjectID = in.ProjectID
	n.UpdatedAt = s.now()
	if err := s.db.UpsertNote(ctx, *n); err != nil {
		return nil, err
	}
	s.changed(models.KindNote, ActionUpdated, n.ID)
	return n, nil
}

// DeleteNote removes a note.
func (s *Service) DeleteNote(ctx context.Context, id string) error {
	if err := s.db.DeleteNote(ctx, id); err != nil {
		return err
	}
	s.changed(models.KindNote, ActionDeleted, id)
	return nil
}

// --- snippets ---

// ListSnippets returns the snippets matching f.
func (s *Service) ListSnippets(ctx context.Context, f SnippetFilter) ([]models.Snippet, error) {
	snippets, err := s.db.ListSnippets(ctx)
	if err != nil {
		return nil, err
	}
	out := snippets[:0]
	for _, sn := range snippets {
		if f.match(sn) {
			out = append(out, sn)
		}
	}
	return out, nil
}

// CreateSnippet validates in and stores a new snippet.
func (s *Service) CreateSnippet(ctx context.Context, in SnippetInput) (*models.Snippet, error) {
	if err := prepare(&in); err != nil {
		return nil, err
	}
	now := s.now()
	sn := models.Snippet{
		ID:        uuid.NewString(),
		Title:     in.Title,
		Language:  in.Language,
		Code:      in.Code,
		Tags:      in.Tags,
		Favorite:  in.Favorite,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.db.UpsertSnippet(ctx, sn); err != nil {
		return nil, err
	}
	s.changed(models.KindSnippet, ActionCreated, sn.ID)
	return &sn, nil
}

// UpdateSnippet replaces the writable fields of an existing snippet.
func (s *Service) UpdateSnippet(ctx context.Context, id string, in SnippetInput) (*models.Snippet, error) {
	if err := prepare(&in); err != nil {
		return nil, err
	}
	sn, err := s.db.GetSnippet(ctx, id)
	if err != nil {
		return nil, err
	}
	sn.Title = in.Title
	sn.Language = in.Language
	sn.Code = in.Code
	sn.Tags = in.Tags
	sn.Favorite = in.Favorite
	sn.UpdatedAt = s.now()
	if err := s.db.UpsertSnippet(ctx, *sn); err != nil {
		return nil, err
	}
	s.changed(models.KindSnippet, ActionUpdated, sn.ID)
	return sn, nil
}

// DeleteSnippet removes a snippet.
func (s *Service) DeleteSnippet(ctx context.Context, id string) error {
	if err := s.db.DeleteSnippet(ctx, id); err != nil {
		return err
	}
	s.changed(models.KindSnippet, ActionDeleted, id)
	return nil
}
