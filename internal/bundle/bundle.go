// Package bundle reads and writes YAML record bundles: files holding
// projects, notes and snippets that are imported into the store.
package bundle

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"gopkg.in/yaml.v3"

	"github.com/starford/devflow/internal/activity"
	"github.com/starford/devflow/internal/models"
)

// document is the on-disk layout of a bundle.
type document struct {
	Projects []projectDoc `yaml:"projects,omitempty"`
	Notes    []noteDoc    `yaml:"notes,omitempty"`
	Snippets []snippetDoc `yaml:"snippets,omitempty"`
}

type projectDoc struct {
	ID          string               `yaml:"id"`
	Title       string               `yaml:"title"`
	Description string               `yaml:"description,omitempty"`
	TechStack   []string             `yaml:"techStack,omitempty"`
	Status      string               `yaml:"status,omitempty"`
	StartDate   string               `yaml:"startDate,omitempty"`
	Links       []models.ProjectLink `yaml:"links,omitempty"`
	Progress    int                  `yaml:"progress,omitempty"`
	CreatedAt   string               `yaml:"createdAt,omitempty"`
	UpdatedAt   string               `yaml:"updatedAt,omitempty"`
}

func (d projectDoc) Validate() error {
	return validation.ValidateStruct(&d,
		validation.Field(&d.ID, validation.Required),
		validation.Field(&d.Title, validation.Required),
		validation.Field(&d.Status, validation.In(statuses()...)),
		validation.Field(&d.Progress, validation.Min(0), validation.Max(100)),
	)
}

type noteDoc struct {
	ID        string   `yaml:"id"`
	Title     string   `yaml:"title,omitempty"`
	Content   string   `yaml:"content,omitempty"`
	Tags      []string `yaml:"tags,omitempty"`
	ProjectID string   `yaml:"projectId,omitempty"`
	CreatedAt string   `yaml:"createdAt,omitempty"`
	UpdatedAt string   `yaml:"updatedAt,omitempty"`
}

func (d noteDoc) Validate() error {
	return validation.ValidateStruct(&d,
		validation.Field(&d.ID, validation.Required),
	)
}

type snippetDoc struct {
	ID        string   `yaml:"id"`
	Title     string   `yaml:"title,omitempty"`
	Language  string   `yaml:"language"`
	Code      string   `yaml:"code,omitempty"`
	Tags      []string `yaml:"tags,omitempty"`
	Favorite  bool     `yaml:"favorite,omitempty"`
	CreatedAt string   `yaml:"createdAt,omitempty"`
	UpdatedAt string   `yaml:"updatedAt,omitempty"`
}

func (d snippetDoc) Validate() error {
	return validation.ValidateStruct(&d,
		validation.Field(&d.ID, validation.Required),
		validation.Field(&d.Language, validation.Required),
	)
}

func statuses() []any {
	out := make([]any, len(models.ProjectStatuses))
	for i, s := range models.ProjectStatuses {
		out[i] = s
	}
	return out
}

// Records is the decoded content of one bundle.
type Records struct {
	Projects []models.Project
	Notes    []models.Note
	Snippets []models.Snippet
}

// IDs returns the ID of every record in the bundle.
func (r *Records) IDs() []string {
	ids := make([]string, 0, len(r.Projects)+len(r.Notes)+len(r.Snippets))
	for _, p := range r.Projects {
		ids = append(ids, p.ID)
	}
	for _, n := range r.Notes {
		ids = append(ids, n.ID)
	}
	for _, s := range r.Snippets {
		ids = append(ids, s.ID)
	}
	return ids
}

// Len returns the number of records in the bundle.
func (r *Records) Len() int {
	return len(r.Projects) + len(r.Notes) + len(r.Snippets)
}

// Parse decodes and validates a bundle. Every record gets source as its
// Source. Malformed timestamps are treated as missing.
func Parse(source string, data []byte) (*Records, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("bundle: %s: %w", source, err)
	}

	seen := make(map[string]struct{})
	checkID := func(kind string, i int, id string) error {
		if _, dup := seen[id]; dup {
			return fmt.Errorf("bundle: %s: %s %d: duplicate id %q", source, kind, i, id)
		}
		seen[id] = struct{}{}
		return nil
	}

	out := &Records{
		Projects: make([]models.Project, 0, len(doc.Projects)),
		Notes:    make([]models.Note, 0, len(doc.Notes)),
		Snippets: make([]models.Snippet, 0, len(doc.Snippets)),
	}

	for i, d := range doc.Projects {
		d.ID, d.Title, d.Status = strings.TrimSpace(d.ID), strings.TrimSpace(d.Title), strings.TrimSpace(d.Status)
		if err := d.Validate(); err != nil {
			return nil, fmt.Errorf("bundle: %s: project %d: %w", source, i, err)
		}
		if err := checkID(models.KindProject, i, d.ID); err != nil {
			return nil, err
		}
		if d.Status == "" {
			d.Status = models.StatusPlanning
		}
		links := d.Links
		if links == nil {
			links = []models.ProjectLink{}
		}
		out.Projects = append(out.Projects, models.Project{
			ID:          d.ID,
			Title:       d.Title,
			Description: d.Description,
			TechStack:   labels(d.TechStack),
			Status:      d.Status,
			StartDate:   d.StartDate,
			Links:       links,
			Progress:    d.Progress,
			Source:      source,
			CreatedAt:   timestamp(d.CreatedAt),
			UpdatedAt:   timestamp(d.UpdatedAt),
		})
	}

	for i, d := range doc.Notes {
		d.ID = strings.TrimSpace(d.ID)
		if err := d.Validate(); err != nil {
			return nil, fmt.Errorf("bundle: %s: note %d: %w", source, i, err)
		}
		if err := checkID(models.KindNote, i, d.ID); err != nil {
			return nil, err
		}
		out.Notes = append(out.Notes, models.Note{
			ID:        d.ID,
			Title:     strings.TrimSpace(d.Title),
			Content:   d.Content,
			Tags:      labels(d.Tags),
			ProjectID: d.ProjectID,
			Source:    source,
			CreatedAt: timestamp(d.CreatedAt),
			UpdatedAt: timestamp(d.UpdatedAt),
		})
	}

	for i, d := range doc.Snippets {
		d.ID, d.Language = strings.TrimSpace(d.ID), strings.TrimSpace(d.Language)
		if err := d.Validate(); err != nil {
			return nil, fmt.Errorf("bundle: %s: snippet %d: %w", source, i, err)
		}
		if err := checkID(models.KindSnippet, i, d.ID); err != nil {
			return nil, err
		}
		out.Snippets = append(out.Snippets, models.Snippet{
			ID:        d.ID,
			Title:     strings.TrimSpace(d.Title),
			Language:  d.Language,
			Code:      d.Code,
			Tags:      labels(d.Tags),
			Favorite:  d.Favorite,
			Source:    source,
			CreatedAt: timestamp(d.CreatedAt),
			UpdatedAt: timestamp(d.UpdatedAt),
		})
	}

	return out, nil
}

// Encode renders records as a bundle document.
func Encode(r *Records) ([]byte, error) {
	var doc document
	for _, p := range r.Projects {
		doc.Projects = append(doc.Projects, projectDoc{
			ID:          p.ID,
			Title:       p.Title,
			Description: p.Description,
			TechStack:   p.TechStack,
			Status:      p.Status,
			StartDate:   p.StartDate,
			Links:       p.Links,
			Progress:    p.Progress,
			CreatedAt:   formatTimestamp(p.CreatedAt),
			UpdatedAt:   formatTimestamp(p.UpdatedAt),
		})
	}
	for _, n := range r.Notes {
		doc.Notes = append(doc.Notes, noteDoc{
			ID:        n.ID,
			Title:     n.Title,
			Content:   n.Content,
			Tags:      n.Tags,
			ProjectID: n.ProjectID,
			CreatedAt: formatTimestamp(n.CreatedAt),
			UpdatedAt: formatTimestamp(n.UpdatedAt),
		})
	}
	for _, s := range r.Snippets {
		doc.Snippets = append(doc.Snippets, snippetDoc{
			ID:        s.ID,
			Title:     s.Title,
			Language:  s.Language,
			Code:      s.Code,
			Tags:      s.Tags,
			Favorite:  s.Favorite,
			CreatedAt: formatTimestamp(s.CreatedAt),
			UpdatedAt: formatTimestamp(s.UpdatedAt),
		})
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return nil, fmt.Errorf("bundle: encode: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("bundle: encode: %w", err)
	}
	return buf.Bytes(), nil
}

func timestamp(s string) time.Time {
	t, _ := activity.ParseTimestamp(s)
	return t
}

func formatTimestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func labels(in []string) []string {
	out := make([]string, 0, len(in))
	for _, l := range in {
		if l = strings.TrimSpace(l); l != "" {
			out = append(out, l)
		}
	}
	return out
}
