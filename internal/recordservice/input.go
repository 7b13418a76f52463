package recordservice

import (
	"fmt"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/devflow/internal/apperr"
	"github.com/starford/devflow/internal/models"
)

const maxTitleLen = 200

// ProjectInput is the writable part of a project.
type ProjectInput struct {
	Title       string               `json:"title"`
	Description string               `json:"description"`
	TechStack   []string             `json:"tech_stack"`
	Status      string               `json:"status"`
	StartDate   string               `json:"start_date"`
	Links       []models.ProjectLink `json:"links"`
	Progress    int                  `json:"progress"`
}

// Validate checks the input after normalization.
func (in *ProjectInput) Validate() error {
	return validation.ValidateStruct(in,
		validation.Field(&in.Title, validation.Required, validation.RuneLength(1, maxTitleLen)),
		validation.Field(&in.Status, validation.Required, validation.In(toAny(models.ProjectStatuses)...)),
		validation.Field(&in.Progress, validation.Min(0), validation.Max(100)),
		validation.Field(&in.Links, validation.Each(validation.By(validLink))),
	)
}

func (in *ProjectInput) normalize() {
	in.Title = strings.TrimSpace(in.Title)
	in.Status = strings.TrimSpace(in.Status)
	if in.Status == "" {
		in.Status = models.StatusPlanning
	}
	in.TechStack = cleanLabels(in.TechStack)
	if in.Links == nil {
		in.Links = []models.ProjectLink{}
	}
}

func validLink(v any) error {
	l, _ := v.(models.ProjectLink)
	if strings.TrimSpace(l.URL) == "" {
		return fmt.Errorf("url is required")
	}
	return nil
}

// NoteInput is the writable part of a note.
type NoteInput struct {
	Title     string   `json:"title"`
	Content   string   `json:"content"`
	Tags      []string `json:"tags"`
	ProjectID string   `json:"project_id"`
}

// Validate checks the input after normalization.
func (in *NoteInput) Validate() error {
	return validation.ValidateStruct(in,
		validation.Field(&in.Title, validation.RuneLength(0, maxTitleLen)),
	)
}

func (in *NoteInput) normalize() {
	in.Title = strings.TrimSpace(in.Title)
	in.ProjectID = strings.TrimSpace(in.ProjectID)
	in.Tags = cleanLabels(in.Tags)
}

// SnippetInput is the writable part of a snippet.
type SnippetInput struct {
	Title    string   `json:"title"`
	Language string   `json:"language"`
	Code     string   `json:"code"`
	Tags     []string `json:"tags"`
	Favorite bool     `json:"favorite"`
}

// Validate checks the input after normalization.
func (in *SnippetInput) Validate() error {
	return validation.ValidateStruct(in,
		validation.Field(&in.Title, validation.RuneLength(0, maxTitleLen)),
		validation.Field(&in.Language, validation.Required),
	)
}

func (in *SnippetInput) normalize() {
	in.Title = strings.TrimSpace(in.Title)
	in.Language = strings.TrimSpace(in.Language)
	in.Tags = cleanLabels(in.Tags)
}

type input interface {
	normalize()
	Validate() error
}

// prepare normalizes and validates in, mapping failures to ErrInvalidInput.
func prepare(in input) error {
	in.normalize()
	if err := in.Validate(); err != nil {
		return fmt.Errorf("%w: %v", apperr.ErrInvalidInput, err)
	}
	return nil
}

// cleanLabels trims labels and drops empty ones. The result is never nil.
func cleanLabels(labels []string) []string {
	out := make([]string, 0, len(labels))
	for _, l := range labels {
		if l = strings.TrimSpace(l); l != "" {
			out = append(out, l)
		}
	}
	return out
}

func toAny(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}
