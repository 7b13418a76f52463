package api

import (
	"time"

	"github.com/starford/devflow/internal/activity"
	"github.com/starford/devflow/internal/models"
)

// ProjectListResponse wraps project listings.
type ProjectListResponse struct {
	Projects []models.Project `json:"projects"`
	Total    int              `json:"total" example:"3"`
}

// NoteListResponse wraps note listings.
type NoteListResponse struct {
	Notes []models.Note `json:"notes"`
	Total int           `json:"total" example:"12"`
}

// SnippetListResponse wraps snippet listings.
type SnippetListResponse struct {
	Snippets []models.Snippet `json:"snippets"`
	Total    int              `json:"total" example:"7"`
}

// TimelineResponse wraps the trailing activity timeline.
type TimelineResponse struct {
	Days     int                      `json:"days" example:"30"`
	Timeline []activity.TimelineEntry `json:"timeline"`
}

// TechStackResponse wraps the label ranking.
type TechStackResponse struct {
	TechStack []activity.LabelCount `json:"tech_stack"`
}

// BundleListResponse lists bundle files under the import root.
type BundleListResponse struct {
	Bundles []BundleItem `json:"bundles"`
}

// BundleItem is one bundle file.
type BundleItem struct {
	Path      string    `json:"path" example:"2024/january.yaml"`
	Checksum  string    `json:"checksum"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BundleUploadResponse is returned after a bundle was stored and imported.
type BundleUploadResponse struct {
	Path    string `json:"path" example:"week.yaml"`
	Size    int    `json:"size" example:"512"`
	Records int    `json:"records" example:"9"`
}
