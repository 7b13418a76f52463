package bundle

import (
	"strings"
	"testing"
	"time"

	"github.com/starford/devflow/internal/models"
)

const sample = `
projects:
  - id: p1
    title: "  DevFlow  "
    techStack: [Go, " React ", ""]
    status: in-progress
    progress: 40
    links:
      - label: repo
        url: https://example.com/devflow
    createdAt: 2024-01-02T10:00:00Z
    updatedAt: "not a date"
notes:
  - id: n1
    title: Standup
    tags: [daily]
    projectId: p1
    createdAt: "2024-01-03 09:30:00"
snippets:
  - id: s1
    title: retry loop
    language: go
    code: "for {}"
    favorite: true
    createdAt: 2024-01-04
`

func TestParse(t *testing.T) {
	recs, err := Parse("week/jan.yaml", []byte(sample))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(recs.Projects) != 1 || len(recs.Notes) != 1 || len(recs.Snippets) != 1 {
		t.Fatalf("records = %+v", recs)
	}

	p := recs.Projects[0]
	if p.Title != "DevFlow" || p.Status != models.StatusInProgress || p.Progress != 40 {
		t.Errorf("project = %+v", p)
	}
	if strings.Join(p.TechStack, ",") != "Go,React" {
		t.Errorf("techStack = %v", p.TechStack)
	}
	if p.Source != "week/jan.yaml" {
		t.Errorf("source = %q", p.Source)
	}
	if !p.CreatedAt.Equal(time.Date(2024, 1, 2, 10, 0, 0, 0, time.UTC)) {
		t.Errorf("createdAt = %v", p.CreatedAt)
	}
	if !p.UpdatedAt.IsZero() {
		t.Errorf("malformed updatedAt should be zero, got %v", p.UpdatedAt)
	}
	if len(p.Links) != 1 || p.Links[0].URL != "https://example.com/devflow" {
		t.Errorf("links = %+v", p.Links)
	}

	n := recs.Notes[0]
	if n.ProjectID != "p1" || n.CreatedAt.IsZero() {
		t.Errorf("note = %+v", n)
	}
	s := recs.Snippets[0]
	if !s.Favorite || s.Language != "go" || s.CreatedAt.Day() != 4 {
		t.Errorf("snippet = %+v", s)
	}

	if got := strings.Join(recs.IDs(), ","); got != "p1,n1,s1" {
		t.Errorf("IDs = %s", got)
	}
}

func TestParse_DefaultStatus(t *testing.T) {
	recs, err := Parse("a.yaml", []byte("projects:\n  - id: p1\n    title: X\n"))
	if err != nil {
		t.Fatal(err)
	}
	if recs.Projects[0].Status != models.StatusPlanning {
		t.Errorf("status = %q", recs.Projects[0].Status)
	}
}

func TestParse_Rejects(t *testing.T) {
	cases := map[string]string{
		"missing id":       "notes:\n  - title: x\n",
		"missing title":    "projects:\n  - id: p1\n",
		"bad status":       "projects:\n  - id: p1\n    title: X\n    status: dreaming\n",
		"progress":         "projects:\n  - id: p1\n    title: X\n    progress: 140\n",
		"no language":      "snippets:\n  - id: s1\n",
		"duplicate id":     "notes:\n  - id: a\nsnippets:\n  - id: a\n    language: go\n",
		"not yaml mapping": "- just\n- a list\n",
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse("bad.yaml", []byte(doc))
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), "bad.yaml") {
				t.Errorf("error should name the file: %v", err)
			}
		})
	}
}

func TestEncodeParse(t *testing.T) {
	created := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	in := &Records{
		Projects: []models.Project{{ID: "p1", Title: "T", Status: models.StatusCompleted, Progress: 100, TechStack: []string{"Go"}, CreatedAt: created}},
		Notes:    []models.Note{{ID: "n1", Title: "N", Tags: []string{"x"}}},
		Snippets: []models.Snippet{{ID: "s1", Language: "sql", Code: "select 1"}},
	}
	data, err := Encode(in)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	for _, key := range []string{"techStack:", "createdAt:", "projects:", "snippets:"} {
		if !strings.Contains(string(data), key) {
			t.Errorf("encoded bundle lacks %q:\n%s", key, data)
		}
	}
	if strings.Contains(string(data), "updatedAt") {
		t.Errorf("zero timestamps should be omitted:\n%s", data)
	}

	out, err := Parse("export.yaml", data)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if out.Len() != 3 || !out.Projects[0].CreatedAt.Equal(created) || out.Snippets[0].Code != "select 1" {
		t.Errorf("decoded = %+v", out)
	}
}
