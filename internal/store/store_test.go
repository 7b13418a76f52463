package store

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/starford/devflow/internal/apperr"
	"github.com/starford/devflow/internal/models"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	f, err := os.CreateTemp("", "devflow-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	f.Close()
	t.Cleanup(func() { os.Remove(f.Name()) })

	db, err := Open(f.Name())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestSchemaCreation(t *testing.T) {
	db := testDB(t)
	for _, table := range []string{"projects", "notes", "snippets", "digests", "imports"} {
		var count int
		if err := db.conn.QueryRow(`SELECT count(*) FROM ` + table).Scan(&count); err != nil {
			t.Fatalf("%s table missing: %v", table, err)
		}
	}
}

func TestProjectRoundTrip(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	created := time.Date(2024, 1, 2, 10, 30, 0, 123, time.UTC)
	p := models.Project{
		ID:        "p1",
		Title:     "DevFlow",
		TechStack: []string{"Go", "React"},
		Status:    models.StatusInProgress,
		Links:     []models.ProjectLink{{Label: "repo", URL: "https://example.com"}},
		Progress:  40,
		CreatedAt: created,
		UpdatedAt: created.Add(time.Hour),
	}
	if err := db.UpsertProject(ctx, p); err != nil {
		t.Fatalf("UpsertProject: %v", err)
	}
	got, err := db.GetProject(ctx, "p1")
	if err != nil {
		t.Fatalf("GetProject: %v", err)
	}
	if got.Title != "DevFlow" || got.Progress != 40 || len(got.TechStack) != 2 || got.TechStack[1] != "React" {
		t.Errorf("project = %+v", got)
	}
	if len(got.Links) != 1 || got.Links[0].URL != "https://example.com" {
		t.Errorf("links = %+v", got.Links)
	}
	if !got.CreatedAt.Equal(created) {
		t.Errorf("CreatedAt = %v, want %v", got.CreatedAt, created)
	}

	p.Title = "DevFlow 2"
	if err := db.UpsertProject(ctx, p); err != nil {
		t.Fatal(err)
	}
	list, err := db.ListProjects(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 || list[0].Title != "DevFlow 2" {
		t.Errorf("list = %+v", list)
	}
}

func TestZeroTimestampsStayZero(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	if err := db.UpsertNote(ctx, models.Note{ID: "n1", Title: "no dates"}); err != nil {
		t.Fatal(err)
	}
	n, err := db.GetNote(ctx, "n1")
	if err != nil {
		t.Fatal(err)
	}
	if !n.CreatedAt.IsZero() || !n.UpdatedAt.IsZero() {
		t.Errorf("timestamps = %v / %v, want zero", n.CreatedAt, n.UpdatedAt)
	}
	if n.Tags == nil {
		t.Error("tags must be non-nil")
	}
}

func TestSnippetFavorite(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	if err := db.UpsertSnippet(ctx, models.Snippet{ID: "s1", Language: "go", Favorite: true}); err != nil {
		t.Fatal(err)
	}
	s, err := db.GetSnippet(ctx, "s1")
	if err != nil {
		t.Fatal(err)
	}
	if !s.Favorite || s.Language != "go" {
		t.Errorf("snippet = %+v", s)
	}
}

func TestDeleteMissing(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	if err := db.DeleteProject(ctx, "nope"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("DeleteProject = %v", err)
	}
	if _, err := db.GetSnippet(ctx, "nope"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("GetSnippet = %v", err)
	}
}

func TestPruneSource(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	_ = db.UpsertProject(ctx, models.Project{ID: "p1", Source: "a.yaml"})
	_ = db.UpsertProject(ctx, models.Project{ID: "p2", Source: "a.yaml"})
	_ = db.UpsertNote(ctx, models.Note{ID: "n1", Source: "a.yaml"})
	_ = db.UpsertNote(ctx, models.Note{ID: "n2", Source: ""})

	removed, err := db.PruneSource(ctx, "a.yaml", []string{"p1"})
	if err != nil {
		t.Fatalf("PruneSource: %v", err)
	}
	if removed != 2 {
		t.Errorf("removed = %d, want 2", removed)
	}
	if _, err := db.GetProject(ctx, "p1"); err != nil {
		t.Errorf("p1 should survive: %v", err)
	}
	if _, err := db.GetNote(ctx, "n2"); err != nil {
		t.Errorf("API-created note should survive: %v", err)
	}
}

func TestImportChecksums(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	_ = db.SetImportChecksum(ctx, "a.yaml", "1")
	_ = db.SetImportChecksum(ctx, "a.yaml", "2")
	_ = db.UpsertSnippet(ctx, models.Snippet{ID: "s1", Source: "a.yaml"})

	cs, err := db.ImportChecksums(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if cs["a.yaml"] != "2" {
		t.Errorf("checksum = %q", cs["a.yaml"])
	}

	removed, err := db.ForgetImport(ctx, "a.yaml")
	if err != nil {
		t.Fatal(err)
	}
	if removed != 1 {
		t.Errorf("removed = %d", removed)
	}
	cs, _ = db.ImportChecksums(ctx)
	if _, ok := cs["a.yaml"]; ok {
		t.Error("import row should be gone")
	}
}

func TestDigestOverwrite(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	if _, err := db.GetDigest(ctx, "u1"); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("GetDigest before save = %v", err)
	}
	first := models.Digest{UserID: "u1", WeekLabel: "w1", Summary: "one", GeneratedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	second := models.Digest{UserID: "u1", WeekLabel: "w2", Summary: "two", GeneratedAt: time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC)}
	if err := db.SaveDigest(ctx, first); err != nil {
		t.Fatal(err)
	}
	if err := db.SaveDigest(ctx, second); err != nil {
		t.Fatal(err)
	}
	got, err := db.GetDigest(ctx, "u1")
	if err != nil {
		t.Fatal(err)
	}
	if got.WeekLabel != "w2" || got.Summary != "two" || !got.GeneratedAt.Equal(second.GeneratedAt) {
		t.Errorf("digest = %+v", got)
	}
	var rows int
	_ = db.conn.QueryRow(`SELECT count(*) FROM digests`).Scan(&rows)
	if rows != 1 {
		t.Errorf("digest rows = %d, want 1", rows)
	}
}
