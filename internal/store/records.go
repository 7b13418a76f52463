package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/starford/devflow/internal/activity"
	"github.com/starford/devflow/internal/apperr"
	"github.com/starford/devflow/internal/models"
)

// RecordStore defines the record persistence operations.
// Consumers should depend on this interface rather than the concrete *DB type
// to facilitate testing with fakes.
type RecordStore interface {
	UpsertProject(ctx context.Context, p models.Project) error
	GetProject(ctx context.Context, id string) (*models.Project, error)
	DeleteProject(ctx context.Context, id string) error
	ListProjects(ctx context.Context) ([]models.Project, error)

	UpsertNote(ctx context.Context, n models.Note) error
	GetNote(ctx context.Context, id string) (*models.Note, error)
	DeleteNote(ctx context.Context, id string) error
	ListNotes(ctx context.Context) ([]models.Note, error)

	UpsertSnippet(ctx context.Context, s models.Snippet) error
	GetSnippet(ctx context.Context, id string) (*models.Snippet, error)
	DeleteSnippet(ctx context.Context, id string) error
	ListSnippets(ctx context.Context) ([]models.Snippet, error)
}

// Verify *DB satisfies RecordStore at compile time.
var _ RecordStore = (*DB)(nil)

type scanner interface {
	Scan(dest ...any) error
}

// formatTime stores timestamps as RFC 3339 text in UTC; the zero time is "".
func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

// parseTime reads a stored timestamp. Malformed values become the zero time.
func parseTime(s string) time.Time {
	t, _ := activity.ParseTimestamp(s)
	return t
}

func marshalJSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return "[]"
	}
	return string(b)
}

func unmarshalStrings(s string) []string {
	out := []string{}
	_ = json.Unmarshal([]byte(s), &out)
	if out == nil {
		out = []string{}
	}
	return out
}

func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return apperr.ErrNotFound
	}
	return err
}

func deleteByID(ctx context.Context, conn *sql.DB, table, id string) error {
	res, err := conn.ExecContext(ctx, `DELETE FROM `+table+` WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("store: delete %s: %w", table, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

// --- projects ---

const projectColumns = `id, title, description, tech_stack, status, start_date, links, progress, source, created_at, updated_at`

// UpsertProject inserts or replaces a project.
func (db *DB) UpsertProject(ctx context.Context, p models.Project) error {
	_, err := db.conn.ExecContext(ctx, `
		INSERT INTO projects (`+projectColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title       = excluded.title,
			description = excluded.description,
			tech_stack  = excluded.tech_stack,
			status      = excluded.status,
			start_date  = excluded.start_date,
			links       = excluded.links,
			progress    = excluded.progress,
			source      = excluded.source,
			created_at  = excluded.created_at,
			updated_at  = excluded.updated_at
	`, p.ID, p.Title, p.Description, marshalJSON(p.TechStack), p.Status, p.StartDate,
		marshalJSON(p.Links), p.Progress, p.Source, formatTime(p.CreatedAt), formatTime(p.UpdatedAt))
	if err != nil {
		return fmt.Errorf("store: upsert project: %w", err)
	}
	return nil
}

func scanProject(row scanner) (models.Project, error) {
	var (
		p                    models.Project
		tech, links          string
		createdAt, updatedAt string
	)
	if err := row.Scan(&p.ID, &p.Title, &p.Description, &tech, &p.Status, &p.StartDate,
		&links, &p.Progress, &p.Source, &createdAt, &updatedAt); err != nil {
		return p, err
	}
	p.TechStack = unmarshalStrings(tech)
	p.Links = []models.ProjectLink{}
	_ = json.Unmarshal([]byte(links), &p.Links)
	p.CreatedAt = parseTime(createdAt)
	p.UpdatedAt = parseTime(updatedAt)
	return p, nil
}

// GetProject returns one project or apperr.ErrNotFound.
func (db *DB) GetProject(ctx context.Context, id string) (*models.Project, error) {
	p, err := scanProject(db.conn.QueryRowContext(ctx, `SELECT `+projectColumns+` FROM projects WHERE id = ?`, id))
	if err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}

// DeleteProject removes a project or returns apperr.ErrNotFound.
func (db *DB) DeleteProject(ctx context.Context, id string) error {
	return deleteByID(ctx, db.conn, "projects", id)
}

// ListProjects returns all projects, most recently updated first.
func (db *DB) ListProjects(ctx context.Context) ([]models.Project, error) {
	rows, err := db.conn.QueryContext(ctx, `SELECT `+projectColumns+` FROM projects ORDER BY updated_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("store: list projects: %w", err)
	}
	defer rows.Close()
	out := []models.Project{}
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// --- notes ---

const noteColumns = `id, title, content, tags, project_id, source, created_at, updated_at`

// UpsertNote inserts or replaces a note.
func (db *DB) UpsertNote(ctx context.Context, n models.Note) error {
	_, err := db.conn.ExecContext(ctx, `
		INSERT INTO notes (`+noteColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title      = excluded.title,
			content    = excluded.content,
			tags       = excluded.tags,
			project_id = excluded.project_id,
			source     = excluded.source,
			created_at = excluded.created_at,
			updated_at = excluded.updated_at
	`, n.ID, n.Title, n.Content, marshalJSON(n.Tags), n.ProjectID, n.Source,
		formatTime(n.CreatedAt), formatTime(n.UpdatedAt))
	if err != nil {
		return fmt.Errorf("store: upsert note: %w", err)
	}
	return nil
}

func scanNote(row scanner) (models.Note, error) {
	var (
		n                    models.Note
		tags                 string
		createdAt, updatedAt string
	)
	if err := row.Scan(&n.ID, &n.Title, &n.Content, &tags, &n.ProjectID, &n.Source, &createdAt, &updatedAt); err != nil {
		return n, err
	}
	n.Tags = unmarshalStrings(tags)
	n.CreatedAt = parseTime(createdAt)
	n.UpdatedAt = parseTime(updatedAt)
	return n, nil
}

// GetNote returns one note or apperr.ErrNotFound.
func (db *DB) GetNote(ctx context.Context, id string) (*models.Note, error) {
	n, err := scanNote(db.conn.QueryRowContext(ctx, `SELECT `+noteColumns+` FROM notes WHERE id = ?`, id))
	if err != nil {
		return nil, notFound(err)
	}
	return &n, nil
}

// DeleteNote removes a note or returns apperr.ErrNotFound.
func (db *DB) DeleteNote(ctx context.Context, id string) error {
	return deleteByID(ctx, db.conn, "notes", id)
}

// ListNotes returns all notes, most recently updated first.
func (db *DB) ListNotes(ctx context.Context) ([]models.Note, error) {
	rows, err := db.conn.QueryContext(ctx, `SELECT `+noteColumns+` FROM notes ORDER BY updated_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("store: list notes: %w", err)
	}
	defer rows.Close()
	out := []models.Note{}
	for rows.Next() {
		n, err := scanNote(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

// --- snippets ---

const snippetColumns = `id, title, language, code, tags, favorite, source, created_at, updated_at`

// UpsertSnippet inserts or replaces a snippet.
func (db *DB) UpsertSnippet(ctx context.Context, s models.Snippet) error {
	_, err := db.conn.ExecContext(ctx, `
		INSERT INTO snippets (`+snippetColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title      = excluded.title,
			language   = excluded.language,
			code       = excluded.code,
			tags       = excluded.tags,
			favorite   = excluded.favorite,
			source     = excluded.source,
			created_at = excluded.created_at,
			updated_at = excluded.updated_at
	`, s.ID, s.Title, s.Language, s.Code, marshalJSON(s.Tags), s.Favorite, s.Source,
		formatTime(s.CreatedAt), formatTime(s.UpdatedAt))
	if err != nil {
		return fmt.Errorf("store: upsert snippet: %w", err)
	}
	return nil
}

func scanSnippet(row scanner) (models.Snippet, error) {
	var (
		s                    models.Snippet
		tags                 string
		createdAt, updatedAt string
	)
	if err := row.Scan(&s.ID, &s.Title, &s.Language, &s.Code, &tags, &s.Favorite, &s.Source, &createdAt, &updatedAt); err != nil {
		return s, err
	}
	s.Tags = unmarshalStrings(tags)
	s.CreatedAt = parseTime(createdAt)
	s.UpdatedAt = parseTime(updatedAt)
	return s, nil
}

// GetSnippet returns one snippet or apperr.ErrNotFound.
func (db *DB) GetSnippet(ctx context.Context, id string) (*models.Snippet, error) {
	s, err := scanSnippet(db.conn.QueryRowContext(ctx, `SELECT `+snippetColumns+` FROM snippets WHERE id = ?`, id))
	if err != nil {
		return nil, notFound(err)
	}
	return &s, nil
}

// DeleteSnippet removes a snippet or returns apperr.ErrNotFound.
func (db *DB) DeleteSnippet(ctx context.Context, id string) error {
	return deleteByID(ctx, db.conn, "snippets", id)
}

// ListSnippets returns all snippets, most recently updated first.
func (db *DB) ListSnippets(ctx context.Context) ([]models.Snippet, error) {
	rows, err := db.conn.QueryContext(ctx, `SELECT `+snippetColumns+` FROM snippets ORDER BY updated_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("store: list snippets: %w", err)
	}
	defer rows.Close()
	out := []models.Snippet{}
	for rows.Next() {
		s, err := scanSnippet(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// --- import bookkeeping ---

// PruneSource deletes every record imported from source whose ID is not in
// keep, across all kinds. It returns the number of removed records.
func (db *DB) PruneSource(ctx context.Context, source string, keep []string) (int, error) {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("store: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	query := `DELETE FROM %s WHERE source = ?`
	args := []any{source}
	if len(keep) > 0 {
		query += ` AND id NOT IN (?` + strings.Repeat(`, ?`, len(keep)-1) + `)`
		for _, id := range keep {
			args = append(args, id)
		}
	}

	removed := 0
	for _, table := range []string{"projects", "notes", "snippets"} {
		res, err := tx.ExecContext(ctx, fmt.Sprintf(query, table), args...)
		if err != nil {
			return 0, fmt.Errorf("store: prune %s: %w", table, err)
		}
		n, _ := res.RowsAffected()
		removed += int(n)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("store: commit prune: %w", err)
	}
	return removed, nil
}

// ImportChecksums returns the checksum recorded for every imported file.
func (db *DB) ImportChecksums(ctx context.Context) (map[string]string, error) {
	rows, err := db.conn.QueryContext(ctx, `SELECT path, checksum FROM imports`)
	if err != nil {
		return nil, fmt.Errorf("store: import checksums: %w", err)
	}
	defer rows.Close()
	out := make(map[string]string)
	for rows.Next() {
		var p, cs string
		if err := rows.Scan(&p, &cs); err != nil {
			return nil, err
		}
		out[p] = cs
	}
	return out, rows.Err()
}

// SetImportChecksum records that path was imported with checksum cs.
func (db *DB) SetImportChecksum(ctx context.Context, path, cs string) error {
	_, err := db.conn.ExecContext(ctx, `
		INSERT INTO imports (path, checksum) VALUES (?, ?)
		ON CONFLICT(path) DO UPDATE SET checksum = excluded.checksum
	`, path, cs)
	if err != nil {
		return fmt.Errorf("store: set import checksum: %w", err)
	}
	return nil
}

// ForgetImport removes the bookkeeping row and every record of path.
func (db *DB) ForgetImport(ctx context.Context, path string) (int, error) {
	removed, err := db.PruneSource(ctx, path, nil)
	if err != nil {
		return 0, err
	}
	if _, err := db.conn.ExecContext(ctx, `DELETE FROM imports WHERE path = ?`, path); err != nil {
		return removed, fmt.Errorf("store: forget import: %w", err)
	}
	return removed, nil
}
