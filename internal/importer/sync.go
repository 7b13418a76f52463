// Package importer keeps the store in step with the YAML bundles under the
// import root. Every record imported from a bundle carries the bundle path as
// its source, so removing a file or an entry removes the matching records.
package importer

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/starford/devflow/internal/bundle"
	"github.com/starford/devflow/internal/storage"
	"github.com/starford/devflow/internal/store"
)

// Change actions reported to a ChangeFunc.
const (
	ActionCreated = "created"
	ActionUpdated = "updated"
	ActionDeleted = "deleted"
)

// ChangeFunc is called after an import mutated the store.
type ChangeFunc func(action, path string)

// Store is the persistence the importer needs. *store.DB satisfies it.
type Store interface {
	store.RecordStore
	PruneSource(ctx context.Context, source string, keep []string) (int, error)
	ImportChecksums(ctx context.Context) (map[string]string, error)
	SetImportChecksum(ctx context.Context, path, cs string) error
	ForgetImport(ctx context.Context, path string) (int, error)
}

var _ Store = (*store.DB)(nil)

// Sync walks the import root and brings the store up to date:
//   - new/changed bundles are parsed and upserted
//   - bundles removed from disk have their records deleted
func Sync(ctx context.Context, db Store, files storage.Provider, logger *slog.Logger, cb ChangeFunc) error {
	metas, err := files.List("")
	if err != nil {
		return err
	}

	checksums, err := db.ImportChecksums(ctx)
	if err != nil {
		return err
	}

	disk := make(map[string]struct{}, len(metas))
	for _, m := range metas {
		disk[m.Path] = struct{}{}

		prev, known := checksums[m.Path]
		if prev == m.Checksum {
			continue
		}

		data, err := files.Read(m.Path)
		if err != nil {
			logger.Warn("sync: read failed", slog.String("path", m.Path), slog.String("error", err.Error()))
			continue
		}
		n, err := importFile(ctx, db, m.Path, data)
		if err != nil {
			logger.Warn("sync: import failed", slog.String("path", m.Path), slog.String("error", err.Error()))
			continue
		}
		logger.Debug("sync: imported", slog.String("path", m.Path), slog.Int("records", n))
		notify(cb, actionFor(known), m.Path)
	}

	for p := range checksums {
		if _, ok := disk[p]; ok {
			continue
		}
		if err := forget(ctx, db, p, logger); err != nil {
			logger.Warn("sync: remove failed", slog.String("path", p), slog.String("error", err.Error()))
			continue
		}
		notify(cb, ActionDeleted, p)
	}

	return nil
}

// importFile parses data and replaces every record sourced from path with
// its content. The checksum is recorded only after all writes succeed.
func importFile(ctx context.Context, db Store, path string, data []byte) (int, error) {
	recs, err := bundle.Parse(path, data)
	if err != nil {
		return 0, err
	}

	for _, p := range recs.Projects {
		if err := db.UpsertProject(ctx, p); err != nil {
			return 0, err
		}
	}
	for _, n := range recs.Notes {
		if err := db.UpsertNote(ctx, n); err != nil {
			return 0, err
		}
	}
	for _, s := range recs.Snippets {
		if err := db.UpsertSnippet(ctx, s); err != nil {
			return 0, err
		}
	}

	if _, err := db.PruneSource(ctx, path, recs.IDs()); err != nil {
		return 0, err
	}
	if err := db.SetImportChecksum(ctx, path, storage.Checksum(data)); err != nil {
		return 0, err
	}
	return recs.Len(), nil
}

// importIfChanged imports path unless its checksum matches the recorded one.
// It reports whether anything was imported and whether path was known.
func importIfChanged(ctx context.Context, db Store, files storage.Provider, path string) (imported, known bool, err error) {
	data, err := files.Read(path)
	if err != nil {
		return false, false, err
	}
	checksums, err := db.ImportChecksums(ctx)
	if err != nil {
		return false, false, err
	}
	prev, known := checksums[path]
	if prev == storage.Checksum(data) {
		return false, known, nil
	}
	if _, err := importFile(ctx, db, path, data); err != nil {
		return false, known, err
	}
	return true, known, nil
}

func forget(ctx context.Context, db Store, path string, logger *slog.Logger) error {
	n, err := db.ForgetImport(ctx, path)
	if err != nil {
		return fmt.Errorf("forget %s: %w", path, err)
	}
	logger.Debug("import removed", slog.String("path", path), slog.Int("records", n))
	return nil
}

func actionFor(known bool) string {
	if known {
		return ActionUpdated
	}
	return ActionCreated
}

func notify(cb ChangeFunc, action, path string) {
	if cb != nil {
		cb(action, path)
	}
}

// Export writes every stored record into the bundle at path and marks it as
// imported, so the file is not read back into the store unless it changes.
func Export(ctx context.Context, db Store, files storage.Provider, path string) (int, error) {
	if !storage.IsBundle(path) {
		return 0, fmt.Errorf("export: %s is not a .yaml or .yml file", path)
	}

	projects, err := db.ListProjects(ctx)
	if err != nil {
		return 0, err
	}
	notes, err := db.ListNotes(ctx)
	if err != nil {
		return 0, err
	}
	snippets, err := db.ListSnippets(ctx)
	if err != nil {
		return 0, err
	}

	recs := &bundle.Records{Projects: projects, Notes: notes, Snippets: snippets}
	data, err := bundle.Encode(recs)
	if err != nil {
		return 0, err
	}
	if err := files.Write(path, data); err != nil {
		return 0, err
	}
	if err := db.SetImportChecksum(ctx, path, storage.Checksum(data)); err != nil {
		return 0, err
	}
	return recs.Len(), nil
}
