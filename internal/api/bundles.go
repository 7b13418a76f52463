package api

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"

	"github.com/starford/devflow/internal/bundle"
	"github.com/starford/devflow/internal/storage"
)

const maxUploadBytes = 5 << 20

// SyncFunc imports changed bundles into the store.
type SyncFunc func(ctx context.Context) error

// BundleHandler lists and accepts record bundles in the import root.
type BundleHandler struct {
	files storage.Provider
	sync  SyncFunc
}

// NewBundleHandler creates a handler writing through files and importing
// with sync.
func NewBundleHandler(files storage.Provider, sync SyncFunc) *BundleHandler {
	return &BundleHandler{files: files, sync: sync}
}

// safeName accepts a plain bundle file name (no directories, no traversal).
func safeName(name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("filename is required")
	}
	if strings.ContainsAny(name, `/\`) || name != path.Clean(name) || strings.HasPrefix(name, ".") {
		return "", fmt.Errorf("invalid filename: %s", name)
	}
	if !storage.IsBundle(name) {
		return "", fmt.Errorf("bundle must be a .yaml or .yml file: %s", name)
	}
	return name, nil
}

// List handles GET /api/bundles.
func (h *BundleHandler) List(w http.ResponseWriter, r *http.Request) {
	infos, err := h.files.List("")
	if err != nil {
		writeError(w, "list bundles", err)
		return
	}
	out := BundleListResponse{Bundles: make([]BundleItem, 0, len(infos))}
	for _, fi := range infos {
		out.Bundles = append(out.Bundles, BundleItem{Path: fi.Path, Checksum: fi.Checksum, UpdatedAt: fi.UpdatedAt})
	}
	writeJSON(w, http.StatusOK, out)
}

// Upload handles POST /api/bundles (multipart/form-data, field "file").
// The bundle is validated before it is written, then imported.
func (h *BundleHandler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("file too large or invalid multipart"))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("missing 'file' field in multipart form"))
		return
	}
	defer file.Close()

	name, err := safeName(header.Filename)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("failed to read file"))
		return
	}
	recs, err := bundle.Parse(name, data)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}

	if err := h.files.Write(name, data); err != nil {
		writeError(w, "write bundle", err)
		return
	}
	if h.sync != nil {
		if err := h.sync(r.Context()); err != nil {
			writeError(w, "import bundle", err)
			return
		}
	}

	writeJSON(w, http.StatusCreated, BundleUploadResponse{Path: name, Size: len(data), Records: recs.Len()})
}
