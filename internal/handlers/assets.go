package handlers

import (
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"media-gallery/internal/database"
	"media-gallery/internal/logging"
	"media-gallery/internal/mediatypes"

	"github.com/gorilla/mux"
)

// maxUploadSize caps multipart uploads at 256MB.
const maxUploadSize = 256 << 20

// ListAssets returns every tracked asset.
func (h *Handlers) ListAssets(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	assets, err := h.db.ListAssets(r.Context())
	if err != nil {
		logging.Error("ListAssets database error: %v", err)
		writeJSONError(w, "Failed to list assets", http.StatusInternalServerError)
		return
	}

	logging.Debug("ListAssets completed in %v, found %d assets", time.Since(start), len(assets))

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, assets)
}

// GetAsset returns a single asset by id.
func (h *Handlers) GetAsset(w http.ResponseWriter, r *http.Request) {
	id, ok := assetID(w, r)
	if !ok {
		return
	}

	asset, err := h.db.GetAsset(r.Context(), id)
	if err != nil {
		writeJSONError(w, "Asset not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, asset)
}

// UploadAsset accepts a multipart image upload, stores it under the media
// directory, and runs the full ingest pipeline. Derived-asset failures do
// not fail the upload; the asset is returned with whatever was generated.
func (h *Handlers) UploadAsset(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		writeJSONError(w, "Invalid multipart request", http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSONError(w, "Missing file field", http.StatusBadRequest)
		return
	}
	defer file.Close()

	filename := filepath.Base(header.Filename)
	ext := strings.ToLower(filepath.Ext(filename))
	if mediatypes.GetFileType(ext) != mediatypes.FileTypeImage {
		writeJSONError(w, "Unsupported file type", http.StatusUnsupportedMediaType)
		return
	}

	destPath := filepath.Join(h.mediaDir, filename)
	if !isSubPath(h.mediaDir, destPath) {
		writeJSONError(w, "Invalid filename", http.StatusBadRequest)
		return
	}

	dest, err := os.Create(destPath)
	if err != nil {
		logging.Error("upload: failed to create %s: %v", destPath, err)
		writeJSONError(w, "Failed to store file", http.StatusInternalServerError)
		return
	}
	if _, err := io.Copy(dest, file); err != nil {
		dest.Close()
		os.Remove(destPath)
		logging.Error("upload: failed to write %s: %v", destPath, err)
		writeJSONError(w, "Failed to store file", http.StatusInternalServerError)
		return
	}
	if err := dest.Close(); err != nil {
		os.Remove(destPath)
		writeJSONError(w, "Failed to store file", http.StatusInternalServerError)
		return
	}

	asset, err := h.pipe.Ingest(r.Context(), destPath)
	if err != nil {
		logging.Error("upload: ingest failed for %s: %v", destPath, err)
		writeJSONError(w, "Failed to ingest file", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	writeJSON(w, asset)
}

// RefreshAsset re-runs metadata extraction, thumbnail generation, and
// blur hash encoding for one asset. Unlike ingest, failures here surface
// to the caller so an operator sees what went wrong.
func (h *Handlers) RefreshAsset(w http.ResponseWriter, r *http.Request) {
	id, ok := assetID(w, r)
	if !ok {
		return
	}

	if err := h.pipe.Refresh(r.Context(), id); err != nil {
		logging.Error("refresh failed for asset %d: %v", id, err)
		writeJSONError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	asset, err := h.db.GetAsset(r.Context(), id)
	if err != nil {
		writeJSONError(w, "Asset not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, asset)
}

// GetSourceFile serves the original media file for an asset.
func (h *Handlers) GetSourceFile(w http.ResponseWriter, r *http.Request) {
	id, ok := assetID(w, r)
	if !ok {
		return
	}

	asset, err := h.db.GetAsset(r.Context(), id)
	if err != nil {
		writeJSONError(w, "Asset not found", http.StatusNotFound)
		return
	}

	if !isSubPath(h.mediaDir, asset.SourcePath) {
		writeJSONError(w, "Invalid path", http.StatusBadRequest)
		return
	}

	http.ServeFile(w, r, asset.SourcePath)
}

// GetThumbnail serves one generated thumbnail variant for an asset.
func (h *Handlers) GetThumbnail(w http.ResponseWriter, r *http.Request) {
	id, ok := assetID(w, r)
	if !ok {
		return
	}

	size := mux.Vars(r)["size"]
	if !validSize(size) {
		writeJSONError(w, "Unknown thumbnail size", http.StatusBadRequest)
		return
	}

	asset, err := h.db.GetAsset(r.Context(), id)
	if err != nil {
		writeJSONError(w, "Asset not found", http.StatusNotFound)
		return
	}

	thumbPath := asset.Thumbnails[size]
	if thumbPath == "" {
		// Generate this one size on demand rather than 404ing a gallery
		// that raced the background batch.
		thumbPath, err = h.pipe.EnsureThumbnail(r.Context(), id, size)
		if err != nil {
			logging.Warn("on-demand thumbnail %s failed for asset %d: %v", size, id, err)
			writeJSONError(w, "Thumbnail unavailable", http.StatusInternalServerError)
			return
		}
	}

	// Stored paths are absolute, rooted at the thumbnail directory
	if !isSubPath(h.thumbDir, thumbPath) {
		writeJSONError(w, "Invalid path", http.StatusBadRequest)
		return
	}

	w.Header().Set("Cache-Control", "public, max-age=86400")
	http.ServeFile(w, r, thumbPath)
}

func validSize(size string) bool {
	for _, name := range database.SizeNames {
		if size == name {
			return true
		}
	}
	return false
}

// assetID parses the {id} route variable, writing a 400 on failure.
func assetID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil || id < 1 {
		writeJSONError(w, "Invalid asset id", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}
