package handlers

import (
	"net/http"
	"os"

	"media-gallery/internal/logging"
	"media-gallery/internal/preview"
)

// GetPreview serves a small browse-time preview for an asset. Previews
// are rendered on demand through the preview queue, so a burst of
// requests from a scrolling grid is throttled to a few decodes at a time
// and repeat visits hit the in-memory cache.
func (h *Handlers) GetPreview(w http.ResponseWriter, r *http.Request) {
	id, ok := assetID(w, r)
	if !ok {
		return
	}

	asset, err := h.db.GetAsset(r.Context(), id)
	if err != nil {
		writeJSONError(w, "Asset not found", http.StatusNotFound)
		return
	}

	info, err := os.Stat(asset.SourcePath)
	if err != nil {
		writeJSONError(w, "Source file missing", http.StatusNotFound)
		return
	}

	handle, err := h.previews.Get(r.Context(), preview.Request{
		Path:     asset.SourcePath,
		Size:     info.Size(),
		MimeType: asset.MimeType,
	})
	if err != nil {
		logging.Warn("preview failed for asset %d: %v", id, err)
		writeJSONError(w, "Preview unavailable", http.StatusInternalServerError)
		return
	}
	defer handle.Release()

	w.Header().Set("Content-Type", "image/jpeg")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	if _, err := w.Write(handle.Bytes()); err != nil {
		logging.Debug("preview write aborted for asset %d: %v", id, err)
	}
}
