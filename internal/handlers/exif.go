package handlers

import (
	"database/sql"
	"errors"
	"net/http"

	"media-gallery/internal/logging"
)

// GetAssetExif returns the extracted camera metadata for one asset.
// Assets without embedded metadata return 404; that is the normal state
// for screenshots and processed images, not an error.
func (h *Handlers) GetAssetExif(w http.ResponseWriter, r *http.Request) {
	id, ok := assetID(w, r)
	if !ok {
		return
	}

	rec, err := h.db.GetExifRecord(r.Context(), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeJSONError(w, "No metadata for asset", http.StatusNotFound)
			return
		}
		logging.Error("GetAssetExif database error for asset %d: %v", id, err)
		writeJSONError(w, "Failed to load metadata", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, rec)
}
