package handlers

import (
	"context"
	"net/http"

	"media-gallery/internal/logging"
)

// TriggerScan kicks off a background scan of the media directory. Only
// one scan runs at a time; a request while one is active returns 409.
func (h *Handlers) TriggerScan(w http.ResponseWriter, _ *http.Request) {
	if !h.scanning.CompareAndSwap(false, true) {
		writeJSONError(w, "Scan already in progress", http.StatusConflict)
		return
	}

	go func() {
		defer h.scanning.Store(false)

		stats, err := h.scan.Scan(context.Background())
		if err != nil {
			logging.Error("scan failed: %v", err)
			return
		}
		h.lastScan.Store(&stats)
		logging.Info("scan complete: %d ingested, %d skipped, %d errors in %v",
			stats.Ingested, stats.Skipped, stats.Errors, stats.Duration)
	}()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	writeJSON(w, map[string]string{"status": "scan started"})
}
