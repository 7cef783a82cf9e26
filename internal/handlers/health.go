package handlers

import (
	"net/http"
	"runtime"
	"time"

	"media-gallery/internal/startup"
)

const (
	statusHealthy  = "healthy"
	statusDegraded = "degraded"
)

// HealthResponse contains the health check response
type HealthResponse struct {
	Status   string `json:"status"`
	Ready    bool   `json:"ready"`
	Version  string `json:"version"`
	Uptime   string `json:"uptime"`
	Scanning bool   `json:"scanning"`

	// Last scan summary
	ScanIngested int64  `json:"scanIngested,omitempty"`
	ScanSkipped  int64  `json:"scanSkipped,omitempty"`
	ScanErrors   int64  `json:"scanErrors,omitempty"`
	ScanDuration string `json:"scanDuration,omitempty"`

	// System info
	GoVersion    string `json:"goVersion"`
	NumCPU       int    `json:"numCpu"`
	NumGoroutine int    `json:"numGoroutine"`

	TotalAssets     int64 `json:"totalAssets"`
	PreviewInFlight int64 `json:"previewInFlight"`
}

// HealthCheck returns the health status of the service
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	response := HealthResponse{
		Ready:           true,
		Status:          statusHealthy,
		Version:         startup.Version,
		Uptime:          time.Since(h.startedAt).Round(time.Second).String(),
		Scanning:        h.scanning.Load(),
		GoVersion:       runtime.Version(),
		NumCPU:          runtime.NumCPU(),
		NumGoroutine:    runtime.NumGoroutine(),
		PreviewInFlight: h.previews.InFlight(),
	}

	if stats := h.lastScan.Load(); stats != nil {
		response.ScanIngested = stats.Ingested
		response.ScanSkipped = stats.Skipped
		response.ScanErrors = stats.Errors
		response.ScanDuration = stats.Duration.Round(time.Millisecond).String()
	}

	count, err := h.db.CountAssets(r.Context())
	if err != nil {
		response.Status = statusDegraded
	} else {
		response.TotalAssets = count
	}

	w.Header().Set("Content-Type", "application/json")
	if response.Status == statusDegraded {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	writeJSON(w, response)
}

// LivenessCheck is a minimal liveness probe
func (h *Handlers) LivenessCheck(w http.ResponseWriter, _ *http.Request) {
	writeJSONStatus(w, "alive")
}

// ReadinessCheck reports whether the database is reachable
func (h *Handlers) ReadinessCheck(w http.ResponseWriter, r *http.Request) {
	if _, err := h.db.CountAssets(r.Context()); err != nil {
		writeJSONError(w, "database unavailable", http.StatusServiceUnavailable)
		return
	}
	writeJSONStatus(w, "ready")
}
