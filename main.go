package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"media-gallery/internal/database"
	"media-gallery/internal/handlers"
	"media-gallery/internal/logging"
	"media-gallery/internal/middleware"
	"media-gallery/internal/pipeline"
	"media-gallery/internal/preview"
	"media-gallery/internal/raster"
	"media-gallery/internal/scanner"
	"media-gallery/internal/startup"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	startTime := time.Now()

	// Load configuration
	config, err := startup.LoadConfig()
	if err != nil {
		startup.LogFatal("Configuration error: %v", err)
	}

	// Initialize the native image library if present
	if err := raster.InitVips(); err != nil {
		logging.Warn("libvips unavailable, falling back to pure-Go decoders: %v", err)
	}
	defer raster.ShutdownVips()

	// Initialize database
	dbStart := time.Now()
	db, err := database.New(context.Background(), config.DatabasePath)
	if err != nil {
		startup.LogFatal("Failed to initialize database: %v", err)
	}
	defer db.Close()
	startup.LogDatabaseInit(time.Since(dbStart))

	// Refresh database gauges periodically
	go func() {
		ticker := time.NewTicker(30 * time.Second)
		for range ticker.C {
			db.UpdateDBMetrics()
		}
	}()

	// Initialize the derived-asset pipeline
	pipe, err := pipeline.New(db, config.ThumbnailDir)
	if err != nil {
		startup.LogFatal("Failed to initialize pipeline: %v", err)
	}

	// Initialize preview queue
	previews := preview.NewQueue(config.PreviewWorkers, 0)
	defer previews.Close()

	// Initialize scanner
	startup.LogScannerInit(config.ScanInterval)
	scan := scanner.New(pipe, config.MediaDir, scanner.DefaultConfig())

	scanCtx, cancelScans := context.WithCancel(context.Background())
	defer cancelScans()
	go runPeriodicScans(scanCtx, scan, config.ScanInterval)
	startup.LogScannerStarted()

	// Initialize handlers
	h := handlers.New(db, pipe, previews, scan, config)

	// Setup router
	router := setupRouter(h)
	startup.LogHTTPRoutes(router, config.LogHealthChecks)

	// Apply logging middleware
	loggingConfig := middleware.DefaultLoggingConfig()
	loggingConfig.LogHealthChecks = config.LogHealthChecks
	loggedHandler := middleware.Logger(loggingConfig)(router)

	// Apply metrics middleware
	meteredHandler := middleware.Metrics(middleware.DefaultMetricsConfig())(loggedHandler)

	// Apply compression middleware
	handler := middleware.Compression(middleware.DefaultCompressionConfig())(meteredHandler)

	// Create server
	srv := &http.Server{
		Addr:         ":" + config.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 0,
		IdleTimeout:  60 * time.Second,
	}

	// Start graceful shutdown handler
	go handleShutdown(srv, previews, cancelScans)

	// Start server
	startup.LogServerStarted(startup.ServerConfig{
		Port:            config.Port,
		StartupDuration: time.Since(startTime),
	})
	if err := srv.ListenAndServe(); err != http.ErrServerClosed {
		startup.LogFatal("Server error: %v", err)
	}
}

func setupRouter(h *handlers.Handlers) *mux.Router {
	r := mux.NewRouter()

	// Health and diagnostics
	r.HandleFunc("/health", h.HealthCheck).Methods("GET")
	r.HandleFunc("/healthz", h.HealthCheck).Methods("GET")
	r.HandleFunc("/livez", h.LivenessCheck).Methods("GET")
	r.HandleFunc("/readyz", h.ReadinessCheck).Methods("GET")
	r.HandleFunc("/version", h.GetVersion).Methods("GET")
	r.Handle("/metrics", promhttp.Handler()).Methods("GET")

	// Asset API
	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/assets", h.ListAssets).Methods("GET")
	api.HandleFunc("/assets", h.UploadAsset).Methods("POST")
	api.HandleFunc("/assets/{id}", h.GetAsset).Methods("GET")
	api.HandleFunc("/assets/{id}/file", h.GetSourceFile).Methods("GET")
	api.HandleFunc("/assets/{id}/thumbnail/{size}", h.GetThumbnail).Methods("GET")
	api.HandleFunc("/assets/{id}/preview", h.GetPreview).Methods("GET")
	api.HandleFunc("/assets/{id}/exif", h.GetAssetExif).Methods("GET")
	api.HandleFunc("/assets/{id}/refresh", h.RefreshAsset).Methods("POST")
	api.HandleFunc("/scan", h.TriggerScan).Methods("POST")

	return r
}

// runPeriodicScans runs an initial scan immediately and then rescans on
// the configured interval until ctx is cancelled.
func runPeriodicScans(ctx context.Context, scan *scanner.Scanner, interval time.Duration) {
	for {
		stats, err := scan.Scan(ctx)
		if err != nil {
			logging.Error("scheduled scan failed: %v", err)
		} else {
			logging.Info("scheduled scan complete: %d ingested, %d skipped, %d errors in %v",
				stats.Ingested, stats.Skipped, stats.Errors, stats.Duration)
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(interval):
		}
	}
}

func handleShutdown(srv *http.Server, previews *preview.Queue, cancelScans context.CancelFunc) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan

	startup.LogShutdownInitiated(sig.String())

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	startup.LogShutdownStep("Stopping scanner")
	cancelScans()
	startup.LogShutdownStepComplete("Scanner stopped")

	startup.LogShutdownStep("Draining preview queue")
	previews.Close()
	startup.LogShutdownStepComplete("Preview queue drained")

	startup.LogShutdownStep("Shutting down HTTP server")
	if err := srv.Shutdown(ctx); err != nil {
		logging.Warn("Server shutdown error: %v", err)
	} else {
		startup.LogShutdownStepComplete("HTTP server stopped")
	}

	startup.LogShutdownComplete()
}
