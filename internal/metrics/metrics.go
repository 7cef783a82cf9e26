package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_gallery_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "media_gallery_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "media_gallery_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)
)

// Database metrics
var (
	DBQueryTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_gallery_db_queries_total",
			Help: "Total number of database queries",
		},
		[]string{"operation", "status"},
	)

	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "media_gallery_db_query_duration_seconds",
			Help:    "Database query duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"operation"},
	)

	DBConnectionsOpen = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "media_gallery_db_connections_open",
			Help: "Number of open database connections",
		},
	)
)

// Metadata extraction metrics
var (
	ExtractionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_gallery_exif_extractions_total",
			Help: "Total number of EXIF extraction attempts",
		},
		[]string{"status"}, // "ok", "no_exif", "not_found", "error"
	)

	ExtractionDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "media_gallery_exif_extraction_duration_seconds",
			Help:    "EXIF extraction duration in seconds",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
	)

	SanitizerDegradations = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "media_gallery_sanitizer_degradations_total",
			Help: "Total number of tag values degraded to marker strings during sanitization",
		},
	)
)

// Thumbnail and blur-hash metrics
var (
	ThumbnailsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_gallery_thumbnails_total",
			Help: "Total number of thumbnail outcomes by size",
		},
		[]string{"size", "status"}, // status: "generated", "skipped", "failed"
	)

	ThumbnailDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "media_gallery_thumbnail_duration_seconds",
			Help:    "Thumbnail generation duration in seconds by size",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"size"},
	)

	BlurHashesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_gallery_blurhashes_total",
			Help: "Total number of blur-hash encodes",
		},
		[]string{"status"},
	)
)

// Preview queue metrics
var (
	PreviewQueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "media_gallery_preview_queue_depth",
			Help: "Number of preview jobs waiting in the queue",
		},
	)

	PreviewJobsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "media_gallery_preview_jobs_in_flight",
			Help: "Number of preview jobs currently executing",
		},
	)

	PreviewCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "media_gallery_preview_cache_hits_total",
			Help: "Total number of preview cache hits",
		},
	)

	PreviewCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "media_gallery_preview_cache_misses_total",
			Help: "Total number of preview cache misses",
		},
	)
)

// Scanner metrics
var (
	ScanRunsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "media_gallery_scan_runs_total",
			Help: "Total number of library scan runs",
		},
	)

	ScanFilesProcessed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "media_gallery_scan_files_processed_total",
			Help: "Total number of files processed during scans",
		},
	)

	ScanErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "media_gallery_scan_errors_total",
			Help: "Total number of per-file scan errors",
		},
	)
)
