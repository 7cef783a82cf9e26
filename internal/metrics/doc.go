// Package metrics provides Prometheus instrumentation for the media-gallery
// derived-asset pipeline. All metrics are prefixed with "media_gallery_".
//
// Metrics cover the HTTP surface (request counts, durations, in-flight),
// the database (query counts and durations), metadata extraction and
// sanitization (extraction outcomes, sanitizer degradations), thumbnail and
// blur-hash generation (generated/skipped/failed counts, encode durations),
// and the preview queue (depth, in-flight jobs, cache hits/misses).
//
// Metrics register with the default registry via promauto; expose them by
// mounting promhttp.Handler() on the metrics endpoint.
package metrics
