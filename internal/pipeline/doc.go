// Package pipeline orchestrates derived-asset generation for ingested
// media: EXIF extraction and sanitization into a persisted record,
// multi-resolution thumbnail generation, and blur-hash encoding.
//
// The pipeline runs synchronously within the request or scan that
// triggered it; there is no background job queue. Ingestion treats
// derived-data failures as non-fatal (the asset persists and the work is
// retryable), while explicit refresh operations surface failures to the
// caller who is waiting on them.
package pipeline
