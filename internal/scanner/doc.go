// Package scanner walks the media library with a bounded worker pool and
// ingests untracked image files through the derived-asset pipeline.
//
// Scans are per-file best-effort: one file that fails extraction or
// thumbnail generation is logged and skipped, never stopping the rest of
// the directory walk.
package scanner
