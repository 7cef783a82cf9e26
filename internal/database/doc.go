// Package database persists media assets and their EXIF records in SQLite.
//
// The schema is limited to what the derived-asset pipeline reads and
// writes: one row per ingested file in media_assets (thumbnail path
// pointers and blur hash included), and at most one exif_records row per
// asset, enforced by a uniqueness constraint and written via upsert so
// repeated extraction is idempotent.
package database
