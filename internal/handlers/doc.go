// Package handlers implements the HTTP API for the gallery server:
// asset CRUD, derived-asset regeneration, EXIF metadata retrieval,
// thumbnail and preview delivery, and health/version endpoints.
package handlers
