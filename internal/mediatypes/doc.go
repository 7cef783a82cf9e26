// Package mediatypes provides shared type definitions for media file
// handling across the gallery.
//
// This package exists as a dependency-free foundation that can be imported
// by other packages without creating import cycles: primitive types,
// constants, and pure utility functions only.
//
// Use GetFileType and GetMimeType with a lowercase extension including the
// leading dot:
//
//	ext := strings.ToLower(filepath.Ext(filename))
//	fileType := mediatypes.GetFileType(ext)
//	mimeType := mediatypes.GetMimeType(ext)
package mediatypes
