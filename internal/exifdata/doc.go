// Package exifdata reads EXIF tag trees from image files and derives the
// flat, human-meaningful fields the gallery displays (camera, lens,
// exposure, GPS, capture date).
//
// Tags may be addressed by human-readable name, numeric tag id, or
// IFD-section key depending on how the source file was written, so every
// derived field is resolved through a fallback chain. A file with no EXIF
// block is a valid outcome, not an error: Extract returns (nil, nil).
package exifdata
