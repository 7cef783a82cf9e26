// Package raster provides the pixel-level primitives for derived-asset
// generation: decoding source images, mapping EXIF orientation codes to
// flip/rotate transforms, fit-inside resizing, sharpening, and lossy
// re-encoding.
//
// The orientation transform is applied before any resize so that
// geometry-dependent math operates on the final intended orientation.
// Thumbnail and blur-hash generation both go through Orient, which keeps
// the two pipelines agreed on up/down/left/right.
//
// Decoding tries disintegration/imaging first declaratively and falls back
// to libvips (when initialized) for formats the pure-Go decoders can't
// handle, such as HEIC and AVIF.
package raster
