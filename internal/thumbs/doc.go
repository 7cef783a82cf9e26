// Package thumbs produces the deterministic set of orientation-corrected,
// multi-resolution thumbnails for an asset, plus its compact blur-hash
// placeholder.
//
// Output filenames follow the fixed scheme {size}_{baseName}_{assetID}.jpg,
// so repeated generation targets the same paths and existing outputs are
// skipped without re-encoding. All sizes for one asset are generated
// together; any single size failing aborts the batch.
package thumbs
