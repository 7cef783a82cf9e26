package thumbs

import (
	"fmt"

	"media-gallery/internal/exifdata"
	"media-gallery/internal/metrics"
	"media-gallery/internal/raster"

	"github.com/buckket/go-blurhash"
	"github.com/disintegration/imaging"
)

const (
	// blurMaxEdge is the long edge of the raw downsample fed to the
	// blur-hash encoder.
	blurMaxEdge = 32
	// blurComponents is the fixed component grid (4x4).
	blurComponents = 4
)

// EncodeBlurHash produces the blur placeholder string for a source image.
// The orientation correction is identical to thumbnail generation, so the
// placeholder and the real thumbnail always agree on up/down/left/right.
// The result is a pure function of the corrected pixel data: the same
// bytes and orientation always produce the same string.
func EncodeBlurHash(sourcePath string) (string, error) {
	orientation := raster.NormalizeOrientation(exifdata.Orientation(sourcePath))

	src, err := raster.Decode(sourcePath)
	if err != nil {
		metrics.BlurHashesTotal.WithLabelValues("failed").Inc()
		return "", fmt.Errorf("blurhash decode: %w", err)
	}

	small := raster.Fit(raster.Orient(src, orientation), blurMaxEdge)

	// Clone forces an NRGBA raster with an alpha channel, which the
	// encoder expects regardless of the source color model.
	hash, err := blurhash.Encode(blurComponents, blurComponents, imaging.Clone(small))
	if err != nil {
		metrics.BlurHashesTotal.WithLabelValues("failed").Inc()
		return "", fmt.Errorf("blurhash encode: %w", err)
	}

	metrics.BlurHashesTotal.WithLabelValues("ok").Inc()
	return hash, nil
}
