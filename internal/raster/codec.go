package raster

import (
	"fmt"
	"image"
	"io"
	"os"

	"media-gallery/internal/logging"

	_ "image/gif"
	_ "image/png"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"
)

// Decode reads and decodes a source image without applying any orientation
// correction; callers apply Orient themselves so thumbnails and blur hashes
// share one transform. Returns an error satisfying errors.Is(err, os.ErrNotExist)
// when the file is missing.
func Decode(path string) (image.Image, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("source not accessible: %w", err)
	}

	img, err := imaging.Open(path)
	if err == nil {
		return img, nil
	}

	logging.Debug("imaging.Open failed for %s: %v, trying fallback decoders", path, err)

	img, stdErr := decodeStandard(path)
	if stdErr == nil {
		return img, nil
	}

	if IsVipsAvailable() {
		img, vipsErr := decodeWithVips(path)
		if vipsErr == nil {
			return img, nil
		}
		return nil, fmt.Errorf("all decoders failed for %s: %w", path, vipsErr)
	}

	return nil, fmt.Errorf("cannot decode %s: %w", path, err)
}

func decodeStandard(path string) (image.Image, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	img, format, err := image.Decode(file)
	if err != nil {
		return nil, err
	}

	logging.Debug("Decoded image format: %s for %s", format, path)
	return img, nil
}

// Config reads just the pixel dimensions from the image header without
// decoding the raster.
func Config(path string) (width, height int, err error) {
	file, err := os.Open(path)
	if err != nil {
		return 0, 0, fmt.Errorf("source not accessible: %w", err)
	}
	defer file.Close()

	cfg, _, err := image.DecodeConfig(file)
	if err != nil {
		return 0, 0, fmt.Errorf("cannot read image header for %s: %w", path, err)
	}
	return cfg.Width, cfg.Height, nil
}

// Fit scales img down so both dimensions are at most maxEdge, preserving
// aspect ratio. Sources already within the box are returned at native
// resolution; Fit never enlarges.
func Fit(img image.Image, maxEdge int) image.Image {
	return imaging.Fit(img, maxEdge, maxEdge, imaging.Lanczos)
}

// Sharpen applies the small fixed sharpening pass used after downscaling.
func Sharpen(img image.Image) image.Image {
	return imaging.Sharpen(img, 0.5)
}

// EncodeJPEG re-encodes img as lossy JPEG at the given quality (1-100).
func EncodeJPEG(w io.Writer, img image.Image, quality int) error {
	return imaging.Encode(w, img, imaging.JPEG, imaging.JPEGQuality(quality))
}
