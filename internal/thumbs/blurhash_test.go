package thumbs

import (
	"image"
	"image/color"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
)

func writeGradient(t *testing.T, dir, name string, width, height int) string {
	t.Helper()

	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.SetNRGBA(x, y, color.NRGBA{
				R: uint8(255 * x / width),
				G: uint8(255 * y / height),
				B: 128,
				A: 255,
			})
		}
	}
	path := filepath.Join(dir, name)
	if err := imaging.Save(img, path); err != nil {
		t.Fatalf("failed to write gradient: %v", err)
	}
	return path
}

func TestEncodeBlurHash(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := writeGradient(t, dir, "grad.jpg", 640, 480)

	hash, err := EncodeBlurHash(path)
	if err != nil {
		t.Fatalf("EncodeBlurHash: %v", err)
	}
	if hash == "" {
		t.Fatal("empty hash")
	}

	// 4x4 components encode to a fixed-length string:
	// 1 size flag + 1 max AC + 4 DC + 2 per remaining component
	if len(hash) != 6+2*15 {
		t.Errorf("hash length = %d, want %d: %q", len(hash), 6+2*15, hash)
	}
}

// TestEncodeBlurHashDeterministic encodes the same pixels twice.
func TestEncodeBlurHashDeterministic(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := writeGradient(t, dir, "grad.jpg", 320, 240)

	first, err := EncodeBlurHash(path)
	if err != nil {
		t.Fatal(err)
	}
	second, err := EncodeBlurHash(path)
	if err != nil {
		t.Fatal(err)
	}
	if first != second {
		t.Errorf("hash not deterministic: %q vs %q", first, second)
	}
}

func TestEncodeBlurHashMissingFile(t *testing.T) {
	t.Parallel()

	if _, err := EncodeBlurHash("/nonexistent/gone.jpg"); err == nil {
		t.Error("expected error for missing file")
	}
}
