package thumbs

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"media-gallery/internal/exifdata"
	"media-gallery/internal/filesystem"
	"media-gallery/internal/logging"
	"media-gallery/internal/metrics"
	"media-gallery/internal/raster"

	"golang.org/x/sync/errgroup"
)

// Size describes one thumbnail rendition.
type Size struct {
	Name    string
	MaxEdge int
	Quality int
}

// Sizes is the fixed rendition table. Micro doubles as the blur-hash
// source resolution; small/medium serve 1x and retina gallery tiles;
// large backs the lightbox view.
var Sizes = []Size{
	{Name: "micro", MaxEdge: 32, Quality: 75},
	{Name: "small", MaxEdge: 250, Quality: 88},
	{Name: "medium", MaxEdge: 500, Quality: 92},
	{Name: "large", MaxEdge: 800, Quality: 94},
}

// Generator writes thumbnail files under a single root directory.
type Generator struct {
	thumbsDir string

	// store handles the cache-volume writes; the retry policy covers
	// stale NFS handles on network-mounted caches.
	store filesystem.Storage

	// encodes counts actual re-encode operations, used to verify the
	// skip-if-exists fast path.
	encodes atomic.Int64
}

// NewGenerator creates a Generator rooted at thumbsDir, creating the
// directory if needed.
func NewGenerator(thumbsDir string) (*Generator, error) {
	if err := os.MkdirAll(thumbsDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create thumbnails dir: %w", err)
	}
	logging.Debug("Generator: thumbnails dir: %s", thumbsDir)
	return &Generator{
		thumbsDir: thumbsDir,
		store:     filesystem.NewDiskStorage(filesystem.DefaultRetryConfig()),
	}, nil
}

// ThumbPath returns the deterministic output path for one size of one
// asset. Only the base name of filename participates; path separators and
// extension are dropped.
func (g *Generator) ThumbPath(size, filename string, assetID int64) string {
	base := filepath.Base(filename)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(g.thumbsDir, fmt.Sprintf("%s_%s_%d.jpg", size, base, assetID))
}

// EncodeCount reports how many re-encode operations this generator has
// performed.
func (g *Generator) EncodeCount() int64 {
	return g.encodes.Load()
}

// Generate produces every size in the rendition table for one asset and
// returns the size-name to path mapping. Sizes whose outputs already exist
// are skipped without any image work; if every size exists the source is
// not even decoded. Sizes are generated concurrently and the first failure
// aborts the whole batch.
func (g *Generator) Generate(ctx context.Context, sourcePath string, assetID int64, filename string) (map[string]string, error) {
	paths := make(map[string]string, len(Sizes))
	var missing []Size
	for _, size := range Sizes {
		dest := g.ThumbPath(size.Name, filename, assetID)
		paths[size.Name] = dest
		if g.store.Exists(dest) {
			metrics.ThumbnailsTotal.WithLabelValues(size.Name, "skipped").Inc()
			logging.Debug("thumbnail exists, skipping: %s", dest)
			continue
		}
		missing = append(missing, size)
	}

	if len(missing) == 0 {
		return paths, nil
	}

	// Read the embedded orientation once, then decode and correct the
	// raster before any resize so every size shares the same geometry.
	orientation := raster.NormalizeOrientation(exifdata.Orientation(sourcePath))

	src, err := raster.Decode(sourcePath)
	if err != nil {
		return nil, fmt.Errorf("thumbnail decode for asset %d: %w", assetID, err)
	}
	oriented := raster.Orient(src, orientation)

	eg, _ := errgroup.WithContext(ctx)
	var mu sync.Mutex
	generated := make(map[string]string, len(missing))

	for _, size := range missing {
		size := size
		dest := paths[size.Name]
		eg.Go(func() error {
			start := time.Now()
			if err := g.encodeOne(oriented, size, dest); err != nil {
				metrics.ThumbnailsTotal.WithLabelValues(size.Name, "failed").Inc()
				return fmt.Errorf("size %s for asset %d: %w", size.Name, assetID, err)
			}
			metrics.ThumbnailsTotal.WithLabelValues(size.Name, "generated").Inc()
			metrics.ThumbnailDuration.WithLabelValues(size.Name).Observe(time.Since(start).Seconds())
			mu.Lock()
			generated[size.Name] = dest
			mu.Unlock()
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, err
	}

	logging.Debug("generated %d thumbnail(s) for asset %d", len(generated), assetID)
	return paths, nil
}

// GenerateSize produces a single rendition, for callers that only need one
// size. The skip rule and naming scheme match Generate.
func (g *Generator) GenerateSize(ctx context.Context, sourcePath string, assetID int64, filename, sizeName string) (string, error) {
	var size *Size
	for i := range Sizes {
		if Sizes[i].Name == sizeName {
			size = &Sizes[i]
			break
		}
	}
	if size == nil {
		return "", fmt.Errorf("unknown thumbnail size %q", sizeName)
	}

	dest := g.ThumbPath(size.Name, filename, assetID)
	if g.store.Exists(dest) {
		metrics.ThumbnailsTotal.WithLabelValues(size.Name, "skipped").Inc()
		return dest, nil
	}

	orientation := raster.NormalizeOrientation(exifdata.Orientation(sourcePath))
	src, err := raster.Decode(sourcePath)
	if err != nil {
		return "", fmt.Errorf("thumbnail decode for asset %d: %w", assetID, err)
	}

	if err := g.encodeOne(raster.Orient(src, orientation), *size, dest); err != nil {
		metrics.ThumbnailsTotal.WithLabelValues(size.Name, "failed").Inc()
		return "", fmt.Errorf("size %s for asset %d: %w", size.Name, assetID, err)
	}
	metrics.ThumbnailsTotal.WithLabelValues(size.Name, "generated").Inc()
	return dest, nil
}

// encodeOne resizes, sharpens, and re-encodes one rendition to dest.
// Concurrent writers to the same dest are harmless: content is equivalent
// up to encoder noise and last write wins.
func (g *Generator) encodeOne(oriented image.Image, size Size, dest string) error {
	thumb := raster.Sharpen(raster.Fit(oriented, size.MaxEdge))

	g.encodes.Add(1)
	var buf bytes.Buffer
	if err := raster.EncodeJPEG(&buf, thumb, size.Quality); err != nil {
		return fmt.Errorf("encode: %w", err)
	}

	// Encode fully in memory first so dest never holds a partial file
	if err := g.store.Write(dest, buf.Bytes()); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}
