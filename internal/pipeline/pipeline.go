package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"media-gallery/internal/database"
	"media-gallery/internal/exifdata"
	"media-gallery/internal/logging"
	"media-gallery/internal/mediatypes"
	"media-gallery/internal/metrics"
	"media-gallery/internal/raster"
	"media-gallery/internal/sanitize"
	"media-gallery/internal/thumbs"
)

// Pipeline wires the extractor, sanitizer, and generators to the store.
type Pipeline struct {
	db     *database.Database
	thumbs *thumbs.Generator
}

// New creates a Pipeline writing thumbnails under thumbsDir.
func New(db *database.Database, thumbsDir string) (*Pipeline, error) {
	gen, err := thumbs.NewGenerator(thumbsDir)
	if err != nil {
		return nil, err
	}
	return &Pipeline{db: db, thumbs: gen}, nil
}

// Generator exposes the thumbnail generator for callers that serve or
// inspect thumbnail files directly.
func (p *Pipeline) Generator() *thumbs.Generator {
	return p.thumbs
}

// ExtractAndStoreMetadata extracts EXIF from sourcePath, sanitizes the raw
// tag tree, and upserts the asset's ExifRecord. A missing file or a
// decode failure is returned to the caller; a file with no EXIF block is a
// valid outcome and leaves no record.
func (p *Pipeline) ExtractAndStoreMetadata(ctx context.Context, assetID int64, sourcePath string) error {
	start := time.Now()

	res, err := exifdata.Extract(sourcePath)
	if err != nil {
		metrics.ExtractionsTotal.WithLabelValues("error").Inc()
		return fmt.Errorf("metadata extraction for asset %d: %w", assetID, err)
	}
	metrics.ExtractionDuration.Observe(time.Since(start).Seconds())

	if res == nil {
		metrics.ExtractionsTotal.WithLabelValues("no_exif").Inc()
		logging.Debug("asset %d has no exif metadata", assetID)
		return nil
	}

	// Sanitize never fails; whatever the tag tree contains, the stored
	// blob is valid JSON.
	rawJSON, err := json.Marshal(sanitize.Sanitize(res.RawTags))
	if err != nil {
		// Unreachable in practice given the sanitizer's guarantees,
		// but a record without raw tags beats no record.
		logging.Error("sanitized tag tree failed to marshal for asset %d: %v", assetID, err)
		rawJSON = []byte("{}")
	}

	rec := &database.ExifRecord{
		AssetID:      assetID,
		Camera:       res.Fields.Camera,
		Lens:         res.Fields.Lens,
		FocalLength:  res.Fields.FocalLength,
		Aperture:     res.Fields.Aperture,
		ShutterSpeed: res.Fields.ShutterSpeed,
		ISO:          res.Fields.ISO,
		DateTaken:    res.Fields.DateTaken,
		RawTags:      string(rawJSON),
	}
	if res.Fields.GPS != nil {
		rec.Latitude = &res.Fields.GPS.Latitude
		rec.Longitude = &res.Fields.GPS.Longitude
	}

	if err := p.db.UpsertExifRecord(ctx, rec); err != nil {
		metrics.ExtractionsTotal.WithLabelValues("error").Inc()
		return fmt.Errorf("persist exif record for asset %d: %w", assetID, err)
	}

	metrics.ExtractionsTotal.WithLabelValues("ok").Inc()
	return nil
}

// GenerateThumbnails produces the full thumbnail set for an asset and
// repairs the database pointers, including for sizes that already existed
// on disk (the cheap rescan path). Any one size failing aborts the whole
// batch.
func (p *Pipeline) GenerateThumbnails(ctx context.Context, assetID int64, sourcePath, filename string) (map[string]string, error) {
	paths, err := p.thumbs.Generate(ctx, sourcePath, assetID, filename)
	if err != nil {
		return nil, err
	}

	if err := p.db.UpdateThumbnails(ctx, assetID, paths); err != nil {
		return nil, fmt.Errorf("persist thumbnail paths for asset %d: %w", assetID, err)
	}
	return paths, nil
}

// EnsureThumbnail generates a single size on demand if its file is not
// already present and persists the pointer. Serving paths use this when a
// request arrives before the background batch has run.
func (p *Pipeline) EnsureThumbnail(ctx context.Context, assetID int64, sizeName string) (string, error) {
	asset, err := p.db.GetAsset(ctx, assetID)
	if err != nil {
		return "", fmt.Errorf("load asset %d: %w", assetID, err)
	}

	path, err := p.thumbs.GenerateSize(ctx, asset.SourcePath, asset.ID, asset.Filename, sizeName)
	if err != nil {
		return "", err
	}

	if err := p.db.UpdateThumbnail(ctx, asset.ID, sizeName, path); err != nil {
		return "", fmt.Errorf("persist thumbnail path for asset %d: %w", assetID, err)
	}
	return path, nil
}

// GenerateBlurHash encodes the asset's blur placeholder and stores it.
func (p *Pipeline) GenerateBlurHash(ctx context.Context, assetID int64, sourcePath string) (string, error) {
	hash, err := thumbs.EncodeBlurHash(sourcePath)
	if err != nil {
		return "", fmt.Errorf("blur hash for asset %d: %w", assetID, err)
	}

	if err := p.db.UpdateBlurHash(ctx, assetID, hash); err != nil {
		return "", fmt.Errorf("persist blur hash for asset %d: %w", assetID, err)
	}
	return hash, nil
}

// Ingest registers sourcePath as a media asset and runs the derived-asset
// steps. Metadata, thumbnail, and blur-hash failures are logged and do not
// fail the ingestion: the asset persists without derived data and the work
// is retryable via Refresh.
func (p *Pipeline) Ingest(ctx context.Context, sourcePath string) (*database.MediaAsset, error) {
	filename := filepath.Base(sourcePath)
	ext := strings.ToLower(filepath.Ext(filename))
	mimeType := mediatypes.GetMimeType(ext)

	asset, err := p.db.CreateAsset(ctx, filename, sourcePath, mimeType)
	if err != nil {
		return nil, fmt.Errorf("register asset %s: %w", sourcePath, err)
	}

	p.recordDimensions(ctx, asset.ID, sourcePath)

	// The three derived steps are independent: none mutate shared state
	// before their own persistence step, so they run concurrently.
	var wg sync.WaitGroup
	wg.Add(3)
	go func() {
		defer wg.Done()
		if err := p.ExtractAndStoreMetadata(ctx, asset.ID, sourcePath); err != nil {
			logging.Warn("ingest: metadata extraction failed for %s: %v", sourcePath, err)
		}
	}()
	go func() {
		defer wg.Done()
		if _, err := p.GenerateThumbnails(ctx, asset.ID, sourcePath, filename); err != nil {
			logging.Warn("ingest: thumbnail generation failed for %s: %v", sourcePath, err)
		}
	}()
	go func() {
		defer wg.Done()
		if _, err := p.GenerateBlurHash(ctx, asset.ID, sourcePath); err != nil {
			logging.Warn("ingest: blur hash failed for %s: %v", sourcePath, err)
		}
	}()
	wg.Wait()

	return p.db.GetAsset(ctx, asset.ID)
}

// Refresh re-runs every derived-asset step for an existing asset. Unlike
// ingestion, failures are surfaced: the caller explicitly asked for this
// asset and is waiting on the result.
func (p *Pipeline) Refresh(ctx context.Context, assetID int64) error {
	asset, err := p.db.GetAsset(ctx, assetID)
	if err != nil {
		return fmt.Errorf("load asset %d: %w", assetID, err)
	}

	p.recordDimensions(ctx, asset.ID, asset.SourcePath)

	if err := p.ExtractAndStoreMetadata(ctx, asset.ID, asset.SourcePath); err != nil {
		return err
	}
	if _, err := p.GenerateThumbnails(ctx, asset.ID, asset.SourcePath, asset.Filename); err != nil {
		return err
	}
	if _, err := p.GenerateBlurHash(ctx, asset.ID, asset.SourcePath); err != nil {
		return err
	}
	return nil
}

// recordDimensions stores the oriented pixel dimensions. Best-effort: a
// header we cannot parse just leaves the dimensions at zero.
func (p *Pipeline) recordDimensions(ctx context.Context, assetID int64, sourcePath string) {
	width, height, err := raster.Config(sourcePath)
	if err != nil {
		logging.Debug("cannot read dimensions for %s: %v", sourcePath, err)
		return
	}

	// Orientations 5-8 rotate 90 or 270 degrees, swapping the sides.
	if raster.NormalizeOrientation(exifdata.Orientation(sourcePath)).Swapped() {
		width, height = height, width
	}

	if err := p.db.UpdateDimensions(ctx, assetID, width, height); err != nil {
		logging.Warn("persist dimensions for asset %d: %v", assetID, err)
	}
}
