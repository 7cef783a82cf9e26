package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// CreateAsset inserts a new media asset, or returns the existing row when
// the source path is already tracked (rescans revisit known files).
func (d *Database) CreateAsset(ctx context.Context, filename, sourcePath, mimeType string) (*MediaAsset, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("create_asset", start, err) }()

	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err = d.db.ExecContext(ctx, `
		INSERT INTO media_assets (filename, source_path, mime_type)
		VALUES (?, ?, ?)
		ON CONFLICT(source_path) DO UPDATE SET
			filename = excluded.filename,
			mime_type = excluded.mime_type,
			updated_at = strftime('%s', 'now')
	`, filename, sourcePath, mimeType)
	if err != nil {
		return nil, fmt.Errorf("create asset: %w", err)
	}

	return d.getAssetLocked(ctx, "source_path = ?", sourcePath)
}

// GetAsset retrieves an asset by id.
func (d *Database) GetAsset(ctx context.Context, id int64) (*MediaAsset, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("get_asset", start, err) }()

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var asset *MediaAsset
	asset, err = d.getAssetLocked(ctx, "id = ?", id)
	return asset, err
}

// GetAssetByPath retrieves an asset by its source path.
func (d *Database) GetAssetByPath(ctx context.Context, sourcePath string) (*MediaAsset, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("get_asset_by_path", start, err) }()

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var asset *MediaAsset
	asset, err = d.getAssetLocked(ctx, "source_path = ?", sourcePath)
	return asset, err
}

func (d *Database) getAssetLocked(ctx context.Context, where string, arg interface{}) (*MediaAsset, error) {
	query := `
	SELECT id, filename, source_path, mime_type, width, height,
	       thumb_micro, thumb_small, thumb_medium, thumb_large,
	       blur_hash, created_at, updated_at
	FROM media_assets WHERE ` + where

	var (
		asset                MediaAsset
		mimeType, blurHash   sql.NullString
		micro, small         sql.NullString
		medium, large        sql.NullString
		createdAt, updatedAt int64
	)

	err := d.db.QueryRowContext(ctx, query, arg).Scan(
		&asset.ID, &asset.Filename, &asset.SourcePath, &mimeType,
		&asset.Width, &asset.Height,
		&micro, &small, &medium, &large,
		&blurHash, &createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	asset.MimeType = mimeType.String
	asset.BlurHash = blurHash.String
	asset.CreatedAt = time.Unix(createdAt, 0)
	asset.UpdatedAt = time.Unix(updatedAt, 0)

	asset.Thumbnails = make(map[string]string)
	for name, col := range map[string]sql.NullString{
		SizeMicro: micro, SizeSmall: small, SizeMedium: medium, SizeLarge: large,
	} {
		if col.Valid && col.String != "" {
			asset.Thumbnails[name] = col.String
		}
	}
	if len(asset.Thumbnails) == 0 {
		asset.Thumbnails = nil
	}

	return &asset, nil
}

// ListAssets returns all assets ordered by creation time, newest first.
func (d *Database) ListAssets(ctx context.Context) ([]MediaAsset, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("list_assets", start, err) }()

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	rows, err := d.db.QueryContext(ctx, `
		SELECT id FROM media_assets ORDER BY created_at DESC, id DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err = rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}

	assets := make([]MediaAsset, 0, len(ids))
	for _, id := range ids {
		asset, getErr := d.getAssetLocked(ctx, "id = ?", id)
		if getErr != nil {
			return nil, getErr
		}
		assets = append(assets, *asset)
	}
	return assets, nil
}

// CountAssets returns the number of tracked assets.
func (d *Database) CountAssets(ctx context.Context) (int64, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("count_assets", start, err) }()

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var count int64
	err = d.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM media_assets`).Scan(&count)
	return count, err
}

// UpdateDimensions records the oriented pixel dimensions of the source.
func (d *Database) UpdateDimensions(ctx context.Context, assetID int64, width, height int) error {
	start := time.Now()
	var err error
	defer func() { recordQuery("update_dimensions", start, err) }()

	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err = d.db.ExecContext(ctx, `
		UPDATE media_assets
		SET width = ?, height = ?, updated_at = strftime('%s', 'now')
		WHERE id = ?
	`, width, height, assetID)
	return err
}

// UpdateThumbnails sets all four thumbnail path pointers in one atomic
// write, so a reader observes either the previous complete set or the new
// one, never a partial mix.
func (d *Database) UpdateThumbnails(ctx context.Context, assetID int64, paths map[string]string) error {
	start := time.Now()
	var err error
	defer func() { recordQuery("update_thumbnails", start, err) }()

	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err = d.db.ExecContext(ctx, `
		UPDATE media_assets
		SET thumb_micro = ?, thumb_small = ?, thumb_medium = ?, thumb_large = ?,
		    updated_at = strftime('%s', 'now')
		WHERE id = ?
	`, paths[SizeMicro], paths[SizeSmall], paths[SizeMedium], paths[SizeLarge], assetID)
	return err
}

// UpdateThumbnail sets a single thumbnail path pointer, for sizes
// generated on demand outside the full batch.
func (d *Database) UpdateThumbnail(ctx context.Context, assetID int64, size, path string) error {
	start := time.Now()
	var err error
	defer func() { recordQuery("update_thumbnail", start, err) }()

	column, ok := thumbColumns[size]
	if !ok {
		return fmt.Errorf("unknown thumbnail size %q", size)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err = d.db.ExecContext(ctx, `
		UPDATE media_assets
		SET `+column+` = ?, updated_at = strftime('%s', 'now')
		WHERE id = ?
	`, path, assetID)
	return err
}

// UpdateBlurHash sets the blur placeholder string for an asset.
func (d *Database) UpdateBlurHash(ctx context.Context, assetID int64, blurHash string) error {
	start := time.Now()
	var err error
	defer func() { recordQuery("update_blur_hash", start, err) }()

	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err = d.db.ExecContext(ctx, `
		UPDATE media_assets
		SET blur_hash = ?, updated_at = strftime('%s', 'now')
		WHERE id = ?
	`, blurHash, assetID)
	return err
}
