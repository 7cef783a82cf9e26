package database

import (
	"context"
	"database/sql"
	"time"
)

// UpsertExifRecord inserts or fully replaces the EXIF record for an asset.
// Every field is overwritten on conflict, so re-extraction is idempotent
// and a reader never sees a blend of old and new extractions.
func (d *Database) UpsertExifRecord(ctx context.Context, rec *ExifRecord) error {
	start := time.Now()
	var err error
	defer func() { recordQuery("upsert_exif", start, err) }()

	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var dateTaken interface{}
	if rec.DateTaken != nil {
		dateTaken = rec.DateTaken.Unix()
	}

	_, err = d.db.ExecContext(ctx, `
		INSERT INTO exif_records (
			asset_id, camera, lens, focal_length, aperture, shutter_speed,
			iso, date_taken, gps_latitude, gps_longitude, raw_tags
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(asset_id) DO UPDATE SET
			camera = excluded.camera,
			lens = excluded.lens,
			focal_length = excluded.focal_length,
			aperture = excluded.aperture,
			shutter_speed = excluded.shutter_speed,
			iso = excluded.iso,
			date_taken = excluded.date_taken,
			gps_latitude = excluded.gps_latitude,
			gps_longitude = excluded.gps_longitude,
			raw_tags = excluded.raw_tags,
			updated_at = strftime('%s', 'now')
	`, rec.AssetID, rec.Camera, rec.Lens, rec.FocalLength, rec.Aperture,
		rec.ShutterSpeed, rec.ISO, dateTaken, rec.Latitude, rec.Longitude,
		rec.RawTags)
	return err
}

// GetExifRecord retrieves the EXIF record for an asset, or sql.ErrNoRows
// when none has been extracted yet.
func (d *Database) GetExifRecord(ctx context.Context, assetID int64) (*ExifRecord, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("get_exif", start, err) }()

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var (
		rec                 ExifRecord
		camera, lens        sql.NullString
		shutterSpeed, raw   sql.NullString
		focalLen, aperture  sql.NullFloat64
		iso, dateTaken      sql.NullInt64
		latitude, longitude sql.NullFloat64
	)

	err = d.db.QueryRowContext(ctx, `
		SELECT asset_id, camera, lens, focal_length, aperture, shutter_speed,
		       iso, date_taken, gps_latitude, gps_longitude, raw_tags
		FROM exif_records WHERE asset_id = ?
	`, assetID).Scan(
		&rec.AssetID, &camera, &lens, &focalLen, &aperture, &shutterSpeed,
		&iso, &dateTaken, &latitude, &longitude, &raw,
	)
	if err != nil {
		return nil, err
	}

	rec.Camera = camera.String
	rec.Lens = lens.String
	rec.FocalLength = focalLen.Float64
	rec.Aperture = aperture.Float64
	rec.ShutterSpeed = shutterSpeed.String
	rec.ISO = int(iso.Int64)
	rec.RawTags = raw.String
	if dateTaken.Valid {
		ts := time.Unix(dateTaken.Int64, 0)
		rec.DateTaken = &ts
	}
	if latitude.Valid && longitude.Valid {
		rec.Latitude = &latitude.Float64
		rec.Longitude = &longitude.Float64
	}

	return &rec, nil
}
