package database

import "time"

// Thumbnail size names, in generation order. These mirror the generator's
// size table; the columns on media_assets are fixed per size.
const (
	SizeMicro  = "micro"
	SizeSmall  = "small"
	SizeMedium = "medium"
	SizeLarge  = "large"
)

// SizeNames lists the thumbnail sizes every asset carries.
var SizeNames = []string{SizeMicro, SizeSmall, SizeMedium, SizeLarge}

// thumbColumns maps size names to their media_assets columns.
var thumbColumns = map[string]string{
	SizeMicro:  "thumb_micro",
	SizeSmall:  "thumb_small",
	SizeMedium: "thumb_medium",
	SizeLarge:  "thumb_large",
}

// MediaAsset is one ingested media file. Thumbnail paths and the blur hash
// are filled in asynchronously after creation and may be empty until the
// pipeline has run; consumers treat absence as "not yet generated".
type MediaAsset struct {
	ID         int64             `json:"id"`
	Filename   string            `json:"filename"`
	SourcePath string            `json:"sourcePath"`
	MimeType   string            `json:"mimeType,omitempty"`
	Width      int               `json:"width,omitempty"`
	Height     int               `json:"height,omitempty"`
	Thumbnails map[string]string `json:"thumbnails,omitempty"`
	BlurHash   string            `json:"blurHash,omitempty"`
	CreatedAt  time.Time         `json:"createdAt"`
	UpdatedAt  time.Time         `json:"updatedAt"`
}

// ExifRecord is the derived camera metadata for one asset (1:1). RawTags
// is the sanitized tag tree as a JSON blob.
type ExifRecord struct {
	AssetID      int64      `json:"assetId"`
	Camera       string     `json:"camera,omitempty"`
	Lens         string     `json:"lens,omitempty"`
	FocalLength  float64    `json:"focalLength,omitempty"`
	Aperture     float64    `json:"aperture,omitempty"`
	ShutterSpeed string     `json:"shutterSpeed,omitempty"`
	ISO          int        `json:"iso,omitempty"`
	DateTaken    *time.Time `json:"dateTaken,omitempty"`
	Latitude     *float64   `json:"latitude,omitempty"`
	Longitude    *float64   `json:"longitude,omitempty"`
	RawTags      string     `json:"rawTags,omitempty"`
}
