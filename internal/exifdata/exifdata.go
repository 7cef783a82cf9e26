package exifdata

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"media-gallery/internal/logging"

	exif "github.com/dsoprea/go-exif/v3"
	exifcommon "github.com/dsoprea/go-exif/v3/common"
)

// Standard EXIF tag ids used for numeric-id fallback addressing.
const (
	tagMake             = 0x010f
	tagModel            = 0x0110
	tagOrientation      = 0x0112
	tagDateTime         = 0x0132
	tagExposureTime     = 0x829a
	tagFNumber          = 0x829d
	tagISO              = 0x8827
	tagDateTimeOriginal = 0x9003
	tagFocalLength      = 0x920a
	tagLensModel        = 0xa434
)

// GPS is a decimal-degrees coordinate pair. Present only when both
// latitude and longitude could be read.
type GPS struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Fields are the derived, display-ready metadata values. Zero values mean
// "not present in the source".
type Fields struct {
	Camera       string
	Lens         string
	FocalLength  float64
	Aperture     float64
	ShutterSpeed string
	ISO          int
	DateTaken    *time.Time
	GPS          *GPS
}

// Result carries everything one extraction produced: the derived fields,
// the raw tag tree keyed by IFD section, and the embedded orientation code.
type Result struct {
	Fields      Fields
	RawTags     map[string]interface{}
	Orientation int
}

// Extract reads the EXIF block from the file at path. A missing file
// returns an error satisfying errors.Is(err, os.ErrNotExist); a present
// but undecodable EXIF block propagates the decode error; a file with no
// EXIF at all returns (nil, nil).
func Extract(path string) (*Result, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("source not accessible: %w", err)
	}

	rawExif, err := exif.SearchFileAndExtractExif(path)
	if err != nil {
		if errors.Is(err, exif.ErrNoExif) {
			logging.Debug("no exif block in %s", path)
			return nil, nil
		}
		return nil, fmt.Errorf("exif search failed for %s: %w", path, err)
	}

	im, err := exifcommon.NewIfdMappingWithStandard()
	if err != nil {
		return nil, fmt.Errorf("exif ifd mapping: %w", err)
	}
	ti := exif.NewTagIndex()

	_, index, err := exif.Collect(im, ti, rawExif)
	if err != nil {
		return nil, fmt.Errorf("exif collect failed for %s: %w", path, err)
	}

	tree := newTagTree()
	cb := func(ifd *exif.Ifd, ite *exif.IfdTagEntry) error {
		value, err := ite.Value()
		if err != nil {
			// Undecodable individual tags are skipped, not fatal.
			logging.Debug("skipping undecodable tag %s (0x%04x) in %s: %v",
				ite.TagName(), ite.TagId(), path, err)
			return nil
		}
		tree.add(ite.IfdPath(), ite.TagName(), ite.TagId(), value)
		return nil
	}
	if err := index.RootIfd.EnumerateTagsRecursively(cb); err != nil {
		return nil, fmt.Errorf("exif tag walk failed for %s: %w", path, err)
	}

	res := &Result{
		Fields:      deriveFields(tree),
		RawTags:     tree.sections,
		Orientation: tree.intValue("Orientation", tagOrientation),
	}

	// GPS coordinates come from the dedicated GPS IFD, which knows how to
	// combine the degree/minute/second rationals and hemisphere refs.
	if gpsIfd, err := index.RootIfd.ChildWithIfdPath(exifcommon.IfdGpsInfoStandardIfdIdentity); err == nil {
		if gi, err := gpsIfd.GpsInfo(); err == nil {
			res.Fields.GPS = &GPS{
				Latitude:  gi.Latitude.Decimal(),
				Longitude: gi.Longitude.Decimal(),
			}
		}
	}

	return res, nil
}

// Orientation reads only the embedded orientation code, defaulting to 1.
// Thumbnail generation uses this to avoid collecting the full tag tree.
func Orientation(path string) int {
	res, err := Extract(path)
	if err != nil || res == nil {
		return 1
	}
	if res.Orientation < 1 || res.Orientation > 8 {
		return 1
	}
	return res.Orientation
}

// tagTree stores raw tag values addressable three ways: by IFD section +
// name (the nested tree that gets persisted), by bare name, and by numeric
// tag id.
type tagTree struct {
	sections map[string]interface{}
	byName   map[string]interface{}
	byID     map[uint16]interface{}
}

func newTagTree() *tagTree {
	return &tagTree{
		sections: make(map[string]interface{}),
		byName:   make(map[string]interface{}),
		byID:     make(map[uint16]interface{}),
	}
}

func (t *tagTree) add(ifdPath, name string, id uint16, value interface{}) {
	section, ok := t.sections[ifdPath].(map[string]interface{})
	if !ok {
		section = make(map[string]interface{})
		t.sections[ifdPath] = section
	}
	section[name] = value

	// First writer wins for the flat indexes: IFD0 tags take precedence
	// over thumbnail-IFD duplicates.
	if _, seen := t.byName[name]; !seen {
		t.byName[name] = value
	}
	if _, seen := t.byID[id]; !seen {
		t.byID[id] = value
	}
}

// lookup resolves a tag by name, then by numeric id, then by scanning each
// nested section for the name.
func (t *tagTree) lookup(name string, id uint16) (interface{}, bool) {
	if v, ok := t.byName[name]; ok {
		return v, true
	}
	if v, ok := t.byID[id]; ok {
		return v, true
	}
	for _, section := range t.sections {
		if m, ok := section.(map[string]interface{}); ok {
			if v, ok := m[name]; ok {
				return v, true
			}
		}
	}
	return nil, false
}

func (t *tagTree) stringValue(name string, id uint16) string {
	v, ok := t.lookup(name, id)
	if !ok {
		return ""
	}
	return strings.TrimSpace(coerceString(v))
}

func (t *tagTree) floatValue(name string, id uint16) float64 {
	v, ok := t.lookup(name, id)
	if !ok {
		return 0
	}
	f, _ := coerceFloat(v)
	return f
}

func (t *tagTree) intValue(name string, id uint16) int {
	return int(math.Round(t.floatValue(name, id)))
}

func deriveFields(t *tagTree) Fields {
	f := Fields{
		Lens:        t.stringValue("LensModel", tagLensModel),
		FocalLength: t.floatValue("FocalLength", tagFocalLength),
		Aperture:    t.floatValue("FNumber", tagFNumber),
		ISO:         t.intValue("ISOSpeedRatings", tagISO),
	}

	// Camera is "{make} {model}" when both are present, else whichever is.
	cameraMake := t.stringValue("Make", tagMake)
	cameraModel := t.stringValue("Model", tagModel)
	f.Camera = strings.TrimSpace(cameraMake + " " + cameraModel)

	if f.ISO == 0 {
		// Newer EXIF versions renamed the tag.
		f.ISO = t.intValue("PhotographicSensitivity", tagISO)
	}

	f.ShutterSpeed = deriveShutterSpeed(t.floatValue("ExposureTime", tagExposureTime))

	if ts := parseExifTimestamp(t.stringValue("DateTimeOriginal", tagDateTimeOriginal)); ts != nil {
		f.DateTaken = ts
	} else {
		f.DateTaken = parseExifTimestamp(t.stringValue("DateTime", tagDateTime))
	}

	return f
}

// deriveShutterSpeed formats an exposure time as the conventional "1/N"
// display string. Zero or absent exposure yields "". Exposures of a second
// or longer degenerate to "1/1"; see the known limitation note in the
// package tests.
func deriveShutterSpeed(exposureTime float64) string {
	if exposureTime <= 0 {
		return ""
	}
	return fmt.Sprintf("1/%d", int(math.Round(1/exposureTime)))
}

// parseExifTimestamp parses the "2006:01:02 15:04:05" form EXIF uses.
func parseExifTimestamp(s string) *time.Time {
	if s == "" {
		return nil
	}
	ts, err := time.Parse("2006:01:02 15:04:05", s)
	if err != nil {
		return nil
	}
	return &ts
}

// coerceString renders a raw tag value as a display string regardless of
// its on-disk type.
func coerceString(v interface{}) string {
	switch val := v.(type) {
	case string:
		return val
	case []byte:
		return string(val)
	case []string:
		if len(val) > 0 {
			return val[0]
		}
		return ""
	default:
		return fmt.Sprintf("%v", v)
	}
}

// coerceFloat converts the many numeric encodings EXIF uses (rationals,
// shorts, longs, ASCII numbers) to a float64.
func coerceFloat(v interface{}) (float64, bool) {
	switch val := v.(type) {
	case float64:
		return val, true
	case float32:
		return float64(val), true
	case int:
		return float64(val), true
	case int64:
		return float64(val), true
	case uint16:
		return float64(val), true
	case uint32:
		return float64(val), true
	case []uint16:
		if len(val) > 0 {
			return float64(val[0]), true
		}
	case []uint32:
		if len(val) > 0 {
			return float64(val[0]), true
		}
	case []int:
		if len(val) > 0 {
			return float64(val[0]), true
		}
	case exifcommon.Rational:
		if val.Denominator != 0 {
			return float64(val.Numerator) / float64(val.Denominator), true
		}
	case []exifcommon.Rational:
		if len(val) > 0 && val[0].Denominator != 0 {
			return float64(val[0].Numerator) / float64(val[0].Denominator), true
		}
	case exifcommon.SignedRational:
		if val.Denominator != 0 {
			return float64(val.Numerator) / float64(val.Denominator), true
		}
	case []exifcommon.SignedRational:
		if len(val) > 0 && val[0].Denominator != 0 {
			return float64(val[0].Numerator) / float64(val[0].Denominator), true
		}
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(val), 64); err == nil {
			return f, true
		}
	}
	return 0, false
}
