package raster

import (
	"image"

	"github.com/disintegration/imaging"
)

// Orientation is an EXIF orientation code (tag 0x0112), value 1-8.
// Absent or unrecognized codes are treated as OrientationNormal.
type Orientation int

const (
	// OrientationNormal is the identity orientation.
	OrientationNormal Orientation = 1
)

// NormalizeOrientation clamps a raw orientation value to the valid 1-8
// range, substituting the identity for anything else.
func NormalizeOrientation(code int) Orientation {
	if code < 1 || code > 8 {
		return OrientationNormal
	}
	return Orientation(code)
}

// Swapped reports whether the orientation swaps width and height
// (codes 5-8 involve a 90 or 270 degree rotation).
func (o Orientation) Swapped() bool {
	return o >= 5 && o <= 8
}

// Orient applies the pixel transform for the given EXIF orientation code.
// imaging's Rotate functions rotate counter-clockwise, so code 6
// (90 degrees clockwise) maps to Rotate270 and code 8 to Rotate90.
func Orient(img image.Image, o Orientation) image.Image {
	switch o {
	case 2:
		return imaging.FlipH(img)
	case 3:
		return imaging.Rotate180(img)
	case 4:
		return imaging.FlipV(img)
	case 5:
		// 90 degrees clockwise, then flip horizontal
		return imaging.Transpose(img)
	case 6:
		return imaging.Rotate270(img)
	case 7:
		// 270 degrees clockwise, then flip horizontal
		return imaging.Transverse(img)
	case 8:
		return imaging.Rotate90(img)
	default:
		return img
	}
}
