package fontreg

import "errors"

// Sentinel errors for the fontreg package.
var (
	// ErrEmptyFontData is returned when font data is empty.
	ErrEmptyFontData = errors.New("fontreg: empty font data")

	// ErrNoFaces is returned when face resolution is attempted on a
	// registry with no loaded faces.
	ErrNoFaces = errors.New("fontreg: registry has no faces")

	// ErrInvalidFace is returned for queries with an unknown FaceID.
	ErrInvalidFace = errors.New("fontreg: invalid face id")
)
