package fontreg

import "strings"

// unknownStr is the string returned for unknown enum values.
const unknownStr = "Unknown"

// Style specifies the slant of a face, following CSS font-style.
type Style uint8

const (
	// StyleNormal is an upright face.
	StyleNormal Style = iota
	// StyleItalic is a cursive face.
	StyleItalic
	// StyleOblique is a slanted version of the regular face.
	StyleOblique
)

// String returns the string representation of the style.
func (s Style) String() string {
	switch s {
	case StyleNormal:
		return "Normal"
	case StyleItalic:
		return "Italic"
	case StyleOblique:
		return "Oblique"
	default:
		return unknownStr
	}
}

// Weight is a CSS-style font weight. Zero means "unset" and matches
// like WeightNormal.
type Weight uint16

// Common weight values.
const (
	WeightThin     Weight = 100
	WeightLight    Weight = 300
	WeightNormal   Weight = 400
	WeightMedium   Weight = 500
	WeightSemiBold Weight = 600
	WeightBold     Weight = 700
	WeightBlack    Weight = 900
)

// Selector describes the desired font face, CSS-like. The zero value
// selects any face with normal weight and style.
type Selector struct {
	// Families are tried in order; the first family with a loaded face
	// wins. Matching is case-insensitive. Empty means "any family".
	Families []string

	// Weight to match; zero behaves as WeightNormal.
	Weight Weight

	// Style to match.
	Style Style
}

// Equal reports whether two selectors describe the same face criteria.
// The run segmenter uses it to detect formatting-span boundaries that
// require a fresh face resolution.
func (s Selector) Equal(o Selector) bool {
	if s.Weight != o.Weight || s.Style != o.Style || len(s.Families) != len(o.Families) {
		return false
	}
	for i := range s.Families {
		if !strings.EqualFold(s.Families[i], o.Families[i]) {
			return false
		}
	}
	return true
}

// effectiveWeight returns the weight with the zero value defaulted.
func (s Selector) effectiveWeight() Weight {
	if s.Weight == 0 {
		return WeightNormal
	}
	return s.Weight
}
