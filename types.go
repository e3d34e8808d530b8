package typeset

import "math"

// unknownStr is the string returned for unknown enum values.
const unknownStr = "Unknown"

// GlyphID identifies a glyph within a font face.
type GlyphID uint16

// Vec2 is a 2D vector in device pixels.
type Vec2 struct {
	X, Y float64
}

// Add returns the component-wise sum of v and o.
func (v Vec2) Add(o Vec2) Vec2 {
	return Vec2{v.X + o.X, v.Y + o.Y}
}

// Inf is the unbounded dimension value for [Environment.Bounds].
var Inf = math.Inf(1)

// Range is a half-open byte range [Start, End) into the source text.
type Range struct {
	Start, End uint32
}

// Len returns the number of bytes covered by the range.
func (r Range) Len() int {
	return int(r.End) - int(r.Start)
}

// Contains reports whether the byte index i lies within the range.
func (r Range) Contains(i uint32) bool {
	return r.Start <= i && i < r.End
}

// Glyph is one positioned glyph produced by shaping.
//
// Index is the byte offset of the glyph's cluster in the source text.
// Glyphs are stored in left-to-right visual order within their run;
// for right-to-left runs Index therefore decreases across the slice.
// X and Y position the glyph relative to the run origin at the
// baseline; XAdvance is the horizontal pen advance for this glyph.
type Glyph struct {
	Index    uint32
	ID       GlyphID
	X, Y     float64
	XAdvance float64
}

// Rect represents an axis-aligned rectangle.
type Rect struct {
	// Min is the top-left corner
	MinX, MinY float64
	// Max is the bottom-right corner
	MaxX, MaxY float64
}

// Width returns the width of the rectangle.
func (r Rect) Width() float64 {
	return r.MaxX - r.MinX
}

// Height returns the height of the rectangle.
func (r Rect) Height() float64 {
	return r.MaxY - r.MinY
}

// Empty reports whether the rectangle is empty.
func (r Rect) Empty() bool {
	return r.MinX >= r.MaxX || r.MinY >= r.MaxY
}
