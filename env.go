package typeset

import "github.com/gogpu/typeset/fontreg"

// Direction selects how the base direction of each paragraph is chosen
// and whether bidirectional reordering is applied.
type Direction uint8

const (
	// DirectionAuto detects the base direction of each paragraph from its
	// first strongly-directional character and applies full bidirectional
	// reordering. This is the default.
	DirectionAuto Direction = iota
	// DirectionLTR forces left-to-right layout with no reordering.
	DirectionLTR
	// DirectionRTL forces right-to-left layout with no reordering.
	DirectionRTL
	// DirectionBidiLTR forces a left-to-right base direction but still
	// reorders embedded right-to-left text.
	DirectionBidiLTR
	// DirectionBidiRTL forces a right-to-left base direction but still
	// reorders embedded left-to-right text.
	DirectionBidiRTL
)

// String returns the string representation of the direction mode.
func (d Direction) String() string {
	switch d {
	case DirectionAuto:
		return "Auto"
	case DirectionLTR:
		return "LTR"
	case DirectionRTL:
		return "RTL"
	case DirectionBidiLTR:
		return "BidiLTR"
	case DirectionBidiRTL:
		return "BidiRTL"
	default:
		return unknownStr
	}
}

// bidiEnabled reports whether bidirectional reordering applies.
func (d Direction) bidiEnabled() bool {
	return d == DirectionAuto || d == DirectionBidiLTR || d == DirectionBidiRTL
}

// Align specifies content alignment along one axis.
type Align uint8

const (
	// AlignDefault aligns to the paragraph's natural edge: start of the
	// base direction horizontally, top vertically.
	AlignDefault Align = iota
	// AlignStart aligns to the left/top edge.
	AlignStart
	// AlignCenter centers content within the bounds.
	AlignCenter
	// AlignEnd aligns to the right/bottom edge.
	AlignEnd
	// AlignJustify stretches lines to the full bound width by widening
	// inter-word gaps. The last line of each paragraph keeps its natural
	// width. Only meaningful horizontally; vertically it behaves like
	// AlignDefault.
	AlignJustify
)

// String returns the string representation of the alignment.
func (a Align) String() string {
	switch a {
	case AlignDefault:
		return "Default"
	case AlignStart:
		return "Start"
	case AlignCenter:
		return "Center"
	case AlignEnd:
		return "End"
	case AlignJustify:
		return "Justify"
	default:
		return unknownStr
	}
}

// Environment collects the layout inputs that are not part of the text
// itself. It is a plain value type; [Text] owns one and mutates it only
// through setters that record the required re-preparation level.
type Environment struct {
	// Bounds is the layout box in device pixels. Either dimension may be
	// [Inf] for unbounded layout. Width participates in wrapping and
	// horizontal alignment, height in vertical alignment only.
	Bounds Vec2

	// Wrap enables line wrapping at Bounds.X. When false, lines break
	// only at explicit paragraph separators.
	Wrap bool

	// HAlign and VAlign align content within Bounds.
	HAlign, VAlign Align

	// Direction selects base-direction handling (see [Direction]).
	Direction Direction

	// DPEm is the font scale in device pixels per em. Formatting spans
	// may scale it per-span via a size factor.
	DPEm float64

	// Font is the default font selector, used where no formatting span
	// overrides it.
	Font fontreg.Selector
}

// DefaultEnvironment returns an environment with unbounded layout,
// wrapping enabled, automatic direction and a 16px em.
func DefaultEnvironment() Environment {
	return Environment{
		Bounds:    Vec2{X: Inf, Y: Inf},
		Wrap:      true,
		Direction: DirectionAuto,
		DPEm:      16,
	}
}
