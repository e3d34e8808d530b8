package typeset

// DirtyLevel records how much of the preparation pipeline must re-run
// before derived layout may be read again. Levels form a total order:
// each higher level implies all the work of the lower ones. Mutations
// only ever raise the level; [Text.Prepare] resets it to Clean.
type DirtyLevel uint8

const (
	// Clean means all derived layout is valid.
	Clean DirtyLevel = iota
	// VAlignDirty requires re-running vertical alignment only
	// (bounds height or vertical alignment changed).
	VAlignDirty
	// WrapDirty requires re-wrapping lines and re-aligning
	// (bounds width, wrap flag or horizontal alignment changed);
	// cached shaped runs are reused.
	WrapDirty
	// RunsDirty requires re-segmenting and re-shaping runs
	// (formatting spans, font or dpem changed); the cached paragraph
	// split and embedding levels are reused.
	RunsDirty
	// AllDirty requires the full pipeline including the paragraph
	// split and bidirectional resolution (text or direction changed).
	AllDirty
)

// String returns the string representation of the dirty level.
func (l DirtyLevel) String() string {
	switch l {
	case Clean:
		return "Clean"
	case VAlignDirty:
		return "VAlignDirty"
	case WrapDirty:
		return "WrapDirty"
	case RunsDirty:
		return "RunsDirty"
	case AllDirty:
		return "AllDirty"
	default:
		return unknownStr
	}
}

// max returns the higher of two dirty levels.
func (l DirtyLevel) max(o DirtyLevel) DirtyLevel {
	if o > l {
		return o
	}
	return l
}
