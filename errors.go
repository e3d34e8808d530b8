package typeset

import (
	"errors"
	"fmt"
)

// Sentinel errors for the typeset package.
var (
	// ErrNotReady is returned when derived layout is read while the text
	// is dirty. Call [Text.Prepare] first.
	ErrNotReady = errors.New("typeset: layout not prepared")

	// ErrNoRegistry is returned when preparation is attempted on a Text
	// without a font registry.
	ErrNoRegistry = errors.New("typeset: no font registry")
)

// InvalidRangeError is returned by navigation and highlight queries when
// a byte offset lies outside the text or not on a character boundary.
// Offsets are never silently clamped since clamping would hide caller bugs.
type InvalidRangeError struct {
	Index uint32
	Len   int
}

func (e *InvalidRangeError) Error() string {
	return fmt.Sprintf("typeset: byte index %d invalid for text of %d bytes", e.Index, e.Len)
}
