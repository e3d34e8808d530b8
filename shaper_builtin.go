package typeset

import (
	"github.com/go-text/typesetting/language"

	"github.com/gogpu/typeset/fontreg"
)

// shapeSimple is the internal shaping backend: one glyph per codepoint
// with kerning-pair adjustment between logical neighbours, no ligature
// formation. Codepoints with a mirrored counterpart are substituted
// when the run is right-to-left. Characters the face does not cover
// shape as the notdef glyph (index 0).
//
// Cluster indices are run-relative; the caller rebases them.
func shapeSimple(reg *fontreg.Registry, sub string, face fontreg.FaceID,
	level uint8, script language.Script, dpem float64) *ShapedRun {

	run := &ShapedRun{
		Range:  Range{0, uint32(len(sub))},
		Level:  level,
		Face:   face,
		Script: script,
		DPEm:   dpem,
	}
	rtl := level&1 == 1

	// First pass, logical order: glyph ids and advances with kerning
	// folded into the preceding glyph's advance.
	glyphs := make([]Glyph, 0, len(sub))
	prevGID := uint16(0)
	havePrev := false
	for i, r := range sub {
		if isSkippedControl(r) {
			havePrev = false
			continue
		}
		if rtl {
			if m, ok := mirrored(r); ok {
				r = m
			}
		}
		gid, ok := reg.GlyphID(face, r)
		if !ok {
			Logger().Warn("typeset: missing glyph, using notdef",
				"rune", string(r), "face", reg.FaceName(face))
		}
		adv := reg.Advance(face, gid, dpem)
		if havePrev {
			if k := reg.Kern(face, prevGID, gid, dpem); k != 0 {
				glyphs[len(glyphs)-1].XAdvance += k
			}
		}
		glyphs = append(glyphs, Glyph{
			Index:    uint32(i),
			ID:       GlyphID(gid),
			XAdvance: adv,
		})
		prevGID, havePrev = gid, true
	}

	// Second pass: visual order and positions. RTL runs reverse so the
	// glyph slice reads left to right on screen.
	if rtl {
		for a, b := 0, len(glyphs)-1; a < b; a, b = a+1, b-1 {
			glyphs[a], glyphs[b] = glyphs[b], glyphs[a]
		}
	}
	var x float64
	for i := range glyphs {
		glyphs[i].X = x
		x += glyphs[i].XAdvance
	}

	run.Glyphs = glyphs
	run.Caret = x
	return run
}
