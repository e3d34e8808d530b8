package typeset

import (
	"sync"

	"github.com/go-text/typesetting/di"
	"github.com/go-text/typesetting/font"
	"github.com/go-text/typesetting/language"
	"github.com/go-text/typesetting/shaping"
	"golang.org/x/image/math/fixed"

	"github.com/gogpu/typeset/fontreg"
)

// hbState holds the pooled HarfBuzz shapers. HarfbuzzShaper has
// internal mutable state and is NOT safe for concurrent use, but
// reusing instances across sequential calls avoids re-allocating its
// buffers.
type hbState struct {
	pool sync.Pool
}

func (s *hbState) init() {
	s.pool.New = func() any {
		return &shaping.HarfbuzzShaper{}
	}
}

// shapeHarfBuzz shapes a run with go-text/typesetting's HarfBuzz
// implementation. The registry provides the thread-safe *font.Font;
// a lightweight font.Face is created per call since font.Face is not
// safe for concurrent use.
//
// HarfBuzz emits glyphs in visual order (right-to-left input comes out
// reversed), which matches the ShapedRun contract directly. Cluster
// indices are run-relative; the caller rebases them.
func (s *Shaper) shapeHarfBuzz(reg *fontreg.Registry, sub string, face fontreg.FaceID,
	level uint8, script language.Script, dpem float64) *ShapedRun {

	gtFont := reg.Font(face)
	if gtFont == nil {
		return shapeSimple(reg, sub, face, level, script, dpem)
	}

	runes := []rune(sub)
	if level&1 == 1 {
		// Mirrored-pair substitution before shaping.
		for i, r := range runes {
			if m, ok := mirrored(r); ok {
				runes[i] = m
			}
		}
	}

	// Byte offset of each rune, for cluster index conversion.
	byteOff := make([]uint32, len(runes)+1)
	off := uint32(0)
	for i, r := range runes {
		byteOff[i] = off
		off += uint32(len(string(r)))
	}
	byteOff[len(runes)] = uint32(len(sub))

	dir := di.DirectionLTR
	if level&1 == 1 {
		dir = di.DirectionRTL
	}

	input := shaping.Input{
		Text:      runes,
		RunStart:  0,
		RunEnd:    len(runes),
		Direction: dir,
		Face:      font.NewFace(gtFont),
		Size:      floatToFixed(dpem),
		Script:    script,
		Language:  language.NewLanguage("en"),
	}

	hb := s.hb.pool.Get().(*shaping.HarfbuzzShaper)
	output := hb.Shape(input)
	s.hb.pool.Put(hb)

	run := &ShapedRun{
		Range:  Range{0, uint32(len(sub))},
		Level:  level,
		Face:   face,
		Script: script,
		DPEm:   dpem,
	}

	glyphs := make([]Glyph, len(output.Glyphs))
	var x float64
	for i, g := range output.Glyphs {
		adv := fixedToFloat(g.Advance)
		glyphs[i] = Glyph{
			Index:    byteOff[g.TextIndex()],
			ID:       GlyphID(uint16(g.GlyphID)), //nolint:gosec // glyph ids fit uint16 in sfnt fonts
			X:        x + fixedToFloat(g.XOffset),
			Y:        fixedToFloat(g.YOffset),
			XAdvance: adv,
		}
		x += adv
	}
	run.Glyphs = glyphs
	run.Caret = x
	return run
}

// floatToFixed converts a float64 scale to fixed.Int26_6.
func floatToFixed(v float64) fixed.Int26_6 {
	return fixed.Int26_6(v * 64)
}

// fixedToFloat converts a fixed.Int26_6 value to float64.
func fixedToFloat(v fixed.Int26_6) float64 {
	return float64(v) / 64.0
}
