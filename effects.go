package typeset

import (
	"sort"

	"github.com/gogpu/typeset/fontreg"
)

// EffectFlags is a bit set of visual effects applied to a glyph range.
type EffectFlags uint16

const (
	// EffectUnderline draws a line under the glyphs.
	EffectUnderline EffectFlags = 1 << iota
	// EffectStrikethrough draws a line through the glyphs.
	EffectStrikethrough
)

// Effect is one token of an effect stream: from byte offset Start
// until the next token's start, the given state applies.
//
// Tokens carry the fully resolved absolute state, not a delta. Glyph
// iteration walks lines in visual order, which visits right-to-left
// runs against logical order; deltas would be applied out of order and
// desynchronize the state.
//
// Aux is an opaque payload (typically a color index) handed back to the
// draw callback unchanged.
type Effect struct {
	Start uint32
	Flags EffectFlags
	Aux   uint32
}

// MergeEffects combines a formatting-time stream (parser-supplied
// spans) with a draw-time stream (selection, highlighting) into one
// stream ordered by start offset. Both inputs must be ordered by Start.
// Flags are combined by union; Aux is taken from the draw-time stream
// where it has an active token, else from the formatting stream.
func MergeEffects(format, draw []Effect) []Effect {
	if len(draw) == 0 {
		return append([]Effect(nil), format...)
	}
	if len(format) == 0 {
		return append([]Effect(nil), draw...)
	}

	starts := make([]uint32, 0, len(format)+len(draw))
	for _, e := range format {
		starts = append(starts, e.Start)
	}
	for _, e := range draw {
		starts = append(starts, e.Start)
	}
	sort.Slice(starts, func(i, j int) bool { return starts[i] < starts[j] })

	merged := make([]Effect, 0, len(starts))
	for _, s := range starts {
		if n := len(merged); n > 0 && merged[n-1].Start == s {
			continue
		}
		fa, fok := activeAt(format, s)
		da, dok := activeAt(draw, s)
		e := Effect{Start: s}
		if fok {
			e.Flags |= fa.Flags
			e.Aux = fa.Aux
		}
		if dok {
			e.Flags |= da.Flags
			e.Aux = da.Aux
		}
		merged = append(merged, e)
	}
	return merged
}

// activeAt returns the token of the stream governing offset s.
func activeAt(stream []Effect, s uint32) (Effect, bool) {
	i := sort.Search(len(stream), func(i int) bool { return stream[i].Start > s })
	if i == 0 {
		return Effect{}, false
	}
	return stream[i-1], true
}

// effectAt resolves the absolute state governing byte index i, given a
// stream ordered by Start. Offsets before the first token have no
// effect.
func effectAt(stream []Effect, i uint32) Effect {
	e, _ := activeAt(stream, i)
	return e
}

// GlyphsWithEffects walks the positioned glyphs like
// [Text.ForEachGlyph] but additionally resolves the absolute effect
// state per glyph and emits underline and strikethrough segments.
//
// effects is an absolute-state stream ordered by Start, typically the
// source's formatting tokens merged with draw-time tokens via
// MergeEffects. glyph is called for every positioned glyph with its
// resolved state. line is called once per contiguous decorated segment
// with the segment's horizontal extent, vertical position and the face
// to take line thickness from. Either callback may be nil.
func (t *Text) GlyphsWithEffects(effects []Effect,
	glyph func(face fontreg.FaceID, dpem float64, g Glyph, e Effect),
	line func(x1, x2, y float64, face fontreg.FaceID, dpem float64, flags EffectFlags, aux uint32)) error {

	if err := t.ready(); err != nil {
		return err
	}

	for li := range t.lines {
		ln := &t.lines[li]
		for pi := ln.parts.Start; pi < ln.parts.End; pi++ {
			part := &t.parts[pi]
			run := &t.runs[part.run]
			if part.lo >= part.hi {
				continue
			}

			var (
				segFlags EffectFlags
				segAux   uint32
				segX     float64
			)
			baseline := part.offset.Y + t.vOffset

			flush := func(endX float64) {
				if segFlags == 0 || line == nil {
					return
				}
				x1, x2 := segX, endX
				if x2 < x1 {
					x1, x2 = x2, x1
				}
				m, err := t.reg.Metrics(run.Face, run.DPEm)
				if err != nil {
					Logger().Warn("typeset: dropping decoration segment, metrics unavailable",
						"face", run.Face, "error", err)
					return
				}
				if segFlags&EffectUnderline != 0 {
					line(x1, x2, baseline+m.Descent/2, run.Face, run.DPEm, EffectUnderline, segAux)
				}
				if segFlags&EffectStrikethrough != 0 {
					line(x1, x2, baseline-m.Ascent/3, run.Face, run.DPEm, EffectStrikethrough, segAux)
				}
			}

			for gi := part.lo; gi < part.hi; gi++ {
				g := run.Glyphs[gi]
				gx := part.offset.X + g.X - part.originX
				e := effectAt(effects, g.Index)
				if glyph != nil {
					pg := g
					pg.X = gx
					pg.Y = baseline + g.Y
					glyph(run.Face, run.DPEm, pg, e)
				}
				if e.Flags != segFlags || e.Aux != segAux {
					flush(gx)
					segFlags, segAux, segX = e.Flags, e.Aux, gx
				}
			}
			last := run.Glyphs[part.hi-1]
			flush(part.offset.X + last.X - part.originX + last.XAdvance)
		}
	}
	return nil
}
