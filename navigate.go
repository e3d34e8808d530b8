package typeset

import (
	"fmt"
	"math"
	"sort"
	"unicode/utf8"
)

// MarkerPos is one caret position for a byte index: the baseline
// position plus the vertical extent and embedding level of the
// adjoining part, so callers can draw a caret of the right height and
// slant direction.
type MarkerPos struct {
	// Pos is the caret position at the baseline.
	Pos Vec2
	// Ascent and Descent give the caret's vertical extent above and
	// below Pos.Y.
	Ascent, Descent float64
	// Level is the embedding level of the part the marker adjoins; odd
	// means RTL.
	Level uint8
}

// validIndex rejects byte offsets outside the text or not on a
// character boundary.
func (t *Text) validIndex(index uint32) error {
	n := len(t.text)
	if int(index) > n || (int(index) < n && !utf8.RuneStart(t.text[index])) {
		return &InvalidRangeError{Index: index, Len: n}
	}
	return nil
}

// FindLine returns the index of the line containing the byte index.
// At a soft wrap boundary the index belongs to the continuation line.
func (t *Text) FindLine(index uint32) (int, error) {
	if err := t.ready(); err != nil {
		return 0, err
	}
	if err := t.validIndex(index); err != nil {
		return 0, err
	}
	return t.findLine(index), nil
}

func (t *Text) findLine(index uint32) int {
	li := sort.Search(len(t.lines), func(k int) bool {
		return t.lines[k].Range.End > index
	})
	if li == len(t.lines) {
		li = len(t.lines) - 1
	}
	return li
}

// caretInPart returns the caret x before byte index i within the
// part. Requires part.rng.Start <= i <= part.rng.End.
func (t *Text) caretInPart(p *runPart, i uint32) float64 {
	run := &t.runs[p.run]
	left := p.offset.X
	right := left + p.width
	rtl := run.Level&1 == 1

	if p.lo >= p.hi {
		// Glyph-less part (tab, hard break, empty line).
		if (i >= p.rng.End) != rtl {
			return right
		}
		return left
	}

	if rtl {
		// Cluster indices decrease left to right: glyphs at or after i
		// form a visual prefix, and the caret sits at its right edge.
		x := left
		for g := p.lo; g < p.hi && run.Glyphs[g].Index >= i; g++ {
			x = p.offset.X + run.Glyphs[g].X - p.originX + run.Glyphs[g].XAdvance
		}
		return x
	}
	for g := p.lo; g < p.hi; g++ {
		if run.Glyphs[g].Index >= i {
			return p.offset.X + run.Glyphs[g].X - p.originX
		}
	}
	return right
}

// markerFor builds the marker for a caret at x adjoining the given
// part.
func (t *Text) markerFor(p *runPart, line *Line, x float64) (MarkerPos, error) {
	run := &t.runs[p.run]
	m, err := t.reg.Metrics(run.Face, run.DPEm)
	if err != nil {
		return MarkerPos{}, err
	}
	return MarkerPos{
		Pos:     Vec2{X: x, Y: line.Baseline + t.vOffset},
		Ascent:  m.Ascent,
		Descent: m.Descent,
		Level:   run.Level,
	}, nil
}

// GlyphPos returns the caret positions for a byte index. Most indices
// yield one marker; an index on the boundary between parts of
// different embedding levels yields two, one per adjoining part, since
// the two sides of a direction boundary disagree about where "before
// this character" is on screen.
func (t *Text) GlyphPos(index uint32) ([]MarkerPos, error) {
	if err := t.ready(); err != nil {
		return nil, err
	}
	if err := t.validIndex(index); err != nil {
		return nil, err
	}
	if len(t.lines) == 0 {
		return nil, nil
	}

	line := &t.lines[t.findLine(index)]
	markers := make([]MarkerPos, 0, 2)
	for pi := line.parts.Start; pi < line.parts.End; pi++ {
		part := &t.parts[pi]
		if index < part.rng.Start || index > part.rng.End {
			continue
		}
		x := t.caretInPart(part, index)
		m, err := t.markerFor(part, line, x)
		if err != nil {
			return nil, err
		}
		dup := false
		for _, prev := range markers {
			if prev.Level == m.Level && math.Abs(prev.Pos.X-m.Pos.X) < 1e-6 {
				dup = true
				break
			}
		}
		if !dup {
			markers = append(markers, m)
		}
		if len(markers) == 2 {
			break
		}
	}
	return markers, nil
}

// caretEnd returns the last caret index on a line: the line end minus
// its hard-break separator, so the caret never lands past the visible
// content onto the next line.
func (t *Text) caretEnd(line *Line) uint32 {
	e := line.Range.End
	if !line.hard || e == line.Range.Start {
		return e
	}
	r, size := utf8.DecodeLastRuneInString(t.text[:e])
	if isHardBreak(r) {
		e -= uint32(size)
		if r == '\n' && e > line.Range.Start && t.text[e-1] == '\r' {
			e--
		}
	}
	return e
}

// caretOnLine returns the caret x for index on the given line,
// preferring a part that contains the index over one that merely
// borders it.
func (t *Text) caretOnLine(line *Line, index uint32) float64 {
	boundary := math.NaN()
	for pi := line.parts.Start; pi < line.parts.End; pi++ {
		part := &t.parts[pi]
		if index >= part.rng.Start && index < part.rng.End {
			return t.caretInPart(part, index)
		}
		if math.IsNaN(boundary) && index >= part.rng.Start && index <= part.rng.End {
			boundary = t.caretInPart(part, index)
		}
	}
	if math.IsNaN(boundary) {
		return line.LeftX
	}
	return boundary
}

// lineNearest returns the index of the line vertically nearest y
// (already vertical-alignment corrected).
func (t *Text) lineNearest(y float64) int {
	li := sort.Search(len(t.lines), func(k int) bool {
		return t.lines[k].Bottom >= y
	})
	if li == len(t.lines) {
		li = len(t.lines) - 1
	}
	return li
}

// LineIndexNearest returns the byte index on the given line whose
// caret position is horizontally nearest x. The rightmost position of
// a line resolves to the line's logical caret end, not merely the last
// visual glyph.
func (t *Text) LineIndexNearest(line int, x float64) (uint32, error) {
	if err := t.ready(); err != nil {
		return 0, err
	}
	if line < 0 || line >= len(t.lines) {
		return 0, fmt.Errorf("typeset: line %d out of range [0, %d)", line, len(t.lines))
	}
	return t.indexNearestOnLine(&t.lines[line], x), nil
}

func (t *Text) indexNearestOnLine(line *Line, x float64) uint32 {
	best := line.Range.Start
	bestDist := math.Inf(1)
	consider := func(i uint32) {
		d := math.Abs(t.caretOnLine(line, i) - x)
		if d < bestDist {
			best, bestDist = i, d
		}
	}

	end := t.caretEnd(line)
	for i := line.Range.Start; i < end; {
		consider(i)
		_, size := utf8.DecodeRuneInString(t.text[i:])
		i += uint32(size)
	}
	consider(end)
	return best
}

// IndexNearest returns the byte index whose caret position is nearest
// the given point.
func (t *Text) IndexNearest(pos Vec2) (uint32, error) {
	if err := t.ready(); err != nil {
		return 0, err
	}
	if len(t.lines) == 0 {
		return 0, nil
	}
	li := t.lineNearest(pos.Y - t.vOffset)
	return t.indexNearestOnLine(&t.lines[li], pos.X), nil
}

// HighlightRange returns rectangles covering the glyphs of the byte
// range [start, end). Rectangles are aligned to visual parts, so a
// bidirectional range produces several per line; horizontally adjacent
// rectangles on a line are merged.
func (t *Text) HighlightRange(start, end uint32) ([]Rect, error) {
	if err := t.ready(); err != nil {
		return nil, err
	}
	if err := t.validIndex(start); err != nil {
		return nil, err
	}
	if err := t.validIndex(end); err != nil {
		return nil, err
	}
	if start > end {
		return nil, &InvalidRangeError{Index: start, Len: len(t.text)}
	}

	const eps = 1e-6
	var rects []Rect
	for li := range t.lines {
		line := &t.lines[li]
		if line.Range.End <= start || line.Range.Start >= end {
			continue
		}
		lineFirst := len(rects)
		for pi := line.parts.Start; pi < line.parts.End; pi++ {
			part := &t.parts[pi]
			lo := maxU32(start, part.rng.Start)
			hi := minU32(end, part.rng.End)
			if lo >= hi {
				continue
			}
			x1 := t.caretInPart(part, lo)
			x2 := t.caretInPart(part, hi)
			if x2 < x1 {
				x1, x2 = x2, x1
			}
			// Trailing whitespace stays in the byte range but not in the
			// visible extent; clamp to it.
			x1 = math.Max(x1, line.LeftX)
			x2 = math.Min(x2, line.LeftX+line.Width)
			if x2-x1 < eps {
				continue
			}
			r := Rect{
				MinX: x1,
				MinY: line.Top + t.vOffset,
				MaxX: x2,
				MaxY: line.Bottom + t.vOffset,
			}
			// Parts come in visual order, so an adjacent rectangle to
			// merge with is the previous one on this line.
			if n := len(rects); n > lineFirst && math.Abs(rects[n-1].MaxX-r.MinX) < eps {
				rects[n-1].MaxX = r.MaxX
				continue
			}
			rects = append(rects, r)
		}
	}
	return rects, nil
}

func maxU32(a, b uint32) uint32 {
	if a > b {
		return a
	}
	return b
}

func minU32(a, b uint32) uint32 {
	if a < b {
		return a
	}
	return b
}
