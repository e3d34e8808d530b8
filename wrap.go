package typeset

import (
	"math"
	"sort"
	"unicode"
	"unicode/utf8"

	"github.com/go-text/typesetting/segmenter"

	"github.com/gogpu/typeset/fontreg"
)

// tabIndentSpaces is the indent, in space advances, of a tab opening a
// paragraph. Tabs elsewhere advance a single space width.
const tabIndentSpaces = 8

// runPart is a glyph subrange of a shaped run placed on a line. Parts
// are stored per line in visual (left-to-right screen) order; their
// byte ranges read back in logical order when sorted by Range.Start.
type runPart struct {
	run    uint32 // index into the run list
	lo, hi int    // glyph index range within the run
	rng    Range  // byte subrange covered

	// offset positions the part: a glyph's final position is
	// offset + (glyph.X - originX, glyph.Y), with offset.Y at the
	// baseline.
	offset  Vec2
	originX float64
	// width is the packed advance of the part. For tab parts it is the
	// resolved indent, which the glyph slice cannot provide.
	width float64
}

// Line is one wrapped line of the prepared layout.
type Line struct {
	// Range is the byte range the line covers, including any trailing
	// whitespace and separator.
	Range Range
	// Top and Bottom bound the line vertically; Baseline is the glyph
	// baseline position.
	Top, Bottom, Baseline float64
	// Width is the visible line width, excluding trailing whitespace.
	Width float64
	// LeftX is the left edge of the visible content after alignment.
	LeftX float64

	parts Range // index range into the part list
	base  uint8 // paragraph base level
	hard  bool  // terminated by a hard break
}

// RTL reports whether the line's paragraph base direction is
// right-to-left.
func (l *Line) RTL() bool { return l.base&1 == 1 }

// breakUnit is the indivisible packing unit of the wrapper: a run
// subrange delimited by break opportunities.
type breakUnit struct {
	run     uint32
	lo, hi  int
	rng     Range
	advance float64
	noSpace float64 // advance excluding logically-trailing whitespace
	level   uint8
	base    uint8 // paragraph base level
	wsOnly  bool
	endsGap bool
	special runSpecial
}

// computeBreaks returns the sorted byte offsets of the optional break
// opportunities in text, per UAX #14. Offset 0 and mandatory breaks
// (already isolated as hard-break runs) are not included.
func computeBreaks(text string) []uint32 {
	if text == "" {
		return nil
	}
	runes := []rune(text)
	byteOff := make([]uint32, len(runes)+1)
	off := uint32(0)
	for i, r := range runes {
		byteOff[i] = off
		off += uint32(utf8.RuneLen(r))
	}
	byteOff[len(runes)] = uint32(len(text))

	var seg segmenter.Segmenter
	seg.Init(runes)

	breaks := make([]uint32, 0, len(runes)/4)
	iter := seg.LineIterator()
	for iter.Next() {
		line := iter.Line()
		end := line.Offset + len(line.Text)
		if end < len(runes) && !line.IsMandatoryBreak {
			breaks = append(breaks, byteOff[end])
		}
	}
	sort.Slice(breaks, func(i, j int) bool { return breaks[i] < breaks[j] })
	return breaks
}

// buildUnits splits the shaped runs at break opportunities.
func buildUnits(text string, runs []ShapedRun, paras []paragraphInfo, breaks []uint32) []breakUnit {
	units := make([]breakUnit, 0, len(runs)*2)
	pi := 0
	bi := 0

	for ri := range runs {
		run := &runs[ri]
		for pi+1 < len(paras) && run.Range.Start >= paras[pi].rng.End {
			pi++
		}
		base := paras[pi].base

		if run.special != specialNone {
			units = append(units, breakUnit{
				run:     uint32(ri),
				rng:     run.Range,
				level:   run.Level,
				base:    base,
				wsOnly:  true,
				special: run.special,
			})
			for bi < len(breaks) && breaks[bi] <= run.Range.End {
				bi++
			}
			continue
		}

		if run.Range.Len() == 0 {
			// Empty paragraph: a zero-advance unit keeps the empty line
			// in the layout with the run's face metrics.
			units = append(units, breakUnit{
				run:   uint32(ri),
				rng:   run.Range,
				level: run.Level,
				base:  base,
			})
			continue
		}

		// Split [Range.Start, Range.End) at interior break offsets.
		start := run.Range.Start
		for bi < len(breaks) && breaks[bi] <= start {
			bi++
		}
		for b := bi; ; b++ {
			var end uint32
			if b < len(breaks) && breaks[b] < run.Range.End {
				end = breaks[b]
			} else {
				end = run.Range.End
			}
			if end > start {
				units = append(units, makeUnit(text, runs, uint32(ri), start, end, base))
			}
			start = end
			if end == run.Range.End {
				break
			}
		}
	}
	return units
}

// makeUnit builds one break unit for runs[ri] restricted to [start, end).
func makeUnit(text string, runs []ShapedRun, ri uint32, start, end uint32, base uint8) breakUnit {
	run := &runs[ri]
	lo, hi := run.glyphRange(start, end)
	adv := run.advance(lo, hi)

	// Trailing whitespace of the unit, in logical order.
	sub := text[start:end]
	wsStart := len(sub)
	for wsStart > 0 {
		r, size := utf8.DecodeLastRuneInString(sub[:wsStart])
		if !unicode.IsSpace(r) {
			break
		}
		wsStart -= size
	}
	noSpace := adv
	if wsStart < len(sub) {
		wlo, whi := run.glyphRange(start+uint32(wsStart), end)
		noSpace = adv - run.advance(wlo, whi)
	}

	return breakUnit{
		run:     ri,
		lo:      lo,
		hi:      hi,
		rng:     Range{start, end},
		advance: adv,
		noSpace: noSpace,
		level:   run.Level,
		base:    base,
		wsOnly:  wsStart == 0,
		endsGap: wsStart < len(sub),
	}
}

// lineAdder accumulates break units and flushes finished lines,
// applying metrics, alignment, justification and the per-line visual
// reordering.
type lineAdder struct {
	reg  *fontreg.Registry
	env  Environment
	runs []ShapedRun

	parts []runPart
	lines []Line

	pending []breakUnit
	caret   float64
	y       float64

	longest  float64
	minLeft  float64
	maxRight float64
}

// wrapWidth returns the width lines must fit in, or +Inf.
func (a *lineAdder) wrapWidth() float64 {
	if !a.env.Wrap || math.IsInf(a.env.Bounds.X, 1) {
		return math.Inf(1)
	}
	return a.env.Bounds.X
}

// add packs one unit, flushing a line first when it would not fit.
// Forced overflow: a unit that alone exceeds the width still forms a
// line rather than being silently dropped.
func (a *lineAdder) add(u breakUnit, tabAdvance func(*breakUnit, bool) float64) error {
	if u.special == specialHardBreak {
		a.pending = append(a.pending, u)
		return a.flush(true, true)
	}
	if u.special == specialHTab {
		first := len(a.pending) == 0 && len(a.lines) == 0 ||
			len(a.pending) == 0 && a.lastLineHard()
		adv := tabAdvance(&u, first)
		u.advance, u.noSpace = adv, adv
	}

	if len(a.pending) > 0 && a.caret+u.noSpace > a.wrapWidth() {
		if err := a.flush(false, false); err != nil {
			return err
		}
	}
	a.pending = append(a.pending, u)
	a.caret += u.advance
	return nil
}

// lastLineHard reports whether the previous flushed line ended with a
// hard break, which makes the next unit start a paragraph.
func (a *lineAdder) lastLineHard() bool {
	n := len(a.lines)
	return n == 0 || a.lines[n-1].hard
}

// finish flushes any pending units as the final line.
func (a *lineAdder) finish() error {
	if len(a.pending) == 0 {
		return nil
	}
	return a.flush(true, false)
}

// flush turns the pending units into one positioned line.
func (a *lineAdder) flush(lastOfParagraph, hard bool) error {
	units := a.pending
	a.pending = a.pending[len(a.pending):]
	a.caret = 0
	if len(units) == 0 {
		return nil
	}

	base := units[0].base

	// Visible width: trailing whitespace (and whitespace-only tail
	// units) are excluded for alignment but stay in the byte range.
	vis := 0.0
	lastVisible := -1
	for i := len(units) - 1; i >= 0; i-- {
		if !units[i].wsOnly {
			lastVisible = i
			break
		}
	}
	for i := 0; i <= lastVisible; i++ {
		if i == lastVisible {
			vis += units[i].noSpace
		} else {
			vis += units[i].advance
		}
	}

	// Line metrics: maxima over the distinct faces on the line.
	var ascent, descent, gap float64
	for i := range units {
		run := &a.runs[units[i].run]
		m, err := a.reg.Metrics(run.Face, run.DPEm)
		if err != nil {
			return err
		}
		ascent = math.Max(ascent, m.Ascent)
		descent = math.Max(descent, m.Descent)
		gap = math.Max(gap, m.LineGap)
	}

	// Justification: distribute spare width over inter-word gaps,
	// skipping the final line of each paragraph.
	perGap := 0.0
	if a.env.HAlign == AlignJustify && !lastOfParagraph && !hard &&
		!math.IsInf(a.env.Bounds.X, 1) && a.env.Bounds.X > vis {
		gaps := 0
		for i := 0; i < lastVisible; i++ {
			if units[i].endsGap || units[i].wsOnly {
				gaps++
			}
		}
		if gaps > 0 {
			perGap = (a.env.Bounds.X - vis) / float64(gaps)
		}
	}

	// Per-line L1: trailing whitespace units return to the base level,
	// then L2 reorders units into visual order.
	levels := make([]uint8, len(units))
	for i := range units {
		levels[i] = units[i].level
	}
	for i := len(units) - 1; i >= 0 && units[i].wsOnly; i-- {
		levels[i] = base
	}
	order := visualOrder(levels)

	leftX := a.alignOffset(base, vis)
	caret := leftX
	if base&1 == 1 {
		// Trailing whitespace reverses to the visual start on RTL
		// lines; shift so the visible content still ends at the right
		// alignment edge.
		total := 0.0
		for i := range units {
			total += units[i].advance
		}
		caret = leftX - (total - vis)
	}

	baseline := a.y + gap/2 + ascent
	partStart := uint32(len(a.parts))
	right := leftX
	for _, k := range order {
		u := &units[k]
		originX := 0.0
		if u.lo < u.hi {
			originX = a.runs[u.run].Glyphs[u.lo].X
		}
		a.parts = append(a.parts, runPart{
			run:     u.run,
			lo:      u.lo,
			hi:      u.hi,
			rng:     u.rng,
			offset:  Vec2{X: caret, Y: baseline},
			originX: originX,
			width:   u.advance,
		})
		caret += u.advance
		if perGap > 0 && k < lastVisible && (u.endsGap || u.wsOnly) {
			caret += perGap
		}
		if k < lastVisible {
			right = math.Max(right, caret)
		} else if k == lastVisible {
			right = math.Max(right, caret-(u.advance-u.noSpace))
		}
	}
	if perGap > 0 {
		// Justification spreads the content to the full width.
		vis = right - leftX
	}

	line := Line{
		Range:    Range{units[0].rng.Start, units[len(units)-1].rng.End},
		Top:      a.y,
		Bottom:   baseline + descent + gap/2,
		Baseline: baseline,
		Width:    vis,
		LeftX:    leftX,
		parts:    Range{partStart, uint32(len(a.parts))},
		base:     base,
		hard:     hard,
	}
	a.lines = append(a.lines, line)
	a.y = line.Bottom

	a.longest = math.Max(a.longest, vis)
	if len(a.lines) == 1 || leftX < a.minLeft {
		a.minLeft = leftX
	}
	a.maxRight = math.Max(a.maxRight, leftX+vis)
	return nil
}

// alignOffset computes the left edge of a line's visible content.
func (a *lineAdder) alignOffset(base uint8, vis float64) float64 {
	width := a.env.Bounds.X
	if math.IsInf(width, 1) {
		return 0
	}
	align := a.env.HAlign
	if align == AlignDefault {
		if base&1 == 1 {
			align = AlignEnd
		} else {
			align = AlignStart
		}
	}
	switch align {
	case AlignCenter:
		return (width - vis) / 2
	case AlignEnd:
		return width - vis
	default: // AlignStart, AlignJustify
		return 0
	}
}

// wrapLines runs break-opportunity discovery, packing, alignment and
// reordering over the shaped runs, producing the positioned line list.
func wrapLines(reg *fontreg.Registry, text string, runs []ShapedRun,
	paras []paragraphInfo, env Environment) ([]runPart, []Line, Rect, error) {

	adder := &lineAdder{reg: reg, env: env, runs: runs}
	units := buildUnits(text, runs, paras, computeBreaks(text))

	tabAdvance := func(u *breakUnit, paragraphFirst bool) float64 {
		run := &runs[u.run]
		space := reg.SpaceAdvance(run.Face, run.DPEm)
		if paragraphFirst {
			return space * tabIndentSpaces
		}
		return space
	}

	for _, u := range units {
		if err := adder.add(u, tabAdvance); err != nil {
			return nil, nil, Rect{}, err
		}
	}
	if err := adder.finish(); err != nil {
		return nil, nil, Rect{}, err
	}

	bounds := Rect{
		MinX: adder.minLeft,
		MinY: 0,
		MaxX: adder.maxRight,
		MaxY: adder.y,
	}
	return adder.parts, adder.lines, bounds, nil
}
