package typeset

import (
	"fmt"
	"math"

	"github.com/gogpu/typeset/fontreg"
)

// Text owns a formatted source and its layout cache: paragraphs,
// embedding levels, shaped runs, wrapped lines and the content bounds.
// The cache is rebuilt lazily by Prepare according to the recorded
// dirty level, so changing only the width re-wraps without re-shaping
// and changing only vertical alignment is near-free.
//
// Text is not safe for concurrent use. The registry and shaper it
// references are, and may be shared between texts.
type Text struct {
	env    Environment
	src    FormattedText
	reg    *fontreg.Registry
	shaper *Shaper

	dirty DirtyLevel

	text    string
	levels  []uint8
	paras   []paragraphInfo
	runs    []ShapedRun
	parts   []runPart
	lines   []Line
	bounds  Rect
	vOffset float64
}

// TextOption configures a Text.
type TextOption func(*Text)

// WithRegistry sets the font registry the text resolves faces through.
func WithRegistry(reg *fontreg.Registry) TextOption {
	return func(t *Text) { t.reg = reg }
}

// WithShaper sets the shaper. Defaults to a builtin shaper without a
// run cache.
func WithShaper(s *Shaper) TextOption {
	return func(t *Text) { t.shaper = s }
}

// WithEnvironment sets the initial display environment.
func WithEnvironment(env Environment) TextOption {
	return func(t *Text) { t.env = env }
}

// New creates a text object over src. The layout starts at AllDirty;
// call Prepare before reading derived state.
func New(src FormattedText, opts ...TextOption) *Text {
	t := &Text{
		env:   DefaultEnvironment(),
		src:   src,
		dirty: AllDirty,
	}
	for _, opt := range opts {
		opt(t)
	}
	if t.shaper == nil {
		t.shaper = NewShaper(ShaperBuiltin)
	}
	return t
}

// Environment returns a copy of the current display environment.
func (t *Text) Environment() Environment { return t.env }

// Source returns the formatted source.
func (t *Text) Source() FormattedText { return t.src }

// Status returns the current dirty level.
func (t *Text) Status() DirtyLevel { return t.dirty }

// mark raises the dirty level; it never lowers it.
func (t *Text) mark(level DirtyLevel) {
	t.dirty = t.dirty.max(level)
}

// Invalidate raises the dirty level explicitly. Callers that mutate
// the source in place (for example span edits on a FormattedString)
// use this to record the required re-preparation.
func (t *Text) Invalidate(level DirtyLevel) { t.mark(level) }

// SetSource replaces the formatted source.
func (t *Text) SetSource(src FormattedText) {
	t.src = src
	t.mark(AllDirty)
}

// SetDirection sets the base-direction policy. Levels depend on it,
// so the whole pipeline reruns.
func (t *Text) SetDirection(d Direction) {
	if t.env.Direction == d {
		return
	}
	t.env.Direction = d
	t.mark(AllDirty)
}

// SetFont sets the default font selector.
func (t *Text) SetFont(sel fontreg.Selector) {
	if t.env.Font.Equal(sel) {
		return
	}
	t.env.Font = sel
	t.mark(RunsDirty)
}

// SetDPEm sets the default scale in pixels per em.
func (t *Text) SetDPEm(dpem float64) {
	if t.env.DPEm == dpem {
		return
	}
	t.env.DPEm = dpem
	t.mark(RunsDirty)
}

// SetBounds sets the bounding box. A width change re-wraps; a pure
// height change only re-aligns vertically.
func (t *Text) SetBounds(bounds Vec2) {
	if t.env.Bounds.X != bounds.X {
		t.mark(WrapDirty)
	} else if t.env.Bounds.Y != bounds.Y {
		t.mark(VAlignDirty)
	}
	t.env.Bounds = bounds
}

// SetWrap enables or disables line wrapping.
func (t *Text) SetWrap(wrap bool) {
	if t.env.Wrap == wrap {
		return
	}
	t.env.Wrap = wrap
	t.mark(WrapDirty)
}

// SetHAlign sets horizontal alignment.
func (t *Text) SetHAlign(align Align) {
	if t.env.HAlign == align {
		return
	}
	t.env.HAlign = align
	t.mark(WrapDirty)
}

// SetVAlign sets vertical alignment.
func (t *Text) SetVAlign(align Align) {
	if t.env.VAlign == align {
		return
	}
	t.env.VAlign = align
	t.mark(VAlignDirty)
}

// SetEnvironment replaces the whole environment, recording the minimal
// dirty level implied by the fields that actually changed.
func (t *Text) SetEnvironment(env Environment) {
	t.SetDirection(env.Direction)
	t.SetFont(env.Font)
	t.SetDPEm(env.DPEm)
	t.SetBounds(env.Bounds)
	t.SetWrap(env.Wrap)
	t.SetHAlign(env.HAlign)
	t.SetVAlign(env.VAlign)
}

// Prepare rebuilds exactly the stale suffix of the pipeline and resets
// the dirty level to Clean. Each stage is a pure function of its
// inputs and the previous stage's cached output, so repeated calls are
// idempotent.
func (t *Text) Prepare() error {
	if t.dirty == Clean {
		return nil
	}
	if t.dirty >= RunsDirty {
		if err := t.prepareRuns(); err != nil {
			return err
		}
	}
	if t.dirty >= WrapDirty {
		if err := t.prepareWrap(); err != nil {
			return err
		}
	}
	t.prepareVAlign()
	t.dirty = Clean
	return nil
}

// prepareRuns runs BIDI resolution, segmentation and shaping. At
// AllDirty the text snapshot, paragraph split and levels are rebuilt;
// at RunsDirty they are reused.
func (t *Text) prepareRuns() error {
	if t.reg == nil {
		return ErrNoRegistry
	}
	if t.dirty >= AllDirty {
		t.text = t.src.Text()
		t.levels, t.paras = resolveAllLevels(t.text, t.env.Direction)
	}
	tokens := t.src.FontTokens(t.env.DPEm, t.env.Font)
	runs, err := segmentRuns(t.reg, t.shaper, t.text, t.levels, t.paras, tokens, t.env)
	if err != nil {
		return err
	}
	t.runs = runs
	t.dirty = WrapDirty
	return nil
}

// prepareWrap wraps the cached runs into lines.
func (t *Text) prepareWrap() error {
	parts, lines, bounds, err := wrapLines(t.reg, t.text, t.runs, t.paras, t.env)
	if err != nil {
		return err
	}
	t.parts = parts
	t.lines = lines
	t.bounds = bounds
	t.dirty = VAlignDirty
	return nil
}

// prepareVAlign computes the vertical offset of the content block
// within the bounding box. Line coordinates are stored unaligned; the
// offset is applied on read, which keeps this stage allocation-free.
func (t *Text) prepareVAlign() {
	height := t.env.Bounds.Y
	if math.IsInf(height, 1) {
		t.vOffset = 0
		return
	}
	content := t.bounds.MaxY
	switch t.env.VAlign {
	case AlignCenter:
		t.vOffset = (height - content) / 2
	case AlignEnd:
		t.vOffset = height - content
	default:
		t.vOffset = 0
	}
}

// ready fails with ErrNotReady unless the layout is Clean. Derived
// reads never prepare implicitly; preparation is an observable
// mutation and stays explicit.
func (t *Text) ready() error {
	if t.dirty != Clean {
		return ErrNotReady
	}
	return nil
}

// NumLines returns the number of wrapped lines.
func (t *Text) NumLines() (int, error) {
	if err := t.ready(); err != nil {
		return 0, err
	}
	return len(t.lines), nil
}

// NumGlyphs returns the total glyph count over all runs.
func (t *Text) NumGlyphs() (int, error) {
	if err := t.ready(); err != nil {
		return 0, err
	}
	n := 0
	for i := range t.runs {
		n += len(t.runs[i].Glyphs)
	}
	return n, nil
}

// Lines returns the wrapped lines with vertical alignment applied.
func (t *Text) Lines() ([]Line, error) {
	if err := t.ready(); err != nil {
		return nil, err
	}
	lines := make([]Line, len(t.lines))
	copy(lines, t.lines)
	for i := range lines {
		lines[i].Top += t.vOffset
		lines[i].Bottom += t.vOffset
		lines[i].Baseline += t.vOffset
	}
	return lines, nil
}

// BoundingBox returns the content bounds with vertical alignment
// applied.
func (t *Text) BoundingBox() (Rect, error) {
	if err := t.ready(); err != nil {
		return Rect{}, err
	}
	b := t.bounds
	b.MinY += t.vOffset
	b.MaxY += t.vOffset
	return b, nil
}

// TextIsRTL reports whether the first paragraph's base direction is
// right-to-left.
func (t *Text) TextIsRTL() (bool, error) {
	if err := t.ready(); err != nil {
		return false, err
	}
	return len(t.paras) > 0 && t.paras[0].base&1 == 1, nil
}

// LineIsRTL reports whether the given line's paragraph base direction
// is right-to-left.
func (t *Text) LineIsRTL(line int) (bool, error) {
	if err := t.ready(); err != nil {
		return false, err
	}
	if line < 0 || line >= len(t.lines) {
		return false, fmt.Errorf("typeset: line %d out of range [0, %d)", line, len(t.lines))
	}
	return t.lines[line].RTL(), nil
}

// LineRange returns the byte range covered by the given line,
// including trailing whitespace and separators.
func (t *Text) LineRange(line int) (Range, error) {
	if err := t.ready(); err != nil {
		return Range{}, err
	}
	if line < 0 || line >= len(t.lines) {
		return Range{}, fmt.Errorf("typeset: line %d out of range [0, %d)", line, len(t.lines))
	}
	return t.lines[line].Range, nil
}

// GlyphRun is a positioned view of one run part: a line-local glyph
// slice with absolute positions, ready for rastering.
type GlyphRun struct {
	// Face and DPEm identify the face and scale to raster with.
	Face fontreg.FaceID
	DPEm float64
	// Level is the part's embedding level; odd means RTL.
	Level uint8
	// Line is the index of the line the part sits on.
	Line int
	// Range is the byte subrange the part covers.
	Range Range
	// Glyphs are the part's glyphs with absolute positions.
	Glyphs []Glyph
}

// Runs returns positioned glyph runs, in visual order within each line
// and line order across lines.
func (t *Text) Runs() ([]GlyphRun, error) {
	if err := t.ready(); err != nil {
		return nil, err
	}
	out := make([]GlyphRun, 0, len(t.parts))
	for li := range t.lines {
		line := &t.lines[li]
		for pi := line.parts.Start; pi < line.parts.End; pi++ {
			part := &t.parts[pi]
			run := &t.runs[part.run]
			if part.lo >= part.hi {
				continue
			}
			glyphs := make([]Glyph, part.hi-part.lo)
			copy(glyphs, run.Glyphs[part.lo:part.hi])
			for gi := range glyphs {
				glyphs[gi].X += part.offset.X - part.originX
				glyphs[gi].Y += part.offset.Y + t.vOffset
			}
			out = append(out, GlyphRun{
				Face:   run.Face,
				DPEm:   run.DPEm,
				Level:  run.Level,
				Line:   li,
				Range:  part.rng,
				Glyphs: glyphs,
			})
		}
	}
	return out, nil
}

// ForEachGlyph calls fn for every positioned glyph, in visual order
// within each line and line order across lines.
func (t *Text) ForEachGlyph(fn func(face fontreg.FaceID, dpem float64, g Glyph)) error {
	if err := t.ready(); err != nil {
		return err
	}
	for li := range t.lines {
		line := &t.lines[li]
		for pi := line.parts.Start; pi < line.parts.End; pi++ {
			part := &t.parts[pi]
			run := &t.runs[part.run]
			for gi := part.lo; gi < part.hi; gi++ {
				g := run.Glyphs[gi]
				g.X += part.offset.X - part.originX
				g.Y += part.offset.Y + t.vOffset
				fn(run.Face, run.DPEm, g)
			}
		}
	}
	return nil
}

// MeasureWidth returns the natural (unwrapped) width of the text: the
// widest paragraph line when laid out without a width limit. It
// prepares the pipeline through shaping if needed, so it mutates the
// cached state; the dirty level afterwards is at most WrapDirty.
func (t *Text) MeasureWidth() (float64, error) {
	if t.dirty >= RunsDirty {
		if err := t.prepareRuns(); err != nil {
			return 0, err
		}
	}
	env := t.env
	env.Wrap = false
	env.Bounds.X = Inf
	_, lines, _, err := wrapLines(t.reg, t.text, t.runs, t.paras, env)
	if err != nil {
		return 0, err
	}
	w := 0.0
	for i := range lines {
		w = math.Max(w, lines[i].Width)
	}
	return w, nil
}

// MeasureHeight returns the height of the wrapped content under the
// current environment. It prepares the pipeline through wrapping if
// needed, so it mutates the cached state; the dirty level afterwards
// is at most VAlignDirty.
func (t *Text) MeasureHeight() (float64, error) {
	if t.dirty >= RunsDirty {
		if err := t.prepareRuns(); err != nil {
			return 0, err
		}
	}
	if t.dirty >= WrapDirty {
		if err := t.prepareWrap(); err != nil {
			return 0, err
		}
	}
	return t.bounds.MaxY, nil
}
