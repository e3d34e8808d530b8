package typeset

import (
	"github.com/go-text/typesetting/language"

	"github.com/gogpu/typeset/cache"
	"github.com/gogpu/typeset/fontreg"
)

// runSpecial marks runs that carry layout semantics instead of glyphs.
type runSpecial uint8

const (
	// specialNone is an ordinary shaped run.
	specialNone runSpecial = iota
	// specialHardBreak terminates the line; the run covers the break
	// character(s) and has no glyphs.
	specialHardBreak
	// specialHTab is a horizontal tab; its advance is computed at wrap
	// time (paragraph indent or one space width).
	specialHTab
)

// ShapedRun is a maximal span of text sharing face, embedding level,
// script and scale, shaped into positioned glyphs.
//
// Glyphs are stored in left-to-right visual order with positions
// relative to the run origin; Caret is the total advance. For
// right-to-left runs (odd Level) the glyph cluster indices decrease
// across the slice.
type ShapedRun struct {
	// Range is the byte range this run covers in the source text.
	Range Range
	// Level is the run's resolved embedding level; odd means RTL.
	Level uint8
	// Face is the resolved face handle.
	Face fontreg.FaceID
	// Script is the run's script, used by the HarfBuzz backend.
	Script language.Script
	// DPEm is the scale this run was shaped at.
	DPEm float64
	// Glyphs are the shaped glyphs in visual order.
	Glyphs []Glyph
	// Caret is the total advance width of the run.
	Caret float64

	special runSpecial
}

// RTL reports whether the run is right-to-left.
func (r *ShapedRun) RTL() bool { return r.Level&1 == 1 }

// glyphRange returns the half-open glyph index range whose cluster
// byte indices fall inside [start, end). Cluster indices are monotonic
// across the slice (ascending for LTR, descending for RTL), so the
// matching glyphs are contiguous.
func (r *ShapedRun) glyphRange(start, end uint32) (lo, hi int) {
	lo, hi = -1, -1
	for i := range r.Glyphs {
		if idx := r.Glyphs[i].Index; start <= idx && idx < end {
			if lo < 0 {
				lo = i
			}
			hi = i + 1
		}
	}
	if lo < 0 {
		return 0, 0
	}
	return lo, hi
}

// advance sums glyph advances over a glyph index range.
func (r *ShapedRun) advance(lo, hi int) float64 {
	var sum float64
	for i := lo; i < hi; i++ {
		sum += r.Glyphs[i].XAdvance
	}
	return sum
}

// ShaperKind selects the shaping backend. The set of backends is
// closed and chosen at construction, keeping the per-run hot path free
// of open dispatch.
type ShaperKind uint8

const (
	// ShaperBuiltin is the internal simple shaper: one glyph per
	// codepoint with kerning-pair adjustment, no ligatures. Fast,
	// sufficient for Latin-like scripts.
	ShaperBuiltin ShaperKind = iota
	// ShaperHarfBuzz shapes with go-text/typesetting's HarfBuzz port:
	// ligatures, contextual alternates and complex scripts.
	ShaperHarfBuzz
)

// String returns the string representation of the shaper kind.
func (k ShaperKind) String() string {
	switch k {
	case ShaperBuiltin:
		return "Builtin"
	case ShaperHarfBuzz:
		return "HarfBuzz"
	default:
		return unknownStr
	}
}

// Shaper converts runs into positioned glyphs using the selected
// backend, optionally memoizing shaped runs in a shared cache.
//
// Shaper is safe for concurrent use and may be shared between text
// objects.
type Shaper struct {
	kind     ShaperKind
	hb       hbState
	runCache *cache.Cache[*ShapedRun]
}

// ShaperOption configures a Shaper.
type ShaperOption func(*Shaper)

// WithRunCache enables memoization of shaped runs with the given
// per-shard capacity (see the cache package). Texts sharing the shaper
// share the cache.
func WithRunCache(capacity int) ShaperOption {
	return func(s *Shaper) {
		s.runCache = cache.New[*ShapedRun](capacity)
	}
}

// NewShaper creates a shaper with the given backend.
func NewShaper(kind ShaperKind, opts ...ShaperOption) *Shaper {
	s := &Shaper{kind: kind}
	s.hb.init()
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Kind returns the selected backend.
func (s *Shaper) Kind() ShaperKind { return s.kind }

// CacheStats returns run-cache statistics, or zero stats when caching
// is disabled.
func (s *Shaper) CacheStats() cache.Stats {
	if s.runCache == nil {
		return cache.Stats{}
	}
	return s.runCache.Stats()
}

// shape produces the shaped run for text[rng] with the given face,
// level, script and scale. Cached entries hold run-relative cluster
// indices so a hit can be rebased onto any text position.
func (s *Shaper) shape(reg *fontreg.Registry, text string, rng Range, face fontreg.FaceID,
	level uint8, script language.Script, dpem float64) ShapedRun {

	sub := text[rng.Start:rng.End]
	build := func() *ShapedRun {
		switch s.kind {
		case ShaperHarfBuzz:
			return s.shapeHarfBuzz(reg, sub, face, level, script, dpem)
		default:
			return shapeSimple(reg, sub, face, level, script, dpem)
		}
	}

	var rel *ShapedRun
	if s.runCache != nil {
		key := cache.NewShapingKey(sub, uint32(face), dpem, level, uint32(script))
		rel = s.runCache.GetOrCreate(key, build)
	} else {
		rel = build()
	}

	// Rebase the run-relative result onto the absolute byte range.
	run := *rel
	run.Range = rng
	run.Glyphs = make([]Glyph, len(rel.Glyphs))
	copy(run.Glyphs, rel.Glyphs)
	for i := range run.Glyphs {
		run.Glyphs[i].Index += rng.Start
	}
	return run
}

// specialRun builds a glyph-less run for hard breaks and tabs.
func specialRun(sp runSpecial, rng Range, face fontreg.FaceID, level uint8, dpem float64) ShapedRun {
	return ShapedRun{
		Range:   rng,
		Level:   level,
		Face:    face,
		DPEm:    dpem,
		special: sp,
	}
}
