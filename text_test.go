package typeset

import (
	"errors"
	"math"
	"sort"
	"testing"

	"github.com/gogpu/typeset/fontreg"
)

func TestNewStartsAllDirty(t *testing.T) {
	txt := New(PlainText("abc"), WithRegistry(testRegistry(t)))
	if txt.Status() != AllDirty {
		t.Errorf("status = %v, want AllDirty", txt.Status())
	}
	if _, err := txt.NumLines(); !errors.Is(err, ErrNotReady) {
		t.Errorf("NumLines err = %v, want ErrNotReady", err)
	}
	if _, err := txt.Lines(); !errors.Is(err, ErrNotReady) {
		t.Errorf("Lines err = %v, want ErrNotReady", err)
	}
	if _, err := txt.HighlightRange(0, 1); !errors.Is(err, ErrNotReady) {
		t.Errorf("HighlightRange err = %v, want ErrNotReady", err)
	}
}

func TestPrepareWithoutRegistry(t *testing.T) {
	txt := New(PlainText("abc"))
	if err := txt.Prepare(); !errors.Is(err, ErrNoRegistry) {
		t.Errorf("Prepare err = %v, want ErrNoRegistry", err)
	}
}

func TestPrepareResetsToClean(t *testing.T) {
	txt := preparedText(t, "abc")
	if txt.Status() != Clean {
		t.Errorf("status = %v, want Clean", txt.Status())
	}
}

func TestMutationLevels(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Text)
		want   DirtyLevel
	}{
		{"set source", func(x *Text) { x.SetSource(PlainText("zz")) }, AllDirty},
		{"set direction", func(x *Text) { x.SetDirection(DirectionBidiRTL) }, AllDirty},
		{"set font", func(x *Text) {
			x.SetFont(fontreg.Selector{Families: []string{"Other"}})
		}, RunsDirty},
		{"set dpem", func(x *Text) { x.SetDPEm(24) }, RunsDirty},
		{"set width", func(x *Text) { x.SetBounds(Vec2{X: 100, Y: Inf}) }, WrapDirty},
		{"set wrap", func(x *Text) { x.SetWrap(false) }, WrapDirty},
		{"set halign", func(x *Text) { x.SetHAlign(AlignCenter) }, WrapDirty},
		{"set height", func(x *Text) { x.SetBounds(Vec2{X: Inf, Y: 50}) }, VAlignDirty},
		{"set valign", func(x *Text) { x.SetVAlign(AlignEnd) }, VAlignDirty},
		{"invalidate", func(x *Text) { x.Invalidate(RunsDirty) }, RunsDirty},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			txt := preparedText(t, "abc")
			tt.mutate(txt)
			if txt.Status() != tt.want {
				t.Errorf("status = %v, want %v", txt.Status(), tt.want)
			}
		})
	}
}

func TestMutationNoChangeStaysClean(t *testing.T) {
	txt := preparedText(t, "abc")
	env := txt.Environment()
	txt.SetDPEm(env.DPEm)
	txt.SetWrap(env.Wrap)
	txt.SetHAlign(env.HAlign)
	txt.SetDirection(env.Direction)
	txt.SetBounds(env.Bounds)
	if txt.Status() != Clean {
		t.Errorf("status = %v after no-op setters, want Clean", txt.Status())
	}
}

func TestMutationLevelsAreMonotonic(t *testing.T) {
	txt := preparedText(t, "abc")
	txt.SetDPEm(24)
	txt.SetVAlign(AlignCenter)
	// The lower mutation must not lower the recorded level.
	if txt.Status() != RunsDirty {
		t.Errorf("status = %v, want RunsDirty", txt.Status())
	}
}

func TestPrepareIdempotent(t *testing.T) {
	txt := preparedText(t, "aa bb cc")
	first, err := txt.Runs()
	if err != nil {
		t.Fatalf("Runs: %v", err)
	}
	if err := txt.Prepare(); err != nil {
		t.Fatalf("second Prepare: %v", err)
	}
	second, _ := txt.Runs()
	if len(first) != len(second) {
		t.Fatalf("run count changed: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if len(first[i].Glyphs) != len(second[i].Glyphs) {
			t.Fatalf("glyph count changed in run %d", i)
		}
		for g := range first[i].Glyphs {
			if first[i].Glyphs[g] != second[i].Glyphs[g] {
				t.Errorf("glyph %d/%d changed: %+v vs %+v",
					i, g, first[i].Glyphs[g], second[i].Glyphs[g])
			}
		}
	}
}

func TestWidthChangeDoesNotReshape(t *testing.T) {
	txt := preparedText(t, "aa bb cc")
	before := make([][]Glyph, len(txt.runs))
	for i := range txt.runs {
		before[i] = append([]Glyph(nil), txt.runs[i].Glyphs...)
	}

	txt.SetBounds(Vec2{X: 40, Y: Inf})
	if txt.Status() != WrapDirty {
		t.Fatalf("status = %v, want WrapDirty", txt.Status())
	}
	if err := txt.Prepare(); err != nil {
		t.Fatalf("Prepare: %v", err)
	}

	if len(txt.runs) != len(before) {
		t.Fatalf("run count changed on width change")
	}
	for i := range txt.runs {
		for g := range txt.runs[i].Glyphs {
			if txt.runs[i].Glyphs[g] != before[i][g] {
				t.Errorf("run %d glyph %d reshaped", i, g)
			}
		}
	}
}

func TestSimpleTextExample(t *testing.T) {
	// "abc": one run, one line, three glyphs, advances summing to the
	// shaped width.
	txt := preparedText(t, "abc")
	n, _ := txt.NumLines()
	if n != 1 {
		t.Fatalf("NumLines = %d, want 1", n)
	}
	g, _ := txt.NumGlyphs()
	if g != 3 {
		t.Fatalf("NumGlyphs = %d, want 3", g)
	}
	runs, _ := txt.Runs()
	if len(runs) != 1 {
		t.Fatalf("got %d glyph runs, want 1", len(runs))
	}
	var sum float64
	for _, gl := range runs[0].Glyphs {
		sum += gl.XAdvance
	}
	w, err := txt.MeasureWidth()
	if err != nil {
		t.Fatalf("MeasureWidth: %v", err)
	}
	if math.Abs(sum-w) > 1e-9 {
		t.Errorf("advance sum %v != measured width %v", sum, w)
	}
}

func TestRTLOverrideExample(t *testing.T) {
	// "ABC" under an RTL override followed by "def" in an LTR base
	// paragraph: the override part comes first visually with reversed
	// clusters, then the LTR part in logical order.
	txt := preparedText(t, "\u202EABC\u202Cdef")
	runs, err := txt.Runs()
	if err != nil {
		t.Fatalf("Runs: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("got %d glyph runs, want 2", len(runs))
	}
	rtl, ltr := runs[0], runs[1]
	if rtl.Level&1 != 1 {
		t.Fatalf("first part level = %d, want odd", rtl.Level)
	}
	if ltr.Level != 0 {
		t.Fatalf("second part level = %d, want 0", ltr.Level)
	}
	if rtl.Glyphs[0].X >= ltr.Glyphs[0].X {
		t.Error("override part not positioned before LTR part")
	}
	for i := 1; i < len(rtl.Glyphs); i++ {
		if rtl.Glyphs[i].Index >= rtl.Glyphs[i-1].Index {
			t.Error("override part clusters not reversed")
		}
	}
	for i := 1; i < len(ltr.Glyphs); i++ {
		if ltr.Glyphs[i].Index <= ltr.Glyphs[i-1].Index {
			t.Error("LTR part clusters not in logical order")
		}
	}
}

func TestVerticalAlignment(t *testing.T) {
	txt := preparedText(t, "abc")
	lines, _ := txt.Lines()
	content := lines[0].Bottom

	txt.SetBounds(Vec2{X: Inf, Y: 100})
	txt.SetVAlign(AlignEnd)
	if err := txt.Prepare(); err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	lines, _ = txt.Lines()
	if math.Abs(lines[0].Bottom-100) > 1e-6 {
		t.Errorf("end-aligned bottom = %v, want 100", lines[0].Bottom)
	}

	txt.SetVAlign(AlignCenter)
	if err := txt.Prepare(); err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	lines, _ = txt.Lines()
	wantTop := (100 - content) / 2
	if math.Abs(lines[0].Top-wantTop) > 1e-6 {
		t.Errorf("centered top = %v, want %v", lines[0].Top, wantTop)
	}
}

func TestMeasurePartialPreparation(t *testing.T) {
	txt := New(PlainText("aa bb cc"), WithRegistry(testRegistry(t)))
	if _, err := txt.MeasureWidth(); err != nil {
		t.Fatalf("MeasureWidth: %v", err)
	}
	if txt.Status() != WrapDirty {
		t.Errorf("status after MeasureWidth = %v, want WrapDirty", txt.Status())
	}
	if _, err := txt.MeasureHeight(); err != nil {
		t.Fatalf("MeasureHeight: %v", err)
	}
	if txt.Status() != VAlignDirty {
		t.Errorf("status after MeasureHeight = %v, want VAlignDirty", txt.Status())
	}
	// Reads still require a full Prepare.
	if _, err := txt.NumLines(); !errors.Is(err, ErrNotReady) {
		t.Errorf("NumLines err = %v, want ErrNotReady", err)
	}
}

func TestMeasureHeightMatchesLines(t *testing.T) {
	txt := preparedText(t, "ab\ncd")
	h, err := txt.MeasureHeight()
	if err != nil {
		t.Fatalf("MeasureHeight: %v", err)
	}
	lines, _ := txt.Lines()
	if math.Abs(lines[len(lines)-1].Bottom-h) > 1e-9 {
		t.Errorf("height %v != last line bottom %v", h, lines[len(lines)-1].Bottom)
	}
}

func TestTextIsRTL(t *testing.T) {
	ltr := preparedText(t, "abc")
	if got, _ := ltr.TextIsRTL(); got {
		t.Error("latin text reported RTL")
	}
	rtl := preparedText(t, "אבג")
	if got, _ := rtl.TextIsRTL(); !got {
		t.Error("hebrew text not reported RTL")
	}
}

func TestLineIsRTLOutOfRange(t *testing.T) {
	txt := preparedText(t, "abc")
	if _, err := txt.LineIsRTL(5); err == nil {
		t.Error("expected error for out-of-range line")
	}
}

func TestForEachGlyphVisitsAll(t *testing.T) {
	txt := preparedText(t, "ab cd")
	count := 0
	err := txt.ForEachGlyph(func(face fontreg.FaceID, dpem float64, g Glyph) {
		count++
		if dpem != 16 {
			t.Errorf("dpem = %v, want 16", dpem)
		}
	})
	if err != nil {
		t.Fatalf("ForEachGlyph: %v", err)
	}
	if count != 5 {
		t.Errorf("visited %d glyphs, want 5", count)
	}
}

func TestFormattedSourceSpans(t *testing.T) {
	src := NewFormattedString("abcdef")
	src.AddSpan(Span{Start: 3, SizeFactor: 2})
	txt := New(src, WithRegistry(testRegistry(t)))
	if err := txt.Prepare(); err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	runs, _ := txt.Runs()
	if len(runs) != 2 {
		t.Fatalf("got %d glyph runs, want 2", len(runs))
	}
	if runs[1].DPEm != 32 {
		t.Errorf("second run dpem = %v, want 32", runs[1].DPEm)
	}
}

func TestRunRangesReconstructText(t *testing.T) {
	// Visual reordering permutes runs but never loses or duplicates
	// bytes: the run ranges, read back in logical order, tile the text.
	s := "ab אב cd"
	txt := preparedText(t, s)
	runs, err := txt.Runs()
	if err != nil {
		t.Fatalf("Runs: %v", err)
	}
	ranges := make([]Range, len(runs))
	for i, r := range runs {
		ranges[i] = r.Range
	}
	sort.Slice(ranges, func(i, j int) bool { return ranges[i].Start < ranges[j].Start })

	rebuilt := ""
	next := uint32(0)
	for _, r := range ranges {
		if r.Start != next {
			t.Fatalf("gap or overlap at byte %d (range %v)", next, r)
		}
		rebuilt += s[r.Start:r.End]
		next = r.End
	}
	if rebuilt != s {
		t.Errorf("reconstructed %q, want %q", rebuilt, s)
	}
	if next != uint32(len(s)) {
		t.Errorf("runs cover %d bytes, want %d", next, len(s))
	}
}
