package typeset

import (
	"bytes"
	"log/slog"
	"math"
	"strings"
	"testing"

	"github.com/gogpu/typeset/fontreg"
)

func TestMergeEffectsDisjoint(t *testing.T) {
	format := []Effect{{Start: 0, Flags: EffectUnderline}}
	draw := []Effect{{Start: 4, Aux: 7}}
	merged := MergeEffects(format, draw)
	if len(merged) != 2 {
		t.Fatalf("got %d tokens, want 2", len(merged))
	}
	if merged[0].Start != 0 || merged[0].Flags != EffectUnderline {
		t.Errorf("token 0 = %+v", merged[0])
	}
	// The draw token overlays the still-active format token: flags are
	// unioned, Aux comes from the draw stream.
	if merged[1].Start != 4 || merged[1].Flags != EffectUnderline || merged[1].Aux != 7 {
		t.Errorf("token 1 = %+v", merged[1])
	}
}

func TestMergeEffectsEmptySides(t *testing.T) {
	format := []Effect{{Start: 1, Flags: EffectStrikethrough}}
	if got := MergeEffects(format, nil); len(got) != 1 || got[0] != format[0] {
		t.Errorf("merge with nil draw = %v", got)
	}
	if got := MergeEffects(nil, format); len(got) != 1 || got[0] != format[0] {
		t.Errorf("merge with nil format = %v", got)
	}
	if got := MergeEffects(nil, nil); len(got) != 0 {
		t.Errorf("merge of empty streams = %v", got)
	}
}

func TestMergeEffectsCoincidentStarts(t *testing.T) {
	format := []Effect{{Start: 2, Flags: EffectUnderline}}
	draw := []Effect{{Start: 2, Flags: EffectStrikethrough, Aux: 3}}
	merged := MergeEffects(format, draw)
	if len(merged) != 1 {
		t.Fatalf("got %d tokens, want 1", len(merged))
	}
	want := EffectUnderline | EffectStrikethrough
	if merged[0].Flags != want || merged[0].Aux != 3 {
		t.Errorf("token = %+v", merged[0])
	}
}

func TestEffectAt(t *testing.T) {
	stream := []Effect{
		{Start: 2, Flags: EffectUnderline},
		{Start: 5},
	}
	if e := effectAt(stream, 0); e.Flags != 0 {
		t.Errorf("effect before first token = %+v", e)
	}
	if e := effectAt(stream, 3); e.Flags != EffectUnderline {
		t.Errorf("effect in span = %+v", e)
	}
	if e := effectAt(stream, 5); e.Flags != 0 {
		t.Errorf("effect after reset = %+v", e)
	}
}

func TestGlyphsWithEffectsResolvesState(t *testing.T) {
	txt := preparedText(t, "abcd")
	effects := []Effect{
		{Start: 1, Flags: EffectUnderline, Aux: 9},
		{Start: 3},
	}

	var states []EffectFlags
	err := txt.GlyphsWithEffects(effects,
		func(face fontreg.FaceID, dpem float64, g Glyph, e Effect) {
			states = append(states, e.Flags)
		}, nil)
	if err != nil {
		t.Fatalf("GlyphsWithEffects: %v", err)
	}
	want := []EffectFlags{0, EffectUnderline, EffectUnderline, 0}
	if len(states) != len(want) {
		t.Fatalf("visited %d glyphs, want %d", len(states), len(want))
	}
	for i := range want {
		if states[i] != want[i] {
			t.Errorf("glyph %d state = %v, want %v", i, states[i], want[i])
		}
	}
}

func TestGlyphsWithEffectsUnderlineSegment(t *testing.T) {
	txt := preparedText(t, "abcd")
	effects := []Effect{
		{Start: 1, Flags: EffectUnderline},
		{Start: 3},
	}

	type seg struct {
		x1, x2, y float64
		flags     EffectFlags
	}
	var segs []seg
	err := txt.GlyphsWithEffects(effects, nil,
		func(x1, x2, y float64, face fontreg.FaceID, dpem float64, flags EffectFlags, aux uint32) {
			segs = append(segs, seg{x1, x2, y, flags})
		})
	if err != nil {
		t.Fatalf("GlyphsWithEffects: %v", err)
	}
	if len(segs) != 1 {
		t.Fatalf("got %d segments, want 1", len(segs))
	}
	if segs[0].flags != EffectUnderline {
		t.Errorf("segment flags = %v", segs[0].flags)
	}
	a := advanceOf(t, txt, "a")
	abc := advanceOf(t, txt, "abc")
	if math.Abs(segs[0].x1-a) > 0.5 || math.Abs(segs[0].x2-abc) > 0.5 {
		t.Errorf("segment %v..%v, want about %v..%v", segs[0].x1, segs[0].x2, a, abc)
	}
	lines, _ := txt.Lines()
	if segs[0].y <= lines[0].Baseline {
		t.Errorf("underline y %v not below baseline %v", segs[0].y, lines[0].Baseline)
	}
}

func TestGlyphsWithEffectsNotReady(t *testing.T) {
	txt := New(PlainText("abc"), WithRegistry(testRegistry(t)))
	if err := txt.GlyphsWithEffects(nil, nil, nil); err != ErrNotReady {
		t.Errorf("err = %v, want ErrNotReady", err)
	}
}

func TestGlyphsWithEffectsMetricsFailureLogged(t *testing.T) {
	orig := Logger()
	t.Cleanup(func() { SetLogger(orig) })
	var buf bytes.Buffer
	SetLogger(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	})))

	txt := preparedText(t, "abc")
	// Point the run at a face the registry does not hold.
	txt.runs[0].Face = fontreg.FaceID(99)

	called := 0
	err := txt.GlyphsWithEffects([]Effect{{Start: 0, Flags: EffectUnderline}}, nil,
		func(x1, x2, y float64, face fontreg.FaceID, dpem float64, flags EffectFlags, aux uint32) {
			called++
		})
	if err != nil {
		t.Fatalf("GlyphsWithEffects: %v", err)
	}
	if called != 0 {
		t.Errorf("line callback ran %d times with unavailable metrics", called)
	}
	if !strings.Contains(buf.String(), "metrics unavailable") {
		t.Errorf("expected dropped-segment warning in log, got: %s", buf.String())
	}
}
