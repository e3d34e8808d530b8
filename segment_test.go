package typeset

import "testing"

func TestSplitParagraphs(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []Range
	}{
		{"single", "abc", []Range{{0, 3}}},
		{"two", "a\nb", []Range{{0, 2}, {2, 3}}},
		{"crlf", "a\r\nb", []Range{{0, 3}, {3, 4}}},
		{"trailing separator", "a\n", []Range{{0, 2}, {2, 2}}},
		{"empty", "", []Range{{0, 0}}},
		{"only separator", "\n", []Range{{0, 1}, {1, 1}}},
		{"double separator", "a\n\nb", []Range{{0, 2}, {2, 3}, {3, 4}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := splitParagraphs(tt.text)
			if len(got) != len(tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Fatalf("got %v, want %v", got, tt.want)
				}
			}
		})
	}
}

func segmented(t *testing.T, text string) []ShapedRun {
	t.Helper()
	reg := testRegistry(t)
	shaper := NewShaper(ShaperBuiltin)
	env := DefaultEnvironment()
	levels, paras := resolveAllLevels(text, env.Direction)
	runs, err := segmentRuns(reg, shaper, text, levels, paras, nil, env)
	if err != nil {
		t.Fatalf("segmentRuns: %v", err)
	}
	return runs
}

func TestSegmentSingleRun(t *testing.T) {
	runs := segmented(t, "abc")
	if len(runs) != 1 {
		t.Fatalf("got %d runs, want 1", len(runs))
	}
	run := runs[0]
	if run.Range != (Range{0, 3}) {
		t.Errorf("range = %v, want {0 3}", run.Range)
	}
	if len(run.Glyphs) != 3 {
		t.Errorf("got %d glyphs, want 3", len(run.Glyphs))
	}
	if run.Level != 0 {
		t.Errorf("level = %d, want 0", run.Level)
	}
}

func TestSegmentTab(t *testing.T) {
	runs := segmented(t, "a\tb")
	if len(runs) != 3 {
		t.Fatalf("got %d runs, want 3", len(runs))
	}
	if runs[1].special != specialHTab {
		t.Errorf("middle run special = %d, want tab", runs[1].special)
	}
	if len(runs[1].Glyphs) != 0 {
		t.Errorf("tab run has %d glyphs, want 0", len(runs[1].Glyphs))
	}
	if runs[0].Range != (Range{0, 1}) || runs[2].Range != (Range{2, 3}) {
		t.Errorf("neighbour ranges = %v, %v", runs[0].Range, runs[2].Range)
	}
}

func TestSegmentHardBreak(t *testing.T) {
	runs := segmented(t, "ab\ncd")
	if len(runs) != 3 {
		t.Fatalf("got %d runs, want 3", len(runs))
	}
	if runs[1].special != specialHardBreak {
		t.Errorf("middle run special = %d, want hard break", runs[1].special)
	}
	if runs[1].Range != (Range{2, 3}) {
		t.Errorf("break range = %v, want {2 3}", runs[1].Range)
	}
}

func TestSegmentCRLFSingleBreak(t *testing.T) {
	runs := segmented(t, "a\r\nb")
	if len(runs) != 3 {
		t.Fatalf("got %d runs, want 3", len(runs))
	}
	if runs[1].Range != (Range{1, 3}) {
		t.Errorf("break range = %v, want {1 3}", runs[1].Range)
	}
}

func TestSegmentEmptyText(t *testing.T) {
	runs := segmented(t, "")
	if len(runs) != 1 {
		t.Fatalf("got %d runs, want 1", len(runs))
	}
	if runs[0].Range.Len() != 0 || len(runs[0].Glyphs) != 0 {
		t.Errorf("empty run = %+v", runs[0])
	}
}

func TestSegmentTrailingSeparatorEmptyRun(t *testing.T) {
	runs := segmented(t, "a\n")
	if len(runs) != 3 {
		t.Fatalf("got %d runs, want 3", len(runs))
	}
	last := runs[len(runs)-1]
	if last.Range != (Range{2, 2}) {
		t.Errorf("trailing run range = %v, want {2 2}", last.Range)
	}
}

func TestSegmentLevelBoundary(t *testing.T) {
	// Mixed-direction text splits at the level boundary even within one
	// font.
	runs := segmented(t, "abאב")
	if len(runs) != 2 {
		t.Fatalf("got %d runs, want 2", len(runs))
	}
	if runs[0].Level != 0 || runs[1].Level&1 != 1 {
		t.Errorf("levels = %d, %d", runs[0].Level, runs[1].Level)
	}
}

func TestSegmentDPEmBoundary(t *testing.T) {
	reg := testRegistry(t)
	shaper := NewShaper(ShaperBuiltin)
	env := DefaultEnvironment()
	src := NewFormattedString("abcd")
	src.AddSpan(Span{Start: 2, SizeFactor: 2})
	text := src.Text()
	levels, paras := resolveAllLevels(text, env.Direction)
	runs, err := segmentRuns(reg, shaper, text, levels, paras,
		src.FontTokens(env.DPEm, env.Font), env)
	if err != nil {
		t.Fatalf("segmentRuns: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("got %d runs, want 2", len(runs))
	}
	if runs[0].DPEm == runs[1].DPEm {
		t.Errorf("dpem not split: %v vs %v", runs[0].DPEm, runs[1].DPEm)
	}
}

func TestSegmentSpanBoundary(t *testing.T) {
	// A span carrying only effect flags still splits runs, even though
	// face, size, level and script all match across it: consumers map
	// spans to runs.
	src := NewFormattedString("abcdef")
	src.AddSpan(Span{Start: 3, Flags: EffectUnderline})
	txt := New(src, WithRegistry(testRegistry(t)))
	if err := txt.Prepare(); err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	runs, err := txt.Runs()
	if err != nil {
		t.Fatalf("Runs: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("got %d glyph runs, want 2", len(runs))
	}
	if runs[0].Range != (Range{0, 3}) || runs[1].Range != (Range{3, 6}) {
		t.Errorf("ranges = %v, %v; want {0 3}, {3 6}", runs[0].Range, runs[1].Range)
	}
}
