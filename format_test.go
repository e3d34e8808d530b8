package typeset

import (
	"testing"

	"github.com/gogpu/typeset/fontreg"
)

func TestPlainText(t *testing.T) {
	p := PlainText("hello")
	if p.Text() != "hello" {
		t.Errorf("Text = %q", p.Text())
	}
	if p.FontTokens(16, fontreg.Selector{}) != nil {
		t.Error("PlainText emitted font tokens")
	}
	if p.EffectTokens() != nil {
		t.Error("PlainText emitted effect tokens")
	}
}

func TestFormattedStringAddSpanSorted(t *testing.T) {
	f := NewFormattedString("abcdef")
	f.AddSpan(Span{Start: 4})
	f.AddSpan(Span{Start: 1})
	f.AddSpan(Span{Start: 2})
	spans := f.Spans()
	if len(spans) != 3 {
		t.Fatalf("got %d spans, want 3", len(spans))
	}
	for i := 1; i < len(spans); i++ {
		if spans[i].Start <= spans[i-1].Start {
			t.Fatalf("spans not sorted: %v", spans)
		}
	}
}

func TestFormattedStringAddSpanReplacesSameStart(t *testing.T) {
	f := NewFormattedString("abc")
	f.AddSpan(Span{Start: 1, SizeFactor: 2})
	f.AddSpan(Span{Start: 1, SizeFactor: 3})
	spans := f.Spans()
	if len(spans) != 1 {
		t.Fatalf("got %d spans, want 1", len(spans))
	}
	if spans[0].SizeFactor != 3 {
		t.Errorf("SizeFactor = %v, want 3", spans[0].SizeFactor)
	}
}

func TestFormattedStringSetStringDropsOutOfRange(t *testing.T) {
	f := NewFormattedString("abcdef")
	f.AddSpan(Span{Start: 1})
	f.AddSpan(Span{Start: 5})
	f.SetString("abc")
	spans := f.Spans()
	if len(spans) != 1 || spans[0].Start != 1 {
		t.Errorf("spans after SetString = %v", spans)
	}
}

func TestFormattedStringInsertShiftsSpans(t *testing.T) {
	f := NewFormattedString("abcd")
	f.AddSpan(Span{Start: 2})
	f.InsertString(1, "XY")
	if f.Text() != "aXYbcd" {
		t.Errorf("text = %q", f.Text())
	}
	if got := f.Spans()[0].Start; got != 4 {
		t.Errorf("span start = %d, want 4", got)
	}
}

func TestFormattedStringReplaceRange(t *testing.T) {
	f := NewFormattedString("abcdef")
	f.AddSpan(Span{Start: 1})
	f.AddSpan(Span{Start: 3}) // interior to the replaced range
	f.AddSpan(Span{Start: 5})
	f.ReplaceRange(2, 4, "Z")
	if f.Text() != "abZef" {
		t.Errorf("text = %q", f.Text())
	}
	spans := f.Spans()
	if len(spans) != 3 {
		t.Fatalf("got %d spans, want 3", len(spans))
	}
	if spans[0].Start != 1 {
		t.Errorf("span 0 start = %d, want 1", spans[0].Start)
	}
	// The interior span collapses to the replacement start.
	if spans[1].Start != 2 {
		t.Errorf("span 1 start = %d, want 2", spans[1].Start)
	}
	// Spans after the range shift by the length delta.
	if spans[2].Start != 4 {
		t.Errorf("span 2 start = %d, want 4", spans[2].Start)
	}
}

func TestFormattedStringFontTokens(t *testing.T) {
	sel := fontreg.Selector{Families: []string{"Serif"}}
	f := NewFormattedString("abcdef")
	f.AddSpan(Span{Start: 2, Selector: &sel, SizeFactor: 1.5})

	def := fontreg.Selector{Families: []string{"Sans"}}
	tokens := f.FontTokens(16, def)
	if len(tokens) != 2 {
		t.Fatalf("got %d tokens, want 2", len(tokens))
	}
	// The uncovered prefix gets a default token.
	if tokens[0].Start != 0 || !tokens[0].Selector.Equal(def) || tokens[0].DPEm != 16 {
		t.Errorf("token 0 = %+v", tokens[0])
	}
	if tokens[1].Start != 2 || !tokens[1].Selector.Equal(sel) || tokens[1].DPEm != 24 {
		t.Errorf("token 1 = %+v", tokens[1])
	}
}

func TestFormattedStringEffectTokens(t *testing.T) {
	f := NewFormattedString("abcdef")
	f.AddSpan(Span{Start: 1, Flags: EffectUnderline, Aux: 5})
	f.AddSpan(Span{Start: 4})
	tokens := f.EffectTokens()
	if len(tokens) != 2 {
		t.Fatalf("got %d tokens, want 2", len(tokens))
	}
	if tokens[0].Start != 1 || tokens[0].Flags != EffectUnderline || tokens[0].Aux != 5 {
		t.Errorf("token 0 = %+v", tokens[0])
	}
	// A zero-flag span still emits a token: it terminates the previous
	// state in the absolute stream.
	if tokens[1].Start != 4 || tokens[1].Flags != 0 {
		t.Errorf("token 1 = %+v", tokens[1])
	}
}
