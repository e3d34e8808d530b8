package typeset

import (
	"sort"
	"strings"

	"github.com/gogpu/typeset/fontreg"
)

// FontToken assigns a font selector and scale from byte offset Start
// until the next token's start. Tokens are absolute: each carries the
// fully resolved selector and dpem.
type FontToken struct {
	Start    uint32
	DPEm     float64
	Selector fontreg.Selector
}

// FormattedText is the source contract between the engine and whatever
// produces formatted text (a rich-text parser, an editor buffer, or a
// plain string).
//
// FontTokens receives the environment's base dpem and default selector
// and returns the resolved font spans ordered by start offset; nil
// means "defaults throughout". EffectTokens returns the
// formatting-time effect stream ordered by start offset.
type FormattedText interface {
	Text() string
	FontTokens(dpem float64, def fontreg.Selector) []FontToken
	EffectTokens() []Effect
}

// PlainText is a FormattedText with no formatting spans.
type PlainText string

// Text implements FormattedText.
func (p PlainText) Text() string { return string(p) }

// FontTokens implements FormattedText. Plain text uses the environment
// defaults throughout.
func (p PlainText) FontTokens(float64, fontreg.Selector) []FontToken { return nil }

// EffectTokens implements FormattedText.
func (p PlainText) EffectTokens() []Effect { return nil }

// Span is one formatting span of a FormattedString. A span applies
// from Start until the start of the next span; the last span runs to
// the end of the text.
type Span struct {
	// Start is the byte offset the span begins at.
	Start uint32
	// Selector overrides the environment font selector; nil inherits.
	Selector *fontreg.Selector
	// SizeFactor scales the environment dpem; zero inherits.
	SizeFactor float64
	// Flags are formatting-time effects (underline, strikethrough).
	Flags EffectFlags
	// Aux is an opaque payload passed through to draw callbacks,
	// typically a color index.
	Aux uint32
}

// FormattedString is a mutable FormattedText carrying formatting spans.
// It is the simplest in-process producer of the span contract; rich
// text parsers provide their own implementations.
//
// FormattedString is not safe for concurrent use.
type FormattedString struct {
	text  string
	spans []Span
}

// NewFormattedString creates a formatted string with the given spans.
func NewFormattedString(text string, spans ...Span) *FormattedString {
	f := &FormattedString{text: text}
	for _, s := range spans {
		f.AddSpan(s)
	}
	return f
}

// Text implements FormattedText.
func (f *FormattedString) Text() string { return f.text }

// SetString replaces the text, keeping spans whose start still lies
// within the new text.
func (f *FormattedString) SetString(text string) {
	f.text = text
	kept := f.spans[:0]
	for _, s := range f.spans {
		if int(s.Start) <= len(text) {
			kept = append(kept, s)
		}
	}
	f.spans = kept
}

// AddSpan inserts a span, keeping the span list ordered by start
// offset. A span starting where another already starts replaces it.
func (f *FormattedString) AddSpan(s Span) {
	i := sort.Search(len(f.spans), func(i int) bool { return f.spans[i].Start >= s.Start })
	if i < len(f.spans) && f.spans[i].Start == s.Start {
		f.spans[i] = s
		return
	}
	f.spans = append(f.spans, Span{})
	copy(f.spans[i+1:], f.spans[i:])
	f.spans[i] = s
}

// Spans returns a copy of the span list.
func (f *FormattedString) Spans() []Span {
	return append([]Span(nil), f.spans...)
}

// InsertString inserts s at byte offset i, shifting later span starts.
func (f *FormattedString) InsertString(i uint32, s string) {
	if int(i) > len(f.text) {
		i = uint32(len(f.text))
	}
	var b strings.Builder
	b.Grow(len(f.text) + len(s))
	b.WriteString(f.text[:i])
	b.WriteString(s)
	b.WriteString(f.text[i:])
	f.text = b.String()

	n := uint32(len(s))
	for j := range f.spans {
		if f.spans[j].Start >= i {
			f.spans[j].Start += n
		}
	}
}

// ReplaceRange replaces the byte range [start, end) with s, adjusting
// span offsets. Spans starting inside the removed range collapse to
// its start.
func (f *FormattedString) ReplaceRange(start, end uint32, s string) {
	if int(start) > len(f.text) {
		start = uint32(len(f.text))
	}
	if end < start {
		end = start
	}
	if int(end) > len(f.text) {
		end = uint32(len(f.text))
	}

	var b strings.Builder
	b.Grow(len(f.text) - int(end-start) + len(s))
	b.WriteString(f.text[:start])
	b.WriteString(s)
	b.WriteString(f.text[end:])
	f.text = b.String()

	removed := end - start
	added := uint32(len(s))
	for j := range f.spans {
		switch {
		case f.spans[j].Start >= end:
			f.spans[j].Start += added
			f.spans[j].Start -= removed
		case f.spans[j].Start > start:
			f.spans[j].Start = start
		}
	}
}

// FontTokens implements FormattedText.
func (f *FormattedString) FontTokens(dpem float64, def fontreg.Selector) []FontToken {
	if len(f.spans) == 0 {
		return nil
	}
	tokens := make([]FontToken, 0, len(f.spans)+1)
	if f.spans[0].Start > 0 {
		tokens = append(tokens, FontToken{Start: 0, DPEm: dpem, Selector: def})
	}
	for _, s := range f.spans {
		tok := FontToken{Start: s.Start, DPEm: dpem, Selector: def}
		if s.SizeFactor > 0 {
			tok.DPEm = dpem * s.SizeFactor
		}
		if s.Selector != nil {
			tok.Selector = *s.Selector
		}
		tokens = append(tokens, tok)
	}
	return tokens
}

// EffectTokens implements FormattedText. Every span boundary yields an
// absolute-state token, including spans with no flags set, so that a
// preceding span's effects end where the next span starts.
func (f *FormattedString) EffectTokens() []Effect {
	if len(f.spans) == 0 {
		return nil
	}
	effects := make([]Effect, 0, len(f.spans)+1)
	if f.spans[0].Start > 0 {
		effects = append(effects, Effect{Start: 0})
	}
	for _, s := range f.spans {
		effects = append(effects, Effect{Start: s.Start, Flags: s.Flags, Aux: s.Aux})
	}
	return effects
}
