package typeset

import "golang.org/x/text/unicode/bidi"

// bidiClass returns the Unicode bidirectional class of r.
func bidiClass(r rune) bidi.Class {
	p, _ := bidi.LookupRune(r)
	return p.Class()
}

// isStrongClass reports whether c pins the script/face choice of its
// character. Characters of weak classes (digits aside, punctuation,
// whitespace) prefer to continue the previous run's face so that runs
// stay long.
func isStrongClass(c bidi.Class) bool {
	switch c {
	case bidi.L, bidi.R, bidi.AL, bidi.EN, bidi.AN:
		return true
	default:
		return false
	}
}

// isHardBreak reports whether r terminates a line unconditionally.
// Covers the UAX #14 BK/CR/LF/NL classes plus the Unicode line and
// paragraph separators.
func isHardBreak(r rune) bool {
	switch r {
	case '\n', '\r', '\v', '\f', '\u0085', '\u2028', '\u2029':
		return true
	default:
		return false
	}
}

// isSkippedControl reports whether r is a control character that
// produces no glyph. Hard breaks and tabs are handled separately.
func isSkippedControl(r rune) bool {
	if r >= 0x200B && r <= 0x200F { // ZWSP, ZWNJ, ZWJ, LRM, RLM
		return true
	}
	switch bidiClass(r) {
	case bidi.BN, bidi.LRE, bidi.RLE, bidi.LRO, bidi.RLO, bidi.PDF,
		bidi.LRI, bidi.RLI, bidi.FSI, bidi.PDI:
		return true
	default:
		return false
	}
}

// mirroredPairs is a curated subset of the Unicode Bidi_Mirroring_Glyph
// table covering brackets, quotes and common mathematical operators.
// Stored one-directional; mirrored() consults both directions.
var mirroredPairs = [...][2]rune{
	{'(', ')'},
	{'[', ']'},
	{'{', '}'},
	{'<', '>'},
	{'«', '»'}, // « »
	{'‹', '›'}, // ‹ ›
	{'⁅', '⁆'}, // ⁅ ⁆
	{'≤', '≥'}, // ≤ ≥
	{'⌈', '⌉'}, // ⌈ ⌉
	{'⌊', '⌋'}, // ⌊ ⌋
	{'⟦', '⟧'}, // ⟦ ⟧
	{'⟨', '⟩'}, // ⟨ ⟩
	{'⟪', '⟫'}, // ⟪ ⟫
	{'⦃', '⦄'}, // ⦃ ⦄
	{'⦅', '⦆'}, // ⦅ ⦆
	{'（', '）'}, // （ ）
	{'＜', '＞'}, // ＜ ＞
	{'［', '］'}, // ［ ］
	{'｛', '｝'}, // ｛ ｝
}

// mirrorTable maps each mirrored codepoint to its counterpart.
var mirrorTable = func() map[rune]rune {
	m := make(map[rune]rune, 2*len(mirroredPairs))
	for _, p := range mirroredPairs {
		m[p[0]] = p[1]
		m[p[1]] = p[0]
	}
	return m
}()

// mirrored returns the mirrored counterpart of r, if any. Characters
// with a counterpart are substituted before shaping when their resolved
// embedding level is odd.
func mirrored(r rune) (rune, bool) {
	m, ok := mirrorTable[r]
	return m, ok
}
