package typeset

import (
	"unicode"
	"unicode/utf8"

	"github.com/go-text/typesetting/language"

	"github.com/gogpu/typeset/fontreg"
)

// paragraphInfo is one paragraph of the cached split: its byte range
// (including the trailing separator, if any) and its resolved base
// embedding level.
type paragraphInfo struct {
	rng  Range
	base uint8
}

// splitParagraphs splits text at hard-break characters. Each paragraph
// range includes its trailing separator; a CR LF pair counts as one
// separator. Text ending in a separator (and empty text) contributes a
// final empty paragraph so the layout shows the implied empty line.
func splitParagraphs(text string) []Range {
	paras := make([]Range, 0, 4)
	start := 0
	i := 0
	for i < len(text) {
		r, size := utf8.DecodeRuneInString(text[i:])
		if isHardBreak(r) {
			if r == '\r' && i+size < len(text) && text[i+size] == '\n' {
				size++
			}
			paras = append(paras, Range{uint32(start), uint32(i + size)})
			start = i + size
			i = start
			continue
		}
		i += size
	}
	if start < len(text) {
		paras = append(paras, Range{uint32(start), uint32(len(text))})
	} else {
		// Empty text, or text ending in a separator.
		paras = append(paras, Range{uint32(start), uint32(start)})
	}
	return paras
}

// resolveAllLevels runs the BIDI resolver over every paragraph and
// returns per-byte embedding levels (each byte of a rune carries the
// rune's level) together with the paragraph info list.
func resolveAllLevels(text string, mode Direction) ([]uint8, []paragraphInfo) {
	levels := make([]uint8, len(text))
	ranges := splitParagraphs(text)
	paras := make([]paragraphInfo, len(ranges))

	for p, rng := range ranges {
		par := []rune(text[rng.Start:rng.End])
		runeLevels, base := resolveLevels(par, mode)
		paras[p] = paragraphInfo{rng: rng, base: base}

		off := int(rng.Start)
		for i, r := range par {
			n := utf8.RuneLen(r)
			for b := 0; b < n; b++ {
				levels[off+b] = runeLevels[i]
			}
			off += n
		}
	}
	return levels, paras
}

// segmentRuns splits the text into maximal shaping runs and shapes
// them. A run boundary exists wherever the embedding level, resolved
// face, script or formatting token changes; hard breaks and tabs form
// their own glyph-less runs. Face resolution prefers the previous
// run's face for characters without strong script affinity so runs
// stay long.
func segmentRuns(reg *fontreg.Registry, shaper *Shaper, text string,
	levels []uint8, paras []paragraphInfo, tokens []FontToken,
	env Environment) ([]ShapedRun, error) {

	runs := make([]ShapedRun, 0, len(paras)*2)
	lastFace := fontreg.NoFace

	// Active formatting token; tokens are ordered by start offset.
	tokIdx := -1
	curTok := FontToken{DPEm: env.DPEm, Selector: env.Font}
	tokenAt := func(i uint32) (FontToken, bool) {
		changed := false
		for tokIdx+1 < len(tokens) && tokens[tokIdx+1].Start <= i {
			tokIdx++
			curTok = tokens[tokIdx]
			changed = true
		}
		return curTok, changed
	}

	for _, para := range paras {
		var (
			runStart  = para.rng.Start
			runFace   = fontreg.NoFace
			runLevel  = uint8(0)
			runScript = language.Script(0)
			runDPEm   = env.DPEm
		)

		flush := func(end uint32) {
			if end <= runStart {
				runStart = end
				return
			}
			script := runScript
			if script == 0 {
				script = language.Latin
			}
			runs = append(runs, shaper.shape(reg, text, Range{runStart, end},
				runFace, runLevel, script, runDPEm))
			lastFace = runFace
			runStart = end
		}

		i := int(para.rng.Start)
		for i < int(para.rng.End) {
			r, size := utf8.DecodeRuneInString(text[i:])
			pos := uint32(i)

			tok, tokChanged := tokenAt(pos)

			if isHardBreak(r) {
				flush(pos)
				end := i + size
				if r == '\r' && end < int(para.rng.End) && text[end] == '\n' {
					end++
				}
				face, err := resolveRunFace(reg, tok.Selector, ' ', lastFace)
				if err != nil {
					return nil, err
				}
				runs = append(runs, specialRun(specialHardBreak,
					Range{pos, uint32(end)}, face, para.base, tok.DPEm))
				runStart = uint32(end)
				runFace = fontreg.NoFace
				i = end
				continue
			}
			if r == '\t' {
				flush(pos)
				face, err := resolveRunFace(reg, tok.Selector, ' ', lastFace)
				if err != nil {
					return nil, err
				}
				runs = append(runs, specialRun(specialHTab,
					Range{pos, uint32(i + size)}, face, levels[pos], tok.DPEm))
				lastFace = face
				runStart = uint32(i + size)
				runFace = fontreg.NoFace
				i += size
				continue
			}

			// Face continuation: strongly-scripted characters resolve
			// fresh; weak ones prefer the current run's face so runs
			// stay long. Span boundaries always resolve fresh.
			prev := fontreg.NoFace
			if !tokChanged && !isStrongClass(bidiClass(r)) {
				prev = runFace
				if prev == fontreg.NoFace {
					prev = lastFace
				}
			}
			face, err := resolveRunFace(reg, tok.Selector, r, prev)
			if err != nil {
				return nil, err
			}

			script := runScript
			concrete := !unicode.In(r, unicode.Common, unicode.Inherited)
			if concrete {
				script = language.LookupScript(r)
			}

			// A formatting-span boundary always starts a new run, even
			// when the resolved face, level, script and dpem all match:
			// consumers map spans to runs.
			boundary := runFace == fontreg.NoFace ||
				tokChanged ||
				face != runFace ||
				levels[pos] != runLevel ||
				tok.DPEm != runDPEm ||
				(concrete && runScript != 0 && script != runScript)

			if boundary {
				flush(pos)
				runFace = face
				runLevel = levels[pos]
				runDPEm = tok.DPEm
				runScript = 0
			}
			if concrete {
				runScript = script
			}
			i += size
		}
		flush(para.rng.End)

		if para.rng.Len() == 0 {
			// Empty paragraph (empty text, or the implied empty line
			// after a trailing separator): one empty run at the base
			// level so downstream stages need no special casing.
			tok, _ := tokenAt(para.rng.End)
			face, err := resolveRunFace(reg, tok.Selector, ' ', lastFace)
			if err != nil {
				return nil, err
			}
			runs = append(runs, ShapedRun{
				Range: Range{para.rng.End, para.rng.End},
				Level: para.base,
				Face:  face,
				DPEm:  tok.DPEm,
			})
		}
	}

	Logger().Debug("typeset: segmented", "runs", len(runs), "paragraphs", len(paras))
	return runs, nil
}

// resolveRunFace resolves a face through the registry.
func resolveRunFace(reg *fontreg.Registry, sel fontreg.Selector, r rune, last fontreg.FaceID) (fontreg.FaceID, error) {
	return reg.ResolveFace(sel, r, last)
}
