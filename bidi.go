package typeset

import "golang.org/x/text/unicode/bidi"

// maxEmbeddingDepth is the explicit embedding depth limit (TR9 max_depth).
// Embedding initiators beyond this depth are ignored.
const maxEmbeddingDepth = 125

// resolveLevels computes the per-rune embedding level array for one
// paragraph following Unicode TR9, and returns it with the paragraph's
// base level.
//
// The resolution is complete for explicit embeddings and overrides
// (LRE, RLE, LRO, RLO, PDF), the weak rules W1-W7, the neutral rules
// N1-N2 and the implicit rules I1-I2, with the whole paragraph treated
// as a single isolating run sequence. Isolate initiators (LRI, RLI,
// FSI, PDI) are treated as neutral characters rather than opening
// nested sequences; deeply nested isolates are therefore approximated.
// The L1 separator reset is applied here for the paragraph tail; the
// per-line whitespace reset happens during wrapping where line
// boundaries are known.
//
// Empty input yields an empty level array; callers emit one empty run
// for it so downstream stages need no special casing.
func resolveLevels(par []rune, mode Direction) (levels []uint8, base uint8) {
	base = baseLevel(par, mode)
	levels = make([]uint8, len(par))
	if len(par) == 0 {
		return levels, base
	}

	classes := make([]bidi.Class, len(par))
	for i, r := range par {
		classes[i] = bidiClass(r)
	}
	original := append([]bidi.Class(nil), classes...)

	if !mode.bidiEnabled() {
		for i := range levels {
			levels[i] = base
		}
		return levels, base
	}

	resolveExplicit(classes, levels, base)
	resolveWeak(classes, base)
	resolveNeutral(classes, levels, base)
	resolveImplicit(classes, levels)
	resetSeparators(original, levels, base)

	return levels, base
}

// baseLevel determines the paragraph base embedding level (P2-P3).
func baseLevel(par []rune, mode Direction) uint8 {
	switch mode {
	case DirectionLTR, DirectionBidiLTR:
		return 0
	case DirectionRTL, DirectionBidiRTL:
		return 1
	}
	for _, r := range par {
		switch bidiClass(r) {
		case bidi.L:
			return 0
		case bidi.R, bidi.AL:
			return 1
		}
	}
	return 0
}

// resolveExplicit applies the explicit embedding rules X1-X8. Embedding
// and override initiators and PDF are reclassified as BN so later rules
// skip them (X9). Isolate initiators are downgraded to ON.
func resolveExplicit(classes []bidi.Class, levels []uint8, base uint8) {
	type dirEntry struct {
		level    uint8
		override bidi.Class // L, R or unknown (no override)
	}
	const noOverride = bidi.Class(0xFFFF)

	stack := make([]dirEntry, 0, 16)
	cur := dirEntry{level: base, override: noOverride}

	push := func(next uint8, override bidi.Class) {
		if next > maxEmbeddingDepth {
			return
		}
		stack = append(stack, cur)
		cur = dirEntry{level: next, override: override}
	}

	for i, c := range classes {
		switch c {
		case bidi.LRE:
			levels[i] = cur.level
			classes[i] = bidi.BN
			push((cur.level+2)&^1, noOverride)
		case bidi.RLE:
			levels[i] = cur.level
			classes[i] = bidi.BN
			push((cur.level + 1) | 1, noOverride)
		case bidi.LRO:
			levels[i] = cur.level
			classes[i] = bidi.BN
			push((cur.level+2)&^1, bidi.L)
		case bidi.RLO:
			levels[i] = cur.level
			classes[i] = bidi.BN
			push((cur.level + 1) | 1, bidi.R)
		case bidi.PDF:
			classes[i] = bidi.BN
			if n := len(stack); n > 0 {
				cur = stack[n-1]
				stack = stack[:n-1]
			}
			levels[i] = cur.level
		case bidi.LRI, bidi.RLI, bidi.FSI, bidi.PDI:
			// Conservative: isolates participate as neutrals.
			levels[i] = cur.level
			classes[i] = bidi.ON
		case bidi.B:
			levels[i] = base
		default:
			levels[i] = cur.level
			if cur.override != noOverride {
				classes[i] = cur.override
			}
		}
	}
}

// resolveWeak applies W1-W7 over the paragraph, skipping BN characters.
func resolveWeak(classes []bidi.Class, base uint8) {
	sos := bidi.L
	if base&1 == 1 {
		sos = bidi.R
	}

	// W1: NSM takes the class of the preceding character.
	prev := sos
	for i, c := range classes {
		if c == bidi.BN {
			continue
		}
		if c == bidi.NSM {
			classes[i] = prev
			c = prev
		}
		prev = c
	}

	// W2: EN after an AL strong context becomes AN. W3: AL becomes R.
	strong := sos
	for i, c := range classes {
		switch c {
		case bidi.L, bidi.R:
			strong = c
		case bidi.AL:
			strong = bidi.AL
			classes[i] = bidi.R
		case bidi.EN:
			if strong == bidi.AL {
				classes[i] = bidi.AN
			}
		}
	}

	// W4: a single ES between EN pairs, or CS between matching number
	// pairs, takes the number class.
	for i := 1; i < len(classes)-1; i++ {
		c := classes[i]
		if c != bidi.ES && c != bidi.CS {
			continue
		}
		p, n := prevClass(classes, i), nextClass(classes, i)
		switch {
		case p == bidi.EN && n == bidi.EN:
			classes[i] = bidi.EN
		case c == bidi.CS && p == bidi.AN && n == bidi.AN:
			classes[i] = bidi.AN
		}
	}

	// W5: a run of ET adjacent to EN becomes EN.
	for i := 0; i < len(classes); i++ {
		if classes[i] != bidi.ET {
			continue
		}
		j := i
		for j < len(classes) && (classes[j] == bidi.ET || classes[j] == bidi.BN) {
			j++
		}
		adjacent := (j < len(classes) && classes[j] == bidi.EN) || prevClass(classes, i) == bidi.EN
		if adjacent {
			for k := i; k < j; k++ {
				if classes[k] == bidi.ET {
					classes[k] = bidi.EN
				}
			}
		}
		i = j - 1
	}

	// W6: leftover separators and terminators become neutral.
	for i, c := range classes {
		if c == bidi.ES || c == bidi.ET || c == bidi.CS {
			classes[i] = bidi.ON
		}
	}

	// W7: EN after an L strong context becomes L.
	strong = sos
	for i, c := range classes {
		switch c {
		case bidi.L, bidi.R:
			strong = c
		case bidi.EN:
			if strong == bidi.L {
				classes[i] = bidi.L
			}
		}
	}
}

// prevClass returns the nearest preceding non-BN class, or unknown.
func prevClass(classes []bidi.Class, i int) bidi.Class {
	for j := i - 1; j >= 0; j-- {
		if classes[j] != bidi.BN {
			return classes[j]
		}
	}
	return bidi.Class(0xFFFF)
}

// nextClass returns the nearest following non-BN class, or unknown.
func nextClass(classes []bidi.Class, i int) bidi.Class {
	for j := i + 1; j < len(classes); j++ {
		if classes[j] != bidi.BN {
			return classes[j]
		}
	}
	return bidi.Class(0xFFFF)
}

// resolveNeutral applies N1-N2: a neutral sequence takes the common
// direction of its strong neighbours, falling back to the embedding
// direction. EN and AN count as R for this purpose.
func resolveNeutral(classes []bidi.Class, levels []uint8, base uint8) {
	strongDir := func(c bidi.Class) bidi.Class {
		switch c {
		case bidi.L:
			return bidi.L
		case bidi.R, bidi.EN, bidi.AN:
			return bidi.R
		}
		return bidi.Class(0xFFFF)
	}
	sos := bidi.L
	if base&1 == 1 {
		sos = bidi.R
	}

	isNeutral := func(c bidi.Class) bool {
		switch c {
		case bidi.WS, bidi.ON, bidi.S, bidi.B:
			return true
		}
		return false
	}

	prev := sos
	for i := 0; i < len(classes); i++ {
		c := classes[i]
		if !isNeutral(c) {
			if d := strongDir(c); d != bidi.Class(0xFFFF) {
				prev = d
			}
			continue
		}
		j := i
		for j < len(classes) && (isNeutral(classes[j]) || classes[j] == bidi.BN) {
			j++
		}
		next := sos
		if j < len(classes) {
			if d := strongDir(classes[j]); d != bidi.Class(0xFFFF) {
				next = d
			}
		}
		resolved := bidi.Class(0)
		if prev == next {
			resolved = prev
		} else {
			// N2: embedding direction.
			resolved = bidi.L
			if levels[i]&1 == 1 {
				resolved = bidi.R
			}
		}
		for k := i; k < j; k++ {
			if classes[k] != bidi.BN {
				classes[k] = resolved
			}
		}
		i = j - 1
		prev = next
	}
}

// resolveImplicit applies I1-I2, bumping levels according to class.
func resolveImplicit(classes []bidi.Class, levels []uint8) {
	for i, c := range classes {
		if c == bidi.BN {
			continue
		}
		if levels[i]&1 == 0 {
			switch c {
			case bidi.R:
				levels[i]++
			case bidi.AN, bidi.EN:
				levels[i] += 2
			}
		} else {
			switch c {
			case bidi.L, bidi.AN, bidi.EN:
				levels[i]++
			}
		}
	}
}

// resetSeparators applies the paragraph-tail part of L1: segment and
// paragraph separators, and any trailing run of whitespace, return to
// the base level. Line-internal trailing whitespace is handled by the
// wrapper, which knows the final line boundaries.
func resetSeparators(original []bidi.Class, levels []uint8, base uint8) {
	for i, c := range original {
		if c == bidi.B || c == bidi.S {
			levels[i] = base
			// Preceding whitespace also resets.
			for j := i - 1; j >= 0 && isResettable(original[j]); j-- {
				levels[j] = base
			}
		}
	}
	for j := len(original) - 1; j >= 0 && isResettable(original[j]); j-- {
		levels[j] = base
	}
}

// isResettable reports whether a character participates in the L1
// whitespace reset.
func isResettable(c bidi.Class) bool {
	switch c {
	case bidi.WS, bidi.BN, bidi.LRE, bidi.RLE, bidi.LRO, bidi.RLO,
		bidi.PDF, bidi.LRI, bidi.RLI, bidi.FSI, bidi.PDI:
		return true
	default:
		return false
	}
}

// visualOrder returns the permutation that maps visual positions to
// logical indices for a sequence of embedding levels, using the L2
// "reverse nested odd levels" procedure. The wrapper applies it to the
// parts of each line after the per-line whitespace reset.
func visualOrder(levels []uint8) []int {
	order := make([]int, len(levels))
	for i := range order {
		order[i] = i
	}
	if len(levels) == 0 {
		return order
	}

	var maxLevel, minOdd uint8 = 0, 255
	for _, l := range levels {
		if l > maxLevel {
			maxLevel = l
		}
		if l&1 == 1 && l < minOdd {
			minOdd = l
		}
	}
	if minOdd == 255 {
		return order
	}

	for l := maxLevel; l >= minOdd; l-- {
		for i := 0; i < len(levels); {
			if levels[order[i]] < l {
				i++
				continue
			}
			j := i
			for j < len(levels) && levels[order[j]] >= l {
				j++
			}
			for a, b := i, j-1; a < b; a, b = a+1, b-1 {
				order[a], order[b] = order[b], order[a]
			}
			i = j
		}
	}
	return order
}
