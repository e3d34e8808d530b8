// Package typeset prepares formatted text for rendering.
//
// Given a character sequence, a set of formatting spans and a display
// environment (bounds, wrap and alignment options, font size), it
// resolves bidirectional embedding levels (Unicode TR9), segments the
// text into shaping runs, shapes each run into positioned glyphs,
// wraps and aligns lines, and exposes measurement, index/coordinate
// navigation and highlight-rectangle queries over the result.
//
// The package does not rasterize glyphs and does not parse rich-text
// markup. Fonts are managed by a [fontreg.Registry] constructed by the
// caller; the engine only holds face handles and derived metrics.
//
// # Quick Start
//
//	reg := fontreg.NewRegistry()
//	if _, err := reg.AddFace(goregular.TTF); err != nil {
//		log.Fatal(err)
//	}
//
//	txt := typeset.New(typeset.PlainText("Hello, world"), typeset.WithRegistry(reg))
//	txt.SetBounds(typeset.Vec2{X: 200, Y: 100})
//	if err := txt.Prepare(); err != nil {
//		log.Fatal(err)
//	}
//
//	runs, _ := txt.Runs()
//	for _, run := range runs {
//		// rasterize run.Glyphs with run.Face at run.DPEm
//	}
//
// All derived-data reads fail with [ErrNotReady] while the text is
// dirty; call [Text.Prepare] after mutation. Preparation is
// incremental: each mutation records the cheapest pipeline stage that
// must re-run, and Prepare executes exactly that suffix of the
// pipeline.
//
// Two shaping backends are available: a simple internal shaper (one
// glyph per codepoint with kerning-pair adjustment) and a HarfBuzz
// backend built on github.com/go-text/typesetting (ligatures,
// contextual forms, complex scripts). See [NewShaper].
package typeset
