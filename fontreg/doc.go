// Package fontreg provides the font registry consumed by the typeset
// engine: face loading, per-character face resolution with last-face
// affinity, and derived metric queries.
//
// A Registry is constructed explicitly and passed to every text object
// that needs font resolution; there is no process-wide singleton, so
// tests can build isolated registries. The registry is internally
// synchronized: face insertion takes an exclusive lock while resolution
// and metric queries only take shared locks.
//
// Each face is parsed twice at load time: once with
// github.com/go-text/typesetting/font for HarfBuzz shaping, and once
// with golang.org/x/image/font/opentype for the simple shaper's glyph,
// advance and kerning lookups.
package fontreg
