package fontreg

import (
	"bytes"
	"fmt"
	"os"
	"strings"
	"sync"

	gtfont "github.com/go-text/typesetting/font"
	xfont "golang.org/x/image/font"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/fixed"
)

// FaceID is a handle to a loaded face. Handles are process-lifetime
// only and valid for the registry that issued them.
type FaceID uint32

// NoFace is the absent-face sentinel, passed to ResolveFace when there
// is no previous run to continue.
const NoFace FaceID = ^FaceID(0)

// FaceMetrics holds face-wide vertical metrics scaled to a dpem.
type FaceMetrics struct {
	// Ascent is the distance from the baseline to the logical top,
	// positive upward.
	Ascent float64
	// Descent is the distance from the baseline to the logical bottom,
	// positive downward.
	Descent float64
	// LineGap is the additional spacing between consecutive lines.
	LineGap float64
	// UnitsPerEm is the face's design grid resolution (unscaled).
	UnitsPerEm float64
}

// Height returns the default line height.
func (m FaceMetrics) Height() float64 {
	return m.Ascent + m.Descent + m.LineGap
}

// faceEntry is one loaded face. Immutable after insertion, so queries
// may use it outside the registry lock.
type faceEntry struct {
	family string
	weight Weight
	style  Style

	data []byte
	hb   *gtfont.Font   // go-text font, safe for concurrent use
	sf   *opentype.Font // x/image font, queried with per-call buffers
}

// Registry resolves font faces for the typeset engine.
//
// Registry is safe for concurrent use: face insertion is guarded by an
// exclusive lock, queries by shared locks. Face data is parsed once at
// load time with both the go-text and x/image backends.
type Registry struct {
	mu    sync.RWMutex
	faces []*faceEntry
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// faceConfig collects AddFace options.
type faceConfig struct {
	family string
	weight Weight
	style  Style
}

// FaceOption configures a face at load time.
type FaceOption func(*faceConfig)

// WithFamily overrides the family name extracted from the font's name
// table.
func WithFamily(name string) FaceOption {
	return func(c *faceConfig) { c.family = name }
}

// WithWeight declares the face weight used during selector matching.
func WithWeight(w Weight) FaceOption {
	return func(c *faceConfig) { c.weight = w }
}

// WithStyle declares the face style used during selector matching.
func WithStyle(s Style) FaceOption {
	return func(c *faceConfig) { c.style = s }
}

// AddFace loads a face from TTF or OTF data. The data slice is copied
// internally and can be reused after this call.
func (r *Registry) AddFace(data []byte, opts ...FaceOption) (FaceID, error) {
	if len(data) == 0 {
		return NoFace, ErrEmptyFontData
	}

	config := faceConfig{weight: WeightNormal}
	for _, opt := range opts {
		opt(&config)
	}

	dataCopy := make([]byte, len(data))
	copy(dataCopy, data)

	sf, err := opentype.Parse(dataCopy)
	if err != nil {
		return NoFace, fmt.Errorf("fontreg: failed to parse font: %w", err)
	}
	hbFace, err := gtfont.ParseTTF(bytes.NewReader(dataCopy))
	if err != nil {
		return NoFace, fmt.Errorf("fontreg: failed to parse font: %w", err)
	}

	entry := &faceEntry{
		family: config.family,
		weight: config.weight,
		style:  config.style,
		data:   dataCopy,
		hb:     hbFace.Font,
		sf:     sf,
	}
	if entry.family == "" {
		entry.family = extractFamily(sf)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	id := FaceID(len(r.faces))
	r.faces = append(r.faces, entry)

	logger().Debug("fontreg: face loaded", "id", uint32(id), "family", entry.family)
	return id, nil
}

// AddFaceFromFile loads a face from a font file path.
func (r *Registry) AddFaceFromFile(path string, opts ...FaceOption) (FaceID, error) {
	// #nosec G304 -- Font file path is provided by the user
	data, err := os.ReadFile(path)
	if err != nil {
		return NoFace, fmt.Errorf("fontreg: failed to read font file: %w", err)
	}
	return r.AddFace(data, opts...)
}

// NumFaces returns the number of loaded faces.
func (r *Registry) NumFaces() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.faces)
}

// entry returns the face entry for id, or nil.
func (r *Registry) entry(id FaceID) *faceEntry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if int(id) >= len(r.faces) {
		return nil
	}
	return r.faces[id]
}

// ResolveFace selects the face used to shape the character c under the
// given selector. When last is a valid face and it covers c, last wins:
// characters without strong script affinity should continue the
// previous run's face so runs stay long (callers pass NoFace for
// strongly-scripted characters and at formatting-span boundaries).
//
// A character no loaded face covers resolves to the best selector match
// anyway and is shaped as that face's notdef glyph; this is reported
// through the package logger, never as an error.
func (r *Registry) ResolveFace(sel Selector, c rune, last FaceID) (FaceID, error) {
	r.mu.RLock()
	faces := r.faces
	r.mu.RUnlock()

	if len(faces) == 0 {
		return NoFace, ErrNoFaces
	}

	if last != NoFace && int(last) < len(faces) && coversRune(faces[last], c) {
		return last, nil
	}

	best := r.bestMatch(faces, sel)
	if coversRune(faces[best], c) || c == ' ' {
		return best, nil
	}

	// Glyph-level fallback: any face covering c beats a notdef.
	for i, f := range faces {
		if coversRune(f, c) {
			logger().Debug("fontreg: glyph fallback", "rune", string(c), "family", f.family)
			return FaceID(i), nil
		}
	}

	logger().Warn("fontreg: no face covers rune, using notdef", "rune", string(c))
	return best, nil
}

// bestMatch scores faces against the selector. Family order dominates,
// then style, then weight distance.
func (r *Registry) bestMatch(faces []*faceEntry, sel Selector) FaceID {
	best, bestScore := FaceID(0), int(^uint(0)>>1)
	for i, f := range faces {
		score := 0

		famRank := len(sel.Families)
		for j, fam := range sel.Families {
			if strings.EqualFold(fam, f.family) {
				famRank = j
				break
			}
		}
		score += famRank * 10000

		if f.style != sel.Style {
			score += 1000
		}

		dw := int(f.weight) - int(sel.effectiveWeight())
		if dw < 0 {
			dw = -dw
		}
		score += dw

		if score < bestScore {
			best, bestScore = FaceID(i), score
		}
	}
	return best
}

// coversRune reports whether the face has a real glyph for c.
func coversRune(f *faceEntry, c rune) bool {
	var buf sfnt.Buffer
	idx, err := f.sf.GlyphIndex(&buf, c)
	return err == nil && idx != 0
}

// GlyphID returns the glyph index for c in the face, and whether the
// face covers c. A missing glyph returns the notdef index 0.
func (r *Registry) GlyphID(id FaceID, c rune) (uint16, bool) {
	f := r.entry(id)
	if f == nil {
		return 0, false
	}
	var buf sfnt.Buffer
	idx, err := f.sf.GlyphIndex(&buf, c)
	if err != nil || idx == 0 {
		return 0, false
	}
	return uint16(idx), true
}

// Metrics returns the face-wide vertical metrics scaled to dpem.
func (r *Registry) Metrics(id FaceID, dpem float64) (FaceMetrics, error) {
	f := r.entry(id)
	if f == nil {
		return FaceMetrics{}, ErrInvalidFace
	}
	var buf sfnt.Buffer
	m, err := f.sf.Metrics(&buf, dpemToFixed(dpem), xfont.HintingNone)
	if err != nil {
		return FaceMetrics{}, fmt.Errorf("fontreg: metrics query failed: %w", err)
	}
	ascent := fixedToFloat(m.Ascent)
	descent := fixedToFloat(m.Descent)
	gap := fixedToFloat(m.Height) - ascent - descent
	if gap < 0 {
		gap = 0
	}
	return FaceMetrics{
		Ascent:     ascent,
		Descent:    descent,
		LineGap:    gap,
		UnitsPerEm: float64(f.sf.UnitsPerEm()),
	}, nil
}

// Advance returns the horizontal advance of a glyph at dpem.
func (r *Registry) Advance(id FaceID, gid uint16, dpem float64) float64 {
	f := r.entry(id)
	if f == nil {
		return 0
	}
	var buf sfnt.Buffer
	adv, err := f.sf.GlyphAdvance(&buf, sfnt.GlyphIndex(gid), dpemToFixed(dpem), xfont.HintingNone)
	if err != nil {
		return 0
	}
	return fixedToFloat(adv)
}

// Kern returns the kerning adjustment between two glyphs at dpem.
// Faces without a kern table return 0.
func (r *Registry) Kern(id FaceID, g0, g1 uint16, dpem float64) float64 {
	f := r.entry(id)
	if f == nil {
		return 0
	}
	var buf sfnt.Buffer
	k, err := f.sf.Kern(&buf, sfnt.GlyphIndex(g0), sfnt.GlyphIndex(g1), dpemToFixed(dpem), xfont.HintingNone)
	if err != nil {
		return 0
	}
	return fixedToFloat(k)
}

// SpaceAdvance returns the advance of the space glyph at dpem, used for
// tab stops.
func (r *Registry) SpaceAdvance(id FaceID, dpem float64) float64 {
	gid, ok := r.GlyphID(id, ' ')
	if !ok {
		return dpem / 4
	}
	return r.Advance(id, gid, dpem)
}

// Font returns the go-text font object for HarfBuzz shaping.
// The returned *font.Font is read-only and safe for concurrent use;
// shapers wrap it in a per-call font.Face.
func (r *Registry) Font(id FaceID) *gtfont.Font {
	f := r.entry(id)
	if f == nil {
		return nil
	}
	return f.hb
}

// FaceName returns the family name of a face.
func (r *Registry) FaceName(id FaceID) string {
	f := r.entry(id)
	if f == nil {
		return ""
	}
	return f.family
}

// extractFamily extracts the family name from the font's name table.
func extractFamily(f *opentype.Font) string {
	var buf sfnt.Buffer
	if name, err := f.Name(&buf, sfnt.NameIDFamily); err == nil && name != "" {
		return name
	}
	if name, err := f.Name(&buf, sfnt.NameIDFull); err == nil && name != "" {
		return name
	}
	return "Unknown Font"
}

// dpemToFixed converts a dpem scale to 26.6 fixed point.
func dpemToFixed(dpem float64) fixed.Int26_6 {
	return fixed.Int26_6(dpem * 64)
}

// fixedToFloat converts a 26.6 fixed point value to float64.
func fixedToFloat(v fixed.Int26_6) float64 {
	return float64(v) / 64.0
}
