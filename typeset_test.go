package typeset

import (
	"testing"

	"golang.org/x/image/font/gofont/goregular"

	"github.com/gogpu/typeset/fontreg"
)

// testRegistry returns a registry loaded with the Go Regular face.
func testRegistry(t *testing.T) *fontreg.Registry {
	t.Helper()
	reg := fontreg.NewRegistry()
	if _, err := reg.AddFace(goregular.TTF, fontreg.WithFamily("Go")); err != nil {
		t.Fatalf("AddFace: %v", err)
	}
	return reg
}

// preparedText builds and prepares a text object over s.
func preparedText(t *testing.T, s string, opts ...TextOption) *Text {
	t.Helper()
	opts = append([]TextOption{WithRegistry(testRegistry(t))}, opts...)
	txt := New(PlainText(s), opts...)
	if err := txt.Prepare(); err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	return txt
}

// advanceOf returns the shaped width of s under the default
// environment.
func advanceOf(t *testing.T, txt *Text, s string) float64 {
	t.Helper()
	other := New(PlainText(s), WithRegistry(txt.reg), WithShaper(txt.shaper))
	w, err := other.MeasureWidth()
	if err != nil {
		t.Fatalf("MeasureWidth(%q): %v", s, err)
	}
	return w
}
