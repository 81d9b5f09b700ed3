package canvasrenderer

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/ByLCY/folio/document"
	"github.com/ByLCY/folio/dsl"
	"github.com/ByLCY/folio/fonts"
	"github.com/ByLCY/folio/layout"
)

func TestFontSetMeasuresInPoints(t *testing.T) {
	s := NewFontSet(".", nil)
	font := layout.Font{Family: "Go", Size: 12, Weight: "regular"}

	m, err := s.Metrics(font)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.Ascent <= 0 || m.Descent <= 0 || m.Ascent+m.Descent > 2*font.Size {
		t.Fatalf("metrics not in points: %+v", m)
	}

	a, ab := s.Advance(font, "a"), s.Advance(font, "ab")
	if a <= 0 || ab <= a || ab > font.Size*2 {
		t.Fatalf("unexpected advances a=%v ab=%v", a, ab)
	}

	p, err := s.Outline(font, "H")
	if err != nil {
		t.Fatalf("outline: %v", err)
	}
	if p.Empty() {
		t.Fatalf("expected a non-empty outline")
	}
}

func TestFontSetFallsBackToGo(t *testing.T) {
	s := NewFontSet(".", nil)
	want, _ := s.Metrics(layout.Font{Family: "Go", Size: 10, Weight: "bold"})
	got, err := s.Metrics(layout.Font{Family: "Unknown Sans", Size: 10, Weight: "semibold"})
	if err != nil {
		t.Fatalf("fallback failed: %v", err)
	}
	if got != want {
		t.Fatalf("expected Go Bold metrics, got %+v want %+v", got, want)
	}
	if s.Has("Unknown Sans") || !s.Has("go mono") {
		t.Fatalf("unexpected family registry state")
	}
}

func TestRegisterRejectsNonFontData(t *testing.T) {
	s := NewFontSet(".", nil)
	err := s.Register("Broken", "regular", false, []byte("not a font"))
	if !errors.Is(err, layout.ErrResourceUnreadable) {
		t.Fatalf("expected ErrResourceUnreadable, got %v", err)
	}
	data, err := fonts.Load("Go-Mono")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if err := s.Register("Code", "regular", false, data); err != nil {
		t.Fatalf("register: %v", err)
	}
	if !s.Has("code") {
		t.Fatalf("registered family missing")
	}
}

func TestRenderProducesPDF(t *testing.T) {
	r, err := NewRendererWithOptions(Options{
		BaseDir:     ".",
		Fonts:       []FontFile{{Family: "Serif", Weight: "regular", Resource: Resource{Path: "embed:Go-Medium"}}},
		DebugFrames: true,
	})
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}
	doc, err := dsl.ParseString(`
folio Demo {
  meta { title: "Render" }
  styles { style body { family: "Serif"; size: 11pt; fill: #333333 } }
  page A5 {
    text { "Hello, world.\nSecond paragraph." }
  }
}
`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	res, err := document.Build(context.Background(), doc, nil, document.Options{
		Context: layout.Context{NewShaper: r.Shaper()},
	})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	runs, err := res.Pages[0].Blocks[0].Text.GlyphRuns()
	if err != nil || len(runs) == 0 {
		t.Fatalf("expected glyph runs, got %d (%v)", len(runs), err)
	}
	out, err := r.Render(res)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !bytes.HasPrefix(out, []byte("%PDF")) {
		t.Fatalf("output is not a PDF")
	}
}

func TestRenderRejectsEmptyResult(t *testing.T) {
	r := NewRenderer(".")
	if _, err := r.Render(nil); err == nil {
		t.Fatalf("expected error for nil result")
	}
	if _, err := r.Render(&document.Result{}); err == nil {
		t.Fatalf("expected error for result without pages")
	}
}
