package typesetter

import (
	"github.com/rivo/uniseg"
	"github.com/tdewolff/canvas"

	"github.com/ByLCY/folio/layout"
)

// Monospace is a font-independent Measurer: every grapheme cluster advances
// by Ratio·size, ascent is 0.8·size and descent 0.2·size. Glyph outlines are
// boxes. It is used for deterministic layout and as a last-resort fallback.
type Monospace struct {
	Ratio float64
}

var _ Measurer = Monospace{}

func (m Monospace) ratio() float64 {
	if m.Ratio <= 0 {
		return 0.5
	}
	return m.Ratio
}

func (m Monospace) Metrics(font layout.Font) (layout.FontMetrics, error) {
	return layout.FontMetrics{Ascent: 0.8 * font.Size, Descent: 0.2 * font.Size, LineHeight: font.Size}, nil
}

func (m Monospace) Advance(font layout.Font, s string) float64 {
	return float64(uniseg.GraphemeClusterCount(s)) * m.ratio() * font.Size
}

func (m Monospace) Outline(font layout.Font, s string) (*canvas.Path, error) {
	w := m.ratio() * font.Size
	p := &canvas.Path{}
	for i := 0; i < uniseg.GraphemeClusterCount(s); i++ {
		box := canvas.Rectangle(w*0.8, 0.7*font.Size).Translate(float64(i)*w, -0.7*font.Size)
		p = p.Append(box)
	}
	return p, nil
}
