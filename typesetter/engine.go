// Package typesetter implements layout.Shaper: it turns styled runs into
// grapheme-cluster glyphs, breaks them into lines and fills a sequence of
// containers. Font data comes from a Measurer.
package typesetter

import (
	"math"
	"strings"
	"unicode"

	"github.com/google/uuid"
	"github.com/rivo/uniseg"
	"github.com/tdewolff/canvas"
	"go.uber.org/zap"

	"github.com/ByLCY/folio/layout"
)

// Measurer supplies font metrics, advances and outlines in points.
// Outlines use y-down coordinates with the baseline at y=0.
type Measurer interface {
	Metrics(font layout.Font) (layout.FontMetrics, error)
	Advance(font layout.Font, s string) float64
	Outline(font layout.Font, s string) (*canvas.Path, error)
}

const (
	fitTolerance = 1e-6
	// words longer than this are measured glyph by glyph
	maxKernedWord = 64
)

type glyphKind int

const (
	glyphText glyphKind = iota
	glyphSpace
	glyphTab
	glyphNewline
	glyphControl
)

type glyph struct {
	chars   layout.Range
	text    string
	format  *layout.RunFormat
	kind    glyphKind
	advance float64

	x    float64
	line int
}

type line struct {
	container int
	glyphs    layout.Range
	bounds    layout.Rect
	used      layout.Rect
	baseline  float64
}

type container struct {
	token  uuid.UUID
	size   layout.Size
	glyphs layout.Range
	used   layout.Rect
}

// Engine is a greedy line-breaking typesetter.
type Engine struct {
	measure Measurer
	log     *zap.Logger

	text    []rune
	formats []*layout.RunFormat

	glyphs     []glyph
	lines      []line
	containers []*container
	metrics    map[layout.Font]layout.FontMetrics
}

var _ layout.Shaper = (*Engine)(nil)

// New creates an engine backed by m.
func New(m Measurer, log *zap.Logger) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{
		measure: m,
		log:     log.Named("typesetter"),
		metrics: map[layout.Font]layout.FontMetrics{},
	}
}

// Factory returns a constructor suitable for layout.Context.NewShaper.
func Factory(m Measurer, log *zap.Logger) func() layout.Shaper {
	return func() layout.Shaper { return New(m, log) }
}

func (e *Engine) AppendRun(text string, format *layout.RunFormat) {
	for _, r := range text {
		e.text = append(e.text, r)
		e.formats = append(e.formats, format)
	}
	e.rebuild()
}

func (e *Engine) DeleteRange(chars layout.Range) {
	chars = chars.Intersect(layout.Range{End: len(e.text)})
	if chars.Len() == 0 {
		return
	}
	e.text = append(e.text[:chars.Start:chars.Start], e.text[chars.End:]...)
	e.formats = append(e.formats[:chars.Start:chars.Start], e.formats[chars.End:]...)
	e.rebuild()
}

func (e *Engine) SetFormat(chars layout.Range, format *layout.RunFormat) {
	chars = chars.Intersect(layout.Range{End: len(e.text)})
	for i := chars.Start; i < chars.End; i++ {
		e.formats[i] = format
	}
	e.rebuild()
}

func (e *Engine) AddContainer(size layout.Size) uuid.UUID {
	c := &container{token: uuid.New(), size: size}
	e.containers = append(e.containers, c)
	e.relayout()
	return c.token
}

func (e *Engine) container(token uuid.UUID) *container {
	for _, c := range e.containers {
		if c.token == token {
			return c
		}
	}
	return nil
}

func (e *Engine) SetContainerSize(token uuid.UUID, size layout.Size) {
	if c := e.container(token); c != nil && c.size != size {
		c.size = size
		e.relayout()
	}
}

func (e *Engine) ContainerSize(token uuid.UUID) layout.Size {
	if c := e.container(token); c != nil {
		return c.size
	}
	return layout.Size{}
}

func (e *Engine) RemoveContainer(token uuid.UUID) {
	for i, c := range e.containers {
		if c.token == token {
			e.containers = append(e.containers[:i], e.containers[i+1:]...)
			e.relayout()
			return
		}
	}
}

func (e *Engine) GlyphCount() int { return len(e.glyphs) }

func (e *Engine) GlyphRange(token uuid.UUID) layout.Range {
	if c := e.container(token); c != nil {
		return c.glyphs
	}
	return layout.Range{}
}

func (e *Engine) CharacterRange(glyphs layout.Range) layout.Range {
	n := len(e.glyphs)
	glyphs = glyphs.Intersect(layout.Range{End: n})
	if glyphs.Len() == 0 {
		at := len(e.text)
		if glyphs.Start < n {
			at = e.glyphs[glyphs.Start].chars.Start
		}
		return layout.Range{Start: at, End: at}
	}
	return layout.Range{Start: e.glyphs[glyphs.Start].chars.Start, End: e.glyphs[glyphs.End-1].chars.End}
}

func (e *Engine) UsedRect(token uuid.UUID) layout.Rect {
	if c := e.container(token); c != nil {
		return c.used
	}
	return layout.Rect{}
}

// LocationForGlyph returns the glyph origin relative to its line: x from the
// container's left edge, y from the line top down to the baseline.
func (e *Engine) LocationForGlyph(index int) layout.Point {
	if index < 0 || index >= len(e.glyphs) {
		return layout.Point{}
	}
	g := e.glyphs[index]
	if g.line < 0 {
		return layout.Point{}
	}
	l := e.lines[g.line]
	return layout.Point{X: g.x, Y: l.baseline - l.bounds.Origin.Y}
}

func (e *Engine) LineFragments(chars layout.Range) []layout.Fragment {
	var out []layout.Fragment
	for _, l := range e.lines {
		r := e.CharacterRange(l.glyphs)
		if !chars.Intersects(r) {
			continue
		}
		out = append(out, layout.Fragment{
			Container: e.containers[l.container].token,
			Range:     r,
			Bounds:    l.bounds,
			Used:      l.used,
			Baseline:  l.baseline,
		})
	}
	return out
}

// Outline traces the laid-out glyphs inside chars, grouped into runs that
// share a container and a format.
func (e *Engine) Outline(chars layout.Range) ([]layout.GlyphRun, error) {
	var runs []layout.GlyphRun
	for _, l := range e.lines {
		for i := l.glyphs.Start; i < l.glyphs.End; i++ {
			g := e.glyphs[i]
			if g.kind != glyphText || !chars.Intersects(g.chars) {
				continue
			}
			p, err := e.measure.Outline(g.format.Font, g.text)
			if err != nil {
				return nil, err
			}
			p = p.Transform(canvas.Identity.Translate(g.x, l.baseline))
			token := e.containers[l.container].token
			if n := len(runs); n > 0 && runs[n-1].Format == g.format && runs[n-1].Container == token && runs[n-1].Range.End == g.chars.Start {
				runs[n-1].Path = runs[n-1].Path.Append(p)
				runs[n-1].Range.End = g.chars.End
				continue
			}
			runs = append(runs, layout.GlyphRun{Container: token, Range: g.chars, Format: g.format, Path: p})
		}
	}
	return runs, nil
}

func (e *Engine) Metrics(font layout.Font) (layout.FontMetrics, error) {
	if m, ok := e.metrics[font]; ok {
		return m, nil
	}
	m, err := e.measure.Metrics(font)
	if err != nil {
		return layout.FontMetrics{}, err
	}
	e.metrics[font] = m
	return m, nil
}

// fontMetrics is Metrics for fonts already validated by the style cascade.
func (e *Engine) fontMetrics(font layout.Font) layout.FontMetrics {
	m, err := e.Metrics(font)
	if err != nil {
		return layout.FontMetrics{Ascent: font.Size * 0.8, Descent: font.Size * 0.2, LineHeight: font.Size}
	}
	return m
}

// rebuild regenerates glyphs from the character buffer, then relays out.
func (e *Engine) rebuild() {
	e.glyphs = e.glyphs[:0]
	pos := 0
	gr := uniseg.NewGraphemes(string(e.text))
	for gr.Next() {
		rs := gr.Runes()
		g := glyph{
			chars:  layout.Range{Start: pos, End: pos + len(rs)},
			text:   gr.Str(),
			format: e.formats[pos],
			kind:   classify(rs),
			line:   -1,
		}
		e.glyphs = append(e.glyphs, g)
		pos += len(rs)
	}
	e.measureGlyphs()
	e.relayout()
}

func classify(rs []rune) glyphKind {
	switch r := rs[0]; {
	case r == '\n' || r == '\r' || r == '\u2028' || r == '\u2029':
		return glyphNewline
	case r == '\t':
		return glyphTab
	case r == layout.IndentEscape:
		return glyphControl
	case unicode.IsSpace(r):
		return glyphSpace
	case unicode.IsControl(r):
		return glyphControl
	default:
		return glyphText
	}
}

// measureGlyphs fills in advances. Words sharing a format are measured by
// prefix so that pair kerning is preserved.
func (e *Engine) measureGlyphs() {
	for i := 0; i < len(e.glyphs); {
		g := &e.glyphs[i]
		switch g.kind {
		case glyphSpace:
			g.advance = e.measure.Advance(g.format.Font, g.text) + g.format.Kern
			i++
			continue
		case glyphText:
		default:
			g.advance = 0
			i++
			continue
		}
		j := i + 1
		for j < len(e.glyphs) && e.glyphs[j].kind == glyphText && e.glyphs[j].format == g.format {
			j++
		}
		e.measureWord(e.glyphs[i:j])
		i = j
	}
}

func (e *Engine) measureWord(word []glyph) {
	f := word[0].format
	if !f.Kerning || len(word) > maxKernedWord {
		for i := range word {
			word[i].advance = e.measure.Advance(f.Font, word[i].text) + f.Kern
		}
		return
	}
	var b strings.Builder
	prev := 0.0
	for i := range word {
		b.WriteString(word[i].text)
		w := e.measure.Advance(f.Font, b.String())
		word[i].advance = w - prev + f.Kern
		prev = w
	}
}

// relayout places every glyph, filling containers in order. Glyphs that do
// not fit in any container stay unplaced (line == -1).
func (e *Engine) relayout() {
	e.lines = e.lines[:0]
	for i := range e.glyphs {
		e.glyphs[i].line = -1
		e.glyphs[i].x = 0
	}
	for _, c := range e.containers {
		c.glyphs = layout.Range{}
		c.used = layout.Rect{}
	}

	n := len(e.glyphs)
	gi, ci := 0, 0
	y := 0.0
	var para *layout.RunFormat
	for ci < len(e.containers) && gi < n {
		c := e.containers[ci]
		paraStart := gi == 0 || e.glyphs[gi-1].kind == glyphNewline
		if paraStart || para == nil {
			para = e.glyphs[gi].format
		}

		end, width := e.breakLine(gi, c.size.W, para, paraStart)
		asc, desc := e.lineExtent(gi, end, para)
		height := (asc + desc) * para.LineHeightMultiple
		if para.MaxLineHeight > 0 && height > para.MaxLineHeight {
			height = para.MaxLineHeight
		}
		before := 0.0
		if paraStart && gi > 0 && y > 0 {
			before = para.SpacingBefore
		}
		if y+before+height > c.size.H+fitTolerance {
			e.closeContainer(ci, gi)
			ci++
			y = 0
			continue
		}

		top := y + before
		l := line{
			container: ci,
			glyphs:    layout.Range{Start: gi, End: end},
			bounds:    layout.Rect{Origin: layout.Point{Y: top}, Size: layout.Size{W: c.size.W, H: height}},
			baseline:  top + height - desc,
		}
		minX := e.align(gi, end, width, c.size.W, para, paraStart)
		l.used = layout.Rect{Origin: layout.Point{X: minX, Y: top}, Size: layout.Size{W: width, H: height}}
		for i := gi; i < end; i++ {
			e.glyphs[i].line = len(e.lines)
		}
		e.lines = append(e.lines, l)

		y = top + height
		if e.glyphs[end-1].kind == glyphNewline {
			y += para.SpacingAfter
		}
		gi = end
	}
	for ; ci < len(e.containers); ci++ {
		e.closeContainer(ci, gi)
		gi = e.containers[ci].glyphs.End
	}
	e.log.Debug("relayout", zap.Int("glyphs", n), zap.Int("lines", len(e.lines)), zap.Int("containers", len(e.containers)))
}

// closeContainer records the glyph range and used rect of container ci,
// whose lines end just before glyph end.
func (e *Engine) closeContainer(ci, end int) {
	c := e.containers[ci]
	start := end
	var used layout.Rect
	first := true
	minX, maxX, bottom := 0.0, 0.0, 0.0
	for _, l := range e.lines {
		if l.container != ci {
			continue
		}
		start = min(start, l.glyphs.Start)
		if first {
			minX, maxX = l.used.Origin.X, l.used.MaxX()
			first = false
		} else {
			minX = math.Min(minX, l.used.Origin.X)
			maxX = math.Max(maxX, l.used.MaxX())
		}
		bottom = l.used.MaxY()
	}
	if !first {
		used = layout.Rect{Origin: layout.Point{X: minX}, Size: layout.Size{W: maxX - minX, H: bottom}}
	}
	c.glyphs = layout.Range{Start: start, End: end}
	c.used = used
}

// breakLine finds the end of the line starting at glyph gi and assigns
// provisional x positions relative to the line's head indent. It returns the
// end index and the width of the line without trailing whitespace.
func (e *Engine) breakLine(gi int, containerW float64, para *layout.RunFormat, first bool) (int, float64) {
	indent := para.HeadIndent
	if first {
		indent = para.FirstLineHeadIndent
	}
	avail := containerW - para.TailIndent - indent
	x, width := 0.0, 0.0
	lastBreak := -1
	for i := gi; i < len(e.glyphs); i++ {
		g := &e.glyphs[i]
		switch g.kind {
		case glyphNewline:
			g.x = x
			return i + 1, width
		case glyphTab:
			interval := para.TabInterval
			if interval <= 0 {
				interval = para.Font.Size
			}
			abs := indent + x
			g.advance = (math.Floor(abs/interval+fitTolerance)+1)*interval - abs
			fallthrough
		case glyphSpace:
			g.x = x
			x += g.advance
			lastBreak = i + 1
			continue
		case glyphControl:
			g.x = x
			continue
		}
		if x+g.advance > avail+fitTolerance && i > gi {
			if lastBreak > gi {
				return lastBreak, e.trimmedWidth(gi, lastBreak)
			}
			return i, width
		}
		g.x = x
		x += g.advance
		width = x
	}
	return len(e.glyphs), width
}

func (e *Engine) trimmedWidth(start, end int) float64 {
	for i := end - 1; i >= start; i-- {
		g := e.glyphs[i]
		if g.kind == glyphText {
			return g.x + g.advance
		}
	}
	return 0
}

// align converts provisional x positions into container coordinates and
// returns the x of the line's used rect. Blank lines sit at the head indent.
func (e *Engine) align(start, end int, width, containerW float64, para *layout.RunFormat, first bool) float64 {
	if width == 0 {
		for i := start; i < end; i++ {
			e.glyphs[i].x += para.HeadIndent
		}
		return para.HeadIndent
	}
	indent := para.HeadIndent
	if first {
		indent = para.FirstLineHeadIndent
	}
	avail := containerW - para.TailIndent - indent
	slack := math.Max(avail-width, 0)
	shift := 0.0
	switch para.Align {
	case layout.AlignRight:
		shift = slack
	case layout.AlignCenter:
		shift = slack / 2
	case layout.AlignJustify:
		lastInParagraph := end >= len(e.glyphs) || e.glyphs[end-1].kind == glyphNewline
		if !lastInParagraph {
			e.justify(start, end, slack, indent)
			return indent
		}
	}
	for i := start; i < end; i++ {
		e.glyphs[i].x += indent + shift
	}
	return indent + shift
}

// justify spreads slack over the interior spaces of a line.
func (e *Engine) justify(start, end int, slack, indent float64) {
	last := start - 1
	for i := end - 1; i >= start; i-- {
		if e.glyphs[i].kind == glyphText {
			last = i
			break
		}
	}
	spaces := 0
	for i := start; i < last; i++ {
		if e.glyphs[i].kind == glyphSpace {
			spaces++
		}
	}
	extra := 0.0
	if spaces > 0 {
		extra = slack / float64(spaces)
	}
	acc := 0.0
	for i := start; i < end; i++ {
		e.glyphs[i].x += indent + acc
		if i < last && e.glyphs[i].kind == glyphSpace {
			acc += extra
		}
	}
}

// lineExtent returns the largest ascent and descent among the fonts used on
// the line, falling back to the paragraph font for empty lines.
func (e *Engine) lineExtent(start, end int, para *layout.RunFormat) (float64, float64) {
	asc, desc := 0.0, 0.0
	seen := false
	for i := start; i < end; i++ {
		g := e.glyphs[i]
		if g.kind == glyphNewline && i > start {
			continue
		}
		m := e.fontMetrics(g.format.Font)
		asc = math.Max(asc, m.Ascent)
		desc = math.Max(desc, m.Descent)
		seen = true
	}
	if !seen {
		m := e.fontMetrics(para.Font)
		asc, desc = m.Ascent, m.Descent
	}
	return asc, desc
}
