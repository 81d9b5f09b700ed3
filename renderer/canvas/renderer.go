package canvasrenderer

import (
	"bytes"
	"fmt"
	"image/color"
	"strings"

	"github.com/tdewolff/canvas"
	"github.com/tdewolff/canvas/renderers/pdf"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/ByLCY/folio/document"
	"github.com/ByLCY/folio/layout"
	"github.com/ByLCY/folio/renderer"
	"github.com/ByLCY/folio/typesetter"
)

const frameStrokeWidth = 0.2 // mm

// Renderer draws document results via github.com/tdewolff/canvas.
type Renderer struct {
	fonts       *FontSet
	log         *zap.Logger
	debugFrames bool
}

var _ renderer.Renderer = (*Renderer)(nil)

// Options configures the canvas renderer.
type Options struct {
	BaseDir string
	Fonts   []FontFile
	// DebugFrames outlines every frame and its used rect.
	DebugFrames bool
	Log         *zap.Logger
}

// NewRenderer creates a canvas-based renderer rooted at baseDir for resolving assets.
func NewRenderer(baseDir string) *Renderer {
	r, _ := NewRendererWithOptions(Options{BaseDir: baseDir})
	return r
}

// NewRendererWithOptions creates a renderer and registers the given font files.
// All registration failures are reported together; the renderer stays usable.
func NewRendererWithOptions(opts Options) (*Renderer, error) {
	log := opts.Log
	if log == nil {
		log = zap.NewNop()
	}
	r := &Renderer{
		fonts:       NewFontSet(opts.BaseDir, log),
		log:         log.Named("canvas"),
		debugFrames: opts.DebugFrames,
	}
	var errs error
	for _, f := range opts.Fonts {
		errs = multierr.Append(errs, r.fonts.RegisterFile(f))
	}
	return r, errs
}

// Fonts returns the font set used for measuring and drawing.
func (r *Renderer) Fonts() *FontSet { return r.fonts }

// Shaper returns a layout.Context shaper constructor measuring with this
// renderer's fonts.
func (r *Renderer) Shaper() func() layout.Shaper {
	return typesetter.Factory(r.fonts, r.log)
}

// Render renders the result into a PDF byte slice.
func (r *Renderer) Render(result *document.Result) ([]byte, error) {
	if result == nil {
		return nil, fmt.Errorf("渲染结果为空")
	}
	if len(result.Pages) == 0 {
		return nil, fmt.Errorf("缺少可渲染的页面")
	}

	toMM := func(v float64) float64 { return layout.Length{Value: v, Unit: result.Unit}.ToMM() }
	first := result.Pages[0].Size
	var buf bytes.Buffer
	writer := pdf.New(&buf, toMM(first.W), toMM(first.H), nil)
	applyMeta(writer, result.Meta)
	for i, page := range result.Pages {
		w, h := toMM(page.Size.W), toMM(page.Size.H)
		if i > 0 {
			writer.NewPage(w, h)
		}
		c := canvas.New(w, h)
		ctx := canvas.NewContext(c)
		ctx.SetCoordSystem(canvas.CartesianIV)

		if err := r.drawPage(ctx, page, result.Unit); err != nil {
			return nil, fmt.Errorf("第 %d 页: %w", page.Number, err)
		}
		c.RenderTo(writer)
	}

	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("写入 PDF 失败: %w", err)
	}
	r.log.Debug("PDF 渲染完成", zap.Int("pages", len(result.Pages)), zap.Int("bytes", buf.Len()))
	return buf.Bytes(), nil
}

func applyMeta(writer *pdf.PDF, meta document.Meta) {
	keywords := strings.Join(meta.Keywords, ", ")
	writer.SetInfo(meta.Title, meta.Subject, keywords, meta.Author, meta.Creator)
}

func (r *Renderer) drawPage(ctx *canvas.Context, page *document.Page, unit layout.Unit) error {
	toMM := canvas.Identity.Scale(layout.PtToMm, layout.PtToMm)
	for _, block := range page.Blocks {
		runs, err := block.Text.GlyphRuns()
		if err != nil {
			return err
		}
		for _, run := range runs {
			if run.Path == nil || run.Path.Empty() {
				continue
			}
			ctx.SetStrokeColor(canvas.Transparent)
			ctx.SetFillColor(colorFromLayout(run.Format.Fill))
			ctx.DrawPath(0, 0, run.Path.Transform(toMM))
		}
		if r.debugFrames {
			r.drawFrames(ctx, block.Text, unit)
		}
	}
	return nil
}

// drawFrames outlines frame bounds in blue and used rects in red.
func (r *Renderer) drawFrames(ctx *canvas.Context, t *layout.Text, unit layout.Unit) {
	mm := func(v float64) float64 { return layout.Length{Value: v, Unit: unit}.ToMM() }
	rect := func(box layout.Rect, col color.Color) {
		if box.IsEmpty() {
			return
		}
		ctx.SetFillColor(canvas.Transparent)
		ctx.SetStrokeColor(col)
		ctx.SetStrokeWidth(frameStrokeWidth)
		ctx.DrawPath(mm(box.Origin.X), mm(box.Origin.Y), canvas.Rectangle(mm(box.Size.W), mm(box.Size.H)))
	}
	for _, f := range t.Frames() {
		rect(f.Bounds(), canvas.Hex("#0F62FE"))
		rect(f.Used(), canvas.Hex("#DA1E28"))
	}
}

func colorFromLayout(c layout.Color) color.Color {
	return canvas.RGBA(float64(c.R)/255.0, float64(c.G)/255.0, float64(c.B)/255.0, c.A)
}
