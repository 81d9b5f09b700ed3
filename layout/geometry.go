package layout

import (
	"github.com/google/uuid"
	"github.com/tdewolff/canvas"
)

// resize 让第一帧与 Text 的请求尺寸保持一致；未指定的分量收缩到实际占用尺寸。
// 宽度额外加上 WidthSlack 个设备单位。宽度自动且段落非左对齐时，帧向左平移，
// 使文本块仍围绕原点绘制。
func (t *Text) resize() {
	f := t.frames[0]
	f.offset = Point{}
	f.SetSize(t.dims)
	if t.dims.W != AutoSize && t.dims.H != AutoSize {
		return
	}

	used := f.Metrics()
	minW := used.W + t.fromPx(t.ctx.WidthSlack)
	if t.dims.W == AutoSize {
		switch t.alignment() {
		case AlignRight:
			f.offset.X -= minW
		case AlignCenter:
			f.offset.X -= minW / 2
		}
	}

	size := t.dims
	if size.W == AutoSize {
		size.W = minW
	}
	if size.H == AutoSize {
		size.H = used.H
	}
	f.SetSize(size)
}

// alignment 返回首字符所在段落的对齐方式。
func (t *Text) alignment() Alignment {
	if f := t.buf.FormatAt(0); f != nil {
		return f.Align
	}
	return AlignLeft
}

// headroom 返回基线原点到文本块顶部的距离（设备单位）。
func (t *Text) headroom() float64 {
	if t.Len() == 0 {
		return 0
	}
	return t.engine.LocationForGlyph(0).Y
}

// Bounds 返回所有帧边界的并集。
func (t *Text) Bounds() Rect {
	var box Rect
	for _, f := range t.frames {
		box = box.Union(f.Bounds())
	}
	return box
}

// Used 返回所有帧已用区域的并集。
func (t *Text) Used() Rect {
	var box Rect
	for _, f := range t.frames {
		box = box.Union(f.Used())
	}
	return box
}

// Metrics 返回 Used 的尺寸。
func (t *Text) Metrics() Size { return t.Used().Size }

// Lines 返回全部帧中的行。
func (t *Text) Lines() []LineFragment { return t.lineFragments(Range{0, t.Len()}) }

// frameOf 返回容器对应的帧。
func (t *Text) frameOf(token uuid.UUID) (int, *Frame) {
	for i, f := range t.frames {
		if f.token == token {
			return i, f
		}
	}
	return -1, nil
}

// lineFragments 把引擎的行片段换算到 Text 的画布坐标。
func (t *Text) lineFragments(r Range) []LineFragment {
	head := t.headroom()
	var out []LineFragment
	for _, frag := range t.engine.LineFragments(r) {
		idx, f := t.frameOf(frag.Container)
		if f == nil {
			continue
		}
		shift := f.offset.Add(t.origin)
		bounds, used := frag.Bounds, frag.Used
		bounds.Origin.Y -= head
		used.Origin.Y -= head
		out = append(out, LineFragment{
			Range:  frag.Range,
			Frame:  idx,
			Bounds: t.rectFromPx(bounds).Offset(shift),
			Used:   t.rectFromPx(used).Offset(shift),
			Baseline: Point{
				X: shift.X + t.fromPx(frag.Bounds.Origin.X),
				Y: shift.Y + t.fromPx(frag.Baseline-head),
			},
		})
	}
	return out
}

// ScreenTransform 返回绘制文本块时使用的变换（设备单位），把排版坐标映射到画布。
// CornerMode 下先平移到基线原点再施加当前变换；CenterMode 下变换围绕文本块中心施加。
func (t *Text) ScreenTransform() canvas.Matrix {
	x, y := t.toPx(t.origin.X), t.toPx(t.origin.Y)
	head := t.headroom()
	if t.ctx.Mode == CenterMode {
		bounds := t.Bounds().Scale(t.toPx(1))
		c := bounds.Center()
		nudge := canvas.Identity.Translate(c.X-x, c.Y-(y-head))
		return canvas.Identity.Translate(x, y-head).Mul(nudge).Mul(t.ctx.Transform).Mul(nudge.Inv())
	}
	return t.ctx.Transform.Mul(canvas.Identity.Translate(x, y-head))
}

// outline 返回区间内的字形段，路径位于排版坐标（设备单位，第 0 帧左上角为原点）。
func (t *Text) outline(r Range) ([]GlyphRun, error) {
	runs, err := t.engine.Outline(r)
	if err != nil {
		return nil, err
	}
	out := runs[:0]
	for _, run := range runs {
		_, f := t.frameOf(run.Container)
		if f == nil || run.Path == nil {
			continue
		}
		off := f.offset
		run.Path = run.Path.Transform(canvas.Identity.Translate(t.toPx(off.X), t.toPx(off.Y)))
		out = append(out, run)
	}
	return out, nil
}

// tracePath 返回区间内字形的合并轮廓，位于 Text 的画布坐标，不含当前变换。
func (t *Text) tracePath(r Range) (*canvas.Path, error) {
	runs, err := t.outline(r)
	if err != nil {
		return nil, err
	}
	place := canvas.Identity.
		Translate(t.origin.X, t.origin.Y-t.fromPx(t.headroom())).
		Scale(t.fromPx(1), t.fromPx(1))
	path := &canvas.Path{}
	for _, run := range runs {
		path = path.Append(run.Path.Transform(place))
	}
	return path, nil
}

// Path 返回全部可见字形的轮廓（画布坐标）。
func (t *Text) Path() (*canvas.Path, error) { return t.tracePath(Range{0, t.Len()}) }

// GlyphRuns 返回可见字形段，路径已施加 ScreenTransform（设备单位），供渲染器逐段填色。
func (t *Text) GlyphRuns() ([]GlyphRun, error) {
	runs, err := t.outline(Range{0, t.Len()})
	if err != nil {
		return nil, err
	}
	m := t.ScreenTransform()
	for i := range runs {
		runs[i].Path = runs[i].Path.Transform(m)
	}
	return runs, nil
}
