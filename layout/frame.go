package layout

import (
	"fmt"
	"slices"
	"strconv"

	"github.com/google/uuid"
	"github.com/tdewolff/canvas"
)

// Frame 是 Text 的一个矩形排版区域，占据缓冲区中一段连续字符。
// offset 相对于 Text 的基线原点；尺寸分量为 AutoSize 时按无限大排版。
type Frame struct {
	text   *Text
	token  uuid.UUID
	offset Point
	size   Size
}

// newFrame 创建帧并向排版引擎注册容器；from 非空时复制其位置与尺寸。
func newFrame(t *Text, from *Frame) *Frame {
	f := &Frame{text: t}
	if from != nil {
		f.offset, f.size = from.offset, from.size
	}
	f.token = t.engine.AddContainer(f.containerSize())
	return f
}

func (f *Frame) containerSize() Size {
	s := f.text.sizeToPx(f.size)
	if f.size.W == AutoSize {
		s.W = unboundedExtent
	}
	if f.size.H == AutoSize {
		s.H = unboundedExtent
	}
	return s
}

// eject 从排版引擎注销容器，之后帧不再可用。
func (f *Frame) eject() {
	f.text.engine.RemoveContainer(f.token)
	f.text = nil
}

// Index 返回帧在序列中的位置，已移除的帧返回 -1。
func (f *Frame) Index() int {
	if f.text == nil {
		return -1
	}
	return slices.Index(f.text.frames, f)
}

// Parent 返回所属 Text。
func (f *Frame) Parent() *Text { return f.text }

// Offset 返回相对于 Text 基线原点的位置。
func (f *Frame) Offset() Point { return f.offset }

// SetOffset 移动帧，不触发重排。
func (f *Frame) SetOffset(p Point) { f.offset = p }

// Size 返回容器尺寸（画布单位），自动尺寸报告为排版使用的最大边长。
func (f *Frame) Size() Size {
	return f.text.sizeFromPx(f.text.engine.ContainerSize(f.token))
}

// SetSize 修改容器尺寸并立即重排。
func (f *Frame) SetSize(s Size) {
	if s == f.size {
		return
	}
	f.size = s
	f.text.engine.SetContainerSize(f.token, f.containerSize())
}

func (f *Frame) glyphs() Range { return f.text.engine.GlyphRange(f.token) }

// Range 返回帧内可见的字符区间。
func (f *Frame) Range() Range { return f.text.engine.CharacterRange(f.glyphs()) }

// Content 返回帧内可见的文字。
func (f *Frame) Content() string { return f.text.buf.Slice(f.Range()) }

// headroom 返回帧首字符字体的上升高度（设备单位）。
func (f *Frame) headroom() float64 {
	format := f.text.base
	if f.text.Len() > 0 {
		at := min(f.Range().Start, f.text.Len()-1)
		if rf := f.text.buf.FormatAt(at); rf != nil {
			format = rf
		}
	}
	m, err := f.text.engine.Metrics(format.Font)
	if err != nil {
		return format.Font.Size
	}
	return m.Ascent
}

// Bounds 返回帧在画布坐标中的位置与尺寸。
func (f *Frame) Bounds() Rect {
	t := f.text
	r := Rect{Origin: f.offset.Add(t.origin), Size: f.Size()}
	r.Origin.Y -= t.fromPx(f.headroom())
	return r
}

// Used 返回帧内文字实际占用的区域（画布坐标）。
func (f *Frame) Used() Rect {
	t := f.text
	used := t.engine.UsedRect(f.token)
	used.Origin.Y -= f.headroom()
	return t.rectFromPx(used).Offset(f.offset.Add(t.origin))
}

// Metrics 返回已用区域的尺寸。
func (f *Frame) Metrics() Size { return f.Used().Size }

// Lines 返回帧内各行的几何信息。
func (f *Frame) Lines() []LineFragment { return f.text.lineFragments(f.Range()) }

// Path 返回帧内全部字形的轮廓。
func (f *Frame) Path() (*canvas.Path, error) { return f.Match().Path() }

// Match 把帧内可见区间包装为 Match。
func (f *Frame) Match() *Match { return frameMatch(f) }

func (f *Frame) String() string {
	s := f.Size()
	return fmt.Sprintf("Frame((%s, %s), (%s, %s))", trim(f.offset.X), trim(f.offset.Y), trim(s.W), trim(s.H))
}

func trim(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }
