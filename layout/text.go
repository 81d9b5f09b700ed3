package layout

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"
)

// Text 是一个拥有样式化字符缓冲区的文本块：缓冲区被分配到一个或多个 Frame 中排版，
// 并支持按标签或正则检索带几何信息的匹配结果。
//
// Text 独占其缓冲区、帧列表与标签索引；Frame 与 Match 只持有指向 Text 的非拥有引用。
// 所有方法都是同步的，不能被并发调用。
type Text struct {
	ctx     Context
	log     *zap.Logger
	origin  Point // 基线原点（画布单位）
	dims    Size  // 第一帧的请求尺寸，AutoSize 表示自动
	style   Props
	cascade *StyleCascade
	base    *RunFormat
	buf     *styledBuffer
	tags    *TagIndex
	engine  Shaper
	frames  []*Frame
}

// NewText 在 origin 处创建空文本块。dims 中为 AutoSize 的分量按内容自动收缩；
// style 覆盖 ctx.Style 中的默认样式。
func NewText(ctx Context, origin Point, dims Size, style Props) (*Text, error) {
	ctx = ctx.withDefaults()
	if ctx.NewShaper == nil {
		return nil, fmt.Errorf("%w: 缺少排版引擎", ErrInvalidArgument)
	}
	if err := ValidateProps(style); err != nil {
		return nil, err
	}
	t := &Text{
		ctx:    ctx,
		log:    ctx.Log.Named("text"),
		origin: origin,
		dims:   dims,
		style:  ctx.Style.Merge(style),
		buf:    &styledBuffer{},
		tags:   NewTagIndex(),
		engine: ctx.NewShaper(),
	}
	t.cascade = NewStyleCascade(ctx.Unit, ctx.Sheet, t.engine)
	base, err := t.cascade.Resolve(t.style, nil, nil)
	if err != nil {
		return nil, err
	}
	t.base = base
	t.frames = []*Frame{newFrame(t, nil)}
	t.resize()
	return t, nil
}

// Append 以纯文本方式追加内容，style 为本次调用的样式覆盖。
func (t *Text) Append(s string, style Props) error {
	return t.append(s, false, style)
}

// AppendMarkup 追加带内联标签的内容，标签经样式表解析后参与级联，并记录到标签索引。
func (t *Text) AppendMarkup(s string, style Props) error {
	return t.append(s, true, style)
}

// AppendSource 读取文件或 URL 并追加其内容：.xml 按标记处理；.html 尝试解码为带样式的文字，
// 若文档没有样式信息则按纯文本处理。
func (t *Text) AppendSource(ctx context.Context, src string, style Props) error {
	if err := ValidateProps(style); err != nil {
		return err
	}
	data, err := t.ctx.Sources.ReadSource(ctx, src)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrResourceUnreadable, src, err)
	}
	content, err := decodeSourceText(src, data)
	if err != nil {
		return err
	}
	t.log.Debug("读取外部内容", zap.String("src", src), zap.Int("bytes", len(data)))

	switch classifySource(src) {
	case sourceMarkup:
		return t.append(content, true, style)
	case sourceRich:
		if !strings.HasSuffix(strings.ToLower(src), ".rtf") {
			runs, styled, err := decodeHTML(content)
			if err != nil {
				return fmt.Errorf("%w: %s: %v", ErrResourceUnreadable, src, err)
			}
			if styled {
				return t.appendRich(runs, style)
			}
		}
	}
	return t.append(content, false, style)
}

func (t *Text) append(content string, markup bool, overrides Props) error {
	if err := ValidateProps(overrides); err != nil {
		return err
	}
	if !markup {
		f, err := t.cascade.Resolve(t.style, overrides, nil)
		if err != nil {
			return err
		}
		formats := make([]*RunFormat, len([]rune(content)))
		for i := range formats {
			formats[i] = f
		}
		t.commit(content, formats, nil, true)
		return nil
	}

	if t.ctx.Markup == nil {
		return fmt.Errorf("%w: 未配置标记解析器", ErrUnsupportedOperation)
	}
	m, err := t.ctx.Markup.Parse(content, t.buf.Len())
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedMarkup, err)
	}
	formats := make([]*RunFormat, len([]rune(m.Text)))
	for _, chain := range m.Chains {
		f, err := t.cascade.Resolve(t.style, overrides, chain.Tags)
		if err != nil {
			return err
		}
		for _, r := range chain.Ranges {
			for i := max(r.Start, 0); i < min(r.End, len(formats)); i++ {
				formats[i] = f
			}
		}
	}
	var fallback *RunFormat
	for i := range formats {
		if formats[i] != nil {
			continue
		}
		if fallback == nil {
			if fallback, err = t.cascade.Resolve(t.style, overrides, nil); err != nil {
				return err
			}
		}
		formats[i] = fallback
	}

	var regions []TagRegion
	tags := make([]string, 0, len(m.Nodes))
	for tag := range m.Nodes {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	for _, tag := range tags {
		regions = append(regions, m.Nodes[tag]...)
	}
	t.commit(m.Text, formats, regions, true)
	return nil
}

// appendRich 追加已带样式的文字段，不应用段落缩进规则，也不记录标签。
func (t *Text) appendRich(runs []richRun, overrides Props) error {
	var (
		text    strings.Builder
		formats []*RunFormat
	)
	for _, run := range runs {
		f, err := t.cascade.Resolve(t.style, overrides.Merge(run.props), nil)
		if err != nil {
			return err
		}
		text.WriteString(run.text)
		for range []rune(run.text) {
			formats = append(formats, f)
		}
	}
	t.commit(text.String(), formats, nil, false)
	return nil
}

// commit 以一次原子编辑把文字写入缓冲区与排版引擎。formats 与 text 的字符一一对应。
func (t *Text) commit(text string, formats []*RunFormat, regions []TagRegion, indent bool) {
	if text == "" {
		t.tags.Add(regions...)
		return
	}
	if indent {
		for _, pos := range flushLeft(t.buf.Tail(2), text) {
			formats[pos] = formats[pos].Dedent(false)
		}
	}

	start := t.buf.Len()
	runes := []rune(text)
	for i := 0; i < len(runes); {
		j := i + 1
		for j < len(runes) && formats[j] == formats[i] {
			j++
		}
		chunk := string(runes[i:j])
		t.buf.append(chunk, formats[i])
		t.engine.AppendRun(chunk, formats[i])
		i = j
	}
	t.tags.Add(regions...)
	t.resize()
	t.log.Debug("追加文本",
		zap.Int("start", start),
		zap.Int("chars", len(runes)),
		zap.Int("regions", len(regions)),
		zap.Int("glyphs", t.engine.GlyphCount()))
}

// setFormat 替换区间内的字符格式并同步到排版引擎。
func (t *Text) setFormat(r Range, f *RunFormat) {
	t.buf.setFormat(r, f)
	t.engine.SetFormat(r, f)
}

// String 返回正在排版的全部文字。
func (t *Text) String() string { return t.buf.String() }

// Len 返回字符（rune）数。
func (t *Text) Len() int { return t.buf.Len() }

// Style 返回基础样式的副本。
func (t *Text) Style() Props { return Props{}.Merge(t.style) }

// Context 返回创建时使用的环境。
func (t *Text) Context() Context { return t.ctx }

// Tags 返回标签索引的副本。
func (t *Text) Tags() *TagIndex { return t.tags.Clone() }

// FormatAt 返回第 i 个字符的格式。
func (t *Text) FormatAt(i int) (*RunFormat, error) {
	f := t.buf.FormatAt(i)
	if f == nil {
		return nil, fmt.Errorf("%w: %d", ErrIndexOutOfRange, i)
	}
	return f, nil
}

// Origin 返回基线原点。
func (t *Text) Origin() Point { return t.origin }

// SetOrigin 移动基线原点，不触发重排。
func (t *Text) SetOrigin(p Point) { t.origin = p }

// Dims 返回请求尺寸。
func (t *Text) Dims() Size { return t.dims }

// SetDims 修改第一帧的请求尺寸并立即重排。
func (t *Text) SetDims(s Size) {
	t.dims = s
	t.resize()
}

// Frames 返回帧列表的副本。
func (t *Text) Frames() []*Frame { return append([]*Frame(nil), t.frames...) }

// toPx 把画布单位换算为设备单位。
func (t *Text) toPx(v float64) float64 { return Length{v, t.ctx.Unit}.ToPT() }

// fromPx 把设备单位换算为画布单位。
func (t *Text) fromPx(v float64) float64 { return Length{v, UnitPT}.To(t.ctx.Unit) }

func (t *Text) sizeToPx(s Size) Size   { return Size{t.toPx(s.W), t.toPx(s.H)} }
func (t *Text) sizeFromPx(s Size) Size { return Size{t.fromPx(s.W), t.fromPx(s.H)} }
func (t *Text) rectFromPx(r Rect) Rect { return r.Scale(t.fromPx(1)) }
