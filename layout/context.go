package layout

import (
	"github.com/google/uuid"
	"github.com/tdewolff/canvas"
	"go.uber.org/zap"
)

// TransformMode 决定屏幕变换围绕哪个点施加。
type TransformMode int

const (
	// CornerMode 直接以基线原点为变换中心。
	CornerMode TransformMode = iota
	// CenterMode 以文本块边界框中心为变换中心。
	CenterMode
)

// DefaultWidthSlack 是 shrink-to-fit 时宽度额外增加的设备单位数。
const DefaultWidthSlack = 1.0

// Context 保存创建 Text 时显式传入的环境：画布单位、默认样式、当前变换以及协作组件。
type Context struct {
	Unit       Unit
	Style      Props
	Mode       TransformMode
	Transform  canvas.Matrix
	WidthSlack float64

	// NewShaper 为每个 Text 创建独占的排版引擎。
	NewShaper func() Shaper
	Markup    MarkupParser
	Sheet     Stylesheet
	Sources   SourceReader
	Log       *zap.Logger
}

// DefaultStyle 返回未指定任何样式时使用的基础样式。
func DefaultStyle() Props {
	return Props{
		"family":  "Go",
		"size":    "12",
		"weight":  "regular",
		"leading": "1.2",
		"fill":    "#000000",
	}
}

// withDefaults 返回补齐零值字段后的副本。
func (c Context) withDefaults() Context {
	if c.Unit == UnitNone {
		c.Unit = UnitPT
	}
	if c.Transform == (canvas.Matrix{}) {
		c.Transform = canvas.Identity
	}
	if c.WidthSlack == 0 {
		c.WidthSlack = DefaultWidthSlack
	}
	if c.Log == nil {
		c.Log = zap.NewNop()
	}
	if c.Sources == nil {
		c.Sources = FileSource{}
	}
	c.Style = DefaultStyle().Merge(c.Style)
	return c
}

// Shaper 是底层排版引擎，负责字形生成、断行与按容器填充。
// 所有坐标为设备单位，原点为各容器左上角；字符偏移以 rune 计。
type Shaper interface {
	AppendRun(text string, format *RunFormat)
	DeleteRange(chars Range)
	SetFormat(chars Range, format *RunFormat)
	AddContainer(size Size) uuid.UUID
	SetContainerSize(token uuid.UUID, size Size)
	ContainerSize(token uuid.UUID) Size
	RemoveContainer(token uuid.UUID)
	GlyphCount() int
	GlyphRange(token uuid.UUID) Range
	CharacterRange(glyphs Range) Range
	UsedRect(token uuid.UUID) Rect
	LocationForGlyph(index int) Point
	LineFragments(chars Range) []Fragment
	Outline(chars Range) ([]GlyphRun, error)
	Metrics(font Font) (FontMetrics, error)
}

// Fragment 是引擎坐标系下的一行：Bounds 为整行区域，Used 为字形实际占用区域。
type Fragment struct {
	Container uuid.UUID
	Range     Range
	Bounds    Rect
	Used      Rect
	Baseline  float64
}

// GlyphRun 是一段同格式字形的轮廓，Path 位于容器坐标系。
type GlyphRun struct {
	Container uuid.UUID
	Range     Range
	Format    *RunFormat
	Path      *canvas.Path
}

// MarkupParser 去除内联标签并返回标签区间。
type MarkupParser interface {
	Parse(text string, offset int) (*Markup, error)
}

// Markup 为标记解析结果。Nodes 中的区间已按 offset 平移；Chains 中的区间相对于 Text。
type Markup struct {
	Text   string
	Nodes  map[string][]TagRegion
	Chains []TagChain
}

// TagChain 是一组具有相同祖先标签序列（由外到内）的文本区间。
type TagChain struct {
	Tags   []string
	Ranges []Range
}

// Stylesheet 根据标签名返回样式属性，未知标签返回空表。
type Stylesheet interface {
	Lookup(tag string) Props
}
