package layout

import (
	"fmt"
	"math"
)

// 该文件定义排版过程共用的几何与格式值类型。
// 坐标系 y 轴向下，原点位于绘图区域左上角。

// epsilon 是推导行高与字距时附加的最小增量。
const epsilon = 2.220446049250313e-16

// AutoSize 表示未指定的宽或高，由 shrink-to-fit 决定最终尺寸。
const AutoSize = 0.0

// unboundedExtent 是自动尺寸容器在排版阶段使用的最大边长（设备单位）。
const unboundedExtent = 10000000.0

// Point 表示二维坐标。
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func (p Point) Add(q Point) Point { return Point{p.X + q.X, p.Y + q.Y} }
func (p Point) Sub(q Point) Point { return Point{p.X - q.X, p.Y - q.Y} }

// Size 表示宽高，任一分量为 AutoSize 时视为自动。
type Size struct {
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// Rect 由左上角与尺寸描述。
type Rect struct {
	Origin Point `json:"origin"`
	Size   Size  `json:"size"`
}

// IsEmpty 报告矩形是否没有面积。
func (r Rect) IsEmpty() bool { return r.Size.W <= 0 || r.Size.H <= 0 }

func (r Rect) MaxX() float64 { return r.Origin.X + r.Size.W }
func (r Rect) MaxY() float64 { return r.Origin.Y + r.Size.H }

// Center 返回矩形中心点。
func (r Rect) Center() Point {
	return Point{r.Origin.X + r.Size.W/2, r.Origin.Y + r.Size.H/2}
}

// Offset 平移矩形。
func (r Rect) Offset(d Point) Rect {
	r.Origin = r.Origin.Add(d)
	return r
}

// Scale 将矩形的全部分量乘以 f，用于单位换算。
func (r Rect) Scale(f float64) Rect {
	return Rect{
		Origin: Point{r.Origin.X * f, r.Origin.Y * f},
		Size:   Size{r.Size.W * f, r.Size.H * f},
	}
}

// Union 返回同时包含两个矩形的最小矩形；空矩形不参与合并。
func (r Rect) Union(o Rect) Rect {
	if r.IsEmpty() {
		return o
	}
	if o.IsEmpty() {
		return r
	}
	minX := math.Min(r.Origin.X, o.Origin.X)
	minY := math.Min(r.Origin.Y, o.Origin.Y)
	maxX := math.Max(r.MaxX(), o.MaxX())
	maxY := math.Max(r.MaxY(), o.MaxY())
	return Rect{Origin: Point{minX, minY}, Size: Size{maxX - minX, maxY - minY}}
}

// Range 是半开区间 [Start, End)，单位为字符（rune）或字形。
type Range struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

func (r Range) Len() int { return r.End - r.Start }

// Intersects 判断两个区间是否相交；零长度区间按其起点是否落在 o 内判断。
func (r Range) Intersects(o Range) bool {
	if r.Len() == 0 {
		return o.Start <= r.Start && r.Start < o.End
	}
	return r.Start < o.End && o.Start < r.End
}

// Intersect 返回两个区间的交集，不相交时返回零长度区间。
func (r Range) Intersect(o Range) Range {
	start := max(r.Start, o.Start)
	end := min(r.End, o.End)
	if end < start {
		end = start
	}
	return Range{start, end}
}

func (r Range) String() string { return fmt.Sprintf("[%d,%d)", r.Start, r.End) }

// Color 采用 0-255 的 RGB 数值，A 为 0-1 的不透明度。
type Color struct {
	R int     `json:"r"`
	G int     `json:"g"`
	B int     `json:"b"`
	A float64 `json:"a"`
}

// Font 描述一个字体实例，Size 以 pt 为单位。
type Font struct {
	Family string  `json:"family"`
	Size   float64 `json:"size"`
	Weight string  `json:"weight"`
	Italic bool    `json:"italic"`
}

func (f Font) String() string {
	style := f.Weight
	if f.Italic {
		style += " italic"
	}
	return fmt.Sprintf("%s %s %gpt", f.Family, style, f.Size)
}

// FontMetrics 以 pt 为单位的字体度量，Descent 为正值。
type FontMetrics struct {
	Ascent     float64 `json:"ascent"`
	Descent    float64 `json:"descent"`
	LineHeight float64 `json:"lineHeight"`
}

// Alignment 为段落水平对齐方式。
type Alignment int

const (
	AlignLeft Alignment = iota
	AlignRight
	AlignCenter
	AlignJustify
)

func (a Alignment) String() string {
	switch a {
	case AlignRight:
		return "right"
	case AlignCenter:
		return "center"
	case AlignJustify:
		return "justify"
	default:
		return "left"
	}
}

// RunFormat 是样式级联解析后的具体格式，附加到缓冲区之后不再修改。
// 所有长度均为设备单位（pt）。
type RunFormat struct {
	Font                Font      `json:"font"`
	Fill                Color     `json:"fill"`
	Align               Alignment `json:"align"`
	LineHeightMultiple  float64   `json:"lineHeightMultiple"`
	MaxLineHeight       float64   `json:"maxLineHeight"`
	Hyphenation         float64   `json:"hyphenation"`
	Indent              float64   `json:"indent"` // em 相对值，带符号
	FirstLineHeadIndent float64   `json:"firstLineHeadIndent"`
	HeadIndent          float64   `json:"headIndent"`
	TailIndent          float64   `json:"tailIndent"`
	TabInterval         float64   `json:"tabInterval"`
	SpacingBefore       float64   `json:"spacingBefore"`
	SpacingAfter        float64   `json:"spacingAfter"`
	// Tracking 为 nil 表示关闭字距调整，0 表示默认字距。
	Tracking *float64 `json:"tracking"`
	Kern     float64  `json:"kern"`
	Kerning  bool     `json:"kerning"`
}

// Dedent 返回首行取消缩进后的格式副本。inherit 为 true 时无条件沿用后续行的缩进，
// 用于分页后延续上一页未结束的段落。
func (f *RunFormat) Dedent(inherit bool) *RunFormat {
	if !inherit && f.FirstLineHeadIndent <= f.HeadIndent {
		return f
	}
	c := *f
	c.FirstLineHeadIndent = c.HeadIndent
	return &c
}

// LineFragment 描述一行的几何信息，坐标位于 Text 的画布坐标系（画布单位）。
type LineFragment struct {
	Range    Range `json:"range"`
	Frame    int   `json:"frame"`
	Bounds   Rect  `json:"bounds"`
	Used     Rect  `json:"used"`
	Baseline Point `json:"baseline"`
}
