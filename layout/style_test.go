package layout

import (
	"errors"
	"strings"
	"testing"
)

type fixedMetrics struct{}

func (fixedMetrics) Metrics(f Font) (FontMetrics, error) {
	if f.Family == "Missing" {
		return FontMetrics{}, errors.New("no such font")
	}
	return FontMetrics{Ascent: 0.8 * f.Size, Descent: 0.2 * f.Size, LineHeight: f.Size}, nil
}

type tagSheet map[string]Props

func (s tagSheet) Lookup(tag string) Props { return s[tag] }

func TestCascadeOrder(t *testing.T) {
	c := NewStyleCascade(UnitPT, tagSheet{"b": {"weight": "bold", "size": "14"}, "small": {"size": "8"}}, fixedMetrics{})
	base := DefaultStyle()
	merged := c.Merge(base, Props{"size": "20", "fill": "red"}, []string{"b", "small"})
	if merged["size"] != "8" || merged["weight"] != "bold" || merged["fill"] != "red" {
		t.Fatalf("级联顺序错误: %v", merged)
	}
	if base["size"] != "12" {
		t.Fatalf("Merge 不应修改基础样式")
	}
}

func TestResolveFormat(t *testing.T) {
	c := NewStyleCascade(UnitMM, nil, fixedMetrics{})
	f, err := c.Resolve(DefaultStyle(), Props{
		"size":     "10",
		"leading":  "1.5",
		"indent":   "2",
		"margin":   "10 5",
		"spacing":  "1 0.5",
		"align":    "justify",
		"tracking": "100",
		"italic":   "yes",
		"weight":   "700",
		"fill":     "#ff000080",
	}, nil)
	if err != nil {
		t.Fatalf("解析样式失败: %v", err)
	}
	head := 10 * MmToPt
	switch {
	case f.Font.Size != 10 || f.Font.Weight != "bold" || !f.Font.Italic:
		t.Fatalf("字体错误: %s", f.Font)
	case f.Align != AlignJustify:
		t.Fatalf("对齐错误: %s", f.Align)
	case !almostEqual(f.FirstLineHeadIndent, 20+head) || !almostEqual(f.HeadIndent, head):
		t.Fatalf("缩进错误: first=%v head=%v", f.FirstLineHeadIndent, f.HeadIndent)
	case !almostEqual(f.TailIndent, 5*MmToPt):
		t.Fatalf("右缩进错误: %v", f.TailIndent)
	case !almostEqual(f.TabInterval, 20):
		t.Fatalf("制表位应为缩进宽度: %v", f.TabInterval)
	case !almostEqual(f.SpacingBefore, 15) || !almostEqual(f.SpacingAfter, 7.5):
		t.Fatalf("段间距错误: %v %v", f.SpacingBefore, f.SpacingAfter)
	case !almostEqual(f.MaxLineHeight, 15) || !almostEqual(f.LineHeightMultiple, 1.5):
		t.Fatalf("行高错误: %v %v", f.MaxLineHeight, f.LineHeightMultiple)
	case !almostEqual(f.Kern, 1) || f.Tracking == nil || !f.Kerning:
		t.Fatalf("字距错误: %v", f.Kern)
	case f.Fill.R != 255 || f.Fill.G != 0 || !almostEqual(f.Fill.A, 128.0/255):
		t.Fatalf("颜色错误: %+v", f.Fill)
	}
}

func TestResolveNegativeIndentHangs(t *testing.T) {
	c := NewStyleCascade(UnitPT, nil, fixedMetrics{})
	f, err := c.Resolve(DefaultStyle(), Props{"size": "10", "indent": "-1.5"}, nil)
	if err != nil {
		t.Fatalf("解析样式失败: %v", err)
	}
	if f.FirstLineHeadIndent != 0 || !almostEqual(f.HeadIndent, 15) {
		t.Fatalf("负缩进应形成悬挂缩进: first=%v head=%v", f.FirstLineHeadIndent, f.HeadIndent)
	}
	if d := f.Dedent(false); d != f {
		t.Fatalf("首行未缩进时 Dedent(false) 应返回原格式")
	}
	if d := f.Dedent(true); d.FirstLineHeadIndent != d.HeadIndent || f.FirstLineHeadIndent != 0 {
		t.Fatalf("Dedent(true) 应返回修改后的副本")
	}
}

func TestResolveTrackingNone(t *testing.T) {
	c := NewStyleCascade(UnitPT, nil, fixedMetrics{})
	f, err := c.Resolve(DefaultStyle(), Props{"tracking": "none"}, nil)
	if err != nil {
		t.Fatalf("解析样式失败: %v", err)
	}
	if f.Kerning || f.Tracking != nil {
		t.Fatalf("tracking=none 应关闭字距调整")
	}
}

func TestResolveCollectsErrors(t *testing.T) {
	c := NewStyleCascade(UnitPT, nil, fixedMetrics{})
	_, err := c.Resolve(DefaultStyle(), Props{"size": "big", "weight": "chunky", "align": "sideways", "fill": "#zz"}, nil)
	if !errors.Is(err, ErrInvalidStyle) {
		t.Fatalf("期望 ErrInvalidStyle，实际 %v", err)
	}
	for _, key := range []string{"size", "weight", "align"} {
		if !strings.Contains(err.Error(), key) {
			t.Fatalf("错误信息应包含 %s: %v", key, err)
		}
	}

	if _, err := c.Resolve(DefaultStyle(), Props{"family": "Missing"}, nil); !errors.Is(err, ErrInvalidStyle) {
		t.Fatalf("不可用字体应返回 ErrInvalidStyle，实际 %v", err)
	}
	if _, err := c.Resolve(DefaultStyle(), Props{"shadow": "1"}, nil); !errors.Is(err, ErrInvalidStyle) {
		t.Fatalf("未知键应返回 ErrInvalidStyle，实际 %v", err)
	}
}

func TestParseColor(t *testing.T) {
	cases := []struct {
		in   string
		want Color
	}{
		{"navy", Color{0, 0, 128, 1}},
		{"#fff", Color{255, 255, 255, 1}},
		{"10, 20, 30", Color{10, 20, 30, 1}},
		{"0 0 0 0", Color{0, 0, 0, 0}},
		{"128", Color{128, 128, 128, 1}},
		{"transparent", Color{}},
	}
	for _, c := range cases {
		got, err := ParseColor(c.in)
		if err != nil || got != c.want {
			t.Fatalf("ParseColor(%q) = %+v, %v; want %+v", c.in, got, err, c.want)
		}
	}
	for _, bad := range []string{"nope", "300", "1,2", "#zz"} {
		if _, err := ParseColor(bad); !errors.Is(err, ErrInvalidStyle) {
			t.Fatalf("ParseColor(%q) 应返回 ErrInvalidStyle，实际 %v", bad, err)
		}
	}
}
