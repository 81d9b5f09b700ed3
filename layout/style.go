package layout

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/multierr"
)

// Props 是样式键到文本值的映射。
type Props map[string]string

// 允许出现的样式键。
var styleKeys = map[string]struct{}{
	"family":    {},
	"size":      {},
	"weight":    {},
	"italic":    {},
	"leading":   {},
	"tracking":  {},
	"indent":    {},
	"margin":    {},
	"spacing":   {},
	"align":     {},
	"hyphenate": {},
	"fill":      {},
}

// Merge 返回 p 被 o 覆盖后的新表，两者均不被修改。
func (p Props) Merge(o Props) Props {
	out := make(Props, len(p)+len(o))
	for k, v := range p {
		out[k] = v
	}
	for k, v := range o {
		out[k] = v
	}
	return out
}

// Keys 返回排序后的键。
func (p Props) Keys() []string {
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ValidateProps 检查未知样式键，所有问题合并为一个错误返回。
func ValidateProps(p Props) error {
	var err error
	for _, k := range p.Keys() {
		if _, ok := styleKeys[k]; !ok {
			err = multierr.Append(err, fmt.Errorf("%w: 未知样式键 %q", ErrInvalidStyle, k))
		}
	}
	return err
}

// FontMetricsSource 提供字体度量，通常由排版引擎实现。
type FontMetricsSource interface {
	Metrics(font Font) (FontMetrics, error)
}

// StyleCascade 把基础样式、调用覆盖与样式表条目合并为 RunFormat。
type StyleCascade struct {
	unit    Unit
	sheet   Stylesheet
	metrics FontMetricsSource
}

// NewStyleCascade 创建解析器；unit 为外边距等长度的默认画布单位。
func NewStyleCascade(unit Unit, sheet Stylesheet, metrics FontMetricsSource) *StyleCascade {
	return &StyleCascade{unit: unit, sheet: sheet, metrics: metrics}
}

// Merge 按 base ← overrides ← sheet(tag...) 的顺序合并样式，后者覆盖前者。
func (c *StyleCascade) Merge(base, overrides Props, tags []string) Props {
	merged := base.Merge(overrides)
	if c.sheet == nil {
		return merged
	}
	for _, tag := range tags {
		merged = merged.Merge(c.sheet.Lookup(tag))
	}
	return merged
}

// Resolve 合并样式并推导出具体的 RunFormat。
func (c *StyleCascade) Resolve(base, overrides Props, tags []string) (*RunFormat, error) {
	merged := c.Merge(base, overrides, tags)
	if err := ValidateProps(merged); err != nil {
		return nil, err
	}
	return c.format(merged)
}

func (c *StyleCascade) format(p Props) (*RunFormat, error) {
	var errs error
	fail := func(key string, err error) {
		errs = multierr.Append(errs, fmt.Errorf("%w: %s=%q: %v", ErrInvalidStyle, key, p[key], err))
	}

	f := &RunFormat{Kerning: true}
	f.Font.Family = strings.TrimSpace(p["family"])
	if f.Font.Family == "" {
		f.Font.Family = DefaultStyle()["family"]
	}

	size := 12.0
	if v, ok := p["size"]; ok {
		l, err := ParseLength(v, UnitPT)
		switch {
		case err != nil:
			fail("size", err)
		case l.ToPT() <= 0:
			fail("size", fmt.Errorf("字号必须为正数"))
		default:
			size = l.ToPT()
		}
	}
	f.Font.Size = size

	weight, err := parseWeight(p["weight"])
	if err != nil {
		fail("weight", err)
	}
	f.Font.Weight = weight

	if v, ok := p["italic"]; ok {
		italic, err := parseFlag(v)
		if err != nil {
			fail("italic", err)
		}
		f.Font.Italic = italic
	}

	leading := 1.2
	if v, ok := p["leading"]; ok {
		spec, err := ParseLineHeight(v)
		if err != nil {
			fail("leading", err)
		} else {
			leading = spec.FactorFor(size)
		}
	}

	indent, err := parseFloat(p["indent"], 0)
	if err != nil {
		fail("indent", err)
	}
	f.Indent = indent

	head, tail, err := c.parsePair(p["margin"], c.unit)
	if err != nil {
		fail("margin", err)
	}
	before, after, err := c.parsePair(p["spacing"], UnitNone)
	if err != nil {
		fail("spacing", err)
	}

	if v, ok := p["align"]; ok {
		a, err := ParseAlignment(v)
		if err != nil {
			fail("align", err)
		}
		f.Align = a
	}

	hyph, err := parseFloat(p["hyphenate"], 0)
	if err != nil {
		fail("hyphenate", err)
	}
	f.Hyphenation = math.Max(0, math.Min(1, hyph))

	if v, ok := p["tracking"]; ok && strings.EqualFold(strings.TrimSpace(v), "none") {
		f.Kerning = false
	} else {
		tracking, err := parseFloat(v, 0)
		if err != nil {
			fail("tracking", err)
		}
		f.Tracking = &tracking
		if tracking == 0 {
			f.Kern = epsilon
		} else {
			f.Kern = tracking * size / 1000
		}
	}

	if v, ok := p["fill"]; ok {
		col, err := ParseColor(v)
		if err != nil {
			errs = multierr.Append(errs, err)
		}
		f.Fill = col
	} else {
		f.Fill = Color{A: 1}
	}

	if errs != nil {
		return nil, errs
	}

	m, err := c.metrics.Metrics(f.Font)
	if err != nil {
		return nil, fmt.Errorf("%w: 字体 %s 不可用: %v", ErrInvalidStyle, f.Font, err)
	}
	faceHeight := epsilon + m.Ascent + m.Descent
	f.LineHeightMultiple = leading * size / faceHeight
	f.MaxLineHeight = size*leading + epsilon

	indentPx := size * indent
	f.TabInterval = math.Abs(indentPx)
	if f.TabInterval == 0 {
		f.TabInterval = size
	}
	if indentPx > 0 {
		f.FirstLineHeadIndent = indentPx + head
		f.HeadIndent = head
	} else {
		f.FirstLineHeadIndent = head
		f.HeadIndent = math.Abs(indentPx) + head
	}
	f.TailIndent = tail
	f.SpacingBefore = size * leading * before
	f.SpacingAfter = size * leading * after
	return f, nil
}

// parsePair 解析 "a [b]" 形式的两个长度；unit 为 UnitNone 时按纯数值处理，否则换算为设备单位。
func (c *StyleCascade) parsePair(value string, unit Unit) (float64, float64, error) {
	fields := strings.Fields(strings.ReplaceAll(value, ",", " "))
	if len(fields) > 2 {
		return 0, 0, fmt.Errorf("最多两个数值")
	}
	out := [2]float64{}
	for i, field := range fields {
		l, err := ParseLength(field, unit)
		if err != nil {
			return 0, 0, err
		}
		if unit == UnitNone && l.Unit == UnitNone {
			out[i] = l.Value
		} else {
			out[i] = l.ToPT()
		}
	}
	return out[0], out[1], nil
}

// ParseAlignment 解析对齐方式，start/end 分别视为 left/right。
func ParseAlignment(value string) (Alignment, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "left", "start":
		return AlignLeft, nil
	case "right", "end":
		return AlignRight, nil
	case "center", "centre":
		return AlignCenter, nil
	case "justify", "justified":
		return AlignJustify, nil
	default:
		return AlignLeft, fmt.Errorf("未知对齐方式 %q", value)
	}
}

var weightNames = map[string]string{
	"thin":       "thin",
	"100":        "thin",
	"extralight": "extralight",
	"200":        "extralight",
	"light":      "light",
	"300":        "light",
	"":           "regular",
	"regular":    "regular",
	"normal":     "regular",
	"book":       "regular",
	"400":        "regular",
	"medium":     "medium",
	"500":        "medium",
	"semibold":   "semibold",
	"demibold":   "semibold",
	"600":        "semibold",
	"bold":       "bold",
	"700":        "bold",
	"extrabold":  "extrabold",
	"heavy":      "extrabold",
	"800":        "extrabold",
	"black":      "black",
	"900":        "black",
}

func parseWeight(value string) (string, error) {
	key := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(value), "-", ""))
	if w, ok := weightNames[key]; ok {
		return w, nil
	}
	return "regular", fmt.Errorf("未知字重 %q", value)
}

func parseFlag(value string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "false", "no", "0", "normal", "off":
		return false, nil
	case "true", "yes", "1", "italic", "oblique", "on":
		return true, nil
	default:
		return false, fmt.Errorf("无法识别的布尔值 %q", value)
	}
}

func parseFloat(value string, fallback float64) (float64, error) {
	v := strings.TrimSpace(value)
	if v == "" {
		return fallback, nil
	}
	return strconv.ParseFloat(v, 64)
}
