package document

import (
	"fmt"
	"strings"

	"github.com/ByLCY/folio/dsl"
	"github.com/ByLCY/folio/layout"
)

// pagePresets 以毫米记录纵向纸张尺寸。
var pagePresets = map[string][2]float64{
	"A3":     {297, 420},
	"A4":     {210, 297},
	"A5":     {148, 210},
	"A6":     {105, 148},
	"LETTER": {215.9, 279.4},
	"LEGAL":  {215.9, 355.6},
}

// resolvePageSize 返回页面尺寸（画布单位），支持 landscape 参数。
func resolvePageSize(spec dsl.PageSpec, unit layout.Unit) (layout.Size, error) {
	base, ok := pagePresets[strings.ToUpper(spec.Size)]
	if !ok {
		return layout.Size{}, fmt.Errorf("%w: 暂不支持的纸张尺寸：%s", layout.ErrInvalidArgument, spec.Size)
	}
	w := layout.Length{Value: base[0], Unit: layout.UnitMM}.To(unit)
	h := layout.Length{Value: base[1], Unit: layout.UnitMM}.To(unit)
	for _, token := range spec.Params {
		if strings.EqualFold(token.Value, "landscape") {
			w, h = h, w
		}
	}
	return layout.Size{W: w, H: h}, nil
}

// resolveMargin 解析 margin 之后最多四个长度，语义同 CSS：
// 1 个值四边相同；2 个值为上下、左右；3 个值为上、左右、下；4 个值为上右下左。
// 未写 margin 时四边为 20mm。
func resolveMargin(params []*dsl.Lexeme, unit layout.Unit) (Margin, error) {
	def := layout.Length{Value: 20, Unit: layout.UnitMM}.To(unit)
	margin := Margin{Top: def, Right: def, Bottom: def, Left: def}
	for i := 0; i < len(params); i++ {
		if !strings.EqualFold(params[i].Value, "margin") {
			continue
		}
		var vals []float64
		for j := i + 1; j < len(params) && len(vals) < 4; j++ {
			if params[j].Type != "Number" {
				break
			}
			l, err := layout.ParseLength(params[j].Value, unit)
			if err != nil {
				return margin, fmt.Errorf("%w: margin: %v", layout.ErrInvalidArgument, err)
			}
			vals = append(vals, l.To(unit))
		}
		switch len(vals) {
		case 0:
			return margin, fmt.Errorf("%w: margin 缺少数值", layout.ErrInvalidArgument)
		case 1:
			margin = Margin{vals[0], vals[0], vals[0], vals[0]}
		case 2:
			margin = Margin{vals[0], vals[1], vals[0], vals[1]}
		case 3:
			margin = Margin{vals[0], vals[1], vals[2], vals[1]}
		default:
			margin = Margin{vals[0], vals[1], vals[2], vals[3]}
		}
	}
	return margin, nil
}
