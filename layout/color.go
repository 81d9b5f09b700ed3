package layout

import (
	"fmt"
	"strconv"
	"strings"

	colorful "github.com/lucasb-eyer/go-colorful"
)

var namedColors = map[string]string{
	"black":   "#000000",
	"white":   "#ffffff",
	"red":     "#ff0000",
	"green":   "#008000",
	"blue":    "#0000ff",
	"yellow":  "#ffff00",
	"cyan":    "#00ffff",
	"magenta": "#ff00ff",
	"gray":    "#808080",
	"grey":    "#808080",
	"silver":  "#c0c0c0",
	"maroon":  "#800000",
	"navy":    "#000080",
	"olive":   "#808000",
	"purple":  "#800080",
	"teal":    "#008080",
	"orange":  "#ffa500",
}

// ParseColor 解析 #rgb、#rrggbb、#rrggbbaa、颜色名、"r,g,b[,a]"（0-255）或单个灰度值。
func ParseColor(value string) (Color, error) {
	v := strings.ToLower(strings.TrimSpace(value))
	if v == "transparent" || v == "none" {
		return Color{}, nil
	}
	if hex, ok := namedColors[v]; ok {
		v = hex
	}
	if strings.HasPrefix(v, "#") {
		return parseHexColor(v, value)
	}
	parts := strings.Split(v, ",")
	if len(parts) == 1 {
		parts = strings.Fields(v)
	}
	nums := make([]float64, 0, len(parts))
	for _, part := range parts {
		n, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil || n < 0 || n > 255 {
			return Color{}, fmt.Errorf("%w: 无法解析颜色 %q", ErrInvalidStyle, value)
		}
		nums = append(nums, n)
	}
	switch len(nums) {
	case 1:
		g := int(nums[0])
		return Color{R: g, G: g, B: g, A: 1}, nil
	case 3:
		return Color{R: int(nums[0]), G: int(nums[1]), B: int(nums[2]), A: 1}, nil
	case 4:
		return Color{R: int(nums[0]), G: int(nums[1]), B: int(nums[2]), A: nums[3] / 255}, nil
	default:
		return Color{}, fmt.Errorf("%w: 无法解析颜色 %q", ErrInvalidStyle, value)
	}
}

func parseHexColor(hex, raw string) (Color, error) {
	alpha := 1.0
	if len(hex) == 9 {
		a, err := strconv.ParseUint(hex[7:], 16, 8)
		if err != nil {
			return Color{}, fmt.Errorf("%w: 无法解析颜色 %q", ErrInvalidStyle, raw)
		}
		alpha = float64(a) / 255
		hex = hex[:7]
	}
	c, err := colorful.Hex(hex)
	if err != nil {
		return Color{}, fmt.Errorf("%w: 无法解析颜色 %q: %v", ErrInvalidStyle, raw, err)
	}
	r, g, b := c.RGB255()
	return Color{R: int(r), G: int(g), B: int(b), A: alpha}, nil
}
