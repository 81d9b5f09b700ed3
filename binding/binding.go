package binding

import (
	"regexp"
	"strings"

	"github.com/tidwall/gjson"
)

var exprPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// Interpolate 将文本中的 ${path.to.value} 替换为 JSON 数据中的值。
// 路径既可写成 gjson 语法（items.0.name），也可写成下标形式（items[0].name）。
// 若 data 为空、不是合法 JSON 或路径不存在，则保留原占位符。
func Interpolate(text string, data []byte) string {
	if len(data) == 0 || !gjson.ValidBytes(data) {
		return text
	}
	return exprPattern.ReplaceAllStringFunc(text, func(match string) string {
		groups := exprPattern.FindStringSubmatch(match)
		if len(groups) < 2 {
			return match
		}
		if val, ok := Lookup(data, groups[1]); ok {
			return val
		}
		return match
	})
}

// Lookup 返回 path 对应值的字符串形式。
func Lookup(data []byte, path string) (string, bool) {
	path = normalizePath(path)
	if path == "" {
		return "", false
	}
	res := gjson.GetBytes(data, path)
	if !res.Exists() {
		return "", false
	}
	return res.String(), true
}

// normalizePath 把 a[0].b 形式的下标改写为 gjson 的 a.0.b。
func normalizePath(path string) string {
	path = strings.TrimSpace(path)
	path = strings.TrimPrefix(path, "data.")
	var b strings.Builder
	for i := 0; i < len(path); i++ {
		switch c := path[i]; c {
		case '[':
			if b.Len() > 0 {
				b.WriteByte('.')
			}
		case ']':
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}
