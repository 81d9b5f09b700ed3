package fonts

import (
	"fmt"
	"sort"
	"strings"

	"github.com/maruel/natural"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gobolditalic"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/gomedium"
	"golang.org/x/image/font/gofont/gomediumitalic"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/gomonobold"
	"golang.org/x/image/font/gofont/gomonobolditalic"
	"golang.org/x/image/font/gofont/gomonoitalic"
	"golang.org/x/image/font/gofont/goregular"
)

// Face 描述一个内置字体文件在字族中的位置。
type Face struct {
	Name   string
	Family string
	Weight string
	Italic bool
}

var builtin = map[string][]byte{
	"Go-Regular":         goregular.TTF,
	"Go-Italic":          goitalic.TTF,
	"Go-Bold":            gobold.TTF,
	"Go-BoldItalic":      gobolditalic.TTF,
	"Go-Medium":          gomedium.TTF,
	"Go-MediumItalic":    gomediumitalic.TTF,
	"Go-Mono":            gomono.TTF,
	"Go-Mono-Italic":     gomonoitalic.TTF,
	"Go-Mono-Bold":       gomonobold.TTF,
	"Go-Mono-BoldItalic": gomonobolditalic.TTF,
}

var faces = []Face{
	{"Go-Regular", "Go", "regular", false},
	{"Go-Italic", "Go", "regular", true},
	{"Go-Bold", "Go", "bold", false},
	{"Go-BoldItalic", "Go", "bold", true},
	{"Go-Medium", "Go", "medium", false},
	{"Go-MediumItalic", "Go", "medium", true},
	{"Go-Mono", "Go Mono", "regular", false},
	{"Go-Mono-Italic", "Go Mono", "regular", true},
	{"Go-Mono-Bold", "Go Mono", "bold", false},
	{"Go-Mono-BoldItalic", "Go Mono", "bold", true},
}

// Load 返回内置字体的字节数据，name 可写为 "embed:Go-Bold" 或直接 "Go-Bold"。
func Load(name string) ([]byte, error) {
	clean := strings.TrimSuffix(strings.TrimPrefix(name, "embed:"), ".ttf")
	data, ok := builtin[clean]
	if !ok {
		return nil, fmt.Errorf("读取内置字体 %s 失败: 不存在", name)
	}
	return data, nil
}

// Names 返回全部内置字体名（已排序）。
func Names() []string {
	out := make([]string, 0, len(builtin))
	for name := range builtin {
		out = append(out, name)
	}
	sort.Sort(natural.StringSlice(out))
	return out
}

// Faces 返回内置字族的全部字体。
func Faces() []Face { return append([]Face(nil), faces...) }

// Families 返回内置字族名（已排序、去重）。
func Families() []string {
	seen := map[string]bool{}
	var out []string
	for _, f := range faces {
		if !seen[f.Family] {
			seen[f.Family] = true
			out = append(out, f.Family)
		}
	}
	sort.Sort(natural.StringSlice(out))
	return out
}
