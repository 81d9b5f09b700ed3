package document

import "github.com/ByLCY/folio/layout"

// Result 是文档排版的最终结果，所有长度均为画布单位。
type Result struct {
	Meta  Meta        `json:"meta"`
	Unit  layout.Unit `json:"unit"`
	Pages []*Page     `json:"pages"`
}

// Meta 记录文档元信息。
type Meta struct {
	Title    string   `json:"title"`
	Author   string   `json:"author"`
	Subject  string   `json:"subject"`
	Creator  string   `json:"creator"`
	Keywords []string `json:"keywords"`
}

// Margin 记录页边距。
type Margin struct {
	Top    float64 `json:"top"`
	Right  float64 `json:"right"`
	Bottom float64 `json:"bottom"`
	Left   float64 `json:"left"`
}

// Page 是一页的尺寸、边距与其上的文本块。
type Page struct {
	Number int         `json:"number"`
	Size   layout.Size `json:"size"`
	Margin Margin      `json:"margin"`
	Blocks []*Block    `json:"blocks"`
}

// Content 返回页面内容区域。
func (p *Page) Content() layout.Rect {
	return layout.Rect{
		Origin: layout.Point{X: p.Margin.Left, Y: p.Margin.Top},
		Size: layout.Size{
			W: p.Size.W - p.Margin.Left - p.Margin.Right,
			H: p.Size.H - p.Margin.Top - p.Margin.Bottom,
		},
	}
}

// Block 是放置在页面上的一个文本块；跨页的文本在每页各有一个 Block。
type Block struct {
	Style string       `json:"style"`
	Text  *layout.Text `json:"-"`
	// Continued 表示该块是上一页溢出的延续。
	Continued bool `json:"continued"`
}

// FontDecl 是 fonts 段中声明的字体文件。
type FontDecl struct {
	Family string `json:"family"`
	Weight string `json:"weight"`
	Italic bool   `json:"italic"`
	Src    string `json:"src"`
}
