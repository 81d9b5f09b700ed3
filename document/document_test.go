package document

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap/zaptest"

	"github.com/ByLCY/folio/dsl"
	"github.com/ByLCY/folio/layout"
	"github.com/ByLCY/folio/typesetter"
)

// buildDoc 是测试辅助：用等宽测量器构建给定 DSL 文本。
func buildDoc(t *testing.T, src string, data string) (*Result, error) {
	t.Helper()
	doc, err := dsl.ParseString(src)
	if err != nil {
		t.Fatalf("解析 DSL 失败: %v", err)
	}
	log := zaptest.NewLogger(t)
	opts := Options{Context: layout.Context{
		NewShaper: typesetter.Factory(typesetter.Monospace{}, log),
		Log:       log,
	}}
	return Build(context.Background(), doc, []byte(data), opts)
}

func lines(n int) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = fmt.Sprintf("l%d", i)
	}
	return strings.Join(parts, "\\n")
}

func near(a, b float64) bool { return math.Abs(a-b) < 1e-3 }

func TestBuildSingleBlock(t *testing.T) {
	res, err := buildDoc(t, `
folio Demo {
  meta { title: "Hello"; keywords: ["a", "b"] }
  page A4 margin 20pt {
    text { "Hello ${user.name}" }
  }
}
`, `{"user":{"name":"Ada"}}`)
	if err != nil {
		t.Fatalf("构建失败: %v", err)
	}
	if res.Meta.Title != "Hello" || len(res.Meta.Keywords) != 2 || res.Meta.Creator != "folio" {
		t.Fatalf("元信息不正确: %+v", res.Meta)
	}
	if len(res.Pages) != 1 || len(res.Pages[0].Blocks) != 1 {
		t.Fatalf("期望 1 页 1 个文本块，得到 %+v", res.Pages)
	}
	text := res.Pages[0].Blocks[0].Text
	if text.String() != "Hello Ada" {
		t.Fatalf("插值结果不正确: %q", text.String())
	}
	if top := text.Frames()[0].Bounds().Origin.Y; !near(top, 20) {
		t.Fatalf("文本块顶部应位于上边距，得到 %v", top)
	}
	if x := text.Origin().X; !near(x, 20) {
		t.Fatalf("文本块应从左边距开始，得到 %v", x)
	}
}

func TestBuildOverflowCreatesPages(t *testing.T) {
	res, err := buildDoc(t, fmt.Sprintf(`
folio Demo {
  page A6 margin 20pt {
    text height 30 { "%s" }
  }
}
`, lines(10)), "")
	if err != nil {
		t.Fatalf("构建失败: %v", err)
	}
	if len(res.Pages) != 5 {
		t.Fatalf("期望 5 页，得到 %d", len(res.Pages))
	}
	var got []string
	for i, p := range res.Pages {
		if len(p.Blocks) != 1 {
			t.Fatalf("第 %d 页期望 1 个文本块，得到 %d", i+1, len(p.Blocks))
		}
		b := p.Blocks[0]
		if b.Continued != (i > 0) {
			t.Fatalf("第 %d 页 Continued 标记错误", i+1)
		}
		got = append(got, b.Text.Frames()[0].Content())
	}
	if joined := strings.Join(got, ""); joined != strings.ReplaceAll(lines(10), "\\n", "\n") {
		t.Fatalf("跨页内容不连续: %q", joined)
	}
}

func TestBuildColumns(t *testing.T) {
	res, err := buildDoc(t, fmt.Sprintf(`
folio Demo {
  page A6 margin 20pt {
    text height 30 columns 2 gutter 12 { "%s" }
  }
}
`, lines(8)), "")
	if err != nil {
		t.Fatalf("构建失败: %v", err)
	}
	if len(res.Pages) != 2 {
		t.Fatalf("期望 2 页，得到 %d", len(res.Pages))
	}
	frames := res.Pages[0].Blocks[0].Text.Frames()
	if len(frames) != 2 {
		t.Fatalf("期望 2 栏，得到 %d", len(frames))
	}
	pageW := layout.Length{Value: 105, Unit: layout.UnitMM}.ToPT()
	colW := (pageW - 40 - 12) / 2
	if !near(frames[1].Offset().X, colW+12) {
		t.Fatalf("第二栏偏移 %v，期望 %v", frames[1].Offset().X, colW+12)
	}
	if frames[1].Content() != "l2\nl3\n" {
		t.Fatalf("第二栏内容 %q", frames[1].Content())
	}
}

func TestBuildStopsWhenNothingFits(t *testing.T) {
	_, err := buildDoc(t, `
folio Demo {
  page A6 margin 20pt {
    text height 5 { "too tall" }
  }
}
`, "")
	if !errors.Is(err, layout.ErrInvalidArgument) {
		t.Fatalf("期望 ErrInvalidArgument，得到 %v", err)
	}
}

func TestBuildRejectsUnknownCommand(t *testing.T) {
	_, err := buildDoc(t, `
folio Demo {
  page A4 {
    image { }
  }
}
`, "")
	if !errors.Is(err, layout.ErrUnsupportedOperation) {
		t.Fatalf("期望 ErrUnsupportedOperation，得到 %v", err)
	}
}

func TestBuildMarkupUsesDocumentStyles(t *testing.T) {
	res, err := buildDoc(t, `
folio Demo {
  styles {
    style body { size: 10 }
    style b extends body { weight: bold }
  }
  page A4 {
    text body markup true { "<b>Hi</b> there" }
    text body { "second" }
  }
}
`, "")
	if err != nil {
		t.Fatalf("构建失败: %v", err)
	}
	blocks := res.Pages[0].Blocks
	if len(blocks) != 2 {
		t.Fatalf("期望 2 个文本块，得到 %d", len(blocks))
	}
	first := blocks[0].Text
	regions := first.Tags().Lookup("b")
	if len(regions) != 1 || regions[0].Start != 0 || regions[0].End != 2 {
		t.Fatalf("标签区间不正确: %+v", regions)
	}
	f, err := first.FormatAt(0)
	if err != nil || f.Font.Weight != "bold" || f.Font.Size != 10 {
		t.Fatalf("标签样式未生效: %+v %v", f, err)
	}
	if blocks[1].Text.Frames()[0].Bounds().Origin.Y <= first.Used().MaxY() {
		t.Fatalf("第二个文本块应位于第一个之下")
	}
}

func TestCollectFonts(t *testing.T) {
	doc, err := dsl.ParseString(`
folio Demo {
  fonts {
    font Serif { src: "serif.ttf" }
    font Serif bold italic { src: "serif-bi.ttf" }
  }
}
`)
	if err != nil {
		t.Fatalf("解析 DSL 失败: %v", err)
	}
	fonts, err := CollectFonts(doc)
	if err != nil {
		t.Fatalf("收集字体失败: %v", err)
	}
	if len(fonts) != 2 || fonts[0].Weight != "regular" || !fonts[1].Italic || fonts[1].Weight != "bold" {
		t.Fatalf("字体声明不正确: %+v", fonts)
	}
}

func TestWriteDebugJSON(t *testing.T) {
	res, err := buildDoc(t, `
folio Demo {
  page A5 landscape {
    text markup true { "<i>x</i>y" }
  }
}
`, "")
	if err != nil {
		t.Fatalf("构建失败: %v", err)
	}
	if res.Pages[0].Size.W <= res.Pages[0].Size.H {
		t.Fatalf("landscape 页面宽度应大于高度")
	}
	path := filepath.Join(t.TempDir(), "debug.json")
	if err := WriteDebugJSON(res, path); err != nil {
		t.Fatalf("写入调试 JSON 失败: %v", err)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("读取调试 JSON 失败: %v", err)
	}
	var decoded struct {
		Unit  string `json:"unit"`
		Pages []struct {
			Blocks []struct {
				Frames []struct {
					Content string `json:"content"`
				} `json:"frames"`
				Tags map[string]any `json:"tags"`
			} `json:"blocks"`
		} `json:"pages"`
	}
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("调试 JSON 无法解析: %v", err)
	}
	block := decoded.Pages[0].Blocks[0]
	if decoded.Unit != "pt" || block.Frames[0].Content != "xy" || block.Tags["i"] == nil {
		t.Fatalf("调试 JSON 内容不正确: %s", raw)
	}
}
