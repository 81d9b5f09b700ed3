package document

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/ByLCY/folio/binding"
	"github.com/ByLCY/folio/dsl"
	"github.com/ByLCY/folio/layout"
	"github.com/ByLCY/folio/markup"
	"github.com/ByLCY/folio/stylesheet"
)

// 文本块之间的默认垂直间距（毫米）。
const blockGapMM = 3.0

// 文本命令中不属于样式的属性。
var geometryKeys = map[string]bool{
	"x": true, "y": true, "width": true, "height": true,
	"columns": true, "gutter": true, "markup": true, "src": true,
}

// Options 配置 Build。Context 中未设置的 Sheet、Markup、Sources 会按文档补齐。
type Options struct {
	Context layout.Context
	BaseDir string
}

// Build 根据 DSL AST 与 JSON 数据生成分页后的文本块。
func Build(ctx context.Context, doc *dsl.Document, data []byte, opts Options) (*Result, error) {
	if doc == nil {
		return nil, fmt.Errorf("%w: 文档为空", layout.ErrInvalidArgument)
	}
	lctx := opts.Context
	if lctx.Log == nil {
		lctx.Log = zap.NewNop()
	}
	if lctx.Unit == layout.UnitNone {
		lctx.Unit = layout.UnitPT
	}
	if lctx.Sheet == nil {
		sheet, err := stylesheet.FromDocument(doc, lctx.Log)
		if err != nil {
			return nil, err
		}
		lctx.Sheet = sheet
	}
	if lctx.Markup == nil {
		lctx.Markup = markup.Parser{}
	}
	if lctx.Sources == nil {
		lctx.Sources = layout.FileSource{BaseDir: opts.BaseDir}
	}

	b := &builder{
		ctx:    ctx,
		lctx:   lctx,
		log:    lctx.Log.Named("document"),
		data:   data,
		result: &Result{Meta: collectMeta(doc), Unit: lctx.Unit},
		gap:    layout.Length{Value: blockGapMM, Unit: layout.UnitMM}.To(lctx.Unit),
	}
	found := false
	for _, section := range doc.Sections {
		if section.Page == nil {
			continue
		}
		found = true
		if err := b.buildPageSection(section.Page); err != nil {
			return nil, err
		}
	}
	if !found {
		return nil, fmt.Errorf("%w: 文档中缺少 page 段落", layout.ErrInvalidArgument)
	}
	b.log.Debug("排版完成", zap.Int("pages", len(b.result.Pages)))
	return b.result, nil
}

type builder struct {
	ctx    context.Context
	lctx   layout.Context
	log    *zap.Logger
	data   []byte
	result *Result
	gap    float64

	size   layout.Size
	margin Margin
	page   *Page
	cursor float64 // 当前页下一个文本块的顶部
}

func (b *builder) buildPageSection(section *dsl.PageSection) error {
	size, err := resolvePageSize(section.Spec, b.lctx.Unit)
	if err != nil {
		return err
	}
	margin, err := resolveMargin(section.Spec.Params, b.lctx.Unit)
	if err != nil {
		return err
	}
	b.size, b.margin = size, margin
	b.newPage()
	for _, item := range section.Items {
		switch {
		case item.Text != nil:
			if err := b.handleText(item.Text); err != nil {
				return fmt.Errorf("第 %d 行 text: %w", item.Text.Pos.Line, err)
			}
		case item.Break != nil:
			b.newPage()
		case item.Other != nil:
			return fmt.Errorf("%w: 第 %d 行: 不支持的命令 %s", layout.ErrUnsupportedOperation, item.Other.Pos.Line, item.Other.Name)
		}
	}
	return nil
}

func (b *builder) newPage() *Page {
	b.page = &Page{Number: len(b.result.Pages) + 1, Size: b.size, Margin: b.margin}
	b.result.Pages = append(b.result.Pages, b.page)
	b.cursor = b.margin.Top
	return b.page
}

// textBox 是 text 命令解析后的放置参数。
type textBox struct {
	style   string
	props   layout.Props
	x, y    float64
	width   float64
	height  float64
	columns int
	gutter  float64
	markup  bool
	src     string
	autoY   bool
	autoH   bool
}

func (b *builder) parseTextBox(decl *dsl.TextDecl) (textBox, error) {
	style, attrs := parseArgs(decl.Args, true)
	content := b.page.Content()
	box := textBox{style: style, props: layout.Props{}, columns: 1, autoY: true, autoH: true}
	box.x = content.Origin.X
	box.y = b.cursor
	unit := b.lctx.Unit
	length := func(key string) (float64, bool, error) {
		v, ok := attrs[key]
		if !ok || strings.EqualFold(v, "auto") {
			return 0, false, nil
		}
		l, err := layout.ParseLength(v, unit)
		if err != nil {
			return 0, false, fmt.Errorf("%w: %s: %v", layout.ErrInvalidArgument, key, err)
		}
		return l.To(unit), true, nil
	}

	var err error
	var ok bool
	if v, set, e := length("x"); e != nil {
		return box, e
	} else if set {
		box.x = v
	}
	if v, set, e := length("y"); e != nil {
		return box, e
	} else if set {
		box.y, box.autoY = v, false
	}
	box.width = content.MaxX() - box.x
	if v, set, e := length("width"); e != nil {
		return box, e
	} else if set {
		box.width = v
	} else if strings.EqualFold(attrs["width"], "auto") {
		box.width = layout.AutoSize
	}
	box.height = content.MaxY() - box.y
	if v, set, e := length("height"); e != nil {
		return box, e
	} else if set {
		box.height, box.autoH = v, false
	} else if strings.EqualFold(attrs["height"], "auto") {
		box.height = layout.AutoSize
	}
	if box.gutter, ok, err = length("gutter"); err != nil {
		return box, err
	} else if !ok {
		box.gutter = layout.Length{Value: 12, Unit: layout.UnitPT}.To(unit)
	}
	if v, has := attrs["columns"]; has {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return box, fmt.Errorf("%w: columns 必须为正整数: %q", layout.ErrInvalidArgument, v)
		}
		box.columns = n
	}
	if v, has := attrs["markup"]; has {
		if box.markup, err = strconv.ParseBool(v); err != nil {
			return box, fmt.Errorf("%w: markup: %v", layout.ErrInvalidArgument, err)
		}
	}
	box.src = attrs["src"]
	for k, v := range attrs {
		if !geometryKeys[k] {
			box.props[k] = binding.Interpolate(v, b.data)
		}
	}
	if box.width != layout.AutoSize && box.columns > 1 {
		box.width = (box.width - float64(box.columns-1)*box.gutter) / float64(box.columns)
	}
	if box.width != layout.AutoSize && box.width <= 0 {
		return box, fmt.Errorf("%w: 文本宽度必须为正数", layout.ErrInvalidArgument)
	}
	return box, nil
}

func (b *builder) styleFor(name string, overrides layout.Props) layout.Props {
	base := layout.Props{}
	if name == "" {
		name = "body"
	}
	if sheet := b.lctx.Sheet; sheet != nil {
		base = base.Merge(sheet.Lookup(name))
	}
	return base.Merge(overrides)
}

func (b *builder) handleText(decl *dsl.TextDecl) error {
	box, err := b.parseTextBox(decl)
	if err != nil {
		return err
	}
	if box.autoH && box.height != layout.AutoSize && box.height <= 0 {
		b.newPage()
		if box, err = b.parseTextBox(decl); err != nil {
			return err
		}
	}

	t, err := layout.NewText(b.lctx, layout.Point{X: box.x, Y: box.y}, layout.Size{W: box.width, H: box.height}, b.styleFor(box.style, box.props))
	if err != nil {
		return err
	}
	if err := b.fill(t, decl, box); err != nil {
		return err
	}

	continued := false
	for {
		t.FlowAll(box.columns, func(f *layout.Frame) {
			off := f.Offset()
			f.SetOffset(layout.Point{X: off.X + box.width + box.gutter, Y: off.Y})
		})
		placeAt(t, box.y)
		b.page.Blocks = append(b.page.Blocks, &Block{Style: box.style, Text: t, Continued: continued})

		next, err := t.Overleaf()
		if err != nil {
			return err
		}
		if next == nil {
			break
		}
		if next.Len() == t.Len() && b.pageIsFresh(t) {
			return fmt.Errorf("%w: 页面内容区域放不下任何一行", layout.ErrInvalidArgument)
		}
		b.log.Debug("文本溢出到下一页", zap.Int("page", b.page.Number), zap.Int("remaining", next.Len()))
		b.newPage()
		if box.autoY {
			box.y = b.cursor
		}
		if box.autoH {
			next.SetDims(layout.Size{W: box.width, H: b.page.Content().MaxY() - box.y})
		}
		next.SetOrigin(layout.Point{X: box.x, Y: box.y})
		t, continued = next, true
	}

	if used := t.Used(); !used.IsEmpty() {
		b.cursor = used.MaxY() + b.gap
	}
	return nil
}

// pageIsFresh 报告 t 是否为当前页的唯一文本块且从内容区顶部开始。
func (b *builder) pageIsFresh(t *layout.Text) bool {
	return len(b.page.Blocks) == 1 && b.page.Blocks[0].Text == t
}

// placeAt 平移 t，使其第一帧的顶边位于 top。
func placeAt(t *layout.Text, top float64) {
	frames := t.Frames()
	if len(frames) == 0 {
		return
	}
	dy := top - frames[0].Bounds().Origin.Y
	o := t.Origin()
	t.SetOrigin(layout.Point{X: o.X, Y: o.Y + dy})
}

func (b *builder) fill(t *layout.Text, decl *dsl.TextDecl, box textBox) error {
	if box.src != "" {
		if err := t.AppendSource(b.ctx, box.src, nil); err != nil {
			return err
		}
	}
	for _, lit := range decl.Body {
		content := binding.Interpolate(string(lit.Value), b.data)
		var err error
		if box.markup {
			err = t.AppendMarkup(content, nil)
		} else {
			err = t.Append(content, nil)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// parseArgs 解析命令参数：allowStyle 时首个标识符为样式名，其余按 key value 成对出现。
func parseArgs(args []*dsl.Lexeme, allowStyle bool) (string, map[string]string) {
	result := map[string]string{}
	if len(args) == 0 {
		return "", result
	}
	cursor := 0
	var style string
	if allowStyle && args[0].Type == "Ident" && len(args)%2 == 1 {
		style = args[0].Value
		cursor = 1
	}
	for cursor < len(args)-1 {
		result[args[cursor].Value] = args[cursor+1].Value
		cursor += 2
	}
	return style, result
}

func collectMeta(doc *dsl.Document) Meta {
	meta := Meta{Creator: "folio"}
	for _, section := range doc.Sections {
		if section.Meta == nil || section.Meta.Block == nil {
			continue
		}
		for _, stmt := range section.Meta.Block.Statements {
			if stmt.Assignment == nil {
				continue
			}
			val := stmt.Assignment.Value
			switch strings.ToLower(stmt.Assignment.Key) {
			case "title":
				meta.Title = stylesheet.ValueString(val)
			case "author":
				meta.Author = stylesheet.ValueString(val)
			case "subject":
				meta.Subject = stylesheet.ValueString(val)
			case "creator":
				meta.Creator = stylesheet.ValueString(val)
			case "keywords":
				meta.Keywords = nil
				if val.Array != nil {
					for _, v := range val.Array.Values {
						meta.Keywords = append(meta.Keywords, stylesheet.ValueString(v))
					}
				} else if s := stylesheet.ValueString(val); s != "" {
					meta.Keywords = []string{s}
				}
			}
		}
	}
	return meta
}

// CollectFonts 返回 fonts 段中的字体声明：font <family> [weight] [italic] { src: "…" }。
func CollectFonts(doc *dsl.Document) ([]FontDecl, error) {
	var out []FontDecl
	for _, section := range doc.Sections {
		if section.Fonts == nil {
			continue
		}
		for _, face := range section.Fonts.Faces {
			decl := FontDecl{Family: string(face.Family), Weight: "regular"}
			if decl.Family == "" {
				return nil, fmt.Errorf("%w: 第 %d 行: font 缺少字族名", layout.ErrInvalidArgument, face.Pos.Line)
			}
			for _, trait := range face.Traits {
				if strings.EqualFold(trait, "italic") {
					decl.Italic = true
				} else {
					decl.Weight = strings.ToLower(trait)
				}
			}
			decl.Src = stylesheet.ValueString(face.Props.Lookup("src"))
			if decl.Src == "" {
				return nil, fmt.Errorf("%w: 字体 %s 缺少 src", layout.ErrInvalidArgument, decl.Family)
			}
			out = append(out, decl)
		}
	}
	return out, nil
}
