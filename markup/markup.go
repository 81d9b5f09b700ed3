// Package markup strips inline XML tags from text and reports the character
// ranges each element covers.
package markup

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/beevik/etree"

	"github.com/ByLCY/folio/layout"
)

const rootTag = "folio-markup"

// Parser implements layout.MarkupParser on top of etree.
type Parser struct {
	// Lenient accepts unescaped ampersands, unknown entities and unclosed
	// tags, which are closed at the end of the input.
	Lenient bool
}

var _ layout.MarkupParser = Parser{}

// Parse wraps text in a synthetic root element and walks the tree. Node
// regions are shifted by offset; chain ranges are relative to the returned
// text.
func (p Parser) Parse(text string, offset int) (*layout.Markup, error) {
	doc := etree.NewDocument()
	doc.ReadSettings = etree.ReadSettings{Permissive: p.Lenient}
	if err := doc.ReadFromString("<" + rootTag + ">" + text + "</" + rootTag + ">"); err != nil {
		return nil, fmt.Errorf("解析标记失败: %w", err)
	}
	root := doc.SelectElement(rootTag)
	if root == nil {
		return nil, fmt.Errorf("解析标记失败: 缺少根元素")
	}

	w := &walker{offset: offset, nodes: map[string][]layout.TagRegion{}, chains: map[string]int{}}
	w.walk(root, nil)
	return &layout.Markup{Text: w.text.String(), Nodes: w.nodes, Chains: w.out}, nil
}

type walker struct {
	offset int
	text   strings.Builder
	pos    int
	nodes  map[string][]layout.TagRegion
	chains map[string]int
	out    []layout.TagChain
}

// walk visits the children of el; stack holds the enclosing tags, outermost
// first.
func (w *walker) walk(el *etree.Element, stack []string) {
	for _, tok := range el.Child {
		switch c := tok.(type) {
		case *etree.CharData:
			w.emit(c.Data, stack)
		case *etree.Element:
			start := w.pos
			idx := len(w.nodes[c.Tag])
			w.nodes[c.Tag] = append(w.nodes[c.Tag], layout.TagRegion{
				Tag:     c.Tag,
				Start:   w.offset + start,
				Attrs:   attrs(c),
				Parents: reversed(stack),
			})
			inner := append(stack[:len(stack):len(stack)], c.Tag)
			w.walk(c, inner)
			w.nodes[c.Tag][idx].End = w.offset + w.pos
		}
	}
}

func (w *walker) emit(s string, stack []string) {
	n := utf8.RuneCountInString(s)
	if n == 0 {
		return
	}
	w.text.WriteString(s)
	r := layout.Range{Start: w.pos, End: w.pos + n}
	w.pos += n

	key := strings.Join(stack, "\x00")
	i, ok := w.chains[key]
	if !ok {
		i = len(w.out)
		w.chains[key] = i
		w.out = append(w.out, layout.TagChain{Tags: append([]string(nil), stack...)})
	}
	chain := &w.out[i]
	if last := len(chain.Ranges) - 1; last >= 0 && chain.Ranges[last].End == r.Start {
		chain.Ranges[last].End = r.End
		return
	}
	chain.Ranges = append(chain.Ranges, r)
}

func attrs(el *etree.Element) map[string]string {
	if len(el.Attr) == 0 {
		return nil
	}
	out := make(map[string]string, len(el.Attr))
	for _, a := range el.Attr {
		out[a.Key] = a.Value
	}
	return out
}

func reversed(stack []string) []string {
	if len(stack) == 0 {
		return nil
	}
	out := make([]string, len(stack))
	for i, tag := range stack {
		out[len(stack)-1-i] = tag
	}
	return out
}
