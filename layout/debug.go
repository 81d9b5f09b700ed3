package layout

import (
	"fmt"

	"github.com/xlab/treeprint"
)

// Dump 以树形文本输出帧与标签索引，便于调试排版结果。
func (t *Text) Dump() string {
	tree := treeprint.New()
	root := tree.AddBranch(fmt.Sprintf("Text(chars=%d, glyphs=%d)", t.Len(), t.engine.GlyphCount()))

	frames := root.AddBranch("frames")
	for i, f := range t.frames {
		frames.AddNode(fmt.Sprintf("#%d %s chars=%s %q", i, f, f.Range(), preview(f.Content())))
	}
	if over := t.Len() - t.visibleChars(); over > 0 {
		root.AddNode(fmt.Sprintf("overflow=%d", over))
	}

	if t.tags.Len() > 0 {
		tags := root.AddBranch("tags")
		for _, tag := range t.tags.Tags() {
			branch := tags.AddBranch(tag)
			for _, r := range t.tags.Lookup(tag) {
				branch.AddNode(fmt.Sprintf("%s %q", Range{r.Start, r.End}, preview(t.buf.Slice(Range{r.Start, r.End}))))
			}
		}
	}
	return tree.String()
}

func preview(s string) string {
	rs := []rune(s)
	if len(rs) > 24 {
		return string(rs[:21]) + "..."
	}
	return s
}
