package layout

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// IndentEscape 放在段首时强制该段首行顶格。
const IndentEscape = '\x08'

var (
	closedParagraph = regexp.MustCompile("\n[\n\x08]$")
	blankLeadIn     = regexp.MustCompile("^\n[^\n]")
	paragraphBreak  = regexp.MustCompile("\n\x08|\n\n+[^\n]")
)

// flushLeft 返回 added 中需要取消首行缩进的字符位置（rune 偏移，升序）。
// prev 为追加前缓冲区的全部内容。
func flushLeft(prev, added string) []int {
	var out []int
	mark := func(pos int) {
		if pos < 0 || pos >= utf8.RuneCountInString(added) {
			return
		}
		if n := len(out); n > 0 && out[n-1] == pos {
			return
		}
		out = append(out, pos)
	}

	switch {
	case prev == "" || closedParagraph.MatchString(prev):
		mark(0)
	case strings.HasSuffix(prev, "\n"):
		if blankLeadIn.MatchString(added) {
			mark(1)
		} else if strings.HasPrefix(added, string(IndentEscape)) {
			mark(0)
		}
	}

	for _, loc := range paragraphBreak.FindAllStringIndex(added, -1) {
		mark(utf8.RuneCountInString(added[:loc[1]]) - 1)
	}
	return out
}
