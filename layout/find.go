package layout

import (
	"fmt"
	"regexp"
	"strings"
	"sync"
	"unicode"

	"github.com/neurosnap/sentences"
	"github.com/neurosnap/sentences/english"
	"github.com/rivo/uniseg"
)

// Find 按正则字符串检索。不含大写字母的模式忽略大小写；'.' 总是匹配换行。
// limit 为 0 时返回全部可见匹配，为正数时最多返回 limit 个，为 All 时包含溢出部分。
func (t *Text) Find(pattern string, limit int) ([]*Match, error) {
	flags := "(?s)"
	if strings.ToLower(pattern) == pattern {
		flags = "(?is)"
	}
	re, err := regexp.Compile(flags + pattern)
	if err != nil {
		return nil, fmt.Errorf("%w: 无法编译模式 %q: %v", ErrInvalidArgument, pattern, err)
	}
	return t.FindRegexp(re, limit)
}

// FindRegexp 使用调用方编译好的正则检索，正则自带的标志保持不变。
func (t *Text) FindRegexp(re *regexp.Regexp, limit int) ([]*Match, error) {
	if re == nil {
		return nil, fmt.Errorf("%w: Find 需要正则表达式", ErrInvalidArgument)
	}
	s := t.String()
	runeAt := runeOffsets(s)
	var candidates []*Match
	for _, loc := range re.FindAllStringSubmatchIndex(s, -1) {
		sub := make([]int, len(loc))
		for i, b := range loc {
			sub[i] = -1
			if b >= 0 {
				sub[i] = runeAt[b]
			}
		}
		candidates = append(candidates, patternMatch(t, re, sub))
	}
	return t.seek(candidates, limit), nil
}

// Select 返回指定标签的区间，未知标签返回空列表。limit 语义同 Find。
func (t *Text) Select(tag string, limit int) []*Match {
	regions := t.tags.Lookup(tag)
	candidates := make([]*Match, 0, len(regions))
	for _, r := range regions {
		candidates = append(candidates, tagMatch(t, r))
	}
	return t.seek(candidates, limit)
}

// seek 按顺序收集匹配：除非 limit 为 All，遇到第一个不在任何帧内的匹配即停止。
func (t *Text) seek(candidates []*Match, limit int) []*Match {
	var found []*Match
	for _, m := range candidates {
		if limit != All && len(m.Frames()) == 0 {
			break
		}
		found = append(found, m)
		if len(found) == limit {
			break
		}
	}
	return found
}

// At 返回第 i 个字符的 Match，负数从末尾计。
func (t *Text) At(i int) (*Match, error) {
	n := t.Len()
	if i < 0 {
		i += n
	}
	if i < 0 || i >= n {
		return nil, fmt.Errorf("%w: %d（长度 %d）", ErrIndexOutOfRange, i, n)
	}
	return spanMatch(t, Range{i, i + 1}), nil
}

// Slice 返回 [start, end) 的 Match，负数从末尾计，越界部分被截断。
func (t *Text) Slice(start, end int) *Match {
	n := t.Len()
	clamp := func(v int) int {
		if v < 0 {
			v += n
		}
		return min(max(v, 0), n)
	}
	start, end = clamp(start), clamp(end)
	if end < start {
		end = start
	}
	return spanMatch(t, Range{start, end})
}

// Words 返回每个包含字母或数字的单词。
func (t *Text) Words() []*Match {
	var out []*Match
	rest := t.String()
	state := -1
	pos := 0
	for len(rest) > 0 {
		var word string
		word, rest, state = uniseg.FirstWordInString(rest, state)
		n := len([]rune(word))
		if strings.IndexFunc(word, func(r rune) bool { return unicode.IsLetter(r) || unicode.IsDigit(r) }) >= 0 {
			out = append(out, spanMatch(t, Range{pos, pos + n}))
		}
		pos += n
	}
	return out
}

// Paragraphs 返回每个段落，段落包含其结尾的换行符。
func (t *Text) Paragraphs() []*Match {
	var out []*Match
	start := 0
	for i, r := range t.buf.text {
		if r == '\n' {
			out = append(out, spanMatch(t, Range{start, i + 1}))
			start = i + 1
		}
	}
	if start < t.Len() {
		out = append(out, spanMatch(t, Range{start, t.Len()}))
	}
	return out
}

var (
	sentenceOnce      sync.Once
	sentenceTokenizer *sentences.DefaultSentenceTokenizer
	sentenceErr       error
)

// Sentences 按英文断句规则返回每个句子，句间空白不属于任何句子。
func (t *Text) Sentences() ([]*Match, error) {
	sentenceOnce.Do(func() {
		sentenceTokenizer, sentenceErr = english.NewSentenceTokenizer(nil)
	})
	if sentenceErr != nil {
		return nil, fmt.Errorf("%w: 无法加载断句模型: %v", ErrUnsupportedOperation, sentenceErr)
	}
	s := t.String()
	runeAt := runeOffsets(s)
	var out []*Match
	cursor := 0
	for _, sent := range sentenceTokenizer.Tokenize(s) {
		body := strings.TrimSpace(sent.Text)
		if body == "" {
			continue
		}
		i := strings.Index(s[cursor:], body)
		if i < 0 {
			continue
		}
		start := cursor + i
		cursor = start + len(body)
		out = append(out, spanMatch(t, Range{runeAt[start], runeAt[cursor]}))
	}
	return out, nil
}

// runeOffsets 返回每个字节偏移对应的 rune 偏移（长度为 len(s)+1），只有 rune 起始字节有效。
func runeOffsets(s string) []int {
	out := make([]int, len(s)+1)
	n := 0
	for i := range s {
		out[i] = n
		n++
	}
	out[len(s)] = n
	return out
}
