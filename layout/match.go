package layout

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/tdewolff/canvas"
)

// MatchSource 标识 Match 的来源。
type MatchSource int

const (
	SourceSpan    MatchSource = iota // 下标、单词、段落等普通区间
	SourcePattern                    // 正则匹配
	SourceTag                        // 标签区间
	SourceFrame                      // 帧内可见区间
	SourceGroup                      // 正则子组
)

// Match 是文字区间上的只读视图，可查询其几何信息。它不修改所属的 Text。
type Match struct {
	text   *Text
	source MatchSource
	start  int
	end    int

	tag     string
	attrs   map[string]string
	parents []string

	re    *regexp.Regexp
	sub   []int // 各子组的 rune 区间，未参与匹配的子组为 -1
	group any   // 子组序号或名称
	from  *Match
}

func spanMatch(t *Text, r Range) *Match {
	return &Match{text: t, source: SourceSpan, start: r.Start, end: r.End}
}

func patternMatch(t *Text, re *regexp.Regexp, sub []int) *Match {
	return &Match{text: t, source: SourcePattern, start: sub[0], end: sub[1], re: re, sub: sub}
}

func tagMatch(t *Text, region TagRegion) *Match {
	return &Match{
		text:    t,
		source:  SourceTag,
		start:   region.Start,
		end:     region.End,
		tag:     region.Tag,
		attrs:   region.Attrs,
		parents: region.Parents,
	}
}

func frameMatch(f *Frame) *Match {
	r := f.Range()
	return &Match{text: f.text, source: SourceFrame, start: r.Start, end: r.End}
}

func groupMatch(from *Match, key any, r Range) *Match {
	return &Match{text: from.text, source: SourceGroup, start: r.Start, end: r.End, group: key, from: from}
}

func (m *Match) Source() MatchSource { return m.source }
func (m *Match) Start() int          { return m.start }
func (m *Match) End() int            { return m.end }
func (m *Match) Len() int            { return m.end - m.start }
func (m *Match) Range() Range        { return Range{m.start, m.end} }

// Tag 返回标签名，非标签匹配返回空串。
func (m *Match) Tag() string { return m.tag }

// Attrs 返回标签属性。
func (m *Match) Attrs() map[string]string { return m.attrs }

// Parents 返回由近及远的祖先标签。
func (m *Match) Parents() []string { return m.parents }

// Regexp 返回产生该匹配的正则，非正则匹配返回 nil。
func (m *Match) Regexp() *regexp.Regexp { return m.re }

// Parent 返回子组匹配所属的正则匹配。
func (m *Match) Parent() *Match { return m.from }

// Text 返回匹配区间内的文字。
func (m *Match) Text() string { return m.text.buf.Slice(m.Range()) }

func (m *Match) requirePattern(method string) error {
	if m.source != SourcePattern {
		return fmt.Errorf("%w: %s() 只能用于 Find 返回的正则匹配", ErrUnsupportedOperation, method)
	}
	return nil
}

// Group 返回指定子组（序号或名称）对应的 Match，0 表示整个匹配；
// 未参与匹配的子组返回 nil。
func (m *Match) Group(key any) (*Match, error) {
	if err := m.requirePattern("Group"); err != nil {
		return nil, err
	}
	idx, err := m.groupIndex(key)
	if err != nil {
		return nil, err
	}
	start, end := m.sub[2*idx], m.sub[2*idx+1]
	if start < 0 {
		return nil, nil
	}
	return groupMatch(m, key, Range{start, end}), nil
}

func (m *Match) groupIndex(key any) (int, error) {
	switch k := key.(type) {
	case int:
		if k < 0 || k > m.re.NumSubexp() {
			return 0, fmt.Errorf("%w: 子组 %d 不存在", ErrIndexOutOfRange, k)
		}
		return k, nil
	case string:
		idx := m.re.SubexpIndex(k)
		if idx < 0 {
			return 0, fmt.Errorf("%w: 子组 %q 不存在", ErrInvalidArgument, k)
		}
		return idx, nil
	default:
		return 0, fmt.Errorf("%w: 子组键必须是 int 或 string，得到 %T", ErrInvalidArgument, key)
	}
}

// Groups 返回第 1 个起的全部子组。
func (m *Match) Groups() ([]*Match, error) {
	if err := m.requirePattern("Groups"); err != nil {
		return nil, err
	}
	out := make([]*Match, 0, m.re.NumSubexp())
	for i := 1; i <= m.re.NumSubexp(); i++ {
		g, _ := m.Group(i)
		out = append(out, g)
	}
	return out, nil
}

// GroupDict 返回具名子组。
func (m *Match) GroupDict() (map[string]*Match, error) {
	if err := m.requirePattern("GroupDict"); err != nil {
		return nil, err
	}
	out := map[string]*Match{}
	for _, name := range m.re.SubexpNames() {
		if name == "" {
			continue
		}
		g, _ := m.Group(name)
		out[name] = g
	}
	return out, nil
}

// Frames 返回与匹配区间相交的帧。
func (m *Match) Frames() []*Frame {
	var out []*Frame
	r := m.Range()
	for _, f := range m.text.frames {
		if r.Intersects(f.Range()) {
			out = append(out, f)
		}
	}
	return out
}

// Lines 返回覆盖匹配区间的各行。
func (m *Match) Lines() []LineFragment { return m.text.lineFragments(m.Range()) }

// Bounds 返回各行整行区域的并集。
func (m *Match) Bounds() Rect {
	var box Rect
	for _, l := range m.Lines() {
		box = box.Union(l.Bounds)
	}
	return box
}

// Used 返回各行字形占用区域的并集。
func (m *Match) Used() Rect {
	var box Rect
	for _, l := range m.Lines() {
		box = box.Union(l.Used)
	}
	return box
}

// Metrics 返回 Used 的尺寸。
func (m *Match) Metrics() Size { return m.Used().Size }

// Path 返回匹配区间内字形的轮廓（画布坐标）。
func (m *Match) Path() (*canvas.Path, error) { return m.text.tracePath(m.Range()) }

func (m *Match) String() string {
	var parts []string
	switch m.source {
	case SourceGroup:
		if n, ok := m.group.(int); ok {
			parts = append(parts, fmt.Sprintf(`r'\%d'`, n))
		} else {
			parts = append(parts, fmt.Sprintf("r'P<%v>'", m.group))
		}
	case SourcePattern:
		pat := m.re.String()
		if len(pat) > 18 {
			pat = pat[:15] + "..."
		}
		parts = append(parts, fmt.Sprintf("r%q", pat))
	case SourceTag:
		parts = append(parts, "<"+m.tag+">")
		if len(m.attrs) > 0 {
			parts = append(parts, fmt.Sprintf("attrs=%d", len(m.attrs)))
		}
	}
	parts = append(parts, fmt.Sprintf("start=%d", m.start), fmt.Sprintf("len=%d", m.Len()))
	return "Match(" + strings.Join(parts, ", ") + ")"
}
