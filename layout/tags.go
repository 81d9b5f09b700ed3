package layout

import (
	"slices"
	"sort"
)

// TagRegion 记录标记文本中一个元素覆盖的字符区间 [Start, End)。
type TagRegion struct {
	Tag     string            `json:"tag"`
	Start   int               `json:"start"`
	End     int               `json:"end"`
	Attrs   map[string]string `json:"attrs,omitempty"`
	Parents []string          `json:"parents,omitempty"` // 由近及远的祖先标签
}

// TagIndex 按标签名保存区间，每个列表按起点排序。
type TagIndex struct {
	regions map[string][]TagRegion
}

// NewTagIndex 创建空索引。
func NewTagIndex() *TagIndex {
	return &TagIndex{regions: map[string][]TagRegion{}}
}

// Add 追加区间；空区间被忽略。
func (ix *TagIndex) Add(regions ...TagRegion) {
	touched := map[string]bool{}
	for _, r := range regions {
		if r.End <= r.Start || r.Start < 0 {
			continue
		}
		ix.regions[r.Tag] = append(ix.regions[r.Tag], r)
		touched[r.Tag] = true
	}
	for tag := range touched {
		list := ix.regions[tag]
		sort.SliceStable(list, func(i, j int) bool { return list[i].Start < list[j].Start })
	}
}

// Lookup 返回标签对应区间的副本，未知标签返回 nil。
func (ix *TagIndex) Lookup(tag string) []TagRegion {
	return slices.Clone(ix.regions[tag])
}

// Tags 返回排序后的标签名。
func (ix *TagIndex) Tags() []string {
	tags := make([]string, 0, len(ix.regions))
	for tag := range ix.regions {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags
}

// Len 返回区间总数。
func (ix *TagIndex) Len() int {
	n := 0
	for _, list := range ix.regions {
		n += len(list)
	}
	return n
}

// Rebase 返回删除前 shift 个字符之后的新索引：完全落在被删前缀中的区间被丢弃，
// 其余区间整体前移，起点不小于 0。
func (ix *TagIndex) Rebase(shift int) *TagIndex {
	out := NewTagIndex()
	for tag, list := range ix.regions {
		for _, r := range list {
			if r.End-shift <= 0 {
				continue
			}
			r.Start = max(r.Start-shift, 0)
			r.End -= shift
			out.regions[tag] = append(out.regions[tag], r)
		}
	}
	return out
}

// Clone 返回深拷贝。
func (ix *TagIndex) Clone() *TagIndex {
	return ix.Rebase(0)
}
