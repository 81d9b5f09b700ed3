package layout

import "testing"

func TestTagIndexAddAndLookup(t *testing.T) {
	ix := NewTagIndex()
	ix.Add(
		TagRegion{Tag: "b", Start: 8, End: 10},
		TagRegion{Tag: "b", Start: 2, End: 4},
		TagRegion{Tag: "i", Start: 3, End: 3},
		TagRegion{Tag: "i", Start: -1, End: 2},
	)
	if ix.Len() != 2 {
		t.Fatalf("空区间与负起点应被忽略，实际 %d 个区间", ix.Len())
	}
	got := ix.Lookup("b")
	if len(got) != 2 || got[0].Start != 2 || got[1].Start != 8 {
		t.Fatalf("区间应按起点排序: %+v", got)
	}
	got[0].Start = 99
	if ix.Lookup("b")[0].Start != 2 {
		t.Fatalf("Lookup 应返回副本")
	}
	if ix.Lookup("i") != nil {
		t.Fatalf("未知标签应返回 nil")
	}
	if tags := ix.Tags(); len(tags) != 1 || tags[0] != "b" {
		t.Fatalf("Tags 错误: %v", tags)
	}
}

func TestTagIndexRebase(t *testing.T) {
	ix := NewTagIndex()
	ix.Add(
		TagRegion{Tag: "a", Start: 0, End: 5},
		TagRegion{Tag: "b", Start: 3, End: 12},
		TagRegion{Tag: "c", Start: 15, End: 20},
	)
	out := ix.Rebase(10)
	if out.Lookup("a") != nil {
		t.Fatalf("完全位于前缀中的区间应被丢弃")
	}
	if b := out.Lookup("b"); len(b) != 1 || b[0].Start != 0 || b[0].End != 2 {
		t.Fatalf("跨越前缀的区间应截断到 0: %+v", b)
	}
	if c := out.Lookup("c"); len(c) != 1 || c[0].Start != 5 || c[0].End != 10 {
		t.Fatalf("区间应整体前移: %+v", c)
	}
	if ix.Len() != 3 {
		t.Fatalf("Rebase 不应修改原索引")
	}
	if ix.Clone().Len() != 3 {
		t.Fatalf("Clone 应保留全部区间")
	}
}
