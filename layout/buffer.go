package layout

import "slices"

// styledRun 是缓冲区中一段共享同一格式的字符。
type styledRun struct {
	Range
	format *RunFormat
}

// styledBuffer 保存字符与逐段格式，所有偏移以 rune 计。
type styledBuffer struct {
	text []rune
	runs []styledRun
}

func (b *styledBuffer) Len() int       { return len(b.text) }
func (b *styledBuffer) String() string { return string(b.text) }

// Slice 返回区间内的文本，区间会被截断到缓冲区范围内。
func (b *styledBuffer) Slice(r Range) string {
	r = r.Intersect(Range{0, len(b.text)})
	return string(b.text[r.Start:r.End])
}

// Tail 返回末尾最多 n 个字符。
func (b *styledBuffer) Tail(n int) string {
	return string(b.text[max(len(b.text)-n, 0):])
}

func (b *styledBuffer) append(s string, f *RunFormat) {
	rs := []rune(s)
	if len(rs) == 0 {
		return
	}
	start := len(b.text)
	b.text = append(b.text, rs...)
	if n := len(b.runs); n > 0 && b.runs[n-1].format == f {
		b.runs[n-1].End = len(b.text)
		return
	}
	b.runs = append(b.runs, styledRun{Range{start, len(b.text)}, f})
}

// FormatAt 返回第 i 个字符的格式，越界时返回 nil。
func (b *styledBuffer) FormatAt(i int) *RunFormat {
	for _, run := range b.runs {
		if i >= run.Start && i < run.End {
			return run.format
		}
	}
	return nil
}

// setFormat 替换区间 r 内字符的格式。
func (b *styledBuffer) setFormat(r Range, f *RunFormat) {
	r = r.Intersect(Range{0, len(b.text)})
	if r.Len() == 0 {
		return
	}
	var out []styledRun
	for _, run := range b.runs {
		if !run.Intersects(r) {
			out = append(out, run)
			continue
		}
		if run.Start < r.Start {
			out = append(out, styledRun{Range{run.Start, r.Start}, run.format})
		}
		if n := len(out); n == 0 || out[n-1].End <= r.Start {
			out = append(out, styledRun{r, f})
		}
		if run.End > r.End {
			out = append(out, styledRun{Range{r.End, run.End}, run.format})
		}
	}
	b.runs = out
}

// deletePrefix 删除前 n 个字符。
func (b *styledBuffer) deletePrefix(n int) {
	n = min(n, len(b.text))
	b.text = slices.Clone(b.text[n:])
	var out []styledRun
	for _, run := range b.runs {
		if run.End <= n {
			continue
		}
		out = append(out, styledRun{Range{max(run.Start-n, 0), run.End - n}, run.format})
	}
	b.runs = out
}

func (b *styledBuffer) clone() *styledBuffer {
	return &styledBuffer{text: slices.Clone(b.text), runs: slices.Clone(b.runs)}
}
