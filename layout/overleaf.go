package layout

import "go.uber.org/zap"

// visibleChars 返回当前所有帧可见的字符总数。
func (t *Text) visibleChars() int {
	n := 0
	for _, f := range t.frames {
		n += f.Range().Len()
	}
	return n
}

// Overleaf 返回一个新的 Text，内容为当前帧集合放不下的溢出部分；全部可见时返回 nil。
// 新 Text 沿用原有的环境、样式、位置与帧几何，标签区间按被移除的前缀长度前移。
// 若被移除的前缀没有在段落边界结束，新 Text 的首段沿用续行缩进。
func (t *Text) Overleaf() (*Text, error) {
	seen := t.visibleChars()
	if seen >= t.buf.Len() {
		return nil, nil
	}

	next, err := NewText(t.ctx, t.origin, t.dims, t.style)
	if err != nil {
		return nil, err
	}

	buf := t.buf.clone()
	buf.deletePrefix(seen)
	next.buf = buf
	for _, run := range buf.runs {
		next.engine.AppendRun(string(buf.text[run.Start:run.End]), run.format)
	}
	next.tags = t.tags.Rebase(seen)

	if seen == 0 || t.buf.text[seen-1] != '\n' {
		if f := next.buf.FormatAt(0); f != nil {
			next.setFormat(Range{0, 1}, f.Dedent(true))
		}
	}

	for _, f := range t.frames[1:] {
		next.frames = append(next.frames, newFrame(next, f))
	}
	next.resize()
	t.log.Debug("分页", zap.Int("consumed", seen), zap.Int("remaining", next.Len()))
	return next, nil
}
