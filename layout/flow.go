package layout

import "go.uber.org/zap"

// All 作为 limit/max 参数时表示不设上限：Flow 最多创建 maxFlowFrames 个帧，
// Find/Select 会包含溢出部分的匹配。
const All = -1

// maxFlowFrames 限制 Flow(All) 的帧数。每新增一帧都会触发一次全量重排，
// 帧放不下任何一行时会一直复制空帧直到该上限，总开销随帧数平方增长。
const maxFlowFrames = 10000

// FlowCursor 逐个创建新帧，直到全部字形排完或帧数达到上限。
// 每个新帧复制前一帧的位置与尺寸，调用方应在取下一帧之前调整它。
// 游标存活期间不得修改 Text 的内容。
type FlowCursor struct {
	text    *Text
	limit   int
	started bool
}

// Flow 返回一个新的游标。第一次调用 HasNext 或 Next 时移除第 0 帧之后的所有帧。
// max 为帧总数上限（包含第 0 帧），All 表示不设上限。
func (t *Text) Flow(max int) *FlowCursor {
	switch {
	case max == All:
		max = maxFlowFrames
	case max < 1:
		max = 1
	}
	return &FlowCursor{text: t, limit: max}
}

// HasNext 报告是否还需要新的帧。
func (c *FlowCursor) HasNext() bool {
	t := c.text
	if !c.started {
		c.started = true
		t.ejectFrames(1)
	}
	if len(t.frames) >= c.limit {
		return false
	}
	last := t.frames[len(t.frames)-1]
	return last.glyphs().End < t.engine.GlyphCount()
}

// Next 创建并返回下一帧；没有更多帧时返回 nil。
func (c *FlowCursor) Next() *Frame {
	if !c.HasNext() {
		return nil
	}
	t := c.text
	f := newFrame(t, t.frames[len(t.frames)-1])
	t.frames = append(t.frames, f)
	n := f.glyphs().Len()
	t.log.Debug("新增帧", zap.Int("index", len(t.frames)-1), zap.Int("glyphs", n))
	if n == 0 {
		size := f.Size()
		t.log.Debug("新增帧未容纳任何字形", zap.Int("index", len(t.frames)-1), zap.Float64("width", size.W), zap.Float64("height", size.H))
	}
	return f
}

// Each 驱动游标直到结束，每创建一帧调用一次 fn，返回新建的帧。
func (c *FlowCursor) Each(fn func(*Frame)) []*Frame {
	var out []*Frame
	for c.HasNext() {
		f := c.Next()
		if fn != nil {
			fn(f)
		}
		out = append(out, f)
	}
	return out
}

// FlowAll 是 Flow(max).Each(fn) 的简写。max 不大于 1 时只移除多余的帧，
// 返回仅含第 0 帧的列表。
func (t *Text) FlowAll(max int, fn func(*Frame)) []*Frame {
	if max != All && max <= 1 {
		t.ejectFrames(1)
		return []*Frame{t.frames[0]}
	}
	return t.Flow(max).Each(fn)
}

// ejectFrames 移除下标不小于 keep 的帧。
func (t *Text) ejectFrames(keep int) {
	for len(t.frames) > keep {
		last := t.frames[len(t.frames)-1]
		t.frames = t.frames[:len(t.frames)-1]
		last.eject()
	}
}
