package document

import (
	"encoding/json"
	"os"

	"github.com/ByLCY/folio/layout"
)

type debugFrame struct {
	Index   int          `json:"index"`
	Range   layout.Range `json:"range"`
	Bounds  layout.Rect  `json:"bounds"`
	Used    layout.Rect  `json:"used"`
	Content string       `json:"content"`
}

type debugBlock struct {
	Style     string                        `json:"style"`
	Continued bool                          `json:"continued"`
	Origin    layout.Point                  `json:"origin"`
	Frames    []debugFrame                  `json:"frames"`
	Lines     []layout.LineFragment         `json:"lines"`
	Tags      map[string][]layout.TagRegion `json:"tags,omitempty"`
}

type debugPage struct {
	Number int          `json:"number"`
	Size   layout.Size  `json:"size"`
	Margin Margin       `json:"margin"`
	Blocks []debugBlock `json:"blocks"`
}

type debugResult struct {
	Meta  Meta        `json:"meta"`
	Unit  string      `json:"unit"`
	Pages []debugPage `json:"pages"`
}

// Snapshot 返回结果的可序列化视图，包含每个帧与行的几何信息。
func Snapshot(res *Result) any {
	out := debugResult{Meta: res.Meta, Unit: layout.UnitToString(res.Unit)}
	for _, p := range res.Pages {
		dp := debugPage{Number: p.Number, Size: p.Size, Margin: p.Margin}
		for _, b := range p.Blocks {
			db := debugBlock{Style: b.Style, Continued: b.Continued, Origin: b.Text.Origin(), Lines: b.Text.Lines()}
			for i, f := range b.Text.Frames() {
				db.Frames = append(db.Frames, debugFrame{
					Index:   i,
					Range:   f.Range(),
					Bounds:  f.Bounds(),
					Used:    f.Used(),
					Content: f.Content(),
				})
			}
			tags := b.Text.Tags()
			for _, tag := range tags.Tags() {
				if db.Tags == nil {
					db.Tags = map[string][]layout.TagRegion{}
				}
				db.Tags[tag] = tags.Lookup(tag)
			}
			dp.Blocks = append(dp.Blocks, db)
		}
		out.Pages = append(out.Pages, dp)
	}
	return out
}

// WriteDebugJSON 将排版结果输出为 JSON，便于调试或可视化。
func WriteDebugJSON(res *Result, path string) error {
	if res == nil {
		return nil
	}
	data, err := json.MarshalIndent(Snapshot(res), "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
