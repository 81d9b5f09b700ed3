package renderer

import "github.com/ByLCY/folio/document"

// Renderer 将排版结果输出为最终文件，例如 PDF。
// Render 返回生成的二进制数据（例如 PDF 字节切片）以及可能的错误。
type Renderer interface {
	Render(result *document.Result) ([]byte, error)
}
