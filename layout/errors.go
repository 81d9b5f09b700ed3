package layout

import "errors"

// 排版引擎对外暴露的错误类别，调用方通过 errors.Is 判断。
var (
	ErrInvalidArgument      = errors.New("参数无效")
	ErrUnsupportedOperation = errors.New("不支持的操作")
	ErrIndexOutOfRange      = errors.New("索引越界")
	ErrInvalidStyle         = errors.New("样式无效")
	ErrResourceUnreadable   = errors.New("资源无法读取")
	ErrMalformedMarkup      = errors.New("标记格式错误")
)
