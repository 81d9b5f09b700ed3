package layout

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/h2non/filetype"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// SourceReader 读取 AppendSource 引用的外部内容。
type SourceReader interface {
	ReadSource(ctx context.Context, src string) ([]byte, error)
}

// FileSource 从本地文件或 http(s) URL 读取内容；相对路径基于 BaseDir。
type FileSource struct {
	BaseDir string
	Client  *http.Client
}

// ReadSource 实现 SourceReader。
func (s FileSource) ReadSource(ctx context.Context, src string) ([]byte, error) {
	if strings.HasPrefix(src, "http://") || strings.HasPrefix(src, "https://") {
		client := s.Client
		if client == nil {
			client = &http.Client{Timeout: 30 * time.Second}
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, src, nil)
		if err != nil {
			return nil, err
		}
		resp, err := client.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()
		if resp.StatusCode/100 != 2 {
			return nil, fmt.Errorf("HTTP %s", resp.Status)
		}
		return io.ReadAll(resp.Body)
	}
	path := src
	if !filepath.IsAbs(path) && s.BaseDir != "" {
		path = filepath.Join(s.BaseDir, path)
	}
	return os.ReadFile(path)
}

type sourceKind int

const (
	sourcePlain sourceKind = iota
	sourceMarkup
	sourceRich
)

// classifySource 根据扩展名判断内容类型。
func classifySource(src string) sourceKind {
	name := strings.ToLower(src)
	if i := strings.IndexAny(name, "?#"); i >= 0 && strings.Contains(name, "://") {
		name = name[:i]
	}
	switch filepath.Ext(name) {
	case ".xml":
		return sourceMarkup
	case ".html", ".htm", ".rtf":
		return sourceRich
	default:
		return sourcePlain
	}
}

// decodeSourceText 校验读取到的字节是 UTF-8 文本，二进制内容返回 ErrResourceUnreadable。
func decodeSourceText(src string, data []byte) (string, error) {
	if kind, err := filetype.Match(data); err == nil && kind != filetype.Unknown && kind.Extension != "rtf" {
		return "", fmt.Errorf("%w: %s 是 %s 文件", ErrResourceUnreadable, src, kind.MIME.Value)
	}
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	if !utf8.Valid(data) {
		return "", fmt.Errorf("%w: %s 不是 UTF-8 文本", ErrResourceUnreadable, src)
	}
	return string(data), nil
}

// richRun 是富文本解码后的一段文字及其样式。
type richRun struct {
	text  string
	props Props
}

// htmlStyles 为 HTML 元素对应的内置样式。
var htmlStyles = map[atom.Atom]Props{
	atom.B:      {"weight": "bold"},
	atom.Strong: {"weight": "bold"},
	atom.I:      {"italic": "true"},
	atom.Em:     {"italic": "true"},
	atom.Cite:   {"italic": "true"},
	atom.Code:   {"family": "Go Mono"},
	atom.Tt:     {"family": "Go Mono"},
	atom.Pre:    {"family": "Go Mono"},
	atom.H1:     {"size": "24", "weight": "bold"},
	atom.H2:     {"size": "18", "weight": "bold"},
	atom.H3:     {"size": "14", "weight": "bold"},
	atom.H4:     {"weight": "bold"},
	atom.H5:     {"weight": "bold"},
	atom.H6:     {"weight": "bold"},
	atom.Center: {"align": "center"},
}

var htmlBlocks = map[atom.Atom]bool{
	atom.P: true, atom.Div: true, atom.Li: true, atom.Pre: true, atom.Blockquote: true,
	atom.H1: true, atom.H2: true, atom.H3: true, atom.H4: true, atom.H5: true, atom.H6: true,
	atom.Tr: true, atom.Center: true,
}

// decodeHTML 把 HTML 转为带样式的文字段。若文档中没有任何带样式的元素，styled 返回 false，
// 调用方应按纯文本处理原始内容。
func decodeHTML(content string) (runs []richRun, styled bool, err error) {
	doc, err := html.Parse(strings.NewReader(content))
	if err != nil {
		return nil, false, err
	}
	tail := func() string {
		if len(runs) == 0 {
			return ""
		}
		return runs[len(runs)-1].text
	}
	emit := func(s string, props Props) {
		if s == "" {
			return
		}
		if n := len(runs); n > 0 && sameProps(runs[n-1].props, props) {
			runs[n-1].text += s
			return
		}
		runs = append(runs, richRun{text: s, props: props})
	}
	newline := func(props Props) {
		if n := len(runs); n > 0 {
			runs[n-1].text = strings.TrimRight(runs[n-1].text, " ")
			if runs[n-1].text == "" {
				runs = runs[:n-1]
			}
		}
		if t := tail(); t != "" && !strings.HasSuffix(t, "\n") {
			emit("\n", props)
		}
	}

	var walk func(n *html.Node, props Props, pre bool)
	walk = func(n *html.Node, props Props, pre bool) {
		switch n.Type {
		case html.TextNode:
			text := n.Data
			if !pre {
				text = collapseSpace(text)
				if t := tail(); t == "" || strings.HasSuffix(t, " ") || strings.HasSuffix(t, "\n") {
					text = strings.TrimLeft(text, " ")
				}
			}
			emit(text, props)
			return
		case html.ElementNode:
			switch n.DataAtom {
			case atom.Head, atom.Script, atom.Style, atom.Title:
				return
			case atom.Br:
				emit("\n", props)
				return
			}
			if extra, ok := htmlStyles[n.DataAtom]; ok {
				props = props.Merge(extra)
				styled = true
			}
			if n.DataAtom == atom.Pre {
				pre = true
			}
		}
		block := n.Type == html.ElementNode && htmlBlocks[n.DataAtom]
		if block {
			newline(props)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c, props, pre)
		}
		if block {
			newline(props)
		}
	}
	walk(doc, Props{}, false)
	if n := len(runs); n > 0 {
		runs[n-1].text = strings.TrimRight(runs[n-1].text, " \n")
		if runs[n-1].text == "" {
			runs = runs[:n-1]
		}
	}
	return runs, styled, nil
}

// collapseSpace 把连续空白折叠为单个空格。
func collapseSpace(s string) string {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		if s == "" {
			return ""
		}
		return " "
	}
	out := strings.Join(fields, " ")
	if r, _ := utf8.DecodeRuneInString(s); unicode.IsSpace(r) {
		out = " " + out
	}
	if r, _ := utf8.DecodeLastRuneInString(s); unicode.IsSpace(r) {
		out += " "
	}
	return out
}

func sameProps(a, b Props) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		if b[k] != v {
			return false
		}
	}
	return true
}
