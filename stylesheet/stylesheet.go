// Package stylesheet maps tag names to style properties. Entries may extend
// other entries; inheritance is resolved lazily and cycles are rejected.
package stylesheet

import (
	"fmt"
	"sort"
	"strings"

	"github.com/maruel/natural"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/ByLCY/folio/dsl"
	"github.com/ByLCY/folio/layout"
)

// Style is one named stylesheet entry before inheritance is applied.
type Style struct {
	Name    string
	Extends string
	Props   layout.Props
}

// Sheet implements layout.Stylesheet.
type Sheet struct {
	log      *zap.Logger
	styles   map[string]Style
	resolved map[string]layout.Props
}

var _ layout.Stylesheet = (*Sheet)(nil)

// New creates an empty sheet.
func New(log *zap.Logger) *Sheet {
	if log == nil {
		log = zap.NewNop()
	}
	return &Sheet{log: log.Named("stylesheet"), styles: map[string]Style{}}
}

// Set defines or replaces the entry for name. Properties merge over those of
// an existing entry with the same name.
func (s *Sheet) Set(name string, props layout.Props, extends string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("%w: 样式名为空", layout.ErrInvalidStyle)
	}
	if err := layout.ValidateProps(props); err != nil {
		return fmt.Errorf("style %s: %w", name, err)
	}
	prev := s.styles[name]
	if extends == "" {
		extends = prev.Extends
	}
	s.styles[name] = Style{Name: name, Extends: extends, Props: prev.Props.Merge(props)}
	s.resolved = nil
	return nil
}

// Names returns the defined entry names in natural order (h2 before h10).
func (s *Sheet) Names() []string {
	names := make([]string, 0, len(s.styles))
	for name := range s.styles {
		names = append(names, name)
	}
	sort.Sort(natural.StringSlice(names))
	return names
}

// Lookup returns the resolved properties of tag, or nil when tag is unknown
// or its inheritance chain is broken.
func (s *Sheet) Lookup(tag string) layout.Props {
	if s.resolved == nil {
		if err := s.Resolve(); err != nil {
			s.log.Debug("样式表解析不完整", zap.Error(err))
		}
	}
	props, ok := s.resolved[tag]
	if !ok {
		return nil
	}
	return layout.Props{}.Merge(props)
}

// Resolve applies inheritance to every entry. Entries with missing parents or
// cyclic chains are left out and reported together.
func (s *Sheet) Resolve() error {
	resolved := map[string]layout.Props{}
	visiting := map[string]bool{}
	failed := map[string]bool{}

	var dfs func(name string) (layout.Props, error)
	dfs = func(name string) (layout.Props, error) {
		if props, ok := resolved[name]; ok {
			return props, nil
		}
		style, ok := s.styles[name]
		if !ok {
			return nil, fmt.Errorf("%w: style %s 未定义", layout.ErrInvalidStyle, name)
		}
		if visiting[name] {
			return nil, fmt.Errorf("%w: style 继承存在循环：%s", layout.ErrInvalidStyle, name)
		}
		visiting[name] = true
		defer delete(visiting, name)

		props := layout.Props{}
		if style.Extends != "" {
			parent, err := dfs(style.Extends)
			if err != nil {
				return nil, err
			}
			props = parent
		}
		props = props.Merge(style.Props)
		resolved[name] = props
		return props, nil
	}

	var errs error
	for _, name := range s.Names() {
		if _, err := dfs(name); err != nil && !failed[name] {
			failed[name] = true
			errs = multierr.Append(errs, err)
		}
	}
	s.resolved = resolved
	return errs
}

// FromDocument collects `style` declarations and inline CSS literals from the
// styles sections of doc.
func FromDocument(doc *dsl.Document, log *zap.Logger) (*Sheet, error) {
	s := New(log)
	if doc == nil {
		return s, nil
	}
	var errs error
	for _, section := range doc.Sections {
		if section.Styles == nil {
			continue
		}
		for _, entry := range section.Styles.Entries {
			switch {
			case entry.Style != nil:
				errs = multierr.Append(errs, s.setDecl(entry.Style))
			case entry.CSS != nil:
				errs = multierr.Append(errs, s.ParseCSS([]byte(entry.CSS.Value)))
			}
		}
	}
	if errs != nil {
		return nil, errs
	}
	if err := s.Resolve(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Sheet) setDecl(decl *dsl.StyleDecl) error {
	props := layout.Props{}
	if decl.Props != nil {
		for _, stmt := range decl.Props.Statements {
			if stmt.Assignment == nil {
				continue
			}
			if val := ValueString(stmt.Assignment.Value); val != "" {
				props[stmt.Assignment.Key] = val
			}
		}
	}
	if err := s.Set(decl.Name, props, decl.Extends); err != nil {
		return fmt.Errorf("第 %d 行: %w", decl.Pos.Line, err)
	}
	return nil
}

// ValueString flattens a DSL value to the text form used in Props.
func ValueString(val *dsl.Value) string {
	if val == nil {
		return ""
	}
	switch {
	case val.String != nil:
		return string(*val.String)
	case val.Number != nil:
		return *val.Number
	case val.Color != nil:
		return *val.Color
	case val.Array != nil:
		parts := make([]string, 0, len(val.Array.Values))
		for _, v := range val.Array.Values {
			parts = append(parts, ValueString(v))
		}
		return strings.Join(parts, " ")
	case val.Expr != nil:
		var b strings.Builder
		prevWord := false
		for _, p := range val.Expr.Parts {
			word := p.Type != "Symbol"
			if word && prevWord {
				b.WriteByte(' ')
			}
			b.WriteString(p.Value)
			prevWord = word
		}
		return b.String()
	default:
		return ""
	}
}
