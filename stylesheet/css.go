package stylesheet

import (
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"

	parse "github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/css"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/ByLCY/folio/layout"
)

// ParseCSS adds the rulesets of a CSS stylesheet. Only simple tag selectors
// are kept; each declaration is mapped onto a style key.
func (s *Sheet) ParseCSS(data []byte) error {
	parser := css.NewParser(parse.NewInput(bytes.NewReader(data)), false)
	var errs error
	for {
		gt, _, sel := parser.Next()
		switch gt {
		case css.ErrorGrammar:
			if err := parser.Err(); err != nil && err != io.EOF {
				errs = multierr.Append(errs, fmt.Errorf("%w: CSS 解析失败: %v", layout.ErrInvalidStyle, err))
			}
			return errs
		case css.BeginAtRuleGrammar:
			s.skipBlock(parser)
		case css.BeginRulesetGrammar:
			selectors := parseSelectors(sel, parser.Values())
			props, err := s.parseDeclarations(parser)
			errs = multierr.Append(errs, err)
			for _, name := range selectors {
				if strings.ContainsAny(name, " .#[:>+~*") {
					s.log.Debug("忽略不支持的选择器", zap.String("selector", name))
					continue
				}
				errs = multierr.Append(errs, s.Set(name, props, ""))
			}
		}
	}
}

func (s *Sheet) skipBlock(parser *css.Parser) {
	depth := 1
	for depth > 0 {
		switch gt, _, _ := parser.Next(); gt {
		case css.ErrorGrammar:
			return
		case css.BeginAtRuleGrammar, css.BeginRulesetGrammar:
			depth++
		case css.EndAtRuleGrammar, css.EndRulesetGrammar:
			depth--
		}
	}
}

func parseSelectors(data []byte, values []css.Token) []string {
	var sb strings.Builder
	sb.Write(data)
	for _, v := range values {
		sb.Write(v.Data)
	}
	var out []string
	for _, sel := range strings.Split(sb.String(), ",") {
		if sel = strings.TrimSpace(sel); sel != "" {
			out = append(out, sel)
		}
	}
	return out
}

func (s *Sheet) parseDeclarations(parser *css.Parser) (layout.Props, error) {
	props := layout.Props{}
	var margin [2]string
	var errs error
	for {
		gt, _, data := parser.Next()
		switch gt {
		case css.ErrorGrammar, css.EndRulesetGrammar:
			if margin != ([2]string{}) {
				props["margin"] = strings.TrimSpace(orZero(margin[0]) + " " + orZero(margin[1]))
			}
			return props, errs
		case css.DeclarationGrammar:
			name := strings.ToLower(string(data))
			raw := rawValue(parser.Values())
			switch name {
			case "margin-left":
				margin[0] = raw
				continue
			case "margin-right":
				margin[1] = raw
				continue
			}
			key, val, err := translate(name, raw)
			if err != nil {
				errs = multierr.Append(errs, fmt.Errorf("%w: %s: %v", layout.ErrInvalidStyle, name, err))
				continue
			}
			if key == "" {
				s.log.Debug("忽略 CSS 属性", zap.String("property", name))
				continue
			}
			props[key] = val
		}
	}
}

func orZero(v string) string {
	if v == "" {
		return "0"
	}
	return v
}

func rawValue(tokens []css.Token) string {
	var parts []string
	for _, t := range tokens {
		if t.TokenType != css.WhitespaceToken {
			parts = append(parts, string(t.Data))
		} else if len(parts) > 0 {
			parts = append(parts, " ")
		}
	}
	return strings.TrimSpace(strings.Join(parts, ""))
}

// translate maps a CSS declaration to a style key. Native style keys pass
// through unchanged; unknown properties yield an empty key.
func translate(name, raw string) (string, string, error) {
	value := strings.ToLower(raw)
	switch name {
	case "font-family":
		first := strings.TrimSpace(strings.Split(raw, ",")[0])
		return "family", strings.Trim(first, `"'`), nil
	case "font-size":
		return "size", raw, nil
	case "font-weight":
		return "weight", value, nil
	case "font-style":
		return "italic", strconv.FormatBool(value == "italic" || value == "oblique"), nil
	case "line-height":
		return "leading", raw, nil
	case "text-align":
		return "align", value, nil
	case "color":
		return "fill", raw, nil
	case "hyphens":
		if value == "auto" {
			return "hyphenate", "1", nil
		}
		return "hyphenate", "0", nil
	case "letter-spacing":
		switch {
		case value == "normal":
			return "tracking", "0", nil
		case strings.HasSuffix(value, "em"):
			v, err := strconv.ParseFloat(strings.TrimSuffix(value, "em"), 64)
			if err != nil {
				return "", "", err
			}
			return "tracking", strconv.FormatFloat(v*1000, 'f', -1, 64), nil
		default:
			return "", "", fmt.Errorf("letter-spacing 仅支持 em 单位")
		}
	case "text-indent":
		v, err := strconv.ParseFloat(strings.TrimSuffix(value, "em"), 64)
		if err != nil {
			return "", "", fmt.Errorf("text-indent 仅支持 em 单位")
		}
		return "indent", strconv.FormatFloat(v, 'f', -1, 64), nil
	}
	if layout.ValidateProps(layout.Props{name: raw}) == nil {
		return name, raw, nil
	}
	return "", "", nil
}
