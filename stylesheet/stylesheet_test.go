package stylesheet

import (
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap/zaptest"

	"github.com/ByLCY/folio/dsl"
	"github.com/ByLCY/folio/layout"
)

func TestExtendsResolvesParentFirst(t *testing.T) {
	s := New(zaptest.NewLogger(t))
	if err := s.Set("body", layout.Props{"family": "Go", "size": "11"}, ""); err != nil {
		t.Fatalf("set body: %v", err)
	}
	if err := s.Set("heading", layout.Props{"size": "18", "weight": "bold"}, "body"); err != nil {
		t.Fatalf("set heading: %v", err)
	}
	got := s.Lookup("heading")
	if got["family"] != "Go" || got["size"] != "18" || got["weight"] != "bold" {
		t.Fatalf("unexpected heading props %v", got)
	}
	if s.Lookup("missing") != nil {
		t.Fatalf("unknown tag should resolve to nil")
	}
	got["size"] = "99"
	if s.Lookup("heading")["size"] != "18" {
		t.Fatalf("Lookup must return a copy")
	}
}

func TestCycleIsRejected(t *testing.T) {
	s := New(nil)
	_ = s.Set("a", layout.Props{"size": "1"}, "b")
	_ = s.Set("b", layout.Props{"size": "2"}, "a")
	_ = s.Set("c", layout.Props{"size": "3"}, "")
	err := s.Resolve()
	if err == nil || !strings.Contains(err.Error(), "循环") {
		t.Fatalf("expected cycle error, got %v", err)
	}
	if !errors.Is(err, layout.ErrInvalidStyle) {
		t.Fatalf("expected ErrInvalidStyle, got %v", err)
	}
	if s.Lookup("a") != nil || s.Lookup("c")["size"] != "3" {
		t.Fatalf("cyclic entries must be dropped, healthy ones kept")
	}
}

func TestSetValidatesKeys(t *testing.T) {
	s := New(nil)
	err := s.Set("x", layout.Props{"colour": "red"}, "")
	if !errors.Is(err, layout.ErrInvalidStyle) {
		t.Fatalf("expected ErrInvalidStyle, got %v", err)
	}
}

func TestParseCSS(t *testing.T) {
	s := New(nil)
	css := `
		em { font-style: italic; color: #c00 }
		h1, h2 { font-family: "Go Mono", monospace; font-size: 18pt; letter-spacing: 0.05em; margin-left: 6pt }
		p.note { font-size: 8pt }
		@media print { b { font-weight: bold } }
		b { font-weight: 700; hyphens: auto; leading: 1.5 }
	`
	if err := s.ParseCSS([]byte(css)); err != nil {
		t.Fatalf("parse css: %v", err)
	}
	em := s.Lookup("em")
	if em["italic"] != "true" || em["fill"] != "#c00" {
		t.Fatalf("unexpected em props %v", em)
	}
	h2 := s.Lookup("h2")
	if h2["family"] != "Go Mono" || h2["size"] != "18pt" || h2["tracking"] != "50" || h2["margin"] != "6pt 0" {
		t.Fatalf("unexpected h2 props %v", h2)
	}
	if s.Lookup("p.note") != nil {
		t.Fatalf("class selectors should be ignored")
	}
	b := s.Lookup("b")
	if b["weight"] != "700" || b["hyphenate"] != "1" || b["leading"] != "1.5" {
		t.Fatalf("unexpected b props %v", b)
	}
}

func TestFromDocument(t *testing.T) {
	doc, err := dsl.ParseString(`
folio Sheet {
  styles {
    style body { family: "Go"; size: 11pt; indent: -1 }
    style quote extends body { italic: true }
    "strong { font-weight: bold }"
  }
}
`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	s, err := FromDocument(doc, nil)
	if err != nil {
		t.Fatalf("from document: %v", err)
	}
	if got := strings.Join(s.Names(), ","); got != "body,quote,strong" {
		t.Fatalf("names = %s", got)
	}
	q := s.Lookup("quote")
	if q["size"] != "11pt" || q["italic"] != "true" || q["indent"] != "-1" {
		t.Fatalf("unexpected quote props %v", q)
	}
}

func TestNamesNaturalOrder(t *testing.T) {
	s := New(nil)
	for _, name := range []string{"h10", "h2", "body", "h1"} {
		if err := s.Set(name, layout.Props{"size": "10"}, ""); err != nil {
			t.Fatalf("set %s: %v", name, err)
		}
	}
	if got := strings.Join(s.Names(), ","); got != "body,h1,h2,h10" {
		t.Fatalf("names = %s", got)
	}
}
