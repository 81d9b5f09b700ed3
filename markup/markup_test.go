package markup

import (
	"reflect"
	"strings"
	"testing"

	"github.com/ByLCY/folio/layout"
)

func TestParseSimpleTag(t *testing.T) {
	m, err := Parser{}.Parse("<b>Hi</b> there", 0)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if m.Text != "Hi there" {
		t.Fatalf("text = %q", m.Text)
	}
	b := m.Nodes["b"]
	if len(b) != 1 || b[0].Start != 0 || b[0].End != 2 {
		t.Fatalf("b regions = %+v", b)
	}
	if len(m.Chains) != 2 {
		t.Fatalf("chains = %+v", m.Chains)
	}
	if !reflect.DeepEqual(m.Chains[0].Tags, []string{"b"}) || m.Chains[0].Ranges[0] != (layout.Range{Start: 0, End: 2}) {
		t.Fatalf("first chain = %+v", m.Chains[0])
	}
	if len(m.Chains[1].Tags) != 0 || m.Chains[1].Ranges[0] != (layout.Range{Start: 2, End: 8}) {
		t.Fatalf("untagged chain = %+v", m.Chains[1])
	}
}

func TestParseNestedWithOffsetAndAttrs(t *testing.T) {
	m, err := Parser{}.Parse(`a<p id="x">é<em>b</em>c</p>`, 10)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if m.Text != "aébc" {
		t.Fatalf("text = %q", m.Text)
	}
	p := m.Nodes["p"][0]
	if p.Start != 11 || p.End != 14 || p.Attrs["id"] != "x" || p.Parents != nil {
		t.Fatalf("p region = %+v", p)
	}
	em := m.Nodes["em"][0]
	if em.Start != 12 || em.End != 13 || !reflect.DeepEqual(em.Parents, []string{"p"}) {
		t.Fatalf("em region = %+v", em)
	}
	var nested *layout.TagChain
	for i := range m.Chains {
		if reflect.DeepEqual(m.Chains[i].Tags, []string{"p", "em"}) {
			nested = &m.Chains[i]
		}
	}
	if nested == nil || nested.Ranges[0] != (layout.Range{Start: 2, End: 3}) {
		t.Fatalf("missing p>em chain in %+v", m.Chains)
	}
}

func TestParseEntities(t *testing.T) {
	m, err := Parser{}.Parse("fish &amp; chips", 0)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if m.Text != "fish & chips" {
		t.Fatalf("text = %q", m.Text)
	}
}

func TestParseUnclosedTagFails(t *testing.T) {
	if _, err := (Parser{}).Parse("<b>Hi", 0); err == nil {
		t.Fatalf("expected error for unclosed tag")
	}
}

func TestLenientAcceptsLooseInput(t *testing.T) {
	m, err := Parser{Lenient: true}.Parse("fish & chips", 0)
	if err != nil {
		t.Fatalf("lenient parse: %v", err)
	}
	if !strings.HasPrefix(m.Text, "fish") || !strings.HasSuffix(m.Text, "chips") {
		t.Fatalf("unexpected text %q", m.Text)
	}
	if _, err := (Parser{}).Parse("fish & chips", 0); err == nil {
		t.Fatalf("expected error for bare ampersand")
	}
}
