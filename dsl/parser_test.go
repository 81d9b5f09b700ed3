package dsl_test

import (
	"strings"
	"testing"

	"github.com/ByLCY/folio/dsl"
)

const sampleDSL = `
folio Brochure v1 {
  meta {
    title: "Spring catalogue"
    keywords: [
      "print"
      "internal"
    ]
  }

  styles {
    style body { family: "Go"; size: 11pt; leading: 1.4 }
    style heading extends body {
      size: 18pt
      weight: bold
    }
    "em { font-style: italic }"
  }

  fonts {
    font Serif bold { src: "fonts/Serif-Bold.ttf" }
    font "Go Mono" { src: "embed:Go-Mono" }
  }

  page A4 landscape margin 18mm {
    text body x 20mm y 30mm columns 2 gutter 12pt markup true {
      "Hello, <em>${user.name}</em>!"
      "Second paragraph."
    }
    break
    text src "notes.txt"
  }
}
`

func TestParseDocument(t *testing.T) {
	doc, err := dsl.ParseString(sampleDSL)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}

	if doc.Name != "Brochure" {
		t.Fatalf("expected document name Brochure, got %s", doc.Name)
	}
	if doc.Version != "v1" {
		t.Fatalf("expected version v1, got %s", doc.Version)
	}
	if len(doc.Sections) != 4 {
		t.Fatalf("expected 4 sections, got %d", len(doc.Sections))
	}
	kinds := make([]string, 0, len(doc.Sections))
	for _, s := range doc.Sections {
		kinds = append(kinds, s.Kind())
	}
	if got := strings.Join(kinds, ","); got != "meta,styles,fonts,page" {
		t.Fatalf("unexpected section kinds %s", got)
	}

	meta := doc.Sections[0].Meta
	title := meta.Block.Statements[0].Assignment
	if title == nil || title.Key != "title" || string(*title.Value.String) != "Spring catalogue" {
		t.Fatalf("expected title assignment, got %+v", meta.Block.Statements[0])
	}
	keywords := meta.Block.Statements[1].Assignment
	if keywords == nil || keywords.Value.Array == nil || len(keywords.Value.Array.Values) != 2 {
		t.Fatalf("expected keywords array with 2 entries")
	}

	styles := doc.Sections[1].Styles.Entries
	if len(styles) != 3 {
		t.Fatalf("expected 3 style entries, got %d", len(styles))
	}
	body := styles[0].Style
	if body == nil || body.Name != "body" || body.Extends != "" || len(body.Props.Statements) != 3 {
		t.Fatalf("unexpected body style: %+v", styles[0])
	}
	if got := *body.Props.Lookup("size").Number; got != "11pt" {
		t.Fatalf("expected size 11pt, got %s", got)
	}
	heading := styles[1].Style
	if heading == nil || heading.Name != "heading" || heading.Extends != "body" {
		t.Fatalf("unexpected heading style: %+v", styles[1])
	}
	weight := heading.Props.Lookup("weight")
	if weight == nil || weight.Expr == nil || tokensToString(weight.Expr.Parts) != "bold" {
		t.Fatalf("weight should capture an expression, got %+v", weight)
	}
	if styles[2].CSS == nil || !strings.Contains(string(styles[2].CSS.Value), "font-style") {
		t.Fatalf("expected inline css literal, got %+v", styles[2])
	}

	faces := doc.Sections[2].Fonts.Faces
	if len(faces) != 2 {
		t.Fatalf("expected 2 font faces, got %d", len(faces))
	}
	if faces[0].Family != "Serif" || strings.Join(faces[0].Traits, " ") != "bold" {
		t.Fatalf("unexpected font face: %+v", faces[0])
	}
	if faces[1].Family != "Go Mono" || len(faces[1].Traits) != 0 {
		t.Fatalf("quoted family should be unquoted: %+v", faces[1])
	}
	if src := faces[0].Props.Lookup("src"); src == nil || string(*src.String) != "fonts/Serif-Bold.ttf" {
		t.Fatalf("unexpected font src: %+v", src)
	}

	page := doc.Sections[3].Page
	if page.Spec.Size != "A4" {
		t.Fatalf("expected page size A4, got %s", page.Spec.Size)
	}
	if got := tokensToString(page.Spec.Params); got != "landscape margin 18mm" {
		t.Fatalf("unexpected page params: %s", got)
	}
	if len(page.Items) != 3 {
		t.Fatalf("expected 3 page items, got %d", len(page.Items))
	}

	text := page.Items[0].Text
	if text == nil {
		t.Fatalf("expected text declaration, got %+v", page.Items[0])
	}
	if got := tokensToString(text.Args); got != "body x 20mm y 30mm columns 2 gutter 12pt markup true" {
		t.Fatalf("unexpected text args: %s", got)
	}
	if len(text.Body) != 2 {
		t.Fatalf("expected 2 literals in text body, got %d", len(text.Body))
	}
	if got := string(text.Body[0].Value); !strings.Contains(got, "${user.name}") {
		t.Fatalf("expected interpolation in text literal, got %s", got)
	}
	if page.Items[1].Break == nil {
		t.Fatalf("expected break, got %+v", page.Items[1])
	}
	src := page.Items[2].Text
	if src == nil || tokensToString(src.Args) != "src notes.txt" || len(src.Body) != 0 {
		t.Fatalf("expected body-less text, got %+v", page.Items[2])
	}
}

func TestParseKeepsUnknownPageCommand(t *testing.T) {
	doc, err := dsl.ParseString("folio X {\n  page A4 {\n    image logo { }\n  }\n}\n")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	other := doc.Sections[0].Page.Items[0].Other
	if other == nil || other.Name != "image" || other.Pos.Line != 3 {
		t.Fatalf("expected generic command, got %+v", doc.Sections[0].Page.Items[0])
	}
}

func TestParseRejectsUnknownSection(t *testing.T) {
	if _, err := dsl.ParseString("folio X {\n  images { }\n}\n"); err == nil {
		t.Fatalf("expected error for unknown section")
	}
}

func tokensToString(parts []*dsl.Lexeme) string {
	values := make([]string, 0, len(parts))
	for _, p := range parts {
		values = append(values, p.Value)
	}
	return strings.Join(values, " ")
}

func TestParseHexColors(t *testing.T) {
	for _, c := range []string{"#fff", "#ff0000", "#ff000080"} {
		doc, err := dsl.ParseString("folio X {\n  styles { style body { fill: " + c + "; size: 10 } }\n}\n")
		if err != nil {
			t.Fatalf("%s: parse failed: %v", c, err)
		}
		fill := doc.Sections[0].Styles.Entries[0].Style.Props.Lookup("fill")
		if fill == nil || fill.Color == nil || *fill.Color != c {
			t.Fatalf("%s: expected color value, got %+v", c, fill)
		}
	}
}
