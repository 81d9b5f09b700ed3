package layout

import (
	"errors"
	"math"
	"testing"
)

func almostEqual(a, b float64) bool { return math.Abs(a-b) < 1e-6 }

func TestParseRawLengthStr(t *testing.T) {
	cases := []struct {
		in   string
		want Length
	}{
		{"12pt", Length{12, UnitPT}},
		{"2.5mm", Length{2.5, UnitMM}},
		{" 1in ", Length{1, UnitIN}},
		{"3cm", Length{3, UnitCM}},
		{"4px", Length{4, UnitPT}},
		{"7", Length{7, UnitNone}},
		{"bogus", Length{0, UnitNone}},
	}
	for _, c := range cases {
		got := ParseRawLengthStr(c.in)
		if got != c.want {
			t.Fatalf("ParseRawLengthStr(%q) = %+v, want %+v", c.in, got, c.want)
		}
	}
}

func TestLengthConversions(t *testing.T) {
	if got := (Length{1, UnitIN}).ToPT(); !almostEqual(got, 25.4*MmToPt) {
		t.Fatalf("1in -> pt = %v", got)
	}
	if got := (Length{72, UnitPT}).To(UnitIN); math.Abs(got-1) > 1e-3 {
		t.Fatalf("72pt -> in = %v", got)
	}
	if got := (Length{2, UnitCM}).ToMM(); !almostEqual(got, 20) {
		t.Fatalf("2cm -> mm = %v", got)
	}
	if got := (Length{5, UnitNone}).ToPT(); got != 5 {
		t.Fatalf("unit-less length should be unchanged, got %v", got)
	}
}

func TestParseLengthFallbackUnit(t *testing.T) {
	l, err := ParseLength("10", UnitMM)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if l.Unit != UnitMM || l.Value != 10 {
		t.Fatalf("got %+v", l)
	}
	if _, err := ParseLength("ten", UnitMM); err == nil {
		t.Fatalf("expected error for non-numeric length")
	}
}

func TestParseUnit(t *testing.T) {
	if u, err := ParseUnit("MM"); err != nil || u != UnitMM {
		t.Fatalf("ParseUnit(MM) = %v, %v", u, err)
	}
	if u, err := ParseUnit(""); err != nil || u != UnitPT {
		t.Fatalf("empty unit should be pt, got %v, %v", u, err)
	}
	if _, err := ParseUnit("furlong"); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
}

func TestLineHeightSpec(t *testing.T) {
	spec, err := ParseLineHeight("1.5")
	if err != nil || spec.Kind != LineHeightFactor {
		t.Fatalf("factor leading parsed as %+v, %v", spec, err)
	}
	if got := spec.FactorFor(10); got != 1.5 {
		t.Fatalf("factor = %v", got)
	}
	spec, err = ParseLineHeight("18pt")
	if err != nil || spec.Kind != LineHeightAbsolute {
		t.Fatalf("absolute leading parsed as %+v, %v", spec, err)
	}
	if got := spec.FactorFor(12); !almostEqual(got, 1.5) {
		t.Fatalf("absolute factor = %v", got)
	}
}
