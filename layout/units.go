package layout

import (
	"fmt"
	"strconv"
	"strings"
)

// This file defines unit-safe types and helpers for canvas lengths and leading.
// Device units are typographic points; every Text converts its canvas unit to
// points before handing geometry to the shaping engine.

// Unit represents the unit a length was written in.
type Unit int

const (
	UnitNone Unit = iota // unit-less numbers like factors
	UnitMM               // millimeters
	UnitCM               // centimeters
	UnitIN               // inches
	UnitPT               // points (device units)
)

// Conversion constants between pt and mm.
const (
	PtToMm = 0.352777
	MmToPt = 1.0 / PtToMm
)

// UnitToString returns a short string for a Unit value.
func UnitToString(u Unit) string {
	switch u {
	case UnitMM:
		return "mm"
	case UnitCM:
		return "cm"
	case UnitIN:
		return "in"
	case UnitPT:
		return "pt"
	default:
		return ""
	}
}

// ParseUnit maps a unit name to a Unit. The empty string means points.
func ParseUnit(name string) (Unit, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "pt", "px":
		return UnitPT, nil
	case "mm":
		return UnitMM, nil
	case "cm":
		return UnitCM, nil
	case "in", "inch":
		return UnitIN, nil
	default:
		return UnitNone, fmt.Errorf("%w: 未知单位 %q", ErrInvalidArgument, name)
	}
}

// Length preserves a numeric value with its unit.
type Length struct {
	Value float64 `json:"value"`
	Unit  Unit    `json:"unit"`
}

func (l Length) IsZero() bool { return l.Value == 0 }

// mm returns the length in millimeters; unit-less values are taken as-is.
func (l Length) mm() float64 {
	switch l.Unit {
	case UnitCM:
		return l.Value * 10
	case UnitIN:
		return l.Value * 25.4
	case UnitPT:
		return l.Value * PtToMm
	default:
		return l.Value
	}
}

// To converts this length to the target unit. Unit-less lengths are returned unchanged.
func (l Length) To(target Unit) float64 {
	if l.Unit == UnitNone || l.Unit == target {
		return l.Value
	}
	mm := l.mm()
	switch target {
	case UnitCM:
		return mm / 10
	case UnitIN:
		return mm / 25.4
	case UnitPT:
		return mm * MmToPt
	default:
		return mm
	}
}

func (l Length) ToMM() float64 { return l.To(UnitMM) }
func (l Length) ToPT() float64 { return l.To(UnitPT) }

// ParseRawLengthStr parses a length string preserving its unit.
func ParseRawLengthStr(value string) Length {
	l, err := ParseLength(value, UnitNone)
	if err != nil {
		return Length{Value: 0, Unit: UnitNone}
	}
	return l
}

// ParseLength parses a length, assigning fallback to numbers written without a unit.
func ParseLength(value string, fallback Unit) (Length, error) {
	v := strings.TrimSpace(value)
	if v == "" {
		return Length{Unit: fallback}, nil
	}
	lower := strings.ToLower(v)
	unit := fallback
	num := lower
	for _, suf := range []struct {
		s string
		u Unit
	}{{"mm", UnitMM}, {"cm", UnitCM}, {"in", UnitIN}, {"pt", UnitPT}, {"px", UnitPT}} {
		if strings.HasSuffix(lower, suf.s) {
			unit = suf.u
			num = strings.TrimSpace(strings.TrimSuffix(lower, suf.s))
			break
		}
	}
	f, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return Length{}, fmt.Errorf("无法解析长度 %q: %w", value, err)
	}
	return Length{Value: f, Unit: unit}, nil
}

// LineHeightKind distinguishes factor-based vs absolute leading.
type LineHeightKind int

const (
	LineHeightFactor LineHeightKind = iota
	LineHeightAbsolute
)

// LineHeightSpec preserves author intent: either a factor (1.2) or an absolute length (18pt).
type LineHeightSpec struct {
	Kind   LineHeightKind `json:"kind"`
	Factor float64        `json:"factor,omitempty"`
	Len    Length         `json:"len,omitempty"`
}

// ParseLineHeight parses a leading value. Bare numbers are factors of the font size.
func ParseLineHeight(value string) (LineHeightSpec, error) {
	l, err := ParseLength(value, UnitNone)
	if err != nil {
		return LineHeightSpec{}, err
	}
	if l.Unit == UnitNone {
		return LineHeightSpec{Kind: LineHeightFactor, Factor: l.Value}, nil
	}
	return LineHeightSpec{Kind: LineHeightAbsolute, Len: l}, nil
}

// FactorFor returns the leading as a multiple of fontSize (pt).
func (s LineHeightSpec) FactorFor(fontSize float64) float64 {
	switch s.Kind {
	case LineHeightAbsolute:
		if fontSize <= 0 {
			return 1
		}
		return s.Len.ToPT() / fontSize
	default:
		return s.Factor
	}
}
