package layout

import (
	"reflect"
	"testing"
)

func TestFlushLeft(t *testing.T) {
	cases := []struct {
		name  string
		prev  string
		added string
		want  []int
	}{
		{"empty buffer", "", "abc", []int{0}},
		{"mid paragraph", "ab", "cd", nil},
		{"after blank line", "ab\n\n", "cd", []int{0}},
		{"after escape", "ab\n\b", "cd", []int{0}},
		{"new line continues", "ab\n", "cd", nil},
		{"blank lead in", "ab\n", "\ncd", []int{1}},
		{"escape lead in", "ab\n", "\bcd", []int{0}},
		{"paragraph break inside", "ab", "c\n\nd\n\bé", []int{3, 5}},
		{"single newline inside", "", "a\nb", []int{0}},
		{"trailing blank", "a", "\n\n", nil},
	}
	for _, c := range cases {
		got := flushLeft(c.prev, c.added)
		if !reflect.DeepEqual(got, c.want) {
			t.Fatalf("%s: flushLeft(%q, %q) = %v, want %v", c.name, c.prev, c.added, got, c.want)
		}
	}
}
