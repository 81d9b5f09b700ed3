package binding

import "testing"

const sample = `{"user":{"name":"Ada","tags":["x","y"]},"items":[{"name":"pen","qty":3}]}`

func TestInterpolate(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"Hello, ${user.name}!", "Hello, Ada!"},
		{"${items[0].name} x ${items.0.qty}", "pen x 3"},
		{"${user.tags[1]}", "y"},
		{"${data.user.name}", "Ada"},
		{"${missing.path}", "${missing.path}"},
		{"no placeholders", "no placeholders"},
	}
	for _, c := range cases {
		if got := Interpolate(c.in, []byte(sample)); got != c.want {
			t.Fatalf("Interpolate(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestInterpolateWithoutData(t *testing.T) {
	if got := Interpolate("${user.name}", nil); got != "${user.name}" {
		t.Fatalf("expected placeholder kept, got %q", got)
	}
	if got := Interpolate("${user.name}", []byte("{not json")); got != "${user.name}" {
		t.Fatalf("expected placeholder kept for invalid json, got %q", got)
	}
}
