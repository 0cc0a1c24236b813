package util

import "testing"

func TestNormalizePatternPath(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "Empty", input: "", expected: ""},
		{name: "Dot", input: ".", expected: ""},
		{name: "Trim", input: "  ./foo/bar  ", expected: "foo/bar"},
		{name: "Relative", input: "foo/../bar", expected: "bar"},
		{name: "Backslashes", input: `src\app\Main.cs`, expected: "src/app/Main.cs"},
		{name: "LeadingSlash", input: "/src/Main.cs", expected: "src/Main.cs"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := NormalizePatternPath(tc.input); got != tc.expected {
				t.Fatalf("expected %q, got %q", tc.expected, got)
			}
		})
	}
}

func TestHasPathPrefix(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name     string
		path     string
		prefix   string
		expected bool
	}{
		{name: "Exact", path: "foo/bar", prefix: "foo/bar", expected: true},
		{name: "Nested", path: "foo/bar/baz", prefix: "foo/bar", expected: true},
		{name: "Neighbor", path: "foo/barista", prefix: "foo/bar", expected: false},
		{name: "Shorter", path: "foo", prefix: "foo/bar", expected: false},
		{name: "MixedSeparators", path: `foo\bar\baz`, prefix: "foo/bar", expected: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := HasPathPrefix(tc.path, tc.prefix); got != tc.expected {
				t.Fatalf("HasPathPrefix(%q, %q) = %v, want %v", tc.path, tc.prefix, got, tc.expected)
			}
		})
	}
}

func TestTrimPathPrefix(t *testing.T) {
	t.Parallel()

	cases := []struct {
		path, prefix string
		want         string
		ok           bool
	}{
		{"src/app/Main.cs", "", "src/app/Main.cs", true},
		{"src/app/Main.cs", "src", "app/Main.cs", true},
		{"src/app/Main.cs", "src/app/Main.cs", "Main.cs", true},
		{"srcs/Main.cs", "src", "", false},
		{"docs/readme.md", "src/", "", false},
	}
	for _, tc := range cases {
		got, ok := TrimPathPrefix(tc.path, tc.prefix)
		if got != tc.want || ok != tc.ok {
			t.Errorf("TrimPathPrefix(%q, %q) = (%q, %v), want (%q, %v)", tc.path, tc.prefix, got, ok, tc.want, tc.ok)
		}
	}
}
