package source

import "testing"

func TestIgnoreRules(t *testing.T) {
	t.Parallel()

	rules := ParseIgnore(`
# build output
bin/
/obj
*.user
docs/*.md
!docs/keep.md
Secrets.json
`)

	cases := []struct {
		name  string
		path  string
		isDir bool
		want  bool
	}{
		{name: "DirPatternMatchesDir", path: "bin", isDir: true, want: true},
		{name: "DirPatternMatchesSubtree", path: "src/bin/Debug/App.dll", want: true},
		{name: "DirPatternSkipsFileWithSameName", path: "tools/bin", isDir: false, want: false},
		{name: "RootedMatchesRoot", path: "obj/project.assets.json", want: true},
		{name: "RootedIgnoresNested", path: "src/obj/project.assets.json", want: false},
		{name: "WildcardAnySegment", path: "src/App.csproj.user", want: true},
		{name: "CaseInsensitive", path: "config/SECRETS.JSON", want: true},
		{name: "SlashPatternFullPath", path: "docs/guide.md", want: true},
		{name: "SlashPatternNoDeepMatch", path: "docs/api/guide.md", want: false},
		{name: "NegationReincludes", path: "docs/keep.md", want: false},
		{name: "GitAlwaysIgnored", path: ".git/HEAD", want: true},
		{name: "NestedGitAlwaysIgnored", path: "sub/.git", isDir: true, want: true},
		{name: "Unmatched", path: "src/Program.cs", want: false},
		{name: "Backslashes", path: `src\bin\x.dll`, want: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := rules.Ignored(tc.path, tc.isDir); got != tc.want {
				t.Fatalf("Ignored(%q, %v) = %v, want %v", tc.path, tc.isDir, got, tc.want)
			}
		})
	}
}

func TestIgnoreRules_LeadingDoubleStar(t *testing.T) {
	t.Parallel()

	rules := ParseIgnore("**/gen\n**/cache/tmp\n/**/Logs/\n")

	cases := []struct {
		name  string
		path  string
		isDir bool
		want  bool
	}{
		{name: "RootDir", path: "gen", isDir: true, want: true},
		{name: "RootSubtree", path: "gen/a.cs", want: true},
		{name: "NestedSubtree", path: "src/gen/a.cs", want: true},
		{name: "NotPrefix", path: "src/generated/a.cs", want: false},
		{name: "MultiSegmentAtRoot", path: "cache/tmp/x.bin", want: true},
		{name: "MultiSegmentNested", path: "a/b/cache/tmp/x.bin", want: true},
		{name: "MultiSegmentPartial", path: "a/cache/x.bin", want: false},
		{name: "RootedDoubleStarDir", path: "src/logs", isDir: true, want: true},
		{name: "RootedDoubleStarFileName", path: "src/logs", isDir: false, want: false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := rules.Ignored(tc.path, tc.isDir); got != tc.want {
				t.Fatalf("Ignored(%q, %v) = %v, want %v", tc.path, tc.isDir, got, tc.want)
			}
		})
	}
}

func TestIgnoreRules_NilAndInvalid(t *testing.T) {
	t.Parallel()

	var rules *IgnoreRules
	if !rules.Ignored(".git/config", false) {
		t.Error("expected nil rules to still ignore .git")
	}
	if rules.Ignored("src/A.cs", false) {
		t.Error("expected nil rules to keep regular files")
	}

	r := NewIgnoreRules()
	if err := r.Add("[broken"); err == nil {
		t.Error("expected compile error for unterminated class")
	}
	if err := r.Add("   "); err != nil {
		t.Errorf("expected blank line to be accepted, got %v", err)
	}
	if r.Len() != 0 {
		t.Errorf("expected no rules, got %d", r.Len())
	}
}
