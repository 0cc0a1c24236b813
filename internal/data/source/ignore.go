package source

import (
	"fmt"
	"strings"

	"github.com/gobwas/glob"
)

// IgnoreRules evaluates .gitignore-style patterns against slash-separated
// relative paths. The last matching rule wins, so a "!" rule re-includes a
// path excluded by an earlier rule. Matching is case-insensitive and ".git"
// is always ignored.
type IgnoreRules struct {
	rules []ignoreRule
}

type ignoreRule struct {
	pattern  string
	glob     glob.Glob
	negate   bool
	dirOnly  bool
	anchored bool
}

func NewIgnoreRules() *IgnoreRules {
	return &IgnoreRules{}
}

// ParseIgnore compiles the content of a .gitignore file. Lines that fail to
// compile are skipped.
func ParseIgnore(content string) *IgnoreRules {
	r := NewIgnoreRules()
	r.AddLines(content)
	return r
}

func (r *IgnoreRules) AddLines(content string) {
	for _, line := range strings.Split(content, "\n") {
		_ = r.Add(line)
	}
}

// Add compiles one pattern line. Blank lines and comments are accepted and
// ignored.
func (r *IgnoreRules) Add(line string) error {
	p := strings.TrimSpace(strings.TrimSuffix(line, "\r"))
	if p == "" || strings.HasPrefix(p, "#") {
		return nil
	}

	rule := ignoreRule{pattern: p}
	if strings.HasPrefix(p, "!") {
		rule.negate = true
		p = p[1:]
	} else if strings.HasPrefix(p, `\!`) || strings.HasPrefix(p, `\#`) {
		p = p[1:]
	}
	if strings.HasPrefix(p, "/") {
		rule.anchored = true
		p = strings.TrimLeft(p, "/")
	}
	if strings.HasSuffix(p, "/") {
		rule.dirOnly = true
		p = strings.TrimRight(p, "/")
	}
	floating := false
	for strings.HasPrefix(p, "**/") {
		floating = true
		p = strings.TrimLeft(p[2:], "/")
	}
	if p == "" {
		return nil
	}

	expr := strings.ToLower(p)
	switch {
	case floating && !strings.Contains(p, "/"):
		// "**/name" behaves like "name": any segment at any depth.
		rule.anchored = false
	case floating:
		rule.anchored = true
		expr = "{" + expr + ",**/" + expr + "}"
	case strings.Contains(p, "/"):
		rule.anchored = true
	}

	g, err := glob.Compile(expr, '/')
	if err != nil {
		return fmt.Errorf("compile ignore pattern %q: %w", rule.pattern, err)
	}
	rule.glob = g
	r.rules = append(r.rules, rule)
	return nil
}

func (r *IgnoreRules) Len() int {
	if r == nil {
		return 0
	}
	return len(r.rules)
}

// Ignored reports whether rel (or one of its parent directories) is excluded.
// isDir tells directory-only rules whether the final segment is a directory.
func (r *IgnoreRules) Ignored(rel string, isDir bool) bool {
	rel = strings.Trim(strings.ReplaceAll(rel, "\\", "/"), "/")
	if rel == "" {
		return false
	}
	segments := strings.Split(strings.ToLower(rel), "/")
	for _, seg := range segments {
		if seg == ".git" {
			return true
		}
	}
	if r == nil {
		return false
	}

	ignored := false
	for _, rule := range r.rules {
		if rule.matches(segments, isDir) {
			ignored = !rule.negate
		}
	}
	return ignored
}

func (rule ignoreRule) matches(segments []string, isDir bool) bool {
	last := len(segments) - 1
	for i := range segments {
		// Directory-only rules need the matched segment to be a directory.
		if rule.dirOnly && i == last && !isDir {
			return false
		}
		candidate := segments[i]
		if rule.anchored {
			candidate = strings.Join(segments[:i+1], "/")
		}
		if rule.glob.Match(candidate) {
			return true
		}
	}
	return false
}
