package resolver

import "strings"

// DefaultIgnoredNamespaces lists platform and vendor roots that never resolve to
// files in a user's own candidate pool.
var DefaultIgnoredNamespaces = []string{
	"System", "Microsoft", "Windows", "Octokit", "SharpToken", "ReSharper", "JetBrains",
}

// IsKnownNonModule reports whether the first dot-separated segment of name is
// one of the excluded roots. The comparison is case-sensitive.
func IsKnownNonModule(name string, excluded map[string]bool) bool {
	if len(excluded) == 0 {
		return false
	}
	root, _, _ := strings.Cut(name, ".")
	if root == "" {
		return false
	}
	return excluded[root]
}

func rootSet(roots []string) map[string]bool {
	out := make(map[string]bool, len(roots))
	for _, r := range roots {
		r = strings.TrimSpace(r)
		if r == "" {
			continue
		}
		out[r] = true
	}
	return out
}

// isDescendantOrSelf reports whether declared equals imported or is nested
// under it. "Foo" covers "Foo" and "Foo.Bar" but not "Foobar".
func isDescendantOrSelf(declared, imported string) bool {
	if declared == imported {
		return true
	}
	return strings.HasPrefix(declared, imported+".")
}
