package util

import (
	"path"
	"strings"
)

// NormalizePatternPath cleans a path into slash-separated relative form.
// "." and "" both normalize to "".
func NormalizePatternPath(s string) string {
	trimmed := strings.TrimSpace(strings.ReplaceAll(s, "\\", "/"))
	clean := path.Clean(trimmed)
	if clean == "." || clean == "/" {
		return ""
	}
	return strings.TrimPrefix(strings.TrimPrefix(clean, "./"), "/")
}

// HasPathPrefix returns true when p equals prefix or is contained within prefix.
func HasPathPrefix(p, prefix string) bool {
	p = NormalizePatternPath(p)
	prefix = NormalizePatternPath(prefix)
	if p == "" || prefix == "" {
		return p == prefix
	}
	if p == prefix {
		return true
	}
	return strings.HasPrefix(p, prefix+"/")
}

// TrimPathPrefix returns p relative to prefix. An exact match yields the base
// name of p; paths outside prefix return ok=false.
func TrimPathPrefix(p, prefix string) (string, bool) {
	p = NormalizePatternPath(p)
	prefix = NormalizePatternPath(prefix)
	if prefix == "" {
		return p, p != ""
	}
	if p == prefix {
		return path.Base(p), true
	}
	if strings.HasPrefix(p, prefix+"/") {
		rel := strings.TrimPrefix(p, prefix+"/")
		return rel, rel != ""
	}
	return "", false
}
