package source

import (
	"fmt"
	"strings"

	"repo2text/internal/core/errors"
)

// RepoRef locates a repository and an optional ref and sub-path in it.
type RepoRef struct {
	Owner string
	Repo  string
	// Ref is a branch, tag, or commit. When Explicit is false it may instead
	// be the first segments of a path and still needs resolution.
	Ref      string
	Path     string
	Explicit bool
}

func (r RepoRef) String() string {
	s := r.Owner + "/" + r.Repo
	if r.Ref != "" {
		s += "@" + r.Ref
	}
	if r.Path != "" {
		s += ":" + r.Path
	}
	return s
}

// IsGitHubURL reports whether s looks like a github.com repository URL.
func IsGitHubURL(s string) bool {
	_, rest, ok := cutScheme(strings.TrimSpace(s))
	return ok && strings.HasPrefix(strings.ToLower(rest), "github.com/")
}

// ParseRepoURL accepts
//
//	https://github.com/{owner}/{repo}[/tree|blob/{ref}[/{path}]]
//	https://github.com/{owner}/{repo}[/{refOrPath}]
//
// with a case-insensitive host and optional trailing slashes.
func ParseRepoURL(raw string) (RepoRef, error) {
	invalid := func(reason string) (RepoRef, error) {
		return RepoRef{}, errors.AddContext(
			errors.New(errors.CodeValidationError, fmt.Sprintf("invalid GitHub URL: %s", reason)),
			errors.CtxPath, raw)
	}

	_, rest, ok := cutScheme(strings.TrimRight(strings.TrimSpace(raw), "/"))
	if !ok {
		return invalid("scheme must be http or https")
	}
	host, tail, _ := strings.Cut(rest, "/")
	if !strings.EqualFold(host, "github.com") {
		return invalid("host must be github.com")
	}

	segments := strings.Split(tail, "/")
	if len(segments) < 2 || segments[0] == "" || segments[1] == "" {
		return invalid("owner and repository are required")
	}
	ref := RepoRef{Owner: segments[0], Repo: strings.TrimSuffix(segments[1], ".git")}
	if ref.Repo == "" {
		return invalid("owner and repository are required")
	}

	extra := segments[2:]
	if len(extra) >= 2 && (strings.EqualFold(extra[0], "tree") || strings.EqualFold(extra[0], "blob")) && extra[1] != "" {
		ref.Ref = extra[1]
		ref.Path = strings.Trim(strings.Join(extra[2:], "/"), "/")
		ref.Explicit = true
		return ref, nil
	}
	ref.Ref = strings.Trim(strings.Join(extra, "/"), "/")
	return ref, nil
}

func cutScheme(s string) (scheme, rest string, ok bool) {
	lower := strings.ToLower(s)
	for _, prefix := range []string{"https://", "http://"} {
		if strings.HasPrefix(lower, prefix) {
			return prefix[:len(prefix)-3], s[len(prefix):], true
		}
	}
	return "", s, false
}
