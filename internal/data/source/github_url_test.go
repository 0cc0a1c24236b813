package source

import (
	"testing"

	"repo2text/internal/core/errors"
)

func TestParseRepoURL(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		url  string
		want RepoRef
	}{
		{
			name: "Bare",
			url:  "https://github.com/acme/widgets",
			want: RepoRef{Owner: "acme", Repo: "widgets"},
		},
		{
			name: "TrailingSlashAndHostCase",
			url:  "HTTPS://GitHub.com/acme/widgets/",
			want: RepoRef{Owner: "acme", Repo: "widgets"},
		},
		{
			name: "GitSuffix",
			url:  "http://github.com/acme/widgets.git",
			want: RepoRef{Owner: "acme", Repo: "widgets"},
		},
		{
			name: "TreeWithPath",
			url:  "https://github.com/acme/widgets/tree/develop/src/Core/",
			want: RepoRef{Owner: "acme", Repo: "widgets", Ref: "develop", Path: "src/Core", Explicit: true},
		},
		{
			name: "BlobFile",
			url:  "https://github.com/acme/widgets/blob/v1.2/src/App.cs",
			want: RepoRef{Owner: "acme", Repo: "widgets", Ref: "v1.2", Path: "src/App.cs", Explicit: true},
		},
		{
			name: "TreeWithoutPath",
			url:  "https://github.com/acme/widgets/tree/main",
			want: RepoRef{Owner: "acme", Repo: "widgets", Ref: "main", Explicit: true},
		},
		{
			name: "AmbiguousTail",
			url:  "https://github.com/acme/widgets/src/Core",
			want: RepoRef{Owner: "acme", Repo: "widgets", Ref: "src/Core"},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, err := ParseRepoURL(tc.url)
			if err != nil {
				t.Fatalf("ParseRepoURL(%q) failed: %v", tc.url, err)
			}
			if got != tc.want {
				t.Fatalf("ParseRepoURL(%q) = %+v, want %+v", tc.url, got, tc.want)
			}
		})
	}
}

func TestParseRepoURL_Invalid(t *testing.T) {
	t.Parallel()

	for _, raw := range []string{
		"",
		"github.com/acme/widgets",
		"https://gitlab.com/acme/widgets",
		"https://github.com/acme",
		"https://github.com//widgets",
	} {
		if _, err := ParseRepoURL(raw); !errors.IsCode(err, errors.CodeValidationError) {
			t.Errorf("ParseRepoURL(%q) error = %v, want validation error", raw, err)
		}
	}
}

func TestIsGitHubURL(t *testing.T) {
	t.Parallel()

	if !IsGitHubURL(" https://github.com/acme/widgets ") {
		t.Error("expected https URL to be recognised")
	}
	if IsGitHubURL("./github.com/acme") {
		t.Error("expected relative path to be rejected")
	}
	if IsGitHubURL("https://example.com/github.com/acme") {
		t.Error("expected other hosts to be rejected")
	}
}
