package source

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"repo2text/internal/core/errors"
	"repo2text/internal/engine/catalog"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGitHub struct {
	t         *testing.T
	rawHits   atomic.Int32
	treeRef   atomic.Value
	authToken string
}

func (f *fakeGitHub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if f.authToken != "" && r.Header.Get("Authorization") != "Bearer "+f.authToken {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"message": "Bad credentials"})
		return
	}
	raw := r.Header.Get("Accept") == acceptRaw

	switch p := r.URL.Path; {
	case p == "/repos/acme/widgets":
		writeJSON(w, http.StatusOK, map[string]any{"default_branch": "main"})
	case p == "/repos/acme/widgets/branches/develop":
		writeJSON(w, http.StatusOK, map[string]any{"name": "develop"})
	case p == "/repos/acme/widgets/git/ref/tags/v1.0":
		writeJSON(w, http.StatusOK, map[string]any{"ref": "refs/tags/v1.0"})
	case strings.HasPrefix(p, "/repos/acme/widgets/git/trees/"):
		f.treeRef.Store(strings.TrimPrefix(p, "/repos/acme/widgets/git/trees/"))
		if r.URL.Query().Get("recursive") != "1" {
			f.t.Errorf("expected recursive listing, got %q", r.URL.RawQuery)
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"sha": "abc",
			"tree": []map[string]any{
				{"path": "README.md", "type": "blob", "size": 10, "url": "u1"},
				{"path": "src", "type": "tree", "url": "u2"},
				{"path": "src/App.cs", "type": "blob", "size": 20, "url": "u3"},
				{"path": "src/Legacy.cs", "type": "blob", "size": 20, "url": "u4"},
				{"path": "src/Huge.cs", "type": "blob", "size": 20, "url": "u5"},
				{"path": "srcx/Other.cs", "type": "blob", "size": 20, "url": "u6"},
			},
		})
	case p == "/repos/acme/widgets/contents/src/App.cs":
		if r.URL.Query().Get("ref") != "main" {
			f.t.Errorf("expected ref=main, got %q", r.URL.RawQuery)
		}
		if raw {
			f.rawHits.Add(1)
			_, _ = w.Write([]byte("namespace App { }"))
			return
		}
		f.t.Error("unexpected JSON contents request for App.cs")
	case p == "/repos/acme/widgets/contents/src/Legacy.cs":
		if raw {
			writeJSON(w, http.StatusNotFound, map[string]any{"message": "Not Found"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"type":     "file",
			"encoding": "base64",
			"content":  wrapBase64("namespace Legacy { }"),
		})
	case p == "/repos/acme/widgets/contents/src/Huge.cs":
		if raw {
			writeJSON(w, http.StatusNotFound, map[string]any{"message": "Not Found"})
			return
		}
		writeJSON(w, http.StatusForbidden, map[string]any{
			"message": "This API returns blobs up to 1 MB in size. The requested blob is too large to fetch via this API.",
		})
	default:
		writeJSON(w, http.StatusNotFound, map[string]any{"message": "Not Found"})
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func wrapBase64(s string) string {
	enc := base64.StdEncoding.EncodeToString([]byte(s))
	var b strings.Builder
	for len(enc) > 8 {
		b.WriteString(enc[:8] + "\n")
		enc = enc[8:]
	}
	b.WriteString(enc)
	return b.String()
}

func newFakeGitHub(t *testing.T, token string) (*fakeGitHub, Options) {
	t.Helper()
	fake := &fakeGitHub{t: t, authToken: token}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)
	return fake, Options{GitHub: GitHubOptions{
		APIURL:    srv.URL,
		Token:     token,
		CacheSize: 16,
		CacheTTL:  time.Minute,
		Timeout:   5 * time.Second,
	}}
}

func TestGitHub_ResolvesPathUnderDefaultBranch(t *testing.T) {
	fake, opts := newFakeGitHub(t, "secret")
	ctx := context.Background()

	src, err := NewGitHub(ctx, "https://github.com/acme/widgets/src", opts)
	require.NoError(t, err)
	assert.Equal(t, RepoRef{Owner: "acme", Repo: "widgets", Ref: "main", Path: "src"}, src.Repo())

	files, err := src.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, "main", fake.treeRef.Load())
	assert.Equal(t, []string{"src", "App.cs", "Legacy.cs", "Huge.cs"}, displayPaths(files))
	assert.True(t, files[0].IsDirectory)
	assert.Equal(t, catalog.KindGitHub, files[1].Kind)
	assert.Equal(t, "src/App.cs", files[1].Path)
	assert.Equal(t, "u3", files[1].SourceURL)
}

func TestGitHub_RefResolution(t *testing.T) {
	_, opts := newFakeGitHub(t, "")
	ctx := context.Background()

	cases := []struct {
		url  string
		want RepoRef
	}{
		{"https://github.com/acme/widgets", RepoRef{Owner: "acme", Repo: "widgets", Ref: "main"}},
		{"https://github.com/acme/widgets/develop", RepoRef{Owner: "acme", Repo: "widgets", Ref: "develop"}},
		{"https://github.com/acme/widgets/v1.0", RepoRef{Owner: "acme", Repo: "widgets", Ref: "v1.0"}},
		{"https://github.com/acme/widgets/tree/feature/docs", RepoRef{Owner: "acme", Repo: "widgets", Ref: "feature", Path: "docs", Explicit: true}},
	}
	for _, tc := range cases {
		src, err := NewGitHub(ctx, tc.url, opts)
		require.NoError(t, err, tc.url)
		assert.Equal(t, tc.want, src.Repo(), tc.url)
	}
}

func TestGitHub_FetchRawCachedAndFallback(t *testing.T) {
	fake, opts := newFakeGitHub(t, "secret")
	ctx := context.Background()

	src, err := NewGitHub(ctx, "https://github.com/acme/widgets/tree/main/src", opts)
	require.NoError(t, err)
	files, err := src.List(ctx)
	require.NoError(t, err)

	app, ok := catalog.Lookup(files, "src/App.cs")
	require.True(t, ok)
	for i := 0; i < 3; i++ {
		content, err := src.Fetch(ctx, app)
		require.NoError(t, err)
		assert.Equal(t, "namespace App { }", content)
	}
	assert.Equal(t, int32(1), fake.rawHits.Load(), "repeat fetches should come from the LRU")

	legacy, ok := catalog.Lookup(files, "src/Legacy.cs")
	require.True(t, ok)
	content, err := src.Fetch(ctx, legacy)
	require.NoError(t, err)
	assert.Equal(t, "namespace Legacy { }", content)

	huge, ok := catalog.Lookup(files, "src/Huge.cs")
	require.True(t, ok)
	_, err = src.Fetch(ctx, huge)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "too large")

	_, err = src.Fetch(ctx, catalog.FileDescriptor{Path: "src", IsDirectory: true})
	assert.True(t, errors.IsCode(err, errors.CodeValidationError))
}

func TestGitHub_MaxFileSizeFromTree(t *testing.T) {
	_, opts := newFakeGitHub(t, "")
	opts.MaxFileSize = 15
	ctx := context.Background()

	src, err := NewGitHub(ctx, "https://github.com/acme/widgets/tree/main", opts)
	require.NoError(t, err)
	files, err := src.List(ctx)
	require.NoError(t, err)

	app, ok := catalog.Lookup(files, "src/App.cs")
	require.True(t, ok)
	_, err = src.Fetch(ctx, app)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "too large")
}

func TestGitHub_BadCredentials(t *testing.T) {
	_, opts := newFakeGitHub(t, "secret")
	opts.GitHub.Token = "wrong"

	_, err := NewGitHub(context.Background(), "https://github.com/acme/widgets", opts)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodePermissionDenied), "got %v", err)
	assert.Contains(t, err.Error(), "Bad credentials")
}

func TestStatusError(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		status int
		header map[string]string
		body   string
		want   errors.ErrorCode
	}{
		{name: "NotFound", status: 404, body: `{"message":"Not Found"}`, want: errors.CodeNotFound},
		{name: "Unauthorized", status: 401, want: errors.CodePermissionDenied},
		{name: "Forbidden", status: 403, body: `{"message":"Resource not accessible"}`, want: errors.CodePermissionDenied},
		{name: "RateLimitHeader", status: 403, header: map[string]string{"X-RateLimit-Remaining": "0"}, want: errors.CodeRateLimited},
		{name: "RateLimitMessage", status: 403, body: `{"message":"API rate limit exceeded"}`, want: errors.CodeRateLimited},
		{name: "TooMany", status: 429, want: errors.CodeRateLimited},
		{name: "TooLarge", status: 403, body: `{"message":"blob is too large"}`, want: errors.CodeValidationError},
		{name: "ServerError", status: 502, want: errors.CodeUnavailable},
		{name: "Teapot", status: 418, want: errors.CodeInternal},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			resp := &http.Response{StatusCode: tc.status, Header: http.Header{}}
			for k, v := range tc.header {
				resp.Header.Set(k, v)
			}
			err := statusError(resp, []byte(tc.body))
			if got := errors.CodeOf(err); got != tc.want {
				t.Fatalf("statusError(%d) code = %s, want %s (%v)", tc.status, got, tc.want, err)
			}
		})
	}
}
