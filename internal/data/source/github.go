package source

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"
	"sync"
	"time"

	"repo2text/internal/core/errors"
	"repo2text/internal/engine/catalog"
	"repo2text/internal/shared/observability"
	"repo2text/internal/shared/util"
	"repo2text/internal/shared/version"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/src-d/enry/v2"
	"golang.org/x/oauth2"
)

const (
	defaultAPIURL   = "https://api.github.com"
	apiVersion      = "2022-11-28"
	acceptJSON      = "application/vnd.github+json"
	acceptRaw       = "application/vnd.github.raw+json"
	maxErrorBodyLen = 64 << 10
)

// GitHub reads a repository through the GitHub REST API.
type GitHub struct {
	locator string
	apiURL  string
	client  *http.Client
	limiter *util.Limiter
	cache   *expirable.LRU[string, string]
	rules   *IgnoreRules
	opts    Options

	repo RepoRef

	mu    sync.RWMutex
	sizes map[string]int64
}

// NewGitHub parses locator and resolves its ref against the API. An
// ambiguous trailing segment is tried as a branch, then a tag, and otherwise
// treated as a path under the default branch.
func NewGitHub(ctx context.Context, locator string, opts Options) (*GitHub, error) {
	repo, err := ParseRepoURL(locator)
	if err != nil {
		return nil, err
	}
	rules, err := opts.ignoreRules("")
	if err != nil {
		return nil, err
	}

	gh := opts.GitHub
	apiURL := strings.TrimRight(strings.TrimSpace(gh.APIURL), "/")
	if apiURL == "" {
		apiURL = defaultAPIURL
	}

	g := &GitHub{
		locator: locator,
		apiURL:  apiURL,
		client:  newHTTPClient(gh),
		limiter: util.NewLimiter(gh.RequestsPerSecond, gh.Burst),
		rules:   rules,
		opts:    opts,
		sizes:   make(map[string]int64),
	}
	if gh.CacheSize > 0 {
		g.cache = expirable.NewLRU[string, string](gh.CacheSize, nil, gh.CacheTTL)
	}

	if !repo.Explicit {
		ref, subPath, err := g.resolveRef(ctx, repo.Owner, repo.Repo, repo.Ref)
		if err != nil {
			return nil, err
		}
		repo.Ref, repo.Path = ref, subPath
	}
	g.repo = repo
	opts.logger().Debug("github source ready", "repo", repo.String())
	return g, nil
}

func newHTTPClient(gh GitHubOptions) *http.Client {
	base := gh.HTTPClient
	if base == nil {
		base = &http.Client{}
	}
	client := base
	if token := strings.TrimSpace(gh.Token); token != "" {
		ctx := context.WithValue(context.Background(), oauth2.HTTPClient, base)
		client = oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token}))
	}
	if gh.Timeout > 0 {
		copied := *client
		copied.Timeout = gh.Timeout
		client = &copied
	}
	return client
}

func (g *GitHub) Kind() catalog.Kind { return catalog.KindGitHub }
func (g *GitHub) Describe() string   { return g.locator }
func (g *GitHub) Repo() RepoRef      { return g.repo }
func (g *GitHub) Close() error       { return nil }

type repositoryResponse struct {
	DefaultBranch string `json:"default_branch"`
}

type treeEntry struct {
	Path string `json:"path"`
	Type string `json:"type"`
	URL  string `json:"url"`
	Size int64  `json:"size"`
}

type treeResponse struct {
	SHA       string      `json:"sha"`
	Tree      []treeEntry `json:"tree"`
	Truncated bool        `json:"truncated"`
}

type contentResponse struct {
	Type     string `json:"type"`
	Encoding string `json:"encoding"`
	Size     int64  `json:"size"`
	Content  string `json:"content"`
}

func (g *GitHub) resolveRef(ctx context.Context, owner, repo, candidate string) (string, string, error) {
	var info repositoryResponse
	if err := g.getJSON(ctx, g.repoPath(owner, repo), nil, &info); err != nil {
		return "", "", fmt.Errorf("determine default branch: %w", err)
	}
	if candidate == "" {
		return info.DefaultBranch, "", nil
	}

	exists, err := g.exists(ctx, g.repoPath(owner, repo)+"/branches/"+escapePath(candidate))
	if err != nil {
		return "", "", fmt.Errorf("check branch %q: %w", candidate, err)
	}
	if exists {
		return candidate, "", nil
	}
	exists, err = g.exists(ctx, g.repoPath(owner, repo)+"/git/ref/tags/"+escapePath(candidate))
	if err != nil {
		return "", "", fmt.Errorf("check tag %q: %w", candidate, err)
	}
	if exists {
		return candidate, "", nil
	}
	return info.DefaultBranch, candidate, nil
}

// List returns the recursive tree of the resolved ref, limited to the
// requested sub-path. Display paths are relative to that sub-path.
func (g *GitHub) List(ctx context.Context) ([]catalog.FileDescriptor, error) {
	ctx, span := observability.Tracer.Start(ctx, "source.github.List")
	defer span.End()
	defer observeListing(catalog.KindGitHub, time.Now())

	var tree treeResponse
	query := url.Values{"recursive": []string{"1"}}
	endpoint := g.repoPath(g.repo.Owner, g.repo.Repo) + "/git/trees/" + escapePath(g.repo.Ref)
	if err := g.getJSON(ctx, endpoint, query, &tree); err != nil {
		return nil, fmt.Errorf("list tree for %s: %w", g.repo, err)
	}
	if tree.Truncated {
		g.opts.logger().Warn("github tree listing was truncated", "repo", g.repo.String(), "entries", len(tree.Tree))
	}

	files := make([]catalog.FileDescriptor, 0, len(tree.Tree))
	sizes := make(map[string]int64, len(tree.Tree))
	for _, entry := range tree.Tree {
		display, ok := util.TrimPathPrefix(entry.Path, g.repo.Path)
		if !ok {
			continue
		}
		isDir := entry.Type == "tree"
		if g.rules.Ignored(entry.Path, isDir) {
			continue
		}
		if g.opts.SkipVendor && enry.IsVendor(entry.Path) {
			continue
		}
		files = append(files, catalog.FileDescriptor{
			Name:        path.Base(entry.Path),
			Path:        entry.Path,
			DisplayPath: display,
			IsDirectory: isDir,
			SourceURL:   entry.URL,
			Kind:        catalog.KindGitHub,
		})
		if !isDir {
			sizes[entry.Path] = entry.Size
		}
	}

	g.mu.Lock()
	g.sizes = sizes
	g.mu.Unlock()
	return files, nil
}

// Fetch returns a file's text, preferring the raw media type and falling
// back to the base64 contents payload.
func (g *GitHub) Fetch(ctx context.Context, file catalog.FileDescriptor) (content string, err error) {
	if file.IsDirectory {
		return "", errors.AddContext(errors.New(errors.CodeValidationError, "cannot read a directory"), errors.CtxPath, file.Path)
	}
	key := g.cacheKey(file.Path)
	if g.cache != nil {
		if cached, ok := g.cache.Get(key); ok {
			observability.SourceCacheHitsTotal.WithLabelValues(string(catalog.KindGitHub)).Inc()
			return cached, nil
		}
	}
	defer func() { recordFetch(catalog.KindGitHub, err) }()

	if limit := g.opts.MaxFileSize; limit > 0 {
		g.mu.RLock()
		size, known := g.sizes[file.Path]
		g.mu.RUnlock()
		if known && size > limit {
			return "", tooLarge(file, size, limit)
		}
	}

	data, err := g.fetchRaw(ctx, file.Path)
	if errors.IsCode(err, errors.CodeNotFound) {
		data, err = g.fetchContents(ctx, file.Path)
	}
	if err != nil {
		return "", errors.AddContext(err, errors.CtxPath, file.Path)
	}

	content = decodeText(data)
	if g.cache != nil {
		g.cache.Add(key, content)
	}
	return content, nil
}

func (g *GitHub) fetchRaw(ctx context.Context, filePath string) ([]byte, error) {
	query := url.Values{"ref": []string{g.repo.Ref}}
	body, _, err := g.do(ctx, g.contentsPath(filePath), query, acceptRaw)
	return body, err
}

func (g *GitHub) fetchContents(ctx context.Context, filePath string) ([]byte, error) {
	var payload contentResponse
	query := url.Values{"ref": []string{g.repo.Ref}}
	if err := g.getJSON(ctx, g.contentsPath(filePath), query, &payload); err != nil {
		return nil, err
	}
	if payload.Type != "" && payload.Type != "file" {
		return nil, errors.Newf(errors.CodeValidationError, "path is a %s, not a file", payload.Type)
	}
	switch payload.Encoding {
	case "base64":
		cleaned := strings.NewReplacer("\n", "", "\r", "").Replace(payload.Content)
		data, err := base64.StdEncoding.DecodeString(cleaned)
		if err != nil {
			return nil, errors.Wrap(err, errors.CodeInternal, "could not decode file content (invalid base64)")
		}
		return data, nil
	case "none":
		return nil, errors.New(errors.CodeValidationError, "file is too large to be retrieved via the API")
	default:
		return []byte(payload.Content), nil
	}
}

func (g *GitHub) exists(ctx context.Context, endpoint string) (bool, error) {
	_, _, err := g.do(ctx, endpoint, nil, acceptJSON)
	if err == nil {
		return true, nil
	}
	if errors.IsCode(err, errors.CodeNotFound) {
		return false, nil
	}
	return false, err
}

func (g *GitHub) getJSON(ctx context.Context, endpoint string, query url.Values, out any) error {
	body, _, err := g.do(ctx, endpoint, query, acceptJSON)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return errors.Wrap(err, errors.CodeInternal, "decode GitHub response")
	}
	return nil
}

// do issues a paced GET and maps non-2xx responses to domain errors.
func (g *GitHub) do(ctx context.Context, endpoint string, query url.Values, accept string) ([]byte, http.Header, error) {
	if err := g.limiter.Wait(ctx, 1); err != nil {
		return nil, nil, err
	}

	target := g.apiURL + endpoint
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, nil, errors.Wrap(err, errors.CodeInternal, "build GitHub request")
	}
	req.Header.Set("Accept", accept)
	req.Header.Set("X-GitHub-Api-Version", apiVersion)
	req.Header.Set("User-Agent", "repo2text/"+version.Version)

	resp, err := g.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, nil, ctx.Err()
		}
		return nil, nil, errors.Wrap(err, errors.CodeUnavailable, "GitHub request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyLen))
		return nil, resp.Header, statusError(resp, body)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, errors.Wrap(err, errors.CodeUnavailable, "read GitHub response")
	}
	return body, resp.Header, nil
}

func statusError(resp *http.Response, body []byte) error {
	var payload struct {
		Message string `json:"message"`
	}
	_ = json.Unmarshal(body, &payload)
	msg := payload.Message
	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}
	lower := strings.ToLower(msg)

	var code errors.ErrorCode
	switch {
	case resp.StatusCode == http.StatusNotFound:
		code = errors.CodeNotFound
	case resp.StatusCode == http.StatusTooManyRequests,
		resp.StatusCode == http.StatusForbidden && (resp.Header.Get("X-RateLimit-Remaining") == "0" || strings.Contains(lower, "rate limit")):
		code = errors.CodeRateLimited
	case resp.StatusCode == http.StatusForbidden && strings.Contains(lower, "too large"):
		return errors.New(errors.CodeValidationError, "file is too large to be retrieved via the API")
	case resp.StatusCode == http.StatusUnauthorized, resp.StatusCode == http.StatusForbidden:
		code = errors.CodePermissionDenied
	case resp.StatusCode >= 500:
		code = errors.CodeUnavailable
	default:
		code = errors.CodeInternal
	}
	return errors.Newf(code, "GitHub API %d: %s", resp.StatusCode, msg)
}

func (g *GitHub) repoPath(owner, repo string) string {
	return "/repos/" + url.PathEscape(owner) + "/" + url.PathEscape(repo)
}

func (g *GitHub) contentsPath(filePath string) string {
	return g.repoPath(g.repo.Owner, g.repo.Repo) + "/contents/" + escapePath(filePath)
}

func (g *GitHub) cacheKey(filePath string) string {
	return g.repo.Owner + "/" + g.repo.Repo + "@" + g.repo.Ref + ":" + filePath
}

// escapePath escapes each segment of a slash-separated path.
func escapePath(p string) string {
	segments := strings.Split(strings.Trim(p, "/"), "/")
	for i, seg := range segments {
		segments[i] = url.PathEscape(seg)
	}
	return strings.Join(segments, "/")
}
