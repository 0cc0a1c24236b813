// Package source lists and reads candidate files from a GitHub repository,
// a local directory, or a local ZIP archive.
package source

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"repo2text/internal/core/errors"
	"repo2text/internal/engine/catalog"
	"repo2text/internal/shared/observability"
)

// Source is a backend that can enumerate a catalog and fetch file content.
type Source interface {
	Kind() catalog.Kind
	// Describe returns the locator the source was opened with.
	Describe() string
	List(ctx context.Context) ([]catalog.FileDescriptor, error)
	Fetch(ctx context.Context, file catalog.FileDescriptor) (string, error)
	Close() error
}

type Options struct {
	// Gitignore applies the root .gitignore of directory and ZIP sources.
	Gitignore bool
	// Exclude holds extra ignore patterns in .gitignore syntax.
	Exclude     []string
	SkipVendor  bool
	MaxFileSize int64
	GitHub      GitHubOptions
	Logger      *slog.Logger
}

type GitHubOptions struct {
	APIURL            string
	Token             string
	RequestsPerSecond float64
	Burst             int
	CacheSize         int
	CacheTTL          time.Duration
	Timeout           time.Duration
	// HTTPClient overrides the transport; the token is still applied.
	HTTPClient *http.Client
}

// Open picks a backend for locator: a github.com URL, an existing .zip file,
// or an existing directory.
func Open(ctx context.Context, locator string, opts Options) (Source, error) {
	locator = strings.TrimSpace(locator)
	if locator == "" {
		return nil, errors.New(errors.CodeValidationError, "source locator must not be empty")
	}
	if IsGitHubURL(locator) {
		return NewGitHub(ctx, locator, opts)
	}

	info, err := os.Stat(locator)
	if err != nil {
		return nil, errors.AddContext(
			errors.Wrap(err, errors.CodeValidationError, "source is neither a GitHub URL nor an existing path"),
			errors.CtxPath, locator)
	}
	if info.IsDir() {
		return NewDirectory(locator, opts)
	}
	if strings.EqualFold(filepath.Ext(locator), ".zip") {
		return NewZip(locator, opts)
	}
	return nil, errors.AddContext(
		errors.New(errors.CodeValidationError, "file sources must be .zip archives"),
		errors.CtxPath, locator)
}

func (o Options) logger() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return slog.Default()
}

func (o Options) ignoreRules(gitignore string) (*IgnoreRules, error) {
	rules := NewIgnoreRules()
	if o.Gitignore && gitignore != "" {
		rules.AddLines(gitignore)
	}
	for _, pattern := range o.Exclude {
		if err := rules.Add(pattern); err != nil {
			return nil, errors.Wrap(err, errors.CodeValidationError, "invalid exclude pattern "+pattern)
		}
	}
	return rules, nil
}

func tooLarge(file catalog.FileDescriptor, size, limit int64) error {
	return errors.AddContext(
		errors.Newf(errors.CodeValidationError, "file is too large (%d bytes, limit %d)", size, limit),
		errors.CtxPath, file.Path)
}

func recordFetch(kind catalog.Kind, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	observability.ContentFetchesTotal.WithLabelValues(string(kind), outcome).Inc()
}

func observeListing(kind catalog.Kind, start time.Time) {
	observability.ListingDuration.WithLabelValues(string(kind)).Observe(time.Since(start).Seconds())
}

// decodeText strips a UTF-8 byte order mark and replaces invalid sequences.
func decodeText(data []byte) string {
	s := strings.TrimPrefix(string(data), "\ufeff")
	if utf8.ValidString(s) {
		return s
	}
	return strings.ToValidUTF8(s, "\uFFFD")
}
