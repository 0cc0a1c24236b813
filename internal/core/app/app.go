// Package app wires configuration, content sources, the dependency resolver,
// the document renderer, and run history into the operations the CLI exposes.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"repo2text/internal/core/config"
	"repo2text/internal/core/errors"
	"repo2text/internal/core/ports"
	"repo2text/internal/data/history"
	"repo2text/internal/data/source"
	"repo2text/internal/engine/catalog"
	"repo2text/internal/engine/resolver"
	"repo2text/internal/engine/secrets"
)

type App struct {
	Config *config.Config

	resolver   *resolver.Resolver
	secrets    *secrets.Detector
	history    ports.HistoryStore
	openSource ports.SourceOpener
	logger     *slog.Logger
}

var _ ports.ContextService = (*App)(nil)

type Option func(*App)

// WithSourceOpener replaces source.Open, mainly for tests.
func WithSourceOpener(open ports.SourceOpener) Option {
	return func(a *App) { a.openSource = open }
}

// WithHistoryStore injects a run store instead of opening the configured one.
func WithHistoryStore(store ports.HistoryStore) Option {
	return func(a *App) { a.history = store }
}

func WithLogger(logger *slog.Logger) Option {
	return func(a *App) { a.logger = logger }
}

func New(ctx context.Context, cfg *config.Config, opts ...Option) (*App, error) {
	if cfg == nil {
		return nil, errors.New(errors.CodeValidationError, "config is required")
	}
	a := &App{Config: cfg, openSource: source.Open, logger: slog.Default()}
	for _, opt := range opts {
		opt(a)
	}

	a.resolver = resolver.New(resolver.Options{
		Extensions:        cfg.Resolver.Extensions,
		IgnoredNamespaces: cfg.Resolver.IgnoredNamespaces,
		Concurrency:       cfg.Resolver.Concurrency,
		Logger:            a.logger,
	})

	patterns := make([]secrets.PatternConfig, 0, len(cfg.Output.SecretPatterns))
	for _, p := range cfg.Output.SecretPatterns {
		patterns = append(patterns, secrets.PatternConfig{Name: p.Name, Regex: p.Regex, Severity: p.Severity})
	}
	detector, err := secrets.NewDetector(secrets.Config{Patterns: patterns})
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeValidationError, "secret patterns")
	}
	a.secrets = detector

	if a.history == nil && cfg.History.Enabled {
		store, err := history.Open(ctx, cfg.History.Path)
		switch {
		case err == nil:
			a.history = store
		case history.IsCorruptError(err):
			a.logger.Warn("run history is unreadable, continuing without it", "path", cfg.History.Path, "error", err)
		default:
			return nil, fmt.Errorf("open run history: %w", err)
		}
	}
	return a, nil
}

func (a *App) Close() error {
	if a == nil || a.history == nil {
		return nil
	}
	return a.history.Close()
}

// HistoryEnabled reports whether runs are being recorded.
func (a *App) HistoryEnabled() bool {
	return a != nil && a.history != nil
}

func (a *App) sourceOptions() source.Options {
	cfg := a.Config
	return source.Options{
		Gitignore:   cfg.Local.GitignoreEnabled(),
		Exclude:     cfg.Local.Exclude,
		SkipVendor:  cfg.Local.SkipVendor,
		MaxFileSize: cfg.Local.MaxFileSizeBytes,
		GitHub: source.GitHubOptions{
			APIURL:            cfg.GitHub.APIURL,
			Token:             cfg.GitHub.Token,
			RequestsPerSecond: cfg.GitHub.RequestsPerSecond,
			Burst:             cfg.GitHub.Burst,
			CacheSize:         cfg.GitHub.CacheSize,
			CacheTTL:          cfg.GitHub.CacheTTL,
			Timeout:           cfg.GitHub.Timeout,
		},
		Logger: a.logger,
	}
}

// open opens locator and lists its catalog. The caller closes the source.
func (a *App) open(ctx context.Context, locator string) (source.Source, []catalog.FileDescriptor, error) {
	src, err := a.openSource(ctx, locator, a.sourceOptions())
	if err != nil {
		return nil, nil, errors.AddContext(err, errors.CtxSource, locator)
	}
	files, err := src.List(ctx)
	if err != nil {
		_ = src.Close()
		return nil, nil, errors.AddContext(err, errors.CtxOperation, "list")
	}
	a.logger.Debug("listed source", "source", src.Describe(), "kind", src.Kind(), "entries", len(files))
	return src, files, nil
}

func (a *App) lookupRoot(files []catalog.FileDescriptor, rootPath string) (catalog.FileDescriptor, error) {
	rootPath = strings.TrimSpace(rootPath)
	if rootPath == "" {
		return catalog.FileDescriptor{}, errors.New(errors.CodeValidationError, "root path must not be empty")
	}
	root, ok := catalog.Lookup(files, rootPath)
	if !ok || root.IsDirectory {
		return catalog.FileDescriptor{}, errors.AddContext(
			errors.Newf(errors.CodeNotFound, "file %q is not in the source", rootPath),
			errors.CtxPath, rootPath)
	}
	return root, nil
}
