// Package resolver computes the set of C# files a root file transitively
// depends on, using namespace declarations and using directives found by a
// textual scan.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"repo2text/internal/engine/catalog"
	"repo2text/internal/shared/observability"

	"golang.org/x/sync/errgroup"
)

// DefaultExtensions are the file extensions the resolver analyses.
var DefaultExtensions = []string{".cs"}

var errNoFetcher = errors.New("no content fetcher configured")

// StatusFunc receives human-readable progress messages. It never influences
// the result.
type StatusFunc func(message string)

type Options struct {
	Extensions        []string
	IgnoredNamespaces []string
	// Concurrency bounds parallel fetches during the pre-scan. Values <= 1
	// keep the scan sequential.
	Concurrency int
	Extractor   StatementExtractor
	Logger      *slog.Logger
}

type Resolver struct {
	extensions  []string
	extractor   StatementExtractor
	concurrency int
	logger      *slog.Logger
}

func New(opts Options) *Resolver {
	exts := opts.Extensions
	if len(exts) == 0 {
		exts = DefaultExtensions
	}
	ignored := opts.IgnoredNamespaces
	if ignored == nil {
		ignored = DefaultIgnoredNamespaces
	}
	extractor := opts.Extractor
	if extractor == nil {
		extractor = NewCSharpExtractor(ignored)
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{
		extensions:  append([]string(nil), exts...),
		extractor:   extractor,
		concurrency: opts.Concurrency,
		logger:      logger,
	}
}

// Edge records the import that first pulled a file into the result.
type Edge struct {
	From      string
	To        string
	Namespace string
}

type Resolution struct {
	Root  catalog.FileDescriptor
	Files *catalog.FileSet
	Edges []Edge
	// Analyzed is false when the root was passed through unanalysed.
	Analyzed   bool
	Candidates int
	Namespaces int
	Fetches    int
	Failed     []string
	Duration   time.Duration
}

// Supports reports whether file can be used as an analysis root.
func (r *Resolver) Supports(file catalog.FileDescriptor) bool {
	return file.HasExtension(r.extensions...)
}

// FindDependencies returns root plus every file reachable from it through
// using -> namespace edges.
func (r *Resolver) FindDependencies(ctx context.Context, root catalog.FileDescriptor, allFiles []catalog.FileDescriptor, fetch ContentFetcher, status StatusFunc) *catalog.FileSet {
	res, err := r.Resolve(ctx, root, allFiles, fetch, status)
	if err != nil {
		r.logger.Warn("dependency resolution stopped early", "root", root.Path, "error", err)
	}
	return res.Files
}

// Resolve is FindDependencies with edges and statistics. The only error it
// returns is a context error; the partial result is still returned with it.
func (r *Resolver) Resolve(ctx context.Context, root catalog.FileDescriptor, allFiles []catalog.FileDescriptor, fetch ContentFetcher, status StatusFunc) (*Resolution, error) {
	res := &Resolution{Root: root, Files: catalog.NewFileSet(root)}
	run := newRun(fetch, status, r.logger)

	if !r.Supports(root) {
		run.report(fmt.Sprintf("Dependency analysis is only supported for %s files.", strings.Join(r.extensions, ", ")))
		return res, nil
	}
	res.Analyzed = true
	start := time.Now()
	defer func() {
		res.Duration = time.Since(start)
		res.Fetches = run.cache.Fetches()
		res.Failed = run.failedPaths()
		observability.ResolutionDuration.Observe(res.Duration.Seconds())
		observability.ResolvedFiles.Observe(float64(res.Files.Len()))
	}()

	candidates := catalog.FilterExtensions(allFiles, r.extensions...)
	res.Candidates = len(candidates)

	run.report(fmt.Sprintf("Building namespace index from %d source files...", len(candidates)))
	index, err := r.buildIndex(ctx, run, candidates)
	if err != nil {
		return res, err
	}
	res.Namespaces = index.Len()
	r.logger.Debug("namespace index built", "files", len(candidates), "namespaces", index.Len())

	run.report("Traversing dependency graph...")
	queue := []catalog.FileDescriptor{root}
	for len(queue) > 0 {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		current := queue[0]
		queue = queue[1:]

		content, ok := run.content(ctx, current)
		if !ok {
			continue
		}
		for _, imported := range r.extractor.Imports(content) {
			for _, ns := range index.Match(imported) {
				for _, dep := range index.Declaring(ns) {
					if res.Files.Add(dep) {
						res.Edges = append(res.Edges, Edge{From: current.Path, To: dep.Path, Namespace: ns})
						queue = append(queue, dep)
					}
				}
			}
		}
	}

	run.report(fmt.Sprintf("Analysis complete. Found %d dependent files.", res.Files.Len()))
	return res, nil
}

func (r *Resolver) buildIndex(ctx context.Context, run *run, candidates []catalog.FileDescriptor) (*NamespaceIndex, error) {
	declared := make([][]string, len(candidates))

	if r.concurrency <= 1 {
		for i, file := range candidates {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			if content, ok := run.content(ctx, file); ok {
				declared[i] = r.extractor.Declarations(content)
			}
		}
	} else {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(r.concurrency)
		for i, file := range candidates {
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				if content, ok := run.content(gctx, file); ok {
					declared[i] = r.extractor.Declarations(content)
				}
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
	}

	index := NewNamespaceIndex()
	for i, file := range candidates {
		for _, ns := range declared[i] {
			index.Add(ns, file)
		}
	}
	return index, nil
}

// run holds the per-call state shared by the pre-scan and the traversal.
type run struct {
	cache  *ContentCache
	status StatusFunc
	logger *slog.Logger

	mu     sync.Mutex
	failed map[string]bool
	order  []string
}

func newRun(fetch ContentFetcher, status StatusFunc, logger *slog.Logger) *run {
	return &run{
		cache:  NewContentCache(fetch),
		status: status,
		logger: logger,
		failed: make(map[string]bool),
	}
}

func (r *run) report(msg string) {
	if r.status == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.status(msg)
}

// content fetches through the cache. A failed fetch yields no edges and is
// reported once per file.
func (r *run) content(ctx context.Context, file catalog.FileDescriptor) (string, bool) {
	content, err := r.cache.Get(ctx, file)
	if err == nil {
		return content, true
	}
	r.mu.Lock()
	first := !r.failed[file.Path]
	if first {
		r.failed[file.Path] = true
		r.order = append(r.order, file.Path)
	}
	r.mu.Unlock()
	if first && ctx.Err() == nil {
		r.logger.Warn("failed to read file for dependency analysis", "path", file.Path, "error", err)
		r.report(fmt.Sprintf("Could not read %s: %v", displayName(file), err))
	}
	return "", false
}

func (r *run) failedPaths() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.order...)
}

func displayName(file catalog.FileDescriptor) string {
	if file.DisplayPath != "" {
		return file.DisplayPath
	}
	return file.Path
}
