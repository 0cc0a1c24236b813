package app

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"repo2text/internal/core/errors"
	"repo2text/internal/core/ports"
	"repo2text/internal/data/history"
	"repo2text/internal/engine/catalog"
	"repo2text/internal/engine/resolver"
	"repo2text/internal/engine/secrets"
	"repo2text/internal/shared/observability"
	"repo2text/internal/shared/util"
	"repo2text/internal/ui/report"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

func (a *App) List(ctx context.Context, req ports.ListRequest) (ports.ListResult, error) {
	if err := ctx.Err(); err != nil {
		return ports.ListResult{}, err
	}
	src, files, err := a.open(ctx, req.Source)
	if err != nil {
		return ports.ListResult{}, err
	}
	defer src.Close()

	files = catalog.FilesOnly(files)
	if len(req.Extensions) > 0 {
		files = catalog.FilterExtensions(files, req.Extensions...)
	}
	return ports.ListResult{Source: src.Describe(), Kind: src.Kind(), Files: files}, nil
}

// Resolve computes the dependency closure of req.Root inside req.Source.
func (a *App) Resolve(ctx context.Context, req ports.ResolveRequest) (res *resolver.Resolution, err error) {
	ctx, span := observability.Tracer.Start(ctx, "app.Resolve", trace.WithAttributes(
		attribute.String("source", req.Source),
		attribute.String("root", req.Root),
	))
	defer span.End()

	started := time.Now()
	run := history.Run{Command: "deps", Source: req.Source, RootPath: req.Root}
	defer func() {
		if res != nil {
			run.FileCount = res.Files.Len()
			run.FailedCount = len(res.Failed)
		}
		a.recordRun(ctx, run, started, err)
	}()

	src, files, err := a.open(ctx, req.Source)
	if err != nil {
		return nil, err
	}
	defer src.Close()
	run.SourceKind = string(src.Kind())

	root, err := a.lookupRoot(files, req.Root)
	if err != nil {
		return nil, err
	}
	res, err = a.resolver.Resolve(ctx, root, files, src.Fetch, req.Status)
	if res != nil {
		span.SetAttributes(attribute.Int("files", res.Files.Len()), attribute.Int("fetches", res.Fetches))
	}
	return res, err
}

// Generate selects files from req.Source and renders them into one document.
func (a *App) Generate(ctx context.Context, req ports.GenerateRequest) (result ports.GenerateResult, err error) {
	ctx, span := observability.Tracer.Start(ctx, "app.Generate", trace.WithAttributes(
		attribute.String("source", req.Source),
	))
	defer span.End()

	started := time.Now()
	result.Source = req.Source
	run := history.Run{Command: "generate", Source: req.Source, RootPath: strings.TrimSpace(req.DepsOf)}
	defer func() {
		result.Duration = time.Since(started)
		run.FileCount = len(result.Files)
		run.FailedCount = result.Stats.Failed
		run.OutputBytes = result.Stats.Bytes
		a.recordRun(ctx, run, started, err)
	}()

	src, files, err := a.open(ctx, req.Source)
	if err != nil {
		return result, err
	}
	defer src.Close()
	result.Source = src.Describe()
	result.Kind = src.Kind()
	run.SourceKind = string(src.Kind())

	outputPath := a.outputPath(req)
	files = excludeOutput(files, outputPath)

	// One cache serves both the resolver and the renderer so each file is
	// fetched once per generation.
	cache := resolver.NewContentCache(src.Fetch)
	selected, res, err := a.selectFiles(ctx, files, req, cache.Get)
	if err != nil {
		return result, err
	}
	result.Files = selected
	result.Resolution = res

	content := report.ContentFunc(cache.Get)
	if req.Redact || a.Config.Output.RedactSecrets {
		content = a.redacting(content, &result.Redacted)
	}

	opts := report.Options{BinaryPlaceholder: a.Config.Output.BinaryPlaceholders()}
	if outputPath == "" {
		out := req.Stdout
		if out == nil {
			out = os.Stdout
		}
		result.Stats, err = report.Render(ctx, out, selected, content, opts)
		return result, err
	}

	var buf bytes.Buffer
	result.Stats, err = report.Render(ctx, &buf, selected, content, opts)
	if err != nil {
		return result, err
	}
	if err := report.WriteFileAtomic(outputPath, buf.Bytes()); err != nil {
		return result, errors.AddContext(errors.Wrap(err, errors.CodeInternal, "write document"), errors.CtxPath, outputPath)
	}
	result.OutputPath = outputPath
	span.SetAttributes(attribute.Int("files", len(selected)), attribute.Int64("bytes", result.Stats.Bytes))
	a.logger.Debug("document written", "path", outputPath, "files", result.Stats.Files, "bytes", result.Stats.Bytes)
	return result, nil
}

// selectFiles returns the union of the explicit paths, the extension filter,
// and the dependency closure of req.DepsOf. With no criteria every file is
// selected.
func (a *App) selectFiles(ctx context.Context, files []catalog.FileDescriptor, req ports.GenerateRequest, fetch resolver.ContentFetcher) ([]catalog.FileDescriptor, *resolver.Resolution, error) {
	candidates := catalog.FilesOnly(files)
	depsOf := strings.TrimSpace(req.DepsOf)
	if len(req.Paths) == 0 && len(req.Extensions) == 0 && depsOf == "" {
		return candidates, nil, nil
	}

	selected := catalog.NewFileSet()
	for _, p := range req.Paths {
		matched := false
		for _, f := range candidates {
			if util.HasPathPrefix(f.Path, p) || util.HasPathPrefix(f.DisplayPath, p) {
				selected.Add(f)
				matched = true
			}
		}
		if !matched {
			return nil, nil, errors.AddContext(
				errors.Newf(errors.CodeNotFound, "no files match %q", p),
				errors.CtxPath, p)
		}
	}
	if len(req.Extensions) > 0 {
		for _, f := range catalog.FilterExtensions(candidates, req.Extensions...) {
			selected.Add(f)
		}
	}

	var res *resolver.Resolution
	if depsOf != "" {
		root, err := a.lookupRoot(files, depsOf)
		if err != nil {
			return nil, nil, err
		}
		res, err = a.resolver.Resolve(ctx, root, files, fetch, req.Status)
		if err != nil {
			return nil, res, err
		}
		for _, f := range res.Files.Files() {
			selected.Add(f)
		}
	}
	return selected.Files(), res, nil
}

// redacting masks secrets in fetched content and counts the replacements.
func (a *App) redacting(next report.ContentFunc, count *int) report.ContentFunc {
	return func(ctx context.Context, file catalog.FileDescriptor) (string, error) {
		text, err := next(ctx, file)
		if err != nil {
			return text, err
		}
		redacted, findings := a.secrets.Redact(file.Path, text)
		for _, f := range findings {
			observability.SecretsRedactedTotal.WithLabelValues(f.Kind).Inc()
			a.logger.Debug("redacted secret", "path", file.Path, "line", f.Line, "kind", f.Kind, "value", secrets.MaskValue(f.Value))
		}
		*count += len(findings)
		return redacted, nil
	}
}

func (a *App) outputPath(req ports.GenerateRequest) string {
	if p := strings.TrimSpace(req.OutputPath); p != "" {
		return p
	}
	if req.Stdout != nil {
		return ""
	}
	return strings.TrimSpace(a.Config.Output.Path)
}

// excludeOutput drops the document itself from a local listing so a second
// run does not embed the previous output.
func excludeOutput(files []catalog.FileDescriptor, outputPath string) []catalog.FileDescriptor {
	if outputPath == "" {
		return files
	}
	abs, err := filepath.Abs(outputPath)
	if err != nil {
		return files
	}
	out := files[:0:0]
	for _, f := range files {
		if f.Kind != catalog.KindGitHub && f.SourceURL != "" && filepath.Clean(f.SourceURL) == abs {
			continue
		}
		out = append(out, f)
	}
	return out
}

func (a *App) History(ctx context.Context, limit int) ([]history.Run, error) {
	if a.history == nil {
		return nil, errors.New(errors.CodeNotSupported, "run history is disabled; set [history] enabled = true")
	}
	runs, err := a.history.ListRuns(ctx, a.Config.History.ProjectKey, limit)
	if err != nil {
		return nil, errors.AddContext(err, errors.CtxOperation, "list_runs")
	}
	return runs, nil
}
