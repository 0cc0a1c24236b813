package app

import (
	"context"
	"path/filepath"
	"strings"

	"repo2text/internal/core/errors"
	"repo2text/internal/core/ports"
	"repo2text/internal/core/watcher"
	"repo2text/internal/data/source"
	"repo2text/internal/ui/report"

	"github.com/gobwas/glob"
)

var atomicTempGlob = glob.MustCompile(report.TempFilePattern)

// Watch generates the document once and again after every debounced batch of
// changes under a local directory source. It blocks until ctx is done.
func (a *App) Watch(ctx context.Context, req ports.GenerateRequest, onRun func(ports.GenerateResult, error)) error {
	if onRun == nil {
		onRun = func(ports.GenerateResult, error) {}
	}
	src, err := a.openSource(ctx, req.Source, a.sourceOptions())
	if err != nil {
		return errors.AddContext(err, errors.CtxSource, req.Source)
	}
	defer src.Close()

	dir, ok := src.(*source.Directory)
	if !ok {
		return errors.AddContext(
			errors.Newf(errors.CodeNotSupported, "watch requires a local directory source, got %s", src.Kind()),
			errors.CtxSource, req.Source)
	}

	outputAbs := ""
	if p := a.outputPath(req); p != "" {
		if abs, err := filepath.Abs(p); err == nil {
			outputAbs = abs
		}
	}

	w, err := watcher.NewWatcher(watcher.Options{
		Debounce:    a.Config.Watch.Debounce,
		ExcludeDirs: a.Config.Watch.ExcludeDirs,
		Extensions:  a.watchExtensions(req),
		Ignore:      watchIgnore(dir, outputAbs),
	}, func(paths []string) {
		if ctx.Err() != nil {
			return
		}
		a.logger.Info("changes detected, regenerating", "files", len(paths))
		onRun(a.Generate(ctx, req))
	})
	if err != nil {
		return errors.Wrap(err, errors.CodeInternal, "start watcher")
	}
	defer w.Close()

	onRun(a.Generate(ctx, req))
	if err := w.Watch([]string{dir.Root()}); err != nil {
		return errors.AddContext(errors.Wrap(err, errors.CodeInternal, "watch directory"), errors.CtxPath, dir.Root())
	}
	<-ctx.Done()
	return nil
}

// watchExtensions narrows watcher events to the extensions the selection can
// contain. Explicit paths or no criteria at all can select any file, so no
// filter applies.
func (a *App) watchExtensions(req ports.GenerateRequest) []string {
	if len(req.Paths) > 0 {
		return nil
	}
	depsOf := strings.TrimSpace(req.DepsOf)
	if depsOf == "" && len(req.Extensions) == 0 {
		return nil
	}
	exts := append([]string(nil), req.Extensions...)
	if depsOf != "" {
		exts = append(exts, a.Config.Resolver.Extensions...)
		// The root itself may not carry a resolver extension.
		if ext := filepath.Ext(depsOf); ext != "" {
			exts = append(exts, ext)
		}
	}
	return exts
}

// watchIgnore applies the directory's ignore rules to watcher events and
// skips the generated document and the temp files used to write it.
func watchIgnore(dir *source.Directory, outputAbs string) watcher.IgnoreFunc {
	outputDir := ""
	if outputAbs != "" {
		outputDir = filepath.Dir(outputAbs)
	}
	return func(path string, isDir bool) bool {
		if outputAbs != "" {
			clean := filepath.Clean(path)
			if clean == outputAbs {
				return true
			}
			if !isDir && filepath.Dir(clean) == outputDir && atomicTempGlob.Match(filepath.Base(clean)) {
				return true
			}
		}
		rel, err := filepath.Rel(dir.Root(), path)
		if err != nil || rel == "." {
			return false
		}
		return dir.Ignored(filepath.ToSlash(rel), isDir)
	}
}
