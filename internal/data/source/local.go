package source

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"repo2text/internal/core/errors"
	"repo2text/internal/engine/catalog"

	"github.com/src-d/enry/v2"
)

// Directory reads files from a local directory tree.
type Directory struct {
	root  string
	rules *IgnoreRules
	opts  Options
}

func NewDirectory(root string, opts Options) (*Directory, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeValidationError, "resolve directory path")
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, errors.AddContext(errors.Wrap(err, errors.CodeNotFound, "directory not found"), errors.CtxPath, abs)
	}
	if !info.IsDir() {
		return nil, errors.AddContext(errors.New(errors.CodeValidationError, "not a directory"), errors.CtxPath, abs)
	}

	var gitignore string
	if opts.Gitignore {
		data, err := os.ReadFile(filepath.Join(abs, ".gitignore"))
		if err != nil && !os.IsNotExist(err) {
			return nil, errors.AddContext(errors.Wrap(err, errors.CodeInternal, "read .gitignore"), errors.CtxPath, abs)
		}
		gitignore = string(data)
	}
	rules, err := opts.ignoreRules(gitignore)
	if err != nil {
		return nil, err
	}
	return &Directory{root: abs, rules: rules, opts: opts}, nil
}

func (d *Directory) Kind() catalog.Kind { return catalog.KindDirectory }
func (d *Directory) Describe() string   { return d.root }
func (d *Directory) Root() string       { return d.root }
func (d *Directory) Close() error       { return nil }

// Ignored reports whether a path relative to the root is excluded from listings.
func (d *Directory) Ignored(rel string, isDir bool) bool {
	return d.rules.Ignored(rel, isDir)
}

func (d *Directory) List(ctx context.Context) ([]catalog.FileDescriptor, error) {
	defer observeListing(catalog.KindDirectory, time.Now())

	var files []catalog.FileDescriptor
	err := filepath.WalkDir(d.root, func(p string, entry fs.DirEntry, walkErr error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if walkErr != nil {
			if p == d.root {
				return walkErr
			}
			d.opts.logger().Warn("skipping unreadable path", "path", p, "error", walkErr)
			if entry != nil && entry.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if p == d.root {
			return nil
		}
		rel, err := filepath.Rel(d.root, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)

		if entry.IsDir() {
			if d.rules.Ignored(rel, true) || (d.opts.SkipVendor && enry.IsVendor(rel+"/")) {
				return filepath.SkipDir
			}
			return nil
		}
		if !entry.Type().IsRegular() {
			return nil
		}
		if d.rules.Ignored(rel, false) || (d.opts.SkipVendor && enry.IsVendor(rel)) {
			return nil
		}
		files = append(files, catalog.NewFile(rel, p, catalog.KindDirectory))
		return nil
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, errors.AddContext(errors.Wrap(err, errors.CodeInternal, "walk directory"), errors.CtxPath, d.root)
	}
	return files, nil
}

func (d *Directory) Fetch(ctx context.Context, file catalog.FileDescriptor) (content string, err error) {
	defer func() { recordFetch(catalog.KindDirectory, err) }()
	if err := ctx.Err(); err != nil {
		return "", err
	}

	full, err := d.resolve(file.Path)
	if err != nil {
		return "", err
	}
	info, err := os.Stat(full)
	if err != nil {
		return "", errors.AddContext(errors.Wrap(err, errors.CodeNotFound, "stat file"), errors.CtxPath, file.Path)
	}
	if info.IsDir() {
		return "", errors.AddContext(errors.New(errors.CodeValidationError, "cannot read a directory"), errors.CtxPath, file.Path)
	}
	if limit := d.opts.MaxFileSize; limit > 0 && info.Size() > limit {
		return "", tooLarge(file, info.Size(), limit)
	}
	data, err := os.ReadFile(full)
	if err != nil {
		return "", errors.AddContext(errors.Wrap(err, errors.CodeInternal, "read file"), errors.CtxPath, file.Path)
	}
	return decodeText(data), nil
}

// resolve maps a catalog path to an absolute path that must stay under root.
func (d *Directory) resolve(rel string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(strings.TrimPrefix(rel, "/")))
	full := filepath.Join(d.root, clean)
	back, err := filepath.Rel(d.root, full)
	if err != nil || back == ".." || strings.HasPrefix(back, ".."+string(filepath.Separator)) {
		return "", errors.AddContext(errors.New(errors.CodeValidationError, "path escapes source root"), errors.CtxPath, rel)
	}
	return full, nil
}
