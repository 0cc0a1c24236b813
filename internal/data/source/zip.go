package source

import (
	"archive/zip"
	"context"
	"io"
	"path"
	"strings"
	"time"

	"repo2text/internal/core/errors"
	"repo2text/internal/engine/catalog"

	"github.com/src-d/enry/v2"
)

// Zip reads files from a local ZIP archive. The archive stays open until Close.
type Zip struct {
	path    string
	reader  *zip.ReadCloser
	entries map[string]*zip.File
	order   []string
	rules   *IgnoreRules
	opts    Options
}

func NewZip(archivePath string, opts Options) (*Zip, error) {
	reader, err := zip.OpenReader(archivePath)
	if err == zip.ErrInsecurePath && reader != nil {
		opts.logger().Debug("archive contains non-local entry names", "archive", archivePath)
		err = nil
	}
	if err != nil {
		return nil, errors.AddContext(errors.Wrap(err, errors.CodeValidationError, "open zip archive"), errors.CtxPath, archivePath)
	}

	z := &Zip{
		path:    archivePath,
		reader:  reader,
		entries: make(map[string]*zip.File, len(reader.File)),
		opts:    opts,
	}
	var gitignore *zip.File
	for _, f := range reader.File {
		if isZipDir(f.Name) {
			continue
		}
		name := normalizeEntryName(f.Name)
		if name == "" {
			continue
		}
		if _, dup := z.entries[name]; !dup {
			z.order = append(z.order, name)
		}
		z.entries[name] = f
		if strings.EqualFold(path.Base(name), ".gitignore") {
			if gitignore == nil || strings.EqualFold(name, ".gitignore") && !strings.EqualFold(normalizeEntryName(gitignore.Name), ".gitignore") {
				gitignore = f
			}
		}
	}

	var ignoreText string
	if opts.Gitignore && gitignore != nil {
		data, err := readZipEntry(gitignore, 0)
		if err != nil {
			opts.logger().Warn("could not read .gitignore from archive", "archive", archivePath, "error", err)
		} else {
			ignoreText = decodeText(data)
		}
	}
	z.rules, err = opts.ignoreRules(ignoreText)
	if err != nil {
		_ = reader.Close()
		return nil, err
	}
	return z, nil
}

func (z *Zip) Kind() catalog.Kind { return catalog.KindZip }
func (z *Zip) Describe() string   { return z.path }

func (z *Zip) Close() error {
	return z.reader.Close()
}

func (z *Zip) List(ctx context.Context) ([]catalog.FileDescriptor, error) {
	defer observeListing(catalog.KindZip, time.Now())

	files := make([]catalog.FileDescriptor, 0, len(z.order))
	for _, name := range z.order {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if z.rules.Ignored(name, false) {
			continue
		}
		if z.opts.SkipVendor && enry.IsVendor(name) {
			continue
		}
		files = append(files, catalog.NewFile(name, z.entries[name].Name, catalog.KindZip))
	}
	return files, nil
}

func (z *Zip) Fetch(ctx context.Context, file catalog.FileDescriptor) (content string, err error) {
	defer func() { recordFetch(catalog.KindZip, err) }()
	if err := ctx.Err(); err != nil {
		return "", err
	}

	entry, ok := z.entries[normalizeEntryName(file.Path)]
	if !ok {
		return "", errors.AddContext(errors.New(errors.CodeNotFound, "entry not found in archive"), errors.CtxPath, file.Path)
	}
	if limit := z.opts.MaxFileSize; limit > 0 && entry.UncompressedSize64 > uint64(limit) {
		return "", tooLarge(file, int64(entry.UncompressedSize64), limit)
	}
	data, err := readZipEntry(entry, z.opts.MaxFileSize)
	if err != nil {
		return "", errors.AddContext(errors.Wrap(err, errors.CodeInternal, "read archive entry"), errors.CtxPath, file.Path)
	}
	return decodeText(data), nil
}

func readZipEntry(f *zip.File, limit int64) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	var r io.Reader = rc
	if limit > 0 {
		r = io.LimitReader(rc, limit+1)
	}
	return io.ReadAll(r)
}

func isZipDir(name string) bool {
	return strings.HasSuffix(name, "/") || strings.HasSuffix(name, "\\")
}

func normalizeEntryName(name string) string {
	return strings.TrimLeft(strings.ReplaceAll(name, "\\", "/"), "/")
}
