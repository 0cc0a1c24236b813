// Package report renders selected files into a single annotated text
// document: a directory index followed by one block per file.
package report

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"sort"
	"strings"

	"repo2text/internal/engine/catalog"
	"repo2text/internal/shared/observability"

	"github.com/dustin/go-humanize"
	"github.com/src-d/enry/v2"
)

const indexHeader = "Directory Structure:\n\n"

// ContentFunc returns the text of one file.
type ContentFunc func(ctx context.Context, file catalog.FileDescriptor) (string, error)

type Options struct {
	// BinaryPlaceholder replaces binary content with a one-line marker.
	BinaryPlaceholder bool
}

// Stats summarises one rendered document.
type Stats struct {
	Files  int
	Failed int
	Binary int
	Bytes  int64
}

// Render writes the document for files to w. Content blocks are ordered by
// Path and directories get no block. A file whose content cannot be fetched
// is rendered with an error line instead of failing the document; only
// context and write errors abort.
func Render(ctx context.Context, w io.Writer, files []catalog.FileDescriptor, content ContentFunc, opts Options) (Stats, error) {
	cw := &countingWriter{w: bufio.NewWriter(w)}
	var stats Stats

	cw.WriteString(indexHeader)
	cw.WriteString(Tree(files))
	cw.WriteString("\n")

	ordered := append([]catalog.FileDescriptor(nil), catalog.FilesOnly(files)...)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Path < ordered[j].Path })

	for _, file := range ordered {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		display := strings.TrimLeft(displayPath(file), "/")
		text, err := content(ctx, file)
		switch {
		case err != nil:
			if ctx.Err() != nil {
				return stats, ctx.Err()
			}
			stats.Failed++
			text = fmt.Sprintf("Error: Could not retrieve content for %s (%v)", display, err)
		case opts.BinaryPlaceholder && enry.IsBinary([]byte(text)):
			stats.Binary++
			text = fmt.Sprintf("[binary file omitted: %s]", humanize.Bytes(uint64(len(text))))
		}
		stats.Files++

		cw.WriteString("\n---\nFile: /" + display + "\n---\n\n")
		cw.WriteString(text)
		cw.WriteString("\n")
		if cw.err != nil {
			return stats, cw.err
		}
	}

	if err := cw.Flush(); err != nil {
		return stats, err
	}
	stats.Bytes = cw.n
	observability.DocumentsRendered.Inc()
	observability.DocumentBytes.Observe(float64(cw.n))
	return stats, nil
}

func displayPath(file catalog.FileDescriptor) string {
	if file.DisplayPath != "" {
		return file.DisplayPath
	}
	return file.Path
}

// countingWriter keeps the first write error and the byte count.
type countingWriter struct {
	w   *bufio.Writer
	n   int64
	err error
}

func (c *countingWriter) WriteString(s string) {
	if c.err != nil {
		return
	}
	n, err := c.w.WriteString(s)
	c.n += int64(n)
	c.err = err
}

func (c *countingWriter) Flush() error {
	if c.err != nil {
		return c.err
	}
	return c.w.Flush()
}
