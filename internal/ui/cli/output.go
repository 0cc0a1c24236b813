package cli

import (
	"fmt"
	"time"

	"repo2text/internal/engine/resolver"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
)

var (
	successColor = color.New(color.FgGreen)
	warnColor    = color.New(color.FgYellow)
	faintColor   = color.New(color.Faint)
)

// status prints a summary line to stderr unless --quiet is set.
func (o *rootOptions) status(c *color.Color, format string, args ...any) {
	if o.quiet {
		return
	}
	c.Fprintf(o.stderr, format+"\n", args...)
}

// progress returns a StatusFunc that echoes resolver progress in verbose mode.
func (o *rootOptions) progress() resolver.StatusFunc {
	if o.quiet || !o.verbose {
		return nil
	}
	return func(message string) {
		faintColor.Fprintln(o.stderr, message)
	}
}

func formatBytes(n int64) string {
	if n < 0 {
		n = 0
	}
	return humanize.Bytes(uint64(n))
}

func formatDuration(d time.Duration) string {
	return d.Round(time.Millisecond).String()
}

func plural(n int, word string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, word)
	}
	return fmt.Sprintf("%d %ss", n, word)
}
