// Package cli implements the repo2text command line.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"repo2text/internal/core/config"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

type rootOptions struct {
	configPath  string
	verbose     bool
	quiet       bool
	token       string
	metricsAddr string

	stdout io.Writer
	stderr io.Writer
}

// Run executes the command line and returns the process exit code.
func Run(args []string) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := NewRootCommand(os.Stdout, os.Stderr)
	root.SetArgs(args)
	if err := root.ExecuteContext(ctx); err != nil {
		color.New(color.FgRed).Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func NewRootCommand(stdout, stderr io.Writer) *cobra.Command {
	opts := &rootOptions{stdout: stdout, stderr: stderr}

	root := &cobra.Command{
		Use:   "repo2text",
		Short: "Assemble source files into a single annotated text document",
		Long: `repo2text collects files from a GitHub repository, a local directory, or a
ZIP archive and concatenates them into one document: a directory index
followed by a block per file.

Sources:
  https://github.com/{owner}/{repo}[/tree/{ref}/{path}]
  ./path/to/directory
  ./archive.zip`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	flags := root.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", config.DefaultPath, "path to config file (missing default file means built-in defaults)")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "verbose output")
	flags.BoolVarP(&opts.quiet, "quiet", "q", false, "suppress status output")
	flags.StringVar(&opts.token, "token", "", "GitHub token (overrides config and GITHUB_TOKEN)")
	flags.StringVar(&opts.metricsAddr, "metrics-addr", "", "serve /metrics and /health on this address")

	root.AddCommand(
		newListCommand(opts),
		newDepsCommand(opts),
		newGenerateCommand(opts),
		newHistoryCommand(opts),
		newVersionCommand(opts),
	)
	return root
}

func (o *rootOptions) printf(format string, args ...any) {
	fmt.Fprintf(o.stdout, format, args...)
}
