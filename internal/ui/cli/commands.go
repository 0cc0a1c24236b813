package cli

import (
	"repo2text/internal/core/ports"
	"repo2text/internal/shared/version"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func newListCommand(opts *rootOptions) *cobra.Command {
	var exts []string

	cmd := &cobra.Command{
		Use:   "list <source>",
		Short: "List the files a source provides",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.start(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			res, err := s.app.List(cmd.Context(), ports.ListRequest{Source: args[0], Extensions: exts})
			if err != nil {
				return err
			}
			for _, f := range res.Files {
				opts.printf("%s\n", f.DisplayPath)
			}
			opts.status(faintColor, "%s from %s (%s)", plural(len(res.Files), "file"), res.Source, res.Kind)
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&exts, "ext", nil, "only list these extensions (comma-separated, e.g. .cs,.md)")
	return cmd
}

func newDepsCommand(opts *rootOptions) *cobra.Command {
	var explain bool

	cmd := &cobra.Command{
		Use:   "deps <source> <root-path>",
		Short: "Print the files a C# source file transitively depends on",
		Long: `Resolve the dependency closure of a root file. Namespaces declared in the
source are indexed, then using directives are followed breadth-first from
the root. Non-C# roots are printed on their own.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.start(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			res, err := s.app.Resolve(cmd.Context(), ports.ResolveRequest{
				Source: args[0],
				Root:   args[1],
				Status: opts.progress(),
			})
			if err != nil {
				return err
			}
			for _, f := range res.Files.Files() {
				opts.printf("%s\n", f.DisplayPath)
			}
			if explain {
				opts.printf("\n")
				for _, e := range res.Edges {
					opts.printf("%s -> %s (using %s)\n", e.From, e.To, e.Namespace)
				}
			}

			if !res.Analyzed {
				opts.status(warnColor, "%s is not an analyzable source file; returned on its own", res.Root.DisplayPath)
				return nil
			}
			opts.status(successColor, "Resolved %s from %d candidates in %s (%d fetches, %d namespaces)",
				plural(res.Files.Len(), "file"), res.Candidates, formatDuration(res.Duration),
				res.Fetches, res.Namespaces)
			if len(res.Failed) > 0 {
				opts.status(warnColor, "Could not read %s: %v", plural(len(res.Failed), "file"), res.Failed)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&explain, "explain", false, "also print the import edges that pulled each file in")
	return cmd
}

func newHistoryCommand(opts *rootOptions) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded deps and generate runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := opts.start(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			runs, err := s.app.History(cmd.Context(), limit)
			if err != nil {
				return err
			}
			tbl := table.NewWriter()
			tbl.SetOutputMirror(opts.stdout)
			tbl.SetStyle(table.StyleLight)
			tbl.Style().Options = table.Options{}
			tbl.AppendHeader(table.Row{"ID", "Started", "Command", "Status", "Files", "Size", "Duration", "Source"})
			for _, run := range runs {
				id := run.ID
				if len(id) > 8 {
					id = id[:8]
				}
				tbl.AppendRow(table.Row{
					id,
					run.StartedAt.Local().Format("2006-01-02 15:04:05"),
					run.Command,
					run.Status,
					run.FileCount,
					formatBytes(run.OutputBytes),
					formatDuration(run.Duration),
					run.Source,
				})
			}
			tbl.Render()
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum number of runs to show")
	return cmd
}

func newVersionCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		Run: func(_ *cobra.Command, _ []string) {
			opts.printf("%s\n", version.String())
		},
	}
}
