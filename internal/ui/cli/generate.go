package cli

import (
	"repo2text/internal/core/ports"

	"github.com/spf13/cobra"
)

type generateOptions struct {
	depsOf string
	exts   []string
	out    string
	watch  bool
	redact bool
}

func newGenerateCommand(opts *rootOptions) *cobra.Command {
	g := &generateOptions{}

	cmd := &cobra.Command{
		Use:   "generate <source> [paths...]",
		Short: "Render selected files into one text document",
		Long: `Render a directory index and the content of the selected files.

The selection is the union of the given paths (files or folders), the
--ext filter, and the dependency closure of --deps-of. Without any of
them every file in the source is included.

The document goes to --out, the configured [output] path, or stdout.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return g.run(cmd, opts, args)
		},
	}
	cmd.Flags().StringVar(&g.depsOf, "deps-of", "", "include the dependency closure of this C# file")
	cmd.Flags().StringSliceVar(&g.exts, "ext", nil, "include files with these extensions (comma-separated)")
	cmd.Flags().StringVarP(&g.out, "out", "o", "", "write the document to this file")
	cmd.Flags().BoolVar(&g.redact, "redact", false, "mask detected secrets in file content")
	cmd.Flags().BoolVarP(&g.watch, "watch", "w", false, "regenerate on changes (local directories only)")
	return cmd
}

func (g *generateOptions) run(cmd *cobra.Command, opts *rootOptions, args []string) error {
	s, err := opts.start(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	req := ports.GenerateRequest{
		Source:     args[0],
		Paths:      args[1:],
		Extensions: g.exts,
		DepsOf:     g.depsOf,
		OutputPath: g.out,
		Redact:     g.redact,
		Status:     opts.progress(),
	}
	if g.out == "" && s.cfg.Output.Path == "" {
		req.Stdout = opts.stdout
	}

	if g.watch {
		opts.status(faintColor, "Watching %s for changes (Ctrl+C to stop)", args[0])
		return s.app.Watch(cmd.Context(), req, func(res ports.GenerateResult, err error) {
			if err != nil {
				opts.status(warnColor, "Generation failed: %v", err)
				return
			}
			opts.reportGenerate(res)
		})
	}

	res, err := s.app.Generate(cmd.Context(), req)
	if err != nil {
		return err
	}
	opts.reportGenerate(res)
	return nil
}

func (o *rootOptions) reportGenerate(res ports.GenerateResult) {
	target := res.OutputPath
	if target == "" {
		target = "stdout"
	}
	o.status(successColor, "Wrote %s (%s, %s) to %s in %s",
		plural(res.Stats.Files, "file"), formatBytes(res.Stats.Bytes), res.Kind, target, formatDuration(res.Duration))
	if res.Stats.Binary > 0 {
		o.status(faintColor, "%s replaced with binary placeholders", plural(res.Stats.Binary, "file"))
	}
	if res.Redacted > 0 {
		o.status(warnColor, "%s redacted", plural(res.Redacted, "secret"))
	}
	if res.Stats.Failed > 0 {
		o.status(warnColor, "%s could not be read", plural(res.Stats.Failed, "file"))
	}
}
