package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/sghaida/constdefault/internal/generate"
)

func (a *app) newGenerateCmd() *cobra.Command {
	var (
		types  []string
		verify bool
	)
	cmd := &cobra.Command{
		Use:   "generate [dirs...]",
		Short: "Generate ConstDefault methods for package directories",
		Long: `Scans each package directory for types marked //constdefault:derive (or
named with --type), derives their defaults and writes one generated file per
package. Types that fail are reported; the others are still written.`,
		Example: `  # from a go:generate line
  //go:generate go run github.com/sghaida/constdefault/cmd/constdefault generate

  # explicit types, no directive needed
  constdefault generate ./geo --type Point,Rect

  # fail in CI when the generated files are stale
  constdefault generate --verify ./geo ./color`,
		RunE: func(cmd *cobra.Command, args []string) error {
			runner := generate.New(a.cfg,
				generate.WithLogger(a.logger),
				generate.WithTypes(types...),
				generate.WithVerify(verify),
			)
			results, err := runner.Run(cmd.Context(), dirsOrCwd(args))
			report(cmd.ErrOrStderr(), results)
			return err
		},
	}
	cmd.Flags().StringSliceVar(&types, "type", nil, "derive these types even without the directive")
	cmd.Flags().BoolVar(&verify, "verify", false, "compare with the files on disk instead of writing")
	return cmd
}

// report prints the per-package problems of results.
func report(w io.Writer, results []generate.Result) {
	for _, res := range results {
		for _, err := range res.Errs {
			_, _ = fmt.Fprintln(w, err)
		}
		if res.Stale {
			_, _ = fmt.Fprintf(w, "%s: out of date\n", res.Output)
		}
	}
}
