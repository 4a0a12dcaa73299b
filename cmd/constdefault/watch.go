package main

import (
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sghaida/constdefault/internal/generate"
	"github.com/sghaida/constdefault/internal/watch"
)

func (a *app) newWatchCmd() *cobra.Command {
	var (
		types    []string
		debounce time.Duration
	)
	cmd := &cobra.Command{
		Use:   "watch [dirs...]",
		Short: "Regenerate packages whenever their sources change",
		Long: `Generates every package once, then regenerates a package after its Go
sources change. Edits that leave the sources byte-identical are ignored.
Stops on interrupt.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			runner := generate.New(a.cfg, generate.WithLogger(a.logger), generate.WithTypes(types...))
			w := watch.New(dirsOrCwd(args), runner.RunDir,
				watch.WithLogger(a.logger),
				watch.WithDebounce(debounce),
				watch.WithOutput(a.cfg.Output),
				watch.OnResult(func(res generate.Result) {
					report(cmd.ErrOrStderr(), []generate.Result{res})
				}),
			)
			a.logger.Info("watching", zap.Strings("dirs", dirsOrCwd(args)))
			return w.Run(cmd.Context())
		},
	}
	cmd.Flags().StringSliceVar(&types, "type", nil, "derive these types even without the directive")
	cmd.Flags().DurationVar(&debounce, "debounce", watch.DefaultDebounce, "quiet period before regenerating")
	return cmd
}
