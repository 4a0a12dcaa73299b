package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sghaida/constdefault/derive"
	"github.com/sghaida/constdefault/descriptor"
	"github.com/sghaida/constdefault/emit"
	"github.com/sghaida/constdefault/internal/generate"
)

func (a *app) newDescribeCmd() *cobra.Command {
	var (
		path   string
		format string
	)
	cmd := &cobra.Command{
		Use:   "describe",
		Short: "Derive defaults for the types of a YAML shape descriptor",
		Long: `Reads hand-authored shape descriptors and prints either the derived
implementations as a YAML manifest or the Go source that would be generated.`,
		Example: `  constdefault describe -f shapes.yaml
  constdefault describe -f shapes.yaml --format go`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if format != "yaml" && format != "go" {
				return fmt.Errorf("unknown format %q (want yaml or go)", format)
			}
			files, err := descriptor.Load(path)
			if err != nil {
				return err
			}

			runner := generate.New(a.cfg, generate.WithLogger(a.logger))
			var (
				impls []derive.Impl
				errs  []error
			)
			out := cmd.OutOrStdout()
			for _, file := range files {
				an, err := runner.AnalyzeDescriptor(cmd.Context(), path, file)
				if err != nil {
					return err
				}
				errs = append(errs, an.Failed()...)

				if format == "go" {
					if len(an.Succeeded()) == 0 {
						continue
					}
					src, err := runner.Render(an)
					if err != nil {
						return err
					}
					if _, err := out.Write(src); err != nil {
						return err
					}
					continue
				}
				for _, o := range an.Outcomes {
					if o.OK() {
						impls = append(impls, o.Impl)
					}
				}
			}

			if format == "yaml" {
				doc, err := emit.Manifest(impls)
				if err != nil {
					return err
				}
				if _, err := out.Write(doc); err != nil {
					return err
				}
			}
			return errors.Join(errs...)
		},
	}
	cmd.Flags().StringVarP(&path, "file", "f", "", "descriptor file")
	cmd.Flags().StringVar(&format, "format", "yaml", "output format (yaml|go)")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}
