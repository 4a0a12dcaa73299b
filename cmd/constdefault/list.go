package main

import (
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/sghaida/constdefault/internal/generate"
)

func (a *app) newListCmd() *cobra.Command {
	var types []string
	cmd := &cobra.Command{
		Use:   "list [dirs...]",
		Short: "List derivation requests with their shape and obligations",
		Example: `  constdefault list
  constdefault list ./geo --type Point`,
		RunE: func(cmd *cobra.Command, args []string) error {
			runner := generate.New(a.cfg, generate.WithLogger(a.logger), generate.WithTypes(types...))

			t := table.NewWriter()
			t.SetOutputMirror(cmd.OutOrStdout())
			t.SetStyle(table.StyleLight)
			t.AppendHeader(table.Row{"Package", "Type", "Shape", "Obligations", "Status"})

			var failed int
			for _, dir := range dirsOrCwd(args) {
				an, err := runner.Analyze(cmd.Context(), dir)
				if err != nil {
					return err
				}
				for _, o := range an.Outcomes {
					shape, obligations := "-", "-"
					if o.Impl.Type != "" {
						shape = o.Impl.Value.Kind.String()
						obligations = obligationList(o)
					}
					status := "ok"
					if !o.OK() {
						status = "failed"
						failed++
					}
					t.AppendRow(table.Row{packageLabel(an), o.Request.Def.Name, shape, obligations, status})
				}
			}
			t.Render()
			if failed > 0 {
				return fmt.Errorf("%w: %d types", generate.ErrFailed, failed)
			}
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&types, "type", nil, "include these types even without the directive")
	return cmd
}

func obligationList(o generate.Outcome) string {
	if len(o.Impl.Constraints) == 0 {
		return "none"
	}
	seen := map[string]bool{}
	var parts []string
	for _, c := range o.Impl.Constraints {
		if !seen[c.Type] {
			seen[c.Type] = true
			parts = append(parts, c.Type)
		}
	}
	return strings.Join(parts, ", ")
}

// packageLabel prefers the import path, which is unknown outside a module.
func packageLabel(an *generate.Analysis) string {
	if an.Package.ImportPath != "" {
		return an.Package.ImportPath
	}
	return an.Package.Name
}
