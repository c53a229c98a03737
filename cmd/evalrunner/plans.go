package main

import (
	"io"
	"strconv"

	"github.com/couchcryptid/forecast-eval-runner/internal/plan"
	"github.com/spf13/cobra"
)

func newPlansCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "plans",
		Short: "List the built-in plans",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return listPlans(cmd.OutOrStdout())
		},
	}
}

func listPlans(out io.Writer) error {
	var rows [][]string
	for _, name := range plan.BuiltinNames() {
		f, _ := plan.Builtin(name)
		enabled := 0
		for _, r := range f.Runs {
			if r.IsEnabled() {
				enabled++
			}
		}
		rows = append(rows, []string{
			name, strconv.Itoa(len(f.Forecasts)), strconv.Itoa(len(f.Runs)), strconv.Itoa(enabled),
		})
	}
	return printTable(out, []string{"NAME", "FORECASTS", "RUNS", "ENABLED"}, rows)
}
