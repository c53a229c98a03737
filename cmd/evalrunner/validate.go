package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/couchcryptid/forecast-eval-runner/internal/domain"
	"github.com/spf13/cobra"
)

func newValidateCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Compile the plan and show what each run would evaluate",
		Long: `Compile the plan, load the events file and print, for every run, the number
of cases it selects, its task count and the file it would write. Nothing is
sent to the engine.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return o.validate(cmd.OutOrStdout())
		},
	}
}

func (o *options) validate(out io.Writer) error {
	compiled, err := o.loadPlan()
	if err != nil {
		return err
	}
	cases, err := loadCases(compiled.EventsFile)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "plan %s: %d runs (%d enabled), %d cases, parallel %s/%d\n\n",
		compiled.Name, len(compiled.Runs), len(compiled.EnabledRuns()), cases.Len(),
		compiled.Parallel.Backend, compiled.Parallel.NJobs)

	rows := make([][]string, 0, len(compiled.Runs))
	for _, run := range compiled.Runs {
		rows = append(rows, []string{
			run.Name, string(run.EventType), strconv.FormatBool(run.Enabled), strconv.Itoa(len(run.Tasks)),
			strconv.Itoa(cases.ByEventType(run.EventType).Len()), domain.ResultPath(compiled.SaveDir, run),
		})
	}
	return printTable(out, []string{"RUN", "EVENT", "ENABLED", "TASKS", "CASES", "FILE"}, rows)
}
