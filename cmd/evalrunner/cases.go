package main

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/couchcryptid/forecast-eval-runner/internal/domain"
	"github.com/spf13/cobra"
)

func newCasesCmd(o *options) *cobra.Command {
	var field, value string
	cmd := &cobra.Command{
		Use:   "cases",
		Short: "List the cases of the events file",
		Example: `  $ evalrunner cases --events events.yaml
  $ evalrunner cases --events events.yaml --field event_type --value heat_wave`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return o.listCases(cmd.OutOrStdout(), field, value)
		},
	}
	cmd.Flags().StringVar(&field, "field", "", "filter field: event_type, title or case_id_number")
	cmd.Flags().StringVar(&value, "value", "", "value the filter field must equal")
	return cmd
}

func (o *options) listCases(out io.Writer, field, value string) error {
	if (field == "") != (value == "") {
		return errors.New("--field and --value go together")
	}

	path := o.eventsFile
	if path == "" {
		compiled, err := o.loadPlan()
		if err != nil {
			return err
		}
		path = compiled.EventsFile
	}
	cases, err := loadCases(path)
	if err != nil {
		return err
	}
	if field != "" {
		if cases, err = cases.Select(field, value); err != nil {
			return err
		}
	}
	return printCases(out, cases)
}

func printCases(out io.Writer, cases domain.CaseCollection) error {
	rows := make([][]string, 0, cases.Len())
	for _, c := range cases.Cases {
		rows = append(rows, []string{
			strconv.Itoa(c.ID), string(c.EventType),
			c.StartDate.Format(time.DateOnly), c.EndDate.Format(time.DateOnly), c.Title,
		})
	}
	if err := printTable(out, []string{"ID", "EVENT", "START", "END", "TITLE"}, rows); err != nil {
		return err
	}
	_, err := fmt.Fprintf(out, "%d cases\n", cases.Len())
	return err
}
