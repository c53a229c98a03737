package main

import (
	"errors"
	"fmt"

	"github.com/couchcryptid/forecast-eval-runner/internal/adapter/casefile"
	"github.com/couchcryptid/forecast-eval-runner/internal/domain"
	"github.com/couchcryptid/forecast-eval-runner/internal/plan"
	"github.com/spf13/cobra"
)

const version = "0.1.0"

// options holds the flags shared by every subcommand.
type options struct {
	planPath   string
	builtin    string
	eventsFile string
}

func newRootCmd() *cobra.Command {
	o := &options{}
	root := &cobra.Command{
		Use:     "evalrunner",
		Short:   "Run extreme-weather forecast evaluation plans",
		Version: version,
		Long: `evalrunner compiles an evaluation plan (forecast sources, built-in targets,
metrics and runs), selects the cases of each run's event type from the events
file, sends them to the evaluation engine and saves the result table of each
run under the plan's save directory.`,
		Example: `  # Validate a plan file without calling the engine
  $ evalrunner validate --plan plans/heat.yaml --events events.yaml

  # Execute a built-in plan
  $ evalrunner run --builtin hres-all-events --events events.yaml

  # List the built-in plans
  $ evalrunner plans`,
		SilenceUsage: true,
	}
	root.CompletionOptions.DisableDefaultCmd = true

	root.PersistentFlags().StringVarP(&o.planPath, "plan", "p", "", "path to a plan YAML file")
	root.PersistentFlags().StringVarP(&o.builtin, "builtin", "b", "", "name of a built-in plan")
	root.PersistentFlags().StringVarP(&o.eventsFile, "events", "e", "", "events YAML file (overrides the plan's events_file)")

	root.AddCommand(newRunCmd(o))
	root.AddCommand(newValidateCmd(o))
	root.AddCommand(newCasesCmd(o))
	root.AddCommand(newPlansCmd())
	return root
}

// loadPlan loads and compiles the plan selected by --plan or --builtin.
func (o *options) loadPlan() (*plan.Compiled, error) {
	var (
		f   *plan.File
		err error
	)
	switch {
	case o.planPath != "" && o.builtin != "":
		return nil, errors.New("use either --plan or --builtin, not both")
	case o.planPath != "":
		f, err = plan.Load(o.planPath)
	case o.builtin != "":
		f, err = plan.LoadBuiltin(o.builtin)
	default:
		return nil, errors.New("one of --plan or --builtin is required")
	}
	if err != nil {
		return nil, err
	}

	compiled, err := plan.Compile(f)
	if err != nil {
		return nil, fmt.Errorf("plan %s: %w", f.Name, err)
	}
	if o.eventsFile != "" {
		compiled.EventsFile = o.eventsFile
	}
	return compiled, nil
}

// loadCases reads the events file. Relative paths resolve against the
// working directory.
func loadCases(path string) (domain.CaseCollection, error) {
	if path == "" {
		return domain.CaseCollection{}, errors.New("no events file: set events_file in the plan or pass --events")
	}
	return casefile.Load(path)
}
