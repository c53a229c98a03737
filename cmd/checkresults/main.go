// Command checkresults verifies the result files of a plan against the plan
// and the events file: every enabled run has a decodable file, rows belong to
// the run's case subset and event type, and metrics and sources come from the
// run's tasks.
//
// Usage:
//
//	go run ./cmd/checkresults -builtin hres-all-events -events events.yaml
//	go run ./cmd/checkresults -plan plans/heat.yaml -save-dir /tmp/results
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"slices"

	"github.com/couchcryptid/forecast-eval-runner/internal/adapter/casefile"
	"github.com/couchcryptid/forecast-eval-runner/internal/adapter/resultfile"
	"github.com/couchcryptid/forecast-eval-runner/internal/domain"
	"github.com/couchcryptid/forecast-eval-runner/internal/plan"
	"github.com/google/uuid"
)

// phase tracks pass/fail for a check phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

// loaded is one enabled run and its decoded result file.
type loaded struct {
	run   domain.Run
	path  string
	table domain.ResultTable
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("checkresults", flag.ContinueOnError)
	fs.SetOutput(stderr)
	planPath := fs.String("plan", "", "plan YAML file")
	builtin := fs.String("builtin", "", "built-in plan name")
	events := fs.String("events", "", "events YAML file (overrides the plan's events_file)")
	saveDir := fs.String("save-dir", "", "result directory (overrides the plan's save_dir)")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if (*planPath == "") == (*builtin == "") {
		fmt.Fprintln(stderr, "exactly one of -plan or -builtin is required")
		fs.Usage()
		return 2
	}

	compiled, err := loadPlan(*planPath, *builtin)
	if err != nil {
		fmt.Fprintf(stderr, "FATAL: %v\n", err)
		return 1
	}
	if *events != "" {
		compiled.EventsFile = *events
	}
	if *saveDir != "" {
		compiled.SaveDir = *saveDir
	}
	cases, err := casefile.Load(compiled.EventsFile)
	if err != nil {
		fmt.Fprintf(stderr, "FATAL: load events: %v\n", err)
		return 1
	}

	fmt.Fprintf(stdout, "=== Result check: plan %s ===\n\n", compiled.Name)

	files, present := loadResults(compiled)
	phases := []*phase{
		present,
		checkIdentity(files),
		checkCaseSubsets(files, cases),
		checkMetricsAndSources(files),
	}

	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Fprintf(stdout, "  %-42s %s\n", p.name, status)
	}

	rows := 0
	for _, f := range files {
		rows += f.table.Len()
	}
	fmt.Fprintf(stdout, "\nFiles: %d of %d enabled runs, %d rows\n", len(files), len(compiled.EnabledRuns()), rows)

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Fprintf(stdout, "\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Fprintf(stdout, "  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Fprintln(stdout, "\nAll checks passed.")
		return 0
	}
	fmt.Fprintln(stdout, "\nCheck FAILED.")
	return 1
}

func loadPlan(path, builtin string) (*plan.Compiled, error) {
	var (
		f   *plan.File
		err error
	)
	if path != "" {
		f, err = plan.Load(path)
	} else {
		f, err = plan.LoadBuiltin(builtin)
	}
	if err != nil {
		return nil, err
	}
	return plan.Compile(f)
}

// ── Phases ──

func loadResults(c *plan.Compiled) ([]loaded, *phase) {
	p := &phase{name: "Result files present and decodable"}
	var out []loaded
	for _, run := range c.EnabledRuns() {
		path := domain.ResultPath(c.SaveDir, run)
		table, err := resultfile.Read(path)
		if err != nil {
			p.errorf("%s: %v", run.Name, err)
			continue
		}
		out = append(out, loaded{run: run, path: path, table: table})
	}
	return out, p
}

func checkIdentity(files []loaded) *phase {
	p := &phase{name: "Run identity"}
	for _, f := range files {
		if f.table.RunName != f.run.Name {
			p.errorf("%s: run_name %q, want %q", f.path, f.table.RunName, f.run.Name)
		}
		if _, err := uuid.Parse(f.table.RunID); err != nil {
			p.errorf("%s: run_id %q is not a UUID", f.path, f.table.RunID)
		}
		if f.table.GeneratedAt.IsZero() {
			p.errorf("%s: generated_at missing", f.path)
		}
	}
	return p
}

func checkCaseSubsets(files []loaded, cases domain.CaseCollection) *phase {
	p := &phase{name: "Rows within the run's case subset"}
	for _, f := range files {
		ids := cases.ByEventType(f.run.EventType).IDs()
		for i, row := range f.table.Rows {
			if row.EventType != f.run.EventType {
				p.errorf("%s row %d: event_type %s, run is %s", f.path, i, row.EventType, f.run.EventType)
			}
			if !slices.Contains(ids, row.CaseID) {
				p.errorf("%s row %d: case %d is not a %s case", f.path, i, row.CaseID, f.run.EventType)
			}
		}
	}
	return p
}

func checkMetricsAndSources(files []loaded) *phase {
	p := &phase{name: "Metrics and sources from the run's tasks"}
	for _, f := range files {
		var metrics []domain.Metric
		var forecasts, targets []string
		for _, t := range f.run.Tasks {
			metrics = append(metrics, t.Metrics...)
			forecasts = append(forecasts, t.Forecast.ID, t.Forecast.Name)
			targets = append(targets, t.Target.ID, t.Target.Name)
		}
		for i, row := range f.table.Rows {
			if !slices.Contains(metrics, row.Metric) {
				p.errorf("%s row %d: metric %s not requested", f.path, i, row.Metric)
			}
			if row.ForecastSource != "" && !slices.Contains(forecasts, row.ForecastSource) {
				p.errorf("%s row %d: unknown forecast source %q", f.path, i, row.ForecastSource)
			}
			if row.TargetSource != "" && !slices.Contains(targets, row.TargetSource) {
				p.errorf("%s row %d: unknown target source %q", f.path, i, row.TargetSource)
			}
		}
	}
	return p
}
