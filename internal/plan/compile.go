package plan

import (
	"errors"
	"fmt"
	"maps"

	"github.com/couchcryptid/forecast-eval-runner/internal/domain"
)

// Compiled is a plan resolved into validated domain values.
type Compiled struct {
	Name       string
	SaveDir    string
	EventsFile string
	Parallel   domain.ParallelConfig
	Forecasts  map[string]domain.ForecastSource
	Runs       []domain.Run
}

// EnabledRuns returns the runs that execute, in plan order.
func (c *Compiled) EnabledRuns() []domain.Run {
	var out []domain.Run
	for _, r := range c.Runs {
		if r.Enabled {
			out = append(out, r)
		}
	}
	return out
}

// Compile resolves forecasts, targets and metrics and validates every run.
// All configuration errors surface here, before any run starts.
func Compile(f *File) (*Compiled, error) {
	if f == nil {
		return nil, errors.New("nil plan")
	}
	if f.SaveDir == "" {
		return nil, errors.New("save_dir is required")
	}

	parallel := domain.ParallelConfig{Backend: f.Parallel.Backend, NJobs: f.Parallel.NJobs}
	if err := parallel.Validate(); err != nil {
		return nil, fmt.Errorf("parallel: %w", err)
	}

	forecasts, err := compileForecasts(f.Forecasts)
	if err != nil {
		return nil, err
	}

	if len(f.Runs) == 0 {
		return nil, errors.New("plan has no runs")
	}

	runs := make([]domain.Run, 0, len(f.Runs))
	names := map[string]bool{}
	outputs := map[string]string{}
	for i, spec := range f.Runs {
		run, err := compileRun(spec, forecasts)
		if err != nil {
			return nil, fmt.Errorf("runs[%d]: %w", i, err)
		}
		if names[run.Name] {
			return nil, fmt.Errorf("runs[%d]: duplicate run name %q", i, run.Name)
		}
		names[run.Name] = true

		out := domain.ResultFileName(run)
		if other, taken := outputs[out]; taken {
			return nil, fmt.Errorf("runs[%d]: %s writes %s, already written by %s", i, run.Name, out, other)
		}
		outputs[out] = run.Name

		runs = append(runs, run)
	}

	return &Compiled{
		Name:       f.Name,
		SaveDir:    f.SaveDir,
		EventsFile: f.EventsFile,
		Parallel:   parallel,
		Forecasts:  forecasts,
		Runs:       runs,
	}, nil
}

func compileForecasts(specs []ForecastSpec) (map[string]domain.ForecastSource, error) {
	out := make(map[string]domain.ForecastSource, len(specs))
	for i, s := range specs {
		if _, dup := out[s.ID]; dup {
			return nil, fmt.Errorf("forecasts[%d]: duplicate forecast id %q", i, s.ID)
		}

		var mapping map[string]string
		if s.VariableMappingPreset != "" {
			preset, ok := domain.VariableMappingPreset(s.VariableMappingPreset)
			if !ok {
				return nil, fmt.Errorf("forecasts[%d]: unknown variable mapping preset %q", i, s.VariableMappingPreset)
			}
			mapping = preset
		}
		if len(s.VariableMapping) > 0 {
			if mapping == nil {
				mapping = make(map[string]string, len(s.VariableMapping))
			}
			maps.Copy(mapping, s.VariableMapping)
		}

		src, err := domain.NewForecastSource(domain.ForecastSource{
			ID:              s.ID,
			Name:            s.Name,
			Kind:            domain.SourceKind(s.Kind),
			Source:          s.Source,
			Variables:       s.Variables,
			VariableMapping: mapping,
			StorageOptions:  s.StorageOptions,
			Preprocess:      s.Preprocess,
		})
		if err != nil {
			return nil, fmt.Errorf("forecasts[%d]: %w", i, err)
		}
		out[s.ID] = src
	}
	return out, nil
}

func compileRun(spec RunSpec, forecasts map[string]domain.ForecastSource) (domain.Run, error) {
	eventType, err := domain.ParseEventType(spec.EventType)
	if err != nil {
		return domain.Run{}, fmt.Errorf("run %s: %w", spec.Name, err)
	}
	metrics, err := domain.ParseMetrics(spec.Metrics)
	if err != nil {
		return domain.Run{}, fmt.Errorf("run %s: %w", spec.Name, err)
	}
	if len(spec.Forecasts) == 0 {
		return domain.Run{}, fmt.Errorf("run %s: no forecasts", spec.Name)
	}
	if len(spec.Targets) == 0 {
		return domain.Run{}, fmt.Errorf("run %s: no targets", spec.Name)
	}

	run := domain.Run{
		Name:      spec.Name,
		EventType: eventType,
		Output:    spec.Output,
		Enabled:   spec.IsEnabled(),
	}
	for _, fid := range spec.Forecasts {
		forecast, ok := forecasts[fid]
		if !ok {
			return domain.Run{}, fmt.Errorf("run %s: unknown forecast %q", spec.Name, fid)
		}
		for _, tid := range spec.Targets {
			target, err := domain.LookupTarget(tid)
			if err != nil {
				return domain.Run{}, fmt.Errorf("run %s: %w", spec.Name, err)
			}
			run.Tasks = append(run.Tasks, domain.EvaluationTask{
				EventType: eventType,
				Metrics:   metrics,
				Target:    target,
				Forecast:  forecast,
			})
		}
	}

	if err := run.Validate(); err != nil {
		return domain.Run{}, err
	}
	return run, nil
}
