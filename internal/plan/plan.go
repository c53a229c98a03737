// Package plan loads declarative evaluation plans and compiles them into
// validated runs.
//
// A plan file names the forecast sources, then lists runs. Each run pairs an
// event type with one or more forecasts, one or more built-in targets and a
// metric list; every forecast/target combination becomes one evaluation task.
//
//	name: hres-all-events
//	save_dir: saved_data
//	events_file: events.yaml
//	parallel:
//	  backend: loky
//	  n_jobs: 1
//	forecasts:
//	  - id: hres
//	    name: HRES
//	    kind: zarr
//	    source: gs://weatherbench2/datasets/hres/2016-2022-0012-1440x721.zarr
//	    variables: [surface_air_temperature]
//	    variable_mapping_preset: hres
//	    storage_options: {anon: true}
//	runs:
//	  - name: hres_freeze_ghcn
//	    event_type: freeze
//	    forecasts: [hres]
//	    targets: [ghcn_freeze]
//	    metrics: [RootMeanSquaredError, MaximumMeanAbsoluteError, MeanAbsoluteError]
//
// Environment variables prefixed EVAL_PLAN_ override scalar keys, e.g.
// EVAL_PLAN_SAVE_DIR or EVAL_PLAN_PARALLEL_N_JOBS.
package plan

// File is the on-disk shape of a plan.
type File struct {
	Name       string         `koanf:"name" yaml:"name"`
	SaveDir    string         `koanf:"save_dir" yaml:"save_dir"`
	EventsFile string         `koanf:"events_file" yaml:"events_file,omitempty"`
	Parallel   ParallelSpec   `koanf:"parallel" yaml:"parallel"`
	Forecasts  []ForecastSpec `koanf:"forecasts" yaml:"forecasts"`
	Runs       []RunSpec      `koanf:"runs" yaml:"runs"`
}

// ParallelSpec mirrors domain.ParallelConfig.
type ParallelSpec struct {
	Backend string `koanf:"backend" yaml:"backend"`
	NJobs   int    `koanf:"n_jobs" yaml:"n_jobs"`
}

// ForecastSpec declares one forecast source. VariableMapping entries are
// applied on top of the named preset.
type ForecastSpec struct {
	ID                    string            `koanf:"id" yaml:"id"`
	Name                  string            `koanf:"name" yaml:"name,omitempty"`
	Kind                  string            `koanf:"kind" yaml:"kind"`
	Source                string            `koanf:"source" yaml:"source"`
	Variables             []string          `koanf:"variables" yaml:"variables"`
	VariableMappingPreset string            `koanf:"variable_mapping_preset" yaml:"variable_mapping_preset,omitempty"`
	VariableMapping       map[string]string `koanf:"variable_mapping" yaml:"variable_mapping,omitempty"`
	StorageOptions        map[string]any    `koanf:"storage_options" yaml:"storage_options,omitempty"`
	Preprocess            string            `koanf:"preprocess" yaml:"preprocess,omitempty"`
}

// RunSpec declares one run. Enabled defaults to true.
type RunSpec struct {
	Name      string   `koanf:"name" yaml:"name"`
	EventType string   `koanf:"event_type" yaml:"event_type"`
	Forecasts []string `koanf:"forecasts" yaml:"forecasts"`
	Targets   []string `koanf:"targets" yaml:"targets"`
	Metrics   []string `koanf:"metrics" yaml:"metrics"`
	Output    string   `koanf:"output" yaml:"output,omitempty"`
	Enabled   *bool    `koanf:"enabled" yaml:"enabled,omitempty"`
}

// IsEnabled reports whether the run executes.
func (r RunSpec) IsEnabled() bool {
	return r.Enabled == nil || *r.Enabled
}

// defaults is the base layer under every plan file.
func defaults() File {
	return File{
		SaveDir:  "saved_data",
		Parallel: ParallelSpec{Backend: "loky", NJobs: 1},
	}
}
