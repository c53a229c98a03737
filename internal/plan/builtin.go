package plan

import (
	"maps"
	"slices"

	"github.com/couchcryptid/forecast-eval-runner/internal/domain"
)

var heatFreezeMetrics = []string{
	string(domain.RootMeanSquaredError),
	string(domain.MaximumMeanAbsoluteError),
	string(domain.MeanAbsoluteError),
}

var builtins = map[string]func() File{
	"hres-all-events": hresAllEvents,
	"heat-waves":      heatWaves,
}

// Builtin returns a fresh copy of a built-in plan.
func Builtin(name string) (File, bool) {
	build, ok := builtins[name]
	if !ok {
		return File{}, false
	}
	return build(), true
}

// BuiltinNames lists the built-in plans in sorted order.
func BuiltinNames() []string {
	return slices.Sorted(maps.Keys(builtins))
}

func disabled() *bool {
	v := false
	return &v
}

func hresForecast(name string) ForecastSpec {
	return ForecastSpec{
		ID:                    "hres",
		Name:                  name,
		Kind:                  string(domain.KindZarr),
		Source:                domain.HRESSource,
		Variables:             []string{domain.SurfaceAirTemperature},
		VariableMappingPreset: "hres",
		StorageOptions:        map[string]any{"anon": true},
	}
}

func ciraForecast(id, name, source string) ForecastSpec {
	return ForecastSpec{
		ID:                    id,
		Name:                  name,
		Kind:                  string(domain.KindKerchunk),
		Source:                source,
		Variables:             []string{domain.SurfaceAirTemperature},
		VariableMappingPreset: "cira",
		StorageOptions: map[string]any{
			"remote_protocol": "s3",
			"remote_options":  map[string]any{"anon": true},
		},
		Preprocess: domain.PreprocessCIRAForecast,
	}
}

// hresAllEvents scores ECMWF HRES on heat waves and freezes against ERA5 and
// GHCN. Only the freeze/GHCN run is enabled.
func hresAllEvents() File {
	run := func(name, eventType, target string, enabled bool) RunSpec {
		r := RunSpec{
			Name:      name,
			EventType: eventType,
			Forecasts: []string{"hres"},
			Targets:   []string{target},
			Metrics:   slices.Clone(heatFreezeMetrics),
		}
		if !enabled {
			r.Enabled = disabled()
		}
		return r
	}

	return File{
		Name:      "hres-all-events",
		SaveDir:   "saved_data",
		Parallel:  ParallelSpec{Backend: "loky", NJobs: 1},
		Forecasts: []ForecastSpec{hresForecast("HRES")},
		Runs: []RunSpec{
			run("hres_heat_era5", "heat_wave", "era5_heatwave", false),
			run("hres_heat_ghcn", "heat_wave", "ghcn_heatwave", false),
			run("hres_freeze_era5", "freeze", "era5_freeze", false),
			run("hres_freeze_ghcn", "freeze", "ghcn_freeze", true),
		},
	}
}

// heatWaves scores the CIRA AI models and HRES on heat waves against both
// ERA5 and GHCN, one result file per model.
func heatWaves() File {
	run := func(forecast string) RunSpec {
		return RunSpec{
			Name:      forecast + "_heat",
			EventType: "heat_wave",
			Forecasts: []string{forecast},
			Targets:   []string{"era5_heatwave", "ghcn_heatwave"},
			Metrics: []string{
				string(domain.MaximumMeanAbsoluteError),
				string(domain.RootMeanSquaredError),
				string(domain.MeanAbsoluteError),
			},
		}
	}

	return File{
		Name:     "heat-waves",
		SaveDir:  "saved_data",
		Parallel: ParallelSpec{Backend: "loky", NJobs: 2},
		Forecasts: []ForecastSpec{
			ciraForecast("fourcast", "FourCastNet GFS", "gs://extremeweatherbench/FOUR_v200_GFS.parq"),
			ciraForecast("graphcast", "GraphCast GFS", "gs://extremeweatherbench/GRAP_v100_GFS.parq"),
			ciraForecast("pangu", "Pangu GFS", "gs://extremeweatherbench/PANG_v100_GFS.parq"),
			hresForecast("ECMWF HRES"),
		},
		Runs: []RunSpec{
			run("fourcast"),
			run("graphcast"),
			run("pangu"),
			run("hres"),
		},
	}
}
