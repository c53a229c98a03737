package domain

import (
	"fmt"
	"maps"
	"slices"
)

const (
	// SurfaceAirTemperature is the canonical 2 m temperature variable name.
	SurfaceAirTemperature = "surface_air_temperature"

	// HRESSource is the WeatherBench2 ECMWF HRES archive.
	HRESSource = "gs://weatherbench2/datasets/hres/2016-2022-0012-1440x721.zarr"

	era5Source = "gs://gcp-public-data-arco-era5/ar/full_37-1h-0p25deg-chunk-1.zarr-v3"
	ghcnSource = "gs://extremeweatherbench/datasets/ghcnh.parq"
)

// variableMappingPresets holds the native-to-canonical renames shipped with
// the engine.
var variableMappingPresets = map[string]map[string]string{
	"hres": {
		"2m_temperature":          SurfaceAirTemperature,
		"10m_u_component_of_wind": "surface_eastward_wind",
		"10m_v_component_of_wind": "surface_northward_wind",
		"mean_sea_level_pressure": "air_pressure_at_mean_sea_level",
		"temperature":             "air_temperature",
		"geopotential":            "geopotential",
		"specific_humidity":       "specific_humidity",
		"u_component_of_wind":     "eastward_wind",
		"v_component_of_wind":     "northward_wind",
		"prediction_timedelta":    "lead_time",
		"time":                    "init_time",
	},
	"cira": {
		"t2":  SurfaceAirTemperature,
		"u10": "surface_eastward_wind",
		"v10": "surface_northward_wind",
		"msl": "air_pressure_at_mean_sea_level",
	},
}

// VariableMappingPreset returns a copy of a named mapping ("hres", "cira").
func VariableMappingPreset(name string) (map[string]string, bool) {
	m, ok := variableMappingPresets[name]
	if !ok {
		return nil, false
	}
	return maps.Clone(m), true
}

var era5Mapping = map[string]string{
	"2m_temperature": SurfaceAirTemperature,
	"time":           "valid_time",
}

var ghcnMapping = map[string]string{
	"temperature": SurfaceAirTemperature,
	"time":        "valid_time",
}

var targets = map[string]Target{
	"era5_heatwave": {
		ID:              "era5_heatwave",
		Name:            "ERA5",
		Kind:            TargetERA5,
		EventType:       EventHeatWave,
		Source:          era5Source,
		Variables:       []string{SurfaceAirTemperature},
		VariableMapping: era5Mapping,
		StorageOptions:  map[string]any{"token": "anon"},
	},
	"ghcn_heatwave": {
		ID:              "ghcn_heatwave",
		Name:            "GHCN",
		Kind:            TargetGHCN,
		EventType:       EventHeatWave,
		Source:          ghcnSource,
		Variables:       []string{SurfaceAirTemperature},
		VariableMapping: ghcnMapping,
		StorageOptions:  map[string]any{"token": "anon"},
	},
	"era5_freeze": {
		ID:              "era5_freeze",
		Name:            "ERA5",
		Kind:            TargetERA5,
		EventType:       EventFreeze,
		Source:          era5Source,
		Variables:       []string{SurfaceAirTemperature},
		VariableMapping: era5Mapping,
		StorageOptions:  map[string]any{"token": "anon"},
	},
	"ghcn_freeze": {
		ID:              "ghcn_freeze",
		Name:            "GHCN",
		Kind:            TargetGHCN,
		EventType:       EventFreeze,
		Source:          ghcnSource,
		Variables:       []string{SurfaceAirTemperature},
		VariableMapping: ghcnMapping,
		StorageOptions:  map[string]any{"token": "anon"},
	},
}

// LookupTarget returns a copy of a built-in target by ID.
func LookupTarget(id string) (Target, error) {
	t, ok := targets[id]
	if !ok {
		return Target{}, fmt.Errorf("%w: %q", ErrUnknownTarget, id)
	}
	return t.clone(), nil
}

// TargetIDs lists the built-in target IDs in sorted order.
func TargetIDs() []string {
	return slices.Sorted(maps.Keys(targets))
}
