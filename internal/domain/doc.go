// Package domain models forecast evaluation plans for extreme-weather case
// studies.
//
// # Vocabulary
//
// A forecast source is a remote model-output dataset (a Zarr store or a
// Kerchunk reference archive) plus the metadata an evaluation engine needs to
// read it: which variables to extract, how to rename the source's native
// variable names to canonical ones, storage options, and an optional named
// preprocessing hook.
//
// A target is the ground truth a forecast is scored against: gridded
// reanalysis (ERA5) or station observations (GHCN).
//
// An evaluation task pairs an event type, a metric list, a target and a
// forecast source. A run groups the tasks that share one event type and
// therefore one filtered case subset; it is the unit handed to the engine and
// the unit persisted as one result file.
//
// # Case Collection
//
// Cases are historical extreme-weather events loaded from an events YAML file:
//
//	cases:
//	  - case_id_number: 1
//	    title: Pacific Northwest heat dome
//	    start_date: 2021-06-20 00:00:00
//	    end_date: 2021-07-03 00:00:00
//	    location:
//	      type: centered_region
//	      parameters:
//	        latitude: 47.6
//	        longitude: 237.7
//	        bounding_box_degrees: 5
//	    event_type: heat_wave
//
// A collection is filtered with a single attribute selector
// ([CaseCollection.Select]); runs always use the subset whose event_type
// equals the run's event type.
//
// # Metrics
//
// Metrics are stateless selectors; the engine owns the math. Recognized
// selectors:
//
//	RootMeanSquaredError      rmse
//	MeanAbsoluteError         mae
//	MaximumMeanAbsoluteError  max_mae
//
// # Result Files
//
// Each run's result table lands at a deterministic path under the save
// directory, see [ResultPath]:
//
//	one forecast, one target:   <forecast>_<event>_<target>_results.json
//	one forecast, many targets: <forecast>_<event>_results.json
//	several forecasts:          <run>_results.json
//
// where <event> is the short event name ("heat" for heat_wave).
package domain
