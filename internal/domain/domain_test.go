package domain

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testHRESID = "hres"

func testForecast(t *testing.T) ForecastSource {
	t.Helper()
	mapping, ok := VariableMappingPreset("hres")
	require.True(t, ok)
	f, err := NewForecastSource(ForecastSource{
		ID:              testHRESID,
		Name:            "HRES",
		Kind:            KindZarr,
		Source:          HRESSource,
		Variables:       []string{SurfaceAirTemperature},
		VariableMapping: mapping,
		StorageOptions:  map[string]any{"anon": true},
	})
	require.NoError(t, err)
	return f
}

func testTask(t *testing.T, eventType EventType, targetID string) EvaluationTask {
	t.Helper()
	target, err := LookupTarget(targetID)
	require.NoError(t, err)
	return EvaluationTask{
		EventType: eventType,
		Metrics:   []Metric{RootMeanSquaredError, MaximumMeanAbsoluteError, MeanAbsoluteError},
		Target:    target,
		Forecast:  testForecast(t),
	}
}

func testCases() CaseCollection {
	day := func(m time.Month, d int) time.Time { return time.Date(2021, m, d, 0, 0, 0, 0, time.UTC) }
	return NewCaseCollection([]Case{
		{ID: 1, Title: "Pacific Northwest heat dome", StartDate: day(6, 20), EndDate: day(7, 3), EventType: EventHeatWave},
		{ID: 2, Title: "Texas freeze", StartDate: day(2, 10), EndDate: day(2, 20), EventType: EventFreeze},
		{ID: 3, Title: "European heat wave", StartDate: day(7, 10), EndDate: day(7, 25), EventType: EventHeatWave},
		{ID: 4, Title: "Derecho", StartDate: day(8, 9), EndDate: day(8, 11), EventType: EventSevereConvection},
	})
}

func TestParseEventType(t *testing.T) {
	e, err := ParseEventType(" Heat_Wave ")
	require.NoError(t, err)
	assert.Equal(t, EventHeatWave, e)
	assert.Equal(t, "heat", e.ShortName())
	assert.Equal(t, "freeze", EventFreeze.ShortName())

	_, err = ParseEventType("snow")
	require.ErrorIs(t, err, ErrUnknownEventType)
}

func TestParseMetric(t *testing.T) {
	tests := []struct {
		in   string
		want Metric
	}{
		{"RootMeanSquaredError", RootMeanSquaredError},
		{"rmse", RootMeanSquaredError},
		{"MAE", MeanAbsoluteError},
		{"maximummeanabsoluteerror", MaximumMeanAbsoluteError},
		{"max_mae", MaximumMeanAbsoluteError},
	}
	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			got, err := ParseMetric(tc.in)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
			assert.True(t, got.Recognized())
		})
	}

	_, err := ParseMetric("bias")
	require.ErrorIs(t, err, ErrUnknownMetric)
}

func TestParseMetrics(t *testing.T) {
	got, err := ParseMetrics([]string{"rmse", "max_mae", "mae"})
	require.NoError(t, err)
	assert.Equal(t, []Metric{RootMeanSquaredError, MaximumMeanAbsoluteError, MeanAbsoluteError}, got)

	_, err = ParseMetrics(nil)
	require.ErrorIs(t, err, ErrNoMetrics)

	_, err = ParseMetrics([]string{"rmse", "RootMeanSquaredError"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate")
}

func TestNewForecastSource_Validation(t *testing.T) {
	base := ForecastSource{
		ID:        "graphcast",
		Name:      "GraphCast GFS",
		Kind:      KindKerchunk,
		Source:    "gs://extremeweatherbench/GRAP_v100_GFS.parq",
		Variables: []string{SurfaceAirTemperature},
	}

	_, err := NewForecastSource(base)
	require.NoError(t, err)

	tests := []struct {
		name   string
		mutate func(*ForecastSource)
		want   string
	}{
		{"missing id", func(f *ForecastSource) { f.ID = "" }, "id is required"},
		{"bad kind", func(f *ForecastSource) { f.Kind = "netcdf" }, "unsupported kind"},
		{"empty source", func(f *ForecastSource) { f.Source = "" }, "empty source"},
		{"bad scheme", func(f *ForecastSource) { f.Source = "ftp://host/x" }, "unsupported scheme"},
		{"no variables", func(f *ForecastSource) { f.Variables = nil }, "no variables"},
		{"unknown hook", func(f *ForecastSource) { f.Preprocess = "regrid" }, "preprocess hook"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := base
			tc.mutate(&f)
			_, err := NewForecastSource(f)
			require.ErrorIs(t, err, ErrInvalidSource)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestNewForecastSource_DetachesInput(t *testing.T) {
	opts := map[string]any{"remote_protocol": "s3", "remote_options": map[string]any{"anon": true}}
	vars := []string{SurfaceAirTemperature}
	f, err := NewForecastSource(ForecastSource{
		ID:             "pangu",
		Kind:           KindKerchunk,
		Source:         "gs://extremeweatherbench/PANG_v100_GFS.parq",
		Variables:      vars,
		StorageOptions: opts,
		Preprocess:     PreprocessCIRAForecast,
	})
	require.NoError(t, err)

	vars[0] = "changed"
	opts["remote_options"].(map[string]any)["anon"] = false

	assert.Equal(t, SurfaceAirTemperature, f.Variables[0])
	assert.Equal(t, true, f.StorageOptions["remote_options"].(map[string]any)["anon"])
	assert.Equal(t, "pangu", f.Name, "name defaults to id")
}

func TestLookupTarget(t *testing.T) {
	assert.Equal(t, []string{"era5_freeze", "era5_heatwave", "ghcn_freeze", "ghcn_heatwave"}, TargetIDs())

	target, err := LookupTarget("ghcn_freeze")
	require.NoError(t, err)
	assert.Equal(t, TargetGHCN, target.Kind)
	assert.Equal(t, "GHCN", target.Name)

	target.VariableMapping["temperature"] = "mutated"
	again, err := LookupTarget("ghcn_freeze")
	require.NoError(t, err)
	assert.Equal(t, SurfaceAirTemperature, again.VariableMapping["temperature"])

	_, err = LookupTarget("imerg")
	require.ErrorIs(t, err, ErrUnknownTarget)
}

func TestEvaluationTask_Validate(t *testing.T) {
	task := testTask(t, EventHeatWave, "era5_heatwave")
	require.NoError(t, task.Validate())

	empty := task
	empty.Metrics = nil
	require.ErrorIs(t, empty.Validate(), ErrNoMetrics)

	bogus := task
	bogus.Metrics = []Metric{"Bias"}
	require.ErrorIs(t, bogus.Validate(), ErrUnknownMetric)

	wrongTarget := testTask(t, EventFreeze, "era5_heatwave")
	require.ErrorIs(t, wrongTarget.Validate(), ErrEventTypeMismatch)
}

func TestRun_ValidateEventTypeMatch(t *testing.T) {
	run := Run{
		Name:      "hres_heat",
		EventType: EventHeatWave,
		Tasks: []EvaluationTask{
			testTask(t, EventHeatWave, "era5_heatwave"),
			testTask(t, EventFreeze, "ghcn_freeze"),
		},
		Enabled: true,
	}
	err := run.Validate()
	require.ErrorIs(t, err, ErrEventTypeMismatch)

	run.Tasks = run.Tasks[:1]
	require.NoError(t, run.Validate())

	for _, bad := range []string{"../escape.json", "..", ".", `sub\out.json`} {
		run.Output = bad
		require.Error(t, run.Validate(), bad)
	}
	run.Output = "custom.json"
	require.NoError(t, run.Validate())
}

func TestParallelConfig_Validate(t *testing.T) {
	require.NoError(t, DefaultParallelConfig().Validate())
	require.NoError(t, ParallelConfig{Backend: "loky", NJobs: -1}.Validate())
	require.Error(t, ParallelConfig{Backend: "loky", NJobs: 0}.Validate())
	require.Error(t, ParallelConfig{NJobs: 2}.Validate())
}

func TestCaseCollection_Select(t *testing.T) {
	cases := testCases()

	heat, err := cases.Select("event_type", "heat_wave")
	require.NoError(t, err)
	assert.Equal(t, []int{1, 3}, heat.IDs())
	for _, c := range heat.Cases {
		assert.Equal(t, EventHeatWave, c.EventType)
	}

	freeze := cases.ByEventType(EventFreeze)
	assert.Equal(t, []int{2}, freeze.IDs())

	byID, err := cases.Select("case_id_number", "4")
	require.NoError(t, err)
	assert.Equal(t, "Derecho", byID.Cases[0].Title)

	byTitle, err := cases.Select("title", "Texas freeze")
	require.NoError(t, err)
	assert.Equal(t, 1, byTitle.Len())

	_, err = cases.Select("region", "PNW")
	require.ErrorIs(t, err, ErrUnknownField)

	_, err = cases.Select("case_id_number", "four")
	require.Error(t, err)

	assert.Equal(t, 4, cases.Len(), "select must not modify the receiver")
	assert.Equal(t, map[EventType]int{EventHeatWave: 2, EventFreeze: 1, EventSevereConvection: 1}, cases.CountByEventType())
}

func TestCase_Validate(t *testing.T) {
	c := testCases().Cases[0]
	require.NoError(t, c.Validate())

	reversed := c
	reversed.EndDate = c.StartDate.AddDate(0, 0, -1)
	require.Error(t, reversed.Validate())

	noType := c
	noType.EventType = ""
	require.Error(t, noType.Validate())
}

func TestResultFileName(t *testing.T) {
	era5 := testTask(t, EventHeatWave, "era5_heatwave")
	ghcn := testTask(t, EventHeatWave, "ghcn_heatwave")
	freezeGHCN := testTask(t, EventFreeze, "ghcn_freeze")

	other := testTask(t, EventHeatWave, "era5_heatwave")
	other.Forecast.ID = "FourCastNet GFS"

	tests := []struct {
		name string
		run  Run
		want string
	}{
		{"single target", Run{Name: "x", EventType: EventHeatWave, Tasks: []EvaluationTask{era5}}, "hres_heat_era5_results.json"},
		{"freeze ghcn", Run{Name: "x", EventType: EventFreeze, Tasks: []EvaluationTask{freezeGHCN}}, "hres_freeze_ghcn_results.json"},
		{"two targets", Run{Name: "x", EventType: EventHeatWave, Tasks: []EvaluationTask{era5, ghcn}}, "hres_heat_results.json"},
		{"two forecasts", Run{Name: "All Models", EventType: EventHeatWave, Tasks: []EvaluationTask{era5, other}}, "all_models_results.json"},
		{"override", Run{Name: "x", Output: "custom.json", Tasks: []EvaluationTask{era5}}, "custom.json"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ResultFileName(tc.run))
		})
	}

	run := Run{Name: "x", EventType: EventHeatWave, Tasks: []EvaluationTask{era5}}
	assert.Equal(t, ResultPath("saved_data", run), ResultPath("saved_data", run))
	assert.Equal(t, "saved_data/hres_heat_era5_results.json", ResultPath("saved_data", run))
}

func TestNewResultTable_StampsClock(t *testing.T) {
	fake := clockwork.NewFakeClockAt(time.Date(2025, time.March, 1, 12, 0, 0, 0, time.UTC))
	SetClock(fake)
	t.Cleanup(func() { SetClock(nil) })

	table := NewResultTable("run-1", "hres_freeze_ghcn", nil)
	assert.Equal(t, fake.Now(), table.GeneratedAt)
	assert.Equal(t, 0, table.Len())
	assert.NotNil(t, table.Rows)
}

func TestFingerprint(t *testing.T) {
	cases := testCases().ByEventType(EventHeatWave)
	req := EvaluationRequest{
		RunID:    "a",
		RunName:  "first",
		Cases:    cases,
		Tasks:    []EvaluationTask{testTask(t, EventHeatWave, "era5_heatwave")},
		Parallel: DefaultParallelConfig(),
	}
	same := req
	same.RunID = "b"
	same.RunName = "second"
	assert.Equal(t, Fingerprint(req), Fingerprint(same), "run identity is not part of the fingerprint")

	moreJobs := req
	moreJobs.Parallel.NJobs = 4
	assert.NotEqual(t, Fingerprint(req), Fingerprint(moreJobs))

	otherTarget := req
	otherTarget.Tasks = []EvaluationTask{testTask(t, EventHeatWave, "ghcn_heatwave")}
	assert.NotEqual(t, Fingerprint(req), Fingerprint(otherTarget))
}
