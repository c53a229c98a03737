package domain

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

// ResultRow is one metric value for one case, task and lead time.
type ResultRow struct {
	CaseID         int       `json:"case_id_number"`
	EventType      EventType `json:"event_type"`
	Metric         Metric    `json:"metric"`
	ForecastSource string    `json:"forecast_source"`
	TargetSource   string    `json:"target_source"`
	TargetVariable string    `json:"target_variable"`
	LeadTimeHours  int       `json:"lead_time_hours"`
	Value          float64   `json:"value"`
}

// ResultTable is the output of one run. The engine decides its rows; this
// package only stamps and stores them.
type ResultTable struct {
	RunID       string      `json:"run_id"`
	RunName     string      `json:"run_name"`
	GeneratedAt time.Time   `json:"generated_at"`
	Rows        []ResultRow `json:"rows"`
}

// NewResultTable stamps rows with the run identity and the current time.
func NewResultTable(runID, runName string, rows []ResultRow) ResultTable {
	if rows == nil {
		rows = []ResultRow{}
	}
	return ResultTable{
		RunID:       runID,
		RunName:     runName,
		GeneratedAt: clock.Now().UTC(),
		Rows:        rows,
	}
}

// Len returns the row count.
func (t ResultTable) Len() int {
	return len(t.Rows)
}

// ResultFileExt is appended to derived result file names.
const ResultFileExt = ".json"

var slugRe = regexp.MustCompile(`[^a-z0-9]+`)

// Slug lowercases s and collapses every other character run to "_".
func Slug(s string) string {
	return strings.Trim(slugRe.ReplaceAllString(strings.ToLower(s), "_"), "_")
}

// ResultFileName derives the file name a run persists to.
func ResultFileName(run Run) string {
	if run.Output != "" {
		return run.Output
	}

	forecasts := run.ForecastIDs()
	if len(forecasts) != 1 {
		return fmt.Sprintf("%s_results%s", Slug(run.Name), ResultFileExt)
	}

	base := fmt.Sprintf("%s_%s", Slug(forecasts[0]), run.EventType.ShortName())
	if kinds := run.TargetKinds(); len(kinds) == 1 {
		base += "_" + Slug(string(kinds[0]))
	}
	return base + "_results" + ResultFileExt
}

// ResultPath is the deterministic location of a run's result file.
func ResultPath(saveDir string, run Run) string {
	return filepath.Join(saveDir, ResultFileName(run))
}
