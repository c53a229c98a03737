package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
)

// EvaluationTask is one "score this forecast against this target for this
// event type using these metrics" request.
type EvaluationTask struct {
	EventType EventType      `json:"event_type"`
	Metrics   []Metric       `json:"metric_list"`
	Target    Target         `json:"target"`
	Forecast  ForecastSource `json:"forecast"`
}

// Validate checks the event type and the metric list.
func (t EvaluationTask) Validate() error {
	if !t.EventType.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownEventType, t.EventType)
	}
	if len(t.Metrics) == 0 {
		return ErrNoMetrics
	}
	for _, m := range t.Metrics {
		if !m.Recognized() {
			return fmt.Errorf("%w: %q", ErrUnknownMetric, m)
		}
	}
	if t.Forecast.ID == "" {
		return fmt.Errorf("%w: task has no forecast", ErrInvalidSource)
	}
	if t.Target.ID == "" {
		return fmt.Errorf("%w: task has no target", ErrUnknownTarget)
	}
	if t.Target.EventType != "" && t.Target.EventType != t.EventType {
		return fmt.Errorf("%w: target %s is for %s, task is %s", ErrEventTypeMismatch, t.Target.ID, t.Target.EventType, t.EventType)
	}
	return nil
}

// ParallelConfig is forwarded untouched to the engine, which owns worker
// dispatch.
type ParallelConfig struct {
	Backend string `json:"backend"`
	NJobs   int    `json:"n_jobs"`
}

// DefaultParallelConfig runs the engine with a single loky worker.
func DefaultParallelConfig() ParallelConfig {
	return ParallelConfig{Backend: "loky", NJobs: 1}
}

// Validate requires a backend name and a positive worker count; -1 asks the
// engine for one worker per core.
func (p ParallelConfig) Validate() error {
	if p.Backend == "" {
		return errors.New("parallel backend is required")
	}
	if p.NJobs == 0 || p.NJobs < -1 {
		return fmt.Errorf("invalid n_jobs %d", p.NJobs)
	}
	return nil
}

// Run is the unit of execution: the tasks evaluated against one filtered
// case subset and persisted as one result file.
type Run struct {
	Name      string           `json:"name"`
	EventType EventType        `json:"event_type"`
	Tasks     []EvaluationTask `json:"tasks"`
	Output    string           `json:"output,omitempty"`
	Enabled   bool             `json:"enabled"`
}

// Validate checks every task and that all of them share the run's event
// type, so the run's case filter matches each task.
func (r Run) Validate() error {
	if r.Name == "" {
		return errors.New("run name is required")
	}
	if !r.EventType.Valid() {
		return fmt.Errorf("run %s: %w: %q", r.Name, ErrUnknownEventType, r.EventType)
	}
	if len(r.Tasks) == 0 {
		return fmt.Errorf("run %s: no evaluation tasks", r.Name)
	}
	for i, t := range r.Tasks {
		if t.EventType != r.EventType {
			return fmt.Errorf("run %s: task %d: %w (%s != %s)", r.Name, i, ErrEventTypeMismatch, t.EventType, r.EventType)
		}
		if err := t.Validate(); err != nil {
			return fmt.Errorf("run %s: task %d: %w", r.Name, i, err)
		}
	}
	if r.Output != "" && !isFileName(r.Output) {
		return fmt.Errorf("run %s: output %q must be a file name", r.Name, r.Output)
	}
	return nil
}

// isFileName reports whether name stays inside the directory it is joined to.
func isFileName(name string) bool {
	if name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return false
	}
	return filepath.Base(name) == name
}

// ForecastIDs returns the distinct forecast IDs in task order.
func (r Run) ForecastIDs() []string {
	var ids []string
	seen := map[string]bool{}
	for _, t := range r.Tasks {
		if !seen[t.Forecast.ID] {
			seen[t.Forecast.ID] = true
			ids = append(ids, t.Forecast.ID)
		}
	}
	return ids
}

// TargetKinds returns the distinct target kinds in task order.
func (r Run) TargetKinds() []TargetKind {
	var kinds []TargetKind
	seen := map[TargetKind]bool{}
	for _, t := range r.Tasks {
		if !seen[t.Target.Kind] {
			seen[t.Target.Kind] = true
			kinds = append(kinds, t.Target.Kind)
		}
	}
	return kinds
}

// Fingerprint is a deterministic digest of everything that determines an
// engine result. Run name and run id are not part of it.
func Fingerprint(req EvaluationRequest) string {
	var b strings.Builder
	fmt.Fprintf(&b, "parallel=%s/%d|", req.Parallel.Backend, req.Parallel.NJobs)

	ids := req.Cases.IDs()
	sort.Ints(ids)
	fmt.Fprintf(&b, "cases=%v|", ids)

	for _, t := range req.Tasks {
		fmt.Fprintf(&b, "task=%s;%v;%s@%s;%s@%s;%v;%s|",
			t.EventType, t.Metrics,
			t.Target.ID, t.Target.Source,
			t.Forecast.ID, t.Forecast.Source,
			t.Forecast.Variables, t.Forecast.Preprocess)
		writeSortedMap(&b, t.Forecast.VariableMapping)
	}

	hash := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(hash[:16])
}

func writeSortedMap(b *strings.Builder, m map[string]string) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(b, "%s=%s,", k, m[k])
	}
}
