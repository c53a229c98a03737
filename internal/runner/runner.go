// Package runner executes compiled evaluation runs: select the cases for each
// run's event type, hand them to the engine, and persist the result table.
package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/forecast-eval-runner/internal/domain"
	"github.com/couchcryptid/forecast-eval-runner/internal/observability"
	"github.com/google/uuid"
)

// Loader persists one run's result table. The result file store is always a
// loader; the Kafka publisher is an optional second one.
type Loader interface {
	Load(ctx context.Context, run domain.Run, table domain.ResultTable) error
}

// Outcome reports what happened to one run.
type Outcome struct {
	Run     domain.Run
	RunID   string
	Cases   int
	Rows    int
	Skipped bool
}

// Progress is a point-in-time view of an Execute call, served on /progress.
type Progress struct {
	Total     int    `json:"total"`
	Completed int    `json:"completed"`
	Skipped   int    `json:"skipped"`
	Failed    int    `json:"failed"`
	Current   string `json:"current,omitempty"`
	Done      bool   `json:"done"`
}

// Runner evaluates runs one after another.
type Runner struct {
	evaluator domain.Evaluator
	loaders   []Loader
	logger    *slog.Logger
	metrics   *observability.Metrics
	ready     atomic.Bool
	newID     func() string

	mu       sync.Mutex
	progress Progress
}

// New creates a Runner. Loaders are called in order for every run.
func New(evaluator domain.Evaluator, loaders []Loader, logger *slog.Logger, metrics *observability.Metrics) *Runner {
	return &Runner{
		evaluator: evaluator,
		loaders:   loaders,
		logger:    logger,
		metrics:   metrics,
		newID:     uuid.NewString,
	}
}

// MarkReady flags the runner as ready once its plan and cases are loaded.
func (r *Runner) MarkReady() {
	r.ready.Store(true)
}

// CheckReadiness returns nil once the runner has a plan to execute.
func (r *Runner) CheckReadiness(_ context.Context) error {
	if !r.ready.Load() {
		return errors.New("runner has not loaded a plan yet")
	}
	return nil
}

// Progress returns a copy of the current progress.
func (r *Runner) Progress() Progress {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.progress
}

func (r *Runner) track(update func(p *Progress)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	update(&r.progress)
}

// Execute runs every run in order against the case collection. It stops at
// the first failing run and returns the outcomes of the runs before it.
// Disabled runs are skipped.
func (r *Runner) Execute(ctx context.Context, cases domain.CaseCollection, runs []domain.Run, parallel domain.ParallelConfig) ([]Outcome, error) {
	if err := parallel.Validate(); err != nil {
		return nil, err
	}

	r.metrics.RunnerActive.Set(1)
	defer r.metrics.RunnerActive.Set(0)
	r.track(func(p *Progress) { *p = Progress{Total: len(runs)} })
	defer r.track(func(p *Progress) { p.Current = ""; p.Done = true })

	r.logger.Info("runner started", "runs", len(runs), "cases", cases.Len(),
		"backend", parallel.Backend, "n_jobs", parallel.NJobs)

	outcomes := make([]Outcome, 0, len(runs))
	for _, run := range runs {
		if err := ctx.Err(); err != nil {
			r.logger.Info("runner stopping", "reason", err)
			return outcomes, err
		}

		if !run.Enabled {
			r.logger.Info("run disabled, skipping", "run", run.Name)
			r.metrics.RunsSkipped.Inc()
			r.track(func(p *Progress) { p.Skipped++ })
			outcomes = append(outcomes, Outcome{Run: run, Skipped: true})
			continue
		}

		r.track(func(p *Progress) { p.Current = run.Name })
		out, err := r.executeRun(ctx, cases, run, parallel)
		if err != nil {
			r.metrics.RunsFailed.Inc()
			r.track(func(p *Progress) { p.Failed++ })
			r.logger.Error("run failed", "run", run.Name, "run_id", out.RunID, "error", err)
			return outcomes, fmt.Errorf("run %s: %w", run.Name, err)
		}
		r.track(func(p *Progress) { p.Completed++ })
		outcomes = append(outcomes, out)
	}

	r.logger.Info("runner finished", "runs", len(outcomes))
	return outcomes, nil
}

func (r *Runner) executeRun(ctx context.Context, cases domain.CaseCollection, run domain.Run, parallel domain.ParallelConfig) (Outcome, error) {
	out := Outcome{Run: run, RunID: r.newID()}
	if err := run.Validate(); err != nil {
		return out, err
	}

	start := time.Now()
	subset := cases.ByEventType(run.EventType)
	out.Cases = subset.Len()
	r.metrics.CasesSelected.WithLabelValues(string(run.EventType)).Set(float64(subset.Len()))
	r.metrics.RunsStarted.Inc()

	var rows []domain.ResultRow
	if subset.Len() == 0 {
		r.logger.Warn("no cases for event type, writing empty result", "run", run.Name, "event_type", run.EventType)
	} else {
		r.logger.Info("run started", "run", run.Name, "run_id", out.RunID,
			"event_type", run.EventType, "cases", subset.Len(), "tasks", len(run.Tasks))

		var err error
		rows, err = r.evaluator.Evaluate(ctx, domain.EvaluationRequest{
			RunID:    out.RunID,
			RunName:  run.Name,
			Cases:    subset,
			Tasks:    run.Tasks,
			Parallel: parallel,
		})
		if err != nil {
			return out, fmt.Errorf("evaluate: %w", err)
		}
	}

	table := domain.NewResultTable(out.RunID, run.Name, rows)
	for _, l := range r.loaders {
		if err := l.Load(ctx, run, table); err != nil {
			return out, fmt.Errorf("persist: %w", err)
		}
	}

	out.Rows = table.Len()
	r.metrics.ResultRows.Add(float64(table.Len()))
	r.metrics.RunsCompleted.Inc()
	r.metrics.RunDuration.Observe(time.Since(start).Seconds())
	r.logger.Info("run completed", "run", run.Name, "run_id", out.RunID,
		"rows", table.Len(), "duration", time.Since(start))
	return out, nil
}
