package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os/signal"
	"slices"
	"strconv"
	"syscall"

	"github.com/couchcryptid/forecast-eval-runner/internal/adapter/engine"
	"github.com/couchcryptid/forecast-eval-runner/internal/adapter/httpadapter"
	kafkaadapter "github.com/couchcryptid/forecast-eval-runner/internal/adapter/kafka"
	"github.com/couchcryptid/forecast-eval-runner/internal/adapter/resultfile"
	"github.com/couchcryptid/forecast-eval-runner/internal/config"
	"github.com/couchcryptid/forecast-eval-runner/internal/domain"
	"github.com/couchcryptid/forecast-eval-runner/internal/observability"
	"github.com/couchcryptid/forecast-eval-runner/internal/runner"
	"github.com/spf13/cobra"
)

func newRunCmd(o *options) *cobra.Command {
	var (
		only    []string
		saveDir string
	)
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Execute the plan's enabled runs against the engine",
		Long: `Execute every enabled run of the plan in order. Each run's cases are the
events of its event type; its result table is written to the save directory,
replacing the file of a previous execution. The first failing run stops the
plan.

Runs named with --run are executed even when the plan disables them.`,
		Example: `  $ evalrunner run --builtin heat-waves --events events.yaml
  $ evalrunner run --plan plan.yaml --run hres_freeze_ghcn --save-dir /tmp/results`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return o.run(cmd.Context(), cmd.OutOrStdout(), only, saveDir)
		},
	}
	cmd.Flags().StringSliceVar(&only, "run", nil, "execute only the named runs (repeatable)")
	cmd.Flags().StringVar(&saveDir, "save-dir", "", "directory for result files (overrides the plan's save_dir)")
	return cmd
}

func (o *options) run(ctx context.Context, out io.Writer, only []string, saveDir string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	compiled, err := o.loadPlan()
	if err != nil {
		return err
	}
	if saveDir != "" {
		compiled.SaveDir = saveDir
	}
	runs, err := selectRuns(compiled.Runs, only)
	if err != nil {
		return err
	}
	cases, err := loadCases(compiled.EventsFile)
	if err != nil {
		return err
	}

	client := engine.NewClient(cfg.EngineURL, cfg.EngineToken, cfg.EngineTimeout, metrics, logger)
	evaluator := engine.NewCachedEvaluator(client, cfg.EngineCacheSize, metrics)
	logger.Info("evaluation engine configured", "url", cfg.EngineURL, "timeout", cfg.EngineTimeout, "cache_size", cfg.EngineCacheSize)

	store := resultfile.NewStore(compiled.SaveDir, logger)
	loaders := []runner.Loader{store}
	var publisher *kafkaadapter.Publisher
	if cfg.KafkaEnabled {
		publisher = kafkaadapter.NewPublisher(cfg, logger)
		loaders = append(loaders, publisher)
		logger.Info("kafka publishing enabled", "topic", cfg.KafkaResultsTopic, "brokers", cfg.KafkaBrokers)
	}

	r := runner.New(evaluator, loaders, logger, metrics)
	srv := httpadapter.NewServer(cfg.HTTPAddr, r, logger)

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	logger.Info("plan loaded", "plan", compiled.Name, "runs", len(runs), "cases", cases.Len(), "save_dir", compiled.SaveDir)
	r.MarkReady()
	outcomes, runErr := r.Execute(ctx, cases, runs, compiled.Parallel)
	if err := printOutcomes(out, outcomes, store); err != nil {
		logger.Error("print outcomes", "error", err)
	}

	shutdown(cfg, logger, srv, publisher)
	return runErr
}

func shutdown(cfg *config.Config, logger *slog.Logger, srv *httpadapter.Server, publisher *kafkaadapter.Publisher) {
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if publisher != nil {
		if err := publisher.Close(); err != nil {
			logger.Error("kafka publisher close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}

// selectRuns keeps the named runs in plan order and enables them. An empty
// filter keeps all runs as the plan has them.
func selectRuns(runs []domain.Run, only []string) ([]domain.Run, error) {
	if len(only) == 0 {
		return runs, nil
	}
	known := make(map[string]bool, len(runs))
	for _, r := range runs {
		known[r.Name] = true
	}
	for _, name := range only {
		if !known[name] {
			return nil, fmt.Errorf("unknown run %q", name)
		}
	}
	var out []domain.Run
	for _, r := range runs {
		if slices.Contains(only, r.Name) {
			r.Enabled = true
			out = append(out, r)
		}
	}
	return out, nil
}

func printOutcomes(out io.Writer, outcomes []runner.Outcome, store *resultfile.Store) error {
	rows := make([][]string, 0, len(outcomes))
	for _, oc := range outcomes {
		if oc.Skipped {
			rows = append(rows, []string{oc.Run.Name, "skipped", "-", "-", "-"})
			continue
		}
		rows = append(rows, []string{
			oc.Run.Name, "done", strconv.Itoa(oc.Cases), strconv.Itoa(oc.Rows), store.Path(oc.Run),
		})
	}
	return printTable(out, []string{"RUN", "STATUS", "CASES", "ROWS", "FILE"}, rows)
}
