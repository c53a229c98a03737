//go:build integration

package integration_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/couchcryptid/forecast-eval-runner/internal/adapter/kafka"
	"github.com/couchcryptid/forecast-eval-runner/internal/adapter/resultfile"
	"github.com/couchcryptid/forecast-eval-runner/internal/config"
	"github.com/couchcryptid/forecast-eval-runner/internal/domain"
	"github.com/couchcryptid/forecast-eval-runner/internal/observability"
	"github.com/couchcryptid/forecast-eval-runner/internal/plan"
	"github.com/couchcryptid/forecast-eval-runner/internal/runner"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testResultsTopic = "test-results"

// publishedRow holds a deserialized message read from the results topic.
type publishedRow struct {
	RunID   string `json:"run_id"`
	RunName string `json:"run_name"`
	domain.ResultRow
	Key     string            `json:"-"`
	Headers map[string]string `json:"-"`
}

func readPublished(ctx context.Context, t *testing.T, consumer *kafkago.Reader) publishedRow {
	t.Helper()
	readCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	msg, err := consumer.ReadMessage(readCtx)
	require.NoError(t, err, "read from results topic")

	var row publishedRow
	require.NoError(t, json.Unmarshal(msg.Value, &row), "unmarshal result message")
	row.Key = string(msg.Key)
	row.Headers = make(map[string]string, len(msg.Headers))
	for _, h := range msg.Headers {
		row.Headers[h.Key] = string(h.Value)
	}
	return row
}

// fixedEvaluator answers every request with one row per case.
type fixedEvaluator struct{}

func (fixedEvaluator) Evaluate(_ context.Context, req domain.EvaluationRequest) ([]domain.ResultRow, error) {
	rows := make([]domain.ResultRow, 0, req.Cases.Len())
	for _, c := range req.Cases.Cases {
		rows = append(rows, domain.ResultRow{
			CaseID:         c.ID,
			EventType:      c.EventType,
			Metric:         req.Tasks[0].Metrics[0],
			ForecastSource: req.Tasks[0].Forecast.Name,
			TargetSource:   req.Tasks[0].Target.Name,
			LeadTimeHours:  24,
			Value:          3.25,
		})
	}
	return rows, nil
}

// TestRunnerPublishesAndSaves runs the enabled run of the hres-all-events plan
// with the result file store and the Kafka publisher as loaders.
func TestRunnerPublishesAndSaves(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testResultsTopic)

	cfg := &config.Config{
		KafkaBrokers:      []string{broker},
		KafkaResultsTopic: testResultsTopic,
		KafkaEnabled:      true,
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	f, _ := plan.Builtin("hres-all-events")
	compiled, err := plan.Compile(&f)
	require.NoError(t, err)

	day := func(d int) time.Time { return time.Date(2021, time.February, d, 0, 0, 0, 0, time.UTC) }
	cases := domain.NewCaseCollection([]domain.Case{
		{ID: 2, Title: "Winter Storm Uri", StartDate: day(10), EndDate: day(20), EventType: domain.EventFreeze},
		{ID: 9, Title: "Late freeze", StartDate: day(22), EndDate: day(26), EventType: domain.EventFreeze},
	})

	store := resultfile.NewStore(filepath.Join(t.TempDir(), "saved_data"), logger)
	publisher := kafka.NewPublisher(cfg, logger)
	defer publisher.Close()

	r := runner.New(fixedEvaluator{}, []runner.Loader{store, publisher}, logger, observability.NewMetricsForTesting())
	outcomes, err := r.Execute(ctx, cases, compiled.Runs, compiled.Parallel)
	require.NoError(t, err)
	require.Len(t, outcomes, 4)

	var done runner.Outcome
	for _, oc := range outcomes {
		if !oc.Skipped {
			done = oc
		}
	}
	require.Equal(t, "hres_freeze_ghcn", done.Run.Name)

	saved, err := resultfile.Read(store.Path(done.Run))
	require.NoError(t, err)
	assert.Equal(t, 2, saved.Len())

	consumer := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     []string{broker},
		Topic:       testResultsTopic,
		StartOffset: kafkago.FirstOffset,
		MaxWait:     500 * time.Millisecond,
	})
	defer consumer.Close()

	for _, wantCase := range []int{2, 9} {
		got := readPublished(ctx, t, consumer)
		assert.Equal(t, done.RunID, got.Key)
		assert.Equal(t, done.RunID, got.RunID)
		assert.Equal(t, "hres_freeze_ghcn", got.RunName)
		assert.Equal(t, wantCase, got.CaseID)
		assert.Equal(t, domain.EventFreeze, got.EventType)
		assert.Equal(t, "GHCN", got.TargetSource)
		assert.Equal(t, "hres_freeze_ghcn", got.Headers["run_name"])
		assert.Equal(t, "freeze", got.Headers["event_type"])
		assert.Equal(t, saved.GeneratedAt.Format(time.RFC3339), got.Headers["generated_at"])
	}
}
