// Package kafka publishes persisted result rows to a Kafka topic.
package kafka

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/bytedance/sonic"
	"github.com/couchcryptid/forecast-eval-runner/internal/config"
	"github.com/couchcryptid/forecast-eval-runner/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
)

// messageWriter is the subset of *kafkago.Writer the publisher needs.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Publisher produces one message per result row to the results topic.
// It implements runner.Loader.
type Publisher struct {
	writer messageWriter
	logger *slog.Logger
}

// NewPublisher creates a Kafka producer for the configured results topic.
func NewPublisher(cfg *config.Config, logger *slog.Logger) *Publisher {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaResultsTopic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Publisher{writer: w, logger: logger}
}

// resultMessage is the value of each published message.
type resultMessage struct {
	RunID   string `json:"run_id"`
	RunName string `json:"run_name"`
	domain.ResultRow
}

// Load publishes every row of table in a single WriteMessages call. Rows are
// keyed by run id so one run's rows land on one partition in order.
func (p *Publisher) Load(ctx context.Context, run domain.Run, table domain.ResultTable) error {
	if table.Len() == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, table.Len())
	for i := range table.Rows {
		msg, err := serializeToMessage(run, table, table.Rows[i])
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	if err := p.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("publish results: %w", err)
	}
	p.logger.Info("result rows published", "run", run.Name, "rows", len(msgs))
	return nil
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}

// serializeToMessage marshals a result row into a Kafka message.
func serializeToMessage(run domain.Run, table domain.ResultTable, row domain.ResultRow) (kafkago.Message, error) {
	data, err := sonic.Marshal(resultMessage{RunID: table.RunID, RunName: table.RunName, ResultRow: row})
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize result row: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(table.RunID),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "run_name", Value: []byte(run.Name)},
			{Key: "event_type", Value: []byte(run.EventType)},
			{Key: "generated_at", Value: []byte(table.GeneratedAt.Format(time.RFC3339))},
		},
	}, nil
}
