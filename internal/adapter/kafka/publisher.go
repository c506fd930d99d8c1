package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/transit-ranking-etl/internal/config"
	"github.com/couchcryptid/transit-ranking-etl/internal/pipeline"
)

// messageWriter is the subset of *kafkago.Writer the publisher needs.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Publisher produces one message per completed run to the report topic.
// It implements pipeline.Publisher.
type Publisher struct {
	writer messageWriter
}

// NewPublisher creates a Kafka producer for the configured report topic.
func NewPublisher(cfg *config.Config) *Publisher {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaReportTopic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Publisher{writer: w}
}

func (p *Publisher) Name() string { return "kafka" }

// Publish serializes the run's report. Runs without a report are skipped.
func (p *Publisher) Publish(ctx context.Context, run pipeline.Run) error {
	if run.Report == nil {
		return nil
	}
	msg, err := serializeToMessage(run)
	if err != nil {
		return err
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("write report message: %w", err)
	}
	return nil
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}

// serializeToMessage marshals a run into a Kafka message keyed by the run's
// calendar date, so every report for one day lands on the same partition.
func serializeToMessage(run pipeline.Run) (kafkago.Message, error) {
	data, err := json.Marshal(run)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize run: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(run.StartedAt.Format(time.DateOnly)),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "run_id", Value: []byte(run.ID)},
			{Key: "generated_at", Value: []byte(run.StartedAt.Format(time.RFC3339))},
		},
	}, nil
}
