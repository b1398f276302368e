// Package kafka publishes incidents to a Kafka topic so downstream consumers
// can follow the dataset without polling the JSON file.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/i79-incident-etl/internal/config"
	"github.com/couchcryptid/i79-incident-etl/internal/domain"
)

// Writer produces one message per incident to the sink topic.
// It implements pipeline.Loader.
type Writer struct {
	writer messageWriter
	logger *slog.Logger
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// NewWriter creates a Kafka producer for the configured sink topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaSinkTopic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, logger: logger}
}

// Name identifies the loader in logs and metrics.
func (w *Writer) Name() string { return "kafka" }

// LoadDataset publishes every incident in a single WriteMessages call. Keys
// are incident IDs, so successive runs land the same incident on the same
// partition.
func (w *Writer) LoadDataset(ctx context.Context, ds domain.Dataset) error {
	if len(ds.Incidents) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(ds.Incidents))
	for i := range ds.Incidents {
		msg, err := serializeToMessage(ds.Incidents[i], ds.Summary.GeneratedAt)
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	if err := w.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("publish incidents: %w", err)
	}
	w.logger.Debug("incidents published", "count", len(msgs))
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals an Incident into a Kafka message.
func serializeToMessage(inc domain.Incident, generatedAt string) (kafkago.Message, error) {
	data, err := json.Marshal(inc)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize incident: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(inc.ID),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "source_type", Value: []byte(inc.SourceType)},
			{Key: "generated_at", Value: []byte(generatedAt)},
		},
	}, nil
}
