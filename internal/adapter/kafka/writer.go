package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/hydrophone-sonify/internal/config"
	"github.com/couchcryptid/hydrophone-sonify/internal/domain"
)

// Notifier publishes export events to a Kafka topic.
// It implements pipeline.ExportNotifier.
type Notifier struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewNotifier creates a Kafka producer for the configured export topic.
func NewNotifier(cfg *config.Config, logger *slog.Logger) *Notifier {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaTopic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
		WriteTimeout: 10 * time.Second,
	}
	return &Notifier{writer: w, logger: logger}
}

// NotifyExport publishes one event, keyed by folder so that exports of the
// same folder stay ordered within a partition.
func (n *Notifier) NotifyExport(ctx context.Context, event domain.ExportEvent) error {
	msg, err := serializeToMessage(event)
	if err != nil {
		return err
	}
	if err := n.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish export event: %w", err)
	}
	n.logger.Debug("export event published", "topic", n.writer.Topic, "path", event.Path)
	return nil
}

func (n *Notifier) Close() error {
	return n.writer.Close()
}

// serializeToMessage marshals an ExportEvent into a Kafka message.
func serializeToMessage(event domain.ExportEvent) (kafkago.Message, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize export event: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(event.FolderPart),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "format", Value: []byte(event.Format)},
			{Key: "exported_at", Value: []byte(event.ExportedAt.UTC().Format(time.RFC3339))},
		},
	}, nil
}
