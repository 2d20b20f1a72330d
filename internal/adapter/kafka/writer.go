package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/couchcryptid/aq-forecast-gateway/internal/config"
	"github.com/couchcryptid/aq-forecast-gateway/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
)

// Writer produces forecast results to a Kafka topic.
// It implements pipeline.ResultPublisher.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured results topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaResultsTopic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, logger: logger}
}

// PublishResults serializes and publishes forecast results in a single
// WriteMessages call. Results for the same site land on the same partition.
func (w *Writer) PublishResults(ctx context.Context, results ...domain.ForecastResult) error {
	if len(results) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(results))
	for i := range results {
		msg, err := serializeToMessage(results[i])
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	if err := w.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("publish forecast results: %w", err)
	}
	w.logger.Debug("forecast results published", "count", len(msgs), "topic", w.writer.Topic)
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals a ForecastResult into a Kafka message keyed by site.
func serializeToMessage(result domain.ForecastResult) (kafkago.Message, error) {
	data, err := json.Marshal(result)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize forecast result: %w", err)
	}
	siteID := strconv.Itoa(result.SiteID)
	return kafkago.Message{
		Key:   []byte(siteID),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "result_id", Value: []byte(result.ID)},
			{Key: "site_id", Value: []byte(siteID)},
			{Key: "source", Value: []byte(result.Source)},
			{Key: "completed_at", Value: []byte(result.CompletedAt.Format(time.RFC3339))},
		},
	}, nil
}
