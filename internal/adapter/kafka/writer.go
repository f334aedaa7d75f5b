package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/river-height-service/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
)

// ReportPublisher produces submitted flood reports to a Kafka topic.
type ReportPublisher struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewReportPublisher creates a Kafka producer for the reports topic.
func NewReportPublisher(brokers []string, topic string, logger *slog.Logger) *ReportPublisher {
	w := &kafkago.Writer{
		Addr:                   kafkago.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafkago.Hash{},
		RequiredAcks:           kafkago.RequireAll,
		AllowAutoTopicCreation: true,
		BatchTimeout:           50 * time.Millisecond,
	}
	return &ReportPublisher{writer: w, logger: logger}
}

// PublishReport writes one report keyed by its ID.
func (p *ReportPublisher) PublishReport(ctx context.Context, report domain.FloodReport) error {
	msg, err := serializeToMessage(report)
	if err != nil {
		return err
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish flood report %s: %w", report.ID, err)
	}
	p.logger.Debug("flood report published", "id", report.ID, "topic", p.writer.Topic)
	return nil
}

func (p *ReportPublisher) Close() error {
	return p.writer.Close()
}

// serializeToMessage marshals a FloodReport into a Kafka message.
func serializeToMessage(report domain.FloodReport) (kafkago.Message, error) {
	data, err := json.Marshal(report)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize flood report: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(report.ID),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "state", Value: []byte(report.State)},
			{Key: "created_at", Value: []byte(report.CreatedAt.Format(time.RFC3339))},
		},
	}, nil
}
