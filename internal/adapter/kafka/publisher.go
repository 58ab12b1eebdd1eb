// Package kafka publishes completed analysis reports to a Kafka topic so
// downstream consumers can archive or alert on exceedances.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/sabateri/water-quality/internal/pipeline"
	kafkago "github.com/segmentio/kafka-go"
)

// Publisher produces analysis reports to a Kafka topic.
// It implements pipeline.ReportSink.
type Publisher struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewPublisher creates a Kafka producer for the report topic.
func NewPublisher(brokers []string, topic string, logger *slog.Logger) *Publisher {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Publisher{writer: w, logger: logger}
}

// Publish serializes the report and writes it to the report topic. The
// message is keyed by country and postal code so repeated analyses for the
// same location land on the same partition.
func (p *Publisher) Publish(ctx context.Context, report *pipeline.Report) error {
	msg, err := serializeToMessage(report)
	if err != nil {
		return err
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("write report message: %w", err)
	}
	p.logger.Debug("published analysis report",
		"country", report.CountryCode,
		"postal_code", report.PostalCode,
	)
	return nil
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}

// serializeToMessage marshals a report into a Kafka message.
func serializeToMessage(report *pipeline.Report) (kafkago.Message, error) {
	data, err := json.Marshal(report)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize report: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(report.CountryCode + "/" + report.PostalCode),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "water_body", Value: []byte(report.Station.WaterBody)},
			{Key: "generated_at", Value: []byte(report.GeneratedAt.Format(time.RFC3339))},
		},
	}, nil
}
