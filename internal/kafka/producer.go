package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/segmentio/kafka-go"

	"ms-attendance/internal/logger"
	"ms-attendance/internal/models"
)

type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type Producer struct {
	Writer MessageWriter
	Topic  string
	Logger *logger.Logger
}

func NewProducer(brokers []string, topic string, log *logger.Logger) *Producer {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		BatchTimeout: 50 * time.Millisecond,
		RequiredAcks: kafka.RequireOne,
	}
	return &Producer{Writer: writer, Topic: topic, Logger: log}
}

// PublishScan streams a recorded scan to Kafka, keyed by ticket so that
// scans of the same ticket stay ordered within a partition.
func (p *Producer) PublishScan(ctx context.Context, event models.ScanEvent) error {
	msgBytes, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode scan event: %w", err)
	}

	err = p.Writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(strconv.FormatInt(event.TicketID, 10)),
		Value: msgBytes,
	})
	if err != nil {
		p.Logger.LogKafka("PUBLISH_FAILED", p.Topic, fmt.Sprintf("event %s: %v", event.EventID, err))
		return err
	}

	p.Logger.LogKafka("PUBLISHED", p.Topic, fmt.Sprintf("event %s ticket %d %s", event.EventID, event.TicketID, event.Direction))
	return nil
}

func (p *Producer) Close() error {
	return p.Writer.Close()
}
