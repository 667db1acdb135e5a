package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/segmentio/kafka-go"

	"ms-attendance/internal/logger"
	"ms-attendance/internal/models"
)

type MessageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

// TicketPlacer stores tickets received from the import topic.
type TicketPlacer interface {
	PlaceTicket(ctx context.Context, reg models.TicketRegistration) (*models.Ticket, error)
}

type Consumer struct {
	Reader MessageReader
	Topic  string
	Logger *logger.Logger
}

// NewConsumer creates a new Kafka consumer for the given topic and group
func NewConsumer(brokers []string, topic, groupID string, log *logger.Logger) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  groupID,
		MinBytes: 1,
		MaxBytes: 10e6, // 10MB
	})
	return &Consumer{Reader: reader, Topic: topic, Logger: log}
}

// Start reads ticket registrations until ctx is cancelled. Messages that
// cannot be decoded or stored are logged and skipped.
func (c *Consumer) Start(ctx context.Context, placer TicketPlacer) error {
	c.Logger.LogKafka("CONSUMER_STARTED", c.Topic, "waiting for ticket imports")

	for {
		msg, err := c.Reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				c.Logger.LogKafka("CONSUMER_STOPPED", c.Topic, "context cancelled")
				return nil
			}
			c.Logger.LogKafka("READ_FAILED", c.Topic, err.Error())
			return fmt.Errorf("failed to read from %s: %w", c.Topic, err)
		}

		c.HandleMessage(ctx, msg, placer)
	}
}

func (c *Consumer) HandleMessage(ctx context.Context, msg kafka.Message, placer TicketPlacer) {
	var reg models.TicketRegistration
	if err := json.Unmarshal(msg.Value, &reg); err != nil {
		c.Logger.LogKafka("SKIPPED", c.Topic, fmt.Sprintf("offset %d: malformed message: %v", msg.Offset, err))
		return
	}

	ticket, err := placer.PlaceTicket(ctx, reg)
	if err != nil {
		c.Logger.LogKafka("SKIPPED", c.Topic, fmt.Sprintf("offset %d: %v", msg.Offset, err))
		return
	}

	c.Logger.LogKafka("IMPORTED", c.Topic, fmt.Sprintf("ticket %d barcode %s", ticket.ID, ticket.Barcode))
}

// Close gracefully shuts down the Kafka reader
func (c *Consumer) Close() error {
	return c.Reader.Close()
}
