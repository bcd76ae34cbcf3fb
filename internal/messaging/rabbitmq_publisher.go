package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// RabbitMQPublisher publishes generation events to a durable queue through
// the default exchange.
type RabbitMQPublisher struct {
	conn      *amqp091.Connection
	ch        *amqp091.Channel
	queueName string
	logger    *zap.Logger
}

// NewRabbitMQPublisher dials url, opens a channel and declares the queue.
func NewRabbitMQPublisher(url, queueName string, logger *zap.Logger) (*RabbitMQPublisher, error) {
	log := logger.Named("RabbitMQPublisher")

	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to open a channel: %w", err)
	}

	_, err = ch.QueueDeclare(
		queueName, // name
		true,      // durable
		false,     // delete when unused
		false,     // exclusive
		false,     // no-wait
		nil,       // arguments
	)
	if err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("failed to declare queue '%s': %w", queueName, err)
	}
	log.Info("Generation events queue declared", zap.String("queue", queueName))

	return &RabbitMQPublisher{conn: conn, ch: ch, queueName: queueName, logger: log}, nil
}

// PublishGenerationEvent sends one persistent JSON message.
func (p *RabbitMQPublisher) PublishGenerationEvent(ctx context.Context, event GenerationEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal generation event: %w", err)
	}

	err = p.ch.PublishWithContext(ctx,
		"",          // exchange
		p.queueName, // routing key
		false,       // mandatory
		false,       // immediate
		amqp091.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp091.Persistent,
			MessageId:    uuid.NewString(),
			Type:         event.Type,
			Timestamp:    time.Now(),
			Body:         body,
		},
	)
	if err != nil {
		p.logger.Error("Failed to publish generation event",
			zap.Int64("generationId", event.GenerationID), zap.Error(err))
		return fmt.Errorf("failed to publish generation event: %w", err)
	}

	p.logger.Debug("Generation event published", zap.Int64("generationId", event.GenerationID))
	return nil
}

// Close closes the channel and the connection.
func (p *RabbitMQPublisher) Close() error {
	var firstErr error
	if p.ch != nil {
		if err := p.ch.Close(); err != nil {
			firstErr = err
		}
	}
	if p.conn != nil {
		if err := p.conn.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
