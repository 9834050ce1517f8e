package mq

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// Publisher handles event publishing to RabbitMQ
type Publisher struct {
	conn     *Connection
	channel  *amqp.Channel
	exchange string
	logger   *zap.Logger
}

// NewPublisher creates a new RabbitMQ publisher
func NewPublisher(conn *Connection, exchange string, logger *zap.Logger) (*Publisher, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("failed to create channel: %w", err)
	}

	// Declare exchange
	err = ch.ExchangeDeclare(
		exchange,
		"topic",
		true,  // durable
		false, // auto-deleted
		false, // internal
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		ch.Close()
		return nil, fmt.Errorf("failed to declare exchange: %w", err)
	}

	return &Publisher{
		conn:     conn,
		channel:  ch,
		exchange: exchange,
		logger:   logger,
	}, nil
}

// ReadingAcceptedEvent is published after a reading has been persisted
type ReadingAcceptedEvent struct {
	ReadingID     string  `json:"reading_id"`
	SensorID      string  `json:"sensor_id"`
	PhLevel       float64 `json:"ph_level"`
	TdsLevel      float64 `json:"tds_level"`
	Turbidity     float64 `json:"turbidity"`
	QualityStatus string  `json:"quality_status"`
	CreatedAt     string  `json:"created_at"`
}

// AlertRaisedEvent is published when a threshold or anomaly alert fires
type AlertRaisedEvent struct {
	AlertID   string `json:"alert_id"`
	SensorID  string `json:"sensor_id"`
	AlertType string `json:"alert_type"`
	Severity  string `json:"severity"`
	Message   string `json:"message"`
	ReadingID string `json:"reading_id,omitempty"`
	CreatedAt string `json:"created_at"`
}

// PublishReadingAccepted publishes a reading accepted event
func (p *Publisher) PublishReadingAccepted(ctx context.Context, event ReadingAcceptedEvent, routingKey string) error {
	if err := p.publish(ctx, routingKey, event); err != nil {
		return err
	}

	p.logger.Debug("published reading accepted event",
		zap.String("routing_key", routingKey),
		zap.String("sensor_id", event.SensorID),
		zap.String("reading_id", event.ReadingID),
	)

	return nil
}

// PublishAlertRaised publishes an alert raised event
func (p *Publisher) PublishAlertRaised(ctx context.Context, event AlertRaisedEvent, routingKey string) error {
	if err := p.publish(ctx, routingKey, event); err != nil {
		return err
	}

	p.logger.Debug("published alert raised event",
		zap.String("routing_key", routingKey),
		zap.String("sensor_id", event.SensorID),
		zap.String("alert_type", event.AlertType),
	)

	return nil
}

func (p *Publisher) publish(ctx context.Context, routingKey string, event interface{}) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	err = p.channel.PublishWithContext(
		ctx,
		p.exchange,
		routingKey,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	return nil
}

// Close closes the publisher channel
func (p *Publisher) Close() error {
	if p.channel != nil {
		return p.channel.Close()
	}
	return nil
}
