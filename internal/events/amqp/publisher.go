package amqp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/SscSPs/currency_baskets/internal/core/domain"
	"github.com/SscSPs/currency_baskets/internal/core/ports/publishers"
	"github.com/SscSPs/currency_baskets/internal/middleware"
	"github.com/rabbitmq/amqp091-go"
)

const (
	publishTimeout = 5 * time.Second

	// RateRevaluedType is the AMQP message type of rate revalued events.
	RateRevaluedType = "rate.revalued"
)

// channel is the part of *amqp091.Channel the publisher needs.
type channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp091.Publishing) error
	Close() error
}

// Publisher sends rate events to a durable topic exchange.
type Publisher struct {
	conn         *amqp091.Connection
	mu           sync.Mutex // serializes publishes on the channel
	channel      channel
	exchangeName string
	routingKey   string
}

var _ publishers.RateEventPublisher = (*Publisher)(nil)

// NewPublisher dials url and declares the exchange events are published to.
func NewPublisher(url, exchangeName, routingKey string) (*Publisher, error) {
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial AMQP: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	err = ch.ExchangeDeclare(
		exchangeName, // name
		"topic",      // type
		true,         // durable
		false,        // auto-deleted
		false,        // internal
		false,        // no-wait
		nil,          // arguments
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("declare exchange: %w", err)
	}

	return &Publisher{
		conn:         conn,
		channel:      ch,
		exchangeName: exchangeName,
		routingKey:   routingKey,
	}, nil
}

// newPublisherWithChannel builds a publisher over an already open channel.
func newPublisherWithChannel(ch channel, exchangeName, routingKey string) *Publisher {
	return &Publisher{channel: ch, exchangeName: exchangeName, routingKey: routingKey}
}

// PublishRateRevalued publishes event as a persistent JSON message.
func (p *Publisher) PublishRateRevalued(ctx context.Context, event domain.RateRevaluedEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	msg := amqp091.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp091.Persistent,
		Type:         RateRevaluedType,
		MessageId:    event.RateID,
		Timestamp:    event.OccurredAt,
		Body:         body,
	}
	if requestID, ok := middleware.GetRequestIDFromCtx(ctx); ok {
		msg.CorrelationId = requestID
	}

	p.mu.Lock()
	err = p.channel.PublishWithContext(ctx, p.exchangeName, p.routingKey, false, false, msg)
	p.mu.Unlock()
	if err != nil {
		return fmt.Errorf("publish message: %w", err)
	}

	middleware.GetLoggerFromCtx(ctx).Debug("Published rate revalued message",
		slog.String("rate_id", event.RateID),
		slog.String("exchange", p.exchangeName),
		slog.String("routing_key", p.routingKey))
	return nil
}

// Close closes the channel and the connection.
func (p *Publisher) Close() error {
	if p.channel != nil {
		p.channel.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}
