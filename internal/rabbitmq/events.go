package rabbitmq

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

type EventType string

const (
	CustomerCreated EventType = "customer.created"
	CustomerUpdated EventType = "customer.updated"
	CustomerDeleted EventType = "customer.deleted"
	ProductCreated  EventType = "product.created"
	ProductUpdated  EventType = "product.updated"
	ProductDeleted  EventType = "product.deleted"
	OrderCreated    EventType = "order.created"
	OrderUpdated    EventType = "order.updated"
	OrderDeleted    EventType = "order.deleted"
)

// Event is the envelope of every message on the events exchange.
type Event struct {
	ID        string          `json:"id"`
	Type      EventType       `json:"type"`
	Data      json.RawMessage `json:"data"`
	Timestamp time.Time       `json:"timestamp"`
}

// Channel is the part of *amqp.Channel the publisher needs.
type Channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

type Publisher struct {
	ch       Channel
	exchange string
	logger   *zap.Logger
}

func NewPublisher(ch Channel, exchange string, logger *zap.Logger) *Publisher {
	return &Publisher{ch: ch, exchange: exchange, logger: logger}
}

// Publish sends payload as an event, routed by its type. A nil publisher is a
// no-op so services can run without a broker.
func (p *Publisher) Publish(ctx context.Context, eventType EventType, payload any) error {
	if p == nil || p.ch == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	event := Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Data:      data,
		Timestamp: time.Now().UTC(),
	}

	body, err := json.Marshal(event)
	if err != nil {
		return err
	}

	err = p.ch.PublishWithContext(
		ctx,
		p.exchange,
		string(eventType),
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType: "application/json",
			MessageId:   event.ID,
			Timestamp:   event.Timestamp,
			Body:        body,
		},
	)
	if err != nil {
		p.logger.Error("error publishing event", zap.String("type", string(eventType)), zap.Error(err))
		return err
	}

	p.logger.Debug("published event", zap.String("type", string(eventType)), zap.String("id", event.ID))
	return nil
}
