package rabbitmq

import (
	"context"
	"fmt"
	"strings"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

type Handler func(ctx context.Context, body []byte) error

// EventRouter dispatches deliveries to handlers registered by topic pattern.
type EventRouter struct {
	patterns []string
	handlers map[string]Handler
}

func NewEventRouter() *EventRouter {
	return &EventRouter{handlers: make(map[string]Handler)}
}

func (r *EventRouter) RegisterHandler(pattern string, h Handler) {
	if _, ok := r.handlers[pattern]; !ok {
		r.patterns = append(r.patterns, pattern)
	}
	r.handlers[pattern] = h
}

func (r *EventRouter) Patterns() []string {
	return r.patterns
}

// Dispatch runs every handler whose pattern matches the routing key and
// returns the first error.
func (r *EventRouter) Dispatch(ctx context.Context, routingKey string, body []byte) error {
	var firstErr error
	for _, p := range r.patterns {
		if !matchTopic(p, routingKey) {
			continue
		}
		if err := r.handlers[p](ctx, body); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("%s: %w", p, err)
		}
	}
	return firstErr
}

// matchTopic follows AMQP topic rules: '*' is exactly one word, '#' is zero
// or more words.
func matchTopic(pattern, key string) bool {
	return matchWords(strings.Split(pattern, "."), strings.Split(key, "."))
}

func matchWords(pattern, key []string) bool {
	if len(pattern) == 0 {
		return len(key) == 0
	}
	switch pattern[0] {
	case "#":
		for i := 0; i <= len(key); i++ {
			if matchWords(pattern[1:], key[i:]) {
				return true
			}
		}
		return false
	case "*":
		return len(key) > 0 && matchWords(pattern[1:], key[1:])
	default:
		return len(key) > 0 && pattern[0] == key[0] && matchWords(pattern[1:], key[1:])
	}
}

// StartListening binds a durable queue to every pattern of the router and
// consumes it until ctx is done. Failed deliveries are rejected without
// requeue.
func StartListening(ctx context.Context, ch *amqp.Channel, exchange, queue string, router *EventRouter, logger *zap.Logger) error {
	q, err := ch.QueueDeclare(queue, true, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("declare queue %q: %w", queue, err)
	}

	for _, p := range router.Patterns() {
		if err := ch.QueueBind(q.Name, p, exchange, false, nil); err != nil {
			return fmt.Errorf("bind %q to %q: %w", q.Name, p, err)
		}
	}

	deliveries, err := ch.Consume(q.Name, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("consume %q: %w", q.Name, err)
	}

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case d, ok := <-deliveries:
				if !ok {
					logger.Warn("delivery channel closed", zap.String("queue", q.Name))
					return
				}
				if err := router.Dispatch(ctx, d.RoutingKey, d.Body); err != nil {
					logger.Error("event handling failed", zap.String("routing_key", d.RoutingKey), zap.Error(err))
					_ = d.Nack(false, false)
					continue
				}
				_ = d.Ack(false)
			}
		}
	}()

	logger.Info("listening for events", zap.String("queue", q.Name), zap.Strings("patterns", router.Patterns()))
	return nil
}
