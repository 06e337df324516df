package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"
)

// ReferenceCounter is implemented by the order store.
type ReferenceCounter interface {
	CountByCustomer(ctx context.Context, customerID uint) (int64, error)
	CountByProduct(ctx context.Context, productID uint) (int64, error)
}

type entityRef struct {
	ID uint `json:"id"`
}

func decodeRef(body []byte) (Event, entityRef, error) {
	var event Event
	if err := json.Unmarshal(body, &event); err != nil {
		return event, entityRef{}, fmt.Errorf("unmarshal event: %w", err)
	}
	var ref entityRef
	if err := json.Unmarshal(event.Data, &ref); err != nil {
		return event, entityRef{}, fmt.Errorf("unmarshal %s payload: %w", event.Type, err)
	}
	return event, ref, nil
}

// SetupOrderEventHandlers makes deletions of referenced customers and products
// visible in the order service. Orders are left untouched: references are
// only checked when an order is written.
func SetupOrderEventHandlers(orders ReferenceCounter, logger *zap.Logger) *EventRouter {
	router := NewEventRouter()

	router.RegisterHandler(string(CustomerDeleted), func(ctx context.Context, body []byte) error {
		event, ref, err := decodeRef(body)
		if err != nil {
			return err
		}

		n, err := orders.CountByCustomer(ctx, ref.ID)
		if err != nil {
			return err
		}
		if n > 0 {
			logger.Warn("deleted customer is still referenced by orders",
				zap.String("event_id", event.ID),
				zap.Uint("customer_id", ref.ID),
				zap.Int64("orders", n),
			)
		}
		return nil
	})

	router.RegisterHandler(string(ProductDeleted), func(ctx context.Context, body []byte) error {
		event, ref, err := decodeRef(body)
		if err != nil {
			return err
		}

		n, err := orders.CountByProduct(ctx, ref.ID)
		if err != nil {
			return err
		}
		if n > 0 {
			logger.Warn("deleted product is still referenced by orders",
				zap.String("event_id", event.ID),
				zap.Uint("product_id", ref.ID),
				zap.Int64("orders", n),
			)
		}
		return nil
	})

	return router
}
