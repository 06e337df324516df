// Package ordering owns the Order aggregate. Every write first confirms, over
// the network, that the referenced customer and products exist; nothing is
// persisted unless all checks pass.
package ordering

import (
	"context"
	"errors"
	"fmt"

	"github.com/fortest/myorders/internal/models"
	"github.com/fortest/myorders/internal/rabbitmq"
	"github.com/fortest/myorders/internal/remote"
	"github.com/fortest/myorders/internal/store"
	"go.uber.org/zap"
)

// Publisher emits order lifecycle notifications after successful writes.
type Publisher interface {
	Publish(ctx context.Context, eventType rabbitmq.EventType, payload any) error
}

// Endpoints are the base URLs existence checks are issued against.
type Endpoints struct {
	Customers string
	Products  string
}

type Item struct {
	ProductID uint
	Quantity  float64
}

type Service struct {
	orders    store.OrderRepository
	checker   remote.ExistenceChecker
	endpoints Endpoints
	events    Publisher
	logger    *zap.Logger
}

// NewService wires the orchestrator. events may be nil.
func NewService(orders store.OrderRepository, checker remote.ExistenceChecker, endpoints Endpoints, events Publisher, logger *zap.Logger) *Service {
	return &Service{
		orders:    orders,
		checker:   checker,
		endpoints: endpoints,
		events:    events,
		logger:    logger,
	}
}

// CreateOrder checks the customer, then every product in submitted order,
// stopping at the first miss. Only then is the aggregate written.
func (s *Service) CreateOrder(ctx context.Context, customerID uint, items []Item) (*models.Order, error) {
	if err := s.checkCustomer(ctx, customerID); err != nil {
		return nil, err
	}

	order := &models.Order{
		CustomerID: customerID,
		OrderItems: buildItems(items),
	}

	if err := s.checkProducts(ctx, order.OrderItems); err != nil {
		return nil, err
	}

	if err := s.orders.Create(ctx, order); err != nil {
		return nil, fmt.Errorf("persist order: %w", err)
	}

	s.logger.Info("order created",
		zap.Uint("order_id", order.ID),
		zap.Uint("customer_id", customerID),
		zap.Int("items", len(order.OrderItems)),
	)
	s.publish(ctx, rabbitmq.OrderCreated, order)
	return order, nil
}

// UpdateOrder replaces the customer and the whole item set of an existing
// order. A missing order is reported before any remote check runs.
func (s *Service) UpdateOrder(ctx context.Context, id, customerID uint, items []Item) (*models.Order, error) {
	order, err := s.orders.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.checkCustomer(ctx, customerID); err != nil {
		return nil, err
	}

	replacement := buildItems(items)
	if err := s.checkProducts(ctx, replacement); err != nil {
		return nil, err
	}

	order.CustomerID = customerID
	order.OrderItems = replacement
	order.Attach()

	if err := s.orders.Save(ctx, order); err != nil {
		return nil, fmt.Errorf("persist order %d: %w", id, err)
	}

	s.logger.Info("order updated",
		zap.Uint("order_id", order.ID),
		zap.Uint("customer_id", customerID),
		zap.Int("items", len(order.OrderItems)),
	)
	s.publish(ctx, rabbitmq.OrderUpdated, order)
	return order, nil
}

func (s *Service) GetOrder(ctx context.Context, id uint) (*models.Order, error) {
	return s.orders.Get(ctx, id)
}

func (s *Service) ListOrders(ctx context.Context) ([]models.Order, error) {
	return s.orders.List(ctx)
}

// DeleteOrder never fails for a missing id; deleted tells the caller whether
// anything was there.
func (s *Service) DeleteOrder(ctx context.Context, id uint) (deleted bool, err error) {
	deleted, err = s.orders.Delete(ctx, id)
	if err != nil {
		return false, err
	}
	if deleted {
		s.publish(ctx, rabbitmq.OrderDeleted, &models.Order{ID: id})
	}
	return deleted, nil
}

func (s *Service) checkCustomer(ctx context.Context, customerID uint) error {
	if !s.checker.Exists(ctx, s.endpoints.Customers, customerID) {
		s.logger.Info("order rejected: unknown customer", zap.Uint("customer_id", customerID))
		return &ValidationError{Entity: "customer", ID: customerID}
	}
	return nil
}

func (s *Service) checkProducts(ctx context.Context, items []models.OrderItem) error {
	for _, item := range items {
		if !s.checker.Exists(ctx, s.endpoints.Products, item.ProductID) {
			s.logger.Info("order rejected: unknown product", zap.Uint("product_id", item.ProductID))
			return &ValidationError{Entity: "product", ID: item.ProductID}
		}
	}
	return nil
}

// buildItems keeps the submitted order; duplicates are kept as-is.
func buildItems(items []Item) []models.OrderItem {
	built := make([]models.OrderItem, 0, len(items))
	for _, it := range items {
		built = append(built, models.OrderItem{
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
		})
	}
	return built
}

func (s *Service) publish(ctx context.Context, eventType rabbitmq.EventType, order *models.Order) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, eventType, order); err != nil {
		s.logger.Warn("failed to publish order event",
			zap.String("type", string(eventType)),
			zap.Uint("order_id", order.ID),
			zap.Error(err),
		)
	}
}

// IsValidation reports whether err is a rejected reference.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}
