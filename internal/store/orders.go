package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/fortest/myorders/internal/models"
	"gorm.io/gorm"
)

// OrderRepository stores the Order aggregate. Items are always loaded with
// their order and Save replaces the whole item set.
type OrderRepository interface {
	Repository[models.Order]
	CountByCustomer(ctx context.Context, customerID uint) (int64, error)
	CountByProduct(ctx context.Context, productID uint) (int64, error)
}

type Orders struct {
	*Gorm[models.Order]
}

func NewOrders(db *gorm.DB) *Orders {
	return &Orders{Gorm: NewGorm[models.Order](db)}
}

func preloadItems(db *gorm.DB) *gorm.DB {
	return db.Order("order_items.id")
}

func (r *Orders) List(ctx context.Context) ([]models.Order, error) {
	var orders []models.Order
	err := r.db.WithContext(ctx).Preload("OrderItems", preloadItems).Order("id").Find(&orders).Error
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return orders, nil
}

func (r *Orders) Get(ctx context.Context, id uint) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).Preload("OrderItems", preloadItems).First(&order, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get order %d: %w", id, err)
	}
	return &order, nil
}

// Save rewrites the order row and replaces its items in one transaction.
func (r *Orders) Save(ctx context.Context, order *models.Order) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("order_id = ?", order.ID).Delete(&models.OrderItem{}).Error; err != nil {
			return fmt.Errorf("drop items of order %d: %w", order.ID, err)
		}

		if err := tx.Model(&models.Order{}).Where("id = ?", order.ID).
			Update("customer_id", order.CustomerID).Error; err != nil {
			return fmt.Errorf("update order %d: %w", order.ID, err)
		}

		if len(order.OrderItems) == 0 {
			return nil
		}

		for i := range order.OrderItems {
			order.OrderItems[i].ID = 0
		}
		order.Attach()

		if err := tx.Create(&order.OrderItems).Error; err != nil {
			return fmt.Errorf("insert items of order %d: %w", order.ID, err)
		}
		return nil
	})
}

// Delete removes the order and the items it owns.
func (r *Orders) Delete(ctx context.Context, id uint) (bool, error) {
	var deleted bool
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("order_id = ?", id).Delete(&models.OrderItem{}).Error; err != nil {
			return fmt.Errorf("drop items of order %d: %w", id, err)
		}

		result := tx.Delete(&models.Order{}, id)
		if result.Error != nil {
			return fmt.Errorf("delete order %d: %w", id, result.Error)
		}
		deleted = result.RowsAffected > 0
		return nil
	})
	return deleted, err
}

func (r *Orders) CountByCustomer(ctx context.Context, customerID uint) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Order{}).Where("customer_id = ?", customerID).Count(&n).Error
	if err != nil {
		return 0, fmt.Errorf("count orders of customer %d: %w", customerID, err)
	}
	return n, nil
}

func (r *Orders) CountByProduct(ctx context.Context, productID uint) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.OrderItem{}).Where("product_id = ?", productID).
		Distinct("order_id").Count(&n).Error
	if err != nil {
		return 0, fmt.Errorf("count orders of product %d: %w", productID, err)
	}
	return n, nil
}
