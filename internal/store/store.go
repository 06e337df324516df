// Package store is the persistence layer shared by the three services. Each
// service owns its own database; the repositories here only hide gorm.
package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
)

var ErrNotFound = errors.New("record not found")

// Repository is CRUD by primary key plus a full scan.
type Repository[T any] interface {
	Create(ctx context.Context, entity *T) error
	List(ctx context.Context) ([]T, error)
	Get(ctx context.Context, id uint) (*T, error)
	Save(ctx context.Context, entity *T) error
	// Delete reports whether a row was removed.
	Delete(ctx context.Context, id uint) (bool, error)
}

// Gorm implements Repository for a single table.
type Gorm[T any] struct {
	db *gorm.DB
}

func NewGorm[T any](db *gorm.DB) *Gorm[T] {
	return &Gorm[T]{db: db}
}

func (r *Gorm[T]) Create(ctx context.Context, entity *T) error {
	if err := r.db.WithContext(ctx).Create(entity).Error; err != nil {
		return fmt.Errorf("create: %w", err)
	}
	return nil
}

func (r *Gorm[T]) List(ctx context.Context) ([]T, error) {
	var entities []T
	if err := r.db.WithContext(ctx).Find(&entities).Error; err != nil {
		return nil, fmt.Errorf("list: %w", err)
	}
	return entities, nil
}

func (r *Gorm[T]) Get(ctx context.Context, id uint) (*T, error) {
	var entity T
	err := r.db.WithContext(ctx).First(&entity, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get %d: %w", id, err)
	}
	return &entity, nil
}

func (r *Gorm[T]) Save(ctx context.Context, entity *T) error {
	if err := r.db.WithContext(ctx).Save(entity).Error; err != nil {
		return fmt.Errorf("save: %w", err)
	}
	return nil
}

func (r *Gorm[T]) Delete(ctx context.Context, id uint) (bool, error) {
	result := r.db.WithContext(ctx).Delete(new(T), id)
	if result.Error != nil {
		return false, fmt.Errorf("delete %d: %w", id, result.Error)
	}
	return result.RowsAffected > 0, nil
}
