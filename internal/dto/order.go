package dto

import "github.com/fortest/myorders/internal/models"

type OrdersOutput struct {
	Body []models.Order
}

type OrderOutput struct {
	Body models.Order
}

type OrderItemInput struct {
	ProductID uint    `json:"productId"`
	Quantity  float64 `json:"quantity"`
}

type OrderCreateInput struct {
	Body struct {
		CustomerID uint             `json:"customerId"`
		OrderItems []OrderItemInput `json:"orderItems"`
	}
}
