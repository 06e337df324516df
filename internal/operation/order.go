package operation

import (
	"context"
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/fortest/myorders/internal/dto"
	"github.com/fortest/myorders/internal/models"
	"github.com/fortest/myorders/internal/ordering"
)

// orderError maps orchestrator errors onto HTTP statuses. Anything unknown
// is left to huma, which answers 500.
func orderError(err error) error {
	switch {
	case ordering.IsValidation(err):
		return huma.Error400BadRequest(err.Error())
	case errors.Is(err, ordering.ErrNotFound):
		return huma.Error404NotFound("Order not found")
	}
	return err
}

func toItems(in []dto.OrderItemInput) []ordering.Item {
	items := make([]ordering.Item, 0, len(in))
	for _, it := range in {
		items = append(items, ordering.Item{ProductID: it.ProductID, Quantity: it.Quantity})
	}
	return items
}

func RegisterOrderRoutes(api huma.API, svc *ordering.Service) {
	huma.Register(api, huma.Operation{
		OperationID: "get-orders",
		Summary:     "Get all orders",
		Method:      http.MethodGet,
		Path:        "/orders",
		Tags:        []string{"orders"},
	}, func(ctx context.Context, input *struct{}) (*dto.OrdersOutput, error) {
		orders, err := svc.ListOrders(ctx)
		if err != nil {
			return nil, err
		}
		if orders == nil {
			orders = []models.Order{}
		}
		return &dto.OrdersOutput{Body: orders}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-order",
		Summary:     "Get an order with its items",
		Method:      http.MethodGet,
		Path:        "/orders/{id}",
		Tags:        []string{"orders"},
	}, func(ctx context.Context, input *struct {
		Id uint `path:"id"`
	}) (*dto.OrderOutput, error) {
		order, err := svc.GetOrder(ctx, input.Id)
		if err != nil {
			return nil, orderError(err)
		}
		return &dto.OrderOutput{Body: *order}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "create-order",
		Summary:       "Create an order",
		Description:   "The customer and every product are checked against their services before anything is stored.",
		Method:        http.MethodPost,
		DefaultStatus: http.StatusCreated,
		Path:          "/orders",
		Tags:          []string{"orders"},
	}, func(ctx context.Context, input *dto.OrderCreateInput) (*dto.OrderOutput, error) {
		order, err := svc.CreateOrder(ctx, input.Body.CustomerID, toItems(input.Body.OrderItems))
		if err != nil {
			return nil, orderError(err)
		}
		return &dto.OrderOutput{Body: *order}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "put-order",
		Summary:     "Replace an order and all of its items",
		Method:      http.MethodPut,
		Path:        "/orders/{id}",
		Tags:        []string{"orders"},
	}, func(ctx context.Context, input *struct {
		Id uint `path:"id"`
		dto.OrderCreateInput
	}) (*dto.OrderOutput, error) {
		order, err := svc.UpdateOrder(ctx, input.Id, input.Body.CustomerID, toItems(input.Body.OrderItems))
		if err != nil {
			return nil, orderError(err)
		}
		return &dto.OrderOutput{Body: *order}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "delete-order",
		Summary:       "Delete an order",
		Method:        http.MethodDelete,
		DefaultStatus: http.StatusNoContent,
		Path:          "/orders/{id}",
		Tags:          []string{"orders"},
	}, func(ctx context.Context, input *struct {
		Id uint `path:"id"`
	}) (*struct{}, error) {
		deleted, err := svc.DeleteOrder(ctx, input.Id)
		if err != nil {
			return nil, err
		}
		if !deleted {
			return nil, huma.Error404NotFound("Order not found")
		}
		return &struct{}{}, nil
	})
}
