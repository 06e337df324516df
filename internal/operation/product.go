package operation

import (
	"context"
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/fortest/myorders/internal/dto"
	"github.com/fortest/myorders/internal/models"
	"github.com/fortest/myorders/internal/rabbitmq"
	"github.com/fortest/myorders/internal/store"
)

func GetProducts(ctx context.Context, repo store.Repository[models.Product]) (*dto.ProductsOutput, error) {
	products, err := repo.List(ctx)
	if err != nil {
		return nil, err
	}
	if products == nil {
		products = []models.Product{}
	}
	return &dto.ProductsOutput{Body: products}, nil
}

func GetProduct(ctx context.Context, repo store.Repository[models.Product], id uint) (*dto.ProductOutput, error) {
	product, err := repo.Get(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, huma.Error404NotFound("Product not found")
	}
	if err != nil {
		return nil, err
	}
	return &dto.ProductOutput{Body: *product}, nil
}

func CreateProduct(ctx context.Context, repo store.Repository[models.Product], events Publisher, input *dto.ProductCreateInput) (*dto.ProductOutput, error) {
	product := models.Product{
		Name:        input.Body.Name,
		Description: input.Body.Description,
	}

	if err := repo.Create(ctx, &product); err != nil {
		return nil, err
	}

	publish(ctx, events, rabbitmq.ProductCreated, product)
	return &dto.ProductOutput{Body: product}, nil
}

// UpdateProduct replaces an existing product. Unlike customers, an unknown
// id is reported as not found.
func UpdateProduct(ctx context.Context, repo store.Repository[models.Product], events Publisher, id uint, input *dto.ProductCreateInput) (*dto.ProductOutput, error) {
	product, err := repo.Get(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, huma.Error404NotFound("Product not found")
	}
	if err != nil {
		return nil, err
	}

	product.Name = input.Body.Name
	product.Description = input.Body.Description

	if err := repo.Save(ctx, product); err != nil {
		return nil, err
	}

	publish(ctx, events, rabbitmq.ProductUpdated, product)
	return &dto.ProductOutput{Body: *product}, nil
}

func DeleteProduct(ctx context.Context, repo store.Repository[models.Product], events Publisher, id uint) error {
	deleted, err := repo.Delete(ctx, id)
	if err != nil {
		return err
	}
	if deleted {
		publish(ctx, events, rabbitmq.ProductDeleted, models.Product{ID: id})
	}
	return nil
}

func RegisterProductRoutes(api huma.API, repo store.Repository[models.Product], events Publisher) {
	huma.Register(api, huma.Operation{
		OperationID: "get-products",
		Summary:     "Get all products",
		Method:      http.MethodGet,
		Path:        "/products",
		Tags:        []string{"products"},
	}, func(ctx context.Context, input *struct{}) (*dto.ProductsOutput, error) {
		return GetProducts(ctx, repo)
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-product",
		Summary:     "Get a product",
		Method:      http.MethodGet,
		Path:        "/products/{id}",
		Tags:        []string{"products"},
	}, func(ctx context.Context, input *struct {
		Id uint `path:"id"`
	}) (*dto.ProductOutput, error) {
		return GetProduct(ctx, repo, input.Id)
	})

	huma.Register(api, huma.Operation{
		OperationID:   "create-product",
		Summary:       "Create a product",
		Method:        http.MethodPost,
		DefaultStatus: http.StatusCreated,
		Path:          "/products",
		Tags:          []string{"products"},
	}, func(ctx context.Context, input *dto.ProductCreateInput) (*dto.ProductOutput, error) {
		return CreateProduct(ctx, repo, events, input)
	})

	huma.Register(api, huma.Operation{
		OperationID: "put-product",
		Summary:     "Replace a product",
		Method:      http.MethodPut,
		Path:        "/products/{id}",
		Tags:        []string{"products"},
	}, func(ctx context.Context, input *struct {
		Id uint `path:"id"`
		dto.ProductCreateInput
	}) (*dto.ProductOutput, error) {
		return UpdateProduct(ctx, repo, events, input.Id, &input.ProductCreateInput)
	})

	huma.Register(api, huma.Operation{
		OperationID:   "delete-product",
		Summary:       "Delete a product",
		Method:        http.MethodDelete,
		DefaultStatus: http.StatusNoContent,
		Path:          "/products/{id}",
		Tags:          []string{"products"},
	}, func(ctx context.Context, input *struct {
		Id uint `path:"id"`
	}) (*struct{}, error) {
		if err := DeleteProduct(ctx, repo, events, input.Id); err != nil {
			return nil, err
		}
		return &struct{}{}, nil
	})
}
