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
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Publisher emits lifecycle events. Publish errors never fail a request.
type Publisher interface {
	Publish(ctx context.Context, eventType rabbitmq.EventType, payload any) error
}

func publish(ctx context.Context, events Publisher, eventType rabbitmq.EventType, payload any) {
	if events == nil {
		return
	}
	_ = events.Publish(ctx, eventType, payload) // the publisher logs its own failures
}

func titleCase(s string) string {
	return cases.Title(language.English).String(s)
}

// ----------------------
// Customer CRUD
// ----------------------

func GetCustomers(ctx context.Context, repo store.Repository[models.Customer]) (*dto.CustomersOutput, error) {
	customers, err := repo.List(ctx)
	if err != nil {
		return nil, err
	}
	if customers == nil {
		customers = []models.Customer{}
	}
	return &dto.CustomersOutput{Body: customers}, nil
}

func GetCustomer(ctx context.Context, repo store.Repository[models.Customer], id uint) (*dto.CustomerOutput, error) {
	customer, err := repo.Get(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, huma.Error404NotFound("Customer not found")
	}
	if err != nil {
		return nil, err
	}
	return &dto.CustomerOutput{Body: *customer}, nil
}

func CreateCustomer(ctx context.Context, repo store.Repository[models.Customer], events Publisher, input *dto.CustomerCreateInput) (*dto.CustomerOutput, error) {
	customer := models.Customer{
		FirstName: titleCase(input.Body.FirstName),
		LastName:  titleCase(input.Body.LastName),
		Email:     input.Body.Email,
	}

	if err := repo.Create(ctx, &customer); err != nil {
		return nil, err
	}

	publish(ctx, events, rabbitmq.CustomerCreated, customer)
	return &dto.CustomerOutput{Body: customer}, nil
}

// UpdateCustomer replaces a customer. An unknown id is not an error: a new
// customer is created with a generated id.
func UpdateCustomer(ctx context.Context, repo store.Repository[models.Customer], events Publisher, id uint, input *dto.CustomerCreateInput) (*dto.CustomerOutput, error) {
	customer, err := repo.Get(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return CreateCustomer(ctx, repo, events, input)
	}
	if err != nil {
		return nil, err
	}

	customer.FirstName = titleCase(input.Body.FirstName)
	customer.LastName = titleCase(input.Body.LastName)
	customer.Email = input.Body.Email

	if err := repo.Save(ctx, customer); err != nil {
		return nil, err
	}

	publish(ctx, events, rabbitmq.CustomerUpdated, customer)
	return &dto.CustomerOutput{Body: *customer}, nil
}

// DeleteCustomer succeeds whether or not the customer existed.
func DeleteCustomer(ctx context.Context, repo store.Repository[models.Customer], events Publisher, id uint) error {
	deleted, err := repo.Delete(ctx, id)
	if err != nil {
		return err
	}
	if deleted {
		publish(ctx, events, rabbitmq.CustomerDeleted, models.Customer{ID: id})
	}
	return nil
}

// ----------------------
// Register routes with Huma
// ----------------------
func RegisterCustomerRoutes(api huma.API, repo store.Repository[models.Customer], events Publisher) {
	huma.Register(api, huma.Operation{
		OperationID: "get-customers",
		Summary:     "Get all customers",
		Method:      http.MethodGet,
		Path:        "/customers",
		Tags:        []string{"customers"},
	}, func(ctx context.Context, input *struct{}) (*dto.CustomersOutput, error) {
		return GetCustomers(ctx, repo)
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-customer",
		Summary:     "Get a customer",
		Method:      http.MethodGet,
		Path:        "/customers/{id}",
		Tags:        []string{"customers"},
	}, func(ctx context.Context, input *struct {
		Id uint `path:"id"`
	}) (*dto.CustomerOutput, error) {
		return GetCustomer(ctx, repo, input.Id)
	})

	huma.Register(api, huma.Operation{
		OperationID:   "create-customer",
		Summary:       "Create a customer",
		Method:        http.MethodPost,
		DefaultStatus: http.StatusCreated,
		Path:          "/customers",
		Tags:          []string{"customers"},
	}, func(ctx context.Context, input *dto.CustomerCreateInput) (*dto.CustomerOutput, error) {
		return CreateCustomer(ctx, repo, events, input)
	})

	huma.Register(api, huma.Operation{
		OperationID: "put-customer",
		Summary:     "Replace a customer, creating it when absent",
		Method:      http.MethodPut,
		Path:        "/customers/{id}",
		Tags:        []string{"customers"},
	}, func(ctx context.Context, input *struct {
		Id uint `path:"id"`
		dto.CustomerCreateInput
	}) (*dto.CustomerOutput, error) {
		return UpdateCustomer(ctx, repo, events, input.Id, &input.CustomerCreateInput)
	})

	huma.Register(api, huma.Operation{
		OperationID:   "delete-customer",
		Summary:       "Delete a customer",
		Method:        http.MethodDelete,
		DefaultStatus: http.StatusNoContent,
		Path:          "/customers/{id}",
		Tags:          []string{"customers"},
	}, func(ctx context.Context, input *struct {
		Id uint `path:"id"`
	}) (*struct{}, error) {
		if err := DeleteCustomer(ctx, repo, events, input.Id); err != nil {
			return nil, err
		}
		return &struct{}{}, nil
	})
}
