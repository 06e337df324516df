package dto

import "github.com/fortest/myorders/internal/models"

type ProductsOutput struct {
	Body []models.Product
}

type ProductOutput struct {
	Body models.Product
}

type ProductCreateInput struct {
	Body struct {
		Name        string `json:"name"`
		Description string `json:"description,omitempty" required:"false"`
	}
}
