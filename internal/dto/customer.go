package dto

import "github.com/fortest/myorders/internal/models"

type CustomersOutput struct {
	Body []models.Customer
}

type CustomerOutput struct {
	Body models.Customer
}

type CustomerCreateInput struct {
	Body struct {
		FirstName string `json:"firstName"`
		LastName  string `json:"lastName"`
		Email     string `json:"email"`
	}
}
