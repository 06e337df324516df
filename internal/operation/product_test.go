package operation_test

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/danielgtaylor/huma/v2"
	"github.com/fortest/myorders/internal/models"
	"github.com/fortest/myorders/internal/operation"
	"github.com/fortest/myorders/internal/rabbitmq"
	"github.com/fortest/myorders/internal/store"
)

func TestUpdateProductNotFound(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := store.NewGorm[models.Product](db)
	events := &recordedEvents{}

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "products" WHERE "products"."id" = $1`)).
		WithArgs(5, sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := operation.UpdateProduct(context.Background(), repo, events, 5, productInput("Widget", ""))

	var se huma.StatusError
	if !errors.As(err, &se) || se.GetStatus() != 404 {
		t.Fatalf("expected a 404 status error, got %v", err)
	}
	if len(events.types) != 0 {
		t.Errorf("expected no events, got %v", events.types)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled sqlmock expectations: %v", err)
	}
}

func TestUpdateProduct(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := store.NewGorm[models.Product](db)
	events := &recordedEvents{}

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "products" WHERE "products"."id" = $1`)).
		WithArgs(5, sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "description"}).AddRow(5, "Widget", ""))
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "products" SET`)).
		WithArgs("Gadget", "blue", 5).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	resp, err := operation.UpdateProduct(context.Background(), repo, events, 5, productInput("Gadget", "blue"))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if resp.Body.Name != "Gadget" {
		t.Errorf("expected name 'Gadget', got '%s'", resp.Body.Name)
	}
	if len(events.types) != 1 || events.types[0] != rabbitmq.ProductUpdated {
		t.Errorf("expected one product.updated event, got %v", events.types)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled sqlmock expectations: %v", err)
	}
}

func TestCreateProductDBError(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := store.NewGorm[models.Product](db)
	events := &recordedEvents{}

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "products"`)).
		WillReturnError(errors.New("db failure"))
	mock.ExpectRollback()

	if _, err := operation.CreateProduct(context.Background(), repo, events, productInput("Widget", "")); err == nil {
		t.Fatal("expected error, got nil")
	}
	if len(events.types) != 0 {
		t.Errorf("expected no events, got %v", events.types)
	}
}
