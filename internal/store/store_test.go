package store_test

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/fortest/myorders/internal/models"
	"github.com/fortest/myorders/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	dbMock, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	t.Cleanup(func() { dbMock.Close() })

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn: dbMock,
	}), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open gorm DB: %v", err)
	}

	return gormDB, mock
}

func TestGormCreate(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := store.NewGorm[models.Product](db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "products"`)).
		WithArgs("Widget", "").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	mock.ExpectCommit()

	product := models.Product{Name: "Widget"}
	require.NoError(t, repo.Create(context.Background(), &product))
	assert.Equal(t, uint(1), product.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormList(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := store.NewGorm[models.Customer](db)

	rows := sqlmock.NewRows([]string{"id", "first_name", "last_name", "email"}).
		AddRow(1, "John", "Doe", "john@doe.com").
		AddRow(2, "Alice", "Smith", "alice@smith.com")
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "customers"`)).WillReturnRows(rows)

	customers, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, customers, 2)
	assert.Equal(t, "John", customers[0].FirstName)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormGetNotFound(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := store.NewGorm[models.Customer](db)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "customers" WHERE "customers"."id" = $1`)).
		WithArgs(7, sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := repo.Get(context.Background(), 7)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestGormGetDBError(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := store.NewGorm[models.Customer](db)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "customers"`)).
		WillReturnError(errors.New("db failure"))

	_, err := repo.Get(context.Background(), 1)
	require.Error(t, err)
	assert.NotErrorIs(t, err, store.ErrNotFound)
}

func TestGormDelete(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := store.NewGorm[models.Product](db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "products" WHERE "products"."id" = $1`)).
		WithArgs(1).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "products" WHERE "products"."id" = $1`)).
		WithArgs(1).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	deleted, err := repo.Delete(context.Background(), 1)
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = repo.Delete(context.Background(), 1)
	require.NoError(t, err)
	assert.False(t, deleted)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrdersCreateWritesItems(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := store.NewOrders(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "orders"`)).
		WithArgs(3).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(5))
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "order_items"`)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(10).AddRow(11))
	mock.ExpectCommit()

	order := models.Order{
		CustomerID: 3,
		OrderItems: []models.OrderItem{
			{ProductID: 1, Quantity: 2},
			{ProductID: 2, Quantity: 0.5},
		},
	}
	require.NoError(t, repo.Create(context.Background(), &order))

	assert.Equal(t, uint(5), order.ID)
	assert.Equal(t, uint(10), order.OrderItems[0].ID)
	assert.Equal(t, uint(11), order.OrderItems[1].ID)
	assert.Equal(t, uint(5), order.OrderItems[1].OrderID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrdersGetPreloadsItems(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := store.NewOrders(db)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "orders" WHERE "orders"."id" = $1`)).
		WithArgs(5, sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id", "customer_id"}).AddRow(5, 3))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "order_items" WHERE "order_items"."order_id" = $1`)).
		WithArgs(5).
		WillReturnRows(sqlmock.NewRows([]string{"id", "order_id", "product_id", "quantity"}).
			AddRow(10, 5, 1, 2.0).
			AddRow(11, 5, 2, 0.5))

	order, err := repo.Get(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, uint(3), order.CustomerID)
	require.Len(t, order.OrderItems, 2)
	assert.Equal(t, uint(1), order.OrderItems[0].ProductID)
	assert.InDelta(t, 0.5, order.OrderItems[1].Quantity, 1e-9)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrdersGetNotFound(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := store.NewOrders(db)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "orders"`)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "customer_id"}))

	_, err := repo.Get(context.Background(), 9)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestOrdersSaveReplacesItems(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := store.NewOrders(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "order_items" WHERE order_id = $1`)).
		WithArgs(5).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "orders" SET "customer_id"=$1 WHERE id = $2`)).
		WithArgs(4, 5).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "order_items"`)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(12))
	mock.ExpectCommit()

	order := models.Order{
		ID:         5,
		CustomerID: 4,
		OrderItems: []models.OrderItem{{ID: 10, ProductID: 3, Quantity: 1}},
	}
	require.NoError(t, repo.Save(context.Background(), &order))

	require.Len(t, order.OrderItems, 1)
	assert.Equal(t, uint(12), order.OrderItems[0].ID)
	assert.Equal(t, uint(5), order.OrderItems[0].OrderID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrdersSaveRollsBack(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := store.NewOrders(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "order_items"`)).
		WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	err := repo.Save(context.Background(), &models.Order{ID: 5, CustomerID: 4})
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrdersDeleteCascades(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := store.NewOrders(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "order_items" WHERE order_id = $1`)).
		WithArgs(5).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "orders" WHERE "orders"."id" = $1`)).
		WithArgs(5).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	deleted, err := repo.Delete(context.Background(), 5)
	require.NoError(t, err)
	assert.True(t, deleted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrdersCountByCustomer(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := store.NewOrders(db)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT count(*) FROM "orders" WHERE customer_id = $1`)).
		WithArgs(3).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

	n, err := repo.CountByCustomer(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}
