package postgres

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/bulkbazaar/wholesaleapi/internal/domain"
	"github.com/bulkbazaar/wholesaleapi/pkg/errors"
)

func orderFixture(retailerID uuid.UUID) *domain.Order {
	return &domain.Order{
		RetailerID:    retailerID,
		Status:        domain.OrderStatusPending,
		PaymentMethod: domain.PaymentMethodCOD,
		PaymentStatus: domain.PaymentStatusPending,
		ShippingAddress: map[string]interface{}{
			"street": "14 Chandni Chowk",
			"city":   "Delhi",
		},
		Subtotal:       decimal.RequireFromString("540.00"),
		TaxTotal:       decimal.RequireFromString("97.20"),
		DeliveryCharge: decimal.RequireFromString("50.00"),
		CODCharge:      decimal.RequireFromString("25.00"),
		Discount:       decimal.Zero,
		Total:          decimal.RequireFromString("712.20"),
		AmountPaid:     decimal.Zero,
	}
}

func lineFixture(productID uuid.UUID, quantity int) *domain.OrderLine {
	return &domain.OrderLine{
		ProductID:      productID,
		SKU:            "CRK-STL-12",
		Name:           "Steel Dinner Plate",
		Quantity:       quantity,
		UnitPrice:      decimal.RequireFromString("9.00"),
		GSTRatePercent: decimal.RequireFromString("18"),
	}
}

func TestCreateWithLinesCommitsOrderLinesAndStock(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewOrderRepository(db, zap.NewNop())
	productID := uuid.New()
	order := orderFixture(uuid.New())
	line := lineFixture(productID, 60)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO orders").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO order_lines").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE products").
		WithArgs(productID, 60, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err = repo.CreateWithLines(context.Background(), order, []*domain.OrderLine{line})
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, order.ID)
	assert.Equal(t, order.ID, line.OrderID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateWithLinesRollsBackOnInsufficientStock(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewOrderRepository(db, zap.NewNop())
	productID := uuid.New()
	order := orderFixture(uuid.New())
	line := lineFixture(productID, 500)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO orders").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO order_lines").
		WillReturnResult(sqlmock.NewResult(0, 1))
	// Conditional decrement matches no row: the product has too little stock
	mock.ExpectExec("UPDATE products").
		WithArgs(productID, 500, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT stock_units FROM products").
		WithArgs(productID).
		WillReturnRows(sqlmock.NewRows([]string{"stock_units"}).AddRow(120))
	mock.ExpectRollback()

	err = repo.CreateWithLines(context.Background(), order, []*domain.OrderLine{line})
	var stockErr *errors.ErrInsufficientStock
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, "CRK-STL-12", stockErr.SKU)
	assert.Equal(t, 500, stockErr.Requested)
	assert.Equal(t, 120, stockErr.Available)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateStatusNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewOrderRepository(db, zap.NewNop())
	orderID := uuid.New()

	mock.ExpectExec("UPDATE orders").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err = repo.UpdateStatus(context.Background(), orderID, domain.OrderStatusConfirmed, nil)
	var notFoundErr *errors.ErrNotFound
	require.ErrorAs(t, err, &notFoundErr)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReplaceLinesAndTotalsRunsInOneTransaction(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewOrderRepository(db, zap.NewNop())
	order := orderFixture(uuid.New())
	order.ID = uuid.New()
	line := lineFixture(uuid.New(), 100)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE orders").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("DELETE FROM order_lines").
		WithArgs(order.ID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO order_lines").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err = repo.ReplaceLinesAndTotals(context.Background(), order, []*domain.OrderLine{line})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
