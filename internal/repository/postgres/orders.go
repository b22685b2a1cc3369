package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/bulkbazaar/wholesaleapi/internal/domain"
	"github.com/bulkbazaar/wholesaleapi/pkg/errors"
)

type orderRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewOrderRepository creates a new order repository
func NewOrderRepository(db *sql.DB, logger *zap.Logger) *orderRepository {
	return &orderRepository{
		db:     db,
		logger: logger,
	}
}

const orderColumns = `
	id, retailer_id, status, payment_method, payment_status, shipping_address,
	subtotal, tax_total, delivery_charge, cod_charge, discount, total, amount_paid,
	rejection_reason, tracking_carrier, tracking_number, created_at, updated_at
`

// CreateWithLines persists the order, its lines and the stock decrement for
// each line as a single transaction. A line asking for more units than the
// product has aborts the whole transaction with ErrInsufficientStock, so an
// order can never drive stock negative.
func (r *orderRepository) CreateWithLines(ctx context.Context, order *domain.Order, lines []*domain.OrderLine) error {
	now := time.Now()
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	if order.CreatedAt.IsZero() {
		order.CreatedAt = now
	}
	if order.UpdatedAt.IsZero() {
		order.UpdatedAt = now
	}

	addressJSON, err := json.Marshal(order.ShippingAddress)
	if err != nil {
		return err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	insertOrder := `
		INSERT INTO orders (` + orderColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
	`

	_, err = tx.ExecContext(ctx, insertOrder,
		order.ID,
		order.RetailerID,
		order.Status,
		order.PaymentMethod,
		order.PaymentStatus,
		addressJSON,
		order.Subtotal,
		order.TaxTotal,
		order.DeliveryCharge,
		order.CODCharge,
		order.Discount,
		order.Total,
		order.AmountPaid,
		order.RejectionReason,
		order.TrackingCarrier,
		order.TrackingNumber,
		order.CreatedAt,
		order.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to insert order", zap.Error(err))
		return err
	}

	insertLine := `
		INSERT INTO order_lines (id, order_id, product_id, sku, name, quantity, unit_price, gst_rate_percent, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	decrementStock := `
		UPDATE products
		SET stock_units = stock_units - $2, updated_at = $3
		WHERE id = $1 AND stock_units >= $2
	`

	for _, line := range lines {
		if line.ID == uuid.Nil {
			line.ID = uuid.New()
		}
		line.OrderID = order.ID
		if line.CreatedAt.IsZero() {
			line.CreatedAt = now
		}

		_, err = tx.ExecContext(ctx, insertLine,
			line.ID,
			line.OrderID,
			line.ProductID,
			line.SKU,
			line.Name,
			line.Quantity,
			line.UnitPrice,
			line.GSTRatePercent,
			line.CreatedAt,
		)
		if err != nil {
			r.logger.Error("Failed to insert order line", zap.Error(err))
			return err
		}

		result, err := tx.ExecContext(ctx, decrementStock, line.ProductID, line.Quantity, now)
		if err != nil {
			r.logger.Error("Failed to decrement stock", zap.Error(err))
			return err
		}
		if affected, _ := result.RowsAffected(); affected == 0 {
			var available int
			_ = tx.QueryRowContext(ctx,
				`SELECT stock_units FROM products WHERE id = $1`, line.ProductID,
			).Scan(&available)
			return &errors.ErrInsufficientStock{
				SKU:       line.SKU,
				Requested: line.Quantity,
				Available: available,
			}
		}
	}

	return tx.Commit()
}

func (r *orderRepository) scanOrder(row interface {
	Scan(dest ...interface{}) error
}) (*domain.Order, error) {
	var order domain.Order
	var addressJSON []byte
	var rejectionReason, trackingCarrier, trackingNumber sql.NullString

	err := row.Scan(
		&order.ID,
		&order.RetailerID,
		&order.Status,
		&order.PaymentMethod,
		&order.PaymentStatus,
		&addressJSON,
		&order.Subtotal,
		&order.TaxTotal,
		&order.DeliveryCharge,
		&order.CODCharge,
		&order.Discount,
		&order.Total,
		&order.AmountPaid,
		&rejectionReason,
		&trackingCarrier,
		&trackingNumber,
		&order.CreatedAt,
		&order.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if len(addressJSON) > 0 {
		if err := json.Unmarshal(addressJSON, &order.ShippingAddress); err != nil {
			return nil, err
		}
	}
	if rejectionReason.Valid {
		order.RejectionReason = &rejectionReason.String
	}
	if trackingCarrier.Valid {
		order.TrackingCarrier = &trackingCarrier.String
	}
	if trackingNumber.Valid {
		order.TrackingNumber = &trackingNumber.String
	}

	return &order, nil
}

func (r *orderRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`

	order, err := r.scanOrder(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, &errors.ErrNotFound{Resource: "order", ID: id.String()}
	}
	if err != nil {
		r.logger.Error("Failed to get order by ID", zap.Error(err))
		return nil, err
	}

	return order, nil
}

func (r *orderRepository) GetLines(ctx context.Context, orderID uuid.UUID) ([]*domain.OrderLine, error) {
	query := `
		SELECT id, order_id, product_id, sku, name, quantity, unit_price, gst_rate_percent, created_at
		FROM order_lines
		WHERE order_id = $1
		ORDER BY created_at ASC
	`

	rows, err := r.db.QueryContext(ctx, query, orderID)
	if err != nil {
		r.logger.Error("Failed to query order lines", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var lines []*domain.OrderLine
	for rows.Next() {
		var line domain.OrderLine
		err := rows.Scan(
			&line.ID,
			&line.OrderID,
			&line.ProductID,
			&line.SKU,
			&line.Name,
			&line.Quantity,
			&line.UnitPrice,
			&line.GSTRatePercent,
			&line.CreatedAt,
		)
		if err != nil {
			continue
		}
		lines = append(lines, &line)
	}

	return lines, rows.Err()
}

func (r *orderRepository) ListByRetailerID(ctx context.Context, retailerID uuid.UUID, limit, offset int) ([]*domain.Order, error) {
	query := `
		SELECT ` + orderColumns + `
		FROM orders
		WHERE retailer_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`
	return r.list(ctx, query, retailerID, limit, offset)
}

// ListByStatus lists orders in a status. An empty status lists all orders.
func (r *orderRepository) ListByStatus(ctx context.Context, status domain.OrderStatus, limit, offset int) ([]*domain.Order, error) {
	if status == "" {
		query := `
			SELECT ` + orderColumns + `
			FROM orders
			ORDER BY created_at DESC
			LIMIT $1 OFFSET $2
		`
		return r.list(ctx, query, limit, offset)
	}

	query := `
		SELECT ` + orderColumns + `
		FROM orders
		WHERE status = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`
	return r.list(ctx, query, status, limit, offset)
}

func (r *orderRepository) list(ctx context.Context, query string, args ...interface{}) ([]*domain.Order, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to list orders", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var orders []*domain.Order
	for rows.Next() {
		order, err := r.scanOrder(rows)
		if err != nil {
			continue
		}
		orders = append(orders, order)
	}

	return orders, rows.Err()
}

func (r *orderRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.OrderStatus, reason *string) error {
	query := `
		UPDATE orders
		SET status = $2, rejection_reason = $3, updated_at = $4
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query, id, status, reason, time.Now())
	if err != nil {
		r.logger.Error("Failed to update order status", zap.Error(err))
		return err
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		return &errors.ErrNotFound{Resource: "order", ID: id.String()}
	}

	return nil
}

func (r *orderRepository) UpdateTracking(ctx context.Context, id uuid.UUID, carrier, trackingNumber *string) error {
	query := `
		UPDATE orders
		SET status = $2, tracking_carrier = $3, tracking_number = $4, updated_at = $5
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query, id, domain.OrderStatusShipped, carrier, trackingNumber, time.Now())
	if err != nil {
		r.logger.Error("Failed to update order tracking", zap.Error(err))
		return err
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		return &errors.ErrNotFound{Resource: "order", ID: id.String()}
	}

	return nil
}

func (r *orderRepository) ReplaceLinesAndTotals(ctx context.Context, order *domain.Order, lines []*domain.OrderLine) error {
	order.UpdatedAt = time.Now()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	updateOrder := `
		UPDATE orders
		SET subtotal = $2, tax_total = $3, delivery_charge = $4, cod_charge = $5,
		    discount = $6, total = $7, amount_paid = $8, payment_status = $9, updated_at = $10
		WHERE id = $1
	`

	result, err := tx.ExecContext(ctx, updateOrder,
		order.ID,
		order.Subtotal,
		order.TaxTotal,
		order.DeliveryCharge,
		order.CODCharge,
		order.Discount,
		order.Total,
		order.AmountPaid,
		order.PaymentStatus,
		order.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to update order totals", zap.Error(err))
		return err
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		return &errors.ErrNotFound{Resource: "order", ID: order.ID.String()}
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM order_lines WHERE order_id = $1`, order.ID); err != nil {
		r.logger.Error("Failed to clear order lines", zap.Error(err))
		return err
	}

	insertLine := `
		INSERT INTO order_lines (id, order_id, product_id, sku, name, quantity, unit_price, gst_rate_percent, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	for _, line := range lines {
		if line.ID == uuid.Nil {
			line.ID = uuid.New()
		}
		line.OrderID = order.ID
		if line.CreatedAt.IsZero() {
			line.CreatedAt = order.UpdatedAt
		}

		_, err = tx.ExecContext(ctx, insertLine,
			line.ID,
			line.OrderID,
			line.ProductID,
			line.SKU,
			line.Name,
			line.Quantity,
			line.UnitPrice,
			line.GSTRatePercent,
			line.CreatedAt,
		)
		if err != nil {
			r.logger.Error("Failed to insert order line", zap.Error(err))
			return err
		}
	}

	return tx.Commit()
}

func (r *orderRepository) RecordPayment(ctx context.Context, id uuid.UUID, amountPaid decimal.Decimal, status domain.PaymentStatus) error {
	query := `
		UPDATE orders
		SET amount_paid = $2, payment_status = $3, updated_at = $4
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query, id, amountPaid, status, time.Now())
	if err != nil {
		r.logger.Error("Failed to record payment", zap.Error(err))
		return err
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		return &errors.ErrNotFound{Resource: "order", ID: id.String()}
	}

	return nil
}
