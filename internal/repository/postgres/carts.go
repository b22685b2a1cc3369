package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/bulkbazaar/wholesaleapi/internal/domain"
)

type cartRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewCartRepository creates a new cart repository
func NewCartRepository(db *sql.DB, logger *zap.Logger) *cartRepository {
	return &cartRepository{
		db:     db,
		logger: logger,
	}
}

func (r *cartRepository) GetOrCreate(ctx context.Context, retailerID uuid.UUID) (*domain.Cart, error) {
	var cart domain.Cart

	query := `
		SELECT id, retailer_id, created_at, updated_at
		FROM carts
		WHERE retailer_id = $1
	`

	err := r.db.QueryRowContext(ctx, query, retailerID).Scan(
		&cart.ID,
		&cart.RetailerID,
		&cart.CreatedAt,
		&cart.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		now := time.Now()
		cart = domain.Cart{
			ID:         uuid.New(),
			RetailerID: retailerID,
			CreatedAt:  now,
			UpdatedAt:  now,
		}

		insert := `
			INSERT INTO carts (id, retailer_id, created_at, updated_at)
			VALUES ($1, $2, $3, $4)
		`
		if _, err := r.db.ExecContext(ctx, insert, cart.ID, cart.RetailerID, cart.CreatedAt, cart.UpdatedAt); err != nil {
			r.logger.Error("Failed to create cart", zap.Error(err))
			return nil, err
		}
	} else if err != nil {
		r.logger.Error("Failed to get cart", zap.Error(err))
		return nil, err
	}

	items, err := r.loadItems(ctx, cart.ID)
	if err != nil {
		return nil, err
	}
	cart.Items = items

	return &cart, nil
}

func (r *cartRepository) loadItems(ctx context.Context, cartID uuid.UUID) ([]domain.CartItem, error) {
	query := `
		SELECT id, cart_id, product_id, quantity, unit_price, added_at
		FROM cart_items
		WHERE cart_id = $1
		ORDER BY added_at ASC
	`

	rows, err := r.db.QueryContext(ctx, query, cartID)
	if err != nil {
		r.logger.Error("Failed to query cart items", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var items []domain.CartItem
	for rows.Next() {
		var item domain.CartItem
		err := rows.Scan(
			&item.ID,
			&item.CartID,
			&item.ProductID,
			&item.Quantity,
			&item.UnitPrice,
			&item.AddedAt,
		)
		if err != nil {
			continue
		}
		items = append(items, item)
	}

	return items, rows.Err()
}

func (r *cartRepository) UpsertItem(ctx context.Context, cartID uuid.UUID, item *domain.CartItem) error {
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	item.CartID = cartID
	if item.AddedAt.IsZero() {
		item.AddedAt = time.Now()
	}

	query := `
		INSERT INTO cart_items (id, cart_id, product_id, quantity, unit_price, added_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (cart_id, product_id)
		DO UPDATE SET quantity = EXCLUDED.quantity, unit_price = EXCLUDED.unit_price
	`

	_, err := r.db.ExecContext(ctx, query,
		item.ID,
		item.CartID,
		item.ProductID,
		item.Quantity,
		item.UnitPrice,
		item.AddedAt,
	)

	if err != nil {
		r.logger.Error("Failed to upsert cart item", zap.Error(err))
		return err
	}

	return nil
}

func (r *cartRepository) RemoveItem(ctx context.Context, cartID, productID uuid.UUID) error {
	query := `DELETE FROM cart_items WHERE cart_id = $1 AND product_id = $2`

	_, err := r.db.ExecContext(ctx, query, cartID, productID)
	if err != nil {
		r.logger.Error("Failed to remove cart item", zap.Error(err))
		return err
	}

	return nil
}

func (r *cartRepository) Clear(ctx context.Context, cartID uuid.UUID) error {
	query := `DELETE FROM cart_items WHERE cart_id = $1`

	_, err := r.db.ExecContext(ctx, query, cartID)
	if err != nil {
		r.logger.Error("Failed to clear cart", zap.Error(err))
		return err
	}

	return nil
}

func (r *cartRepository) RemoveProductFromAllCarts(ctx context.Context, productID uuid.UUID) (int64, error) {
	query := `DELETE FROM cart_items WHERE product_id = $1`

	result, err := r.db.ExecContext(ctx, query, productID)
	if err != nil {
		r.logger.Error("Failed to prune product from carts", zap.Error(err))
		return 0, err
	}

	removed, _ := result.RowsAffected()
	return removed, nil
}
