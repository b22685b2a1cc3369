package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/bulkbazaar/wholesaleapi/internal/domain"
	"github.com/bulkbazaar/wholesaleapi/pkg/errors"
)

type productRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewProductRepository creates a new product repository
func NewProductRepository(db *sql.DB, logger *zap.Logger) *productRepository {
	return &productRepository{
		db:     db,
		logger: logger,
	}
}

const productColumns = `
	id, sku, name, description, category, unit_set, per_piece_price,
	mrp, gst_rate_percent, stock_units, is_active, created_at, updated_at
`

func (r *productRepository) scanProduct(row interface {
	Scan(dest ...interface{}) error
}) (*domain.Product, error) {
	var p domain.Product
	err := row.Scan(
		&p.ID,
		&p.SKU,
		&p.Name,
		&p.Description,
		&p.Category,
		&p.UnitSet,
		&p.PerPiecePrice,
		&p.MRP,
		&p.GSTRatePercent,
		&p.StockUnits,
		&p.IsActive,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *productRepository) loadTiers(ctx context.Context, productID uuid.UUID) ([]domain.BulkTier, error) {
	query := `
		SELECT minimum_sets, maximum_sets, selling_price_per_set, discount_from_mrp
		FROM bulk_tiers
		WHERE product_id = $1
		ORDER BY minimum_sets ASC
	`

	rows, err := r.db.QueryContext(ctx, query, productID)
	if err != nil {
		r.logger.Error("Failed to query bulk tiers", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var tiers []domain.BulkTier
	for rows.Next() {
		var t domain.BulkTier
		if err := rows.Scan(&t.MinimumSets, &t.MaximumSets, &t.SellingPricePerSet, &t.DiscountFromMRP); err != nil {
			return nil, err
		}
		tiers = append(tiers, t)
	}

	return tiers, rows.Err()
}

func (r *productRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1`

	product, err := r.scanProduct(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, &errors.ErrNotFound{Resource: "product", ID: id.String()}
	}
	if err != nil {
		r.logger.Error("Failed to get product by ID", zap.Error(err))
		return nil, err
	}

	product.BulkTiers, err = r.loadTiers(ctx, product.ID)
	if err != nil {
		return nil, err
	}

	return product, nil
}

func (r *productRepository) GetBySKU(ctx context.Context, sku string) (*domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE sku = $1`

	product, err := r.scanProduct(r.db.QueryRowContext(ctx, query, sku))
	if err == sql.ErrNoRows {
		return nil, &errors.ErrNotFound{Resource: "product", ID: sku}
	}
	if err != nil {
		r.logger.Error("Failed to get product by SKU", zap.Error(err))
		return nil, err
	}

	product.BulkTiers, err = r.loadTiers(ctx, product.ID)
	if err != nil {
		return nil, err
	}

	return product, nil
}

func (r *productRepository) List(ctx context.Context, onlyActive bool, limit, offset int) ([]*domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products`
	if onlyActive {
		query += ` WHERE is_active = true`
	}
	query += ` ORDER BY created_at DESC LIMIT $1 OFFSET $2`

	rows, err := r.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		r.logger.Error("Failed to list products", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var products []*domain.Product
	for rows.Next() {
		product, err := r.scanProduct(rows)
		if err != nil {
			continue
		}
		products = append(products, product)
	}

	for _, product := range products {
		product.BulkTiers, err = r.loadTiers(ctx, product.ID)
		if err != nil {
			return nil, err
		}
	}

	return products, nil
}

func (r *productRepository) Create(ctx context.Context, product *domain.Product) error {
	now := time.Now()
	if product.ID == uuid.Nil {
		product.ID = uuid.New()
	}
	if product.UnitSet < 1 {
		product.UnitSet = 1
	}
	if product.CreatedAt.IsZero() {
		product.CreatedAt = now
	}
	if product.UpdatedAt.IsZero() {
		product.UpdatedAt = now
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := `
		INSERT INTO products (` + productColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	_, err = tx.ExecContext(ctx, query,
		product.ID,
		product.SKU,
		product.Name,
		product.Description,
		product.Category,
		product.UnitSet,
		product.PerPiecePrice,
		product.MRP,
		product.GSTRatePercent,
		product.StockUnits,
		product.IsActive,
		product.CreatedAt,
		product.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create product", zap.Error(err))
		return err
	}

	if err := r.insertTiers(ctx, tx, product.ID, product.BulkTiers); err != nil {
		return err
	}

	return tx.Commit()
}

func (r *productRepository) Update(ctx context.Context, product *domain.Product) error {
	product.UpdatedAt = time.Now()
	if product.UnitSet < 1 {
		product.UnitSet = 1
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := `
		UPDATE products
		SET sku = $2, name = $3, description = $4, category = $5, unit_set = $6,
		    per_piece_price = $7, mrp = $8, gst_rate_percent = $9, stock_units = $10,
		    is_active = $11, updated_at = $12
		WHERE id = $1
	`

	result, err := tx.ExecContext(ctx, query,
		product.ID,
		product.SKU,
		product.Name,
		product.Description,
		product.Category,
		product.UnitSet,
		product.PerPiecePrice,
		product.MRP,
		product.GSTRatePercent,
		product.StockUnits,
		product.IsActive,
		product.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to update product", zap.Error(err))
		return err
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		return &errors.ErrNotFound{Resource: "product", ID: product.ID.String()}
	}

	// Tier edits replace the whole set for the product.
	if _, err := tx.ExecContext(ctx, `DELETE FROM bulk_tiers WHERE product_id = $1`, product.ID); err != nil {
		r.logger.Error("Failed to clear bulk tiers", zap.Error(err))
		return err
	}
	if err := r.insertTiers(ctx, tx, product.ID, product.BulkTiers); err != nil {
		return err
	}

	return tx.Commit()
}

func (r *productRepository) insertTiers(ctx context.Context, tx *sql.Tx, productID uuid.UUID, tiers []domain.BulkTier) error {
	query := `
		INSERT INTO bulk_tiers (product_id, minimum_sets, maximum_sets, selling_price_per_set, discount_from_mrp)
		VALUES ($1, $2, $3, $4, $5)
	`

	for _, t := range tiers {
		_, err := tx.ExecContext(ctx, query,
			productID,
			t.MinimumSets,
			t.MaximumSets,
			t.SellingPricePerSet,
			t.DiscountFromMRP,
		)
		if err != nil {
			r.logger.Error("Failed to insert bulk tier", zap.Error(err))
			return err
		}
	}

	return nil
}

func (r *productRepository) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	query := `UPDATE products SET is_active = $2, updated_at = $3 WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id, active, time.Now())
	if err != nil {
		r.logger.Error("Failed to set product active flag", zap.Error(err))
		return err
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		return &errors.ErrNotFound{Resource: "product", ID: id.String()}
	}

	return nil
}
