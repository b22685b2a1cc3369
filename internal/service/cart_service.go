package service

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/bulkbazaar/wholesaleapi/internal/domain"
	"github.com/bulkbazaar/wholesaleapi/internal/pricing"
	"github.com/bulkbazaar/wholesaleapi/internal/repository"
	"github.com/bulkbazaar/wholesaleapi/pkg/errors"
)

type cartService struct {
	repos  *repository.Repositories
	logger *zap.Logger
}

// NewCartService creates a new cart service
func NewCartService(repos *repository.Repositories, logger *zap.Logger) *cartService {
	return &cartService{
		repos:  repos,
		logger: logger,
	}
}

// SetItem adds a product to the retailer's cart or changes its quantity.
// The unit price is resolved through the tier engine and frozen on the item;
// a later quantity edit re-resolves because the applicable tier may change.
func (s *cartService) SetItem(ctx context.Context, retailerID uuid.UUID, productID uuid.UUID, quantity int) (*domain.Cart, error) {
	if quantity <= 0 {
		return nil, &errors.ErrValidation{Field: "quantity", Message: "must be a positive number of units"}
	}

	product, err := s.repos.Product.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if !product.IsActive {
		return nil, &errors.ErrValidation{Field: "product_id", Message: "product is not available"}
	}

	unitPrice, _, err := pricing.ResolveUnitPrice(product, quantity)
	if err != nil {
		return nil, err
	}

	cart, err := s.repos.Cart.GetOrCreate(ctx, retailerID)
	if err != nil {
		return nil, err
	}

	item := &domain.CartItem{
		ProductID: productID,
		Quantity:  quantity,
		UnitPrice: unitPrice,
	}
	if err := s.repos.Cart.UpsertItem(ctx, cart.ID, item); err != nil {
		return nil, err
	}

	return s.repos.Cart.GetOrCreate(ctx, retailerID)
}

// RemoveItem removes a product from the retailer's cart
func (s *cartService) RemoveItem(ctx context.Context, retailerID uuid.UUID, productID uuid.UUID) error {
	cart, err := s.repos.Cart.GetOrCreate(ctx, retailerID)
	if err != nil {
		return err
	}
	return s.repos.Cart.RemoveItem(ctx, cart.ID, productID)
}

// GetCartView returns the cart with a display-only price preview computed
// from the frozen item prices and each product's current GST rate.
func (s *cartService) GetCartView(ctx context.Context, retailerID uuid.UUID) (*CartView, error) {
	cart, err := s.repos.Cart.GetOrCreate(ctx, retailerID)
	if err != nil {
		return nil, err
	}

	view := &CartView{
		CartID: cart.ID.String(),
		Items:  make([]CartLineView, 0, len(cart.Items)),
	}

	lines := make([]pricing.Line, 0, len(cart.Items))
	for _, item := range cart.Items {
		product, err := s.repos.Product.GetByID(ctx, item.ProductID)
		if err != nil {
			if _, ok := err.(*errors.ErrNotFound); ok {
				// Product vanished since the item was added; skip it from
				// the preview rather than failing the whole cart.
				continue
			}
			return nil, err
		}

		lineTotal, err := pricing.LineTotal(item.UnitPrice, item.Quantity)
		if err != nil {
			return nil, err
		}

		lines = append(lines, pricing.Line{
			Quantity:       item.Quantity,
			UnitPrice:      item.UnitPrice,
			GSTRatePercent: product.GSTRatePercent,
		})
		view.Items = append(view.Items, CartLineView{
			ProductID: item.ProductID.String(),
			SKU:       product.SKU,
			Name:      product.Name,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice.StringFixed(2),
			LineTotal: lineTotal.StringFixed(2),
		})
	}

	agg, err := pricing.ComputeAggregate(lines, pricing.Adjustments{})
	if err != nil {
		return nil, err
	}

	view.Subtotal = agg.Subtotal.StringFixed(2)
	view.TaxTotal = agg.TaxTotal.StringFixed(2)
	view.EstimatedTotal = agg.Total.StringFixed(2)

	return view, nil
}

// PruneProduct removes every cart line referencing the product. Called when
// a product is deactivated so stale lines cannot reach order placement.
func (s *cartService) PruneProduct(ctx context.Context, productID uuid.UUID) (int64, error) {
	removed, err := s.repos.Cart.RemoveProductFromAllCarts(ctx, productID)
	if err != nil {
		return 0, err
	}
	if removed > 0 {
		s.logger.Info("Pruned deactivated product from carts",
			zap.String("product_id", productID.String()),
			zap.Int64("lines_removed", removed),
		)
	}
	return removed, nil
}
