package service

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/bulkbazaar/wholesaleapi/internal/cache"
	"github.com/bulkbazaar/wholesaleapi/internal/domain"
	"github.com/bulkbazaar/wholesaleapi/internal/repository"
	"github.com/bulkbazaar/wholesaleapi/pkg/errors"
)

type productService struct {
	repos        *repository.Repositories
	pricingCache cache.PricingCache
	logger       *zap.Logger
}

// NewProductService creates a new product service
func NewProductService(repos *repository.Repositories, pricingCache cache.PricingCache, logger *zap.Logger) *productService {
	return &productService{
		repos:        repos,
		pricingCache: pricingCache,
		logger:       logger,
	}
}

func validateProductRequest(req ProductRequest) error {
	if req.PerPiecePrice.IsNegative() {
		return &errors.ErrValidation{Field: "per_piece_price", Message: "must not be negative"}
	}
	if req.GSTRatePercent.IsNegative() {
		return &errors.ErrValidation{Field: "gst_rate_percent", Message: "must not be negative"}
	}
	if req.StockUnits < 0 {
		return &errors.ErrValidation{Field: "stock_units", Message: "must not be negative"}
	}
	// Tier minimums are validated here; overlap and ordering are left to the
	// engine's defensive sort at read time.
	for _, tier := range req.BulkTiers {
		if tier.MinimumSets < 1 {
			return &errors.ErrValidation{Field: "bulk_tiers", Message: "tier minimum must be at least 1 set"}
		}
		if tier.SellingPricePerSet.IsNegative() {
			return &errors.ErrValidation{Field: "bulk_tiers", Message: "tier price must not be negative"}
		}
	}
	return nil
}

// CreateProduct creates a catalog product with its bulk tiers
func (s *productService) CreateProduct(ctx context.Context, req ProductRequest) (*domain.Product, error) {
	if err := validateProductRequest(req); err != nil {
		return nil, err
	}

	product := &domain.Product{
		SKU:            req.SKU,
		Name:           req.Name,
		Description:    req.Description,
		Category:       req.Category,
		UnitSet:        req.UnitSet,
		PerPiecePrice:  req.PerPiecePrice,
		MRP:            req.MRP,
		GSTRatePercent: req.GSTRatePercent,
		StockUnits:     req.StockUnits,
		IsActive:       true,
		BulkTiers:      toTiers(req.BulkTiers),
	}
	if req.IsActive != nil {
		product.IsActive = *req.IsActive
	}

	if err := s.repos.Product.Create(ctx, product); err != nil {
		return nil, err
	}

	return product, nil
}

// UpdateProduct updates a product and replaces its bulk tiers
func (s *productService) UpdateProduct(ctx context.Context, id uuid.UUID, req ProductRequest) (*domain.Product, error) {
	if err := validateProductRequest(req); err != nil {
		return nil, err
	}

	product, err := s.repos.Product.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	product.SKU = req.SKU
	product.Name = req.Name
	product.Description = req.Description
	product.Category = req.Category
	product.UnitSet = req.UnitSet
	product.PerPiecePrice = req.PerPiecePrice
	product.MRP = req.MRP
	product.GSTRatePercent = req.GSTRatePercent
	product.StockUnits = req.StockUnits
	product.BulkTiers = toTiers(req.BulkTiers)
	if req.IsActive != nil {
		product.IsActive = *req.IsActive
	}

	if err := s.repos.Product.Update(ctx, product); err != nil {
		return nil, err
	}

	if err := s.pricingCache.Invalidate(ctx, pricingCacheKey(id)); err != nil {
		s.logger.Warn("Failed to invalidate pricing cache", zap.Error(err))
	}

	return product, nil
}

// DeactivateProduct takes a product off sale and prunes it from all carts
func (s *productService) DeactivateProduct(ctx context.Context, id uuid.UUID) (int64, error) {
	if err := s.repos.Product.SetActive(ctx, id, false); err != nil {
		return 0, err
	}

	if err := s.pricingCache.Invalidate(ctx, pricingCacheKey(id)); err != nil {
		s.logger.Warn("Failed to invalidate pricing cache", zap.Error(err))
	}

	cartService := NewCartService(s.repos, s.logger)
	return cartService.PruneProduct(ctx, id)
}

// ActivateProduct puts a product back on sale
func (s *productService) ActivateProduct(ctx context.Context, id uuid.UUID) error {
	return s.repos.Product.SetActive(ctx, id, true)
}

func pricingCacheKey(productID uuid.UUID) string {
	return "pricing:product:" + productID.String()
}
