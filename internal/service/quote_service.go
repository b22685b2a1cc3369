package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/bulkbazaar/wholesaleapi/internal/cache"
	"github.com/bulkbazaar/wholesaleapi/internal/domain"
	"github.com/bulkbazaar/wholesaleapi/internal/pricing"
	"github.com/bulkbazaar/wholesaleapi/internal/repository"
	"github.com/bulkbazaar/wholesaleapi/pkg/errors"
)

const pricingCacheTTL = 5 * time.Minute

type quoteService struct {
	repos        *repository.Repositories
	pricingCache cache.PricingCache
	logger       *zap.Logger
}

// NewQuoteService creates a new quote service
func NewQuoteService(repos *repository.Repositories, pricingCache cache.PricingCache, logger *zap.Logger) *quoteService {
	return &quoteService{
		repos:        repos,
		pricingCache: pricingCache,
		logger:       logger,
	}
}

// QuoteProduct previews the tier-resolved price for a quantity of one
// product. The result is display-only: nothing is frozen until the item is
// added to the cart or the order placed.
func (s *quoteService) QuoteProduct(ctx context.Context, req QuoteRequest) (*QuoteResponse, error) {
	productID, err := uuid.Parse(req.ProductID)
	if err != nil {
		return nil, &errors.ErrValidation{Field: "product_id", Message: "must be a valid UUID"}
	}

	product, err := s.loadPricingContext(ctx, productID)
	if err != nil {
		return nil, err
	}
	if !product.IsActive {
		return nil, &errors.ErrValidation{Field: "product_id", Message: "product is not available"}
	}

	unitPrice, tier, err := pricing.ResolveUnitPrice(product, req.Quantity)
	if err != nil {
		return nil, err
	}
	lineTotal, err := pricing.LineTotal(unitPrice, req.Quantity)
	if err != nil {
		return nil, err
	}

	agg, err := pricing.ComputeAggregate([]pricing.Line{{
		Quantity:       req.Quantity,
		UnitPrice:      unitPrice,
		GSTRatePercent: product.GSTRatePercent,
	}}, pricing.Adjustments{})
	if err != nil {
		return nil, err
	}

	resp := &QuoteResponse{
		ProductID: product.ID.String(),
		SKU:       product.SKU,
		Quantity:  req.Quantity,
		UnitPrice: unitPrice.StringFixed(2),
		LineTotal: lineTotal.StringFixed(2),
		TaxAmount: agg.TaxTotal.StringFixed(2),
	}
	if tier != nil {
		resp.TierApplied = &TierView{
			MinimumSets:        tier.MinimumSets,
			MaximumSets:        tier.MaximumSets,
			SellingPricePerSet: tier.SellingPricePerSet.StringFixed(2),
		}
	}

	return resp, nil
}

// loadPricingContext fetches the product through the cache-aside pricing
// cache. Cache failures degrade to a direct repository read.
func (s *quoteService) loadPricingContext(ctx context.Context, productID uuid.UUID) (*domain.Product, error) {
	key := pricingCacheKey(productID)

	cached, found, err := s.pricingCache.Get(ctx, key)
	if err != nil {
		s.logger.Warn("Pricing cache read failed", zap.Error(err))
	}
	if found {
		return cached, nil
	}

	product, err := s.repos.Product.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}

	if err := s.pricingCache.Set(ctx, key, product, pricingCacheTTL); err != nil {
		s.logger.Warn("Pricing cache write failed", zap.Error(err))
	}

	return product, nil
}
