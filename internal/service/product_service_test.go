package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/bulkbazaar/wholesaleapi/internal/cache"
	"github.com/bulkbazaar/wholesaleapi/internal/repository/memory"
	"github.com/bulkbazaar/wholesaleapi/pkg/errors"
)

func TestCreateProductValidation(t *testing.T) {
	repos := memory.NewRepositories()
	productService := NewProductService(repos, cache.NoopPricingCache{}, zap.NewNop())
	ctx := context.Background()

	tests := []struct {
		name  string
		req   ProductRequest
		field string
	}{
		{
			name:  "negative price",
			req:   ProductRequest{SKU: "X", Name: "X", PerPiecePrice: dec("-1")},
			field: "per_piece_price",
		},
		{
			name:  "negative gst",
			req:   ProductRequest{SKU: "X", Name: "X", GSTRatePercent: dec("-5")},
			field: "gst_rate_percent",
		},
		{
			name:  "negative stock",
			req:   ProductRequest{SKU: "X", Name: "X", StockUnits: -1},
			field: "stock_units",
		},
		{
			name: "zero tier minimum",
			req: ProductRequest{SKU: "X", Name: "X", BulkTiers: []BulkTierRequest{
				{MinimumSets: 0, SellingPricePerSet: dec("5")},
			}},
			field: "bulk_tiers",
		},
		{
			name: "negative tier price",
			req: ProductRequest{SKU: "X", Name: "X", BulkTiers: []BulkTierRequest{
				{MinimumSets: 5, SellingPricePerSet: dec("-5")},
			}},
			field: "bulk_tiers",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := productService.CreateProduct(ctx, tt.req)
			var validationErr *errors.ErrValidation
			require.ErrorAs(t, err, &validationErr)
			assert.Equal(t, tt.field, validationErr.Field)
		})
	}
}

func TestCreateProductDefaultsToActive(t *testing.T) {
	repos := memory.NewRepositories()
	productService := NewProductService(repos, cache.NoopPricingCache{}, zap.NewNop())

	product, err := productService.CreateProduct(context.Background(), ProductRequest{
		SKU:           "CRK-BWL-06",
		Name:          "Steel Bowl",
		UnitSet:       6,
		PerPiecePrice: dec("6.00"),
		StockUnits:    500,
	})
	require.NoError(t, err)
	assert.True(t, product.IsActive)
	assert.NotEqual(t, "", product.ID.String())
}

func TestUpdateProductReplacesTiers(t *testing.T) {
	repos := memory.NewRepositories()
	product := seedCrockeryProduct(t, repos)
	pricingCache := newMapPricingCache()
	productService := NewProductService(repos, pricingCache, zap.NewNop())
	ctx := context.Background()

	// Warm the cache so the update has something to invalidate
	pricingCache.entries[pricingCacheKey(product.ID)] = product

	updated, err := productService.UpdateProduct(ctx, product.ID, ProductRequest{
		SKU:            product.SKU,
		Name:           product.Name,
		UnitSet:        product.UnitSet,
		PerPiecePrice:  dec("11.00"),
		GSTRatePercent: product.GSTRatePercent,
		StockUnits:     product.StockUnits,
		BulkTiers: []BulkTierRequest{
			{MinimumSets: 10, SellingPricePerSet: dec("8.50")},
		},
	})
	require.NoError(t, err)
	require.Len(t, updated.BulkTiers, 1)
	assert.Equal(t, 10, updated.BulkTiers[0].MinimumSets)

	// Stale pricing context was invalidated
	_, found := pricingCache.entries[pricingCacheKey(product.ID)]
	assert.False(t, found)

	stored, err := repos.Product.GetByID(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, "11.00", stored.PerPiecePrice.StringFixed(2))
	require.Len(t, stored.BulkTiers, 1)
}

func TestDeactivateProductPrunesCarts(t *testing.T) {
	repos := memory.NewRepositories()
	retailer := seedRetailer(t, repos)
	product := seedCrockeryProduct(t, repos)
	ctx := context.Background()

	_, err := NewCartService(repos, zap.NewNop()).SetItem(ctx, retailer.ID, product.ID, 60)
	require.NoError(t, err)

	productService := NewProductService(repos, cache.NoopPricingCache{}, zap.NewNop())
	removed, err := productService.DeactivateProduct(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	stored, err := repos.Product.GetByID(ctx, product.ID)
	require.NoError(t, err)
	assert.False(t, stored.IsActive)

	cart, err := repos.Cart.GetOrCreate(ctx, retailer.ID)
	require.NoError(t, err)
	assert.Empty(t, cart.Items)
}
