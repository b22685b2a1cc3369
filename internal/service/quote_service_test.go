package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/bulkbazaar/wholesaleapi/internal/cache"
	"github.com/bulkbazaar/wholesaleapi/internal/domain"
	"github.com/bulkbazaar/wholesaleapi/internal/repository/memory"
	"github.com/bulkbazaar/wholesaleapi/pkg/errors"
)

// mapPricingCache is an in-process PricingCache for asserting cache-aside
// behaviour without Redis.
type mapPricingCache struct {
	entries map[string]*domain.Product
	gets    int
	sets    int
}

func newMapPricingCache() *mapPricingCache {
	return &mapPricingCache{entries: make(map[string]*domain.Product)}
}

func (m *mapPricingCache) Get(_ context.Context, key string) (*domain.Product, bool, error) {
	m.gets++
	product, ok := m.entries[key]
	return product, ok, nil
}

func (m *mapPricingCache) Set(_ context.Context, key string, value *domain.Product, _ time.Duration) error {
	m.sets++
	m.entries[key] = value
	return nil
}

func (m *mapPricingCache) Invalidate(_ context.Context, key string) error {
	delete(m.entries, key)
	return nil
}

func TestQuoteProductAppliesTier(t *testing.T) {
	repos := memory.NewRepositories()
	product := seedCrockeryProduct(t, repos)
	quoteService := NewQuoteService(repos, cache.NoopPricingCache{}, zap.NewNop())

	resp, err := quoteService.QuoteProduct(context.Background(), QuoteRequest{
		ProductID: product.ID.String(),
		Quantity:  60,
	})
	require.NoError(t, err)
	assert.Equal(t, "9.00", resp.UnitPrice)
	assert.Equal(t, "540.00", resp.LineTotal)
	assert.Equal(t, "97.20", resp.TaxAmount)
	require.NotNil(t, resp.TierApplied)
	assert.Equal(t, 5, resp.TierApplied.MinimumSets)
	assert.Equal(t, 10, resp.TierApplied.MaximumSets)
}

func TestQuoteProductPerPieceFallback(t *testing.T) {
	repos := memory.NewRepositories()
	product := seedCrockeryProduct(t, repos)
	quoteService := NewQuoteService(repos, cache.NoopPricingCache{}, zap.NewNop())

	// 30 units is below every tier minimum
	resp, err := quoteService.QuoteProduct(context.Background(), QuoteRequest{
		ProductID: product.ID.String(),
		Quantity:  30,
	})
	require.NoError(t, err)
	assert.Equal(t, "10.00", resp.UnitPrice)
	assert.Equal(t, "300.00", resp.LineTotal)
	assert.Nil(t, resp.TierApplied)
}

func TestQuoteProductInactive(t *testing.T) {
	repos := memory.NewRepositories()
	product := seedCrockeryProduct(t, repos)
	ctx := context.Background()
	require.NoError(t, repos.Product.SetActive(ctx, product.ID, false))

	_, err := NewQuoteService(repos, cache.NoopPricingCache{}, zap.NewNop()).QuoteProduct(ctx, QuoteRequest{
		ProductID: product.ID.String(),
		Quantity:  60,
	})
	var validationErr *errors.ErrValidation
	require.ErrorAs(t, err, &validationErr)
}

func TestQuoteProductUsesCache(t *testing.T) {
	repos := memory.NewRepositories()
	product := seedCrockeryProduct(t, repos)
	pricingCache := newMapPricingCache()
	quoteService := NewQuoteService(repos, pricingCache, zap.NewNop())
	ctx := context.Background()

	req := QuoteRequest{ProductID: product.ID.String(), Quantity: 60}

	_, err := quoteService.QuoteProduct(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, 1, pricingCache.sets)

	// Second quote is served from the cache, no second write
	_, err = quoteService.QuoteProduct(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, 2, pricingCache.gets)
	assert.Equal(t, 1, pricingCache.sets)
}

func TestQuoteProductInvalidID(t *testing.T) {
	repos := memory.NewRepositories()

	_, err := NewQuoteService(repos, cache.NoopPricingCache{}, zap.NewNop()).QuoteProduct(context.Background(), QuoteRequest{
		ProductID: "not-a-uuid",
		Quantity:  60,
	})
	var validationErr *errors.ErrValidation
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "product_id", validationErr.Field)
}
