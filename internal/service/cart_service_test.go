package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/bulkbazaar/wholesaleapi/internal/domain"
	"github.com/bulkbazaar/wholesaleapi/internal/repository/memory"
	"github.com/bulkbazaar/wholesaleapi/pkg/errors"
)

func TestSetItemFreezesTierPrice(t *testing.T) {
	repos := memory.NewRepositories()
	retailer := seedRetailer(t, repos)
	product := seedCrockeryProduct(t, repos)
	ctx := context.Background()
	cartService := NewCartService(repos, zap.NewNop())

	// 30 units = 2.5 sets, below every tier minimum: per-piece price applies
	cart, err := cartService.SetItem(ctx, retailer.ID, product.ID, 30)
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, "10.00", cart.Items[0].UnitPrice.StringFixed(2))

	// Raising the quantity into the 5-10 set band re-resolves the price
	cart, err = cartService.SetItem(ctx, retailer.ID, product.ID, 60)
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, 60, cart.Items[0].Quantity)
	assert.Equal(t, "9.00", cart.Items[0].UnitPrice.StringFixed(2))
}

func TestSetItemRejectsInactiveProduct(t *testing.T) {
	repos := memory.NewRepositories()
	retailer := seedRetailer(t, repos)
	product := seedCrockeryProduct(t, repos)
	ctx := context.Background()

	require.NoError(t, repos.Product.SetActive(ctx, product.ID, false))

	_, err := NewCartService(repos, zap.NewNop()).SetItem(ctx, retailer.ID, product.ID, 60)
	var validationErr *errors.ErrValidation
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "product_id", validationErr.Field)
}

func TestSetItemRejectsNonPositiveQuantity(t *testing.T) {
	repos := memory.NewRepositories()
	retailer := seedRetailer(t, repos)
	product := seedCrockeryProduct(t, repos)

	_, err := NewCartService(repos, zap.NewNop()).SetItem(context.Background(), retailer.ID, product.ID, 0)
	var validationErr *errors.ErrValidation
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "quantity", validationErr.Field)
}

func TestGetCartViewComputesPreviewTotals(t *testing.T) {
	repos := memory.NewRepositories()
	retailer := seedRetailer(t, repos)
	product := seedCrockeryProduct(t, repos)
	ctx := context.Background()
	cartService := NewCartService(repos, zap.NewNop())

	_, err := cartService.SetItem(ctx, retailer.ID, product.ID, 60)
	require.NoError(t, err)

	view, err := cartService.GetCartView(ctx, retailer.ID)
	require.NoError(t, err)
	require.Len(t, view.Items, 1)
	assert.Equal(t, "CRK-STL-12", view.Items[0].SKU)
	assert.Equal(t, "540.00", view.Items[0].LineTotal)
	assert.Equal(t, "540.00", view.Subtotal)
	assert.Equal(t, "97.20", view.TaxTotal)
	assert.Equal(t, "637.20", view.EstimatedTotal)
}

func TestGetCartViewEmptyCart(t *testing.T) {
	repos := memory.NewRepositories()
	retailer := seedRetailer(t, repos)

	view, err := NewCartService(repos, zap.NewNop()).GetCartView(context.Background(), retailer.ID)
	require.NoError(t, err)
	assert.Empty(t, view.Items)
	assert.Equal(t, "0.00", view.Subtotal)
	assert.Equal(t, "0.00", view.EstimatedTotal)
}

func TestRemoveItem(t *testing.T) {
	repos := memory.NewRepositories()
	retailer := seedRetailer(t, repos)
	product := seedCrockeryProduct(t, repos)
	ctx := context.Background()
	cartService := NewCartService(repos, zap.NewNop())

	_, err := cartService.SetItem(ctx, retailer.ID, product.ID, 60)
	require.NoError(t, err)
	require.NoError(t, cartService.RemoveItem(ctx, retailer.ID, product.ID))

	cart, err := repos.Cart.GetOrCreate(ctx, retailer.ID)
	require.NoError(t, err)
	assert.Empty(t, cart.Items)
}

func TestPruneProductRemovesFromEveryCart(t *testing.T) {
	repos := memory.NewRepositories()
	product := seedCrockeryProduct(t, repos)
	ctx := context.Background()
	cartService := NewCartService(repos, zap.NewNop())

	first := seedRetailer(t, repos)
	second := &domain.Retailer{Name: "Gupta Stores", APIKeyHash: "x", IsActive: true}
	require.NoError(t, repos.Retailer.Create(ctx, second))

	_, err := cartService.SetItem(ctx, first.ID, product.ID, 60)
	require.NoError(t, err)
	_, err = cartService.SetItem(ctx, second.ID, product.ID, 120)
	require.NoError(t, err)

	removed, err := cartService.PruneProduct(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), removed)

	for _, retailer := range []*domain.Retailer{first, second} {
		cart, err := repos.Cart.GetOrCreate(ctx, retailer.ID)
		require.NoError(t, err)
		assert.Empty(t, cart.Items)
	}
}
