package service

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/bulkbazaar/wholesaleapi/internal/domain"
	"github.com/bulkbazaar/wholesaleapi/internal/repository"
	"github.com/bulkbazaar/wholesaleapi/internal/repository/memory"
	"github.com/bulkbazaar/wholesaleapi/pkg/errors"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func testChargePolicy() ChargePolicy {
	return ChargePolicy{
		DeliveryCharge:    dec("50"),
		FreeDeliveryAbove: dec("5000"),
		CODCharge:         dec("25"),
	}
}

func seedRetailer(t *testing.T, repos *repository.Repositories) *domain.Retailer {
	t.Helper()
	retailer := &domain.Retailer{
		Name:       "Sharma Traders",
		APIKeyHash: "$2a$10$notarealhashnotarealhashnotarealhashnotarealhash",
		IsActive:   true,
	}
	require.NoError(t, repos.Retailer.Create(context.Background(), retailer))
	return retailer
}

func seedCrockeryProduct(t *testing.T, repos *repository.Repositories) *domain.Product {
	t.Helper()
	product := &domain.Product{
		SKU:            "CRK-STL-12",
		Name:           "Steel Dinner Plate",
		UnitSet:        12,
		PerPiecePrice:  dec("10.00"),
		MRP:            dec("15.00"),
		GSTRatePercent: dec("18"),
		BulkTiers: []domain.BulkTier{
			{MinimumSets: 5, MaximumSets: 10, SellingPricePerSet: dec("9.00")},
			{MinimumSets: 20, MaximumSets: 0, SellingPricePerSet: dec("8.00")},
		},
		StockUnits: 1000,
		IsActive:   true,
	}
	require.NoError(t, repos.Product.Create(context.Background(), product))
	return product
}

func shippingFixture() ShippingAddress {
	return ShippingAddress{
		Street:     "14 Chandni Chowk",
		City:       "Delhi",
		PostalCode: "110006",
		Country:    "IN",
	}
}

// placeTestOrder fills the cart and places an order with the given quantity
func placeTestOrder(t *testing.T, repos *repository.Repositories, retailer *domain.Retailer, product *domain.Product, quantity int, method string) *domain.Order {
	t.Helper()
	ctx := context.Background()
	logger := zap.NewNop()

	_, err := NewCartService(repos, logger).SetItem(ctx, retailer.ID, product.ID, quantity)
	require.NoError(t, err)

	order, err := NewOrderService(repos, testChargePolicy(), nil, logger).PlaceOrder(ctx, retailer, PlaceOrderRequest{
		PaymentMethod: method,
		Shipping:      shippingFixture(),
	})
	require.NoError(t, err)
	return order
}

func TestPlaceOrderAppliesTierPricingAndCharges(t *testing.T) {
	repos := memory.NewRepositories()
	retailer := seedRetailer(t, repos)
	product := seedCrockeryProduct(t, repos)
	ctx := context.Background()

	// 60 units = 5 sets, inside the 5-10 set band at 9.00/piece
	order := placeTestOrder(t, repos, retailer, product, 60, "COD")

	assert.Equal(t, domain.OrderStatusPending, order.Status)
	assert.Equal(t, domain.PaymentStatusPending, order.PaymentStatus)
	assert.Equal(t, "540.00", order.Subtotal.StringFixed(2))
	assert.Equal(t, "97.20", order.TaxTotal.StringFixed(2))
	assert.Equal(t, "50.00", order.DeliveryCharge.StringFixed(2))
	assert.Equal(t, "25.00", order.CODCharge.StringFixed(2))
	assert.Equal(t, "712.20", order.Total.StringFixed(2))

	lines, err := repos.Order.GetLines(ctx, order.ID)
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, "9.00", lines[0].UnitPrice.StringFixed(2))
	assert.Equal(t, 60, lines[0].Quantity)

	// Stock was decremented atomically with the insert
	stored, err := repos.Product.GetByID(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, 940, stored.StockUnits)

	// Cart was cleared
	cart, err := repos.Cart.GetOrCreate(ctx, retailer.ID)
	require.NoError(t, err)
	assert.Empty(t, cart.Items)

	events, err := repos.OrderEvent.ListByOrderID(ctx, order.ID)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "order_created", events[0].EventType)
}

func TestPlaceOrderWaivesDeliveryAboveThreshold(t *testing.T) {
	repos := memory.NewRepositories()
	retailer := seedRetailer(t, repos)
	product := seedCrockeryProduct(t, repos)

	// 700 units = 58 sets, top tier at 8.00/piece; subtotal 5600 >= 5000
	order := placeTestOrder(t, repos, retailer, product, 700, "GATEWAY")

	assert.Equal(t, "5600.00", order.Subtotal.StringFixed(2))
	assert.Equal(t, "0.00", order.DeliveryCharge.StringFixed(2))
	assert.Equal(t, "0.00", order.CODCharge.StringFixed(2))
	assert.Equal(t, "6608.00", order.Total.StringFixed(2))
}

func TestPlaceOrderEmptyCart(t *testing.T) {
	repos := memory.NewRepositories()
	retailer := seedRetailer(t, repos)

	_, err := NewOrderService(repos, testChargePolicy(), nil, zap.NewNop()).PlaceOrder(context.Background(), retailer, PlaceOrderRequest{
		PaymentMethod: "COD",
		Shipping:      shippingFixture(),
	})
	var validationErr *errors.ErrValidation
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "cart", validationErr.Field)
}

func TestPlaceOrderInvalidPaymentMethod(t *testing.T) {
	repos := memory.NewRepositories()
	retailer := seedRetailer(t, repos)

	_, err := NewOrderService(repos, testChargePolicy(), nil, zap.NewNop()).PlaceOrder(context.Background(), retailer, PlaceOrderRequest{
		PaymentMethod: "CHEQUE",
		Shipping:      shippingFixture(),
	})
	var validationErr *errors.ErrValidation
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "payment_method", validationErr.Field)
}

func TestPlaceOrderInsufficientStockLeavesNothingBehind(t *testing.T) {
	repos := memory.NewRepositories()
	retailer := seedRetailer(t, repos)
	plates := seedCrockeryProduct(t, repos)
	ctx := context.Background()
	logger := zap.NewNop()

	cups := &domain.Product{
		SKU:            "CRK-CUP-06",
		Name:           "Steel Cup",
		UnitSet:        6,
		PerPiecePrice:  dec("4.00"),
		GSTRatePercent: dec("18"),
		StockUnits:     10,
		IsActive:       true,
	}
	require.NoError(t, repos.Product.Create(ctx, cups))

	cartService := NewCartService(repos, logger)
	_, err := cartService.SetItem(ctx, retailer.ID, plates.ID, 60)
	require.NoError(t, err)
	_, err = cartService.SetItem(ctx, retailer.ID, cups.ID, 50)
	require.NoError(t, err)

	_, err = NewOrderService(repos, testChargePolicy(), nil, logger).PlaceOrder(ctx, retailer, PlaceOrderRequest{
		PaymentMethod: "COD",
		Shipping:      shippingFixture(),
	})
	var stockErr *errors.ErrInsufficientStock
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, "CRK-CUP-06", stockErr.SKU)
	assert.Equal(t, 50, stockErr.Requested)
	assert.Equal(t, 10, stockErr.Available)

	// The failed placement must not have touched the other line's stock
	stored, err := repos.Product.GetByID(ctx, plates.ID)
	require.NoError(t, err)
	assert.Equal(t, 1000, stored.StockUnits)

	// Cart is kept so the retailer can fix the quantities
	cart, err := repos.Cart.GetOrCreate(ctx, retailer.ID)
	require.NoError(t, err)
	assert.Len(t, cart.Items, 2)
}

func TestOrderStatusLifecycle(t *testing.T) {
	repos := memory.NewRepositories()
	retailer := seedRetailer(t, repos)
	product := seedCrockeryProduct(t, repos)
	ctx := context.Background()
	orderService := NewOrderService(repos, testChargePolicy(), nil, zap.NewNop())

	order := placeTestOrder(t, repos, retailer, product, 60, "COD")

	// Pending orders cannot be delivered directly
	_, err := orderService.DeliverOrder(ctx, order.ID)
	var transitionErr *errors.ErrInvalidStateTransition
	require.ErrorAs(t, err, &transitionErr)
	assert.Equal(t, "PENDING", transitionErr.From)
	assert.Equal(t, "DELIVERED", transitionErr.To)

	confirmed, err := orderService.ConfirmOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusConfirmed, confirmed.Status)

	shipped, err := orderService.ShipOrder(ctx, order.ID, "Delhivery", "DLV-1234567890")
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusShipped, shipped.Status)
	require.NotNil(t, shipped.TrackingCarrier)
	assert.Equal(t, "Delhivery", *shipped.TrackingCarrier)
	require.NotNil(t, shipped.TrackingNumber)
	assert.Equal(t, "DLV-1234567890", *shipped.TrackingNumber)

	delivered, err := orderService.DeliverOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusDelivered, delivered.Status)

	// Delivered is terminal
	_, err = orderService.CancelOrder(ctx, order.ID, "changed mind")
	require.ErrorAs(t, err, &transitionErr)
}

func TestRejectOrderStoresReason(t *testing.T) {
	repos := memory.NewRepositories()
	retailer := seedRetailer(t, repos)
	product := seedCrockeryProduct(t, repos)
	ctx := context.Background()
	orderService := NewOrderService(repos, testChargePolicy(), nil, zap.NewNop())

	order := placeTestOrder(t, repos, retailer, product, 60, "COD")

	rejected, err := orderService.RejectOrder(ctx, order.ID, "out of delivery area")
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusRejected, rejected.Status)
	require.NotNil(t, rejected.RejectionReason)
	assert.Equal(t, "out of delivery area", *rejected.RejectionReason)

	stored, err := repos.Order.GetByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusRejected, stored.Status)
	require.NotNil(t, stored.RejectionReason)
	assert.Equal(t, "out of delivery area", *stored.RejectionReason)
}

func TestEditOrderRecomputesTotals(t *testing.T) {
	repos := memory.NewRepositories()
	retailer := seedRetailer(t, repos)
	product := seedCrockeryProduct(t, repos)
	ctx := context.Background()
	orderService := NewOrderService(repos, testChargePolicy(), nil, zap.NewNop())

	order := placeTestOrder(t, repos, retailer, product, 60, "COD")

	// Admin-entered price wins over the tier resolution
	edited, err := orderService.EditOrder(ctx, order.ID, OrderEditRequest{
		Lines: []OrderLineEdit{
			{ProductID: product.ID.String(), Quantity: 100, UnitPrice: dec("7.50")},
		},
		Discount: dec("50"),
	})
	require.NoError(t, err)
	assert.Equal(t, "750.00", edited.Subtotal.StringFixed(2))
	assert.Equal(t, "135.00", edited.TaxTotal.StringFixed(2))
	assert.Equal(t, "0.00", edited.DeliveryCharge.StringFixed(2))
	assert.Equal(t, "50.00", edited.Discount.StringFixed(2))
	assert.Equal(t, "835.00", edited.Total.StringFixed(2))
	assert.Equal(t, domain.PaymentStatusPending, edited.PaymentStatus)

	lines, err := repos.Order.GetLines(ctx, order.ID)
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, 100, lines[0].Quantity)
	assert.Equal(t, "7.50", lines[0].UnitPrice.StringFixed(2))
}

func TestEditOrderRefreshesTierPriceWhenNoPriceGiven(t *testing.T) {
	repos := memory.NewRepositories()
	retailer := seedRetailer(t, repos)
	product := seedCrockeryProduct(t, repos)
	ctx := context.Background()
	orderService := NewOrderService(repos, testChargePolicy(), nil, zap.NewNop())

	order := placeTestOrder(t, repos, retailer, product, 60, "COD")

	// 240 units = 20 sets, reaching the top tier at 8.00/piece
	edited, err := orderService.EditOrder(ctx, order.ID, OrderEditRequest{
		Lines: []OrderLineEdit{
			{ProductID: product.ID.String(), Quantity: 240},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "1920.00", edited.Subtotal.StringFixed(2))

	lines, err := repos.Order.GetLines(ctx, order.ID)
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, "8.00", lines[0].UnitPrice.StringFixed(2))
}

func TestEditOrderRejectedAfterShipping(t *testing.T) {
	repos := memory.NewRepositories()
	retailer := seedRetailer(t, repos)
	product := seedCrockeryProduct(t, repos)
	ctx := context.Background()
	orderService := NewOrderService(repos, testChargePolicy(), nil, zap.NewNop())

	order := placeTestOrder(t, repos, retailer, product, 60, "COD")
	_, err := orderService.ConfirmOrder(ctx, order.ID)
	require.NoError(t, err)
	_, err = orderService.ShipOrder(ctx, order.ID, "Delhivery", "DLV-42")
	require.NoError(t, err)

	_, err = orderService.EditOrder(ctx, order.ID, OrderEditRequest{
		Lines: []OrderLineEdit{
			{ProductID: product.ID.String(), Quantity: 10, UnitPrice: dec("9.00")},
		},
	})
	var validationErr *errors.ErrValidation
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "status", validationErr.Field)
}

func TestRecordPaymentDerivesStatus(t *testing.T) {
	repos := memory.NewRepositories()
	retailer := seedRetailer(t, repos)
	product := seedCrockeryProduct(t, repos)
	ctx := context.Background()
	orderService := NewOrderService(repos, testChargePolicy(), nil, zap.NewNop())

	// Total is 712.20 (540 + 97.20 tax + 50 delivery + 25 COD)
	order := placeTestOrder(t, repos, retailer, product, 60, "COD")

	partial, err := orderService.RecordPayment(ctx, order.ID, RecordPaymentRequest{
		Amount: dec("300"), Reference: "UTR-001",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentStatusPartiallyPaid, partial.PaymentStatus)
	assert.Equal(t, "300.00", partial.AmountPaid.StringFixed(2))

	paid, err := orderService.RecordPayment(ctx, order.ID, RecordPaymentRequest{
		Amount: dec("412.20"), Reference: "UTR-002",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentStatusPaid, paid.PaymentStatus)
	assert.Equal(t, "712.20", paid.AmountPaid.StringFixed(2))

	// Overpayment is kept; the pending amount goes negative
	over, err := orderService.RecordPayment(ctx, order.ID, RecordPaymentRequest{
		Amount: dec("100"), Reference: "UTR-003",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentStatusPaid, over.PaymentStatus)
	assert.Equal(t, "812.20", over.AmountPaid.StringFixed(2))
	assert.Equal(t, "-100.00", over.Total.Sub(over.AmountPaid).StringFixed(2))
}

func TestRecordPaymentRejectsNonPositiveAmount(t *testing.T) {
	repos := memory.NewRepositories()
	retailer := seedRetailer(t, repos)
	product := seedCrockeryProduct(t, repos)
	orderService := NewOrderService(repos, testChargePolicy(), nil, zap.NewNop())

	order := placeTestOrder(t, repos, retailer, product, 60, "COD")

	_, err := orderService.RecordPayment(context.Background(), order.ID, RecordPaymentRequest{
		Amount: dec("0"),
	})
	var validationErr *errors.ErrValidation
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "amount", validationErr.Field)
}
