package service

import (
	"github.com/shopspring/decimal"

	"github.com/bulkbazaar/wholesaleapi/internal/domain"
)

// CartItemRequest adds or re-quantifies one product in the cart
type CartItemRequest struct {
	ProductID string `json:"product_id" binding:"required"`
	Quantity  int    `json:"quantity" binding:"required,min=1"`
}

// ShippingAddress is the delivery address captured on order placement
type ShippingAddress struct {
	Street     string  `json:"street" binding:"required"`
	City       string  `json:"city" binding:"required"`
	State      *string `json:"state,omitempty"`
	PostalCode string  `json:"postal_code" binding:"required"`
	Country    string  `json:"country" binding:"required"`
}

// PlaceOrderRequest is the order placement payload
type PlaceOrderRequest struct {
	PaymentMethod string          `json:"payment_method" binding:"required"`
	Shipping      ShippingAddress `json:"shipping" binding:"required"`
}

// QuoteRequest asks for a price preview of one product at a quantity
type QuoteRequest struct {
	ProductID string `json:"product_id" binding:"required"`
	Quantity  int    `json:"quantity" binding:"required,min=1"`
}

// QuoteResponse is the computed preview. Amounts are fixed-point strings.
type QuoteResponse struct {
	ProductID    string     `json:"product_id"`
	SKU          string     `json:"sku"`
	Quantity     int        `json:"quantity"`
	UnitPrice    string     `json:"unit_price"`
	LineTotal    string     `json:"line_total"`
	TaxAmount    string     `json:"tax_amount"`
	TierApplied  *TierView  `json:"tier_applied,omitempty"`
}

// TierView describes the resolved bulk tier in quote responses
type TierView struct {
	MinimumSets        int    `json:"minimum_sets"`
	MaximumSets        int    `json:"maximum_sets,omitempty"`
	SellingPricePerSet string `json:"selling_price_per_set"`
}

// CartLineView is one priced cart entry in a cart preview
type CartLineView struct {
	ProductID string `json:"product_id"`
	SKU       string `json:"sku"`
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
	UnitPrice string `json:"unit_price"`
	LineTotal string `json:"line_total"`
}

// CartView is the cart with its display-only aggregate. Totals here are a
// preview; only the placed order's persisted totals are authoritative.
type CartView struct {
	CartID        string         `json:"cart_id"`
	Items         []CartLineView `json:"items"`
	Subtotal      string         `json:"subtotal"`
	TaxTotal      string         `json:"tax_total"`
	EstimatedTotal string        `json:"estimated_total"`
}

// OrderLineEdit is one line in an admin order edit
type OrderLineEdit struct {
	ProductID string          `json:"product_id" binding:"required"`
	Quantity  int             `json:"quantity" binding:"required,min=1"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

// OrderEditRequest is the admin order editor payload. Lines replace the
// order's existing lines; adjustment fields overwrite the stored ones.
type OrderEditRequest struct {
	Lines          []OrderLineEdit `json:"lines" binding:"required,min=1"`
	DeliveryCharge decimal.Decimal `json:"delivery_charge"`
	CODCharge      decimal.Decimal `json:"cod_charge"`
	Discount       decimal.Decimal `json:"discount"`
}

// RecordPaymentRequest records an amount received against an order
type RecordPaymentRequest struct {
	Amount    decimal.Decimal `json:"amount" binding:"required"`
	Reference string          `json:"reference,omitempty"`
}

// ProductRequest is the admin product create/update payload
type ProductRequest struct {
	SKU            string            `json:"sku" binding:"required"`
	Name           string            `json:"name" binding:"required"`
	Description    string            `json:"description"`
	Category       string            `json:"category"`
	UnitSet        int               `json:"unit_set"`
	PerPiecePrice  decimal.Decimal   `json:"per_piece_price"`
	MRP            decimal.Decimal   `json:"mrp"`
	GSTRatePercent decimal.Decimal   `json:"gst_rate_percent"`
	StockUnits     int               `json:"stock_units"`
	IsActive       *bool             `json:"is_active,omitempty"`
	BulkTiers      []BulkTierRequest `json:"bulk_tiers"`
}

// BulkTierRequest is one tier row in a product payload
type BulkTierRequest struct {
	MinimumSets        int             `json:"minimum_sets" binding:"required,min=1"`
	MaximumSets        int             `json:"maximum_sets"`
	SellingPricePerSet decimal.Decimal `json:"selling_price_per_set"`
	DiscountFromMRP    decimal.Decimal `json:"discount_from_mrp"`
}

// ToTiers converts tier rows to domain tiers
func toTiers(rows []BulkTierRequest) []domain.BulkTier {
	tiers := make([]domain.BulkTier, 0, len(rows))
	for _, row := range rows {
		tiers = append(tiers, domain.BulkTier{
			MinimumSets:        row.MinimumSets,
			MaximumSets:        row.MaximumSets,
			SellingPricePerSet: row.SellingPricePerSet,
			DiscountFromMRP:    row.DiscountFromMRP,
		})
	}
	return tiers
}
