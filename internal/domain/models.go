package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Retailer represents a buying business account
type Retailer struct {
	ID         uuid.UUID
	Name       string
	Phone      string
	APIKeyHash string
	WebhookURL *string
	IsActive   bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// BulkTier is a quantity band mapped to a per-set price.
// Bounds are expressed in sets; MaximumSets == 0 means unbounded.
type BulkTier struct {
	MinimumSets        int
	MaximumSets        int
	SellingPricePerSet decimal.Decimal
	DiscountFromMRP    decimal.Decimal
}

// Product represents a catalog product with its pricing context
type Product struct {
	ID             uuid.UUID
	SKU            string
	Name           string
	Description    string
	Category       string
	UnitSet        int // base units per packaging set, >= 1
	PerPiecePrice  decimal.Decimal
	MRP            decimal.Decimal
	GSTRatePercent decimal.Decimal
	BulkTiers      []BulkTier
	StockUnits     int
	IsActive       bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Cart represents a retailer's open cart (one per retailer)
type Cart struct {
	ID         uuid.UUID
	RetailerID uuid.UUID
	Items      []CartItem
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// CartItem is one product entry in a cart. UnitPrice is frozen at add time.
type CartItem struct {
	ID        uuid.UUID
	CartID    uuid.UUID
	ProductID uuid.UUID
	Quantity  int // base units
	UnitPrice decimal.Decimal
	AddedAt   time.Time
}

// Order represents a placed order
type Order struct {
	ID              uuid.UUID
	RetailerID      uuid.UUID
	Status          OrderStatus
	PaymentMethod   PaymentMethod
	PaymentStatus   PaymentStatus
	ShippingAddress map[string]interface{} // JSONB
	Subtotal        decimal.Decimal
	TaxTotal        decimal.Decimal
	DeliveryCharge  decimal.Decimal
	CODCharge       decimal.Decimal
	Discount        decimal.Decimal
	Total           decimal.Decimal
	AmountPaid      decimal.Decimal
	RejectionReason *string
	TrackingCarrier *string
	TrackingNumber  *string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// OrderLine is one product entry in an order. UnitPrice and GSTRatePercent
// are frozen when the order is placed and survive later tier edits.
type OrderLine struct {
	ID             uuid.UUID
	OrderID        uuid.UUID
	ProductID      uuid.UUID
	SKU            string
	Name           string
	Quantity       int // base units
	UnitPrice      decimal.Decimal
	GSTRatePercent decimal.Decimal
	CreatedAt      time.Time
}

// IdempotencyKey stores idempotency information for order placement
type IdempotencyKey struct {
	Key         string
	RetailerID  uuid.UUID
	OrderID     uuid.UUID
	RequestHash string
	CreatedAt   time.Time
}

// OrderEvent represents an audit event for an order
type OrderEvent struct {
	ID        uuid.UUID
	OrderID   uuid.UUID
	EventType string
	EventData map[string]interface{} // JSONB
	CreatedAt time.Time
}

// AdminUser represents a back-office account
type AdminUser struct {
	ID           uuid.UUID
	Username     string
	PasswordHash string
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
