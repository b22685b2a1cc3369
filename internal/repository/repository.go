package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/bulkbazaar/wholesaleapi/internal/domain"
)

// RetailerRepository manages retailer accounts
type RetailerRepository interface {
	GetByAPIKey(ctx context.Context, apiKey string) (*domain.Retailer, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Retailer, error)
	Create(ctx context.Context, retailer *domain.Retailer) error
	Update(ctx context.Context, retailer *domain.Retailer) error
}

// ProductRepository manages catalog products and their bulk tiers
type ProductRepository interface {
	Create(ctx context.Context, product *domain.Product) error
	Update(ctx context.Context, product *domain.Product) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Product, error)
	GetBySKU(ctx context.Context, sku string) (*domain.Product, error)
	List(ctx context.Context, onlyActive bool, limit, offset int) ([]*domain.Product, error)
	SetActive(ctx context.Context, id uuid.UUID, active bool) error
}

// CartRepository manages retailer carts
type CartRepository interface {
	GetOrCreate(ctx context.Context, retailerID uuid.UUID) (*domain.Cart, error)
	UpsertItem(ctx context.Context, cartID uuid.UUID, item *domain.CartItem) error
	RemoveItem(ctx context.Context, cartID, productID uuid.UUID) error
	Clear(ctx context.Context, cartID uuid.UUID) error
	RemoveProductFromAllCarts(ctx context.Context, productID uuid.UUID) (int64, error)
}

// OrderRepository manages orders and their lines
type OrderRepository interface {
	// CreateWithLines persists the order, its lines and the per-line stock
	// decrement as one transaction. It fails with ErrInsufficientStock when
	// any referenced product has fewer units than the line asks for.
	CreateWithLines(ctx context.Context, order *domain.Order, lines []*domain.OrderLine) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Order, error)
	GetLines(ctx context.Context, orderID uuid.UUID) ([]*domain.OrderLine, error)
	ListByRetailerID(ctx context.Context, retailerID uuid.UUID, limit, offset int) ([]*domain.Order, error)
	ListByStatus(ctx context.Context, status domain.OrderStatus, limit, offset int) ([]*domain.Order, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status domain.OrderStatus, reason *string) error
	UpdateTracking(ctx context.Context, id uuid.UUID, carrier, trackingNumber *string) error
	// ReplaceLinesAndTotals swaps the order's lines and stores the recomputed
	// aggregate, used by the admin order editor.
	ReplaceLinesAndTotals(ctx context.Context, order *domain.Order, lines []*domain.OrderLine) error
	RecordPayment(ctx context.Context, id uuid.UUID, amountPaid decimal.Decimal, status domain.PaymentStatus) error
}

// OrderEventRepository manages the order audit trail
type OrderEventRepository interface {
	Create(ctx context.Context, event *domain.OrderEvent) error
	ListByOrderID(ctx context.Context, orderID uuid.UUID) ([]*domain.OrderEvent, error)
}

// IdempotencyKeyRepository manages order-placement dedupe records
type IdempotencyKeyRepository interface {
	Get(ctx context.Context, key string) (*domain.IdempotencyKey, error)
	Create(ctx context.Context, record *domain.IdempotencyKey) error
}

// AdminUserRepository manages back-office accounts
type AdminUserRepository interface {
	GetByUsername(ctx context.Context, username string) (*domain.AdminUser, error)
	Create(ctx context.Context, user *domain.AdminUser) error
}

// Repositories aggregates all repository interfaces
type Repositories struct {
	Retailer       RetailerRepository
	Product        ProductRepository
	Cart           CartRepository
	Order          OrderRepository
	OrderEvent     OrderEventRepository
	IdempotencyKey IdempotencyKeyRepository
	AdminUser      AdminUserRepository
}
