// Package memory provides an in-memory implementation of the repository
// interfaces. It backs service tests and local development without Postgres.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"github.com/bulkbazaar/wholesaleapi/internal/domain"
	"github.com/bulkbazaar/wholesaleapi/internal/repository"
	"github.com/bulkbazaar/wholesaleapi/pkg/errors"
)

type store struct {
	mu sync.RWMutex

	retailers   map[uuid.UUID]*domain.Retailer
	products    map[uuid.UUID]*domain.Product
	carts       map[uuid.UUID]*domain.Cart // keyed by retailer ID
	orders      map[uuid.UUID]*domain.Order
	orderLines  map[uuid.UUID][]*domain.OrderLine
	orderEvents map[uuid.UUID][]*domain.OrderEvent
	idemKeys    map[string]*domain.IdempotencyKey
	adminUsers  map[string]*domain.AdminUser
}

// NewRepositories returns a repository aggregate backed by a shared
// in-memory store.
func NewRepositories() *repository.Repositories {
	s := &store{
		retailers:   make(map[uuid.UUID]*domain.Retailer),
		products:    make(map[uuid.UUID]*domain.Product),
		carts:       make(map[uuid.UUID]*domain.Cart),
		orders:      make(map[uuid.UUID]*domain.Order),
		orderLines:  make(map[uuid.UUID][]*domain.OrderLine),
		orderEvents: make(map[uuid.UUID][]*domain.OrderEvent),
		idemKeys:    make(map[string]*domain.IdempotencyKey),
		adminUsers:  make(map[string]*domain.AdminUser),
	}
	return &repository.Repositories{
		Retailer:       &retailerStore{s},
		Product:        &productStore{s},
		Cart:           &cartStore{s},
		Order:          &orderStore{s},
		OrderEvent:     &orderEventStore{s},
		IdempotencyKey: &idempotencyStore{s},
		AdminUser:      &adminUserStore{s},
	}
}

type retailerStore struct{ s *store }

func (r *retailerStore) GetByAPIKey(ctx context.Context, apiKey string) (*domain.Retailer, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, retailer := range r.s.retailers {
		if !retailer.IsActive {
			continue
		}
		if bcrypt.CompareHashAndPassword([]byte(retailer.APIKeyHash), []byte(apiKey)) == nil {
			clone := *retailer
			return &clone, nil
		}
	}
	return nil, &errors.ErrUnauthorized{Message: "invalid API key"}
}

func (r *retailerStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Retailer, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	retailer, ok := r.s.retailers[id]
	if !ok {
		return nil, &errors.ErrNotFound{Resource: "retailer", ID: id.String()}
	}
	clone := *retailer
	return &clone, nil
}

func (r *retailerStore) Create(ctx context.Context, retailer *domain.Retailer) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if retailer.ID == uuid.Nil {
		retailer.ID = uuid.New()
	}
	stamp(&retailer.CreatedAt, &retailer.UpdatedAt)
	clone := *retailer
	r.s.retailers[retailer.ID] = &clone
	return nil
}

func (r *retailerStore) Update(ctx context.Context, retailer *domain.Retailer) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.retailers[retailer.ID]; !ok {
		return &errors.ErrNotFound{Resource: "retailer", ID: retailer.ID.String()}
	}
	retailer.UpdatedAt = time.Now()
	clone := *retailer
	r.s.retailers[retailer.ID] = &clone
	return nil
}

type productStore struct{ s *store }

func (p *productStore) Create(ctx context.Context, product *domain.Product) error {
	p.s.mu.Lock()
	defer p.s.mu.Unlock()
	if product.ID == uuid.Nil {
		product.ID = uuid.New()
	}
	if product.UnitSet < 1 {
		product.UnitSet = 1
	}
	stamp(&product.CreatedAt, &product.UpdatedAt)
	clone := cloneProduct(product)
	p.s.products[product.ID] = clone
	return nil
}

func (p *productStore) Update(ctx context.Context, product *domain.Product) error {
	p.s.mu.Lock()
	defer p.s.mu.Unlock()
	if _, ok := p.s.products[product.ID]; !ok {
		return &errors.ErrNotFound{Resource: "product", ID: product.ID.String()}
	}
	if product.UnitSet < 1 {
		product.UnitSet = 1
	}
	product.UpdatedAt = time.Now()
	p.s.products[product.ID] = cloneProduct(product)
	return nil
}

func (p *productStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	p.s.mu.RLock()
	defer p.s.mu.RUnlock()
	product, ok := p.s.products[id]
	if !ok {
		return nil, &errors.ErrNotFound{Resource: "product", ID: id.String()}
	}
	return cloneProduct(product), nil
}

func (p *productStore) GetBySKU(ctx context.Context, sku string) (*domain.Product, error) {
	p.s.mu.RLock()
	defer p.s.mu.RUnlock()
	for _, product := range p.s.products {
		if product.SKU == sku {
			return cloneProduct(product), nil
		}
	}
	return nil, &errors.ErrNotFound{Resource: "product", ID: sku}
}

func (p *productStore) List(ctx context.Context, onlyActive bool, limit, offset int) ([]*domain.Product, error) {
	p.s.mu.RLock()
	defer p.s.mu.RUnlock()
	var products []*domain.Product
	for _, product := range p.s.products {
		if onlyActive && !product.IsActive {
			continue
		}
		products = append(products, cloneProduct(product))
	}
	sort.Slice(products, func(i, j int) bool {
		return products[i].CreatedAt.After(products[j].CreatedAt)
	})
	return paginate(products, limit, offset), nil
}

func (p *productStore) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	p.s.mu.Lock()
	defer p.s.mu.Unlock()
	product, ok := p.s.products[id]
	if !ok {
		return &errors.ErrNotFound{Resource: "product", ID: id.String()}
	}
	product.IsActive = active
	product.UpdatedAt = time.Now()
	return nil
}

type cartStore struct{ s *store }

func (c *cartStore) GetOrCreate(ctx context.Context, retailerID uuid.UUID) (*domain.Cart, error) {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()
	cart, ok := c.s.carts[retailerID]
	if !ok {
		now := time.Now()
		cart = &domain.Cart{
			ID:         uuid.New(),
			RetailerID: retailerID,
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		c.s.carts[retailerID] = cart
	}
	clone := *cart
	clone.Items = append([]domain.CartItem(nil), cart.Items...)
	return &clone, nil
}

func (c *cartStore) UpsertItem(ctx context.Context, cartID uuid.UUID, item *domain.CartItem) error {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()
	cart := c.findCart(cartID)
	if cart == nil {
		return &errors.ErrNotFound{Resource: "cart", ID: cartID.String()}
	}
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	item.CartID = cartID
	if item.AddedAt.IsZero() {
		item.AddedAt = time.Now()
	}
	for i := range cart.Items {
		if cart.Items[i].ProductID == item.ProductID {
			cart.Items[i].Quantity = item.Quantity
			cart.Items[i].UnitPrice = item.UnitPrice
			return nil
		}
	}
	cart.Items = append(cart.Items, *item)
	return nil
}

func (c *cartStore) RemoveItem(ctx context.Context, cartID, productID uuid.UUID) error {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()
	cart := c.findCart(cartID)
	if cart == nil {
		return &errors.ErrNotFound{Resource: "cart", ID: cartID.String()}
	}
	kept := cart.Items[:0]
	for _, item := range cart.Items {
		if item.ProductID != productID {
			kept = append(kept, item)
		}
	}
	cart.Items = kept
	return nil
}

func (c *cartStore) Clear(ctx context.Context, cartID uuid.UUID) error {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()
	cart := c.findCart(cartID)
	if cart == nil {
		return &errors.ErrNotFound{Resource: "cart", ID: cartID.String()}
	}
	cart.Items = nil
	return nil
}

func (c *cartStore) RemoveProductFromAllCarts(ctx context.Context, productID uuid.UUID) (int64, error) {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()
	var removed int64
	for _, cart := range c.s.carts {
		kept := cart.Items[:0]
		for _, item := range cart.Items {
			if item.ProductID == productID {
				removed++
				continue
			}
			kept = append(kept, item)
		}
		cart.Items = kept
	}
	return removed, nil
}

func (c *cartStore) findCart(cartID uuid.UUID) *domain.Cart {
	for _, cart := range c.s.carts {
		if cart.ID == cartID {
			return cart
		}
	}
	return nil
}

type orderStore struct{ s *store }

func (o *orderStore) CreateWithLines(ctx context.Context, order *domain.Order, lines []*domain.OrderLine) error {
	o.s.mu.Lock()
	defer o.s.mu.Unlock()

	// Check all lines before mutating anything, mirroring the transactional
	// all-or-nothing behaviour of the Postgres implementation.
	for _, line := range lines {
		product, ok := o.s.products[line.ProductID]
		if !ok {
			return &errors.ErrNotFound{Resource: "product", ID: line.ProductID.String()}
		}
		if product.StockUnits < line.Quantity {
			return &errors.ErrInsufficientStock{
				SKU:       line.SKU,
				Requested: line.Quantity,
				Available: product.StockUnits,
			}
		}
	}

	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	stamp(&order.CreatedAt, &order.UpdatedAt)

	for _, line := range lines {
		if line.ID == uuid.Nil {
			line.ID = uuid.New()
		}
		line.OrderID = order.ID
		if line.CreatedAt.IsZero() {
			line.CreatedAt = order.CreatedAt
		}
		o.s.products[line.ProductID].StockUnits -= line.Quantity
	}

	clone := *order
	o.s.orders[order.ID] = &clone
	o.s.orderLines[order.ID] = cloneLines(lines)
	return nil
}

func (o *orderStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	o.s.mu.RLock()
	defer o.s.mu.RUnlock()
	order, ok := o.s.orders[id]
	if !ok {
		return nil, &errors.ErrNotFound{Resource: "order", ID: id.String()}
	}
	clone := *order
	return &clone, nil
}

func (o *orderStore) GetLines(ctx context.Context, orderID uuid.UUID) ([]*domain.OrderLine, error) {
	o.s.mu.RLock()
	defer o.s.mu.RUnlock()
	return cloneLines(o.s.orderLines[orderID]), nil
}

func (o *orderStore) ListByRetailerID(ctx context.Context, retailerID uuid.UUID, limit, offset int) ([]*domain.Order, error) {
	return o.listFiltered(func(order *domain.Order) bool {
		return order.RetailerID == retailerID
	}, limit, offset)
}

func (o *orderStore) ListByStatus(ctx context.Context, status domain.OrderStatus, limit, offset int) ([]*domain.Order, error) {
	return o.listFiltered(func(order *domain.Order) bool {
		return status == "" || order.Status == status
	}, limit, offset)
}

func (o *orderStore) listFiltered(keep func(*domain.Order) bool, limit, offset int) ([]*domain.Order, error) {
	o.s.mu.RLock()
	defer o.s.mu.RUnlock()
	var orders []*domain.Order
	for _, order := range o.s.orders {
		if keep(order) {
			clone := *order
			orders = append(orders, &clone)
		}
	}
	sort.Slice(orders, func(i, j int) bool {
		return orders[i].CreatedAt.After(orders[j].CreatedAt)
	})
	return paginate(orders, limit, offset), nil
}

func (o *orderStore) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.OrderStatus, reason *string) error {
	o.s.mu.Lock()
	defer o.s.mu.Unlock()
	order, ok := o.s.orders[id]
	if !ok {
		return &errors.ErrNotFound{Resource: "order", ID: id.String()}
	}
	order.Status = status
	order.RejectionReason = reason
	order.UpdatedAt = time.Now()
	return nil
}

func (o *orderStore) UpdateTracking(ctx context.Context, id uuid.UUID, carrier, trackingNumber *string) error {
	o.s.mu.Lock()
	defer o.s.mu.Unlock()
	order, ok := o.s.orders[id]
	if !ok {
		return &errors.ErrNotFound{Resource: "order", ID: id.String()}
	}
	order.Status = domain.OrderStatusShipped
	order.TrackingCarrier = carrier
	order.TrackingNumber = trackingNumber
	order.UpdatedAt = time.Now()
	return nil
}

func (o *orderStore) ReplaceLinesAndTotals(ctx context.Context, order *domain.Order, lines []*domain.OrderLine) error {
	o.s.mu.Lock()
	defer o.s.mu.Unlock()
	stored, ok := o.s.orders[order.ID]
	if !ok {
		return &errors.ErrNotFound{Resource: "order", ID: order.ID.String()}
	}
	stored.Subtotal = order.Subtotal
	stored.TaxTotal = order.TaxTotal
	stored.DeliveryCharge = order.DeliveryCharge
	stored.CODCharge = order.CODCharge
	stored.Discount = order.Discount
	stored.Total = order.Total
	stored.AmountPaid = order.AmountPaid
	stored.PaymentStatus = order.PaymentStatus
	stored.UpdatedAt = time.Now()
	for _, line := range lines {
		if line.ID == uuid.Nil {
			line.ID = uuid.New()
		}
		line.OrderID = order.ID
		if line.CreatedAt.IsZero() {
			line.CreatedAt = stored.UpdatedAt
		}
	}
	o.s.orderLines[order.ID] = cloneLines(lines)
	return nil
}

func (o *orderStore) RecordPayment(ctx context.Context, id uuid.UUID, amountPaid decimal.Decimal, status domain.PaymentStatus) error {
	o.s.mu.Lock()
	defer o.s.mu.Unlock()
	order, ok := o.s.orders[id]
	if !ok {
		return &errors.ErrNotFound{Resource: "order", ID: id.String()}
	}
	order.AmountPaid = amountPaid
	order.PaymentStatus = status
	order.UpdatedAt = time.Now()
	return nil
}

type orderEventStore struct{ s *store }

func (e *orderEventStore) Create(ctx context.Context, event *domain.OrderEvent) error {
	e.s.mu.Lock()
	defer e.s.mu.Unlock()
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}
	clone := *event
	e.s.orderEvents[event.OrderID] = append(e.s.orderEvents[event.OrderID], &clone)
	return nil
}

func (e *orderEventStore) ListByOrderID(ctx context.Context, orderID uuid.UUID) ([]*domain.OrderEvent, error) {
	e.s.mu.RLock()
	defer e.s.mu.RUnlock()
	events := e.s.orderEvents[orderID]
	out := make([]*domain.OrderEvent, len(events))
	for i, event := range events {
		clone := *event
		out[i] = &clone
	}
	return out, nil
}

type idempotencyStore struct{ s *store }

func (i *idempotencyStore) Get(ctx context.Context, key string) (*domain.IdempotencyKey, error) {
	i.s.mu.RLock()
	defer i.s.mu.RUnlock()
	record, ok := i.s.idemKeys[key]
	if !ok {
		return nil, &errors.ErrNotFound{Resource: "idempotency key", ID: key}
	}
	clone := *record
	return &clone, nil
}

func (i *idempotencyStore) Create(ctx context.Context, record *domain.IdempotencyKey) error {
	i.s.mu.Lock()
	defer i.s.mu.Unlock()
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now()
	}
	clone := *record
	i.s.idemKeys[record.Key] = &clone
	return nil
}

type adminUserStore struct{ s *store }

func (a *adminUserStore) GetByUsername(ctx context.Context, username string) (*domain.AdminUser, error) {
	a.s.mu.RLock()
	defer a.s.mu.RUnlock()
	user, ok := a.s.adminUsers[username]
	if !ok {
		return nil, &errors.ErrNotFound{Resource: "admin user", ID: username}
	}
	clone := *user
	return &clone, nil
}

func (a *adminUserStore) Create(ctx context.Context, user *domain.AdminUser) error {
	a.s.mu.Lock()
	defer a.s.mu.Unlock()
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	stamp(&user.CreatedAt, &user.UpdatedAt)
	clone := *user
	a.s.adminUsers[user.Username] = &clone
	return nil
}

func stamp(createdAt, updatedAt *time.Time) {
	now := time.Now()
	if createdAt.IsZero() {
		*createdAt = now
	}
	if updatedAt.IsZero() {
		*updatedAt = now
	}
}

func cloneProduct(p *domain.Product) *domain.Product {
	clone := *p
	clone.BulkTiers = append([]domain.BulkTier(nil), p.BulkTiers...)
	return &clone
}

func cloneLines(lines []*domain.OrderLine) []*domain.OrderLine {
	out := make([]*domain.OrderLine, len(lines))
	for i, line := range lines {
		clone := *line
		out[i] = &clone
	}
	return out
}

func paginate[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return nil
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
