package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/bulkbazaar/wholesaleapi/internal/domain"
	"github.com/bulkbazaar/wholesaleapi/internal/notify"
	"github.com/bulkbazaar/wholesaleapi/internal/pricing"
	"github.com/bulkbazaar/wholesaleapi/internal/repository"
	"github.com/bulkbazaar/wholesaleapi/pkg/errors"
)

type orderService struct {
	repos    *repository.Repositories
	charges  ChargePolicy
	notifier *notify.WebhookClient
	logger   *zap.Logger
}

// NewOrderService creates a new order service
func NewOrderService(repos *repository.Repositories, charges ChargePolicy, notifier *notify.WebhookClient, logger *zap.Logger) *orderService {
	return &orderService{
		repos:    repos,
		charges:  charges,
		notifier: notifier,
		logger:   logger,
	}
}

// PlaceOrder turns the retailer's cart into an order. Unit prices are
// re-resolved through the tier engine at this moment and frozen onto the
// order lines; the order insert and the per-line stock decrements commit as
// one transaction, and the cart is cleared afterwards.
func (s *orderService) PlaceOrder(ctx context.Context, retailer *domain.Retailer, req PlaceOrderRequest) (*domain.Order, error) {
	method := domain.PaymentMethod(req.PaymentMethod)
	if !method.IsValid() {
		return nil, &errors.ErrValidation{Field: "payment_method", Message: "must be COD or GATEWAY"}
	}

	cart, err := s.repos.Cart.GetOrCreate(ctx, retailer.ID)
	if err != nil {
		return nil, err
	}
	if len(cart.Items) == 0 {
		return nil, &errors.ErrValidation{Field: "cart", Message: "cart is empty"}
	}

	orderLines := make([]*domain.OrderLine, 0, len(cart.Items))
	priceLines := make([]pricing.Line, 0, len(cart.Items))
	for _, item := range cart.Items {
		product, err := s.repos.Product.GetByID(ctx, item.ProductID)
		if err != nil {
			return nil, err
		}
		if !product.IsActive {
			return nil, &errors.ErrValidation{Field: "cart", Message: "product " + product.SKU + " is no longer available"}
		}

		unitPrice, _, err := pricing.ResolveUnitPrice(product, item.Quantity)
		if err != nil {
			return nil, err
		}

		orderLines = append(orderLines, &domain.OrderLine{
			ProductID:      product.ID,
			SKU:            product.SKU,
			Name:           product.Name,
			Quantity:       item.Quantity,
			UnitPrice:      unitPrice,
			GSTRatePercent: product.GSTRatePercent,
		})
		priceLines = append(priceLines, pricing.Line{
			Quantity:       item.Quantity,
			UnitPrice:      unitPrice,
			GSTRatePercent: product.GSTRatePercent,
		})
	}

	subtotal := decimal.Zero
	for _, line := range priceLines {
		subtotal = subtotal.Add(line.UnitPrice.Mul(decimal.NewFromInt(int64(line.Quantity))))
	}
	adj := s.charges.AdjustmentsFor(subtotal, method)

	agg, err := pricing.ComputeAggregate(priceLines, adj)
	if err != nil {
		return nil, err
	}

	order := &domain.Order{
		RetailerID:     retailer.ID,
		Status:         domain.OrderStatusPending,
		PaymentMethod:  method,
		PaymentStatus:  domain.PaymentStatusPending,
		Subtotal:       agg.Subtotal,
		TaxTotal:       agg.TaxTotal,
		DeliveryCharge: agg.DeliveryCharge,
		CODCharge:      agg.CODCharge,
		Discount:       agg.Discount,
		Total:          agg.Total,
		AmountPaid:     agg.AmountPaid,
	}

	order.ShippingAddress = map[string]interface{}{
		"street":      req.Shipping.Street,
		"city":        req.Shipping.City,
		"postal_code": req.Shipping.PostalCode,
		"country":     req.Shipping.Country,
	}
	if req.Shipping.State != nil {
		order.ShippingAddress["state"] = *req.Shipping.State
	}

	if err := s.repos.Order.CreateWithLines(ctx, order, orderLines); err != nil {
		return nil, err
	}

	if err := s.repos.Cart.Clear(ctx, cart.ID); err != nil {
		s.logger.Warn("Failed to clear cart after order placement", zap.Error(err))
	}

	event := &domain.OrderEvent{
		OrderID:   order.ID,
		EventType: "order_created",
		EventData: map[string]interface{}{
			"status":         order.Status,
			"payment_method": order.PaymentMethod,
			"total":          order.Total.StringFixed(2),
		},
	}
	s.repos.OrderEvent.Create(ctx, event)

	if s.notifier != nil {
		s.notifier.NotifyOrderStatus(ctx, retailer, order)
	}

	return order, nil
}

// transition moves an order between statuses with state-machine validation
func (s *orderService) transition(ctx context.Context, orderID uuid.UUID, to domain.OrderStatus, reason *string) (*domain.Order, error) {
	order, err := s.repos.Order.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if !order.Status.CanTransitionTo(to) {
		return nil, &errors.ErrInvalidStateTransition{
			From: string(order.Status),
			To:   string(to),
		}
	}

	if err := s.repos.Order.UpdateStatus(ctx, orderID, to, reason); err != nil {
		return nil, err
	}

	event := &domain.OrderEvent{
		OrderID:   orderID,
		EventType: "status_change",
		EventData: map[string]interface{}{
			"from": order.Status,
			"to":   to,
		},
	}
	if reason != nil {
		event.EventData["reason"] = *reason
	}
	s.repos.OrderEvent.Create(ctx, event)

	order.Status = to
	order.RejectionReason = reason
	s.notifyRetailer(ctx, order)

	return order, nil
}

// ConfirmOrder confirms a pending order
func (s *orderService) ConfirmOrder(ctx context.Context, orderID uuid.UUID) (*domain.Order, error) {
	return s.transition(ctx, orderID, domain.OrderStatusConfirmed, nil)
}

// RejectOrder rejects a pending order
func (s *orderService) RejectOrder(ctx context.Context, orderID uuid.UUID, reason string) (*domain.Order, error) {
	return s.transition(ctx, orderID, domain.OrderStatusRejected, &reason)
}

// CancelOrder cancels an order that has not shipped
func (s *orderService) CancelOrder(ctx context.Context, orderID uuid.UUID, reason string) (*domain.Order, error) {
	return s.transition(ctx, orderID, domain.OrderStatusCancelled, &reason)
}

// DeliverOrder marks a shipped order delivered
func (s *orderService) DeliverOrder(ctx context.Context, orderID uuid.UUID) (*domain.Order, error) {
	return s.transition(ctx, orderID, domain.OrderStatusDelivered, nil)
}

// ShipOrder marks an order as shipped with tracking information
func (s *orderService) ShipOrder(ctx context.Context, orderID uuid.UUID, carrier, trackingNumber string) (*domain.Order, error) {
	order, err := s.repos.Order.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if !order.Status.CanTransitionTo(domain.OrderStatusShipped) {
		return nil, &errors.ErrInvalidStateTransition{
			From: string(order.Status),
			To:   string(domain.OrderStatusShipped),
		}
	}

	if err := s.repos.Order.UpdateTracking(ctx, orderID, &carrier, &trackingNumber); err != nil {
		return nil, err
	}

	event := &domain.OrderEvent{
		OrderID:   orderID,
		EventType: "status_change",
		EventData: map[string]interface{}{
			"from":            order.Status,
			"to":              domain.OrderStatusShipped,
			"carrier":         carrier,
			"tracking_number": trackingNumber,
		},
	}
	s.repos.OrderEvent.Create(ctx, event)

	order.Status = domain.OrderStatusShipped
	order.TrackingCarrier = &carrier
	order.TrackingNumber = &trackingNumber
	s.notifyRetailer(ctx, order)

	return order, nil
}

// EditOrder replaces an order's lines and adjustments and recomputes the
// stored totals through the engine. Allowed only before shipping. Line unit
// prices default to a fresh tier resolution but an admin-entered price wins.
func (s *orderService) EditOrder(ctx context.Context, orderID uuid.UUID, req OrderEditRequest) (*domain.Order, error) {
	order, err := s.repos.Order.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	switch order.Status {
	case domain.OrderStatusPending, domain.OrderStatusConfirmed:
	default:
		return nil, &errors.ErrValidation{Field: "status", Message: "order can no longer be edited"}
	}

	orderLines := make([]*domain.OrderLine, 0, len(req.Lines))
	priceLines := make([]pricing.Line, 0, len(req.Lines))
	for _, edit := range req.Lines {
		productID, err := uuid.Parse(edit.ProductID)
		if err != nil {
			return nil, &errors.ErrValidation{Field: "product_id", Message: "must be a valid UUID"}
		}
		product, err := s.repos.Product.GetByID(ctx, productID)
		if err != nil {
			return nil, err
		}

		unitPrice := edit.UnitPrice
		if unitPrice.IsZero() {
			unitPrice, _, err = pricing.ResolveUnitPrice(product, edit.Quantity)
			if err != nil {
				return nil, err
			}
		}
		if unitPrice.IsNegative() {
			return nil, &errors.ErrValidation{Field: "unit_price", Message: "must not be negative"}
		}

		orderLines = append(orderLines, &domain.OrderLine{
			ProductID:      product.ID,
			SKU:            product.SKU,
			Name:           product.Name,
			Quantity:       edit.Quantity,
			UnitPrice:      unitPrice,
			GSTRatePercent: product.GSTRatePercent,
		})
		priceLines = append(priceLines, pricing.Line{
			Quantity:       edit.Quantity,
			UnitPrice:      unitPrice,
			GSTRatePercent: product.GSTRatePercent,
		})
	}

	agg, err := pricing.ComputeAggregate(priceLines, pricing.Adjustments{
		DeliveryCharge: req.DeliveryCharge,
		CODCharge:      req.CODCharge,
		Discount:       req.Discount,
		AmountPaid:     order.AmountPaid,
	})
	if err != nil {
		return nil, err
	}

	order.Subtotal = agg.Subtotal
	order.TaxTotal = agg.TaxTotal
	order.DeliveryCharge = agg.DeliveryCharge
	order.CODCharge = agg.CODCharge
	order.Discount = agg.Discount
	order.Total = agg.Total
	order.PaymentStatus = paymentStatusFor(order.AmountPaid, order.Total)

	if err := s.repos.Order.ReplaceLinesAndTotals(ctx, order, orderLines); err != nil {
		return nil, err
	}

	event := &domain.OrderEvent{
		OrderID:   orderID,
		EventType: "order_edited",
		EventData: map[string]interface{}{
			"line_count": len(orderLines),
			"total":      order.Total.StringFixed(2),
		},
	}
	s.repos.OrderEvent.Create(ctx, event)

	return order, nil
}

// RecordPayment adds a received amount to the order and derives the payment
// status. Amounts beyond the total are kept as-is; the pending amount simply
// goes negative for overpaid orders.
func (s *orderService) RecordPayment(ctx context.Context, orderID uuid.UUID, req RecordPaymentRequest) (*domain.Order, error) {
	if !req.Amount.IsPositive() {
		return nil, &errors.ErrValidation{Field: "amount", Message: "must be positive"}
	}

	order, err := s.repos.Order.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	order.AmountPaid = order.AmountPaid.Add(req.Amount)
	order.PaymentStatus = paymentStatusFor(order.AmountPaid, order.Total)

	if err := s.repos.Order.RecordPayment(ctx, orderID, order.AmountPaid, order.PaymentStatus); err != nil {
		return nil, err
	}

	event := &domain.OrderEvent{
		OrderID:   orderID,
		EventType: "payment_recorded",
		EventData: map[string]interface{}{
			"amount":         req.Amount.StringFixed(2),
			"amount_paid":    order.AmountPaid.StringFixed(2),
			"payment_status": order.PaymentStatus,
		},
	}
	if req.Reference != "" {
		event.EventData["reference"] = req.Reference
	}
	s.repos.OrderEvent.Create(ctx, event)

	s.notifyRetailer(ctx, order)

	return order, nil
}

func (s *orderService) notifyRetailer(ctx context.Context, order *domain.Order) {
	if s.notifier == nil {
		return
	}
	retailer, err := s.repos.Retailer.GetByID(ctx, order.RetailerID)
	if err != nil {
		s.logger.Warn("Failed to load retailer for webhook", zap.Error(err))
		return
	}
	s.notifier.NotifyOrderStatus(ctx, retailer, order)
}

func paymentStatusFor(amountPaid, total decimal.Decimal) domain.PaymentStatus {
	switch {
	case amountPaid.IsZero():
		return domain.PaymentStatusPending
	case amountPaid.LessThan(total):
		return domain.PaymentStatusPartiallyPaid
	default:
		return domain.PaymentStatusPaid
	}
}
