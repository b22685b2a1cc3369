package service

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/bulkbazaar/wholesaleapi/internal/config"
	"github.com/bulkbazaar/wholesaleapi/internal/domain"
	"github.com/bulkbazaar/wholesaleapi/internal/pricing"
)

// ChargePolicy derives order-level adjustments from configuration: a flat
// delivery charge waived above a threshold, and a COD surcharge.
type ChargePolicy struct {
	DeliveryCharge    decimal.Decimal
	FreeDeliveryAbove decimal.Decimal
	CODCharge         decimal.Decimal
}

// NewChargePolicy parses the configured charge amounts
func NewChargePolicy(cfg config.ChargesConfig) (ChargePolicy, error) {
	delivery, err := decimal.NewFromString(cfg.DeliveryCharge)
	if err != nil {
		return ChargePolicy{}, fmt.Errorf("invalid DELIVERY_CHARGE: %w", err)
	}
	freeAbove, err := decimal.NewFromString(cfg.FreeDeliveryAbove)
	if err != nil {
		return ChargePolicy{}, fmt.Errorf("invalid FREE_DELIVERY_ABOVE: %w", err)
	}
	cod, err := decimal.NewFromString(cfg.CODCharge)
	if err != nil {
		return ChargePolicy{}, fmt.Errorf("invalid COD_CHARGE: %w", err)
	}
	return ChargePolicy{
		DeliveryCharge:    delivery,
		FreeDeliveryAbove: freeAbove,
		CODCharge:         cod,
	}, nil
}

// AdjustmentsFor returns the adjustments applying to an order with the given
// subtotal paid via method. Delivery is waived when the subtotal reaches the
// configured threshold; the COD surcharge applies only to COD orders.
func (p ChargePolicy) AdjustmentsFor(subtotal decimal.Decimal, method domain.PaymentMethod) pricing.Adjustments {
	adj := pricing.Adjustments{DeliveryCharge: p.DeliveryCharge}
	if p.FreeDeliveryAbove.IsPositive() && subtotal.GreaterThanOrEqual(p.FreeDeliveryAbove) {
		adj.DeliveryCharge = decimal.Zero
	}
	if method == domain.PaymentMethodCOD {
		adj.CODCharge = p.CODCharge
	}
	return adj
}
