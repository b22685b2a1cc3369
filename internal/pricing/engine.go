// Package pricing implements bulk tier resolution and order total computation.
// It is the single canonical implementation consumed by the cart, quote, order
// and admin paths so their previews and persisted totals never drift.
//
// All functions are pure: they read their inputs, return a result, and touch
// no shared state. Monetary values are decimals; intermediate sums keep full
// precision and rounding to 2 decimal places happens only on output.
package pricing

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/bulkbazaar/wholesaleapi/internal/domain"
	"github.com/bulkbazaar/wholesaleapi/pkg/errors"
)

var oneHundred = decimal.NewFromInt(100)

// Line is one priced order or cart entry. UnitPrice and GSTRatePercent are
// the frozen values carried by the line, not live product data.
type Line struct {
	Quantity       int
	UnitPrice      decimal.Decimal
	GSTRatePercent decimal.Decimal
}

// Adjustments are order-level amounts supplied by the placement policy or an
// admin. All are expected to be >= 0; zero values mean "none".
type Adjustments struct {
	DeliveryCharge decimal.Decimal
	CODCharge      decimal.Decimal
	Discount       decimal.Decimal
	AmountPaid     decimal.Decimal
}

// Aggregate is the computed breakdown of an order. It is derived state,
// recomputed on demand and never stored on its own.
type Aggregate struct {
	Subtotal       decimal.Decimal
	TaxTotal       decimal.Decimal
	DeliveryCharge decimal.Decimal
	CODCharge      decimal.Decimal
	Discount       decimal.Decimal
	Total          decimal.Decimal
	AmountPaid     decimal.Decimal
	// AmountPending is Total - AmountPaid. Not clamped: a negative value
	// means the order is overpaid.
	AmountPending decimal.Decimal
}

// ResolveTier selects the bulk tier applying to quantity (in base units)
// given tiers whose bounds are expressed in sets of unitSet base units.
//
// Tiers without a positive minimum are dropped as malformed and the rest are
// sorted by minimum descending, so unordered tier rows from storage are fine.
// The tier with the highest minimum wins unconditionally once quantity
// reaches its lower bound, even past its stated maximum: a buyer who
// qualifies for the best bracket never falls back to a worse price. Below
// that, the first tier whose band contains quantity is chosen.
//
// A nil tier with a nil error means no tier applies and the caller should
// fall back to the per-piece price.
func ResolveTier(tiers []domain.BulkTier, quantity, unitSet int) (*domain.BulkTier, error) {
	if quantity <= 0 {
		return nil, &errors.ErrValidation{Field: "quantity", Message: "must be a positive number of units"}
	}
	if unitSet < 1 {
		unitSet = 1
	}

	candidates := make([]domain.BulkTier, 0, len(tiers))
	for _, t := range tiers {
		if t.MinimumSets > 0 {
			candidates = append(candidates, t)
		}
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].MinimumSets > candidates[j].MinimumSets
	})

	// Highest bracket wins regardless of its stated maximum.
	top := candidates[0]
	if quantity >= top.MinimumSets*unitSet {
		return &top, nil
	}

	for _, t := range candidates[1:] {
		if quantity < t.MinimumSets*unitSet {
			continue
		}
		if t.MaximumSets == 0 || quantity <= t.MaximumSets*unitSet {
			tier := t
			return &tier, nil
		}
	}

	return nil, nil
}

// ResolveUnitPrice returns the unit price charged for quantity base units of
// p, together with the tier that produced it (nil when the per-piece
// fallback price applies).
func ResolveUnitPrice(p *domain.Product, quantity int) (decimal.Decimal, *domain.BulkTier, error) {
	tier, err := ResolveTier(p.BulkTiers, quantity, p.UnitSet)
	if err != nil {
		return decimal.Zero, nil, err
	}
	if tier == nil {
		return p.PerPiecePrice, nil, nil
	}
	return tier.SellingPricePerSet, tier, nil
}

// LineTotal computes quantity x unitPrice rounded to 2 decimal places.
func LineTotal(unitPrice decimal.Decimal, quantity int) (decimal.Decimal, error) {
	if quantity <= 0 {
		return decimal.Zero, &errors.ErrValidation{Field: "quantity", Message: "must be a positive number of units"}
	}
	if unitPrice.IsNegative() {
		return decimal.Zero, &errors.ErrValidation{Field: "unitPrice", Message: "must not be negative"}
	}
	return unitPrice.Mul(decimal.NewFromInt(int64(quantity))).Round(2), nil
}

// ComputeAggregate folds priced lines and order-level adjustments into the
// final breakdown. An empty line slice is valid: the total is then just the
// adjustments. The result depends only on the inputs.
func ComputeAggregate(lines []Line, adj Adjustments) (Aggregate, error) {
	if err := validateAdjustments(adj); err != nil {
		return Aggregate{}, err
	}

	subtotal := decimal.Zero
	taxTotal := decimal.Zero
	for _, line := range lines {
		if line.Quantity <= 0 {
			return Aggregate{}, &errors.ErrValidation{Field: "quantity", Message: "must be a positive number of units"}
		}
		if line.UnitPrice.IsNegative() {
			return Aggregate{}, &errors.ErrValidation{Field: "unitPrice", Message: "must not be negative"}
		}
		if line.GSTRatePercent.IsNegative() {
			return Aggregate{}, &errors.ErrValidation{Field: "gstRatePercent", Message: "must not be negative"}
		}

		amount := line.UnitPrice.Mul(decimal.NewFromInt(int64(line.Quantity)))
		subtotal = subtotal.Add(amount)
		taxTotal = taxTotal.Add(amount.Mul(line.GSTRatePercent).Div(oneHundred))
	}

	agg := Aggregate{
		Subtotal:       subtotal.Round(2),
		TaxTotal:       taxTotal.Round(2),
		DeliveryCharge: adj.DeliveryCharge.Round(2),
		CODCharge:      adj.CODCharge.Round(2),
		Discount:       adj.Discount.Round(2),
		AmountPaid:     adj.AmountPaid.Round(2),
	}
	agg.Total = agg.Subtotal.
		Add(agg.TaxTotal).
		Add(agg.DeliveryCharge).
		Add(agg.CODCharge).
		Sub(agg.Discount)
	agg.AmountPending = agg.Total.Sub(agg.AmountPaid)

	return agg, nil
}

func validateAdjustments(adj Adjustments) error {
	checks := []struct {
		field string
		value decimal.Decimal
	}{
		{"deliveryCharge", adj.DeliveryCharge},
		{"codCharge", adj.CODCharge},
		{"discount", adj.Discount},
		{"amountPaid", adj.AmountPaid},
	}
	for _, c := range checks {
		if c.value.IsNegative() {
			return &errors.ErrValidation{Field: c.field, Message: "must not be negative"}
		}
	}
	return nil
}
