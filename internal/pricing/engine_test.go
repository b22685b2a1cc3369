package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bulkbazaar/wholesaleapi/internal/domain"
	apperrors "github.com/bulkbazaar/wholesaleapi/pkg/errors"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func tier(min, max int, price string) domain.BulkTier {
	return domain.BulkTier{
		MinimumSets:        min,
		MaximumSets:        max,
		SellingPricePerSet: dec(price),
	}
}

func TestResolveTierSelectsContainingBand(t *testing.T) {
	tiers := []domain.BulkTier{
		tier(10, 50, "9"),
		tier(51, 99, "7"),
		tier(100, 0, "5"),
	}

	got, err := ResolveTier(tiers, 30, 1)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 10, got.MinimumSets)

	got, err = ResolveTier(tiers, 60, 1)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 51, got.MinimumSets)
}

func TestResolveTierHighestBracketWinsPastMaximum(t *testing.T) {
	tiers := []domain.BulkTier{
		tier(10, 50, "9"),
		tier(100, 0, "5"),
	}

	// 150 exceeds every stated maximum but qualifies for the top bracket.
	got, err := ResolveTier(tiers, 150, 1)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 100, got.MinimumSets)
	assert.True(t, got.SellingPricePerSet.Equal(dec("5")))
}

func TestResolveTierAppliesUnitSetMultiplier(t *testing.T) {
	tiers := []domain.BulkTier{tier(10, 0, "90")}

	// 10 sets of 12 units: the tier starts at 120 base units.
	got, err := ResolveTier(tiers, 119, 12)
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = ResolveTier(tiers, 120, 12)
	require.NoError(t, err)
	require.NotNil(t, got)
}

func TestResolveTierNoTiersMeansFallback(t *testing.T) {
	got, err := ResolveTier(nil, 500, 1)
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = ResolveTier([]domain.BulkTier{}, 1, 1)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestResolveTierDropsMalformedAndSortsDefensively(t *testing.T) {
	tiers := []domain.BulkTier{
		tier(100, 0, "5"),
		tier(0, 50, "1"), // malformed: no positive minimum
		tier(10, 50, "9"),
	}

	got, err := ResolveTier(tiers, 5, 1)
	require.NoError(t, err)
	assert.Nil(t, got, "malformed tier must not match small quantities")

	got, err = ResolveTier(tiers, 20, 1)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 10, got.MinimumSets)
}

func TestResolveTierRejectsNonPositiveQuantity(t *testing.T) {
	_, err := ResolveTier([]domain.BulkTier{tier(10, 0, "9")}, 0, 1)
	var verr *apperrors.ErrValidation
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "quantity", verr.Field)
}

func TestResolveUnitPriceTierMonotonicity(t *testing.T) {
	product := &domain.Product{
		UnitSet:       1,
		PerPiecePrice: dec("12"),
		BulkTiers: []domain.BulkTier{
			tier(10, 49, "10"),
			tier(50, 99, "8"),
			tier(100, 0, "6"),
		},
	}

	prev := decimal.NewFromInt(1 << 30)
	for qty := 1; qty <= 300; qty++ {
		price, _, err := ResolveUnitPrice(product, qty)
		require.NoError(t, err)
		assert.True(t, price.LessThanOrEqual(prev),
			"unit price rose from %s to %s at quantity %d", prev, price, qty)
		prev = price
	}
}

func TestResolveUnitPriceFallsBackToPerPiece(t *testing.T) {
	product := &domain.Product{UnitSet: 1, PerPiecePrice: dec("3.50")}

	price, resolved, err := ResolveUnitPrice(product, 7)
	require.NoError(t, err)
	assert.Nil(t, resolved)
	assert.True(t, price.Equal(dec("3.50")))

	total, err := LineTotal(price, 7)
	require.NoError(t, err)
	assert.Equal(t, "24.50", total.StringFixed(2))
}

func TestLineTotalRoundsAtOutput(t *testing.T) {
	total, err := LineTotal(dec("0.1"), 3)
	require.NoError(t, err)
	assert.Equal(t, "0.30", total.StringFixed(2))

	_, err = LineTotal(dec("-1"), 3)
	var verr *apperrors.ErrValidation
	require.ErrorAs(t, err, &verr)
}

func TestComputeAggregateBreakdown(t *testing.T) {
	lines := []Line{
		{Quantity: 3, UnitPrice: dec("10"), GSTRatePercent: dec("18")},
		{Quantity: 1, UnitPrice: dec("20"), GSTRatePercent: dec("0")},
	}
	adj := Adjustments{
		DeliveryCharge: dec("5"),
		CODCharge:      dec("2"),
		Discount:       dec("1"),
	}

	agg, err := ComputeAggregate(lines, adj)
	require.NoError(t, err)
	assert.Equal(t, "50.00", agg.Subtotal.StringFixed(2))
	assert.Equal(t, "5.40", agg.TaxTotal.StringFixed(2))
	assert.Equal(t, "61.40", agg.Total.StringFixed(2))
	assert.Equal(t, "61.40", agg.AmountPending.StringFixed(2))
}

func TestComputeAggregateIsDeterministic(t *testing.T) {
	lines := []Line{
		{Quantity: 7, UnitPrice: dec("0.1"), GSTRatePercent: dec("12.5")},
		{Quantity: 13, UnitPrice: dec("99.99"), GSTRatePercent: dec("18")},
	}
	adj := Adjustments{DeliveryCharge: dec("49"), AmountPaid: dec("100")}

	first, err := ComputeAggregate(lines, adj)
	require.NoError(t, err)
	second, err := ComputeAggregate(lines, adj)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestComputeAggregateZeroLines(t *testing.T) {
	adj := Adjustments{
		DeliveryCharge: dec("30"),
		CODCharge:      dec("15"),
		Discount:       dec("10"),
	}

	agg, err := ComputeAggregate(nil, adj)
	require.NoError(t, err)
	assert.True(t, agg.Subtotal.IsZero())
	assert.True(t, agg.TaxTotal.IsZero())
	assert.Equal(t, "35.00", agg.Total.StringFixed(2))
}

func TestComputeAggregateOverpaymentGoesNegative(t *testing.T) {
	lines := []Line{{Quantity: 1, UnitPrice: dec("40"), GSTRatePercent: dec("0")}}

	agg, err := ComputeAggregate(lines, Adjustments{AmountPaid: dec("50")})
	require.NoError(t, err)
	assert.Equal(t, "-10.00", agg.AmountPending.StringFixed(2))
}

func TestComputeAggregateRejectsNegativeInputs(t *testing.T) {
	var verr *apperrors.ErrValidation

	_, err := ComputeAggregate([]Line{{Quantity: -1, UnitPrice: dec("1")}}, Adjustments{})
	require.ErrorAs(t, err, &verr)

	_, err = ComputeAggregate(nil, Adjustments{Discount: dec("-5")})
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "discount", verr.Field)
}
