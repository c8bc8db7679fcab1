package pricing

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/odyssey-b2b/internal/shared"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func assertMoney(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.Truef(t, dec(want).Equal(got), "expected %s, got %s", want, got.String())
}

func item(ref int64, qty int, price string) LineItem {
	return LineItem{ProductRef: ref, SKU: "SKU", Name: "Product", Quantity: qty, UnitPrice: dec(price)}
}

func TestComputeTierRebates(t *testing.T) {
	items := []LineItem{item(1, 4, "125.00"), item(2, 10, "50.00")}

	tests := []struct {
		tier     Tier
		discount string
		total    string
	}{
		{TierSilver, "0", "1000.00"},
		{TierGold, "50.00", "950.00"},
		{TierPlatinum, "80.00", "920.00"},
	}
	for _, tt := range tests {
		t.Run(string(tt.tier), func(t *testing.T) {
			totals, err := Compute(items, tt.tier)
			require.NoError(t, err)
			assertMoney(t, "1000.00", totals.Subtotal)
			assertMoney(t, tt.discount, totals.Discount)
			assertMoney(t, tt.total, totals.Total)
		})
	}
}

func TestComputeRoundsAggregateDiscountOnce(t *testing.T) {
	// Rounding each line (0.0165 -> 0.02) would give 0.06.
	items := []LineItem{item(1, 1, "0.33"), item(2, 1, "0.33"), item(3, 1, "0.33")}

	totals, err := Compute(items, TierGold)
	require.NoError(t, err)
	assertMoney(t, "0.99", totals.Subtotal)
	assertMoney(t, "0.05", totals.Discount)
	assertMoney(t, "0.94", totals.Total)
}

func TestComputeHalfUp(t *testing.T) {
	// 10.10 * 0.05 = 0.505 -> 0.51
	totals, err := Compute([]LineItem{item(1, 1, "10.10")}, TierGold)
	require.NoError(t, err)
	assertMoney(t, "0.51", totals.Discount)
	assertMoney(t, "9.59", totals.Total)
}

func TestComputeEmptyItemsIsZero(t *testing.T) {
	totals, err := Compute(nil, TierPlatinum)
	require.NoError(t, err)
	assert.True(t, totals.Subtotal.IsZero())
	assert.True(t, totals.Discount.IsZero())
	assert.True(t, totals.Total.IsZero())
}

func TestComputeRejectsInvalidInput(t *testing.T) {
	_, err := Compute([]LineItem{item(1, 0, "1.00")}, TierGold)
	assert.True(t, errors.Is(err, shared.ErrValidation))

	_, err = Compute([]LineItem{item(1, 1, "-1.00")}, TierGold)
	assert.True(t, errors.Is(err, shared.ErrValidation))

	_, err = Compute([]LineItem{item(1, 1, "1.005")}, TierGold)
	assert.True(t, errors.Is(err, shared.ErrValidation))

	_, err = Compute([]LineItem{item(1, 1, "1.00")}, Tier("bronze"))
	assert.True(t, errors.Is(err, shared.ErrValidation))
}

func TestComputeTotalsAddUpAcrossItemSets(t *testing.T) {
	sets := [][]LineItem{
		{item(1, 3, "19.99")},
		{item(1, 7, "0.01"), item(2, 2, "999.99"), item(3, 13, "4.37")},
		{item(1, 1, "0.00")},
		{item(1, 250, "12.35")},
	}
	for _, tier := range []Tier{TierSilver, TierGold, TierPlatinum} {
		for _, set := range sets {
			totals, err := Compute(set, tier)
			require.NoError(t, err)

			sum := decimal.Zero
			for _, it := range set {
				sum = sum.Add(it.UnitPrice.Mul(decimal.NewFromInt(int64(it.Quantity))))
			}
			assert.True(t, sum.Equal(totals.Subtotal))
			assert.True(t, totals.Subtotal.Sub(totals.Discount).Equal(totals.Total))
			assert.True(t, totals.Discount.Equal(totals.Discount.Round(MoneyScale)))
		}
	}
}

func TestComputeFlat(t *testing.T) {
	items := []LineItem{item(1, 5, "100.00")}

	totals, err := ComputeFlat(items, dec("25"))
	require.NoError(t, err)
	assertMoney(t, "500.00", totals.Subtotal)
	assertMoney(t, "25.00", totals.Discount)
	assertMoney(t, "475.00", totals.Total)

	_, err = ComputeFlat(items, dec("-1"))
	assert.True(t, errors.Is(err, shared.ErrValidation))

	_, err = ComputeFlat(items, dec("500.01"))
	assert.True(t, errors.Is(err, shared.ErrValidation))

	totals, err = ComputeFlat(nil, decimal.Zero)
	require.NoError(t, err)
	assert.True(t, totals.Total.IsZero())
}

func TestNewLineItemDerivesTotal(t *testing.T) {
	li, err := NewLineItem(9, "SKU-9", "Widget", 3, dec("2.50"))
	require.NoError(t, err)
	assertMoney(t, "7.50", li.LineTotal)

	stale := li
	stale.Quantity = 4
	assertMoney(t, "10.00", stale.Derive().LineTotal)

	_, err = NewLineItem(9, "SKU-9", "Widget", -1, dec("2.50"))
	assert.True(t, errors.Is(err, shared.ErrValidation))
}

func TestTax(t *testing.T) {
	tax, err := Tax(dec("950.00"), dec("0.11"))
	require.NoError(t, err)
	assertMoney(t, "104.50", tax)

	tax, err = Tax(dec("0.05"), dec("0.1"))
	require.NoError(t, err)
	assertMoney(t, "0.01", tax)

	_, err = Tax(dec("1"), dec("-0.1"))
	assert.True(t, errors.Is(err, shared.ErrValidation))
}
