package calculator

import (
	"math"
	"math/rand"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func pct(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func fixedClock() time.Time {
	return time.Date(2026, 10, 19, 15, 30, 0, 0, time.UTC)
}

func newTestCalculator(t *testing.T) *Calculator {
	t.Helper()
	c, err := New(DefaultSettings(), WithClock(fixedClock))
	require.NoError(t, err)
	return c
}

func TestOrderTotalsWithLineDiscount(t *testing.T) {
	c := newTestCalculator(t)
	totals := c.OrderTotals([]LineItem{
		{Quantity: 2, UnitPrice: dec("10.00")},
		{Quantity: 1, UnitPrice: dec("5.00"), DiscountPercent: pct("20")},
	})
	require.True(t, dec("1.00").Equal(totals.Discount), totals.Discount.String())
	require.True(t, dec("24.00").Equal(totals.Subtotal), totals.Subtotal.String())
	require.True(t, dec("2.40").Equal(totals.Tax), totals.Tax.String())
	require.True(t, dec("26.40").Equal(totals.Total), totals.Total.String())
}

func TestOrderTotalsEmpty(t *testing.T) {
	c := newTestCalculator(t)
	totals := c.OrderTotals(nil)
	require.True(t, totals.Subtotal.IsZero())
	require.True(t, totals.Tax.IsZero())
	require.True(t, totals.Discount.IsZero())
	require.True(t, totals.Total.IsZero())

	sale := c.SaleTotals([]SaleLine{})
	require.True(t, sale.Total.IsZero())
}

func TestSaleTotalsHasNoDiscount(t *testing.T) {
	c := newTestCalculator(t)
	totals := c.SaleTotals([]SaleLine{
		{Quantity: 2, SellingPrice: dec("9.99")},
		{Quantity: 3, SellingPrice: dec("1.50")},
	})
	require.True(t, dec("24.48").Equal(totals.Subtotal), totals.Subtotal.String())
	require.True(t, dec("2.45").Equal(totals.Tax), totals.Tax.String())
	require.True(t, totals.Discount.IsZero())
	require.True(t, dec("26.93").Equal(totals.Total), totals.Total.String())
}

func TestTotalsInvariantsHold(t *testing.T) {
	c := newTestCalculator(t)
	rate := c.Settings().TaxRate
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 200; i++ {
		n := rng.Intn(6)
		items := make([]LineItem, 0, n)
		lineSum := decimal.Zero
		for j := 0; j < n; j++ {
			price := decimal.New(rng.Int63n(100000), -3)
			item := LineItem{Quantity: rng.Int63n(50), UnitPrice: price}
			if rng.Intn(2) == 0 {
				item.DiscountPercent = pct(decimal.NewFromInt(rng.Int63n(101)).String())
			}
			lineSum = lineSum.Add(decimal.NewFromInt(item.Quantity).Mul(price))
			items = append(items, item)
		}
		totals := c.OrderTotals(items)
		require.True(t, totals.Total.Equal(totals.Subtotal.Add(totals.Tax)), "case %d", i)
		require.True(t, totals.Tax.Equal(roundHalfUp(totals.Subtotal.Mul(rate), 2)), "case %d", i)
		require.True(t, totals.Subtotal.Sub(roundHalfUp(lineSum, 2).Sub(totals.Discount)).Abs().LessThanOrEqual(dec("0.01")), "case %d", i)
	}
}

func TestOrderTotalsRoundsSubtotalAfterDiscount(t *testing.T) {
	c := newTestCalculator(t)
	totals := c.OrderTotals([]LineItem{
		{Quantity: 1, UnitPrice: dec("1.005"), DiscountPercent: pct("0.4")},
	})
	// 1.005 - 0.00402 rounds to 1.00; rounding each side first would give 1.01.
	require.True(t, dec("1.00").Equal(totals.Subtotal), totals.Subtotal.String())
	require.True(t, dec("0.00").Equal(totals.Discount), totals.Discount.String())
	require.True(t, dec("0.10").Equal(totals.Tax), totals.Tax.String())
	require.True(t, dec("1.10").Equal(totals.Total), totals.Total.String())
}

func TestProfitMargin(t *testing.T) {
	c := newTestCalculator(t)
	cases := []struct {
		cost, sell, want string
	}{
		{"0", "15", "0"},
		{"0", "0", "0"},
		{"80", "100", "25"},
		{"3", "4", "33.33"},
		{"100", "87.655", "-12.34"},
		{"2", "2.0101", "0.51"},
	}
	for _, tc := range cases {
		got := c.ProfitMargin(dec(tc.cost), dec(tc.sell))
		require.True(t, dec(tc.want).Equal(got), "cost=%s sell=%s got=%s", tc.cost, tc.sell, got)
	}
}

func TestSuggestReorder(t *testing.T) {
	c := newTestCalculator(t)

	s := c.SuggestReorder(ReorderInput{CurrentStock: 0, ReorderLevel: 5, AverageDailySales: dec("2")})
	require.Equal(t, int64(20), s.SuggestedOrderQuantity)
	require.True(t, s.DaysUntilStockout.Equal(Finite(decimal.Zero)))

	s = c.SuggestReorder(ReorderInput{CurrentStock: 12, ReorderLevel: 10, AverageDailySales: dec("2.5")})
	// safety ceil(7.5)=8, lead ceil(17.5)=18, optimal 14
	require.Equal(t, int64(20), s.SuggestedOrderQuantity)
	require.True(t, s.DaysUntilStockout.Equal(Finite(dec("4.8"))))

	s = c.SuggestReorder(ReorderInput{CurrentStock: 0, AverageDailySales: dec("1"), LeadTimeDays: 14})
	require.Equal(t, int64(20), s.SuggestedOrderQuantity)

	s = c.SuggestReorder(ReorderInput{CurrentStock: 100, ReorderLevel: 10, AverageDailySales: dec("1")})
	require.Equal(t, int64(0), s.SuggestedOrderQuantity)

	s = c.SuggestReorder(ReorderInput{CurrentStock: 10, AverageDailySales: decimal.NewFromInt(1).Div(decimal.NewFromInt(3))})
	require.True(t, dec("0.33").Equal(s.AverageDailySales), s.AverageDailySales.String())
	require.True(t, s.DaysUntilStockout.Equal(Finite(dec("30"))), s.DaysUntilStockout.String())
}

func TestSuggestReorderZeroVelocity(t *testing.T) {
	c := newTestCalculator(t)
	for _, stock := range []int64{0, 1, 9, 10, 250} {
		s := c.SuggestReorder(ReorderInput{CurrentStock: stock, ReorderLevel: 5})
		require.True(t, s.DaysUntilStockout.IsUnbounded())
		want := ceilToMultiple(-stock, 10)
		if want < 0 {
			want = 0
		}
		require.Equal(t, want, s.SuggestedOrderQuantity)
		require.Equal(t, int64(0), s.SuggestedOrderQuantity%10)
	}
}

func TestPredictStockout(t *testing.T) {
	c := newTestCalculator(t)

	p := c.PredictStockout(10, nil)
	require.Nil(t, p.PredictedDate)
	require.True(t, p.DaysRemaining.IsUnbounded())

	p = c.PredictStockout(10, []SaleSample{{Quantity: 0}, {Quantity: 0}})
	require.Nil(t, p.PredictedDate)
	require.True(t, p.DaysRemaining.IsUnbounded())

	day := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
	p = c.PredictStockout(10, []SaleSample{
		{Quantity: 3, Date: day},
		{Quantity: 5, Date: day.AddDate(0, 0, 5)},
		{Quantity: 4, Date: day.AddDate(0, 0, 9)},
	})
	require.NotNil(t, p.PredictedDate)
	require.True(t, p.DaysRemaining.Equal(Finite(dec("2.5"))))
	require.Equal(t, "2026-10-21", p.PredictedDate.Format("2006-01-02"))

	p = c.PredictStockout(10, []SaleSample{{Quantity: 3}})
	require.True(t, p.DaysRemaining.Equal(Finite(dec("3.33"))))
	require.Equal(t, "2026-10-22", p.PredictedDate.Format("2006-01-02"))
}

func TestInventoryValue(t *testing.T) {
	c := newTestCalculator(t)

	v := c.InventoryValue([]Holding{
		{Quantity: 10, CostPrice: dec("2.50")},
		{Quantity: 5, CostPrice: dec("4.00")},
	})
	require.True(t, dec("45").Equal(v.TotalValue))
	require.True(t, dec("3").Equal(v.AverageCost))

	v = c.InventoryValue([]Holding{{Quantity: 3, CostPrice: dec("1")}, {Quantity: 0, CostPrice: dec("9.99")}})
	require.True(t, dec("1").Equal(v.AverageCost))

	v = c.InventoryValue([]Holding{{Quantity: 0, CostPrice: dec("12.5")}})
	require.True(t, v.TotalValue.IsZero())
	require.True(t, v.AverageCost.IsZero())

	v = c.InventoryValue([]Holding{{Quantity: 3, CostPrice: dec("1")}, {Quantity: 0, CostPrice: dec("1.005")}})
	require.True(t, dec("3").Equal(v.TotalValue))
}

func samples(qty ...int64) []SaleSample {
	out := make([]SaleSample, 0, len(qty))
	for _, q := range qty {
		out = append(out, SaleSample{Quantity: q})
	}
	return out
}

func TestOptimizeStockLevels(t *testing.T) {
	c := newTestCalculator(t)
	recs := c.OptimizeStockLevels([]ProductStock{
		{ID: "a", Name: "Empty shelf", CurrentStock: 0, ReorderLevel: 5, Sales: samples(2, 2)},
		{ID: "b", Name: "Overstock", CurrentStock: 200, ReorderLevel: 10, Sales: samples(1, 1)},
		{ID: "c", Name: "Healthy", CurrentStock: 50, ReorderLevel: 10, Sales: samples(1)},
		{ID: "d", Name: "Idle", CurrentStock: 50, ReorderLevel: 10},
		{ID: "e", Name: "Idle low", CurrentStock: 3, ReorderLevel: 10},
	})
	require.Len(t, recs, 5)

	require.Equal(t, ActionReorder, recs[0].Action)
	require.Equal(t, "a", recs[0].ProductID)
	require.Contains(t, recs[0].Reason, "(5 units)")
	require.Contains(t, recs[0].Reason, "Estimated 0.0 days")
	require.NotNil(t, recs[0].SuggestedQuantity)
	require.Equal(t, int64(20), *recs[0].SuggestedQuantity)

	require.Equal(t, ActionReduce, recs[1].Action)
	require.Contains(t, recs[1].Reason, "last 200 days")
	require.Nil(t, recs[1].SuggestedQuantity)

	require.Equal(t, ActionMaintain, recs[2].Action)
	require.Contains(t, recs[2].Reason, "Approximately 50.0 days")

	require.Equal(t, ActionMaintain, recs[3].Action)
	require.Contains(t, recs[3].Reason, "Infinity days")

	require.Equal(t, ActionReorder, recs[4].Action)
	require.Equal(t, int64(0), *recs[4].SuggestedQuantity)
	require.Contains(t, recs[4].Reason, "Infinity days")
}

func TestOptimizeBoundaryAtOverstockThreshold(t *testing.T) {
	c := newTestCalculator(t)
	recs := c.OptimizeStockLevels([]ProductStock{
		{ID: "exact", CurrentStock: 90, ReorderLevel: 1, Sales: samples(1)},
		{ID: "over", CurrentStock: 91, ReorderLevel: 1, Sales: samples(1)},
	})
	require.Equal(t, ActionMaintain, recs[0].Action)
	require.Equal(t, ActionReduce, recs[1].Action)
}

func TestReorderTakesPrecedence(t *testing.T) {
	c := newTestCalculator(t)
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 300; i++ {
		level := rng.Int63n(500)
		stock := rng.Int63n(level + 1)
		p := ProductStock{ID: "p", CurrentStock: stock, ReorderLevel: level, Sales: samples(rng.Int63n(3), rng.Int63n(3))}
		rec := c.OptimizeStockLevels([]ProductStock{p})[0]
		require.Equal(t, ActionReorder, rec.Action, "stock=%d level=%d", stock, level)
	}
}

func TestValidateTransaction(t *testing.T) {
	c := newTestCalculator(t)

	v := c.ValidateTransaction(10, 15, DirectionOut)
	require.False(t, v.Valid)
	require.Equal(t, int64(10), v.NewStock)
	require.True(t, strings.HasPrefix(v.Message, "Insufficient stock"), v.Message)

	v = c.ValidateTransaction(50, 100000, DirectionIn)
	require.False(t, v.Valid)
	require.Equal(t, int64(50), v.NewStock)
	require.Contains(t, v.Message, "100050")

	v = c.ValidateTransaction(0, 100000, DirectionIn)
	require.True(t, v.Valid)
	require.Equal(t, int64(100000), v.NewStock)

	v = c.ValidateTransaction(10, 10, DirectionOut)
	require.True(t, v.Valid)
	require.Equal(t, int64(0), v.NewStock)
	require.Empty(t, v.Message)

	v = c.ValidateTransaction(math.MaxInt64, 1, DirectionIn)
	require.False(t, v.Valid)
	require.Equal(t, int64(math.MaxInt64), v.NewStock)
	require.True(t, strings.HasPrefix(v.Message, "Stock level too high"), v.Message)
	require.Contains(t, v.Message, "9223372036854775808")

	v = c.ValidateTransaction(10, 1, Direction("sideways"))
	require.False(t, v.Valid)
	require.Equal(t, int64(10), v.NewStock)
}

func TestCustomSettings(t *testing.T) {
	settings := DefaultSettings()
	settings.TaxRate = dec("0.2")
	settings.MaxStock = 100
	settings.ReorderGranularity = 25
	c, err := New(settings)
	require.NoError(t, err)

	totals := c.SaleTotals([]SaleLine{{Quantity: 1, SellingPrice: dec("10")}})
	require.True(t, dec("2").Equal(totals.Tax))

	require.False(t, c.ValidateTransaction(90, 11, DirectionIn).Valid)

	s := c.SuggestReorder(ReorderInput{CurrentStock: 0, AverageDailySales: dec("1")})
	require.Equal(t, int64(25), s.SuggestedOrderQuantity)
}

func TestSettingsValidate(t *testing.T) {
	require.NoError(t, DefaultSettings().Validate())

	bad := DefaultSettings()
	bad.ReorderGranularity = 0
	_, err := New(bad)
	require.ErrorIs(t, err, ErrInvalidSettings)

	bad = DefaultSettings()
	bad.TaxRate = dec("-0.1")
	require.ErrorIs(t, bad.Validate(), ErrInvalidSettings)
}

func TestCalculationsAreRepeatable(t *testing.T) {
	c := newTestCalculator(t)
	items := []LineItem{{Quantity: 3, UnitPrice: dec("7.77"), DiscountPercent: pct("12.5")}}
	products := []ProductStock{{ID: "x", CurrentStock: 4, ReorderLevel: 2, Sales: samples(1, 3)}}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.Equal(t, c.OrderTotals(items), c.OrderTotals(items))
			assert.Equal(t, c.OptimizeStockLevels(products), c.OptimizeStockLevels(products))
			assert.Equal(t, c.PredictStockout(9, products[0].Sales), c.PredictStockout(9, products[0].Sales))
		}()
	}
	wg.Wait()
}

func TestRoundHalfUp(t *testing.T) {
	require.True(t, dec("2.35").Equal(roundHalfUp(dec("2.345"), 2)))
	require.True(t, dec("-2.34").Equal(roundHalfUp(dec("-2.345"), 2)))
	require.True(t, dec("0.13").Equal(roundHalfUp(dec("0.125"), 2)))
	require.True(t, dec("1").Equal(roundHalfUp(dec("0.5"), 0)))
}
