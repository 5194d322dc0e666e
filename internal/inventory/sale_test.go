package inventory

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/stocktally/stocktally/internal/calculator"
)

func TestRecordSalePricesAndTakesStock(t *testing.T) {
	coffee := product("coffee", 20, 5, "6", "9.99")
	tea := product("tea", 10, 2, "1", "1.50")
	repo := newMemoryRepo(coffee, tea)
	hook := &recordingHook{}
	svc := newTestService(t, repo, nil, ServiceConfig{Hook: hook})
	actor := uuid.New()

	result, err := svc.RecordSale(context.Background(), SaleInput{
		Lines: []SaleLineInput{
			{ProductID: coffee.ID, Quantity: 2},
			{ProductID: tea.ID, Quantity: 3},
		},
		CustomerName: "Walk-in",
		ActorID:      &actor,
	})
	require.NoError(t, err)
	require.Nil(t, result.Rejection)
	require.NotNil(t, result.Sale)

	sale := result.Sale
	require.True(t, strings.HasPrefix(sale.Number, "SALE-261019-"), sale.Number)
	require.Equal(t, "2026-10-19", sale.Date.Format("2006-01-02"))
	require.True(t, decimal.RequireFromString("24.48").Equal(sale.Subtotal), sale.Subtotal.String())
	require.True(t, decimal.RequireFromString("2.45").Equal(sale.Tax), sale.Tax.String())
	require.True(t, decimal.RequireFromString("26.93").Equal(sale.Total), sale.Total.String())
	require.Len(t, sale.Items, 2)
	require.True(t, decimal.RequireFromString("19.98").Equal(sale.Items[0].TotalPrice))
	require.Len(t, repo.recorded, 1)

	require.Equal(t, int64(18), repo.products[coffee.ID].CurrentStock)
	require.Equal(t, int64(7), repo.products[tea.ID].CurrentStock)
	require.Len(t, repo.movements, 2)
	for _, m := range repo.movements {
		require.Equal(t, TransactionTypeSale, m.Type)
		require.Equal(t, ReferenceSale, m.ReferenceType)
		require.Equal(t, sale.ID, *m.ReferenceID)
		require.Equal(t, "Sale "+sale.Number, m.Notes)
		require.Equal(t, actor, *m.CreatedBy)
	}
	require.Equal(t, int64(-2), repo.movements[0].Quantity)
	require.Len(t, hook.events, 2)
}

func TestRecordSaleMergesRepeatedProducts(t *testing.T) {
	widget := product("widget", 10, 3, "1", "2")
	repo := newMemoryRepo(widget)
	hook := &recordingHook{}
	svc := newTestService(t, repo, nil, ServiceConfig{Hook: hook})

	result, err := svc.RecordSale(context.Background(), SaleInput{Lines: []SaleLineInput{
		{ProductID: widget.ID, Quantity: 4},
		{ProductID: widget.ID, Quantity: 4},
	}})
	require.NoError(t, err)
	require.Len(t, result.Sale.Items, 1)
	require.Equal(t, int64(8), result.Sale.Items[0].Quantity)
	require.Equal(t, int64(2), repo.products[widget.ID].CurrentStock)
	require.Len(t, hook.events, 1)
	require.True(t, hook.events[0].CrossedReorderLevel())
}

func TestRecordSaleRejectsInsufficientStock(t *testing.T) {
	plenty := product("plenty", 50, 5, "1", "2")
	scarce := product("scarce", 1, 5, "1", "2")
	repo := newMemoryRepo(plenty, scarce)
	hook := &recordingHook{}
	svc := newTestService(t, repo, nil, ServiceConfig{Hook: hook})

	result, err := svc.RecordSale(context.Background(), SaleInput{Lines: []SaleLineInput{
		{ProductID: plenty.ID, Quantity: 5},
		{ProductID: scarce.ID, Quantity: 2},
	}})
	require.NoError(t, err)
	require.Nil(t, result.Sale)
	require.NotNil(t, result.Rejection)
	require.Equal(t, scarce.ID, result.Rejection.ProductID)
	require.False(t, result.Rejection.Validation.Valid)
	require.Contains(t, result.Rejection.Validation.Message, "Insufficient stock")

	require.Empty(t, repo.recorded)
	require.Empty(t, repo.movements)
	require.Equal(t, int64(50), repo.products[plenty.ID].CurrentStock)
	require.Empty(t, hook.events)
}

func TestRecordSaleInputErrors(t *testing.T) {
	widget := product("widget", 10, 3, "1", "2")
	svc := newTestService(t, newMemoryRepo(widget), nil, ServiceConfig{})
	ctx := context.Background()

	_, err := svc.RecordSale(ctx, SaleInput{})
	require.ErrorIs(t, err, ErrEmptyRequest)

	_, err = svc.RecordSale(ctx, SaleInput{Lines: []SaleLineInput{{ProductID: widget.ID}}})
	require.ErrorIs(t, err, ErrInvalidQuantity)

	_, err = svc.RecordSale(ctx, SaleInput{Lines: []SaleLineInput{{ProductID: uuid.New(), Quantity: 1}}})
	require.ErrorIs(t, err, ErrProductNotFound)
}

func TestRecordSaleFeedsSalesTotals(t *testing.T) {
	widget := product("widget", 10, 3, "1", "1.005")
	svc := newTestService(t, newMemoryRepo(widget), nil, ServiceConfig{})
	result, err := svc.RecordSale(context.Background(), SaleInput{Lines: []SaleLineInput{{ProductID: widget.ID, Quantity: 1}}})
	require.NoError(t, err)
	want := svc.calc.SaleTotals([]calculator.SaleLine{{Quantity: 1, SellingPrice: widget.SellingPrice}})
	require.True(t, want.Total.Equal(result.Sale.Total))
	require.True(t, result.Sale.Total.Equal(result.Sale.Subtotal.Add(result.Sale.Tax)))
}
