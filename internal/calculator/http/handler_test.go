package calchttp

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/stocktally/stocktally/internal/calculator"
)

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	calc, err := calculator.New(calculator.DefaultSettings(), calculator.WithClock(func() time.Time {
		return time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)
	}))
	require.NoError(t, err)
	r := chi.NewRouter()
	r.Route("/calc", NewHandler(nil, calc).MountRoutes)
	return r
}

func post(t *testing.T, h http.Handler, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestOrderTotalsEndpoint(t *testing.T) {
	rr := post(t, newTestRouter(t), "/calc/order-totals",
		`{"items":[{"quantity":2,"unit_price":10},{"quantity":1,"unit_price":"5.00","discount_percent":20}]}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	require.JSONEq(t, `{"subtotal":24,"tax":2.4,"discount":1,"total":26.4}`, rr.Body.String())
}

func TestOrderTotalsRejectsNegativeInput(t *testing.T) {
	rr := post(t, newTestRouter(t), "/calc/order-totals",
		`{"items":[{"quantity":-2,"unit_price":10},{"quantity":1,"unit_price":5,"discount_percent":120}]}`)
	require.Equal(t, http.StatusBadRequest, rr.Code)
	body := rr.Body.String()
	require.Contains(t, body, "items[0].quantity")
	require.Contains(t, body, "items[1].discount_percent")
}

func TestMarginEndpointZeroCost(t *testing.T) {
	rr := post(t, newTestRouter(t), "/calc/margin", `{"cost_price":0,"selling_price":12}`)
	require.Equal(t, http.StatusOK, rr.Code)
	require.JSONEq(t, `{"margin":0}`, rr.Body.String())
}

func TestReorderEndpoint(t *testing.T) {
	rr := post(t, newTestRouter(t), "/calc/reorder", `{"current_stock":30,"reorder_level":5,"average_daily_sales":0}`)
	require.Equal(t, http.StatusOK, rr.Code)
	require.JSONEq(t, `{"current_stock":30,"reorder_level":5,"average_daily_sales":0,"suggested_order_quantity":0,"days_until_stockout":"unbounded"}`, rr.Body.String())
}

func TestStockoutEndpoint(t *testing.T) {
	h := newTestRouter(t)
	rr := post(t, h, "/calc/stockout", `{"current_stock":10,"sales":[{"quantity":3,"date":"2026-10-01"},{"quantity":5,"date":"2026-10-02"},{"quantity":4,"date":"2026-10-03"}]}`)
	require.Equal(t, http.StatusOK, rr.Code)
	require.JSONEq(t, `{"predicted_date":"2026-10-21","days_remaining":2.5}`, rr.Body.String())

	rr = post(t, h, "/calc/stockout", `{"current_stock":10,"sales":[]}`)
	require.Equal(t, http.StatusOK, rr.Code)
	require.JSONEq(t, `{"predicted_date":null,"days_remaining":"unbounded"}`, rr.Body.String())

	rr = post(t, h, "/calc/stockout", `{"current_stock":10,"sales":[{"quantity":3,"date":"yesterday"}]}`)
	require.Equal(t, http.StatusBadRequest, rr.Code)
	require.Contains(t, rr.Body.String(), "sales[0].date")
}

func TestOptimizeEndpoint(t *testing.T) {
	rr := post(t, newTestRouter(t), "/calc/optimize", `{"products":[{"id":"p-1","name":"Widget","current_stock":0,"reorder_level":5,"sales":[{"quantity":2,"date":"2026-10-01"}]}]}`)
	require.Equal(t, http.StatusOK, rr.Code)

	var resp optimizeResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.Len(t, resp.Recommendations, 1)
	require.Equal(t, calculator.ActionReorder, resp.Recommendations[0].Action)
	require.Equal(t, int64(20), *resp.Recommendations[0].SuggestedQuantity)
}

func TestValuationEndpoint(t *testing.T) {
	rr := post(t, newTestRouter(t), "/calc/valuation", `{"products":[{"quantity":0,"cost_price":5}]}`)
	require.Equal(t, http.StatusOK, rr.Code)
	require.JSONEq(t, `{"total_value":0,"average_cost":0}`, rr.Body.String())
}

func TestValidateTransactionEndpoint(t *testing.T) {
	h := newTestRouter(t)
	rr := post(t, h, "/calc/transactions/validate", `{"product_stock":10,"transaction_quantity":15,"type":"out"}`)
	require.Equal(t, http.StatusOK, rr.Code)

	var got calculator.TransactionValidation
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	require.False(t, got.Valid)
	require.Equal(t, int64(10), got.NewStock)
	require.Contains(t, got.Message, "Insufficient stock")

	rr = post(t, h, "/calc/transactions/validate", `{"product_stock":10,"transaction_quantity":1,"type":"transfer"}`)
	require.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestUnknownFieldsRejected(t *testing.T) {
	rr := post(t, newTestRouter(t), "/calc/margin", `{"cost":1}`)
	require.Equal(t, http.StatusBadRequest, rr.Code)
	require.Contains(t, rr.Body.String(), "unknown field")
}
