package app

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/stocktally/stocktally/internal/calculator"
	calchttp "github.com/stocktally/stocktally/internal/calculator/http"
	"github.com/stocktally/stocktally/internal/observability"
)

func newTestRouter(t *testing.T) (http.Handler, *observability.Metrics) {
	t.Helper()
	t.Cleanup(RefreshTestMode)
	t.Setenv(testModeEnv, "1")
	RefreshTestMode()

	metrics := observability.NewMetrics()
	router := NewRouter(RouterParams{
		Config:      &Config{AppEnv: "development", RateLimitPerMin: 1000},
		CalcHandler: calchttp.NewHandler(nil, calculator.Default()),
		Metrics:     metrics,
	})
	return router, metrics
}

func TestRouterHealthz(t *testing.T) {
	router, _ := newTestRouter(t)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
	require.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
}

func TestRouterMountsCalculator(t *testing.T) {
	router, metrics := newTestRouter(t)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/calc/margin", strings.NewReader(`{"cost_price":"8","selling_price":"10"}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"margin"`)

	scrape := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(scrape, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Contains(t, scrape.Body.String(), `stocktally_http_requests_total{code="200",route="/calc/margin"} 1`)
}

func TestRouterUnknownRouteIsProblem(t *testing.T) {
	router, _ := newTestRouter(t)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Contains(t, rec.Header().Get("Content-Type"), "application/problem+json")
}

func TestRouterServesMetrics(t *testing.T) {
	router, _ := newTestRouter(t)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
}
