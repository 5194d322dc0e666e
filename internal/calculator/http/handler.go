// Package calchttp exposes the inventory calculator over JSON.
package calchttp

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/stocktally/stocktally/internal/calculator"
	"github.com/stocktally/stocktally/internal/platform/httpx"
)

// Handler serves stateless calculator endpoints.
type Handler struct {
	logger   *slog.Logger
	calc     *calculator.Calculator
	validate *validator.Validate
}

// NewHandler constructs the handler.
func NewHandler(logger *slog.Logger, calc *calculator.Calculator) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, calc: calc, validate: httpx.NewValidator()}
}

// MountRoutes registers calculator routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/order-totals", h.handleOrderTotals)
	r.Post("/sale-totals", h.handleSaleTotals)
	r.Post("/margin", h.handleMargin)
	r.Post("/reorder", h.handleReorder)
	r.Post("/stockout", h.handleStockout)
	r.Post("/valuation", h.handleValuation)
	r.Post("/optimize", h.handleOptimize)
	r.Post("/transactions/validate", h.handleValidateTransaction)
}

func (h *Handler) bind(w http.ResponseWriter, r *http.Request, target any) bool {
	if err := httpx.Bind(r, h.validate, target); err != nil {
		h.logger.Debug("calculator request rejected", slog.String("path", r.URL.Path), slog.Any("error", err))
		httpx.RespondError(w, err)
		return false
	}
	return true
}

func (h *Handler) handleOrderTotals(w http.ResponseWriter, r *http.Request) {
	var req orderTotalsRequest
	if !h.bind(w, r, &req) {
		return
	}
	httpx.JSON(w, http.StatusOK, h.calc.OrderTotals(req.lineItems()))
}

func (h *Handler) handleSaleTotals(w http.ResponseWriter, r *http.Request) {
	var req saleTotalsRequest
	if !h.bind(w, r, &req) {
		return
	}
	httpx.JSON(w, http.StatusOK, h.calc.SaleTotals(req.saleLines()))
}

func (h *Handler) handleMargin(w http.ResponseWriter, r *http.Request) {
	var req marginRequest
	if !h.bind(w, r, &req) {
		return
	}
	httpx.JSON(w, http.StatusOK, marginResponse{Margin: h.calc.ProfitMargin(req.CostPrice, req.SellingPrice)})
}

func (h *Handler) handleReorder(w http.ResponseWriter, r *http.Request) {
	var req reorderRequest
	if !h.bind(w, r, &req) {
		return
	}
	httpx.JSON(w, http.StatusOK, h.calc.SuggestReorder(calculator.ReorderInput{
		CurrentStock:      req.CurrentStock,
		ReorderLevel:      req.ReorderLevel,
		AverageDailySales: req.AverageDailySales,
		LeadTimeDays:      req.LeadTimeDays,
	}))
}

func (h *Handler) handleStockout(w http.ResponseWriter, r *http.Request) {
	var req stockoutRequest
	if !h.bind(w, r, &req) {
		return
	}
	prediction := h.calc.PredictStockout(req.CurrentStock, toSamples(req.Sales))
	httpx.JSON(w, http.StatusOK, newStockoutResponse(prediction))
}

func (h *Handler) handleValuation(w http.ResponseWriter, r *http.Request) {
	var req valuationRequest
	if !h.bind(w, r, &req) {
		return
	}
	holdings := make([]calculator.Holding, 0, len(req.Products))
	for _, p := range req.Products {
		holdings = append(holdings, calculator.Holding{Quantity: p.Quantity, CostPrice: p.CostPrice})
	}
	httpx.JSON(w, http.StatusOK, h.calc.InventoryValue(holdings))
}

func (h *Handler) handleOptimize(w http.ResponseWriter, r *http.Request) {
	var req optimizeRequest
	if !h.bind(w, r, &req) {
		return
	}
	products := make([]calculator.ProductStock, 0, len(req.Products))
	for _, p := range req.Products {
		products = append(products, calculator.ProductStock{
			ID:           p.ID,
			Name:         p.Name,
			CurrentStock: p.CurrentStock,
			ReorderLevel: p.ReorderLevel,
			Sales:        toSamples(p.Sales),
		})
	}
	httpx.JSON(w, http.StatusOK, optimizeResponse{Recommendations: h.calc.OptimizeStockLevels(products)})
}

func (h *Handler) handleValidateTransaction(w http.ResponseWriter, r *http.Request) {
	var req transactionRequest
	if !h.bind(w, r, &req) {
		return
	}
	result := h.calc.ValidateTransaction(req.ProductStock, req.TransactionQuantity, calculator.Direction(req.Type))
	httpx.JSON(w, http.StatusOK, result)
}
