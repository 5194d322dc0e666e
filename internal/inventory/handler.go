package inventory

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/stocktally/stocktally/internal/calculator"
	"github.com/stocktally/stocktally/internal/platform/httpx"
)

// ServicePort is the behaviour the HTTP layer needs from Service.
type ServicePort interface {
	ProductInsights(ctx context.Context, id uuid.UUID) (Insights, error)
	Recommendations(ctx context.Context) ([]calculator.Recommendation, error)
	Valuation(ctx context.Context) (calculator.Valuation, error)
	LowStock(ctx context.Context) ([]LowStockItem, error)
	PostMovement(ctx context.Context, input MovementInput) (MovementResult, error)
	RecordSale(ctx context.Context, input SaleInput) (SaleResult, error)
	RecordTally(ctx context.Context, input TallyInput) (StockTally, error)
	GetTally(ctx context.Context, id uuid.UUID) (StockTally, error)
	ApproveTally(ctx context.Context, id uuid.UUID, approver *uuid.UUID) (TallyApproval, error)
}

// Handler wires HTTP endpoints for inventory module.
type Handler struct {
	logger   *slog.Logger
	service  ServicePort
	validate *validator.Validate
}

// NewHandler constructs inventory handler.
func NewHandler(logger *slog.Logger, service ServicePort) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service, validate: httpx.NewValidator()}
}

// MountRoutes registers inventory routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/products/{id}/insights", h.handleInsights)
	r.Get("/recommendations", h.handleRecommendations)
	r.Get("/valuation", h.handleValuation)
	r.Get("/low-stock", h.handleLowStock)
	r.Post("/movements", h.handleMovement)
	r.Post("/sales", h.handleSale)
	r.Post("/tallies", h.handleTally)
	r.Get("/tallies/{id}", h.handleGetTally)
	r.Post("/tallies/{id}/approve", h.handleApproveTally)
}

type movementRequest struct {
	ProductID string `json:"product_id" validate:"required,uuid"`
	Type      string `json:"type" validate:"required,oneof=in out"`
	Quantity  int64  `json:"quantity" validate:"gt=0"`
	Notes     string `json:"notes" validate:"max=500"`
	ActorID   string `json:"actor_id" validate:"omitempty,uuid"`
}

type saleLineRequest struct {
	ProductID string `json:"product_id" validate:"required,uuid"`
	Quantity  int64  `json:"quantity" validate:"gt=0"`
}

type saleRequest struct {
	Items        []saleLineRequest `json:"items" validate:"required,min=1,dive"`
	CustomerName string            `json:"customer_name" validate:"max=200"`
	Notes        string            `json:"notes" validate:"max=500"`
	ActorID      string            `json:"actor_id" validate:"omitempty,uuid"`
}

type tallyCountRequest struct {
	ProductID       string `json:"product_id" validate:"required,uuid"`
	CountedQuantity int64  `json:"counted_quantity" validate:"gte=0"`
	Reason          string `json:"variance_reason" validate:"max=200"`
}

type tallyRequest struct {
	Location  string              `json:"location" validate:"max=200"`
	Notes     string              `json:"notes" validate:"max=500"`
	CountedBy string              `json:"counted_by" validate:"omitempty,uuid"`
	Counts    []tallyCountRequest `json:"counts" validate:"required,min=1,dive"`
}

type approveRequest struct {
	ApprovedBy string `json:"approved_by" validate:"required,uuid"`
}

type recommendationsResponse struct {
	Recommendations []calculator.Recommendation `json:"recommendations"`
}

type lowStockResponse struct {
	Items []LowStockItem `json:"items"`
}

func (h *Handler) handleInsights(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, &httpx.ValidationError{Fields: map[string]string{"id": "must be a valid UUID"}})
		return
	}
	insights, err := h.service.ProductInsights(r.Context(), id)
	if err != nil {
		h.respondError(w, "product insights", err)
		return
	}
	httpx.JSON(w, http.StatusOK, insightsResponse(insights))
}

func (h *Handler) handleRecommendations(w http.ResponseWriter, r *http.Request) {
	recs, err := h.service.Recommendations(r.Context())
	if err != nil {
		h.respondError(w, "recommendations", err)
		return
	}
	if recs == nil {
		recs = []calculator.Recommendation{}
	}
	httpx.JSON(w, http.StatusOK, recommendationsResponse{Recommendations: recs})
}

func (h *Handler) handleValuation(w http.ResponseWriter, r *http.Request) {
	valuation, err := h.service.Valuation(r.Context())
	if err != nil {
		h.respondError(w, "valuation", err)
		return
	}
	httpx.JSON(w, http.StatusOK, valuation)
}

func (h *Handler) handleLowStock(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.LowStock(r.Context())
	if err != nil {
		h.respondError(w, "low stock", err)
		return
	}
	if items == nil {
		items = []LowStockItem{}
	}
	httpx.JSON(w, http.StatusOK, lowStockResponse{Items: items})
}

func (h *Handler) handleMovement(w http.ResponseWriter, r *http.Request) {
	var req movementRequest
	if err := httpx.Bind(r, h.validate, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	input := MovementInput{
		ProductID: uuid.MustParse(req.ProductID),
		Direction: calculator.Direction(req.Type),
		Quantity:  req.Quantity,
		Notes:     req.Notes,
	}
	input.ActorID = optionalActor(req.ActorID)
	result, err := h.service.PostMovement(r.Context(), input)
	if err != nil {
		h.respondError(w, "post movement", err)
		return
	}
	if !result.Validation.Valid {
		httpx.JSON(w, http.StatusUnprocessableEntity, result)
		return
	}
	h.logger.Info("stock movement posted",
		slog.String("product_id", req.ProductID),
		slog.String("type", req.Type),
		slog.Int64("quantity", req.Quantity),
		slog.Int64("new_stock", result.Validation.NewStock))
	httpx.JSON(w, http.StatusCreated, result)
}

func (h *Handler) handleSale(w http.ResponseWriter, r *http.Request) {
	var req saleRequest
	if err := httpx.Bind(r, h.validate, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	input := SaleInput{
		CustomerName: req.CustomerName,
		Notes:        req.Notes,
		ActorID:      optionalActor(req.ActorID),
		Lines:        make([]SaleLineInput, 0, len(req.Items)),
	}
	for _, item := range req.Items {
		input.Lines = append(input.Lines, SaleLineInput{ProductID: uuid.MustParse(item.ProductID), Quantity: item.Quantity})
	}
	result, err := h.service.RecordSale(r.Context(), input)
	if err != nil {
		h.respondError(w, "record sale", err)
		return
	}
	if result.Rejection != nil {
		httpx.JSON(w, http.StatusUnprocessableEntity, result)
		return
	}
	h.logger.Info("sale recorded",
		slog.String("sale_number", result.Sale.Number),
		slog.Int("lines", len(result.Sale.Items)),
		slog.String("total", result.Sale.Total.StringFixed(2)))
	httpx.JSON(w, http.StatusCreated, result)
}

func (h *Handler) handleTally(w http.ResponseWriter, r *http.Request) {
	var req tallyRequest
	if err := httpx.Bind(r, h.validate, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	input := TallyInput{
		Location:  req.Location,
		Notes:     req.Notes,
		CountedBy: optionalActor(req.CountedBy),
		Counts:    make([]TallyCountInput, 0, len(req.Counts)),
	}
	for _, c := range req.Counts {
		input.Counts = append(input.Counts, TallyCountInput{
			ProductID:       uuid.MustParse(c.ProductID),
			CountedQuantity: c.CountedQuantity,
			Reason:          c.Reason,
		})
	}
	tally, err := h.service.RecordTally(r.Context(), input)
	if err != nil {
		h.respondError(w, "record tally", err)
		return
	}
	h.logger.Info("stock tally recorded",
		slog.String("tally_number", tally.Number),
		slog.Int64("total_variance", tally.TotalVariance))
	httpx.JSON(w, http.StatusCreated, tally)
}

func (h *Handler) handleGetTally(w http.ResponseWriter, r *http.Request) {
	id, ok := h.tallyID(w, r)
	if !ok {
		return
	}
	tally, err := h.service.GetTally(r.Context(), id)
	if err != nil {
		h.respondError(w, "get tally", err)
		return
	}
	httpx.JSON(w, http.StatusOK, tally)
}

func (h *Handler) handleApproveTally(w http.ResponseWriter, r *http.Request) {
	id, ok := h.tallyID(w, r)
	if !ok {
		return
	}
	var req approveRequest
	if err := httpx.Bind(r, h.validate, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	approval, err := h.service.ApproveTally(r.Context(), id, optionalActor(req.ApprovedBy))
	if err != nil {
		h.respondError(w, "approve tally", err)
		return
	}
	if approval.Rejection != nil {
		httpx.JSON(w, http.StatusUnprocessableEntity, approval)
		return
	}
	h.logger.Info("stock tally approved",
		slog.String("tally_number", approval.Tally.Number),
		slog.Int("adjustments", len(approval.Movements)))
	httpx.JSON(w, http.StatusOK, approval)
}

func (h *Handler) tallyID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, &httpx.ValidationError{Fields: map[string]string{"id": "must be a valid UUID"}})
		return uuid.Nil, false
	}
	return id, true
}

func optionalActor(raw string) *uuid.UUID {
	if raw == "" {
		return nil
	}
	id := uuid.MustParse(raw)
	return &id
}

func (h *Handler) respondError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, ErrProductNotFound), errors.Is(err, ErrTallyNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, ErrTallyApproved):
		httpx.Problem(w, http.StatusConflict, "Conflict", err.Error())
	case errors.Is(err, ErrInvalidQuantity), errors.Is(err, ErrInvalidDirection),
		errors.Is(err, ErrEmptyRequest), errors.Is(err, ErrDuplicateProduct):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	default:
		h.logger.Error(op, slog.Any("error", err))
		httpx.RespondError(w, err)
	}
}

type stockoutView struct {
	PredictedDate *string         `json:"predicted_date"`
	DaysRemaining calculator.Days `json:"days_remaining"`
}

type insightsView struct {
	Insights
	Stockout stockoutView `json:"stockout"`
}

func insightsResponse(in Insights) insightsView {
	view := insightsView{Insights: in, Stockout: stockoutView{DaysRemaining: in.Stockout.DaysRemaining}}
	if in.Stockout.PredictedDate != nil {
		date := in.Stockout.PredictedDate.Format("2006-01-02")
		view.Stockout.PredictedDate = &date
	}
	return view
}
