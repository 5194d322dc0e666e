package inventory

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/stocktally/stocktally/internal/calculator"
)

// RepositoryPort abstracts repository usage for service.
type RepositoryPort interface {
	ListProducts(ctx context.Context) ([]Product, error)
	GetProduct(ctx context.Context, id uuid.UUID) (Product, error)
	SalesHistory(ctx context.Context, productID uuid.UUID, since time.Time) ([]calculator.SaleSample, error)
	SalesHistoryAll(ctx context.Context, since time.Time) (map[uuid.UUID][]calculator.SaleSample, error)
	GetTally(ctx context.Context, id uuid.UUID) (StockTally, error)
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
}

// ServiceConfig groups optional settings.
type ServiceConfig struct {
	// HistoryDays is the sales window feeding the forecasts.
	HistoryDays int
	Hook        StockHook
	Observer    RecommendationObserver
	Logger      *slog.Logger
}

// Service coordinates inventory forecasting and stock movements.
type Service struct {
	repo        RepositoryPort
	calc        *calculator.Calculator
	cache       *Cache
	historyDays int
	hook        StockHook
	observer    RecommendationObserver
	logger      *slog.Logger
	now         func() time.Time
	builds      singleflight.Group
}

const defaultHistoryDays = 30

// NewService builds Service.
func NewService(repo RepositoryPort, calc *calculator.Calculator, cache *Cache, cfg ServiceConfig) *Service {
	days := cfg.HistoryDays
	if days <= 0 {
		days = defaultHistoryDays
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:        repo,
		calc:        calc,
		cache:       cache,
		historyDays: days,
		hook:        cfg.Hook,
		observer:    cfg.Observer,
		logger:      logger,
		now:         time.Now,
	}
}

func (s *Service) historySince() time.Time {
	return s.today().AddDate(0, 0, -s.historyDays)
}

// ProductInsights computes margin, reorder and stockout forecasts for a product.
func (s *Service) ProductInsights(ctx context.Context, id uuid.UUID) (Insights, error) {
	product, err := s.repo.GetProduct(ctx, id)
	if err != nil {
		return Insights{}, err
	}
	sales, err := s.repo.SalesHistory(ctx, id, s.historySince())
	if err != nil {
		return Insights{}, fmt.Errorf("inventory: load sales history: %w", err)
	}
	velocity := calculator.AverageDailySales(sales)
	return Insights{
		Product:           product,
		AverageDailySales: velocity,
		Margin:            s.calc.ProfitMargin(product.CostPrice, product.SellingPrice),
		Reorder: s.calc.SuggestReorder(calculator.ReorderInput{
			CurrentStock:      product.CurrentStock,
			ReorderLevel:      product.ReorderLevel,
			AverageDailySales: velocity,
		}),
		Stockout: s.calc.PredictStockout(product.CurrentStock, sales),
	}, nil
}

// Recommendations classifies every active product. Results are cached until
// the next stock movement.
func (s *Service) Recommendations(ctx context.Context) ([]calculator.Recommendation, error) {
	key, err := s.cache.BuildKey(ctx, "inventory", "recommendations", fmt.Sprint(s.historyDays))
	if err != nil {
		s.logger.Warn("recommendation cache key", slog.Any("error", err))
		return s.buildRecommendations(ctx)
	}
	var recs []calculator.Recommendation
	err = s.cache.FetchJSON(ctx, key, &recs, func(ctx context.Context) (any, error) {
		val, err, _ := sharedBuild(ctx, &s.builds, key, func(ctx context.Context) (any, error) {
			return s.buildRecommendations(ctx)
		})
		return val, err
	})
	if err != nil {
		return nil, err
	}
	return recs, nil
}

// Classify loads products with their history and runs stock level optimisation
// without touching the cache.
func (s *Service) Classify(ctx context.Context) ([]Product, []calculator.Recommendation, error) {
	var (
		products []Product
		history  map[uuid.UUID][]calculator.SaleSample
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		products, err = s.repo.ListProducts(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		history, err = s.repo.SalesHistoryAll(gctx, s.historySince())
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, fmt.Errorf("inventory: load stock positions: %w", err)
	}
	stocks := make([]calculator.ProductStock, 0, len(products))
	for _, p := range products {
		stocks = append(stocks, calculator.ProductStock{
			ID:           p.ID.String(),
			Name:         p.Name,
			CurrentStock: p.CurrentStock,
			ReorderLevel: p.ReorderLevel,
			Sales:        history[p.ID],
		})
	}
	recs := s.calc.OptimizeStockLevels(stocks)
	if s.observer != nil {
		for _, rec := range recs {
			s.observer.ObserveRecommendation(string(rec.Action))
		}
	}
	return products, recs, nil
}

func (s *Service) buildRecommendations(ctx context.Context) ([]calculator.Recommendation, error) {
	_, recs, err := s.Classify(ctx)
	return recs, err
}

// Valuation values all active products at cost.
func (s *Service) Valuation(ctx context.Context) (calculator.Valuation, error) {
	products, err := s.repo.ListProducts(ctx)
	if err != nil {
		return calculator.Valuation{}, err
	}
	holdings := make([]calculator.Holding, 0, len(products))
	for _, p := range products {
		holdings = append(holdings, calculator.Holding{Quantity: p.CurrentStock, CostPrice: p.CostPrice})
	}
	return s.calc.InventoryValue(holdings), nil
}

// LowStock lists products at or below their reorder level, out of stock first.
func (s *Service) LowStock(ctx context.Context) ([]LowStockItem, error) {
	products, err := s.repo.ListProducts(ctx)
	if err != nil {
		return nil, err
	}
	var critical, warning []LowStockItem
	for _, p := range products {
		if !p.BelowReorderLevel() {
			continue
		}
		item := LowStockItem{Product: p, Severity: SeverityFor(p)}
		if item.Severity == SeverityCritical {
			critical = append(critical, item)
		} else {
			warning = append(warning, item)
		}
	}
	return append(critical, warning...), nil
}

// PostMovement validates a stock in/out against the locked product row and
// persists it when valid. Invalid movements are returned without error.
func (s *Service) PostMovement(ctx context.Context, input MovementInput) (MovementResult, error) {
	if input.ProductID == uuid.Nil {
		return MovementResult{}, ErrProductNotFound
	}
	if input.Quantity <= 0 {
		return MovementResult{}, ErrInvalidQuantity
	}
	var ref ReferenceType
	signed := input.Quantity
	switch input.Direction {
	case calculator.DirectionIn:
		ref = ReferenceStockIn
	case calculator.DirectionOut:
		ref = ReferenceStockOut
		signed = -input.Quantity
	default:
		return MovementResult{}, ErrInvalidDirection
	}

	var (
		result  MovementResult
		product Product
	)
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		result = MovementResult{}
		var err error
		product, err = tx.GetStockForUpdate(ctx, input.ProductID)
		if err != nil {
			return err
		}
		result.Validation = s.calc.ValidateTransaction(product.CurrentStock, input.Quantity, input.Direction)
		if !result.Validation.Valid {
			return nil
		}
		if err := tx.UpdateStock(ctx, input.ProductID, result.Validation.NewStock); err != nil {
			return err
		}
		movement, err := tx.InsertMovement(ctx, Movement{
			ProductID:     input.ProductID,
			Type:          TransactionTypeAdjustment,
			Quantity:      signed,
			PreviousStock: product.CurrentStock,
			NewStock:      result.Validation.NewStock,
			ReferenceType: ref,
			Notes:         input.Notes,
			CreatedBy:     input.ActorID,
		})
		if err != nil {
			return err
		}
		result.Movement = &movement
		return nil
	})
	if err != nil {
		return MovementResult{}, err
	}
	if result.Movement == nil {
		return result, nil
	}

	s.stockChanged(ctx, []stockChange{{product: product, movement: *result.Movement}})
	return result, nil
}

type stockChange struct {
	product  Product
	movement Movement
}

// stockChanged invalidates cached recommendations and notifies the hook for
// every committed movement. Failures are logged; the movements stand.
func (s *Service) stockChanged(ctx context.Context, changes []stockChange) {
	if len(changes) == 0 {
		return
	}
	if err := s.cache.Bump(ctx); err != nil {
		s.logger.Warn("bump inventory cache", slog.Any("error", err))
	}
	if s.hook == nil {
		return
	}
	for _, change := range changes {
		evt := StockChangedEvent{
			ProductID:     change.product.ID,
			ProductName:   change.product.Name,
			PreviousStock: change.movement.PreviousStock,
			NewStock:      change.movement.NewStock,
			ReorderLevel:  change.product.ReorderLevel,
			ChangedAt:     change.movement.CreatedAt,
		}
		if err := s.hook.HandleStockChanged(ctx, evt); err != nil {
			s.logger.Warn("stock hook", slog.String("product_id", change.product.ID.String()), slog.Any("error", err))
		}
	}
}

func (s *Service) today() time.Time {
	now := s.now().UTC()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}

// documentNumber builds human readable numbers such as SALE-261019-1a2b3c4d.
func (s *Service) documentNumber(prefix string) string {
	return fmt.Sprintf("%s-%s-%s", prefix, s.now().UTC().Format("060102"), uuid.NewString()[:8])
}
