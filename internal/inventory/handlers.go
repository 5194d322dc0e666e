package inventory

import "context"

// StockHook receives stock change events, e.g. to raise low stock alerts.
type StockHook interface {
	HandleStockChanged(ctx context.Context, evt StockChangedEvent) error
}

// RecommendationObserver records classification outcomes.
type RecommendationObserver interface {
	ObserveRecommendation(action string)
}
