package inventory

import (
	"time"

	"github.com/google/uuid"
)

// StockChangedEvent is emitted after a movement is committed.
type StockChangedEvent struct {
	ProductID     uuid.UUID
	ProductName   string
	PreviousStock int64
	NewStock      int64
	ReorderLevel  int64
	ChangedAt     time.Time
}

// CrossedReorderLevel reports whether the movement pushed stock to or below
// the reorder level.
func (e StockChangedEvent) CrossedReorderLevel() bool {
	return e.NewStock <= e.ReorderLevel && e.PreviousStock > e.ReorderLevel
}

// RanOut reports whether the movement emptied the product.
func (e StockChangedEvent) RanOut() bool {
	return e.NewStock <= 0 && e.PreviousStock > 0
}

// NeedsAlert reports whether the change should raise a low stock alert.
func (e StockChangedEvent) NeedsAlert() bool {
	return e.CrossedReorderLevel() || e.RanOut()
}

// Severity grades the stock position after the change.
func (e StockChangedEvent) Severity() Severity {
	return stockSeverity(e.NewStock)
}
